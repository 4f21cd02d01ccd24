package bcir

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// Loader produces a CodeObject from a serialized file. The translator
// depends only on this interface; the bytecode compiler that produces the
// file lives outside this module. The concrete loaders below are
// conveniences for the CLI and tests.
type Loader interface {
	Load(path string) (*CodeObject, error)
}

// MsgpackLoader decodes the msgpack wire encoding of a CodeObject produced
// upstream by a bytecode compiler. This is the format the CLI and
// internal/cache use on disk.
type MsgpackLoader struct{}

func (MsgpackLoader) Load(path string) (*CodeObject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bcir: reading %s: %w", path, err)
	}
	var co CodeObject
	if err := msgpack.Unmarshal(data, &co); err != nil {
		return nil, fmt.Errorf("bcir: decoding %s: %w", path, err)
	}
	return &co, nil
}

// EncodeMsgpack serializes a CodeObject for caching or shipping between
// the loader and the translator.
func EncodeMsgpack(co *CodeObject) ([]byte, error) {
	return msgpack.Marshal(co)
}
