// Package cache is the translation result cache: keyed by a hash of the
// input code object's whole msgpack encoding, it stores the
// msgpack-encoded Textual IR module on disk so re-translating unchanged
// input is a cache hit. This gives Determinism property
// (translating the same code object twice yields byte-identical output)
// an actual consumer, mirroring the internal/driver/dcache.go
// disk-backed build cache.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"silgen/internal/bcir"
	"silgen/internal/sil"
)

// Cache is a directory of msgpack-encoded Textual IR modules, one file
// per distinct input code object.
type Cache struct {
	dir string
}

// Open returns a Cache rooted at dir, creating it if necessary.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: creating %s: %w", dir, err)
	}
	return &Cache{dir: dir}, nil
}

// Key hashes a code object's whole msgpack encoding (instructions,
// constants, name tables, filename and nested code objects). Two loads
// of byte-identical input produce the same key regardless of in-memory pointer
// identity.
func Key(co *bcir.CodeObject) (string, error) {
	encoded, err := bcir.EncodeMsgpack(co)
	if err != nil {
		return "", fmt.Errorf("cache: encoding code object for hashing: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// Get returns the cached module for key, or ok=false on a miss.
func (c *Cache) Get(key string) (mod *sil.Module, ok bool, err error) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache: reading %s: %w", key, err)
	}
	var m sil.Module
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, false, fmt.Errorf("cache: decoding %s: %w", key, err)
	}
	return &m, true, nil
}

// Put stores mod under key.
func (c *Cache) Put(key string, mod *sil.Module) error {
	data, err := msgpack.Marshal(mod)
	if err != nil {
		return fmt.Errorf("cache: encoding module for %s: %w", key, err)
	}
	tmp := c.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("cache: writing %s: %w", key, err)
	}
	if err := os.Rename(tmp, c.path(key)); err != nil {
		return fmt.Errorf("cache: committing %s: %w", key, err)
	}
	return nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".silmod")
}
