package main

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"silgen/internal/driver"
	"silgen/internal/ui"
)

// runTranslateDirWithUI mirrors driver.TranslateDir but drives a Bubble Tea
// progress model off the same event stream instead of printing directly.
func runTranslateDirWithUI(ctx context.Context, dir string, opts driver.Options) ([]driver.Result, error) {
	files, err := listPycFilesForUI(dir)
	if err != nil {
		return nil, err
	}

	events := make(chan driver.Event, 256)
	opts.Progress = driver.ChannelSink{Ch: events}

	type outcome struct {
		results []driver.Result
		err     error
	}
	outcomeCh := make(chan outcome, 1)

	go func() {
		results, err := driver.TranslateDir(ctx, dir, opts)
		outcomeCh <- outcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("translating", files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	out := <-outcomeCh
	if uiErr != nil {
		return out.results, uiErr
	}
	return out.results, out.err
}

func listPycFilesForUI(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".pyc") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
