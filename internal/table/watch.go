package table

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ChangeFunc is called when the dataset file changes on disk.
type ChangeFunc func(path string, op fsnotify.Op)

// Watch reports writes, renames and removals of the dataset file until ctx is
// cancelled. It never reloads the table: the loaded rows stay as they are for
// the lifetime of the process.
//
// The parent directory is watched so that editors replacing the file by rename
// are still seen.
func Watch(ctx context.Context, path string, onChange ChangeFunc, onError func(error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve dataset path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer fsw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				switch {
				case ev.Op&fsnotify.Write != 0,
					ev.Op&fsnotify.Create != 0,
					ev.Op&fsnotify.Remove != 0,
					ev.Op&fsnotify.Rename != 0:
					onChange(abs, ev.Op)
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				if onError != nil {
					onError(err)
				}
			}
		}
	}()

	return nil
}
