// Package jsonfile implements the durable stores on plain files in the data
// directory: settings.json and tasks.json are fully rewritten through a
// write-temp-then-rename, ledger.jsonl and history.jsonl are append-only with
// one JSON record per line. Reads tolerate missing or corrupt files by
// degrading to defaults/empty; write failures propagate to the caller.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	settingsFile = "settings.json"
	tasksFile    = "tasks.json"
	ledgerFile   = "ledger.jsonl"
	historyFile  = "history.jsonl"
)

// Dir is a data directory holding all four store files.
type Dir struct {
	path string
}

// Open ensures the data directory exists and returns it.
func Open(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path returns the data directory path.
func (d *Dir) Path() string { return d.path }

func (d *Dir) file(name string) string { return filepath.Join(d.path, name) }

// writeAtomic writes data to a temp file in the same directory and renames it
// over the target, so the target is never observed half-written.
func (d *Dir) writeAtomic(name string, data []byte) error {
	target := d.file(name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// appendLine appends one JSON record plus newline to an append-only file.
func (d *Dir) appendLine(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", name, err)
	}
	f, err := os.OpenFile(d.file(name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	return nil
}
