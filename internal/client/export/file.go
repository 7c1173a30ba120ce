package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink пишет копию в локальную директорию с правами 0600
type FileSink struct {
	Dir string
}

// Put записывает копию атомарно: временный файл и rename
func (f FileSink) Put(_ context.Context, name string, data []byte) (string, error) {
	dir := f.Dir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, filepath.Base(name))

	tmp, err := os.CreateTemp(dir, ".zkvault-export-*")
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to set export file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move export file: %w", err)
	}
	return path, nil
}
