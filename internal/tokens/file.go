package tokens

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	stateFileName    = "state.json"
	filePollInterval = time.Second
	stateFileMode    = 0o600
	stateDirMode     = 0o700
)

// implements Persister and Watcher on a JSON file in the user state dir
type FilePersister struct {
	path         string
	pollInterval time.Duration
}

// creates a file persister writing <dir>/state.json
func NewFilePersister(dir string) (*FilePersister, error) {
	if err := os.MkdirAll(dir, stateDirMode); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}

	return &FilePersister{
		path:         filepath.Join(dir, stateFileName),
		pollInterval: filePollInterval,
	}, nil
}

// reads the state file; a missing file is an empty state
func (p *FilePersister) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	return data, nil
}

// writes the state file atomically (temp file + rename)
func (p *FilePersister) Save(_ context.Context, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}

	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // already failing
		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := tmp.Chmod(stateFileMode); err != nil {
		tmp.Close() //nolint:errcheck,gosec // already failing
		return fmt.Errorf("failed to chmod state file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

// removes the state file
func (p *FilePersister) Delete(_ context.Context) error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}

	return nil
}

// polls the state file and reports content changes until ctx is done
func (p *FilePersister) Watch(ctx context.Context, onChange func(data []byte)) error {
	last, err := p.Load(ctx)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			current, err := p.Load(ctx)
			if err != nil {
				continue
			}

			if bytes.Equal(current, last) {
				continue
			}

			last = current
			onChange(current)
		}
	}
}
