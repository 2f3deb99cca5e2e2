package docsign

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

func defaultPreviewDir() string {
	return filepath.Join(os.TempDir(), "docsign", "previews")
}

// PreviewStore hands out transient preview files for uploaded signatures.
// Every acquired Preview must be released.
type PreviewStore struct {
	dir  string
	mu   sync.Mutex
	live map[string]struct{}
}

func NewPreviewStore(dir string) *PreviewStore {
	if dir == "" {
		dir = defaultPreviewDir()
	}
	return &PreviewStore{dir: dir, live: make(map[string]struct{})}
}

type Preview struct {
	store *PreviewStore
	path  string
	once  sync.Once
}

func (p *Preview) Path() string {
	return p.path
}

// Release removes the preview file. Calling it more than once is a no-op.
func (p *Preview) Release() error {
	var err error
	p.once.Do(func() {
		p.store.mu.Lock()
		delete(p.store.live, p.path)
		p.store.mu.Unlock()

		if rmErr := os.Remove(p.path); rmErr != nil && !os.IsNotExist(rmErr) {
			err = fmt.Errorf("failed to remove preview %s: %w", p.path, rmErr)
		}
	})
	return err
}

func (ps *PreviewStore) Acquire(fileName string, data []byte) (*Preview, error) {
	if err := os.MkdirAll(ps.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create preview directory: %w", err)
	}

	f, err := os.CreateTemp(ps.dir, "preview_*"+filepath.Ext(fileName))
	if err != nil {
		return nil, fmt.Errorf("failed to create preview file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write preview file: %w", err)
	}

	ps.mu.Lock()
	ps.live[f.Name()] = struct{}{}
	ps.mu.Unlock()

	return &Preview{store: ps, path: f.Name()}, nil
}

// Live reports how many previews are currently acquired.
func (ps *PreviewStore) Live() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.live)
}
