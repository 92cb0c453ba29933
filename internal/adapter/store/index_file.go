package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/arturoeanton/casestudy-assistant/internal/domain"
	"github.com/arturoeanton/casestudy-assistant/internal/port"
)

// IndexFile is a JSON file holding one VectorIndex. The first Load that gets
// to read the file validates it; every later Load returns the same value (or
// file error). A Load whose context is already done reads nothing and caches
// nothing.
type IndexFile struct {
	path string

	mu     sync.Mutex
	loaded bool
	idx    *domain.VectorIndex
	err    error
}

var (
	_ port.IndexSource = (*IndexFile)(nil)
	_ port.IndexWriter = (*IndexFile)(nil)
)

// NewIndexFile returns a store backed by path. Nothing is read until Load.
func NewIndexFile(path string) *IndexFile {
	return &IndexFile{path: path}
}

// Path returns the backing file path.
func (f *IndexFile) Path() string { return f.path }

// Load returns the index, reading it on first use.
func (f *IndexFile) Load(ctx context.Context) (*domain.VectorIndex, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loaded {
		return f.idx, f.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.idx, f.err = f.read()
	f.loaded = true
	return f.idx, f.err
}

func (f *IndexFile) read() (*domain.VectorIndex, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", port.ErrIndexNotFound, f.path)
		}
		return nil, fmt.Errorf("read index %s: %w", f.path, err)
	}

	var idx domain.VectorIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", port.ErrMalformedIndex, f.path, err)
	}
	if err := ValidateIndex(&idx); err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	return &idx, nil
}

// ValidateIndex checks the structural invariants the retriever relies on.
func ValidateIndex(idx *domain.VectorIndex) error {
	if idx.Meta.Dims < 0 {
		return fmt.Errorf("%w: negative dims %d", port.ErrMalformedIndex, idx.Meta.Dims)
	}
	seen := make(map[string]struct{}, len(idx.Docs))
	for i := range idx.Docs {
		d := &idx.Docs[i]
		if d.ID == "" {
			return fmt.Errorf("%w: document %d has no id", port.ErrMalformedIndex, i)
		}
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("%w: duplicate document id %q", port.ErrMalformedIndex, d.ID)
		}
		seen[d.ID] = struct{}{}

		for _, t := range d.Themes {
			if !t.Valid() {
				return fmt.Errorf("%w: document %q has unknown theme %q", port.ErrMalformedIndex, d.ID, t)
			}
		}
		for j := range d.Chunks {
			c := &d.Chunks[j]
			if len(c.Embedding) == 0 || len(c.Embedding) != idx.Meta.Dims {
				return fmt.Errorf("%w: chunk %q has %d dims, meta says %d",
					port.ErrMalformedIndex, c.ID, len(c.Embedding), idx.Meta.Dims)
			}
		}
	}
	return nil
}

// Save writes idx atomically: a temp file in the target directory is fsynced
// and renamed over the target. The loaded value, if any, is left untouched.
func (f *IndexFile) Save(ctx context.Context, idx *domain.VectorIndex) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp index: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}
	committed = true
	return nil
}
