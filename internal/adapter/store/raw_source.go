package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arturoeanton/casestudy-assistant/internal/domain"
	"github.com/arturoeanton/casestudy-assistant/internal/port"
)

// RawDir reads scraped records from *.json files in a directory. Files whose
// name starts with "_" are aggregates and are skipped.
type RawDir struct {
	dir string
}

var _ port.RawSource = (*RawDir)(nil)

func NewRawDir(dir string) *RawDir {
	return &RawDir{dir: dir}
}

// ReadAll returns usable records in lexical file name order. A file may hold a
// single record or an array of records.
func (r *RawDir) ReadAll(ctx context.Context) ([]domain.RawDocument, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read raw dir %s: %w", r.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var out []domain.RawDocument
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := readRawFile(filepath.Join(r.dir, name))
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			if strings.TrimSpace(rec.Title) == "" || strings.TrimSpace(rec.Body) == "" {
				slog.Warn("skipping raw record without title or body", "file", name, "url", rec.URL)
				continue
			}
			out = append(out, rec)
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w in %s", port.ErrNoRawDocuments, r.dir)
	}
	return out, nil
}

func readRawFile(path string) ([]domain.RawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read raw file: %w", err)
	}
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '[' {
		var recs []domain.RawDocument
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return recs, nil
	}

	var rec domain.RawDocument
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return []domain.RawDocument{rec}, nil
}
