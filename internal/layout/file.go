package layout

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileSource serves *.json layout records from a directory. The record id is
// the file name without its extension.
type FileSource struct {
	Dir string
}

// NewFileSource creates a directory-backed source.
func NewFileSource(dir string) *FileSource {
	return &FileSource{Dir: dir}
}

// List returns every record in the directory, sorted by id.
func (s *FileSource) List(ctx context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, listErr(err)
	}
	var out []Summary
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, listErr(err)
		}
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		out = append(out, Summary{ID: id, Name: s.peekName(id)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Fetch reads one record.
func (s *FileSource) Fetch(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fetchErr(id, err)
	}
	path, err := s.path(id)
	if err != nil {
		return nil, fetchErr(id, err)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fetchErr(id, ErrNotFound)
	}
	if err != nil {
		return nil, fetchErr(id, err)
	}
	return data, nil
}

// path rejects ids that would escape the directory.
func (s *FileSource) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", ErrNotFound
	}
	return filepath.Join(s.Dir, id+".json"), nil
}

// peekName reads the record's display name, falling back to its id.
func (s *FileSource) peekName(id string) string {
	path, err := s.path(id)
	if err != nil {
		return id
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return id
	}
	var head struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(data, &head) != nil || strings.TrimSpace(head.Name) == "" {
		return id
	}
	return strings.TrimSpace(head.Name)
}
