package pattern

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store defines the read interface over a pattern library.
// Abstracted for testability (DIP).
type Store interface {
	List(dir string) ([]string, error)
	Load(dir, name string) (*Pattern, error)
}

// FileStore implements Store over a directory of <name>.json files.
type FileStore struct{}

// NewFileStore creates a filesystem-backed pattern store.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// List returns the names of all patterns in the library directory,
// sorted alphabetically. A missing directory is an empty library.
func (fs *FileStore) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading pattern library %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Load reads and validates one pattern by name.
func (fs *FileStore) Load(dir, name string) (*Pattern, error) {
	path := filepath.Join(dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("pattern %q not found in %s", name, dir)
		}
		return nil, fmt.Errorf("reading pattern %q: %w", name, err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", name, err)
	}
	return p, nil
}
