package corpcode

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"
)

const fileName = "corp-codes.json"

// DefaultCachePath is the user-scoped directory file.
func DefaultCachePath() string {
	return filepath.Join(xdg.CacheHome, "opendart", fileName)
}

// DefaultDataPath is the project-local directory file.
func DefaultDataPath() string {
	return filepath.Join("data", fileName)
}

// Store reads and writes the directory file. Paths are tried in order on
// read; writes go to the first path.
type Store struct {
	fs    afero.Fs
	paths []string
}

// NewStore returns a Store over fsys (the OS filesystem when nil). Empty
// paths are dropped.
func NewStore(fsys afero.Fs, paths ...string) *Store {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	clean := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return &Store{fs: fsys, paths: clean}
}

// Paths returns the lookup order.
func (s *Store) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Locate returns the first existing path.
func (s *Store) Locate() (string, bool) {
	for _, p := range s.paths {
		info, err := s.fs.Stat(p)
		if err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Load reads the first existing file. A missing file yields an
// UnavailableError.
func (s *Store) Load() (*Directory, string, error) {
	path, ok := s.Locate()
	if !ok {
		return nil, "", &UnavailableError{Paths: s.Paths()}
	}
	raw, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, path, &UnavailableError{Paths: s.Paths(), Err: err}
	}
	var dir Directory
	if err := json.Unmarshal(raw, &dir); err != nil {
		return nil, path, &UnavailableError{Paths: s.Paths(), Err: fmt.Errorf("decode %s: %w", path, err)}
	}
	if dir.ByName == nil || dir.ByCorpCode == nil {
		return nil, path, &UnavailableError{Paths: s.Paths(), Err: fmt.Errorf("%s: byName and byCorpCode are required", path)}
	}
	if dir.ByStockCode == nil {
		dir.ByStockCode = map[string]string{}
	}
	return &dir, path, nil
}

// Save writes dir to the first path, replacing any previous file in one
// rename so readers never observe a partial document.
func (s *Store) Save(dir *Directory) (string, error) {
	if len(s.paths) == 0 {
		return "", errors.New("corpcode: no directory path configured")
	}
	if dir == nil {
		return "", errors.New("corpcode: nil directory")
	}
	path := s.paths[0]
	raw, err := json.Marshal(dir)
	if err != nil {
		return "", fmt.Errorf("corpcode: encode directory: %w", err)
	}
	parent := filepath.Dir(path)
	if err := s.fs.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("corpcode: create %s: %w", parent, err)
	}
	tmp, err := afero.TempFile(s.fs, parent, "."+fileName+"-*")
	if err != nil {
		return "", fmt.Errorf("corpcode: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return "", fmt.Errorf("corpcode: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return "", fmt.Errorf("corpcode: close %s: %w", tmpName, err)
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		_ = s.fs.Remove(tmpName)
		return "", fmt.Errorf("corpcode: rename to %s: %w", path, err)
	}
	return path, nil
}
