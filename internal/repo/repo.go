// Package repo locates and persists archives, either as ",v" files next
// to the working files or inside a SQLite store.
package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/renameio"
	log "github.com/sirupsen/logrus"

	"rcskit/internal/ignore"
	"rcskit/internal/store"
	"rcskit/rcs"
)

// ErrNotFound is returned when no archive exists for a name.
var ErrNotFound = errors.New("archive not found")

// Repository loads and saves archives by working-file name.
type Repository interface {
	// Load reads the archive for name.
	Load(name string, opts ...rcs.Option) (*rcs.Archive, error)
	// Save writes the archive for name, replacing any earlier one.
	Save(name string, a *rcs.Archive) error
	// Exists reports whether an archive for name is present.
	Exists(name string) (bool, error)
	// List returns the working-file names of all archives.
	List() ([]string, error)
}

// Files keeps each archive in a ",v" file beside its working file.
type Files struct {
	Root   string
	Suffix string
	// Ignore, when set, hides matching paths from List.
	Ignore *ignore.Matcher
}

// NewFiles returns a file repository rooted at root.
func NewFiles(root, suffix string) *Files {
	if suffix == "" {
		suffix = ",v"
	}
	return &Files{Root: root, Suffix: suffix}
}

// ArchivePath returns the archive file path for a working file. Names that
// already carry the suffix are used as is.
func (f *Files) ArchivePath(name string) string {
	if !strings.HasSuffix(name, f.Suffix) {
		name += f.Suffix
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(f.Root, name)
}

// WorkingName strips the archive suffix from name.
func (f *Files) WorkingName(name string) string {
	return strings.TrimSuffix(name, f.Suffix)
}

func (f *Files) Load(name string, opts ...rcs.Option) (*rcs.Archive, error) {
	path := f.ArchivePath(name)
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	defer file.Close()
	return rcs.Load(path, file, opts...)
}

// Save writes the archive atomically; readers never see a partial file.
func (f *Files) Save(name string, a *rcs.Archive) error {
	path := f.ArchivePath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}
	if err := renameio.WriteFile(path, []byte(a.String()), 0444); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.WithFields(log.Fields{"archive": path, "head": a.Head().String()}).Debug("saved archive")
	return nil
}

func (f *Files) Exists(name string) (bool, error) {
	_, err := os.Stat(f.ArchivePath(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (f *Files) List() ([]string, error) {
	var names []string
	err := filepath.WalkDir(f.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(f.Root, path)
		if err != nil {
			return err
		}
		if rel != "." && f.Ignore != nil && f.Ignore.Match(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(path, f.Suffix) {
			return nil
		}
		names = append(names, f.WorkingName(filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Store keeps archives in a SQLite store, keyed by working-file name.
type Store struct {
	DB    *store.DB
	Actor string
}

// NewStore returns a repository backed by db. actor is recorded in the
// store's write history.
func NewStore(db *store.DB, actor string) *Store {
	return &Store{DB: db, Actor: actor}
}

func (s *Store) Load(name string, opts ...rcs.Option) (*rcs.Archive, error) {
	a, err := s.DB.Get(name, opts...)
	if errors.Is(err, store.ErrArchiveNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return a, err
}

func (s *Store) Save(name string, a *rcs.Archive) error {
	return s.DB.Put(name, s.Actor, a)
}

func (s *Store) Exists(name string) (bool, error) {
	_, err := s.DB.GetRaw(name)
	if errors.Is(err, store.ErrArchiveNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) List() ([]string, error) {
	infos, err := s.DB.List()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names, nil
}

// Copy copies every archive from src to dst and returns the names copied.
func Copy(dst, src Repository) ([]string, error) {
	names, err := src.List()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		a, err := src.Load(name)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", name, err)
		}
		if err := dst.Save(name, a); err != nil {
			return nil, fmt.Errorf("saving %s: %w", name, err)
		}
	}
	return names, nil
}
