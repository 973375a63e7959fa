// Package ignore filters archive discovery with gitignore-style patterns
// read from an .rcsignore file.
package ignore

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileName is the per-directory ignore file consulted by Load.
const FileName = ".rcsignore"

type pattern struct {
	glob    string
	negated bool
	dirOnly bool
}

// Matcher holds ignore patterns. Later patterns win, so a "!" pattern can
// re-include something an earlier one excluded.
type Matcher struct {
	patterns []pattern
}

// New returns a matcher with no patterns.
func New() *Matcher {
	return &Matcher{}
}

// Load returns a matcher with the default patterns plus those in
// root/.rcsignore, if that file exists.
func Load(root string) (*Matcher, error) {
	m := New()
	m.AddDefaults()
	if err := m.LoadFile(filepath.Join(root, FileName)); err != nil {
		return nil, err
	}
	return m, nil
}

// Add parses one line. Blank lines and # comments are skipped.
func (m *Matcher) Add(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	var p pattern
	if rest, ok := strings.CutPrefix(line, "!"); ok {
		p.negated = true
		line = rest
	}
	if rest, ok := strings.CutSuffix(line, "/"); ok {
		p.dirOnly = true
		line = rest
	}
	if rest, ok := strings.CutPrefix(line, "/"); ok {
		line = rest
	} else if !strings.Contains(line, "/") {
		// unanchored names match at any depth
		line = "**/" + line
	}
	if !doublestar.ValidatePattern(line) {
		return errors.New("ignore: invalid pattern " + line)
	}
	p.glob = line
	m.patterns = append(m.patterns, p)
	return nil
}

// LoadFile adds every pattern in path. A missing file adds nothing.
func (m *Matcher) LoadFile(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if err := m.Add(sc.Text()); err != nil {
			return err
		}
	}
	return sc.Err()
}

// AddDefaults ignores the metadata directories of other version control
// systems and editor droppings.
func (m *Matcher) AddDefaults() {
	for _, p := range []string{".git/", ".hg/", ".svn/", "CVS/", "RCS/", "*.tmp", "*~", ".#*"} {
		m.Add(p)
	}
}

// Match reports whether the slash-separated relative path is ignored.
func (m *Matcher) Match(path string, isDir bool) bool {
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")
	ignored := false
	for _, p := range m.patterns {
		var hit bool
		if p.dirOnly && !isDir {
			hit = inDir(p.glob, path)
		} else {
			hit = match(p.glob, path)
		}
		if hit {
			ignored = !p.negated
		}
	}
	return ignored
}

// inDir reports whether some parent directory of path matches glob.
func inDir(glob, path string) bool {
	for i := strings.IndexByte(path, '/'); i >= 0; i = nextSlash(path, i) {
		if match(glob, path[:i]) {
			return true
		}
	}
	return false
}

func nextSlash(path string, i int) int {
	j := strings.IndexByte(path[i+1:], '/')
	if j < 0 {
		return -1
	}
	return i + 1 + j
}

func match(glob, path string) bool {
	if ok, _ := doublestar.Match(glob, path); ok {
		return true
	}
	ok, _ := doublestar.Match(glob+"/**", path)
	return ok
}
