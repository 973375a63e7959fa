// Package expand chooses a keyword expansion mode per file via path glob
// rules, so that binary files can be checked in with mode "b".
package expand

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"rcskit/rcs/keyword"
)

// Rule assigns an expansion mode to the paths matching its patterns.
type Rule struct {
	Mode  string   `yaml:"mode"`
	Paths []string `yaml:"paths"`
}

// RulesConfig holds the rules file contents.
type RulesConfig struct {
	Rules []Rule `yaml:"rules"`
}

// Matcher maps file paths to expansion modes. The first matching rule wins.
type Matcher struct {
	rules []Rule
}

// NewMatcher creates a matcher from a list of rules.
func NewMatcher(rules []Rule) (*Matcher, error) {
	for _, r := range rules {
		if !keyword.ValidMode(r.Mode) {
			return nil, fmt.Errorf("unknown expansion mode %q", r.Mode)
		}
		for _, p := range r.Paths {
			if !doublestar.ValidatePattern(p) {
				return nil, fmt.Errorf("invalid path pattern %q", p)
			}
		}
	}
	return &Matcher{rules: rules}, nil
}

// LoadRules loads rules from a YAML file.
func LoadRules(path string) (*Matcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	return parseRules(data)
}

// LoadRulesOrEmpty loads rules from file, or returns an empty matcher if
// path is empty or the file doesn't exist.
func LoadRulesOrEmpty(path string) (*Matcher, error) {
	if path == "" {
		return &Matcher{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Matcher{}, nil
		}
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	return parseRules(data)
}

func parseRules(data []byte) (*Matcher, error) {
	var config RulesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	return NewMatcher(config.Rules)
}

// ModeFor returns the mode of the first rule matching path. ok is false
// when no rule matches.
func (m *Matcher) ModeFor(path string) (mode string, ok bool) {
	path = filepath.ToSlash(path)
	for _, r := range m.rules {
		for _, pattern := range r.Paths {
			if match, err := doublestar.Match(pattern, path); err == nil && match {
				return r.Mode, true
			}
		}
	}
	return "", false
}

// ModesFor groups paths by the mode that applies to them. Paths no rule
// matches are listed under def.
func (m *Matcher) ModesFor(paths []string, def string) map[string][]string {
	result := make(map[string][]string)
	for _, p := range paths {
		mode, ok := m.ModeFor(p)
		if !ok {
			mode = def
		}
		result[mode] = append(result[mode], p)
	}
	return result
}

// Rules returns all rules.
func (m *Matcher) Rules() []Rule {
	return m.rules
}

// AddRule appends a rule with lower precedence than the existing ones.
func (m *Matcher) AddRule(mode string, paths []string) error {
	if _, err := NewMatcher([]Rule{{Mode: mode, Paths: paths}}); err != nil {
		return err
	}
	m.rules = append(m.rules, Rule{Mode: mode, Paths: paths})
	return nil
}

// SaveRules saves the rules to a YAML file.
func (m *Matcher) SaveRules(path string) error {
	config := RulesConfig{Rules: m.rules}
	data, err := yaml.Marshal(&config)
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing rules file: %w", err)
	}
	return nil
}
