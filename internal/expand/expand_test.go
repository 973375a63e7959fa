package expand

import (
	"os"
	"path/filepath"
	"testing"
)

func testMatcher(t *testing.T) *Matcher {
	t.Helper()
	m, err := NewMatcher([]Rule{
		{Mode: "b", Paths: []string{"**/*.png", "**/*.jar"}},
		{Mode: "o", Paths: []string{"vendor/**"}},
		{Mode: "k", Paths: []string{"docs/*.txt"}},
	})
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}
	return m
}

func TestModeFor(t *testing.T) {
	m := testMatcher(t)
	tests := []struct {
		path string
		mode string
		ok   bool
	}{
		{"logo.png", "b", true},
		{"assets/img/logo.png", "b", true},
		{"vendor/lib/x.go", "o", true},
		{"vendor/lib/x.png", "b", true},
		{"docs/readme.txt", "k", true},
		{"docs/deep/readme.txt", "", false},
		{"main.go", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			mode, ok := m.ModeFor(tc.path)
			if mode != tc.mode || ok != tc.ok {
				t.Errorf("ModeFor(%q) = %q, %v; want %q, %v", tc.path, mode, ok, tc.mode, tc.ok)
			}
		})
	}
}

func TestModesFor(t *testing.T) {
	m := testMatcher(t)
	got := m.ModesFor([]string{"a.png", "b.go", "vendor/c.go", "d.go"}, "kv")
	if len(got["kv"]) != 2 || len(got["b"]) != 1 || len(got["o"]) != 1 {
		t.Errorf("ModesFor = %v", got)
	}
}

func TestNewMatcherRejects(t *testing.T) {
	if _, err := NewMatcher([]Rule{{Mode: "zz", Paths: []string{"*"}}}); err == nil {
		t.Error("expected error for unknown mode")
	}
	if _, err := NewMatcher([]Rule{{Mode: "b", Paths: []string{"[unclosed"}}}); err == nil {
		t.Error("expected error for bad pattern")
	}
}

func TestSaveAndLoadRules(t *testing.T) {
	m := testMatcher(t)
	if err := m.AddRule("v", []string{"*.tmpl"}); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "conf", "expand.yaml")
	if err := m.SaveRules(path); err != nil {
		t.Fatalf("SaveRules: %v", err)
	}
	loaded, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(loaded.Rules()) != 4 {
		t.Errorf("expected 4 rules, got %d", len(loaded.Rules()))
	}
	if mode, _ := loaded.ModeFor("page.tmpl"); mode != "v" {
		t.Errorf("expected mode v, got %q", mode)
	}
}

func TestLoadRulesOrEmpty(t *testing.T) {
	m, err := LoadRulesOrEmpty(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.ModeFor("x.png"); ok {
		t.Error("empty matcher matched")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("rules: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRulesOrEmpty(path); err == nil {
		t.Error("expected parse error")
	}
}
