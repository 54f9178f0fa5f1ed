package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"issuegrid/internal/config"
	"issuegrid/internal/organize"
)

func TestCompileEntriesBuildsNestedScope(t *testing.T) {
	entries := []config.OrganizeEntry{
		{Filter: "^bug", Name: "Bugs", Order: []string{"urgent", "high"}},
		{Filter: "^area:", Name: "Areas", Organize: []config.OrganizeEntry{
			{Filter: "^area:ui$"},
		}},
		{Filter: "^empty", Group: true},
	}

	scope, err := config.CompileEntries(entries, "organize")
	if err != nil {
		t.Fatalf("CompileEntries: %v", err)
	}
	if scope.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", scope.Len())
	}
	bugs := scope.Entries[0]
	if !bugs.Terminal() || len(bugs.Sorter) != 2 || bugs.Meta.Name != "Bugs" {
		t.Fatalf("unexpected bugs entry: %+v", bugs)
	}
	areas := scope.Entries[1]
	if areas.Terminal() || areas.Scope.Len() != 1 {
		t.Fatalf("expected areas to recurse into one entry, got %+v", areas)
	}
	if areas.Scope.Entries[0].Name() != "^area:ui$" {
		t.Fatalf("expected unnamed entry to fall back to filter, got %q", areas.Scope.Entries[0].Name())
	}
	if scope.Entries[2].Terminal() {
		t.Fatal("expected explicit group to recurse")
	}
}

func TestCompileEntriesReportsLocation(t *testing.T) {
	entries := []config.OrganizeEntry{
		{Filter: "ok"},
		{Filter: "area", Organize: []config.OrganizeEntry{
			{Filter: "fine", Order: []string{"good", "(bad"}},
		}},
	}

	_, err := config.CompileEntries(entries, "profiles[0].organize")
	if !errors.Is(err, organize.ErrInvalidPattern) {
		t.Fatalf("expected ErrInvalidPattern, got %v", err)
	}
	want := "profiles[0].organize[1].organize[0].order[1]"
	if !strings.HasPrefix(err.Error(), want) {
		t.Fatalf("expected location %q in %q", want, err.Error())
	}

	_, err = config.CompileEntries([]config.OrganizeEntry{{Name: "missing"}}, "organize")
	if err == nil || !strings.Contains(err.Error(), "organize[0]: filter is required") {
		t.Fatalf("expected missing filter error, got %v", err)
	}
}

func TestLoadFailsOnInvalidPattern(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "issuegrid.toml")
	body := `
[[profiles]]
name = "triage"
repo = "octo/widgets"

  [[profiles.organize]]
  filter = "[unterminated"
`
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(configPath)
	if !errors.Is(err, organize.ErrInvalidPattern) {
		t.Fatalf("expected ErrInvalidPattern from Load, got %v", err)
	}
	if !strings.Contains(err.Error(), "profiles[0].organize[0].filter") {
		t.Fatalf("expected location in error, got %q", err.Error())
	}
}

const organizeYAML = `organize:
  - bin: ["^Type: Bug", "urgent", "high"]
  - bin:
      filter: "^Type: Feature"
      name: Features
      color: "0e8a16"
      order: ["^Priority"]
  - group:
      filter: "^Area:"
      name: Areas
      organize:
        - bin: ["^Area: UI"]
        - bin: "^Area: API"
`

func TestParseScopeYAML(t *testing.T) {
	scope, err := config.ParseScopeYAML("organize.yaml", []byte(organizeYAML))
	if err != nil {
		t.Fatalf("ParseScopeYAML: %v", err)
	}
	if scope.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", scope.Len())
	}
	if got := scope.Entries[0].Sorter.Sources(); len(got) != 2 || got[0] != "urgent" {
		t.Fatalf("unexpected list-form order %v", got)
	}
	features := scope.Entries[1]
	if features.Meta.Name != "Features" || features.Meta.Color != "#0e8a16" {
		t.Fatalf("unexpected features metadata %+v", features.Meta)
	}
	areas := scope.Entries[2]
	if areas.Terminal() || areas.Scope.Len() != 2 {
		t.Fatalf("expected areas group with 2 bins, got %+v", areas)
	}
}

func TestParseScopeYAMLBareBins(t *testing.T) {
	doc := `repo: octo/widgets
bins:
  - filter: "^Type: Enhancement"
    name: enhancements
  - filter: "^Type: Other"
    order: ["A", "B", "C"]
  - filter: "^.*$"
`
	scope, err := config.ParseScopeYAML("bins.yaml", []byte(doc))
	if err != nil {
		t.Fatalf("ParseScopeYAML: %v", err)
	}
	if scope.Len() != 3 || scope.BinCount() != 3 {
		t.Fatalf("unexpected scope shape len=%d bins=%d", scope.Len(), scope.BinCount())
	}
	if len(scope.Entries[1].Sorter) != 3 {
		t.Fatalf("expected three order patterns, got %d", len(scope.Entries[1].Sorter))
	}
}

func TestParseScopeYAMLAcceptsSortEntries(t *testing.T) {
	doc := `repo: gretchenfrage/reflex
auth_var: GITHUB_TOKEN
organize:
    - bin:
        - "foo*.*"
        - "bar"
    - sort:
        - "dklfhjgkl"
        - "baz"
    - sort:
        - "zamboni!"
`
	scope, err := config.ParseScopeYAML("issue-grid.yaml", []byte(doc))
	if err != nil {
		t.Fatalf("ParseScopeYAML: %v", err)
	}
	if scope.Len() != 3 || scope.BinCount() != 1 {
		t.Fatalf("unexpected scope shape len=%d bins=%d", scope.Len(), scope.BinCount())
	}
	sorted := scope.Entries[1]
	if sorted.Terminal() {
		t.Fatal("expected sort entry to nest a scope")
	}
	if got := sorted.Filter.String(); got != "dklfhjgkl" {
		t.Fatalf("unexpected sort filter %q", got)
	}
	if got := sorted.Sorter.Sources(); len(got) != 1 || got[0] != "baz" {
		t.Fatalf("unexpected sort order %v", got)
	}
	if sorted.Scope.Len() != 0 {
		t.Fatalf("expected empty nested scope, got %d entries", sorted.Scope.Len())
	}
}

func TestParseScopeYAMLReportsLineAndColumn(t *testing.T) {
	doc := "- bin: [\"ok\"]\n- bin:\n    filter: \"(oops\"\n"
	_, err := config.ParseScopeYAML("organize.yaml", []byte(doc))
	if !errors.Is(err, organize.ErrInvalidPattern) {
		t.Fatalf("expected ErrInvalidPattern, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "organize.yaml:3:13") {
		t.Fatalf("expected line:column prefix, got %q", err.Error())
	}
}

func TestParseScopeYAMLRejectsUnknownShapes(t *testing.T) {
	tests := map[string]string{
		"unknown kind":      "- pile: [\"x\"]\n",
		"unknown key":       "- bin:\n    filter: x\n    colour: red\n",
		"organize on bin":   "- bin:\n    filter: x\n    organize: []\n",
		"empty list form":   "- bin: []\n",
		"scalar document":   "just text\n",
		"two keys in entry": "- bin: x\n  group: y\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := config.ParseScopeYAML("bad.yaml", []byte(doc)); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestProfileOrganizeFileResolvesRelativeToConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "roadmap.yaml"), []byte(organizeYAML), 0o644); err != nil {
		t.Fatalf("write organize file: %v", err)
	}
	configPath := filepath.Join(dir, "issuegrid.toml")
	body := `
[[profiles]]
name = "roadmap"
repo = "octo/widgets"
allow_duplicates = true
organize_file = "roadmap.yaml"
`
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Profiles[0].OrganizeFile != filepath.Join(dir, "roadmap.yaml") {
		t.Fatalf("unexpected organize file path %q", cfg.Profiles[0].OrganizeFile)
	}
	scopes, err := cfg.Scopes()
	if err != nil {
		t.Fatalf("Scopes: %v", err)
	}
	if len(scopes) != 1 || !scopes[0].AllowDuplicates || scopes[0].Scope.Len() != 3 {
		t.Fatalf("unexpected compiled profile %+v", scopes[0])
	}
}
