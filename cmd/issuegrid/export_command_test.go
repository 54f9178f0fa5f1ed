package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExportWritesMarkdownFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := filepath.Join(env.baseDir, "export")

	out, _, err := runCLI(t, []string{"export", "octo-org/widgets", "--path", dir}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	requireContains(t, out, "(6 created, 0 updated, 0 unchanged)")

	content, err := os.ReadFile(filepath.Join(dir, "001-crash-on-save.md"))
	if err != nil {
		t.Fatalf("read exported issue: %v", err)
	}
	requireContains(t, string(content), "# Crash on save (#1)")

	out, _, err = runCLI(t, []string{"export", "octo-org/widgets", "--path", dir}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("second export: %v", err)
	}
	requireContains(t, out, "(0 created, 0 updated, 6 unchanged)")
}

func TestExportGroupsByProfileBins(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := filepath.Join(env.baseDir, "binned")

	_, _, err := runCLI(t, []string{"export", "octo-org/widgets", "--path", dir, "--profile", "triage"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, rel := range []string{
		"Bugs/001-crash-on-save.md",
		"Bugs/003-data-loss-on-sync.md",
		"Features/002-dark-mode.md",
		"Areas/UI/004-button-misaligned.md",
		"Areas/API/005-timeouts-on-list-endpoint.md",
		"overflow/006-question-about-licensing.md",
	} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
			t.Errorf("expected %s: %v", rel, err)
		}
	}
}

func TestExportRejectsBadQuery(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"export", "not-a-repo"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected invalid repository error")
	}
}
