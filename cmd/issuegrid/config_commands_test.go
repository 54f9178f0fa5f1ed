package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("HOME", env.baseDir)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "1 profiles, 4 bins")
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.socketPath, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.socketPath, ""); err == nil {
		t.Fatal("expected init to refuse overwriting an existing file")
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, env.socketPath, target)
	if err != nil {
		t.Fatalf("validate sample: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateReportsBadPattern(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Profiles[0].Organize[0].Filter = "("
	bad := filepath.Join(env.baseDir, "bad.toml")
	writeTestConfig(t, bad, env.cfg)

	_, _, err := runCLI(t, []string{"config", "validate"}, env.socketPath, bad)
	if err == nil {
		t.Fatal("expected invalid pattern error")
	}
	requireContains(t, err.Error(), "profiles[0].organize[0].filter")
}
