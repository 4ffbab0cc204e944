package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// chdir switches to dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

// TestCommandRegistration verifies all subcommands are wired to the root.
func TestCommandRegistration(t *testing.T) {
	want := []string{"analyze", "cache", "config", "init", "mcp", "version"}

	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}

	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q is not registered", name)
		}
	}
}

func TestResolveConfigNoFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, source, err := resolveConfig()
	if err != nil {
		t.Fatalf("resolveConfig() error: %v", err)
	}
	if source != "" {
		t.Errorf("source = %q, want empty", source)
	}
	if cfg == nil || !cfg.Cache.Enabled {
		t.Error("defaults should enable the cache")
	}
}

func TestResolveConfigFindsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presage.toml")
	content := "[cache]\nenabled = false\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, source, err := resolveConfig()
	if err != nil {
		t.Fatalf("resolveConfig() error: %v", err)
	}
	if source != "presage.toml" {
		t.Errorf("source = %q, want presage.toml", source)
	}
	if cfg.Cache.Enabled {
		t.Error("config file should disable the cache")
	}
}

func TestResolveConfigExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("[output]\nformat = \"json\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfgFile = path
	t.Cleanup(func() { cfgFile = "" })

	cfg, source, err := resolveConfig()
	if err != nil {
		t.Fatalf("resolveConfig() error: %v", err)
	}
	if source != path {
		t.Errorf("source = %q, want %q", source, path)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %q, want json", cfg.Output.Format)
	}
}

func TestGenerateDefaultConfig(t *testing.T) {
	content, err := generateDefaultConfig()
	if err != nil {
		t.Fatalf("generateDefaultConfig() error: %v", err)
	}

	if !strings.HasPrefix(content, "# Presage CLI Configuration") {
		t.Error("generated config should start with a comment header")
	}
	for _, want := range []string{"[cache]", "[analyzers]", "[output]"} {
		if !strings.Contains(content, want) {
			t.Errorf("generated config missing %s section:\n%s", want, content)
		}
	}
}
