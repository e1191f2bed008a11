package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, "", "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if _, _, err := runCLI(t, "", "", "config", "init", "--path", target); err != nil {
		t.Fatalf("first config init: %v", err)
	}
	if _, _, err := runCLI(t, "", "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected error without --overwrite")
	}
	if _, _, err := runCLI(t, "", "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowRedactsAPIKey(t *testing.T) {
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := "[paths]\ndata_dir = \"" + filepath.Join(base, "data") + "\"\nlog_dir = \"" +
		filepath.Join(base, "logs") + "\"\n\n[stash]\napi_key = \"supersecret\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, _, err := runCLI(t, configPath, "", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "<set>")
	if strings.Contains(out, "supersecret") {
		t.Fatal("api key must not appear in show output")
	}
}

func TestConfigPath(t *testing.T) {
	configPath := writeTestConfig(t, "http://localhost:9999")

	out, _, err := runCLI(t, configPath, "", "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	requireContains(t, out, configPath)
}
