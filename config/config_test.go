package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPathRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	if got := Path(); got != "/tmp/xdg-test/skiff/config.yaml" {
		t.Errorf("Path() = %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	s, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if *s != (Settings{}) {
		t.Fatalf("missing file loaded as %+v, want zero settings", *s)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	in := &Settings{
		RepoURL:    "https://github.com/you/app.git",
		Branch:     "main",
		Host:       "203.0.113.7",
		User:       "deploy",
		KeyPath:    "/home/me/.ssh/id_ed25519",
		SSHPort:    2222,
		AppPort:    3000,
		ServerName: "app.example.com",
	}
	if err := in.Save(); err != nil {
		t.Fatal(err)
	}

	out, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if *out != *in {
		t.Fatalf("round trip: got %+v, want %+v", *out, *in)
	}
}

func TestSaveFilePermissions(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	s := &Settings{Host: "203.0.113.7"}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(filepath.Join(dir, "skiff", "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	// Connection details stay private to the user.
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config mode = %o, want 600", perm)
	}
}

func TestSaveOmitsEmptyFields(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	s := &Settings{Host: "203.0.113.7"}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "skiff", "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "repo-url") {
		t.Errorf("empty fields serialized:\n%s", data)
	}
}
