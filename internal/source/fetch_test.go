package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

func TestFetchRequiresRepoURL(t *testing.T) {
	_, err := Fetch(t.Context(), FetchOptions{DestDir: t.TempDir()})
	if err == nil {
		t.Fatal("fetch accepted an empty repository URL")
	}
}

func TestHasBuildDescriptor(t *testing.T) {
	dir := t.TempDir()
	if HasBuildDescriptor(dir) {
		t.Error("empty checkout reports a build descriptor")
	}

	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM alpine\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !HasBuildDescriptor(dir) {
		t.Error("checkout with Dockerfile reports none")
	}
}

func TestHasBuildDescriptorIgnoresDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "Dockerfile"), 0o755); err != nil {
		t.Fatal(err)
	}
	if HasBuildDescriptor(dir) {
		t.Error("a directory named Dockerfile is not a build descriptor")
	}
}

func TestAuth(t *testing.T) {
	if auth("") != nil {
		t.Error("empty token produced credentials")
	}
	a, ok := auth("ghp_secret").(*http.BasicAuth)
	if !ok || a.Password != "ghp_secret" || a.Username == "" {
		t.Errorf("auth = %+v", a)
	}
}
