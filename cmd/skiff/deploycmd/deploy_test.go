package deploycmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckDescriptor(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := checkDescriptor("https://github.com/you/app.git", dir); err != nil {
			t.Errorf("checkDescriptor: %v", err)
		}
	})

	t.Run("missing fails before any remote work", func(t *testing.T) {
		err := checkDescriptor("https://github.com/you/app.git", t.TempDir())
		if err == nil {
			t.Fatal("checkDescriptor accepted a checkout without a Dockerfile")
		}
	})
}
