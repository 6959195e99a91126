package docker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"skiff/internal/deploy"
)

var _ deploy.Host = (*LocalHost)(nil)

// LocalHost implements deploy.Host against the local filesystem. In local
// mode the build path is the checkout itself, so "remote" file checks are
// plain stats.
type LocalHost struct{}

func (LocalHost) FileExists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("check %s: %w", path, err)
}
