package fake

import (
	"context"
	"sync"

	"skiff/internal/deploy"
)

var (
	_ deploy.Host        = (*Host)(nil)
	_ deploy.Probe       = (*Host)(nil)
	_ deploy.Provisioner = (*Host)(nil)
	_ deploy.Transfer    = (*Host)(nil)
)

// Host is an in-memory implementation of the remaining host-facing ports:
// deploy.Host, deploy.Probe, deploy.Provisioner, and deploy.Transfer.
type Host struct {
	CallRecorder
	mu    sync.Mutex
	files map[string]bool

	FileExistsErr           func(ctx context.Context, path string) error
	PingErr                 func(ctx context.Context) error
	CheckChannelErr         func(ctx context.Context) error
	EnsurePrerequisitesErr  func(ctx context.Context) error
	CopyErr                 func(ctx context.Context, localPath string) error
}

// NewHost creates a Host with no files.
func NewHost() *Host {
	return &Host{files: make(map[string]bool)}
}

// SeedFile marks a remote path as existing.
func (h *Host) SeedFile(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[path] = true
}

func (h *Host) FileExists(ctx context.Context, path string) (bool, error) {
	h.record("FileExists", path)
	if h.FileExistsErr != nil {
		if err := h.FileExistsErr(ctx, path); err != nil {
			return false, err
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.files[path], nil
}

func (h *Host) Ping(ctx context.Context) error {
	h.record("Ping")
	if h.PingErr != nil {
		return h.PingErr(ctx)
	}
	return nil
}

func (h *Host) CheckChannel(ctx context.Context) error {
	h.record("CheckChannel")
	if h.CheckChannelErr != nil {
		return h.CheckChannelErr(ctx)
	}
	return nil
}

func (h *Host) EnsurePrerequisites(ctx context.Context) error {
	h.record("EnsurePrerequisites")
	if h.EnsurePrerequisitesErr != nil {
		return h.EnsurePrerequisitesErr(ctx)
	}
	return nil
}

func (h *Host) Copy(ctx context.Context, localPaths []string, remoteDir string) []deploy.CopyStatus {
	h.record("Copy", localPaths, remoteDir)
	out := make([]deploy.CopyStatus, 0, len(localPaths))
	for _, p := range localPaths {
		st := deploy.CopyStatus{Path: p}
		if h.CopyErr != nil {
			st.Err = h.CopyErr(ctx, p)
		}
		out = append(out, st)
	}
	return out
}
