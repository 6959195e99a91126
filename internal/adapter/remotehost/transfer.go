package remotehost

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"skiff/internal/deploy"
)

var _ deploy.Transfer = (*SCPTransfer)(nil)

// SCPTransfer implements deploy.Transfer with the system scp binary. Each
// local path is copied independently so one bad path does not sink the
// whole sync.
type SCPTransfer struct {
	client *Client
}

// NewTransfer returns an SCPTransfer bound to the given client.
func NewTransfer(client *Client) *SCPTransfer {
	return &SCPTransfer{client: client}
}

func (t *SCPTransfer) Copy(ctx context.Context, localPaths []string, remoteDir string) []deploy.CopyStatus {
	out := make([]deploy.CopyStatus, 0, len(localPaths))

	// scp cannot create the destination or fix its ownership, so prepare
	// the directory over the control channel first. A prepare failure
	// fails every item: nothing can land without the directory.
	if err := t.prepareDir(ctx, remoteDir); err != nil {
		for _, p := range localPaths {
			out = append(out, deploy.CopyStatus{Path: p, Err: err})
		}
		return out
	}

	for _, p := range localPaths {
		out = append(out, deploy.CopyStatus{Path: p, Err: t.copyOne(ctx, p, remoteDir)})
	}
	return out
}

func (t *SCPTransfer) prepareDir(ctx context.Context, remoteDir string) error {
	dir := shellQuote(remoteDir)
	if err := t.client.RunScript(ctx, script(
		`$SUDO mkdir -p `+dir,
		`$SUDO chown "$(id -un)" `+dir,
	)); err != nil {
		return fmt.Errorf("prepare %s: %w", remoteDir, err)
	}
	return nil
}

func (t *SCPTransfer) copyOne(ctx context.Context, localPath, remoteDir string) error {
	// Copy a directory's contents rather than the directory itself, so the
	// remote dir ends up holding the build tree directly.
	src := localPath
	if info, err := os.Stat(localPath); err != nil {
		return fmt.Errorf("scp %s: %w", localPath, err)
	} else if info.IsDir() {
		src = strings.TrimRight(localPath, "/") + "/."
	}

	opts := t.client.opts
	args := []string{"-r", "-o", "BatchMode=yes", "-o", "StrictHostKeyChecking=accept-new"}
	if opts.Port > 0 {
		args = append(args, "-P", strconv.Itoa(opts.Port))
	}
	if strings.TrimSpace(opts.KeyPath) != "" {
		args = append(args, "-i", opts.KeyPath)
	}
	args = append(args, src, opts.Target()+":"+remoteDir)

	cmd := exec.CommandContext(ctx, "scp", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("scp %s: %w", localPath, err)
		}
		return fmt.Errorf("scp %s: %w: %s", localPath, err, msg)
	}
	return nil
}
