package remotehost

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"skiff/internal/deploy"
)

var (
	_ deploy.Host        = (*HostFS)(nil)
	_ deploy.Probe       = (*ProbeChecker)(nil)
	_ deploy.Provisioner = (*ProvisionRunner)(nil)
)

// HostFS implements deploy.Host over the control channel.
type HostFS struct {
	client *Client
}

// NewHostFS returns a HostFS bound to the given client.
func NewHostFS(client *Client) *HostFS {
	return &HostFS{client: client}
}

func (h *HostFS) FileExists(ctx context.Context, p string) (bool, error) {
	out, err := h.client.RunScriptOutput(ctx, script(
		`if [ -f `+shellQuote(p)+` ]; then echo yes; else echo no; fi`,
	))
	if err != nil {
		return false, fmt.Errorf("check %s: %w", p, err)
	}
	return strings.Contains(out, "yes"), nil
}

// ProbeChecker implements deploy.Probe. Ping shells out to the system ping
// binary; CheckChannel runs a trivial script over ssh, which exercises
// auth, key exchange, and the remote shell in one round trip.
type ProbeChecker struct {
	client *Client
	host   string
}

// NewProbe returns a ProbeChecker for the client's host.
func NewProbe(client *Client) *ProbeChecker {
	return &ProbeChecker{client: client, host: client.opts.Host}
}

func (p *ProbeChecker) Ping(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "ping", "-c", "1", "-W", "2", p.host)
	if out, err := cmd.CombinedOutput(); err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("ping %s: %w", p.host, err)
		}
		return fmt.Errorf("ping %s: %w: %s", p.host, err, msg)
	}
	return nil
}

func (p *ProbeChecker) CheckChannel(ctx context.Context) error {
	return p.client.RunScript(ctx, "true\n")
}

// ProvisionRunner implements deploy.Provisioner.
type ProvisionRunner struct {
	client *Client
}

// NewProvisioner returns a ProvisionRunner bound to the given client.
func NewProvisioner(client *Client) *ProvisionRunner {
	return &ProvisionRunner{client: client}
}

func (p *ProvisionRunner) EnsurePrerequisites(ctx context.Context) error {
	if err := p.client.RunScript(ctx, ProvisionScript()); err != nil {
		return fmt.Errorf("provision host: %w", err)
	}
	return nil
}
