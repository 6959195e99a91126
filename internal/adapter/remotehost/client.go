// Package remotehost adapts the deploy ports to a remote Linux host reached
// through the system ssh binary. Every operation is a small POSIX script
// piped to "sh -s" on the far side; the local ssh handles auth, known-hosts
// policy, and the agent, so no key material ever passes through this
// process.
package remotehost

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Options identifies the target host and how to authenticate.
type Options struct {
	User    string
	Host    string
	Port    int
	KeyPath string
}

// Target returns the user@host form ssh expects.
func (o Options) Target() string {
	if strings.TrimSpace(o.User) == "" {
		return o.Host
	}
	return o.User + "@" + o.Host
}

// Client executes scripts on one remote host.
type Client struct {
	opts Options
}

// NewClient returns a Client for the given host.
func NewClient(opts Options) *Client {
	return &Client{opts: opts}
}

// RunScript executes script on the remote host, discarding output.
func (c *Client) RunScript(ctx context.Context, script string) error {
	_, err := c.RunScriptOutput(ctx, script)
	return err
}

// RunScriptOutput executes script on the remote host and returns its
// combined output with surrounding whitespace trimmed.
func (c *Client) RunScriptOutput(ctx context.Context, script string) (string, error) {
	args := []string{"-o", "BatchMode=yes", "-o", "StrictHostKeyChecking=accept-new"}
	if c.opts.Port > 0 {
		args = append(args, "-p", strconv.Itoa(c.opts.Port))
	}
	if strings.TrimSpace(c.opts.KeyPath) != "" {
		args = append(args, "-i", c.opts.KeyPath)
	}
	args = append(args, c.opts.Target(), "sh", "-s")

	cmd := exec.CommandContext(ctx, "ssh", args...)
	cmd.Stdin = strings.NewReader(script)
	out, err := cmd.CombinedOutput()
	if err != nil {
		output := strings.TrimSpace(string(out))
		if output == "" {
			return "", fmt.Errorf("ssh %s failed: %w", c.opts.Target(), err)
		}
		return "", fmt.Errorf("ssh %s failed: %w: %s", c.opts.Target(), err, output)
	}
	return strings.TrimSpace(string(out)), nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\"'\"'") + "'"
}
