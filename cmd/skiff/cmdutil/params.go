// Package cmdutil holds parameter plumbing shared by the skiff commands:
// flag definitions, interactive resolution against the saved config, and
// derivation of the deployment target from the resolved settings.
package cmdutil

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"skiff/cmd/skiff/ui"
	"skiff/config"
	"skiff/internal/deploy"

	"github.com/spf13/cobra"
)

// DefaultAppPort is the port the application container is assumed to
// listen on when none is given.
const DefaultAppPort uint16 = 3000

// remoteBaseDir is where application trees land on the target host.
const remoteBaseDir = "/opt/skiff"

// Flags are the deployment parameters settable from the command line.
// Anything left empty is taken from the saved config or prompted for.
type Flags struct {
	RepoURL    string
	Branch     string
	Token      string
	Host       string
	User       string
	KeyPath    string
	SSHPort    int
	AppPort    uint16
	ServerName string
}

// RegisterDeploy binds the full deploy flag set.
func (f *Flags) RegisterDeploy(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.RepoURL, "repo", "", "Application repository URL")
	cmd.Flags().StringVar(&f.Branch, "branch", "", "Branch to deploy (default: remote default branch)")
	cmd.Flags().StringVar(&f.Token, "token", "", "Access token for private repositories (never saved)")
	cmd.Flags().Uint16Var(&f.AppPort, "port", 0, "Port the application listens on inside the container")
	cmd.Flags().StringVar(&f.ServerName, "server-name", "", "Public server name for the proxy site")
	f.registerConnection(cmd)
}

// RegisterConnection binds only the connection flags, for teardown.
func (f *Flags) RegisterConnection(cmd *cobra.Command) {
	f.registerConnection(cmd)
}

func (f *Flags) registerConnection(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Host, "host", "", "Target host name or address")
	cmd.Flags().StringVar(&f.User, "user", "", "SSH user on the target host")
	cmd.Flags().StringVar(&f.KeyPath, "key", "", "Path to the SSH private key")
	cmd.Flags().IntVar(&f.SSHPort, "ssh-port", 0, "SSH port on the target host")
}

// ResolveConnection fills host, user, and key from flags, saved config, and
// finally prompts, in that order. The resolved values are written back into
// s so the caller can persist them.
func (f *Flags) ResolveConnection(s *config.Settings) error {
	if f.Host != "" {
		s.Host = f.Host
	}
	if f.User != "" {
		s.User = f.User
	}
	if f.KeyPath != "" {
		s.KeyPath = f.KeyPath
	}
	if f.SSHPort != 0 {
		s.SSHPort = f.SSHPort
	}

	var err error
	if s.Host, err = require(s.Host, "Target host", "e.g. 203.0.113.7", "use --host"); err != nil {
		return err
	}
	if s.User, err = require(s.User, "SSH user", "e.g. deploy", "use --user"); err != nil {
		return err
	}
	if s.KeyPath == "" {
		// Optional: an empty key path defers to the ssh agent and defaults.
		v, err := ui.Prompt("SSH key path (empty for agent/default)", "~/.ssh/id_ed25519", "use --key")
		if err != nil {
			return err
		}
		s.KeyPath = strings.TrimSpace(v)
	}
	s.KeyPath = expandHome(s.KeyPath)
	return nil
}

// ResolveDeploy resolves the full deploy parameter set. localMode skips the
// connection and proxy parameters entirely.
func (f *Flags) ResolveDeploy(s *config.Settings, localMode bool) error {
	if f.RepoURL != "" {
		s.RepoURL = f.RepoURL
	}
	if f.Branch != "" {
		s.Branch = f.Branch
	}
	if f.AppPort != 0 {
		s.AppPort = f.AppPort
	}
	if f.ServerName != "" {
		s.ServerName = f.ServerName
	}

	var err error
	if s.RepoURL, err = require(s.RepoURL, "Repository URL", "https://github.com/you/app.git", "use --repo"); err != nil {
		return err
	}
	if f.Token == "" && ui.IsInteractive() {
		// Tokens are never saved, so ask fresh each run. Empty means a
		// public repository; non-interactive runs pass --token instead.
		v, err := ui.PromptSecret("Access token (empty for public repositories)", "use --token")
		if err != nil {
			return err
		}
		f.Token = strings.TrimSpace(v)
	}
	if s.AppPort == 0 {
		s.AppPort = DefaultAppPort
	}

	if localMode {
		return nil
	}

	if err := f.ResolveConnection(s); err != nil {
		return err
	}
	if s.ServerName == "" {
		v, err := ui.Prompt("Server name (empty to reuse host)", s.Host, "use --server-name")
		if err != nil {
			return err
		}
		s.ServerName = strings.TrimSpace(v)
	}
	if s.ServerName == "" {
		s.ServerName = s.Host
	}
	return nil
}

// require returns the current value or prompts for a non-empty one.
func require(current, label, placeholder, hint string) (string, error) {
	if strings.TrimSpace(current) != "" {
		return strings.TrimSpace(current), nil
	}
	v, err := ui.Prompt(label, placeholder, hint)
	if err != nil {
		return "", err
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%s is required", strings.ToLower(label))
	}
	return v, nil
}

// AppName derives the application name from the repository URL basename.
func AppName(repoURL string) string {
	base := path.Base(strings.TrimSuffix(strings.TrimRight(repoURL, "/"), ".git"))
	base = strings.ToLower(strings.TrimSpace(base))
	if base == "" || base == "." || base == "/" {
		return "skiff-app"
	}
	return base
}

// Target builds the desired end state from the resolved settings. In local
// mode the server name is left empty, which disables proxy management, and
// the build path is the local checkout itself.
func Target(s *config.Settings, checkoutDir string, localMode bool) deploy.Target {
	app := AppName(s.RepoURL)
	t := deploy.Target{
		ContainerName: app,
		ImageName:     app + ":latest",
		HostPort:      s.AppPort,
		ContainerPort: s.AppPort,
		BuildPath:     path.Join(remoteBaseDir, app),
	}
	if localMode {
		t.BuildPath = checkoutDir
		return t
	}
	t.ServerName = s.ServerName
	return t
}

// CheckoutDir returns the local cache directory for the app's source.
func CheckoutDir(repoURL string) (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "skiff", "src", AppName(repoURL)), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "skiff", "src", AppName(repoURL)), nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
