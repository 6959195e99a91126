// Package deploycmd implements the deploy flow: resolve parameters, fetch
// source, and converge the target host (or the local daemon) to one built
// image, one running container, and one enabled proxy site.
package deploycmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"skiff/cmd/skiff/cmdutil"
	"skiff/cmd/skiff/ui"
	"skiff/config"
	"skiff/internal/adapter/docker"
	"skiff/internal/adapter/remotehost"
	"skiff/internal/deploy"
	"skiff/internal/history"
	"skiff/internal/source"

	"github.com/spf13/cobra"
)

// Cmd returns the "skiff deploy" command.
func Cmd() *cobra.Command {
	var flags cmdutil.Flags
	var local bool

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the application to the target host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Run(cmd.Context(), &flags, local)
		},
	}
	flags.RegisterDeploy(cmd)
	cmd.Flags().BoolVar(&local, "local", false, "Deploy against the local Docker daemon instead of a remote host")
	return cmd
}

// Run executes the deploy flow. It is also invoked by the bare root
// command.
func Run(ctx context.Context, flags *cmdutil.Flags, local bool) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}
	if err := flags.ResolveDeploy(settings, local); err != nil {
		return err
	}
	if err := settings.Save(); err != nil {
		fmt.Println(ui.WarnMsg("failed to save settings: %v", err))
	}

	checkout, err := cmdutil.CheckoutDir(settings.RepoURL)
	if err != nil {
		return err
	}
	err = ui.RunWithSpinner(ctx, "Fetching source", func(ctx context.Context) error {
		_, err := source.Fetch(ctx, source.FetchOptions{
			RepoURL: settings.RepoURL,
			Branch:  settings.Branch,
			Token:   flags.Token,
			DestDir: checkout,
		})
		return err
	})
	if err != nil {
		return err
	}
	if err := checkDescriptor(settings.RepoURL, checkout); err != nil {
		return err
	}

	target := cmdutil.Target(settings, checkout, local)
	orch, err := buildOrchestrator(settings, local)
	if err != nil {
		return err
	}

	started := time.Now()
	var res deploy.Result
	err = ui.RunWithSpinner(ctx, "Deploying "+target.ContainerName, func(ctx context.Context) error {
		res = orch.Deploy(ctx, deploy.DeployParams{LocalDir: checkout, Target: target})
		return nil
	})
	if err != nil {
		return err
	}

	class := ""
	if !res.Succeeded {
		class = res.Class.String()
	}
	recordRun(ctx, history.Entry{
		StartedAt:  started,
		Mode:       "deploy",
		Host:       hostLabel(settings, local),
		Image:      target.ImageName,
		ServerName: target.ServerName,
		Succeeded:  res.Succeeded,
		Class:      class,
		Message:    res.Message,
	})

	if !res.Succeeded {
		fmt.Println(ui.ErrorMsg("deployment failed: %s", res.Message))
		return res.Err()
	}

	fmt.Println(ui.SuccessMsg("deployed %s", ui.Accent(target.ContainerName)))
	pairs := []ui.Pair{
		ui.KV("Image", target.ImageName),
		ui.KV("Host", hostLabel(settings, local)),
		ui.KV("Port", strconv.Itoa(int(target.HostPort))),
	}
	if target.ProxyEnabled() {
		pairs = append(pairs, ui.KV("URL", "http://"+target.ServerName))
	}
	fmt.Print(ui.KeyValues("  ", pairs...))
	return nil
}

// checkDescriptor rejects a checkout without a build descriptor right after
// the fetch, before any remote work starts.
func checkDescriptor(repoURL, dir string) error {
	if !source.HasBuildDescriptor(dir) {
		return fmt.Errorf("%s has no %s at its checkout root", repoURL, deploy.BuildDescriptor)
	}
	return nil
}

func buildOrchestrator(s *config.Settings, local bool) (*deploy.Orchestrator, error) {
	if local {
		runtime, err := docker.NewRuntime()
		if err != nil {
			return nil, err
		}
		return &deploy.Orchestrator{
			Engine: &deploy.Engine{Runtime: runtime, Host: docker.LocalHost{}},
		}, nil
	}

	client := remotehost.NewClient(remotehost.Options{
		User:    s.User,
		Host:    s.Host,
		Port:    s.SSHPort,
		KeyPath: s.KeyPath,
	})
	return &deploy.Orchestrator{
		Probe:     remotehost.NewProbe(client),
		Provision: remotehost.NewProvisioner(client),
		Transfer:  remotehost.NewTransfer(client),
		Engine: &deploy.Engine{
			Runtime: remotehost.NewRuntime(client),
			Proxy:   remotehost.NewProxy(client),
			Host:    remotehost.NewHostFS(client),
		},
	}, nil
}

func hostLabel(s *config.Settings, local bool) string {
	if local {
		return "local"
	}
	return s.Host
}

// recordRun appends to the history store. History is advisory; failures
// only warn.
func recordRun(ctx context.Context, e history.Entry) {
	path, err := history.DefaultPath()
	if err != nil {
		fmt.Println(ui.WarnMsg("failed to resolve history path: %v", err))
		return
	}
	store, err := history.Open(path)
	if err != nil {
		fmt.Println(ui.WarnMsg("failed to open history: %v", err))
		return
	}
	defer store.Close()
	if err := store.Record(ctx, e); err != nil {
		fmt.Println(ui.WarnMsg("failed to record run: %v", err))
	}
}
