// Package downcmd implements teardown: drive the target host back to
// "nothing present" — no containers, no images, no proxy site.
package downcmd

import (
	"context"
	"fmt"
	"time"

	"skiff/cmd/skiff/cmdutil"
	"skiff/cmd/skiff/ui"
	"skiff/config"
	"skiff/internal/adapter/remotehost"
	"skiff/internal/deploy"
	"skiff/internal/history"

	"github.com/spf13/cobra"
)

// Cmd returns the "skiff down" command.
func Cmd() *cobra.Command {
	var flags cmdutil.Flags
	var yes bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Remove all containers, images, and the proxy site from the target host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Run(cmd.Context(), &flags, yes)
		},
	}
	flags.RegisterConnection(cmd)
	cmd.Flags().StringVar(&flags.ServerName, "server-name", "", "Proxy site to remove (default: saved config, then the host)")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	return cmd
}

// Run executes teardown. It is also invoked by the root command's --down
// flag.
func Run(ctx context.Context, flags *cmdutil.Flags, yes bool) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}
	if err := flags.ResolveConnection(settings); err != nil {
		return err
	}
	settings.ServerName = resolveSite(flags.ServerName, settings)
	if err := settings.Save(); err != nil {
		fmt.Println(ui.WarnMsg("failed to save settings: %v", err))
	}

	if !yes {
		ok, err := ui.Confirm(
			fmt.Sprintf("Remove ALL containers and images on %s?", ui.Accent(settings.Host)),
			"use --yes to skip",
		)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println(ui.InfoMsg("teardown aborted"))
			return nil
		}
	}

	client := remotehost.NewClient(remotehost.Options{
		User:    settings.User,
		Host:    settings.Host,
		Port:    settings.SSHPort,
		KeyPath: settings.KeyPath,
	})
	orch := &deploy.Orchestrator{
		Probe: remotehost.NewProbe(client),
		Engine: &deploy.Engine{
			Runtime: remotehost.NewRuntime(client),
			Proxy:   remotehost.NewProxy(client),
			Host:    remotehost.NewHostFS(client),
		},
	}

	started := time.Now()
	var res deploy.Result
	err = ui.RunWithSpinner(ctx, "Tearing down "+settings.Host, func(ctx context.Context) error {
		res = orch.Teardown(ctx, settings.ServerName)
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
		Mode:       "down",
		Host:       settings.Host,
		ServerName: settings.ServerName,
		Succeeded:  res.Succeeded,
		Class:      class,
		Message:    res.Message,
	})

	if !res.Succeeded {
		fmt.Println(ui.ErrorMsg("teardown failed: %s", res.Message))
		return res.Err()
	}
	fmt.Println(ui.SuccessMsg("%s", res.Message))
	return nil
}

// resolveSite picks the proxy site teardown must remove: explicit flag,
// saved config, then the host itself. The host fallback mirrors the deploy
// default, so a host first deployed from another machine still gets its
// site cleaned.
func resolveSite(flag string, s *config.Settings) string {
	if flag != "" {
		return flag
	}
	if s.ServerName != "" {
		return s.ServerName
	}
	return s.Host
}

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
