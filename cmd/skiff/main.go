package main

import (
	"fmt"
	"io"
	"os"

	"skiff/cmd/skiff/cmdutil"
	"skiff/cmd/skiff/deploycmd"
	"skiff/cmd/skiff/downcmd"
	"skiff/cmd/skiff/historycmd"
	"skiff/cmd/skiff/ui"
	"skiff/internal/buildinfo"
	"skiff/internal/logging"

	"github.com/spf13/cobra"
)

func main() {
	var (
		debug         bool
		noInteraction bool
		down          bool
		local         bool
		yes           bool
		rootFlags     cmdutil.Flags
	)
	if err := logging.Configure(logging.LevelWarn); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	var logSink io.Closer

	root := &cobra.Command{
		Use:           "skiff",
		Short:         "Deploy a containerized web app to a single host",
		Version:       buildinfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ui.ConfigureInteraction(noInteraction)

			level := logging.LevelWarn
			if debug {
				level = logging.LevelDebug
			}
			sink, err := logging.ConfigureWithFile(level, logging.DefaultLogPath())
			if err != nil {
				return err
			}
			logSink = sink
			return nil
		},
		// Bare invocation runs the full deploy flow; --down flips to
		// teardown.
		RunE: func(cmd *cobra.Command, _ []string) error {
			if down {
				return downcmd.Run(cmd.Context(), &rootFlags, yes)
			}
			return deploycmd.Run(cmd.Context(), &rootFlags, local)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&noInteraction, "no-interaction", false, "Disable prompts and interactive output")

	rootFlags.RegisterDeploy(root)
	root.Flags().BoolVar(&down, "down", false, "Tear the target host down instead of deploying")
	root.Flags().BoolVar(&local, "local", false, "Deploy against the local Docker daemon instead of a remote host")
	root.Flags().BoolVar(&yes, "yes", false, "Skip the teardown confirmation prompt")

	root.AddCommand(deploycmd.Cmd())
	root.AddCommand(downcmd.Cmd())
	root.AddCommand(historycmd.Cmd())

	err := root.Execute()
	if logSink != nil {
		_ = logSink.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
