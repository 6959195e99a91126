// Package historycmd lists past runs from the local history store.
package historycmd

import (
	"strconv"

	"skiff/cmd/skiff/ui"
	"skiff/internal/history"

	"github.com/spf13/cobra"
)

// Cmd returns the "skiff history" command.
func Cmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past deployment and teardown runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := history.DefaultPath()
			if err != nil {
				return err
			}
			store, err := history.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				cmd.Println(ui.InfoMsg("no runs recorded yet"))
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				outcome := ui.SuccessMsg("ok")
				if !e.Succeeded {
					outcome = ui.ErrorMsg("%s", e.Class)
				}
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10),
					e.StartedAt.Local().Format("2006-01-02 15:04"),
					e.Mode,
					e.Host,
					e.Image,
					outcome,
				})
			}
			cmd.Println(ui.Table(
				[]string{"ID", "When", "Mode", "Host", "Image", "Outcome"},
				rows,
			))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}
