package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"loom/internal/cache"
)

func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and refresh the identifier snapshot cache",
	}
	cmd.AddCommand(newCacheStatusCmd(), newCacheRefreshCmd())
	return cmd
}

func newCacheStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report snapshot ages and record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer app.close()

			statuses := app.cache.Status()
			if wantJSON(cmd) {
				return printJSON(map[string]any{"snapshots": statuses})
			}
			printCacheStatusTable(statuses)
			return nil
		},
	}
}

func newCacheRefreshCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refetch snapshots from the workspace directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer app.close()

			ctx, cancel := app.opContext(cmd.Context())
			defer cancel()

			var kinds []cache.Kind
			switch kind {
			case "":
				kinds = []cache.Kind{cache.KindChannel, cache.KindPrincipal}
			case string(cache.KindChannel), string(cache.KindPrincipal):
				kinds = []cache.Kind{cache.Kind(kind)}
			default:
				return fmt.Errorf("unknown kind %q (want channel or principal)", kind)
			}

			for _, k := range kinds {
				if err := app.cache.ForceRefresh(ctx, k); err != nil {
					return err
				}
			}

			statuses := app.cache.Status()
			if wantJSON(cmd) {
				return printJSON(map[string]any{"snapshots": statuses})
			}
			printCacheStatusTable(statuses)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "refresh only one snapshot: channel or principal")
	return cmd
}
