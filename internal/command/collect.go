package command

import (
	"github.com/spf13/cobra"

	"loom/internal/models"
)

func NewCollectCmd() *cobra.Command {
	var (
		from      string
		to        string
		exclusive bool
	)

	cmd := &cobra.Command{
		Use:   "collect <channel>",
		Short: "Collect every thread active inside a time range",
		Long: "Scan the channel between --from and --to, identify every thread that had " +
			"activity in the range, and fetch each one in full.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer app.close()

			ctx, cancel := app.opContext(cmd.Context())
			defer cancel()

			channelID, err := app.channelID(ctx, args[0])
			if err != nil {
				return err
			}

			res, err := app.engine.CollectThreadsInRange(ctx, channelID, models.TimeRange{
				Oldest:    models.Timestamp(from),
				Latest:    models.Timestamp(to),
				Inclusive: !exclusive,
			})
			if err != nil {
				return err
			}

			if wantJSON(cmd) {
				return printJSON(res)
			}
			printCollectionTable(res)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "range start timestamp (sec.usec)")
	cmd.Flags().StringVar(&to, "to", "", "range end timestamp (sec.usec)")
	cmd.Flags().BoolVar(&exclusive, "exclusive", false, "exclude the range boundaries")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
