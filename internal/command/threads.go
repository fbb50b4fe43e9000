package command

import (
	"github.com/spf13/cobra"

	"loom/internal/engine"
	"loom/internal/models"
)

func NewThreadsCmd() *cobra.Command {
	var (
		minReplies     int
		oldest         string
		hasAttachments bool
		sortBy         string
		limit          int
	)

	cmd := &cobra.Command{
		Use:   "threads <channel>",
		Short: "List active threads in a channel",
		Long:  "Scan recent channel history and list every thread parent, newest activity first.",
		Args:  cobra.ExactArgs(1),
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

			threads, err := app.engine.ListActiveThreads(ctx, channelID, engine.ListFilters{
				MinReplies:     minReplies,
				Oldest:         models.Timestamp(oldest),
				HasAttachments: hasAttachments,
				SortBy:         sortBy,
				Limit:          limit,
			})
			if err != nil {
				return err
			}

			if wantJSON(cmd) {
				return printJSON(map[string]any{"channel_id": channelID, "threads": threads})
			}
			printThreadTable(threads)
			return nil
		},
	}

	cmd.Flags().IntVar(&minReplies, "min-replies", 0, "only threads with at least this many replies")
	cmd.Flags().StringVar(&oldest, "oldest", "", "ignore parents older than this timestamp")
	cmd.Flags().BoolVar(&hasAttachments, "has-attachments", false, "only threads whose parent carries files or attachments")
	cmd.Flags().StringVar(&sortBy, "sort-by", "activity", "sort key: activity, replies, or timestamp")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum threads to return")

	cmd.AddCommand(newThreadShowCmd())
	return cmd
}

func newThreadShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <channel> <anchor>",
		Short: "Show one thread with its participant roster",
		Args:  cobra.ExactArgs(2),
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

			details, err := app.engine.GetThreadDetails(ctx, channelID, models.Timestamp(args[1]))
			if err != nil {
				return err
			}
			return printJSON(details)
		},
	}
}
