package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"loom/internal/faults"
)

func NewResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <kind> <name-or-id>",
		Short: "Resolve a channel or user name to its workspace record",
		Long:  "Look up a channel or principal in the snapshot cache by name, #name, @name, or raw id.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer app.close()

			ctx, cancel := app.opContext(cmd.Context())
			defer cancel()

			kind, query := args[0], args[1]
			switch kind {
			case "channel":
				ch, found, err := app.cache.ResolveChannel(ctx, query)
				if err != nil {
					return err
				}
				if !found {
					return faults.NotFound("no channel matches %q", query)
				}
				if wantJSON(cmd) {
					return printJSON(ch)
				}
				fmt.Printf("%s\t#%s\t%d members\n", ch.ID, ch.Name, ch.NumMembers)
				return nil
			case "user", "principal":
				p, found, err := app.cache.ResolvePrincipal(ctx, query)
				if err != nil {
					return err
				}
				if !found {
					return faults.NotFound("no user matches %q", query)
				}
				if wantJSON(cmd) {
					return printJSON(p)
				}
				fmt.Printf("%s\t@%s\t%s\n", p.ID, p.Name, p.Label())
				return nil
			default:
				return fmt.Errorf("unknown kind %q (want channel or user)", kind)
			}
		},
	}
	return cmd
}
