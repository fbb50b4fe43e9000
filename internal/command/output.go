package command

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"loom/internal/cache"
	"loom/internal/models"
)

// wantJSON reports whether the command should emit JSON: either the flag is
// set or stdout is not a terminal.
func wantJSON(cmd *cobra.Command) bool {
	if v, _ := cmd.Flags().GetBool("json"); v {
		return true
	}
	return !isatty.IsTerminal(os.Stdout.Fd())
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printThreadTable(threads []models.ThreadSummary) {
	fmt.Println("ANCHOR\tREPLIES\tPEOPLE\tSTATUS\tLAST_ACTIVITY\tTITLE")
	for _, t := range threads {
		fmt.Printf("%s\t%d\t%d\t%s\t%s\t%s\n",
			t.ThreadAnchor, t.ReplyCount, t.ParticipantCount, t.Status,
			humanize.Time(t.LastActivityAt.Time()), t.Title)
	}
}

func printCollectionTable(res *models.CollectionResult) {
	fmt.Printf("operation %s: %s (%d threads, %d anchors, %d pages scanned)\n",
		res.Stats.OperationID, res.Stats.State,
		res.Stats.ThreadsCollected, res.Stats.AnchorsIdentified, res.Stats.ScannedPages)
	if res.Stats.AnchorsSkipped > 0 {
		fmt.Printf("skipped %d anchors\n", res.Stats.AnchorsSkipped)
	}
	fmt.Println("ANCHOR\tREPLIES\tPEOPLE\tFIRST_REPLY\tLAST_REPLY")
	for _, t := range res.Threads {
		fmt.Printf("%s\t%d\t%d\t%s\t%s\n",
			t.ThreadAnchor, t.Stats.ReplyCount, t.Stats.ParticipantCount,
			t.Stats.FirstReplyAt, t.Stats.LastReplyAt)
	}
}

func printCacheStatusTable(statuses []cache.KindStatus) {
	fmt.Println("KIND\tRECORDS\tFETCHED\tEXPIRED")
	for _, st := range statuses {
		fetched := "never"
		if !st.FetchedAt.IsZero() {
			fetched = humanize.Time(st.FetchedAt)
		}
		fmt.Printf("%s\t%d\t%s\t%t\n", st.Kind, st.Records, fetched, st.Expired)
	}
}
