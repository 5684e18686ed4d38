package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show storage statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	a := mustOpenApp(cmd)
	defer a.Close()

	stats, err := a.Stats(cmd.Context())
	if err != nil {
		exitErr("stats", err)
	}

	if jsonOutput() {
		printJSON(stats)
		return
	}
	fmt.Printf("backend: %s", stats.Backend)
	if stats.DBPath != "" {
		fmt.Printf(" (%s, %d bytes)", stats.DBPath, stats.DBSizeBytes)
	}
	fmt.Printf("\nfacts: %d  open tasks: %d  entries: %d  settings: %d\n",
		stats.TotalFacts, stats.OpenTasks, stats.TotalEntries, stats.Settings)
	for _, n := range stats.NPCs {
		fmt.Printf("  %-6s facts=%d threads=%d entries=%d\n", n.NpcID, n.Facts, n.Threads, n.Entries)
	}
}
