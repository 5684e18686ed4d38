package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search facts by content or tag",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().StringP("npc", "n", "", "Filter by NPC id or name")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	npcKey, _ := cmd.Flags().GetString("npc")
	query := strings.Join(args, " ")

	a := mustOpenApp(cmd)
	defer a.Close()

	var npcID string
	if npcKey != "" {
		npc, err := a.NPC(npcKey)
		if err != nil {
			exitErr("search", err)
		}
		npcID = npc.ID
	}

	facts, err := a.Facts.Search(cmd.Context(), query, npcID)
	if err != nil {
		exitErr("search", err)
	}
	printFacts(facts)
}
