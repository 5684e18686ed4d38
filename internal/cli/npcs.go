package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/rcliao/village-memory/internal/retrieval"
)

func init() {
	cmd := &cobra.Command{
		Use:   "npcs",
		Short: "List villagers and today's visits",
		Run:   runNPCs,
	}

	RootCmd.AddCommand(cmd)
}

type npcRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Personality string `json:"personality"`
	Visited     bool   `json:"visitedToday"`
}

func runNPCs(cmd *cobra.Command, args []string) {
	a := mustOpenApp(cmd)
	defer a.Close()

	visited := a.Days.State().VisitedNpcIDs
	rows := make([]npcRow, len(a.Roster))
	for i, npc := range a.Roster {
		rows[i] = npcRow{
			ID:          npc.ID,
			Name:        npc.Name,
			Role:        npc.Role,
			Personality: retrieval.PersonalityKey(npc.ID, npc.Role),
			Visited:     slices.Contains(visited, npc.ID),
		}
	}

	if jsonOutput() {
		printJSON(rows)
		return
	}
	for _, r := range rows {
		mark := " "
		if r.Visited {
			mark = "x"
		}
		fmt.Printf("[%s] %-6s %-8s %-14s %s\n", mark, r.ID, r.Name, r.Role, r.Personality)
	}
}
