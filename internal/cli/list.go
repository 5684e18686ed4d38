package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/village-memory/internal/memory"
	"github.com/rcliao/village-memory/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List remembered facts",
		Run:   runList,
	}

	cmd.Flags().StringP("npc", "n", "", "Filter by NPC id or name")
	cmd.Flags().String("type", "", "Filter by fact type")
	cmd.Flags().StringP("tags", "t", "", "Filter by tags (comma-separated group:value)")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("ids-only", false, "Only output fact ids")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	npcKey, _ := cmd.Flags().GetString("npc")
	typ, _ := cmd.Flags().GetString("type")
	tagsStr, _ := cmd.Flags().GetString("tags")
	limit, _ := cmd.Flags().GetInt("limit")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	var tags []model.Tag
	if tagsStr != "" {
		for _, raw := range strings.Split(tagsStr, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			tag, err := model.ParseTag(raw)
			if err != nil {
				exitErr("list", err)
			}
			tags = append(tags, tag)
		}
	}

	a := mustOpenApp(cmd)
	defer a.Close()

	flt := memory.Filter{Type: model.FactType(typ), Tags: tags, Limit: limit}
	if npcKey != "" {
		npc, err := a.NPC(npcKey)
		if err != nil {
			exitErr("list", err)
		}
		flt.NpcID = npc.ID
	}

	facts, err := a.Facts.List(cmd.Context(), flt)
	if err != nil {
		exitErr("list", err)
	}

	if idsOnly {
		for _, f := range facts {
			fmt.Println(f.ID)
		}
		return
	}
	printFacts(facts)
}

func printFacts(facts []model.MemoryFact) {
	if jsonOutput() {
		printJSON(facts)
		return
	}
	if len(facts) == 0 {
		fmt.Println("No memories yet.")
		return
	}
	for _, f := range facts {
		status := ""
		if f.Status != "" {
			status = " [" + string(f.Status) + "]"
		}
		fmt.Printf("%-6s %-10s %.2f  %s%s\n", f.NpcID, f.Type, f.Salience, f.Content, status)
	}
}
