package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/village-memory/internal/devtools"
	"github.com/rcliao/village-memory/internal/model"
)

func init() {
	graph := &cobra.Command{
		Use:   "graph",
		Short: "Show the memory link graph",
		Run:   runGraph,
	}
	graph.Flags().StringP("npc", "n", "", "Only this NPC's facts")

	threads := &cobra.Command{
		Use:   "threads",
		Short: "Show facts grouped by conversation thread",
		Run:   runThreads,
	}
	threads.Flags().StringP("npc", "n", "", "Only this NPC's facts")

	RootCmd.AddCommand(graph, threads)
}

func loadFacts(cmd *cobra.Command, verb string) []model.MemoryFact {
	npcKey, _ := cmd.Flags().GetString("npc")

	a := mustOpenApp(cmd)
	defer a.Close()

	if npcKey == "" {
		facts, err := a.Facts.All(cmd.Context())
		if err != nil {
			exitErr(verb, err)
		}
		return facts
	}
	npc, err := a.NPC(npcKey)
	if err != nil {
		exitErr(verb, err)
	}
	facts, err := a.Facts.ForNPC(cmd.Context(), npc.ID)
	if err != nil {
		exitErr(verb, err)
	}
	return facts
}

func runGraph(cmd *cobra.Command, args []string) {
	g := devtools.BuildGraph(loadFacts(cmd, "graph"))
	if jsonOutput() {
		printJSON(g)
		return
	}
	byID := make(map[string]devtools.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}
	fmt.Printf("%d nodes, %d edges\n", len(g.Nodes), len(g.Edges))
	for _, e := range g.Edges {
		fmt.Printf("  %s --%s--> %s\n", byID[e.Source].Content, e.Label, byID[e.Target].Content)
	}
}

func runThreads(cmd *cobra.Command, args []string) {
	groups := devtools.GroupByThread(loadFacts(cmd, "threads"))
	if jsonOutput() {
		printJSON(groups)
		return
	}
	for _, g := range groups {
		open := ""
		if g.HasOpenTasks {
			open = " (open tasks)"
		}
		fmt.Printf("%s%s\n", g.Label, open)
		for _, f := range g.Facts {
			fmt.Printf("  %d. %s\n", f.ThreadSequence, f.Content)
		}
	}
}
