package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/village-memory/internal/seed"
)

func init() {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replay scripted conversations with every villager",
		Run:   runSeed,
	}

	cmd.Flags().Bool("reset", false, "Clear facts and conversation first")
	cmd.Flags().String("scripts", "", "YAML scripts file (default: built-in scripts)")

	RootCmd.AddCommand(cmd)
}

func runSeed(cmd *cobra.Command, args []string) {
	reset, _ := cmd.Flags().GetBool("reset")
	path, _ := cmd.Flags().GetString("scripts")

	scripts, err := loadScripts(path)
	if err != nil {
		exitErr("load scripts", err)
	}

	a := mustOpenApp(cmd)
	defer a.Close()

	res, err := a.Seed(cmd.Context(), scripts, reset)
	if err != nil {
		exitErr("seed", err)
	}

	if jsonOutput() {
		printJSON(res)
		return
	}
	fmt.Printf("day %d: %d entries, %d facts added\n", res.DayIndex, res.TotalEntries, res.TotalFactsAdded)
	for _, r := range res.PerNPC {
		fmt.Printf("  %-6s entries=%d added=%d total=%d\n", r.NpcID, r.EntryCount, r.FactsAdded, r.TotalFacts)
	}
}

func loadScripts(path string) ([]seed.Script, error) {
	if path == "" {
		return seed.DefaultScripts()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return seed.LoadScripts(f)
}
