package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export memories as JSON",
		Long:  "Export facts, conversation entries and settings as a JSON snapshot. Filter by NPC with -n.",
		Run:   runExport,
	}

	cmd.Flags().StringP("npc", "n", "", "Only this NPC's facts and entries")
	cmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	npcKey, _ := cmd.Flags().GetString("npc")
	output, _ := cmd.Flags().GetString("output")

	a := mustOpenApp(cmd)
	defer a.Close()

	var npcID string
	if npcKey != "" {
		npc, err := a.NPC(npcKey)
		if err != nil {
			exitErr("export", err)
		}
		npcID = npc.ID
	}

	snap, err := a.Export(cmd.Context(), npcID)
	if err != nil {
		exitErr("export", err)
	}

	b, _ := json.MarshalIndent(snap, "", "  ")
	if output == "" {
		fmt.Println(string(b))
		return
	}
	if err := os.WriteFile(output, append(b, '\n'), 0o600); err != nil {
		exitErr("write export", err)
	}
	fmt.Fprintf(os.Stderr, "exported %d facts, %d entries to %s\n", len(snap.Facts), len(snap.Entries), output)
}
