package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget facts and conversations",
		Long:  "Forget every fact and conversation entry. With --all also reset the day, player profile, day summaries and LLM overrides.",
		Run:   runReset,
	}

	cmd.Flags().Bool("all", false, "Also reset day cycle, profile, summaries and LLM overrides")
	cmd.Flags().BoolP("yes", "y", false, "Confirm the reset")

	RootCmd.AddCommand(cmd)
}

func runReset(cmd *cobra.Command, args []string) {
	all, _ := cmd.Flags().GetBool("all")
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		exitErr("reset", fmt.Errorf("refusing to reset without --yes"))
	}

	a := mustOpenApp(cmd)
	defer a.Close()

	if err := a.Reset(cmd.Context(), all); err != nil {
		exitErr("reset", err)
	}
	fmt.Printf(`{"ok":true,"all":%t}`+"\n", all)
}
