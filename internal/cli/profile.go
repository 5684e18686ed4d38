package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show what the village has learned about the player",
		Run:   runProfile,
	}

	cmd.Flags().IntP("limit", "l", 10, "Max insights")

	RootCmd.AddCommand(cmd)
}

func runProfile(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	a := mustOpenApp(cmd)
	defer a.Close()

	insights, err := a.Profiles.Top(cmd.Context(), limit)
	if err != nil {
		exitErr("profile", err)
	}

	if jsonOutput() {
		printJSON(insights)
		return
	}
	if len(insights) == 0 {
		fmt.Println("No player insights yet. End a day to gather some.")
		return
	}
	for _, in := range insights {
		fmt.Printf("%.2f  %-10s %s (x%d)\n", in.Strength, in.Category, in.Text, in.Mentions)
	}
}
