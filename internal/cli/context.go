package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [npc]",
		Short: "Show what a villager recalls before a conversation",
		Long:  "Rank the villager's memories and print the memory prompt and greeting.",
		Args:  cobra.ExactArgs(1),
		Run:   runContext,
	}

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	a := mustOpenApp(cmd)
	defer a.Close()

	greeting, mc, err := a.Greet(cmd.Context(), args[0])
	if err != nil {
		exitErr("context", err)
	}

	if jsonOutput() {
		printJSON(struct {
			Greeting string `json:"greeting"`
			Context  any    `json:"context"`
		}{greeting, mc})
		return
	}
	fmt.Println(mc.Prompt)
	fmt.Println()
	fmt.Println(greeting)
}
