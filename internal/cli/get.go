package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/village-memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show one fact",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	a := mustOpenApp(cmd)
	defer a.Close()

	f, ok, err := a.Facts.Get(cmd.Context(), args[0])
	if err != nil {
		exitErr("get", err)
	}
	if !ok {
		exitErr("get", fmt.Errorf("%w: %s", store.ErrNotFound, args[0]))
	}

	if jsonOutput() {
		printJSON(f)
		return
	}
	fmt.Printf("%s\n  npc: %s  type: %s  salience: %.2f\n", f.Content, f.NpcID, f.Type, f.Salience)
	if f.Status != "" {
		fmt.Printf("  status: %s\n", f.Status)
	}
	if f.ThreadID != "" {
		fmt.Printf("  thread: %s (step %d)\n", f.ThreadID, f.ThreadSequence)
	}
	tags := make([]string, len(f.Tags))
	for i, t := range f.Tags {
		tags[i] = t.String()
	}
	fmt.Printf("  tags: %s\n", strings.Join(tags, ", "))
	for _, l := range f.Links {
		fmt.Printf("  -> %s (%s)\n", l.TargetID, l.Label)
	}
}
