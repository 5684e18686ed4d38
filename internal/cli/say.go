package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "say [npc] [text]",
		Short: "Say something to a villager",
		Long:  "Say something to a villager. Text can follow the NPC or be piped via stdin.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSay,
	}

	RootCmd.AddCommand(cmd)
}

func runSay(cmd *cobra.Command, args []string) {
	var text string
	if len(args) > 1 {
		text = strings.Join(args[1:], " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			text = string(b)
		}
	}
	if strings.TrimSpace(text) == "" {
		exitErr("say", fmt.Errorf("text is required (positional arg or stdin)"))
	}

	a := mustOpenApp(cmd)
	defer a.Close()

	turn, err := a.Say(cmd.Context(), args[0], text)
	if err != nil {
		exitErr("say", err)
	}

	if jsonOutput() {
		printJSON(turn)
		return
	}
	fmt.Printf("%s: %s\n", turn.NPC.Name, turn.Reply.Text)
	if turn.Warning != "" {
		fmt.Fprintln(os.Stderr, turn.Warning)
	}
	if turn.Memory.Added+turn.Memory.Merged > 0 {
		fmt.Printf("  (remembered %d new, reinforced %d", turn.Memory.Added, turn.Memory.Merged)
		if n := len(turn.Memory.CompletedTaskIDs); n > 0 {
			fmt.Printf(", completed %d task(s)", n)
		}
		fmt.Println(")")
	}
}
