package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/village-memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a JSON snapshot",
		Long:  "Import a snapshot (file or stdin) produced by export. Facts and entries are replaced.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read snapshot", err)
	}

	var snap store.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		exitErr("parse json", err)
	}

	a := mustOpenApp(cmd)
	defer a.Close()

	if err := a.Import(cmd.Context(), &snap); err != nil {
		exitErr("import", err)
	}

	fmt.Printf(`{"ok":true,"facts":%d,"entries":%d,"settings":%d}`+"\n", len(snap.Facts), len(snap.Entries), len(snap.Settings))
}
