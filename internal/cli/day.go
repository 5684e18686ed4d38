package cli

import (
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	day := &cobra.Command{
		Use:   "day",
		Short: "Inspect or end the current day",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the day and who was visited",
		Run:   runDayStatus,
	}

	end := &cobra.Command{
		Use:   "end",
		Short: "Summarize the day and start the next one",
		Run:   runDayEnd,
	}
	end.Flags().Bool("force", false, "End the day even if not every villager was visited")

	show := &cobra.Command{
		Use:   "show [day]",
		Short: "Show a finished day's summary",
		Args:  cobra.ExactArgs(1),
		Run:   runDayShow,
	}

	day.AddCommand(status, end, show)
	RootCmd.AddCommand(day)
}

func runDayStatus(cmd *cobra.Command, args []string) {
	a := mustOpenApp(cmd)
	defer a.Close()

	st := a.Days.State()
	required := a.Days.Required()
	if jsonOutput() {
		printJSON(struct {
			DayIndex      int      `json:"dayIndex"`
			VisitedNpcIDs []string `json:"visitedNpcIds"`
			Required      []string `json:"required"`
			Complete      bool     `json:"complete"`
		}{st.DayIndex, st.VisitedNpcIDs, required, st.IsComplete(required)})
		return
	}
	fmt.Printf("Day %d  visits: %d/%d\n", st.DayIndex, len(st.VisitedNpcIDs), len(required))
	for _, id := range required {
		mark := " "
		if slices.Contains(st.VisitedNpcIDs, id) {
			mark = "x"
		}
		fmt.Printf("  [%s] %s\n", mark, id)
	}
}

func runDayEnd(cmd *cobra.Command, args []string) {
	force, _ := cmd.Flags().GetBool("force")

	a := mustOpenApp(cmd)
	defer a.Close()

	res, err := a.EndDay(cmd.Context(), force)
	if err != nil {
		exitErr("end day", err)
	}

	if jsonOutput() {
		printJSON(res)
		return
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, w)
	}
	printSnapshotText(res.Snapshot.DayIndex, res.Snapshot.Summary)
	for _, h := range res.Snapshot.Highlights {
		fmt.Printf("  %s (%s): %s\n", h.NpcName, h.NpcRole, h.Summary)
	}
	fmt.Printf("\nDay %d ideas:\n", res.NextDay)
	for _, s := range res.Snapshot.Suggestions {
		fmt.Printf("  - %s: %s\n", s.Title, s.Detail)
	}
}

func runDayShow(cmd *cobra.Command, args []string) {
	day, err := strconv.Atoi(args[0])
	if err != nil || day < 1 {
		exitErr("day show", fmt.Errorf("invalid day %q", args[0]))
	}

	a := mustOpenApp(cmd)
	defer a.Close()

	snap, ok, err := a.Summaries.Load(cmd.Context(), day)
	if err != nil {
		exitErr("day show", err)
	}
	if !ok {
		exitErr("day show", fmt.Errorf("no summary for day %d", day))
	}
	if jsonOutput() {
		printJSON(snap)
		return
	}
	printSnapshotText(snap.DayIndex, snap.Summary)
	for _, s := range snap.Suggestions {
		fmt.Printf("  - %s: %s\n", s.Title, s.Detail)
	}
}

func printSnapshotText(day int, summary string) {
	fmt.Printf("Day %d\n\n%s\n\n", day, summary)
}
