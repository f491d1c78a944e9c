package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	session := &cobra.Command{
		Use:   "session <exe>",
		Short: "Record a finished play session",
		Args:  cobra.ExactArgs(1),
		Run:   runSession,
	}
	session.Flags().DurationP("duration", "t", 0, "Session length, e.g. 1h30m (required)")
	session.MarkFlagRequired("duration")

	stats := &cobra.Command{
		Use:   "stats <exe>",
		Short: "Show a game's play statistics",
		Args:  cobra.ExactArgs(1),
		Run:   runStats,
	}

	screenshot := &cobra.Command{
		Use:   "screenshot <exe> <file>",
		Short: "Record a captured screenshot for a game",
		Args:  cobra.ExactArgs(2),
		Run:   runScreenshot,
	}

	RootCmd.AddCommand(session, stats, screenshot)
}

func runSession(cmd *cobra.Command, args []string) {
	duration, _ := cmd.Flags().GetDuration("duration")
	if duration <= 0 {
		exitErr("session", fmt.Errorf("duration must be positive"))
	}

	l, store := openLibrary()
	defer store.Close()

	s, err := l.RecordSession(cmd.Context(), args[0], duration)
	if err != nil {
		exitErr("session", err)
	}
	printJSON(s)
}

func runStats(cmd *cobra.Command, args []string) {
	l, store := openLibrary()
	defer store.Close()

	s, ok, err := l.Stats(cmd.Context(), args[0])
	if err != nil {
		exitErr("stats", err)
	}
	if !ok {
		fmt.Println("never played")
		return
	}
	if formatFlag == "text" {
		fmt.Printf("total %s, last session %s, last played %s\n",
			s.TotalTime, s.LastSession, s.LastPlayed.Format(time.RFC3339))
		return
	}
	printJSON(s)
}

func runScreenshot(cmd *cobra.Command, args []string) {
	l, store := openLibrary()
	defer store.Close()

	if err := l.RecordScreenshot(cmd.Context(), args[0], args[1]); err != nil {
		exitErr("screenshot", err)
	}
	shots, err := l.Screenshots(cmd.Context(), args[0])
	if err != nil {
		exitErr("screenshot", err)
	}
	printJSON(shots)
}
