package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "note <exe> [text]",
		Short: "Set or show a game's note",
		Long:  "With text, sets the note; empty text clears it. Without text, prints the current note.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runNote,
	}
	cmd.Flags().Bool("clear", false, "Clear the note")
	RootCmd.AddCommand(cmd)
}

func runNote(cmd *cobra.Command, args []string) {
	clear, _ := cmd.Flags().GetBool("clear")
	path := args[0]

	l, store := openLibrary()
	defer store.Close()
	ctx := cmd.Context()

	if clear {
		if err := l.SetNote(ctx, path, ""); err != nil {
			exitErr("note", err)
		}
		return
	}
	if len(args) > 1 {
		if err := l.SetNote(ctx, path, strings.Join(args[1:], " ")); err != nil {
			exitErr("note", err)
		}
		return
	}
	text, err := l.Note(ctx, path)
	if err != nil {
		exitErr("note", err)
	}
	fmt.Println(text)
}
