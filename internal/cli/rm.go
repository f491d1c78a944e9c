package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <exe>",
		Short: "Delete a game from the library",
		Long:  "Removes the game and cascade-deletes its annotations (stats, metadata link, customization, note, flags, screenshots). Collection references are left stale. With --purge the install folder is deleted from disk too.",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}
	cmd.Flags().Bool("purge", false, "Also delete the game's install folder from disk")
	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	purge, _ := cmd.Flags().GetBool("purge")
	path := args[0]

	l, store := openLibrary()
	defer store.Close()

	if err := l.DeleteGame(cmd.Context(), path); err != nil {
		exitErr("rm", err)
	}

	if purge {
		dir := filepath.Dir(path)
		if err := os.RemoveAll(dir); err != nil {
			exitErr("rm", fmt.Errorf("purge %s: %w", dir, err))
		}
		fmt.Printf("deleted %s and %s\n", path, dir)
		return
	}
	fmt.Printf("deleted %s\n", path)
}
