package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Full rescan of the library root",
		Long:  "Walks the entire tree from scratch, ignoring all caches, and persists the result. Use for first-time root selection or a forced rescan; day-to-day use wants 'sync'.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runScan,
	}
	RootCmd.AddCommand(cmd)
}

func runScan(cmd *cobra.Command, args []string) {
	l, store := openLibrary()
	defer store.Close()
	ctx := cmd.Context()

	root := ""
	if len(args) > 0 {
		root = args[0]
	} else {
		stored, err := l.Root(ctx)
		if err != nil {
			exitErr("scan", err)
		}
		root = stored
	}
	if root == "" {
		exitErr("scan", fmt.Errorf("no library root: pass one as an argument"))
	}

	games, err := l.FullScan(ctx, root)
	if err != nil {
		exitErr("scan", err)
	}

	if formatFlag == "text" {
		for _, g := range games {
			fmt.Printf("%s\t%s\n", g.Name, g.Path)
		}
		return
	}
	printJSON(games)
}
