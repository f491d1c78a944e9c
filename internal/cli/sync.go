package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "sync [root]",
		Short: "Incremental library sync",
		Long:  "Reconciles the persisted game list against the root folder, re-scanning only directories whose mtime changed. Falls back to a full scan on any I/O failure.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runSync,
	}
	RootCmd.AddCommand(cmd)
}

func runSync(cmd *cobra.Command, args []string) {
	l, store := openLibrary()
	defer store.Close()
	ctx := cmd.Context()

	root := ""
	if len(args) > 0 {
		root = args[0]
	} else {
		stored, err := l.Root(ctx)
		if err != nil {
			exitErr("sync", err)
		}
		root = stored
	}
	if root == "" {
		exitErr("sync", fmt.Errorf("no library root yet: run 'gamekeeper scan <root>' first"))
	}

	games, err := l.Sync(ctx, root)
	if err != nil {
		exitErr("sync", err)
	}

	if formatFlag == "text" {
		for _, g := range games {
			fmt.Printf("%s\t%s\n", g.Name, g.Path)
		}
		return
	}
	printJSON(games)
}
