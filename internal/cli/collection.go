package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	collectionCmd := &cobra.Command{
		Use:   "collection",
		Short: "Manage game collections",
	}

	newCmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a collection",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			color, _ := cmd.Flags().GetString("color")
			l, store := openLibrary()
			defer store.Close()
			c, err := l.CreateCollection(cmd.Context(), args[0], color)
			if err != nil {
				exitErr("collection new", err)
			}
			printJSON(c)
		},
	}
	newCmd.Flags().String("color", "", "Display color, e.g. #a3be8c")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List collections",
		Run: func(cmd *cobra.Command, args []string) {
			l, store := openLibrary()
			defer store.Close()
			cols, err := l.Collections(cmd.Context())
			if err != nil {
				exitErr("collection list", err)
			}
			if formatFlag == "text" {
				for _, c := range cols {
					fmt.Printf("%s\t%s\t%d games\n", c.ID, c.Name, len(c.GamePaths))
				}
				return
			}
			printJSON(cols)
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <id> <exe>",
		Short: "Add a game to a collection",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			l, store := openLibrary()
			defer store.Close()
			if err := l.AddToCollection(cmd.Context(), args[0], args[1]); err != nil {
				exitErr("collection add", err)
			}
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <id> <exe>",
		Short: "Remove a game from a collection",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			l, store := openLibrary()
			defer store.Close()
			if err := l.RemoveFromCollection(cmd.Context(), args[0], args[1]); err != nil {
				exitErr("collection rm", err)
			}
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a collection (games are untouched)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			l, store := openLibrary()
			defer store.Close()
			if err := l.DeleteCollection(cmd.Context(), args[0]); err != nil {
				exitErr("collection delete", err)
			}
		},
	}

	collectionCmd.AddCommand(newCmd, listCmd, addCmd, rmCmd, deleteCmd)
	RootCmd.AddCommand(collectionCmd)
}
