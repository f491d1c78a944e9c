package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	fav := &cobra.Command{
		Use:   "fav <exe>",
		Short: "Mark a game as favorite",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			remove, _ := cmd.Flags().GetBool("remove")
			l, store := openLibrary()
			defer store.Close()
			if err := l.SetFavorite(cmd.Context(), args[0], !remove); err != nil {
				exitErr("fav", err)
			}
			fmt.Printf("favorite=%v %s\n", !remove, args[0])
		},
	}
	fav.Flags().Bool("remove", false, "Remove the favorite flag")

	hide := &cobra.Command{
		Use:   "hide <exe>",
		Short: "Hide a game from the default view",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			remove, _ := cmd.Flags().GetBool("remove")
			l, store := openLibrary()
			defer store.Close()
			if err := l.SetHidden(cmd.Context(), args[0], !remove); err != nil {
				exitErr("hide", err)
			}
			fmt.Printf("hidden=%v %s\n", !remove, args[0])
		},
	}
	hide.Flags().Bool("remove", false, "Unhide the game")

	RootCmd.AddCommand(fav, hide)
}
