package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avoelk/gamekeeper/internal/model"
	"github.com/avoelk/gamekeeper/internal/view"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List games (filtered, sorted)",
		Run:   runList,
	}

	cmd.Flags().StringP("search", "s", "", "Case-insensitive substring match on display name")
	cmd.Flags().String("filter", "all", "Filter: all, favs, hidden, unlinked, or a metadata source tag")
	cmd.Flags().String("sort", "name", "Sort: name, last-played, playtime")
	cmd.Flags().StringP("collection", "c", "", "Restrict to a collection id")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	search, _ := cmd.Flags().GetString("search")
	filter, _ := cmd.Flags().GetString("filter")
	sortMode, _ := cmd.Flags().GetString("sort")
	collectionID, _ := cmd.Flags().GetString("collection")

	if !model.ValidSortModes[model.SortMode(sortMode)] {
		exitErr("list", fmt.Errorf("unknown sort mode %q", sortMode))
	}

	l, store := openLibrary()
	defer store.Close()
	ctx := cmd.Context()

	games, err := l.Games(ctx)
	if err != nil {
		exitErr("list", err)
	}

	a := view.Annotations{}
	if a.Stats, err = l.AllStats(ctx); err != nil {
		exitErr("list", err)
	}
	if a.Metadata, err = l.AllMetadata(ctx); err != nil {
		exitErr("list", err)
	}
	if a.Customizations, err = l.AllCustomizations(ctx); err != nil {
		exitErr("list", err)
	}
	if a.Hidden, err = l.HiddenSet(ctx); err != nil {
		exitErr("list", err)
	}
	if a.Favorites, err = l.FavoriteSet(ctx); err != nil {
		exitErr("list", err)
	}
	if a.Collections, err = l.Collections(ctx); err != nil {
		exitErr("list", err)
	}

	out := view.Compose(games, a, view.Query{
		Search:       search,
		Filter:       model.FilterMode(filter),
		Sort:         model.SortMode(sortMode),
		CollectionID: collectionID,
	})

	if formatFlag == "text" {
		for _, g := range out {
			fmt.Printf("%s\t%s\n", view.ResolveDisplayName(g, a.Customizations, a.Metadata), g.Path)
		}
		return
	}
	printJSON(out)
}
