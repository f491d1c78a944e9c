package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/avoelk/gamekeeper/internal/model"
)

func init() {
	link := &cobra.Command{
		Use:   "link <exe>",
		Short: "Link catalog metadata to a game",
		Long:  "Attaches scraper output to a game. Metadata JSON is read from stdin or built from flags; the engine stores it opaquely and only reads the source tag and title.",
		Args:  cobra.ExactArgs(1),
		Run:   runLink,
	}
	link.Flags().String("source", "", "Catalog source tag, e.g. f95, dlsite")
	link.Flags().String("title", "", "Canonical title")
	link.Flags().String("url", "", "Source page URL")

	unlink := &cobra.Command{
		Use:   "unlink <exe>",
		Short: "Remove a game's metadata link",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			l, store := openLibrary()
			defer store.Close()
			if err := l.UnsetMetadata(cmd.Context(), args[0]); err != nil {
				exitErr("unlink", err)
			}
		},
	}

	RootCmd.AddCommand(link, unlink)
}

func runLink(cmd *cobra.Command, args []string) {
	var m model.GameMetadata

	// Piped JSON wins; flags cover the quick manual case.
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("link", err)
		}
		if err := json.Unmarshal(b, &m); err != nil {
			exitErr("link", err)
		}
	} else {
		m.Source, _ = cmd.Flags().GetString("source")
		m.Title, _ = cmd.Flags().GetString("title")
		m.SourceURL, _ = cmd.Flags().GetString("url")
	}

	l, store := openLibrary()
	defer store.Close()
	if err := l.SetMetadata(cmd.Context(), args[0], m); err != nil {
		exitErr("link", err)
	}
	printJSON(m)
}
