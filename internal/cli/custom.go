package cli

import (
	"github.com/spf13/cobra"

	"github.com/avoelk/gamekeeper/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "custom <exe>",
		Short: "Set per-game display overrides",
		Long:  "Sets the display name, cover, or background override. Passing all fields empty clears the customization entirely.",
		Args:  cobra.ExactArgs(1),
		Run:   runCustom,
	}
	cmd.Flags().String("name", "", "Display name override")
	cmd.Flags().String("cover", "", "Cover image URL override")
	cmd.Flags().String("background", "", "Background image URL override")
	RootCmd.AddCommand(cmd)
}

func runCustom(cmd *cobra.Command, args []string) {
	name, _ := cmd.Flags().GetString("name")
	cover, _ := cmd.Flags().GetString("cover")
	background, _ := cmd.Flags().GetString("background")

	l, store := openLibrary()
	defer store.Close()

	c := model.GameCustomization{DisplayName: name, CoverURL: cover, BackgroundURL: background}
	if err := l.SetCustomization(cmd.Context(), args[0], c); err != nil {
		exitErr("custom", err)
	}
	if c.IsZero() {
		return // cleared
	}
	printJSON(c)
}
