package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avoelk/gamekeeper/internal/scan"
)

func init() {
	cmd := &cobra.Command{
		Use:   "exes <dir>",
		Short: "List executables directly inside a folder",
		Long:  "No size or blocklist filtering: the user is explicitly choosing, so everything executable-looking is shown. Useful for adding a game the scanner's heuristics miss.",
		Args:  cobra.ExactArgs(1),
		Run:   runExes,
	}
	RootCmd.AddCommand(cmd)
}

func runExes(cmd *cobra.Command, args []string) {
	out, err := scan.New(loadPolicy().Scan).ListExecutables(args[0])
	if err != nil {
		exitErr("exes", err)
	}
	if formatFlag == "text" {
		for _, p := range out {
			fmt.Println(p)
		}
		return
	}
	printJSON(out)
}
