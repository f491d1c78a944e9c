package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avoelk/gamekeeper/internal/update"
)

func init() {
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Preview and apply in-place game updates",
	}

	previewCmd := &cobra.Command{
		Use:   "preview <exe> <source>",
		Short: "Show what an update would do, without changing anything",
		Args:  cobra.ExactArgs(2),
		Run:   runUpdatePreview,
	}

	applyCmd := &cobra.Command{
		Use:   "apply <exe> <source>",
		Short: "Apply an update (backs up save data first)",
		Long:  "Runs the two-phase protocol: computes a fresh preview, shows it, asks for confirmation, then applies. Protected directories are backed up before any file is overwritten.",
		Args:  cobra.ExactArgs(2),
		Run:   runUpdateApply,
	}
	applyCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	updateCmd.AddCommand(previewCmd, applyCmd)
	RootCmd.AddCommand(updateCmd)
}

func runUpdatePreview(cmd *cobra.Command, args []string) {
	p, err := newUpdater().Preview(args[0], args[1])
	if err != nil {
		exitErr("preview", err)
	}
	if formatFlag == "text" {
		if p.SourceIsZip {
			n := 0
			if p.ZipEntryCount != nil {
				n = *p.ZipEntryCount
			}
			fmt.Printf("zip source, %d entries\n", n)
		} else {
			fmt.Printf("%d files to update, %d new files\n", p.FilesToUpdate, p.NewFiles)
		}
		fmt.Printf("protected: %s\n", strings.Join(p.ProtectedDirs, ", "))
		return
	}
	printJSON(p)
}

func runUpdateApply(cmd *cobra.Command, args []string) {
	yes, _ := cmd.Flags().GetBool("yes")

	w := update.NewWorkflow(newUpdater())
	p, err := w.Preview(args[0], args[1])
	if err != nil {
		exitErr("update", err)
	}
	printJSON(p)

	if !yes {
		fmt.Fprint(os.Stderr, "apply this update? [y/N] ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			if err := w.Back(); err != nil {
				exitErr("update", err)
			}
			fmt.Fprintln(os.Stderr, "aborted, nothing changed")
			return
		}
	}

	res, err := w.Apply()
	if err != nil {
		exitErr("update", err)
	}
	printJSON(res)
}
