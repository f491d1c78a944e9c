// Package cli implements the gamekeeper CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/avoelk/gamekeeper/internal/config"
	"github.com/avoelk/gamekeeper/internal/kv"
	"github.com/avoelk/gamekeeper/internal/library"
	"github.com/avoelk/gamekeeper/internal/logging"
	"github.com/avoelk/gamekeeper/internal/scan"
	"github.com/avoelk/gamekeeper/internal/update"
)

var (
	dbPath     string
	policyPath string
	formatFlag string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "gamekeeper",
	Short: "Personal game-library manager",
	Long:  "Indexes game executables under a root folder, tracks play stats and annotations, and applies safe in-place version updates. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $GAMEKEEPER_DB or ~/.gamekeeper/library.db)")
	RootCmd.PersistentFlags().StringVar(&policyPath, "policy", "", "Policy file path (default: ~/.gamekeeper/policy.yaml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("GAMEKEEPER_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".gamekeeper", "library.db")
}

func getPolicyPath() string {
	if policyPath != "" {
		return policyPath
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".gamekeeper", "policy.yaml")
}

func newLogger() logging.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return logging.NewText(os.Stderr, level)
}

func loadPolicy() config.Policy {
	p, err := config.Load(getPolicyPath())
	if err != nil {
		exitErr("load policy", err)
	}
	return p
}

// openLibrary opens the store and builds the library. Caller must Close the
// returned store.
func openLibrary() (*library.Library, *kv.SQLiteStore) {
	store, err := kv.NewSQLiteStore(getDBPath())
	if err != nil {
		exitErr("open store", err)
	}
	scanner := scan.New(loadPolicy().Scan)
	return library.New(store, scanner, newLogger()), store
}

func newUpdater() *update.Updater {
	return update.NewUpdater(update.NewProtector(loadPolicy().Protect), newLogger())
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}
