// Package model defines the core game-library data types.
package model

import "time"

// Game is one installed game. Path is the executable's absolute filesystem
// path and is the sole identity: it never changes for a given install and is
// the join key for every annotation map.
type Game struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// DirMtime is a change-detection fingerprint for one scanned directory.
// One entry per directory, not per file.
type DirMtime struct {
	Path  string `json:"path"`
	Mtime int64  `json:"mtime"` // unix seconds, 0 when unreadable
}

// GameStats holds per-game play statistics. Created lazily on the first
// recorded session. TotalTime accumulates; LastSession is overwritten on
// every session end.
type GameStats struct {
	TotalTime   time.Duration `json:"total_time"`
	LastPlayed  time.Time     `json:"last_played"`
	LastSession time.Duration `json:"last_session"`
}

// GameMetadata is descriptive data fetched by an external catalog scraper.
// The engine treats it as opaque apart from Source (used by source filters)
// and Title (used for display-name resolution).
type GameMetadata struct {
	Source    string `json:"source"`
	SourceURL string `json:"source_url,omitempty"`
	Title     string `json:"title,omitempty"`
	Version   string `json:"version,omitempty"`
	Developer string `json:"developer,omitempty"`
	Overview  string `json:"overview,omitempty"`
	CoverURL  string `json:"cover_url,omitempty"`
}

// GameCustomization holds optional per-game display overrides. An entry with
// every field empty must not exist in the store; the library normalizes it to
// "key absent" on set.
type GameCustomization struct {
	DisplayName   string `json:"display_name,omitempty"`
	CoverURL      string `json:"cover_url,omitempty"`
	BackgroundURL string `json:"background_url,omitempty"`
}

// IsZero reports whether the customization carries no overrides at all.
func (c GameCustomization) IsZero() bool {
	return c.DisplayName == "" && c.CoverURL == "" && c.BackgroundURL == ""
}

// Collection is a named group of games. GamePaths holds Game identities by
// value: membership, not ownership. A referenced game may no longer exist;
// consumers skip such stale paths, they are never cleaned up automatically.
type Collection struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Color     string   `json:"color,omitempty"`
	GamePaths []string `json:"game_paths"`
}

// Contains reports whether the collection references the given game path.
func (c Collection) Contains(path string) bool {
	for _, p := range c.GamePaths {
		if p == path {
			return true
		}
	}
	return false
}

// UpdatePreview describes what an update would do. Ephemeral, never persisted.
type UpdatePreview struct {
	GameDir       string   `json:"game_dir"`
	SourceIsZip   bool     `json:"source_is_zip"`
	FilesToUpdate int      `json:"files_to_update"`
	NewFiles      int      `json:"new_files"`
	ZipEntryCount *int     `json:"zip_entry_count,omitempty"`
	ProtectedDirs []string `json:"protected_dirs"`
}

// UpdateResult reports what an applied update actually did.
type UpdateResult struct {
	FilesUpdated  int      `json:"files_updated"`
	FilesSkipped  int      `json:"files_skipped"`
	ProtectedDirs []string `json:"protected_dirs"`
	BackupDir     string   `json:"backup_dir"`
	Warnings      []string `json:"warnings"`
}

// FilterMode selects which games a composed view includes. Any value outside
// the named constants is treated as a metadata source tag ("f95", "dlsite", …)
// and matches games whose linked metadata carries that source.
type FilterMode string

const (
	FilterAll       FilterMode = "all"
	FilterFavorites FilterMode = "favs"
	FilterHidden    FilterMode = "hidden"
	FilterUnlinked  FilterMode = "unlinked"
)

// SortMode orders a composed view.
type SortMode string

const (
	// SortName sorts ascending by display name, favorites first; ties broken
	// case-insensitively.
	SortName SortMode = "name"
	// SortLastPlayed sorts by most recently played first.
	SortLastPlayed SortMode = "last-played"
	// SortPlaytime sorts by accumulated playtime, longest first.
	SortPlaytime SortMode = "playtime"
)

// ValidSortModes are the allowed sort modes.
var ValidSortModes = map[SortMode]bool{
	SortName:       true,
	SortLastPlayed: true,
	SortPlaytime:   true,
}
