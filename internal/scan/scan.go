// Package scan discovers game executables under a root folder and keeps a
// persisted game list in sync using directory-mtime fingerprints instead of a
// full re-scan on every launch.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/avoelk/gamekeeper/internal/config"
	"github.com/avoelk/gamekeeper/internal/model"
)

// ErrScanFailed signals an I/O failure during incremental sync. The caller
// must fall back to FullScan and persist its result unconditionally.
var ErrScanFailed = errors.New("scan failed")

// Scanner applies a ScanPolicy to a folder tree.
type Scanner struct {
	policy config.ScanPolicy
}

// New returns a Scanner using the given discovery policy.
func New(policy config.ScanPolicy) *Scanner {
	return &Scanner{policy: policy}
}

func (s *Scanner) isBlocked(stem, path string) bool {
	n := strings.ToLower(stem)
	for _, b := range s.policy.BlockedNames {
		if strings.Contains(n, b) {
			return true
		}
	}
	p := strings.ToLower(path)
	for _, frag := range s.policy.BlockedPathFragments {
		if strings.Contains(p, frag) {
			return true
		}
	}
	return false
}

// isGenericStem reports whether the exe stem is a generic engine/launcher
// name ("game", "nw", "renpy") that says nothing about the actual title.
func (s *Scanner) isGenericStem(stem string) bool {
	n := strings.ToLower(stem)
	for _, g := range s.policy.GenericStems {
		if n == g {
			return true
		}
	}
	return false
}

func (s *Scanner) isExeExt(ext string) bool {
	for _, e := range s.policy.ExeExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// dirMtime returns the directory's modification time in unix seconds, 0 when
// it cannot be read.
func dirMtime(dir string) int64 {
	info, err := os.Stat(dir)
	if err != nil {
		return 0
	}
	return info.ModTime().Unix()
}

// scanDirShallow collects every qualifying executable directly inside dir
// (non-recursive). Unreadable directories yield nothing.
func (s *Scanner) scanDirShallow(dir string) []model.Game {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var out []model.Game
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		if !s.isExeExt(ext) {
			continue
		}
		path := filepath.Join(dir, name)
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if s.isBlocked(stem, path) {
			continue
		}
		if info, err := entry.Info(); err == nil && info.Size() < s.policy.MinExeSize {
			continue
		}
		// A generic engine stem gives no useful title; prefer the folder name.
		// D:\Games\project_sonia\Game.exe -> "project_sonia".
		title := stem
		if s.isGenericStem(stem) {
			if parent := filepath.Base(dir); parent != "." && parent != string(filepath.Separator) {
				title = parent
			}
		}
		out = append(out, model.Game{Name: title, Path: path})
	}
	return out
}

// FullScan walks the entire tree under root and returns the discovered games
// plus a fresh directory-mtime snapshot. No diffing; always correct. Used as
// the fallback path, on first-time root selection, and on forced rescans.
// Unreadable subtrees are skipped; an unreadable root is an error.
func (s *Scanner) FullScan(root string) ([]model.Game, []model.DirMtime, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, nil, fmt.Errorf("scan root: %w", err)
	}

	var games []model.Game
	var mtimes []model.DirMtime

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // unreadable subtree, skip
		}
		if !d.IsDir() {
			return nil
		}
		mtimes = append(mtimes, model.DirMtime{Path: path, Mtime: dirMtime(path)})
		games = append(games, s.scanDirShallow(path)...)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scan root: %w", err)
	}

	return dedupeGames(games), mtimes, nil
}

// IncrementalSync reconciles the cached game list against the tree under
// root, re-scanning only directories that are new or whose mtime changed.
// Games attributed to unchanged directories are reused verbatim: identity
// (path) and name survive untouched, so every keyed annotation map keeps
// resolving across syncs. Games under directories that vanished are dropped.
//
// Any I/O error aborts with ErrScanFailed; the caller must then FullScan.
func (s *Scanner) IncrementalSync(root string, cachedGames []model.Game, cachedMtimes []model.DirMtime) ([]model.Game, []model.DirMtime, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrScanFailed, err)
	}

	knownMtime := make(map[string]int64, len(cachedMtimes))
	for _, d := range cachedMtimes {
		knownMtime[d.Path] = d.Mtime
	}

	// dir -> cached games living directly in it, for verbatim reuse and for
	// evicting everything attributed to a re-scanned or vanished directory.
	cachedByDir := make(map[string][]model.Game)
	for _, g := range cachedGames {
		dir := filepath.Dir(g.Path)
		cachedByDir[dir] = append(cachedByDir[dir], g)
	}

	var merged []model.Game
	var mtimes []model.DirMtime

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		current := dirMtime(path)
		mtimes = append(mtimes, model.DirMtime{Path: path, Mtime: current})

		if current != 0 && current == knownMtime[path] {
			// Unchanged: reuse the cached games without probing below.
			merged = append(merged, cachedByDir[path]...)
			return nil
		}
		merged = append(merged, s.scanDirShallow(path)...)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrScanFailed, err)
	}

	return dedupeGames(merged), mtimes, nil
}

// ListExecutables lists every executable-looking file directly inside folder,
// with no size or blocklist filtering: the user is explicitly choosing, so
// show everything. Accepts the scan extensions plus common non-Windows ones.
func (s *Scanner) ListExecutables(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("list executables: %w", err)
	}

	exts := map[string]bool{"exe": true, "sh": true, "bin": true, "app": true}
	for _, e := range s.policy.ExeExtensions {
		exts[e] = true
	}

	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(entry.Name()), "."))
		if exts[ext] {
			out = append(out, filepath.Join(folder, entry.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func dedupeGames(games []model.Game) []model.Game {
	sort.Slice(games, func(i, j int) bool { return games[i].Path < games[j].Path })
	out := games[:0]
	var prev string
	for _, g := range games {
		if g.Path == prev {
			continue
		}
		out = append(out, g)
		prev = g.Path
	}
	return out
}
