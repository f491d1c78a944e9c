// Package view composes the ordered, filtered display list. Everything here
// is a pure function over the game list and its annotation maps; nothing
// touches storage or the filesystem.
package view

import (
	"sort"
	"strings"

	"github.com/avoelk/gamekeeper/internal/model"
)

// Annotations bundles the per-game maps the compositor reads. All maps are
// keyed by game path and may be nil.
type Annotations struct {
	Stats          map[string]model.GameStats
	Metadata       map[string]model.GameMetadata
	Customizations map[string]model.GameCustomization
	Hidden         map[string]bool
	Favorites      map[string]bool
	Collections    []model.Collection
}

// Query selects and orders the composed list.
type Query struct {
	Search       string
	Filter       model.FilterMode
	Sort         model.SortMode
	CollectionID string
}

// ResolveDisplayName resolves a game's label: customization display name
// first, then metadata title, then the raw scanned name. Single source of
// truth for every consumer needing a label.
func ResolveDisplayName(g model.Game, custom map[string]model.GameCustomization, meta map[string]model.GameMetadata) string {
	if c, ok := custom[g.Path]; ok && c.DisplayName != "" {
		return c.DisplayName
	}
	if m, ok := meta[g.Path]; ok && m.Title != "" {
		return m.Title
	}
	return g.Name
}

// Compose filters, searches, and sorts the game list.
//
// The "all" filter soft-excludes hidden games: they disappear from the
// default browse view but stay visible while the user is actively searching
// or inside a collection. An active collection is ANDed with both the filter
// mode and the search term.
func Compose(games []model.Game, a Annotations, q Query) []model.Game {
	var activeCollection *model.Collection
	if q.CollectionID != "" {
		for i := range a.Collections {
			if a.Collections[i].ID == q.CollectionID {
				activeCollection = &a.Collections[i]
				break
			}
		}
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]model.Game, 0, len(games))
	for _, g := range games {
		if activeCollection != nil && !activeCollection.Contains(g.Path) {
			continue
		}
		if !matchesFilter(g, a, q.Filter, search != "", activeCollection != nil) {
			continue
		}
		if search != "" {
			name := ResolveDisplayName(g, a.Customizations, a.Metadata)
			if !strings.Contains(strings.ToLower(name), search) {
				continue
			}
		}
		out = append(out, g)
	}

	sortGames(out, a, q.Sort)
	return out
}

func matchesFilter(g model.Game, a Annotations, f model.FilterMode, searching, inCollection bool) bool {
	switch f {
	case "", model.FilterAll:
		if a.Hidden[g.Path] && !searching && !inCollection {
			return false
		}
		return true
	case model.FilterFavorites:
		return a.Favorites[g.Path]
	case model.FilterHidden:
		return a.Hidden[g.Path]
	case model.FilterUnlinked:
		_, linked := a.Metadata[g.Path]
		return !linked
	default:
		// Any other mode filters by metadata source tag.
		m, ok := a.Metadata[g.Path]
		return ok && m.Source == string(f)
	}
}

func sortGames(games []model.Game, a Annotations, mode model.SortMode) {
	switch mode {
	case model.SortLastPlayed:
		sort.SliceStable(games, func(i, j int) bool {
			return a.Stats[games[i].Path].LastPlayed.After(a.Stats[games[j].Path].LastPlayed)
		})
	case model.SortPlaytime:
		sort.SliceStable(games, func(i, j int) bool {
			return a.Stats[games[i].Path].TotalTime > a.Stats[games[j].Path].TotalTime
		})
	default: // name ascending, favorites first
		sort.SliceStable(games, func(i, j int) bool {
			fi, fj := a.Favorites[games[i].Path], a.Favorites[games[j].Path]
			if fi != fj {
				return fi
			}
			ni := strings.ToLower(ResolveDisplayName(games[i], a.Customizations, a.Metadata))
			nj := strings.ToLower(ResolveDisplayName(games[j], a.Customizations, a.Metadata))
			return ni < nj
		})
	}
}
