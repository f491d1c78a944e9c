package view

import (
	"testing"
	"time"

	"github.com/avoelk/gamekeeper/internal/model"
)

func names(games []model.Game) []string {
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = g.Name
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var testGames = []model.Game{
	{Name: "zelda", Path: "/z"},
	{Name: "anodyne", Path: "/a"},
	{Name: "Mario", Path: "/m"},
}

func TestResolveDisplayName_Priority(t *testing.T) {
	g := model.Game{Name: "raw", Path: "/g"}
	custom := map[string]model.GameCustomization{"/g": {DisplayName: "Custom"}}
	meta := map[string]model.GameMetadata{"/g": {Title: "Meta Title"}}

	if got := ResolveDisplayName(g, custom, meta); got != "Custom" {
		t.Errorf("expected customization to win, got %q", got)
	}
	if got := ResolveDisplayName(g, nil, meta); got != "Meta Title" {
		t.Errorf("expected metadata title, got %q", got)
	}
	if got := ResolveDisplayName(g, nil, nil); got != "raw" {
		t.Errorf("expected raw name, got %q", got)
	}
}

func TestCompose_NameSortFavoritesFirst(t *testing.T) {
	a := Annotations{Favorites: map[string]bool{"/z": true}}
	got := Compose(testGames, a, Query{Sort: model.SortName})
	if !equal(names(got), []string{"zelda", "anodyne", "Mario"}) {
		t.Errorf("unexpected order: %v", names(got))
	}
}

func TestCompose_SearchIsCaseInsensitiveOnDisplayName(t *testing.T) {
	a := Annotations{
		Customizations: map[string]model.GameCustomization{"/a": {DisplayName: "Anodyne DX"}},
	}
	got := Compose(testGames, a, Query{Search: "anodyne dx"})
	if len(got) != 1 || got[0].Path != "/a" {
		t.Errorf("expected only /a, got %v", names(got))
	}
}

func TestCompose_HiddenSoftExclusion(t *testing.T) {
	a := Annotations{Hidden: map[string]bool{"/m": true}}

	// Default browse: hidden games suppressed.
	got := Compose(testGames, a, Query{Filter: model.FilterAll})
	if len(got) != 2 {
		t.Fatalf("expected hidden game suppressed, got %v", names(got))
	}

	// Active search: hidden games come back.
	got = Compose(testGames, a, Query{Filter: model.FilterAll, Search: "mario"})
	if len(got) != 1 || got[0].Path != "/m" {
		t.Errorf("expected hidden game matched by search, got %v", names(got))
	}

	// Hidden filter shows only hidden.
	got = Compose(testGames, a, Query{Filter: model.FilterHidden})
	if len(got) != 1 || got[0].Path != "/m" {
		t.Errorf("expected only hidden game, got %v", names(got))
	}
}

func TestCompose_FavoritesAndSourceAndUnlinked(t *testing.T) {
	a := Annotations{
		Favorites: map[string]bool{"/a": true},
		Metadata: map[string]model.GameMetadata{
			"/z": {Source: "f95", Title: "Z"},
			"/m": {Source: "dlsite", Title: "M"},
		},
	}

	got := Compose(testGames, a, Query{Filter: model.FilterFavorites})
	if len(got) != 1 || got[0].Path != "/a" {
		t.Errorf("favs filter: got %v", names(got))
	}

	got = Compose(testGames, a, Query{Filter: "f95"})
	if len(got) != 1 || got[0].Path != "/z" {
		t.Errorf("source filter: got %v", names(got))
	}

	got = Compose(testGames, a, Query{Filter: model.FilterUnlinked})
	if len(got) != 1 || got[0].Path != "/a" {
		t.Errorf("unlinked filter: got %v", names(got))
	}
}

func TestCompose_ActiveCollectionANDsWithFilterAndSearch(t *testing.T) {
	col := model.Collection{ID: "c1", Name: "Picks", GamePaths: []string{"/z", "/m", "/ghost"}}
	a := Annotations{
		Collections: []model.Collection{col},
		Hidden:      map[string]bool{"/m": true},
		Favorites:   map[string]bool{"/z": true},
	}

	// Collection restricts membership; stale path /ghost is silently ignored
	// because no such game exists.
	got := Compose(testGames, a, Query{CollectionID: "c1"})
	if len(got) != 2 {
		t.Fatalf("expected 2 members (hidden stays visible inside a collection), got %v", names(got))
	}

	// ANDed with favorites filter.
	got = Compose(testGames, a, Query{CollectionID: "c1", Filter: model.FilterFavorites})
	if len(got) != 1 || got[0].Path != "/z" {
		t.Errorf("expected only /z, got %v", names(got))
	}

	// ANDed with search.
	got = Compose(testGames, a, Query{CollectionID: "c1", Search: "mario"})
	if len(got) != 1 || got[0].Path != "/m" {
		t.Errorf("expected only /m, got %v", names(got))
	}
}

func TestCompose_StatsSorts(t *testing.T) {
	now := time.Now()
	a := Annotations{
		Stats: map[string]model.GameStats{
			"/z": {TotalTime: time.Hour, LastPlayed: now.Add(-time.Hour)},
			"/a": {TotalTime: 3 * time.Hour, LastPlayed: now.Add(-48 * time.Hour)},
			"/m": {TotalTime: 2 * time.Hour, LastPlayed: now},
		},
	}

	got := Compose(testGames, a, Query{Sort: model.SortLastPlayed})
	if !equal(names(got), []string{"Mario", "zelda", "anodyne"}) {
		t.Errorf("last-played order: %v", names(got))
	}

	got = Compose(testGames, a, Query{Sort: model.SortPlaytime})
	if !equal(names(got), []string{"anodyne", "Mario", "zelda"}) {
		t.Errorf("playtime order: %v", names(got))
	}
}
