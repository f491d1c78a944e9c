// Package library is the annotation store: independent keyed maps (stats,
// metadata link, customization, notes, hidden/favorite flags, collections,
// screenshots) over the same game-path keyspace, plus the persisted game list
// and mtime snapshot the reconciler maintains.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/avoelk/gamekeeper/internal/kv"
	"github.com/avoelk/gamekeeper/internal/logging"
	"github.com/avoelk/gamekeeper/internal/model"
	"github.com/avoelk/gamekeeper/internal/scan"
)

// ErrSyncInFlight is returned when a sync is requested while another one is
// still running. The request is dropped, never queued.
var ErrSyncInFlight = errors.New("sync already in flight")

// Storage keys. Annotation maps share one keyspace with a prefix per map.
const (
	keyGames  = "library/games"
	keyMtimes = "library/mtimes"
	keyRoot   = "library/root"

	prefixStats      = "stats/"
	prefixMetadata   = "metadata/"
	prefixCustom     = "custom/"
	prefixNote       = "note/"
	prefixHidden     = "hidden/"
	prefixFavorite   = "favorite/"
	prefixShots      = "screenshots/"
	prefixCollection = "collection/"
)

// Library owns the persisted game list and every annotation map.
type Library struct {
	store   kv.Store
	scanner *scan.Scanner
	log     logging.Logger
	entropy *rand.Rand
	syncing atomic.Bool
}

// New builds a Library over the given store and scanner.
func New(store kv.Store, scanner *scan.Scanner, log logging.Logger) *Library {
	return &Library{
		store:   store,
		scanner: scanner,
		log:     log,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (l *Library) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), l.entropy).String()
}

// ── persisted game list & snapshot ──

// Games returns the persisted game list; empty when no scan has run yet.
func (l *Library) Games(ctx context.Context) ([]model.Game, error) {
	var games []model.Game
	if err := l.getJSON(ctx, keyGames, &games); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return nil, err
	}
	return games, nil
}

// Mtimes returns the persisted directory-mtime snapshot.
func (l *Library) Mtimes(ctx context.Context) ([]model.DirMtime, error) {
	var mtimes []model.DirMtime
	if err := l.getJSON(ctx, keyMtimes, &mtimes); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return nil, err
	}
	return mtimes, nil
}

// Root returns the stored library root, "" when none was chosen yet.
func (l *Library) Root(ctx context.Context) (string, error) {
	b, err := l.store.Get(ctx, keyRoot)
	if errors.Is(err, kv.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (l *Library) persistScan(ctx context.Context, root string, games []model.Game, mtimes []model.DirMtime) error {
	if err := l.setJSON(ctx, keyGames, games); err != nil {
		return err
	}
	if err := l.setJSON(ctx, keyMtimes, mtimes); err != nil {
		return err
	}
	return l.store.Set(ctx, keyRoot, []byte(root))
}

// FullScan discovers the whole tree from scratch, ignoring all caches, and
// persists the result unconditionally. Used for first-time root selection and
// forced rescans.
func (l *Library) FullScan(ctx context.Context, root string) ([]model.Game, error) {
	if !l.syncing.CompareAndSwap(false, true) {
		return nil, ErrSyncInFlight
	}
	defer l.syncing.Store(false)
	return l.fullScanLocked(ctx, root)
}

func (l *Library) fullScanLocked(ctx context.Context, root string) ([]model.Game, error) {
	games, mtimes, err := l.scanner.FullScan(root)
	if err != nil {
		return nil, err
	}
	if err := l.persistScan(ctx, root, games, mtimes); err != nil {
		return nil, err
	}
	l.log.Info(ctx, "full scan done", "root", root, "games", len(games), "dirs", len(mtimes))
	return games, nil
}

// Sync reconciles the persisted game list incrementally. On any scan failure
// it falls back to a full scan and persists that result unconditionally. At
// most one sync (incremental or full) runs at a time; a concurrent request
// gets ErrSyncInFlight and is dropped.
func (l *Library) Sync(ctx context.Context, root string) ([]model.Game, error) {
	if !l.syncing.CompareAndSwap(false, true) {
		return nil, ErrSyncInFlight
	}
	defer l.syncing.Store(false)

	cachedGames, err := l.Games(ctx)
	if err != nil {
		return nil, err
	}
	cachedMtimes, err := l.Mtimes(ctx)
	if err != nil {
		return nil, err
	}

	games, mtimes, err := l.scanner.IncrementalSync(root, cachedGames, cachedMtimes)
	if err != nil {
		l.log.Warn(ctx, "incremental sync failed, falling back to full scan", "err", err)
		return l.fullScanLocked(ctx, root)
	}
	if err := l.persistScan(ctx, root, games, mtimes); err != nil {
		return nil, err
	}
	l.log.Debug(ctx, "incremental sync done", "root", root, "games", len(games))
	return games, nil
}

// Syncing reports whether a sync is currently in flight.
func (l *Library) Syncing() bool {
	return l.syncing.Load()
}

// DeleteGame removes the game from the persisted list and cascade-deletes its
// entries from every annotation map except collections, whose stale path
// references are left in place by design of the membership model.
func (l *Library) DeleteGame(ctx context.Context, path string) error {
	games, err := l.Games(ctx)
	if err != nil {
		return err
	}
	kept := games[:0]
	for _, g := range games {
		if g.Path != path {
			kept = append(kept, g)
		}
	}
	if err := l.setJSON(ctx, keyGames, kept); err != nil {
		return err
	}

	for _, prefix := range []string{
		prefixStats, prefixMetadata, prefixCustom, prefixNote,
		prefixHidden, prefixFavorite, prefixShots,
	} {
		if err := l.store.Delete(ctx, prefix+path); err != nil {
			return fmt.Errorf("cascade delete %s: %w", prefix, err)
		}
	}
	l.log.Info(ctx, "game deleted", "path", path)
	return nil
}

// ── stats ──

// Stats returns the play statistics for path, or absent=false.
func (l *Library) Stats(ctx context.Context, path string) (model.GameStats, bool, error) {
	var s model.GameStats
	err := l.getJSON(ctx, prefixStats+path, &s)
	if errors.Is(err, kv.ErrNotFound) {
		return s, false, nil
	}
	if err != nil {
		return s, false, err
	}
	return s, true, nil
}

// RecordSession accumulates a finished play session: TotalTime grows,
// LastSession is overwritten, LastPlayed becomes now. Stats are created
// lazily on the first session.
func (l *Library) RecordSession(ctx context.Context, path string, duration time.Duration) (model.GameStats, error) {
	s, _, err := l.Stats(ctx, path)
	if err != nil {
		return s, err
	}
	s.TotalTime += duration
	s.LastSession = duration
	s.LastPlayed = time.Now().UTC()
	if err := l.setJSON(ctx, prefixStats+path, s); err != nil {
		return s, err
	}
	return s, nil
}

// AllStats loads the whole stats map keyed by game path.
func (l *Library) AllStats(ctx context.Context) (map[string]model.GameStats, error) {
	return loadMap[model.GameStats](ctx, l, prefixStats)
}

// ── metadata link ──

// Metadata returns the linked catalog metadata for path.
func (l *Library) Metadata(ctx context.Context, path string) (model.GameMetadata, bool, error) {
	var m model.GameMetadata
	err := l.getJSON(ctx, prefixMetadata+path, &m)
	if errors.Is(err, kv.ErrNotFound) {
		return m, false, nil
	}
	if err != nil {
		return m, false, err
	}
	return m, true, nil
}

// SetMetadata links scraper output to a game. The engine stores it opaquely.
func (l *Library) SetMetadata(ctx context.Context, path string, m model.GameMetadata) error {
	return l.setJSON(ctx, prefixMetadata+path, m)
}

// UnsetMetadata removes the metadata link.
func (l *Library) UnsetMetadata(ctx context.Context, path string) error {
	return l.store.Delete(ctx, prefixMetadata+path)
}

// AllMetadata loads the whole metadata map keyed by game path.
func (l *Library) AllMetadata(ctx context.Context) (map[string]model.GameMetadata, error) {
	return loadMap[model.GameMetadata](ctx, l, prefixMetadata)
}

// ── customization ──

// Customization returns the per-game display overrides for path.
func (l *Library) Customization(ctx context.Context, path string) (model.GameCustomization, bool, error) {
	var c model.GameCustomization
	err := l.getJSON(ctx, prefixCustom+path, &c)
	if errors.Is(err, kv.ErrNotFound) {
		return c, false, nil
	}
	if err != nil {
		return c, false, err
	}
	return c, true, nil
}

// SetCustomization stores display overrides. Setting an all-empty value is
// equivalent to unsetting: the key is removed, never stored empty.
func (l *Library) SetCustomization(ctx context.Context, path string, c model.GameCustomization) error {
	if c.IsZero() {
		return l.store.Delete(ctx, prefixCustom+path)
	}
	return l.setJSON(ctx, prefixCustom+path, c)
}

// AllCustomizations loads the whole customization map keyed by game path.
func (l *Library) AllCustomizations(ctx context.Context) (map[string]model.GameCustomization, error) {
	return loadMap[model.GameCustomization](ctx, l, prefixCustom)
}

// ── notes ──

// Note returns the user note for path, "" when absent.
func (l *Library) Note(ctx context.Context, path string) (string, error) {
	b, err := l.store.Get(ctx, prefixNote+path)
	if errors.Is(err, kv.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SetNote stores a note. Empty (or whitespace-only) text unsets it.
func (l *Library) SetNote(ctx context.Context, path, text string) error {
	if strings.TrimSpace(text) == "" {
		return l.store.Delete(ctx, prefixNote+path)
	}
	return l.store.Set(ctx, prefixNote+path, []byte(text))
}

// ── hidden / favorite flags ──

// SetHidden adds or removes path from the hidden set.
func (l *Library) SetHidden(ctx context.Context, path string, hidden bool) error {
	return l.setFlag(ctx, prefixHidden+path, hidden)
}

// IsHidden reports whether path is in the hidden set.
func (l *Library) IsHidden(ctx context.Context, path string) (bool, error) {
	return l.getFlag(ctx, prefixHidden+path)
}

// SetFavorite adds or removes path from the favorites set.
func (l *Library) SetFavorite(ctx context.Context, path string, fav bool) error {
	return l.setFlag(ctx, prefixFavorite+path, fav)
}

// IsFavorite reports whether path is in the favorites set.
func (l *Library) IsFavorite(ctx context.Context, path string) (bool, error) {
	return l.getFlag(ctx, prefixFavorite+path)
}

// HiddenSet loads the hidden set keyed by game path.
func (l *Library) HiddenSet(ctx context.Context) (map[string]bool, error) {
	return l.flagSet(ctx, prefixHidden)
}

// FavoriteSet loads the favorites set keyed by game path.
func (l *Library) FavoriteSet(ctx context.Context) (map[string]bool, error) {
	return l.flagSet(ctx, prefixFavorite)
}

// ── screenshots ──

// RecordScreenshot appends a captured screenshot file to the game's list.
func (l *Library) RecordScreenshot(ctx context.Context, path, file string) error {
	shots, err := l.Screenshots(ctx, path)
	if err != nil {
		return err
	}
	return l.setJSON(ctx, prefixShots+path, append(shots, file))
}

// Screenshots returns the recorded screenshot files for path.
func (l *Library) Screenshots(ctx context.Context, path string) ([]string, error) {
	var shots []string
	if err := l.getJSON(ctx, prefixShots+path, &shots); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return nil, err
	}
	return shots, nil
}

// ── collections ──

// CreateCollection creates an empty named collection and returns it.
func (l *Library) CreateCollection(ctx context.Context, name, color string) (model.Collection, error) {
	c := model.Collection{ID: l.newID(), Name: name, Color: color}
	if err := l.setJSON(ctx, prefixCollection+c.ID, c); err != nil {
		return c, err
	}
	return c, nil
}

// Collection returns one collection by id.
func (l *Library) Collection(ctx context.Context, id string) (model.Collection, error) {
	var c model.Collection
	if err := l.getJSON(ctx, prefixCollection+id, &c); err != nil {
		return c, fmt.Errorf("collection %s: %w", id, err)
	}
	return c, nil
}

// Collections lists every collection, ordered by name (id as tiebreak).
func (l *Library) Collections(ctx context.Context) ([]model.Collection, error) {
	m, err := loadMap[model.Collection](ctx, l, prefixCollection)
	if err != nil {
		return nil, err
	}
	out := make([]model.Collection, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// AddToCollection adds a game path to the collection's membership. Adding an
// already-present path is a no-op.
func (l *Library) AddToCollection(ctx context.Context, id, gamePath string) error {
	c, err := l.Collection(ctx, id)
	if err != nil {
		return err
	}
	if c.Contains(gamePath) {
		return nil
	}
	c.GamePaths = append(c.GamePaths, gamePath)
	return l.setJSON(ctx, prefixCollection+id, c)
}

// RemoveFromCollection removes a game path from the collection's membership.
func (l *Library) RemoveFromCollection(ctx context.Context, id, gamePath string) error {
	c, err := l.Collection(ctx, id)
	if err != nil {
		return err
	}
	kept := c.GamePaths[:0]
	for _, p := range c.GamePaths {
		if p != gamePath {
			kept = append(kept, p)
		}
	}
	c.GamePaths = kept
	return l.setJSON(ctx, prefixCollection+id, c)
}

// DeleteCollection removes the collection itself. Games are untouched.
func (l *Library) DeleteCollection(ctx context.Context, id string) error {
	return l.store.Delete(ctx, prefixCollection+id)
}

// ── helpers ──

func (l *Library) getJSON(ctx context.Context, key string, v any) error {
	b, err := l.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (l *Library) setJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return l.store.Set(ctx, key, b)
}

func (l *Library) setFlag(ctx context.Context, key string, on bool) error {
	if !on {
		return l.store.Delete(ctx, key)
	}
	return l.store.Set(ctx, key, []byte("1"))
}

func (l *Library) getFlag(ctx context.Context, key string) (bool, error) {
	_, err := l.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *Library) flagSet(ctx context.Context, prefix string) (map[string]bool, error) {
	entries, err := l.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(entries))
	for k := range entries {
		out[strings.TrimPrefix(k, prefix)] = true
	}
	return out, nil
}

func loadMap[T any](ctx context.Context, l *Library, prefix string) (map[string]T, error) {
	entries, err := l.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(entries))
	for k, b := range entries {
		var v T
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", k, err)
		}
		out[strings.TrimPrefix(k, prefix)] = v
	}
	return out, nil
}
