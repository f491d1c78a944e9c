package update

import (
	"archive/zip"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/avoelk/gamekeeper/internal/config"
	"github.com/avoelk/gamekeeper/internal/logging"
)

func newTestUpdater() *Updater {
	return NewUpdater(NewProtector(config.Default().Protect), logging.Nop())
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func read(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

// snapshot maps every file under dir (relative path) to its content.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		out[rel] = read(t, path)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

// installedGame builds a game dir with an exe, five data files, and a saves
// directory holding ten slots. Returns the exe path.
func installedGame(t *testing.T) string {
	t.Helper()
	gameDir := filepath.Join(t.TempDir(), "MyGame")
	write(t, filepath.Join(gameDir, "game.exe"), "v1-exe")
	for _, f := range []string{"a.pak", "b.pak", "c.pak", "d.pak", "e.pak"} {
		write(t, filepath.Join(gameDir, "data", f), "v1-"+f)
	}
	for i := 0; i < 10; i++ {
		write(t, filepath.Join(gameDir, "saves", "slot"+string(rune('0'+i))+".sav"), "precious")
	}
	return filepath.Join(gameDir, "game.exe")
}

// newVersion builds a source folder replacing the five data files and adding
// two new ones, all outside saves/.
func newVersion(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "MyGame-v2")
	for _, f := range []string{"a.pak", "b.pak", "c.pak", "d.pak", "e.pak"} {
		write(t, filepath.Join(src, "data", f), "v2-"+f)
	}
	write(t, filepath.Join(src, "data", "new1.pak"), "v2-new1")
	write(t, filepath.Join(src, "readme.md"), "v2-notes")
	return src
}

func TestProtector_IsProtectedPath(t *testing.T) {
	p := NewProtector(config.Default().Protect)

	cases := []struct {
		rel  string
		want bool
	}{
		{"saves/slot1.sav", true},
		{"www/save/file1.rpgsave", true},
		{"settings.ini", true},
		{"data/level1.pak", false},
		{"data/strings.json", false}, // ambiguous ext, bare location
		{"userdata/profile.json", true},
		{"game.exe", false},
	}
	for _, c := range cases {
		if got := p.IsProtectedPath(c.rel); got != c.want {
			t.Errorf("IsProtectedPath(%q) = %v, want %v", c.rel, got, c.want)
		}
	}
}

func TestProtector_ProtectedDirs(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "saves", "slot.sav"), "x")
	write(t, filepath.Join(dir, "mods", "keep", ".gamekeeper-keep"), "")
	write(t, filepath.Join(dir, "data", "level.pak"), "x")

	p := NewProtector(config.Default().Protect)
	got, err := p.ProtectedDirs(dir)
	if err != nil {
		t.Fatalf("protected dirs: %v", err)
	}
	want := []string{filepath.Join("mods", "keep"), "saves"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestPreview_FolderSource(t *testing.T) {
	exe := installedGame(t)
	src := newVersion(t)

	p, err := newTestUpdater().Preview(exe, src)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if p.SourceIsZip {
		t.Error("expected folder source")
	}
	if p.FilesToUpdate != 5 {
		t.Errorf("expected 5 files to update, got %d", p.FilesToUpdate)
	}
	if p.NewFiles != 2 {
		t.Errorf("expected 2 new files, got %d", p.NewFiles)
	}
	if len(p.ProtectedDirs) != 1 || p.ProtectedDirs[0] != "saves" {
		t.Errorf("expected protected [saves], got %v", p.ProtectedDirs)
	}
}

func TestPreview_IsReadOnly(t *testing.T) {
	exe := installedGame(t)
	src := newVersion(t)
	gameDir := filepath.Dir(exe)

	before := snapshot(t, gameDir)
	u := newTestUpdater()
	for i := 0; i < 3; i++ {
		if _, err := u.Preview(exe, src); err != nil {
			t.Fatalf("preview: %v", err)
		}
	}
	after := snapshot(t, gameDir)
	if len(before) != len(after) {
		t.Fatalf("preview changed file count: %d -> %d", len(before), len(after))
	}
	for rel, content := range before {
		if after[rel] != content {
			t.Errorf("preview modified %s", rel)
		}
	}
}

func TestPreview_SourceUnreadable(t *testing.T) {
	exe := installedGame(t)
	u := newTestUpdater()

	if _, err := u.Preview(exe, filepath.Join(t.TempDir(), "missing")); !errors.Is(err, ErrSourceUnreadable) {
		t.Errorf("missing source: expected ErrSourceUnreadable, got %v", err)
	}

	plain := filepath.Join(t.TempDir(), "notes.txt")
	write(t, plain, "not an update")
	if _, err := u.Preview(exe, plain); !errors.Is(err, ErrSourceUnreadable) {
		t.Errorf("plain file source: expected ErrSourceUnreadable, got %v", err)
	}
}

func TestApply_FolderSource(t *testing.T) {
	exe := installedGame(t)
	src := newVersion(t)
	gameDir := filepath.Dir(exe)

	res, err := newTestUpdater().Apply(exe, src)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	// 5 replaced + 2 created, nothing in the source touches saves/.
	if res.FilesUpdated != 7 {
		t.Errorf("expected 7 files updated, got %d", res.FilesUpdated)
	}
	if res.FilesSkipped != 0 {
		t.Errorf("expected 0 files skipped, got %d", res.FilesSkipped)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", res.Warnings)
	}
	if res.BackupDir == "" {
		t.Error("expected non-empty backup dir")
	}

	if got := read(t, filepath.Join(gameDir, "data", "a.pak")); got != "v2-a.pak" {
		t.Errorf("expected updated content, got %q", got)
	}
	if got := read(t, filepath.Join(gameDir, "data", "new1.pak")); got != "v2-new1" {
		t.Errorf("expected new file created, got %q", got)
	}
	// Backup holds the save data, verifiable.
	if got := read(t, filepath.Join(res.BackupDir, "saves", "slot0.sav")); got != "precious" {
		t.Errorf("expected backup of saves, got %q", got)
	}
}

func TestApply_ProtectedFilesNeverOverwritten(t *testing.T) {
	exe := installedGame(t)
	gameDir := filepath.Dir(exe)

	// The new version ships placeholder saves.
	src := filepath.Join(t.TempDir(), "v2")
	write(t, filepath.Join(src, "data", "a.pak"), "v2")
	write(t, filepath.Join(src, "saves", "slot0.sav"), "EMPTY PLACEHOLDER")

	res, err := newTestUpdater().Apply(exe, src)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.FilesSkipped != 1 {
		t.Errorf("expected 1 skipped file, got %d", res.FilesSkipped)
	}
	if res.FilesUpdated != 1 {
		t.Errorf("expected 1 updated file, got %d", res.FilesUpdated)
	}
	if got := read(t, filepath.Join(gameDir, "saves", "slot0.sav")); got != "precious" {
		t.Errorf("protected file overwritten: %q", got)
	}
}

func TestApply_CopyFailureIsWarningNotFatal(t *testing.T) {
	gameDir := filepath.Join(t.TempDir(), "MyGame")
	write(t, filepath.Join(gameDir, "game.exe"), "v1-exe")
	write(t, filepath.Join(gameDir, "data", "a.pak"), "v1")
	// A directory squatting on a destination file path makes that one copy
	// fail while the rest of the merge proceeds.
	if err := os.MkdirAll(filepath.Join(gameDir, "data", "b.pak"), 0o755); err != nil {
		t.Fatal(err)
	}

	src := filepath.Join(t.TempDir(), "v2")
	write(t, filepath.Join(src, "data", "a.pak"), "v2")
	write(t, filepath.Join(src, "data", "b.pak"), "v2")
	write(t, filepath.Join(src, "data", "c.pak"), "v2")

	res, err := newTestUpdater().Apply(filepath.Join(gameDir, "game.exe"), src)
	if err != nil {
		t.Fatalf("apply should tolerate per-file copy errors, got %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected exactly 1 warning, got %v", res.Warnings)
	}
	if res.FilesUpdated != 2 {
		t.Errorf("expected merge to continue past the failure (2 updated), got %d", res.FilesUpdated)
	}
	if got := read(t, filepath.Join(gameDir, "data", "a.pak")); got != "v2" {
		t.Errorf("expected a.pak updated, got %q", got)
	}
	if got := read(t, filepath.Join(gameDir, "data", "c.pak")); got != "v2" {
		t.Errorf("expected c.pak created despite earlier failure, got %q", got)
	}
}

func TestApply_BackupFailureAbortsBeforeOverwrite(t *testing.T) {
	exe := installedGame(t)
	gameDir := filepath.Dir(exe)

	// A plain file squatting on the backup area makes MkdirAll fail.
	write(t, filepath.Join(gameDir, backupDirName), "in the way")
	before := snapshot(t, gameDir)

	_, err := newTestUpdater().Apply(exe, newVersion(t))
	if !errors.Is(err, ErrBackupFailed) {
		t.Fatalf("expected ErrBackupFailed, got %v", err)
	}

	after := snapshot(t, gameDir)
	for rel, content := range before {
		if after[rel] != content {
			t.Errorf("file modified despite backup failure: %s", rel)
		}
	}
	if len(after) != len(before) {
		t.Errorf("files created despite backup failure: %d -> %d", len(before), len(after))
	}
}

func TestApply_ZipSourceWithWrapperDir(t *testing.T) {
	exe := installedGame(t)
	gameDir := filepath.Dir(exe)

	zipPath := filepath.Join(t.TempDir(), "v2.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, content := range map[string]string{
		"MyGame-v2/data/a.pak":  "v2-zip",
		"MyGame-v2/data/f.pak":  "v2-new",
		"MyGame-v2/game.exe":    "v2-exe",
		"MyGame-v2/saves/s.sav": "placeholder",
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(content))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	u := newTestUpdater()

	p, err := u.Preview(exe, zipPath)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !p.SourceIsZip {
		t.Error("expected zip source")
	}
	if p.ZipEntryCount == nil || *p.ZipEntryCount != 4 {
		t.Errorf("expected zip entry count 4, got %v", p.ZipEntryCount)
	}

	res, err := u.Apply(exe, zipPath)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.FilesUpdated != 3 || res.FilesSkipped != 1 {
		t.Errorf("expected 3 updated / 1 skipped, got %d / %d", res.FilesUpdated, res.FilesSkipped)
	}
	if got := read(t, filepath.Join(gameDir, "game.exe")); got != "v2-exe" {
		t.Errorf("wrapper dir not unwrapped, exe content %q", got)
	}
	if got := read(t, filepath.Join(gameDir, "saves", "slot0.sav")); got != "precious" {
		t.Errorf("zip update touched saves: %q", got)
	}
}

func TestWorkflow_Transitions(t *testing.T) {
	exe := installedGame(t)
	src := newVersion(t)
	w := NewWorkflow(newTestUpdater())

	if w.State() != StateIdle {
		t.Fatalf("expected idle, got %s", w.State())
	}
	if _, err := w.Apply(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("apply from idle: expected ErrInvalidTransition, got %v", err)
	}

	if _, err := w.Preview(exe, src); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if w.State() != StateReady {
		t.Fatalf("expected ready, got %s", w.State())
	}
	if w.Planned() == nil {
		t.Fatal("expected planned preview available")
	}

	// Back discards the plan.
	if err := w.Back(); err != nil {
		t.Fatalf("back: %v", err)
	}
	if w.State() != StateIdle || w.Planned() != nil {
		t.Fatal("expected idle with no plan after back")
	}

	// Full pass to done.
	if _, err := w.Preview(exe, src); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Apply(); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if w.State() != StateDone {
		t.Fatalf("expected done, got %s", w.State())
	}

	// No second apply without a fresh preview.
	if _, err := w.Apply(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("apply from done: expected ErrInvalidTransition, got %v", err)
	}
	if err := w.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if w.State() != StateIdle {
		t.Fatalf("expected idle after reset, got %s", w.State())
	}
}

func TestWorkflow_PreviewFailureReturnsToIdle(t *testing.T) {
	exe := installedGame(t)
	w := NewWorkflow(newTestUpdater())

	if _, err := w.Preview(exe, filepath.Join(t.TempDir(), "missing")); !errors.Is(err, ErrSourceUnreadable) {
		t.Fatalf("expected ErrSourceUnreadable, got %v", err)
	}
	if w.State() != StateIdle {
		t.Errorf("expected idle after failed preview, got %s", w.State())
	}
}
