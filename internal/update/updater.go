package update

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/avoelk/gamekeeper/internal/logging"
	"github.com/avoelk/gamekeeper/internal/model"
)

var (
	// ErrSourceUnreadable means the candidate new version cannot be opened or
	// listed. Nothing was changed.
	ErrSourceUnreadable = errors.New("update source unreadable")

	// ErrBackupFailed means a protected directory could not be fully backed
	// up. The update aborts before touching any installed file.
	ErrBackupFailed = errors.New("backup failed")
)

// backupDirName is the fixed hidden backup area inside the game folder.
// Each update gets its own uniquely suffixed subdirectory; prior backups
// accumulate and are never overwritten.
const backupDirName = ".gamekeeper_backup"

// Updater plans and applies version upgrades for one installed game at a
// time. Concurrent use for different games is safe; the caller must not run
// two operations for the same game at once.
type Updater struct {
	protector *Protector
	log       logging.Logger
	entropy   *rand.Rand
}

// NewUpdater builds an Updater with the given save-data predicate.
func NewUpdater(protector *Protector, log logging.Logger) *Updater {
	return &Updater{
		protector: protector,
		log:       log,
		entropy:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (u *Updater) newSuffix() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), u.entropy).String()
}

func gameDirOf(exePath string) (string, error) {
	dir := filepath.Dir(exePath)
	if dir == "." || dir == string(filepath.Separator) {
		return "", fmt.Errorf("cannot determine game directory for %q", exePath)
	}
	return dir, nil
}

func isZipSource(path string, info os.FileInfo) bool {
	return !info.IsDir() && strings.EqualFold(filepath.Ext(path), ".zip")
}

// Preview computes what an update would do without mutating anything. For a
// folder source every file is classified as update or new; for a zip source
// only the archive member count is reported, since the archive is not
// extracted during preview.
func (u *Updater) Preview(exePath, sourcePath string) (model.UpdatePreview, error) {
	var p model.UpdatePreview

	gameDir, err := gameDirOf(exePath)
	if err != nil {
		return p, err
	}
	info, err := os.Stat(sourcePath)
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}

	protected, err := u.protector.ProtectedDirs(gameDir)
	if err != nil {
		return p, err
	}
	p.GameDir = gameDir
	p.ProtectedDirs = protected
	p.SourceIsZip = isZipSource(sourcePath, info)

	switch {
	case p.SourceIsZip:
		r, err := zip.OpenReader(sourcePath)
		if err != nil {
			return p, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
		}
		defer r.Close()
		n := len(r.File)
		p.ZipEntryCount = &n
	case info.IsDir():
		toUpdate, newFiles, err := u.diffSource(sourcePath, gameDir, protected)
		if err != nil {
			return p, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
		}
		p.FilesToUpdate = toUpdate
		p.NewFiles = newFiles
	default:
		return p, fmt.Errorf("%w: %q is neither a folder nor a .zip archive", ErrSourceUnreadable, sourcePath)
	}

	return p, nil
}

func (u *Updater) diffSource(srcDir, gameDir string, protected []string) (toUpdate, newFiles int, err error) {
	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(srcDir, path)
		if relErr != nil {
			return relErr
		}
		if u.isProtected(rel, protected) {
			return nil // excluded from both counts
		}
		if _, statErr := os.Stat(filepath.Join(gameDir, rel)); statErr == nil {
			toUpdate++
		} else {
			newFiles++
		}
		return nil
	})
	return toUpdate, newFiles, err
}

func (u *Updater) isProtected(rel string, protectedDirs []string) bool {
	if u.protector.IsProtectedPath(rel) {
		return true
	}
	slashed := filepath.ToSlash(rel)
	for _, p := range protectedDirs {
		pp := filepath.ToSlash(p)
		if slashed == pp || strings.HasPrefix(slashed, pp+"/") {
			return true
		}
	}
	// Never touch the backup area itself.
	return slashed == backupDirName || strings.HasPrefix(slashed, backupDirName+"/")
}

// Apply executes an update: back up protected directories, then copy the new
// version over the install, skipping protected paths. Protection is
// recomputed here; a stale preview is never trusted. If any backup fails the
// whole operation aborts before a single installed file is overwritten.
// Per-file copy errors during the merge are collected as warnings.
func (u *Updater) Apply(exePath, sourcePath string) (model.UpdateResult, error) {
	var res model.UpdateResult

	gameDir, err := gameDirOf(exePath)
	if err != nil {
		return res, err
	}
	info, err := os.Stat(sourcePath)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}

	// Resolve the new-version folder, extracting a zip to a temp dir next to
	// the game folder.
	newDir := sourcePath
	if isZipSource(sourcePath, info) {
		temp := filepath.Join(filepath.Dir(gameDir), ".gamekeeper_extract_"+u.newSuffix())
		if err := extractZip(sourcePath, temp); err != nil {
			os.RemoveAll(temp)
			return res, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
		}
		defer os.RemoveAll(temp)
		newDir = unwrapSingleDir(temp)
	} else if !info.IsDir() {
		return res, fmt.Errorf("%w: %q is neither a folder nor a .zip archive", ErrSourceUnreadable, sourcePath)
	}

	protected, err := u.protector.ProtectedDirs(gameDir)
	if err != nil {
		return res, err
	}
	res.ProtectedDirs = protected

	// Back up every protected directory before any overwrite. Protecting
	// data takes priority over applying the update.
	if len(protected) > 0 {
		backupDir := filepath.Join(gameDir, backupDirName, time.Now().UTC().Format("20060102-150405")+"-"+u.newSuffix())
		for _, rel := range protected {
			src := filepath.Join(gameDir, rel)
			if _, err := os.Stat(src); err != nil {
				continue
			}
			if err := copyTree(src, filepath.Join(backupDir, rel)); err != nil {
				return res, fmt.Errorf("%w: %s: %v", ErrBackupFailed, rel, err)
			}
		}
		res.BackupDir = backupDir
		u.log.Info(context.Background(), "protected directories backed up", "backup", backupDir, "dirs", len(protected))
	}

	res.FilesUpdated, res.FilesSkipped = u.mergeDirs(newDir, gameDir, protected, &res.Warnings)

	// Restore pass: the new version may have shipped placeholder save dirs;
	// copy the backup over them so user data always wins.
	if res.BackupDir != "" {
		for _, rel := range protected {
			bak := filepath.Join(res.BackupDir, rel)
			if _, err := os.Stat(bak); err != nil {
				continue
			}
			if err := copyTree(bak, filepath.Join(gameDir, rel)); err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("restore %s: %v", rel, err))
			}
		}
	}

	if res.Warnings == nil {
		res.Warnings = []string{}
	}
	return res, nil
}

// mergeDirs copies every file from src into dst, skipping protected relative
// paths. Copy failures become warnings; the merge continues.
func (u *Updater) mergeDirs(src, dst string, protected []string, warnings *[]string) (updated, skipped int) {
	filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			*warnings = append(*warnings, fmt.Sprintf("walk %s: %v", path, walkErr))
			return nil
		}
		rel, relErr := filepath.Rel(src, path)
		if relErr != nil || rel == "." {
			return nil
		}
		prot := u.isProtected(rel, protected)

		if d.IsDir() {
			if !prot {
				if err := os.MkdirAll(filepath.Join(dst, rel), 0o755); err != nil {
					*warnings = append(*warnings, fmt.Sprintf("mkdir %s: %v", rel, err))
				}
			}
			return nil
		}
		if prot {
			skipped++
			return nil
		}
		target := filepath.Join(dst, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			*warnings = append(*warnings, fmt.Sprintf("mkdir %s: %v", filepath.Dir(rel), err))
			return nil
		}
		if err := copyFile(path, target); err != nil {
			*warnings = append(*warnings, fmt.Sprintf("copy %s: %v", rel, err))
			return nil
		}
		updated++
		return nil
	})
	return updated, skipped
}

// unwrapSingleDir returns the sole top-level subdirectory of dir when the
// extracted archive carries a single wrapper folder (game-v2.0/game.exe),
// otherwise dir itself.
func unwrapSingleDir(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 || !entries[0].IsDir() {
		return dir
	}
	return filepath.Join(dir, entries[0].Name())
}

func extractZip(zipPath, dest string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	for _, f := range r.File {
		name := filepath.Clean(f.Name)
		if name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) {
			continue // refuse path traversal
		}
		target := filepath.Join(dest, name)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.Create(target)
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// copyTree recursively copies src into dst, failing on the first error.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return relErr
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}
