// Package update plans and applies in-place game version upgrades while
// detecting and protecting save-data directories.
package update

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/avoelk/gamekeeper/internal/config"
)

// Protector is the save-data predicate. It is policy-driven: directory-name
// keyword matching over every path component, an always-protected extension
// list, and an opt-in marker file for directories no convention covers.
type Protector struct {
	policy config.ProtectPolicy

	dirNames  map[string]bool
	exts      map[string]bool
	ambiguous map[string]bool
}

// NewProtector builds a Protector from policy.
func NewProtector(policy config.ProtectPolicy) *Protector {
	p := &Protector{
		policy:    policy,
		dirNames:  make(map[string]bool, len(policy.DirNames)),
		exts:      make(map[string]bool, len(policy.FileExtensions)),
		ambiguous: make(map[string]bool, len(policy.AmbiguousExtensions)),
	}
	for _, n := range policy.DirNames {
		p.dirNames[n] = true
	}
	for _, e := range policy.FileExtensions {
		p.exts[e] = true
	}
	for _, e := range policy.AmbiguousExtensions {
		p.ambiguous[e] = true
	}
	return p
}

// IsProtectedPath reports whether a path relative to the game root should be
// treated as protected. Every path component is checked against the protected
// directory names; the file extension is checked against the always-protected
// list. Ambiguous extensions (json, dat) are protected only via a protected
// parent directory.
func (p *Protector) IsProtectedPath(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, comp := range strings.Split(rel, "/") {
		if p.dirNames[strings.ToLower(comp)] {
			return true
		}
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(rel), "."))
	if ext != "" && p.exts[ext] && !p.ambiguous[ext] {
		return true
	}
	return false
}

// ProtectedDirs walks the installed game directory (bounded by the policy's
// max depth) and returns the relative paths of directories that match the
// predicate by name or carry the marker file. Sorted for stable output.
func (p *Protector) ProtectedDirs(gameDir string) ([]string, error) {
	var out []string
	root := filepath.Clean(gameDir)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree contributes nothing
		}
		if !d.IsDir() || path == root {
			return nil
		}
		if d.Name() == backupDirName {
			return fs.SkipDir // never protect (or re-back-up) the backup area
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if strings.Count(filepath.ToSlash(rel), "/")+1 > p.policy.MaxDepth {
			return fs.SkipDir
		}
		if p.dirNames[strings.ToLower(d.Name())] || p.hasMarker(path) {
			out = append(out, rel)
			return fs.SkipDir // nested matches are covered by the parent
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (p *Protector) hasMarker(dir string) bool {
	if p.policy.MarkerFile == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(dir, p.policy.MarkerFile))
	return err == nil
}
