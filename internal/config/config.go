// Package config loads the scan and protection policies. Both heuristics are
// data, not code: a YAML file can replace any of the built-in lists without a
// rebuild.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScanPolicy is the executable-discovery predicate in data form.
type ScanPolicy struct {
	// ExeExtensions are the file extensions (without dot) treated as game
	// executables during library scans.
	ExeExtensions []string `yaml:"exe_extensions"`
	// MinExeSize filters out stub binaries below this many bytes.
	MinExeSize int64 `yaml:"min_exe_size"`
	// BlockedNames are lowercase substrings that disqualify an executable by
	// file stem (uninstallers, crash handlers, redistributable installers…).
	BlockedNames []string `yaml:"blocked_names"`
	// BlockedPathFragments disqualify by full path (tooling directories).
	BlockedPathFragments []string `yaml:"blocked_path_fragments"`
	// GenericStems are exe stems that say nothing about the game ("game",
	// "nw", "renpy"); the scanner prefers the parent folder name for those.
	GenericStems []string `yaml:"generic_stems"`
}

// ProtectPolicy is the save-data predicate in data form.
type ProtectPolicy struct {
	// DirNames are lowercase directory names presumed to hold user data.
	DirNames []string `yaml:"dir_names"`
	// FileExtensions (without dot) are always treated as save/config data
	// regardless of location.
	FileExtensions []string `yaml:"file_extensions"`
	// AmbiguousExtensions are only protected when they sit inside a protected
	// directory (json/dat are too common to protect bare).
	AmbiguousExtensions []string `yaml:"ambiguous_extensions"`
	// MarkerFile, when present inside a directory, marks it protected no
	// matter its name.
	MarkerFile string `yaml:"marker_file"`
	// MaxDepth bounds the protected-directory search below the game dir.
	MaxDepth int `yaml:"max_depth"`
}

// Policy bundles both predicates.
type Policy struct {
	Scan    ScanPolicy    `yaml:"scan"`
	Protect ProtectPolicy `yaml:"protect"`
}

// Default returns the built-in policy.
func Default() Policy {
	return Policy{
		Scan: ScanPolicy{
			ExeExtensions: []string{"exe"},
			MinExeSize:    100 * 1024,
			BlockedNames: []string{
				"crashhandler", "uninstall", "unins", "update", "config",
				"settings", "dxsetup", "vcredist", "git-", "setup", "helper",
			},
			BlockedPathFragments: []string{"/git/", "/node_modules/", `\git\`, `\node_modules\`},
			GenericStems: []string{
				"game", "start", "play", "launch", "launcher", "nw", "nwjs",
				"app", "electron", "main", "run", "exec", "renpy", "lib",
				"engine", "ux", "client", "project", "visual_novel", "vn",
			},
		},
		Protect: ProtectPolicy{
			DirNames: []string{
				"save", "saves", "savedata", "save_data", "savegame",
				"savegames", "save data", "user_data", "userdata", "game_save",
				"playsave", "config", "configs", "settings", "screenshots",
				"log", "logs", "playerprefs",
			},
			FileExtensions: []string{
				"sav", "save", "rpgsave", "rpgrmvp", "rvdata", "rvdata2",
				"lsd", "xml", "ini", "cfg",
			},
			AmbiguousExtensions: []string{"json", "dat"},
			MarkerFile:          ".gamekeeper-keep",
			MaxDepth:            4,
		},
	}
}

// Load reads a policy file. A missing path yields the defaults; a present but
// malformed file is an error. Fields omitted from the file keep their default.
func Load(path string) (Policy, error) {
	p := Default()
	if path == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, fmt.Errorf("read policy: %w", err)
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("parse policy: %w", err)
	}
	normalize(&p)
	return p, nil
}

func normalize(p *Policy) {
	lower := func(ss []string) {
		for i, s := range ss {
			ss[i] = strings.ToLower(strings.TrimSpace(s))
		}
	}
	lower(p.Scan.ExeExtensions)
	lower(p.Scan.BlockedNames)
	lower(p.Scan.BlockedPathFragments)
	lower(p.Scan.GenericStems)
	lower(p.Protect.DirNames)
	lower(p.Protect.FileExtensions)
	lower(p.Protect.AmbiguousExtensions)
	if p.Protect.MaxDepth <= 0 {
		p.Protect.MaxDepth = Default().Protect.MaxDepth
	}
}
