// Package devicefarm pairs screenshot directories produced by a device-farm
// test run across locales.
//
// Result directories follow a fixed four-field naming convention,
// <model>-<platformVersion>-<locale>-<orientation>, e.g. pixel6-33-fr-portrait.
// The convention assumes none of the fields themselves contain hyphens; names
// with any other number of fields are skipped with a warning rather than
// guessed at.
package devicefarm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"locdrift/internal/domain"
)

const fieldDelimiter = "-"

// ParsedRunName is the typed form of a result-directory name.
type ParsedRunName struct {
	Model           string
	PlatformVersion string
	Locale          string
	Orientation     string
}

// ParseRunName tokenizes a directory name into its four fields.
func ParseRunName(name string) (ParsedRunName, error) {
	fields := strings.Split(name, fieldDelimiter)
	if len(fields) != 4 {
		return ParsedRunName{}, fmt.Errorf("%w: run directory %q has %d fields, want 4",
			domain.ErrMalformedAddress, name, len(fields))
	}
	for _, f := range fields {
		if f == "" {
			return ParsedRunName{}, fmt.Errorf("%w: run directory %q has an empty field",
				domain.ErrMalformedAddress, name)
		}
	}
	return ParsedRunName{
		Model:           fields[0],
		PlatformVersion: fields[1],
		Locale:          fields[2],
		Orientation:     fields[3],
	}, nil
}

// GroupKey is the device/profile identity shared by directories that differ
// only by locale.
func (p ParsedRunName) GroupKey() string {
	return strings.Join([]string{p.Model, p.PlatformVersion, p.Orientation}, fieldDelimiter)
}

// DirName reconstructs the directory name, the inverse of ParseRunName.
func (p ParsedRunName) DirName() string {
	return strings.Join([]string{p.Model, p.PlatformVersion, p.Locale, p.Orientation}, fieldDelimiter)
}

// Group is one run-group: a device/profile identity and the per-locale
// directories captured for it.
type Group struct {
	Key  string
	Dirs map[string]string // locale -> directory name
}

// GroupRuns buckets directory names by device/profile identity. Unparsable
// names are dropped with a warning, never fatally. Groups come back sorted by
// key so downstream ordering is deterministic.
func GroupRuns(names []string, logger *zap.Logger) []Group {
	byKey := make(map[string]*Group)
	for _, name := range names {
		parsed, err := ParseRunName(name)
		if err != nil {
			logger.Warn("skipping unparsable run directory", zap.String("dir", name), zap.Error(err))
			continue
		}
		key := parsed.GroupKey()
		g, ok := byKey[key]
		if !ok {
			g = &Group{Key: key, Dirs: make(map[string]string)}
			byKey[key] = g
		}
		if existing, dup := g.Dirs[parsed.Locale]; dup {
			logger.Warn("duplicate locale in run group, keeping first",
				zap.String("group", key), zap.String("locale", parsed.Locale),
				zap.String("kept", existing), zap.String("dropped", name))
			continue
		}
		g.Dirs[parsed.Locale] = name
	}

	groups := make([]Group, 0, len(byKey))
	for _, g := range byKey {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// MissingArtifact records a screenshot present in the source locale's
// directory but absent from a target's. A missing screen is itself a drift
// signal and is surfaced in the report, not silently skipped.
type MissingArtifact struct {
	Locale   string
	Filename string
}

// Manifest is a fully resolved run-group: the matched file set plus any
// missing target artifacts. Files present only in a target locale are ignored.
type Manifest struct {
	Group   Group
	Files   []string // source locale's screenshot set, sorted
	Missing []MissingArtifact
}

// BuildManifests lists each group's directories under root and computes the
// match set against the source locale. Groups without a source-locale
// directory cannot anchor a comparison and are skipped with a warning.
func BuildManifests(root string, groups []Group, locales domain.Locales, logger *zap.Logger) ([]Manifest, error) {
	manifests := make([]Manifest, 0, len(groups))
	for _, g := range groups {
		sourceDir, ok := g.Dirs[locales.Source]
		if !ok {
			logger.Warn("run group has no source locale directory, skipping",
				zap.String("group", g.Key), zap.String("source", locales.Source))
			continue
		}

		files, err := listScreenshots(filepath.Join(root, sourceDir))
		if err != nil {
			return nil, fmt.Errorf("%w: reading source directory %s: %v",
				domain.ErrConfiguration, sourceDir, err)
		}

		m := Manifest{Group: g, Files: files}
		for _, target := range locales.Targets {
			targetDir, ok := g.Dirs[target]
			if !ok {
				// No run for this target on this device: nothing to pair.
				continue
			}
			targetFiles, err := listScreenshots(filepath.Join(root, targetDir))
			if err != nil {
				logger.Warn("cannot list target directory",
					zap.String("dir", targetDir), zap.Error(err))
				targetFiles = nil
			}
			present := make(map[string]struct{}, len(targetFiles))
			for _, f := range targetFiles {
				present[f] = struct{}{}
			}
			for _, f := range files {
				if _, ok := present[f]; !ok {
					m.Missing = append(m.Missing, MissingArtifact{Locale: target, Filename: f})
				}
			}
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

func listScreenshots(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
