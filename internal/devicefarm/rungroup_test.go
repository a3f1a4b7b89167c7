package devicefarm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"locdrift/internal/domain"
)

func TestParseRunName(t *testing.T) {
	parsed, err := ParseRunName("pixel6-33-fr-portrait")
	require.NoError(t, err)
	assert.Equal(t, "pixel6", parsed.Model)
	assert.Equal(t, "33", parsed.PlatformVersion)
	assert.Equal(t, "fr", parsed.Locale)
	assert.Equal(t, "portrait", parsed.Orientation)
	assert.Equal(t, "pixel6-33-portrait", parsed.GroupKey())
	assert.Equal(t, "pixel6-33-fr-portrait", parsed.DirName())
}

func TestParseRunNameRejectsWrongFieldCount(t *testing.T) {
	for _, name := range []string{"pixel6-33-fr", "pixel6-33-fr-portrait-extra", "pixel6", ""} {
		_, err := ParseRunName(name)
		assert.ErrorIs(t, err, domain.ErrMalformedAddress, "name %q", name)
	}
}

func TestParseRunNameRejectsEmptyField(t *testing.T) {
	_, err := ParseRunName("pixel6--fr-portrait")
	assert.ErrorIs(t, err, domain.ErrMalformedAddress)
}

func TestGroupRuns(t *testing.T) {
	names := []string{"m1-29-en-portrait", "m1-29-fr-portrait", "m2-30-en-portrait"}
	groups := GroupRuns(names, zap.NewNop())

	require.Len(t, groups, 2)
	assert.Equal(t, "m1-29-portrait", groups[0].Key)
	assert.Equal(t, map[string]string{
		"en": "m1-29-en-portrait",
		"fr": "m1-29-fr-portrait",
	}, groups[0].Dirs)
	assert.Equal(t, "m2-30-portrait", groups[1].Key)
	assert.Equal(t, map[string]string{"en": "m2-30-en-portrait"}, groups[1].Dirs)
}

func TestGroupRunsDropsUnparsableNames(t *testing.T) {
	names := []string{"m1-29-en-portrait", "DS_Store", "readme.txt", "m1-29-extra-fr-portrait"}
	groups := GroupRuns(names, zap.NewNop())

	require.Len(t, groups, 1)
	assert.Equal(t, "m1-29-portrait", groups[0].Key)
}

func writeScreens(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("png"), 0o644))
	}
}

func TestBuildManifests(t *testing.T) {
	root := t.TempDir()
	writeScreens(t, filepath.Join(root, "m1-29-en-portrait"), "a.png", "b.png")
	writeScreens(t, filepath.Join(root, "m1-29-fr-portrait"), "a.png")

	locs := domain.Locales{Source: "en", Targets: []string{"fr"}}
	groups := GroupRuns([]string{"m1-29-en-portrait", "m1-29-fr-portrait"}, zap.NewNop())

	manifests, err := BuildManifests(root, groups, locs, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, manifests, 1)

	m := manifests[0]
	assert.Equal(t, []string{"a.png", "b.png"}, m.Files)
	assert.Equal(t, []MissingArtifact{{Locale: "fr", Filename: "b.png"}}, m.Missing)
}

func TestBuildManifestsIgnoresExtraTargetFiles(t *testing.T) {
	root := t.TempDir()
	writeScreens(t, filepath.Join(root, "m1-29-en-portrait"), "a.png")
	writeScreens(t, filepath.Join(root, "m1-29-fr-portrait"), "a.png", "only_in_fr.png")

	locs := domain.Locales{Source: "en", Targets: []string{"fr"}}
	groups := GroupRuns([]string{"m1-29-en-portrait", "m1-29-fr-portrait"}, zap.NewNop())

	manifests, err := BuildManifests(root, groups, locs, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, manifests, 1)
	assert.Equal(t, []string{"a.png"}, manifests[0].Files)
	assert.Empty(t, manifests[0].Missing)
}

func TestBuildManifestsSkipsGroupWithoutSourceDir(t *testing.T) {
	root := t.TempDir()
	writeScreens(t, filepath.Join(root, "m2-30-fr-portrait"), "a.png")

	locs := domain.Locales{Source: "en", Targets: []string{"fr"}}
	groups := GroupRuns([]string{"m2-30-fr-portrait"}, zap.NewNop())

	manifests, err := BuildManifests(root, groups, locs, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, manifests)
}

func TestBuildManifestsFiltersNonPNG(t *testing.T) {
	root := t.TempDir()
	writeScreens(t, filepath.Join(root, "m1-29-en-portrait"), "a.png", "log.txt", "B.PNG")
	writeScreens(t, filepath.Join(root, "m1-29-fr-portrait"), "a.png", "B.PNG")

	locs := domain.Locales{Source: "en", Targets: []string{"fr"}}
	groups := GroupRuns([]string{"m1-29-en-portrait", "m1-29-fr-portrait"}, zap.NewNop())

	manifests, err := BuildManifests(root, groups, locs, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, manifests, 1)
	assert.Equal(t, []string{"B.PNG", "a.png"}, manifests[0].Files)
}
