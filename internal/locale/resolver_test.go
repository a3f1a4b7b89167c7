package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locdrift/internal/domain"
)

func testLocales() domain.Locales {
	return domain.Locales{Source: "en", Targets: []string{"fr", "es", "de"}}
}

func TestStripLocalePrefix(t *testing.T) {
	tests := []struct {
		name string
		path string
		code string
		want string
	}{
		{"subpath", "/en/about", "en", "/about"},
		{"exact match returns root", "/en", "en", "/"},
		{"deep path", "/fr/docs/api/v2", "fr", "/docs/api/v2"},
		{"no prefix unchanged", "/about", "en", "/about"},
		{"root unchanged", "/", "en", "/"},
		{"different locale not stripped", "/fr/about", "en", "/fr/about"},
		{"partial segment not stripped", "/english/about", "en", "/english/about"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripLocalePrefix(tt.path, tt.code))
		})
	}
}

func TestURLResolverResolve(t *testing.T) {
	r, err := NewURLResolver("https://example.com", testLocales())
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/fr/about", r.Resolve("/about", "fr"))
	assert.Equal(t, "https://example.com/en/", r.Resolve("/", "en"))
	assert.Equal(t, "https://example.com/de/docs/api/v2", r.Resolve("/docs/api/v2", "de"))
}

func TestURLResolverResolveStripsTrailingSlashFromBase(t *testing.T) {
	r, err := NewURLResolver("https://example.com/", testLocales())
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/es/contact", r.Resolve("/contact", "es"))
}

func TestURLResolverCanonicalize(t *testing.T) {
	r, err := NewURLResolver("https://example.com", testLocales())
	require.NoError(t, err)

	tests := []struct {
		address    string
		wantPage   domain.CanonicalPage
		wantLocale string
	}{
		{"https://example.com/en/about", "/about", "en"},
		{"https://example.com/fr/docs/api", "/docs/api", "fr"},
		{"https://example.com/en", "/", "en"},
		{"https://example.com/en/", "/", "en"},
		{"https://example.com/about", "/about", ""},
		{"https://example.com/", "/", ""},
		{"/en/contact", "/contact", "en"},
		{"about", "/about", ""},
		{"https://example.com/en/about/", "/about", "en"},
		{"https://example.com/english/about", "/english/about", ""},
	}
	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			page, loc, err := r.Canonicalize(tt.address)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLocale, loc)
		})
	}
}

func TestURLResolverCanonicalizeRejectsForeignOrigin(t *testing.T) {
	r, err := NewURLResolver("https://example.com", testLocales())
	require.NoError(t, err)

	_, _, err = r.Canonicalize("https://other.com/en/about")
	assert.ErrorIs(t, err, domain.ErrMalformedAddress)
}

func TestNewURLResolverRejectsMalformedBase(t *testing.T) {
	_, err := NewURLResolver("not a url", testLocales())
	assert.ErrorIs(t, err, domain.ErrMalformedAddress)

	_, err = NewURLResolver("/relative/only", testLocales())
	assert.ErrorIs(t, err, domain.ErrMalformedAddress)
}

// Users commonly hand in the localized root they browse to; the resolver must
// reduce it to the bare origin instead of doubling the locale segment.
func TestNewURLResolverStripsLocalePrefixFromBase(t *testing.T) {
	for _, base := range []string{
		"https://example.com/en",
		"https://example.com/en/",
		"https://example.com/fr",
	} {
		t.Run(base, func(t *testing.T) {
			r, err := NewURLResolver(base, testLocales())
			require.NoError(t, err)

			assert.Equal(t, "https://example.com/fr/about", r.Resolve("/about", "fr"))
			assert.Equal(t, "https://example.com/en/", r.Resolve("/", "en"))

			page, loc, err := r.Canonicalize(r.Resolve("/about", "fr"))
			require.NoError(t, err)
			assert.Equal(t, domain.CanonicalPage("/about"), page)
			assert.Equal(t, "fr", loc)
		})
	}
}

func TestNewURLResolverRejectsNonLocaleBasePath(t *testing.T) {
	_, err := NewURLResolver("https://example.com/docs", testLocales())
	assert.ErrorIs(t, err, domain.ErrMalformedAddress)

	// Only the locale segment is stripped; a path below it is still a path.
	_, err = NewURLResolver("https://example.com/en/docs", testLocales())
	assert.ErrorIs(t, err, domain.ErrMalformedAddress)
}

// Resolve and Canonicalize must be exact inverses for every page and locale,
// regardless of how the base URL was spelled.
func TestResolveCanonicalizeRoundTrip(t *testing.T) {
	locs := testLocales()
	for _, base := range []string{"https://example.com", "https://example.com/en/"} {
		r, err := NewURLResolver(base, locs)
		require.NoError(t, err)

		pages := []domain.CanonicalPage{"/", "/about", "/docs/api/v2", "/pricing"}
		codes := append([]string{locs.Source}, locs.Targets...)
		for _, page := range pages {
			for _, code := range codes {
				gotPage, gotLocale, err := r.Canonicalize(r.Resolve(page, code))
				require.NoError(t, err)
				assert.Equal(t, page, gotPage, "page round-trip for %s/%s from base %s", page, code, base)
				assert.Equal(t, code, gotLocale, "locale round-trip for %s/%s from base %s", page, code, base)
			}
		}
	}
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "index", SafeFilename("/"))
	assert.Equal(t, "index", SafeFilename(""))
	assert.Equal(t, "about", SafeFilename("/about"))
	assert.Equal(t, "about_team", SafeFilename("/about/team"))
	assert.Equal(t, "docs_api_v2_auth", SafeFilename("/docs/api/v2/auth"))
}
