// Package locale maps canonical pages to locale-specific addresses and back.
//
// The web convention puts the locale as the first URL path segment:
// https://example.com/fr/about is the French variant of canonical page /about.
// Resolve and Canonicalize are exact inverses for every valid (page, locale).
package locale

import (
	"fmt"
	"net/url"
	"strings"

	"locdrift/internal/domain"
)

// URLResolver implements the path-segment locale convention against a fixed
// base origin. Only locales named in the run configuration are recognized as
// prefixes; "/english/about" is not stripped by locale "en".
type URLResolver struct {
	base    *url.URL
	locales domain.Locales
}

// NewURLResolver validates the base URL and returns a resolver for the run's
// locale set. The base is reduced to its bare origin: a recognized locale
// prefix on the path is stripped (users hand in the localized root they
// browse to), and any other path fails with ErrMalformedAddress rather than
// silently skewing every resolved address.
func NewURLResolver(rawBase string, locales domain.Locales) (*URLResolver, error) {
	u, err := url.Parse(rawBase)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q", domain.ErrMalformedAddress, rawBase)
	}
	u.RawQuery = ""
	u.Fragment = ""

	path := strings.TrimSuffix(u.Path, "/")
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if path != "" {
		for _, code := range append([]string{locales.Source}, locales.Targets...) {
			if stripped := StripLocalePrefix(path, code); stripped != path {
				path = stripped
				break
			}
		}
		if path == "/" {
			path = ""
		}
	}
	if path != "" {
		return nil, fmt.Errorf("%w: base URL %q carries path %q, want a bare origin",
			domain.ErrMalformedAddress, rawBase, path)
	}
	u.Path = ""
	return &URLResolver{base: u, locales: locales}, nil
}

// Resolve builds the concrete address of page in the given locale.
// Resolve("/about", "fr") -> https://example.com/fr/about; the root page keeps
// its trailing slash: Resolve("/", "en") -> https://example.com/en/.
func (r *URLResolver) Resolve(page domain.CanonicalPage, code string) string {
	return r.base.String() + "/" + code + string(page)
}

// Canonicalize decomposes an address (absolute or host-relative) into its
// canonical page and locale. The locale is empty when the path carries no
// recognized locale prefix. Addresses outside the base origin fail with
// ErrMalformedAddress.
func (r *URLResolver) Canonicalize(address string) (domain.CanonicalPage, string, error) {
	u, err := url.Parse(address)
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", domain.ErrMalformedAddress, address)
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return "", "", fmt.Errorf("%w: unsupported scheme in %q", domain.ErrMalformedAddress, address)
	}
	if u.Host != "" && u.Host != r.base.Host {
		return "", "", fmt.Errorf("%w: %q is outside origin %s", domain.ErrMalformedAddress, address, r.base.Host)
	}

	path := u.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}

	for _, code := range append([]string{r.locales.Source}, r.locales.Targets...) {
		stripped := StripLocalePrefix(path, code)
		if stripped != path {
			return domain.CanonicalPage(stripped), code, nil
		}
	}
	return domain.CanonicalPage(path), "", nil
}

// StripLocalePrefix removes a leading /<code> segment from path. The match is
// on the whole segment: "/en/about" -> "/about", "/en" -> "/", while
// "/english/about" is returned unchanged for code "en".
func StripLocalePrefix(path, code string) string {
	prefix := "/" + code
	if path == prefix {
		return "/"
	}
	if strings.HasPrefix(path, prefix+"/") {
		return path[len(prefix):]
	}
	return path
}

// SafeFilename flattens a canonical page path into a screenshot file stem:
// "/" -> "index", "/about/team" -> "about_team".
func SafeFilename(page domain.CanonicalPage) string {
	trimmed := strings.Trim(string(page), "/")
	if trimmed == "" {
		return "index"
	}
	return strings.ReplaceAll(trimmed, "/", "_")
}
