// Package discover walks the source-locale link graph of a site breadth-first
// and produces the set of canonical pages to compare across locales.
//
// Only the source locale is crawled; target-locale addresses are derived
// mechanically by the locale resolver, on the assumption that translated
// builds mirror the source's navigation structure.
package discover

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"locdrift/internal/domain"
	"locdrift/internal/locale"
)

// PageRecord is one discovered page. Screenshot is nil and RenderErr set when
// the source render failed; such a page is still discovered, it just yields no
// outgoing links and its pairs cannot be compared.
type PageRecord struct {
	Page       domain.CanonicalPage
	Screenshot []byte
	RenderErr  string
}

// Result holds discovered pages in BFS insertion order. That order is what the
// final report preserves.
type Result struct {
	Pages []PageRecord
}

// Screenshots returns the source screenshot per canonical page, omitting
// pages whose render failed.
func (r *Result) Screenshots() map[domain.CanonicalPage][]byte {
	shots := make(map[domain.CanonicalPage][]byte, len(r.Pages))
	for _, p := range r.Pages {
		if p.Screenshot != nil {
			shots[p.Page] = p.Screenshot
		}
	}
	return shots
}

// Discoverer is the single owner of the crawl frontier and visited set.
// Rendering within one BFS level fans out up to the configured concurrency;
// all frontier and visited-set mutation stays on the calling goroutine.
type Discoverer struct {
	resolver    *locale.URLResolver
	renderer    domain.Renderer
	locales     domain.Locales
	concurrency int
	logger      *zap.Logger
}

func New(resolver *locale.URLResolver, renderer domain.Renderer, locales domain.Locales, concurrency int, logger *zap.Logger) *Discoverer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Discoverer{
		resolver:    resolver,
		renderer:    renderer,
		locales:     locales,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Discover runs the crawl from rootAddress until the frontier empties or
// maxPages canonical pages have been visited, whichever comes first. The cap
// is a resource bound, not an error. On context cancellation the pages
// gathered so far are returned.
func (d *Discoverer) Discover(ctx context.Context, rootAddress string, maxPages int) (*Result, error) {
	if maxPages < 1 {
		return nil, fmt.Errorf("%w: max pages must be at least 1", domain.ErrConfiguration)
	}

	rootPage, rootLocale, err := d.resolver.Canonicalize(rootAddress)
	if err != nil {
		return nil, err
	}
	if rootLocale != "" && rootLocale != d.locales.Source {
		return nil, fmt.Errorf("%w: root address %q is in locale %q, not source locale %q",
			domain.ErrConfiguration, rootAddress, rootLocale, d.locales.Source)
	}

	visited := map[domain.CanonicalPage]struct{}{rootPage: {}}
	frontier := []domain.CanonicalPage{rootPage}
	result := &Result{}

	for len(frontier) > 0 {
		if ctx.Err() != nil {
			d.logger.Warn("crawl cancelled, returning partial discovery",
				zap.Int("pages", len(result.Pages)))
			return result, nil
		}

		level := frontier
		frontier = nil

		records := d.renderLevel(ctx, level)
		for _, rec := range records {
			result.Pages = append(result.Pages, rec.PageRecord)
			for _, href := range rec.links {
				page, ok := d.canonicalizeLink(href)
				if !ok {
					continue
				}
				if _, seen := visited[page]; seen {
					continue
				}
				if len(visited) >= maxPages {
					continue
				}
				visited[page] = struct{}{}
				frontier = append(frontier, page)
			}
		}
	}

	d.logger.Info("crawl complete", zap.Int("pages", len(result.Pages)))
	return result, nil
}

type renderedPage struct {
	PageRecord
	links []string
}

// renderLevel renders one BFS level with bounded fan-out, preserving level
// order. Render failures degrade the page, they never abort the crawl.
func (d *Discoverer) renderLevel(ctx context.Context, level []domain.CanonicalPage) []renderedPage {
	records := make([]renderedPage, len(level))

	g := &errgroup.Group{}
	g.SetLimit(d.concurrency)
	for i, page := range level {
		g.Go(func() error {
			address := d.resolver.Resolve(page, d.locales.Source)
			records[i].Page = page

			res, err := d.renderer.Render(ctx, address)
			if err != nil {
				d.logger.Warn("page failed to render, discovered without links",
					zap.String("page", string(page)), zap.Error(err))
				records[i].RenderErr = err.Error()
				return nil
			}
			records[i].Screenshot = res.Screenshot
			records[i].links = res.Links
			return nil
		})
	}
	_ = g.Wait()
	return records
}

// canonicalizeLink maps a raw href to a source-graph canonical page. Links
// outside the origin, with unsupported schemes, or carrying a different
// locale prefix are discarded here.
func (d *Discoverer) canonicalizeLink(href string) (domain.CanonicalPage, bool) {
	page, loc, err := d.resolver.Canonicalize(href)
	if err != nil {
		if !errors.Is(err, domain.ErrMalformedAddress) {
			d.logger.Warn("unexpected canonicalize failure", zap.String("href", href), zap.Error(err))
		}
		return "", false
	}
	if loc != "" && loc != d.locales.Source {
		return "", false
	}
	return page, true
}
