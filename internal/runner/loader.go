package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"locdrift/internal/domain"
)

// CrawlLoader serves pairs for web-crawl runs. Source screenshots were already
// captured during discovery; targets are rendered on demand. When an output
// directory is set, every screenshot is also persisted as
// <locale>_<artifact>.png.
type CrawlLoader struct {
	renderer domain.Renderer
	sources  map[domain.CanonicalPage][]byte
	locales  domain.Locales
	outDir   string
	logger   *zap.Logger

	mu    sync.Mutex
	saved map[string]struct{}
}

func NewCrawlLoader(renderer domain.Renderer, sources map[domain.CanonicalPage][]byte, locales domain.Locales, outDir string, logger *zap.Logger) *CrawlLoader {
	return &CrawlLoader{
		renderer: renderer,
		sources:  sources,
		locales:  locales,
		outDir:   outDir,
		logger:   logger,
		saved:    make(map[string]struct{}),
	}
}

func (l *CrawlLoader) Load(ctx context.Context, p domain.ComparisonPair) ([]byte, []byte, error) {
	source, ok := l.sources[domain.CanonicalPage(p.ContextKey)]
	if !ok {
		return nil, nil, fmt.Errorf("source page %s was discovered but failed to render", p.ContextKey)
	}

	res, err := l.renderer.Render(ctx, p.TargetRef)
	if err != nil {
		return nil, nil, fmt.Errorf("rendering %s: %w", p.TargetRef, err)
	}

	l.persist(l.locales.Source, p.Artifact, source)
	l.persist(p.TargetLocale, p.Artifact, res.Screenshot)
	return source, res.Screenshot, nil
}

// persist writes a screenshot once per (locale, artifact); failures only warn.
func (l *CrawlLoader) persist(locale, artifact string, data []byte) {
	if l.outDir == "" {
		return
	}
	name := locale + "_" + artifact
	l.mu.Lock()
	if _, done := l.saved[name]; done {
		l.mu.Unlock()
		return
	}
	l.saved[name] = struct{}{}
	l.mu.Unlock()

	if err := os.WriteFile(filepath.Join(l.outDir, name), data, 0o644); err != nil {
		l.logger.Warn("could not persist screenshot", zap.String("file", name), zap.Error(err))
	}
}

// FileLoader serves pairs for device-farm runs: both refs are paths to
// screenshots already on disk.
type FileLoader struct{}

func (FileLoader) Load(_ context.Context, p domain.ComparisonPair) ([]byte, []byte, error) {
	source, err := os.ReadFile(p.SourceRef)
	if err != nil {
		return nil, nil, fmt.Errorf("reading source screenshot: %w", err)
	}
	target, err := os.ReadFile(p.TargetRef)
	if err != nil {
		return nil, nil, fmt.Errorf("reading target screenshot: %w", err)
	}
	return source, target, nil
}
