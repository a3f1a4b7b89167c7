// Package render captures pages with headless Chrome. It is the external
// renderer collaborator: given an address it returns a full-page screenshot
// and the page's outgoing links.
package render

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"locdrift/internal/domain"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Chromedp implements domain.Renderer with a pool of browser allocator
// contexts, one browser tab per Render call.
type Chromedp struct {
	allocatorPool *sync.Pool
	timeout       time.Duration
	logger        *zap.Logger
}

// NewChromedp builds the renderer. timeout bounds a single page load.
func NewChromedp(timeout time.Duration, logger *zap.Logger) *Chromedp {
	ua := userAgents[rand.Intn(len(userAgents))]
	pool := &sync.Pool{
		New: func() interface{} {
			opts := append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", true),
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
				chromedp.Flag("disable-dev-shm-usage", true),
				chromedp.Flag("hide-scrollbars", true),
				chromedp.UserAgent(ua),
			)
			allocCtx, _ := chromedp.NewExecAllocator(context.Background(), opts...)
			return allocCtx
		},
	}
	return &Chromedp{allocatorPool: pool, timeout: timeout, logger: logger}
}

// Render navigates to address, waits for the body, and captures a full-page
// screenshot plus the anchor hrefs present in the final DOM.
func (c *Chromedp) Render(ctx context.Context, address string) (*domain.RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	allocCtx := c.allocatorPool.Get().(context.Context)
	defer c.allocatorPool.Put(allocCtx)

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, c.timeout)
	defer cancelTimeout()
	// Propagate run-level cancellation into the browser context.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var htmlContent string
	var screenshot []byte
	start := time.Now()
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(address),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &htmlContent),
		chromedp.FullScreenshot(&screenshot, 90),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.ErrRenderTimeout
		}
		return nil, errors.Join(domain.ErrRenderFailed, err)
	}

	links, err := ExtractLinks(htmlContent)
	if err != nil {
		c.logger.Warn("could not parse rendered HTML for links",
			zap.String("address", address), zap.Error(err))
		links = nil
	}

	c.logger.Debug("rendered page",
		zap.String("address", address),
		zap.Int("links", len(links)),
		zap.Duration("took", time.Since(start)))
	return &domain.RenderResult{Screenshot: screenshot, Links: links}, nil
}
