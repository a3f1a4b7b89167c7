package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"locdrift/internal/discover"
	"locdrift/internal/domain"
	"locdrift/internal/locale"
	"locdrift/internal/monitoring"
	"locdrift/internal/pair"
	"locdrift/internal/report"
)

// pairOracle scripts verdicts per (artifact, locale).
type pairOracle struct {
	mu       sync.Mutex
	verdicts map[string][]domain.Finding
	errs     map[string]error
	calls    int
}

func verdictKey(artifact, locale string) string { return artifact + "|" + locale }

// byteLoader serves canned bytes and encodes pair identity into the target
// bytes so the oracle can look up its script.
type byteLoader struct {
	failFor map[string]error // by pair key
}

func (l *byteLoader) Load(_ context.Context, p domain.ComparisonPair) ([]byte, []byte, error) {
	if err, ok := l.failFor[p.Key()]; ok {
		return nil, nil, err
	}
	return []byte("src|" + p.Artifact), []byte(verdictKey(p.Artifact, p.TargetLocale)), nil
}

func (o *pairOracle) Compare(_ context.Context, _, target []byte) ([]domain.Finding, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	key := string(target)
	if err, ok := o.errs[key]; ok {
		return nil, err
	}
	return o.verdicts[key], nil
}

func newMetrics() *monitoring.Metrics {
	return monitoring.NewMetrics(prometheus.NewRegistry())
}

func crawlPlan(t *testing.T, targets []string, pages ...domain.CanonicalPage) *pair.Plan {
	t.Helper()
	locs := domain.Locales{Source: "en", Targets: targets}
	resolver, err := locale.NewURLResolver("https://example.com", locs)
	require.NoError(t, err)

	res := &discover.Result{}
	for _, p := range pages {
		res.Pages = append(res.Pages, discover.PageRecord{Page: p, Screenshot: []byte{0x1}})
	}
	return pair.FromCrawl(res, resolver, locs)
}

// Source en, targets fr and es; every fr pair is clean and es has one finding
// on screen_003. The report shows exactly that one entry.
func TestRunEndToEndScenario(t *testing.T) {
	plan := crawlPlan(t, []string{"fr", "es"}, "/screen_001", "/screen_002", "/screen_003")
	oracle := &pairOracle{verdicts: map[string][]domain.Finding{
		verdictKey("screen_003.png", "es"): {
			{Location: "Header", Issue: "text truncated", Remediation: "widen container"},
		},
	}}

	agg := report.NewAggregator(plan.Order)
	r := New(&byteLoader{}, oracle, newMetrics(), 4, zap.NewNop())
	r.Run(context.Background(), plan, agg)

	rep := agg.Render(report.Meta{ContextLabel: "Route", HeaderLabel: "Pages crawled", HeaderCount: 3})
	assert.Equal(t, 1, rep.Summary.Issues)
	assert.Equal(t, 5, rep.Summary.Clean)
	assert.Equal(t, 0, rep.Summary.Pending)

	require.Len(t, rep.Groups, 1)
	assert.Equal(t, "/screen_003", rep.Groups[0].Key)
	require.Len(t, rep.Groups[0].Locales, 1)
	assert.Equal(t, "es", rep.Groups[0].Locales[0].Locale)

	var sb strings.Builder
	require.NoError(t, report.Write(&sb, rep))
	out := sb.String()
	assert.Contains(t, out, "Issues found: 1")
	assert.NotContains(t, out, "[fr]")
}

// One pair's oracle call fails; the rest of the run is unaffected.
func TestRunIsolatesFailingPair(t *testing.T) {
	plan := crawlPlan(t, []string{"fr"}, "/", "/about", "/pricing")
	oracle := &pairOracle{errs: map[string]error{
		verdictKey("about.png", "fr"): domain.ErrOracleUnavailable,
	}}

	agg := report.NewAggregator(plan.Order)
	r := New(&byteLoader{}, oracle, newMetrics(), 2, zap.NewNop())
	r.Run(context.Background(), plan, agg)

	rep := agg.Render(report.Meta{ContextLabel: "Route", HeaderLabel: "Pages crawled", HeaderCount: 3})
	assert.Equal(t, 2, rep.Summary.Clean)
	assert.Equal(t, 1, rep.Summary.Failed)
	assert.Equal(t, 0, rep.Summary.Pending)

	require.Len(t, rep.Groups, 1)
	entry := rep.Groups[0].Locales[0].Artifacts[0]
	assert.Equal(t, domain.StatusFailed, entry.Status)
	assert.Contains(t, entry.FailReason, "oracle unavailable")
}

func TestRunRecordsLoaderFailureAsAnalysisFailed(t *testing.T) {
	plan := crawlPlan(t, []string{"fr"}, "/", "/broken")
	loader := &byteLoader{failFor: map[string]error{
		domain.PairKey("/broken", "fr", "broken.png"): errors.New("source page /broken was discovered but failed to render"),
	}}

	agg := report.NewAggregator(plan.Order)
	r := New(loader, &pairOracle{}, newMetrics(), 2, zap.NewNop())
	r.Run(context.Background(), plan, agg)

	rep := agg.Render(report.Meta{ContextLabel: "Route", HeaderLabel: "Pages crawled", HeaderCount: 2})
	assert.Equal(t, 1, rep.Summary.Failed)
	assert.Equal(t, 1, rep.Summary.Clean)
}

func TestRunSeedsDecidedSlots(t *testing.T) {
	missing := domain.PairResult{
		ContextKey: "m1-29-portrait", TargetLocale: "fr", Artifact: "b.png",
		Status: domain.StatusMissingTarget, FailReason: "screenshot missing from target locale run",
	}
	plan := &pair.Plan{
		Decided: []domain.PairResult{missing},
		Order:   []string{missing.Key()},
	}

	agg := report.NewAggregator(plan.Order)
	r := New(&byteLoader{}, &pairOracle{}, newMetrics(), 2, zap.NewNop())
	r.Run(context.Background(), plan, agg)

	rep := agg.Render(report.Meta{ContextLabel: "Group", HeaderLabel: "Run groups", HeaderCount: 1})
	assert.Equal(t, 1, rep.Summary.MissingTargets)
}

type fakeCache struct {
	mu     sync.Mutex
	marked map[string]struct{}
}

func (c *fakeCache) IsClean(_ context.Context, digest string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.marked[digest]
	return ok, nil
}

func (c *fakeCache) MarkClean(_ context.Context, digest string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.marked[digest] = struct{}{}
	return nil
}

func TestRunCleanCacheSkipsOracle(t *testing.T) {
	plan := crawlPlan(t, []string{"fr"}, "/")
	oracle := &pairOracle{}
	cache := &fakeCache{marked: make(map[string]struct{})}

	run := func() {
		agg := report.NewAggregator(plan.Order)
		r := New(&byteLoader{}, oracle, newMetrics(), 1, zap.NewNop()).
			WithCleanCache(cache, time.Hour)
		r.Run(context.Background(), plan, agg)
		rep := agg.Render(report.Meta{ContextLabel: "Route", HeaderLabel: "Pages crawled", HeaderCount: 1})
		assert.Equal(t, 1, rep.Summary.Clean)
	}

	run()
	assert.Equal(t, 1, oracle.calls)
	run() // identical bytes: verdict comes from the cache
	assert.Equal(t, 1, oracle.calls)
}

func TestRunCancelledLeavesPendingSlots(t *testing.T) {
	plan := crawlPlan(t, []string{"fr"}, "/", "/a", "/b", "/c")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := report.NewAggregator(plan.Order)
	r := New(&byteLoader{}, &pairOracle{}, newMetrics(), 1, zap.NewNop())
	r.Run(ctx, plan, agg)

	rep := agg.Render(report.Meta{ContextLabel: "Route", HeaderLabel: "Pages crawled", HeaderCount: 4})
	assert.Equal(t, 4, rep.Summary.Pending)
}
