// Package report accumulates per-pair outcomes arriving from concurrent
// workers and renders them as a deterministic, grouped drift report.
package report

import (
	"sync"

	"locdrift/internal/domain"
)

// Meta labels the report for its mode: "Route"/"Pages crawled" for web crawls,
// "Group"/"Run groups" for device-farm analysis.
type Meta struct {
	ContextLabel string
	HeaderLabel  string
	HeaderCount  int
}

// ArtifactEntry is one reported artifact under a (context, locale) block.
// Clean pairs are never materialized as entries, only counted.
type ArtifactEntry struct {
	Artifact   string
	Status     domain.PairStatus
	Findings   []domain.Finding
	FailReason string
}

// LocaleBlock groups a context's entries for one target locale.
type LocaleBlock struct {
	Locale    string
	Artifacts []ArtifactEntry
}

// ContextGroup groups everything reported for one canonical page or run group.
type ContextGroup struct {
	Key     string
	Locales []LocaleBlock
}

// Summary counts every planned pair exactly once.
type Summary struct {
	Planned        int
	Clean          int
	WithFindings   int
	Failed         int
	MissingTargets int
	Pending        int // planned but never completed (cancelled run)
	Issues         int // total finding lines
}

// Aggregator collects concurrently-arriving results. The canonical slot order
// is fixed at construction from the pair plan, so the rendered report ignores
// arrival order entirely. Add is idempotent per slot: feeding the same result
// twice changes nothing.
type Aggregator struct {
	mu      sync.Mutex
	order   []string
	results map[string]domain.PairResult
}

// NewAggregator fixes the canonical slot order for the run.
func NewAggregator(order []string) *Aggregator {
	return &Aggregator{
		order:   order,
		results: make(map[string]domain.PairResult, len(order)),
	}
}

// Add records (or re-records) the outcome for one slot. Safe for concurrent use.
func (a *Aggregator) Add(res domain.PairResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results[res.Key()] = res
}

// Render produces the grouped report. Call only after workers have drained;
// slots still pending are counted, not rendered.
func (a *Aggregator) Render(meta Meta) *Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	rep := &Report{Meta: meta, Summary: Summary{Planned: len(a.order)}}

	var group *ContextGroup
	var block *LocaleBlock
	seen := make(map[string]struct{}, len(a.order))
	for _, key := range a.order {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		res, ok := a.results[key]
		if !ok {
			rep.Summary.Pending++
			continue
		}

		switch res.Status {
		case domain.StatusClean:
			rep.Summary.Clean++
			continue
		case domain.StatusFindings:
			rep.Summary.WithFindings++
			rep.Summary.Issues += len(res.Findings)
		case domain.StatusFailed:
			rep.Summary.Failed++
		case domain.StatusMissingTarget:
			rep.Summary.MissingTargets++
		}

		if group == nil || group.Key != res.ContextKey {
			rep.Groups = append(rep.Groups, ContextGroup{Key: res.ContextKey})
			group = &rep.Groups[len(rep.Groups)-1]
			block = nil
		}
		if block == nil || block.Locale != res.TargetLocale {
			group.Locales = append(group.Locales, LocaleBlock{Locale: res.TargetLocale})
			block = &group.Locales[len(group.Locales)-1]
		}
		block.Artifacts = append(block.Artifacts, ArtifactEntry{
			Artifact:   res.Artifact,
			Status:     res.Status,
			Findings:   res.Findings,
			FailReason: res.FailReason,
		})
	}
	return rep
}
