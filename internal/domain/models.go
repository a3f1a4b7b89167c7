package domain

import "strings"

// CanonicalPage identifies the same screen independent of locale, e.g. "/pricing"
// for a web route or "pixel6-33-portrait" for a device-farm run group.
type CanonicalPage string

// Locales names the source locale and the ordered list of target locales for a run.
// The source is always compared against, never compared to itself.
type Locales struct {
	Source  string
	Targets []string
}

// Known reports whether code is the source locale or one of the targets.
func (l Locales) Known(code string) bool {
	if code == l.Source {
		return true
	}
	for _, t := range l.Targets {
		if t == code {
			return true
		}
	}
	return false
}

// ComparisonPair is a single unit of work: one source artifact checked against
// its counterpart in one target locale.
type ComparisonPair struct {
	ContextKey   string // canonical page or run-group key
	SourceRef    string // address (crawl) or file path (device farm) of the source artifact
	TargetRef    string
	TargetLocale string
	Artifact     string // screenshot filename within the context
}

// Key returns the stable identity of the pair's report slot.
func (p ComparisonPair) Key() string {
	return PairKey(p.ContextKey, p.TargetLocale, p.Artifact)
}

// PairKey builds the (contextKey, locale, artifact) identity used to address
// report slots. The separator cannot occur in URLs or filenames.
func PairKey(contextKey, locale, artifact string) string {
	return strings.Join([]string{contextKey, locale, artifact}, "\x1f")
}

// Finding is one localization issue reported by the vision oracle. The payload
// is opaque to the pipeline; only its presence matters for control flow.
type Finding struct {
	Location    string
	Issue       string
	Remediation string
}

// PairStatus is the outcome of processing one ComparisonPair.
type PairStatus string

const (
	StatusClean         PairStatus = "clean"
	StatusFindings      PairStatus = "findings"
	StatusFailed        PairStatus = "analysis_failed"
	StatusMissingTarget PairStatus = "missing_target"
)

// PairResult is what a worker (or the grouper, for missing artifacts) hands to
// the aggregator.
type PairResult struct {
	ContextKey   string
	TargetLocale string
	Artifact     string
	Status       PairStatus
	Findings     []Finding
	FailReason   string
}

// Key returns the report-slot identity of the result.
func (r PairResult) Key() string {
	return PairKey(r.ContextKey, r.TargetLocale, r.Artifact)
}
