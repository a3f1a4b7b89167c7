// Package pair projects discovery output into the ordered comparison plan a
// run executes. The plan order — context, then target locale in input order,
// then filename — is the order the final report preserves, regardless of when
// individual comparisons complete.
package pair

import (
	"path/filepath"

	"locdrift/internal/devicefarm"
	"locdrift/internal/discover"
	"locdrift/internal/domain"
	"locdrift/internal/locale"
)

// Plan is the materialized pair sequence plus the report slots that are
// already decided before any comparison runs (missing target artifacts).
// Order lists every slot key in canonical report order.
type Plan struct {
	Pairs   []domain.ComparisonPair
	Decided []domain.PairResult
	Order   []string
}

// FromCrawl emits one pair per discovered page per target locale. Source and
// target addresses are derived through the resolver; the artifact name is the
// page's screenshot file stem.
func FromCrawl(res *discover.Result, resolver *locale.URLResolver, locales domain.Locales) *Plan {
	plan := &Plan{}
	for _, rec := range res.Pages {
		artifact := locale.SafeFilename(rec.Page) + ".png"
		for _, target := range locales.Targets {
			p := domain.ComparisonPair{
				ContextKey:   string(rec.Page),
				SourceRef:    resolver.Resolve(rec.Page, locales.Source),
				TargetRef:    resolver.Resolve(rec.Page, target),
				TargetLocale: target,
				Artifact:     artifact,
			}
			plan.Pairs = append(plan.Pairs, p)
			plan.Order = append(plan.Order, p.Key())
		}
	}
	return plan
}

// FromRunGroups emits one pair per matched filename per target locale present
// in each group. Files missing from a target directory become pre-decided
// missing_target slots in their canonical position instead of pairs.
func FromRunGroups(root string, manifests []devicefarm.Manifest, locales domain.Locales) *Plan {
	plan := &Plan{}
	for _, m := range manifests {
		missing := make(map[string]struct{}, len(m.Missing))
		for _, ma := range m.Missing {
			missing[ma.Locale+"\x1f"+ma.Filename] = struct{}{}
		}

		for _, target := range locales.Targets {
			targetDir, ok := m.Group.Dirs[target]
			if !ok {
				continue
			}
			for _, file := range m.Files {
				if _, gone := missing[target+"\x1f"+file]; gone {
					r := domain.PairResult{
						ContextKey:   m.Group.Key,
						TargetLocale: target,
						Artifact:     file,
						Status:       domain.StatusMissingTarget,
						FailReason:   "screenshot missing from target locale run",
					}
					plan.Decided = append(plan.Decided, r)
					plan.Order = append(plan.Order, r.Key())
					continue
				}
				p := domain.ComparisonPair{
					ContextKey:   m.Group.Key,
					SourceRef:    filepath.Join(root, m.Group.Dirs[locales.Source], file),
					TargetRef:    filepath.Join(root, targetDir, file),
					TargetLocale: target,
					Artifact:     file,
				}
				plan.Pairs = append(plan.Pairs, p)
				plan.Order = append(plan.Order, p.Key())
			}
		}
	}
	return plan
}
