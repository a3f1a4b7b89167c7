package report

import (
	"fmt"
	"io"

	"locdrift/internal/domain"
)

// Report is the final, ordered drift report for one run.
type Report struct {
	Meta    Meta
	Summary Summary
	Groups  []ContextGroup
}

// Write renders the report as text: a summary header, then
// context -> target locale -> artifact -> finding lines.
func Write(w io.Writer, rep *Report) error {
	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	p("%s: %d\n", rep.Meta.HeaderLabel, rep.Meta.HeaderCount)
	p("Pairs compared: %d (clean: %d)\n", rep.Summary.Planned-rep.Summary.Pending, rep.Summary.Clean)
	p("Issues found: %d\n", rep.Summary.Issues)
	if rep.Summary.Failed > 0 {
		p("Analysis failures: %d\n", rep.Summary.Failed)
	}
	if rep.Summary.MissingTargets > 0 {
		p("Missing target screenshots: %d\n", rep.Summary.MissingTargets)
	}
	if rep.Summary.Pending > 0 {
		p("Not completed: %d\n", rep.Summary.Pending)
	}

	if len(rep.Groups) == 0 {
		p("\nNo localization issues detected.\n")
		return err
	}

	for _, g := range rep.Groups {
		p("\n%s: %s\n", rep.Meta.ContextLabel, g.Key)
		for _, block := range g.Locales {
			for _, a := range block.Artifacts {
				p("  [%s] %s\n", block.Locale, a.Artifact)
				switch a.Status {
				case domain.StatusFailed:
					p("    ! analysis failed: %s\n", a.FailReason)
				case domain.StatusMissingTarget:
					p("    ! %s\n", a.FailReason)
				default:
					for _, f := range a.Findings {
						if f.Location != "" && f.Remediation != "" {
							p("    - %s: %s → %s\n", f.Location, f.Issue, f.Remediation)
						} else if f.Location != "" {
							p("    - %s: %s\n", f.Location, f.Issue)
						} else {
							p("    - %s\n", f.Issue)
						}
					}
				}
			}
		}
	}
	return err
}
