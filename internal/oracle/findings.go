package oracle

import (
	"fmt"
	"strings"

	"locdrift/internal/domain"
)

// cleanSentinel is the exact phrase the prompt instructs the model to answer
// with when the pair has no issues.
const cleanSentinel = "No localization issues detected"

// ParseFindings validates the oracle's plain-text answer and converts it into
// typed findings. An empty slice means the pair is clean. Issue lines always
// win over the sentinel: a verdict that lists issues and then mentions the
// sentinel phrase in passing still reports its findings. Responses with
// neither fail with ErrOracleMalformedResponse so untyped model output never
// propagates inward.
func ParseFindings(text string) ([]domain.Finding, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty response", domain.ErrOracleMalformedResponse)
	}

	var findings []domain.Finding
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		findings = append(findings, parseFindingLine(strings.TrimPrefix(line, "- ")))
	}
	if len(findings) > 0 {
		return findings, nil
	}
	if strings.Contains(trimmed, cleanSentinel) {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: no issue lines in %q", domain.ErrOracleMalformedResponse, truncate(trimmed, 120))
}

// parseFindingLine splits "<location>: <issue> → <remediation>". Lines missing
// a separator degrade to issue-only findings rather than failing the pair.
func parseFindingLine(body string) domain.Finding {
	var f domain.Finding

	if idx := strings.Index(body, ":"); idx >= 0 {
		f.Location = cleanToken(body[:idx])
		body = strings.TrimSpace(body[idx+1:])
	}

	for _, arrow := range []string{"→", "->"} {
		if idx := strings.Index(body, arrow); idx >= 0 {
			f.Remediation = strings.TrimSpace(body[idx+len(arrow):])
			body = strings.TrimSpace(body[:idx])
			break
		}
	}
	f.Issue = body
	return f
}

// cleanToken strips the markdown the model tends to wrap locations in:
// "[Header]" or "**Header**" -> "Header".
func cleanToken(s string) string {
	return strings.Trim(strings.TrimSpace(s), "[]*")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
