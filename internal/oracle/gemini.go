// Package oracle talks to the Gemini vision model that judges localization
// drift between two screenshots. The model's plain-text verdict is validated
// at this boundary and converted into typed findings; everything past this
// package only sees Finding values or a typed error.
package oracle

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"locdrift/internal/domain"
)

// DefaultModel matches the vision-capable model the tool was built against.
const DefaultModel = "gemini-3-flash-preview"

// DefaultPrompt is the localization-QA instruction sent with every pair. The
// crawl-context caveats keep the model from flagging normal mid-interaction
// states (open keyboards, focused fields, spinners) as drift.
const DefaultPrompt = `You are a localization QA expert comparing two screenshots of the same screen:

1. **Source screenshot** (first image) — the original language version
2. **Target screenshot** (second image) — the translated/localized version

**IMPORTANT CONTEXT — These screenshots come from automated UI crawling:**
The screenshots may be captured mid-interaction. The following are NORMAL and must NOT be flagged:
- Keyboard being open/visible (the bot is typing in fields)
- Form fields being focused or highlighted
- Dropdown menus or pickers being open
- Screens captured mid-scroll or mid-transition
- Loading states, spinners, or partial content loading
- Modal dialogs or bottom sheets being open
- Content scrolled to show lower portions of a screen
- Keyboard pushing content up (expected behavior)

**What to flag — REAL localization issues (compare target against source):**
1. **Text truncation**: Translated text cut off without ellipsis where the source text fits fine
2. **Text overflow**: Translated strings spilling outside their container or overlapping adjacent elements
3. **Broken layout**: Elements misaligned, wrong size, or visually broken in target but fine in source
4. **Untranslated strings**: Text still in the source language that should have been translated
5. **Clipped elements**: Icons, buttons, or images clipped due to text expansion from translation
6. **Inconsistent spacing/alignment**: Padding or alignment noticeably different from source, suggesting hardcoded dimensions
7. **RTL layout issues**: Mirroring problems if the target language is RTL (if applicable)
8. **Missing content**: Content visible in source but absent in target (not loading states)

**Only report high-confidence issues.** If something looks like it *might* be an issue but could also be a normal interaction state, do not report it.

For each issue, output a concise, actionable fix instruction that a coding agent can use. Format as plain text, one issue per line:

- [Element/area]: [Issue description] → [Suggested fix]

If no issues are found, respond with: "No localization issues detected."`

// GeminiClient implements domain.Oracle against the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
	prompt string
	logger *zap.Logger
}

// NewGeminiClient builds the oracle client. A missing API key is a
// configuration error: the run must abort before any work starts.
func NewGeminiClient(ctx context.Context, apiKey, model, prompt string, logger *zap.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", domain.ErrConfiguration)
	}
	if model == "" {
		model = DefaultModel
	}
	if prompt == "" {
		prompt = DefaultPrompt
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("%w: creating gemini client: %v", domain.ErrConfiguration, err)
	}
	return &GeminiClient{client: client, model: model, prompt: prompt, logger: logger}, nil
}

// Compare sends both screenshots plus the QA prompt and parses the verdict.
func (c *GeminiClient) Compare(ctx context.Context, source, target []byte) ([]domain.Finding, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(source, "image/png"),
		genai.NewPartFromBytes(target, "image/png"),
		genai.NewPartFromText(c.prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOracleUnavailable, err)
	}

	text := resp.Text()
	c.logger.Debug("oracle verdict", zap.Int("chars", len(text)))
	return ParseFindings(text)
}
