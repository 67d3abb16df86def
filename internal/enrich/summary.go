package enrich

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/edgar-harvest/internal/fetcher"
	"github.com/sells-group/edgar-harvest/pkg/anthropic"
)

// PlaceholderFailed marks rows where summarization was attempted and did
// not complete.
const PlaceholderFailed = "Analysis failed"

const summaryInstruction = "Summarize the key business development announced in this " +
	"press release in two or three sentences. Focus on the concrete event " +
	"(earnings, merger, contract, leadership change, product) and any stated " +
	"financial figures. Respond with the summary only."

const (
	defaultMaxInputChars   = 12000
	defaultMaxSummaryChars = 500
)

// Summarizer produces a short LLM summary of an exhibit document.
type Summarizer struct {
	f      fetcher.Fetcher
	llm    anthropic.Client
	model  string
	maxIn  int
	maxOut int
}

// NewSummarizer creates a Summarizer. The fetcher should be the same
// rate-governed one used for all other EDGAR traffic. Zero limits fall back
// to defaults.
func NewSummarizer(f fetcher.Fetcher, llm anthropic.Client, model string, maxInputChars, maxSummaryChars int) *Summarizer {
	if maxInputChars <= 0 {
		maxInputChars = defaultMaxInputChars
	}
	if maxSummaryChars <= 0 {
		maxSummaryChars = defaultMaxSummaryChars
	}
	return &Summarizer{f: f, llm: llm, model: model, maxIn: maxInputChars, maxOut: maxSummaryChars}
}

// Summarize fetches the exhibit at url and returns a short summary of its
// visible text. Any failure along the way returns PlaceholderFailed; the
// caller treats the summary as decorative.
func (s *Summarizer) Summarize(ctx context.Context, url string) string {
	body, err := s.f.Get(ctx, url)
	if err != nil {
		zap.L().Debug("exhibit fetch for summary failed", zap.String("url", url), zap.Error(err))
		return PlaceholderFailed
	}

	text := visibleText(fetcher.DecodeHTML(body))
	if text == "" {
		return PlaceholderFailed
	}
	text = truncate(text, s.maxIn)

	resp, err := s.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     s.model,
		MaxTokens: 1024,
		System:    summaryInstruction,
		Messages: []anthropic.Message{
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		zap.L().Warn("summary generation failed", zap.String("url", url), zap.Error(err))
		return PlaceholderFailed
	}

	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return PlaceholderFailed
	}
	return truncate(out, s.maxOut)
}

// truncate cuts s to at most max bytes without splitting a UTF-8 rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// visibleText extracts the rendered text of an HTML document and collapses
// runs of whitespace. Non-HTML input passes through goquery unchanged, which
// is what we want for plain-text exhibits.
func visibleText(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return strings.Join(strings.Fields(markup), " ")
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
