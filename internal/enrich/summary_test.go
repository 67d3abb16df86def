package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/edgar-harvest/internal/fetcher"
	"github.com/sells-group/edgar-harvest/pkg/anthropic"
)

type stubLLM struct {
	resp    *anthropic.MessageResponse
	err     error
	lastReq anthropic.MessageRequest
}

func (s *stubLLM) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	s.lastReq = req
	return s.resp, s.err
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

func serveExhibit(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher() fetcher.Fetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{UserAgent: "test-agent", MaxRetries: 1})
}

func TestSummarize_StripsMarkupBeforeSending(t *testing.T) {
	srv := serveExhibit(t, `<html><head><style>body{color:red}</style></head>
	<body><h1>Acme   Corp</h1><p>Reports record   revenue.</p>
	<script>track()</script></body></html>`)

	llm := &stubLLM{resp: textResponse("Acme reported record revenue.")}
	s := NewSummarizer(newTestFetcher(), llm, "claude-haiku-4-5-20251001", 0, 0)

	got := s.Summarize(context.Background(), srv.URL+"/ex99-1.htm")
	assert.Equal(t, "Acme reported record revenue.", got)

	require.Len(t, llm.lastReq.Messages, 1)
	sent := llm.lastReq.Messages[0].Content
	assert.Equal(t, "Acme Corp Reports record revenue.", sent)
	assert.NotContains(t, sent, "track()")
	assert.NotContains(t, sent, "color:red")
	assert.Equal(t, summaryInstruction, llm.lastReq.System)
	assert.Equal(t, "claude-haiku-4-5-20251001", llm.lastReq.Model)
}

func TestSummarize_TruncatesLongInput(t *testing.T) {
	srv := serveExhibit(t, "<html><body>"+strings.Repeat("word ", 5000)+"</body></html>")

	llm := &stubLLM{resp: textResponse("ok")}
	s := NewSummarizer(newTestFetcher(), llm, "m", 100, 0)

	s.Summarize(context.Background(), srv.URL+"/ex99-1.htm")
	assert.Len(t, llm.lastReq.Messages[0].Content, 100)
}

func TestSummarize_TruncatesLongOutput(t *testing.T) {
	srv := serveExhibit(t, "<html><body>content</body></html>")

	llm := &stubLLM{resp: textResponse(strings.Repeat("x", 2000))}
	s := NewSummarizer(newTestFetcher(), llm, "m", 0, 50)

	got := s.Summarize(context.Background(), srv.URL+"/ex99-1.htm")
	assert.Len(t, got, 50)
}

func TestTruncate_RuneBoundary(t *testing.T) {
	// "é" is two bytes; cutting mid-rune must back off to the boundary.
	s := "café"
	got := truncate(s, 4)
	assert.Equal(t, "caf", got)
	assert.True(t, utf8.ValidString(got))

	assert.Equal(t, s, truncate(s, 5))
	assert.Equal(t, "", truncate("é", 1))
	assert.Equal(t, "abc", truncate("abcdef", 3))
}

func TestSummarize_FetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewSummarizer(newTestFetcher(), &stubLLM{resp: textResponse("unused")}, "m", 0, 0)
	assert.Equal(t, PlaceholderFailed, s.Summarize(context.Background(), srv.URL+"/gone.htm"))
}

func TestSummarize_LLMFailure(t *testing.T) {
	srv := serveExhibit(t, "<html><body>content</body></html>")

	s := NewSummarizer(newTestFetcher(), &stubLLM{err: eris.New("anthropic: create message")}, "m", 0, 0)
	assert.Equal(t, PlaceholderFailed, s.Summarize(context.Background(), srv.URL+"/ex.htm"))
}

func TestSummarize_EmptyDocument(t *testing.T) {
	srv := serveExhibit(t, "<html><body>   </body></html>")

	llm := &stubLLM{resp: textResponse("unused")}
	s := NewSummarizer(newTestFetcher(), llm, "m", 0, 0)
	assert.Equal(t, PlaceholderFailed, s.Summarize(context.Background(), srv.URL+"/ex.htm"))
	assert.Empty(t, llm.lastReq.Messages)
}

func TestVisibleText_PlainText(t *testing.T) {
	got := visibleText("Acme Corp\nannounces    results today.")
	assert.Equal(t, "Acme Corp announces results today.", got)
}
