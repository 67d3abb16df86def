package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/edgar-harvest/internal/fetcher"
)

const cikWidth = 10

// TickerResolver maps CIK numbers to ticker symbols. The cache is bulk-loaded
// once from company_tickers.json and extended lazily from the per-company
// submissions endpoint on misses. Lookups never fail: any error resolves to
// an empty symbol.
type TickerResolver struct {
	f           fetcher.Fetcher
	dataBaseURL string

	mu     sync.RWMutex
	cache  map[string]string
	loaded bool
}

// NewTickerResolver creates a resolver against the given data host
// (normally https://data.sec.gov).
func NewTickerResolver(f fetcher.Fetcher, dataBaseURL string) *TickerResolver {
	return &TickerResolver{
		f:           f,
		dataBaseURL: strings.TrimRight(dataBaseURL, "/"),
		cache:       make(map[string]string),
	}
}

// padCIK zero-pads a CIK to the canonical 10-digit width.
func padCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if len(cik) >= cikWidth {
		return cik
	}
	return strings.Repeat("0", cikWidth-len(cik)) + cik
}

// bulkTickerEntry is one record of company_tickers.json, which is an object
// keyed by arbitrary index: {"0": {"cik_str": 320193, "ticker": "AAPL", ...}, ...}.
type bulkTickerEntry struct {
	CIKStr json.Number `json:"cik_str"`
	Ticker string      `json:"ticker"`
}

// LoadBulk populates the cache from the bulk company_tickers.json resource.
// Failures are non-fatal: the resolver falls back entirely to per-company
// lookups. A second call is a no-op.
func (r *TickerResolver) LoadBulk(ctx context.Context) {
	r.mu.Lock()
	if r.loaded {
		r.mu.Unlock()
		return
	}
	r.loaded = true
	r.mu.Unlock()

	url := r.dataBaseURL + "/files/company_tickers.json"
	body, err := r.f.Get(ctx, url)
	if err != nil {
		zap.L().Warn("could not fetch bulk ticker mapping, continuing without",
			zap.String("url", url),
			zap.Error(err),
		)
		return
	}

	var entries map[string]bulkTickerEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		zap.L().Warn("could not parse bulk ticker mapping", zap.Error(err))
		return
	}

	r.mu.Lock()
	for _, e := range entries {
		cik := e.CIKStr.String()
		sym := normalizeSymbol(e.Ticker)
		if cik == "" || sym == "" {
			continue
		}
		r.cache[padCIK(cik)] = sym
	}
	n := len(r.cache)
	r.mu.Unlock()

	zap.L().Info("bulk ticker mapping loaded", zap.Int("entries", n))
}

// submissionJSON covers both shapes the submissions endpoint has been seen
// returning: a "tickers" list and a scalar "ticker" field.
type submissionJSON struct {
	Tickers []string `json:"tickers"`
	Ticker  string   `json:"ticker"`
}

// Resolve returns the ticker symbol for a CIK, or "" if none can be found.
// Cache hits are answered without any network traffic; misses issue one
// rate-governed fetch of the per-company submissions resource.
func (r *TickerResolver) Resolve(ctx context.Context, cik string) string {
	padded := padCIK(cik)

	r.mu.RLock()
	sym, ok := r.cache[padded]
	r.mu.RUnlock()
	if ok {
		return sym
	}

	url := fmt.Sprintf("%s/submissions/CIK%s.json", r.dataBaseURL, padded)
	body, err := r.f.Get(ctx, url)
	if err != nil {
		zap.L().Debug("ticker lookup failed", zap.String("cik", padded), zap.Error(err))
		return ""
	}

	var sub submissionJSON
	if err := json.Unmarshal(body, &sub); err != nil {
		zap.L().Debug("ticker lookup: malformed submissions JSON", zap.String("cik", padded), zap.Error(err))
		return ""
	}

	raw := sub.Ticker
	if len(sub.Tickers) > 0 && sub.Tickers[0] != "" {
		raw = sub.Tickers[0]
	}
	sym = normalizeSymbol(raw)
	if sym == "" {
		return ""
	}

	// Last writer wins on a racing miss; both writers hold equal values.
	r.mu.Lock()
	r.cache[padded] = sym
	r.mu.Unlock()

	return sym
}

// normalizeSymbol uppercases a candidate symbol and rejects implausible
// lengths.
func normalizeSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 0 || len(s) > 10 {
		return ""
	}
	return s
}
