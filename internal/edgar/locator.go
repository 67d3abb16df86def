package edgar

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/edgar-harvest/internal/fetcher"
	"github.com/sells-group/edgar-harvest/internal/model"
)

// documentExtensions are the extensions an exhibit document may carry.
var documentExtensions = []string{".htm", ".html", ".pdf", ".txt"}

// ExhibitLocator finds the Exhibit 99.1 document for a filing by fetching
// its index page and running the match strategy battery over it.
type ExhibitLocator struct {
	f          fetcher.Fetcher
	baseURL    string
	strategies []MatchStrategy
}

// NewExhibitLocator creates a locator for Exhibit 99.1 against the given
// EDGAR host.
func NewExhibitLocator(f fetcher.Fetcher, baseURL string) *ExhibitLocator {
	return &ExhibitLocator{
		f:          f,
		baseURL:    strings.TrimRight(baseURL, "/"),
		strategies: DefaultStrategies("99.1"),
	}
}

// Locate fetches the filing's index page (trying several candidate
// locations) and returns the first valid exhibit reference the strategy
// battery produces. A hit from an earlier strategy always wins over any hit
// from a later one; within a strategy, first candidate in document order
// wins. Returns ok=false when nothing was found — that is a normal outcome,
// not an error.
func (l *ExhibitLocator) Locate(ctx context.Context, cik, accession, fallbackURL string) (*model.ExhibitRef, bool) {
	digits := StripAccession(accession)
	dashed := DashAccession(accession)
	dir := fmt.Sprintf("%s/Archives/edgar/data/%s/%s", l.baseURL, cik, digits)

	candidates := []string{
		fmt.Sprintf("%s/%s-index.htm", dir, dashed),
		fmt.Sprintf("%s/%s-index.html", dir, dashed),
		fmt.Sprintf("%s/cgi-bin/viewer?action=view&cik=%s&accession_number=%s", l.baseURL, cik, dashed),
	}
	if fallbackURL != "" {
		candidates = append(candidates, fallbackURL)
	}

	var (
		raw     string
		fetched bool
	)
	for _, u := range candidates {
		body, err := l.f.Get(ctx, u)
		if err != nil {
			zap.L().Debug("index page candidate failed",
				zap.String("url", u),
				zap.Error(err),
			)
			continue
		}
		if len(body) == 0 {
			// A 200 with an empty body is as useless as a miss; keep
			// trying the remaining candidates.
			zap.L().Debug("index page candidate empty", zap.String("url", u))
			continue
		}
		raw = fetcher.DecodeHTML(body)
		fetched = true
		break
	}
	if !fetched {
		return nil, false
	}

	page := &IndexPage{Raw: raw}
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
		page.Doc = doc
	}

	for _, s := range l.strategies {
		for _, href := range s.Candidates(page) {
			abs := l.absolutize(href, dir)
			if !ValidDocumentURL(abs) {
				continue
			}
			zap.L().Debug("exhibit located",
				zap.String("cik", cik),
				zap.String("accession", digits),
				zap.String("strategy", s.Name()),
				zap.String("url", abs),
			)
			return &model.ExhibitRef{URL: abs, Strategy: s.Name()}, true
		}
	}
	return nil, false
}

// absolutize turns an href into a fetchable absolute URL: absolute hrefs are
// left untouched, root-relative ones are joined with the EDGAR origin, and
// everything else is resolved against the filing's own directory.
func (l *ExhibitLocator) absolutize(href, filingDir string) string {
	switch {
	case strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://"):
		return href
	case strings.HasPrefix(href, "/"):
		return l.baseURL + href
	default:
		return filingDir + "/" + href
	}
}

// ValidDocumentURL reports whether a URL plausibly points at an exhibit
// document: it must carry a known document extension and must not be an
// index/manifest page or structured-data (XML) file.
func ValidDocumentURL(raw string) bool {
	low := strings.ToLower(raw)
	if i := strings.IndexAny(low, "?#"); i >= 0 {
		low = low[:i]
	}

	name := low
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if strings.HasSuffix(name, ".xml") || strings.HasSuffix(name, ".xsd") {
		return false
	}
	if strings.Contains(name, "-index.htm") || name == "index.htm" || name == "index.html" || name == "index.json" {
		return false
	}

	for _, ext := range documentExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
