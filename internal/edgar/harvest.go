package edgar

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/edgar-harvest/internal/fetcher"
	"github.com/sells-group/edgar-harvest/internal/model"
)

const (
	// dailyIndexHeaderLines is the fixed preamble of a master.idx file
	// (description block plus the column header and separator).
	dailyIndexHeaderLines = 10

	// feedRecordCap bounds the getcurrent Atom feed fallback.
	feedRecordCap = 100

	defaultDayConcurrency = 3
)

var (
	feedTitleRe     = regexp.MustCompile(`8-K[^-]*-\s*(.+?)\s*\(`)
	feedCIKRe       = regexp.MustCompile(`cik=(\d+)`)
	feedAccessionRe = regexp.MustCompile(`accession_number=([0-9\-]+)`)
)

// Harvester enumerates recent 8-K filings. The primary source is the daily
// master index; when an entire sweep yields nothing it falls back to the
// much shallower getcurrent Atom feed.
type Harvester struct {
	f              fetcher.Fetcher
	baseURL        string
	dayConcurrency int
	now            func() time.Time
}

// NewHarvester creates a Harvester against the given EDGAR host
// (normally https://www.sec.gov).
func NewHarvester(f fetcher.Fetcher, baseURL string, dayConcurrency int) *Harvester {
	if dayConcurrency <= 0 {
		dayConcurrency = defaultDayConcurrency
	}
	return &Harvester{
		f:              f,
		baseURL:        strings.TrimRight(baseURL, "/"),
		dayConcurrency: dayConcurrency,
		now:            time.Now,
	}
}

// Harvest returns all 8-K and 8-K/A filings from the business days in
// [today-windowDays, today]. Days whose index is absent (weekends already
// excluded, holidays 404) are skipped silently. Order of the returned slice
// is unspecified.
func (h *Harvester) Harvest(ctx context.Context, windowDays int) ([]model.Filing, error) {
	log := zap.L().With(zap.Int("window_days", windowDays))

	var (
		mu      sync.Mutex
		filings []model.Filing
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.dayConcurrency)

	today := h.now()
	for offset := 0; offset <= windowDays; offset++ {
		day := today.AddDate(0, 0, -offset)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		g.Go(func() error {
			rows, err := h.fetchDay(gctx, day)
			if err != nil {
				// Expected for holidays and not-yet-published days.
				zap.L().Debug("daily index unavailable",
					zap.String("date", day.Format("2006-01-02")),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			filings = append(filings, rows...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(filings) == 0 {
		log.Warn("daily index sweep found nothing, falling back to the recent-filings feed",
			zap.Int("feed_cap", feedRecordCap),
		)
		return h.harvestFeed(ctx)
	}

	log.Info("daily index sweep complete", zap.Int("filings", len(filings)))
	return filings, nil
}

// fetchDay retrieves and parses one day's master index.
func (h *Harvester) fetchDay(ctx context.Context, day time.Time) ([]model.Filing, error) {
	quarter := (int(day.Month())-1)/3 + 1
	url := fmt.Sprintf("%s/Archives/edgar/daily-index/%d/QTR%d/master.%s.idx",
		h.baseURL, day.Year(), quarter, day.Format("20060102"))

	body, err := h.f.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(body), "\n")
	if len(lines) <= dailyIndexHeaderLines {
		return nil, nil
	}

	var filings []model.Filing
	for _, line := range lines[dailyIndexHeaderLines:] {
		parts := strings.Split(line, "|")
		if len(parts) < 5 {
			continue
		}
		form := strings.TrimSpace(parts[2])
		// Exact match on the delimited field: "8-K12B" and friends must not
		// slip through a substring check.
		if form != string(model.FormCurrentReport) && form != string(model.FormCurrentReportAmended) {
			continue
		}

		cik := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[1])
		date := NormalizeDate(parts[3])
		path := strings.TrimSpace(parts[4])

		// edgar/data/320193/0000320193-25-000077.txt → accession
		seg := path[strings.LastIndex(path, "/")+1:]
		accession := StripAccession(strings.TrimSuffix(seg, ".txt"))
		if cik == "" || accession == "" {
			continue
		}

		filings = append(filings, model.Filing{
			CIK:         cik,
			CompanyName: name,
			FilingDate:  date,
			Form:        model.FormType(form),
			Accession:   accession,
			IndexURL:    h.indexURL(cik, accession),
		})
	}
	return filings, nil
}

// indexURL is the deterministic filing index page location for a CIK and a
// digits-only accession.
func (h *Harvester) indexURL(cik, accession string) string {
	return fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s-index.htm",
		h.baseURL, cik, StripAccession(accession), DashAccession(accession))
}

// harvestFeed parses the getcurrent Atom feed. Entries that fail to yield a
// CIK or accession are still returned with best-effort fields; only the
// primary day-sweep path drops unparseable rows.
func (h *Harvester) harvestFeed(ctx context.Context) ([]model.Filing, error) {
	url := fmt.Sprintf("%s/cgi-bin/browse-edgar?action=getcurrent&type=8-K&count=%d&output=atom",
		h.baseURL, feedRecordCap)

	body, err := h.f.Get(ctx, url)
	if err != nil {
		zap.L().Warn("recent-filings feed unavailable", zap.Error(err))
		return nil, nil
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		zap.L().Warn("recent-filings feed unparseable", zap.Error(err))
		return nil, nil
	}

	filings := make([]model.Filing, 0, len(feed.Items))
	for _, item := range feed.Items {
		filings = append(filings, h.feedEntryToFiling(item))
	}

	zap.L().Info("recent-filings feed parsed", zap.Int("filings", len(filings)))
	return filings, nil
}

func (h *Harvester) feedEntryToFiling(item *gofeed.Item) model.Filing {
	f := model.Filing{
		CompanyName: "Unknown",
		Form:        model.FormCurrentReport,
		IndexURL:    item.Link,
	}
	if strings.Contains(item.Title, string(model.FormCurrentReportAmended)) {
		f.Form = model.FormCurrentReportAmended
	}

	// Title format: "8-K - COMPANY NAME (0001234567) (Filer)".
	if m := feedTitleRe.FindStringSubmatch(item.Title); m != nil {
		f.CompanyName = strings.TrimSpace(m[1])
	}

	// Updated format: 2026-08-28T17:02:11-04:00; keep the date portion.
	if ts := item.Updated; ts != "" {
		f.FilingDate = NormalizeDate(strings.SplitN(ts, "T", 2)[0])
	}

	if m := feedCIKRe.FindStringSubmatch(item.Link); m != nil {
		f.CIK = m[1]
	}
	if m := feedAccessionRe.FindStringSubmatch(item.Link); m != nil {
		f.Accession = StripAccession(m[1])
	}
	if f.CIK != "" && f.Accession != "" {
		f.IndexURL = h.indexURL(f.CIK, f.Accession)
	}
	return f
}
