// Package pipeline orchestrates the harvest: enumerate filings, locate the
// exhibit for each, enrich, filter, and sort.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/edgar-harvest/internal/model"
)

// Harvester enumerates recent filings.
type Harvester interface {
	Harvest(ctx context.Context, windowDays int) ([]model.Filing, error)
}

// Locator finds the exhibit document for a filing.
type Locator interface {
	Locate(ctx context.Context, cik, accession, fallbackURL string) (*model.ExhibitRef, bool)
}

// TickerResolver maps a CIK to a ticker symbol, empty when unknown.
type TickerResolver interface {
	Resolve(ctx context.Context, cik string) string
}

// VolumeSource reports option volume for a ticker, zero on any failure.
type VolumeSource interface {
	OptionsVolume(ctx context.Context, symbol string) int64
}

// Summarizer produces a short description of an exhibit document.
type Summarizer interface {
	Summarize(ctx context.Context, url string) string
}

// Options controls a single pipeline run.
type Options struct {
	WindowDays  int
	Concurrency int
	MinVolume   int64
	Summarize   bool
}

// Stats counts pipeline progress. Fields are updated atomically while
// workers run and are safe to read after Run returns.
type Stats struct {
	Seen    atomic.Int64 // filings returned by the harvester
	Located atomic.Int64 // filings with a validated exhibit
	Kept    atomic.Int64 // results surviving the volume filter
}

// Pipeline wires the harvest stages together.
type Pipeline struct {
	harvester  Harvester
	locator    Locator
	tickers    TickerResolver
	volume     VolumeSource
	summarizer Summarizer
}

// New creates a Pipeline. volume and summarizer may be nil when the
// corresponding enrichment is disabled.
func New(h Harvester, l Locator, t TickerResolver, v VolumeSource, s Summarizer) *Pipeline {
	return &Pipeline{harvester: h, locator: l, tickers: t, volume: v, summarizer: s}
}

// Run executes a full harvest and returns results sorted by option volume,
// highest first. Per-filing failures are contained; only harvester errors
// and cancellation abort the run.
func (p *Pipeline) Run(ctx context.Context, opts Options) ([]model.Result, *Stats, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	filings, err := p.harvester.Harvest(ctx, opts.WindowDays)
	if err != nil {
		return nil, nil, eris.Wrap(err, "pipeline: harvest")
	}

	stats := &Stats{}
	stats.Seen.Store(int64(len(filings)))

	var (
		mu      sync.Mutex
		results []model.Result
		seen    = make(map[string]bool, len(filings))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for _, filing := range filings {
		// Accession is the uniqueness key; the feed fallback can overlap
		// with index rows. A filing whose accession could not be extracted
		// is never treated as a duplicate.
		if filing.Accession != "" {
			if seen[filing.Accession] {
				continue
			}
			seen[filing.Accession] = true
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			res, keep := p.process(gctx, filing, opts, stats)
			if !keep {
				return nil
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, stats, eris.Wrap(err, "pipeline: run")
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Volume > results[j].Volume
	})
	return results, stats, nil
}

// process handles one filing end to end. A panic from any stage is contained
// to the filing so one malformed document cannot sink the run.
func (p *Pipeline) process(ctx context.Context, filing model.Filing, opts Options, stats *Stats) (res model.Result, keep bool) {
	log := zap.L().With(
		zap.String("cik", filing.CIK),
		zap.String("accession", filing.Accession),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("filing processing panicked", zap.Any("panic", r))
			keep = false
		}
	}()

	ref, ok := p.locator.Locate(ctx, filing.CIK, filing.Accession, filing.IndexURL)
	if !ok {
		log.Debug("no exhibit located")
		return model.Result{}, false
	}
	stats.Located.Add(1)

	res = model.Result{
		Filing:     filing,
		ExhibitURL: ref.URL,
		Strategy:   ref.Strategy,
	}

	res.Ticker = p.tickers.Resolve(ctx, filing.CIK)
	if res.Ticker != "" && p.volume != nil {
		res.Volume = p.volume.OptionsVolume(ctx, res.Ticker)
	}

	// minVolume 0 keeps everything, tickerless filings included. A positive
	// threshold drops anything that cannot demonstrate the volume.
	if opts.MinVolume > 0 && (res.Ticker == "" || res.Volume < opts.MinVolume) {
		log.Debug("dropped below volume threshold",
			zap.String("ticker", res.Ticker),
			zap.Int64("volume", res.Volume))
		return model.Result{}, false
	}

	if opts.Summarize && p.summarizer != nil {
		res.Summary = p.summarizer.Summarize(ctx, res.ExhibitURL)
	}

	stats.Kept.Add(1)
	return res, true
}
