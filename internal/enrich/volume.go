// Package enrich adds market and content context to located filings.
package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/edgar-harvest/pkg/yahoo"
)

// VolumeFetcher reports total option volume for a ticker's nearest
// expiration. Volume is best-effort context, not gating data, so lookup
// failures degrade to zero rather than failing the filing.
type VolumeFetcher struct {
	client yahoo.Client
}

// NewVolumeFetcher creates a volume fetcher backed by the given client.
func NewVolumeFetcher(client yahoo.Client) *VolumeFetcher {
	return &VolumeFetcher{client: client}
}

// OptionsVolume returns the summed call and put volume for symbol. An empty
// symbol or any provider failure yields zero.
func (v *VolumeFetcher) OptionsVolume(ctx context.Context, symbol string) int64 {
	if symbol == "" {
		return 0
	}

	chain, err := v.client.OptionChain(ctx, symbol)
	if err != nil {
		zap.L().Debug("option chain lookup failed",
			zap.String("symbol", symbol),
			zap.Error(err))
		return 0
	}

	var total int64
	for _, c := range chain.Calls {
		total += c.Volume
	}
	for _, p := range chain.Puts {
		total += p.Volume
	}
	return total
}
