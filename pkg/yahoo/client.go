// Package yahoo is a minimal client for the Yahoo Finance options endpoint.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches option chains for a symbol.
type Client interface {
	OptionChain(ctx context.Context, symbol string) (*OptionChain, error)
}

// OptionChain holds the contracts for the nearest expiration, which is what
// the endpoint returns when no date parameter is given.
type OptionChain struct {
	Symbol     string
	Expiration time.Time
	Calls      []Contract
	Puts       []Contract
}

// Contract is a single option contract.
type Contract struct {
	ContractSymbol string
	Strike         float64
	Volume         int64
	OpenInterest   int64
}

// optionsResponse mirrors the relevant slice of the v7/finance/options
// payload. Yahoo serves volume and open interest inconsistently (absent,
// number, or quoted), so those decode through json.Number.
type optionsResponse struct {
	OptionChain struct {
		Result []struct {
			UnderlyingSymbol string `json:"underlyingSymbol"`
			Options          []struct {
				ExpirationDate int64         `json:"expirationDate"`
				Calls          []rawContract `json:"calls"`
				Puts           []rawContract `json:"puts"`
			} `json:"options"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"optionChain"`
}

type rawContract struct {
	ContractSymbol string      `json:"contractSymbol"`
	Strike         float64     `json:"strike"`
	Volume         json.Number `json:"volume"`
	OpenInterest   json.Number `json:"openInterest"`
}

func (r rawContract) toContract() Contract {
	return Contract{
		ContractSymbol: r.ContractSymbol,
		Strike:         r.Strike,
		Volume:         numberToInt64(r.Volume),
		OpenInterest:   numberToInt64(r.OpenInterest),
	}
}

func numberToInt64(n json.Number) int64 {
	if n == "" {
		return 0
	}
	v, err := n.Int64()
	if err != nil {
		return 0
	}
	return v
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Yahoo Finance client. No API key is required.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) OptionChain(ctx context.Context, symbol string) (*OptionChain, error) {
	url := fmt.Sprintf("%s/v7/finance/options/%s", c.baseURL, symbol)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "yahoo: create request")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "Mozilla/5.0 (compatible; edgar-harvest)")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "yahoo: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "yahoo: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("yahoo: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result optionsResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "yahoo: unmarshal response")
	}

	if e := result.OptionChain.Error; e != nil {
		return nil, eris.Errorf("yahoo: api error %s: %s", e.Code, e.Description)
	}
	if len(result.OptionChain.Result) == 0 {
		return nil, eris.Errorf("yahoo: no option chain for %s", symbol)
	}

	res := result.OptionChain.Result[0]
	chain := &OptionChain{Symbol: res.UnderlyingSymbol}
	if chain.Symbol == "" {
		chain.Symbol = symbol
	}
	if len(res.Options) == 0 {
		return chain, nil
	}

	opt := res.Options[0]
	chain.Expiration = time.Unix(opt.ExpirationDate, 0).UTC()
	for _, c := range opt.Calls {
		chain.Calls = append(chain.Calls, c.toContract())
	}
	for _, p := range opt.Puts {
		chain.Puts = append(chain.Puts, p.toContract())
	}
	return chain, nil
}
