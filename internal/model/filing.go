// Package model defines the data types shared across the harvest pipeline.
package model

// FormType identifies the EDGAR form variant of a filing.
type FormType string

const (
	// FormCurrentReport is the primary 8-K current report.
	FormCurrentReport FormType = "8-K"
	// FormCurrentReportAmended is an amendment to a previously filed 8-K.
	FormCurrentReportAmended FormType = "8-K/A"
)

// Filing is a single 8-K filing record discovered by the harvester.
// Accession holds the digits-only accession number; it is the uniqueness key.
type Filing struct {
	CIK         string   `json:"cik"`
	CompanyName string   `json:"company_name"`
	FilingDate  string   `json:"filing_date"` // YYYY-MM-DD
	Form        FormType `json:"form"`
	Accession   string   `json:"accession"`
	IndexURL    string   `json:"index_url"` // locator for the filing's index page
}

// ExhibitRef points at a located Exhibit 99.1 document.
// Strategy names the match strategy that produced the URL, for diagnostics.
type ExhibitRef struct {
	URL      string `json:"url"`
	Strategy string `json:"strategy"`
}

// Result is the final per-filing output row: the filing plus everything the
// enrichment stage could attach. Ticker and Summary may be empty; ExhibitURL
// is always set (filings without a located exhibit never become Results).
type Result struct {
	Filing
	Ticker     string `json:"ticker,omitempty"`
	ExhibitURL string `json:"exhibit_url"`
	Strategy   string `json:"strategy,omitempty"`
	Volume     int64  `json:"volume"`
	Summary    string `json:"summary,omitempty"`
}
