package pipeline

import (
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/edgar-harvest/internal/model"
)

// CSV placeholders for fields that could not be populated. ReadCSV reverses
// them, so a written file round-trips to the same results.
const (
	noTicker    = "N/A"
	notAnalyzed = "Not analyzed"
)

// csvRow is the on-disk row shape. Column order matches the struct order.
type csvRow struct {
	CompanyName string `csv:"Company Name"`
	CIK         string `csv:"CIK Number"`
	Ticker      string `csv:"Ticker Symbol"`
	Volume      int64  `csv:"Options Volume"`
	FilingDate  string `csv:"Filing Date"`
	ExhibitURL  string `csv:"Exhibit 99.1 URL"`
	Accession   string `csv:"Accession Number"`
	Summary     string `csv:"Summary"`
}

func toRow(r model.Result) csvRow {
	row := csvRow{
		CompanyName: r.CompanyName,
		CIK:         r.CIK,
		Ticker:      r.Ticker,
		Volume:      r.Volume,
		FilingDate:  r.FilingDate,
		ExhibitURL:  r.ExhibitURL,
		Accession:   r.Accession,
		Summary:     r.Summary,
	}
	if row.Ticker == "" {
		row.Ticker = noTicker
	}
	if row.Summary == "" {
		row.Summary = notAnalyzed
	}
	return row
}

func fromRow(row csvRow) model.Result {
	r := model.Result{
		Filing: model.Filing{
			CIK:         row.CIK,
			CompanyName: row.CompanyName,
			FilingDate:  row.FilingDate,
			Accession:   row.Accession,
		},
		Ticker:     row.Ticker,
		ExhibitURL: row.ExhibitURL,
		Volume:     row.Volume,
		Summary:    row.Summary,
	}
	if r.Ticker == noTicker {
		r.Ticker = ""
	}
	if r.Summary == notAnalyzed {
		r.Summary = ""
	}
	return r
}

// ExportCSV writes results to path, creating or truncating the file.
func ExportCSV(path string, results []model.Result) error {
	rows := make([]csvRow, len(results))
	for i, r := range results {
		rows[i] = toRow(r)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "pipeline: create output file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)
	if err := enc.EncodeHeader(csvRow{}); err != nil {
		return eris.Wrap(err, "pipeline: encode header")
	}
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return eris.Wrap(err, "pipeline: encode row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "pipeline: flush output")
	}
	return f.Close()
}

// ReadCSV loads a previously exported file back into results.
func ReadCSV(path string) ([]model.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: open file")
	}
	defer f.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: read header")
	}

	var results []model.Result
	var row csvRow
	for {
		row = csvRow{}
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, eris.Wrap(err, "pipeline: decode row")
		}
		results = append(results, fromRow(row))
	}
	return results, nil
}
