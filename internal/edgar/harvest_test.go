package edgar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/edgar-harvest/internal/fetcher"
	"github.com/sells-group/edgar-harvest/internal/model"
)

const masterIdxHeader = `Description:           Daily Index of EDGAR Dissemination Feed
Last Data Received:    August 28, 2026
Comments:              webmaster@sec.gov
Anonymous FTP:         ftp://ftp.sec.gov/edgar/
Cloud HTTP:            https://www.sec.gov/Archives/



CIK|Company Name|Form Type|Date Filed|File Name
--------------------------------------------------------------------------------
`

func newHarvesterAgainst(srvURL string, now time.Time) *Harvester {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{UserAgent: "test-agent", MaxRetries: 1})
	h := NewHarvester(f, srvURL, 3)
	h.now = func() time.Time { return now }
	return h
}

func TestHarvest_WeekdayRowSaturdayAbsent(t *testing.T) {
	// Friday 2026-08-28 has one matching row; Saturday is never requested,
	// and the Thursday/earlier indexes 404 like a holiday stretch.
	friday := "master.20260828.idx"
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if strings.HasSuffix(r.URL.Path, friday) {
			fmt.Fprint(w, masterIdxHeader+
				"320193|Apple Inc.|8-K|20260828|edgar/data/320193/0000320193-26-000077.txt\n"+
				"320193|Apple Inc.|10-Q|20260828|edgar/data/320193/0000320193-26-000078.txt\n")
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	// Saturday 2026-08-29 as "today", window covers Fri and Sat.
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	h := newHarvesterAgainst(srv.URL, now)

	filings, err := h.Harvest(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, filings, 1)

	f := filings[0]
	assert.Equal(t, "320193", f.CIK)
	assert.Equal(t, "Apple Inc.", f.CompanyName)
	assert.Equal(t, model.FormCurrentReport, f.Form)
	assert.Equal(t, "2026-08-28", f.FilingDate)
	assert.Equal(t, "000032019326000077", f.Accession)
	assert.Equal(t, srv.URL+"/Archives/edgar/data/320193/000032019326000077/0000320193-26-000077-index.htm", f.IndexURL)

	for _, p := range paths {
		assert.NotContains(t, p, "master.20260829", "Saturday must not be fetched")
	}
}

func TestHarvest_FormFieldExactMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "daily-index") {
			fmt.Fprint(w, masterIdxHeader+
				"1|Alpha Corp|8-K|20260827|edgar/data/1/0000000001-26-000001.txt\n"+
				"2|Beta Corp|8-K/A|20260827|edgar/data/2/0000000002-26-000002.txt\n"+
				"3|Gamma Corp|8-K12B|20260827|edgar/data/3/0000000003-26-000003.txt\n"+
				"4|Delta Corp|NT 8-K|20260827|edgar/data/4/0000000004-26-000004.txt\n")
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC) // Thursday
	h := newHarvesterAgainst(srv.URL, now)

	filings, err := h.Harvest(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, filings, 2)

	forms := map[model.FormType]bool{}
	for _, f := range filings {
		forms[f.Form] = true
	}
	assert.True(t, forms[model.FormCurrentReport])
	assert.True(t, forms[model.FormCurrentReportAmended])
}

func TestHarvest_EmptySweepFallsBackToFeed(t *testing.T) {
	atom := `<?xml version="1.0" encoding="ISO-8859-1"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Latest Filings</title>
  <entry>
    <title>8-K - Beyond Meat Inc (0001861449) (Filer)</title>
    <link rel="alternate" href="https://www.sec.gov/cgi-bin/viewer?action=view&amp;cik=1861449&amp;accession_number=0001861449-26-000031"/>
    <updated>2026-08-28T16:30:09-04:00</updated>
    <id>urn:tag:sec.gov,2008:accession-number=0001861449-26-000031</id>
  </entry>
  <entry>
    <title>8-K/A - Ondas Holdings Inc (0001740516) (Filer)</title>
    <link rel="alternate" href="https://www.sec.gov/unexpected/shape"/>
    <updated>2026-08-28T15:01:44-04:00</updated>
    <id>urn:tag:sec.gov,2008:accession-number=0001740516-26-000012</id>
  </entry>
</feed>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "browse-edgar") {
			assert.Equal(t, "getcurrent", r.URL.Query().Get("action"))
			assert.Equal(t, "8-K", r.URL.Query().Get("type"))
			assert.Equal(t, "atom", r.URL.Query().Get("output"))
			w.Write([]byte(atom))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) // Friday
	h := newHarvesterAgainst(srv.URL, now)

	filings, err := h.Harvest(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, filings, 2)

	first := filings[0]
	assert.Equal(t, "Beyond Meat Inc", first.CompanyName)
	assert.Equal(t, "1861449", first.CIK)
	assert.Equal(t, "000186144926000031", first.Accession)
	assert.Equal(t, "2026-08-28", first.FilingDate)
	assert.Equal(t, model.FormCurrentReport, first.Form)
	assert.Equal(t, srv.URL+"/Archives/edgar/data/1861449/000186144926000031/0001861449-26-000031-index.htm", first.IndexURL)

	// Entry without extractable IDs is kept best-effort, not dropped.
	second := filings[1]
	assert.Equal(t, "Ondas Holdings Inc", second.CompanyName)
	assert.Equal(t, model.FormCurrentReportAmended, second.Form)
	assert.Empty(t, second.CIK)
	assert.Empty(t, second.Accession)
	assert.Equal(t, "https://www.sec.gov/unexpected/shape", second.IndexURL)
}

func TestHarvest_FeedUnavailableYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	h := newHarvesterAgainst(srv.URL, now)

	filings, err := h.Harvest(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, filings)
}
