// Package edgar harvests 8-K filings from SEC EDGAR and locates Exhibit 99.1
// documents inside their index pages.
package edgar

import "strings"

// StripAccession reduces an accession number to its digits-only form.
// Both rendered forms ("0001234567-25-000123" and "000123456725000123")
// collapse to the same key.
func StripAccession(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DashAccession renders the canonical dashed accession form used in EDGAR
// document URLs: dashes after digit 10 and digit 12. Inputs shorter than the
// full 18 digits are returned digits-only as-is. Idempotent.
func DashAccession(s string) string {
	d := StripAccession(s)
	if len(d) < 18 {
		return d
	}
	return d[:10] + "-" + d[10:12] + "-" + d[12:]
}

// NormalizeDate converts EDGAR date renderings to YYYY-MM-DD.
// Handles YYYYMMDD and already-normalized input; anything else is returned
// unchanged.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case len(s) == 10 && s[4] == '-':
		return s
	case len(s) == 8:
		return s[0:4] + "-" + s[4:6] + "-" + s[6:8]
	default:
		return s
	}
}
