package fetcher

import (
	"bytes"
	"regexp"

	"golang.org/x/text/encoding/htmlindex"
)

// Older EDGAR documents declare legacy charsets (windows-1252 is common)
// in a meta tag. Only the head of the document is scanned.
var charsetRe = regexp.MustCompile(`(?i)charset\s*=\s*["']?([a-zA-Z0-9._\-]+)`)

const charsetScanWindow = 1024

// DecodeHTML converts a fetched document to UTF-8 using its declared
// charset. Documents without a declaration, or with one we cannot decode,
// pass through unchanged.
func DecodeHTML(body []byte) string {
	head := body
	if len(head) > charsetScanWindow {
		head = head[:charsetScanWindow]
	}

	m := charsetRe.FindSubmatch(head)
	if m == nil {
		return string(body)
	}
	name := string(bytes.ToLower(m[1]))
	if name == "utf-8" || name == "utf8" {
		return string(body)
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return string(body)
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
