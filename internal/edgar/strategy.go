package edgar

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// IndexPage is a fetched filing index page handed to match strategies.
// Doc is nil when the markup could not be parsed; strategies that need the
// DOM return nothing in that case, Raw-based strategies still run.
type IndexPage struct {
	Doc *goquery.Document
	Raw string
}

// MatchStrategy finds candidate exhibit hrefs in an index page, in document
// order. Candidates are raw href values; the locator normalizes and
// validates them. Filing index pages are not guaranteed to be well-formed,
// so strategies are free to fall back to string and regex matching; keeping
// them behind this interface lets a stricter parser be swapped in without
// touching the orchestrator.
type MatchStrategy interface {
	Name() string
	Candidates(page *IndexPage) []string
}

// exhibitPattern matches the visible renderings of an exhibit number such as
// "99.1": bare, spaced, "EX-99.1", "Exhibit 99.1", "ex99_1", "99-01". The
// leading guard keeps larger numbers that merely end in the exhibit number
// ("1999.1", "1,299.1 KB") from matching.
func exhibitPattern(number string) *regexp.Regexp {
	parts := strings.SplitN(number, ".", 2)
	major, minor := parts[0], "1"
	if len(parts) == 2 {
		minor = parts[1]
	}
	return regexp.MustCompile(fmt.Sprintf(`(?i)(?:^|[^\d.])(?:exhibit\s*|ex[-_ ]?)?%s\s*[.\s_-]\s*0?%s\b`,
		regexp.QuoteMeta(major), regexp.QuoteMeta(minor)))
}

// filenamePattern matches hrefs whose filename follows an exhibit naming
// convention for the number ("ex99-1", "ex99_01", "ex991") or the financial
// printers' numbered-document convention ("d123456dex991"), restricted to
// document extensions.
func filenamePattern(number string) *regexp.Regexp {
	parts := strings.SplitN(number, ".", 2)
	major, minor := parts[0], "1"
	if len(parts) == 2 {
		minor = parts[1]
	}
	return regexp.MustCompile(fmt.Sprintf(
		`(?i)(?:ex[-_]?%[1]s[-_.]?0?%[2]s|d\d+dex%[1]s%[2]s)[^/]*\.(?:htm|html|pdf|txt)$`,
		regexp.QuoteMeta(major), regexp.QuoteMeta(minor)))
}

var hrefRe = regexp.MustCompile(`(?i)href="([^"]+)"`)

// DefaultStrategies returns the battery for an exhibit number in strict
// priority order: table-row structure, anchor text, filename convention,
// then line proximity.
func DefaultStrategies(number string) []MatchStrategy {
	ident := exhibitPattern(number)
	return []MatchStrategy{
		&tableRowStrategy{ident: ident},
		&anchorTextStrategy{ident: ident},
		&filenameStrategy{file: filenamePattern(number)},
		&proximityStrategy{literals: []string{number, strings.ReplaceAll(number, ".", " ")}},
	}
}

// tableRowStrategy matches the structured layout of EDGAR index pages: a
// table row whose label cell names the exhibit, with the document anchor in
// the same row.
type tableRowStrategy struct {
	ident *regexp.Regexp
}

func (s *tableRowStrategy) Name() string { return "table-row" }

func (s *tableRowStrategy) Candidates(page *IndexPage) []string {
	if page.Doc == nil {
		return nil
	}
	var hrefs []string
	page.Doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		labelled := false
		row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			if s.ident.MatchString(cell.Text()) {
				labelled = true
			}
		})
		if !labelled {
			return
		}
		row.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			if href, ok := a.Attr("href"); ok {
				hrefs = append(hrefs, href)
			}
		})
	})
	return hrefs
}

// anchorTextStrategy matches anchors whose own text names the exhibit, or
// whose immediately adjacent text does (the label can sit before or after
// the link).
type anchorTextStrategy struct {
	ident *regexp.Regexp
}

func (s *anchorTextStrategy) Name() string { return "anchor-text" }

func (s *anchorTextStrategy) Candidates(page *IndexPage) []string {
	if page.Doc == nil {
		return nil
	}
	var hrefs []string
	page.Doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		if s.ident.MatchString(a.Text()) || s.ident.MatchString(adjacentText(a)) {
			hrefs = append(hrefs, href)
		}
	})
	return hrefs
}

// adjacentText collects the text nodes directly before and after an anchor.
func adjacentText(a *goquery.Selection) string {
	n := a.Get(0)
	var parts []string
	if prev := n.PrevSibling; prev != nil && prev.Type == html.TextNode {
		parts = append(parts, prev.Data)
	}
	if next := n.NextSibling; next != nil && next.Type == html.TextNode {
		parts = append(parts, next.Data)
	}
	return strings.Join(parts, " ")
}

// filenameStrategy matches hrefs by filename convention alone, independent
// of any surrounding markup.
type filenameStrategy struct {
	file *regexp.Regexp
}

func (s *filenameStrategy) Name() string { return "filename" }

func (s *filenameStrategy) Candidates(page *IndexPage) []string {
	var hrefs []string
	for _, m := range hrefRe.FindAllStringSubmatch(page.Raw, -1) {
		href := m[1]
		name := href
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		if i := strings.IndexAny(name, "?#"); i >= 0 {
			name = name[:i]
		}
		if s.file.MatchString(name) {
			hrefs = append(hrefs, href)
		}
	}
	return hrefs
}

// proximityStrategy is the last resort: wherever the exhibit number appears
// literally, collect hrefs from that line and the few lines after it.
type proximityStrategy struct {
	literals []string
}

const proximityWindow = 3

func (s *proximityStrategy) Name() string { return "proximity" }

func (s *proximityStrategy) Candidates(page *IndexPage) []string {
	lines := strings.Split(page.Raw, "\n")
	var hrefs []string
	for i, line := range lines {
		if !s.lineMentions(line) {
			continue
		}
		end := min(i+1+proximityWindow, len(lines))
		for _, near := range lines[i:end] {
			for _, m := range hrefRe.FindAllStringSubmatch(near, -1) {
				hrefs = append(hrefs, m[1])
			}
		}
	}
	return hrefs
}

func (s *proximityStrategy) lineMentions(line string) bool {
	for _, lit := range s.literals {
		if strings.Contains(line, lit) {
			return true
		}
	}
	return false
}
