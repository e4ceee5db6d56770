package mdland

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
)

// recordedDateLayout is the portal's date format.
const recordedDateLayout = "01/02/2006"

// parseFormToken extracts the anti-forgery token from the login page.
func parseFormToken(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse login page: %w", err)
	}

	var token string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if token != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "input" {
			if attr(n, "name") == formTokenField {
				token = attr(n, "value")
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if token == "" {
		return "", fmt.Errorf("login page has no %s field", formTokenField)
	}
	return token, nil
}

// parseSearchResults extracts documents from a results page. The portal
// markup drifts, so parsing is lenient: rows that cannot be read are
// skipped and counted rather than failing the whole page.
//
// Expected row shape: recorded date, document type, grantors, grantees,
// book/page, instrument number, and optionally consideration.
func parseSearchResults(r io.Reader, jurisdiction domain.Jurisdiction) ([]domain.RecordDocument, int, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, 0, fmt.Errorf("parse results page: %w", err)
	}

	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			if cells := cellTexts(n); cells != nil {
				rows = append(rows, cells)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	now := time.Now()
	docs := make([]domain.RecordDocument, 0, len(rows))
	skipped := 0
	for _, cells := range rows {
		d, ok := rowToDocument(cells, jurisdiction, now)
		if !ok {
			skipped++
			continue
		}
		docs = append(docs, d)
	}
	return docs, skipped, nil
}

// rowToDocument converts one results row. Header rows and malformed
// rows report false.
func rowToDocument(cells []string, jurisdiction domain.Jurisdiction, now time.Time) (domain.RecordDocument, bool) {
	if len(cells) < 6 {
		return domain.RecordDocument{}, false
	}

	recorded, err := time.Parse(recordedDateLayout, cells[0])
	if err != nil {
		return domain.RecordDocument{}, false
	}

	book, page := splitBookPage(cells[4])
	d := domain.RecordDocument{
		SourceDocumentID: cells[5],
		Jurisdiction:     jurisdiction,
		Kind:             domain.ParseDocumentKind(cells[1]),
		RecordedAt:       recorded,
		Grantors:         splitParties(cells[2]),
		Grantees:         splitParties(cells[3]),
		Ref: domain.InstrumentRef{
			Book:             book,
			Page:             page,
			InstrumentNumber: cells[5],
		},
		RetrievedAt: now,
	}
	if len(cells) > 6 {
		d.Consideration = parseMoney(cells[6])
	}
	return d, true
}

// cellTexts collects the trimmed text of each td in a row. Rows made
// of th cells (headers) report nil.
func cellTexts(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "th":
			return nil
		case "td":
			cells = append(cells, strings.TrimSpace(nodeText(c)))
		}
	}
	return cells
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// splitParties splits a semicolon-delimited party cell.
func splitParties(cell string) []string {
	parts := strings.Split(cell, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitBookPage splits a "1234 / 567" cell.
func splitBookPage(cell string) (book, page string) {
	parts := strings.SplitN(cell, "/", 2)
	book = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		page = strings.TrimSpace(parts[1])
	}
	return book, page
}

// parseMoney reads a "$500,000" style cell, zero when unreadable.
func parseMoney(cell string) float64 {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(cell)
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}
