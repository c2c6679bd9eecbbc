package fetch

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// ExtractRows parses the search-results HTML and returns the rows of the
// first results table. The TSJ list renders five columns: agreement id,
// document type, proceeding, parties, publication date. Rows with fewer than
// four cells are navigation/header noise and are skipped here; rows with
// empty identity fields survive and are flagged later by reconciliation.
func ExtractRows(body io.Reader) ([]Row, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	table := findResultsTable(doc)
	if table == nil {
		return nil, fmt.Errorf("no results table found")
	}

	var rows []Row
	for _, tr := range findAll(table, "tr") {
		cells := findAll(tr, "td")
		if len(cells) < 4 {
			continue
		}

		row := Row{
			AgreementID: cellText(cells[0]),
			Document:    cellText(cells[1]),
			Proceeding:  cellText(cells[2]),
			Parties:     cellText(cells[3]),
		}
		if len(cells) > 4 {
			row.Date = cellText(cells[4])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// findResultsTable locates the results table by class or id, falling back to
// the first table on the page.
func findResultsTable(n *html.Node) *html.Node {
	var first, matched *html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if matched != nil {
			return
		}
		if node.Type == html.ElementNode && node.Data == "table" {
			if first == nil {
				first = node
			}
			for _, attr := range node.Attr {
				if attr.Key == "class" && strings.Contains(attr.Val, "table") ||
					attr.Key == "id" && attr.Val == "resultados" ||
					attr.Key == "class" && strings.Contains(attr.Val, "tabla-resultados") {
					matched = node
					return
				}
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	if matched != nil {
		return matched
	}
	return first
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == tag {
			out = append(out, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return out
}

func cellText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteByte(' ')
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(b.String(), " "))
}

// ParseRowDate parses the date formats the court renders. Returns an error
// when nothing matches; callers decide the fallback policy.
func ParseRowDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(whitespaceRe.ReplaceAllString(dateStr, " "))
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	formats := []string{
		"2006-01-02",
		"02/01/2006",
		"02-01-2006",
		"02.01.2006",
		"02/01/06",
		"2/1/2006",
	}

	for _, format := range formats {
		if date, err := time.Parse(format, dateStr); err == nil {
			return date, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}
