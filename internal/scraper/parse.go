package scraper

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// table is the text content of an HTML table
type table struct {
	header []string
	rows   [][]string
}

// firstTable returns the first <table> of an HTML document. Header cells
// are the <th> cells of the first row that has any.
func firstTable(r io.Reader) (*table, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	node := findElement(doc, "table")
	if node == nil {
		return nil, fmt.Errorf("no table in document")
	}

	t := &table{}
	walk(node, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "tr" {
			return true
		}
		var cells []string
		isHeader := false
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
				continue
			}
			isHeader = isHeader || c.Data == "th"
			cells = append(cells, strings.TrimSpace(textContent(c)))
		}
		switch {
		case len(cells) == 0:
		case isHeader && t.header == nil:
			t.header = cells
		case !isHeader:
			t.rows = append(t.rows, cells)
		}
		return false
	})
	return t, nil
}

// walk visits n and its descendants depth-first; fn returning false skips
// the children of a node
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findElement(n *html.Node, tag string) *html.Node {
	var found *html.Node
	walk(n, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && n.Data == tag {
			found = n
			return false
		}
		return true
	})
	return found
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		return true
	})
	return sb.String()
}

// normalizeHeader folds "Year of\nbirth" into "yearofbirth"
func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), ""))
}

// parseNumber reads an integer cell that may use thousands separators
func parseNumber(s string) (int, error) {
	return strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
}

// applicantColumns maps the table headers of the births page to the
// columns of the applicant totals file
var applicantColumns = map[string]string{
	"yearofbirth": "year",
	"total":       "number",
	"male":        "number_m",
	"female":      "number_f",
}

// ApplicantRow is one year of the applicant totals table
type ApplicantRow struct {
	Year, Number, NumberM, NumberF int
}

// parseApplicants reads the births-per-year table of the SSA site
func parseApplicants(r io.Reader) ([]ApplicantRow, error) {
	t, err := firstTable(r)
	if err != nil {
		return nil, err
	}

	idx := make(map[string]int)
	for i, h := range t.header {
		if col, ok := applicantColumns[normalizeHeader(h)]; ok {
			idx[col] = i
		}
	}
	for _, col := range []string{"year", "number", "number_m", "number_f"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("births table has no %s column", col)
		}
	}

	var out []ApplicantRow
	for _, row := range t.rows {
		var vals [4]int
		for i, col := range []string{"year", "number", "number_m", "number_f"} {
			if idx[col] >= len(row) {
				return nil, fmt.Errorf("short row %v", row)
			}
			v, err := parseNumber(row[idx[col]])
			if err != nil {
				return nil, fmt.Errorf("invalid %s in row %v: %w", col, row, err)
			}
			vals[i] = v
		}
		out = append(out, ApplicantRow{Year: vals[0], Number: vals[1], NumberM: vals[2], NumberF: vals[3]})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("births table is empty")
	}
	return out, nil
}

// parseLatestYear reads the most recent year from the first data row of
// the limits page table
func parseLatestYear(r io.Reader) (int, error) {
	t, err := firstTable(r)
	if err != nil {
		return 0, err
	}
	if len(t.rows) == 0 || len(t.rows[0]) == 0 {
		return 0, fmt.Errorf("limits table is empty")
	}
	return parseNumber(t.rows[0][0])
}

// LifeRow is one (table year, age) row of a cohort life table
type LifeRow struct {
	Year, Age, Survivors int
}

// parseLifeTable reads a whitespace-aligned cohort life table. Title lines
// precede a header naming the Year, x and l(x) columns; every following
// line with the header's field count is a data row.
func parseLifeTable(data []byte) ([]LifeRow, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	var (
		header        []string
		year, age, lx int
		rows          []LifeRow
	)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if header == nil {
			year, age, lx = slices.Index(fields, "Year"), slices.Index(fields, "x"), slices.Index(fields, "l(x)")
			if year >= 0 && age >= 0 && lx >= 0 {
				header = fields
			}
			continue
		}
		if len(fields) != len(header) {
			continue
		}
		var vals [3]int
		for i, col := range []int{year, age, lx} {
			v, err := strconv.Atoi(fields[col])
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q: %w", header[col], fields[col], err)
			}
			vals[i] = v
		}
		rows = append(rows, LifeRow{Year: vals[0], Age: vals[1], Survivors: vals[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if header == nil {
		return nil, fmt.Errorf("life table header not found")
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("life table has no rows")
	}
	return rows, nil
}
