package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// parseTableHTML walks a table's outer HTML and returns its cell text grid.
//
// Rows are `tr` elements in DOM order; cells are `th, td` in DOM order, so a
// header row simply comes out as row 0. Cell text is collapsed to single
// spaces and trimmed; empty cells stay as empty strings. Irregular rows keep
// their natural cell count — the CSV mirrors the DOM, it does not repair it.
// Rows with no cells at all (e.g. spacer rows) are dropped.
func parseTableHTML(tableHTML string) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tableHTML))
	if err != nil {
		return nil, err
	}

	var rows [][]string
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, collapseWhitespace(cell.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})

	return rows, nil
}

// collapseWhitespace trims the text and folds internal whitespace runs
// (including newlines from nested markup) into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
