package models

// ExtractedTable is the in-memory result of one table extraction: an ordered
// sequence of rows, each an ordered sequence of cell text values. A header
// row, if the source table has one, is simply row 0 — extraction is
// positional and does not distinguish it.
//
// A table is built fresh on every extraction call, serialized to CSV, and
// discarded; it is never cached.
type ExtractedTable struct {
	// Name is the logical table name from the table config (e.g. "table1").
	Name string `json:"name"`

	// Rows holds cell text in DOM order: top-to-bottom, left-to-right.
	// Irregular rows keep their natural cell count; cells are never padded.
	Rows [][]string `json:"rows"`
}

// RowCount returns the number of extracted rows.
func (t *ExtractedTable) RowCount() int { return len(t.Rows) }
