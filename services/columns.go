package services

import "strings"

// ColumnMap holds the resolved zero-based column indices for a BOM file.
// An index of -1 means the column was not found. Level == -1 selects the
// flat parse strategy (no hierarchy reconstruction).
type ColumnMap struct {
	Level         int
	PartNumber    int
	Qty           int
	Type          int
	Description   int
	AssemblyGroup int
}

// Synonym lists for fuzzy header matching. Supplier files disagree on
// naming, ordering and capitalization, so headers are matched
// case-insensitively by equality first and substring second.
var (
	levelHeaders    = []string{"level", "lvl"}
	partNoHeaders   = []string{"part number", "part_number", "partnumber", "part no", "part no.", "pn", "ref_pn"}
	qtyHeaders      = []string{"qty", "quantity", "qty per", "qty/assy", "qty ea", "qty needed"}
	typeHeaders     = []string{"type", "make/buy", "make_buy"}
	descHeaders     = []string{"description", "desc", "name", "part description"}
	assemblyHeaders = []string{"assembly group", "assembly_group", "assembly"}
)

// ResolveColumns scans the leading rows of a file for a header row and
// resolves the target columns against the synonym lists. The first row
// containing both a level-like and a part-number-like header is fixed as
// the header row; title rows, blank separators and checksum rows before
// it are skipped. Returns the map, the header row index, and whether a
// hierarchical header row was found.
func ResolveColumns(rows [][]string) (*ColumnMap, int, bool) {
	for i, row := range rows {
		if isNoiseRow(row) {
			continue
		}
		if findColumn(row, levelHeaders) >= 0 && findColumn(row, partNoHeaders) >= 0 {
			return resolveFromHeader(row), i, true
		}
	}
	return nil, -1, false
}

// ResolveFlatColumns is the fallback for files without a level column:
// the first non-noise row with a part-number-like header becomes the
// header row and every data row is treated as a leaf.
func ResolveFlatColumns(rows [][]string) (*ColumnMap, int, bool) {
	for i, row := range rows {
		if isNoiseRow(row) {
			continue
		}
		if findColumn(row, partNoHeaders) >= 0 {
			return resolveFromHeader(row), i, true
		}
	}
	return nil, -1, false
}

func resolveFromHeader(row []string) *ColumnMap {
	return &ColumnMap{
		Level:         findColumn(row, levelHeaders),
		PartNumber:    findColumn(row, partNoHeaders),
		Qty:           findColumn(row, qtyHeaders),
		Type:          findColumn(row, typeHeaders),
		Description:   findColumn(row, descHeaders),
		AssemblyGroup: findColumn(row, assemblyHeaders),
	}
}

// findColumn returns the index of the first cell matching any synonym,
// or -1. Exact matches on the normalized cell win over substring matches
// so that e.g. a "Part Description" column is not claimed by the
// part-number synonyms.
func findColumn(row []string, synonyms []string) int {
	for i, cell := range row {
		norm := normalizeHeader(cell)
		for _, syn := range synonyms {
			if norm == syn {
				return i
			}
		}
	}
	for i, cell := range row {
		norm := normalizeHeader(cell)
		for _, syn := range synonyms {
			// Substring matching only for synonyms long enough to not
			// collide by accident ("pn" would match half the sheet).
			if len(syn) >= 3 && strings.Contains(norm, syn) {
				return i
			}
		}
	}
	return -1
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// isNoiseRow reports whether a row is a comment, a blank separator, or a
// checksum/total row. These occur above and below the data block in
// hand-authored spreadsheets and are never data.
func isNoiseRow(row []string) bool {
	empty := true
	for _, cell := range row {
		c := strings.TrimSpace(cell)
		if c == "" {
			continue
		}
		empty = false
		if strings.HasPrefix(c, "#") {
			return true
		}
		lower := strings.ToLower(c)
		if strings.Contains(c, "Σ") || lower == "total" || strings.HasPrefix(lower, "total ") || strings.HasPrefix(lower, "sum ") || lower == "sum" {
			return true
		}
	}
	return empty
}
