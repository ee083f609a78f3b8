package services

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParsedBOM is the result of parsing one uploaded BOM file. One file
// describes one tool variant; the tool model is the filename with its
// extension stripped. Warnings are non-fatal: a degraded file yields an
// empty part list plus a warning rather than an error, so one bad file
// never blocks a multi-file import.
type ParsedBOM struct {
	ToolModel string     `json:"tool_model"`
	LeafParts []LeafPart `json:"leaf_parts"`
	Warnings  []string   `json:"warnings,omitempty"`
}

// ParseBOMFile parses a delimited text BOM file. The delimiter is
// detected from the first non-empty line.
func ParseBOMFile(r io.Reader, filename string) (*ParsedBOM, error) {
	cells, err := readDelimited(r, filename)
	if err != nil {
		return nil, err
	}
	return parseBOMRows(cells, filename), nil
}

// ParseBOMWorkbook parses the first sheet of an xlsx BOM file.
func ParseBOMWorkbook(r io.Reader, filename string) (*ParsedBOM, error) {
	cells, err := readWorkbook(r, filename)
	if err != nil {
		return nil, err
	}
	return parseBOMRows(cells, filename), nil
}

// ParseBOMUpload dispatches on the file extension: .xlsx files go through
// excelize, everything else is treated as delimited text.
func ParseBOMUpload(r io.Reader, filename string) (*ParsedBOM, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		return ParseBOMWorkbook(r, filename)
	}
	return ParseBOMFile(r, filename)
}

// ParseBOMHierarchy parses a BOM file into its reconstructed forest
// without flattening to leaf parts. The verifier uses this entry point:
// it compares declared quantities node by node, so the propagated
// effective quantities are simply ignored downstream.
func ParseBOMHierarchy(r io.Reader, filename string) ([]*HierarchyNode, []string, error) {
	var cells [][]string
	var err error
	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		cells, err = readWorkbook(r, filename)
	} else {
		cells, err = readDelimited(r, filename)
	}
	if err != nil {
		return nil, nil, err
	}

	cm, headerIdx, ok := ResolveColumns(cells)
	if !ok {
		return nil, []string{fmt.Sprintf("%s: no recognizable header row found", filename)}, nil
	}
	var warnings []string
	if cm.Qty < 0 {
		warnings = append(warnings, fmt.Sprintf("%s: no quantity column found", filename))
	}
	rows := extractHierarchyRows(cells[headerIdx+1:], cm)
	return BuildHierarchy(rows), warnings, nil
}

// readDelimited reads and tokenizes a delimited text file line by line.
func readDelimited(r io.Reader, filename string) ([][]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	delim := ','
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			delim = DetectDelimiter(line)
			break
		}
	}

	cells := make([][]string, 0, len(lines))
	for _, line := range lines {
		cells = append(cells, TokenizeRow(line, delim))
	}
	return cells, nil
}

// readWorkbook reads the first sheet of an xlsx file into rows of cells.
func readWorkbook(r io.Reader, filename string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", filename, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", filename, err)
	}
	return rows, nil
}

// parseBOMRows is the shared core of both file paths. The parse strategy
// is selected once per file by header inspection: hierarchical when a
// level column is present, flat when only a part-number column is found,
// and zero results plus a warning when no usable header row exists.
func parseBOMRows(cells [][]string, filename string) *ParsedBOM {
	bom := &ParsedBOM{ToolModel: toolModelFromFilename(filename)}

	cm, headerIdx, ok := ResolveColumns(cells)
	if ok {
		if cm.Qty < 0 {
			bom.Warnings = append(bom.Warnings,
				fmt.Sprintf("%s: no quantity column found, file skipped", filename))
			return bom
		}
		rows := extractHierarchyRows(cells[headerIdx+1:], cm)
		forest := BuildHierarchy(rows)
		bom.LeafParts = ExtractLeafParts(forest)
		return bom
	}

	cm, headerIdx, ok = ResolveFlatColumns(cells)
	if ok {
		if cm.Qty < 0 {
			bom.Warnings = append(bom.Warnings,
				fmt.Sprintf("%s: no quantity column found, all quantities default to 1", filename))
		}
		bom.LeafParts = extractFlatParts(cells[headerIdx+1:], cm)
		return bom
	}

	bom.Warnings = append(bom.Warnings,
		fmt.Sprintf("%s: no recognizable header row found", filename))
	return bom
}

// extractHierarchyRows converts tokenized cells into Rows for the
// hierarchy builder. Rows with a non-numeric level or an empty part
// number are noise and skipped, per-row, without failing the file.
func extractHierarchyRows(cells [][]string, cm *ColumnMap) []Row {
	var rows []Row
	for _, rc := range cells {
		if isNoiseRow(rc) {
			continue
		}
		level, ok := ParseLevel(cellAt(rc, cm.Level))
		if !ok {
			continue
		}
		pn := strings.TrimSpace(cellAt(rc, cm.PartNumber))
		if pn == "" {
			continue
		}
		rows = append(rows, Row{
			Level:       level,
			PartNumber:  pn,
			Type:        strings.TrimSpace(cellAt(rc, cm.Type)),
			Qty:         ParseQuantity(cellAt(rc, cm.Qty), 1),
			Description: strings.TrimSpace(cellAt(rc, cm.Description)),
		})
	}
	return rows
}

// extractFlatParts handles level-less files: every data row is a leaf
// and no quantity multiplication applies. Re-parsing the engine's own
// flat output lands here and reproduces the original part/qty pairs.
func extractFlatParts(cells [][]string, cm *ColumnMap) []LeafPart {
	var parts []LeafPart
	for _, rc := range cells {
		if isNoiseRow(rc) {
			continue
		}
		pn := strings.TrimSpace(cellAt(rc, cm.PartNumber))
		if pn == "" {
			continue
		}
		qty := 1.0
		if cm.Qty >= 0 {
			qty = ParseQuantity(cellAt(rc, cm.Qty), 1)
		}
		group := strings.TrimSpace(cellAt(rc, cm.AssemblyGroup))
		if group == "" {
			group = pn
		}
		parts = append(parts, LeafPart{
			PartNumber:    pn,
			Description:   strings.TrimSpace(cellAt(rc, cm.Description)),
			Qty:           roundUpQty(qty),
			AssemblyGroup: group,
			Type:          strings.TrimSpace(cellAt(rc, cm.Type)),
		})
	}
	return parts
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func toolModelFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
