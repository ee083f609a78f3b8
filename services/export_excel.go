package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/xuri/excelize/v2"
)

// OrderExportRow is one worksheet row of the merged-order download.
type OrderExportRow struct {
	Index          int
	PartNumber     string
	Description    string
	QtyPerUnit     int
	TotalQtyNeeded int
	Tools          string
	AssemblyGroup  string
	IsShared       bool
}

// OrderExportData is everything needed to render the order workbook.
type OrderExportData struct {
	OrderNumber string
	Customer    string
	CreatedDate string
	ToolCount   int
	Rows        []OrderExportRow
}

// BuildOrderExportData loads a persisted order and flattens its line
// items into export rows. Shared items sort first, matching the preview.
func BuildOrderExportData(app *pocketbase.PocketBase, orderID string) (*OrderExportData, error) {
	order, err := app.FindRecordById("sales_orders", orderID)
	if err != nil {
		return nil, fmt.Errorf("order not found: %w", err)
	}

	toolsCol, err := app.FindCollectionByNameOrId("tools")
	if err != nil {
		return nil, fmt.Errorf("tools collection not found: %w", err)
	}
	tools, err := app.FindRecordsByFilter(toolsCol,
		"order = {:orderId}", "tool_number", 0, 0, map[string]any{"orderId": orderID})
	if err != nil {
		return nil, fmt.Errorf("load tools: %w", err)
	}
	toolNumberByID := make(map[string]string, len(tools))
	for _, t := range tools {
		toolNumberByID[t.Id] = t.GetString("tool_number")
	}

	itemsCol, err := app.FindCollectionByNameOrId("order_line_items")
	if err != nil {
		return nil, fmt.Errorf("order_line_items collection not found: %w", err)
	}
	items, err := app.FindRecordsByFilter(itemsCol,
		"order = {:orderId}", "-is_shared,assembly_group,part_number", 0, 0,
		map[string]any{"orderId": orderID})
	if err != nil {
		return nil, fmt.Errorf("load line items: %w", err)
	}

	data := &OrderExportData{
		OrderNumber: order.GetString("order_number"),
		Customer:    order.GetString("customer"),
		CreatedDate: order.GetDateTime("created").Time().Format("2006-01-02"),
		ToolCount:   len(tools),
	}

	for i, li := range items {
		toolsLabel := "All tools"
		if !li.GetBool("is_shared") {
			var numbers []string
			for _, id := range li.GetStringSlice("tools") {
				if n, ok := toolNumberByID[id]; ok {
					numbers = append(numbers, n)
				}
			}
			toolsLabel = strings.Join(numbers, ", ")
		}
		data.Rows = append(data.Rows, OrderExportRow{
			Index:          i + 1,
			PartNumber:     li.GetString("part_number"),
			Description:    li.GetString("description"),
			QtyPerUnit:     int(li.GetFloat("qty_per_unit")),
			TotalQtyNeeded: int(li.GetFloat("total_qty_needed")),
			Tools:          toolsLabel,
			AssemblyGroup:  li.GetString("assembly_group"),
			IsShared:       li.GetBool("is_shared"),
		})
	}

	return data, nil
}

// GenerateOrderExcel renders the merged order as an xlsx workbook and
// returns the file contents.
func GenerateOrderExcel(data *OrderExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Sheet names are capped at 31 chars by the format.
	sheetName := data.OrderNumber
	if len(sheetName) > 31 {
		sheetName = sheetName[:31]
	}
	if sheetName == "" {
		sheetName = "Order"
	}
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	columns := []string{"A", "B", "C", "D", "E", "F", "G"}
	lastCol := columns[len(columns)-1]

	widths := []float64{6, 22, 40, 12, 12, 24, 22}
	for i, col := range columns {
		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}
	subtitleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create subtitle style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	sharedStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#EEF7EE"}, Pattern: 1},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create shared style: %w", err)
	}
	variantStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create variant style: %w", err)
	}

	// Header rows 1-3: order number, customer, date + tool count.
	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheetName, "A1", sanitizeExcelCell("Order "+data.OrderNumber))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle)

	if data.Customer != "" {
		if err := f.MergeCell(sheetName, "A2", lastCol+"2"); err != nil {
			return nil, fmt.Errorf("merge customer: %w", err)
		}
		f.SetCellValue(sheetName, "A2", "Customer: "+sanitizeExcelCell(data.Customer))
		f.SetCellStyle(sheetName, "A2", lastCol+"2", subtitleStyle)
	}

	if err := f.MergeCell(sheetName, "A3", lastCol+"3"); err != nil {
		return nil, fmt.Errorf("merge date: %w", err)
	}
	f.SetCellValue(sheetName, "A3",
		fmt.Sprintf("Date: %s    Tools: %d", data.CreatedDate, data.ToolCount))
	f.SetCellStyle(sheetName, "A3", lastCol+"3", subtitleStyle)

	// Row 5: column headers. The flat layout round-trips through the
	// level-less import path, so the header names stay parser-friendly.
	headers := []string{"No.", "Part Number", "Description", "Qty", "Total Qty", "Tools", "Assembly Group"}
	for i, h := range headers {
		f.SetCellValue(sheetName, fmt.Sprintf("%s5", columns[i]), h)
	}
	f.SetCellStyle(sheetName, "A5", lastCol+"5", headerStyle)

	row := 6
	for _, r := range data.Rows {
		rowStr := fmt.Sprintf("%d", row)
		f.SetCellValue(sheetName, "A"+rowStr, r.Index)
		f.SetCellValue(sheetName, "B"+rowStr, sanitizeExcelCell(r.PartNumber))
		f.SetCellValue(sheetName, "C"+rowStr, sanitizeExcelCell(r.Description))
		f.SetCellValue(sheetName, "D"+rowStr, r.QtyPerUnit)
		f.SetCellValue(sheetName, "E"+rowStr, r.TotalQtyNeeded)
		f.SetCellValue(sheetName, "F"+rowStr, sanitizeExcelCell(r.Tools))
		f.SetCellValue(sheetName, "G"+rowStr, sanitizeExcelCell(r.AssemblyGroup))

		style := variantStyle
		if r.IsShared {
			style = sharedStyle
		}
		f.SetCellStyle(sheetName, "A"+rowStr, lastCol+rowStr, style)
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
