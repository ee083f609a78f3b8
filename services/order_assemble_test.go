package services

import (
	"strings"
	"testing"

	"bomtracker/testhelpers"
)

func sampleMergedResult() *MergedBOMResult {
	return MergeBOMs([]*ParsedBOM{
		bomOf("T-100",
			LeafPart{PartNumber: "BL-M8X30", Description: "Hex bolt", Qty: 8, AssemblyGroup: "FR-0100", Type: "Buy"},
			LeafPart{PartNumber: "NT-M8", Description: "Nut", Qty: 8, AssemblyGroup: "FR-0100", Type: "Buy"},
			LeafPart{PartNumber: "PL-0042", Description: "Base plate", Qty: 1, AssemblyGroup: "PL-0042", Type: "Buy"},
		),
		bomOf("T-200",
			LeafPart{PartNumber: "BL-M8X30", Description: "Hex bolt", Qty: 8, AssemblyGroup: "FR-0100", Type: "Buy"},
			LeafPart{PartNumber: "NT-M8", Description: "Nut", Qty: 12, AssemblyGroup: "FR-0100", Type: "Buy"},
		),
	})
}

func TestAssembleOrder(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	merged := sampleMergedResult()
	result, err := AssembleOrder(app, OrderImportInput{
		OrderNumber: "SO-1001",
		Customer:    "Acme Assembly",
		Merged:      merged,
		Mappings: []ToolMapping{
			{ToolModel: "T-100", ToolNumber: "001"},
			{ToolModel: "T-200", ToolNumber: "002"},
		},
	})
	if err != nil {
		t.Fatalf("AssembleOrder() error = %v", err)
	}

	t.Run("order record", func(t *testing.T) {
		order, err := app.FindRecordById("sales_orders", result.OrderID)
		if err != nil {
			t.Fatalf("order not persisted: %v", err)
		}
		if order.GetString("order_number") != "SO-1001" {
			t.Errorf("order_number = %q", order.GetString("order_number"))
		}
		if order.GetString("status") != "open" {
			t.Errorf("status = %q, want open", order.GetString("status"))
		}
	})

	t.Run("tools", func(t *testing.T) {
		if len(result.Tools) != 2 {
			t.Fatalf("expected 2 tools, got %d", len(result.Tools))
		}
		for _, tool := range result.Tools {
			if tool.ID == "" {
				t.Errorf("tool %s has no record id", tool.ToolNumber)
			}
		}
	})

	t.Run("line items", func(t *testing.T) {
		// BL-M8X30 shared, NT-M8 split into two buckets, PL-0042
		// variant-specific (absent from T-200).
		if len(result.LineItems) != 4 {
			t.Fatalf("expected 4 line items, got %d", len(result.LineItems))
		}

		var shared, variant int
		for _, li := range result.LineItems {
			if li.IsShared {
				shared++
				if len(li.ToolIDs) != 0 {
					t.Errorf("shared item %s must not carry tool ids", li.PartNumber)
				}
			} else {
				variant++
				if len(li.ToolIDs) == 0 {
					t.Errorf("variant item %s must carry tool ids", li.PartNumber)
				}
			}
		}
		if shared != 1 || variant != 3 {
			t.Errorf("shared = %d, variant = %d", shared, variant)
		}
	})

	t.Run("total quantities", func(t *testing.T) {
		for _, li := range result.LineItems {
			switch {
			case li.PartNumber == "BL-M8X30":
				// Shared across both tools: 8 each.
				if li.TotalQtyNeeded != 16 {
					t.Errorf("BL-M8X30 total = %d, want 16", li.TotalQtyNeeded)
				}
			case li.PartNumber == "NT-M8" && li.QtyPerUnit == 8:
				if li.TotalQtyNeeded != 8 {
					t.Errorf("NT-M8@8 total = %d, want 8", li.TotalQtyNeeded)
				}
			case li.PartNumber == "NT-M8" && li.QtyPerUnit == 12:
				if li.TotalQtyNeeded != 12 {
					t.Errorf("NT-M8@12 total = %d, want 12", li.TotalQtyNeeded)
				}
			case li.PartNumber == "PL-0042":
				if li.TotalQtyNeeded != 1 {
					t.Errorf("PL-0042 total = %d, want 1", li.TotalQtyNeeded)
				}
			}
		}
	})

	t.Run("catalog parts", func(t *testing.T) {
		for _, pn := range []string{"BL-M8X30", "NT-M8", "PL-0042", "FR-0100"} {
			rec, err := app.FindFirstRecordByFilter("parts",
				"part_number = {:pn}", map[string]any{"pn": pn})
			if err != nil || rec == nil {
				t.Errorf("catalog part %s not created: %v", pn, err)
			}
		}
		frame, _ := app.FindFirstRecordByFilter("parts",
			"part_number = 'FR-0100'")
		if frame == nil || !frame.GetBool("is_assembly") {
			t.Error("FR-0100 should be marked as an assembly")
		}
		plate, _ := app.FindFirstRecordByFilter("parts",
			"part_number = 'PL-0042'")
		if plate == nil || !plate.GetBool("is_assembly") {
			t.Error("a part that is its own group should be marked as an assembly")
		}
	})

	t.Run("relationships deduplicated", func(t *testing.T) {
		col, err := app.FindCollectionByNameOrId("part_relationships")
		if err != nil {
			t.Fatalf("collection: %v", err)
		}
		rels, err := app.FindRecordsByFilter(col, "parent != ''", "", 0, 0)
		if err != nil {
			t.Fatalf("load relationships: %v", err)
		}
		// FR-0100 -> BL-M8X30 and FR-0100 -> NT-M8 once each, despite
		// NT-M8 appearing in two quantity buckets.
		if len(rels) != 2 {
			t.Errorf("expected 2 relationship rows, got %d", len(rels))
		}
	})
}

func TestAssembleOrder_Rerun(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	in := OrderImportInput{
		OrderNumber: "SO-1001",
		Merged:      sampleMergedResult(),
		Mappings:    []ToolMapping{{ToolModel: "T-100", ToolNumber: "001"}, {ToolModel: "T-200", ToolNumber: "002"}},
	}
	if _, err := AssembleOrder(app, in); err != nil {
		t.Fatalf("first import: %v", err)
	}
	in.OrderNumber = "SO-1002"
	if _, err := AssembleOrder(app, in); err != nil {
		t.Fatalf("second import: %v", err)
	}

	// Catalog and relationship rows are upserts; a second import of the
	// same structure must not duplicate them.
	col, _ := app.FindCollectionByNameOrId("part_relationships")
	rels, err := app.FindRecordsByFilter(col, "parent != ''", "", 0, 0)
	if err != nil {
		t.Fatalf("load relationships: %v", err)
	}
	if len(rels) != 2 {
		t.Errorf("expected 2 relationship rows after re-import, got %d", len(rels))
	}

	partsCol, _ := app.FindCollectionByNameOrId("parts")
	parts, err := app.FindRecordsByFilter(partsCol, "part_number != ''", "", 0, 0)
	if err != nil {
		t.Fatalf("load parts: %v", err)
	}
	if len(parts) != 4 {
		t.Errorf("expected 4 catalog parts after re-import, got %d", len(parts))
	}
}

func TestAssembleOrder_DuplicateToolModel(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	// Two physical units of the T-100 variant in one order: every tool
	// number behind a model must count toward variant-specific totals.
	merged := MergeBOMs([]*ParsedBOM{
		bomOf("T-100",
			LeafPart{PartNumber: "NT-M8", Description: "Nut", Qty: 8, AssemblyGroup: "FR-0100"},
			LeafPart{PartNumber: "PL-0042", Description: "Base plate", Qty: 2, AssemblyGroup: "PL-0042"},
		),
		bomOf("T-200",
			LeafPart{PartNumber: "NT-M8", Description: "Nut", Qty: 8, AssemblyGroup: "FR-0100"},
		),
	})
	result, err := AssembleOrder(app, OrderImportInput{
		OrderNumber: "SO-1003",
		Merged:      merged,
		Mappings: []ToolMapping{
			{ToolModel: "T-100", ToolNumber: "001"},
			{ToolModel: "T-100", ToolNumber: "002"},
			{ToolModel: "T-200", ToolNumber: "003"},
		},
	})
	if err != nil {
		t.Fatalf("AssembleOrder() error = %v", err)
	}

	if len(result.Tools) != 3 {
		t.Fatalf("expected 3 tool records, got %d", len(result.Tools))
	}

	for _, li := range result.LineItems {
		switch li.PartNumber {
		case "PL-0042":
			// Only in T-100, but T-100 covers two tools.
			if len(li.ToolIDs) != 2 {
				t.Errorf("PL-0042 tool ids = %d, want 2", len(li.ToolIDs))
			}
			if li.TotalQtyNeeded != 4 {
				t.Errorf("PL-0042 total = %d, want 4", li.TotalQtyNeeded)
			}
		case "NT-M8":
			// Shared across all three tools.
			if !li.IsShared {
				t.Errorf("NT-M8 should be shared: %+v", li)
			}
			if li.TotalQtyNeeded != 24 {
				t.Errorf("NT-M8 total = %d, want 24", li.TotalQtyNeeded)
			}
		}
	}
}

func TestAssembleOrder_Guards(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	t.Run("nil merge", func(t *testing.T) {
		_, err := AssembleOrder(app, OrderImportInput{OrderNumber: "SO-1"})
		if err == nil || !strings.Contains(err.Error(), "no line items") {
			t.Errorf("expected no-line-items error, got %v", err)
		}
	})

	t.Run("missing order number", func(t *testing.T) {
		_, err := AssembleOrder(app, OrderImportInput{Merged: sampleMergedResult()})
		if err == nil || !strings.Contains(err.Error(), "order number") {
			t.Errorf("expected order-number error, got %v", err)
		}
	})
}
