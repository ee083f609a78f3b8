// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"bomtracker/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestPart creates a catalog part record and returns it.
func CreateTestPart(t *testing.T, app *pocketbase.PocketBase, partNumber, description string, isAssembly bool) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("parts")
	if err != nil {
		t.Fatalf("failed to find parts collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("part_number", partNumber)
	record.Set("description", description)
	record.Set("type", "Buy")
	record.Set("is_assembly", isAssembly)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test part: %v", err)
	}

	return record
}

// CreateTestRelationship creates a parent-child part relationship record.
func CreateTestRelationship(t *testing.T, app *pocketbase.PocketBase, parentID, childID string, qty float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("part_relationships")
	if err != nil {
		t.Fatalf("failed to find part_relationships collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("parent", parentID)
	record.Set("child", childID)
	record.Set("qty", qty)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test relationship: %v", err)
	}

	return record
}

// CreateTestOrder creates a sales order record and returns it.
func CreateTestOrder(t *testing.T, app *pocketbase.PocketBase, orderNumber string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("sales_orders")
	if err != nil {
		t.Fatalf("failed to find sales_orders collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("order_number", orderNumber)
	record.Set("customer", "Test Customer")
	record.Set("status", "open")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test order: %v", err)
	}

	return record
}

// CreateTestTool creates a tool record linked to an order.
func CreateTestTool(t *testing.T, app *pocketbase.PocketBase, orderID, toolModel, toolNumber string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("tools")
	if err != nil {
		t.Fatalf("failed to find tools collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("order", orderID)
	record.Set("tool_model", toolModel)
	record.Set("tool_number", toolNumber)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test tool: %v", err)
	}

	return record
}

// CreateTestLineItem creates an order line item record. partID may be
// empty to simulate a legacy text-only line.
func CreateTestLineItem(t *testing.T, app *pocketbase.PocketBase, orderID, partID, partNumber, assemblyGroup string, qtyPerUnit int) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("order_line_items")
	if err != nil {
		t.Fatalf("failed to find order_line_items collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("order", orderID)
	record.Set("part_number", partNumber)
	record.Set("assembly_group", assemblyGroup)
	record.Set("qty_per_unit", qtyPerUnit)
	record.Set("total_qty_needed", qtyPerUnit)
	record.Set("is_shared", true)
	if partID != "" {
		record.Set("part", partID)
	}

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test line item: %v", err)
	}

	return record
}
