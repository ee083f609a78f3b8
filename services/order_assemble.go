package services

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// OrderImportInput carries everything needed to persist a merged order.
type OrderImportInput struct {
	OrderNumber string
	Customer    string
	Merged      *MergedBOMResult
	Mappings    []ToolMapping
}

// ImportedTool describes one tool record created for the order.
type ImportedTool struct {
	ID         string `json:"id"`
	ToolModel  string `json:"tool_model"`
	ToolNumber string `json:"tool_number"`
}

// ImportedLineItem describes one persisted order line item. PartID is
// set only when the part number resolved to (or created) a catalog
// entry; ToolIDs is present only for variant-specific items.
type ImportedLineItem struct {
	ID             string   `json:"id"`
	PartNumber     string   `json:"part_number"`
	PartID         string   `json:"part_id,omitempty"`
	AssemblyGroup  string   `json:"assembly_group"`
	QtyPerUnit     int      `json:"qty_per_unit"`
	TotalQtyNeeded int      `json:"total_qty_needed"`
	ToolIDs        []string `json:"tool_ids,omitempty"`
	IsShared       bool     `json:"is_shared"`
}

// ImportedOrder is the assembled output handed back to the caller after
// persistence. Warnings accumulate catalog and relationship write
// failures; the import itself always proceeds best-effort.
type ImportedOrder struct {
	OrderID     string             `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	Tools       []ImportedTool     `json:"tools"`
	LineItems   []ImportedLineItem `json:"line_items"`
	Warnings    []string           `json:"warnings,omitempty"`
}

// AssembleOrder turns a merged BOM into persisted order, tool, part,
// relationship and line-item records.
//
// Catalog parts are resolved by part number and created when absent; a
// part whose assembly group equals its own part number is marked as an
// assembly. Parent-child relationship rows are deduplicated by a
// (parentID, childID) set computed before any write, so merging many
// near-identical tool variants never creates duplicate relationship
// rows. Write failures for individual parts or relationships become
// warnings, never aborts.
func AssembleOrder(app *pocketbase.PocketBase, in OrderImportInput) (*ImportedOrder, error) {
	if in.Merged == nil || len(in.Merged.LineItems) == 0 {
		return nil, fmt.Errorf("no line items to import")
	}
	if in.OrderNumber == "" {
		return nil, fmt.Errorf("order number is required")
	}

	ordersCol, err := app.FindCollectionByNameOrId("sales_orders")
	if err != nil {
		return nil, fmt.Errorf("sales_orders collection not found: %w", err)
	}
	toolsCol, err := app.FindCollectionByNameOrId("tools")
	if err != nil {
		return nil, fmt.Errorf("tools collection not found: %w", err)
	}
	lineItemsCol, err := app.FindCollectionByNameOrId("order_line_items")
	if err != nil {
		return nil, fmt.Errorf("order_line_items collection not found: %w", err)
	}

	result := &ImportedOrder{OrderNumber: in.OrderNumber}
	result.Warnings = append(result.Warnings, in.Merged.Warnings...)

	order := core.NewRecord(ordersCol)
	order.Set("order_number", in.OrderNumber)
	order.Set("customer", in.Customer)
	order.Set("status", "open")
	if err := app.Save(order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	result.OrderID = order.Id

	// One model may map to several physical tools in the same order, so
	// the index keeps every tool id per model.
	modelToToolIDs := make(map[string][]string, len(in.Mappings))
	for _, m := range in.Mappings {
		tool := core.NewRecord(toolsCol)
		tool.Set("order", order.Id)
		tool.Set("tool_model", m.ToolModel)
		tool.Set("tool_number", m.ToolNumber)
		if err := app.Save(tool); err != nil {
			return nil, fmt.Errorf("create tool %s: %w", m.ToolNumber, err)
		}
		modelToToolIDs[m.ToolModel] = append(modelToToolIDs[m.ToolModel], tool.Id)
		result.Tools = append(result.Tools, ImportedTool{
			ID:         tool.Id,
			ToolModel:  m.ToolModel,
			ToolNumber: m.ToolNumber,
		})
	}

	partIDs := resolveCatalogParts(app, in.Merged.LineItems, result)
	createPartRelationships(app, in.Merged.LineItems, partIDs, result)

	totalTools := len(in.Mappings)
	for _, li := range in.Merged.LineItems {
		record := core.NewRecord(lineItemsCol)
		record.Set("order", order.Id)
		record.Set("part_number", li.PartNumber)
		record.Set("description", li.Description)
		record.Set("assembly_group", li.AssemblyGroup)
		record.Set("qty_per_unit", li.QtyPerUnit)
		record.Set("is_shared", li.IsShared)

		if partID := partIDs[li.PartNumber]; partID != "" {
			record.Set("part", partID)
		}

		var toolIDs []string
		applicable := totalTools
		if !li.IsShared {
			applicable = 0
			for _, model := range li.ToolModels {
				ids := modelToToolIDs[model]
				toolIDs = append(toolIDs, ids...)
				applicable += len(ids)
			}
			record.Set("tools", toolIDs)
		}
		total := li.QtyPerUnit * applicable
		record.Set("total_qty_needed", total)

		if err := app.Save(record); err != nil {
			return nil, fmt.Errorf("create line item %s: %w", li.PartNumber, err)
		}
		result.LineItems = append(result.LineItems, ImportedLineItem{
			ID:             record.Id,
			PartNumber:     li.PartNumber,
			PartID:         partIDs[li.PartNumber],
			AssemblyGroup:  li.AssemblyGroup,
			QtyPerUnit:     li.QtyPerUnit,
			TotalQtyNeeded: total,
			ToolIDs:        toolIDs,
			IsShared:       li.IsShared,
		})
	}

	return result, nil
}

// resolveCatalogParts finds or creates a catalog part per line item plus
// one per distinct assembly group, and returns part number -> record id.
// Unresolvable parts map to "" and produce a warning.
func resolveCatalogParts(app *pocketbase.PocketBase, items []MergedLineItem, result *ImportedOrder) map[string]string {
	partsCol, err := app.FindCollectionByNameOrId("parts")
	if err != nil {
		result.Warnings = append(result.Warnings, "parts collection not found, catalog links skipped")
		return map[string]string{}
	}

	partIDs := make(map[string]string)
	resolve := func(pn, description, partType string, isAssembly bool) {
		if pn == "" {
			return
		}
		if _, done := partIDs[pn]; done && !isAssembly {
			return
		}
		existing, err := app.FindFirstRecordByFilter(partsCol,
			"part_number = {:pn}", map[string]any{"pn": pn})
		if err == nil && existing != nil {
			if isAssembly && !existing.GetBool("is_assembly") {
				existing.Set("is_assembly", true)
				if err := app.Save(existing); err != nil {
					log.Printf("order_assemble: mark assembly %s: %v", pn, err)
				}
			}
			partIDs[pn] = existing.Id
			return
		}
		if _, done := partIDs[pn]; done {
			return
		}

		record := core.NewRecord(partsCol)
		record.Set("part_number", pn)
		record.Set("description", description)
		record.Set("type", partType)
		record.Set("is_assembly", isAssembly)
		if err := app.Save(record); err != nil {
			log.Printf("order_assemble: create part %s: %v", pn, err)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("part %s could not be resolved to a catalog entry", pn))
			partIDs[pn] = ""
			return
		}
		partIDs[pn] = record.Id
	}

	for _, li := range items {
		resolve(li.PartNumber, li.Description, li.Type, li.AssemblyGroup == li.PartNumber)
	}
	for _, li := range items {
		if li.AssemblyGroup != "" && li.AssemblyGroup != li.PartNumber {
			resolve(li.AssemblyGroup, "", "", true)
		}
	}
	return partIDs
}

// createPartRelationships writes parent-child rows between each assembly
// and its immediate children. The dedup set is computed before any write
// is issued; writes themselves are sequential and idempotent by upsert,
// so a partially failed import can simply be re-run.
func createPartRelationships(app *pocketbase.PocketBase, items []MergedLineItem, partIDs map[string]string, result *ImportedOrder) {
	relCol, err := app.FindCollectionByNameOrId("part_relationships")
	if err != nil {
		result.Warnings = append(result.Warnings, "part_relationships collection not found, structure links skipped")
		return
	}

	type relPair struct {
		parentID, childID string
		qty               int
		assembly          string
	}
	seen := make(map[string]bool)
	var pairs []relPair
	for _, li := range items {
		if li.AssemblyGroup == "" || li.AssemblyGroup == li.PartNumber {
			continue
		}
		parentID := partIDs[li.AssemblyGroup]
		childID := partIDs[li.PartNumber]
		if parentID == "" || childID == "" {
			continue
		}
		key := parentID + "|" + childID
		if seen[key] {
			continue
		}
		seen[key] = true
		pairs = append(pairs, relPair{parentID, childID, li.QtyPerUnit, li.AssemblyGroup})
	}

	for _, p := range pairs {
		existing, err := app.FindFirstRecordByFilter(relCol,
			"parent = {:parent} && child = {:child}",
			map[string]any{"parent": p.parentID, "child": p.childID})
		if err == nil && existing != nil {
			continue
		}
		record := core.NewRecord(relCol)
		record.Set("parent", p.parentID)
		record.Set("child", p.childID)
		record.Set("qty", p.qty)
		if err := app.Save(record); err != nil {
			log.Printf("order_assemble: relationship under %s: %v", p.assembly, err)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("assembly %s: relationship write failed", p.assembly))
		}
	}
}
