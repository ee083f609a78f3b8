package services

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// DiscrepancyType classifies one finding of the structural verifier.
type DiscrepancyType string

const (
	DiscrepancyMissingInStore      DiscrepancyType = "missing_in_store"
	DiscrepancyMissingInSource     DiscrepancyType = "missing_in_source"
	DiscrepancyQuantityMismatch    DiscrepancyType = "quantity_mismatch"
	DiscrepancyRelationshipMissing DiscrepancyType = "relationship_missing"
	DiscrepancyLegacyTextOnly      DiscrepancyType = "legacy_text_only"
)

// Severity ranks a discrepancy for the report.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Discrepancy is one finding from diffing the hierarchical source file
// against the persisted parts and relationships.
type Discrepancy struct {
	Type             DiscrepancyType `json:"type"`
	Severity         Severity        `json:"severity"`
	PartNumber       string          `json:"part_number"`
	ParentPartNumber string          `json:"parent_part_number,omitempty"`
	Message          string          `json:"message"`
	SourceQty        *float64        `json:"source_qty,omitempty"`
	StoredQty        *float64        `json:"stored_qty,omitempty"`
	LegacyGroup      string          `json:"legacy_group,omitempty"`
}

// VerificationReport is the full outcome of a post-import audit of one
// BOM file: the categorized discrepancy list plus summary counters and
// the reconstructed source hierarchy for the report dump.
type VerificationReport struct {
	FileName             string           `json:"file_name"`
	ToolModel            string           `json:"tool_model"`
	GeneratedAt          time.Time        `json:"generated_at"`
	Discrepancies        []Discrepancy    `json:"discrepancies"`
	Warnings             []string         `json:"warnings,omitempty"`
	TotalParts           int              `json:"total_parts"`
	PartsInStore         int              `json:"parts_in_store"`
	PartsMissing         int              `json:"parts_missing"`
	RelationshipsChecked int              `json:"relationships_checked"`
	RelationshipsMissing int              `json:"relationships_missing"`
	LegacyOnlyCount      int              `json:"legacy_only_count"`
	Hierarchy            []*HierarchyNode `json:"-"`
}

// VerifyBOMStructure independently re-parses one BOM file and diffs the
// reconstructed hierarchy against the persisted parts/relationships
// snapshot, to catch migration and import errors.
//
// The comparison uses declared quantities node by node, not propagated
// totals. Additionally, order line items that still carry only the
// legacy free-text assembly label (no structured part link) are reported
// as informational findings, independent of the hierarchy walk.
func VerifyBOMStructure(app *pocketbase.PocketBase, r io.Reader, filename, orderID string) (*VerificationReport, error) {
	forest, warnings, err := ParseBOMHierarchy(r, filename)
	if err != nil {
		return nil, err
	}

	rep := &VerificationReport{
		FileName:    filename,
		ToolModel:   toolModelFromFilename(filename),
		GeneratedAt: time.Now(),
		Warnings:    warnings,
		Hierarchy:   forest,
	}

	partByPN, relQty, err := loadStructureSnapshot(app)
	if err != nil {
		return nil, err
	}

	sourcePNs := make(map[string]bool)
	var walk func(n, parent *HierarchyNode)
	walk = func(n, parent *HierarchyNode) {
		rep.TotalParts++
		sourcePNs[n.PartNumber] = true

		partRec, inStore := partByPN[n.PartNumber]
		if !inStore {
			rep.PartsMissing++
			rep.Discrepancies = append(rep.Discrepancies, Discrepancy{
				Type:       DiscrepancyMissingInStore,
				Severity:   SeverityError,
				PartNumber: n.PartNumber,
				Message:    "part exists in the source file but not in the parts catalog",
			})
		} else {
			rep.PartsInStore++
		}

		if parent != nil && inStore {
			if parentRec, ok := partByPN[parent.PartNumber]; ok {
				rep.RelationshipsChecked++
				storedQty, exists := relQty[parentRec.Id+"|"+partRec.Id]
				switch {
				case !exists:
					rep.RelationshipsMissing++
					rep.Discrepancies = append(rep.Discrepancies, Discrepancy{
						Type:             DiscrepancyRelationshipMissing,
						Severity:         SeverityError,
						PartNumber:       n.PartNumber,
						ParentPartNumber: parent.PartNumber,
						Message:          "declared parent-child relationship is not persisted",
					})
				case storedQty != n.OwnQty:
					src, stored := n.OwnQty, storedQty
					rep.Discrepancies = append(rep.Discrepancies, Discrepancy{
						Type:             DiscrepancyQuantityMismatch,
						Severity:         SeverityWarning,
						PartNumber:       n.PartNumber,
						ParentPartNumber: parent.PartNumber,
						Message:          "declared quantity differs from the persisted relationship",
						SourceQty:        &src,
						StoredQty:        &stored,
					})
				}
			}
		}

		for _, c := range n.Children {
			walk(c, n)
		}
	}
	for _, root := range forest {
		walk(root, nil)
	}

	if orderID != "" {
		auditOrderLineItems(app, orderID, sourcePNs, rep)
	}

	return rep, nil
}

// loadStructureSnapshot loads the catalog parts keyed by part number and
// the persisted relationships keyed by "parentID|childID".
func loadStructureSnapshot(app *pocketbase.PocketBase) (map[string]*core.Record, map[string]float64, error) {
	partsCol, err := app.FindCollectionByNameOrId("parts")
	if err != nil {
		return nil, nil, fmt.Errorf("parts collection not found: %w", err)
	}
	parts, err := app.FindRecordsByFilter(partsCol, "part_number != ''", "", 0, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("load parts: %w", err)
	}
	partByPN := make(map[string]*core.Record, len(parts))
	for _, p := range parts {
		partByPN[p.GetString("part_number")] = p
	}

	relQty := make(map[string]float64)
	relCol, err := app.FindCollectionByNameOrId("part_relationships")
	if err != nil {
		return partByPN, relQty, nil
	}
	rels, err := app.FindRecordsByFilter(relCol, "parent != ''", "", 0, 0)
	if err != nil {
		return partByPN, relQty, nil
	}
	for _, rel := range rels {
		key := rel.GetString("parent") + "|" + rel.GetString("child")
		relQty[key] = rel.GetFloat("qty")
	}
	return partByPN, relQty, nil
}

// auditOrderLineItems reports, independent of the hierarchy walk, line
// items that only carry the legacy free-text assembly label and line
// items whose part never appears in the source file.
func auditOrderLineItems(app *pocketbase.PocketBase, orderID string, sourcePNs map[string]bool, rep *VerificationReport) {
	col, err := app.FindCollectionByNameOrId("order_line_items")
	if err != nil {
		return
	}
	items, err := app.FindRecordsByFilter(col,
		"order = {:orderId}", "", 0, 0, map[string]any{"orderId": orderID})
	if err != nil {
		return
	}

	for _, li := range items {
		pn := li.GetString("part_number")
		group := li.GetString("assembly_group")

		if li.GetString("part") == "" && group != "" {
			rep.LegacyOnlyCount++
			rep.Discrepancies = append(rep.Discrepancies, Discrepancy{
				Type:        DiscrepancyLegacyTextOnly,
				Severity:    SeverityInfo,
				PartNumber:  pn,
				Message:     "line item carries only the legacy assembly text, no structured part link",
				LegacyGroup: group,
			})
		}

		if pn != "" && !sourcePNs[pn] {
			rep.Discrepancies = append(rep.Discrepancies, Discrepancy{
				Type:       DiscrepancyMissingInSource,
				Severity:   SeverityWarning,
				PartNumber: pn,
				Message:    "order line item does not appear in the source file",
			})
		}
	}
}

// RenderReport produces the deterministic plain-text rendering of a
// verification report: header, summary counts, discrepancies grouped by
// severity, then the full indented source hierarchy. Operators read
// this directly, so the section order and labels are stable.
func RenderReport(rep *VerificationReport) string {
	var b strings.Builder

	b.WriteString("BOM STRUCTURE VERIFICATION REPORT\n")
	b.WriteString("=================================\n")
	fmt.Fprintf(&b, "File:       %s\n", rep.FileName)
	fmt.Fprintf(&b, "Tool model: %s\n", rep.ToolModel)
	fmt.Fprintf(&b, "Generated:  %s\n", rep.GeneratedAt.Format("2006-01-02 15:04:05"))
	b.WriteString("\n")

	b.WriteString("SUMMARY\n")
	b.WriteString("-------\n")
	fmt.Fprintf(&b, "Parts in source file:      %d\n", rep.TotalParts)
	fmt.Fprintf(&b, "Parts found in store:      %d\n", rep.PartsInStore)
	fmt.Fprintf(&b, "Parts missing from store:  %d\n", rep.PartsMissing)
	fmt.Fprintf(&b, "Relationships verified:    %d\n", rep.RelationshipsChecked-rep.RelationshipsMissing)
	fmt.Fprintf(&b, "Relationships missing:     %d\n", rep.RelationshipsMissing)
	fmt.Fprintf(&b, "Legacy text-only items:    %d\n", rep.LegacyOnlyCount)
	b.WriteString("\n")

	writeSeveritySection(&b, "ERRORS", SeverityError, rep.Discrepancies)
	writeSeveritySection(&b, "WARNINGS", SeverityWarning, rep.Discrepancies)
	writeSeveritySection(&b, "INFO", SeverityInfo, rep.Discrepancies)

	b.WriteString("SOURCE HIERARCHY\n")
	b.WriteString("----------------\n")
	for _, root := range rep.Hierarchy {
		writeHierarchyNode(&b, root, 0)
	}

	return b.String()
}

func writeSeveritySection(b *strings.Builder, title string, sev Severity, all []Discrepancy) {
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("-", len(title)) + "\n")
	count := 0
	for _, d := range all {
		if d.Severity != sev {
			continue
		}
		count++
		fmt.Fprintf(b, "[%s] %s", d.Type, d.PartNumber)
		if d.ParentPartNumber != "" {
			fmt.Fprintf(b, " (under %s)", d.ParentPartNumber)
		}
		fmt.Fprintf(b, ": %s", d.Message)
		if d.SourceQty != nil && d.StoredQty != nil {
			fmt.Fprintf(b, " (source qty %s, stored qty %s)",
				formatQty(*d.SourceQty), formatQty(*d.StoredQty))
		}
		b.WriteString("\n")
	}
	if count == 0 {
		b.WriteString("none\n")
	}
	b.WriteString("\n")
}

func writeHierarchyNode(b *strings.Builder, n *HierarchyNode, depth int) {
	fmt.Fprintf(b, "%s%s  qty=%s", strings.Repeat("  ", depth), n.PartNumber, formatQty(n.OwnQty))
	if n.Description != "" {
		fmt.Fprintf(b, "  %s", n.Description)
	}
	b.WriteString("\n")
	for _, c := range n.Children {
		writeHierarchyNode(b, c, depth+1)
	}
}

func formatQty(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%g", q)
}
