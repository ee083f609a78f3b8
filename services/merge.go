package services

import "sort"

// ToolMapping associates a tool model (derived from a BOM filename) with
// the physical tool number it describes. Supplied by the caller; the
// engine never derives tool numbers.
type ToolMapping struct {
	ToolModel  string `json:"tool_model"`
	ToolNumber string `json:"tool_number"`
}

// MergedLineItem is one line of the consolidated order. IsShared holds
// only when the part is present in every source BOM at one uniform
// quantity; otherwise the item is scoped to the tool models that carry
// this exact quantity.
type MergedLineItem struct {
	PartNumber    string   `json:"part_number"`
	Description   string   `json:"description"`
	AssemblyGroup string   `json:"assembly_group"`
	Type          string   `json:"type"`
	QtyPerUnit    int      `json:"qty_per_unit"`
	ToolModels    []string `json:"tool_models"`
	IsShared      bool     `json:"is_shared"`
}

// MergedBOMResult is the merge output consumed by the preview UI and the
// order assembler.
type MergedBOMResult struct {
	LineItems    []MergedLineItem `json:"line_items"`
	TotalParts   int              `json:"total_parts"`
	SharedCount  int              `json:"shared_count"`
	VariantCount int              `json:"variant_count"`
	Warnings     []string         `json:"warnings,omitempty"`
}

// collapsedPart is one part's summed quantity within a single source.
type collapsedPart struct {
	qty         int
	description string
	group       string
	partType    string
}

// MergeBOMs unions the part numbers of K independently parsed BOMs and
// classifies each (part, quantity) pairing as shared or variant-specific.
// Line items are scoped by tool model; resolving models to physical tool
// numbers is the order assembler's job.
//
// Within each source, duplicate leaf rows for the same part number are
// summed first (a part may sit under several sibling branches). Across
// sources the per-source quantities are then grouped by value; a part is
// shared only when every source carries it and all sources agree on one
// quantity. A part present everywhere but at two different quantities
// produces two variant-specific items, never a blended shared one.
func MergeBOMs(boms []*ParsedBOM) *MergedBOMResult {
	result := &MergedBOMResult{}
	for _, b := range boms {
		result.Warnings = append(result.Warnings, b.Warnings...)
	}

	// Per-source collapse, preserving first-seen part order for
	// deterministic output.
	type sourceEntry struct {
		model string
		parts map[string]*collapsedPart
	}
	var partOrder []string
	seen := make(map[string]bool)
	sources := make([]sourceEntry, 0, len(boms))

	for _, b := range boms {
		entry := sourceEntry{model: b.ToolModel, parts: make(map[string]*collapsedPart)}
		for _, lp := range b.LeafParts {
			if !seen[lp.PartNumber] {
				seen[lp.PartNumber] = true
				partOrder = append(partOrder, lp.PartNumber)
			}
			if cp, ok := entry.parts[lp.PartNumber]; ok {
				cp.qty += lp.Qty
			} else {
				entry.parts[lp.PartNumber] = &collapsedPart{
					qty:         lp.Qty,
					description: lp.Description,
					group:       lp.AssemblyGroup,
					partType:    lp.Type,
				}
			}
		}
		sources = append(sources, entry)
	}

	for _, pn := range partOrder {
		// Group the per-source quantities by value, keeping bucket
		// order stable (first source to introduce a quantity wins).
		type bucket struct {
			qty    int
			models []string
			sample *collapsedPart
		}
		var buckets []*bucket
		byQty := make(map[int]*bucket)
		presentIn := 0

		for _, src := range sources {
			cp, ok := src.parts[pn]
			if !ok {
				continue
			}
			presentIn++
			b, ok := byQty[cp.qty]
			if !ok {
				b = &bucket{qty: cp.qty, sample: cp}
				byQty[cp.qty] = b
				buckets = append(buckets, b)
			}
			b.models = append(b.models, src.model)
		}

		shared := len(buckets) == 1 && presentIn == len(sources)
		for _, b := range buckets {
			result.LineItems = append(result.LineItems, MergedLineItem{
				PartNumber:    pn,
				Description:   b.sample.description,
				AssemblyGroup: b.sample.group,
				Type:          b.sample.partType,
				QtyPerUnit:    b.qty,
				ToolModels:    b.models,
				IsShared:      shared,
			})
		}
	}

	// Shared items first, then by assembly group, then by part number,
	// so the preview groups naturally by lineage.
	sort.SliceStable(result.LineItems, func(i, j int) bool {
		a, b := result.LineItems[i], result.LineItems[j]
		if a.IsShared != b.IsShared {
			return a.IsShared
		}
		if a.AssemblyGroup != b.AssemblyGroup {
			return a.AssemblyGroup < b.AssemblyGroup
		}
		return a.PartNumber < b.PartNumber
	})

	result.TotalParts = len(partOrder)
	for _, li := range result.LineItems {
		if li.IsShared {
			result.SharedCount++
		} else {
			result.VariantCount++
		}
	}
	return result
}
