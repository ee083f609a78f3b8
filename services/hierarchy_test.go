package services

import "testing"

func TestBuildHierarchy_QuantityPropagation(t *testing.T) {
	rows := []Row{
		{Level: 0, PartNumber: "TL-1000", Qty: 1},
		{Level: 1, PartNumber: "FR-0100", Qty: 2},
		{Level: 2, PartNumber: "BL-M8X30", Qty: 4},
	}
	forest := BuildHierarchy(rows)
	if len(forest) != 1 {
		t.Fatalf("expected 1 root, got %d", len(forest))
	}

	root := forest[0]
	if root.EffectiveQty != 1 {
		t.Errorf("root EffectiveQty = %v, want 1", root.EffectiveQty)
	}
	frame := root.Children[0]
	if frame.EffectiveQty != 2 {
		t.Errorf("frame EffectiveQty = %v, want 2", frame.EffectiveQty)
	}
	bolt := frame.Children[0]
	if bolt.EffectiveQty != 8 {
		t.Errorf("bolt EffectiveQty = %v, want 8", bolt.EffectiveQty)
	}
	if !bolt.IsLeaf {
		t.Error("deepest node should be a leaf")
	}
	if root.IsLeaf || frame.IsLeaf {
		t.Error("nodes with children must not be leaves")
	}
}

func TestBuildHierarchy_LeafLookahead(t *testing.T) {
	// A's next row descends: not a leaf. B's next row is a sibling: leaf.
	// C ends the file: leaf.
	rows := []Row{
		{Level: 0, PartNumber: "A", Qty: 1},
		{Level: 1, PartNumber: "B", Qty: 1},
		{Level: 1, PartNumber: "C", Qty: 1},
	}
	forest := BuildHierarchy(rows)
	a := forest[0]
	if a.IsLeaf {
		t.Error("A has children, must not be a leaf")
	}
	if !a.Children[0].IsLeaf || !a.Children[1].IsLeaf {
		t.Error("B and C should both be leaves")
	}
}

func TestBuildHierarchy_DedentEvictsDeeperAncestors(t *testing.T) {
	// After dedenting back to level 1, the old level-2 entry must not be
	// picked up as a parent for the following level-2 row.
	rows := []Row{
		{Level: 0, PartNumber: "TOOL", Qty: 1},
		{Level: 1, PartNumber: "ASM-A", Qty: 1},
		{Level: 2, PartNumber: "A-1", Qty: 2},
		{Level: 1, PartNumber: "ASM-B", Qty: 3},
		{Level: 2, PartNumber: "B-1", Qty: 2},
	}
	forest := BuildHierarchy(rows)
	tool := forest[0]
	if len(tool.Children) != 2 {
		t.Fatalf("expected 2 assemblies under root, got %d", len(tool.Children))
	}
	asmB := tool.Children[1]
	if asmB.PartNumber != "ASM-B" {
		t.Fatalf("unexpected second child %q", asmB.PartNumber)
	}
	if len(asmB.Children) != 1 || asmB.Children[0].PartNumber != "B-1" {
		t.Fatalf("B-1 should be parented under ASM-B, got %+v", asmB.Children)
	}
	if got := asmB.Children[0].EffectiveQty; got != 6 {
		t.Errorf("B-1 EffectiveQty = %v, want 6", got)
	}
}

func TestBuildHierarchy_SkippedLevelFindsNearestAncestor(t *testing.T) {
	// A file jumping from level 1 straight to level 3 still parents the
	// deep row under the level-1 assembly.
	rows := []Row{
		{Level: 1, PartNumber: "ASM", Qty: 2},
		{Level: 3, PartNumber: "DEEP", Qty: 5},
	}
	forest := BuildHierarchy(rows)
	asm := forest[0]
	if len(asm.Children) != 1 {
		t.Fatalf("expected DEEP parented under ASM, got %d children", len(asm.Children))
	}
	deep := asm.Children[0]
	if deep.EffectiveQty != 10 {
		t.Errorf("DEEP EffectiveQty = %v, want 10", deep.EffectiveQty)
	}
	if deep.AssemblyGroup != "ASM" {
		t.Errorf("DEEP AssemblyGroup = %q, want ASM", deep.AssemblyGroup)
	}
}

func TestBuildHierarchy_MultipleRoots(t *testing.T) {
	rows := []Row{
		{Level: 0, PartNumber: "R1", Qty: 1},
		{Level: 0, PartNumber: "R2", Qty: 1},
	}
	forest := BuildHierarchy(rows)
	if len(forest) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(forest))
	}
	if !forest[0].IsLeaf || !forest[1].IsLeaf {
		t.Error("childless roots should both be leaves")
	}
}

func TestBuildHierarchy_AssemblyGroups(t *testing.T) {
	rows := []Row{
		{Level: 0, PartNumber: "TOOL", Qty: 1},
		{Level: 1, PartNumber: "ASM-A", Qty: 1},
		{Level: 2, PartNumber: "SUB", Qty: 1},
		{Level: 3, PartNumber: "LEAF", Qty: 1},
	}
	forest := BuildHierarchy(rows)
	tool := forest[0]
	if tool.AssemblyGroup != "TOOL" {
		t.Errorf("root AssemblyGroup = %q, want TOOL", tool.AssemblyGroup)
	}
	asm := tool.Children[0]
	if asm.AssemblyGroup != "ASM-A" {
		t.Errorf("level-1 AssemblyGroup = %q, want ASM-A", asm.AssemblyGroup)
	}
	leaf := asm.Children[0].Children[0]
	if leaf.AssemblyGroup != "ASM-A" {
		t.Errorf("deep leaf AssemblyGroup = %q, want ASM-A", leaf.AssemblyGroup)
	}
}

func TestBuildHierarchy_GroupFallsBackToRoot(t *testing.T) {
	// No level-1 ancestor exists: group falls back to the level-0 root.
	rows := []Row{
		{Level: 0, PartNumber: "TOOL", Qty: 1},
		{Level: 2, PartNumber: "ORPHANISH", Qty: 1},
	}
	forest := BuildHierarchy(rows)
	child := forest[0].Children[0]
	if child.AssemblyGroup != "TOOL" {
		t.Errorf("AssemblyGroup = %q, want TOOL", child.AssemblyGroup)
	}
}

func TestExtractLeafParts(t *testing.T) {
	rows := []Row{
		{Level: 0, PartNumber: "TL-1000", Qty: 1, Description: "Tool"},
		{Level: 1, PartNumber: "FR-0100", Qty: 2, Description: "Frame", Type: "Make"},
		{Level: 2, PartNumber: "BL-M8X30", Qty: 4, Description: "Bolt", Type: "Buy"},
		{Level: 1, PartNumber: "PL-0042", Qty: 1, Description: "Plate", Type: "Buy"},
	}
	parts := ExtractLeafParts(BuildHierarchy(rows))
	if len(parts) != 2 {
		t.Fatalf("expected 2 leaf parts, got %d", len(parts))
	}

	bolt := parts[0]
	if bolt.PartNumber != "BL-M8X30" || bolt.Qty != 8 {
		t.Errorf("unexpected first leaf: %+v", bolt)
	}
	if bolt.AssemblyGroup != "FR-0100" {
		t.Errorf("bolt AssemblyGroup = %q, want FR-0100", bolt.AssemblyGroup)
	}
	if bolt.Type != "Buy" {
		t.Errorf("bolt Type = %q, want Buy", bolt.Type)
	}

	plate := parts[1]
	if plate.PartNumber != "PL-0042" || plate.Qty != 1 {
		t.Errorf("unexpected second leaf: %+v", plate)
	}
	if plate.AssemblyGroup != "PL-0042" {
		t.Errorf("plate AssemblyGroup = %q, want itself", plate.AssemblyGroup)
	}
}

func TestRoundUpQty(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{2.4, 3},
		{2.0, 2},
		{0.25, 1},
		{0, 1},
		{-3, 1},
	}
	for _, tc := range cases {
		if got := roundUpQty(tc.in); got != tc.want {
			t.Errorf("roundUpQty(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
