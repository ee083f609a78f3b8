package services

import "math"

// Row is one data row of a hierarchical BOM file after column extraction.
type Row struct {
	Level       int
	PartNumber  string
	Type        string
	Qty         float64
	Description string
}

// HierarchyNode is one reconstructed node of the BOM forest. EffectiveQty
// is the node's own quantity multiplied through every ancestor assembly.
// A node is a leaf iff it has no children; source files carry no explicit
// marker, so leafness is decided by lookahead on the next row's depth.
type HierarchyNode struct {
	Level         int
	PartNumber    string
	Type          string
	OwnQty        float64
	Description   string
	EffectiveQty  float64
	AssemblyGroup string
	Children      []*HierarchyNode
	IsLeaf        bool
}

// LeafPart is one pickable line derived from a leaf node. Qty is the
// effective quantity rounded up and floored at 1.
type LeafPart struct {
	PartNumber    string
	Description   string
	Qty           int
	AssemblyGroup string
	Type          string
}

// BuildHierarchy reconstructs the assembly forest from level-tagged rows.
//
// Ancestry is tracked with an explicit depth-indexed map of "current node
// at that depth": for each row the nearest ancestor is found by scanning
// downward from level-1, the row is recorded at its own depth, and any
// entries deeper than the row are evicted since they can no longer be
// ancestors of later rows. Depth-based construction cannot produce a
// cycle, and rows arrive in file order, so a single forward pass suffices.
func BuildHierarchy(rows []Row) []*HierarchyNode {
	var roots []*HierarchyNode
	ancestors := make(map[int]*HierarchyNode)

	for i, r := range rows {
		node := &HierarchyNode{
			Level:       r.Level,
			PartNumber:  r.PartNumber,
			Type:        r.Type,
			OwnQty:      r.Qty,
			Description: r.Description,
		}

		parent := nearestAncestor(ancestors, r.Level)
		if parent != nil {
			node.EffectiveQty = r.Qty * parent.EffectiveQty
			parent.Children = append(parent.Children, node)
		} else {
			node.EffectiveQty = r.Qty
			roots = append(roots, node)
		}

		node.AssemblyGroup = assemblyGroupFor(node, ancestors)

		ancestors[r.Level] = node
		for depth := range ancestors {
			if depth > r.Level {
				delete(ancestors, depth)
			}
		}

		// Leafness by lookahead: the hierarchy descended no further.
		node.IsLeaf = i == len(rows)-1 || rows[i+1].Level <= r.Level
	}

	return roots
}

// nearestAncestor scans the ancestor index downward from level-1 and
// returns the closest recorded node, or nil when the row is a root.
func nearestAncestor(ancestors map[int]*HierarchyNode, level int) *HierarchyNode {
	for depth := level - 1; depth >= 0; depth-- {
		if n, ok := ancestors[depth]; ok {
			return n
		}
	}
	return nil
}

// assemblyGroupFor returns the declared top-level-assembly label for a
// node: rows at depth 0 or 1 are their own assembly group, deeper rows
// take the nearest ancestor at depth 1, falling back to depth 0.
func assemblyGroupFor(node *HierarchyNode, ancestors map[int]*HierarchyNode) string {
	if node.Level <= 1 {
		return node.PartNumber
	}
	if n, ok := ancestors[1]; ok {
		return n.PartNumber
	}
	if n, ok := ancestors[0]; ok {
		return n.PartNumber
	}
	return node.PartNumber
}

// ExtractLeafParts walks the forest and emits one LeafPart per leaf node.
// Assemblies are never emitted; they only carry the multiplier and the
// assembly-group label downward. Quantities are rounded up and floored
// at 1 because fractional or zero picks are meaningless on a pick list.
func ExtractLeafParts(forest []*HierarchyNode) []LeafPart {
	var parts []LeafPart
	var walk func(n *HierarchyNode)
	walk = func(n *HierarchyNode) {
		if n.IsLeaf {
			parts = append(parts, LeafPart{
				PartNumber:    n.PartNumber,
				Description:   n.Description,
				Qty:           roundUpQty(n.EffectiveQty),
				AssemblyGroup: n.AssemblyGroup,
				Type:          n.Type,
			})
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, root := range forest {
		walk(root)
	}
	return parts
}

func roundUpQty(q float64) int {
	n := int(math.Ceil(q))
	if n < 1 {
		return 1
	}
	return n
}
