package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// GenerateVerificationPDF renders a verification report as a PDF
// download using maroto/v2. The section order mirrors the plain-text
// rendering: header, summary, discrepancies by severity, hierarchy.
func GenerateVerificationPDF(rep *VerificationReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addReportHeader(m, rep)
	addReportSummary(m, rep)
	addDiscrepancySection(m, "Errors", SeverityError, rep)
	addDiscrepancySection(m, "Warnings", SeverityWarning, rep)
	addDiscrepancySection(m, "Info", SeverityInfo, rep)
	addHierarchySection(m, rep)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

func addReportHeader(m core.Maroto, rep *VerificationReport) {
	m.AddRows(
		row.New(10).Add(
			col.New(12).Add(
				text.New("BOM STRUCTURE VERIFICATION REPORT", props.Text{
					Size:  14,
					Style: fontstyle.Bold,
					Align: align.Left,
				}),
			),
		),
		row.New(6).Add(
			col.New(12).Add(
				text.New(fmt.Sprintf("File: %s  |  Tool model: %s  |  Generated: %s",
					rep.FileName, rep.ToolModel,
					rep.GeneratedAt.Format("2006-01-02 15:04:05")), props.Text{
					Size:  8,
					Align: align.Left,
					Color: &props.Color{Red: 100, Green: 100, Blue: 100},
				}),
			),
		),
		row.New(4),
	)
}

func addReportSummary(m core.Maroto, rep *VerificationReport) {
	addSectionTitle(m, "Summary")

	lines := []struct {
		label string
		value int
	}{
		{"Parts in source file", rep.TotalParts},
		{"Parts found in store", rep.PartsInStore},
		{"Parts missing from store", rep.PartsMissing},
		{"Relationships verified", rep.RelationshipsChecked - rep.RelationshipsMissing},
		{"Relationships missing", rep.RelationshipsMissing},
		{"Legacy text-only items", rep.LegacyOnlyCount},
	}
	for _, l := range lines {
		m.AddRows(
			row.New(5).Add(
				col.New(6).Add(
					text.New(l.label, props.Text{Size: 8, Align: align.Left}),
				),
				col.New(6).Add(
					text.New(fmt.Sprintf("%d", l.value), props.Text{
						Size:  8,
						Style: fontstyle.Bold,
						Align: align.Left,
					}),
				),
			),
		)
	}
	m.AddRows(row.New(4))
}

func addDiscrepancySection(m core.Maroto, title string, sev Severity, rep *VerificationReport) {
	addSectionTitle(m, title)

	count := 0
	for _, d := range rep.Discrepancies {
		if d.Severity != sev {
			continue
		}
		count++
		label := string(d.Type) + "  " + d.PartNumber
		if d.ParentPartNumber != "" {
			label += " (under " + d.ParentPartNumber + ")"
		}
		detail := d.Message
		if d.SourceQty != nil && d.StoredQty != nil {
			detail += fmt.Sprintf(" (source qty %s, stored qty %s)",
				formatQty(*d.SourceQty), formatQty(*d.StoredQty))
		}
		m.AddRows(
			row.New(5).Add(
				col.New(5).Add(
					text.New(label, props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Left}),
				),
				col.New(7).Add(
					text.New(detail, props.Text{Size: 8, Align: align.Left}),
				),
			),
		)
	}
	if count == 0 {
		m.AddRows(
			row.New(5).Add(
				col.New(12).Add(
					text.New("none", props.Text{
						Size:  8,
						Align: align.Left,
						Color: &props.Color{Red: 100, Green: 100, Blue: 100},
					}),
				),
			),
		)
	}
	m.AddRows(row.New(4))
}

func addHierarchySection(m core.Maroto, rep *VerificationReport) {
	addSectionTitle(m, "Source Hierarchy")

	var walk func(n *HierarchyNode, depth int)
	walk = func(n *HierarchyNode, depth int) {
		indent := ""
		for i := 0; i < depth; i++ {
			indent += "    "
		}
		line := fmt.Sprintf("%s%s  qty=%s", indent, n.PartNumber, formatQty(n.OwnQty))
		if n.Description != "" {
			line += "  " + n.Description
		}
		m.AddRows(
			row.New(4).Add(
				col.New(12).Add(
					text.New(line, props.Text{Size: 7, Align: align.Left}),
				),
			),
		)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, root := range rep.Hierarchy {
		walk(root, 0)
	}
}

func addSectionTitle(m core.Maroto, title string) {
	m.AddRows(
		row.New(7).Add(
			col.New(12).Add(
				text.New(title, props.Text{
					Size:  10,
					Style: fontstyle.Bold,
					Align: align.Left,
				}),
			),
		),
	)
}
