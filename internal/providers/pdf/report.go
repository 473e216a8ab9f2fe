package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateSustainabilityReport(ctx context.Context, report SustainabilityReport) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Sustainability report", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(14,
		col.New(8).Add(
			text.New(report.Organization, props.Text{Style: fontstyle.Bold}),
			text.New("Period: "+report.Period, props.Text{Top: 5}),
		),
		text.NewCol(4, "Generated "+report.GeneratedAt, props.Text{Size: 8, Align: align.Right}),
	)

	m.AddRow(10, text.NewCol(12, "Summary", props.Text{Size: 14, Style: fontstyle.Bold, Top: 3}))
	for _, metric := range report.Summary {
		m.AddRow(7,
			text.NewCol(8, metric.Label, props.Text{Size: 9}),
			text.NewCol(4, metric.Value, props.Text{Size: 9, Align: align.Right}),
		)
	}

	if len(report.Trend) > 0 {
		m.AddRow(12, text.NewCol(12, "Trend", props.Text{Size: 14, Style: fontstyle.Bold, Top: 5}))
		m.AddRow(8,
			text.NewCol(3, "Period", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(3, "Unused seats", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
			text.NewCol(3, "CO2 saved (kg)", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
			text.NewCol(3, "Cumulative (kg)", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		)
		for _, row := range report.Trend {
			m.AddRow(7,
				text.NewCol(3, row.Period, props.Text{Size: 9}),
				text.NewCol(3, fmt.Sprintf("%d", row.Unused), props.Text{Size: 9, Align: align.Right}),
				text.NewCol(3, fmt.Sprintf("%.2f", row.CO2SavedKg), props.Text{Size: 9, Align: align.Right}),
				text.NewCol(3, fmt.Sprintf("%.2f", row.CumulativeCO2), props.Text{Size: 9, Align: align.Right}),
			)
		}
	}

	if len(report.Rankings) > 0 {
		m.AddRow(12, text.NewCol(12, "Departments", props.Text{Size: 14, Style: fontstyle.Bold, Top: 5}))
		m.AddRow(8,
			text.NewCol(1, "#", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(5, "Department", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(2, "Unused seats", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
			text.NewCol(2, "CO2 saved (kg)", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
			text.NewCol(2, "Trees", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		)
		for i, row := range report.Rankings {
			m.AddRow(7,
				text.NewCol(1, fmt.Sprintf("%d", i+1), props.Text{Size: 9}),
				text.NewCol(5, row.Department, props.Text{Size: 9}),
				text.NewCol(2, fmt.Sprintf("%d", row.Unused), props.Text{Size: 9, Align: align.Right}),
				text.NewCol(2, fmt.Sprintf("%.2f", row.CO2SavedKg), props.Text{Size: 9, Align: align.Right}),
				text.NewCol(2, fmt.Sprintf("%.1f", row.Trees), props.Text{Size: 9, Align: align.Right}),
			)
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
