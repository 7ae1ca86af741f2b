package report

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// RenderSummary builds the one-page PDF handed back when a batch is
// finished, a paper trail for the shift folder.
func RenderSummary(at time.Time, entry Entry) ([]byte, error) {
	cfg := config.NewBuilder().Build()
	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(12, "Production report", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Batch no: "+entry.BatchNumber, props.Text{Top: 0}),
			text.New("Batch id: "+entry.BatchID, props.Text{Top: 5}),
			text.New("Finished: "+at.Format("02.01.2006 15:04"), props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Operator: "+entry.UserName, props.Text{Top: 0}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Product", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Recipe", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Boxes", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(15,
		text.NewCol(6, fmt.Sprintf("%s %s %s", entry.Brand, entry.Type, entry.Category), props.Text{Size: 9}),
		text.NewCol(3, entry.Recipe, props.Text{Size: 9}),
		text.NewCol(3, fmt.Sprintf("%d", entry.Count), props.Text{Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
