// Package ratesheet renders a printable daily rate sheet for one category.
package ratesheet

import (
	"context"
	"errors"
	"fmt"

	"github.com/gosimple/slug"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	categorydomain "github.com/smallbiznis/scraprates/internal/category/domain"
	"github.com/smallbiznis/scraprates/internal/ratehistory"
)

var ErrEmptyCategory = errors.New("rate sheet category has no name")

type Sheet struct {
	Category string
	Date     ratehistory.CalendarDate
	Currency string
	Rows     []Row
}

type Row struct {
	Name     string
	Unit     string
	Rate     decimal.Decimal
	Previous *decimal.Decimal
	Notes    string
}

// Change is the rate movement against the previous recorded day.
func (r Row) Change() (decimal.Decimal, bool) {
	if r.Previous == nil {
		return decimal.Zero, false
	}
	return r.Rate.Sub(*r.Previous), true
}

// Build resolves every item's rate on date from its history.
func Build(category categorydomain.Response, date ratehistory.CalendarDate, currency string) Sheet {
	if currency == "" {
		currency = "Rs"
	}
	sheet := Sheet{Category: category.Name, Date: date, Currency: currency}
	for _, item := range category.Items {
		log := ratehistory.Log(item.RateHistory)
		row := Row{
			Name: item.Name,
			Unit: item.Unit,
			Rate: ratehistory.RateOn(log, date, item.Rate),
		}
		if prev, ok := log.Previous(date); ok {
			rate := prev.Rate
			row.Previous = &rate
		}
		if item.Notes != nil {
			row.Notes = *item.Notes
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

// FileName is the download name, e.g. "copper-15-01-2025.pdf".
func FileName(sheet Sheet) string {
	return fmt.Sprintf("%s-%s.pdf", slug.Make(sheet.Category), sheet.Date.String())
}

func Render(ctx context.Context, sheet Sheet) ([]byte, error) {
	if sheet.Category == "" {
		return nil, ErrEmptyCategory
	}
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
		text.NewCol(8, sheet.Category+" rates", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, sheet.Date.String(), props.Text{
			Size:  12,
			Align: align.Right,
			Top:   3,
		}),
	)
	m.AddRow(6, col.New(12))

	header := props.Text{Style: fontstyle.Bold, Size: 9}
	headerRight := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}
	m.AddRow(8,
		text.NewCol(5, "Item", header),
		text.NewCol(1, "Unit", header),
		text.NewCol(2, "Rate ("+sheet.Currency+")", headerRight),
		text.NewCol(2, "Previous", headerRight),
		text.NewCol(2, "Change", headerRight),
	)

	cell := props.Text{Size: 9}
	cellRight := props.Text{Size: 9, Align: align.Right}
	for _, row := range sheet.Rows {
		previous, change := "-", "-"
		if diff, ok := row.Change(); ok {
			previous = row.Previous.StringFixed(2)
			change = signed(diff)
		}
		name := row.Name
		if row.Notes != "" {
			name += " (" + row.Notes + ")"
		}
		m.AddRow(7,
			text.NewCol(5, name, cell),
			text.NewCol(1, row.Unit, cell),
			text.NewCol(2, row.Rate.StringFixed(2), cellRight),
			text.NewCol(2, previous, cellRight),
			text.NewCol(2, change, cellRight),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render rate sheet: %w", err)
	}
	return doc.GetBytes(), nil
}

func signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}
