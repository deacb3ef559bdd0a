package ratesheet

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	categorydomain "github.com/smallbiznis/scraprates/internal/category/domain"
	"github.com/smallbiznis/scraprates/internal/ratehistory"
	rateitemdomain "github.com/smallbiznis/scraprates/internal/rateitem/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, v string) ratehistory.CalendarDate {
	t.Helper()
	d, err := ratehistory.ParseDate(v)
	require.NoError(t, err)
	return d
}

func copperCategory(t *testing.T) categorydomain.Response {
	today := mustDate(t, "15-01-2025")
	notes := "bright"
	return categorydomain.Response{
		Name: "Copper Items",
		Items: []rateitemdomain.Response{
			{
				Name:  "Copper Wire",
				Unit:  "kg",
				Rate:  decimal.NewFromInt(900),
				Notes: &notes,
				RateHistory: []ratehistory.Entry{
					{Date: today, Rate: decimal.NewFromInt(900)},
					{Date: today.AddDays(-2), Rate: decimal.NewFromInt(880)},
				},
			},
			{
				Name: "Copper Pipe",
				Unit: "kg",
				Rate: decimal.NewFromInt(820),
			},
		},
	}
}

func TestBuildResolvesRatesFromHistory(t *testing.T) {
	sheet := Build(copperCategory(t), mustDate(t, "15-01-2025"), "")

	assert.Equal(t, "Rs", sheet.Currency)
	require.Len(t, sheet.Rows, 2)

	wire := sheet.Rows[0]
	assert.True(t, wire.Rate.Equal(decimal.NewFromInt(900)))
	require.NotNil(t, wire.Previous)
	diff, ok := wire.Change()
	require.True(t, ok)
	assert.True(t, diff.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "bright", wire.Notes)

	pipe := sheet.Rows[1]
	assert.True(t, pipe.Rate.Equal(decimal.NewFromInt(820)))
	_, ok = pipe.Change()
	assert.False(t, ok)
}

func TestBuildForPastDate(t *testing.T) {
	sheet := Build(copperCategory(t), mustDate(t, "13-01-2025"), "PKR")

	assert.True(t, sheet.Rows[0].Rate.Equal(decimal.NewFromInt(880)))
	assert.Nil(t, sheet.Rows[0].Previous)
}

func TestFileName(t *testing.T) {
	sheet := Sheet{Category: "Copper Items", Date: mustDate(t, "15-01-2025")}
	assert.Equal(t, "copper-items-15-01-2025.pdf", FileName(sheet))
}

func TestRenderProducesPDF(t *testing.T) {
	sheet := Build(copperCategory(t), mustDate(t, "15-01-2025"), "Rs")

	out, err := Render(context.Background(), sheet)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = Render(context.Background(), Sheet{})
	assert.ErrorIs(t, err, ErrEmptyCategory)
}
