package localstore

import (
	"time"

	"github.com/shopspring/decimal"
	categorydomain "github.com/smallbiznis/scraprates/internal/category/domain"
	"github.com/smallbiznis/scraprates/internal/ratehistory"
)

// Category is the device copy of a category with its items embedded.
type Category struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Icon      string     `json:"icon"`
	Color     string     `json:"color,omitempty"`
	Items     []RateItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type RateItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Rate        decimal.Decimal `json:"rate"`
	Unit        string          `json:"unit"`
	Notes       *string         `json:"notes,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	RateHistory ratehistory.Log `json:"rateHistory"`
}

type NewCategory struct {
	Name  string
	Icon  string
	Color string
}

type CategoryUpdate struct {
	Name  *string
	Icon  *string
	Color *string
}

type NewItem struct {
	Name  string
	Rate  decimal.Decimal
	Unit  string
	Notes *string
}

type ItemUpdate struct {
	Name  *string
	Rate  *decimal.Decimal
	Unit  *string
	Notes *string
}

// FromServer converts the server catalog into the device document shape.
func FromServer(categories []categorydomain.Response) []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		cat := Category{
			ID:        c.ID,
			Name:      c.Name,
			Icon:      c.Icon,
			Color:     c.Color,
			Items:     make([]RateItem, 0, len(c.Items)),
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		}
		for _, it := range c.Items {
			cat.Items = append(cat.Items, RateItem{
				ID:          it.ID,
				Name:        it.Name,
				Rate:        it.Rate,
				Unit:        it.Unit,
				Notes:       it.Notes,
				UpdatedAt:   it.UpdatedAt,
				RateHistory: ratehistory.Log(it.RateHistory),
			})
		}
		out = append(out, cat)
	}
	return out
}
