package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/scraprates/internal/ratehistory"
	"gorm.io/datatypes"
)

type RateItem struct {
	ID         int64                                  `json:"id" gorm:"primaryKey"`
	CategoryID int64                                  `json:"category_id" gorm:"column:category_id;not null;index"`
	Name       string                                 `json:"name" gorm:"type:text;not null"`
	Rate       decimal.Decimal                        `json:"rate" gorm:"type:decimal(14,2);not null"`
	Unit       string                                 `json:"unit" gorm:"type:varchar(16);not null;default:kg"`
	Notes      *string                                `json:"notes,omitempty" gorm:"type:text"`
	History    datatypes.JSONSlice[ratehistory.Entry] `json:"rate_history" gorm:"column:rate_history"`
	CreatedAt  time.Time                              `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time                              `json:"updated_at" gorm:"not null"`
}

func (RateItem) TableName() string { return "rate_items" }

// Log returns the stored history as a ratehistory.Log.
func (i *RateItem) Log() ratehistory.Log {
	return ratehistory.Log(i.History)
}

// Units accepted for a rate item.
var Units = []string{"kg", "ton", "piece", "gram", "quintal", "tola", "maund"}

func ValidUnit(unit string) bool {
	for _, u := range Units {
		if u == unit {
			return true
		}
	}
	return false
}

// RateScale is the number of decimal places a rate column holds.
const RateScale = 2

// NormalizeRate rounds rate to RateScale places so the stored rate and its
// history entry agree. ok is false when the rounded rate is not positive.
func NormalizeRate(rate decimal.Decimal) (rounded decimal.Decimal, ok bool) {
	rounded = rate.Round(RateScale)
	return rounded, rounded.IsPositive()
}
