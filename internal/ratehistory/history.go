// Package ratehistory holds the bounded per-item rate log shared by the
// server catalog and the device-local store.
package ratehistory

import (
	"math/rand"

	"github.com/shopspring/decimal"
)

// MaxEntries bounds every history log.
const MaxEntries = 10

func init() {
	// rates travel as JSON numbers on the wire and in stored documents
	decimal.MarshalJSONWithoutQuotes = true
}

// Entry is the rate recorded for a single calendar day.
type Entry struct {
	Date CalendarDate    `json:"date"`
	Rate decimal.Decimal `json:"rate"`
}

// Log is ordered newest first and holds at most one entry per date.
type Log []Entry

// Record returns the log after setting today's rate.
//
// An existing entry for today is overwritten in place. Otherwise the new
// entry is prepended and the oldest entries beyond MaxEntries are dropped.
// The input slice is never modified.
func Record(log Log, today CalendarDate, rate decimal.Decimal) Log {
	for i := range log {
		if log[i].Date.Equal(today) {
			out := make(Log, len(log))
			copy(out, log)
			out[i].Rate = rate
			return out
		}
	}

	size := len(log) + 1
	if size > MaxEntries {
		size = MaxEntries
	}
	out := make(Log, 0, size)
	out = append(out, Entry{Date: today, Rate: rate})
	for _, e := range log {
		if len(out) == size {
			break
		}
		out = append(out, e)
	}
	return out
}

// RateOn returns the rate recorded for date, or current when the log has no
// entry for that day.
func RateOn(log Log, date CalendarDate, current decimal.Decimal) decimal.Decimal {
	for _, e := range log {
		if e.Date.Equal(date) {
			return e.Rate
		}
	}
	return current
}

// Latest returns the newest entry.
func (l Log) Latest() (Entry, bool) {
	if len(l) == 0 {
		return Entry{}, false
	}
	return l[0], true
}

// Previous returns the newest entry dated strictly before date.
func (l Log) Previous(date CalendarDate) (Entry, bool) {
	for _, e := range l {
		if e.Date.Before(date) {
			return e, true
		}
	}
	return Entry{}, false
}

// Seed builds a demo history of the given number of days ending today.
// Today's entry is exactly current; older days deviate from it by at most
// jitterPct percent, rounded to whole currency units.
func Seed(rng *rand.Rand, today CalendarDate, current decimal.Decimal, days int, jitterPct float64) Log {
	if days <= 0 {
		return Log{}
	}
	if days > MaxEntries {
		days = MaxEntries
	}

	out := make(Log, 0, days)
	out = append(out, Entry{Date: today, Rate: current})
	for i := 1; i < days; i++ {
		factor := 1 + ((rng.Float64()*2 - 1) * jitterPct / 100)
		rate := current.Mul(decimal.NewFromFloat(factor)).Round(0)
		if !rate.IsPositive() {
			rate = current
		}
		out = append(out, Entry{Date: today.AddDays(-i), Rate: rate})
	}
	return out
}
