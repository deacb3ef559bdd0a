package localstore

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	mrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/scraprates/internal/clock"
	"github.com/smallbiznis/scraprates/internal/ratehistory"
	rateitemdomain "github.com/smallbiznis/scraprates/internal/rateitem/domain"
	"github.com/smallbiznis/scraprates/internal/seed"
)

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidRate = errors.New("invalid_rate")
	ErrInvalidUnit = errors.New("invalid_unit")
	ErrInvalidDate = errors.New("invalid_date")
	ErrNotFound    = errors.New("not_found")
)

const (
	defaultIcon = "package"
	defaultUnit = "kg"
	seedJitter  = 3
)

// Store manages the category document.
type Store struct {
	kv    KV
	clock clock.Clock
	loc   *time.Location

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewStore(kv KV, clk clock.Clock, loc *time.Location) *Store {
	if clk == nil {
		clk = clock.System()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		kv:      kv,
		clock:   clk,
		loc:     loc,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (s *Store) newID(now time.Time) (string, error) {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(now), s.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *Store) load(ctx context.Context) ([]Category, error) {
	raw, ok, err := s.kv.Get(ctx, KeyCategories)
	if err != nil {
		return nil, storageErr("get", KeyCategories, err)
	}
	if !ok || len(raw) == 0 {
		return []Category{}, nil
	}
	var categories []Category
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, storageErr("decode", KeyCategories, err)
	}
	if categories == nil {
		categories = []Category{}
	}
	return categories, nil
}

func (s *Store) save(ctx context.Context, categories []Category) error {
	raw, err := json.Marshal(categories)
	if err != nil {
		return storageErr("encode", KeyCategories, err)
	}
	if err := s.kv.Set(ctx, KeyCategories, raw); err != nil {
		return storageErr("set", KeyCategories, err)
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	return s.load(ctx)
}

func (s *Store) GetCategory(ctx context.Context, id string) (*Category, error) {
	categories, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfCategory(categories, id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	return &categories[idx], nil
}

func (s *Store) GetRateItemsByCategory(ctx context.Context, categoryID string) ([]RateItem, error) {
	cat, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return cat.Items, nil
}

// AddCategory inserts the new category at the front of the document.
func (s *Store) AddCategory(ctx context.Context, in NewCategory) (*Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	icon := strings.TrimSpace(in.Icon)
	if icon == "" {
		icon = defaultIcon
	}

	categories, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	id, err := s.newID(now)
	if err != nil {
		return nil, err
	}
	cat := Category{
		ID:        id,
		Name:      name,
		Icon:      icon,
		Color:     strings.TrimSpace(in.Color),
		Items:     []RateItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	categories = append([]Category{cat}, categories...)
	if err := s.save(ctx, categories); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id string, in CategoryUpdate) (*Category, error) {
	var name string
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
	}

	categories, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfCategory(categories, id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	cat := &categories[idx]
	if in.Name != nil {
		cat.Name = name
	}
	if in.Icon != nil && strings.TrimSpace(*in.Icon) != "" {
		cat.Icon = strings.TrimSpace(*in.Icon)
	}
	if in.Color != nil {
		cat.Color = strings.TrimSpace(*in.Color)
	}
	cat.UpdatedAt = s.clock.Now().UTC()

	if err := s.save(ctx, categories); err != nil {
		return nil, err
	}
	out := *cat
	return &out, nil
}

// DeleteCategory removes the category and every item it holds.
func (s *Store) DeleteCategory(ctx context.Context, id string) (bool, error) {
	categories, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	idx := indexOfCategory(categories, id)
	if idx < 0 {
		return false, nil
	}
	remaining := make([]Category, 0, len(categories)-1)
	remaining = append(remaining, categories[:idx]...)
	remaining = append(remaining, categories[idx+1:]...)
	if err := s.save(ctx, remaining); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) AddItem(ctx context.Context, categoryID string, in NewItem) (*RateItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	itemRate, ok := rateitemdomain.NormalizeRate(in.Rate)
	if !ok {
		return nil, ErrInvalidRate
	}
	unit, err := resolveUnit(in.Unit)
	if err != nil {
		return nil, err
	}

	categories, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfCategory(categories, categoryID)
	if idx < 0 {
		return nil, ErrNotFound
	}

	now := s.clock.Now().UTC()
	id, err := s.newID(now)
	if err != nil {
		return nil, err
	}
	item := RateItem{
		ID:          id,
		Name:        name,
		Rate:        itemRate,
		Unit:        unit,
		Notes:       trimNotes(in.Notes),
		UpdatedAt:   now,
		RateHistory: ratehistory.Record(nil, ratehistory.Today(now, s.loc), itemRate),
	}
	cat := &categories[idx]
	cat.Items = append([]RateItem{item}, cat.Items...)
	cat.UpdatedAt = now

	if err := s.save(ctx, categories); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem records today's rate in the history only when the rate changes.
func (s *Store) UpdateItem(ctx context.Context, categoryID, itemID string, in ItemUpdate) (*RateItem, error) {
	var name, unit string
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
	}
	var newRate *decimal.Decimal
	if in.Rate != nil {
		rounded, ok := rateitemdomain.NormalizeRate(*in.Rate)
		if !ok {
			return nil, ErrInvalidRate
		}
		newRate = &rounded
	}
	if in.Unit != nil {
		var err error
		if unit, err = resolveUnit(*in.Unit); err != nil {
			return nil, err
		}
	}

	categories, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	catIdx := indexOfCategory(categories, categoryID)
	if catIdx < 0 {
		return nil, ErrNotFound
	}
	cat := &categories[catIdx]
	itemIdx := indexOfItem(cat.Items, itemID)
	if itemIdx < 0 {
		return nil, ErrNotFound
	}

	now := s.clock.Now().UTC()
	item := &cat.Items[itemIdx]
	if newRate != nil && !newRate.Equal(item.Rate) {
		item.RateHistory = ratehistory.Record(item.RateHistory, ratehistory.Today(now, s.loc), *newRate)
		item.Rate = *newRate
	}
	if in.Name != nil {
		item.Name = name
	}
	if in.Unit != nil {
		item.Unit = unit
	}
	if in.Notes != nil {
		item.Notes = trimNotes(in.Notes)
	}
	item.UpdatedAt = now
	cat.UpdatedAt = now

	if err := s.save(ctx, categories); err != nil {
		return nil, err
	}
	out := *item
	return &out, nil
}

// DeleteItem reports false when either id is unknown.
func (s *Store) DeleteItem(ctx context.Context, categoryID, itemID string) (bool, error) {
	categories, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	catIdx := indexOfCategory(categories, categoryID)
	if catIdx < 0 {
		return false, nil
	}
	cat := &categories[catIdx]
	itemIdx := indexOfItem(cat.Items, itemID)
	if itemIdx < 0 {
		return false, nil
	}

	items := make([]RateItem, 0, len(cat.Items)-1)
	items = append(items, cat.Items[:itemIdx]...)
	cat.Items = append(items, cat.Items[itemIdx+1:]...)
	cat.UpdatedAt = s.clock.Now().UTC()

	if err := s.save(ctx, categories); err != nil {
		return false, err
	}
	return true, nil
}

// RateForDate returns the rate recorded on date ("DD-MM-YYYY"), falling back
// to the item's current rate.
func (s *Store) RateForDate(ctx context.Context, categoryID, itemID, date string) (decimal.Decimal, error) {
	day, err := ratehistory.ParseDate(date)
	if err != nil {
		return decimal.Zero, ErrInvalidDate
	}
	cat, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return decimal.Zero, err
	}
	idx := indexOfItem(cat.Items, itemID)
	if idx < 0 {
		return decimal.Zero, ErrNotFound
	}
	item := cat.Items[idx]
	return ratehistory.RateOn(item.RateHistory, day, item.Rate), nil
}

// Replace overwrites the whole document, typically with the server catalog.
func (s *Store) Replace(ctx context.Context, categories []Category) error {
	if categories == nil {
		categories = []Category{}
	}
	return s.save(ctx, categories)
}

// Clear empties the document.
func (s *Store) Clear(ctx context.Context) error {
	return s.save(ctx, []Category{})
}

// SeedDefaults fills an empty document with the default catalog and a short
// demo history per item. It reports whether anything was written.
func (s *Store) SeedDefaults(ctx context.Context, rng *mrand.Rand) (bool, error) {
	categories, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	if len(categories) > 0 {
		return false, nil
	}
	if rng == nil {
		rng = mrand.New(mrand.NewSource(s.clock.Now().UnixNano()))
	}

	now := s.clock.Now().UTC()
	today := ratehistory.Today(now, s.loc)
	out := make([]Category, 0, len(seed.DefaultCatalog))
	for _, c := range seed.DefaultCatalog {
		id, err := s.newID(now)
		if err != nil {
			return false, err
		}
		cat := Category{ID: id, Name: c.Name, Icon: c.Icon, Color: c.Color, CreatedAt: now, UpdatedAt: now}
		for _, it := range c.Items {
			rate, err := decimal.NewFromString(it.Rate)
			if err != nil {
				return false, err
			}
			itemID, err := s.newID(now)
			if err != nil {
				return false, err
			}
			cat.Items = append(cat.Items, RateItem{
				ID:          itemID,
				Name:        it.Name,
				Rate:        rate,
				Unit:        it.Unit,
				UpdatedAt:   now,
				RateHistory: ratehistory.Seed(rng, today, rate, ratehistory.MaxEntries, seedJitter),
			})
		}
		out = append(out, cat)
	}
	if err := s.save(ctx, out); err != nil {
		return false, err
	}
	return true, nil
}

func resolveUnit(raw string) (string, error) {
	unit := strings.ToLower(strings.TrimSpace(raw))
	if unit == "" {
		return defaultUnit, nil
	}
	if !rateitemdomain.ValidUnit(unit) {
		return "", ErrInvalidUnit
	}
	return unit, nil
}

func trimNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	v := strings.TrimSpace(*notes)
	if v == "" {
		return nil
	}
	return &v
}

func indexOfCategory(categories []Category, id string) int {
	for i := range categories {
		if categories[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfItem(items []RateItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
