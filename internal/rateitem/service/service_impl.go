package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/scraprates/internal/clock"
	"github.com/smallbiznis/scraprates/internal/config"
	"github.com/smallbiznis/scraprates/internal/observability/metrics"
	"github.com/smallbiznis/scraprates/internal/ratehistory"
	"github.com/smallbiznis/scraprates/internal/rateitem/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Config  config.Config
	Repo    domain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	loc     *time.Location
	repo    domain.Repository
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("rateitem.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		loc:     p.Config.Location(),
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	categoryID, err := parseID(req.CategoryID)
	if err != nil {
		return nil, domain.ErrInvalidCategory
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.Rate == nil {
		return nil, domain.ErrInvalidRate
	}
	itemRate, ok := domain.NormalizeRate(*req.Rate)
	if !ok {
		return nil, domain.ErrInvalidRate
	}
	unit := normalizeUnit(req.Unit)
	if unit == "" {
		unit = "kg"
	}
	if !domain.ValidUnit(unit) {
		return nil, domain.ErrInvalidUnit
	}

	now := s.clock.Now().UTC()
	today := ratehistory.Today(now, s.loc)
	item := &domain.RateItem{
		ID:         s.genID.Generate().Int64(),
		CategoryID: categoryID,
		Name:       name,
		Rate:       itemRate,
		Unit:       unit,
		Notes:      normalizeNotes(req.Notes),
		History:    datatypes.JSONSlice[ratehistory.Entry](ratehistory.Record(nil, today, itemRate)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.repo.CategoryExists(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrInvalidCategory
		}
		if err := s.repo.Create(ctx, tx, item); err != nil {
			return err
		}
		return s.repo.TouchCategory(ctx, tx, categoryID, now)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRateUpdate(ctx, unit)
	resp := domain.NewResponse(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	itemID, err := parseID(req.ID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var ownerID int64
	if strings.TrimSpace(req.CategoryID) != "" {
		ownerID, err = parseID(req.CategoryID)
		if err != nil {
			return nil, domain.ErrInvalidCategory
		}
	}

	var name string
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
	}
	var newRate *decimal.Decimal
	if req.Rate != nil {
		rounded, ok := domain.NormalizeRate(*req.Rate)
		if !ok {
			return nil, domain.ErrInvalidRate
		}
		newRate = &rounded
	}
	var unit string
	if req.Unit != nil {
		unit = normalizeUnit(*req.Unit)
		if !domain.ValidUnit(unit) {
			return nil, domain.ErrInvalidUnit
		}
	}

	now := s.clock.Now().UTC()
	today := ratehistory.Today(now, s.loc)
	rateChanged := false

	var item *domain.RateItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.repo.FindByIDForUpdate(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if found == nil || (ownerID != 0 && found.CategoryID != ownerID) {
			return domain.ErrNotFound
		}
		item = found

		if req.Name != nil {
			item.Name = name
		}
		if req.Unit != nil {
			item.Unit = unit
		}
		if req.Notes != nil {
			item.Notes = normalizeNotes(req.Notes)
		}
		if newRate != nil && !newRate.Equal(item.Rate) {
			item.History = datatypes.JSONSlice[ratehistory.Entry](ratehistory.Record(item.Log(), today, *newRate))
			item.Rate = *newRate
			rateChanged = true
		}
		item.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, item); err != nil {
			return err
		}
		return s.repo.TouchCategory(ctx, tx, item.CategoryID, now)
	})
	if err != nil {
		return nil, err
	}

	if rateChanged {
		s.metrics.RecordRateUpdate(ctx, item.Unit)
		s.log.Debug("rate recorded",
			zap.Int64("item_id", item.ID),
			zap.String("date", today.String()),
			zap.String("rate", item.Rate.String()),
		)
	}
	resp := domain.NewResponse(item)
	return &resp, nil
}

// Delete reports false when the item does not exist.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	itemID, err := parseID(id)
	if err != nil {
		return false, domain.ErrInvalidID
	}

	now := s.clock.Now().UTC()
	deleted := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, itemID)
		if err != nil || item == nil {
			return err
		}
		deleted, err = s.repo.Delete(ctx, tx, itemID)
		if err != nil || !deleted {
			return err
		}
		return s.repo.TouchCategory(ctx, tx, item.CategoryID, now)
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	itemID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	item, err := s.repo.FindByID(ctx, s.db, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	resp := domain.NewResponse(item)
	return &resp, nil
}

func (s *Service) ListByCategory(ctx context.Context, categoryID string) ([]domain.Response, error) {
	id, err := parseID(categoryID)
	if err != nil {
		return nil, domain.ErrInvalidCategory
	}
	items, err := s.repo.ListByCategory(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, domain.NewResponse(&items[i]))
	}
	return resp, nil
}

// RateForDate falls back to the item's current rate when the history has
// no entry for the requested day. An empty date means today.
func (s *Service) RateForDate(ctx context.Context, id string, date string) (*domain.RateOnDate, error) {
	itemID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	day := ratehistory.Today(s.clock.Now(), s.loc)
	if strings.TrimSpace(date) != "" {
		day, err = ratehistory.ParseDate(date)
		if err != nil {
			return nil, domain.ErrInvalidDate
		}
	}

	item, err := s.repo.FindByID(ctx, s.db, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	return &domain.RateOnDate{
		ItemID: snowflake.ID(item.ID).String(),
		Date:   day,
		Rate:   ratehistory.RateOn(item.Log(), day, item.Rate),
		Unit:   item.Unit,
	}, nil
}

func parseID(value string) (int64, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id.Int64(), nil
}

func normalizeUnit(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
