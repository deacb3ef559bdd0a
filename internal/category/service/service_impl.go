package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scraprates/internal/category/domain"
	"github.com/smallbiznis/scraprates/internal/clock"
	rateitemdomain "github.com/smallbiznis/scraprates/internal/rateitem/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	ItemRepo rateitemdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	itemRepo rateitemdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("category.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		itemRepo: p.ItemRepo,
	}
}

// Create places the new category in front of the existing ones unless an
// explicit sort order is given.
func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	icon := strings.TrimSpace(req.Icon)
	if icon == "" {
		icon = domain.DefaultIcon
	}
	color := domain.DefaultColor
	if req.Color != nil {
		c, err := normalizeColor(*req.Color)
		if err != nil {
			return nil, err
		}
		color = c
	}

	now := s.clock.Now().UTC()
	category := &domain.Category{
		ID:        s.genID.Generate().Int64(),
		Name:      name,
		Icon:      icon,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.SortOrder != nil {
			category.SortOrder = *req.SortOrder
		} else {
			lowest, ok, err := s.repo.MinSortOrder(ctx, tx)
			if err != nil {
				return err
			}
			if ok {
				category.SortOrder = lowest - 1
			}
		}
		return s.repo.Create(ctx, tx, category)
	})
	if err != nil {
		return nil, err
	}

	resp := toResponse(category, nil)
	return &resp, nil
}

// Update validates the request before touching the row and applies it inside
// one transaction, so a category deleted concurrently yields ErrNotFound.
func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var name, icon, color string
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
	}
	if req.Icon != nil {
		icon = strings.TrimSpace(*req.Icon)
		if icon == "" {
			return nil, domain.ErrInvalidIcon
		}
	}
	if req.Color != nil {
		c, err := normalizeColor(*req.Color)
		if err != nil {
			return nil, err
		}
		color = c
	}

	var (
		category *domain.Category
		items    []rateitemdomain.RateItem
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if found == nil {
			return domain.ErrNotFound
		}
		category = found

		if req.Name != nil {
			category.Name = name
		}
		if req.Icon != nil {
			category.Icon = icon
		}
		if req.Color != nil {
			category.Color = color
		}
		if req.SortOrder != nil {
			category.SortOrder = *req.SortOrder
		}
		category.UpdatedAt = s.clock.Now().UTC()

		updated, err := s.repo.Update(ctx, tx, category)
		if err != nil {
			return err
		}
		if !updated {
			return domain.ErrNotFound
		}

		items, err = s.itemRepo.ListByCategory(ctx, tx, category.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := toResponse(category, items)
	return &resp, nil
}

// Delete removes the category together with its items. It reports false when
// the category does not exist.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	categoryID, err := parseID(id)
	if err != nil {
		return false, domain.ErrInvalidID
	}

	deleted := false
	var removedItems int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removedItems, err = s.itemRepo.DeleteByCategory(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		deleted, err = s.repo.Delete(ctx, tx, categoryID)
		return err
	})
	if err != nil {
		return false, err
	}

	if deleted {
		s.log.Info("category deleted",
			zap.Int64("category_id", categoryID),
			zap.Int64("items_removed", removedItems),
		)
	}
	return deleted, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	categories, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return []domain.Response{}, nil
	}

	ids := make([]int64, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
	}
	items, err := s.itemRepo.ListByCategories(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	byCategory := make(map[int64][]rateitemdomain.RateItem, len(categories))
	for _, item := range items {
		byCategory[item.CategoryID] = append(byCategory[item.CategoryID], item)
	}

	resp := make([]domain.Response, 0, len(categories))
	for i := range categories {
		resp = append(resp, toResponse(&categories[i], byCategory[categories[i].ID]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	categoryID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	category, err := s.repo.FindByID(ctx, s.db, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, domain.ErrNotFound
	}

	items, err := s.itemRepo.ListByCategory(ctx, s.db, category.ID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(category, items)
	return &resp, nil
}

func toResponse(c *domain.Category, items []rateitemdomain.RateItem) domain.Response {
	resp := domain.Response{
		ID:        snowflake.ID(c.ID).String(),
		Name:      c.Name,
		Icon:      c.Icon,
		Color:     c.Color,
		SortOrder: c.SortOrder,
		Items:     make([]rateitemdomain.Response, 0, len(items)),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for i := range items {
		resp.Items = append(resp.Items, rateitemdomain.NewResponse(&items[i]))
	}
	return resp
}

func normalizeColor(value string) (string, error) {
	color := strings.ToUpper(strings.TrimSpace(value))
	if !colorPattern.MatchString(color) {
		return "", domain.ErrInvalidColor
	}
	return color, nil
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
