package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scraprates/internal/clock"
	"github.com/smallbiznis/scraprates/internal/note/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxContentLength = 2000

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("note.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) ListActive(ctx context.Context) ([]domain.Response, error) {
	return s.list(ctx, true)
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	return s.list(ctx, false)
}

func (s *Service) list(ctx context.Context, activeOnly bool) ([]domain.Response, error) {
	notes, err := s.repo.List(ctx, s.db, activeOnly)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.Response, 0, len(notes))
	for i := range notes {
		resp = append(resp, toResponse(&notes[i]))
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	content, err := normalizeContent(req.Content)
	if err != nil {
		return nil, err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	now := s.clock.Now().UTC()
	note := &domain.ImportantNote{
		ID:        s.genID.Generate().Int64(),
		Content:   content,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, s.db, note); err != nil {
		return nil, err
	}
	resp := toResponse(note)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	note, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, domain.ErrNotFound
	}

	if req.Content != nil {
		content, err := normalizeContent(*req.Content)
		if err != nil {
			return nil, err
		}
		note.Content = content
	}
	if req.IsActive != nil {
		note.IsActive = *req.IsActive
	}
	note.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.Update(ctx, s.db, note); err != nil {
		return nil, err
	}
	resp := toResponse(note)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	noteID, err := parseID(id)
	if err != nil {
		return false, domain.ErrInvalidID
	}
	return s.repo.Delete(ctx, s.db, noteID)
}

func normalizeContent(value string) (string, error) {
	content := strings.TrimSpace(value)
	if content == "" || len(content) > maxContentLength {
		return "", domain.ErrInvalidContent
	}
	return content, nil
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

func toResponse(n *domain.ImportantNote) domain.Response {
	return domain.Response{
		ID:        snowflake.ID(n.ID).String(),
		Content:   n.Content,
		IsActive:  n.IsActive,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
