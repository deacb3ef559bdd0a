package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scraprates/internal/activation/domain"
	"github.com/smallbiznis/scraprates/internal/clock"
	"github.com/smallbiznis/scraprates/internal/config"
	"github.com/smallbiznis/scraprates/internal/observability/metrics"
	"github.com/smallbiznis/scraprates/pkg/db"
	"github.com/smallbiznis/scraprates/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultSubscriptionDays = 30
	defaultMaxBatchSize     = 500
	maxInsertAttempts       = 5
	maxDrawRounds           = 20
	maxTransactionIDLength  = 64
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
	db               *gorm.DB
	log              *zap.Logger
	genID            *snowflake.Node
	clock            clock.Clock
	repo             domain.Repository
	metrics          *metrics.Metrics
	random           io.Reader
	subscriptionDays int
	maxBatchSize     int
}

func New(p Params) domain.Service {
	days := p.Config.Activation.SubscriptionDays
	if days <= 0 {
		days = defaultSubscriptionDays
	}
	maxBatch := p.Config.Activation.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatchSize
	}
	return &Service{
		db:               p.DB,
		log:              p.Log.Named("activation.service"),
		genID:            p.GenID,
		clock:            p.Clock,
		repo:             p.Repo,
		metrics:          p.Metrics,
		random:           rand.Reader,
		subscriptionDays: days,
		maxBatchSize:     maxBatch,
	}
}

// Generate creates count new unused codes. Codes are unique within the batch
// and against every persisted code; the batch is inserted atomically and
// redrawn if a concurrent writer claims one of its codes first.
func (s *Service) Generate(ctx context.Context, count int) ([]domain.Response, error) {
	if count < 1 || count > s.maxBatchSize {
		return nil, domain.ErrInvalidCount
	}

	for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
		codes, err := s.drawUnique(ctx, count)
		if err != nil {
			return nil, err
		}

		now := s.clock.Now().UTC()
		rows := make([]domain.ActivationCode, 0, len(codes))
		for _, code := range codes {
			rows = append(rows, domain.ActivationCode{
				ID:        s.genID.Generate().Int64(),
				Code:      code,
				CreatedAt: now,
			})
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.repo.InsertBatch(ctx, tx, rows)
		})
		if err == nil {
			s.metrics.RecordCodesGenerated(ctx, len(rows))
			s.log.Info("activation codes generated", zap.Int("count", len(rows)))
			resp := make([]domain.Response, 0, len(rows))
			for i := range rows {
				resp = append(resp, toResponse(&rows[i]))
			}
			return resp, nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
		s.log.Warn("activation code collision, redrawing batch", zap.Int("attempt", attempt))
	}
	return nil, domain.ErrGenerationExhausted
}

func (s *Service) drawUnique(ctx context.Context, count int) ([]string, error) {
	seen := make(map[string]struct{}, count)
	out := make([]string, 0, count)

	for round := 0; len(out) < count; round++ {
		if round == maxDrawRounds {
			return nil, domain.ErrGenerationExhausted
		}

		need := count - len(out)
		batch := make([]string, 0, need)
		for len(batch) < need {
			code, err := s.randomCode()
			if err != nil {
				return nil, err
			}
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			batch = append(batch, code)
		}

		existing, err := s.repo.ExistingCodes(ctx, s.db, batch)
		if err != nil {
			return nil, err
		}
		taken := make(map[string]struct{}, len(existing))
		for _, code := range existing {
			taken[code] = struct{}{}
		}
		for _, code := range batch {
			if _, ok := taken[code]; !ok {
				out = append(out, code)
			}
		}
	}
	return out, nil
}

// randomCode maps the low five bits of each random byte onto the 32-symbol
// alphabet.
func (s *Service) randomCode() (string, error) {
	buf := make([]byte, domain.CodeLength)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = domain.Alphabet[b&31]
	}
	return string(buf), nil
}

// Consume marks the code as used by the subscriber. The single conditional
// update guarantees that of any number of concurrent callers at most one
// succeeds.
func (s *Service) Consume(ctx context.Context, req domain.ConsumeRequest) (*domain.ConsumeResult, error) {
	code := NormalizeCode(req.Code)
	if code == "" {
		return nil, s.rejected(ctx, domain.ErrInvalidCode)
	}
	phone, err := normalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, s.rejected(ctx, err)
	}
	transactionID := strings.TrimSpace(req.TransactionID)
	if transactionID == "" || len(transactionID) > maxTransactionIDLength {
		return nil, s.rejected(ctx, domain.ErrInvalidTransactionID)
	}

	now := s.clock.Now().UTC()
	affected, err := s.repo.MarkUsed(ctx, s.db, code, phone, transactionID, now)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		existing, err := s.repo.FindByCode(ctx, s.db, code)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			s.metrics.RecordActivation(ctx, metrics.ActivationNotFound)
			return nil, domain.ErrCodeNotFound
		}
		s.metrics.RecordActivation(ctx, metrics.ActivationAlreadyUsed)
		return nil, domain.ErrCodeAlreadyUsed
	}

	s.metrics.RecordActivation(ctx, metrics.ActivationSucceeded)
	return &domain.ConsumeResult{
		Code:        code,
		ActivatedAt: now,
		ExpiresAt:   now.Add(time.Duration(s.subscriptionDays) * 24 * time.Hour),
	}, nil
}

func (s *Service) rejected(ctx context.Context, err error) error {
	s.metrics.RecordActivation(ctx, metrics.ActivationRejected)
	return err
}

// DeleteUnused removes every unused code and returns how many were removed.
// Used codes are kept as the activation record.
func (s *Service) DeleteUnused(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteUnused(ctx, s.db)
	if err != nil {
		return 0, err
	}
	s.metrics.RecordCodesPurged(ctx, removed)
	s.log.Info("unused activation codes deleted", zap.Int64("count", removed))
	return removed, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	status, err := parseStatus(req.Status)
	if err != nil {
		return domain.ListResponse{}, err
	}

	var cursor *domain.Cursor
	if token := strings.TrimSpace(req.PageToken); token != "" {
		decoded, err := pagination.DecodeCursor(token)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := decoded.CreatedAtTime()
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(decoded.ID)
		if err != nil || id == 0 {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		cursor = &domain.Cursor{ID: id.Int64(), CreatedAt: createdAt}
	}

	limit := req.Limit()
	rows, err := s.repo.List(ctx, s.db, domain.ListFilter{Status: status, Cursor: cursor, Limit: limit})
	if err != nil {
		return domain.ListResponse{}, err
	}
	rows, pageInfo, err := pagination.Trim(rows, limit, func(c domain.ActivationCode) pagination.Cursor {
		return pagination.NewCursor(snowflake.ID(c.ID).String(), c.CreatedAt)
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	codes := make([]domain.Response, 0, len(rows))
	for i := range rows {
		codes = append(codes, toResponse(&rows[i]))
	}
	return domain.ListResponse{PageInfo: pageInfo, Codes: codes}, nil
}

func (s *Service) Get(ctx context.Context, code string) (*domain.Response, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, domain.ErrInvalidCode
	}
	found, err := s.repo.FindByCode(ctx, s.db, normalized)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, domain.ErrCodeNotFound
	}
	resp := toResponse(found)
	return &resp, nil
}

// NormalizeCode trims and upper-cases user-typed codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// normalizePhone accepts digits with optional dashes or spaces and a leading
// plus sign. Separators are kept as typed, minus surrounding blanks.
func normalizePhone(value string) (string, error) {
	phone := strings.TrimSpace(value)
	if phone == "" {
		return "", domain.ErrInvalidPhoneNumber
	}
	digits := 0
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '-' || r == ' ':
		case r == '+' && i == 0:
		default:
			return "", domain.ErrInvalidPhoneNumber
		}
	}
	if digits < 7 || digits > 15 {
		return "", domain.ErrInvalidPhoneNumber
	}
	return phone, nil
}

func parseStatus(value string) (domain.Status, error) {
	switch domain.Status(strings.ToLower(strings.TrimSpace(value))) {
	case "", domain.StatusAll:
		return domain.StatusAll, nil
	case domain.StatusUsed:
		return domain.StatusUsed, nil
	case domain.StatusUnused:
		return domain.StatusUnused, nil
	default:
		return "", domain.ErrInvalidStatus
	}
}

func toResponse(c *domain.ActivationCode) domain.Response {
	return domain.Response{
		ID:            snowflake.ID(c.ID).String(),
		Code:          c.Code,
		IsUsed:        c.IsUsed,
		UsedAt:        c.UsedAt,
		UsedBy:        c.UsedBy,
		TransactionID: c.TransactionID,
		CreatedAt:     c.CreatedAt,
	}
}
