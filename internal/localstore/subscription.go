package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/smallbiznis/scraprates/internal/clock"
)

// SubscriptionRecord is the device's proof of an activated subscription.
// IsActive is always recomputed from ExpiresAt on read.
type SubscriptionRecord struct {
	IsActive      bool       `json:"isActive"`
	ActivatedAt   *time.Time `json:"activatedAt"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	PhoneNumber   *string    `json:"phoneNumber"`
	TransactionID *string    `json:"transactionId"`
	UsedCode      *string    `json:"usedCode"`
}

type Activation struct {
	PhoneNumber   string
	TransactionID string
	Code          string
	ExpiresAt     time.Time
}

var ErrInvalidActivation = errors.New("invalid_activation")

type SubscriptionStore struct {
	kv    KV
	clock clock.Clock
}

func NewSubscriptionStore(kv KV, clk clock.Clock) *SubscriptionStore {
	if clk == nil {
		clk = clock.System()
	}
	return &SubscriptionStore{kv: kv, clock: clk}
}

// Get returns an inactive zero record when nothing is stored.
func (s *SubscriptionStore) Get(ctx context.Context) (SubscriptionRecord, error) {
	raw, ok, err := s.kv.Get(ctx, KeySubscription)
	if err != nil {
		return SubscriptionRecord{}, storageErr("get", KeySubscription, err)
	}
	if !ok || len(raw) == 0 {
		return SubscriptionRecord{}, nil
	}
	var rec SubscriptionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return SubscriptionRecord{}, storageErr("decode", KeySubscription, err)
	}
	rec.IsActive = rec.ExpiresAt != nil && rec.ExpiresAt.After(s.clock.Now())
	return rec, nil
}

func (s *SubscriptionStore) IsActive(ctx context.Context) (bool, error) {
	rec, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	return rec.IsActive, nil
}

// Save stores a freshly activated subscription.
func (s *SubscriptionStore) Save(ctx context.Context, a Activation) (SubscriptionRecord, error) {
	phone := strings.TrimSpace(a.PhoneNumber)
	txID := strings.TrimSpace(a.TransactionID)
	code := strings.ToUpper(strings.TrimSpace(a.Code))
	if phone == "" || txID == "" || code == "" || a.ExpiresAt.IsZero() {
		return SubscriptionRecord{}, ErrInvalidActivation
	}

	now := s.clock.Now().UTC()
	expires := a.ExpiresAt.UTC()
	rec := SubscriptionRecord{
		IsActive:      expires.After(now),
		ActivatedAt:   &now,
		ExpiresAt:     &expires,
		PhoneNumber:   &phone,
		TransactionID: &txID,
		UsedCode:      &code,
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return SubscriptionRecord{}, storageErr("encode", KeySubscription, err)
	}
	if err := s.kv.Set(ctx, KeySubscription, raw); err != nil {
		return SubscriptionRecord{}, storageErr("set", KeySubscription, err)
	}
	return rec, nil
}

func (s *SubscriptionStore) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, KeySubscription); err != nil {
		return storageErr("remove", KeySubscription, err)
	}
	return nil
}

// DaysRemaining rounds partial days up and never goes below zero.
func DaysRemaining(expiresAt *time.Time, now time.Time) int {
	if expiresAt == nil {
		return 0
	}
	left := expiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}
