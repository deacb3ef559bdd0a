package localstore

import (
	"context"
	"encoding/json"
	"strings"
)

type Settings struct {
	Currency    string `json:"currency"`
	DefaultUnit string `json:"defaultUnit"`
	DisplayName string `json:"displayName"`
}

func DefaultSettings() Settings {
	return Settings{Currency: "Rs", DefaultUnit: defaultUnit}
}

type SettingsUpdate struct {
	Currency    *string
	DefaultUnit *string
	DisplayName *string
}

type SettingsStore struct {
	kv KV
}

func NewSettingsStore(kv KV) *SettingsStore {
	return &SettingsStore{kv: kv}
}

// Get overlays the stored fields on DefaultSettings.
func (s *SettingsStore) Get(ctx context.Context) (Settings, error) {
	out := DefaultSettings()
	raw, ok, err := s.kv.Get(ctx, KeySettings)
	if err != nil {
		return out, storageErr("get", KeySettings, err)
	}
	if !ok || len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return DefaultSettings(), storageErr("decode", KeySettings, err)
	}
	return out, nil
}

func (s *SettingsStore) Save(ctx context.Context, in SettingsUpdate) (Settings, error) {
	if in.DefaultUnit != nil {
		unit, err := resolveUnit(*in.DefaultUnit)
		if err != nil {
			return Settings{}, err
		}
		in.DefaultUnit = &unit
	}

	current, err := s.Get(ctx)
	if err != nil {
		return Settings{}, err
	}
	if in.Currency != nil && strings.TrimSpace(*in.Currency) != "" {
		current.Currency = strings.TrimSpace(*in.Currency)
	}
	if in.DefaultUnit != nil {
		current.DefaultUnit = *in.DefaultUnit
	}
	if in.DisplayName != nil {
		current.DisplayName = strings.TrimSpace(*in.DisplayName)
	}

	raw, err := json.Marshal(current)
	if err != nil {
		return Settings{}, storageErr("encode", KeySettings, err)
	}
	if err := s.kv.Set(ctx, KeySettings, raw); err != nil {
		return Settings{}, storageErr("set", KeySettings, err)
	}
	return current, nil
}
