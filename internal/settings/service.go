package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"coinoswap_admin/internal/domain"
	"coinoswap_admin/internal/infra/coinoswap"
)

var (
	ErrKeyRequired   = errors.New("setting key required")
	ErrValueRequired = errors.New("setting value required")
)

const (
	keyRequiredMessage   = "Setting key is required"
	valueRequiredMessage = "Setting value is required"
)

// Client is the subset of the API client the service calls.
type Client interface {
	ListSettings(ctx context.Context) ([]domain.Setting, error)
	GetSetting(ctx context.Context, key string) (*domain.Setting, error)
	UpsertSetting(ctx context.Context, req domain.SettingUpsert) (*domain.MutationResponse, error)
	DeleteSetting(ctx context.Context, key string) (*domain.MutationResponse, error)
}

// Entry is a setting with its decoded value.
type Entry struct {
	domain.Setting
	Parsed Result
}

// Service manages admin settings.
type Service struct {
	client   Client
	notifier domain.Notifier
	auditor  domain.Auditor
}

// NewService creates a settings service. notifier and auditor may be nil.
func NewService(client Client, notifier domain.Notifier, auditor domain.Auditor) *Service {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	return &Service{client: client, notifier: notifier, auditor: auditor}
}

// List returns every setting with its decoded value.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	list, err := s.client.ListSettings(ctx)
	if err != nil {
		s.notifier.Error(coinoswap.MessageOf(err, "Failed to fetch settings"))
		return nil, fmt.Errorf("list settings: %w", err)
	}

	entries := make([]Entry, 0, len(list))
	for _, st := range list {
		entries = append(entries, Entry{Setting: st, Parsed: ParseValue(st.Value)})
	}
	return entries, nil
}

// Get returns one setting.
func (s *Service) Get(ctx context.Context, key string) (*Entry, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		s.notifier.Error(keyRequiredMessage)
		return nil, ErrKeyRequired
	}
	st, err := s.client.GetSetting(ctx, key)
	if err != nil {
		s.notifier.Error(coinoswap.MessageOf(err, "Failed to fetch setting"))
		return nil, fmt.Errorf("get setting %q: %w", key, err)
	}
	return &Entry{Setting: *st, Parsed: ParseValue(st.Value)}, nil
}

// Set upserts key. text is decoded leniently; text that is not JSON at all
// is stored as a plain string.
func (s *Service) Set(ctx context.Context, key, text, description string) (*domain.MutationResponse, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		s.notifier.Error(keyRequiredMessage)
		return nil, ErrKeyRequired
	}

	parsed := ParseText(text)
	var value any
	switch parsed.Kind {
	case KindEmpty:
		s.notifier.Error(valueRequiredMessage)
		return nil, ErrValueRequired
	case KindOK:
		value = parsed.Value
	default:
		value = strings.TrimSpace(text)
	}

	req := domain.SettingUpsert{Key: key, Value: value, Description: strings.TrimSpace(description)}
	resp, err := s.client.UpsertSetting(ctx, req)
	s.audit(ctx, "setting-upsert", key, req, resp, err)
	if err != nil {
		s.notifier.Error(coinoswap.MessageOf(err, "Failed to save setting"))
		return nil, fmt.Errorf("upsert setting %q: %w", key, err)
	}
	s.notifier.Success(messageOr(resp, "Setting saved successfully"))
	return resp, nil
}

// Delete removes key.
func (s *Service) Delete(ctx context.Context, key string) (*domain.MutationResponse, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		s.notifier.Error(keyRequiredMessage)
		return nil, ErrKeyRequired
	}

	resp, err := s.client.DeleteSetting(ctx, key)
	s.audit(ctx, "setting-delete", key, nil, resp, err)
	if err != nil {
		s.notifier.Error(coinoswap.MessageOf(err, "Failed to delete setting"))
		return nil, fmt.Errorf("delete setting %q: %w", key, err)
	}
	s.notifier.Success(messageOr(resp, "Setting deleted successfully"))
	return resp, nil
}

func (s *Service) audit(ctx context.Context, op, key string, payload any, resp *domain.MutationResponse, callErr error) {
	if s.auditor == nil {
		return
	}
	rec := domain.MutationRecord{Op: op, Target: key, Success: callErr == nil}
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			rec.Payload = b
		}
	}
	if callErr != nil {
		rec.Message = callErr.Error()
	} else if resp != nil {
		rec.Message = resp.Message
	}
	if err := s.auditor.Record(ctx, rec); err != nil {
		slog.Error("Failed to record mutation", slog.String("op", op), slog.Any("error", err))
	}
}

func messageOr(resp *domain.MutationResponse, fallback string) string {
	if resp != nil && resp.Message != "" {
		return resp.Message
	}
	return fallback
}
