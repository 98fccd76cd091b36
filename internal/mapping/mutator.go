// Package mapping holds the write side of the coin screens: the partner-merge
// flow and the standard-coin and notification forms.
package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"coinoswap_admin/internal/domain"
	"coinoswap_admin/internal/infra/coinoswap"
)

// Validation errors. The operator sees the text from Message.
var (
	ErrEmptySelection  = errors.New("empty merge selection")
	ErrInvalidTarget   = errors.New("invalid standard coin id")
	ErrNoValidCoinIDs  = errors.New("no valid coin ids")
	ErrCoinIDRequired  = errors.New("standard coin id required")
	ErrInvalidCoinID   = errors.New("invalid coin id")
	ErrNoFields        = errors.New("no fields to update")
	ErrInvalidCoinType = errors.New("invalid coin type")
	ErrPartnerRequired = errors.New("swap partner required")
	ErrNoNotifications = errors.New("no notification arrays")
	ErrInvalidAction   = errors.New("invalid standard coin action")
)

var messages = map[error]string{
	ErrEmptySelection:  "Please select at least one coin to merge",
	ErrInvalidTarget:   "Invalid standard coin ID",
	ErrNoValidCoinIDs:  "No valid coin IDs found",
	ErrCoinIDRequired:  "Standard Coin ID is required",
	ErrInvalidCoinID:   "Invalid coin ID",
	ErrNoFields:        "No fields to update",
	ErrInvalidCoinType: "Coin type must be popular, popular&stable or other",
	ErrPartnerRequired: "Swap Partner is required",
	ErrNoNotifications: "At least one notification array must be provided",
	ErrInvalidAction:   "Action must be create or delete",
}

// Message returns the operator-facing text of a validation error.
func Message(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Message()
	}
	for sentinel, msg := range messages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return err.Error()
}

const mergeFailedMessage = "Failed to merge coins to mapped partners"

// Client is the subset of the API client the mutator calls.
type Client interface {
	MergeCoinsToMapped(ctx context.Context, req domain.MergeRequest) (*domain.MutationResponse, error)
	UpdateStandardCoin(ctx context.Context, req domain.CoinUpdate) (*domain.MutationResponse, error)
	CreateOrDeleteStandardCoin(ctx context.Context, req domain.StandardCoinRequest) (*domain.MutationResponse, error)
	UpdateNotifications(ctx context.Context, req domain.NotificationUpdate) (*domain.MutationResponse, error)
}

// Option configures a Mutator.
type Option func(*Mutator)

// WithAuditor records every attempted mutation.
func WithAuditor(a domain.Auditor) Option {
	return func(m *Mutator) { m.auditor = a }
}

// WithDismiss sets the callback that closes the merge dialog after success.
func WithDismiss(fn func()) Option {
	return func(m *Mutator) { m.onDismiss = fn }
}

// WithRefresh sets the callback that re-runs the fetch pipeline after success.
func WithRefresh(fn func(ctx context.Context)) Option {
	return func(m *Mutator) { m.onRefresh = fn }
}

// Mutator submits admin writes. Nothing is applied locally before the server
// confirms; on success the caller's refresh callback rebuilds the view.
type Mutator struct {
	client    Client
	notifier  domain.Notifier
	selection *Selection
	auditor   domain.Auditor
	onDismiss func()
	onRefresh func(ctx context.Context)
}

// NewMutator creates a mutator with an empty selection.
func NewMutator(client Client, notifier domain.Notifier, opts ...Option) *Mutator {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	m := &Mutator{
		client:    client,
		notifier:  notifier,
		selection: NewSelection(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Selection returns the merge candidate set.
func (m *Mutator) Selection() *Selection {
	return m.selection
}

// ParseCoinID parses an operator-supplied coin id.
func ParseCoinID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrCoinIDRequired
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidCoinID
	}
	return id, nil
}

// Merge attaches the selected coins to the mapped partners of targetID.
// On success the selection is cleared, the dialog dismissed and the list
// refreshed. On failure the selection is kept so the operator can retry.
func (m *Mutator) Merge(ctx context.Context, targetID int64) (*domain.MutationResponse, error) {
	selected := m.selection.Coins()
	if len(selected) == 0 {
		return nil, m.reject("merge", ErrEmptySelection)
	}
	if targetID <= 0 {
		return nil, m.reject("merge", ErrInvalidTarget)
	}

	coinIDs := make([]int64, 0, len(selected))
	for _, c := range selected {
		if c.ID > 0 {
			coinIDs = append(coinIDs, c.ID)
		}
	}
	if len(coinIDs) == 0 {
		return nil, m.reject("merge", ErrNoValidCoinIDs)
	}

	req := domain.MergeRequest{StandardCoinID: targetID, CoinIDs: coinIDs}
	resp, err := m.client.MergeCoinsToMapped(ctx, req)
	m.audit(ctx, "merge", strconv.FormatInt(targetID, 10), req, resp, err)
	if err != nil {
		msg := coinoswap.MessageOf(err, mergeFailedMessage)
		slog.Warn("Merge failed",
			slog.Int64("standard_coin_id", targetID),
			slog.Int("coins", len(coinIDs)),
			slog.Any("error", err))
		m.notifier.Error(msg)
		return nil, err
	}

	added := len(coinIDs)
	if resp.TotalAdded != nil && *resp.TotalAdded > 0 {
		added = *resp.TotalAdded
	}
	m.selection.Clear()
	if m.onDismiss != nil {
		m.onDismiss()
	}
	m.notifier.Success(successMessage(resp, fmt.Sprintf("Successfully merged %d partners", added)))
	m.refresh(ctx)
	return resp, nil
}

// SetApproval flips the approval flag of a standard coin.
func (m *Mutator) SetApproval(ctx context.Context, coinID int64, approved bool) (*domain.MutationResponse, error) {
	if coinID <= 0 {
		return nil, m.reject("approve", ErrInvalidCoinID)
	}
	req := domain.CoinUpdate{CoinID: coinID, IsApproved: &approved}
	return m.execute(ctx, "approve", coinID, req,
		func() (*domain.MutationResponse, error) { return m.client.UpdateStandardCoin(ctx, req) },
		"Approval status updated", "Failed to update approval status")
}

// UpdateCoin submits a validated standard-coin form.
func (m *Mutator) UpdateCoin(ctx context.Context, form CoinForm) (*domain.MutationResponse, error) {
	req, err := form.Build()
	if err != nil {
		return nil, m.reject("update-coin", err)
	}
	return m.execute(ctx, "update-coin", req.CoinID, req,
		func() (*domain.MutationResponse, error) { return m.client.UpdateStandardCoin(ctx, req) },
		"Standard coin updated successfully", "Failed to update standard coin")
}

// ManageStandardCoin creates or deletes a buy-side standard coin.
func (m *Mutator) ManageStandardCoin(ctx context.Context, action domain.StandardCoinAction, coinID int64) (*domain.MutationResponse, error) {
	op := "standard-coin-" + string(action)
	if action != domain.ActionCreate && action != domain.ActionDelete {
		return nil, m.reject(op, ErrInvalidAction)
	}
	if coinID <= 0 {
		return nil, m.reject(op, ErrInvalidCoinID)
	}
	req := domain.StandardCoinRequest{Action: action, CoinID: coinID}
	return m.execute(ctx, op, coinID, req,
		func() (*domain.MutationResponse, error) { return m.client.CreateOrDeleteStandardCoin(ctx, req) },
		fmt.Sprintf("Standard coin %sd successfully", action), fmt.Sprintf("Failed to %s standard coin", action))
}

// UpdateNotifications submits a validated notification form.
func (m *Mutator) UpdateNotifications(ctx context.Context, form NotificationForm) (*domain.MutationResponse, error) {
	req, err := form.Build()
	if err != nil {
		return nil, m.reject("notifications", err)
	}
	return m.execute(ctx, "notifications", req.StandardCoinID, req,
		func() (*domain.MutationResponse, error) { return m.client.UpdateNotifications(ctx, req) },
		"Notifications updated successfully", "Failed to update notifications")
}

func (m *Mutator) execute(ctx context.Context, op string, target int64, payload any,
	call func() (*domain.MutationResponse, error), okMsg, failMsg string) (*domain.MutationResponse, error) {

	resp, err := call()
	m.audit(ctx, op, strconv.FormatInt(target, 10), payload, resp, err)
	if err != nil {
		slog.Warn("Mutation failed", slog.String("op", op), slog.Int64("target", target), slog.Any("error", err))
		m.notifier.Error(coinoswap.MessageOf(err, failMsg))
		return nil, err
	}

	m.notifier.Success(successMessage(resp, okMsg))
	m.refresh(ctx)
	return resp, nil
}

// reject surfaces a local validation error. No request is issued.
func (m *Mutator) reject(op string, err error) error {
	m.notifier.Error(Message(err))
	return fmt.Errorf("%s: %w", op, err)
}

func (m *Mutator) refresh(ctx context.Context) {
	if m.onRefresh != nil {
		m.onRefresh(ctx)
	}
}

func (m *Mutator) audit(ctx context.Context, op, target string, payload any, resp *domain.MutationResponse, callErr error) {
	if m.auditor == nil {
		return
	}
	rec := domain.MutationRecord{Op: op, Target: target, Success: callErr == nil}
	if b, err := json.Marshal(payload); err == nil {
		rec.Payload = b
	}
	switch {
	case callErr != nil:
		rec.Message = callErr.Error()
	case resp != nil:
		rec.Message = resp.Message
	}
	if err := m.auditor.Record(ctx, rec); err != nil {
		slog.Error("Failed to record mutation", slog.String("op", op), slog.Any("error", err))
	}
}

func successMessage(resp *domain.MutationResponse, fallback string) string {
	if resp != nil && resp.Message != "" {
		return resp.Message
	}
	return fallback
}
