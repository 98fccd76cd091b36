package domain

import (
	"context"
	"encoding/json"
	"time"
)

// MutationRecord is one audited write against the admin API.
type MutationRecord struct {
	ID        string          `json:"id"`
	Op        string          `json:"op"`
	Target    string          `json:"target"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Auditor persists mutation records. Implementations fill ID and CreatedAt when empty.
type Auditor interface {
	Record(ctx context.Context, rec MutationRecord) error
}
