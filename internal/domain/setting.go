package domain

import "encoding/json"

// Setting is an admin configuration entry (key-value). Value is kept raw because
// stored values are weakly typed; see settings.ParseValue.
type Setting struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	Description string          `json:"description,omitempty"`
	UpdatedAt   string          `json:"updatedAt,omitempty"`
}

// Notifier receives user-visible messages (toasts in the dashboard, stderr in the CLI).
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// NopNotifier discards every message.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Error(string)   {}
