package models

import "time"

// PromptResponsePair is a persisted prompt/response record. Rows are written
// once on a successful save and never updated.
type PromptResponsePair struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
}

// PromptRequest is the body of POST /api/ask-ai. Prompt is decoded loosely so
// the handler can tell a missing field from a non-string one.
type PromptRequest struct {
	Prompt any `json:"prompt"`
}

// SaveRequest is the body of POST /api/save.
type SaveRequest struct {
	Prompt   any `json:"prompt"`
	Response any `json:"response"`
}

// AskResponse is the success body of POST /api/ask-ai.
type AskResponse struct {
	Response string `json:"response"`
}

// SaveResponse is the success body of POST /api/save.
type SaveResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ErrorDetail is the error object nested in every failure body.
type ErrorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse is the wire shape of every failure.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string  `json:"status"`
	Timestamp     string  `json:"timestamp"`
	UptimeSeconds float64 `json:"uptime"`
	Database      string  `json:"database"`
}
