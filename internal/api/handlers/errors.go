package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/superio007/futureblink-backend/internal/api/ai"
	"github.com/superio007/futureblink-backend/internal/shared/database"
	"github.com/superio007/futureblink-backend/internal/shared/models"
)

// Stable machine-readable error codes. Clients branch on these, so they are
// part of the API contract.
const (
	CodeInvalidPrompt     = "INVALID_PROMPT"
	CodeMissingField      = "MISSING_REQUIRED_FIELD"
	CodeInvalidSaveData   = "INVALID_SAVE_DATA"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeAIAuth            = "AI_AUTH_ERROR"
	CodeAIRateLimit       = "AI_RATE_LIMIT"
	CodeAIUnavailable     = "AI_SERVICE_UNAVAILABLE"
	CodeAIConfig          = "AI_CONFIG_ERROR"
	CodeAIProcessing      = "AI_PROCESSING_ERROR"
	CodeDBUnavailable     = "DATABASE_UNAVAILABLE"
	CodeDuplicateEntry    = "DUPLICATE_ENTRY"
	CodeValidation        = "VALIDATION_ERROR"
	CodeDatabaseError     = "DATABASE_ERROR"
	CodeRouteNotFound     = "ROUTE_NOT_FOUND"
	CodeRequestTimeout    = "REQUEST_TIMEOUT"
)

// apiError is one terminal classification of a failed request. The mapping
// from internal failures to apiError is total: every failure path ends in
// exactly one of these, never a raw error leaking to the client.
type apiError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, logger *slog.Logger, e apiError) {
	logger.Warn("request failed",
		"code", e.Code,
		"status", e.Status,
		"message", e.Message)

	writeJSON(w, e.Status, models.ErrorResponse{
		Success: false,
		Error: models.ErrorDetail{
			Message: e.Message,
			Code:    e.Code,
			Details: e.Details,
		},
	})
}

// translateAI maps a completion-client failure to its external classification.
// Upstream details are attached only in development mode; credentials and raw
// traces never reach the client otherwise.
func translateAI(err error, dev bool) apiError {
	var e apiError

	var aiErr *ai.Error
	if errors.As(err, &aiErr) {
		switch aiErr.Kind {
		case ai.KindAuth:
			e = apiError{Status: http.StatusUnauthorized, Code: CodeAIAuth, Message: "Invalid API key for AI service"}
		case ai.KindRateLimited:
			e = apiError{Status: http.StatusTooManyRequests, Code: CodeAIRateLimit, Message: "AI service rate limit exceeded, please try again later"}
		case ai.KindUnavailable:
			e = apiError{Status: http.StatusServiceUnavailable, Code: CodeAIUnavailable, Message: "AI service is currently unavailable"}
		case ai.KindConfig:
			e = apiError{Status: http.StatusInternalServerError, Code: CodeAIConfig, Message: "AI service is not configured"}
		case ai.KindBadResponse:
			e = apiError{Status: http.StatusInternalServerError, Code: CodeAIProcessing, Message: "AI service returned an invalid response format"}
		default:
			e = apiError{Status: http.StatusInternalServerError, Code: CodeAIProcessing, Message: aiErr.Message}
		}
	} else {
		e = apiError{Status: http.StatusInternalServerError, Code: CodeAIProcessing, Message: "Failed to process AI request"}
	}

	if dev {
		e.Details = err.Error()
	}
	return e
}

// translateDB maps a persistence-gateway failure to its external
// classification.
func translateDB(err error, dev bool) apiError {
	var e apiError

	switch {
	case errors.Is(err, database.ErrUnavailable):
		e = apiError{Status: http.StatusServiceUnavailable, Code: CodeDBUnavailable, Message: "Database is currently unavailable"}
	case errors.Is(err, database.ErrDuplicate):
		e = apiError{Status: http.StatusConflict, Code: CodeDuplicateEntry, Message: "This prompt and response pair already exists"}
	case errors.Is(err, database.ErrValidation):
		e = apiError{Status: http.StatusBadRequest, Code: CodeValidation, Message: "Saved data failed database validation"}
	default:
		e = apiError{Status: http.StatusInternalServerError, Code: CodeDatabaseError, Message: "Failed to save to database"}
	}

	if dev {
		e.Details = err.Error()
	}
	return e
}
