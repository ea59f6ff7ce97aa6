// Package handlers is the request pipeline: decode, validate, rate-limit,
// dispatch to the completion client or the persistence gateway, and translate
// every failure into a structured response.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/superio007/futureblink-backend/internal/api/ratelimit"
	"github.com/superio007/futureblink-backend/internal/api/validate"
	"github.com/superio007/futureblink-backend/internal/shared/database"
	"github.com/superio007/futureblink-backend/internal/shared/models"
)

// Completer is the outbound completion call. Satisfied by *ai.Client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Store is the persistence gateway. Satisfied by *database.DB.
type Store interface {
	SavePair(ctx context.Context, prompt, response string) (string, error)
	State() database.State
}

// ResponseCache is the optional completion cache. Satisfied by *cache.Cache;
// may be nil, in which case caching is skipped entirely.
type ResponseCache interface {
	Get(ctx context.Context, model, prompt string) (string, bool)
	Set(ctx context.Context, model, prompt, response string)
}

// Options carries the behavior flags for a Handler.
type Options struct {
	// Dev attaches upstream error details to failure bodies.
	Dev bool
	// TrustProxy honors X-Forwarded-For when resolving the rate-limit
	// identity. Leave false unless a trusted reverse proxy sets the header.
	TrustProxy bool
}

type Handler struct {
	ai         Completer
	store      Store
	cache      ResponseCache
	limiter    *ratelimit.Limiter
	logger     *slog.Logger
	dev        bool
	trustProxy bool
	started    time.Time
}

func NewHandler(completer Completer, store Store, cache ResponseCache, limiter *ratelimit.Limiter, logger *slog.Logger, opts Options) *Handler {
	return &Handler{
		ai:         completer,
		store:      store,
		cache:      cache,
		limiter:    limiter,
		logger:     logger,
		dev:        opts.Dev,
		trustProxy: opts.TrustProxy,
		started:    time.Now(),
	}
}

// checkRateLimit consults the limiter for one validated request. It runs
// after validation and before dispatch, so a request rejected with 400 never
// consumes a window slot. Returns false after writing the 429 response.
func (h *Handler) checkRateLimit(w http.ResponseWriter, r *http.Request) bool {
	decision := h.limiter.Allow(clientIP(r, h.trustProxy))

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(h.limiter.Limit()))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

	if !decision.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(decision.ResetSeconds))
		writeError(w, h.logger, apiError{
			Status:  http.StatusTooManyRequests,
			Code:    CodeRateLimitExceeded,
			Message: "Too many requests, please try again later",
			Details: map[string]int{"resetSeconds": decision.ResetSeconds},
		})
		return false
	}
	return true
}

// HandleAskAI handles POST /api/ask-ai.
func (h *Handler) HandleAskAI(w http.ResponseWriter, r *http.Request) {
	var req models.PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apiError{
			Status: http.StatusBadRequest, Code: CodeInvalidPrompt, Message: "Invalid JSON body",
		})
		return
	}

	if req.Prompt == nil {
		writeError(w, h.logger, apiError{
			Status: http.StatusBadRequest, Code: CodeMissingField, Message: "Prompt is required",
		})
		return
	}
	raw, ok := req.Prompt.(string)
	if !ok {
		writeError(w, h.logger, apiError{
			Status: http.StatusBadRequest, Code: CodeInvalidPrompt, Message: "Prompt must be a string",
		})
		return
	}

	v := validate.Prompt(raw)
	if !v.Valid {
		writeError(w, h.logger, apiError{
			Status:  http.StatusBadRequest,
			Code:    CodeInvalidPrompt,
			Message: v.Errors[0],
			Details: v.Errors,
		})
		return
	}

	if !h.checkRateLimit(w, r) {
		return
	}

	ctx := r.Context()

	if h.cache != nil {
		if cached, ok := h.cache.Get(ctx, h.ai.Model(), v.Sanitized); ok {
			w.Header().Set("X-Cache-Hit", "true")
			writeJSON(w, http.StatusOK, models.AskResponse{Response: cached})
			return
		}
	}

	answer, err := h.ai.Complete(ctx, v.Sanitized)
	if err != nil {
		// The global request deadline takes precedence over the client's
		// own timeout classification.
		if ctx.Err() != nil {
			writeError(w, h.logger, apiError{
				Status: http.StatusRequestTimeout, Code: CodeRequestTimeout, Message: "Request timed out",
			})
			return
		}
		writeError(w, h.logger, translateAI(err, h.dev))
		return
	}

	if h.cache != nil {
		// Best-effort, off the request path.
		go func(model, prompt, answer string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			h.cache.Set(ctx, model, prompt, answer)
		}(h.ai.Model(), v.Sanitized, answer)
	}

	writeJSON(w, http.StatusOK, models.AskResponse{Response: answer})
}

// HandleSave handles POST /api/save.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req models.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apiError{
			Status: http.StatusBadRequest, Code: CodeInvalidSaveData, Message: "Invalid JSON body",
		})
		return
	}

	var missing []string
	if req.Prompt == nil {
		missing = append(missing, "Prompt is required")
	}
	if req.Response == nil {
		missing = append(missing, "Response is required")
	}
	if len(missing) > 0 {
		writeError(w, h.logger, apiError{
			Status:  http.StatusBadRequest,
			Code:    CodeMissingField,
			Message: missing[0],
			Details: missing,
		})
		return
	}

	var badType []string
	prompt, ok := req.Prompt.(string)
	if !ok {
		badType = append(badType, "Prompt must be a string")
	}
	response, ok := req.Response.(string)
	if !ok {
		badType = append(badType, "Response must be a string")
	}
	if len(badType) > 0 {
		writeError(w, h.logger, apiError{
			Status:  http.StatusBadRequest,
			Code:    CodeInvalidSaveData,
			Message: badType[0],
			Details: badType,
		})
		return
	}

	v := validate.SaveData(prompt, response)
	if !v.Valid {
		writeError(w, h.logger, apiError{
			Status:  http.StatusBadRequest,
			Code:    CodeInvalidSaveData,
			Message: v.Errors[0],
			Details: v.Errors,
		})
		return
	}

	if !h.checkRateLimit(w, r) {
		return
	}

	id, err := h.store.SavePair(r.Context(), v.Prompt, v.Response)
	if err != nil {
		if r.Context().Err() != nil {
			writeError(w, h.logger, apiError{
				Status: http.StatusRequestTimeout, Code: CodeRequestTimeout, Message: "Request timed out",
			})
			return
		}
		writeError(w, h.logger, translateDB(err, h.dev))
		return
	}

	writeJSON(w, http.StatusCreated, models.SaveResponse{
		Success: true,
		ID:      id,
		Message: "Prompt and response saved successfully",
	})
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:        "OK",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds: time.Since(h.started).Seconds(),
		Database:      h.store.State().String(),
	})
}

// HandleNotFound handles unmatched routes and methods.
func (h *Handler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, h.logger, apiError{
		Status: http.StatusNotFound, Code: CodeRouteNotFound, Message: "Route not found",
	})
}
