package ai_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superio007/futureblink-backend/internal/api/ai"
)

const chatCompletionBody = `{
	"id": "gen-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "mistralai/mistral-7b-instruct:free",
	"choices": [
		{"index": 0, "message": {"role": "assistant", "content": "4"}, "finish_reason": "stop"}
	],
	"usage": {"prompt_tokens": 10, "completion_tokens": 1, "total_tokens": 11}
}`

func newClient(t *testing.T, upstream *httptest.Server, timeout time.Duration) *ai.Client {
	t.Helper()
	c, err := ai.New(ai.Config{
		APIKey:   "test-key",
		BaseURL:  upstream.URL,
		Timeout:  timeout,
		SiteURL:  "http://localhost:3000",
		SiteName: "test",
	})
	require.NoError(t, err)
	return c
}

func TestNewRejectsUnknownModel(t *testing.T) {
	_, err := ai.New(ai.Config{APIKey: "k", Model: "gpt-4"})
	require.Error(t, err)

	var aiErr *ai.Error
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, ai.KindConfig, aiErr.Kind)
}

func TestNewDefaultsToFirstFreeModel(t *testing.T) {
	c, err := ai.New(ai.Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, ai.FreeModels[0], c.Model())
}

func TestCompleteSuccess(t *testing.T) {
	var gotReferer, gotTitle string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("HTTP-Referer")
		gotTitle = r.Header.Get("X-Title")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletionBody))
	}))
	defer srv.Close()

	c := newClient(t, srv, 5*time.Second)
	got, err := c.Complete(context.Background(), "What is 2+2?")
	require.NoError(t, err)
	assert.Equal(t, "4", got)
	assert.Equal(t, "http://localhost:3000", gotReferer)
	assert.Equal(t, "test", gotTitle)
}

func TestCompleteEmptyPromptNeverCallsUpstream(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := newClient(t, srv, 5*time.Second)
	_, err := c.Complete(context.Background(), "   ")
	require.Error(t, err)

	var aiErr *ai.Error
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, ai.KindConfig, aiErr.Kind)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestCompleteMissingKeyNeverCallsUpstream(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c, err := ai.New(ai.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "hello there")
	var aiErr *ai.Error
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, ai.KindConfig, aiErr.Kind)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestCompleteClassifiesStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind ai.Kind
	}{
		{
			"auth rejected",
			http.StatusUnauthorized,
			`{"error": {"message": "invalid key", "type": "invalid_request_error"}}`,
			ai.KindAuth,
		},
		{
			"rate limited",
			http.StatusTooManyRequests,
			`{"error": {"message": "slow down", "type": "rate_limit_error"}}`,
			ai.KindRateLimited,
		},
		{
			"server error",
			http.StatusInternalServerError,
			"upstream exploded",
			ai.KindUnavailable,
		},
		{
			"bad gateway",
			http.StatusBadGateway,
			"",
			ai.KindUnavailable,
		},
		{
			"unclassified client error",
			http.StatusBadRequest,
			`{"error": {"message": "bad request", "type": "invalid_request_error"}}`,
			ai.KindUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newClient(t, srv, 5*time.Second)
			_, err := c.Complete(context.Background(), "hello there")
			require.Error(t, err)

			var aiErr *ai.Error
			require.ErrorAs(t, err, &aiErr)
			assert.Equal(t, tt.wantKind, aiErr.Kind)
		})
	}
}

func TestCompleteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server watches for client disconnect;
		// otherwise r.Context() is never canceled and Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newClient(t, srv, 100*time.Millisecond)
	start := time.Now()
	_, err := c.Complete(context.Background(), "hello there")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "call must be aborted, not left to run")

	var aiErr *ai.Error
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, ai.KindUnavailable, aiErr.Kind)
}

func TestCompleteInvalidResponseFormat(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no choices", `{"id": "gen-1", "object": "chat.completion", "choices": []}`},
		{"empty content", `{"id": "gen-1", "object": "chat.completion", "choices": [{"index": 0, "message": {"role": "assistant", "content": ""}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newClient(t, srv, 5*time.Second)
			_, err := c.Complete(context.Background(), "hello there")
			require.Error(t, err)

			var aiErr *ai.Error
			require.ErrorAs(t, err, &aiErr)
			assert.Equal(t, ai.KindBadResponse, aiErr.Kind)
		})
	}
}

func TestCompleteUnreachableUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := newClient(t, srv, time.Second)
	_, err := c.Complete(context.Background(), "hello there")
	require.Error(t, err)

	var aiErr *ai.Error
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, ai.KindUnavailable, aiErr.Kind)
}
