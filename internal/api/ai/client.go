// Package ai wraps the outbound completion call to the OpenRouter API.
// One attempt per call, a client-side timeout, and every failure classified
// into a Kind the handler layer can translate without string matching.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultBaseURL is the OpenRouter OpenAI-compatible endpoint.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// FreeModels is the allow-list of models this deployment may call. Anything
// outside the list fails locally before any network call.
var FreeModels = []string{
	"mistralai/mistral-7b-instruct:free",
	"meta-llama/llama-3.3-70b-instruct:free",
	"google/gemma-3-27b-it:free",
	"deepseek/deepseek-chat-v3-0324:free",
}

// Kind classifies a completion failure.
type Kind int

const (
	// KindConfig means the client is locally misconfigured (missing key,
	// disallowed model). No network call was made.
	KindConfig Kind = iota
	// KindAuth means the upstream rejected our credential (HTTP 401).
	KindAuth
	// KindRateLimited means the upstream rate-limited us (HTTP 429).
	KindRateLimited
	// KindUnavailable covers 5xx, timeouts, and connection failures.
	KindUnavailable
	// KindBadResponse means a 2xx body without the expected content.
	KindBadResponse
	// KindUpstream is any other upstream failure, message passed through.
	KindUpstream
)

// Error is a classified completion failure.
type Error struct {
	Kind    Kind
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

// Config configures a Client.
type Config struct {
	APIKey   string
	Model    string
	BaseURL  string        // defaults to DefaultBaseURL
	Timeout  time.Duration // defaults to 30s
	SiteURL  string        // sent as HTTP-Referer
	SiteName string        // sent as X-Title
}

// Client issues single-attempt completion calls. Retry policy, if any,
// belongs to the caller.
type Client struct {
	api     *openai.Client
	model   string
	apiKey  string
	timeout time.Duration
}

// New builds a Client. A missing API key is not an error here: the client
// fails fast on first use instead, so the process can start without the
// credential and report a configuration error per request.
func New(cfg Config) (*Client, error) {
	model := cfg.Model
	if model == "" {
		model = FreeModels[0]
	}
	if !ModelAllowed(model) {
		return nil, &Error{Kind: KindConfig, Message: fmt.Sprintf("model %q is not in the free-model allow-list", model)}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = baseURL
	apiCfg.HTTPClient = &http.Client{
		Transport: &siteHeaderTransport{
			base:     http.DefaultTransport,
			siteURL:  cfg.SiteURL,
			siteName: cfg.SiteName,
		},
	}

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   model,
		apiKey:  cfg.APIKey,
		timeout: timeout,
	}, nil
}

// Model reports the fixed model this deployment uses.
func (c *Client) Model() string { return c.model }

// ModelAllowed reports whether model is in the free-model allow-list.
func ModelAllowed(model string) bool {
	for _, m := range FreeModels {
		if m == model {
			return true
		}
	}
	return false
}

// Complete sends prompt as a single user message and returns the completion
// text. The prompt must already be sanitized and non-empty; an empty prompt
// never reaches the wire.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", &Error{Kind: KindConfig, Message: "prompt must not be empty"}
	}
	if c.apiKey == "" {
		return "", &Error{Kind: KindConfig, Message: "OpenRouter API key is not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &Error{Kind: KindBadResponse, Message: "AI service returned an invalid response format"}
	}

	return resp.Choices[0].Message.Content, nil
}

// classify maps transport and API failures onto error kinds.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindUnavailable, Message: "AI service request timed out", err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || errors.Is(err, syscall.ECONNREFUSED) {
		return &Error{Kind: KindUnavailable, Message: "unable to connect to AI service", err: err}
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusUnauthorized:
		return &Error{Kind: KindAuth, Message: "invalid AI service credential", err: err}
	case status == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Message: "AI service rate limit exceeded, retry later", err: err}
	case status >= 500:
		return &Error{Kind: KindUnavailable, Message: "AI service is unavailable", err: err}
	}

	return &Error{Kind: KindUpstream, Message: err.Error(), err: err}
}

// siteHeaderTransport attaches the OpenRouter attribution headers to every
// outbound request.
type siteHeaderTransport struct {
	base     http.RoundTripper
	siteURL  string
	siteName string
}

func (t *siteHeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.siteURL != "" {
		req.Header.Set("HTTP-Referer", t.siteURL)
	}
	if t.siteName != "" {
		req.Header.Set("X-Title", t.siteName)
	}
	return t.base.RoundTrip(req)
}
