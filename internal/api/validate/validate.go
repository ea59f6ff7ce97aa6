// Package validate normalizes and checks free-text prompt input before it
// reaches the completion client or the persistence gateway. Downstream code
// must use the sanitized values, never the raw ones.
package validate

import (
	"strings"
)

const (
	// MinPromptLength is the minimum prompt length after sanitizing.
	MinPromptLength = 3
	// MaxPromptLength is the maximum prompt length after sanitizing.
	MaxPromptLength = 10000
)

// Result is the outcome of validating a single prompt.
type Result struct {
	Valid     bool
	Errors    []string
	Sanitized string
}

// SaveResult is the outcome of validating a prompt/response pair.
type SaveResult struct {
	Valid    bool
	Errors   []string
	Prompt   string
	Response string
}

// Sanitize strips ASCII control characters (0x00-0x08, 0x0B-0x0C, 0x0E-0x1F,
// 0x7F) and trims surrounding whitespace. Sanitizing an already sanitized
// string returns it unchanged.
func Sanitize(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 0x00 && r <= 0x08:
			return -1
		case r == 0x0B || r == 0x0C:
			return -1
		case r >= 0x0E && r <= 0x1F:
			return -1
		case r == 0x7F:
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(cleaned)
}

// Prompt validates a raw prompt for the completion endpoint. All applicable
// errors are accumulated in a fixed order so the reported message is
// deterministic.
func Prompt(raw string) Result {
	sanitized := Sanitize(raw)
	n := len([]rune(sanitized))

	var errs []string
	switch {
	case n == 0:
		errs = append(errs, "Prompt cannot be empty")
	case n < MinPromptLength:
		errs = append(errs, "Prompt must be at least 3 characters")
	case n > MaxPromptLength:
		errs = append(errs, "Prompt is too long (maximum 10,000 characters)")
	}

	return Result{
		Valid:     len(errs) == 0,
		Errors:    errs,
		Sanitized: sanitized,
	}
}

// SaveData validates a prompt/response pair for persistence. Unlike Prompt,
// the minimum-length rule is relaxed to non-empty: the pair invariant only
// requires both fields non-empty and the prompt within the maximum. Errors
// accumulate across both fields, prompt first, rather than short-circuiting.
func SaveData(prompt, response string) SaveResult {
	sp := Sanitize(prompt)
	sr := Sanitize(response)

	var errs []string
	if n := len([]rune(sp)); n == 0 {
		errs = append(errs, "Prompt cannot be empty")
	} else if n > MaxPromptLength {
		errs = append(errs, "Prompt is too long (maximum 10,000 characters)")
	}
	if len([]rune(sr)) == 0 {
		errs = append(errs, "Response cannot be empty")
	}

	return SaveResult{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Prompt:   sp,
		Response: sr,
	}
}
