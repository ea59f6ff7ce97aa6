package validate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superio007/futureblink-backend/internal/api/validate"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello world", "hello world"},
		{"surrounding whitespace", "  hello  ", "hello"},
		{"null byte", "he\x00llo", "hello"},
		{"bell and backspace", "\x07\x08hey", "hey"},
		{"vertical tab and form feed", "a\x0bb\x0cc", "abc"},
		{"delete char", "abc\x7f", "abc"},
		{"newline and tab survive", "line1\nline2\tend", "line1\nline2\tend"},
		{"only control chars", "\x00\x01\x02", ""},
		{"unicode untouched", "héllo wörld", "héllo wörld"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validate.Sanitize(tt.in))
		})
	}
}

// Sanitizing an already sanitized string must return it unchanged.
func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{"hello", "  padded  ", "a\x00b\x1fc", "multi\nline"}
	for _, in := range inputs {
		once := validate.Sanitize(in)
		assert.Equal(t, once, validate.Sanitize(once))
	}
}

func TestPrompt(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantValid bool
		wantErr   string
	}{
		{"valid short", "abc", true, ""},
		{"valid sentence", "What is 2+2?", true, ""},
		{"valid at max length", strings.Repeat("a", 10000), true, ""},
		{"empty", "", false, "Prompt cannot be empty"},
		{"whitespace only", "   \t\n  ", false, "Prompt cannot be empty"},
		{"control chars only", "\x00\x01", false, "Prompt cannot be empty"},
		{"one char", "a", false, "Prompt must be at least 3 characters"},
		{"two chars after trim", "  ab  ", false, "Prompt must be at least 3 characters"},
		{"over max length", strings.Repeat("a", 10001), false, "Prompt is too long (maximum 10,000 characters)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validate.Prompt(tt.in)
			assert.Equal(t, tt.wantValid, got.Valid)
			if tt.wantErr != "" {
				require.NotEmpty(t, got.Errors)
				assert.Equal(t, tt.wantErr, got.Errors[0])
			} else {
				assert.Empty(t, got.Errors)
			}
		})
	}
}

// Valid prompts come back trimmed; downstream uses the sanitized value.
func TestPromptSanitizedOutput(t *testing.T) {
	got := validate.Prompt("  What is 2+2?  ")
	require.True(t, got.Valid)
	assert.Equal(t, "What is 2+2?", got.Sanitized)
}

func TestPromptCountsRunes(t *testing.T) {
	// Three multibyte runes meet the minimum even though the byte count
	// would suggest otherwise for a shorter string.
	got := validate.Prompt("äöü")
	assert.True(t, got.Valid)
}

func TestSaveData(t *testing.T) {
	tests := []struct {
		name      string
		prompt    string
		response  string
		wantValid bool
		wantErrs  []string
	}{
		{"both valid", "p", "r", true, nil},
		{"prompt empty", "", "r", false, []string{"Prompt cannot be empty"}},
		{"response empty", "p", "", false, []string{"Response cannot be empty"}},
		{"response whitespace", "p", "  ", false, []string{"Response cannot be empty"}},
		{
			"both empty accumulates in order",
			"", "",
			false,
			[]string{"Prompt cannot be empty", "Response cannot be empty"},
		},
		{
			"prompt too long and response empty",
			strings.Repeat("x", 10001), "",
			false,
			[]string{"Prompt is too long (maximum 10,000 characters)", "Response cannot be empty"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validate.SaveData(tt.prompt, tt.response)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.Equal(t, tt.wantErrs, got.Errors)
		})
	}
}

func TestSaveDataSanitizes(t *testing.T) {
	got := validate.SaveData("  p1  ", "\x00resp ")
	require.True(t, got.Valid)
	assert.Equal(t, "p1", got.Prompt)
	assert.Equal(t, "resp", got.Response)
}
