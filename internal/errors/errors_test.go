package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "message only",
			err:      &Error{Message: "something failed"},
			expected: "something failed",
		},
		{
			name:     "kind name when message empty",
			err:      &Error{Kind: KindEmptyRecipe},
			expected: "empty recipe",
		},
		{
			name:     "with key",
			err:      &Error{Key: "recipe.c.o.pattern", Message: "recipe has no command"},
			expected: "[recipe.c.o.pattern] recipe has no command",
		},
		{
			name:     "with key and names",
			err:      Unresolved("x", []string{"z"}),
			expected: "[x] unresolved placeholders: z",
		},
		{
			name:     "with cause",
			err:      &Error{Message: "cannot read", Cause: errors.New("permission denied")},
			expected: "cannot read: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := MissingFile("platform.txt", cause)

	if got := err.Unwrap(); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}

	errNoCause := &Error{Message: "no cause"}
	if got := errNoCause.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestError_IsSentinel(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
	}{
		{InvalidBoard("arduino:avr"), ErrInvalidBoardIdentifier},
		{MissingFile("boards.txt", nil), ErrMissingPropertyFile},
		{Malformed("platform.txt", "no assignments"), ErrMalformedPropertyLine},
		{Unresolved("x", []string{"z"}), ErrUnresolvedPlaceholder},
		{ToolNotFound([]string{"avr-gcc"}), ErrToolPathNotFound},
		{EmptyRecipe("recipe.ar.pattern"), ErrEmptyRecipe},
		{Configf("fqbn %s", "missing"), ErrConfig},
	}

	for _, tt := range tests {
		t.Run(tt.sentinel.Error(), func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.sentinel)
			}
			wrapped := fmt.Errorf("loading: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(wrapped) = false, want true")
			}
		})
	}

	if errors.Is(EmptyRecipe("k"), ErrUnresolvedPlaceholder) {
		t.Error("errors.Is matched a sentinel of a different kind")
	}
	if errors.Is(EmptyRecipe("k"), EmptyRecipe("k")) {
		t.Error("non-sentinel values must not match by kind")
	}
}

func TestError_ExitCode(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected int
	}{
		{KindRuntime, ExitRuntimeError},
		{KindConfig, ExitConfigError},
		{KindInvalidBoard, ExitConfigError},
		{KindMalformed, ExitConfigError},
		{KindUnresolved, ExitConfigError},
		{KindEmptyRecipe, ExitConfigError},
		{KindMissingFile, ExitEnvironmentError},
		{KindToolNotFound, ExitEnvironmentError},
		{KindEnvironment, ExitEnvironmentError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := &Error{Kind: tt.kind}
			if got := err.ExitCode(); got != tt.expected {
				t.Errorf("ExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitRuntimeError},
		{"config", Config("bad"), ExitConfigError},
		{"wrapped", fmt.Errorf("ctx: %w", Unresolved("k", nil)), ExitConfigError},
		{"joined takes highest", errors.Join(Unresolved("k", nil), ToolNotFound([]string{"t"})), ExitEnvironmentError},
		{"joined plain", errors.Join(errors.New("a"), errors.New("b")), ExitRuntimeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.expected {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestKind_StringUnknown(t *testing.T) {
	if got := Kind(99).String(); got != "kind(99)" {
		t.Errorf("String() = %q, want %q", got, "kind(99)")
	}
}
