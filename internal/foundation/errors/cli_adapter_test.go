package errors

import (
	"log/slog"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: 0,
		},
		{
			name: "classified validation error",
			err: NewError(CategoryValidation, "invalid input").
				WithSeverity(SeverityError).
				Build(),
			expected: 2,
		},
		{
			name: "classified not found error",
			err: NewError(CategoryNotFound, "no such loader").
				WithSeverity(SeverityError).
				Build(),
			expected: 2,
		},
		{
			name:     "classified config error",
			err:      ConfigError("bad config").Build(),
			expected: 7,
		},
		{
			name:     "classified hook error",
			err:      HookError("hook failed").Build(),
			expected: 9,
		},
		{
			name:     "classified compile error",
			err:      CompileError("compile failed").Build(),
			expected: 11,
		},
		{
			name:     "unclassified error",
			err:      &customError{msg: "unknown error"},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.ExitCodeFor(tt.err)
			if got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{
			name:     "nil error",
			err:      nil,
			contains: "",
		},
		{
			name: "internal error in non-verbose mode",
			err: NewError(CategoryInternal, "internal issue").
				WithSeverity(SeverityError).
				Build(),
			contains: "Internal error occurred (use -v for details)",
		},
		{
			name:     "validation error in non-verbose mode",
			err:      ValidationError("missing required key: output.dir").Build(),
			contains: "[validation:error] missing required key: output.dir",
		},
		{
			name:     "unclassified error",
			err:      &customError{msg: "unknown error"},
			contains: "Error: unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.FormatError(tt.err)
			if tt.contains == "" && got != "" {
				t.Errorf("FormatError() = %q, want empty string", got)
			} else if tt.contains != "" && got != tt.contains {
				t.Errorf("FormatError() = %q, want %q", got, tt.contains)
			}
		})
	}
}

func TestCLIErrorAdapter_VerboseShowsClassifiedDetail(t *testing.T) {
	adapter := NewCLIErrorAdapter(true, slog.Default())

	err := HookError("hook dispatch failed").Build()
	got := adapter.FormatError(err)
	if got != err.Error() {
		t.Errorf("FormatError() verbose = %q, want %q", got, err.Error())
	}
}

// customError is a test helper for unclassified errors
type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}
