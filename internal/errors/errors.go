// Package errors provides structured error kinds and exit codes for boardrecipe.
//
// Every failure raised while loading a board configuration is an *Error with a
// Kind. Callers match kinds with the standard library:
//
//	if errors.Is(err, boarderrors.ErrUnresolvedPlaceholder) { ... }
//
// The exported Err* values are sentinels: they match any *Error of the same
// kind regardless of message.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess          = 0 // Success
	ExitRuntimeError     = 1 // Runtime error (I/O failure, etc.)
	ExitConfigError      = 2 // Configuration error (bad FQBN, unresolved property, etc.)
	ExitEnvironmentError = 3 // Environment error (platform not installed, tool missing)
)

// Kind represents the type of error.
type Kind int

const (
	KindRuntime Kind = iota
	KindConfig
	KindInvalidBoard
	KindMissingFile
	KindMalformed
	KindUnresolved
	KindToolNotFound
	KindEmptyRecipe
	KindEnvironment
)

var kindNames = map[Kind]string{
	KindRuntime:      "runtime error",
	KindConfig:       "configuration error",
	KindInvalidBoard: "invalid board identifier",
	KindMissingFile:  "missing property file",
	KindMalformed:    "malformed property file",
	KindUnresolved:   "unresolved placeholder",
	KindToolNotFound: "tool path not found",
	KindEmptyRecipe:  "empty recipe",
	KindEnvironment:  "environment error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the base error type for boardrecipe.
type Error struct {
	Kind    Kind
	Message string
	Key     string   // Property or recipe key if applicable
	Names   []string // Offending placeholder or tool names
	Cause   error    // Underlying error
}

// Sentinels for errors.Is.
var (
	ErrInvalidBoardIdentifier = &Error{Kind: KindInvalidBoard}
	ErrMissingPropertyFile    = &Error{Kind: KindMissingFile}
	ErrMalformedPropertyLine  = &Error{Kind: KindMalformed}
	ErrUnresolvedPlaceholder  = &Error{Kind: KindUnresolved}
	ErrToolPathNotFound       = &Error{Kind: KindToolNotFound}
	ErrEmptyRecipe            = &Error{Kind: KindEmptyRecipe}
	ErrConfig                 = &Error{Kind: KindConfig}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if len(e.Names) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Names, ", "))
	}
	if e.Key != "" {
		msg = fmt.Sprintf("[%s] %s", e.Key, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Key == "" && t.Cause == nil
}

// ExitCode returns the appropriate exit code for this error.
func (e *Error) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindInvalidBoard, KindMalformed, KindUnresolved, KindEmptyRecipe:
		return ExitConfigError
	case KindMissingFile, KindToolNotFound, KindEnvironment:
		return ExitEnvironmentError
	default:
		return ExitRuntimeError
	}
}

// InvalidBoard reports an FQBN with fewer than three segments.
func InvalidBoard(fqbn string) *Error {
	return &Error{
		Kind:    KindInvalidBoard,
		Message: fmt.Sprintf("invalid board identifier %q: want packager:arch:board[:options]", fqbn),
	}
}

// MissingFile reports a property file that could not be read.
func MissingFile(path string, cause error) *Error {
	return &Error{
		Kind:    KindMissingFile,
		Message: fmt.Sprintf("cannot read property file %s", path),
		Cause:   cause,
	}
}

// Malformed reports a property source that yields no usable assignment.
func Malformed(source, message string) *Error {
	return &Error{
		Kind:    KindMalformed,
		Key:     source,
		Message: message,
	}
}

// Unresolved reports a property whose placeholders could not be expanded.
func Unresolved(key string, names []string) *Error {
	return &Error{
		Kind:    KindUnresolved,
		Key:     key,
		Message: "unresolved placeholders",
		Names:   names,
	}
}

// Cycle reports properties whose values reference each other.
func Cycle(path string) *Error {
	return &Error{
		Kind:    KindUnresolved,
		Message: "circular reference " + path,
	}
}

// ToolNotFound reports tool references the package index could not satisfy.
func ToolNotFound(names []string) *Error {
	return &Error{
		Kind:    KindToolNotFound,
		Message: "no installed tool matches",
		Names:   names,
	}
}

// EmptyRecipe reports a recipe string without a command token.
func EmptyRecipe(key string) *Error {
	return &Error{
		Kind:    KindEmptyRecipe,
		Key:     key,
		Message: "recipe has no command",
	}
}

// Config creates a new configuration error.
func Config(message string) *Error {
	return &Error{
		Kind:    KindConfig,
		Message: message,
	}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *Error {
	return Config(fmt.Sprintf(format, args...))
}

// Environmentf creates a new environment error with formatting.
func Environmentf(format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindEnvironment,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *Error {
	return &Error{
		Kind:    KindRuntime,
		Message: message,
		Cause:   err,
	}
}

// GetExitCode returns the exit code for an error. Joined errors use the
// highest code among their members.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		code := ExitSuccess
		for _, e := range joined.Unwrap() {
			if c := GetExitCode(e); c > code {
				code = c
			}
		}
		if code != ExitSuccess {
			return code
		}
		return ExitRuntimeError
	}
	var be *Error
	if stderrors.As(err, &be) {
		return be.ExitCode()
	}
	return ExitRuntimeError
}
