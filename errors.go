package swiftcsv

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Every error produced by this package matches exactly one
// of them via errors.Is.
var (
	// ErrConfiguration is returned when a Format is invalid.
	ErrConfiguration = errors.New("swiftcsv: invalid format")
	// ErrMalformedInput is returned when the input cannot be tokenized.
	ErrMalformedInput = errors.New("swiftcsv: malformed input")
	// ErrRecordFormat is returned when a record does not fit the header.
	ErrRecordFormat = errors.New("swiftcsv: bad record")
	// ErrHeader is returned when a header violates the format's header policy.
	ErrHeader = errors.New("swiftcsv: bad header")
	// ErrUnsupportedFormat is returned when a Printer cannot honor the format.
	ErrUnsupportedFormat = errors.New("swiftcsv: unsupported format")
)

var (
	// ErrUnterminatedQuote is returned when a quoted field is not closed before EOF.
	ErrUnterminatedQuote = fmt.Errorf("%w: unterminated quoted field", ErrMalformedInput)
	// ErrInvalidAfterQuote is returned when a closing quote is followed by something other than a delimiter, line break or EOF.
	ErrInvalidAfterQuote = fmt.Errorf("%w: invalid character between closing quote and delimiter", ErrMalformedInput)
	// ErrEscapeAtEOF is returned when the input ends right after an escape character.
	ErrEscapeAtEOF = fmt.Errorf("%w: EOF whilst processing escape sequence", ErrMalformedInput)
	// ErrFieldCount is returned when a record contains an unexpected number of fields.
	ErrFieldCount = fmt.Errorf("%w: wrong number of fields", ErrRecordFormat)
	// ErrDuplicateHeader is returned when a header name repeats and the duplicate mode forbids it.
	ErrDuplicateHeader = fmt.Errorf("%w: duplicate header name", ErrHeader)
	// ErrMissingHeader is returned when a header name is blank and missing names are not allowed.
	ErrMissingHeader = fmt.Errorf("%w: missing header name", ErrHeader)
)

// ConfigError describes why a Format failed validation.
type ConfigError struct {
	Option string
	Msg    string
	// Err optionally narrows the failure (for example ErrDuplicateHeader).
	Err error
}

// Error formats the option name and message.
func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("swiftcsv: invalid format: %s: %s", e.Option, e.Msg)
}

// Unwrap exposes ErrConfiguration and, when set, the narrower Err.
func (e *ConfigError) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Err != nil {
		return []error{ErrConfiguration, e.Err}
	}
	return []error{ErrConfiguration}
}

// ParseError contains location information for CSV parsing errors.
type ParseError struct {
	// Record is the 1-based number of the record being assembled.
	Record int64
	Line   int
	Column int
	Err    error
}

// Error formats the parse error message with the stored record, line, column, and Err values.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("swiftcsv: parse error in record %d on line %d, column %d: %v", e.Record, e.Line, e.Column, e.Err)
}

// Unwrap returns the underlying Err so ParseError participates in errors.Unwrap.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HeaderError reports a header name rejected while building the header mapping.
type HeaderError struct {
	Name   string
	Header []string
	Err    error
}

func (e *HeaderError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%v: %q in [%s]", e.Err, e.Name, strings.Join(e.Header, ", "))
}

func (e *HeaderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func configErr(option, format string, args ...any) error {
	return &ConfigError{Option: option, Msg: fmt.Sprintf(format, args...)}
}
