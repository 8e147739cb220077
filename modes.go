package swiftcsv

import (
	"fmt"
	"strings"
)

// QuoteMode is the output quoting policy of a Format. It has no effect on parsing
// except for null handling in QuoteAllNonNull and QuoteNonNumeric.
type QuoteMode int

const (
	// QuoteMinimal quotes only values that contain special characters.
	QuoteMinimal QuoteMode = iota
	// QuoteAll quotes every value.
	QuoteAll
	// QuoteAllNonNull quotes every value except nulls.
	QuoteAllNonNull
	// QuoteNonNumeric quotes every value whose Go type is not numeric.
	QuoteNonNumeric
	// QuoteNone never quotes and escapes special characters instead.
	QuoteNone
)

var quoteModeNames = [...]string{
	QuoteMinimal:    "minimal",
	QuoteAll:        "all",
	QuoteAllNonNull: "all_non_null",
	QuoteNonNumeric: "non_numeric",
	QuoteNone:       "none",
}

func (m QuoteMode) String() string {
	if m < 0 || int(m) >= len(quoteModeNames) {
		return fmt.Sprintf("QuoteMode(%d)", int(m))
	}
	return strings.ToUpper(quoteModeNames[m])
}

// MarshalText implements encoding.TextMarshaler.
func (m QuoteMode) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(quoteModeNames) {
		return nil, fmt.Errorf("swiftcsv: unknown quote mode %d", int(m))
	}
	return []byte(quoteModeNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Names are case-insensitive.
func (m *QuoteMode) UnmarshalText(text []byte) error {
	name := normalizeEnumName(string(text))
	for i, n := range quoteModeNames {
		if n == name {
			*m = QuoteMode(i)
			return nil
		}
	}
	return configErr("quote_mode", "unknown quote mode %q", string(text))
}

// strict modes distinguish an absent value from an empty one when parsing.
func (m QuoteMode) strict() bool {
	return m == QuoteAllNonNull || m == QuoteNonNumeric
}

// DuplicateHeaderMode decides how repeated header names are treated.
type DuplicateHeaderMode int

const (
	// DuplicateAllowAll accepts every repeat; a name resolves to its last column.
	DuplicateAllowAll DuplicateHeaderMode = iota
	// DuplicateAllowEmpty accepts repeats of blank names only.
	DuplicateAllowEmpty
	// DuplicateDisallow rejects any repeat.
	DuplicateDisallow
)

var duplicateModeNames = [...]string{
	DuplicateAllowAll:   "allow_all",
	DuplicateAllowEmpty: "allow_empty",
	DuplicateDisallow:   "disallow",
}

func (m DuplicateHeaderMode) String() string {
	if m < 0 || int(m) >= len(duplicateModeNames) {
		return fmt.Sprintf("DuplicateHeaderMode(%d)", int(m))
	}
	return strings.ToUpper(duplicateModeNames[m])
}

// MarshalText implements encoding.TextMarshaler.
func (m DuplicateHeaderMode) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(duplicateModeNames) {
		return nil, fmt.Errorf("swiftcsv: unknown duplicate header mode %d", int(m))
	}
	return []byte(duplicateModeNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Names are case-insensitive.
func (m *DuplicateHeaderMode) UnmarshalText(text []byte) error {
	name := normalizeEnumName(string(text))
	for i, n := range duplicateModeNames {
		if n == name {
			*m = DuplicateHeaderMode(i)
			return nil
		}
	}
	return configErr("duplicate_header_mode", "unknown duplicate header mode %q", string(text))
}

// normalizeEnumName accepts "ALL_NON_NULL", "all-non-null" and "all_non_null" alike.
func normalizeEnumName(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}
