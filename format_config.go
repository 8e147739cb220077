package swiftcsv

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// FormatConfig is the serializable form of a Format. Nil fields keep the
// value of the base preset.
//
//	base: MySQL
//	null_string: "NULL"
//	header: [id, name]
type FormatConfig struct {
	// Base names the preset to start from. Empty means Default.
	Base string `yaml:"base,omitempty" json:"base,omitempty"`

	Delimiter *string `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
	// Quote, Escape and CommentMarker hold one character; "" disables them.
	Quote           *string              `yaml:"quote,omitempty" json:"quote,omitempty"`
	Escape          *string              `yaml:"escape,omitempty" json:"escape,omitempty"`
	CommentMarker   *string              `yaml:"comment_marker,omitempty" json:"comment_marker,omitempty"`
	QuoteMode       *QuoteMode           `yaml:"quote_mode,omitempty" json:"quote_mode,omitempty"`
	RecordSeparator *string              `yaml:"record_separator,omitempty" json:"record_separator,omitempty"`
	NullString      *string              `yaml:"null_string,omitempty" json:"null_string,omitempty"`
	NoNullString    bool                 `yaml:"no_null_string,omitempty" json:"no_null_string,omitempty"`
	DuplicateHeader *DuplicateHeaderMode `yaml:"duplicate_header_mode,omitempty" json:"duplicate_header_mode,omitempty"`

	// Header lists explicit column names. AutoHeader reads them from the
	// first record instead; NoHeader disables header handling.
	Header         []string `yaml:"header,omitempty" json:"header,omitempty"`
	AutoHeader     bool     `yaml:"auto_header,omitempty" json:"auto_header,omitempty"`
	NoHeader       bool     `yaml:"no_header,omitempty" json:"no_header,omitempty"`
	HeaderComments []string `yaml:"header_comments,omitempty" json:"header_comments,omitempty"`

	SkipHeaderRecord        *bool `yaml:"skip_header_record,omitempty" json:"skip_header_record,omitempty"`
	AllowMissingColumnNames *bool `yaml:"allow_missing_column_names,omitempty" json:"allow_missing_column_names,omitempty"`
	IgnoreHeaderCase        *bool `yaml:"ignore_header_case,omitempty" json:"ignore_header_case,omitempty"`
	IgnoreEmptyLines        *bool `yaml:"ignore_empty_lines,omitempty" json:"ignore_empty_lines,omitempty"`
	IgnoreSurroundingSpaces *bool `yaml:"ignore_surrounding_spaces,omitempty" json:"ignore_surrounding_spaces,omitempty"`
	Trim                    *bool `yaml:"trim,omitempty" json:"trim,omitempty"`
	TrailingDelimiter       *bool `yaml:"trailing_delimiter,omitempty" json:"trailing_delimiter,omitempty"`
	AutoFlush               *bool `yaml:"auto_flush,omitempty" json:"auto_flush,omitempty"`
	LenientEOF              *bool `yaml:"lenient_eof,omitempty" json:"lenient_eof,omitempty"`
	TrailingData            *bool `yaml:"trailing_data,omitempty" json:"trailing_data,omitempty"`
}

// Build resolves the base preset, applies the overrides and validates the result.
func (c FormatConfig) Build() (*Format, error) {
	base := Default
	if strings.TrimSpace(c.Base) != "" {
		var ok bool
		if base, ok = Preset(c.Base); !ok {
			return nil, configErr("base", "unknown preset %q (known: %s)", c.Base, strings.Join(PresetNames(), ", "))
		}
	}
	b := base.Builder()

	if c.Delimiter != nil {
		b.SetDelimiter(*c.Delimiter)
	}
	for _, ch := range []struct {
		option  string
		value   *string
		set     func(rune) *Builder
		disable func() *Builder
	}{
		{"quote", c.Quote, b.SetQuote, b.DisableQuote},
		{"escape", c.Escape, b.SetEscape, b.DisableEscape},
		{"comment_marker", c.CommentMarker, b.SetCommentMarker, b.DisableCommentMarker},
	} {
		if ch.value == nil {
			continue
		}
		if *ch.value == "" {
			ch.disable()
			continue
		}
		r, size := utf8.DecodeRuneInString(*ch.value)
		if size != len(*ch.value) || r == utf8.RuneError {
			return nil, configErr(ch.option, "must be a single character, got %q", *ch.value)
		}
		ch.set(r)
	}
	if c.QuoteMode != nil {
		b.SetQuoteMode(*c.QuoteMode)
	}
	if c.RecordSeparator != nil {
		b.SetRecordSeparator(*c.RecordSeparator)
	}
	switch {
	case c.NoNullString && c.NullString != nil:
		return nil, configErr("null_string", "null_string and no_null_string are mutually exclusive")
	case c.NoNullString:
		b.DisableNullString()
	case c.NullString != nil:
		b.SetNullString(*c.NullString)
	}
	if c.DuplicateHeader != nil {
		b.SetDuplicateHeaderMode(*c.DuplicateHeader)
	}

	headerModes := 0
	for _, set := range []bool{len(c.Header) > 0, c.AutoHeader, c.NoHeader} {
		if set {
			headerModes++
		}
	}
	if headerModes > 1 {
		return nil, configErr("header", "header, auto_header and no_header are mutually exclusive")
	}
	switch {
	case len(c.Header) > 0:
		b.SetHeader(c.Header...)
	case c.AutoHeader:
		b.SetHeader()
	case c.NoHeader:
		b.DisableHeader()
	}
	if c.HeaderComments != nil {
		b.SetHeaderComments(c.HeaderComments...)
	}

	for _, flag := range []struct {
		value *bool
		set   func(bool) *Builder
	}{
		{c.SkipHeaderRecord, b.SetSkipHeaderRecord},
		{c.AllowMissingColumnNames, b.SetAllowMissingColumnNames},
		{c.IgnoreHeaderCase, b.SetIgnoreHeaderCase},
		{c.IgnoreEmptyLines, b.SetIgnoreEmptyLines},
		{c.IgnoreSurroundingSpaces, b.SetIgnoreSurroundingSpaces},
		{c.Trim, b.SetTrim},
		{c.TrailingDelimiter, b.SetTrailingDelimiter},
		{c.AutoFlush, b.SetAutoFlush},
		{c.LenientEOF, b.SetLenientEOF},
		{c.TrailingData, b.SetTrailingData},
	} {
		if flag.value != nil {
			flag.set(*flag.value)
		}
	}
	return b.Build()
}

// Config returns the smallest FormatConfig that builds a Format equal to f:
// just the preset name for a preset, otherwise the differences from Default.
func (f *Format) Config() FormatConfig {
	if name, ok := f.PresetName(); ok {
		return FormatConfig{Base: name}
	}
	d := Default
	var c FormatConfig
	if f.delimiter != d.delimiter {
		c.Delimiter = ptr(f.delimiter)
	}
	if f.quote != d.quote {
		c.Quote = ptr(charString(f.quote))
	}
	if f.escape != d.escape {
		c.Escape = ptr(charString(f.escape))
	}
	if f.commentMarker != d.commentMarker {
		c.CommentMarker = ptr(charString(f.commentMarker))
	}
	if f.quoteMode != d.quoteMode {
		c.QuoteMode = ptr(f.quoteMode)
	}
	if f.recordSeparator != d.recordSeparator {
		c.RecordSeparator = ptr(f.recordSeparator)
	}
	if f.hasNullString {
		c.NullString = ptr(f.nullString)
	}
	if f.duplicateHeaderMode != d.duplicateHeaderMode {
		c.DuplicateHeader = ptr(f.duplicateHeaderMode)
	}
	switch {
	case f.header == nil:
	case len(f.header) == 0:
		c.AutoHeader = true
	default:
		c.Header = copyStrings(f.header)
	}
	c.HeaderComments = copyStrings(f.headerComments)

	for _, flag := range []struct {
		dst       **bool
		got, base bool
	}{
		{&c.SkipHeaderRecord, f.skipHeaderRecord, d.skipHeaderRecord},
		{&c.AllowMissingColumnNames, f.allowMissingColumnNames, d.allowMissingColumnNames},
		{&c.IgnoreHeaderCase, f.ignoreHeaderCase, d.ignoreHeaderCase},
		{&c.IgnoreEmptyLines, f.ignoreEmptyLines, d.ignoreEmptyLines},
		{&c.IgnoreSurroundingSpaces, f.ignoreSurroundingSpaces, d.ignoreSurroundingSpaces},
		{&c.Trim, f.trim, d.trim},
		{&c.TrailingDelimiter, f.trailingDelimiter, d.trailingDelimiter},
		{&c.AutoFlush, f.autoFlush, d.autoFlush},
		{&c.LenientEOF, f.lenientEOF, d.lenientEOF},
		{&c.TrailingData, f.trailingData, d.trailingData},
	} {
		if flag.got != flag.base {
			*flag.dst = ptr(flag.got)
		}
	}
	return c
}

// MarshalJSON encodes the format as its FormatConfig.
func (f *Format) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Config())
}

// MarshalYAML encodes the format as its FormatConfig.
func (f *Format) MarshalYAML() (any, error) {
	return f.Config(), nil
}

// ParseFormatYAML builds a Format from a YAML FormatConfig document.
// Unknown keys are rejected.
func ParseFormatYAML(data []byte) (*Format, error) {
	var c FormatConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, documentError("yaml", err)
	}
	return c.Build()
}

// ParseFormatJSON builds a Format from a JSON FormatConfig document.
// Unknown keys are rejected.
func ParseFormatJSON(data []byte) (*Format, error) {
	var c FormatConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, documentError("json", err)
	}
	return c.Build()
}

// LoadFormatFile reads a FormatConfig document, choosing the decoder by the
// file extension (.yaml, .yml or .json).
func LoadFormatFile(path string) (*Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains([]string{".yaml", ".yml", ".json"}, ext) {
		return nil, configErr("document", "unsupported format file extension %q", ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("swiftcsv: read format file: %w", err)
	}
	if ext == ".json" {
		return ParseFormatJSON(data)
	}
	return ParseFormatYAML(data)
}

func documentError(kind string, err error) error {
	return &ConfigError{Option: "document", Msg: "decode " + kind + ": " + err.Error(), Err: err}
}

// charString renders an optional character for FormatConfig; "" means disabled.
func charString(r rune) string {
	if r == noChar {
		return ""
	}
	return string(r)
}

func ptr[T any](v T) *T { return &v }
