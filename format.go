package swiftcsv

import (
	"encoding/binary"
	"hash/fnv"
	"slices"
	"strconv"
	"strings"
)

// noChar marks an optional character (quote, escape, comment marker) as disabled.
// It never collides with a decoded rune or with the lexer's EOF markers.
const noChar rune = -3

// Format describes a CSV dialect. A Format is immutable once built and may be
// shared between goroutines; use Builder to derive a modified copy.
type Format struct {
	delimiter               string
	quote                   rune
	escape                  rune
	commentMarker           rune
	quoteMode               QuoteMode
	recordSeparator         string
	nullString              string
	hasNullString           bool
	header                  []string
	headerComments          []string
	skipHeaderRecord        bool
	allowMissingColumnNames bool
	ignoreHeaderCase        bool
	ignoreEmptyLines        bool
	ignoreSurroundingSpaces bool
	trim                    bool
	trailingDelimiter       bool
	autoFlush               bool
	lenientEOF              bool
	trailingData            bool
	duplicateHeaderMode     DuplicateHeaderMode
}

// NewFormat creates a Format from scratch with the given delimiter. Every other
// option is disabled: no quote, escape, comment marker, record separator or
// null string, and all flags are false.
func NewFormat(delimiter string) (*Format, error) {
	f := &Format{
		delimiter:     delimiter,
		quote:         noChar,
		escape:        noChar,
		commentMarker: noChar,
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Delimiter returns the value separator.
func (f *Format) Delimiter() string { return f.delimiter }

// Quote returns the encapsulation character and whether quoting is enabled.
func (f *Format) Quote() (rune, bool) { return f.quote, f.quote != noChar }

// Escape returns the escape character and whether escaping is enabled.
func (f *Format) Escape() (rune, bool) { return f.escape, f.escape != noChar }

// CommentMarker returns the comment start character and whether comments are recognized.
func (f *Format) CommentMarker() (rune, bool) { return f.commentMarker, f.commentMarker != noChar }

// QuoteMode returns the output quoting policy.
func (f *Format) QuoteMode() QuoteMode { return f.quoteMode }

// RecordSeparator returns the string written after each printed record.
func (f *Format) RecordSeparator() string { return f.recordSeparator }

// NullString returns the text that stands for a null value and whether one is set.
func (f *Format) NullString() (string, bool) { return f.nullString, f.hasNullString }

// Header returns a copy of the header. A nil result means the header is
// disabled; an empty non-nil result means it is read from the first record.
func (f *Format) Header() []string { return copyStrings(f.header) }

// HeaderComments returns a copy of the comment lines printed before the header.
func (f *Format) HeaderComments() []string { return copyStrings(f.headerComments) }

// SkipHeaderRecord reports whether the first record is dropped when parsing and the header is not printed.
func (f *Format) SkipHeaderRecord() bool { return f.skipHeaderRecord }

// AllowMissingColumnNames reports whether blank header names and short records are accepted.
func (f *Format) AllowMissingColumnNames() bool { return f.allowMissingColumnNames }

// IgnoreHeaderCase reports whether header names are matched case-insensitively.
func (f *Format) IgnoreHeaderCase() bool { return f.ignoreHeaderCase }

// IgnoreEmptyLines reports whether empty lines are skipped when parsing.
func (f *Format) IgnoreEmptyLines() bool { return f.ignoreEmptyLines }

// IgnoreSurroundingSpaces reports whether spaces around values are dropped when parsing.
func (f *Format) IgnoreSurroundingSpaces() bool { return f.ignoreSurroundingSpaces }

// Trim reports whether values are trimmed when parsing and printing.
func (f *Format) Trim() bool { return f.trim }

// TrailingDelimiter reports whether records end with a delimiter.
func (f *Format) TrailingDelimiter() bool { return f.trailingDelimiter }

// AutoFlush reports whether closing a Printer also flushes its sink.
func (f *Format) AutoFlush() bool { return f.autoFlush }

// LenientEOF reports whether an unterminated quote or a lone escape at end of input is accepted.
func (f *Format) LenientEOF() bool { return f.lenientEOF }

// TrailingData reports whether text after a closing quote and extra fields are accepted.
func (f *Format) TrailingData() bool { return f.trailingData }

// DuplicateHeaderMode returns how repeated header names are treated.
func (f *Format) DuplicateHeaderMode() DuplicateHeaderMode { return f.duplicateHeaderMode }

// hybrid reports whether quoting and escaping would both apply on output.
func (f *Format) hybrid() bool {
	return f.quote != noChar && f.escape != noChar && f.quote != f.escape && f.quoteMode != QuoteNone
}

// Builder returns a staging copy of f.
func (f *Format) Builder() *Builder {
	b := &Builder{f: *f}
	b.f.header = copyStrings(f.header)
	b.f.headerComments = copyStrings(f.headerComments)
	return b
}

// Equal reports whether f and g describe the same dialect. Every option
// takes part, including the difference between a disabled and an
// auto-detected header.
func (f *Format) Equal(g *Format) bool {
	if f == nil || g == nil {
		return f == g
	}
	return f.delimiter == g.delimiter &&
		f.quote == g.quote &&
		f.escape == g.escape &&
		f.commentMarker == g.commentMarker &&
		f.quoteMode == g.quoteMode &&
		f.recordSeparator == g.recordSeparator &&
		f.hasNullString == g.hasNullString &&
		f.nullString == g.nullString &&
		(f.header == nil) == (g.header == nil) &&
		slices.Equal(f.header, g.header) &&
		slices.Equal(f.headerComments, g.headerComments) &&
		f.skipHeaderRecord == g.skipHeaderRecord &&
		f.allowMissingColumnNames == g.allowMissingColumnNames &&
		f.ignoreHeaderCase == g.ignoreHeaderCase &&
		f.ignoreEmptyLines == g.ignoreEmptyLines &&
		f.ignoreSurroundingSpaces == g.ignoreSurroundingSpaces &&
		f.trim == g.trim &&
		f.trailingDelimiter == g.trailingDelimiter &&
		f.autoFlush == g.autoFlush &&
		f.lenientEOF == g.lenientEOF &&
		f.trailingData == g.trailingData &&
		f.duplicateHeaderMode == g.duplicateHeaderMode
}

// Hash returns a hash consistent with Equal.
func (f *Format) Hash() uint64 {
	h := fnv.New64a()
	var scratch [8]byte
	putInt := func(v int64) {
		binary.LittleEndian.PutUint64(scratch[:], uint64(v))
		h.Write(scratch[:])
	}
	putString := func(s string) {
		putInt(int64(len(s)))
		h.Write([]byte(s))
	}
	putBool := func(v bool) {
		if v {
			putInt(1)
		} else {
			putInt(0)
		}
	}
	putStrings := func(ss []string) {
		putInt(int64(len(ss)))
		for _, s := range ss {
			putString(s)
		}
	}

	putString(f.delimiter)
	putInt(int64(f.quote))
	putInt(int64(f.escape))
	putInt(int64(f.commentMarker))
	putInt(int64(f.quoteMode))
	putString(f.recordSeparator)
	putBool(f.hasNullString)
	putString(f.nullString)
	// A nil header is disabled; an empty one is auto-detected.
	putBool(f.header == nil)
	putStrings(f.header)
	putStrings(f.headerComments)
	for _, flag := range []bool{
		f.skipHeaderRecord, f.allowMissingColumnNames, f.ignoreHeaderCase,
		f.ignoreEmptyLines, f.ignoreSurroundingSpaces, f.trim,
		f.trailingDelimiter, f.autoFlush, f.lenientEOF, f.trailingData,
	} {
		putBool(flag)
	}
	putInt(int64(f.duplicateHeaderMode))
	return h.Sum64()
}

// String describes the options that are set.
func (f *Format) String() string {
	var sb strings.Builder
	sb.WriteString("Delimiter=<" + f.delimiter + ">")
	if f.escape != noChar {
		sb.WriteString(" Escape=<" + string(f.escape) + ">")
	}
	if f.quote != noChar {
		sb.WriteString(" QuoteChar=<" + string(f.quote) + ">")
	}
	sb.WriteString(" QuoteMode=<" + f.quoteMode.String() + ">")
	if f.commentMarker != noChar {
		sb.WriteString(" CommentStart=<" + string(f.commentMarker) + ">")
	}
	if f.hasNullString {
		sb.WriteString(" NullString=<" + f.nullString + ">")
	}
	if f.recordSeparator != "" {
		sb.WriteString(" RecordSeparator=<" + strconv.Quote(f.recordSeparator) + ">")
	}
	if f.ignoreEmptyLines {
		sb.WriteString(" EmptyLines:ignored")
	}
	if f.ignoreSurroundingSpaces {
		sb.WriteString(" SurroundingSpaces:ignored")
	}
	if f.ignoreHeaderCase {
		sb.WriteString(" IgnoreHeaderCase:ignored")
	}
	sb.WriteString(" SkipHeaderRecord:" + strconv.FormatBool(f.skipHeaderRecord))
	sb.WriteString(" DuplicateHeaderMode:" + f.duplicateHeaderMode.String())
	if f.headerComments != nil {
		sb.WriteString(" HeaderComments:[" + strings.Join(f.headerComments, ", ") + "]")
	}
	if f.header != nil {
		sb.WriteString(" Header:[" + strings.Join(f.header, ", ") + "]")
	}
	return sb.String()
}

// FormatRecord prints values as a single record and returns it without the
// record separator.
func (f *Format) FormatRecord(values ...any) (string, error) {
	var sb strings.Builder
	p, err := newPrinter(&sb, f, false)
	if err != nil {
		return "", err
	}
	for _, v := range values {
		if err := p.Print(v); err != nil {
			return "", err
		}
	}
	if f.trailingDelimiter {
		if err := p.writeString(f.delimiter); err != nil {
			return "", err
		}
	}
	if err := p.Flush(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (f *Format) validate() error {
	if f.delimiter == "" {
		return configErr("delimiter", "must not be empty")
	}
	if strings.ContainsAny(f.delimiter, "\r\n") {
		return configErr("delimiter", "cannot be a line break")
	}
	for _, c := range []struct {
		option string
		r      rune
	}{
		{"quote", f.quote},
		{"escape", f.escape},
		{"comment_marker", f.commentMarker},
	} {
		if isLineBreak(c.r) {
			return configErr(c.option, "cannot be a line break")
		}
		if c.r != noChar && strings.ContainsRune(f.delimiter, c.r) {
			return configErr(c.option, "%q cannot be part of the delimiter %q", c.r, f.delimiter)
		}
	}
	if f.quote != noChar && f.quote == f.commentMarker {
		return configErr("comment_marker", "comment start character and the quote cannot be the same (%q)", f.quote)
	}
	if f.escape != noChar && f.escape == f.commentMarker {
		return configErr("comment_marker", "comment start and the escape character cannot be the same (%q)", f.escape)
	}
	if f.escape == noChar && f.quoteMode == QuoteNone {
		return configErr("quote_mode", "quote mode set to NONE but no escape character is set")
	}
	if f.quoteMode < QuoteMinimal || f.quoteMode > QuoteNone {
		return configErr("quote_mode", "unknown quote mode %d", int(f.quoteMode))
	}
	if f.duplicateHeaderMode < DuplicateAllowAll || f.duplicateHeaderMode > DuplicateDisallow {
		return configErr("duplicate_header_mode", "unknown duplicate header mode %d", int(f.duplicateHeaderMode))
	}
	if f.header != nil && f.duplicateHeaderMode != DuplicateAllowAll {
		seen := make(map[string]struct{}, len(f.header))
		for _, name := range f.header {
			blank := isBlank(name)
			key := name
			if blank {
				key = ""
			}
			if _, dup := seen[key]; dup && !(blank && f.duplicateHeaderMode == DuplicateAllowEmpty) {
				return &ConfigError{
					Option: "header",
					Msg:    "duplicate name " + strconv.Quote(name) + " in [" + strings.Join(f.header, ", ") + "]",
					Err:    ErrDuplicateHeader,
				}
			}
			seen[key] = struct{}{}
		}
	}
	return nil
}

// Builder stages changes to a Format. Setters return the builder so calls
// can be chained; Build validates once and returns a new Format.
type Builder struct {
	f Format
}

// NewBuilder starts from Default.
func NewBuilder() *Builder { return Default.Builder() }

// SetDelimiter sets the value separator.
func (b *Builder) SetDelimiter(d string) *Builder { b.f.delimiter = d; return b }

// SetQuote sets the encapsulation character.
func (b *Builder) SetQuote(r rune) *Builder { b.f.quote = r; return b }

// DisableQuote turns quoting off.
func (b *Builder) DisableQuote() *Builder { b.f.quote = noChar; return b }

// SetEscape sets the escape character.
func (b *Builder) SetEscape(r rune) *Builder { b.f.escape = r; return b }

// DisableEscape turns escaping off.
func (b *Builder) DisableEscape() *Builder { b.f.escape = noChar; return b }

// SetCommentMarker sets the character that starts a comment line.
func (b *Builder) SetCommentMarker(r rune) *Builder { b.f.commentMarker = r; return b }

// DisableCommentMarker turns comment handling off.
func (b *Builder) DisableCommentMarker() *Builder { b.f.commentMarker = noChar; return b }

// SetQuoteMode sets the output quoting policy.
func (b *Builder) SetQuoteMode(m QuoteMode) *Builder { b.f.quoteMode = m; return b }

// SetRecordSeparator sets the string written after each printed record.
func (b *Builder) SetRecordSeparator(s string) *Builder { b.f.recordSeparator = s; return b }

// SetNullString sets the text that stands for a null value.
func (b *Builder) SetNullString(s string) *Builder {
	b.f.nullString, b.f.hasNullString = s, true
	return b
}

// DisableNullString removes the null string.
func (b *Builder) DisableNullString() *Builder {
	b.f.nullString, b.f.hasNullString = "", false
	return b
}

// SetHeader sets explicit column names. Called without names it requests
// auto-detection from the first record.
func (b *Builder) SetHeader(names ...string) *Builder {
	b.f.header = append(make([]string, 0, len(names)), names...)
	return b
}

// DisableHeader turns header handling off.
func (b *Builder) DisableHeader() *Builder { b.f.header = nil; return b }

// SetHeaderComments sets the comment lines printed before the header. A nil
// slice clears them.
func (b *Builder) SetHeaderComments(comments ...string) *Builder {
	if comments == nil {
		b.f.headerComments = nil
		return b
	}
	b.f.headerComments = append(make([]string, 0, len(comments)), comments...)
	return b
}

// SetSkipHeaderRecord sets whether the header record is skipped.
func (b *Builder) SetSkipHeaderRecord(v bool) *Builder { b.f.skipHeaderRecord = v; return b }

// SetAllowMissingColumnNames sets whether blank header names and short records are accepted.
func (b *Builder) SetAllowMissingColumnNames(v bool) *Builder { b.f.allowMissingColumnNames = v; return b }

// SetIgnoreHeaderCase sets whether header names ignore case.
func (b *Builder) SetIgnoreHeaderCase(v bool) *Builder { b.f.ignoreHeaderCase = v; return b }

// SetIgnoreEmptyLines sets whether empty lines are skipped.
func (b *Builder) SetIgnoreEmptyLines(v bool) *Builder { b.f.ignoreEmptyLines = v; return b }

// SetIgnoreSurroundingSpaces sets whether spaces around values are dropped.
func (b *Builder) SetIgnoreSurroundingSpaces(v bool) *Builder { b.f.ignoreSurroundingSpaces = v; return b }

// SetTrim sets whether values are trimmed.
func (b *Builder) SetTrim(v bool) *Builder { b.f.trim = v; return b }

// SetTrailingDelimiter sets whether records end with a delimiter.
func (b *Builder) SetTrailingDelimiter(v bool) *Builder { b.f.trailingDelimiter = v; return b }

// SetAutoFlush sets whether Close flushes the sink.
func (b *Builder) SetAutoFlush(v bool) *Builder { b.f.autoFlush = v; return b }

// SetLenientEOF sets whether a truncated last value is accepted.
func (b *Builder) SetLenientEOF(v bool) *Builder { b.f.lenientEOF = v; return b }

// SetTrailingData sets whether text after a closing quote and extra fields are accepted.
func (b *Builder) SetTrailingData(v bool) *Builder { b.f.trailingData = v; return b }

// SetDuplicateHeaderMode sets how repeated header names are treated.
func (b *Builder) SetDuplicateHeaderMode(m DuplicateHeaderMode) *Builder {
	b.f.duplicateHeaderMode = m
	return b
}

// Build validates the staged options and returns a new Format.
func (b *Builder) Build() (*Format, error) {
	f := b.f
	f.header = copyStrings(b.f.header)
	f.headerComments = copyStrings(b.f.headerComments)
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// MustBuild is like Build but panics on an invalid format.
func (b *Builder) MustBuild() *Format {
	f, err := b.Build()
	if err != nil {
		panic(err)
	}
	return f
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

func isLineBreak(r rune) bool { return r == '\r' || r == '\n' }

// isBlank reports whether s is empty or holds only characters <= ' '.
func isBlank(s string) bool { return trimControl(s) == "" }

// trimControl strips leading and trailing characters <= ' '.
func trimControl(s string) string {
	return strings.TrimFunc(s, func(r rune) bool { return r <= ' ' })
}
