package swiftcsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	errNilPrinter      = errors.New("swiftcsv: printer is nil")
	errPrinterNoTarget = errors.New("swiftcsv: printer destination cannot be nil")
)

// Printer writes values to a character sink according to a Format.
//
// Output is buffered; call Flush or Close when done. The first write error is
// sticky and returned by every later call.
type Printer struct {
	dst    *bufio.Writer
	sink   io.Writer
	format *Format
	logger *slog.Logger

	// newRecord is true until the first value of the current record is written.
	newRecord bool
	err       error
}

// NewPrinter creates a Printer that writes to w, panicking if w is nil. A nil
// format means Default. Header comments and an explicit header are printed
// before NewPrinter returns.
//
// Formats that set both a quote and a different escape character while
// quoting is enabled are rejected with ErrUnsupportedFormat.
func NewPrinter(w io.Writer, format *Format, opts ...Option) (*Printer, error) {
	if w == nil {
		panic(errPrinterNoTarget.Error())
	}
	if format == nil {
		format = Default
	}
	p, err := newPrinter(w, format, true, opts...)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func newPrinter(w io.Writer, f *Format, printHeader bool, opts ...Option) (*Printer, error) {
	o := newOptions(opts)
	if f.hybrid() {
		err := fmt.Errorf("%w: quote %q and escape %q cannot both apply in quote mode %s",
			ErrUnsupportedFormat, f.quote, f.escape, f.quoteMode)
		o.logger.Warn("csv printer rejected format", "error", err)
		return nil, err
	}
	p := &Printer{
		dst:       bufio.NewWriterSize(w, o.bufferSize),
		sink:      w,
		format:    f,
		logger:    o.logger,
		newRecord: true,
	}
	if !printHeader {
		return p, nil
	}
	if f.headerComments != nil && f.commentMarker != noChar {
		for _, line := range f.headerComments {
			if err := p.PrintComment(line); err != nil {
				return nil, err
			}
		}
	}
	if len(f.header) > 0 && !f.skipHeaderRecord {
		if err := p.Write(f.header); err != nil {
			return nil, err
		}
		p.logger.Debug("csv header printed", "columns", len(f.header))
	}
	return p, nil
}

// Print writes one value of the current record, preceded by the delimiter
// unless it is the first value. A nil value, or a nil pointer, is null.
func (p *Printer) Print(value any) error {
	if err := p.check(); err != nil {
		return err
	}
	s, null, numeric := stringify(value)
	if !p.newRecord {
		if err := p.writeString(p.format.delimiter); err != nil {
			return err
		}
	}
	f := p.format
	switch {
	case null:
		// Nulls are written verbatim so the null string round-trips.
		if f.hasNullString && f.nullString != "" {
			if err := p.writeString(f.nullString); err != nil {
				return err
			}
		} else if err := p.printEmptyFirst(); err != nil {
			return err
		}
	case f.quote != noChar && f.quoteMode != QuoteNone:
		if f.trim {
			s = trimControl(s)
		}
		if err := p.printQuoted(s, numeric); err != nil {
			return err
		}
	case f.escape != noChar:
		if f.trim {
			s = trimControl(s)
		}
		if s == "" {
			if err := p.printEmptyFirst(); err != nil {
				return err
			}
		} else if err := p.printEscaped(s); err != nil {
			return err
		}
	default:
		if f.trim {
			s = trimControl(s)
		}
		if err := p.writeString(s); err != nil {
			return err
		}
	}
	p.newRecord = false
	return nil
}

// PrintRecord writes values as one record.
func (p *Printer) PrintRecord(values ...any) error {
	for _, v := range values {
		if err := p.Print(v); err != nil {
			return err
		}
	}
	return p.Println()
}

// PrintRecords writes every row of rows, stopping at the first error.
func (p *Printer) PrintRecords(rows iter.Seq[[]any]) error {
	for row := range rows {
		if err := p.PrintRecord(row...); err != nil {
			return err
		}
	}
	return p.Error()
}

// Write writes a single record of strings. None of them is null.
func (p *Printer) Write(record []string) error {
	for _, s := range record {
		if err := p.Print(s); err != nil {
			return err
		}
	}
	return p.Println()
}

// WriteAll writes multiple records, stopping at the first error.
func (p *Printer) WriteAll(records [][]string) error {
	if p == nil {
		return errNilPrinter
	}
	for _, record := range records {
		if err := p.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// PrintComment writes text as comment lines, one per line of text. It
// finishes the current record first. Without a comment marker it does
// nothing.
func (p *Printer) PrintComment(text string) error {
	if err := p.check(); err != nil {
		return err
	}
	f := p.format
	if f.commentMarker == noChar {
		return nil
	}
	if !p.newRecord {
		if err := p.Println(); err != nil {
			return err
		}
	}
	if err := p.startComment(); err != nil {
		return err
	}
	for i := 0; i < len(text); i++ {
		switch c := text[i]; c {
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			fallthrough
		case '\n':
			if err := p.writeString(f.recordSeparator); err != nil {
				return err
			}
			if err := p.startComment(); err != nil {
				return err
			}
		default:
			if err := p.writeByte(c); err != nil {
				return err
			}
		}
	}
	if err := p.writeString(f.recordSeparator); err != nil {
		return err
	}
	p.newRecord = true
	return nil
}

func (p *Printer) startComment() error {
	if err := p.writeRune(p.format.commentMarker); err != nil {
		return err
	}
	return p.writeByte(' ')
}

// Println ends the current record.
func (p *Printer) Println() error {
	if err := p.check(); err != nil {
		return err
	}
	if p.format.trailingDelimiter {
		if err := p.writeString(p.format.delimiter); err != nil {
			return err
		}
	}
	if err := p.writeString(p.format.recordSeparator); err != nil {
		return err
	}
	p.newRecord = true
	return nil
}

// Flush writes buffered data to the sink and flushes the sink when it
// has a Flush method.
func (p *Printer) Flush() error {
	if err := p.check(); err != nil {
		return err
	}
	if err := p.dst.Flush(); err != nil {
		return p.fail(err)
	}
	if fl, ok := p.sink.(interface{ Flush() error }); ok {
		if err := fl.Flush(); err != nil {
			return p.fail(err)
		}
	}
	return nil
}

// Close writes buffered data to the sink, flushes the sink when the format
// has AutoFlush set, and closes the sink when it is an io.Closer.
func (p *Printer) Close() error {
	if p == nil {
		return errNilPrinter
	}
	if p.dst == nil {
		return errPrinterNoTarget
	}
	err := p.err
	if err == nil {
		if ferr := p.dst.Flush(); ferr != nil {
			err = p.fail(ferr)
		}
	}
	if err == nil && p.format.autoFlush {
		if fl, ok := p.sink.(interface{ Flush() error }); ok {
			if ferr := fl.Flush(); ferr != nil {
				err = p.fail(ferr)
			}
		}
	}
	if c, ok := p.sink.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	p.dst = nil
	p.logger.Debug("csv printer closed", "error", err)
	return err
}

// Error reports the first error encountered by the printer.
func (p *Printer) Error() error {
	if p == nil {
		return errNilPrinter
	}
	return p.err
}

func (p *Printer) check() error {
	if p == nil {
		return errNilPrinter
	}
	if p.dst == nil {
		return errPrinterNoTarget
	}
	return p.err
}

func (p *Printer) fail(err error) error {
	if p.err == nil {
		p.err = err
		p.logger.Warn("csv write failed", "error", err)
	}
	return err
}

func (p *Printer) writeString(s string) error {
	if _, err := p.dst.WriteString(s); err != nil {
		return p.fail(err)
	}
	return nil
}

func (p *Printer) writeByte(c byte) error {
	if err := p.dst.WriteByte(c); err != nil {
		return p.fail(err)
	}
	return nil
}

func (p *Printer) writeRune(r rune) error {
	if _, err := p.dst.WriteRune(r); err != nil {
		return p.fail(err)
	}
	return nil
}

// printQuoted writes s, enclosed in quotes when the quote mode asks for it,
// with embedded quotes doubled.
func (p *Printer) printQuoted(s string, numeric bool) error {
	f := p.format
	var quote bool
	switch f.quoteMode {
	case QuoteAll, QuoteAllNonNull:
		quote = true
	case QuoteNonNumeric:
		quote = !numeric
	default:
		quote = p.needsQuotes(s)
	}
	if !quote {
		return p.writeString(s)
	}
	if err := p.writeRune(f.quote); err != nil {
		return err
	}
	start := 0
	for i, r := range s {
		if r != f.quote {
			continue
		}
		// doubled quote; the first copy also ends the run written so far
		if err := p.writeString(s[start : i+utf8.RuneLen(r)]); err != nil {
			return err
		}
		start = i
	}
	if err := p.writeString(s[start:]); err != nil {
		return err
	}
	return p.writeRune(f.quote)
}

// printEmptyFirst writes an empty quoted value when an empty value starts
// a record, so the line is not skipped as empty on read. Nothing is written
// when empty lines are kept or the format has no quote character.
func (p *Printer) printEmptyFirst() error {
	f := p.format
	if !p.newRecord || !f.ignoreEmptyLines || f.quote == noChar {
		return nil
	}
	if err := p.writeRune(f.quote); err != nil {
		return err
	}
	return p.writeRune(f.quote)
}

// delimiterOverlap returns the offset of the first delimiter match that
// starts inside s and ends inside the delimiter written after it, or len(s)
// when there is none. Only self-overlapping delimiters such as "||" can
// match there.
func delimiterOverlap(s, delim string) int {
	for k := max(0, len(s)-len(delim)+1); k < len(s); k++ {
		if overlapsAt(s, k, delim) {
			return k
		}
	}
	return len(s)
}

// overlapsAt reports whether s[k:] followed by delim starts with delim.
func overlapsAt(s string, k int, delim string) bool {
	n := len(s) - k
	return n < len(delim) && strings.HasPrefix(delim, s[k:]) && delim[n:] == delim[:len(delim)-n]
}

// needsQuotes applies the minimal quoting rules.
func (p *Printer) needsQuotes(s string) bool {
	f := p.format
	if s == "" {
		// A lone empty value would print as an empty line.
		return p.newRecord || (f.hasNullString && f.nullString == "")
	}
	if f.hasNullString && s == f.nullString {
		return true
	}
	first, _ := utf8.DecodeRuneInString(s)
	if first <= '#' || (p.newRecord && first == f.commentMarker) {
		return true
	}
	for _, r := range s {
		if r == '\r' || r == '\n' || r == f.quote || r == f.escape {
			return true
		}
	}
	if strings.Contains(s, f.delimiter) || delimiterOverlap(s, f.delimiter) < len(s) {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(s)
	return last <= ' '
}

// printEscaped writes s with the delimiter, quote, escape and line breaks
// prefixed by the escape character. A trailing character that would start
// a delimiter running into the next one is escaped on its own.
func (p *Printer) printEscaped(s string) error {
	f := p.format
	tail := delimiterOverlap(s, f.delimiter)
	start := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		var repl string
		switch {
		case i >= tail && overlapsAt(s, i, f.delimiter):
			repl = string(f.escape) + string(r)
		case r == '\r':
			repl = string(f.escape) + "r"
		case r == '\n':
			repl = string(f.escape) + "n"
		case r == f.escape || r == f.quote || (i == 0 && p.newRecord && r == f.commentMarker):
			repl = string(f.escape) + string(r)
		case strings.HasPrefix(s[i:], f.delimiter):
			var sb strings.Builder
			for _, d := range f.delimiter {
				sb.WriteRune(f.escape)
				sb.WriteRune(d)
			}
			repl = sb.String()
			size = len(f.delimiter)
		default:
			i += size
			continue
		}
		if err := p.writeString(s[start:i]); err != nil {
			return err
		}
		if err := p.writeString(repl); err != nil {
			return err
		}
		i += size
		start = i
	}
	return p.writeString(s[start:])
}

// stringify converts a value to its printed text. numeric reports whether
// the dynamic type is a number, which QuoteNonNumeric leaves unquoted.
func stringify(v any) (s string, null, numeric bool) {
	switch x := v.(type) {
	case nil:
		return "", true, false
	case string:
		return x, false, false
	case []byte:
		return string(x), false, false
	case bool:
		return strconv.FormatBool(x), false, false
	case int:
		return strconv.Itoa(x), false, true
	case int64:
		return strconv.FormatInt(x, 10), false, true
	case uint64:
		return strconv.FormatUint(x, 10), false, true
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), false, true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), false, true
	case *big.Int:
		if x == nil {
			return "", true, false
		}
		return x.String(), false, true
	case *big.Float:
		if x == nil {
			return "", true, false
		}
		return x.Text('g', -1), false, true
	case *big.Rat:
		if x == nil {
			return "", true, false
		}
		return x.RatString(), false, true
	}

	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return "", true, false
	}
	if st, ok := v.(fmt.Stringer); ok {
		return st.String(), false, false
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), false, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), false, true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32), false, true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), false, true
	case reflect.String:
		return rv.String(), false, false
	}
	return fmt.Sprint(v), false, false
}
