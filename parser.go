package swiftcsv

import (
	"errors"
	"io"
	"iter"
	"log/slog"
	"maps"
	"strings"
)

// Parser reads records from a character stream according to a Format.
//
// A Parser holds a single forward-only cursor over its input. It is not safe
// for concurrent use; open one Parser per consumer instead.
type Parser struct {
	src    *source
	lex    *lexer
	format *Format
	closer io.Closer
	logger *slog.Logger

	tok        token
	values     []string
	nulls      []bool
	commentBuf []byte

	header            *headerMap
	headerComment     string
	hasHeaderComment  bool
	trailerComment    string
	hasTrailerComment bool

	recordNumber int64
	err          error
}

// NewParser creates a Parser that consumes CSV data from r, panicking if r is
// nil. A nil format means Default. The header is resolved before NewParser
// returns, so header errors surface here. If r is an io.Closer, Close closes it.
func NewParser(r io.Reader, format *Format, opts ...Option) (*Parser, error) {
	if r == nil {
		panic("swiftcsv: reader source cannot be nil")
	}
	if format == nil {
		format = Default
	}
	o := newOptions(opts)
	src := newSource(r, o.bufferSize)
	p := &Parser{
		src:    src,
		lex:    newLexer(src, format),
		format: format,
		logger: o.logger,
		tok:    token{content: make([]byte, 0, 512)},
		values: make([]string, 0, 16),
		nulls:  make([]bool, 0, 16),
	}
	if c, ok := r.(io.Closer); ok {
		p.closer = c
	}
	if err := p.resolveHeader(); err != nil {
		p.err = err
		p.logger.Warn("csv header rejected", "error", err)
		return nil, err
	}
	return p, nil
}

// ParseString is a shorthand for NewParser over an in-memory document.
func ParseString(s string, format *Format, opts ...Option) (*Parser, error) {
	return NewParser(strings.NewReader(s), format, opts...)
}

// Next returns the next record. It returns io.EOF when no records remain.
// After any other error the Parser is unusable and every call returns the
// same error. A record with the wrong number of fields is returned together
// with an error matching ErrFieldCount.
func (p *Parser) Next() (*Record, error) {
	if p == nil || p.src == nil {
		return nil, io.EOF
	}
	if p.err != nil {
		return nil, p.err
	}
	rec, err := p.nextRecord()
	if err != nil {
		p.fail(err)
		return nil, err
	}
	if err := p.checkWidth(rec); err != nil {
		p.fail(err)
		return rec, err
	}
	return rec, nil
}

// ReadAll exhausts the parser, collecting records until io.EOF. On the first
// non-EOF error it discards the records read so far and returns nil with
// that error.
func (p *Parser) ReadAll() (records []*Record, err error) {
	for {
		rec, err := p.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// Records returns an iterator over the remaining records. Every iterator
// shares the Parser's cursor: starting a second iteration continues where
// the first one stopped. Iteration ends at EOF or after yielding an error.
func (p *Parser) Records() iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		for {
			rec, err := p.Next()
			if err == io.EOF {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// HeaderMap returns a copy of the column name to index mapping, or nil when
// the format has no header.
func (p *Parser) HeaderMap() map[string]int {
	if p.header == nil {
		return nil
	}
	return maps.Clone(p.header.index)
}

// HeaderNames returns the header names in column order, skipping null names.
func (p *Parser) HeaderNames() []string {
	if p.header == nil {
		return nil
	}
	return copyStrings(p.header.names)
}

// HeaderComment returns the comment lines that preceded the header record.
func (p *Parser) HeaderComment() (string, bool) { return p.headerComment, p.hasHeaderComment }

// TrailerComment returns the comment lines that followed the last record.
// It is only known once Next has returned io.EOF.
func (p *Parser) TrailerComment() (string, bool) { return p.trailerComment, p.hasTrailerComment }

// RecordNumber returns the number of the last record read, header included.
func (p *Parser) RecordNumber() int64 { return p.recordNumber }

// Line returns the 1-based line the parser is positioned on.
func (p *Parser) Line() int { return p.src.lineNumber() }

// Close closes the underlying reader when it is an io.Closer.
func (p *Parser) Close() error {
	if p == nil || p.closer == nil {
		return nil
	}
	c := p.closer
	p.closer = nil
	return c.Close()
}

func (p *Parser) fail(err error) {
	p.err = err
	if err != io.EOF {
		p.logger.Warn("csv parse failed", "record", p.recordNumber+1, "line", p.src.lineNumber(), "error", err)
	}
}

// nextRecord assembles the next record from lexer tokens.
func (p *Parser) nextRecord() (*Record, error) {
	p.values = p.values[:0]
	p.nulls = p.nulls[:0]
	p.commentBuf = p.commentBuf[:0]
	hasComment := false
	start := p.src.position

	for done := false; !done; {
		p.tok.reset()
		if err := p.lex.next(&p.tok); err != nil {
			return nil, p.wrapError(err)
		}
		switch p.tok.typ {
		case tokenField:
			p.addValue(false)
		case tokenEndRecord:
			p.addValue(true)
			done = true
		case tokenEOF:
			if p.tok.ready {
				p.addValue(true)
			} else if hasComment {
				p.trailerComment, p.hasTrailerComment = string(p.commentBuf), true
			}
			done = true
		case tokenComment:
			if hasComment {
				p.commentBuf = append(p.commentBuf, '\n')
			}
			p.commentBuf = append(p.commentBuf, p.tok.content...)
			hasComment = true
		default:
			return nil, p.wrapError(errors.New("invalid parse sequence"))
		}
	}

	if len(p.values) == 0 {
		return nil, io.EOF
	}
	p.recordNumber++
	rec := &Record{
		values:   append(make([]string, 0, len(p.values)), p.values...),
		number:   p.recordNumber,
		position: start,
		header:   p.header,
	}
	for i, null := range p.nulls {
		if null {
			if rec.nulls == nil {
				rec.nulls = make([]bool, len(p.nulls))
			}
			rec.nulls[i] = true
		}
	}
	if hasComment {
		rec.comment, rec.hasComment = string(p.commentBuf), true
	}
	return rec, nil
}

func (p *Parser) addValue(last bool) {
	input := string(p.tok.content)
	if p.format.trim {
		input = trimControl(input)
	}
	if last && input == "" && p.format.trailingDelimiter {
		return
	}
	null := p.isNull(input)
	if null {
		input = ""
	}
	p.values = append(p.values, input)
	p.nulls = append(p.nulls, null)
}

// isNull decides whether an assembled value stands for null. Quoting or
// escaping always marks a literal string.
func (p *Parser) isNull(input string) bool {
	if p.tok.quoted || p.tok.escaped {
		return false
	}
	f := p.format
	if f.hasNullString {
		return input == f.nullString
	}
	// Without a null string the strict modes still tell ,, apart from ,"",
	return f.quoteMode.strict() && input == ""
}

// resolveHeader builds the header mapping, reading the header record from
// the input when the format asks for it.
func (p *Parser) resolveHeader() error {
	f := p.format
	if f.header == nil {
		return nil
	}

	var names []string
	var nulls []bool
	if len(f.header) == 0 {
		rec, err := p.nextRecord()
		switch {
		case err == io.EOF:
		case err != nil:
			return err
		default:
			names, nulls = rec.values, rec.nulls
			p.headerComment, p.hasHeaderComment = rec.Comment()
		}
	} else {
		if f.skipHeaderRecord {
			rec, err := p.nextRecord()
			switch {
			case err == io.EOF:
			case err != nil:
				return err
			default:
				p.headerComment, p.hasHeaderComment = rec.Comment()
			}
		}
		names = f.header
	}

	h := &headerMap{
		index: make(map[string]int, len(names)),
		width: len(names),
	}
	if f.ignoreHeaderCase {
		h.folded = make(map[string]int, len(names))
	}
	observedMissing := false
	for i, name := range names {
		null := nulls != nil && nulls[i]
		blank := null || isBlank(name)
		if blank && !f.allowMissingColumnNames {
			return &HeaderError{Name: name, Header: names, Err: ErrMissingHeader}
		}
		var contains bool
		if blank {
			contains = observedMissing
		} else {
			_, contains = h.lookup(name)
		}
		mode := f.duplicateHeaderMode
		if contains && mode != DuplicateAllowAll && !(blank && mode == DuplicateAllowEmpty) {
			return &HeaderError{Name: name, Header: names, Err: ErrDuplicateHeader}
		}
		observedMissing = observedMissing || blank
		if !null {
			h.put(name, i)
			h.names = append(h.names, name)
		}
	}
	p.header = h
	p.logger.Debug("csv header resolved",
		"columns", h.width,
		"from_input", len(f.header) == 0,
		"skipped_record", len(f.header) > 0 && f.skipHeaderRecord,
	)
	return nil
}

// checkWidth enforces the header's column count on a data record.
func (p *Parser) checkWidth(rec *Record) error {
	if p.header == nil {
		return nil
	}
	n, width := rec.Len(), p.header.width
	if (n > width && !p.format.trailingData) || (n < width && !p.format.allowMissingColumnNames) {
		return &ParseError{
			Record: rec.number,
			Line:   p.src.lineNumber(),
			Column: p.src.column,
			Err:    ErrFieldCount,
		}
	}
	return nil
}

// wrapError attaches the current record number, line and column to err,
// producing a *ParseError.
func (p *Parser) wrapError(err error) error {
	var perr *ParseError
	if errors.As(err, &perr) {
		return err
	}
	return &ParseError{
		Record: p.recordNumber + 1,
		Line:   p.src.lineNumber(),
		Column: p.src.column,
		Err:    err,
	}
}
