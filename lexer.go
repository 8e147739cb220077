package swiftcsv

import (
	"slices"
	"unicode"
	"unicode/utf8"
)

type tokenType int

const (
	tokenInvalid tokenType = iota
	// tokenField is a value followed by a delimiter.
	tokenField
	// tokenEndRecord is a value followed by a line break.
	tokenEndRecord
	// tokenEOF ends the input; ready tells whether it carries a value.
	tokenEOF
	tokenComment
)

type token struct {
	typ     tokenType
	content []byte
	quoted  bool
	// escaped is set when the value contained an escape sequence.
	escaped bool
	ready   bool
}

func (t *token) reset() {
	t.typ = tokenInvalid
	t.content = t.content[:0]
	t.quoted = false
	t.escaped = false
	t.ready = false
}

// lexState is the position of the lexer inside the value being scanned.
type lexState int

const (
	stateValueStart lexState = iota
	stateUnquoted
	stateQuoted
	stateAfterQuote
	stateEscape
)

// lexer splits a rune stream into value, record, comment and EOF tokens.
type lexer struct {
	src *source

	delimiter []rune
	quote     rune
	escape    rune
	comment   rune

	ignoreSurroundingSpaces bool
	ignoreEmptyLines        bool
	lenientEOF              bool
	trailingData            bool

	lastTokenDelimiter bool
	lookahead          []rune
}

func newLexer(src *source, f *Format) *lexer {
	delim := []rune(f.delimiter)
	return &lexer{
		src:                     src,
		delimiter:               delim,
		quote:                   f.quote,
		escape:                  f.escape,
		comment:                 f.commentMarker,
		ignoreSurroundingSpaces: f.ignoreSurroundingSpaces,
		ignoreEmptyLines:        f.ignoreEmptyLines,
		lenientEOF:              f.lenientEOF,
		trailingData:            f.trailingData,
		lookahead:               make([]rune, 0, 2*len(delim)),
	}
}

// next fills tok with the next token. tok must have been reset.
func (l *lexer) next(tok *token) error {
	last := l.src.last
	c, err := l.src.read()
	if err != nil {
		return err
	}
	eol, err := l.readEndOfLine(c)
	if err != nil {
		return err
	}

	if l.ignoreEmptyLines {
		for eol && isStartOfLine(last) {
			last = c
			if c, err = l.src.read(); err != nil {
				return err
			}
			if eol, err = l.readEndOfLine(c); err != nil {
				return err
			}
			if c == eofRune {
				tok.typ = tokenEOF
				return nil
			}
		}
	}

	if last == eofRune || (!l.lastTokenDelimiter && c == eofRune) {
		tok.typ = tokenEOF
		return nil
	}

	if isStartOfLine(last) && c == l.comment {
		line, ok, err := l.src.readLine(tok.content)
		if err != nil {
			return err
		}
		if !ok {
			tok.typ = tokenEOF
			return nil
		}
		tok.content = trimBytes(line)
		tok.typ = tokenComment
		return nil
	}

	state := stateValueStart
	for {
		switch state {
		case stateValueStart:
			if l.ignoreSurroundingSpaces {
				for isSpace(c) && c != l.delimiter[0] && !eol {
					if c, err = l.src.read(); err != nil {
						return err
					}
					if eol, err = l.readEndOfLine(c); err != nil {
						return err
					}
				}
			}
			isDelim, err := l.isDelimiter(c)
			if err != nil {
				return err
			}
			switch {
			case isDelim:
				tok.typ = tokenField
				return nil
			case eol:
				tok.typ = tokenEndRecord
				return nil
			case c == l.quote:
				tok.quoted = true
				state = stateQuoted
			case c == eofRune:
				tok.typ = tokenEOF
				tok.ready = true
				return nil
			default:
				state = stateUnquoted
			}

		case stateUnquoted:
			// c holds the next unconsumed-by-token rune.
			if eol, err = l.readEndOfLine(c); err != nil {
				return err
			}
			if eol {
				tok.typ = tokenEndRecord
				return l.finishUnquoted(tok)
			}
			if c == eofRune {
				tok.typ = tokenEOF
				tok.ready = true
				return l.finishUnquoted(tok)
			}
			isDelim, err := l.isDelimiter(c)
			if err != nil {
				return err
			}
			if isDelim {
				tok.typ = tokenField
				return l.finishUnquoted(tok)
			}
			if c == l.escape {
				if err := l.appendEscaped(tok); err != nil {
					return err
				}
			} else {
				tok.content = utf8.AppendRune(tok.content, c)
			}
			if c, err = l.src.read(); err != nil {
				return err
			}

		case stateQuoted:
			if c, err = l.src.read(); err != nil {
				return err
			}
			switch {
			case c == l.quote:
				next, err := l.src.peek()
				if err != nil {
					return err
				}
				if next == l.quote {
					// doubled quote is a literal quote
					if _, err := l.src.read(); err != nil {
						return err
					}
					tok.content = utf8.AppendRune(tok.content, l.quote)
				} else {
					state = stateAfterQuote
				}
			case c == l.escape:
				state = stateEscape
			case c == eofRune:
				if l.lenientEOF {
					tok.typ = tokenEOF
					tok.ready = true
					return nil
				}
				return ErrUnterminatedQuote
			default:
				tok.content = utf8.AppendRune(tok.content, c)
			}

		case stateEscape:
			if err := l.appendEscaped(tok); err != nil {
				return err
			}
			state = stateQuoted

		case stateAfterQuote:
			if c, err = l.src.read(); err != nil {
				return err
			}
			isDelim, err := l.isDelimiter(c)
			if err != nil {
				return err
			}
			if isDelim {
				tok.typ = tokenField
				return nil
			}
			if c == eofRune {
				tok.typ = tokenEOF
				tok.ready = true
				return nil
			}
			if eol, err = l.readEndOfLine(c); err != nil {
				return err
			}
			if eol {
				tok.typ = tokenEndRecord
				return nil
			}
			if l.trailingData {
				tok.content = utf8.AppendRune(tok.content, c)
			} else if !unicode.IsSpace(c) {
				return ErrInvalidAfterQuote
			}
		}
	}
}

func (l *lexer) finishUnquoted(tok *token) error {
	if l.ignoreSurroundingSpaces {
		tok.content = trimTrailingSpaces(tok.content)
	}
	return nil
}

// appendEscaped handles the rune after an escape character, which has just
// been consumed. An escape before a single delimiter character yields that
// character. An escape before an ordinary character is kept as is, so
// "\N" stays a possible null string while "\\N" does not.
func (l *lexer) appendEscaped(tok *token) error {
	isDelim, err := l.isEscapedDelimiter()
	if err != nil {
		return err
	}
	if isDelim {
		tok.content = appendRunes(tok.content, l.delimiter)
		tok.escaped = true
		return nil
	}
	c, err := l.src.read()
	if err != nil {
		return err
	}
	switch c {
	case 'r':
		c = '\r'
	case 'n':
		c = '\n'
	case 't':
		c = '\t'
	case 'b':
		c = '\b'
	case 'f':
		c = '\f'
	case '\r', '\n', '\f', '\t', '\b':
	case eofRune:
		if l.lenientEOF {
			tok.content = utf8.AppendRune(tok.content, l.escape)
			return nil
		}
		return ErrEscapeAtEOF
	default:
		if c != l.escape && c != l.quote && c != l.comment && !slices.Contains(l.delimiter, c) {
			// not an escape sequence; keep both characters
			tok.content = utf8.AppendRune(tok.content, l.escape)
			tok.content = utf8.AppendRune(tok.content, c)
			return nil
		}
	}
	tok.escaped = true
	tok.content = utf8.AppendRune(tok.content, c)
	return nil
}

// isDelimiter reports whether c starts the delimiter and, for a
// multi-character delimiter, consumes the rest of it.
func (l *lexer) isDelimiter(c rune) (bool, error) {
	l.lastTokenDelimiter = false
	if c != l.delimiter[0] {
		return false, nil
	}
	if len(l.delimiter) == 1 {
		l.lastTokenDelimiter = true
		return true, nil
	}
	rest := l.delimiter[1:]
	var err error
	l.lookahead, err = l.src.peekN(l.lookahead, len(rest))
	if err != nil {
		return false, err
	}
	if !runesEqual(l.lookahead, rest) {
		return false, nil
	}
	if err := l.src.skip(len(rest)); err != nil {
		return false, err
	}
	l.lastTokenDelimiter = true
	return true, nil
}

// isEscapedDelimiter reports whether the runes after an escape character
// spell the delimiter with every following character escaped too, and
// consumes them when they do.
func (l *lexer) isEscapedDelimiter() (bool, error) {
	n := 2*len(l.delimiter) - 1
	var err error
	l.lookahead, err = l.src.peekN(l.lookahead, n)
	if err != nil {
		return false, err
	}
	if len(l.lookahead) < n || l.lookahead[0] != l.delimiter[0] {
		return false, nil
	}
	for i := 1; i < len(l.delimiter); i++ {
		if l.lookahead[2*i-1] != l.escape || l.lookahead[2*i] != l.delimiter[i] {
			return false, nil
		}
	}
	return true, l.src.skip(n)
}

// readEndOfLine reports whether c ends a line, consuming the LF of a CRLF pair.
func (l *lexer) readEndOfLine(c rune) (bool, error) {
	if c == '\r' {
		next, err := l.src.peek()
		if err != nil {
			return false, err
		}
		if next == '\n' {
			if _, err := l.src.read(); err != nil {
				return false, err
			}
		}
		return true, nil
	}
	return c == '\n', nil
}

func isStartOfLine(r rune) bool {
	return r == '\n' || r == '\r' || r == undefinedRune
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}

func trimTrailingSpaces(b []byte) []byte {
	for len(b) > 0 && isSpace(rune(b[len(b)-1])) {
		b = b[:len(b)-1]
	}
	return b
}

// trimBytes strips leading and trailing bytes <= ' '.
func trimBytes(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && b[start] <= ' ' {
		start++
	}
	for end > start && b[end-1] <= ' ' {
		end--
	}
	n := copy(b, b[start:end])
	return b[:n]
}

func appendRunes(dst []byte, rs []rune) []byte {
	for _, r := range rs {
		dst = utf8.AppendRune(dst, r)
	}
	return dst
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
