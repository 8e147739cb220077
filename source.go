package swiftcsv

import (
	"io"
	"unicode/utf8"
)

const defaultBufferSize = 1 << 10 // 1024 bytes

const (
	// eofRune is returned by read and peek once the input is exhausted.
	eofRune rune = -1
	// undefinedRune is the last rune before anything has been read.
	undefinedRune rune = -2
)

// source is a buffered UTF-8 rune reader with lookahead. It remembers the
// last rune read so the lexer can detect the start of a line, and it counts
// lines the same way the lexer separates records: CR, LF and CRLF each end
// one line.
type source struct {
	src io.Reader

	buf    []byte
	bufPos int
	bufLen int
	bufErr error

	last     rune
	line     int
	column   int
	position int64
}

func newSource(r io.Reader, size int) *source {
	if size < utf8.UTFMax {
		size = defaultBufferSize
	}
	return &source{
		src:  r,
		buf:  make([]byte, size),
		last: undefinedRune,
	}
}

// fill makes at least n bytes available unless the source is exhausted.
// It reports a read error other than io.EOF once buffered data runs out.
func (s *source) fill(n int) error {
	for s.bufLen-s.bufPos < n {
		if s.bufErr != nil {
			if s.bufErr == io.EOF || s.bufPos < s.bufLen {
				return nil
			}
			return s.bufErr
		}
		// Slide unread bytes to the front, growing when lookahead needs it.
		if s.bufPos > 0 {
			copy(s.buf, s.buf[s.bufPos:s.bufLen])
			s.bufLen -= s.bufPos
			s.bufPos = 0
		}
		if s.bufLen == len(s.buf) {
			grown := make([]byte, 2*len(s.buf))
			copy(grown, s.buf[:s.bufLen])
			s.buf = grown
		}
		m, err := s.src.Read(s.buf[s.bufLen:])
		s.bufLen += m
		if err != nil {
			s.bufErr = err
		}
	}
	return nil
}

// decodeAt decodes the rune starting at byte offset off past bufPos. It
// returns eofRune when the input ends there.
func (s *source) decodeAt(off int) (rune, int, error) {
	if err := s.fill(off + 1); err != nil {
		return 0, 0, err
	}
	if s.bufPos+off >= s.bufLen {
		return eofRune, 0, nil
	}
	if b := s.buf[s.bufPos+off]; b < utf8.RuneSelf {
		return rune(b), 1, nil
	}
	if err := s.fill(off + utf8.UTFMax); err != nil {
		return 0, 0, err
	}
	r, size := utf8.DecodeRune(s.buf[s.bufPos+off : s.bufLen])
	return r, size, nil
}

// read consumes the next rune. At end of input it returns eofRune.
func (s *source) read() (rune, error) {
	r, size, err := s.decodeAt(0)
	if err != nil {
		return 0, err
	}
	s.bufPos += size
	if r != eofRune {
		s.position++
		switch {
		case r == '\n' && s.last == '\r':
			// second half of CRLF, already counted
		case isLineBreak(r):
			s.line++
			s.column = 0
		default:
			s.column++
		}
	}
	s.last = r
	return r, nil
}

// peek returns the next rune without consuming it.
func (s *source) peek() (rune, error) {
	r, _, err := s.decodeAt(0)
	return r, err
}

// peekN returns up to n upcoming runes without consuming them. The result is
// shorter than n only at end of input.
func (s *source) peekN(dst []rune, n int) ([]rune, error) {
	dst = dst[:0]
	off := 0
	for len(dst) < n {
		r, size, err := s.decodeAt(off)
		if err != nil {
			return dst, err
		}
		if r == eofRune {
			break
		}
		dst = append(dst, r)
		off += size
	}
	return dst, nil
}

// skip consumes n runes that were just peeked.
func (s *source) skip(n int) error {
	for i := 0; i < n; i++ {
		if _, err := s.read(); err != nil {
			return err
		}
	}
	return nil
}

// readLine consumes the rest of the current line including its terminator
// and returns it without the terminator. ok is false when the input was
// already exhausted.
func (s *source) readLine(dst []byte) (line []byte, ok bool, err error) {
	r, err := s.peek()
	if err != nil || r == eofRune {
		return dst, false, err
	}
	for {
		r, err := s.read()
		if err != nil {
			return dst, true, err
		}
		if r == '\r' {
			next, err := s.peek()
			if err != nil {
				return dst, true, err
			}
			if next == '\n' {
				if _, err := s.read(); err != nil {
					return dst, true, err
				}
			}
		}
		if r == eofRune || isLineBreak(r) {
			return dst, true, nil
		}
		dst = utf8.AppendRune(dst, r)
	}
}

// lineNumber is the 1-based line the next rune belongs to.
func (s *source) lineNumber() int {
	return s.line + 1
}
