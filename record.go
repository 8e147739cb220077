package swiftcsv

import (
	"strconv"
	"strings"
)

// headerMap maps column names to indexes. It is built once per Parser and
// shared read-only by every Record the Parser returns.
type headerMap struct {
	index map[string]int
	// folded holds lower-cased names when header case is ignored.
	folded map[string]int
	names  []string
	width  int
}

func (h *headerMap) lookup(name string) (int, bool) {
	if h == nil {
		return 0, false
	}
	if h.folded != nil {
		i, ok := h.folded[strings.ToLower(name)]
		return i, ok
	}
	i, ok := h.index[name]
	return i, ok
}

func (h *headerMap) put(name string, i int) {
	h.index[name] = i
	if h.folded != nil {
		h.folded[strings.ToLower(name)] = i
	}
}

// Record is one parsed row. Records are immutable.
type Record struct {
	values     []string
	nulls      []bool
	comment    string
	hasComment bool
	number     int64
	position   int64
	header     *headerMap
}

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.values) }

// Get returns the i-th field, or "" when it is null or out of range.
func (r *Record) Get(i int) string {
	if i < 0 || i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

// IsNull reports whether the i-th field is null. Fields past the end of the
// record count as null.
func (r *Record) IsNull(i int) bool {
	if i < 0 || i >= len(r.values) {
		return true
	}
	return r.nulls != nil && r.nulls[i]
}

// Field returns the i-th field and false when it is null or out of range.
func (r *Record) Field(i int) (string, bool) {
	if r.IsNull(i) {
		return "", false
	}
	return r.values[i], true
}

// Values returns a copy of the fields. Null fields are "".
func (r *Record) Values() []string {
	return append(make([]string, 0, len(r.values)), r.values...)
}

// Lookup returns the field in the column called name. It reports false when
// the name is not mapped, the record is too short to have that column, or
// the field is null.
func (r *Record) Lookup(name string) (string, bool) {
	i, ok := r.header.lookup(name)
	if !ok {
		return "", false
	}
	return r.Field(i)
}

// IsMapped reports whether name is a column of the session header.
func (r *Record) IsMapped(name string) bool {
	_, ok := r.header.lookup(name)
	return ok
}

// IsConsistent reports whether the record has exactly as many fields as the
// header has columns. Records read without a header are always consistent.
func (r *Record) IsConsistent() bool {
	return r.header == nil || r.header.width == len(r.values)
}

// Number returns the 1-based position of the record in the input. A header
// record read from the input counts.
func (r *Record) Number() int64 { return r.number }

// CharPosition returns the character offset at which the record starts.
func (r *Record) CharPosition() int64 { return r.position }

// Comment returns the comment lines directly above the record, joined by LF.
func (r *Record) Comment() (string, bool) { return r.comment, r.hasComment }

// HasComment reports whether comment lines preceded the record.
func (r *Record) HasComment() bool { return r.hasComment }

func (r *Record) String() string {
	var sb strings.Builder
	sb.WriteString("Record [comment=")
	if r.hasComment {
		sb.WriteString(strconv.Quote(r.comment))
	} else {
		sb.WriteString("null")
	}
	sb.WriteString(", recordNumber=")
	sb.WriteString(strconv.FormatInt(r.number, 10))
	sb.WriteString(", values=[")
	for i := range r.values {
		if i > 0 {
			sb.WriteString(", ")
		}
		if r.IsNull(i) {
			sb.WriteString("null")
		} else {
			sb.WriteString(r.values[i])
		}
	}
	sb.WriteString("]]")
	return sb.String()
}
