package swiftcsv

import (
	"runtime"
	"strings"
)

const (
	crlf          = "\r\n"
	lf            = "\n"
	sqlNullString = `\N`
)

// lineSeparator is the platform line separator, used by the Oracle preset.
var lineSeparator = func() string {
	if runtime.GOOS == "windows" {
		return crlf
	}
	return lf
}()

// Default is the standard comma separated format: ',' delimiter, '"' quote,
// CRLF record separator, empty lines ignored and duplicate header names allowed.
var Default = (&Builder{f: Format{
	delimiter:           ",",
	quote:               '"',
	escape:              noChar,
	commentMarker:       noChar,
	recordSeparator:     crlf,
	ignoreEmptyLines:    true,
	duplicateHeaderMode: DuplicateAllowAll,
}}).MustBuild()

// RFC4180 is Default without empty-line skipping.
var RFC4180 = Default.Builder().SetIgnoreEmptyLines(false).MustBuild()

// Excel matches what Excel writes for comma separated files. The real
// delimiter Excel uses is locale dependent.
var Excel = Default.Builder().
	SetIgnoreEmptyLines(false).
	SetAllowMissingColumnNames(true).
	SetTrailingData(true).
	SetLenientEOF(true).
	MustBuild()

// InformixUnload is the Informix UNLOAD TO file_name format: pipe delimited
// with backslash escapes and LF records.
var InformixUnload = Default.Builder().
	SetDelimiter("|").
	SetEscape('\\').
	SetQuote('"').
	SetRecordSeparator(lf).
	MustBuild()

// InformixUnloadCSV is the Informix UNLOAD TO file_name format with the CSV
// option: comma delimited, LF records, no escapes.
var InformixUnloadCSV = Default.Builder().
	SetDelimiter(",").
	SetQuote('"').
	SetRecordSeparator(lf).
	MustBuild()

// MongoDBCSV is what mongoexport --type=csv produces. A doubled quote is
// the only escape.
var MongoDBCSV = Default.Builder().
	SetDelimiter(",").
	SetEscape('"').
	SetQuote('"').
	SetQuoteMode(QuoteMinimal).
	SetSkipHeaderRecord(false).
	MustBuild()

// MongoDBTSV is what mongoexport --type=tsv produces.
var MongoDBTSV = Default.Builder().
	SetDelimiter("\t").
	SetEscape('"').
	SetQuote('"').
	SetQuoteMode(QuoteMinimal).
	SetSkipHeaderRecord(false).
	MustBuild()

// MySQL is the SELECT INTO OUTFILE / LOAD DATA INFILE format: tab delimited,
// backslash escapes, no quoting, LF records and \N for NULL.
var MySQL = Default.Builder().
	SetDelimiter("\t").
	SetEscape('\\').
	SetIgnoreEmptyLines(false).
	DisableQuote().
	SetRecordSeparator(lf).
	SetNullString(sqlNullString).
	SetQuoteMode(QuoteAllNonNull).
	MustBuild()

// Oracle is the SQL*Loader default format. Values are trimmed and records
// end with the platform line separator.
var Oracle = Default.Builder().
	SetDelimiter(",").
	SetEscape('\\').
	SetIgnoreEmptyLines(false).
	SetQuote('"').
	SetNullString(sqlNullString).
	SetTrim(true).
	SetRecordSeparator(lineSeparator).
	SetQuoteMode(QuoteMinimal).
	MustBuild()

// PostgreSQLCSV is the COPY ... WITH (FORMAT csv) format. NULL is the
// unquoted empty string.
var PostgreSQLCSV = Default.Builder().
	SetDelimiter(",").
	DisableEscape().
	SetIgnoreEmptyLines(false).
	SetQuote('"').
	SetRecordSeparator(lf).
	SetNullString("").
	SetQuoteMode(QuoteAllNonNull).
	MustBuild()

// PostgreSQLText is the COPY ... WITH (FORMAT text) format.
var PostgreSQLText = Default.Builder().
	SetDelimiter("\t").
	SetEscape('\\').
	SetIgnoreEmptyLines(false).
	DisableQuote().
	SetRecordSeparator(lf).
	SetNullString(sqlNullString).
	SetQuoteMode(QuoteAllNonNull).
	MustBuild()

// TDF is the tab delimited format.
var TDF = Default.Builder().
	SetDelimiter("\t").
	SetIgnoreSurroundingSpaces(true).
	MustBuild()

var presets = []struct {
	name   string
	format *Format
}{
	{"Default", Default},
	{"Excel", Excel},
	{"InformixUnload", InformixUnload},
	{"InformixUnloadCsv", InformixUnloadCSV},
	{"MongoDBCsv", MongoDBCSV},
	{"MongoDBTsv", MongoDBTSV},
	{"MySQL", MySQL},
	{"Oracle", Oracle},
	{"PostgreSQLCsv", PostgreSQLCSV},
	{"PostgreSQLText", PostgreSQLText},
	{"RFC4180", RFC4180},
	{"TDF", TDF},
}

// Preset returns the predefined format with the given name. Names are
// matched case-insensitively.
func Preset(name string) (*Format, bool) {
	for _, p := range presets {
		if strings.EqualFold(p.name, strings.TrimSpace(name)) {
			return p.format, true
		}
	}
	return nil, false
}

// PresetNames lists the predefined format names.
func PresetNames() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.name
	}
	return names
}

// PresetName returns the name of the predefined format equal to f, if any.
func (f *Format) PresetName() (string, bool) {
	for _, p := range presets {
		if p.format.Equal(f) {
			return p.name, true
		}
	}
	return "", false
}
