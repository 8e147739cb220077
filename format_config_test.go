package swiftcsv

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

func TestParseFormatYAML(t *testing.T) {
	t.Parallel()

	const doc = `
base: mysql
null_string: "NULL"
comment_marker: "#"
quote_mode: all-non-null
header: [id, name]
skip_header_record: true
duplicate_header_mode: disallow
`
	f, err := ParseFormatYAML([]byte(doc))
	if err != nil {
		t.Fatalf("ParseFormatYAML() error = %v", err)
	}
	want := MySQL.Builder().
		SetNullString("NULL").
		SetCommentMarker('#').
		SetHeader("id", "name").
		SetSkipHeaderRecord(true).
		SetDuplicateHeaderMode(DuplicateDisallow).
		MustBuild()
	if !f.Equal(want) {
		t.Fatalf("ParseFormatYAML() = %v\nwant %v", f, want)
	}
}

func TestParseFormatJSON(t *testing.T) {
	t.Parallel()

	const doc = `{"delimiter": ";", "quote": "'", "record_separator": "\n", "auto_header": true, "ignore_header_case": true}`
	f, err := ParseFormatJSON([]byte(doc))
	if err != nil {
		t.Fatalf("ParseFormatJSON() error = %v", err)
	}
	want := Default.Builder().
		SetDelimiter(";").
		SetQuote('\'').
		SetRecordSeparator("\n").
		SetHeader().
		SetIgnoreHeaderCase(true).
		MustBuild()
	if !f.Equal(want) {
		t.Fatalf("ParseFormatJSON() = %v\nwant %v", f, want)
	}
}

func TestFormatConfigRoundTrip(t *testing.T) {
	t.Parallel()

	formats := map[string]*Format{
		"custom": Default.Builder().
			SetDelimiter("[|]").
			DisableQuote().
			SetEscape('\\').
			SetQuoteMode(QuoteNone).
			SetCommentMarker(';').
			SetRecordSeparator("\n").
			SetNullString("").
			SetHeader("a", "b").
			SetHeaderComments("one", "two").
			SetIgnoreEmptyLines(false).
			SetTrim(true).
			SetAutoFlush(true).
			MustBuild(),
		"autoHeader": RFC4180.Builder().SetHeader().SetAllowMissingColumnNames(true).MustBuild(),
		"bare": func() *Format {
			f, err := NewFormat("\t")
			if err != nil {
				t.Fatalf("NewFormat() error = %v", err)
			}
			return f
		}(),
	}
	for _, name := range PresetNames() {
		f, _ := Preset(name)
		formats[name] = f
	}

	for name, f := range formats {
		data, err := json.Marshal(f)
		if err != nil {
			t.Fatalf("%s: json.Marshal() error = %v", name, err)
		}
		fromJSON, err := ParseFormatJSON(data)
		if err != nil {
			t.Fatalf("%s: ParseFormatJSON(%s) error = %v", name, data, err)
		}
		if !fromJSON.Equal(f) {
			t.Fatalf("%s: JSON round trip through %s gave %v", name, data, fromJSON)
		}

		data, err = yaml.Marshal(f)
		if err != nil {
			t.Fatalf("%s: yaml.Marshal() error = %v", name, err)
		}
		fromYAML, err := ParseFormatYAML(data)
		if err != nil {
			t.Fatalf("%s: ParseFormatYAML(%s) error = %v", name, data, err)
		}
		if !fromYAML.Equal(f) {
			t.Fatalf("%s: YAML round trip through %s gave %v", name, data, fromYAML)
		}
	}
}

func TestFormatConfigPresetIsMinimal(t *testing.T) {
	t.Parallel()

	if got := MySQL.Config(); !reflect.DeepEqual(got, FormatConfig{Base: "MySQL"}) {
		t.Fatalf("Config() = %+v, want just the preset name", got)
	}
	data, err := json.Marshal(Excel)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(data) != `{"base":"Excel"}` {
		t.Fatalf("json.Marshal(Excel) = %s", data)
	}
}

func TestFormatConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		parse  func([]byte) (*Format, error)
		doc    string
		option string
	}{
		{"unknownBase", ParseFormatYAML, "base: excelish\n", "base"},
		{"unknownKey", ParseFormatYAML, "delimeter: ;\n", "document"},
		{"unknownJSONKey", ParseFormatJSON, `{"delimeter": ";"}`, "document"},
		{"malformedJSON", ParseFormatJSON, `{"delimiter": `, "document"},
		{"multiCharQuote", ParseFormatYAML, "quote: \"''\"\n", "quote"},
		{"unknownQuoteMode", ParseFormatJSON, `{"quote_mode": "sometimes"}`, "document"},
		{"conflictingHeader", ParseFormatYAML, "header: [a]\nno_header: true\n", "header"},
		{"conflictingNull", ParseFormatYAML, "null_string: x\nno_null_string: true\n", "null_string"},
		{"invalidResult", ParseFormatYAML, "delimiter: \"\"\n", "delimiter"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f, err := tc.parse([]byte(tc.doc))
			if f != nil || !errors.Is(err, ErrConfiguration) {
				t.Fatalf("parse(%q) = %v, %v, want ErrConfiguration", tc.doc, f, err)
			}
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("parse(%q) error type %T, want *ConfigError", tc.doc, err)
			}
			if cerr.Option != tc.option {
				t.Fatalf("ConfigError.Option = %q, want %q", cerr.Option, tc.option)
			}
		})
	}
}

func TestLoadFormatFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := map[string]string{
		"format.yaml": "base: TDF\ntrim: true\n",
		"format.yml":  "base: TDF\ntrim: true\n",
		"format.json": `{"base": "TDF", "trim": true}`,
	}
	want := TDF.Builder().SetTrim(true).MustBuild()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		f, err := LoadFormatFile(path)
		if err != nil {
			t.Fatalf("LoadFormatFile(%s) error = %v", name, err)
		}
		if !f.Equal(want) {
			t.Fatalf("LoadFormatFile(%s) = %v, want %v", name, f, want)
		}
	}

	if _, err := LoadFormatFile(filepath.Join(dir, "format.toml")); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("LoadFormatFile(.toml) error = %v, want ErrConfiguration", err)
	}
	if _, err := LoadFormatFile(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("LoadFormatFile(missing) error = %v, want os.ErrNotExist", err)
	}
}
