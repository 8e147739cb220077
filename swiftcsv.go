// # SwiftCSV: A Format-Driven Streaming CSV Library for Go
//
// SwiftCSV parses and prints delimited text according to a Format: an immutable description of the delimiter, quoting, escaping, comments, null values, header handling and whitespace policy. Twelve predefined formats cover RFC 4180, Excel, MySQL, PostgreSQL, Oracle, Informix, MongoDB and tab-delimited files.
//
// # Features
//
// - Streaming `Parser` over any `io.Reader` with a single forward-only cursor, exposed through `Next`, `ReadAll` and the `Records` iterator.
// - Header mapping read from the first record or given explicitly, with duplicate and missing name policies and case-insensitive lookup.
// - Multi-character delimiters, escape characters, comment lines attached to the following record, and null string detection.
// - Buffered `Printer` with minimal, all, all-non-null, non-numeric and escape-only quoting.
// - Formats load from YAML or JSON documents through `FormatConfig`.
// - Structured error reporting via `ParseError`, `HeaderError` and `ConfigError`, matched with `errors.Is` against the category sentinels.
// - Diagnostics through `log/slog` when a logger is passed with `WithLogger`.
//
// # Getting Started
//
//	p, err := swiftcsv.ParseString("name,age\r\nann,30\r\n", swiftcsv.Default.Builder().SetHeader().MustBuild())
//	if err != nil {
//		return err
//	}
//	for rec, err := range p.Records() {
//		if err != nil {
//			return err
//		}
//		age, _ := rec.Lookup("age")
//		fmt.Println(age)
//	}
//
// The module path is `github.com/oleg578/swiftcsv/v2`.
package swiftcsv
