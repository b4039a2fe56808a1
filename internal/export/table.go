package export

import (
	"fmt"
	"regexp"
	"strings"
)

// Field is one named cell of a flat record.
type Field struct {
	Key   string
	Value interface{}
}

// Record is a flat row whose field order is significant: the first record
// of a table decides the header order for every format below.
type Record []Field

// Get returns the value stored under key.
func (r Record) Get(key string) (interface{}, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns the field names in order.
func (r Record) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

func cell(r Record, key string) string {
	v, ok := r.Get(key)
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func headers(records []Record) []string {
	if len(records) == 0 {
		return nil
	}
	return records[0].Keys()
}

// CSV quotes every field, headers included, and doubles embedded quotes.
func CSV(records []Record) string {
	return delimited(records, ",", func(v string) string {
		return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	})
}

var lineBreak = regexp.MustCompile(`\r?\n`)

// TSV replaces tabs and line breaks inside fields with a space.
func TSV(records []Record) string {
	return delimited(records, "\t", func(v string) string {
		v = strings.ReplaceAll(v, "\t", " ")
		return lineBreak.ReplaceAllString(v, " ")
	})
}

func delimited(records []Record, sep string, esc func(string) string) string {
	if len(records) == 0 {
		return ""
	}
	keys := headers(records)

	lines := make([]string, 0, len(records)+1)
	head := make([]string, len(keys))
	for i, k := range keys {
		head[i] = esc(k)
	}
	lines = append(lines, strings.Join(head, sep))

	for _, r := range records {
		row := make([]string, len(keys))
		for i, k := range keys {
			row[i] = esc(cell(r, k))
		}
		lines = append(lines, strings.Join(row, sep))
	}
	return strings.Join(lines, "\n")
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// EscapeHTML entity-escapes & < > and ".
func EscapeHTML(v string) string {
	return htmlEscaper.Replace(v)
}

// HTMLTable renders records as a bare table fragment suitable for a rich
// clipboard payload.
func HTMLTable(records []Record) string {
	if len(records) == 0 {
		return "<table></table>"
	}
	keys := headers(records)

	var b strings.Builder
	b.WriteString("<table><thead><tr>")
	for _, k := range keys {
		b.WriteString("<th>" + EscapeHTML(k) + "</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, r := range records {
		b.WriteString("<tr>")
		for _, k := range keys {
			b.WriteString("<td>" + EscapeHTML(cell(r, k)) + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

var (
	hostileChars = regexp.MustCompile(`[\\/:*?"<>|]+`)
	whitespace   = regexp.MustCompile(`\s+`)
)

const maxFilenameRunes = 80

// SanitizeFilename keeps spaces, underscores, dashes and dots, replaces
// path-hostile runs with "_" and truncates to 80 runes.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = hostileChars.ReplaceAllString(name, "_")
	name = whitespace.ReplaceAllString(name, " ")
	if runes := []rune(name); len(runes) > maxFilenameRunes {
		name = string(runes[:maxFilenameRunes])
	}
	return name
}
