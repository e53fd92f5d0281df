// Package render produces Telegram-ready text: MarkdownV2 escaping, fenced
// preformatted blocks, plain-text tables and the outgoing size guard. All
// functions here are pure.
package render

import (
	"strings"
	"unicode/utf8"

	"github.com/polyntsov/tg-compiler-explorer/internal/godbolt"
)

const fence = "```"

// maxMessageLen is Telegram's maximum message length, counted in Unicode
// code points rather than bytes.
const maxMessageLen = 4096

const (
	trimSuffixPlain = "\n... (message trimmed)"
	trimSuffixPre   = "\n... (message trimmed)```"
)

// markdownV2Special is the MarkdownV2 reserved character set.
const markdownV2Special = "_*[]()~`>#+-=|{}.!"

// EscapeMarkdownV2 escapes every reserved MarkdownV2 character so the text
// renders literally. Any externally sourced text must pass through here
// before it is placed inside markup-sensitive output.
func EscapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(markdownV2Special, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// WrapPre escapes text and fences it as a preformatted block. Compiler and
// execution output always goes through here so it cannot break out of the
// block or be parsed as markup.
func WrapPre(text string) string {
	return fence + "\n" + EscapeMarkdownV2(text) + "\n" + fence
}

// TrimMessage bounds text to Telegram's maximum message length. When it
// truncates a fenced block the suffix re-closes the fence, so a balanced
// input stays balanced. Truncation happens at a code point boundary.
func TrimMessage(s string) string {
	if utf8.RuneCountInString(s) <= maxMessageLen {
		return s
	}

	suffix := trimSuffixPlain
	if strings.HasPrefix(s, fence) && strings.HasSuffix(s, fence) {
		suffix = trimSuffixPre
	}

	maxBody := maxMessageLen - utf8.RuneCountInString(suffix)
	n := 0
	for i := range s {
		if n == maxBody {
			return s[:i] + suffix
		}
		n++
	}
	return s + suffix
}

// FormatLanguages renders the language listing as a two column table. An
// empty listing still renders the header and separator rows.
func FormatLanguages(langs []godbolt.Language) string {
	rows := make([][]string, 0, len(langs))
	for _, l := range langs {
		rows = append(rows, []string{l.ID, l.Name})
	}
	return renderTable([]string{"id", "name"}, rows)
}

// FormatCompilers renders the compiler listing as a three column table, or
// an informational line when the listing is empty.
func FormatCompilers(compilers []godbolt.Compiler) string {
	if len(compilers) == 0 {
		return "No compilers found for this language."
	}
	rows := make([][]string, 0, len(compilers))
	for _, c := range compilers {
		rows = append(rows, []string{c.ID, c.Name, c.Semver})
	}
	return renderTable([]string{"ID", "Name", "Version"}, rows)
}

// renderTable renders a left-justified plain-text table. Column widths are
// measured in runes across the header and every row, so multi-byte text
// lines up. The output ends with a newline.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := utf8.RuneCountInString(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(cell)
			for p := utf8.RuneCountInString(cell); p < widths[i]; p++ {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}

	writeRow(headers)

	separator := make([]string, len(headers))
	for i := range separator {
		separator[i] = strings.Repeat("-", widths[i])
	}
	writeRow(separator)

	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}
