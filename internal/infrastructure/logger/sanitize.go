package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

const maxLoggedValue = 256

// SanitizeForLog escapes control characters so user input cannot forge log
// lines or drive the terminal. Printable Unicode passes through.
func SanitizeForLog(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 32 || r == 127:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Text is a slog attribute for untrusted free text such as audience
// interests or upload filenames. Long values are cut at maxLoggedValue runes.
func Text(key, value string) slog.Attr {
	if runes := []rune(value); len(runes) > maxLoggedValue {
		value = string(runes[:maxLoggedValue]) + "…"
	}
	return slog.String(key, SanitizeForLog(value))
}
