package validation

import (
	"fmt"
	"strings"
)

const maxFilenameLength = 255

// SanitizeFilename makes name safe for a Content-Disposition header: quotes,
// path separators and control characters become underscores, and the result
// is cut to maxFilenameLength bytes on a rune boundary.
func SanitizeFilename(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		switch {
		case r < 32 || r == 127:
			sb.WriteRune('_')
		case strings.ContainsRune(`"\/:`, r):
			sb.WriteRune('_')
		default:
			sb.WriteRune(r)
		}
	}

	out := strings.TrimSpace(sb.String())
	if strings.Trim(out, "_") == "" {
		return "file"
	}
	if len(out) > maxFilenameLength {
		cut := maxFilenameLength
		for cut > 0 && !isRuneStart(out[cut]) {
			cut--
		}
		out = out[:cut]
	}
	return out
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// ContentDisposition formats an inline or attachment disposition for name.
func ContentDisposition(name string, inline bool) string {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	return fmt.Sprintf("%s; filename=%q", disposition, SanitizeFilename(name))
}
