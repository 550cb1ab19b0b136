package recognition

import (
	"strings"
	"unicode"
)

// FormatPlate normalizes raw OCR text into the canonical spaced plate form,
// e.g. "MH19EQ0009" -> "MH 19 EQ 0009". Grouping follows the common Indian
// registration layouts; anything shorter than 8 characters is returned
// unformatted.
func FormatPlate(raw string) string {
	clean := stripNonAlphanumeric(raw)

	if len(clean) < 8 {
		return clean
	}
	if len(clean) > 10 {
		clean = clean[:10]
	}

	switch len(clean) {
	case 10:
		// XX 99 XX 9999
		return joinGroups(clean, 2, 2, 2, 4)
	case 9:
		// XX 99 X 9999
		return joinGroups(clean, 2, 2, 1, 4)
	case 8:
		// XX 99 XX 99
		return joinGroups(clean, 2, 2, 2, 2)
	default:
		return chunkBy(clean, 2)
	}
}

func stripNonAlphanumeric(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if r >= 'A' && r <= 'Z' || unicode.IsDigit(r) && r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func joinGroups(s string, sizes ...int) string {
	parts := make([]string, 0, len(sizes))
	pos := 0
	for _, size := range sizes {
		parts = append(parts, s[pos:pos+size])
		pos += size
	}
	return strings.Join(parts, " ")
}

func chunkBy(s string, size int) string {
	var parts []string
	for i := 0; i < len(s); i += size {
		end := i + size
		if end > len(s) {
			end = len(s)
		}
		parts = append(parts, s[i:end])
	}
	return strings.Join(parts, " ")
}
