package utils

import "strings"

// NormalizePlate нормализует номерной знак к единому формату
// Удаляет пробелы, дефисы и приводит к верхнему регистру
func NormalizePlate(raw string) string {
	normalized := strings.TrimSpace(raw)
	normalized = strings.ReplaceAll(normalized, " ", "")
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ToUpper(normalized)
	return normalized
}

// PlatesEqual compares two plates ignoring spacing, dashes and case.
func PlatesEqual(a, b string) bool {
	na := NormalizePlate(a)
	if na == "" {
		return false
	}
	return na == NormalizePlate(b)
}
