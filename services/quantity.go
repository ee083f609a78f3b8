package services

import (
	"strconv"
	"strings"
)

// ParseQuantity parses a quantity cell tolerantly and returns fallback
// when the value is unusable. Callers choose the fallback: 1 for
// per-unit quantities, 0 where a zero row is meaningful.
//
// European number formats are handled: when both "." and "," appear the
// comma is a thousands separator; a lone comma followed by at most three
// digits is a decimal separator ("2,5" -> 2.5).
func ParseQuantity(s string, fallback float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")

	switch {
	case hasDot && hasComma:
		s = strings.ReplaceAll(s, ",", "")
	case hasComma:
		if strings.Count(s, ",") == 1 && len(s)-strings.Index(s, ",")-1 <= 3 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

// ParseLevel parses a depth cell as a non-negative integer. Rows whose
// level cell is missing or non-numeric are treated as noise by callers.
func ParseLevel(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
