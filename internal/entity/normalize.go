package entity

import "strings"

// NormalizeValue returns the canonical form of a value for deduplication and
// reporting. Names drop the honorific suffix, phone numbers collapse to the
// hyphenated canonical form; other kinds pass through unchanged.
func NormalizeValue(e Entity) string {
	switch e.Kind {
	case KindName:
		return e.BaseValue()
	case KindPhone:
		return NormalizePhone(e.Value)
	default:
		return e.Value
	}
}

// NormalizePhone rewrites a Korean phone number to XXX-XXXX-XXXX (mobile) or
// the 3-3/4-4 area heuristic. +82 prefixes are folded back to the leading 0.
// Values that do not digit-reduce to a known shape are returned with
// whitespace tidied only.
func NormalizePhone(raw string) string {
	digits := toDigits(raw)
	if strings.HasPrefix(raw, "+82") && strings.HasPrefix(digits, "82") {
		digits = "0" + digits[2:]
	}

	switch {
	case strings.HasPrefix(digits, "010") && len(digits) == 11:
		return digits[:3] + "-" + digits[3:7] + "-" + digits[7:]
	case isOldMobilePrefix(digits):
		if len(digits) == 10 {
			return digits[:3] + "-" + digits[3:6] + "-" + digits[6:]
		}
		if len(digits) == 11 {
			return digits[:3] + "-" + digits[3:7] + "-" + digits[7:]
		}
	case strings.HasPrefix(digits, "02"):
		if len(digits) == 9 {
			return digits[:2] + "-" + digits[2:5] + "-" + digits[5:]
		}
		if len(digits) == 10 {
			return digits[:2] + "-" + digits[2:6] + "-" + digits[6:]
		}
	case len(digits) == 10:
		return digits[:3] + "-" + digits[3:6] + "-" + digits[6:]
	case len(digits) == 11:
		return digits[:3] + "-" + digits[3:7] + "-" + digits[7:]
	}

	return strings.Join(strings.Fields(raw), " ")
}

func isOldMobilePrefix(digits string) bool {
	if len(digits) < 3 {
		return false
	}
	switch digits[:3] {
	case "011", "016", "017", "018", "019":
		return true
	}
	return false
}

func toDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}
