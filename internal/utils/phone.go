package utils

import (
	"regexp"
	"strings"
)

var (
	phoneRegex    = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)
	phoneStripper = regexp.MustCompile(`[^\d+]`)
)

// IsValidPhone accepts E.164 numbers, ignoring spaces, dashes and brackets.
func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(NormalizePhone(phone))
}

func NormalizePhone(phone string) string {
	normalized := phoneStripper.ReplaceAllString(phone, "")
	if normalized != "" && !strings.HasPrefix(normalized, "+") {
		normalized = "+" + normalized
	}
	return normalized
}

func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
