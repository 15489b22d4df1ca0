package utils

import (
	"regexp"
	"strings"
)

var nonDigit = regexp.MustCompile(`\D`)

// FormatPhoneNumber formats a phone number to a standard format.
// Removes all non-digit characters and ensures it starts with country code.
func FormatPhoneNumber(phoneNumber string) string {
	digits := nonDigit.ReplaceAllString(phoneNumber, "")

	// If it doesn't start with country code, assume India (+91)
	if len(digits) > 0 && !strings.HasPrefix(digits, "91") {
		digits = strings.TrimLeft(digits, "0")
		digits = "91" + digits
	}

	return digits
}

// ValidatePhoneNumber validates if a phone number is a valid Indian mobile
// number: exactly 10 digits starting with 6-9 (ignoring any country code).
func ValidatePhoneNumber(phoneNumber string) bool {
	cleaned := nonDigit.ReplaceAllString(phoneNumber, "")

	// Strip the country code only when one is actually present.
	if len(cleaned) == 12 && strings.HasPrefix(cleaned, "91") {
		cleaned = cleaned[2:]
	}
	cleaned = strings.TrimLeft(cleaned, "0")

	if len(cleaned) != 10 {
		return false
	}

	switch cleaned[0] {
	case '6', '7', '8', '9':
		return true
	}
	return false
}

// NormalizePhoneNumber normalizes phone number for database storage
func NormalizePhoneNumber(phoneNumber string) string {
	return FormatPhoneNumber(phoneNumber)
}

// DisplayPhoneNumber formats phone number for display
func DisplayPhoneNumber(phoneNumber string) string {
	formatted := FormatPhoneNumber(phoneNumber)
	if len(formatted) == 12 && strings.HasPrefix(formatted, "91") {
		// Format as +91 XXXXX XXXXX
		return "+" + formatted[:2] + " " + formatted[2:7] + " " + formatted[7:]
	}
	return phoneNumber
}
