package utils

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

var (
	phoneDigits  = regexp.MustCompile(`^\+?[0-9][0-9 -]{9,}[0-9]$`)
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b-\x1f\x7f]`)
)

// MinPhoneLength is the shortest phone number the roster accepts (mainland mobile)
const MinPhoneLength = 11

// ValidatePhone checks a roster phone number, which doubles as the login name
func ValidatePhone(phone string) error {
	digits := strings.NewReplacer(" ", "", "-", "", "+", "").Replace(phone)
	if len(digits) < MinPhoneLength {
		return fmt.Errorf("phone number must have at least %d digits: %q", MinPhoneLength, phone)
	}
	if !phoneDigits.MatchString(phone) {
		return fmt.Errorf("invalid phone number format: %q", phone)
	}
	return nil
}

// ValidateAmount checks a money amount entered on a form
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("amount is not a number")
	}
	if amount <= 0 {
		return fmt.Errorf("amount must be positive: %.2f", amount)
	}
	return nil
}

// SanitizeString strips control characters (newlines and tabs are kept) and
// surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}
