// ABOUTME: Canonical recipient address normalization.
// ABOUTME: Pure, total, and idempotent over arbitrary input strings.

package message

import "strings"

// AddressSuffix is the platform address suffix appended to every
// canonical recipient.
const AddressSuffix = "@c.us"

// Normalize rewrites a raw phone number into canonical address form:
// non-digits stripped, a leading 0 replaced by the country code, a bare
// subscriber number starting with 8 prefixed with the country code, and
// the platform suffix appended. Every input maps to exactly one output
// and normalizing twice is a no-op.
func Normalize(number, countryCode string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case strings.HasPrefix(digits, "0"):
		digits = countryCode + digits[1:]
	case strings.HasPrefix(digits, "8"):
		digits = countryCode + digits
	}

	return digits + AddressSuffix
}
