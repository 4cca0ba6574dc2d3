// Package normalize maps raw contract identity fields to canonical
// comparable strings. All functions are pure and total: bad input yields
// an empty string ("absent"), never an error.
package normalize

import "strings"

// addressReplacements is applied in order as repeated substring
// replacement, not per-word matching: a space-preceded "STREETER" still
// rewrites to "STER". Order matters because " #" must become " UNIT "
// before whitespace collapsing.
var addressReplacements = []struct {
	from string
	to   string
}{
	{" STREET", " ST"},
	{" AVENUE", " AVE"},
	{" BOULEVARD", " BLVD"},
	{" DRIVE", " DR"},
	{" LANE", " LN"},
	{" ROAD", " RD"},
	{" COURT", " CT"},
	{" CIRCLE", " CIR"},
	{" APARTMENT", " APT"},
	{" SUITE", " STE"},
	{" #", " UNIT "},
}

// Address canonicalizes a street address for exact matching.
//
//	"123 Main Street, Apt. 4" -> "123 MAIN ST APT 4"
//	"789 First Blvd #100"     -> "789 FIRST BLVD UNIT 100"
func Address(street string) string {
	if street == "" {
		return ""
	}
	s := strings.ToUpper(street)
	for _, r := range addressReplacements {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	s = strings.Map(func(r rune) rune {
		if r == '.' || r == ',' {
			return -1
		}
		return r
	}, s)
	// Collapse whitespace runs and trim in one pass.
	return strings.Join(strings.Fields(s), " ")
}

// Phone reduces a phone number to exactly 10 digits, dropping a leading US
// country code. Anything else is absent: phone is a match key, so a
// partial value must never leak through.
//
//	"+1 (555) 123-4567" -> "5551234567"
//	"12345"             -> ""
func Phone(phone string) string {
	if phone == "" {
		return ""
	}
	digits := keepDigits(phone)
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return ""
	}
	return digits
}

// Email lowercases and trims. Absent stays absent.
func Email(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// State uppercases and trims a state code.
func State(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

// Zip keeps at most the first 5 digits. Fewer than 5 digits are returned
// as-is: malformed ZIPs are not rejected, they just stop matching.
//
//	"90210-1234" -> "90210"
func Zip(zip string) string {
	digits := keepDigits(zip)
	if len(digits) >= 5 {
		return digits[:5]
	}
	return digits
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
