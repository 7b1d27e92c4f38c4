package messaging

import "strings"

// DefaultCountryCode is prefixed to numbers written without a leading +.
const DefaultCountryCode = "254"

// NormalizeMSISDN returns phone as +<digits>. Numbers not written with a
// leading + are treated as national: leading zeros are dropped and
// countryCode is prefixed.
func NormalizeMSISDN(phone, countryCode string) string {
	phone = strings.TrimSpace(phone)
	digits := digitsOnly(phone)
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(phone, "+") {
		return "+" + digits
	}
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	return "+" + digitsOnly(countryCode) + strings.TrimLeft(digits, "0")
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
