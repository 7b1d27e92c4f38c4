package dialogue

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// word characters include non-ASCII letters and digits, so "josé@café.co" is valid
var emailPattern = regexp.MustCompile(`^[\p{L}\p{N}_.-]+@[\p{L}\p{N}_.-]+\.[\p{L}\p{N}_]+$`)

// datetimeKeywords is the allowlist checked before any parsing. It mixes
// English and Swahili (leo = today, kesho = tomorrow, saa = hour).
var datetimeKeywords = []string{
	"today", "tomorrow", "leo", "kesho", "monday", "tuesday",
	"am", "pm", "saa", "at", ":",
}

// beginKeywords start the booking flow from StageStart.
var beginKeywords = []string{"book", "1", "slot"}

var defaultDateParser DateParser = NewFuzzyDateParser()

// IsName accepts at least two characters with one letter that are not all digits.
func IsName(text string) bool {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < 2 {
		return false
	}
	hasLetter := false
	for _, r := range text {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	return hasLetter && !isAllDigits(text)
}

// IsContact accepts an e-mail address or a phone number of at least nine digits.
// Phone numbers may contain spaces and a leading plus, nothing else.
func IsContact(text string) bool {
	if emailPattern.MatchString(text) {
		return true
	}
	digits := 0
	for _, r := range text {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	compact := strings.TrimLeft(strings.ReplaceAll(text, " ", ""), "+")
	return digits >= 9 && isAllDigits(compact)
}

// IsEmail reports whether a collected contact is an e-mail address.
func IsEmail(contact string) bool {
	return emailPattern.MatchString(contact)
}

// IsDatetime accepts text naming a slot, first by keyword then by parsing.
func IsDatetime(text string) bool {
	return isDatetime(text, defaultDateParser)
}

func isDatetime(text string, parser DateParser) bool {
	if HasDatetimeKeyword(text) {
		return true
	}
	return ParsesAsDatetime(text, parser)
}

// HasDatetimeKeyword is the allowlist branch of IsDatetime.
func HasDatetimeKeyword(text string) bool {
	return containsAny(strings.ToLower(text), datetimeKeywords)
}

// ParsesAsDatetime is the parser branch of IsDatetime. A nil parser uses the
// package default.
func ParsesAsDatetime(text string, parser DateParser) bool {
	if parser == nil {
		parser = defaultDateParser
	}
	_, ok := parser.Parse(text)
	return ok
}

// WantsToBook reports whether a StageStart utterance asks to begin booking.
func WantsToBook(text string) bool {
	return containsAny(strings.ToLower(text), beginKeywords)
}

// TitleCase upper-cases the first letter of each word and lower-cases the rest.
func TitleCase(text string) string {
	// Casers keep state, so one per call.
	return cases.Title(language.Und).String(text)
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func isAllDigits(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
