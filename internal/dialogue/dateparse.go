package dialogue

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DateParser recognises a date or time somewhere in free text.
type DateParser interface {
	Parse(text string) (time.Time, bool)
}

// DateParserFunc adapts a function to DateParser.
type DateParserFunc func(text string) (time.Time, bool)

func (f DateParserFunc) Parse(text string) (time.Time, bool) { return f(text) }

// FuzzyDateParser tries English natural-language rules ("next friday 3pm")
// and then format sniffing ("2026-03-05 15:00", "5 March 2026").
type FuzzyDateParser struct {
	rules *when.Parser
	now   func() time.Time
}

// NewFuzzyDateParser builds a parser with the English and common rule sets.
func NewFuzzyDateParser() *FuzzyDateParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &FuzzyDateParser{rules: w, now: time.Now}
}

// Parse never panics; anything the parsers choke on is reported as no match.
func (p *FuzzyDateParser) Parse(text string) (parsed time.Time, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			parsed, ok = time.Time{}, false
		}
	}()

	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	if res, err := p.rules.Parse(text, p.now()); err == nil && res != nil {
		return res.Time, true
	}
	if t, err := dateparse.ParseAny(text); err == nil {
		return t, true
	}
	return time.Time{}, false
}
