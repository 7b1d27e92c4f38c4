package dialogue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsName(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Jo", true},
		{"Asha Ali", true},
		{"  Wanjiru  ", true},
		{"J", false},
		{" J ", false},
		{"123", false},
		{"12", false},
		{"R2", true},
		{"", false},
		{"!!", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsName(tt.text), "IsName(%q)", tt.text)
	}
}

func TestIsContact(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"a@b.co", true},
		{"asha.ali@mail.example.com", true},
		{"0712345678", true},
		{"+254712345678", true},
		{"0712 345 678", true},
		{"071234567", true},
		{"12", false},
		{"07123456", false},
		{"0712-345-678", false},
		{"asha@", false},
		{"call me", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsContact(tt.text), "IsContact(%q)", tt.text)
	}
}

func TestIsEmail(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"a@b.co", true},
		{"asha_ali-1@mail.example.co.ke", true},
		{"josé@café.co", true},
		{"wanjirũ@barua.ke", true},
		{"ámbar@correo.es", true},
		{"0712345678", false},
		{"asha@mail", false},
		{"asha ali@mail.com", false},
		{"@mail.com", false},
		{"asha@mail.c!", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsEmail(tt.text), "IsEmail(%q)", tt.text)
	}
	assert.True(t, IsContact("josé@café.co"))
}

func TestIsDatetime(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"tomorrow at 3pm", true},
		{"kesho saa tisa", true},
		{"Leo jioni", true},
		{"15:30", true},
		{"MONDAY", true},
		{"2026-03-05", true},
		{"asdkj", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDatetime(tt.text), "IsDatetime(%q)", tt.text)
	}
}

func TestDatetimeBranchesAreIndependent(t *testing.T) {
	// keyword branch alone
	assert.True(t, HasDatetimeKeyword("kesho saa tisa"))
	assert.False(t, ParsesAsDatetime("kesho saa tisa", DateParserFunc(func(string) (time.Time, bool) {
		return time.Time{}, false
	})))

	// parser branch alone
	assert.False(t, HasDatetimeKeyword("2026-03-05"))
	assert.True(t, ParsesAsDatetime("2026-03-05", nil))
	assert.True(t, ParsesAsDatetime("next friday", nil))

	assert.False(t, HasDatetimeKeyword("asdkj"))
	assert.False(t, ParsesAsDatetime("asdkj", nil))
}

func TestIsDatetimeUsesParserAfterKeywords(t *testing.T) {
	calls := 0
	parser := DateParserFunc(func(string) (time.Time, bool) {
		calls++
		return time.Now(), true
	})

	assert.True(t, isDatetime("tomorrow", parser))
	assert.Equal(t, 0, calls, "keyword hit should skip the parser")

	assert.True(t, isDatetime("zzz", parser))
	assert.Equal(t, 1, calls)
}

func TestFuzzyDateParserToleratesGarbage(t *testing.T) {
	p := NewFuzzyDateParser()
	for _, text := range []string{"", "   ", "asdkj", "%%%///:::", "99/99/9999", "\x00\x01"} {
		assert.NotPanics(t, func() { p.Parse(text) }, "Parse(%q)", text)
	}
	_, ok := p.Parse("asdkj")
	assert.False(t, ok)
}

func TestWantsToBook(t *testing.T) {
	assert.True(t, WantsToBook("BOOK"))
	assert.True(t, WantsToBook("1"))
	assert.True(t, WantsToBook("nataka slot"))
	assert.False(t, WantsToBook("hello"))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Asha Ali", TitleCase("asha ali"))
	assert.Equal(t, "Asha Ali", TitleCase("ASHA ALI"))
	assert.Equal(t, "Wanjiru", TitleCase("wanjiru"))
}
