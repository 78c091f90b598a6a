package ui

import (
	"testing"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

func TestTruncateRunesHelper_UTF8Safe(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		suffix   string
		want     string
	}{
		{name: "zero max", input: "hello", maxWidth: 0, suffix: ellipsis, want: ""},
		{name: "fits", input: "hello", maxWidth: 10, suffix: ellipsis, want: "hello"},
		{name: "wide runes no suffix", input: "こんにちは", maxWidth: 6, suffix: "", want: "こんに"},
		{name: "ellipsis", input: "abcdef", maxWidth: 4, suffix: ellipsis, want: "abc…"},
		{name: "suffix wider than max", input: "abcdef", maxWidth: 1, suffix: "...", want: "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateRunesHelper(tt.input, tt.maxWidth, tt.suffix)
			if got != tt.want {
				t.Fatalf("truncateRunesHelper(%q, %d) = %q; want %q", tt.input, tt.maxWidth, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("output is not valid UTF-8: %q", got)
			}
			if w := runewidth.StringWidth(got); w > tt.maxWidth {
				t.Fatalf("output is %d cells wide; max %d", w, tt.maxWidth)
			}
		})
	}
}
