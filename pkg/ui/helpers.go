package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
)

const ellipsis = "…"

// truncateRunesHelper truncates a string to max visual width (cells), adding suffix if needed.
// Uses go-runewidth to handle wide characters correctly.
func truncateRunesHelper(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}

	width := runewidth.StringWidth(s)
	if width <= maxWidth {
		return s
	}

	suffixWidth := runewidth.StringWidth(suffix)
	if suffixWidth > maxWidth {
		return runewidth.Truncate(suffix, maxWidth, "")
	}

	targetWidth := maxWidth - suffixWidth
	return runewidth.Truncate(s, targetWidth, "") + suffix
}

// fitRow shortens a row to width cells. The label is cut first; the
// prefix only when nothing of the label fits.
func fitRow(prefix, label string, width int) (string, string) {
	pw := runewidth.StringWidth(prefix)
	if pw >= width {
		return truncateRunesHelper(prefix, width, ""), ""
	}
	return prefix, truncateRunesHelper(label, width-pw, ellipsis)
}

// matchedIndexes returns the byte offsets of label matched by the filter
// text. A truncated label keeps its original offsets up to the ellipsis.
func matchedIndexes(label, filter string, fuzzyMatch bool) map[int]bool {
	filter = strings.TrimSpace(filter)
	if filter == "" || label == "" {
		return nil
	}
	limit := len(label)
	if strings.HasSuffix(label, ellipsis) {
		limit -= len(ellipsis)
	}
	out := make(map[int]bool)
	if fuzzyMatch {
		matches := fuzzy.Find(filter, []string{label})
		if len(matches) == 0 {
			return nil
		}
		for _, i := range matches[0].MatchedIndexes {
			if i < limit {
				out[i] = true
			}
		}
		return out
	}
	lower := strings.ToLower(label)
	at := strings.Index(lower, strings.ToLower(filter))
	if at < 0 || len(lower) != len(label) {
		return nil
	}
	for i := at; i < at+len(filter) && i < limit; i++ {
		out[i] = true
	}
	return out
}
