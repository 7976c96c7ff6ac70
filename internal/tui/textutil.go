package tui

import "strings"

// truncateEnd shortens s to at most max characters, appending an ellipsis
// if truncation occurs. Handles negative or tiny limits gracefully.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// truncateMiddle keeps both ends of s, which is what matters for ids.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	n := len(r)
	if n <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	keep := limit - 1
	left := keep / 2
	right := keep - left
	return string(r[:left]) + "…" + string(r[n-right:])
}

// singleLine collapses all whitespace runs, newlines included, to one space.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// wrapWidth picks a reading width of 90% of the terminal clamped to
// [minWidth, maxWidth]. Narrow terminals get their full width minus a margin.
func wrapWidth(width, minWidth, maxWidth int) int {
	if minWidth <= 0 {
		minWidth = 40
	}
	if maxWidth < minWidth {
		maxWidth = minWidth
	}
	if width <= 0 {
		return maxWidth
	}
	if width < minWidth+10 {
		return max(width-4, 20)
	}
	return min(max(width*9/10, minWidth), maxWidth)
}
