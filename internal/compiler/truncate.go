package compiler

import "strings"

// TruncationMarker is appended on its own line wherever content was cut.
const TruncationMarker = "[... truncated]"

var markerSuffix = []rune("\n" + TruncationMarker)

// Truncate shortens s to at most limit runes, marker included. It cuts at
// the last line break past half of the available length, falling back to
// the last space past half, then to a hard cut. The first keep runes are
// never removed; when they leave no room for the marker the result is the
// kept prefix alone.
func Truncate(s string, limit, keep int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit < 0 {
		limit = 0
	}
	if keep > len(runes) {
		keep = len(runes)
	}
	if keep > limit {
		limit = keep
	}

	avail := limit - len(markerSuffix)
	if avail < keep || avail <= 0 {
		return strings.TrimRight(string(runes[:keep]), " \n")
	}

	cut := lastBreak(runes[:avail], '\n', max(avail/2, keep))
	if cut < 0 {
		cut = lastBreak(runes[:avail], ' ', max(avail/2, keep))
	}
	if cut < 0 {
		cut = avail
	}
	head := strings.TrimRight(string(runes[:cut]), " \n")
	if len([]rune(head)) < keep {
		head = string(runes[:keep])
	}
	return head + string(markerSuffix)
}

// lastBreak returns the index of the last r in rs at or after from, or -1.
func lastBreak(rs []rune, r rune, from int) int {
	for i := len(rs) - 1; i >= from && i >= 0; i-- {
		if rs[i] == r {
			return i
		}
	}
	return -1
}
