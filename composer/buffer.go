package composer

import "unicode/utf8"

// Offsets throughout the package count runes, not bytes.

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func clampInt(v, min, max int) int {
	if max < min {
		return min
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// byteOffset converts a rune offset into a byte offset. Offsets past the end map to len(s).
func byteOffset(s string, runes int) int {
	if runes <= 0 {
		return 0
	}
	n := 0
	for i := range s {
		if n == runes {
			return i
		}
		n++
	}
	return len(s)
}

func sliceRunes(s string, start, end int) string {
	return s[byteOffset(s, start):byteOffset(s, end)]
}

// splice returns s[0:start] + repl + s[end:]. The caller clamps the offsets.
func splice(s string, start, end int, repl string) string {
	bs, be := byteOffset(s, start), byteOffset(s, end)
	return s[:bs] + repl + s[be:]
}

// tail returns the last n runes of s.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	l := runeLen(s)
	if l <= n {
		return s
	}
	return s[byteOffset(s, l-n):]
}
