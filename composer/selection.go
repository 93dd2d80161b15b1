package composer

// Selection is a non-empty span of the buffer plus the text it covered when captured.
type Selection struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Span returns the selection offsets.
func (s Selection) Span() Span {
	return Span{Start: s.Start, End: s.End}
}

// Len returns the selection length in characters.
func (s Selection) Len() int {
	return s.End - s.Start
}

// TrackSelection turns raw offsets from the input surface into a Selection over doc.
// Offsets are clamped to [0, len(doc)] and reversed ranges are normalized.
// A collapsed range (a caret) yields nil.
func TrackSelection(doc string, start, end int) *Selection {
	n := runeLen(doc)
	start = clampInt(start, 0, n)
	end = clampInt(end, 0, n)
	if start > end {
		start, end = end, start
	}
	if start == end {
		return nil
	}
	return &Selection{Start: start, End: end, Text: sliceRunes(doc, start, end)}
}

// survives reports whether sel still addresses identical text in doc.
func (s *Selection) survives(doc string) bool {
	if s == nil {
		return false
	}
	if s.End > runeLen(doc) {
		return false
	}
	return sliceRunes(doc, s.Start, s.End) == s.Text
}

func sameSelection(a, b *Selection) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
