package timedtext

import "strings"

// accentedLatin is the fixed set of accented letters preserved by word
// normalization, matching the character classes common in caption text.
const accentedLatin = "àáâãäåèéêëìíîïòóôõöùúûüçñýÿÀÁÂÃÄÅÈÉÊËÌÍÎÏÒÓÔÕÖÙÚÛÜÇÑÝ"

// normalizeWord lowercases a word and strips everything except
// alphanumerics and accented Latin letters. The same routine backs the
// phantom, overlap, and merge comparisons so they agree on equality.
func normalizeWord(word string) string {
	var b strings.Builder
	b.Grow(len(word))
	for _, r := range strings.ToLower(word) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune(accentedLatin, r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizedWords splits text into normalized words, dropping words that
// normalize to nothing (pure punctuation).
func normalizedWords(text string) []string {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))
	for _, field := range fields {
		if norm := normalizeWord(field); norm != "" {
			words = append(words, norm)
		}
	}
	return words
}

// wordsArePrefix reports whether a forms a non-empty prefix of b under
// normalized comparison.
func wordsArePrefix(a, b []string) bool {
	if len(a) == 0 || len(a) > len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// prefixAlignedMatchRatio compares two word sequences position by position
// from the start and returns matches relative to the longer sequence.
func prefixAlignedMatchRatio(a, b []string) float64 {
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	if longer == 0 {
		return 0
	}
	shorter := len(a)
	if len(b) < shorter {
		shorter = len(b)
	}
	matched := 0
	for i := 0; i < shorter; i++ {
		if a[i] == b[i] {
			matched++
		}
	}
	return float64(matched) / float64(longer)
}
