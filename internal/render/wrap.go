package render

import "strings"

// Wrap breaks text into lines no wider than width. Explicit newlines start a
// new line and blank lines are kept. Words are never hyphenated; a single
// word wider than the line is broken between characters.
func Wrap(m Measurer, text string, width float64, st TextStyle) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, word := range words {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if m.StringWidth(candidate, st) <= width {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			if m.StringWidth(word, st) <= width {
				line = word
				continue
			}
			pieces := breakWord(m, word, width, st)
			lines = append(lines, pieces[:len(pieces)-1]...)
			line = pieces[len(pieces)-1]
		}
		lines = append(lines, line)
	}
	return lines
}

// breakWord splits a word that does not fit on a line by itself.
func breakWord(m Measurer, word string, width float64, st TextStyle) []string {
	var pieces []string
	var cur strings.Builder
	for _, r := range word {
		next := cur.String() + string(r)
		if cur.Len() > 0 && m.StringWidth(next, st) > width {
			pieces = append(pieces, cur.String())
			cur.Reset()
		}
		cur.WriteRune(r)
	}
	return append(pieces, cur.String())
}

// wrapAll wraps several paragraphs, skipping empty ones.
func wrapAll(m Measurer, width float64, st TextStyle, paragraphs ...string) []string {
	var out []string
	for _, p := range paragraphs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, Wrap(m, strings.TrimSpace(p), width, st)...)
	}
	return out
}
