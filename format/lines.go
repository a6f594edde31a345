package format

import (
	"regexp"
	"strings"
)

type lineKind int

const (
	lineKindPlain lineKind = iota
	lineKindBullet
	lineKindNumbered
)

// bulletGlyphs are the markers recognised as bullet items. Markdown and the
// common copy-paste glyphs; the glyph must be followed by whitespace so
// "-3" or "*emphasis*" stay plain.
var bulletGlyphs = []string{"-", "*", "•", "◦", "▪"}

// numberedPrefix matches "12. " and "12) " style prefixes.
var numberedPrefix = regexp.MustCompile(`^(\d+)[.)][ \t]+`)

// classifyLine strips a recognised list prefix and reports the line kind.
// Bullet detection wins over numbered detection.
func classifyLine(line string) (string, lineKind) {
	for _, glyph := range bulletGlyphs {
		rest, ok := strings.CutPrefix(line, glyph)
		if !ok {
			continue
		}
		trimmed := strings.TrimLeft(rest, " \t")
		if trimmed == rest {
			// Glyph not followed by whitespace: not a bullet.
			continue
		}
		return trimmed, lineKindBullet
	}

	if m := numberedPrefix.FindString(line); m != "" {
		return line[len(m):], lineKindNumbered
	}

	return line, lineKindPlain
}
