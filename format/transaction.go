// Package format builds document-insertion transactions from captured
// content: a flattened body string plus the offset ranges that later remote
// calls need for list formatting and citation hyperlinking.
package format

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/capture"
)

// citationLabel prefixes the citation line. Its length feeds the citation
// range arithmetic, so it must match what buildBody appends.
const citationLabel = "Source: "

// Range is a half-open [Start, End) span of rune offsets relative to the
// transaction body, not to any document.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of runes covered.
func (r Range) Len() int { return r.End - r.Start }

// Transaction is one formatted edit, ready to submit: the body text (with
// its leading paragraph break and trailing citation already in place) and
// the ranges that the follow-up styling calls operate on.
//
// Ranges never overlap; a line is bullet, numbered, or plain, never two of
// those.
type Transaction struct {
	Body           string  `json:"body"`
	BulletRanges   []Range `json:"bullet_ranges,omitempty"`
	NumberedRanges []Range `json:"numbered_ranges,omitempty"`
	// CitationRange covers the page title inside the citation line, so it
	// can be hyperlinked to the source page.
	CitationRange Range `json:"citation_range"`
}

// Length returns the body length in runes. The orchestrator uses it to
// recover the landing offset of an append-at-end insertion.
func (t Transaction) Length() int { return utf8.RuneCountInString(t.Body) }

// FromSelection formats a text highlight into a transaction. Per line, in
// priority order: a leading bullet glyph is stripped and the line recorded
// as a bullet item; a leading "N." or "N)" prefix is stripped and the line
// recorded as numbered; anything else stays as-is, except that an empty
// line becomes a single space — the document service mishandles zero-length
// paragraphs.
func FromSelection(sel capture.SelectionPayload) Transaction {
	return build(sel.Text, sel.PageTitle, sel.Timestamp)
}

// Caption formats the fixed caption used under an inserted screenshot.
func Caption(sel capture.SelectionPayload) Transaction {
	return build("Screen capture from "+sel.PageTitle, sel.PageTitle, sel.Timestamp)
}

func build(text, title string, ts time.Time) Transaction {
	// Whitespace-only input still has to produce a non-empty quote: the
	// remote edit is never submitted with fully empty content.
	if strings.TrimSpace(text) == "" {
		text = " "
	}

	var (
		tx    Transaction
		lines []string
	)

	// The quote starts after the leading paragraph break.
	offset := 1

	for _, line := range strings.Split(text, "\n") {
		content, kind := classifyLine(line)
		if content == "" {
			content = " "
			kind = lineKindPlain
		}

		start := offset
		end := start + utf8.RuneCountInString(content)
		switch kind {
		case lineKindBullet:
			tx.BulletRanges = append(tx.BulletRanges, Range{Start: start, End: end})
		case lineKindNumbered:
			tx.NumberedRanges = append(tx.NumberedRanges, Range{Start: start, End: end})
		}

		lines = append(lines, content)
		offset = end + 1 // the rejoining newline
	}

	quote := strings.Join(lines, "\n")
	stamp := ts.UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(quote)
	b.WriteString("\n")
	b.WriteString(citationLabel)
	b.WriteString(title)
	b.WriteString(" ")
	b.WriteString(stamp)
	tx.Body = b.String()

	titleStart := 1 + utf8.RuneCountInString(quote) + 1 + utf8.RuneCountInString(citationLabel)
	tx.CitationRange = Range{Start: titleStart, End: titleStart + utf8.RuneCountInString(title)}

	return tx
}
