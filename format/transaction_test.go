package format

import (
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/capture"
)

var testStamp = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func sel(text string) capture.SelectionPayload {
	return capture.SelectionPayload{
		Text:      text,
		PageURL:   "https://example.com/article",
		PageTitle: "Doc",
		Timestamp: testStamp,
	}
}

// rangeText slices the body by rune offsets.
func rangeText(body string, r Range) string {
	runes := []rune(body)
	return string(runes[r.Start:r.End])
}

func TestBulletScenario(t *testing.T) {
	tx := FromSelection(sel("- first\n- second"))

	want := "\nfirst\nsecond\nSource: Doc 2024-01-01T00:00:00Z"
	if tx.Body != want {
		t.Fatalf("body:\n got %q\nwant %q", tx.Body, want)
	}

	if len(tx.BulletRanges) != 2 {
		t.Fatalf("expected 2 bullet ranges, got %d", len(tx.BulletRanges))
	}
	if got := rangeText(tx.Body, tx.BulletRanges[0]); got != "first" {
		t.Fatalf("bullet 0 covers %q", got)
	}
	if got := rangeText(tx.Body, tx.BulletRanges[1]); got != "second" {
		t.Fatalf("bullet 1 covers %q", got)
	}
	if got := rangeText(tx.Body, tx.CitationRange); got != "Doc" {
		t.Fatalf("citation range covers %q", got)
	}
}

func TestNumberedLines(t *testing.T) {
	tx := FromSelection(sel("1. alpha\n2) beta\nplain"))

	if len(tx.NumberedRanges) != 2 {
		t.Fatalf("expected 2 numbered ranges, got %d", len(tx.NumberedRanges))
	}
	if got := rangeText(tx.Body, tx.NumberedRanges[0]); got != "alpha" {
		t.Fatalf("numbered 0 covers %q", got)
	}
	if got := rangeText(tx.Body, tx.NumberedRanges[1]); got != "beta" {
		t.Fatalf("numbered 1 covers %q", got)
	}
	if len(tx.BulletRanges) != 0 {
		t.Fatalf("plain/numbered input produced bullet ranges: %v", tx.BulletRanges)
	}
}

func TestBulletBeatsNumbered(t *testing.T) {
	// "- 1. x" is a bullet whose content happens to start with a number.
	tx := FromSelection(sel("- 1. mixed"))
	if len(tx.BulletRanges) != 1 || len(tx.NumberedRanges) != 0 {
		t.Fatalf("bullets=%v numbered=%v", tx.BulletRanges, tx.NumberedRanges)
	}
	if got := rangeText(tx.Body, tx.BulletRanges[0]); got != "1. mixed" {
		t.Fatalf("bullet covers %q", got)
	}
}

func TestGlyphWithoutWhitespaceIsPlain(t *testing.T) {
	tx := FromSelection(sel("-3 degrees\n*emphasis*"))
	if len(tx.BulletRanges) != 0 {
		t.Fatalf("unexpected bullet ranges: %v", tx.BulletRanges)
	}
	if !strings.Contains(tx.Body, "-3 degrees") || !strings.Contains(tx.Body, "*emphasis*") {
		t.Fatalf("lines were mangled: %q", tx.Body)
	}
}

func TestNoZeroLengthLines(t *testing.T) {
	inputs := []string{
		"a\n\nb",
		"\n\n\n",
		"   ",
		"",
		"- x\n\n- y",
	}
	for _, in := range inputs {
		tx := FromSelection(sel(in))
		// Strip the leading paragraph break, then no line may be empty.
		for i, line := range strings.Split(tx.Body[1:], "\n") {
			if line == "" {
				t.Fatalf("input %q: line %d is zero-length in body %q", in, i, tx.Body)
			}
		}
	}
}

func TestWhitespaceOnlyNormalizes(t *testing.T) {
	tx := FromSelection(sel("   \t  "))
	want := "\n \nSource: Doc 2024-01-01T00:00:00Z"
	if tx.Body != want {
		t.Fatalf("got %q, want %q", tx.Body, want)
	}
}

func TestRangesSortedAndDisjoint(t *testing.T) {
	tx := FromSelection(sel("- a\n1. b\nplain\n- c\n2. d"))

	all := append(append([]Range{}, tx.BulletRanges...), tx.NumberedRanges...)
	sort.Slice(all, func(i, j int) bool { return all[i].Start < all[j].Start })

	for i := 1; i < len(all); i++ {
		if all[i].Start < all[i-1].End {
			t.Fatalf("ranges overlap: %v and %v", all[i-1], all[i])
		}
	}
	if !sort.SliceIsSorted(tx.BulletRanges, func(i, j int) bool {
		return tx.BulletRanges[i].Start < tx.BulletRanges[j].Start
	}) {
		t.Fatalf("bullet ranges unsorted: %v", tx.BulletRanges)
	}
}

func TestCaption(t *testing.T) {
	tx := Caption(sel("ignored"))
	if !strings.HasPrefix(tx.Body, "\nScreen capture from Doc\n") {
		t.Fatalf("caption body: %q", tx.Body)
	}
	if got := rangeText(tx.Body, tx.CitationRange); got != "Doc" {
		t.Fatalf("citation range covers %q", got)
	}
}

func TestLengthMatchesRunes(t *testing.T) {
	tx := FromSelection(sel("héllo wörld"))
	if tx.Length() != len([]rune(tx.Body)) {
		t.Fatalf("Length()=%d, rune count=%d", tx.Length(), len([]rune(tx.Body)))
	}
	if got := rangeText(tx.Body, tx.CitationRange); got != "Doc" {
		t.Fatalf("citation range covers %q with multibyte quote", got)
	}
}
