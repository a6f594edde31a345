package outline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/docsvc"
	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/session"
)

func heading(text string, start, end int64) docsvc.Element {
	return docsvc.Element{Style: docsvc.StyleHeading1, Text: text, StartIndex: start, EndIndex: end}
}

func body(start, end int64) docsvc.Element {
	return docsvc.Element{Style: docsvc.StyleNormalText, Text: "body\n", StartIndex: start, EndIndex: end}
}

func TestBuildTwoSections(t *testing.T) {
	// Intro's body ends at 50, Methods' at 120.
	elems := []docsvc.Element{
		heading("Intro\n", 1, 8),
		body(8, 50),
		heading("Methods\n", 50, 59),
		body(59, 120),
	}

	got := Build(elems)
	want := Outline{
		{Label: LabelBeginning, Index: 1},
		{Label: "Intro", Index: 49},
		{Label: "Methods", Index: 119},
		{Label: LabelEnd, Index: 120},
	}

	if len(got) != len(want) {
		t.Fatalf("got %d entries %+v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBuildFirstIndexAlwaysOne(t *testing.T) {
	cases := [][]docsvc.Element{
		nil,
		{body(1, 30)},
		{heading("Only heading\n", 1, 10)},
	}
	for i, elems := range cases {
		out := Build(elems)
		if out[0].Index != 1 || out[0].Label != LabelBeginning {
			t.Fatalf("case %d: first entry %+v", i, out[0])
		}
	}
}

func TestBuildIndicesNonDecreasing(t *testing.T) {
	elems := []docsvc.Element{
		heading("A\n", 1, 4),
		body(4, 20),
		heading("B\n", 20, 24),
		body(24, 90),
		heading("C\n", 90, 94),
		body(94, 140),
	}
	out := Build(elems)
	for i := 1; i < len(out); i++ {
		if out[i].Index < out[i-1].Index {
			t.Fatalf("indices decrease at %d: %+v", i, out)
		}
	}
}

func TestBuildHeadingWithNoBodyClampsToOne(t *testing.T) {
	// A heading opening the document with no body before it must not
	// produce an index below 1.
	out := Build([]docsvc.Element{heading("Lonely\n", 1, 8)})
	if out[1].Label != "Lonely" || out[1].Index != 1 {
		t.Fatalf("got %+v", out[1])
	}
}

func TestBuildEmptyDocument(t *testing.T) {
	out := Build(nil)
	if len(out) != 2 {
		t.Fatalf("got %+v", out)
	}
	if out[1].Label != LabelEnd || out[1].Index != 1 {
		t.Fatalf("end entry %+v", out[1])
	}
}

func TestSectionLabels(t *testing.T) {
	elems := []docsvc.Element{
		heading("  Multi\nline   title \n", 1, 20),
		body(20, 40),
		heading("\n \n", 40, 42),
		body(42, 60),
		heading(strings.Repeat("x", 100), 60, 162),
		body(162, 170),
	}
	out := Build(elems)

	if out[1].Label != "Multi line title" {
		t.Fatalf("collapsed label %q", out[1].Label)
	}
	if out[2].Label != "(untitled section)" {
		t.Fatalf("placeholder label %q", out[2].Label)
	}
	if got := len([]rune(out[3].Label)); got != 48 {
		t.Fatalf("truncated label has %d runes", got)
	}
}

// fakeSource serves canned elements and counts structure fetches.
type fakeSource struct {
	elems   []docsvc.Element
	err     error
	fetches int
}

func (f *fakeSource) Structure(ctx context.Context, cred session.Credential, docID string) ([]docsvc.Element, error) {
	f.fetches++
	return f.elems, f.err
}

type staticProvider struct{}

func (staticProvider) Credential(ctx context.Context) (session.Credential, error) { return "tok", nil }
func (staticProvider) Invalidate(ctx context.Context) error                       { return nil }

func TestFetch(t *testing.T) {
	src := &fakeSource{elems: []docsvc.Element{heading("Intro\n", 1, 8), body(8, 50)}}
	exec := session.NewExecutor(staticProvider{}, nil, nil)

	out, err := Fetch(context.Background(), exec, src, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if src.fetches != 1 {
		t.Fatalf("structure fetched %d times", src.fetches)
	}
	if len(out) != 3 || out[1].Label != "Intro" {
		t.Fatalf("outline %+v", out)
	}
}

func TestFetchPropagatesError(t *testing.T) {
	boom := fmt.Errorf("structure: %w", errors.New("remote down"))
	src := &fakeSource{err: boom}
	exec := session.NewExecutor(staticProvider{}, nil, nil)

	if _, err := Fetch(context.Background(), exec, src, "doc1"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
