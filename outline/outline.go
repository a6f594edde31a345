// Package outline derives the named insertion points of a remote document:
// its beginning, the end of each titled section, and its end. The indices it
// returns are document-absolute and usable directly as insertion anchors.
package outline

import (
	"context"
	"strings"

	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/docsvc"
	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/session"
)

// maxLabelRunes caps section labels for display.
const maxLabelRunes = 48

// untitledLabel stands in for headings with no visible text.
const untitledLabel = "(untitled section)"

// Fixed entry labels.
const (
	LabelBeginning = "At the beginning"
	LabelEnd       = "At the end"
)

// Entry is one named insertion point.
type Entry struct {
	Label string `json:"label"`
	Index int64  `json:"index"`
}

// Outline is the ordered set of insertion points. Indices are
// non-decreasing in outline order. An outline is a snapshot: it must be
// recomputed after any successful insertion into the same document.
type Outline []Entry

// Build walks the document's structural elements and derives the insertion
// points. A section's insertion index is one character before the end of
// its last body paragraph, so inserted text joins that paragraph's run and
// keeps its style instead of landing at the head of the next heading.
func Build(elems []docsvc.Element) Outline {
	out := Outline{{Label: LabelBeginning, Index: 1}}

	var (
		openLabel   string
		haveOpen    bool
		lastBodyEnd int64
		maxEnd      int64 = 1
	)

	closeOpen := func() {
		if !haveOpen {
			return
		}
		idx := lastBodyEnd - 1
		if idx < 1 {
			idx = 1
		}
		out = append(out, Entry{Label: openLabel, Index: idx})
		haveOpen = false
	}

	for _, el := range elems {
		if el.EndIndex > maxEnd {
			maxEnd = el.EndIndex
		}
		if el.IsHeading() {
			closeOpen()
			openLabel = sectionLabel(el.Text)
			haveOpen = true
			continue
		}
		lastBodyEnd = el.EndIndex
	}
	closeOpen()

	out = append(out, Entry{Label: LabelEnd, Index: maxEnd})
	return out
}

// Fetch retrieves the document structure under the credentialed executor
// and builds a fresh outline.
func Fetch(ctx context.Context, exec *session.Executor, src StructureSource, docID string) (Outline, error) {
	var elems []docsvc.Element
	err := exec.Do(ctx, func(ctx context.Context, cred session.Credential) error {
		var opErr error
		elems, opErr = src.Structure(ctx, cred, docID)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return Build(elems), nil
}

// StructureSource is the slice of the document service the indexer needs.
type StructureSource interface {
	Structure(ctx context.Context, cred session.Credential, docID string) ([]docsvc.Element, error)
}

// sectionLabel collapses newlines, trims, truncates, and substitutes a
// placeholder for empty heading text.
func sectionLabel(text string) string {
	label := strings.Join(strings.Fields(text), " ")
	if label == "" {
		return untitledLabel
	}
	runes := []rune(label)
	if len(runes) > maxLabelRunes {
		label = string(runes[:maxLabelRunes])
	}
	return label
}
