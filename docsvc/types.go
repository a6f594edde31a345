// Package docsvc is the HTTP client for the structured document service:
// batch edits (text, images, list formatting, link styling), structural
// outline fetches, and document listing. Authentication failures surface as
// session.ErrAuthExpired so the executor's expiry policy can react.
package docsvc

import "fmt"

// Named paragraph styles of the document service. The heading set is
// closed; anything else is treated as body text.
const (
	StyleNormalText = "NORMAL_TEXT"
	StyleTitle      = "TITLE"
	StyleHeading1   = "HEADING_1"
	StyleHeading2   = "HEADING_2"
	StyleHeading3   = "HEADING_3"
	StyleHeading4   = "HEADING_4"
	StyleHeading5   = "HEADING_5"
	StyleHeading6   = "HEADING_6"
)

var headingStyles = map[string]bool{
	StyleTitle:    true,
	StyleHeading1: true,
	StyleHeading2: true,
	StyleHeading3: true,
	StyleHeading4: true,
	StyleHeading5: true,
	StyleHeading6: true,
}

// Element is one structural element of a document: a paragraph with its
// style tag and document-absolute index span.
type Element struct {
	Style      string `json:"style"`
	Text       string `json:"text"`
	StartIndex int64  `json:"start_index"`
	EndIndex   int64  `json:"end_index"`
}

// IsHeading reports whether the element carries one of the closed set of
// heading styles.
func (e Element) IsHeading() bool { return headingStyles[e.Style] }

// Range is a half-open document-absolute index span.
type Range struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// ListKind selects the paragraph bullet preset.
type ListKind string

const (
	ListBullet   ListKind = "BULLET_DISC_CIRCLE_SQUARE"
	ListNumbered ListKind = "NUMBERED_DECIMAL_ALPHA_ROMAN"
)

// DocInfo identifies a listable document.
type DocInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RemoteError is any non-auth failure response from the service, carrying
// the service's own message when one was present.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("docsvc: remote error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("docsvc: remote error %d", e.Status)
}
