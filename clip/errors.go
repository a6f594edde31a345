package clip

import (
	"errors"
	"fmt"

	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/capture"
	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/session"
)

// ErrNoDocumentSelected means the attempt was started without a target
// document. A precondition failure, surfaced to the user, never retried.
var ErrNoDocumentSelected = errors.New("clip: no document selected")

// PartialInsertionError reports that a styling call failed after the text
// or image itself was already inserted. The inserted content is left in
// place — the remote service has no multi-call transaction boundary to roll
// it back through — so the document may show the quote without its list or
// link formatting.
type PartialInsertionError struct {
	// Stage names the follow-up call that failed: "list" or "link".
	Stage string
	Err   error
}

func (e *PartialInsertionError) Error() string {
	return fmt.Sprintf("clip: inserted but %s styling failed: %v", e.Stage, e.Err)
}

func (e *PartialInsertionError) Unwrap() error { return e.Err }

// FailureKind buckets terminal errors for the UI layer.
type FailureKind string

const (
	FailNone             FailureKind = ""
	FailNoDocument       FailureKind = "no_document_selected"
	FailSignInRequired   FailureKind = "sign_in_required"
	FailSessionExpired   FailureKind = "session_expired"
	FailCapture          FailureKind = "capture"
	FailPartialInsertion FailureKind = "partial_insertion"
	FailRemote           FailureKind = "remote"
)

// Classify maps an error from the pipeline onto the failure taxonomy.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailNone
	case errors.Is(err, ErrNoDocumentSelected):
		return FailNoDocument
	case errors.Is(err, session.ErrSignInRequired):
		return FailSignInRequired
	default:
	}

	var partial *PartialInsertionError
	if errors.As(err, &partial) {
		return FailPartialInsertion
	}
	if errors.Is(err, session.ErrSessionExpired) {
		return FailSessionExpired
	}
	var ce *capture.CaptureError
	if errors.As(err, &ce) {
		return FailCapture
	}
	return FailRemote
}
