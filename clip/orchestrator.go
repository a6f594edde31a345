// Package clip sequences one capture-to-insertion attempt: resolve the
// target document and index, stage any asset, submit the formatted
// transaction, then apply the dependent list and link styling computed from
// where the insertion landed.
package clip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/capture"
	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/docsvc"
	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/format"
	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/outline"
	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/session"
	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/stage"
)

// State is where an insertion attempt currently stands. Attempts move
// strictly forward; Failed is terminal and reachable from anywhere.
type State string

const (
	StateIdle          State = "idle"
	StateAssetPending  State = "asset_pending"
	StateIndexResolved State = "index_resolved"
	StateSubmitted     State = "submitted"
	StateStyled        State = "styled"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// Anchor targets an insertion: the document plus a document-absolute index.
// A zero Index means append at the end of the document.
type Anchor struct {
	DocumentID string `json:"document_id"`
	Index      int64  `json:"index,omitempty"`
}

// Result describes a finished attempt.
type Result struct {
	AttemptID  string      `json:"attempt_id"`
	State      State       `json:"state"`
	Failure    FailureKind `json:"failure,omitempty"`
	DocumentID string      `json:"document_id"`
	// StartIndex is the document-absolute offset the transaction body
	// landed at (recovered by re-fetching the end index when the anchor
	// was an implicit append).
	StartIndex int64 `json:"start_index,omitempty"`
	// AssetURL is set for image insertions.
	AssetURL string `json:"asset_url,omitempty"`
}

// DocumentService is the slice of the document service the orchestrator
// drives. *docsvc.Client implements it.
type DocumentService interface {
	InsertText(ctx context.Context, cred session.Credential, docID string, index int64, text string) error
	InsertImage(ctx context.Context, cred session.Credential, docID string, index int64, imageURL string, widthPx, heightPx int) error
	ApplyListStyle(ctx context.Context, cred session.Credential, docID string, rng docsvc.Range, kind docsvc.ListKind) error
	ApplyLinkStyle(ctx context.Context, cred session.Credential, docID string, rng docsvc.Range, linkURL string) error
	Structure(ctx context.Context, cred session.Credential, docID string) ([]docsvc.Element, error)
	EndIndex(ctx context.Context, cred session.Credential, docID string) (int64, error)
	ListDocuments(ctx context.Context, cred session.Credential) ([]docsvc.DocInfo, error)
}

// AssetStager stages a captured asset. *stage.Stager implements it.
type AssetStager interface {
	Stage(ctx context.Context, cred session.Credential, asset capture.Asset, filename string) (stage.StagedAsset, error)
}

// Orchestrator runs insertion attempts. It holds no cross-attempt mutable
// state; the only thing shared between attempts is the stager's memoized
// folder id, which lives in the settings store.
type Orchestrator struct {
	docs   DocumentService
	stager AssetStager
	exec   *session.Executor
	log    *slog.Logger
	notify session.NotifyFunc
}

// NewOrchestrator wires the pipeline. notify may be nil.
func NewOrchestrator(docs DocumentService, stager AssetStager, exec *session.Executor, log *slog.Logger, notify session.NotifyFunc) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{docs: docs, stager: stager, exec: exec, log: log, notify: notify}
}

// InsertSelection inserts a formatted text highlight at the anchor.
func (o *Orchestrator) InsertSelection(ctx context.Context, anchor Anchor, sel capture.SelectionPayload) (Result, error) {
	res := Result{AttemptID: uuid.NewString(), State: StateIdle, DocumentID: anchor.DocumentID}
	if anchor.DocumentID == "" {
		return o.fail(res, ErrNoDocumentSelected)
	}

	tx := format.FromHTML(sel)

	err := o.exec.Do(ctx, func(ctx context.Context, cred session.Credential) error {
		return o.submitAndStyle(ctx, cred, &res, anchor, tx, sel.PageURL)
	})
	if err != nil {
		return o.fail(res, err)
	}

	res.State = StateDone
	o.log.Info("clip: selection inserted",
		"attempt", res.AttemptID,
		"document", res.DocumentID,
		"start_index", res.StartIndex,
		"bullets", len(tx.BulletRanges),
		"numbered", len(tx.NumberedRanges))
	return res, nil
}

// InsertAsset stages an already-cropped screen capture and inserts it with
// its caption at the anchor. Cropping belongs to the caller's UI surface;
// this component receives the finished asset.
func (o *Orchestrator) InsertAsset(ctx context.Context, anchor Anchor, asset capture.Asset, sel capture.SelectionPayload) (Result, error) {
	res := Result{AttemptID: uuid.NewString(), State: StateIdle, DocumentID: anchor.DocumentID}
	if anchor.DocumentID == "" {
		return o.fail(res, ErrNoDocumentSelected)
	}

	caption := format.Caption(sel)

	err := o.exec.Do(ctx, func(ctx context.Context, cred session.Credential) error {
		res.State = StateAssetPending
		staged, err := o.stager.Stage(ctx, cred, asset, "")
		if err != nil {
			return fmt.Errorf("stage asset: %w", err)
		}
		res.AssetURL = staged.URL

		if err := o.docs.InsertImage(ctx, cred, anchor.DocumentID, anchor.Index, staged.URL, asset.Width, asset.Height); err != nil {
			return fmt.Errorf("insert image: %w", err)
		}

		// The caption goes after the image: one index unit past an
		// explicit anchor, or a plain append right behind an appended
		// image.
		captionAnchor := anchor
		if captionAnchor.Index > 0 {
			captionAnchor.Index++
		}
		return o.submitAndStyle(ctx, cred, &res, captionAnchor, caption, sel.PageURL)
	})
	if err != nil {
		return o.fail(res, err)
	}

	res.State = StateDone
	o.log.Info("clip: capture inserted",
		"attempt", res.AttemptID,
		"document", res.DocumentID,
		"asset_url", res.AssetURL)
	return res, nil
}

// Outline returns a fresh set of named insertion points for the document.
func (o *Orchestrator) Outline(ctx context.Context, docID string) (outline.Outline, error) {
	if docID == "" {
		return nil, ErrNoDocumentSelected
	}
	return outline.Fetch(ctx, o.exec, o.docs, docID)
}

// Documents lists the documents available as insertion targets.
func (o *Orchestrator) Documents(ctx context.Context) ([]docsvc.DocInfo, error) {
	var docs []docsvc.DocInfo
	err := o.exec.Do(ctx, func(ctx context.Context, cred session.Credential) error {
		var opErr error
		docs, opErr = o.docs.ListDocuments(ctx, cred)
		return opErr
	})
	return docs, err
}

// submitAndStyle runs the three-call edit sequence: insert the body,
// resolve where it landed, then the dependent list and link styling. A
// styling failure after a successful insert is reported as partial — the
// text stays, unstyled, because the service offers no way to undo it as a
// unit.
func (o *Orchestrator) submitAndStyle(ctx context.Context, cred session.Credential, res *Result, anchor Anchor, tx format.Transaction, linkURL string) error {
	res.State = StateIndexResolved

	if err := o.docs.InsertText(ctx, cred, anchor.DocumentID, anchor.Index, tx.Body); err != nil {
		return fmt.Errorf("insert text: %w", err)
	}

	start := anchor.Index
	if start <= 0 {
		// Append does not report where it landed; recover the offset
		// from the new end index. Racy if another writer edits the
		// document concurrently — accepted, the service offers no
		// edit-version check.
		end, err := o.docs.EndIndex(ctx, cred, anchor.DocumentID)
		if err != nil {
			return &PartialInsertionError{Stage: "list", Err: fmt.Errorf("recover start index: %w", err)}
		}
		start = end - int64(tx.Length())
		if start < 1 {
			start = 1
		}
	}
	res.StartIndex = start
	res.State = StateSubmitted

	for _, r := range tx.BulletRanges {
		rng := docsvc.Range{Start: start + int64(r.Start), End: start + int64(r.End)}
		if err := o.docs.ApplyListStyle(ctx, cred, anchor.DocumentID, rng, docsvc.ListBullet); err != nil {
			return &PartialInsertionError{Stage: "list", Err: err}
		}
	}
	for _, r := range tx.NumberedRanges {
		rng := docsvc.Range{Start: start + int64(r.Start), End: start + int64(r.End)}
		if err := o.docs.ApplyListStyle(ctx, cred, anchor.DocumentID, rng, docsvc.ListNumbered); err != nil {
			return &PartialInsertionError{Stage: "list", Err: err}
		}
	}
	res.State = StateStyled

	if linkURL != "" && tx.CitationRange.Len() > 0 {
		rng := docsvc.Range{Start: start + int64(tx.CitationRange.Start), End: start + int64(tx.CitationRange.End)}
		if err := o.docs.ApplyLinkStyle(ctx, cred, anchor.DocumentID, rng, linkURL); err != nil {
			return &PartialInsertionError{Stage: "link", Err: err}
		}
	}

	return nil
}

// fail finalizes a failed attempt with exactly one user notification. The
// executor already notified for session expiry, so that kind is not
// notified again here.
func (o *Orchestrator) fail(res Result, err error) (Result, error) {
	res.State = StateFailed
	res.Failure = Classify(err)

	o.log.Error("clip: attempt failed",
		"attempt", res.AttemptID,
		"document", res.DocumentID,
		"failure", string(res.Failure),
		"error", err)

	if o.notify != nil && !errors.Is(err, session.ErrSessionExpired) {
		o.notify(userMessage(res.Failure))
	}
	return res, err
}

func userMessage(kind FailureKind) string {
	switch kind {
	case FailNoDocument:
		return "Select a document before clipping."
	case FailSignInRequired:
		return "Sign in to start clipping."
	case FailCapture:
		return "The capture could not be read. Please try again."
	case FailPartialInsertion:
		return "The clip was inserted, but some formatting could not be applied."
	default:
		return "The clip could not be inserted. Please try again."
	}
}
