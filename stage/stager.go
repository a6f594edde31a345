package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/capture"
	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/session"
	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/settings"
)

// StagedAsset locates an uploaded asset: its store id and the URL the
// document service can fetch it from.
type StagedAsset struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Stager uploads captured assets, keeping them in a named folder whose id
// is memoized in the settings store so repeated insertions never search or
// create it twice.
type Stager struct {
	drive    *DriveClient
	settings *settings.Store
	folder   string
	log      *slog.Logger
}

// NewStager builds a Stager. folderName may be empty, in which case assets
// land in the store's root and no folder calls are ever made.
func NewStager(drive *DriveClient, store *settings.Store, folderName string, log *slog.Logger) *Stager {
	if log == nil {
		log = slog.Default()
	}
	return &Stager{drive: drive, settings: store, folder: folderName, log: log}
}

// Stage uploads the asset and returns its fetchable location. Steps, each a
// distinct remote call: ensure folder (memoized), upload, relax access
// policy, resolve the direct URL.
func (s *Stager) Stage(ctx context.Context, cred session.Credential, asset capture.Asset, filename string) (StagedAsset, error) {
	if filename == "" {
		filename = "clip-" + uuid.NewString() + ".png"
	}

	folderID, err := s.ensureFolder(ctx, cred)
	if err != nil {
		return StagedAsset{}, err
	}

	id, link, err := s.drive.Upload(ctx, cred, filename, "image/png", asset.PNG, folderID)
	if err != nil {
		return StagedAsset{}, fmt.Errorf("upload %s: %w", filename, err)
	}

	if err := s.drive.AllowLinkFetch(ctx, cred, id); err != nil {
		return StagedAsset{}, fmt.Errorf("share %s: %w", id, err)
	}

	if link == "" {
		link, err = s.drive.DirectURL(ctx, cred, id)
		if err != nil {
			return StagedAsset{}, fmt.Errorf("resolve url %s: %w", id, err)
		}
	}

	s.log.Info("stage: asset staged", "id", id, "name", filename, "bytes", len(asset.PNG))
	return StagedAsset{ID: id, URL: link}, nil
}

// ensureFolder returns the target folder id, resolving and persisting it on
// first use only.
func (s *Stager) ensureFolder(ctx context.Context, cred session.Credential) (string, error) {
	if s.folder == "" {
		return "", nil
	}

	id, err := s.settings.Get(ctx, settings.KeyAssetFolderID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, settings.ErrNotFound) {
		return "", err
	}

	id, err = s.drive.FindFolder(ctx, cred, s.folder)
	if err != nil {
		return "", fmt.Errorf("find folder %q: %w", s.folder, err)
	}
	if id == "" {
		id, err = s.drive.CreateFolder(ctx, cred, s.folder)
		if err != nil {
			return "", fmt.Errorf("create folder %q: %w", s.folder, err)
		}
		s.log.Info("stage: created asset folder", "name", s.folder, "id", id)
	}

	if err := s.settings.Put(ctx, settings.KeyAssetFolderID, id); err != nil {
		return "", err
	}
	return id, nil
}
