package clip

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/capture"
	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/docsvc"
	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/session"
	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/settings"
	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/stage"
)

// Service wires the whole pipeline from a Config: settings store, sealed
// token cache, credentialed executor, remote clients, stager, orchestrator,
// and the live-page capture surface.
type Service struct {
	Orchestrator *Orchestrator
	Pager        *capture.Pager
	Settings     *settings.Store

	log *slog.Logger
}

// NewService builds the pipeline. notify receives the single user-facing
// message per terminal failure; it may be nil.
func NewService(cfg *Config, log *slog.Logger, notify session.NotifyFunc) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}

	store, err := settings.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	key, err := cfg.cacheKey()
	if err != nil {
		store.Close()
		return nil, err
	}
	cache, err := session.NewTokenCache(store, key)
	if err != nil {
		store.Close()
		return nil, err
	}

	provider := session.NewOAuthProvider(session.OAuthConfig{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
	}, cache, log)
	exec := session.NewExecutor(provider, log, notify)

	docs := docsvc.NewClient(docsvc.Config{
		DocsBaseURL:  cfg.Docs.BaseURL,
		DriveBaseURL: cfg.Docs.DriveBaseURL,
		Logger:       log,
	})

	drive := stage.NewDriveClient(stage.DriveConfig{
		BaseURL:       cfg.Storage.BaseURL,
		UploadBaseURL: cfg.Storage.UploadBaseURL,
		Logger:        log,
	})
	stager := stage.NewStager(drive, store, cfg.Storage.FolderName, log)

	pager := capture.NewPager(capture.PagerConfig{
		RemoteURL: cfg.Browser.RemoteURL,
		Stealth:   cfg.Browser.Stealth,
		Logger:    log,
	})

	return &Service{
		Orchestrator: NewOrchestrator(docs, stager, exec, log, notify),
		Pager:        pager,
		Settings:     store,
		log:          log,
	}, nil
}

// Start brings up the capture browser.
func (s *Service) Start(ctx context.Context) error {
	if err := s.Pager.Start(ctx); err != nil {
		return fmt.Errorf("clip: start pager: %w", err)
	}
	return nil
}

// Close releases the browser and the settings store.
func (s *Service) Close() error {
	s.Pager.Stop()
	return s.Settings.Close()
}

// ClipRegion captures the given screen region from the open page, crops it,
// and inserts it into the anchored document. Regions below the minimum size
// are a non-event and return a zero Result with no error.
func (s *Service) ClipRegion(ctx context.Context, anchor Anchor, region capture.Region) (Result, error) {
	if region.TooSmall() {
		s.log.Debug("clip: region below threshold, ignored",
			"width", region.Width, "height", region.Height)
		return Result{State: StateIdle}, nil
	}

	if region.DPR <= 0 {
		dpr, err := s.Pager.DevicePixelRatio(ctx)
		if err != nil {
			return s.Orchestrator.fail(Result{State: StateIdle, DocumentID: anchor.DocumentID}, err)
		}
		region.DPR = dpr
	}

	sel, err := s.Pager.Selection(ctx)
	if err != nil {
		return s.Orchestrator.fail(Result{State: StateIdle, DocumentID: anchor.DocumentID}, err)
	}

	raster, err := s.Pager.Screenshot(ctx)
	if err != nil {
		return s.Orchestrator.fail(Result{State: StateIdle, DocumentID: anchor.DocumentID}, err)
	}

	asset, err := capture.Crop(raster, region)
	if err != nil {
		return s.Orchestrator.fail(Result{State: StateIdle, DocumentID: anchor.DocumentID}, err)
	}

	return s.Orchestrator.InsertAsset(ctx, anchor, asset, sel)
}

// ClipSelection lifts the current highlight off the open page and inserts
// it into the anchored document.
func (s *Service) ClipSelection(ctx context.Context, anchor Anchor) (Result, error) {
	sel, err := s.Pager.Selection(ctx)
	if err != nil {
		return s.Orchestrator.fail(Result{State: StateIdle, DocumentID: anchor.DocumentID}, err)
	}
	return s.Orchestrator.InsertSelection(ctx, anchor, sel)
}
