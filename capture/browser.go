package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// repaintDelay is the fixed pause after hiding the selection overlay before
// rasterizing, so the capture never contains the overlay itself.
const repaintDelay = 150 * time.Millisecond

// overlayID is the DOM id of the region-selection overlay injected by the
// UI layer. The pager only toggles it; rendering belongs to the UI.
const overlayID = "__clipper_overlay"

// PagerConfig configures the live-page capture surface.
type PagerConfig struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local headless Chrome via launcher.
	RemoteURL string

	// Stealth applies the stealth page setup on new tabs. Default off:
	// the clipper runs against pages the user is already reading, but
	// some sites serve degraded markup to obvious automation.
	Stealth bool

	// NavTimeout bounds page navigation. Default: 30s.
	NavTimeout time.Duration

	Logger *slog.Logger
}

func (c *PagerConfig) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Pager owns the browser connection and the single active page the user is
// clipping from.
type Pager struct {
	cfg PagerConfig

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	page    *rod.Page
}

// NewPager creates a Pager. Call Start before any capture.
func NewPager(cfg PagerConfig) *Pager {
	cfg.defaults()
	return &Pager{cfg: cfg}
}

// Start launches Chrome or connects to a remote instance.
func (p *Pager) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var wsURL string
	if p.cfg.RemoteURL != "" {
		wsURL = p.cfg.RemoteURL
		p.cfg.Logger.Info("capture: connecting to remote browser", "url", wsURL)
	} else {
		l := launcher.New().Headless(true)
		l = l.Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("capture: launch: %w", err)
		}
		wsURL = u
		p.lnch = l
		p.cfg.Logger.Info("capture: launched local chrome")
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("capture: connect: %w", err)
	}
	p.browser = b
	return nil
}

// Stop closes the page and browser.
func (p *Pager) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.page != nil {
		p.page.Close()
		p.page = nil
	}
	if p.browser != nil {
		p.browser.Close()
		p.browser = nil
	}
	if p.lnch != nil {
		p.lnch.Cleanup()
		p.lnch = nil
	}
}

// Open navigates the active page to pageURL, creating the tab on first use.
func (p *Pager) Open(ctx context.Context, pageURL string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.browser == nil {
		return fmt.Errorf("capture: pager not started")
	}

	if p.page == nil {
		var page *rod.Page
		var err error
		if p.cfg.Stealth {
			page, err = stealth.Page(p.browser)
		} else {
			page, err = p.browser.Page(proto.TargetCreateTarget{URL: ""})
		}
		if err != nil {
			return fmt.Errorf("capture: create tab: %w", err)
		}
		p.page = page
	}

	navCtx, cancel := context.WithTimeout(ctx, p.cfg.NavTimeout)
	defer cancel()

	if err := p.page.Context(navCtx).Navigate(pageURL); err != nil {
		return fmt.Errorf("capture: navigate %s: %w", pageURL, err)
	}
	if err := p.page.Context(navCtx).WaitLoad(); err != nil {
		p.cfg.Logger.Warn("capture: wait load timeout", "url", pageURL, "error", err)
	}
	return nil
}

// Screenshot rasterizes the current viewport. The selection overlay is
// hidden first and restored afterwards, with a fixed repaint delay between
// hide and capture so the overlay never appears in the raster.
func (p *Pager) Screenshot(ctx context.Context) ([]byte, error) {
	page, err := p.activePage()
	if err != nil {
		return nil, err
	}

	if err := p.setOverlayHidden(ctx, true); err != nil {
		p.cfg.Logger.Debug("capture: overlay hide skipped", "error", err)
	}
	defer func() {
		if err := p.setOverlayHidden(ctx, false); err != nil {
			p.cfg.Logger.Debug("capture: overlay restore skipped", "error", err)
		}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(repaintDelay):
	}

	raster, err := page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, &CaptureError{Op: "screenshot", Err: err}
	}
	return raster, nil
}

// DevicePixelRatio reads the page's DPR.
func (p *Pager) DevicePixelRatio(ctx context.Context) (float64, error) {
	page, err := p.activePage()
	if err != nil {
		return 0, err
	}
	res, err := page.Context(ctx).Eval(`() => window.devicePixelRatio`)
	if err != nil {
		return 0, fmt.Errorf("capture: read dpr: %w", err)
	}
	return res.Value.Num(), nil
}

// Selection lifts the user's current highlight off the page: plain text,
// the selected fragment's HTML, and the page title/URL for the citation.
func (p *Pager) Selection(ctx context.Context) (SelectionPayload, error) {
	page, err := p.activePage()
	if err != nil {
		return SelectionPayload{}, err
	}

	res, err := page.Context(ctx).Eval(`() => {
		const sel = window.getSelection();
		let html = "";
		if (sel && sel.rangeCount > 0) {
			const div = document.createElement("div");
			div.appendChild(sel.getRangeAt(0).cloneContents());
			html = div.innerHTML;
		}
		return JSON.stringify({
			text: sel ? sel.toString() : "",
			html: html,
			url: location.href,
			title: document.title,
		});
	}`)
	if err != nil {
		return SelectionPayload{}, fmt.Errorf("capture: read selection: %w", err)
	}

	var raw struct {
		Text  string `json:"text"`
		HTML  string `json:"html"`
		URL   string `json:"url"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(res.Value.Str()), &raw); err != nil {
		return SelectionPayload{}, fmt.Errorf("capture: decode selection: %w", err)
	}

	return SelectionPayload{
		Text:      raw.Text,
		HTML:      raw.HTML,
		PageURL:   raw.URL,
		PageTitle: raw.Title,
		Timestamp: time.Now().UTC(),
	}, nil
}

func (p *Pager) activePage() (*rod.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.page == nil {
		return nil, fmt.Errorf("capture: no open page")
	}
	return p.page, nil
}

func (p *Pager) setOverlayHidden(ctx context.Context, hidden bool) error {
	page, err := p.activePage()
	if err != nil {
		return err
	}
	display := ""
	if hidden {
		display = "none"
	}
	_, err = page.Context(ctx).Eval(`(id, display) => {
		const el = document.getElementById(id);
		if (el) el.style.display = display;
	}`, overlayID, display)
	return err
}
