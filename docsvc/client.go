package docsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/safeio"
	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/session"
)

// pxToPt converts CSS pixels to the document service's point unit (96 px
// per inch, 72 pt per inch).
func pxToPt(px int) float64 { return float64(px) * 72.0 / 96.0 }

// Config configures the document service client.
type Config struct {
	// DocsBaseURL is the documents API root, e.g.
	// "https://docs.googleapis.com/v1". Required.
	DocsBaseURL string

	// DriveBaseURL is the file-listing API root, e.g.
	// "https://www.googleapis.com/drive/v3". Required for ListDocuments.
	DriveBaseURL string

	// HTTPClient overrides the default client (60s timeout).
	HTTPClient *http.Client

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client talks to the document service.
type Client struct {
	cfg Config
}

// NewClient creates a document service client.
func NewClient(cfg Config) *Client {
	cfg.defaults()
	return &Client{cfg: cfg}
}

// --- edit operations ---

// InsertText inserts text at a document-absolute index, or appends to the
// end of the body when index <= 0. Appending does not report where the text
// landed; callers needing the offset re-fetch EndIndex afterwards.
func (c *Client) InsertText(ctx context.Context, cred session.Credential, docID string, index int64, text string) error {
	req := map[string]any{"insertText": withLocation(index, map[string]any{"text": text})}
	return c.batchUpdate(ctx, cred, docID, req)
}

// InsertImage inserts an inline image fetched by the service from imageURL,
// sized from the asset's pixel dimensions.
func (c *Client) InsertImage(ctx context.Context, cred session.Credential, docID string, index int64, imageURL string, widthPx, heightPx int) error {
	if err := safeio.ValidateFetchURL(imageURL); err != nil {
		return err
	}
	body := map[string]any{"uri": imageURL}
	if widthPx > 0 && heightPx > 0 {
		body["objectSize"] = map[string]any{
			"width":  map[string]any{"magnitude": pxToPt(widthPx), "unit": "PT"},
			"height": map[string]any{"magnitude": pxToPt(heightPx), "unit": "PT"},
		}
	}
	req := map[string]any{"insertInlineImage": withLocation(index, body)}
	return c.batchUpdate(ctx, cred, docID, req)
}

// ApplyListStyle turns the paragraphs covered by rng into a bullet or
// numbered list.
func (c *Client) ApplyListStyle(ctx context.Context, cred session.Credential, docID string, rng Range, kind ListKind) error {
	req := map[string]any{"createParagraphBullets": map[string]any{
		"range":        wireRange(rng),
		"bulletPreset": string(kind),
	}}
	return c.batchUpdate(ctx, cred, docID, req)
}

// ApplyLinkStyle hyperlinks the text covered by rng to linkURL.
func (c *Client) ApplyLinkStyle(ctx context.Context, cred session.Credential, docID string, rng Range, linkURL string) error {
	req := map[string]any{"updateTextStyle": map[string]any{
		"range":     wireRange(rng),
		"textStyle": map[string]any{"link": map[string]any{"url": linkURL}},
		"fields":    "link",
	}}
	return c.batchUpdate(ctx, cred, docID, req)
}

func withLocation(index int64, body map[string]any) map[string]any {
	if index > 0 {
		body["location"] = map[string]any{"index": index}
	} else {
		body["endOfSegmentLocation"] = map[string]any{}
	}
	return body
}

func wireRange(r Range) map[string]any {
	return map[string]any{"startIndex": r.Start, "endIndex": r.End}
}

func (c *Client) batchUpdate(ctx context.Context, cred session.Credential, docID string, requests ...map[string]any) error {
	path := fmt.Sprintf("%s/documents/%s:batchUpdate", c.cfg.DocsBaseURL, url.PathEscape(docID))
	payload := map[string]any{"requests": requests}
	return c.do(ctx, cred, http.MethodPost, path, payload, nil)
}

// --- read operations ---

// wireDocument mirrors the structure-relevant subset of the service's
// document resource.
type wireDocument struct {
	Title string `json:"title"`
	Body  struct {
		Content []struct {
			StartIndex int64 `json:"startIndex"`
			EndIndex   int64 `json:"endIndex"`
			Paragraph  *struct {
				ParagraphStyle struct {
					NamedStyleType string `json:"namedStyleType"`
				} `json:"paragraphStyle"`
				Elements []struct {
					TextRun *struct {
						Content string `json:"content"`
					} `json:"textRun"`
				} `json:"elements"`
			} `json:"paragraph"`
		} `json:"content"`
	} `json:"body"`
}

// Structure fetches the document's ordered structural elements.
func (c *Client) Structure(ctx context.Context, cred session.Credential, docID string) ([]Element, error) {
	doc, err := c.fetchDocument(ctx, cred, docID)
	if err != nil {
		return nil, err
	}

	var elems []Element
	for _, item := range doc.Body.Content {
		if item.Paragraph == nil {
			continue
		}
		var text strings.Builder
		for _, pe := range item.Paragraph.Elements {
			if pe.TextRun != nil {
				text.WriteString(pe.TextRun.Content)
			}
		}
		style := item.Paragraph.ParagraphStyle.NamedStyleType
		if style == "" {
			style = StyleNormalText
		}
		elems = append(elems, Element{
			Style:      style,
			Text:       text.String(),
			StartIndex: item.StartIndex,
			EndIndex:   item.EndIndex,
		})
	}
	return elems, nil
}

// EndIndex fetches the document's current end-of-body index.
func (c *Client) EndIndex(ctx context.Context, cred session.Credential, docID string) (int64, error) {
	doc, err := c.fetchDocument(ctx, cred, docID)
	if err != nil {
		return 0, err
	}
	content := doc.Body.Content
	if len(content) == 0 {
		return 1, nil
	}
	return content[len(content)-1].EndIndex, nil
}

func (c *Client) fetchDocument(ctx context.Context, cred session.Credential, docID string) (*wireDocument, error) {
	path := fmt.Sprintf("%s/documents/%s", c.cfg.DocsBaseURL, url.PathEscape(docID))
	var doc wireDocument
	if err := c.do(ctx, cred, http.MethodGet, path, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments lists the documents the credential can edit, newest first.
func (c *Client) ListDocuments(ctx context.Context, cred session.Credential) ([]DocInfo, error) {
	q := url.Values{}
	q.Set("q", "mimeType='application/vnd.google-apps.document' and trashed=false")
	q.Set("orderBy", "modifiedTime desc")
	q.Set("fields", "files(id,name)")
	path := c.cfg.DriveBaseURL + "/files?" + q.Encode()

	var out struct {
		Files []DocInfo `json:"files"`
	}
	if err := c.do(ctx, cred, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// --- transport ---

func (c *Client) do(ctx context.Context, cred session.Credential, method, rawURL string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("docsvc: marshal: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("docsvc: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+string(cred))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("docsvc: %s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	c.cfg.Logger.Debug("docsvc: call",
		"method", method,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("docsvc: status %d: %w", resp.StatusCode, session.ErrAuthExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RemoteError{Status: resp.StatusCode, Message: serviceMessage(resp)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("docsvc: decode response: %w", err)
		}
	}
	return nil
}

// serviceMessage extracts the service's error message from a failure body.
func serviceMessage(resp *http.Response) string {
	data, err := safeio.LimitedReadAll(resp.Body, safeio.MaxResponseBody)
	if err != nil || len(data) == 0 {
		return ""
	}
	var wire struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &wire); err == nil && wire.Error.Message != "" {
		return wire.Error.Message
	}
	return strings.TrimSpace(string(data))
}
