// Package stage uploads captured assets to the object store and makes them
// fetchable by the document service: ensure folder, upload, relax the
// access policy, resolve a stable direct-fetch URL.
package stage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/safeio"
	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/session"
)

// RemoteError is a non-auth failure from the object store.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("stage: remote error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("stage: remote error %d", e.Status)
}

// DriveConfig configures the object store client.
type DriveConfig struct {
	// BaseURL is the metadata API root, e.g.
	// "https://www.googleapis.com/drive/v3". Required.
	BaseURL string

	// UploadBaseURL is the media upload root, e.g.
	// "https://www.googleapis.com/upload/drive/v3". Required.
	UploadBaseURL string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

func (c *DriveConfig) defaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// DriveClient talks to the object store.
type DriveClient struct {
	cfg DriveConfig
}

// NewDriveClient creates an object store client.
func NewDriveClient(cfg DriveConfig) *DriveClient {
	cfg.defaults()
	return &DriveClient{cfg: cfg}
}

const folderMIME = "application/vnd.google-apps.folder"

// FindFolder returns the id of an existing folder with the given name, or
// "" when none exists.
func (c *DriveClient) FindFolder(ctx context.Context, cred session.Credential, name string) (string, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false",
		strings.ReplaceAll(name, "'", `\'`), folderMIME))
	q.Set("fields", "files(id)")

	var out struct {
		Files []struct {
			ID string `json:"id"`
		} `json:"files"`
	}
	if err := c.doJSON(ctx, cred, http.MethodGet, c.cfg.BaseURL+"/files?"+q.Encode(), nil, &out); err != nil {
		return "", err
	}
	if len(out.Files) == 0 {
		return "", nil
	}
	return out.Files[0].ID, nil
}

// CreateFolder creates a folder and returns its id.
func (c *DriveClient) CreateFolder(ctx context.Context, cred session.Credential, name string) (string, error) {
	payload := map[string]any{"name": name, "mimeType": folderMIME}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, cred, http.MethodPost, c.cfg.BaseURL+"/files", payload, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Upload uploads data with its metadata in a single multipart call and
// returns the new file's id plus the direct-fetch link when the store
// reported one.
func (c *DriveClient) Upload(ctx context.Context, cred session.Credential, name, mimeType string, data []byte, folderID string) (id, link string, err error) {
	meta := map[string]any{"name": name}
	if folderID != "" {
		meta["parents"] = []string{folderID}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", "", fmt.Errorf("stage: marshal metadata: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	metaPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"application/json; charset=UTF-8"},
	})
	if err != nil {
		return "", "", fmt.Errorf("stage: metadata part: %w", err)
	}
	if _, err := metaPart.Write(metaJSON); err != nil {
		return "", "", fmt.Errorf("stage: metadata part: %w", err)
	}

	mediaPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {mimeType},
	})
	if err != nil {
		return "", "", fmt.Errorf("stage: media part: %w", err)
	}
	if _, err := mediaPart.Write(data); err != nil {
		return "", "", fmt.Errorf("stage: media part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", "", fmt.Errorf("stage: close multipart: %w", err)
	}

	uploadURL := c.cfg.UploadBaseURL + "/files?uploadType=multipart&fields=id,webContentLink"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return "", "", fmt.Errorf("stage: build upload: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+string(cred))
	req.Header.Set("Content-Type", "multipart/related; boundary="+mw.Boundary())

	var out struct {
		ID             string `json:"id"`
		WebContentLink string `json:"webContentLink"`
	}
	if err := c.send(req, &out); err != nil {
		return "", "", err
	}
	return out.ID, out.WebContentLink, nil
}

// AllowLinkFetch grants read access to anyone with the link. The document
// service fetches staged images by URL rather than accepting bytes, so the
// asset must be fetchable without our credential.
func (c *DriveClient) AllowLinkFetch(ctx context.Context, cred session.Credential, fileID string) error {
	payload := map[string]any{"role": "reader", "type": "anyone"}
	path := fmt.Sprintf("%s/files/%s/permissions", c.cfg.BaseURL, url.PathEscape(fileID))
	return c.doJSON(ctx, cred, http.MethodPost, path, payload, nil)
}

// DirectURL resolves the stable direct-fetch URL of an uploaded file,
// constructing the canonical pattern when the store's metadata omits one.
func (c *DriveClient) DirectURL(ctx context.Context, cred session.Credential, fileID string) (string, error) {
	path := fmt.Sprintf("%s/files/%s?fields=webContentLink", c.cfg.BaseURL, url.PathEscape(fileID))
	var out struct {
		WebContentLink string `json:"webContentLink"`
	}
	if err := c.doJSON(ctx, cred, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	if out.WebContentLink != "" {
		return out.WebContentLink, nil
	}
	return CanonicalURL(fileID), nil
}

// CanonicalURL is the constructed direct-fetch URL pattern for a file id.
func CanonicalURL(fileID string) string {
	return "https://drive.google.com/uc?export=view&id=" + url.QueryEscape(fileID)
}

func (c *DriveClient) doJSON(ctx context.Context, cred session.Credential, method, rawURL string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("stage: marshal: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("stage: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+string(cred))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *DriveClient) send(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("stage: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.cfg.Logger.Debug("stage: call",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("stage: status %d: %w", resp.StatusCode, session.ErrAuthExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ""
		if data, err := safeio.LimitedReadAll(resp.Body, safeio.MaxResponseBody); err == nil {
			msg = strings.TrimSpace(string(data))
		}
		return &RemoteError{Status: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("stage: decode response: %w", err)
		}
	}
	return nil
}
