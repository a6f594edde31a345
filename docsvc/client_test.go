package docsvc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/session"
)

type recordedCall struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

// testService fakes the document service, recording batchUpdate calls and
// serving a canned document resource.
func testService(t *testing.T, docJSON string, status int) (*Client, *[]recordedCall) {
	t.Helper()
	var calls []recordedCall

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := recordedCall{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&call.Body)
		}
		calls = append(calls, call)

		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			w.Write([]byte(docJSON))
			return
		}
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Config{DocsBaseURL: srv.URL + "/v1", DriveBaseURL: srv.URL + "/drive/v3"})
	return c, &calls
}

const sampleDoc = `{
	"title": "Notes",
	"body": {"content": [
		{"startIndex": 1, "endIndex": 10, "paragraph": {
			"paragraphStyle": {"namedStyleType": "HEADING_1"},
			"elements": [{"textRun": {"content": "Intro\n"}}]}},
		{"startIndex": 10, "endIndex": 50, "paragraph": {
			"elements": [{"textRun": {"content": "body text\n"}}]}}
	]}
}`

func TestInsertTextAtIndex(t *testing.T) {
	c, calls := testService(t, sampleDoc, http.StatusOK)

	err := c.InsertText(context.Background(), "tok", "doc1", 42, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(*calls))
	}

	call := (*calls)[0]
	if call.Auth != "Bearer tok" {
		t.Fatalf("auth header %q", call.Auth)
	}
	if call.Path != "/v1/documents/doc1:batchUpdate" {
		t.Fatalf("path %q", call.Path)
	}

	reqs := call.Body["requests"].([]any)
	insert := reqs[0].(map[string]any)["insertText"].(map[string]any)
	loc := insert["location"].(map[string]any)
	if loc["index"].(float64) != 42 {
		t.Fatalf("index %v", loc["index"])
	}
	if insert["text"] != "hello" {
		t.Fatalf("text %v", insert["text"])
	}
}

func TestInsertTextAppend(t *testing.T) {
	c, calls := testService(t, sampleDoc, http.StatusOK)

	if err := c.InsertText(context.Background(), "tok", "doc1", 0, "tail"); err != nil {
		t.Fatal(err)
	}
	insert := (*calls)[0].Body["requests"].([]any)[0].(map[string]any)["insertText"].(map[string]any)
	if _, ok := insert["endOfSegmentLocation"]; !ok {
		t.Fatalf("append must use endOfSegmentLocation, got %v", insert)
	}
	if _, ok := insert["location"]; ok {
		t.Fatal("append must not carry a location")
	}
}

func TestInsertImageSizesInPoints(t *testing.T) {
	c, calls := testService(t, sampleDoc, http.StatusOK)

	err := c.InsertImage(context.Background(), "tok", "doc1", 0, "https://cdn.example.com/a.png", 96, 192)
	if err != nil {
		t.Fatal(err)
	}
	img := (*calls)[0].Body["requests"].([]any)[0].(map[string]any)["insertInlineImage"].(map[string]any)
	size := img["objectSize"].(map[string]any)
	w := size["width"].(map[string]any)
	if w["magnitude"].(float64) != 72 || w["unit"] != "PT" {
		t.Fatalf("96px should map to 72pt, got %v %v", w["magnitude"], w["unit"])
	}
	h := size["height"].(map[string]any)
	if h["magnitude"].(float64) != 144 {
		t.Fatalf("192px should map to 144pt, got %v", h["magnitude"])
	}
}

func TestInsertImageRejectsPlainHTTP(t *testing.T) {
	c, calls := testService(t, sampleDoc, http.StatusOK)

	err := c.InsertImage(context.Background(), "tok", "doc1", 0, "http://cdn.example.com/a.png", 10, 10)
	if err == nil {
		t.Fatal("expected scheme validation error")
	}
	if len(*calls) != 0 {
		t.Fatal("invalid URL must not reach the service")
	}
}

func TestStructure(t *testing.T) {
	c, _ := testService(t, sampleDoc, http.StatusOK)

	elems, err := c.Structure(context.Background(), "tok", "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if len(elems) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(elems))
	}
	if !elems[0].IsHeading() || elems[0].Text != "Intro\n" {
		t.Fatalf("element 0: %+v", elems[0])
	}
	if elems[1].Style != StyleNormalText || elems[1].EndIndex != 50 {
		t.Fatalf("element 1: %+v", elems[1])
	}
}

func TestEndIndex(t *testing.T) {
	c, _ := testService(t, sampleDoc, http.StatusOK)

	end, err := c.EndIndex(context.Background(), "tok", "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if end != 50 {
		t.Fatalf("end index %d, want 50", end)
	}
}

func TestAuthFailureClassified(t *testing.T) {
	c, _ := testService(t, sampleDoc, http.StatusUnauthorized)

	err := c.InsertText(context.Background(), "tok", "doc1", 1, "x")
	if !errors.Is(err, session.ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
}

func TestRemoteErrorCarriesMessage(t *testing.T) {
	c, _ := testService(t, sampleDoc, http.StatusTooManyRequests)

	err := c.InsertText(context.Background(), "tok", "doc1", 1, "x")
	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if re.Status != http.StatusTooManyRequests || re.Message != "quota exceeded" {
		t.Fatalf("got %+v", re)
	}
}

func TestListDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/drive/v3/files" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"files":[{"id":"d1","name":"Notes"},{"id":"d2","name":"Journal"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{DocsBaseURL: srv.URL + "/v1", DriveBaseURL: srv.URL + "/drive/v3"})
	docs, err := c.ListDocuments(context.Background(), "tok")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].ID != "d1" || docs[1].Name != "Journal" {
		t.Fatalf("got %+v", docs)
	}
}
