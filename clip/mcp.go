package clip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/capture"
)

// RegisterMCP registers the clipper tools on an MCP server, so agent
// frontends can drive insertions the same way the HTTP surface does.
func (o *Orchestrator) RegisterMCP(srv *mcp.Server) {
	o.registerClipTextTool(srv)
	o.registerOutlineTool(srv)
	o.registerDocumentsTool(srv)
}

// RegisterMCP registers the full tool surface: the orchestrator tools plus
// the ones that need the live capture browser.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.Orchestrator.RegisterMCP(srv)
	s.registerOpenPageTool(srv)
	s.registerClipRegionTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// addTool adapts a typed endpoint to the MCP handler shape: decode the
// arguments, run, marshal the response as text content.
func addTool[Req any](srv *mcp.Server, tool *mcp.Tool, endpoint func(ctx context.Context, req Req) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r Req
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				var res mcp.CallToolResult
				res.SetError(fmt.Errorf("invalid arguments: %w", err))
				return &res, nil
			}
		}

		resp, err := endpoint(ctx, r)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

// --- clip_text ---

type clipTextReq struct {
	DocumentID string `json:"document_id"`
	Index      int64  `json:"index"`
	Text       string `json:"text"`
	PageURL    string `json:"page_url"`
	PageTitle  string `json:"page_title"`
}

func (o *Orchestrator) registerClipTextTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "clip_text",
		Description: "Insert a captured text highlight into a document, with list formatting and a linked citation.",
		InputSchema: inputSchema(map[string]any{
			"document_id": map[string]any{"type": "string", "description": "Target document id"},
			"index":       map[string]any{"type": "integer", "description": "Insertion index; omit to append at the end"},
			"text":        map[string]any{"type": "string", "description": "The highlighted text"},
			"page_url":    map[string]any{"type": "string", "description": "Source page URL for the citation link"},
			"page_title":  map[string]any{"type": "string", "description": "Source page title for the citation"},
		}, []string{"document_id", "text"}),
	}

	addTool(srv, tool, func(ctx context.Context, r clipTextReq) (any, error) {
		sel := capture.SelectionPayload{
			Text:      r.Text,
			PageURL:   r.PageURL,
			PageTitle: r.PageTitle,
			Timestamp: time.Now().UTC(),
		}
		return o.InsertSelection(ctx, Anchor{DocumentID: r.DocumentID, Index: r.Index}, sel)
	})
}

// --- clip_outline ---

type outlineReq struct {
	DocumentID string `json:"document_id"`
}

func (o *Orchestrator) registerOutlineTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "clip_outline",
		Description: "List the named insertion points of a document: its beginning, the end of each section, and its end.",
		InputSchema: inputSchema(map[string]any{
			"document_id": map[string]any{"type": "string", "description": "Document id"},
		}, []string{"document_id"}),
	}

	addTool(srv, tool, func(ctx context.Context, r outlineReq) (any, error) {
		return o.Outline(ctx, r.DocumentID)
	})
}

// --- page_open ---

type pageOpenReq struct {
	URL string `json:"url"`
}

func (s *Service) registerOpenPageTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "page_open",
		Description: "Navigate the capture browser to the page to clip from.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Page URL to open"},
		}, []string{"url"}),
	}

	addTool(srv, tool, func(ctx context.Context, r pageOpenReq) (any, error) {
		if err := s.Pager.Open(ctx, r.URL); err != nil {
			return nil, err
		}
		return map[string]string{"status": "open"}, nil
	})
}

// --- clip_region ---

type clipRegionReq struct {
	DocumentID string         `json:"document_id"`
	Index      int64          `json:"index"`
	Region     capture.Region `json:"region"`
}

func (s *Service) registerClipRegionTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "clip_region",
		Description: "Capture a screen region of the open page and insert it into a document with a captioned citation.",
		InputSchema: inputSchema(map[string]any{
			"document_id": map[string]any{"type": "string", "description": "Target document id"},
			"index":       map[string]any{"type": "integer", "description": "Insertion index; omit to append at the end"},
			"region": map[string]any{
				"type":        "object",
				"description": "Viewport rectangle in CSS pixels",
				"properties": map[string]any{
					"x":      map[string]any{"type": "number"},
					"y":      map[string]any{"type": "number"},
					"width":  map[string]any{"type": "number"},
					"height": map[string]any{"type": "number"},
					"dpr":    map[string]any{"type": "number", "description": "Device pixel ratio; omit to read it from the page"},
				},
			},
		}, []string{"document_id", "region"}),
	}

	addTool(srv, tool, func(ctx context.Context, r clipRegionReq) (any, error) {
		return s.ClipRegion(ctx, Anchor{DocumentID: r.DocumentID, Index: r.Index}, r.Region)
	})
}

// --- clip_documents ---

func (o *Orchestrator) registerDocumentsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "clip_documents",
		Description: "List the documents available as clip targets.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	addTool(srv, tool, func(ctx context.Context, _ struct{}) (any, error) {
		return o.Documents(ctx)
	})
}
