// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Scribe's formatting and capture tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/captureservice"
	"github.com/starford/scribe/internal/journal"
	"github.com/starford/scribe/internal/prompt"
	"github.com/starford/scribe/internal/templates"
)

// PlaceholderSyntaxURI is the resource holding PlaceholderSyntax.
const PlaceholderSyntaxURI = "scribe://placeholder-syntax"

// Server wraps the MCP server with Scribe tools.
type Server struct {
	mcp       *server.MCPServer
	svc       *captureservice.Service
	journal   journal.Journal
	templates *templates.Registry
}

// New creates a new MCP server with all Scribe tools registered. j and reg
// may be nil.
func New(svc *captureservice.Service, j journal.Journal, reg *templates.Registry) *Server {
	s := &Server{svc: svc, journal: j, templates: reg}

	s.mcp = server.NewMCPServer(
		"Scribe",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("format_template",
		mcp.WithDescription("Expand a template or an inline format without writing any file. "+
			"Read get_placeholder_syntax first."),
		mcp.WithString("template", mcp.Description("Template name in the templates folder")),
		mcp.WithString("format", mcp.Description("Inline format, used when template is empty")),
		mcp.WithString("value", mcp.Description("Answer for {{VALUE}}")),
		mcp.WithString("title", mcp.Description("Title for {{TITLE}} and {{LINKCURRENT}}")),
		mcp.WithObject("answers", mcp.Description("Answers keyed by variable name or choice option list")),
		mcp.WithObject("variables", mcp.Description("Preset variables; lists, numbers and booleans become typed front matter properties")),
	), s.formatTemplate)

	s.mcp.AddTool(mcp.NewTool("capture",
		mcp.WithDescription("Format a template and insert it into a Markdown file. "+
			"Returns where the text landed."),
		mcp.WithString("path", mcp.Description("Target file; may contain placeholders, e.g. daily/{{DATE}}.md")),
		mcp.WithString("template", mcp.Description("Template name in the templates folder")),
		mcp.WithString("format", mcp.Description("Inline format, used when template is empty")),
		mcp.WithString("value", mcp.Description("Answer for {{VALUE}}")),
		mcp.WithString("mode", mcp.Description("append, prepend or insert_after"), mcp.Enum("append", "prepend", "insert_after")),
		mcp.WithString("insert_after", mcp.Description("Line to insert below, e.g. ## Tasks")),
		mcp.WithBoolean("dry_run", mcp.Description("Preview the change without writing")),
		mcp.WithObject("answers", mcp.Description("Answers keyed by variable name or choice option list")),
		mcp.WithObject("variables", mcp.Description("Preset variables; lists, numbers and booleans become typed front matter properties")),
	), s.capture)

	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List templates, optionally fuzzy-matched against a query."),
		mcp.WithString("query", mcp.Description("Optional fuzzy query")),
	), s.listTemplates)

	s.mcp.AddTool(mcp.NewTool("list_captures",
		mcp.WithDescription("List recent captures, newest first, or search them."),
		mcp.WithString("path", mcp.Description("Only captures into this file")),
		mcp.WithString("query", mcp.Description("Search captured text, paths and templates")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of captures (default 20)")),
	), s.listCaptures)

	s.mcp.AddTool(mcp.NewTool("get_placeholder_syntax",
		mcp.WithDescription("Returns the placeholder syntax accepted by format_template and capture."),
	), s.getPlaceholderSyntax)

	s.mcp.AddResource(
		mcp.NewResource(PlaceholderSyntaxURI, "Placeholder Syntax",
			mcp.WithResourceDescription("Template placeholder reference."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPlaceholderSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// answers converts the free-form answers object into prompt answers.
func answers(req mcp.CallToolRequest) prompt.Static {
	raw, _ := req.GetArguments()["answers"].(map[string]any)
	out := make(prompt.Static, len(raw))
	for k, v := range raw {
		out[k] = fmt.Sprint(v)
	}
	return out
}

func variables(req mcp.CallToolRequest) map[string]any {
	v, _ := req.GetArguments()["variables"].(map[string]any)
	return v
}

func optionalString(req mcp.CallToolRequest, key string) *string {
	v, ok := req.GetArguments()[key].(string)
	if !ok {
		return nil
	}
	return &v
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrCancelled) {
		return mcp.NewToolResultError("cancelled")
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) formatTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Format(ctx, captureservice.FormatRequest{
		Template:  req.GetString("template", ""),
		Format:    req.GetString("format", ""),
		Value:     optionalString(req, "value"),
		Title:     req.GetString("title", ""),
		Variables: variables(req),
	}, answers(req))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) capture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Capture(ctx, captureservice.Request{
		Path:        req.GetString("path", ""),
		Template:    req.GetString("template", ""),
		Format:      req.GetString("format", ""),
		Value:       optionalString(req, "value"),
		Mode:        req.GetString("mode", ""),
		InsertAfter: req.GetString("insert_after", ""),
		DryRun:      req.GetBool("dry_run", false),
		Variables:   variables(req),
	}, answers(req))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) listTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.templates == nil {
		return mcp.NewToolResultText("no templates"), nil
	}
	items := s.templates.Suggest(req.GetString("query", ""))
	if len(items) == 0 {
		return mcp.NewToolResultText("no templates"), nil
	}
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) listCaptures(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.journal == nil {
		return mcp.NewToolResultError("journal disabled"), nil
	}
	limit := req.GetInt("limit", 20)
	if q := strings.TrimSpace(req.GetString("query", "")); q != "" {
		items, err := s.journal.Search(q, limit)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(items), nil
	}
	items, _, err := s.journal.List(limit, 0, req.GetString("path", ""))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(items), nil
}

func (s *Server) getPlaceholderSyntax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PlaceholderSyntax), nil
}

func (s *Server) readPlaceholderSyntaxResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      PlaceholderSyntaxURI,
			MIMEType: "text/markdown",
			Text:     PlaceholderSyntax,
		},
	}, nil
}
