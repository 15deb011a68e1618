// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the editorial calendar to LLM tooling via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/almadigital/pauta/internal/calendarservice"
	"github.com/almadigital/pauta/internal/media"
)

// Server wraps the MCP server with calendar tools.
type Server struct {
	mcp *server.MCPServer
	svc *calendarservice.Service
}

// New creates a new MCP server with all calendar tools registered.
func New(svc *calendarservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Pauta",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_calendar",
		mcp.WithDescription("Read the full two-week editorial calendar as JSON."),
	), s.getCalendar)

	s.mcp.AddTool(mcp.NewTool("get_day",
		mcp.WithDescription("Read one day entry by its date id."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Day id in YYYY-MM-DD form")),
	), s.getDay)

	s.mcp.AddTool(mcp.NewTool("set_day_field",
		mcp.WithDescription("Set a single field on one day entry and persist the calendar. "+
			"Select fields (estado, pilar, documento, red) only accept their fixed values; "+
			"read the pauta://document-format resource for the full field list."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Day id in YYYY-MM-DD form")),
		mcp.WithString("field", mcp.Required(), mcp.Description("Field key (e.g. estado, copy, hashtags)")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value as a string; use true/false for programar")),
	), s.setDayField)

	s.mcp.AddTool(mcp.NewTool("attach_media",
		mcp.WithDescription("Attach a media file to a day entry. Content is a base64 data: URI "+
			"(image/* or video/* only)."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Day id in YYYY-MM-DD form")),
		mcp.WithString("data_uri", mcp.Required(), mcp.Description("data:<mime>;base64,<payload>")),
		mcp.WithString("name", mcp.Description("Original filename (optional)")),
	), s.attachMedia)

	s.mcp.AddTool(mcp.NewTool("export_calendar",
		mcp.WithDescription("Export the calendar as the portable JSON document "+
			"(references only; attachment bytes never travel with it)."),
	), s.exportCalendar)

	s.mcp.AddTool(mcp.NewTool("list_orphans",
		mcp.WithDescription("List media blob ids no longer referenced by any day entry."),
	), s.listOrphans)

	// Resource: portable document format contract.
	s.mcp.AddResource(
		mcp.NewResource("pauta://document-format", "Calendar Document Format",
			mcp.WithResourceDescription("The portable calendar document shape and the day-entry field contract."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocumentFormatResource,
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

func (s *Server) getCalendar(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.svc.Current(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(state, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	state, err := s.svc.Current(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry := state.Day(date)
	if entry == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no entry for date: %s", date)), nil
	}
	out, _ := json.MarshalIndent(entry, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) setDayField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	field, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := s.svc.SetField(ctx, date, field, value)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if state.Day(date) == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no entry for date: %s", date)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s.%s", date, field)), nil
}

func (s *Server) attachMedia(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dataURI, err := req.RequireString("data_uri")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name := ""
	if v, nErr := req.RequireString("name"); nErr == nil {
		name = v
	}

	mimeType, data, err := media.DecodeDataURL(dataURI)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !media.Accepted(mimeType) {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported media type: %s (image/* or video/* only)", mimeType)), nil
	}
	if name == "" {
		name = "upload-" + time.Now().Format("20060102-150405")
	}

	attached, entry, err := s.svc.AttachFiles(ctx, date, []media.File{{Name: name, Type: mimeType, Data: data}})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if attached == 0 {
		return mcp.NewToolResultError("attachment was not stored"), nil
	}
	ref := entry.Media[len(entry.Media)-1]
	out, _ := json.Marshal(ref)
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) exportCalendar(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, _, err := s.svc.Export(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(doc)), nil
}

func (s *Server) listOrphans(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orphans, err := s.svc.Orphans(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(orphans) == 0 {
		return mcp.NewToolResultText("no orphaned blobs"), nil
	}
	return mcp.NewToolResultText(strings.Join(orphans, "\n")), nil
}

func (s *Server) readDocumentFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "pauta://document-format",
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
