// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes herald tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/herald/internal/apperr"
	"github.com/starford/herald/internal/assignment"
)

// RecordFormatURI is the resource holding RecordFormatContract.
const RecordFormatURI = "herald://record-format"

// Server wraps the MCP server with herald tools.
type Server struct {
	mcp *server.MCPServer
	svc *assignment.Service
}

// New creates a new MCP server with all herald tools registered.
func New(svc *assignment.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Herald",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_groups",
		mcp.WithDescription("List the group and team records found in the vault, with their direct members."),
	), s.listGroups)

	s.mcp.AddTool(mcp.NewTool("resolve_assignee",
		mcp.WithDescription("Expand a person or group reference into the persons it names. "+
			"Nested groups are followed; cycles are cut."),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Reference such as [[people/Alice]] or [[Team Alpha]]")),
	), s.resolveAssignee)

	s.mcp.AddTool(mcp.NewTool("get_group_members",
		mcp.WithDescription("Direct, unexpanded members of a group record."),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Group reference")),
	), s.getGroupMembers)

	s.mcp.AddTool(mcp.NewTool("get_person_preferences",
		mcp.WithDescription("Resolved notification preferences of a person, with defaults filled in."),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Person reference")),
	), s.getPersonPreferences)

	s.mcp.AddTool(mcp.NewTool("check_task_eligibility",
		mcp.WithDescription("Decide whether a task notifies this device. Pass either the task note "+
			"path or a comma-separated list of assignee references."),
		mcp.WithString("path", mcp.Description("Task note path (e.g. tasks/ship.md)")),
		mcp.WithString("assignees", mcp.Description("Comma-separated assignee references")),
	), s.checkTaskEligibility)

	s.mcp.AddTool(mcp.NewTool("get_record_contract",
		mcp.WithDescription("Returns the frontmatter contract for person, group and task records. "+
			"Call this before writing records that herald should understand."),
	), s.getRecordContract)

	s.mcp.AddResource(
		mcp.NewResource(RecordFormatURI, "Record Format Contract",
			mcp.WithResourceDescription("Frontmatter keys read from person, group and task notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecordFormatResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listGroups(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groups := s.svc.Groups()
	if len(groups) == 0 {
		return mcp.NewToolResultText("no groups found"), nil
	}
	return jsonResult(groups)
}

func (s *Server) resolveAssignee(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	persons := s.svc.ResolveAssignee(ref)
	if len(persons) == 0 {
		return mcp.NewToolResultText("no persons"), nil
	}
	return mcp.NewToolResultText(strings.Join(persons, "\n")), nil
}

func (s *Server) getGroupMembers(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	members, err := s.svc.GroupMembers(ref)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not a group: %s", ref)), nil
	}
	return mcp.NewToolResultText(strings.Join(members, "\n")), nil
}

func (s *Server) getPersonPreferences(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Preferences(ref))
}

func (s *Server) checkTaskEligibility(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if path, err := req.RequireString("path"); err == nil && strings.TrimSpace(path) != "" {
		d, err := s.svc.TaskDecision(ctx, path)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
			}
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(d)
	}

	raw, _ := req.RequireString("assignees")
	var assignees []string
	for _, a := range strings.Split(raw, ",") {
		if a = strings.TrimSpace(a); a != "" {
			assignees = append(assignees, a)
		}
	}
	return jsonResult(s.svc.Notify(ctx, assignees))
}

func (s *Server) getRecordContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecordFormatContract), nil
}

func (s *Server) readRecordFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      RecordFormatURI,
			MIMEType: "text/markdown",
			Text:     RecordFormatContract,
		},
	}, nil
}
