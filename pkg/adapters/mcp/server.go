// Package mcp exposes the transition guard to agent tooling over the Model
// Context Protocol. The tools are pure checks over the static tables and the
// caller-supplied edge set; nothing here touches storage.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lcroft/stagehand"
	"github.com/lcroft/stagehand/pkg/domain"
	"github.com/lcroft/stagehand/pkg/graph"
	"github.com/lcroft/stagehand/pkg/guard"
)

// CheckResponse is the structured result of a check_transition call.
type CheckResponse struct {
	Allowed bool   `json:"allowed" jsonschema_description:"Whether the transition is legal"`
	Reason  string `json:"reason,omitempty" jsonschema_description:"Rejection reason when not allowed"`
	Gate    string `json:"gate,omitempty" jsonschema_description:"Checklist kind required to enter the destination, if any"`
}

// CycleResponse is the structured result of a check_dependency_cycle call.
type CycleResponse struct {
	WouldCycle bool   `json:"would_cycle" jsonschema_description:"Whether adding the edge closes a cycle"`
	Reason     string `json:"reason,omitempty"`
}

// TablesResponse is the structured result of a list_transitions call.
type TablesResponse struct {
	Domain      string              `json:"domain"`
	SelfNoOp    bool                `json:"self_no_op" jsonschema_description:"Whether re-asserting the current state is a no-op success"`
	Transitions map[string][]string `json:"transitions" jsonschema_description:"Legal destinations per source state"`
}

// Server wraps the guard and exposes it as an MCP server.
type Server struct {
	guard     *guard.Guard
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance over the given guard.
func NewServer(g *guard.Guard) *Server {
	s := &Server{
		guard:     g,
		mcpServer: server.NewMCPServer("stagehand-mcp", strings.TrimSpace(stagehand.Version)),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	checkTool := mcp.NewTool("check_transition",
		mcp.WithDescription("Check whether moving an entity from one state to another is legal under its domain's transition table."),
		mcp.WithString("domain", mcp.Required(), mcp.Description("Entity domain (pursuit, invoice, contract, time_entry, candidate, document, automation_rule)")),
		mcp.WithString("from", mcp.Required(), mcp.Description("Current state")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Requested state")),
		mcp.WithOutputSchema[CheckResponse](),
	)
	s.mcpServer.AddTool(checkTool, mcp.NewStructuredToolHandler(s.handleCheckTransition))

	cycleTool := mcp.NewTool("check_dependency_cycle",
		mcp.WithDescription("Check whether adding a dependency edge to an existing edge set would close a cycle."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Source node as type/id, e.g. task/1")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Target node as type/id")),
		mcp.WithString("edges", mcp.Description("JSON array of existing edges, each {from:{type,id},to:{type,id}}")),
		mcp.WithOutputSchema[CycleResponse](),
	)
	s.mcpServer.AddTool(cycleTool, mcp.NewStructuredToolHandler(s.handleCheckCycle))

	listTool := mcp.NewTool("list_transitions",
		mcp.WithDescription("List the full transition table of a domain."),
		mcp.WithString("domain", mcp.Required(), mcp.Description("Entity domain")),
		mcp.WithOutputSchema[TablesResponse](),
	)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.handleListTransitions))
}

func (s *Server) handleCheckTransition(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CheckResponse, error) {
	d, _ := args["domain"].(string)
	from, _ := args["from"].(string)
	to, _ := args["to"].(string)

	resp := CheckResponse{Allowed: true}
	if kind, ok := s.guard.Gate(domain.Domain(d), to); ok {
		resp.Gate = string(kind)
	}
	if err := domain.Assert(domain.Domain(d), from, to, "mcp check"); err != nil {
		resp.Allowed = false
		resp.Reason = err.Error()
	}
	return resp, nil
}

func (s *Server) handleCheckCycle(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CycleResponse, error) {
	fromStr, _ := args["from"].(string)
	toStr, _ := args["to"].(string)

	from, err := parseNodeRef(fromStr)
	if err != nil {
		return CycleResponse{}, fmt.Errorf("from: %w", err)
	}
	to, err := parseNodeRef(toStr)
	if err != nil {
		return CycleResponse{}, fmt.Errorf("to: %w", err)
	}

	var edges []domain.DependencyEdge
	if edgesStr, ok := args["edges"].(string); ok && edgesStr != "" {
		if err := json.Unmarshal([]byte(edgesStr), &edges); err != nil {
			return CycleResponse{}, fmt.Errorf("edges: %w", err)
		}
	}

	if graph.WouldCreateCycle(edges, from, to) {
		return CycleResponse{
			WouldCycle: true,
			Reason:     fmt.Sprintf("%s is already reachable from %s", from.String(), to.String()),
		}, nil
	}
	return CycleResponse{}, nil
}

func (s *Server) handleListTransitions(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TablesResponse, error) {
	raw, _ := args["domain"].(string)
	d := domain.Domain(raw)
	if !d.Known() {
		return TablesResponse{}, fmt.Errorf("unknown domain %q", raw)
	}

	transitions := make(map[string][]string)
	for _, from := range domain.States(d) {
		if next := domain.NextStates(d, from); len(next) > 0 {
			transitions[from] = next
		}
	}
	return TablesResponse{
		Domain:      raw,
		SelfNoOp:    domain.SelfNoOp(d),
		Transitions: transitions,
	}, nil
}

func parseNodeRef(raw string) (domain.NodeRef, error) {
	typ, idStr, ok := strings.Cut(raw, "/")
	if !ok || typ == "" {
		return domain.NodeRef{}, fmt.Errorf("node ref %q must be type/id", raw)
	}
	var id int64
	if _, err := fmt.Sscanf(idStr, "%d", &id); err != nil {
		return domain.NodeRef{}, fmt.Errorf("node ref %q: %w", raw, err)
	}
	return domain.NodeRef{Type: typ, ID: id}, nil
}
