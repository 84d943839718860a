// Package mcp exposes the rendered command tree to MCP clients, so an agent can
// read what the robot is running and expand or collapse groups.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/cmdtree"
	"github.com/aretw0/cmdtree/internal/logging"
	"github.com/aretw0/cmdtree/internal/presentation/graph"
	"github.com/aretw0/cmdtree/pkg/adapters/outline"
	"github.com/aretw0/cmdtree/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// TreeResourceURI names the tree resource.
const TreeResourceURI = "cmdtree://tree"

// Viewer is the part of *cmdtree.Viewer the tools drive.
type Viewer interface {
	Update(raw *string) (cmdtree.Outcome, error)
	Toggle(id string) (bool, error)
	SetExpanded(id string, expanded bool) error
}

// Tree is the part of *outline.Sink the tools read.
type Tree interface {
	Elements() []*outline.Element
	Placeholder() bool
	Markdown() string
}

// ToggleResult is the expansion after toggle_group.
type ToggleResult struct {
	ID       string `json:"id" jsonschema_description:"Identity of the section or group"`
	Expanded bool   `json:"expanded" jsonschema_description:"Expansion after the call"`
}

// PushResult reports what push_snapshot did.
type PushResult struct {
	Rendered  bool     `json:"rendered" jsonschema_description:"True when the tree was rebuilt"`
	Nodes     int      `json:"nodes" jsonschema_description:"Command nodes in the tree"`
	Displayed int      `json:"displayed" jsonschema_description:"Nodes highlighted as running"`
	Malformed int      `json:"malformed" jsonschema_description:"Nodes skipped because of their shape"`
	Errors    []string `json:"errors,omitempty" jsonschema_description:"Why nodes were skipped"`
}

type toggleArgs struct {
	ID       string `json:"id"`
	Expanded *bool  `json:"expanded,omitempty"`
}

type pushArgs struct {
	Payload string `json:"payload"`
}

// Server wraps a Viewer and exposes it as an MCP Server.
type Server struct {
	viewer    Viewer
	tree      Tree
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(viewer Viewer, tree Tree, opts ...Option) *Server {
	s := &Server{
		viewer:    viewer,
		tree:      tree,
		mcpServer: server.NewMCPServer("cmdtree-mcp", strings.TrimSpace(cmdtree.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_command_tree",
		mcp.WithDescription("Get the command tree as currently displayed: sections, groups and which commands are running."),
		mcp.WithString("format", mcp.Description("json (default), markdown or mermaid")),
	), s.handleGetTree)

	toggleTool := mcp.NewTool("toggle_group",
		mcp.WithDescription("Expand or collapse a section or command group. Without 'expanded' the current expansion is flipped."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node identity, e.g. 'subsystem-0' or 'subsystem-0/Drive'")),
		mcp.WithBoolean("expanded", mcp.Description("Force this expansion instead of flipping")),
		mcp.WithOutputSchema[ToggleResult](),
	)
	s.mcpServer.AddTool(toggleTool, mcp.NewStructuredToolHandler(s.handleToggle))

	pushTool := mcp.NewTool("push_snapshot",
		mcp.WithDescription("Replace the displayed tree with a serialized command snapshot."),
		mcp.WithString("payload", mcp.Required(), mcp.Description("JSON payload with 'subsystems' and 'scheduled'")),
		mcp.WithOutputSchema[PushResult](),
	)
	s.mcpServer.AddTool(pushTool, mcp.NewStructuredToolHandler(s.handlePush))
}

func (s *Server) handleGetTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := s.render(request.GetString("format", "json"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) render(format string) (string, error) {
	switch format {
	case "json":
		if s.tree.Placeholder() {
			return outline.PlaceholderText, nil
		}
		data, err := json.Marshal(s.tree.Elements())
		if err != nil {
			return "", fmt.Errorf("encode failed: %w", err)
		}
		return string(data), nil
	case "markdown":
		return s.tree.Markdown(), nil
	case "mermaid":
		return graph.GenerateMermaid(s.tree.Elements()), nil
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}

func (s *Server) handleToggle(ctx context.Context, request mcp.CallToolRequest, args toggleArgs) (ToggleResult, error) {
	if args.ID == "" {
		return ToggleResult{}, fmt.Errorf("id is required")
	}
	if args.Expanded != nil {
		if err := s.viewer.SetExpanded(args.ID, *args.Expanded); err != nil {
			return ToggleResult{}, err
		}
		return ToggleResult{ID: args.ID, Expanded: *args.Expanded}, nil
	}
	expanded, err := s.viewer.Toggle(args.ID)
	if err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{ID: args.ID, Expanded: expanded}, nil
}

func (s *Server) handlePush(ctx context.Context, request mcp.CallToolRequest, args pushArgs) (PushResult, error) {
	out, err := s.viewer.Update(&args.Payload)
	if errors.Is(err, domain.ErrDecode) {
		s.logger.Warn("MCP push_snapshot: Payload rejected", "err", err)
		return PushResult{}, err
	}
	res := PushResult{
		Rendered:  out.Rendered,
		Nodes:     out.Stats.Nodes,
		Displayed: out.Stats.Displayed,
		Malformed: out.Malformed,
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			res.Errors = append(res.Errors, e.Error())
		}
	} else if err != nil {
		res.Errors = []string{err.Error()}
	}
	return res, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(TreeResourceURI, "Displayed Command Tree",
		mcp.WithMIMEType("application/json"),
	), s.readTree)
}

func (s *Server) readTree(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(s.tree.Elements())
	if err != nil {
		return nil, fmt.Errorf("failed to encode tree: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      TreeResourceURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
