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

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/analyzer"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/history"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/registry"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const interactionsURI = "lattice://interactions"

// StatesResult is the output of get_states.
type StatesResult struct {
	Version       int            `json:"version" jsonschema_description:"Committed version the editor is based on"`
	InitStateName string         `json:"init_state_name" jsonschema_description:"Name of the initial state"`
	States        map[string]any `json:"states" jsonschema_description:"Every state keyed by name"`
}

// ChangesResult reports the unsaved changes of a document after an edit.
type ChangesResult struct {
	Version           int                  `json:"version" jsonschema_description:"Committed version the changes apply to"`
	Changes           []history.Descriptor `json:"change_list" jsonschema_description:"Unsaved changes, oldest first"`
	HasUnsavedChanges bool                 `json:"has_unsaved_changes"`
	Diff              *domain.GraphDiff    `json:"diff,omitempty" jsonschema_description:"States added, removed or changed since the last commit"`
}

// WarningsResult maps state names to their analyzer warnings.
type WarningsResult struct {
	Warnings map[string][]analyzer.Warning `json:"warnings"`
}

// Server exposes the editing operations of a session manager as MCP tools.
type Server struct {
	sessions     *session.Manager
	interactions *registry.Registry
	logger       *slog.Logger
	mcpServer    *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger for tool calls.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry sets the interaction catalog exposed as a resource.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Server) {
		s.interactions = reg
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(mgr *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:     mgr,
		interactions: registry.Default(),
		logger:       logging.NewNop(),
		mcpServer:    server.NewMCPServer("lattice-mcp", strings.TrimSpace(lattice.Version)),
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

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "addr", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_docs",
		mcp.WithDescription("List the documents of the graph source."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.sessions.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(map[string]any{"docs": ids})
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("get_states",
		mcp.WithDescription("Get every state of a document, including unsaved changes."),
		mcp.WithString("doc_id", mcp.Required(), mcp.Description("Document ID")),
		mcp.WithOutputSchema[StatesResult](),
	), mcp.NewStructuredToolHandler(s.handleGetStates))

	s.mcpServer.AddTool(mcp.NewTool("apply_changes",
		mcp.WithDescription("Apply a change list to a document. Either every change applies or none does."),
		mcp.WithString("doc_id", mcp.Required(), mcp.Description("Document ID")),
		mcp.WithString("change_list", mcp.Required(),
			mcp.Description(`JSON array of changes, e.g. [{"cmd":"add_state","state_name":"Hint"}]`)),
		mcp.WithOutputSchema[ChangesResult](),
	), mcp.NewStructuredToolHandler(s.handleApplyChanges))

	s.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the most recent unsaved change."),
		mcp.WithString("doc_id", mcp.Required(), mcp.Description("Document ID")),
		mcp.WithOutputSchema[ChangesResult](),
	), mcp.NewStructuredToolHandler(s.handleUndo))

	s.mcpServer.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the most recently undone change."),
		mcp.WithString("doc_id", mcp.Required(), mcp.Description("Document ID")),
		mcp.WithOutputSchema[ChangesResult](),
	), mcp.NewStructuredToolHandler(s.handleRedo))

	s.mcpServer.AddTool(mcp.NewTool("get_warnings",
		mcp.WithDescription("Analyze answer groups and report rules that can never match."),
		mcp.WithString("doc_id", mcp.Required(), mcp.Description("Document ID")),
		mcp.WithString("state_name", mcp.Description("Only analyze this state (optional)")),
		mcp.WithOutputSchema[WarningsResult](),
	), mcp.NewStructuredToolHandler(s.handleGetWarnings))

	s.mcpServer.AddTool(mcp.NewTool("commit",
		mcp.WithDescription("Commit the unsaved changes of a document as its next version."),
		mcp.WithString("doc_id", mcp.Required(), mcp.Description("Document ID")),
		mcp.WithNumber("version", mcp.Required(), mcp.Description("Version the changes were made against")),
		mcp.WithString("commit_message", mcp.Description("Commit message")),
		mcp.WithOutputSchema[ports.Commit](),
	), mcp.NewStructuredToolHandler(s.handleCommit))
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(interactionsURI, "Interaction Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.interactions.Catalog())
		if err != nil {
			return nil, fmt.Errorf("failed to encode interaction catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      interactionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) handleGetStates(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StatesResult, error) {
	var out StatesResult
	err := s.edit(ctx, args, func(ed *lattice.Editor) error {
		out = StatesResult{Version: ed.Version(), InitStateName: ed.InitState(), States: ed.ToDict()}
		return nil
	})
	return out, err
}

func (s *Server) handleApplyChanges(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ChangesResult, error) {
	raw, _ := args["change_list"].(string)
	var changes []history.Descriptor
	if err := json.Unmarshal([]byte(raw), &changes); err != nil {
		return ChangesResult{}, fmt.Errorf("change_list must be a JSON array of changes: %w", err)
	}

	var out ChangesResult
	err := s.edit(ctx, args, func(ed *lattice.Editor) error {
		if err := ed.ApplyDescriptors(changes); err != nil {
			return err
		}
		out = changesOf(ed)
		return nil
	})
	return out, err
}

func (s *Server) handleUndo(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ChangesResult, error) {
	var out ChangesResult
	err := s.edit(ctx, args, func(ed *lattice.Editor) error {
		if err := ed.Undo(); err != nil {
			return err
		}
		out = changesOf(ed)
		return nil
	})
	return out, err
}

func (s *Server) handleRedo(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ChangesResult, error) {
	var out ChangesResult
	err := s.edit(ctx, args, func(ed *lattice.Editor) error {
		if err := ed.Redo(); err != nil {
			return err
		}
		out = changesOf(ed)
		return nil
	})
	return out, err
}

func (s *Server) handleGetWarnings(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (WarningsResult, error) {
	name, _ := args["state_name"].(string)
	var out WarningsResult
	err := s.edit(ctx, args, func(ed *lattice.Editor) error {
		if name == "" {
			out.Warnings = ed.AllWarnings()
			return nil
		}
		warnings, err := ed.Warnings(name)
		if err != nil {
			return err
		}
		out.Warnings = map[string][]analyzer.Warning{}
		if len(warnings) > 0 {
			out.Warnings[name] = warnings
		}
		return nil
	})
	return out, err
}

func (s *Server) handleCommit(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ports.Commit, error) {
	docID, err := docIDOf(args)
	if err != nil {
		return ports.Commit{}, err
	}
	version, ok := args["version"].(float64)
	if !ok || version != float64(int(version)) {
		return ports.Commit{}, fmt.Errorf("%w: version must be an integer", domain.ErrInvalidVersion)
	}
	message, _ := args["commit_message"].(string)

	commit, err := s.sessions.CommitVersion(ctx, docID, int(version), message)
	if err != nil {
		s.logger.Debug("MCP commit rejected", "doc", docID, "err", err)
		return ports.Commit{}, err
	}
	return commit, nil
}

func (s *Server) edit(ctx context.Context, args map[string]interface{}, fn func(*lattice.Editor) error) error {
	docID, err := docIDOf(args)
	if err != nil {
		return err
	}
	err = s.sessions.WithEditor(ctx, docID, func(_ context.Context, ed *lattice.Editor) error {
		return fn(ed)
	})
	if err != nil {
		s.logger.Debug("MCP tool call rejected", "doc", docID, "err", err)
	}
	return err
}

func docIDOf(args map[string]interface{}) (string, error) {
	docID, _ := args["doc_id"].(string)
	if docID == "" {
		return "", errors.New("doc_id is required")
	}
	return docID, nil
}

func changesOf(ed *lattice.Editor) ChangesResult {
	return ChangesResult{
		Version:           ed.Version(),
		Changes:           ed.ChangeList(),
		HasUnsavedChanges: ed.HasUnsavedChanges(),
		Diff:              ed.Diff(),
	}
}
