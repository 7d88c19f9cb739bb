// Package mcp exposes the automation builder to MCP clients: agents can
// inspect and validate stored automations, render them as Mermaid and
// drive preview conversations.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mehdry/flowline"
	"github.com/mehdry/flowline/internal/logging"
	"github.com/mehdry/flowline/internal/presentation/graph"
	"github.com/mehdry/flowline/internal/runtime"
	"github.com/mehdry/flowline/internal/validator"
	"github.com/mehdry/flowline/pkg/domain"
	"github.com/mehdry/flowline/pkg/ports"
	"github.com/mehdry/flowline/pkg/session"
)

// TranscriptResponse is the structured result of the preview tools.
type TranscriptResponse struct {
	PreviewID string                     `json:"preview_id" jsonschema_description:"Identifier of the preview session"`
	Entries   []session.TranscriptEntry  `json:"entries" jsonschema_description:"New transcript entries produced by the call"`
	Error     string                     `json:"error,omitempty" jsonschema_description:"Non-fatal run error, if any"`
}

// ValidationResponse is the structured result of validate_automation.
type ValidationResponse struct {
	Findings []validator.Issue `json:"findings" jsonschema_description:"Validation findings, blocking errors first"`
	Valid    bool              `json:"valid" jsonschema_description:"True when no blocking errors were found"`
}

// Server wraps an automation store and engine and exposes them as an MCP server.
type Server struct {
	store     ports.AutomationStore
	engine    *runtime.Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer

	mu       sync.Mutex
	previews map[string]*session.Preview
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(store ports.AutomationStore, engine *runtime.Engine, opts ...Option) *Server {
	s := &Server{
		store:     store,
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("flowline-mcp", strings.TrimSpace(flowline.Version)),
		previews:  make(map[string]*session.Preview),
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

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
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
	// TOOL: list_automations
	s.mcpServer.AddTool(mcp.NewTool("list_automations",
		mcp.WithDescription("List the names of all stored automations."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names, err := s.store.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(names)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: get_automation
	s.mcpServer.AddTool(mcp.NewTool("get_automation",
		mcp.WithDescription("Fetch a stored automation record as JSON."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Automation name")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := request.GetString("name", "")
		record, err := s.store.Get(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get %q failed: %v", name, err)), nil
		}
		jsonBytes, _ := json.Marshal(record)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: validate_automation
	validateTool := mcp.NewTool("validate_automation",
		mcp.WithDescription("Validate a stored automation and report blocking errors and warnings."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Automation name")),
		mcp.WithOutputSchema[ValidationResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	// TOOL: render_graph
	s.mcpServer.AddTool(mcp.NewTool("render_graph",
		mcp.WithDescription("Render a stored automation as a Mermaid flowchart."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Automation name")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := request.GetString("name", "")
		g, err := s.compile(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(graph.GenerateMermaid(g, nil)), nil
	})

	// TOOL: start_preview
	previewTool := mcp.NewTool("start_preview",
		mcp.WithDescription("Start a simulated conversation against a stored automation. Returns a preview ID for follow-up calls."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Automation name")),
		mcp.WithString("recipient", mcp.Description("Phone number of the simulated contact (optional)")),
		mcp.WithOutputSchema[TranscriptResponse](),
	)
	s.mcpServer.AddTool(previewTool, mcp.NewStructuredToolHandler(s.handleStartPreview))

	// TOOL: send_message
	sendTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send an inbound message into a preview conversation."),
		mcp.WithString("preview_id", mcp.Required(), mcp.Description("ID returned by start_preview")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Message text")),
		mcp.WithOutputSchema[TranscriptResponse](),
	)
	s.mcpServer.AddTool(sendTool, mcp.NewStructuredToolHandler(s.handleSendMessage))

	// TOOL: click_button
	clickTool := mcp.NewTool("click_button",
		mcp.WithDescription("Click a button on a previously sent message in a preview conversation."),
		mcp.WithString("preview_id", mcp.Required(), mcp.Description("ID returned by start_preview")),
		mcp.WithString("step_id", mcp.Required(), mcp.Description("Step that rendered the button")),
		mcp.WithNumber("button", mcp.Required(), mcp.Description("Zero-based button index")),
		mcp.WithOutputSchema[TranscriptResponse](),
	)
	s.mcpServer.AddTool(clickTool, mcp.NewStructuredToolHandler(s.handleClickButton))

	// TOOL: get_transcript
	transcriptTool := mcp.NewTool("get_transcript",
		mcp.WithDescription("Fetch the full transcript of a preview conversation."),
		mcp.WithString("preview_id", mcp.Required(), mcp.Description("ID returned by start_preview")),
		mcp.WithOutputSchema[TranscriptResponse](),
	)
	s.mcpServer.AddTool(transcriptTool, mcp.NewStructuredToolHandler(s.handleTranscript))
}

// Handler methods for structured tools

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidationResponse, error) {
	name, _ := args["name"].(string)
	g, err := s.compile(ctx, name)
	if err != nil {
		return ValidationResponse{}, err
	}

	issues := validator.ValidateGraph(g)
	valid := true
	for _, issue := range issues {
		if !issue.Warning {
			valid = false
			break
		}
	}
	return ValidationResponse{Findings: issues, Valid: valid}, nil
}

func (s *Server) handleStartPreview(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TranscriptResponse, error) {
	name, _ := args["name"].(string)
	g, err := s.compile(ctx, name)
	if err != nil {
		return TranscriptResponse{}, err
	}

	opts := []session.PreviewOption{session.WithLatency(session.NoLatency)}
	if recipient, ok := args["recipient"].(string); ok && recipient != "" {
		opts = append(opts, session.WithRecipient(recipient, nil))
	}
	p := session.NewPreview(s.engine, g, opts...)

	s.mu.Lock()
	s.previews[p.SessionID()] = p
	s.mu.Unlock()

	return TranscriptResponse{PreviewID: p.SessionID()}, nil
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TranscriptResponse, error) {
	p, id, err := s.preview(args)
	if err != nil {
		return TranscriptResponse{}, err
	}
	text, _ := args["text"].(string)

	entries, runErr := p.SendMessage(ctx, text)
	resp := TranscriptResponse{PreviewID: id, Entries: entries}
	if runErr != nil {
		s.logger.Warn("MCP send_message: run error", "error", runErr)
		resp.Error = runErr.Error()
	}
	return resp, nil
}

func (s *Server) handleClickButton(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TranscriptResponse, error) {
	p, id, err := s.preview(args)
	if err != nil {
		return TranscriptResponse{}, err
	}
	stepID, _ := args["step_id"].(string)
	index, _ := args["button"].(float64)

	entries, clickErr := p.ClickButton(ctx, stepID, int(index))
	if clickErr != nil {
		return TranscriptResponse{}, fmt.Errorf("click failed: %w", clickErr)
	}
	return TranscriptResponse{PreviewID: id, Entries: entries}, nil
}

func (s *Server) handleTranscript(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TranscriptResponse, error) {
	p, id, err := s.preview(args)
	if err != nil {
		return TranscriptResponse{}, err
	}
	return TranscriptResponse{PreviewID: id, Entries: p.Transcript()}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: flowline://automations
	s.mcpServer.AddResource(mcp.NewResource("flowline://automations", "Stored Automations",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		names, err := s.store.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list automations: %w", err)
		}
		jsonBytes, _ := json.Marshal(names)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "flowline://automations",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) compile(ctx context.Context, name string) (*domain.Graph, error) {
	record, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("automation %q: %w", name, err)
	}
	g, err := record.Compile()
	if err != nil {
		return nil, fmt.Errorf("automation %q does not compile: %w", name, err)
	}
	return g, nil
}

func (s *Server) preview(args map[string]interface{}) (*session.Preview, string, error) {
	id, _ := args["preview_id"].(string)
	s.mu.Lock()
	p, ok := s.previews[id]
	s.mu.Unlock()
	if !ok {
		return nil, "", fmt.Errorf("unknown preview session %q", id)
	}
	return p, id, nil
}
