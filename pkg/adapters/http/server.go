// Package http exposes the automation builder over HTTP: automation
// records, preview sessions, live inbound handling and operational
// endpoints (health, metrics, OpenAPI docs).
package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mehdry/flowline/internal/logging"
	"github.com/mehdry/flowline/internal/runtime"
	"github.com/mehdry/flowline/internal/validator"
	"github.com/mehdry/flowline/pkg/domain"
	"github.com/mehdry/flowline/pkg/ports"
	"github.com/mehdry/flowline/pkg/schema"
	"github.com/mehdry/flowline/pkg/session"
)

//go:embed openapi.yaml
var rawSpec []byte

// Server routes builder and runtime operations onto an automation store,
// an engine and an optional live session service.
type Server struct {
	store   ports.AutomationStore
	engine  *runtime.Engine
	service *session.Service
	version string
	logger  *slog.Logger

	mu       sync.RWMutex
	previews map[string]*session.Preview
}

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithService enables the live inbound and webhook endpoints.
func WithService(svc *session.Service) ServerOption {
	return func(s *Server) { s.service = svc }
}

// WithVersion sets the version reported by /info.
func WithVersion(version string) ServerOption {
	return func(s *Server) { s.version = version }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler builds the HTTP handler.
func NewHandler(store ports.AutomationStore, engine *runtime.Engine, opts ...ServerOption) http.Handler {
	s := &Server{
		store:    store,
		engine:   engine,
		version:  "dev",
		logger:   logging.NewNop(),
		previews: make(map[string]*session.Preview),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/openapi.yaml", s.getSpec)
	r.Get("/swagger", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})

	r.Route("/automations", func(r chi.Router) {
		r.Get("/", s.listAutomations)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.getAutomation)
			r.Put("/", s.putAutomation)
			r.Delete("/", s.deleteAutomation)
			r.Post("/validate", s.validateAutomation)
			r.Post("/inbound", s.postInbound)
			r.Post("/webhook", s.postWebhook)
		})
	})

	r.Route("/previews", func(r chi.Router) {
		r.Post("/", s.startPreview)
		r.Post("/{id}/messages", s.previewMessage)
		r.Post("/{id}/buttons", s.previewButton)
		r.Get("/{id}/transcript", s.previewTranscript)
	})

	return enableCORS(r)
}

// Spec parses and validates the embedded OpenAPI document. Called at
// startup by the serve command so a malformed spec fails fast.
func Spec(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI spec: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}
	return doc, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Flowline API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := Spec(r.Context()); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "flowline-http",
		"version":     s.version,
		"api_version": apiVersion,
	})
}

func (s *Server) getSpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/yaml")
	_, _ = w.Write(rawSpec)
}

// -- Automation records --

func (s *Server) listAutomations(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List(r.Context())
	if err != nil {
		s.fail(w, r, "list automations", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"automations": names})
}

func (s *Server) getAutomation(w http.ResponseWriter, r *http.Request) {
	record, ok := s.loadAutomation(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) putAutomation(w http.ResponseWriter, r *http.Request) {
	var record schema.Automation
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.WarnContext(r.Context(), "putAutomation: invalid request body", "error", err)
		return
	}
	record.Name = chi.URLParam(r, "name")

	// Reject records that cannot compile into an executable graph.
	if _, err := record.Compile(); err != nil {
		http.Error(w, fmt.Sprintf("Automation does not compile: %v", err), http.StatusUnprocessableEntity)
		return
	}

	if err := s.store.Put(r.Context(), &record); err != nil {
		s.fail(w, r, "store automation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteAutomation(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.fail(w, r, "delete automation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) validateAutomation(w http.ResponseWriter, r *http.Request) {
	g, ok := s.compileAutomation(w, r)
	if !ok {
		return
	}

	issues := validator.ValidateGraph(g)
	findings := make([]map[string]any, 0, len(issues))
	for _, issue := range issues {
		findings = append(findings, map[string]any{
			"step_id": issue.StepID,
			"warning": issue.Warning,
			"message": issue.Message,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"findings": findings})
}

// -- Live conversation --

func (s *Server) postInbound(w http.ResponseWriter, r *http.Request) {
	if s.service == nil {
		http.Error(w, "Live handling is not enabled", http.StatusNotImplemented)
		return
	}

	var body struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
		Recipient string `json:"recipient"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SessionID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	g, ok := s.compileAutomation(w, r)
	if !ok {
		return
	}

	vc := domain.VariableContext{Recipient: body.Recipient}
	effects, err := s.service.HandleInbound(r.Context(), g, body.SessionID, body.Message, vc)
	if errors.Is(err, domain.ErrNoEntryPoint) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		s.fail(w, r, "handle inbound", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"effects": effects})
}

func (s *Server) postWebhook(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string            `json:"session_id"`
		Variables map[string]string `json:"variables"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	g, ok := s.compileAutomation(w, r)
	if !ok {
		return
	}

	match := s.engine.MatchExternal(g)
	if !match.Triggered {
		http.Error(w, "Automation has no external trigger", http.StatusConflict)
		return
	}

	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = chi.URLParam(r, "name") + "-webhook"
	}
	vc := domain.VariableContext{Extra: body.Variables}

	var all []domain.Effect
	for _, entry := range match.Entries {
		effects, _, err := s.engine.RunFrom(r.Context(), g, sessionID, entry, "", vc)
		if err != nil {
			s.fail(w, r, "run webhook entry", err)
			return
		}
		all = append(all, effects...)
	}
	writeJSON(w, http.StatusOK, map[string]any{"effects": all})
}

// -- Preview sessions --

func (s *Server) startPreview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Automation string `json:"automation"`
		Recipient  string `json:"recipient"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Automation == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	record, err := s.store.Get(r.Context(), body.Automation)
	if errors.Is(err, domain.ErrAutomationNotFound) {
		http.Error(w, "Unknown automation", http.StatusNotFound)
		return
	}
	if err != nil {
		s.fail(w, r, "load automation", err)
		return
	}
	g, err := record.Compile()
	if err != nil {
		http.Error(w, fmt.Sprintf("Automation does not compile: %v", err), http.StatusUnprocessableEntity)
		return
	}

	opts := []session.PreviewOption{session.WithLatency(session.NoLatency)}
	if body.Recipient != "" {
		opts = append(opts, session.WithRecipient(body.Recipient, nil))
	}
	p := session.NewPreview(s.engine, g, opts...)

	s.mu.Lock()
	s.previews[p.SessionID()] = p
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]string{"id": p.SessionID()})
}

func (s *Server) previewMessage(w http.ResponseWriter, r *http.Request) {
	p, ok := s.preview(w, r)
	if !ok {
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entries, err := p.SendMessage(r.Context(), body.Text)
	if err != nil {
		s.logger.WarnContext(r.Context(), "preview message failed", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) previewButton(w http.ResponseWriter, r *http.Request) {
	p, ok := s.preview(w, r)
	if !ok {
		return
	}
	var body struct {
		StepID string `json:"step_id"`
		Button int    `json:"button"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entries, err := p.ClickButton(r.Context(), body.StepID, body.Button)
	if err != nil {
		http.Error(w, fmt.Sprintf("Click failed: %v", err), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) previewTranscript(w http.ResponseWriter, r *http.Request) {
	p, ok := s.preview(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": p.Transcript()})
}

// -- Helpers --

func (s *Server) loadAutomation(w http.ResponseWriter, r *http.Request) (*schema.Automation, bool) {
	record, err := s.store.Get(r.Context(), chi.URLParam(r, "name"))
	if errors.Is(err, domain.ErrAutomationNotFound) {
		http.Error(w, "Unknown automation", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		s.fail(w, r, "load automation", err)
		return nil, false
	}
	return record, true
}

func (s *Server) compileAutomation(w http.ResponseWriter, r *http.Request) (*domain.Graph, bool) {
	record, ok := s.loadAutomation(w, r)
	if !ok {
		return nil, false
	}
	g, err := record.Compile()
	if err != nil {
		http.Error(w, fmt.Sprintf("Automation does not compile: %v", err), http.StatusUnprocessableEntity)
		return nil, false
	}
	return g, true
}

func (s *Server) preview(w http.ResponseWriter, r *http.Request) (*session.Preview, bool) {
	s.mu.RLock()
	p, ok := s.previews[chi.URLParam(r, "id")]
	s.mu.RUnlock()
	if !ok {
		http.Error(w, "Unknown preview session", http.StatusNotFound)
		return nil, false
	}
	return p, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	http.Error(w, fmt.Sprintf("%s: %v", op, err), http.StatusInternalServerError)
	s.logger.ErrorContext(r.Context(), op+" failed", "error", err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
