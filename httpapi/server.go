package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pkt.systems/trove/internal/command"
	"pkt.systems/trove/internal/logx"
	"pkt.systems/trove/schema"
)

const maxCommandBodySize = 8 << 20

// Dispatcher routes named commands to their handlers.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd command.Command) (schema.WorkspaceView, error)
	Names() []string
}

// Server serves the HTTP command boundary.
type Server struct {
	cfg        Config
	dispatcher Dispatcher
	hub        *Hub
}

// NewServer constructs an HTTP server.
func NewServer(cfg Config, dispatcher Dispatcher, hub *Hub) *Server {
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		hub:        hub,
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/commands", s.handleCommands)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/stream", s.handleStream)
	return withRequestLogging(mux)
}

type commandRequest struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"commands": s.dispatcher.Names()})
	case http.MethodPost:
		s.handleDispatch(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	log := logx.Ctx(r.Context()).With("remote", clientIP(r))
	var req commandRequest
	if err := decodeJSON(io.LimitReader(r.Body, maxCommandBodySize), &req); err != nil {
		log.Warn("http command decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, errors.New("command name is required"))
		return
	}
	payload, err := commandPayload(req.Payload)
	if err != nil {
		log.Warn("http command payload invalid", "command", req.Name, "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	view, err := s.dispatcher.Dispatch(r.Context(), command.Command{Name: req.Name, Payload: payload})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.Warn("http command failed", "command", req.Name, "err", err)
		} else {
			log.Debug("http command rejected", "command", req.Name, "status", status, "err", err)
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	view, err := s.dispatcher.Dispatch(r.Context(), command.Command{Name: command.GetState})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	log := logx.Ctx(r.Context()).With("remote", clientIP(r))

	ch, unsubscribe, seq := s.hub.Subscribe()
	defer unsubscribe()

	view, err := s.dispatcher.Dispatch(r.Context(), command.Command{Name: command.GetState})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	_ = writeSSEvent(w, StreamEvent{
		Type:      "snapshot",
		View:      &view,
		Timestamp: time.Now(),
	})

	lastID := parseUint(r.Header.Get("Last-Event-ID"))
	replayCount := 0
	if lastID > 0 {
		for _, event := range s.hub.Replay(lastID) {
			if event.Seq > seq {
				continue
			}
			_ = writeSSEvent(w, event)
			replayCount++
		}
	}
	flusher.Flush()

	notify := r.Context().Done()
	log.Info("http stream opened", "last_id", lastID, "replay", replayCount, "tabs", len(view.Tabs))
	for {
		select {
		case <-notify:
			log.Info("http stream closed")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			_ = writeSSEvent(w, event)
			flusher.Flush()
		}
	}
}

// commandPayload accepts a JSON string, any other JSON value passed through as
// text, or nothing.
func commandPayload(raw json.RawMessage) (*string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, fmt.Errorf("%w: %v", schema.ErrInvalidPayload, err)
		}
		return &text, nil
	}
	return &trimmed, nil
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case schema.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrUnknownCommand),
		errors.Is(err, schema.ErrTabNotFound),
		errors.Is(err, schema.ErrDocumentNotFound),
		errors.Is(err, schema.ErrNoActiveTab),
		errors.Is(err, schema.ErrNoTabs):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrTitleTaken), errors.Is(err, schema.ErrLastTab):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
