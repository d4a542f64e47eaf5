package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/phuslu/log"

	"backlogmcp/server/internal/jsonrpc"
)

// RequestProcessor processes JSON-RPC requests.
// Implemented by the MCP handler.
type RequestProcessor interface {
	ProcessRequest(ctx context.Context, req *jsonrpc.Request) (interface{}, *jsonrpc.Error)
}

// maxBodySize caps a single JSON-RPC message.
const maxBodySize = 4 << 20

// Dispatch decodes one JSON-RPC message, runs it through processor and
// returns the encoded response. It returns nil for notifications.
func Dispatch(ctx context.Context, processor RequestProcessor, logger *log.Logger, body []byte) []byte {
	var req jsonrpc.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return encode(logger, jsonrpc.NewResponse(nil, nil, &jsonrpc.Error{Code: jsonrpc.ParseError, Message: "Parse error"}))
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		if req.ID == nil {
			return nil
		}
		return encode(logger, jsonrpc.NewResponse(req.ID, nil, &jsonrpc.Error{Code: jsonrpc.InvalidRequest, Message: "Invalid Request"}))
	}

	logger.Debug().Str("method", req.Method).Interface("id", req.ID).Str("request_id", GetRequestID(ctx)).Msg("received request")

	result, rpcErr := processor.ProcessRequest(ctx, &req)
	if req.ID == nil {
		// Notifications get no response, even on error.
		return nil
	}
	return encode(logger, jsonrpc.NewResponse(req.ID, result, rpcErr))
}

func encode(logger *log.Logger, resp jsonrpc.Response) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Error().Err(err).Msg("encode response")
		data, _ = json.Marshal(jsonrpc.NewResponse(resp.ID, nil, &jsonrpc.Error{Code: jsonrpc.InternalError, Message: "failed to encode result"}))
	}
	return data
}

// session represents an SSE connection session.
type session struct {
	id       string
	done     chan struct{}
	messages chan []byte
}

// transport manages SSE/Inline transport for MCP.
type transport struct {
	processor RequestProcessor
	logger    *log.Logger
	sessions  map[string]*session
	mu        sync.RWMutex
}

// Transport creates an http.Handler that manages SSE and Inline JSON-RPC transport.
// It delegates request processing to the given RequestProcessor.
func Transport(processor RequestProcessor, logger *log.Logger) http.Handler {
	return &transport{
		processor: processor,
		logger:    logger,
		sessions:  make(map[string]*session),
	}
}

func (t *transport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		t.handleSSE(w, r)
	case http.MethodPost:
		t.handleMessage(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (t *transport) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Create session with cryptographic random ID
	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		http.Error(w, "failed to generate session ID", http.StatusInternalServerError)
		return
	}
	sessionID := hex.EncodeToString(idBytes)

	s := &session{
		id:       sessionID,
		done:     make(chan struct{}),
		messages: make(chan []byte, 100),
	}

	t.mu.Lock()
	t.sessions[sessionID] = s
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.sessions, sessionID)
		t.mu.Unlock()
		close(s.done)
	}()

	// Send endpoint event (MCP SSE protocol)
	fmt.Fprintf(w, "event: endpoint\ndata: %s?sessionId=%s\n\n", r.URL.Path, sessionID)
	flusher.Flush()
	t.logger.Info().Str("session", sessionID).Msg("SSE connection established")

	// Keep connection open and send messages
	for {
		select {
		case msg := <-s.messages:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		case <-r.Context().Done():
			t.logger.Info().Str("session", sessionID).Msg("SSE connection closed")
			return
		}
	}
}

func (t *transport) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		t.handleInlineMessage(w, r)
		return
	}

	t.mu.RLock()
	s, ok := t.sessions[sessionID]
	t.mu.RUnlock()

	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	if resp := Dispatch(r.Context(), t.processor, t.logger, body); resp != nil {
		t.send(s, resp)
	}
	w.WriteHeader(http.StatusAccepted)
}

func (t *transport) handleInlineMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	resp := Dispatch(r.Context(), t.processor, t.logger, body)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(resp)
}

func (t *transport) send(s *session, data []byte) {
	select {
	case s.messages <- data:
	case <-s.done:
	default:
		t.logger.Warn().Str("session", s.id).Msg("session message buffer full")
	}
}
