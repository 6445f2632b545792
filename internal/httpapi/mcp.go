package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kandev/meddler/internal/apperrors"
	"github.com/kandev/meddler/internal/domain"
	"github.com/kandev/meddler/internal/jsonrpc"
	"github.com/kandev/meddler/internal/session"
)

// mcpSSE serves the legacy MCP transport: a long-lived event stream
// handshaking the POST endpoint, then forwarding every subsequent event for
// the orchestrator's subscription.
func (s *Server) mcpSSE(c *gin.Context) {
	if _, err := s.dispatcher.EnsureOrchestrator(c.Request.Context()); err != nil {
		c.Error(apperrors.InternalError("failed to register orchestrator", err))
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Error(apperrors.InternalError("streaming unsupported", nil))
		return
	}

	sub := s.sessions.Subscribe(domain.OrchestratorName)
	defer sub.Close()

	setSSEHeaders(c.Writer)
	c.Status(http.StatusOK)
	writeSSEEvent(c.Writer, flusher, "endpoint", "/mcp/sse")

	ctx := c.Request.Context()
	var writeMu sync.Mutex
	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(sseHeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				writeMu.Lock()
				writeSSEComment(c.Writer, flusher, "heartbeat")
				writeMu.Unlock()
			}
		}
	}()

	for {
		evt, ok := sub.Recv(ctx)
		if !ok {
			return
		}

		data, err := marshalMCPEvent(evt)
		writeMu.Lock()
		if err != nil {
			writeSSEEvent(c.Writer, flusher, "message", `{"error":"serialization failed"}`)
		} else {
			writeSSEEvent(c.Writer, flusher, "message", string(data))
		}
		writeMu.Unlock()
	}
}

func marshalMCPEvent(evt session.Event) ([]byte, error) {
	if evt.JSONRPC != nil {
		return evt.JSONRPC, nil
	}
	notification := map[string]any{
		"jsonrpc": "2.0",
		"method":  "notifications/message",
		"params":  map[string]any{"message": evt.Message},
	}
	return json.Marshal(notification)
}

// mcpRequest handles both POST /mcp and POST /mcp/sse: the Streamable-HTTP
// MCP transport where the JSON-RPC response is written inline.
func (s *Server) mcpRequest(c *gin.Context) {
	var req jsonrpc.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, jsonrpc.ErrorResponse(nil, jsonrpc.CodeParseError, "Parse error"))
		return
	}
	c.Set(rpcMethodKey, req.Method)

	if req.IsNotification() {
		s.log.Debug("received notification", zap.String("method", req.Method))
		c.Status(http.StatusAccepted)
		return
	}
	if req.Method == "notifications/initialized" {
		c.Status(http.StatusAccepted)
		return
	}

	resp := s.dispatcher.Dispatch(c.Request.Context(), req)
	c.JSON(http.StatusOK, resp)
}
