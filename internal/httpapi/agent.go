package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kandev/meddler/internal/apperrors"
	"github.com/kandev/meddler/internal/domain"
	"github.com/kandev/meddler/internal/session"
)

type registerAgentBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// agentRegister implements POST /agent/register: idempotent registration by name.
func (s *Server) agentRegister(c *gin.Context) {
	var body registerAgentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(apperrors.BadRequest("invalid request body"))
		return
	}

	agent, err := s.agents.Register(c.Request.Context(), domain.RegisterAgent{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		c.Error(apperrors.InternalError("registration failed", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"agent_id": agent.ID, "name": agent.Name})
}

// agentSSE implements GET /agent/sse/{name}: a worker's push stream of
// inbound messages.
func (s *Server) agentSSE(c *gin.Context) {
	name := c.Param("name")

	agent, err := s.agents.GetByName(c.Request.Context(), name)
	if err != nil {
		c.Error(apperrors.NotFound("agent", name))
		return
	}
	_ = s.agents.Touch(c.Request.Context(), agent.ID)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Error(apperrors.InternalError("streaming unsupported", nil))
		return
	}

	sub := s.sessions.Subscribe(name)
	defer sub.Close()

	setSSEHeaders(c.Writer)
	c.Status(http.StatusOK)
	writeSSEComment(c.Writer, flusher, "connected")

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
		if evt.Message == nil {
			continue
		}

		data, err := marshalMessage(evt)
		writeMu.Lock()
		if err != nil {
			writeSSEEvent(c.Writer, flusher, "message", `{"error":"serialization failed"}`)
		} else {
			writeSSEEvent(c.Writer, flusher, "message", string(data))
		}
		writeMu.Unlock()
	}
}

func marshalMessage(evt session.Event) ([]byte, error) {
	return json.Marshal(evt.Message)
}

type agentMessageBody struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	Content string  `json:"content"`
	TaskID  *string `json:"task_id"`
}

// agentMessage implements POST /agent/message: a worker-to-worker (or
// worker-to-orchestrator) relay following the persist-then-publish ordering.
func (s *Server) agentMessage(c *gin.Context) {
	var body agentMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(apperrors.BadRequest("invalid request body"))
		return
	}

	ctx := c.Request.Context()

	sender, err := s.agents.GetByName(ctx, body.From)
	if err != nil {
		c.Error(apperrors.NotFound("agent", body.From))
		return
	}
	recipient, err := s.agents.GetByName(ctx, body.To)
	if err != nil {
		c.Error(apperrors.NotFound("agent", body.To))
		return
	}

	var taskID *uuid.UUID
	if body.TaskID != nil {
		id, err := uuid.Parse(*body.TaskID)
		if err != nil {
			c.Error(apperrors.BadRequest("invalid task_id"))
			return
		}
		taskID = &id
		_ = s.tasks.MarkStarted(ctx, id)
	}

	msg, err := s.messages.CreateMessage(ctx, domain.CreateMessage{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		TaskID:      taskID,
		Content:     body.Content,
	})
	if err != nil {
		c.Error(apperrors.InternalError("failed to send message", err))
		return
	}

	delivered := s.sessions.Notify(body.To, session.AgentMessageEvent(msg))

	c.JSON(http.StatusOK, gin.H{"message_id": msg.ID, "delivered": delivered})
}
