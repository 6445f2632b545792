package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/kandev/meddler/internal/dispatch"
	"github.com/kandev/meddler/internal/logger"
	"github.com/kandev/meddler/internal/session"
	"github.com/kandev/meddler/internal/storage"
)

// Server holds the dependencies shared by every HTTP handler.
type Server struct {
	agents     storage.AgentRegistry
	messages   storage.MessageStore
	tasks      storage.TaskStore
	sessions   *session.Manager
	dispatcher *dispatch.Dispatcher
	log        *logger.Logger
}

// NewServer builds a Server over the given storage contracts, session
// manager, and dispatcher.
func NewServer(store storage.Store, sessions *session.Manager, dispatcher *dispatch.Dispatcher, log *logger.Logger) *Server {
	return &Server{
		agents:     store,
		messages:   store,
		tasks:      store,
		sessions:   sessions,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Router builds the gin engine with all middleware and routes registered. A
// permissive cross-origin policy is applied to every route.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(Recovery(s.log), RequestLogger(s.log), OtelTracing("meddler"), CORS(), ErrorHandler(s.log))

	router.GET("/health", s.health)

	router.GET("/mcp/sse", s.mcpSSE)
	router.POST("/mcp/sse", s.mcpRequest)
	router.POST("/mcp", s.mcpRequest)

	router.POST("/agent/register", s.agentRegister)
	router.GET("/agent/sse/:name", s.agentSSE)
	router.POST("/agent/message", s.agentMessage)

	return router
}
