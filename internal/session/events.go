package session

import (
	"encoding/json"

	"github.com/kandev/meddler/internal/domain"
)

// Event is the payload fanned out to a name's subscribers. Exactly one of
// Message or JSONRPC is set; a subscribing stream filters to the variant it
// understands.
type Event struct {
	Message *domain.Message
	JSONRPC json.RawMessage
}

// AgentMessageEvent wraps a message as a session event.
func AgentMessageEvent(msg domain.Message) Event {
	return Event{Message: &msg}
}

// JSONRPCEvent wraps a raw JSON-RPC value as a session event.
func JSONRPCEvent(value json.RawMessage) Event {
	return Event{JSONRPC: value}
}
