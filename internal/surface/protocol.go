// Package surface bridges the browser search panel to a search session over
// a websocket, and serves the panel itself.
package surface

import (
	"github.com/VelixarAi/velixar-client/client"
	"github.com/VelixarAi/velixar-client/internal/search"
)

// Inbound message types (panel to core).
const (
	TypeSearch = "search"
	TypeCopy   = "copy"
	TypeInsert = "insert"
	TypeOpen   = "open"
)

// Outbound message types (core to panel).
const (
	TypeResults     = "results"
	TypeError       = "error"
	TypePlaceholder = "placeholder"
)

// Inbound is a message from the panel. Actions carry the full content; ID
// is accepted instead and resolved against the rendered results.
type Inbound struct {
	Type    string `json:"type"`
	Query   string `json:"query,omitempty"`
	Content string `json:"content,omitempty"`
	ID      string `json:"id,omitempty"`
}

// Results is the payload of a results message.
type Results struct {
	Memories []client.Memory `json:"memories"`
	Count    int             `json:"count"`
}

// Outbound is a message to the panel.
type Outbound struct {
	Type    string   `json:"type"`
	Data    *Results `json:"data,omitempty"`
	Message string   `json:"message,omitempty"`
}

// FromUpdate maps a session update onto the wire.
func FromUpdate(u search.Update) Outbound {
	switch u.Kind {
	case search.UpdateResults:
		mems := u.Memories
		if mems == nil {
			mems = []client.Memory{}
		}
		return Outbound{Type: TypeResults, Data: &Results{Memories: mems, Count: u.Count}}
	case search.UpdateError:
		return Outbound{Type: TypeError, Message: u.Message}
	default:
		return Outbound{Type: TypePlaceholder, Message: u.Message}
	}
}
