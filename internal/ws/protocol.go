// Package ws carries the request/response contract over a bidirectional
// WebSocket: JSON request envelopes with client-assigned ids, one
// response per request, and room-routed server pushes.
package ws

import (
	"encoding/json"

	"github.com/gmscreen/initiative/internal/model"
)

// Op identifies a client-requested operation
type Op string

const (
	OpAuthenticate Op = "authenticate"
	OpCreate       Op = "create"
	OpUpdate       Op = "update"
	OpDelete       Op = "delete"
	OpRoll         Op = "roll"
	OpRefresh      Op = "refresh"
	OpLogout       Op = "logout"
)

// Request is the client-to-server envelope. The id is echoed on the
// response so callers can hold one in-flight outcome per request.
type Request struct {
	ID   int64           `json:"id"`
	Op   Op              `json:"op"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Response is the server-to-client acknowledgment envelope
type Response struct {
	ID    int64  `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// Push is the server-to-client broadcast envelope
type Push struct {
	Push model.PushType `json:"push"`
	Data any            `json:"data"`
}

// AuthenticateRequest carries exactly one of a player name or the GM token
type AuthenticateRequest struct {
	Name  *string `json:"name,omitempty"`
	Token *string `json:"token,omitempty"`
}

// RosterSnapshot is the successful result of authenticate and refresh
type RosterSnapshot struct {
	Admin      bool                  `json:"admin"`
	Characters []model.CharacterView `json:"characters"`
	Order      []string              `json:"order"`
}

// CreateRequest is the payload of an NPC create
type CreateRequest struct {
	Name   string `json:"name"`
	Dex    int    `json:"dex"`
	Wis    int    `json:"wis"`
	Roll   *int   `json:"roll"`
	Hidden bool   `json:"hidden"`
}

// UpdateRequest is the payload of a stat edit; absent fields are left
// untouched. Roll is raw so the wire can tell an absent roll from an
// explicit null, which clears it. Rename carries the new name.
type UpdateRequest struct {
	Name   string          `json:"name"`
	Dex    *int            `json:"dex,omitempty"`
	Wis    *int            `json:"wis,omitempty"`
	Roll   json.RawMessage `json:"roll,omitempty"`
	Hidden *bool           `json:"hidden,omitempty"`
	Rename *string         `json:"rename,omitempty"`
}

// RollValue decodes the tri-state roll field: (nil, false) when absent,
// (nil, true) for an explicit null, (value, true) otherwise.
func (r UpdateRequest) RollValue() (*int, bool, error) {
	if len(r.Roll) == 0 {
		return nil, false, nil
	}
	var v *int
	if err := json.Unmarshal(r.Roll, &v); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// DeleteRequest names the character to remove
type DeleteRequest struct {
	Name string `json:"name"`
}
