package model

// PushType identifies a server-to-client push
type PushType string

const (
	// PushCreate announces a new character plus the updated order
	PushCreate PushType = "create"
	// PushUpdate announces changed character fields plus the updated order
	PushUpdate PushType = "update"
	// PushHide tells clients to evict a character by name
	PushHide PushType = "hide"
	// PushRoll announces per-character rolls after a bulk reroll
	PushRoll PushType = "roll"
	// PushNames announces the roster of known player names
	PushNames PushType = "names"
)

// CreatePush carries a newly created character and the order it slots into
type CreatePush struct {
	Character CharacterView `json:"character"`
	Order     []string      `json:"order"`
}

// UpdatePush carries changed character fields and the updated order
type UpdatePush struct {
	Name      string        `json:"name"`
	Character CharacterView `json:"character"`
	Order     []string      `json:"order"`
}

// HidePush names a character clients must drop from their roster
type HidePush struct {
	Name string `json:"name"`
}

// CharacterRoll is one entry of a bulk reroll push. Roll is omitted for
// NPCs in the player-room shape.
type CharacterRoll struct {
	Name       string `json:"name"`
	Initiative int    `json:"initiative"`
	Roll       *int   `json:"roll,omitempty"`
}

// RollPush carries the rerolled roster in initiative order
type RollPush struct {
	Order []CharacterRoll `json:"order"`
}

// NamesPush carries the player names known to the roster, for login
// autocompletion
type NamesPush struct {
	Names []string `json:"names"`
}
