package model

// Stat and roll bounds, inclusive
const (
	StatMin = 1
	StatMax = 5
	RollMin = 1
	RollMax = 10
)

// Visibility selects which projection of the roster a caller sees
type Visibility string

const (
	VisibilityAdmin  Visibility = "admin"
	VisibilityPlayer Visibility = "player"
)

// Character is a roster entry. Name is the natural key, globally unique
// and case-sensitive.
type Character struct {
	Name string `json:"name"`
	Dex  int    `json:"dex"`
	Wis  int    `json:"wis"`
	// Roll is nil until the character has rolled initiative
	Roll   *int `json:"roll"`
	Hidden bool `json:"hidden"`
	// Player is true for player characters, false for NPCs. Immutable
	// after creation.
	Player bool `json:"player"`
	// Tiebreak discriminates characters sharing the same initiative and
	// roll. Only meaningful while Roll is non-nil.
	Tiebreak *int `json:"tiebreak"`
}

// Initiative returns dex + wis + roll, or nil when no roll has been made.
// Initiative is never stored; it is derived on every projection.
func (c *Character) Initiative() *int {
	if c.Roll == nil {
		return nil
	}
	v := c.Dex + c.Wis + *c.Roll
	return &v
}

// Clone returns a deep copy of the character
func (c *Character) Clone() *Character {
	out := *c
	if c.Roll != nil {
		r := *c.Roll
		out.Roll = &r
	}
	if c.Tiebreak != nil {
		t := *c.Tiebreak
		out.Tiebreak = &t
	}
	return &out
}

// CharacterView is one wire-shaped projection of a Character. The admin
// projection carries every field; the player projection of an NPC carries
// only name, player flag and initiative.
type CharacterView struct {
	Name       string `json:"name"`
	Player     bool   `json:"player"`
	Initiative *int   `json:"initiative"`
	Dex        *int   `json:"dex,omitempty"`
	Wis        *int   `json:"wis,omitempty"`
	Roll       *int   `json:"roll,omitempty"`
	Hidden     *bool  `json:"hidden,omitempty"`
}

// AdminView projects the character with every field included
func (c *Character) AdminView() CharacterView {
	dex, wis, hidden := c.Dex, c.Wis, c.Hidden
	return CharacterView{
		Name:       c.Name,
		Player:     c.Player,
		Initiative: c.Initiative(),
		Dex:        &dex,
		Wis:        &wis,
		Roll:       c.Roll,
		Hidden:     &hidden,
	}
}

// PlayerView projects the character for the player room. Player characters
// expose their stats; NPC stats are suppressed. Hidden characters must be
// dropped before projection, never shaped here.
func (c *Character) PlayerView() CharacterView {
	if !c.Player {
		return CharacterView{
			Name:       c.Name,
			Player:     false,
			Initiative: c.Initiative(),
		}
	}
	dex, wis := c.Dex, c.Wis
	return CharacterView{
		Name:       c.Name,
		Player:     true,
		Initiative: c.Initiative(),
		Dex:        &dex,
		Wis:        &wis,
		Roll:       c.Roll,
	}
}

// View projects the character for the given visibility mode
func (c *Character) View(mode Visibility) CharacterView {
	if mode == VisibilityAdmin {
		return c.AdminView()
	}
	return c.PlayerView()
}
