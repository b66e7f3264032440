package ws

import (
	"encoding/json"
	"log/slog"

	"github.com/gmscreen/initiative/internal/model"
	"github.com/gmscreen/initiative/internal/services/roster"
)

// Broadcaster routes post-commit roster changes to the right rooms with
// the right shapes: the gm room always sees full data, the player room
// sees redacted data and only when player-visible state changed.
type Broadcaster struct {
	hub    *Hub
	logger *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hub:    hub,
		logger: logger.With(slog.String("component", "broadcaster")),
	}
}

// CharacterCreated announces a new character (NPC create or player join)
func (b *Broadcaster) CharacterCreated(c *model.Character, res *roster.Result) {
	b.emit(RoomGM, model.PushCreate, model.CreatePush{
		Character: c.AdminView(),
		Order:     res.FullOrder,
	})
	if !c.Hidden {
		b.emit(RoomPlayer, model.PushCreate, model.CreatePush{
			Character: c.PlayerView(),
			Order:     res.VisibleOrder,
		})
	}
}

// CharacterUpdated announces a stat edit. target is the name the edit
// addressed (before any rename). A visible-to-hidden transition emits a
// hide signal to the player room instead of an update, so clients evict
// the entry rather than merging a partial payload.
func (b *Broadcaster) CharacterUpdated(target string, out *roster.UpdateOutcome, res *roster.Result) {
	b.emit(RoomGM, model.PushUpdate, model.UpdatePush{
		Name:      target,
		Character: out.Character.AdminView(),
		Order:     res.FullOrder,
	})

	switch {
	case !out.NowHidden:
		b.emit(RoomPlayer, model.PushUpdate, model.UpdatePush{
			Name:      target,
			Character: out.Character.PlayerView(),
			Order:     res.VisibleOrder,
		})
	case !out.WasHidden:
		b.emit(RoomPlayer, model.PushHide, model.HidePush{Name: target})
	}
}

// CharacterRemoved announces a deletion to every connection; GM and
// player views both drop the entry
func (b *Broadcaster) CharacterRemoved(name string) {
	b.emitAll(model.PushHide, model.HidePush{Name: name})
}

// RosterRerolled announces the result of a bulk reroll
func (b *Broadcaster) RosterRerolled(res *roster.Result) {
	b.emit(RoomGM, model.PushRoll, model.RollPush{Order: rollEntries(res.Full, true)})
	b.emit(RoomPlayer, model.PushRoll, model.RollPush{Order: rollEntries(res.Visible, false)})
}

// NamesChanged announces the updated player-name roster to every
// connection, authenticated or not
func (b *Broadcaster) NamesChanged(names []string) {
	b.emitAll(model.PushNames, model.NamesPush{Names: names})
}

// rollEntries shapes an ordered projection into roll-push entries. In the
// full shape every entry carries its roll; in the redacted shape NPC
// rolls are suppressed.
func rollEntries(views []model.CharacterView, full bool) []model.CharacterRoll {
	out := make([]model.CharacterRoll, 0, len(views))
	for _, v := range views {
		if v.Initiative == nil {
			continue
		}
		entry := model.CharacterRoll{Name: v.Name, Initiative: *v.Initiative}
		if full || v.Player {
			entry.Roll = v.Roll
		}
		out = append(out, entry)
	}
	return out
}

func (b *Broadcaster) emit(room Room, push model.PushType, data any) {
	msg, err := json.Marshal(Push{Push: push, Data: data})
	if err != nil {
		b.logger.Error("failed to marshal push",
			slog.String("push", string(push)),
			slog.Any("error", err))
		return
	}
	b.hub.Broadcast(room, msg)
}

func (b *Broadcaster) emitAll(push model.PushType, data any) {
	msg, err := json.Marshal(Push{Push: push, Data: data})
	if err != nil {
		b.logger.Error("failed to marshal push",
			slog.String("push", string(push)),
			slog.Any("error", err))
		return
	}
	b.hub.BroadcastAll(msg)
}
