package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gmscreen/initiative/internal/model"
	"github.com/gmscreen/initiative/internal/services/roster"
	"github.com/gmscreen/initiative/internal/services/session"
)

// Handler dispatches one request at a time for a connection: authorize,
// run the mutation, broadcast on success, acknowledge the caller. Logical
// failures are acknowledged to the caller only and never broadcast.
type Handler struct {
	gate        *session.Gate
	roster      *roster.Service
	broadcaster *Broadcaster
	logger      *slog.Logger
}

// NewHandler creates a new Handler
func NewHandler(gate *session.Gate, rosterService *roster.Service, broadcaster *Broadcaster, logger *slog.Logger) *Handler {
	return &Handler{
		gate:        gate,
		roster:      rosterService,
		broadcaster: broadcaster,
		logger:      logger.With(slog.String("component", "handler")),
	}
}

// Handle processes one raw request and returns the marshalled response
func (h *Handler) Handle(ctx context.Context, c *Client, raw []byte) []byte {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return marshalResponse(Response{OK: false, Error: "malformed request"})
	}

	resp := h.dispatch(ctx, c, req)
	resp.ID = req.ID
	return marshalResponse(resp)
}

func (h *Handler) dispatch(ctx context.Context, c *Client, req Request) Response {
	switch req.Op {
	case OpAuthenticate:
		return h.authenticate(ctx, c, req.Data)
	case OpCreate:
		return h.create(ctx, c, req.Data)
	case OpUpdate:
		return h.update(ctx, c, req.Data)
	case OpDelete:
		return h.delete(ctx, c, req.Data)
	case OpRoll:
		return h.roll(ctx, c)
	case OpRefresh:
		return h.refresh(ctx, c)
	case OpLogout:
		return h.logout(c)
	default:
		return Response{OK: false, Error: "unknown operation"}
	}
}

func (h *Handler) authenticate(ctx context.Context, c *Client, data json.RawMessage) Response {
	var in AuthenticateRequest
	if err := json.Unmarshal(data, &in); err != nil {
		return Response{OK: false, Error: "malformed request"}
	}

	role, err := h.gate.Authenticate(c.session, in.Name, in.Token)
	if err != nil {
		return fail(err)
	}

	if role == session.RoleAdmin {
		characters, order, err := h.roster.Snapshot(ctx, model.VisibilityAdmin)
		if err != nil {
			c.session.Clear()
			c.hub.Leave(c)
			return fail(err)
		}
		c.hub.Join(c, RoomGM)
		return ok(RosterSnapshot{Admin: true, Characters: characters, Order: order})
	}

	created, char, res, err := h.roster.Join(ctx, *in.Name)
	if err != nil {
		// the gate already transitioned, so drop any previous room too
		c.session.Clear()
		c.hub.Leave(c)
		return fail(err)
	}
	c.hub.Join(c, RoomPlayer)

	if created {
		h.broadcaster.CharacterCreated(char, res)
		h.pushNames(ctx)
	}
	return ok(RosterSnapshot{Admin: false, Characters: res.Visible, Order: res.VisibleOrder})
}

func (h *Handler) create(ctx context.Context, c *Client, data json.RawMessage) Response {
	var in CreateRequest
	if err := json.Unmarshal(data, &in); err != nil {
		return Response{OK: false, Error: "malformed request"}
	}

	created, res, err := h.roster.Create(ctx, c.session.Actor(), roster.CreateInput{
		Name:   in.Name,
		Dex:    in.Dex,
		Wis:    in.Wis,
		Roll:   in.Roll,
		Hidden: in.Hidden,
	})
	if err != nil {
		return fail(err)
	}

	h.broadcaster.CharacterCreated(created, res)
	return ok(created.AdminView())
}

func (h *Handler) update(ctx context.Context, c *Client, data json.RawMessage) Response {
	var in UpdateRequest
	if err := json.Unmarshal(data, &in); err != nil {
		return Response{OK: false, Error: "malformed request"}
	}

	roll, rollSet, err := in.RollValue()
	if err != nil {
		return Response{OK: false, Error: "malformed request"}
	}

	outcome, res, err := h.roster.Update(ctx, c.session.Actor(), roster.UpdateInput{
		Target:    in.Name,
		Dex:       in.Dex,
		Wis:       in.Wis,
		Roll:      roll,
		ClearRoll: rollSet && roll == nil,
		Hidden:    in.Hidden,
		Rename:    in.Rename,
	})
	if err != nil {
		return fail(err)
	}

	h.broadcaster.CharacterUpdated(in.Name, outcome, res)
	// Renames and hide transitions both change the set of login names.
	if outcome.IsPlayer && (in.Rename != nil || outcome.WasHidden != outcome.NowHidden) {
		h.pushNames(ctx)
	}
	if c.session.Admin() {
		return ok(outcome.Character.AdminView())
	}
	return ok(outcome.Character.PlayerView())
}

func (h *Handler) delete(ctx context.Context, c *Client, data json.RawMessage) Response {
	var in DeleteRequest
	if err := json.Unmarshal(data, &in); err != nil {
		return Response{OK: false, Error: "malformed request"}
	}

	if _, err := h.roster.Delete(ctx, c.session.Actor(), in.Name); err != nil {
		return fail(err)
	}

	h.broadcaster.CharacterRemoved(in.Name)
	h.pushNames(ctx)
	return ok(nil)
}

func (h *Handler) roll(ctx context.Context, c *Client) Response {
	res, err := h.roster.RollAll(ctx, c.session.Actor())
	if err != nil {
		return fail(err)
	}

	h.broadcaster.RosterRerolled(res)
	// roll is GM-only, so the caller always gets the full projection
	return ok(RosterSnapshot{Admin: true, Characters: res.Full, Order: res.FullOrder})
}

func (h *Handler) refresh(ctx context.Context, c *Client) Response {
	if !c.session.Authenticated() {
		return fail(model.ErrNotAuthenticated)
	}

	mode := model.VisibilityPlayer
	if c.session.Admin() {
		mode = model.VisibilityAdmin
	}
	characters, order, err := h.roster.Snapshot(ctx, mode)
	if err != nil {
		return fail(err)
	}
	return ok(RosterSnapshot{Admin: c.session.Admin(), Characters: characters, Order: order})
}

func (h *Handler) logout(c *Client) Response {
	c.session.Clear()
	c.hub.Leave(c)
	return ok(nil)
}

// pushNames broadcasts the current player-name roster to every
// connection. Best effort: a read failure is logged, not surfaced.
func (h *Handler) pushNames(ctx context.Context) {
	names, err := h.roster.PlayerNames(ctx)
	if err != nil {
		h.logger.Error("failed to read player names", slog.Any("error", err))
		return
	}
	h.broadcaster.NamesChanged(names)
}

// Names returns the marshalled names push for a newly opened connection
func (h *Handler) Names(ctx context.Context) ([]byte, error) {
	names, err := h.roster.PlayerNames(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Push{Push: model.PushNames, Data: model.NamesPush{Names: names}})
}

func ok(data any) Response {
	return Response{OK: true, Data: data}
}

func fail(err error) Response {
	return Response{OK: false, Error: err.Error()}
}

func marshalResponse(resp Response) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		// Response payloads are plain data; this cannot fail in practice
		return []byte(`{"ok":false,"error":"internal error"}`)
	}
	return data
}
