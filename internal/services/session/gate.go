package session

import (
	"crypto/subtle"
	"log/slog"

	"github.com/gmscreen/initiative/internal/model"
)

// Role labels the outcome of a successful authentication
type Role int

const (
	// RolePlayer joins the player room
	RolePlayer Role = iota
	// RoleAdmin joins the gm room
	RoleAdmin
)

// Gate validates authentication requests and drives session transitions.
// The GM token is assumed pre-validated configuration; the gate only
// compares it.
type Gate struct {
	gmToken string
	logger  *slog.Logger
}

// NewGate creates a Gate checking against the configured GM token
func NewGate(gmToken string, logger *slog.Logger) *Gate {
	return &Gate{
		gmToken: gmToken,
		logger:  logger.With(slog.String("component", "session-gate")),
	}
}

// Authenticate applies the name-XOR-token rule to an anonymous or
// re-authenticating session. On success the session has transitioned and
// the returned role selects the room to join. On failure the session is
// left unchanged.
func (g *Gate) Authenticate(sess *Session, name, token *string) (Role, error) {
	switch {
	case name == nil && token == nil:
		return 0, model.ErrMissingCredentials
	case name != nil && token != nil:
		return 0, model.ErrConflictCredentials
	}

	if token != nil {
		if subtle.ConstantTimeCompare([]byte(*token), []byte(g.gmToken)) != 1 {
			g.logger.Warn("gm authentication rejected")
			return 0, model.ErrBadToken
		}
		sess.BecomeAdmin()
		g.logger.Info("gm authenticated")
		return RoleAdmin, nil
	}

	if err := model.ValidateName(*name); err != nil {
		return 0, err
	}
	sess.BecomePlayer(*name)
	g.logger.Info("player authenticated", slog.String("name", *name))
	return RolePlayer, nil
}
