// Package session holds the per-connection authorization state machine
// and the gate that validates authentication requests against it.
package session

// State is the authorization state of a single connection
type State int

const (
	// Anonymous connections may only authenticate
	Anonymous State = iota
	// PlayerAuthenticated connections act on behalf of one named character
	PlayerAuthenticated
	// AdminAuthenticated connections hold the GM role
	AdminAuthenticated
)

// Session is the non-persisted state of one connection. It is only ever
// touched from that connection's event loop, so it carries no lock.
type Session struct {
	state State
	name  string
}

// New creates an anonymous session
func New() *Session {
	return &Session{state: Anonymous}
}

// State returns the current authorization state
func (s *Session) State() State {
	return s.state
}

// Admin reports whether the connection holds the GM role
func (s *Session) Admin() bool {
	return s.state == AdminAuthenticated
}

// Authenticated reports whether the connection may issue reads
func (s *Session) Authenticated() bool {
	return s.state != Anonymous
}

// Name returns the player name bound to the connection, or "" for
// anonymous and admin connections
func (s *Session) Name() string {
	return s.name
}

// Actor snapshots the session into the identity mutations are authorized
// against
func (s *Session) Actor() Actor {
	return Actor{Admin: s.Admin(), Name: s.name}
}

// BecomePlayer transitions to PlayerAuthenticated(name)
func (s *Session) BecomePlayer(name string) {
	s.state = PlayerAuthenticated
	s.name = name
}

// BecomeAdmin transitions to AdminAuthenticated
func (s *Session) BecomeAdmin() {
	s.state = AdminAuthenticated
	s.name = ""
}

// Clear returns the session to Anonymous. Used on logout and disconnect.
func (s *Session) Clear() {
	s.state = Anonymous
	s.name = ""
}

// Actor is the identity a mutation is performed as
type Actor struct {
	Admin bool
	Name  string
}
