package storage

import (
	"context"

	"github.com/gmscreen/initiative/internal/model"
)

// ReadTx exposes the read primitives available inside a transaction
type ReadTx interface {
	// Get point-reads a character by name.
	// Returns model.ErrCharacterNotFound if absent.
	Get(ctx context.Context, name string) (*model.Character, error)

	// List scans the full roster, ordered by name. The resolver relies
	// on every backend producing the same scan order.
	List(ctx context.Context) ([]*model.Character, error)
}

// Tx exposes the write primitives available inside an Update transaction.
// Reads observe writes made earlier in the same transaction.
type Tx interface {
	ReadTx

	// Insert adds a character. Returns model.ErrNameTaken if the name
	// already exists.
	Insert(ctx context.Context, c *model.Character) error

	// Update overwrites the character stored under c.Name.
	// Returns model.ErrCharacterNotFound if absent.
	Update(ctx context.Context, c *model.Character) error

	// Rename moves a character to a new name. Returns
	// model.ErrCharacterNotFound if oldName is absent and
	// model.ErrNameTaken if newName is already in use. Renaming a
	// character to its current name succeeds without change.
	Rename(ctx context.Context, oldName, newName string) error

	// Delete removes a character by name, returning the number of rows
	// affected (zero when the name was absent).
	Delete(ctx context.Context, name string) (int64, error)

	// SetTiebreak persists a tiebreak value for a character
	SetTiebreak(ctx context.Context, name string, tiebreak int) error

	// SetRolls bulk-assigns rolls by character name
	SetRolls(ctx context.Context, rolls map[string]int) error
}

// Store is the durable roster store. All cross-request exclusion is
// delegated to its transaction mechanism; there are no in-process locks
// above this interface.
type Store interface {
	// View runs fn inside a read-only transaction
	View(ctx context.Context, fn func(tx ReadTx) error) error

	// Update runs fn inside one serializable transaction. The writes fn
	// makes are committed iff fn returns nil; any error rolls the whole
	// transaction back. A serialization conflict surfaces as
	// model.ErrConflict and is not retried.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the underlying connection
	Close() error
}
