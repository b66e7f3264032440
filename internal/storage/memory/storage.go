package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/gmscreen/initiative/internal/model"
	"github.com/gmscreen/initiative/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Serializability is trivial: one mutex is held for the whole
// transaction, so transactions never interleave.
type Storage struct {
	mu         sync.Mutex
	characters map[string]*model.Character
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		characters: make(map[string]*model.Character),
	}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// View runs fn against a snapshot of the roster
func (s *Storage) View(ctx context.Context, fn func(tx storage.ReadTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&tx{characters: s.snapshotLocked()})
}

// Update runs fn against a copy of the roster and swaps the copy in iff
// fn returns nil
func (s *Storage) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{characters: s.snapshotLocked()}
	if err := fn(t); err != nil {
		return err
	}
	s.characters = t.characters
	return nil
}

// Close is a no-op for the in-memory store
func (s *Storage) Close() error {
	return nil
}

func (s *Storage) snapshotLocked() map[string]*model.Character {
	out := make(map[string]*model.Character, len(s.characters))
	for name, c := range s.characters {
		out[name] = c.Clone()
	}
	return out
}

// tx stages mutations against a private copy of the roster
type tx struct {
	characters map[string]*model.Character
}

var _ storage.Tx = (*tx)(nil)

func (t *tx) Get(ctx context.Context, name string) (*model.Character, error) {
	c, ok := t.characters[name]
	if !ok {
		return nil, model.ErrCharacterNotFound
	}
	return c.Clone(), nil
}

// List returns the roster sorted by name, matching the other backends
func (t *tx) List(ctx context.Context) ([]*model.Character, error) {
	out := make([]*model.Character, 0, len(t.characters))
	for _, c := range t.characters {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *tx) Insert(ctx context.Context, c *model.Character) error {
	if _, ok := t.characters[c.Name]; ok {
		return model.ErrNameTaken
	}
	t.characters[c.Name] = c.Clone()
	return nil
}

func (t *tx) Update(ctx context.Context, c *model.Character) error {
	if _, ok := t.characters[c.Name]; !ok {
		return model.ErrCharacterNotFound
	}
	t.characters[c.Name] = c.Clone()
	return nil
}

func (t *tx) Rename(ctx context.Context, oldName, newName string) error {
	c, ok := t.characters[oldName]
	if !ok {
		return model.ErrCharacterNotFound
	}
	if oldName == newName {
		return nil
	}
	if _, taken := t.characters[newName]; taken {
		return model.ErrNameTaken
	}
	delete(t.characters, oldName)
	renamed := c.Clone()
	renamed.Name = newName
	t.characters[newName] = renamed
	return nil
}

func (t *tx) Delete(ctx context.Context, name string) (int64, error) {
	if _, ok := t.characters[name]; !ok {
		return 0, nil
	}
	delete(t.characters, name)
	return 1, nil
}

func (t *tx) SetTiebreak(ctx context.Context, name string, tiebreak int) error {
	c, ok := t.characters[name]
	if !ok {
		return model.ErrCharacterNotFound
	}
	tb := tiebreak
	c.Tiebreak = &tb
	return nil
}

func (t *tx) SetRolls(ctx context.Context, rolls map[string]int) error {
	for name, roll := range rolls {
		c, ok := t.characters[name]
		if !ok {
			return model.ErrCharacterNotFound
		}
		r := roll
		c.Roll = &r
	}
	return nil
}
