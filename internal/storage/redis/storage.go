package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gmscreen/initiative/internal/model"
	"github.com/gmscreen/initiative/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Transactions are optimistic: the roster hash is WATCHed, writes are
// buffered and applied in one MULTI/EXEC, and a concurrent write between
// the watch and the exec surfaces as model.ErrConflict without retry.
type Storage struct {
	client *redis.Client
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{client: client}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client) *Storage {
	return &Storage{client: client}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// View runs fn against a point-in-time load of the roster
func (s *Storage) View(ctx context.Context, fn func(tx storage.ReadTx) error) error {
	chars, err := loadCharacters(ctx, s.client)
	if err != nil {
		return err
	}
	return fn(&tx{chars: chars})
}

// Update loads the roster under WATCH, runs fn against an overlay that
// observes its own writes, and flushes the buffered writes in one
// MULTI/EXEC
func (s *Storage) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
		chars, err := loadCharacters(ctx, rtx)
		if err != nil {
			return err
		}

		t := &tx{
			chars:   chars,
			dirty:   make(map[string]bool),
			deleted: make(map[string]bool),
		}
		if err := fn(t); err != nil {
			return err
		}

		_, err = rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return t.flush(ctx, pipe)
		})
		return err
	}, charactersKey())

	if errors.Is(err, redis.TxFailedErr) {
		return model.ErrConflict
	}
	return err
}

func loadCharacters(ctx context.Context, c redis.Cmdable) (map[string]*model.Character, error) {
	fields, err := c.HGetAll(ctx, charactersKey()).Result()
	if err != nil {
		return nil, err
	}
	chars := make(map[string]*model.Character, len(fields))
	for name, data := range fields {
		var char model.Character
		if err := json.Unmarshal([]byte(data), &char); err != nil {
			return nil, err
		}
		chars[name] = &char
	}
	return chars, nil
}

// tx overlays buffered mutations on the loaded roster so the transaction
// reads its own writes before they reach Redis
type tx struct {
	chars   map[string]*model.Character
	dirty   map[string]bool
	deleted map[string]bool
}

var _ storage.Tx = (*tx)(nil)

func (t *tx) Get(ctx context.Context, name string) (*model.Character, error) {
	c, ok := t.chars[name]
	if !ok {
		return nil, model.ErrCharacterNotFound
	}
	return c.Clone(), nil
}

// List returns the roster sorted by name, matching the other backends
func (t *tx) List(ctx context.Context) ([]*model.Character, error) {
	out := make([]*model.Character, 0, len(t.chars))
	for _, c := range t.chars {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *tx) Insert(ctx context.Context, c *model.Character) error {
	if _, ok := t.chars[c.Name]; ok {
		return model.ErrNameTaken
	}
	t.put(c)
	return nil
}

func (t *tx) Update(ctx context.Context, c *model.Character) error {
	if _, ok := t.chars[c.Name]; !ok {
		return model.ErrCharacterNotFound
	}
	t.put(c)
	return nil
}

func (t *tx) Rename(ctx context.Context, oldName, newName string) error {
	c, ok := t.chars[oldName]
	if !ok {
		return model.ErrCharacterNotFound
	}
	if oldName == newName {
		return nil
	}
	if _, taken := t.chars[newName]; taken {
		return model.ErrNameTaken
	}
	delete(t.chars, oldName)
	delete(t.dirty, oldName)
	t.deleted[oldName] = true

	renamed := c.Clone()
	renamed.Name = newName
	t.put(renamed)
	return nil
}

func (t *tx) Delete(ctx context.Context, name string) (int64, error) {
	if _, ok := t.chars[name]; !ok {
		return 0, nil
	}
	delete(t.chars, name)
	delete(t.dirty, name)
	t.deleted[name] = true
	return 1, nil
}

func (t *tx) SetTiebreak(ctx context.Context, name string, tiebreak int) error {
	c, ok := t.chars[name]
	if !ok {
		return model.ErrCharacterNotFound
	}
	tb := tiebreak
	c.Tiebreak = &tb
	t.dirty[name] = true
	return nil
}

func (t *tx) SetRolls(ctx context.Context, rolls map[string]int) error {
	for name, roll := range rolls {
		c, ok := t.chars[name]
		if !ok {
			return model.ErrCharacterNotFound
		}
		r := roll
		c.Roll = &r
		t.dirty[name] = true
	}
	return nil
}

func (t *tx) put(c *model.Character) {
	t.chars[c.Name] = c.Clone()
	t.dirty[c.Name] = true
	delete(t.deleted, c.Name)
}

// flush applies the buffered writes to the pipeline
func (t *tx) flush(ctx context.Context, pipe redis.Pipeliner) error {
	for name := range t.deleted {
		pipe.HDel(ctx, charactersKey(), name)
	}
	for name := range t.dirty {
		data, err := json.Marshal(t.chars[name])
		if err != nil {
			return err
		}
		pipe.HSet(ctx, charactersKey(), name, data)
	}
	return nil
}
