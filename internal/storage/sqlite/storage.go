// Package sqlite provides the SQLite-backed roster store
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gmscreen/initiative/internal/model"
	"github.com/gmscreen/initiative/internal/storage"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS characters (
	name     TEXT PRIMARY KEY,
	dex      INTEGER NOT NULL,
	wis      INTEGER NOT NULL,
	roll     INTEGER,
	hidden   INTEGER NOT NULL DEFAULT 0,
	player   INTEGER NOT NULL DEFAULT 0,
	tiebreak INTEGER
);
`

// Storage is a SQLite-backed implementation of the storage interface.
// Transactions open with an immediate lock, so concurrent writers
// serialize at the database layer.
type Storage struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite roster store at path
func Open(path string) (*Storage, error) {
	if path == "" {
		return nil, errors.New("storage path is required")
	}
	dsn := path + "?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Storage{db: db}, nil
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Close closes the SQLite handle
func (s *Storage) Close() error {
	return s.db.Close()
}

// View runs fn inside a read-only transaction
func (s *Storage) View(ctx context.Context, fn func(tx storage.ReadTx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return mapErr(err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	if err := fn(&tx{tx: sqlTx}); err != nil {
		return err
	}
	return mapErr(sqlTx.Commit())
}

// Update runs fn inside one immediate-lock transaction and commits iff fn
// returns nil
func (s *Storage) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	if err := fn(&tx{tx: sqlTx}); err != nil {
		return err
	}
	return mapErr(sqlTx.Commit())
}

type tx struct {
	tx *sql.Tx
}

var _ storage.Tx = (*tx)(nil)

func (t *tx) Get(ctx context.Context, name string) (*model.Character, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT name, dex, wis, roll, hidden, player, tiebreak FROM characters WHERE name = ?`, name)
	c, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrCharacterNotFound
		}
		return nil, mapErr(err)
	}
	return c, nil
}

func (t *tx) List(ctx context.Context) ([]*model.Character, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT name, dex, wis, roll, hidden, player, tiebreak FROM characters ORDER BY name`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, c)
	}
	return out, mapErr(rows.Err())
}

func (t *tx) Insert(ctx context.Context, c *model.Character) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO characters (name, dex, wis, roll, hidden, player, tiebreak) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Dex, c.Wis, nullInt(c.Roll), c.Hidden, c.Player, nullInt(c.Tiebreak))
	return mapErr(err)
}

func (t *tx) Update(ctx context.Context, c *model.Character) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE characters SET dex = ?, wis = ?, roll = ?, hidden = ?, player = ?, tiebreak = ? WHERE name = ?`,
		c.Dex, c.Wis, nullInt(c.Roll), c.Hidden, c.Player, nullInt(c.Tiebreak), c.Name)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}

func (t *tx) Rename(ctx context.Context, oldName, newName string) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE characters SET name = ? WHERE name = ?`, newName, oldName)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}

func (t *tx) Delete(ctx context.Context, name string) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM characters WHERE name = ?`, name)
	if err != nil {
		return 0, mapErr(err)
	}
	n, err := res.RowsAffected()
	return n, mapErr(err)
}

func (t *tx) SetTiebreak(ctx context.Context, name string, tiebreak int) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE characters SET tiebreak = ? WHERE name = ?`, tiebreak, name)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}

func (t *tx) SetRolls(ctx context.Context, rolls map[string]int) error {
	stmt, err := t.tx.PrepareContext(ctx, `UPDATE characters SET roll = ? WHERE name = ?`)
	if err != nil {
		return mapErr(err)
	}
	defer func() { _ = stmt.Close() }()

	for name, roll := range rolls {
		res, err := stmt.ExecContext(ctx, roll, name)
		if err != nil {
			return mapErr(err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row scanner) (*model.Character, error) {
	var c model.Character
	var roll, tiebreak sql.NullInt64
	if err := row.Scan(&c.Name, &c.Dex, &c.Wis, &roll, &c.Hidden, &c.Player, &tiebreak); err != nil {
		return nil, err
	}
	if roll.Valid {
		r := int(roll.Int64)
		c.Roll = &r
	}
	if tiebreak.Valid {
		tb := int(tiebreak.Int64)
		c.Tiebreak = &tb
	}
	return &c, nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return model.ErrCharacterNotFound
	}
	return nil
}

// mapErr translates driver errors into the storage error taxonomy
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var se *msqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return model.ErrNameTaken
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return model.ErrConflict
		}
	}
	return err
}
