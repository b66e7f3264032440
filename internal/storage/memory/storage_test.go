package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/gmscreen/initiative/internal/model"
	"github.com/gmscreen/initiative/internal/storage"
)

type StorageSuite struct {
	suite.Suite
	ctx     context.Context
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.ctx = context.Background()
	s.storage = New()
}

func intPtr(v int) *int {
	return &v
}

func (s *StorageSuite) insert(c *model.Character) {
	err := s.storage.Update(s.ctx, func(tx storage.Tx) error {
		return tx.Insert(s.ctx, c)
	})
	s.Require().NoError(err)
}

func (s *StorageSuite) get(name string) *model.Character {
	var out *model.Character
	err := s.storage.View(s.ctx, func(tx storage.ReadTx) error {
		var err error
		out, err = tx.Get(s.ctx, name)
		return err
	})
	s.Require().NoError(err)
	return out
}

func (s *StorageSuite) TestInsertAndGet() {
	s.insert(&model.Character{Name: "goblin", Dex: 3, Wis: 2, Roll: intPtr(7)})

	c := s.get("goblin")

	s.Equal("goblin", c.Name)
	s.Equal(3, c.Dex)
	s.Equal(7, *c.Roll)
}

func (s *StorageSuite) TestGetNotFound() {
	err := s.storage.View(s.ctx, func(tx storage.ReadTx) error {
		_, err := tx.Get(s.ctx, "ghost")
		return err
	})

	s.ErrorIs(err, model.ErrCharacterNotFound)
}

func (s *StorageSuite) TestInsertDuplicate() {
	s.insert(&model.Character{Name: "goblin", Dex: 1, Wis: 1})

	err := s.storage.Update(s.ctx, func(tx storage.Tx) error {
		return tx.Insert(s.ctx, &model.Character{Name: "goblin", Dex: 2, Wis: 2})
	})

	s.ErrorIs(err, model.ErrNameTaken)
}

func (s *StorageSuite) TestListSortedByName() {
	s.insert(&model.Character{Name: "orc", Dex: 1, Wis: 1})
	s.insert(&model.Character{Name: "goblin", Dex: 1, Wis: 1})
	s.insert(&model.Character{Name: "wolf", Dex: 1, Wis: 1})

	var names []string
	err := s.storage.View(s.ctx, func(tx storage.ReadTx) error {
		chars, err := tx.List(s.ctx)
		if err != nil {
			return err
		}
		for _, c := range chars {
			names = append(names, c.Name)
		}
		return nil
	})

	s.NoError(err)
	s.Equal([]string{"goblin", "orc", "wolf"}, names)
}

func (s *StorageSuite) TestUpdate() {
	s.insert(&model.Character{Name: "goblin", Dex: 1, Wis: 1})

	err := s.storage.Update(s.ctx, func(tx storage.Tx) error {
		return tx.Update(s.ctx, &model.Character{Name: "goblin", Dex: 4, Wis: 3})
	})

	s.NoError(err)
	s.Equal(4, s.get("goblin").Dex)
}

func (s *StorageSuite) TestUpdateNotFound() {
	err := s.storage.Update(s.ctx, func(tx storage.Tx) error {
		return tx.Update(s.ctx, &model.Character{Name: "ghost"})
	})

	s.ErrorIs(err, model.ErrCharacterNotFound)
}

func (s *StorageSuite) TestRename() {
	s.insert(&model.Character{Name: "goblin", Dex: 2, Wis: 2, Roll: intPtr(5)})

	err := s.storage.Update(s.ctx, func(tx storage.Tx) error {
		return tx.Rename(s.ctx, "goblin", "hobgoblin")
	})

	s.NoError(err)
	c := s.get("hobgoblin")
	s.Equal("hobgoblin", c.Name)
	s.Equal(5, *c.Roll)

	err = s.storage.View(s.ctx, func(tx storage.ReadTx) error {
		_, err := tx.Get(s.ctx, "goblin")
		return err
	})
	s.ErrorIs(err, model.ErrCharacterNotFound)
}

func (s *StorageSuite) TestRenameCollision() {
	s.insert(&model.Character{Name: "goblin"})
	s.insert(&model.Character{Name: "orc"})

	err := s.storage.Update(s.ctx, func(tx storage.Tx) error {
		return tx.Rename(s.ctx, "goblin", "orc")
	})

	s.ErrorIs(err, model.ErrNameTaken)
}

func (s *StorageSuite) TestRenameToSameName() {
	s.insert(&model.Character{Name: "goblin", Dex: 2, Wis: 2, Roll: intPtr(5)})

	err := s.storage.Update(s.ctx, func(tx storage.Tx) error {
		return tx.Rename(s.ctx, "goblin", "goblin")
	})

	s.NoError(err)
	c := s.get("goblin")
	s.Equal(5, *c.Roll)
}

func (s *StorageSuite) TestDelete() {
	s.insert(&model.Character{Name: "goblin"})

	var n int64
	err := s.storage.Update(s.ctx, func(tx storage.Tx) error {
		var err error
		n, err = tx.Delete(s.ctx, "goblin")
		return err
	})

	s.NoError(err)
	s.Equal(int64(1), n)
}

func (s *StorageSuite) TestDeleteMissingRowCount() {
	var n int64
	err := s.storage.Update(s.ctx, func(tx storage.Tx) error {
		var err error
		n, err = tx.Delete(s.ctx, "ghost")
		return err
	})

	s.NoError(err)
	s.Equal(int64(0), n)
}

func (s *StorageSuite) TestSetTiebreakAndRolls() {
	s.insert(&model.Character{Name: "goblin", Roll: intPtr(5)})
	s.insert(&model.Character{Name: "orc", Roll: intPtr(5)})

	err := s.storage.Update(s.ctx, func(tx storage.Tx) error {
		if err := tx.SetTiebreak(s.ctx, "goblin", 1); err != nil {
			return err
		}
		return tx.SetRolls(s.ctx, map[string]int{"goblin": 8, "orc": 3})
	})

	s.NoError(err)
	s.Equal(1, *s.get("goblin").Tiebreak)
	s.Equal(8, *s.get("goblin").Roll)
	s.Equal(3, *s.get("orc").Roll)
}

func (s *StorageSuite) TestFailedTransactionRollsBack() {
	s.insert(&model.Character{Name: "goblin", Dex: 1, Wis: 1})

	boom := errors.New("boom")
	err := s.storage.Update(s.ctx, func(tx storage.Tx) error {
		if err := tx.Update(s.ctx, &model.Character{Name: "goblin", Dex: 5, Wis: 5}); err != nil {
			return err
		}
		return boom
	})

	s.ErrorIs(err, boom)
	s.Equal(1, s.get("goblin").Dex)
}

func (s *StorageSuite) TestTransactionReadsOwnWrites() {
	err := s.storage.Update(s.ctx, func(tx storage.Tx) error {
		if err := tx.Insert(s.ctx, &model.Character{Name: "goblin"}); err != nil {
			return err
		}
		c, err := tx.Get(s.ctx, "goblin")
		if err != nil {
			return err
		}
		s.Equal("goblin", c.Name)

		chars, err := tx.List(s.ctx)
		if err != nil {
			return err
		}
		s.Len(chars, 1)
		return nil
	})

	s.NoError(err)
}
