package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/gmscreen/initiative/internal/dependencies/mocks"
	"github.com/gmscreen/initiative/internal/model"
	"github.com/gmscreen/initiative/internal/services/session"
	"github.com/gmscreen/initiative/internal/storage/memory"
	"github.com/gmscreen/initiative/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	rnd     *mocks.MockRandom
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.rnd = mocks.NewMockRandom()
	s.service = New(memory.New(), s.rnd, testutil.NopLogger())
}

func (s *ServiceSuite) gm() session.Actor {
	return session.Actor{Admin: true}
}

func (s *ServiceSuite) player(name string) session.Actor {
	return session.Actor{Name: name}
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func (s *ServiceSuite) createNPC(name string, dex, wis int, roll *int, hidden bool) *model.Character {
	c, _, err := s.service.Create(s.ctx, s.gm(), CreateInput{
		Name: name, Dex: dex, Wis: wis, Roll: roll, Hidden: hidden,
	})
	s.Require().NoError(err)
	return c
}

// Create

func (s *ServiceSuite) TestCreateNPC() {
	c, res, err := s.service.Create(s.ctx, s.gm(), CreateInput{
		Name: "goblin", Dex: 3, Wis: 2, Roll: intPtr(7),
	})

	s.NoError(err)
	s.Equal("goblin", c.Name)
	s.False(c.Player)
	s.Equal([]string{"goblin"}, res.FullOrder)
	s.Equal([]string{"goblin"}, res.VisibleOrder)
}

func (s *ServiceSuite) TestCreateHiddenExcludedFromVisible() {
	_, res, err := s.service.Create(s.ctx, s.gm(), CreateInput{
		Name: "lurker", Dex: 2, Wis: 2, Roll: intPtr(5), Hidden: true,
	})

	s.NoError(err)
	s.Equal([]string{"lurker"}, res.FullOrder)
	s.Empty(res.VisibleOrder)
	s.Empty(res.Visible)
}

func (s *ServiceSuite) TestCreateRequiresAdmin() {
	_, _, err := s.service.Create(s.ctx, s.player("alice"), CreateInput{
		Name: "goblin", Dex: 2, Wis: 2,
	})

	s.ErrorIs(err, model.ErrPermission)
}

func (s *ServiceSuite) TestCreateDuplicateName() {
	s.createNPC("goblin", 2, 2, nil, false)

	_, _, err := s.service.Create(s.ctx, s.gm(), CreateInput{
		Name: "goblin", Dex: 3, Wis: 3,
	})

	s.ErrorIs(err, model.ErrNameTaken)
}

func (s *ServiceSuite) TestCreateValidatesStats() {
	_, _, err := s.service.Create(s.ctx, s.gm(), CreateInput{
		Name: "goblin", Dex: 6, Wis: 2,
	})
	s.ErrorIs(err, model.ErrInvalidInput)

	_, _, err = s.service.Create(s.ctx, s.gm(), CreateInput{
		Name: "goblin", Dex: 2, Wis: 0,
	})
	s.ErrorIs(err, model.ErrInvalidInput)

	_, _, err = s.service.Create(s.ctx, s.gm(), CreateInput{
		Name: "goblin", Dex: 2, Wis: 2, Roll: intPtr(11),
	})
	s.ErrorIs(err, model.ErrInvalidInput)
}

// Join

func (s *ServiceSuite) TestJoinCreatesPlayer() {
	created, c, res, err := s.service.Join(s.ctx, "alice")

	s.NoError(err)
	s.True(created)
	s.True(c.Player)
	s.Equal(model.StatMin, c.Dex)
	s.Equal(model.StatMin, c.Wis)
	s.Nil(c.Roll)
	s.Equal([]string{"alice"}, res.FullOrder)
}

func (s *ServiceSuite) TestJoinExistingIsIdempotent() {
	_, _, err := s.service.Update(s.ctx, s.player("alice"), UpdateInput{
		Target: "alice", Dex: intPtr(4),
	})
	s.ErrorIs(err, model.ErrCharacterNotFound)

	created, _, _, err := s.service.Join(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(created)

	created, c, _, err := s.service.Join(s.ctx, "alice")

	s.NoError(err)
	s.False(created)
	s.Equal("alice", c.Name)
}

func (s *ServiceSuite) TestJoinPreservesExistingStats() {
	_, _, _, err := s.service.Join(s.ctx, "alice")
	s.Require().NoError(err)
	_, _, err = s.service.Update(s.ctx, s.player("alice"), UpdateInput{
		Target: "alice", Dex: intPtr(4), Wis: intPtr(3),
	})
	s.Require().NoError(err)

	_, c, _, err := s.service.Join(s.ctx, "alice")

	s.NoError(err)
	s.Equal(4, c.Dex)
	s.Equal(3, c.Wis)
}

func (s *ServiceSuite) TestJoinEmptyName() {
	_, _, _, err := s.service.Join(s.ctx, "")

	s.ErrorIs(err, model.ErrInvalidInput)
}

// Update

func (s *ServiceSuite) TestPlayerUpdatesOwnStats() {
	_, _, _, err := s.service.Join(s.ctx, "alice")
	s.Require().NoError(err)

	out, _, err := s.service.Update(s.ctx, s.player("alice"), UpdateInput{
		Target: "alice", Dex: intPtr(5), Wis: intPtr(2),
	})

	s.NoError(err)
	s.Equal(5, out.Character.Dex)
	s.Equal(2, out.Character.Wis)
	s.True(out.IsPlayer)
}

func (s *ServiceSuite) TestPlayerCannotEditOthers() {
	s.createNPC("goblin", 2, 2, nil, false)

	_, _, err := s.service.Update(s.ctx, s.player("alice"), UpdateInput{
		Target: "goblin", Dex: intPtr(3),
	})

	s.ErrorIs(err, model.ErrPermission)
}

func (s *ServiceSuite) TestPlayerCannotSetRollOrHidden() {
	_, _, _, err := s.service.Join(s.ctx, "alice")
	s.Require().NoError(err)

	_, _, err = s.service.Update(s.ctx, s.player("alice"), UpdateInput{
		Target: "alice", Roll: intPtr(5),
	})
	s.ErrorIs(err, model.ErrPermission)

	hidden := true
	_, _, err = s.service.Update(s.ctx, s.player("alice"), UpdateInput{
		Target: "alice", Hidden: &hidden,
	})
	s.ErrorIs(err, model.ErrPermission)
}

func (s *ServiceSuite) TestAnonymousCannotUpdate() {
	s.createNPC("goblin", 2, 2, nil, false)

	_, _, err := s.service.Update(s.ctx, session.Actor{}, UpdateInput{
		Target: "goblin", Dex: intPtr(3),
	})

	s.ErrorIs(err, model.ErrNotAuthenticated)
}

func (s *ServiceSuite) TestAdminUpdatesAnyCharacter() {
	s.createNPC("goblin", 2, 2, nil, false)

	hidden := true
	out, _, err := s.service.Update(s.ctx, s.gm(), UpdateInput{
		Target: "goblin", Roll: intPtr(9), Hidden: &hidden,
	})

	s.NoError(err)
	s.Equal(9, *out.Character.Roll)
	s.True(out.NowHidden)
	s.False(out.WasHidden)
}

func (s *ServiceSuite) TestAdminClearsRoll() {
	s.createNPC("goblin", 2, 2, intPtr(9), false)
	s.createNPC("orc", 2, 2, intPtr(4), false)

	out, res, err := s.service.Update(s.ctx, s.gm(), UpdateInput{
		Target: "goblin", ClearRoll: true,
	})

	s.NoError(err)
	s.Nil(out.Character.Roll)
	// unrolled characters sort after every rolled one
	s.Equal([]string{"orc", "goblin"}, res.FullOrder)
}

func (s *ServiceSuite) TestPlayerCannotClearRoll() {
	_, _, _, err := s.service.Join(s.ctx, "alice")
	s.Require().NoError(err)

	_, _, err = s.service.Update(s.ctx, s.player("alice"), UpdateInput{
		Target: "alice", ClearRoll: true,
	})

	s.ErrorIs(err, model.ErrPermission)
}

func (s *ServiceSuite) TestUpdateHideTransitionReported() {
	s.createNPC("goblin", 2, 2, intPtr(5), true)

	hidden := false
	out, res, err := s.service.Update(s.ctx, s.gm(), UpdateInput{
		Target: "goblin", Hidden: &hidden,
	})

	s.NoError(err)
	s.True(out.WasHidden)
	s.False(out.NowHidden)
	s.Equal([]string{"goblin"}, res.VisibleOrder)
}

func (s *ServiceSuite) TestUpdateUnknownTarget() {
	_, _, err := s.service.Update(s.ctx, s.gm(), UpdateInput{
		Target: "ghost", Dex: intPtr(3),
	})

	s.ErrorIs(err, model.ErrCharacterNotFound)
}

// Rename

func (s *ServiceSuite) TestPlayerRenamesSelf() {
	_, _, _, err := s.service.Join(s.ctx, "alice")
	s.Require().NoError(err)

	out, res, err := s.service.Update(s.ctx, s.player("alice"), UpdateInput{
		Target: "alice", Rename: strPtr("alicia"),
	})

	s.NoError(err)
	s.Equal("alicia", out.Name)
	s.Equal([]string{"alicia"}, res.FullOrder)
}

func (s *ServiceSuite) TestAdminCannotRenamePlayer() {
	_, _, _, err := s.service.Join(s.ctx, "alice")
	s.Require().NoError(err)

	_, _, err = s.service.Update(s.ctx, s.gm(), UpdateInput{
		Target: "alice", Rename: strPtr("alicia"),
	})

	s.ErrorIs(err, model.ErrPermission)
}

func (s *ServiceSuite) TestAdminRenamesNPC() {
	s.createNPC("goblin", 2, 2, nil, false)

	out, _, err := s.service.Update(s.ctx, s.gm(), UpdateInput{
		Target: "goblin", Rename: strPtr("hobgoblin"),
	})

	s.NoError(err)
	s.Equal("hobgoblin", out.Name)
}

func (s *ServiceSuite) TestRenameCollision() {
	s.createNPC("goblin", 2, 2, nil, false)
	s.createNPC("orc", 2, 2, nil, false)

	_, _, err := s.service.Update(s.ctx, s.gm(), UpdateInput{
		Target: "goblin", Rename: strPtr("orc"),
	})

	s.ErrorIs(err, model.ErrNameTaken)
}

func (s *ServiceSuite) TestRenameCollisionRollsBackStatEdit() {
	s.createNPC("goblin", 2, 2, nil, false)
	s.createNPC("orc", 2, 2, nil, false)

	_, _, err := s.service.Update(s.ctx, s.gm(), UpdateInput{
		Target: "goblin", Dex: intPtr(5), Rename: strPtr("orc"),
	})
	s.Require().ErrorIs(err, model.ErrNameTaken)

	views, _, err := s.service.Snapshot(s.ctx, model.VisibilityAdmin)
	s.Require().NoError(err)
	for _, v := range views {
		if v.Name == "goblin" {
			s.Equal(2, *v.Dex)
		}
	}
}

// Delete

func (s *ServiceSuite) TestDelete() {
	s.createNPC("goblin", 2, 2, intPtr(5), false)
	s.createNPC("orc", 2, 2, intPtr(7), false)

	res, err := s.service.Delete(s.ctx, s.gm(), "goblin")

	s.NoError(err)
	s.Equal([]string{"orc"}, res.FullOrder)
}

func (s *ServiceSuite) TestDeleteRequiresAdmin() {
	s.createNPC("goblin", 2, 2, nil, false)

	_, err := s.service.Delete(s.ctx, s.player("alice"), "goblin")

	s.ErrorIs(err, model.ErrPermission)
}

func (s *ServiceSuite) TestDeleteUnknown() {
	_, err := s.service.Delete(s.ctx, s.gm(), "ghost")

	s.ErrorIs(err, model.ErrCharacterNotFound)
}

// RollAll

func (s *ServiceSuite) TestRollAllAssignsRolls() {
	s.createNPC("goblin", 2, 2, nil, false)
	s.createNPC("orc", 2, 2, nil, false)
	s.rnd.QueueIntn(4, 4) // both roll 5; same stats, so they tie
	s.rnd.QueuePerm([]int{1, 0})

	res, err := s.service.RollAll(s.ctx, s.gm())

	s.NoError(err)
	s.Len(res.Full, 2)
	for _, v := range res.Full {
		s.Require().NotNil(v.Roll)
		s.Equal(5, *v.Roll)
		s.Equal(9, *v.Initiative)
	}
	// Listing is name-ordered, so perm [1,0] hands goblin the higher
	// tiebreak.
	s.Equal([]string{"goblin", "orc"}, res.FullOrder)
}

func (s *ServiceSuite) TestRollAllRequiresAdmin() {
	_, err := s.service.RollAll(s.ctx, s.player("alice"))

	s.ErrorIs(err, model.ErrPermission)
}

func (s *ServiceSuite) TestRollAllRestartsTiebreakCycle() {
	s.createNPC("goblin", 2, 2, nil, false)
	s.createNPC("orc", 2, 2, nil, false)

	s.rnd.QueueIntn(4, 4)
	s.rnd.QueuePerm([]int{1, 0})
	res, err := s.service.RollAll(s.ctx, s.gm())
	s.Require().NoError(err)
	s.Equal([]string{"goblin", "orc"}, res.FullOrder)

	// Same rolls again, but a fresh permutation flips the pair.
	s.rnd.QueueIntn(4, 4)
	s.rnd.QueuePerm([]int{0, 1})
	res, err = s.service.RollAll(s.ctx, s.gm())
	s.Require().NoError(err)
	s.Equal([]string{"orc", "goblin"}, res.FullOrder)
}

func (s *ServiceSuite) TestTiebreakStableAcrossUnrelatedMutations() {
	s.createNPC("goblin", 2, 2, nil, false)
	s.createNPC("orc", 2, 2, nil, false)
	s.rnd.QueueIntn(4, 4)
	s.rnd.QueuePerm([]int{1, 0})
	res, err := s.service.RollAll(s.ctx, s.gm())
	s.Require().NoError(err)
	s.Equal([]string{"goblin", "orc"}, res.FullOrder)

	// An unrelated create must not reshuffle the settled tie.
	_, res, err = s.service.Create(s.ctx, s.gm(), CreateInput{
		Name: "wolf", Dex: 1, Wis: 1, Roll: intPtr(1),
	})
	s.Require().NoError(err)
	s.Equal([]string{"goblin", "orc", "wolf"}, res.FullOrder)
}

// Snapshot and names

func (s *ServiceSuite) TestSnapshotPlayerRedaction() {
	s.createNPC("goblin", 3, 2, intPtr(6), false)
	s.createNPC("lurker", 2, 2, intPtr(5), true)
	_, _, _, err := s.service.Join(s.ctx, "alice")
	s.Require().NoError(err)

	views, order, err := s.service.Snapshot(s.ctx, model.VisibilityPlayer)

	s.NoError(err)
	s.Equal([]string{"goblin", "alice"}, order)
	s.Len(views, 2)
	s.Nil(views[0].Dex) // NPC stats suppressed
	s.NotNil(views[1].Dex)
}

func (s *ServiceSuite) TestPlayerNames() {
	_, _, _, err := s.service.Join(s.ctx, "bob")
	s.Require().NoError(err)
	_, _, _, err = s.service.Join(s.ctx, "alice")
	s.Require().NoError(err)
	s.createNPC("goblin", 2, 2, nil, false)

	names, err := s.service.PlayerNames(s.ctx)

	s.NoError(err)
	s.Equal([]string{"alice", "bob"}, names)
}
