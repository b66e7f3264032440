// Package roster implements the mutation coordinator: every
// roster-changing operation runs inside one store transaction that
// performs the write, re-reads the roster, resolves tiebreaks and
// recomputes both order projections before committing.
package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/gmscreen/initiative/internal/dependencies/random"
	"github.com/gmscreen/initiative/internal/initiative"
	"github.com/gmscreen/initiative/internal/model"
	"github.com/gmscreen/initiative/internal/services/session"
	"github.com/gmscreen/initiative/internal/storage"
)

// Service coordinates roster mutations
type Service struct {
	storage storage.Store
	rnd     random.Random
	logger  *slog.Logger
}

// New creates a new roster service
func New(store storage.Store, rnd random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: store,
		rnd:     rnd,
		logger:  logger.With(slog.String("component", "roster")),
	}
}

// Result carries both post-mutation projections of the roster
type Result struct {
	Full         []model.CharacterView
	FullOrder    []string
	Visible      []model.CharacterView
	VisibleOrder []string
}

// CreateInput is the payload of an NPC create
type CreateInput struct {
	Name   string
	Dex    int
	Wis    int
	Roll   *int
	Hidden bool
}

// Create inserts an NPC. Admin only.
func (s *Service) Create(ctx context.Context, actor session.Actor, in CreateInput) (*model.Character, *Result, error) {
	if !actor.Admin {
		return nil, nil, fmt.Errorf("%w: only the GM may create characters", model.ErrPermission)
	}
	if err := validateCreate(in); err != nil {
		return nil, nil, err
	}

	c := &model.Character{
		Name:   in.Name,
		Dex:    in.Dex,
		Wis:    in.Wis,
		Roll:   cloneInt(in.Roll),
		Hidden: in.Hidden,
		Player: false,
	}

	var res *Result
	err := s.storage.Update(ctx, func(tx storage.Tx) error {
		if err := tx.Insert(ctx, c); err != nil {
			return err
		}
		var err error
		res, err = s.recompute(ctx, tx, false)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("character created",
		slog.String("name", in.Name),
		slog.Bool("hidden", in.Hidden),
	)
	return c, res, nil
}

// Join creates the self-row for an authenticating player. Joining an
// existing name is a no-op create, so rejoining never duplicates. The
// returned character is the row the player now acts as.
func (s *Service) Join(ctx context.Context, name string) (bool, *model.Character, *Result, error) {
	if err := model.ValidateName(name); err != nil {
		return false, nil, nil, err
	}

	created := false
	var char *model.Character
	var res *Result
	err := s.storage.Update(ctx, func(tx storage.Tx) error {
		created = false
		c := &model.Character{
			Name:   name,
			Dex:    model.StatMin,
			Wis:    model.StatMin,
			Hidden: false,
			Player: true,
		}
		err := tx.Insert(ctx, c)
		switch {
		case err == nil:
			created = true
			char = c
		case errors.Is(err, model.ErrNameTaken):
			// already on the roster; reuse the row
			existing, err := tx.Get(ctx, name)
			if err != nil {
				return err
			}
			char = existing
		default:
			return err
		}
		res, err = s.recompute(ctx, tx, false)
		return err
	})
	if err != nil {
		return false, nil, nil, err
	}

	if created {
		s.logger.Info("player joined", slog.String("name", name))
	}
	return created, char, res, nil
}

// UpdateInput is the payload of a stat edit. Every field is optional;
// only provided fields are applied. Roll and Hidden require the GM role,
// as does ClearRoll, which resets the roll to unrolled.
// Rename carries the new name.
type UpdateInput struct {
	Target    string
	Dex       *int
	Wis       *int
	Roll      *int
	ClearRoll bool
	Hidden    *bool
	Rename    *string
}

// UpdateOutcome describes the applied edit so the broadcast router can
// pick shapes and rooms
type UpdateOutcome struct {
	// Name is the character's name after the edit (rename applied)
	Name      string
	WasHidden bool
	NowHidden bool
	IsPlayer  bool
	// Character is the character's full post-edit state
	Character *model.Character
}

// Update applies a stat edit and/or rename to one character
func (s *Service) Update(ctx context.Context, actor session.Actor, in UpdateInput) (*UpdateOutcome, *Result, error) {
	if err := authorizeUpdate(actor, in); err != nil {
		return nil, nil, err
	}
	if err := validateUpdate(in); err != nil {
		return nil, nil, err
	}

	var outcome *UpdateOutcome
	var res *Result
	err := s.storage.Update(ctx, func(tx storage.Tx) error {
		original, err := tx.Get(ctx, in.Target)
		if err != nil {
			return err
		}

		// rename ownership: a player character may only be renamed by
		// its own connection, never by the GM acting from outside it
		if in.Rename != nil && original.Player && actor.Name != in.Target {
			return fmt.Errorf("%w: only %s may rename this character", model.ErrPermission, in.Target)
		}

		c := original.Clone()
		if in.Dex != nil {
			c.Dex = *in.Dex
		}
		if in.Wis != nil {
			c.Wis = *in.Wis
		}
		switch {
		case in.ClearRoll:
			c.Roll = nil
			c.Tiebreak = nil
		case in.Roll != nil:
			c.Roll = cloneInt(in.Roll)
		}
		if in.Hidden != nil {
			c.Hidden = *in.Hidden
		}
		if err := tx.Update(ctx, c); err != nil {
			return err
		}
		if in.Rename != nil {
			if err := tx.Rename(ctx, in.Target, *in.Rename); err != nil {
				return err
			}
			c.Name = *in.Rename
		}

		outcome = &UpdateOutcome{
			Name:      c.Name,
			WasHidden: original.Hidden,
			NowHidden: c.Hidden,
			IsPlayer:  c.Player,
			Character: c,
		}

		res, err = s.recompute(ctx, tx, false)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("character updated",
		slog.String("name", in.Target),
		slog.Bool("renamed", in.Rename != nil),
	)
	return outcome, res, nil
}

// Delete removes a character by name. Admin only.
func (s *Service) Delete(ctx context.Context, actor session.Actor, name string) (*Result, error) {
	if !actor.Admin {
		return nil, fmt.Errorf("%w: only the GM may delete a character", model.ErrPermission)
	}

	var res *Result
	err := s.storage.Update(ctx, func(tx storage.Tx) error {
		n, err := tx.Delete(ctx, name)
		if err != nil {
			return err
		}
		if n == 0 {
			return model.ErrCharacterNotFound
		}
		res, err = s.recompute(ctx, tx, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("character deleted", slog.String("name", name))
	return res, nil
}

// RollAll assigns every character a fresh uniform roll and starts a new
// tiebreak cycle. Admin only.
func (s *Service) RollAll(ctx context.Context, actor session.Actor) (*Result, error) {
	if !actor.Admin {
		return nil, fmt.Errorf("%w: only the GM may force a reroll", model.ErrPermission)
	}

	var res *Result
	err := s.storage.Update(ctx, func(tx storage.Tx) error {
		chars, err := tx.List(ctx)
		if err != nil {
			return err
		}
		rolls := make(map[string]int, len(chars))
		for _, c := range chars {
			rolls[c.Name] = model.RollMin + s.rnd.Intn(model.RollMax-model.RollMin+1)
		}
		if err := tx.SetRolls(ctx, rolls); err != nil {
			return err
		}
		res, err = s.recompute(ctx, tx, true)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("roster rerolled", slog.Int("characters", len(res.FullOrder)))
	return res, nil
}

// Snapshot reads the current projection for a visibility mode without
// mutating anything. This backs authenticate and refresh.
func (s *Service) Snapshot(ctx context.Context, mode model.Visibility) ([]model.CharacterView, []string, error) {
	var views []model.CharacterView
	var order []string
	err := s.storage.View(ctx, func(tx storage.ReadTx) error {
		chars, err := tx.List(ctx)
		if err != nil {
			return err
		}
		views, order = initiative.Order(chars, mode)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return views, order, nil
}

// PlayerNames returns the sorted names of non-hidden player characters,
// for login autocompletion
func (s *Service) PlayerNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.storage.View(ctx, func(tx storage.ReadTx) error {
		chars, err := tx.List(ctx)
		if err != nil {
			return err
		}
		for _, c := range chars {
			if c.Player && !c.Hidden {
				names = append(names, c.Name)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// recompute re-reads the roster, persists tiebreak resolutions for tied
// groups and derives both order projections. Must run inside the same
// transaction as the mutation so concurrent rerolls cannot persist
// conflicting tiebreaks.
func (s *Service) recompute(ctx context.Context, tx storage.Tx, force bool) (*Result, error) {
	chars, err := tx.List(ctx)
	if err != nil {
		return nil, err
	}

	resolutions := initiative.ResolveTiebreaks(chars, s.rnd, force)
	if len(resolutions) > 0 {
		byName := make(map[string]*model.Character, len(chars))
		for _, c := range chars {
			byName[c.Name] = c
		}
		for _, r := range resolutions {
			if err := tx.SetTiebreak(ctx, r.Name, r.Value); err != nil {
				return nil, err
			}
			tb := r.Value
			byName[r.Name].Tiebreak = &tb
		}
	}

	full, fullOrder := initiative.Order(chars, model.VisibilityAdmin)
	visible, visibleOrder := initiative.Order(chars, model.VisibilityPlayer)
	return &Result{
		Full:         full,
		FullOrder:    fullOrder,
		Visible:      visible,
		VisibleOrder: visibleOrder,
	}, nil
}

// authorizeUpdate applies the role rules: non-admins may only touch their
// own character and never its hidden or roll fields
func authorizeUpdate(actor session.Actor, in UpdateInput) error {
	if actor.Admin {
		return nil
	}
	if actor.Name == "" {
		return model.ErrNotAuthenticated
	}
	if in.Target != actor.Name {
		return fmt.Errorf("%w: you may only edit your own character", model.ErrPermission)
	}
	if in.Hidden != nil || in.Roll != nil || in.ClearRoll {
		return fmt.Errorf("%w: only the GM may change these fields", model.ErrPermission)
	}
	return nil
}

func validateCreate(in CreateInput) error {
	if err := model.ValidateName(in.Name); err != nil {
		return err
	}
	if err := model.ValidateDex(in.Dex); err != nil {
		return err
	}
	if err := model.ValidateWis(in.Wis); err != nil {
		return err
	}
	return model.ValidateRoll(in.Roll)
}

func validateUpdate(in UpdateInput) error {
	if err := model.ValidateName(in.Target); err != nil {
		return err
	}
	if in.Dex != nil {
		if err := model.ValidateDex(*in.Dex); err != nil {
			return err
		}
	}
	if in.Wis != nil {
		if err := model.ValidateWis(*in.Wis); err != nil {
			return err
		}
	}
	if in.Roll != nil {
		if err := model.ValidateRoll(in.Roll); err != nil {
			return err
		}
	}
	if in.Rename != nil {
		if err := model.ValidateName(*in.Rename); err != nil {
			return err
		}
	}
	return nil
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
