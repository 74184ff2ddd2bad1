package simulation

import (
	"fmt"

	"github.com/lox/oddsengine/internal/deck"
	"github.com/lox/oddsengine/internal/profile"
)

// Request-builder methods. They mutate the pending configuration and
// are only legal while the simulator is idle; once Start has been
// called every mutator fails with ErrIllegalState.

// Community card slots: 0-2 flop, 3 turn, 4 river.
const (
	slotTurn  = 3
	slotRiver = 4
)

// AddPlayer adds a player to the simulation. An exact-cards profile
// must hold the variant's hole-card count and may not reuse a card
// already fixed elsewhere. A 100% range profile is stored as a random
// profile, so downstream code never special-cases the full range.
func (s *Simulator) AddPlayer(p *profile.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureIdle(); err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: nil player profile", ErrInvalidInput)
	}

	switch p.Kind() {
	case profile.KindExactCards:
		cards := p.Cards()
		if len(cards) != s.variant.HoleCards() {
			return fmt.Errorf("%w: %s requires %d hole cards, got %d",
				ErrInvalidInput, s.variant, s.variant.HoleCards(), len(cards))
		}
		var seen deck.Set
		for _, c := range cards {
			if seen.Contains(c) {
				return fmt.Errorf("%w: %s repeated within hand", ErrCardConflict, c)
			}
			seen.Add(c)
			if s.cardInProfiles(c) || s.cardInCommunity(c) {
				return fmt.Errorf("%w: %s already in use", ErrCardConflict, c)
			}
		}

	case profile.KindRange:
		pct := p.Percentage()
		if pct <= 0 || pct > 100 {
			return fmt.Errorf("%w: range percentage must be 1-100, got %d", ErrInvalidInput, pct)
		}
		if s.variant != HoldEm {
			return fmt.Errorf("%w: range profiles are only supported for hold'em", ErrInvalidInput)
		}
		if pct == 100 {
			s.profiles = append(s.profiles, profile.Random())
			return nil
		}
	}

	s.profiles = append(s.profiles, p)
	return nil
}

// RemovePlayer removes one registration of the given profile, matched
// by identity. Returns false if the profile was never added or the run
// has already started.
func (s *Simulator) RemovePlayer(p *profile.Profile) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil || s.State() != StateIdle {
		return false
	}
	for i, existing := range s.profiles {
		if existing == p {
			s.profiles = append(s.profiles[:i], s.profiles[i+1:]...)
			return true
		}
	}
	return false
}

// Players returns the current seat-ordered player profiles.
func (s *Simulator) Players() []*profile.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*profile.Profile, len(s.profiles))
	copy(out, s.profiles)
	return out
}

// SetFlop sets the three flop cards, replacing any previous flop.
func (s *Simulator) SetFlop(cards []deck.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureIdle(); err != nil {
		return err
	}
	if len(cards) != 3 {
		return fmt.Errorf("%w: flop must have exactly 3 cards, got %d", ErrInvalidInput, len(cards))
	}

	var seen deck.Set
	for _, c := range cards {
		if seen.Contains(c) {
			return fmt.Errorf("%w: %s repeated within flop", ErrCardConflict, c)
		}
		seen.Add(c)
		if s.cardInProfiles(c) {
			return fmt.Errorf("%w: %s already in use", ErrCardConflict, c)
		}
		if s.slotEquals(slotTurn, c) || s.slotEquals(slotRiver, c) {
			return fmt.Errorf("%w: %s already in use", ErrCardConflict, c)
		}
	}

	for i := 0; i < 3; i++ {
		card := cards[i]
		s.community[i] = &card
	}
	return nil
}

// ClearFlop removes all three flop cards. It does not cascade-clear the
// turn or river; the sequencing invariant is re-checked at Start.
func (s *Simulator) ClearFlop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureIdle(); err != nil {
		return err
	}
	s.community[0], s.community[1], s.community[2] = nil, nil, nil
	return nil
}

// SetTurn sets the turn card.
func (s *Simulator) SetTurn(card deck.Card) error {
	return s.setSingle(slotTurn, card)
}

// ClearTurn removes the turn card.
func (s *Simulator) ClearTurn() error {
	return s.clearSingle(slotTurn)
}

// SetRiver sets the river card.
func (s *Simulator) SetRiver(card deck.Card) error {
	return s.setSingle(slotRiver, card)
}

// ClearRiver removes the river card.
func (s *Simulator) ClearRiver() error {
	return s.clearSingle(slotRiver)
}

// Board returns the currently set community cards in dealing order.
func (s *Simulator) Board() []deck.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boardCards()
}

func (s *Simulator) setSingle(slot int, card deck.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureIdle(); err != nil {
		return err
	}
	if s.cardInProfiles(card) || s.cardInCommunity(card) {
		return fmt.Errorf("%w: %s already in use", ErrCardConflict, card)
	}
	s.community[slot] = &card
	return nil
}

func (s *Simulator) clearSingle(slot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureIdle(); err != nil {
		return err
	}
	s.community[slot] = nil
	return nil
}

func (s *Simulator) ensureIdle() error {
	if s.State() != StateIdle {
		return fmt.Errorf("%w: configuration is frozen once the run starts", ErrIllegalState)
	}
	return nil
}

func (s *Simulator) cardInProfiles(card deck.Card) bool {
	for _, p := range s.profiles {
		if p.Kind() != profile.KindExactCards {
			continue
		}
		for _, c := range p.Cards() {
			if c == card {
				return true
			}
		}
	}
	return false
}

func (s *Simulator) cardInCommunity(card deck.Card) bool {
	for _, c := range s.community {
		if c != nil && *c == card {
			return true
		}
	}
	return false
}

func (s *Simulator) slotEquals(slot int, card deck.Card) bool {
	return s.community[slot] != nil && *s.community[slot] == card
}

// communitySequenceOK verifies the dealing order: a turn requires a
// full flop, a river requires a turn.
func (s *Simulator) communitySequenceOK() bool {
	if s.community[slotTurn] != nil {
		if s.community[0] == nil || s.community[1] == nil || s.community[2] == nil {
			return false
		}
	}
	if s.community[slotRiver] != nil {
		if s.community[slotTurn] == nil {
			return false
		}
	}
	return true
}

// predictable reports whether the outcome is already determined: all
// five community cards set and every player holding an exact hand.
func (s *Simulator) predictable() bool {
	for _, c := range s.community {
		if c == nil {
			return false
		}
	}
	for _, p := range s.profiles {
		if p.Kind() != profile.KindExactCards {
			return false
		}
	}
	return true
}

// boardCards returns the set community cards in dealing order. Callers
// hold s.mu.
func (s *Simulator) boardCards() []deck.Card {
	out := make([]deck.Card, 0, 5)
	for _, c := range s.community {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}
