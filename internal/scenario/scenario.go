// Package scenario loads simulation descriptions from HCL files.
//
// Example:
//
//	variant = "holdem"
//	trials  = 1000000
//	update_interval = 10
//
//	flop = "Td7s8h"
//
//	player "hero" {
//	  hand = "AhKh"
//	}
//
//	player "villain" {
//	  range = 25
//	}
package scenario

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/oddsengine/internal/deck"
	"github.com/lox/oddsengine/internal/profile"
	"github.com/lox/oddsengine/internal/simulation"
)

// Scenario describes a complete simulation request.
type Scenario struct {
	Variant        string   `hcl:"variant,optional"`
	Trials         int      `hcl:"trials"`
	UpdateInterval int      `hcl:"update_interval,optional"`
	Workers        int      `hcl:"workers,optional"`
	Seed           int64    `hcl:"seed,optional"`
	Flop           string   `hcl:"flop,optional"`
	Turn           string   `hcl:"turn,optional"`
	River          string   `hcl:"river,optional"`
	Players        []Player `hcl:"player,block"`
}

// Player describes one seat. An empty block means a random profile; a
// hand string fixes the hole cards; a range percentage samples from the
// top starting hands.
type Player struct {
	Name  string `hcl:"name,label"`
	Hand  string `hcl:"hand,optional"`
	Range int    `hcl:"range,optional"`
}

// Load reads and decodes a scenario file.
func Load(filename string) (*Scenario, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("scenario file not found: %s", filename)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse scenario file: %s", diags.Error())
	}

	var sc Scenario
	if diags := gohcl.DecodeBody(file.Body, nil, &sc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode scenario file: %s", diags.Error())
	}

	return &sc, nil
}

// Build constructs a configured simulator from the scenario. Extra
// options (logger, clock) are applied on top.
func (sc *Scenario) Build(opts ...simulation.Option) (*simulation.Simulator, error) {
	variant := simulation.HoldEm
	if sc.Variant != "" {
		v, err := simulation.ParseVariant(sc.Variant)
		if err != nil {
			return nil, err
		}
		variant = v
	}

	if sc.Seed != 0 {
		opts = append(opts, simulation.WithSeed(sc.Seed))
	}

	sim, err := simulation.New(variant, sc.Trials, opts...)
	if err != nil {
		return nil, err
	}

	if sc.Workers > 0 {
		if err := sim.SetWorkers(sc.Workers); err != nil {
			return nil, err
		}
	}
	if sc.UpdateInterval > 0 {
		if err := sim.SetUpdateInterval(sc.UpdateInterval); err != nil {
			return nil, err
		}
	}

	for _, p := range sc.Players {
		prof, err := p.profile()
		if err != nil {
			return nil, err
		}
		if err := sim.AddPlayer(prof); err != nil {
			return nil, fmt.Errorf("player %q: %w", p.Name, err)
		}
	}

	if sc.Flop != "" {
		cards, err := deck.ParseCards(sc.Flop)
		if err != nil {
			return nil, fmt.Errorf("flop: %w", err)
		}
		if err := sim.SetFlop(cards); err != nil {
			return nil, err
		}
	}
	if sc.Turn != "" {
		card, err := parseOne(sc.Turn)
		if err != nil {
			return nil, fmt.Errorf("turn: %w", err)
		}
		if err := sim.SetTurn(card); err != nil {
			return nil, err
		}
	}
	if sc.River != "" {
		card, err := parseOne(sc.River)
		if err != nil {
			return nil, fmt.Errorf("river: %w", err)
		}
		if err := sim.SetRiver(card); err != nil {
			return nil, err
		}
	}

	return sim, nil
}

func (p Player) profile() (*profile.Profile, error) {
	switch {
	case p.Hand != "" && p.Range != 0:
		return nil, fmt.Errorf("player %q: hand and range are mutually exclusive", p.Name)
	case p.Hand != "":
		cards, err := deck.ParseCards(p.Hand)
		if err != nil {
			return nil, fmt.Errorf("player %q: %w", p.Name, err)
		}
		return profile.ExactCards(cards), nil
	case p.Range != 0:
		return profile.Range(p.Range), nil
	default:
		return profile.Random(), nil
	}
}

func parseOne(s string) (deck.Card, error) {
	cards, err := deck.ParseCards(s)
	if err != nil {
		return deck.Card{}, err
	}
	if len(cards) != 1 {
		return deck.Card{}, fmt.Errorf("expected exactly one card, got %d", len(cards))
	}
	return cards[0], nil
}
