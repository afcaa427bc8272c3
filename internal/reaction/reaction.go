// Package reaction decides what a reaction click means for a user who may
// already have an active reaction on the item.
package reaction

import (
	"errors"
	"fmt"

	"github.com/xaenox/rateai/internal/models"
)

// Policy selects how a click on a different reaction is handled while one is active.
type Policy string

const (
	// Block rejects the click; the user has to cancel the active reaction first.
	Block Policy = "block"
	// Replace swaps the active reaction for the selected one.
	Replace Policy = "replace"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case Block, "":
		return Block, nil
	case Replace:
		return Replace, nil
	}
	return "", fmt.Errorf("unknown reaction policy %q", s)
}

var (
	ErrUnknownReaction       = errors.New("unknown reaction type")
	ErrReactionChangeBlocked = errors.New("cancel your current reaction before choosing another one")
)

// Action is the effect of a transition.
type Action int

const (
	Add Action = iota + 1
	Remove
	Swap
)

func (a Action) String() string {
	switch a {
	case Add:
		return "add"
	case Remove:
		return "remove"
	case Swap:
		return "replace"
	}
	return "unknown"
}

// Decision is the outcome of a click: what to do and the resulting state.
// Next is empty when the user ends up with no active reaction.
type Decision struct {
	Action   Action
	Previous models.ReactionType
	Next     models.ReactionType
}

// Transition computes the next state for current (empty = none) when the user
// selects the given reaction.
func Transition(current, selected models.ReactionType, policy Policy) (Decision, error) {
	if !selected.Valid() {
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownReaction, selected)
	}
	switch {
	case current == "":
		return Decision{Action: Add, Next: selected}, nil
	case current == selected:
		return Decision{Action: Remove, Previous: current}, nil
	case policy == Replace:
		return Decision{Action: Swap, Previous: current, Next: selected}, nil
	default:
		return Decision{}, ErrReactionChangeBlocked
	}
}

// ApplyCounts adjusts the item counters for the decision. Counters never go
// below zero.
func (d Decision) ApplyCounts(counts models.ReactionCounts) models.ReactionCounts {
	out := counts.Clone()
	if d.Previous != "" {
		if out[d.Previous] > 0 {
			out[d.Previous]--
		}
	}
	if d.Next != "" {
		out[d.Next]++
	}
	return out
}
