// internal/fsm/fsm.go
package fsm

import (
	"errors"
	"fmt"
)

// ErrUnknownState is returned when a machine is built with a state outside its transition table.
var ErrUnknownState = errors.New("state is not part of the transition table")

// Machine is a finite state machine over states of type S.
//
// The key set of the transition table is the machine's state set. A Machine is not safe for
// concurrent use; its owner serializes access.
type Machine[S comparable] struct {
	transitions map[S][]S
	current     S
	onChange    func(S)
}

// New builds a Machine starting in initial. Every state named as a transition target must also be
// a key of transitions, and so must initial.
func New[S comparable](transitions map[S][]S, initial S) (*Machine[S], error) {
	table := make(map[S][]S, len(transitions))
	for from, targets := range transitions {
		table[from] = append([]S(nil), targets...)
	}
	for from, targets := range table {
		for _, to := range targets {
			if _, ok := table[to]; !ok {
				return nil, fmt.Errorf("%w: %v (target of %v)", ErrUnknownState, to, from)
			}
		}
	}
	if _, ok := table[initial]; !ok {
		return nil, fmt.Errorf("%w: initial state %v", ErrUnknownState, initial)
	}
	return &Machine[S]{transitions: table, current: initial}, nil
}

// OnChange registers fn to be called with the new state after every successful transition.
// Passing nil unregisters the handler.
func (m *Machine[S]) OnChange(fn func(S)) {
	m.onChange = fn
}

// State returns the current state.
func (m *Machine[S]) State() S {
	return m.current
}

// CanTransition reports whether target is reachable from the current state.
func (m *Machine[S]) CanTransition(target S) bool {
	for _, s := range m.transitions[m.current] {
		if s == target {
			return true
		}
	}
	return false
}

// Transition moves to target if the table allows it and notifies the change handler.
// It returns false and leaves the machine untouched otherwise.
func (m *Machine[S]) Transition(target S) bool {
	if !m.CanTransition(target) {
		return false
	}
	m.current = target
	if m.onChange != nil {
		m.onChange(target)
	}
	return true
}

// IsIn reports whether the current state is any of states.
func (m *Machine[S]) IsIn(states ...S) bool {
	for _, s := range states {
		if s == m.current {
			return true
		}
	}
	return false
}
