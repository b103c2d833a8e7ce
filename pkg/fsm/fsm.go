// Package fsm implements the small finite state machine that sequences the
// phases of a limit checking run.
package fsm

import (
	"fmt"
)

// State is a named phase of the machine
type State string

// Machine is a finite state machine with an explicit transition graph.  A
// transition that is not in the graph is refused and leaves the current state
// untouched.
type Machine struct {
	current   State
	allowable map[State][]State
}

// NewMachine returns a Machine in the initial state configured with opts.  Without
// options the machine has no transitions and can never leave the initial state.
func NewMachine(initial State, opts ...MachineOption) (*Machine, error) {
	machine := &Machine{
		current:   initial,
		allowable: map[State][]State{},
	}
	for _, opt := range opts {
		if err := opt(machine); err != nil {
			return nil, err
		}
	}
	return machine, nil
}

// State returns the current state of the Machine
func (m *Machine) State() State {
	return m.current
}

// Is reports whether the machine is currently in one of states
func (m *Machine) Is(states ...State) bool {
	return contains(m.current, states)
}

// Allowable checks whether a transition between two states is in the graph
func (m *Machine) Allowable(from, to State) bool {
	return contains(to, m.allowable[from])
}

// Transition moves the machine to the state to if the edge exists
func (m *Machine) Transition(to State) error {
	if !m.Allowable(m.current, to) {
		return TransitionNotAllowed{
			From: m.current,
			To:   to,
			Msg:  fmt.Sprintf("cannot transition from state %s to %s", m.current, to),
		}
	}
	m.current = to
	return nil
}

func contains(s State, all []State) bool {
	for _, a := range all {
		if s == a {
			return true
		}
	}
	return false
}
