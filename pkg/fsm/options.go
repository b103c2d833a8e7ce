package fsm

// MachineOption configures a machine at construction
type MachineOption func(m *Machine) error

// WithTransition adds a single edge to the transition graph.  To add multiple
// edges at once use WithTransitions.
func WithTransition(t Transition) MachineOption {
	return func(m *Machine) error {
		m.allowable[t.From] = append(m.allowable[t.From], t.To)
		return nil
	}
}

// WithTransitions adds edges declared with T(from, to...), for example
// `NewMachine(Loading, WithTransitions(T(Loading, Ready), T(Ready, Checking, Draining)))`
func WithTransitions(transitions ...[]Transition) MachineOption {
	return func(m *Machine) error {
		for _, t := range flatten(transitions) {
			m.allowable[t.From] = append(m.allowable[t.From], t.To)
		}
		return nil
	}
}
