package fsm

// Transition is a directed edge of the transition graph
type Transition struct {
	From State
	To   State
}

// T declares the edges from one state to each of tos
func T(from State, tos ...State) []Transition {
	transitions := make([]Transition, 0, len(tos))
	for _, to := range tos {
		transitions = append(transitions, Transition{From: from, To: to})
	}
	return transitions
}

func flatten(t [][]Transition) []Transition {
	var transitions []Transition
	for _, t1 := range t {
		transitions = append(transitions, t1...)
	}
	return transitions
}
