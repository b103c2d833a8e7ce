package fsm

// TransitionNotAllowed is returned when a transition is attempted that is not an
// edge of the machine's graph
type TransitionNotAllowed struct {
	From State
	To   State
	Msg  string
}

func (e TransitionNotAllowed) Error() string {
	return e.Msg
}
