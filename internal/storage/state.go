package storage

// TableState is a node of the commit state machine:
//
//	UNKNOWN -> {EXISTS, ABSENT} -> {CREATED, VERIFIED, SKIPPED} -> WRITTEN | FAILED
type TableState string

const (
	StateUnknown  TableState = "UNKNOWN"
	StateExists   TableState = "EXISTS"
	StateAbsent   TableState = "ABSENT"
	StateCreated  TableState = "CREATED"
	StateVerified TableState = "VERIFIED"
	StateSkipped  TableState = "SKIPPED"
	StateWritten  TableState = "WRITTEN"
	StateFailed   TableState = "FAILED"
)

var transitions = map[TableState][]TableState{
	StateUnknown:  {StateExists, StateAbsent},
	StateExists:   {StateVerified, StateSkipped},
	StateAbsent:   {StateCreated, StateExists},
	StateCreated:  {StateWritten},
	StateVerified: {StateWritten},
	StateSkipped:  {StateWritten},
}

// CanTransition reports whether to is reachable from from in one step.
// FAILED is reachable from every non-terminal state.
func CanTransition(from, to TableState) bool {
	if from == StateWritten || from == StateFailed {
		return false
	}
	if to == StateFailed {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
