package raft

import "fmt"

// Role is the node's current position in the Follower/Candidate/Leader
// cycle (spec.md §3). Dead is deliberately not a Role: per spec.md §9
// design note 2 and §4.F, "being dead" is the failure oracle pausing
// the current role's loop, not a fourth role the dispatch switch can
// land on.
type Role int

const (
	Follower Role = iota
	Candidate
	Leader
)

func (r Role) String() string {
	switch r {
	case Follower:
		return "Follower"
	case Candidate:
		return "Candidate"
	case Leader:
		return "Leader"
	default:
		return "Unknown"
	}
}

// statemachine encapsulates the current role and only allows the
// transitions the state table in spec.md §4.F permits: any other
// transition is a programming error in the driver, not a runtime
// condition to recover from.
type statemachine struct {
	current          Role
	validTransitions map[Role][]Role
}

func newStatemachine() *statemachine {
	return &statemachine{
		current: Follower,
		validTransitions: map[Role][]Role{
			Follower:  {Candidate},
			Candidate: {Follower, Candidate, Leader},
			Leader:    {Follower},
		},
	}
}

// next advances the role, panicking if the transition is not one the
// state table permits.
func (s *statemachine) next(to Role) {
	if !s.isValid(to) {
		panic(fmt.Sprintf("raft: invalid transition from %v to %v", s.current, to))
	}
	s.current = to
}

func (s *statemachine) isValid(to Role) bool {
	for _, allowed := range s.validTransitions[s.current] {
		if allowed == to {
			return true
		}
	}
	return false
}
