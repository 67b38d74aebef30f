// internal/lifecycle/table.go
//
// Table-driven state-transition validation.
//
// Context
// -------
// Every entity with an approval or lifecycle workflow (workflow request,
// invoice, task, project) answers "is this status move legal?" through one
// pure function and its own table, instead of scattering status
// comparisons across the services.  Tables are static adjacency sets: a
// state maps to the states reachable directly from it.  Nothing is
// inferred — a reverse move is legal only if its edge is listed — and a
// state with no entry is terminal.
//
// The engine knows nothing about entities, ownership, or roles.  Guards
// that vary per entity (an actor may not approve their own submission, only
// the creator may withdraw a draft, only an approver may approve) stay in
// the calling service, applied around the table check.
//
// Notes
//   - States are one concrete string type per entity kind, so a workflow
//     table cannot be probed with an invoice state by accident.
//   - Oxford commas, two spaces after periods.
package lifecycle

import "fmt"

// Table maps a state to the set of states directly reachable from it.
type Table[S ~string] map[S][]S

// Can reports whether from → to is a listed edge in t.  An unknown or
// terminal from state permits nothing.
func Can[S ~string](t Table[S], from, to S) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outgoing edges in t.
func Terminal[S ~string](t Table[S], s S) bool {
	return len(t[s]) == 0
}

// TransitionError is the domain-facing refusal raised by services when Can
// answers false.  It is an expected, user-visible condition — surface it as
// a client error naming both states, never log it as a system fault.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot move from %q to %q", e.Entity, e.From, e.To)
}

// Refuse builds a TransitionError for the given move.
func Refuse[S ~string](entity string, from, to S) *TransitionError {
	return &TransitionError{Entity: entity, From: string(from), To: string(to)}
}
