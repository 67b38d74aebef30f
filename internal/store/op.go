package store

// Op classifies a data-access operation.  The interceptor keys its rewrite
// rules off the family an Op belongs to: read, update, and delete families
// get a tenant predicate merged into the filter, while the create family
// gets the tenant ID stamped onto every payload.
type Op int

const (
	OpFindOne Op = iota
	OpFindMany
	OpCount
	OpAggregate
	OpCreate
	OpCreateMany
	OpUpdate
	OpUpdateMany
	OpDelete
	OpDeleteMany
)

var opNames = [...]string{
	"find_one", "find_many", "count", "aggregate",
	"create", "create_many",
	"update", "update_many",
	"delete", "delete_many",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "unknown"
}

// filterFamily reports whether o scopes via the filter (read, update, and
// delete families).
func (o Op) filterFamily() bool {
	switch o {
	case OpFindOne, OpFindMany, OpCount, OpAggregate,
		OpUpdate, OpUpdateMany, OpDelete, OpDeleteMany:
		return true
	}
	return false
}

// createFamily reports whether o scopes via the payload.
func (o Op) createFamily() bool {
	return o == OpCreate || o == OpCreateMany
}

// mutatesRows reports whether o edits or removes existing rows.  Used by
// the append-only guard; creates and reads are not mutations of history.
func (o Op) mutatesRows() bool {
	switch o {
	case OpUpdate, OpUpdateMany, OpDelete, OpDeleteMany:
		return true
	}
	return false
}

// Filter is a conjunction of column = value predicates.  nil means "all
// rows" — which, for a tenant-scoped entity, still ends up as "all rows of
// the ambient tenant" after the rewrite.
type Filter map[string]any

// Payload is the column → value set for create and update operations.
type Payload map[string]any

// clone returns a shallow copy so the interceptor never mutates caller maps.
func (f Filter) clone() Filter {
	out := make(Filter, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	return out
}

func (p Payload) clone() Payload {
	out := make(Payload, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	return out
}
