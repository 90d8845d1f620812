package txlog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rewindlabs/rewind/internal/world"
)

// TransactionID totally orders committed transactions: majors compare first,
// equal majors compare by minor. Assigned exactly once by the log, never
// reused, never decreasing.
type TransactionID struct {
	Major uint32 `json:"major"`
	Minor uint32 `json:"minor"`
}

// Less reports whether id orders strictly before other.
func (id TransactionID) Less(other TransactionID) bool {
	if id.Major != other.Major {
		return id.Major < other.Major
	}
	return id.Minor < other.Minor
}

// Next returns the id that follows id in the major sequence: (Major+1, 0).
func (id TransactionID) Next() TransactionID {
	return TransactionID{Major: id.Major + 1}
}

// String renders "major.minor".
func (id TransactionID) String() string {
	return fmt.Sprintf("%d.%d", id.Major, id.Minor)
}

// OpKind discriminates the closed set of operations a transaction carries.
type OpKind uint8

const (
	// OpSet overwrites a coordinate unconditionally.
	OpSet OpKind = iota
	// OpReplace overwrites a coordinate only when its current state equals
	// an expected state (compare-and-swap).
	OpReplace
	// OpUndo retroactively nullifies a previously committed transaction.
	OpUndo
)

// String returns the kind name used in logs and archives.
func (k OpKind) String() string {
	switch k {
	case OpSet:
		return "set"
	case OpReplace:
		return "replace"
	case OpUndo:
		return "undo"
	default:
		return fmt.Sprintf("opkind(%d)", uint8(k))
	}
}

// MarshalText renders the kind name, so JSON and archives agree on the
// same spelling.
func (k OpKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name.
func (k *OpKind) UnmarshalText(text []byte) error {
	parsed, err := ParseOpKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseOpKind maps a kind name back to its OpKind.
func ParseOpKind(s string) (OpKind, error) {
	switch s {
	case "set":
		return OpSet, nil
	case "replace":
		return OpReplace, nil
	case "undo":
		return OpUndo, nil
	default:
		return 0, fmt.Errorf("txlog: unknown operation kind %q", s)
	}
}

// Op is a transaction's operation payload. Kind selects which fields are
// meaningful: Set carries New; Replace carries Expected and New; Undo
// carries Target.
type Op struct {
	Kind     OpKind
	New      world.BlockState
	Expected world.BlockState
	Target   TransactionID
}

// MarshalJSON emits only the fields the kind carries.
func (o Op) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case OpSet:
		return json.Marshal(struct {
			Kind OpKind           `json:"kind"`
			New  world.BlockState `json:"new"`
		}{o.Kind, o.New})
	case OpReplace:
		return json.Marshal(struct {
			Kind     OpKind           `json:"kind"`
			Expected world.BlockState `json:"expected"`
			New      world.BlockState `json:"new"`
		}{o.Kind, o.Expected, o.New})
	case OpUndo:
		return json.Marshal(struct {
			Kind   OpKind        `json:"kind"`
			Target TransactionID `json:"target"`
		}{o.Kind, o.Target})
	default:
		return nil, fmt.Errorf("txlog: cannot marshal %s", o.Kind)
	}
}

// UnmarshalJSON is the inverse of MarshalJSON; fields a kind does not carry
// stay zero.
func (o *Op) UnmarshalJSON(data []byte) error {
	var shadow struct {
		Kind     OpKind           `json:"kind"`
		New      world.BlockState `json:"new"`
		Expected world.BlockState `json:"expected"`
		Target   TransactionID    `json:"target"`
	}
	if err := json.Unmarshal(data, &shadow); err != nil {
		return err
	}
	*o = Op{Kind: shadow.Kind, New: shadow.New, Expected: shadow.Expected, Target: shadow.Target}
	return nil
}

// SetOp builds an unconditional overwrite.
func SetOp(newState world.BlockState) Op {
	return Op{Kind: OpSet, New: newState}
}

// ReplaceOp builds a compare-and-swap overwrite.
func ReplaceOp(expected, newState world.BlockState) Op {
	return Op{Kind: OpReplace, Expected: expected, New: newState}
}

// UndoOp builds a retroactive undo of target.
func UndoOp(target TransactionID) Op {
	return Op{Kind: OpUndo, Target: target}
}

// Pending is an unsubmitted transaction.
//
// Coord is required for Set and Replace and must be nil for Undo; the
// engine checks this at apply time as a precondition. Owner and Stamp are
// opaque attachments stored verbatim and never interpreted by the core:
// Owner defaults to uuid.Nil when the actor is unknown, Stamp stays zero
// when untimed.
type Pending struct {
	Op    Op           `json:"op"`
	Owner uuid.UUID    `json:"owner"`
	Stamp time.Time    `json:"stamp,omitzero"`
	Coord *world.Coord `json:"coord,omitempty"`
}

// Committed is a Pending plus its assigned id. Instances are created only by
// Log.Append (or restored verbatim by a persistence layer) and are immutable
// for the lifetime of the system.
type Committed struct {
	Pending
	ID TransactionID `json:"id"`
}
