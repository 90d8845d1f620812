package world

import "encoding/json"

// Block is an opaque compact block identity: a provider id and a local id
// within that provider's namespace. The core treats it as a value type and
// never interprets the bits; meaning is resolved only by an external naming
// dictionary.
type Block struct {
	Provider uint16 `json:"provider"`
	Local    uint16 `json:"local"`
}

// AuxData is an optional scalar attached to a Block, such as a damage or
// variant value. The zero value is "absent".
type AuxData struct {
	value int32
	set   bool
}

// NewAuxData returns an AuxData holding v.
func NewAuxData(v int32) AuxData {
	return AuxData{value: v, set: true}
}

// Value returns the scalar and whether one is present.
func (a AuxData) Value() (int32, bool) {
	return a.value, a.set
}

// WithValue returns a new AuxData holding v; the receiver is unchanged.
func (a AuxData) WithValue(v int32) AuxData {
	return AuxData{value: v, set: true}
}

// MarshalJSON renders the scalar, or null when absent.
func (a AuxData) MarshalJSON() ([]byte, error) {
	if !a.set {
		return []byte("null"), nil
	}
	return json.Marshal(a.value)
}

// UnmarshalJSON accepts a number or null.
func (a *AuxData) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = AuxData{}
		return nil
	}
	var v int32
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*a = NewAuxData(v)
	return nil
}

// BlockState pairs a Block with its AuxData. It is the unit stored per
// coordinate and the unit carried by transactions. BlockState values are
// immutable and comparable with ==.
type BlockState struct {
	Block Block   `json:"block"`
	Aux   AuxData `json:"aux"`
}

// Resolver translates opaque Block identities to and from human-readable
// (namespace, name) pairs. It is implemented outside the core; both lookups
// are precondition-checked there (unknown ids and names are fatal), so
// callers check existence before resolving. The core stores Resolver
// references without ever calling them.
type Resolver interface {
	ResolveName(b Block) (namespace, name string)
	ResolveBlock(namespace, name string) Block
}
