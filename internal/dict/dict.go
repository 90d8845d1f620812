// Package dict implements the naming dictionary that translates opaque
// Block identities to and from human-readable (namespace, name) pairs.
//
// The dictionary is a pure lookup table and an external collaborator of the
// storage core: the core stores references to it but never calls it; only
// presentation and import/export layers resolve through it. Both lookup
// directions are precondition-checked: resolving an unknown id or name
// panics by contract, so callers check existence first with HasBlock or
// HasName.
package dict

import (
	"fmt"

	"github.com/rewindlabs/rewind/internal/world"
)

// Dictionary maps provider ids to name tables and back. It implements
// world.Resolver. Not safe for concurrent mutation; populate it fully, then
// share it read-only.
type Dictionary struct {
	tables map[uint16]*Table
	byName map[string]uint16
}

// New returns an empty Dictionary.
func New() *Dictionary {
	return &Dictionary{
		tables: map[uint16]*Table{},
		byName: map[string]uint16{},
	}
}

// AddTable registers a table under the next free provider id and returns
// that id.
func (d *Dictionary) AddTable(t *Table) uint16 {
	id := d.nextID()
	d.AddTableWithID(t, id)
	return id
}

// AddTableWithID registers a table under an explicit provider id.
// Re-registering an existing namespace under a new id leaves the dictionary
// inconsistent; callers own that precondition.
func (d *Dictionary) AddTableWithID(t *Table, id uint16) {
	d.tables[id] = t
	d.byName[t.namespace] = id
}

// nextID returns one past the highest registered provider id, or 0.
func (d *Dictionary) nextID() uint16 {
	var next uint16
	for id := range d.tables {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// HasBlock reports whether b resolves to a known (namespace, name) pair.
func (d *Dictionary) HasBlock(b world.Block) bool {
	t, ok := d.tables[b.Provider]
	if !ok {
		return false
	}
	_, ok = t.names[b.Local]
	return ok
}

// HasName reports whether (namespace, name) resolves to a known Block.
func (d *Dictionary) HasName(namespace, name string) bool {
	id, ok := d.byName[namespace]
	if !ok {
		return false
	}
	_, ok = d.tables[id].locals[name]
	return ok
}

// ResolveName translates b to its (namespace, name) pair. Panics on an
// unknown block; check HasBlock first.
func (d *Dictionary) ResolveName(b world.Block) (namespace, name string) {
	t, ok := d.tables[b.Provider]
	if !ok {
		panic(fmt.Sprintf("dict: unknown provider id %d", b.Provider))
	}
	return t.namespace, t.lookupName(b.Local)
}

// ResolveBlock translates a (namespace, name) pair to its Block. Panics on
// an unknown pair; check HasName first.
func (d *Dictionary) ResolveBlock(namespace, name string) world.Block {
	id, ok := d.byName[namespace]
	if !ok {
		panic(fmt.Sprintf("dict: unknown namespace %q", namespace))
	}
	return world.Block{Provider: id, Local: d.tables[id].lookupLocal(name)}
}

// Table holds the names of a single block provider. In "minecraft:air",
// "minecraft" is the namespace and "air" the name.
type Table struct {
	namespace string
	locals    map[string]uint16
	names     map[uint16]string
}

// NewTable returns an empty table for the given namespace.
func NewTable(namespace string) *Table {
	return &Table{
		namespace: namespace,
		locals:    map[string]uint16{},
		names:     map[uint16]string{},
	}
}

// Namespace returns the provider namespace.
func (t *Table) Namespace() string {
	return t.namespace
}

// AddPair binds name to an explicit local id. Renaming an existing id is a
// caller error and leaves the table inconsistent.
func (t *Table) AddPair(name string, local uint16) {
	t.locals[name] = local
	t.names[local] = name
}

// AddName binds name to the next free local id and returns it.
func (t *Table) AddName(name string) uint16 {
	var next uint16
	for local := range t.names {
		if local >= next {
			next = local + 1
		}
	}
	t.AddPair(name, next)
	return next
}

// Len returns the number of names in the table.
func (t *Table) Len() int {
	return len(t.locals)
}

func (t *Table) lookupName(local uint16) string {
	name, ok := t.names[local]
	if !ok {
		panic(fmt.Sprintf("dict: unknown local id %d in namespace %q", local, t.namespace))
	}
	return name
}

func (t *Table) lookupLocal(name string) uint16 {
	local, ok := t.locals[name]
	if !ok {
		panic(fmt.Sprintf("dict: unknown name %q in namespace %q", name, t.namespace))
	}
	return local
}
