// Package storage provides the persistent (copy-on-write) collection
// primitives the world model is built from.
//
// Three structures compose leaf-to-root:
//
//   - Array: a persistent dynamic array. Set and PushBack return new
//     arrays; every untouched slot is shared with the source version.
//   - Matrix: an immutable 2-D grid with a default value, backed by either
//     a dense array (O(1) access) or a sparse coordinate list (cost
//     proportional to the number of non-default cells). New matrices start
//     sparse, since a fresh plane is almost entirely default-valued.
//   - Volume: an immutable 3-D grid composed of a persistent Array of
//     Matrix layers. A write clones only the affected layer; all other
//     layers are shared with the prior version, which is what makes
//     versioned snapshots cheap.
//
// Old versions are never invalidated by new writes. Reads outside a
// Matrix or Volume's bounds substitute the default value; writes outside a
// Volume's bounds are rejected with no effect. Indexing an Array out of
// range, by contrast, is a precondition violation and panics.
package storage
