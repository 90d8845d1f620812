// Package world models the versioned voxel world: block identities, cells,
// and the conceptually infinite grid of cells.
//
// Every structure here is persistent. A write returns a new value sharing
// all untouched substructure with its predecessor, so any Grid ever handed
// out remains a valid, immutable snapshot.
//
// Block identities are opaque (provider, local) pairs. Translating them to
// human-readable names is the job of an external naming dictionary exposed
// through the Resolver interface; nothing in this package ever calls it.
package world
