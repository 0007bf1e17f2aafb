// Package ident defines the gateway's protocol vocabularies: small integer
// identifiers for transport protocols, input sources, color modes, image
// formats, justification, and protocol-operation phases, together with their
// canonical names. The tables here are the single point of truth for those
// names; config parsing, API responses, and log rendering all resolve
// through them.
package ident

// entry is one row of a lookup table: an integer identifier and the
// canonical spelling of its name.
type entry[T ~int] struct {
	id   T
	name string
}

// table is an ordered set of id/name rows for one vocabulary. Tables are
// package-level values fixed at init and never mutated; every scan is
// bounded by the slice length.
type table[T ~int] []entry[T]

// nameByID returns the canonical name for id, or "" when the table has no
// row for it. Absence is a value, not an error.
func (t table[T]) nameByID(id T) string {
	for _, e := range t {
		if e.id == id {
			return e.name
		}
	}
	return ""
}

// idByName returns the id of the first row whose name matches under eq, or
// -1 when no row matches. The comparison policy belongs to the caller; the
// table itself is comparator-agnostic.
func (t table[T]) idByName(name string, eq func(a, b string) bool) T {
	for _, e := range t {
		if eq(e.name, name) {
			return e.id
		}
	}
	return -1
}

// ids returns the table's identifiers in declaration order. The slice is
// freshly allocated so callers may reorder or filter it.
func (t table[T]) ids() []T {
	out := make([]T, len(t))
	for i, e := range t {
		out[i] = e.id
	}
	return out
}
