package footprint

import "strings"

// Entry pairs a lowercase substring key with its mapped result.
type Entry[T any] struct {
	Key   string
	Value T
}

// Table is an ordered substring-match mapping. The first entry whose key is
// contained in the normalized input wins, so more specific keys must be
// declared before more general overlapping ones.
type Table[T any] []Entry[T]

// Match normalizes text with NormalizeEnum and returns the first matching value.
func (t Table[T]) Match(text string) (T, bool) {
	return t.MatchNormalized(NormalizeEnum(text))
}

// MatchNormalized scans the table against already-normalized input.
func (t Table[T]) MatchNormalized(norm string) (T, bool) {
	var zero T
	if norm == "" {
		return zero, false
	}
	for _, e := range t {
		if strings.Contains(norm, e.Key) {
			return e.Value, true
		}
	}
	return zero, false
}

// Lookup returns the value whose key equals norm exactly.
func (t Table[T]) Lookup(norm string) (T, bool) {
	for _, e := range t {
		if e.Key == norm {
			return e.Value, true
		}
	}
	var zero T
	return zero, false
}

// Shadow describes a later key that can never win because an earlier key is a
// substring of it and maps to a different result.
type Shadow struct {
	Earlier string
	Later   string
}

// Shadowed lists every unreachable later key. Entries mapping to the same
// result are not reported since their order does not change the outcome.
func Shadowed[T comparable](t Table[T]) []Shadow {
	var out []Shadow
	for i := range t {
		for j := i + 1; j < len(t); j++ {
			if strings.Contains(t[j].Key, t[i].Key) && t[i].Value != t[j].Value {
				out = append(out, Shadow{Earlier: t[i].Key, Later: t[j].Key})
			}
		}
	}
	return out
}
