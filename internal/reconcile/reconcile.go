// Package reconcile computes the minimal add/remove sets that turn a stored
// set of ids into a desired one.
//
// Callers always pass the complete desired set; there is no delta or merge.
package reconcile

import "sort"

// Diff holds the ids to insert and the ids to delete. Both are sorted
// ascending and never share an element.
type Diff struct {
	ToAdd    []string `json:"to_add"`
	ToRemove []string `json:"to_remove"`
}

// Empty reports whether applying the diff would change nothing.
func (d Diff) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

// Compute returns after − before as ToAdd and before − after as ToRemove.
// Duplicates in either input are ignored.
func Compute(before, after []string) Diff {
	beforeSet := toSet(before)
	afterSet := toSet(after)

	d := Diff{ToAdd: []string{}, ToRemove: []string{}}
	for id := range afterSet {
		if _, ok := beforeSet[id]; !ok {
			d.ToAdd = append(d.ToAdd, id)
		}
	}
	for id := range beforeSet {
		if _, ok := afterSet[id]; !ok {
			d.ToRemove = append(d.ToRemove, id)
		}
	}

	sort.Strings(d.ToAdd)
	sort.Strings(d.ToRemove)
	return d
}

// Apply returns the sorted set obtained by deleting ToRemove from before and
// then inserting ToAdd.
func (d Diff) Apply(before []string) []string {
	set := toSet(before)
	for _, id := range d.ToRemove {
		delete(set, id)
	}
	for _, id := range d.ToAdd {
		set[id] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
