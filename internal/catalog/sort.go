package catalog

import (
	"cmp"
	"slices"
)

// Compare orders records by (group rank, subgroup rank, id). Unranked
// groups and subgroups sort after ranked ones; records with equal ranks
// fall back to their raw keys and then to id so the order is total.
func Compare(a, b *Record) int {
	if c := cmp.Compare(a.Group.Rank(), b.Group.Rank()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Group, b.Group); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Group.ChapterRank(a.Subgroup), b.Group.ChapterRank(b.Subgroup)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Subgroup, b.Subgroup); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Sort orders records in place for document assembly.
func Sort(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		return Compare(&a, &b)
	})
}

// Eligible returns the published records of in, preserving order.
func Eligible(in []Record) []Record {
	out := make([]Record, 0, len(in))
	for _, r := range in {
		if r.Eligible() {
			out = append(out, r)
		}
	}
	return out
}

// SubgroupRun is a maximal run of adjacent records sharing a subgroup.
type SubgroupRun struct {
	Key     string
	Records []Record
}

// GroupRun is a maximal run of adjacent records sharing a group.
type GroupRun struct {
	Group     Group
	Subgroups []SubgroupRun
}

// Len returns the number of records in the run.
func (g GroupRun) Len() int {
	n := 0
	for _, s := range g.Subgroups {
		n += len(s.Records)
	}
	return n
}

// GroupRuns splits sorted records into adjacent group and subgroup runs in
// a single linear pass. Input must already be sorted; records of a group or
// subgroup are then contiguous and each key yields exactly one run.
func GroupRuns(sorted []Record) []GroupRun {
	var runs []GroupRun
	for i := 0; i < len(sorted); {
		g := GroupRun{Group: sorted[i].Group}
		for i < len(sorted) && sorted[i].Group == g.Group {
			s := SubgroupRun{Key: sorted[i].Subgroup}
			start := i
			for i < len(sorted) && sorted[i].Group == g.Group && sorted[i].Subgroup == s.Key {
				i++
			}
			s.Records = sorted[start:i]
			g.Subgroups = append(g.Subgroups, s)
		}
		runs = append(runs, g)
	}
	return runs
}
