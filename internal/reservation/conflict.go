package reservation

import (
	"sort"

	"github.com/nekogravitycat/campus-scheduler/internal/schedule"
)

// Clash is an unordered pair of reservations on the same resource whose
// ranges overlap. A is the one that appears first in the input.
type Clash struct {
	A string
	B string
}

// Active drops inert reservations, keeping order.
func Active(rs []*Reservation) []*Reservation {
	out := make([]*Reservation, 0, len(rs))
	for _, r := range rs {
		if !IsInert(r) {
			out = append(out, r)
		}
	}
	return out
}

// clashes reports whether a and b are distinct, live, on the same resource and overlapping.
func clashes(a, b *Reservation) bool {
	if a.ID != "" && a.ID == b.ID {
		return false
	}
	if a.ResourceID != b.ResourceID || IsInert(a) || IsInert(b) {
		return false
	}
	return schedule.Overlaps(a.Range(), b.Range())
}

// Conflicting returns the existing reservations that clash with candidate, in input order.
func Conflicting(candidate *Reservation, existing []*Reservation) []*Reservation {
	var out []*Reservation
	for _, e := range existing {
		if clashes(candidate, e) {
			out = append(out, e)
		}
	}
	return out
}

// HasConflict reports whether any live reservation in existing on the
// candidate's resource overlaps it.
func HasConflict(candidate *Reservation, existing []*Reservation) bool {
	for _, e := range existing {
		if clashes(candidate, e) {
			return true
		}
	}
	return false
}

// IDs returns the ids of rs.
func IDs(rs []*Reservation) []string {
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}

// FindAllClashes returns every clashing pair in rs, ordered by the input
// position of A then B. Reservations on different resources never clash.
func FindAllClashes(rs []*Reservation) []Clash {
	live := make([]int, 0, len(rs))
	for i, r := range rs {
		if !IsInert(r) && r.Range().Valid() {
			live = append(live, i)
		}
	}
	// Sweep in start order; only reservations starting before the current
	// one ends can overlap it.
	sort.SliceStable(live, func(i, j int) bool {
		return rs[live[i]].StartTime.Before(rs[live[j]].StartTime)
	})

	type pair struct{ a, b int }
	var pairs []pair
	for x, i := range live {
		for _, j := range live[x+1:] {
			if !rs[j].StartTime.Before(rs[i].EndTime) {
				break
			}
			if !clashes(rs[i], rs[j]) {
				continue
			}
			a, b := i, j
			if b < a {
				a, b = b, a
			}
			pairs = append(pairs, pair{a, b})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})
	out := make([]Clash, len(pairs))
	for k, p := range pairs {
		out[k] = Clash{A: rs[p.a].ID, B: rs[p.b].ID}
	}
	return out
}

// ClashSet returns the ids taking part in at least one clash.
func ClashSet(clashes []Clash) map[string]bool {
	set := make(map[string]bool, len(clashes)*2)
	for _, c := range clashes {
		set[c.A] = true
		set[c.B] = true
	}
	return set
}
