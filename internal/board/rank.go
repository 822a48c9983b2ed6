package board

import (
	"sort"
	"time"
)

// Rank orders the given entries for display, most urgent first. The input
// slice is not modified.
//
// An operator's priority is the worse of their own tier rank and the worst
// tier rank on their team, so a whole team surfaces together as soon as one
// member runs low. Teams sort against each other by their worst-case rank,
// then by the soonest whistle across their members, which keeps team members
// contiguous relative to other teams. Within a team, and among teamless
// operators of equal priority, the soonest-expiring operator comes first.
//
// A teamless operator competes on individual priority and remaining time
// alone, so one whose urgency falls between two members of an escalated team
// slots between them rather than before or after the whole team.
func Rank(entries []*Entry, now time.Time) []*Entry {
	remaining := make(map[Identity]time.Duration, len(entries))
	rank := make(map[Identity]int, len(entries))
	teamWorst := make(map[int]int)
	teamSoonest := make(map[int]time.Duration)

	for _, e := range entries {
		id := e.Identity()
		st := Classify(e, now)
		remaining[id] = st.Remaining
		rank[id] = st.Tier.Rank()

		if e.TeamNumber > 0 {
			if r, ok := teamWorst[e.TeamNumber]; !ok || st.Tier.Rank() > r {
				teamWorst[e.TeamNumber] = st.Tier.Rank()
			}
			if d, ok := teamSoonest[e.TeamNumber]; !ok || st.Remaining < d {
				teamSoonest[e.TeamNumber] = st.Remaining
			}
		}
	}

	effective := func(e *Entry) int {
		r := rank[e.Identity()]
		if e.TeamNumber > 0 && teamWorst[e.TeamNumber] > r {
			r = teamWorst[e.TeamNumber]
		}
		return r
	}

	out := make([]*Entry, len(entries))
	copy(out, entries)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ra, rb := remaining[a.Identity()], remaining[b.Identity()]

		if a.TeamNumber > 0 && b.TeamNumber > 0 {
			if a.TeamNumber == b.TeamNumber {
				if ra != rb {
					return ra < rb
				}
				return a.OperatorName < b.OperatorName
			}
			wa, wb := teamWorst[a.TeamNumber], teamWorst[b.TeamNumber]
			if wa != wb {
				return wa > wb
			}
			sa, sb := teamSoonest[a.TeamNumber], teamSoonest[b.TeamNumber]
			if sa != sb {
				return sa < sb
			}
			return a.TeamNumber < b.TeamNumber
		}

		ea, eb := effective(a), effective(b)
		if ea != eb {
			return ea > eb
		}
		if ra != rb {
			return ra < rb
		}
		return a.OperatorName < b.OperatorName
	})

	return out
}
