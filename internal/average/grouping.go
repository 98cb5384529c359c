package average

import (
	"math"
	"sort"
	"time"

	"github.com/esatel/adcpy/internal/adcp"
)

// Group is an ordered set of transects selected for joint averaging. Every
// consecutive pair satisfies the configured spatial and temporal gap maxima
// and the group never exceeds the configured size. Groups are not mutated
// after creation.
type Group struct {
	Index     int
	Transects []*adcp.Transect
}

// Start returns the start time of the earliest transect in the group.
func (g *Group) Start() time.Time {
	if len(g.Transects) == 0 {
		return time.Time{}
	}
	return g.Transects[0].Start()
}

// End returns the end time of the latest transect in the group.
func (g *Group) End() time.Time {
	if len(g.Transects) == 0 {
		return time.Time{}
	}
	return g.Transects[len(g.Transects)-1].End()
}

// Excluded reports a transect that could not take part in grouping.
type Excluded struct {
	ID  string
	Err error
}

// GroupBySpaceTime partitions transects into averaging groups. Transects
// are ordered by start time, then groups grow greedily: a group keeps
// appending the next transect while the distance between the two transects'
// representative points (mean ensemble position, so back-and-forth passes
// over the same line compare by track, not by heading) is at most
// maxGapMeters, the gap between end-of-one and start-of-next is at most
// maxGapMinutes, and the group holds fewer than maxGroupSize transects.
// A transect with no adjacent neighbour forms a singleton group.
//
// Transects missing spatial or temporal metadata are returned in excluded
// with the validation failure; every valid transect lands in exactly one
// group.
func GroupBySpaceTime(transects []*adcp.Transect, maxGapMeters, maxGapMinutes float64, maxGroupSize int) (groups []*Group, excluded []Excluded) {
	ordered := make([]*adcp.Transect, 0, len(transects))
	for _, t := range transects {
		if err := t.Validate(); err != nil {
			excluded = append(excluded, Excluded{ID: t.ID, Err: err})
			continue
		}
		ordered = append(ordered, t)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start().Before(ordered[j].Start())
	})

	maxGap := time.Duration(maxGapMinutes * float64(time.Minute))
	var cur *Group
	for _, t := range ordered {
		if cur != nil && len(cur.Transects) < maxGroupSize && adjacent(cur.Transects[len(cur.Transects)-1], t, maxGapMeters, maxGap) {
			cur.Transects = append(cur.Transects, t)
			continue
		}
		cur = &Group{Index: len(groups), Transects: []*adcp.Transect{t}}
		groups = append(groups, cur)
	}
	return groups, excluded
}

// adjacent reports whether next may be averaged with prev: the geographic
// distance between the transects' representative points is within
// maxGapMeters and the time from prev's end to next's start is within
// maxGap. Overlapping transects (next starting before prev ends) always
// satisfy the time test.
func adjacent(prev, next *adcp.Transect, maxGapMeters float64, maxGap time.Duration) bool {
	x1, y1 := prev.MeanPosition()
	x2, y2 := next.MeanPosition()
	if math.Hypot(x2-x1, y2-y1) > maxGapMeters {
		return false
	}
	gap := next.Start().Sub(prev.End())
	return gap <= maxGap
}
