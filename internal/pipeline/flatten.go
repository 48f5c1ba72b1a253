package pipeline

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"paramsheet/internal"
)

type FlattenStats struct {
	Headers int
	Dropped int
}

// Flattener reorders canonical records into presentation order.
type Flattener interface {
	Flatten(records []internal.Record) ([]internal.Record, FlattenStats)
}

// FlatGroup sorts by the surrogate group key and puts one synthetic header
// before the first member of every non-empty group.
type FlatGroup struct{}

func (FlatGroup) Flatten(records []internal.Record) ([]internal.Record, FlattenStats) {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b internal.Record) int {
		return compareGroups(a.Group, b.Group)
	})

	stats := FlattenStats{}
	out := make([]internal.Record, 0, len(sorted)+8)
	prev := ""
	for _, r := range sorted {
		if r.Group != prev {
			prev = r.Group
			if r.Group != "" {
				// fresh value per header, never a reused cell
				out = append(out, internal.NewHeader(r.Group))
				stats.Headers++
			}
		}
		out = append(out, r)
	}
	return out, stats
}

// compareGroups orders empty keys first, integer keys numerically, then text
// keys lexically. Equal numbers written differently ("05", "5") stay distinct.
func compareGroups(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		if c := cmp.Compare(ai, bi); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// Hierarchy classifies records by the depth of their dotted code: depth 2 is
// a parameter, depth 1 a group header, anything else is dropped.
type Hierarchy struct{}

func (Hierarchy) Flatten(records []internal.Record) ([]internal.Record, FlattenStats) {
	stats := FlattenStats{}
	out := make([]internal.Record, 0, len(records))
	for _, r := range records {
		switch strings.Count(r.Code, ".") {
		case 2:
			out = append(out, r)
		case 1:
			h := r
			h.Name = internal.GroupPrefix + r.Name
			h.Scale = nil
			h.Period = nil
			out = append(out, h)
			stats.Headers++
		default:
			stats.Dropped++
		}
	}
	return out, stats
}

// Passthrough keeps dialects whose extractor already emits headers inline.
type Passthrough struct{}

func (Passthrough) Flatten(records []internal.Record) ([]internal.Record, FlattenStats) {
	stats := FlattenStats{}
	for _, r := range records {
		if r.IsHeader() {
			stats.Headers++
		}
	}
	return slices.Clone(records), stats
}
