package tree

import "fmt"

// Range is a half-open interval [From, To) over indices of the visible flat list.
type Range struct {
	From int
	To   int
}

// NewRange returns the range [from, to).
func NewRange(from, to int) Range {
	return Range{From: from, To: to}
}

// Size returns the number of indices covered by the range.
func (r Range) Size() int {
	if r.To <= r.From {
		return 0
	}
	return r.To - r.From
}

// Empty reports whether the range covers no index.
func (r Range) Empty() bool {
	return r.Size() == 0
}

// Contains reports whether i lies inside the range.
func (r Range) Contains(i int) bool {
	return i >= r.From && i < r.To
}

// Equals compares both bounds.
func (r Range) Equals(o Range) bool {
	return r.From == o.From && r.To == o.To
}

// Intersect returns the overlap of both ranges, or the zero range if they
// do not overlap.
func (r Range) Intersect(o Range) Range {
	if r.To <= o.From || o.To <= r.From {
		return Range{}
	}
	return Range{From: max(r.From, o.From), To: min(r.To, o.To)}
}

// Union merges two ranges. Touching or overlapping ranges yield one range,
// disjoint ranges yield both in ascending order.
func (r Range) Union(o Range) []Range {
	if r.Empty() {
		return []Range{o}
	}
	if o.Empty() {
		return []Range{r}
	}
	if r.To < o.From {
		return []Range{r, o}
	}
	if o.To < r.From {
		return []Range{o, r}
	}
	return []Range{{From: min(r.From, o.From), To: max(r.To, o.To)}}
}

// Subtract returns the parts of r that are not covered by o. The result
// holds zero, one or two ranges.
func (r Range) Subtract(o Range) []Range {
	if r.Empty() {
		return []Range{r}
	}
	if o.Empty() || r.To <= o.From || o.To <= r.From {
		return []Range{r}
	}
	var out []Range
	if r.From < o.From {
		out = append(out, Range{From: r.From, To: o.From})
	}
	if o.To < r.To {
		out = append(out, Range{From: o.To, To: r.To})
	}
	if len(out) == 0 {
		return []Range{{}}
	}
	return out
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.From, r.To)
}
