package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRangeSubtract(t *testing.T) {
	tests := []struct {
		name string
		r, o Range
		want []Range
	}{
		{"disjoint", NewRange(0, 5), NewRange(7, 9), []Range{NewRange(0, 5)}},
		{"cut start", NewRange(0, 10), NewRange(0, 4), []Range{NewRange(4, 10)}},
		{"cut end", NewRange(0, 10), NewRange(6, 12), []Range{NewRange(0, 6)}},
		{"cut middle", NewRange(0, 10), NewRange(3, 5), []Range{NewRange(0, 3), NewRange(5, 10)}},
		{"covered", NewRange(2, 4), NewRange(0, 10), []Range{{}}},
		{"empty other", NewRange(2, 4), Range{}, []Range{NewRange(2, 4)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.r.Subtract(tt.o))
		})
	}
}

func TestRangeUnion(t *testing.T) {
	require.Equal(t, []Range{NewRange(0, 10)}, NewRange(0, 5).Union(NewRange(5, 10)))
	require.Equal(t, []Range{NewRange(0, 10)}, NewRange(3, 10).Union(NewRange(0, 6)))
	require.Equal(t, []Range{NewRange(0, 2), NewRange(5, 8)}, NewRange(5, 8).Union(NewRange(0, 2)))
	require.Equal(t, []Range{NewRange(1, 3)}, Range{}.Union(NewRange(1, 3)))
}

func TestRangeBasics(t *testing.T) {
	r := NewRange(3, 7)
	require.Equal(t, 4, r.Size())
	require.True(t, r.Contains(3))
	require.False(t, r.Contains(7))
	require.True(t, NewRange(5, 5).Empty())
	require.Equal(t, NewRange(5, 7), r.Intersect(NewRange(5, 20)))
	require.True(t, r.Intersect(NewRange(7, 9)).Empty())
	require.Equal(t, "[3,7)", r.String())
}

// TestRangeSubtractCoversDifference verifies that the parts of a
// subtraction are exactly the indices in r but not in o.
func TestRangeSubtractCoversDifference(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.IntRange(0, 30).Draw(t, "a")
		r := NewRange(a, a+rapid.IntRange(0, 30).Draw(t, "rlen"))
		b := rapid.IntRange(0, 30).Draw(t, "b")
		o := NewRange(b, b+rapid.IntRange(0, 30).Draw(t, "olen"))

		covered := map[int]bool{}
		for _, p := range r.Subtract(o) {
			for i := p.From; i < p.To; i++ {
				if covered[i] {
					t.Fatalf("index %d covered twice", i)
				}
				covered[i] = true
			}
		}
		for i := 0; i < 70; i++ {
			want := r.Contains(i) && !o.Contains(i)
			if covered[i] != want {
				t.Fatalf("%s - %s: index %d covered=%t want %t", r, o, i, covered[i], want)
			}
		}
	})
}
