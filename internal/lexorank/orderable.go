package lexorank

import (
	"fmt"
	"slices"
	"strings"
)

// Orderable is any entity that carries a LexoRank. Workspaces and project
// links implement it so one set of reordering helpers serves both lists.
type Orderable interface {
	SortRank() LexoRank
	SetSortRank(LexoRank)
}

// Gap returns a rank for the slot between prev and next, the current ranks of
// the target gap's left and right neighbours. A nil side is a list end and is
// replaced by a synthetic boundary one step past the other side; both nil
// means the list is empty.
func Gap(prev, next *LexoRank) (LexoRank, error) {
	switch {
	case prev == nil && next == nil:
		return Default(), nil
	case prev == nil:
		return next.Prev().Between(*next)
	case next == nil:
		return prev.Between(prev.Next())
	default:
		return prev.Between(*next)
	}
}

// Move sets item's rank to the slot between prev and next.
func Move(item Orderable, prev, next *LexoRank) error {
	rank, err := Gap(prev, next)
	if err != nil {
		return err
	}
	item.SetSortRank(rank)
	return nil
}

// Sort orders items by rank. Ties keep their relative order.
func Sort[T Orderable](items []T) {
	slices.SortStableFunc(items, func(a, b T) int {
		return a.SortRank().Compare(b.SortRank())
	})
}

// Last returns the greatest rank among items.
func Last[T Orderable](items []T) (LexoRank, bool) {
	if len(items) == 0 {
		return LexoRank{}, false
	}
	best := items[0].SortRank()
	for _, it := range items[1:] {
		if r := it.SortRank(); best.Less(r) {
			best = r
		}
	}
	return best, true
}

// Append returns the rank for a new entry at the end of items.
func Append[T Orderable](items []T) LexoRank {
	last, ok := Last(items)
	if !ok {
		return Default()
	}
	return last.Next()
}

// NeedsRebalance reports whether any rank in items is longer than threshold
// symbols. A non-positive threshold disables the check.
func NeedsRebalance[T Orderable](items []T, threshold int) bool {
	if threshold <= 0 {
		return false
	}
	for _, it := range items {
		if it.SortRank().Rank().Len() > threshold {
			return true
		}
	}
	return false
}

// Rebalance rewrites every rank in items with evenly spaced short ranks in the
// bucket after the current greatest one. Relative order is preserved; items is
// left sorted.
func Rebalance[T Orderable](items []T) {
	if len(items) == 0 {
		return
	}
	Sort(items)
	last, _ := Last(items)
	bucket := last.Bucket().Next()
	for i, rank := range spaced(len(items)) {
		items[i].SetSortRank(New(bucket, rank))
	}
}

// spaced returns n ascending canonical ranks spread evenly over the smallest
// fixed width that fits them.
func spaced(n int) []Rank {
	base := uint64(len(alphabet))
	width, space := 1, base
	for space < uint64(n)+1 {
		width++
		space *= base
	}
	step := space / uint64(n+1)

	ranks := make([]Rank, n)
	for i := range ranks {
		ranks[i] = Rank{value: encode(step*uint64(i+1), width)}
	}
	return ranks
}

// encode writes v in the rank alphabet, left-padded to width, with trailing
// minimum symbols stripped.
func encode(v uint64, width int) string {
	base := uint64(len(alphabet))
	buf := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		buf[i] = alphabet[v%base]
		v /= base
	}
	s := strings.TrimRight(string(buf), string(minSymbol))
	if s == "" {
		panic(fmt.Sprintf("lexorank: encode produced empty rank for width %d", width))
	}
	return s
}
