// Package lexorank implements fractional-indexing ranks: string keys over a
// fixed ordered alphabet that always admit a new key between any two existing
// ones, so reordering a list never renumbers unrelated siblings.
package lexorank

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRank indicates malformed rank text or a Between call whose inputs
// are equal or out of order.
var ErrInvalidRank = errors.New("invalid rank")

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

const (
	minSymbol byte = '0'
	maxSymbol byte = 'z'
)

// symbolIndex returns the position of c in the alphabet, or -1.
func symbolIndex(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	}
	return -1
}

// symbolAt returns s[i], padding past the end with the minimum symbol.
func symbolAt(s string, i int) byte {
	if i < len(s) {
		return s[i]
	}
	return minSymbol
}

// Rank is a canonical rank string: non-empty, drawn from the alphabet, and not
// ending in the minimum symbol. Canonical ranks compare byte-wise, which equals
// comparing them with the shorter one padded by the minimum symbol.
type Rank struct {
	value string
}

// MidRank returns the alphabet midpoint, used as the rank of the first entry
// of an empty container.
func MidRank() Rank {
	return Rank{value: string(alphabet[len(alphabet)/2])}
}

// ParseRank validates s and returns it as a Rank.
func ParseRank(s string) (Rank, error) {
	if s == "" {
		return Rank{}, fmt.Errorf("%w: empty rank", ErrInvalidRank)
	}
	for i := 0; i < len(s); i++ {
		if symbolIndex(s[i]) < 0 {
			return Rank{}, fmt.Errorf("%w: %q contains %q", ErrInvalidRank, s, s[i])
		}
	}
	if s[len(s)-1] == minSymbol {
		return Rank{}, fmt.Errorf("%w: %q ends with %q", ErrInvalidRank, s, minSymbol)
	}
	return Rank{value: s}, nil
}

// String returns the rank text.
func (r Rank) String() string {
	return r.value
}

// Len returns the number of symbols in the rank.
func (r Rank) Len() int {
	return len(r.value)
}

// IsZero reports whether r is the zero Rank, which is not a valid rank.
func (r Rank) IsZero() bool {
	return r.value == ""
}

// Compare returns -1, 0 or +1 as r sorts before, equal to or after other.
func (r Rank) Compare(other Rank) int {
	return strings.Compare(r.value, other.value)
}

// Less reports whether r sorts before other.
func (r Rank) Less(other Rank) bool {
	return r.value < other.value
}

// Next returns a rank strictly greater than r. The last symbol is incremented;
// when it is already the maximum the rank grows by one symbol instead of
// carrying, which keeps the result canonical and makes Prev its inverse.
func (r Rank) Next() Rank {
	s := r.value
	if s == "" {
		return MidRank()
	}
	n := len(s)
	last := symbolIndex(s[n-1])
	if s[n-1] != maxSymbol {
		return Rank{value: s[:n-1] + string(alphabet[last+1])}
	}
	return Rank{value: s + string(alphabet[1])}
}

// Prev returns a rank strictly less than r, with Prev(Next(r)) == r.
func (r Rank) Prev() Rank {
	s := r.value
	if s == "" {
		return MidRank()
	}
	n := len(s)
	last := symbolIndex(s[n-1])
	if last > 1 {
		return Rank{value: s[:n-1] + string(alphabet[last-1])}
	}
	// Decrementing would leave a trailing minimum symbol.
	if trimmed := strings.TrimRight(s[:n-1], string(minSymbol)); trimmed != "" {
		return Rank{value: trimmed}
	}
	// Nothing left to shorten to: borrow by appending.
	return Rank{value: s[:n-1] + string(minSymbol) + string(maxSymbol)}
}

// Between returns a rank strictly between r and other. r must sort before
// other; equal or misordered inputs are a programming error reported as
// ErrInvalidRank.
func (r Rank) Between(other Rank) (Rank, error) {
	if r.IsZero() || other.IsZero() {
		return Rank{}, fmt.Errorf("%w: zero rank", ErrInvalidRank)
	}
	if !r.Less(other) {
		return Rank{}, fmt.Errorf("%w: %q is not before %q", ErrInvalidRank, r.value, other.value)
	}
	return Rank{value: midpoint(r.value, other.value, true)}, nil
}

// after returns a rank strictly greater than r with no upper bound.
func (r Rank) after() Rank {
	return Rank{value: midpoint(r.value, "", false)}
}

// midpoint returns a canonical string strictly between a and b, where an empty
// a is the lower end of the space and bounded=false means no upper bound.
func midpoint(a, b string, bounded bool) string {
	if bounded {
		n := 0
		for n < len(b) && symbolAt(a, n) == b[n] {
			n++
		}
		if n > 0 {
			rest := ""
			if n < len(a) {
				rest = a[n:]
			}
			return b[:n] + midpoint(rest, b[n:], true)
		}
	}

	lo := 0
	if a != "" {
		lo = symbolIndex(a[0])
	}
	hi := len(alphabet)
	if bounded {
		hi = symbolIndex(b[0])
	}
	if hi-lo > 1 {
		return string(alphabet[(lo+hi+1)/2])
	}

	// Adjacent symbols: b's first symbol alone fits when b is longer, since a
	// canonical b has a non-minimum symbol further on.
	if bounded && len(b) > 1 {
		return b[:1]
	}
	rest := ""
	if len(a) > 1 {
		rest = a[1:]
	}
	return string(alphabet[lo]) + midpoint(rest, "", false)
}
