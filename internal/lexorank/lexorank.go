package lexorank

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// defaultBucket is the bucket fresh stores start in. It sits in the middle so
// both neighbouring buckets remain available for a rotation.
const defaultBucket Bucket = 1

// LexoRank is the ordering key stored on orderable entities: a Bucket and a
// Rank, compared bucket first. Its text form is "<bucket>|<rank>".
type LexoRank struct {
	bucket Bucket
	rank   Rank
}

// New combines a bucket and a rank.
func New(bucket Bucket, rank Rank) LexoRank {
	return LexoRank{bucket: bucket, rank: rank}
}

// Default returns the rank given to the first entry of an empty container.
func Default() LexoRank {
	return LexoRank{bucket: defaultBucket, rank: MidRank()}
}

// Parse reads the "<bucket>|<rank>" text form.
func Parse(s string) (LexoRank, error) {
	head, tail, ok := strings.Cut(s, "|")
	if !ok {
		return LexoRank{}, fmt.Errorf("%w: %q has no bucket separator", ErrInvalidRank, s)
	}
	n, err := strconv.Atoi(head)
	if err != nil {
		return LexoRank{}, fmt.Errorf("%w: bucket %q: %v", ErrInvalidRank, head, err)
	}
	bucket, err := NewBucket(n)
	if err != nil {
		return LexoRank{}, err
	}
	rank, err := ParseRank(tail)
	if err != nil {
		return LexoRank{}, err
	}
	return LexoRank{bucket: bucket, rank: rank}, nil
}

// ParseOrDefault parses s and falls back to Default on failure. The boolean
// is false when the fallback was taken; callers should report the loss.
func ParseOrDefault(s string) (LexoRank, bool) {
	l, err := Parse(s)
	if err != nil {
		return Default(), false
	}
	return l, true
}

// MustParse is Parse for known-good literals; it panics on error.
func MustParse(s string) LexoRank {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// Bucket returns the bucket component.
func (l LexoRank) Bucket() Bucket {
	return l.bucket
}

// Rank returns the rank component.
func (l LexoRank) Rank() Rank {
	return l.rank
}

// IsZero reports whether l is the zero value, which is not a valid rank.
func (l LexoRank) IsZero() bool {
	return l.rank.IsZero()
}

// String returns the "<bucket>|<rank>" text form.
func (l LexoRank) String() string {
	return l.bucket.String() + "|" + l.rank.String()
}

// Compare orders by bucket, then rank.
func (l LexoRank) Compare(other LexoRank) int {
	if c := cmp.Compare(l.bucket, other.bucket); c != 0 {
		return c
	}
	return l.rank.Compare(other.rank)
}

// Less reports whether l sorts before other.
func (l LexoRank) Less(other LexoRank) bool {
	return l.Compare(other) < 0
}

// Equal reports whether l and other are the same rank.
func (l LexoRank) Equal(other LexoRank) bool {
	return l == other
}

// Next returns a rank strictly after l in the same bucket.
func (l LexoRank) Next() LexoRank {
	return LexoRank{bucket: l.bucket, rank: l.rank.Next()}
}

// Prev returns a rank strictly before l in the same bucket.
func (l LexoRank) Prev() LexoRank {
	return LexoRank{bucket: l.bucket, rank: l.rank.Prev()}
}

// Between returns a rank strictly between l and other. When the buckets
// differ the result stays in l's bucket, after l's rank.
func (l LexoRank) Between(other LexoRank) (LexoRank, error) {
	if l.IsZero() || other.IsZero() {
		return LexoRank{}, fmt.Errorf("%w: zero rank", ErrInvalidRank)
	}
	if l.Compare(other) >= 0 {
		return LexoRank{}, fmt.Errorf("%w: %s is not before %s", ErrInvalidRank, l, other)
	}
	if l.bucket != other.bucket {
		return LexoRank{bucket: l.bucket, rank: l.rank.after()}, nil
	}
	rank, err := l.rank.Between(other.rank)
	if err != nil {
		return LexoRank{}, err
	}
	return LexoRank{bucket: l.bucket, rank: rank}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (l LexoRank) MarshalText() ([]byte, error) {
	if l.IsZero() {
		return nil, fmt.Errorf("%w: zero rank", ErrInvalidRank)
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *LexoRank) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
