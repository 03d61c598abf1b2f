package lexorank

import (
	"fmt"
	"strconv"
)

// BucketCount is the number of buckets ranks rotate through on rebalance.
const BucketCount = 3

// Bucket scopes a Rank. Entries compare by bucket first, so a container can be
// moved wholesale into the next bucket with fresh, short ranks.
type Bucket uint8

// NewBucket validates v and returns it as a Bucket.
func NewBucket(v int) (Bucket, error) {
	if v < 0 || v >= BucketCount {
		return 0, fmt.Errorf("%w: bucket %d out of range [0,%d)", ErrInvalidRank, v, BucketCount)
	}
	return Bucket(v), nil
}

// Next returns the bucket that follows b in rotation order.
func (b Bucket) Next() Bucket {
	return Bucket((int(b) + 1) % BucketCount)
}

// String returns the decimal form of the bucket.
func (b Bucket) String() string {
	return strconv.Itoa(int(b))
}
