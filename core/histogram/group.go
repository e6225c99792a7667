// Package histogram partitions a numeric track field into fixed-width buckets.
package histogram

import (
	"errors"
	"fmt"
	"math"

	"trackviz/model"
)

// MaxBuckets bounds how many buckets a single grouping may produce.
const MaxBuckets = 10000

// ErrTooManyBuckets is returned when a width is too small for the field's range.
var ErrTooManyBuckets = errors.New("bucket width too small for the data range")

// Bucket is one half-open range [Start, End) and the tracks inside it.
// End of one bucket is bit-identical to Start of the next.
type Bucket struct {
	Start   float64
	End     float64
	Members []model.Track
}

// Count returns the number of members.
func (b Bucket) Count() int {
	return len(b.Members)
}

// Bounds returns the minimum and maximum of field over tracks, ignoring NaN.
// Both are NaN when no track has a value.
func Bounds(tracks []model.Track, field model.Field) (lo, hi float64) {
	lo, hi = math.NaN(), math.NaN()
	for _, t := range tracks {
		v := field.Value(t)
		if math.IsNaN(v) {
			continue
		}
		if v < lo || math.IsNaN(lo) {
			lo = v
		}
		if v > hi || math.IsNaN(hi) {
			hi = v
		}
	}
	return lo, hi
}

// span estimates the number of buckets GroupData would emit for [lo, hi],
// including the boundary and drift extensions. Ratios beyond exact float64
// integer range report +Inf.
func span(lo, hi, width float64) float64 {
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return 0
	}
	a, b := lo/width, hi/width
	if math.Abs(a) > 1<<52 || math.Abs(b) > 1<<52 {
		return math.Inf(1)
	}
	return math.Floor(b) - math.Floor(a) + 2
}

// CheckWidth returns ErrTooManyBuckets when grouping tracks by field with
// width would need more than MaxBuckets buckets.
func CheckWidth(tracks []model.Track, field model.Field, width float64) error {
	if !(width > 0) || math.IsInf(width, 0) {
		return nil
	}
	lo, hi := Bounds(tracks, field)
	if span(lo, hi, width) > MaxBuckets {
		return fmt.Errorf("%w: width %v over [%v, %v]", ErrTooManyBuckets, width, lo, hi)
	}
	return nil
}

// GroupData buckets tracks by field with the given width. Buckets run from
// floor(min/width) to ceil(max/width)-1, extended by one when max sits exactly on
// a boundary, so every finite value lands in exactly one bucket. Empty buckets
// are kept. It returns nil when there is nothing to bucket, when width is not a
// positive finite number, or when the grouping would exceed MaxBuckets.
func GroupData(tracks []model.Track, field model.Field, width float64) []Bucket {
	if !(width > 0) || math.IsInf(width, 0) {
		return nil
	}
	lo, hi := Bounds(tracks, field)
	if math.IsNaN(lo) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil
	}
	if span(lo, hi, width) > MaxBuckets {
		return nil
	}

	first := int(math.Floor(lo / width))
	last := int(math.Ceil(hi/width)) - 1
	// Rounding in min/width and i*width can leave the extremes just outside.
	for float64(first)*width > lo {
		first--
	}
	if last < first {
		last = first
	}
	for float64(last+1)*width <= hi {
		last++
	}

	buckets := make([]Bucket, last-first+1)
	for i := range buckets {
		buckets[i].Start = float64(first+i) * width
		buckets[i].End = float64(first+i+1) * width
	}
	for _, t := range tracks {
		v := field.Value(t)
		if math.IsNaN(v) {
			continue
		}
		i := min(max(int(math.Floor(v/width))-first, 0), len(buckets)-1)
		// Membership is decided by the stored edges, not by the division.
		for i > 0 && v < buckets[i].Start {
			i--
		}
		for i < len(buckets)-1 && v >= buckets[i].End {
			i++
		}
		buckets[i].Members = append(buckets[i].Members, t)
	}
	return buckets
}
