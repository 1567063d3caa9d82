// Package series provides time-series normalization, step-function lookup
// and the derived chart series of the vault read-model.
package series

import (
	"sort"

	"vault-risk-lab/internal/domain"
)

// NonNullPoint is a series point with a guaranteed value, used by the
// step-lookup functions which have no meaning over gaps.
type NonNullPoint struct {
	X int64
	Y float64
}

// Normalize returns a copy of points sorted ascending by timestamp.
// Gaps (nil Y) are preserved. The input is not modified.
func Normalize(points []domain.Point) []domain.Point {
	out := make([]domain.Point, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool { return out[i].X < out[j].X })
	return out
}

// ToNonNull drops gap points and returns the remainder sorted ascending.
func ToNonNull(points []domain.Point) []NonNullPoint {
	out := make([]NonNullPoint, 0, len(points))
	for _, p := range points {
		if p.Y != nil {
			out = append(out, NonNullPoint{X: p.X, Y: *p.Y})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].X < out[j].X })
	return out
}

// StepValueAt returns the value of the last point at or before t, i.e. the
// last-observed value under step-function semantics. If t precedes the
// whole series the first value is returned; an empty series yields nil.
// The series must be sorted ascending.
func StepValueAt(points []NonNullPoint, t int64) *float64 {
	if len(points) == 0 {
		return nil
	}
	if t <= points[0].X {
		y := points[0].Y
		return &y
	}

	left, right := 0, len(points)-1
	for left <= right {
		middle := (left + right) / 2
		switch {
		case points[middle].X == t:
			y := points[middle].Y
			return &y
		case points[middle].X < t:
			left = middle + 1
		default:
			right = middle - 1
		}
	}

	// right is the index of the last point with X < t.
	idx := right
	if idx < 0 {
		idx = 0
	}
	if idx > len(points)-1 {
		idx = len(points) - 1
	}
	y := points[idx].Y
	return &y
}
