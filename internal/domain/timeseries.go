package domain

// Point is one observation in a time series.
// X is a Unix timestamp in seconds. A nil Y is a gap in the series and is
// preserved as-is; gaps are never interpolated unless a consumer explicitly
// defines interpolation.
type Point struct {
	X int64    `json:"x"`
	Y *float64 `json:"y"`
}

// Value returns a point with a present Y.
func Value(x int64, y float64) Point {
	return Point{X: x, Y: &y}
}

// Gap returns a point with a nil Y.
func Gap(x int64) Point {
	return Point{X: x}
}
