package domain

import "time"

// RangeKey identifies a chart time-range preset.
type RangeKey string

// Supported range presets.
const (
	Range30D RangeKey = "30D"
	Range60D RangeKey = "60D"
	Range90D RangeKey = "90D"
	RangeYTD RangeKey = "YTD"
	RangeAll RangeKey = "ALL"
)

// Interval is the sampling interval requested from the data source.
type Interval string

// Timeseries intervals understood by the data source.
const (
	IntervalHour  Interval = "HOUR"
	IntervalDay   Interval = "DAY"
	IntervalWeek  Interval = "WEEK"
	IntervalMonth Interval = "MONTH"
)

// RangeConfig is a resolved time range: inclusive start/end Unix seconds
// plus the sampling interval.
type RangeConfig struct {
	StartTimestamp int64
	EndTimestamp   int64
	Interval       Interval
}

const (
	daySeconds  = 24 * 60 * 60
	hourSeconds = 60 * 60
)

// allTimeStart anchors the ALL range. Unix seconds for 2024-01-01T00:00:00Z.
var allTimeStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()

// ParseRangeKey validates a range key string.
func ParseRangeKey(s string) (RangeKey, bool) {
	switch RangeKey(s) {
	case Range30D, Range60D, Range90D, RangeYTD, RangeAll:
		return RangeKey(s), true
	}
	return "", false
}

// ConfigForRange resolves a preset to a concrete range relative to now.
// Day-based presets anchor their start at the UTC start of today so the
// first bucket is a full day.
func ConfigForRange(key RangeKey, now time.Time) RangeConfig {
	now = now.UTC()
	nowUnix := now.Unix()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Unix()

	switch key {
	case Range30D:
		return RangeConfig{StartTimestamp: startOfToday - 30*daySeconds, EndTimestamp: nowUnix, Interval: IntervalDay}
	case Range60D:
		return RangeConfig{StartTimestamp: startOfToday - 60*daySeconds, EndTimestamp: nowUnix, Interval: IntervalDay}
	case Range90D:
		return RangeConfig{StartTimestamp: startOfToday - 90*daySeconds, EndTimestamp: nowUnix, Interval: IntervalDay}
	case RangeYTD:
		yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
		return RangeConfig{StartTimestamp: yearStart, EndTimestamp: nowUnix, Interval: IntervalDay}
	default:
		// ALL: weekly buckets, end padded an hour past now so the open
		// bucket is included.
		return RangeConfig{StartTimestamp: allTimeStart, EndTimestamp: nowUnix + hourSeconds, Interval: IntervalWeek}
	}
}
