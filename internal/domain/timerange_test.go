package domain

import (
	"testing"
	"time"
)

func TestConfigForRange_30D(t *testing.T) {
	now := time.Date(2025, time.March, 15, 13, 45, 12, 0, time.UTC)
	cfg := ConfigForRange(Range30D, now)

	startOfToday := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC).Unix()
	if cfg.StartTimestamp != startOfToday-30*daySeconds {
		t.Errorf("start = %d, want %d", cfg.StartTimestamp, startOfToday-30*daySeconds)
	}
	if cfg.EndTimestamp != now.Unix() {
		t.Errorf("end = %d, want %d", cfg.EndTimestamp, now.Unix())
	}
	if cfg.Interval != IntervalDay {
		t.Errorf("interval = %s, want DAY", cfg.Interval)
	}
}

func TestConfigForRange_YTD(t *testing.T) {
	now := time.Date(2025, time.March, 15, 13, 45, 12, 0, time.UTC)
	cfg := ConfigForRange(RangeYTD, now)

	yearStart := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	if cfg.StartTimestamp != yearStart {
		t.Errorf("start = %d, want %d", cfg.StartTimestamp, yearStart)
	}
	if cfg.Interval != IntervalDay {
		t.Errorf("interval = %s, want DAY", cfg.Interval)
	}
}

func TestConfigForRange_All(t *testing.T) {
	now := time.Date(2025, time.March, 15, 13, 45, 12, 0, time.UTC)
	cfg := ConfigForRange(RangeAll, now)

	if cfg.StartTimestamp != allTimeStart {
		t.Errorf("start = %d, want %d", cfg.StartTimestamp, allTimeStart)
	}
	if cfg.EndTimestamp != now.Unix()+hourSeconds {
		t.Errorf("end = %d, want now+1h", cfg.EndTimestamp)
	}
	if cfg.Interval != IntervalWeek {
		t.Errorf("interval = %s, want WEEK", cfg.Interval)
	}
}

func TestParseRangeKey(t *testing.T) {
	for _, valid := range []string{"30D", "60D", "90D", "YTD", "ALL"} {
		if _, ok := ParseRangeKey(valid); !ok {
			t.Errorf("ParseRangeKey(%q) rejected valid key", valid)
		}
	}
	if _, ok := ParseRangeKey("7D"); ok {
		t.Error("ParseRangeKey accepted unknown key")
	}
}
