package weather

import "testing"

func TestRecordRangeSummary(t *testing.T) {
	tests := []struct {
		low, high float64
		want      string
	}{
		{58.0, 74.0, "58°F – 74°F"},
		{59.4, 75.6, "59°F – 76°F"},
		{58.5, 74.5, "58°F – 74°F"},
		{57.5, 73.5, "58°F – 74°F"},
		{-3.2, 12.9, "-3°F – 13°F"},
	}

	for _, tt := range tests {
		r := Record{LowF: tt.low, HighF: tt.high}
		if got := r.RangeSummary(); got != tt.want {
			t.Errorf("RangeSummary(%v, %v) = %q, want %q", tt.low, tt.high, got, tt.want)
		}
	}
}
