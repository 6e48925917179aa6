package fleet

import (
	"testing"
	"time"
)

func TestDayAxis(t *testing.T) {
	axis := DayAxis()
	if len(axis) != BucketsPerDay {
		t.Fatalf("expected %d buckets, got %d", BucketsPerDay, len(axis))
	}
	if axis[0] != "00:00" || axis[len(axis)-1] != "23:55" {
		t.Fatalf("unexpected axis bounds: %s .. %s", axis[0], axis[len(axis)-1])
	}
}

func TestAxisThrough(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 7, 0, 0, time.UTC)
	axis := AxisThrough(now)
	// 00:00 and 00:05 have started by 00:07.
	if len(axis) != 2 {
		t.Fatalf("expected 2 buckets at 00:07, got %d", len(axis))
	}
	if got := AxisThrough(time.Date(2026, 6, 15, 23, 59, 0, 0, time.UTC)); len(got) != BucketsPerDay {
		t.Fatalf("expected full axis at 23:59, got %d", len(got))
	}
}

func TestMergeSeries(t *testing.T) {
	a := TimeSeries{Production: []float64{1, 2}, Consumption: []float64{0.5, 0.5}}
	b := TimeSeries{Production: []float64{3, 4}, Consumption: []float64{1, 1}}
	merged := MergeSeries(a, b)
	if merged.Production[0] != 4 || merged.Production[1] != 6 {
		t.Fatalf("unexpected production sum: %v", merged.Production)
	}
	if merged.Consumption[0] != 1.5 {
		t.Fatalf("unexpected consumption sum: %v", merged.Consumption)
	}
}

func TestMergeSeries_Commutative(t *testing.T) {
	a := TimeSeries{Production: []float64{1, 2, 3}, Consumption: []float64{1, 1, 1}}
	b := TimeSeries{Production: []float64{4, 5, 6}, Consumption: []float64{2, 2, 2}}
	ab := MergeSeries(a, b)
	ba := MergeSeries(b, a)
	for i := range ab.Production {
		if ab.Production[i] != ba.Production[i] {
			t.Fatalf("merge order changed bucket %d: %v vs %v", i, ab.Production, ba.Production)
		}
	}
}

func TestMergeSeries_EmptySide(t *testing.T) {
	a := TimeSeries{Production: []float64{1, 2}}
	if got := MergeSeries(a, TimeSeries{}); len(got.Production) != 2 || got.Production[0] != 1 {
		t.Fatalf("empty right side should pass left through: %v", got.Production)
	}
	if got := MergeSeries(TimeSeries{}, a); len(got.Production) != 2 {
		t.Fatalf("empty left side should pass right through: %v", got.Production)
	}
}

func TestMergeSeries_MismatchedLengths(t *testing.T) {
	a := TimeSeries{Production: []float64{1, 2, 3}}
	b := TimeSeries{Production: []float64{10}}
	merged := MergeSeries(a, b)
	if len(merged.Production) != 1 || merged.Production[0] != 11 {
		t.Fatalf("expected common-prefix merge, got %v", merged.Production)
	}
}

func TestAccumulatePlant(t *testing.T) {
	var ts TimeSeries
	ts.AccumulatePlant([]float64{2, 2}, []float64{1, 3}, []float64{0.5, 0.5})
	ts.AccumulatePlant([]float64{1, 1}, []float64{1, 1}, []float64{0.25, 0.25})

	if ts.Production[0] != 3 || ts.Production[1] != 3 {
		t.Fatalf("unexpected production: %v", ts.Production)
	}
	// Surplus per bucket is clamped at zero before summation.
	if ts.Surplus[0] != 1 {
		t.Fatalf("expected surplus 1 in bucket 0, got %v", ts.Surplus[0])
	}
	if ts.Surplus[1] != 0 {
		t.Fatalf("expected surplus 0 in bucket 1, got %v", ts.Surplus[1])
	}
}

func TestAccumulatePlant_Rounds(t *testing.T) {
	var ts TimeSeries
	ts.AccumulatePlant([]float64{0.1}, []float64{0}, []float64{0})
	ts.AccumulatePlant([]float64{0.2}, []float64{0}, []float64{0})
	if ts.Production[0] != 0.3 {
		t.Fatalf("expected rounded 0.3, got %v", ts.Production[0])
	}
}

func TestChartFromSeries_PadsAndTruncates(t *testing.T) {
	axis := []string{"00:00", "00:05", "00:10"}
	chart := ChartFromSeries(axis, TimeSeries{Production: []float64{1, 2}})
	if len(chart.Production) != 3 {
		t.Fatalf("expected 3 production entries, got %d", len(chart.Production))
	}
	if chart.Production[2] != nil {
		t.Fatalf("expected nil padding in trailing bucket")
	}
	if chart.Production[0] == nil || *chart.Production[0] != 1 {
		t.Fatalf("expected value 1 in bucket 0")
	}
	if len(chart.Consumption) != 3 {
		t.Fatalf("every array must match the axis length")
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(1.005 + 2.004); got != 3.01 {
		t.Fatalf("expected 3.01, got %v", got)
	}
}
