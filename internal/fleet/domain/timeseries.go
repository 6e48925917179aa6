package fleet

import (
	"fmt"
	"math"
	"time"
)

// Time-series buckets are fixed five-minute slots, 288 per day. Index i
// refers to the same bucket in every parallel array.
const (
	BucketMinutes = 5
	BucketsPerDay = 24 * 60 / BucketMinutes
)

// DayAxis returns the full day's bucket labels ("00:00" .. "23:55").
func DayAxis() []string {
	axis := make([]string, 0, BucketsPerDay)
	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m += BucketMinutes {
			axis = append(axis, fmt.Sprintf("%02d:%02d", h, m))
		}
	}
	return axis
}

// AxisThrough returns bucket labels up to and including the current
// time of day.
func AxisThrough(now time.Time) []string {
	label := now.Format("15:04")
	axis := DayAxis()
	for i, t := range axis {
		if t > label {
			return axis[:i]
		}
	}
	return axis
}

// Round2 rounds to two decimals, the resolution of all served kW figures.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TimeSeries holds parallel day-bucket arrays for one account or the whole
// fleet. The zero value is "no data" and contributes nothing when merged.
type TimeSeries struct {
	Production      []float64
	Consumption     []float64
	SelfConsumption []float64
	Surplus         []float64
}

// Empty reports whether the series carries no data.
func (ts TimeSeries) Empty() bool {
	return len(ts.Production) == 0
}

// AccumulatePlant adds one plant's day buckets into the running series,
// rounding each bucket to two decimals. The first plant with data seeds the
// array lengths; later plants align by index. Surplus per bucket is the
// non-negative production excess.
func (ts *TimeSeries) AccumulatePlant(production, consumption, selfConsumption []float64) {
	if ts.Production == nil {
		ts.Production = make([]float64, len(production))
		ts.Consumption = make([]float64, len(consumption))
		ts.SelfConsumption = make([]float64, len(selfConsumption))
		ts.Surplus = make([]float64, len(production))
	}
	for i := range ts.Production {
		if i >= len(production) {
			break
		}
		ts.Production[i] = Round2(ts.Production[i] + production[i])
	}
	for i := range ts.Consumption {
		if i >= len(consumption) {
			break
		}
		ts.Consumption[i] = Round2(ts.Consumption[i] + consumption[i])
	}
	for i := range ts.SelfConsumption {
		if i >= len(selfConsumption) {
			break
		}
		ts.SelfConsumption[i] = Round2(ts.SelfConsumption[i] + selfConsumption[i])
	}
	for i := range ts.Surplus {
		if i >= len(production) || i >= len(consumption) {
			break
		}
		ts.Surplus[i] = Round2(ts.Surplus[i] + math.Max(production[i]-consumption[i], 0))
	}
}

// MergeSeries combines two series position-wise. The operation is commutative
// and associative up to the common prefix, so fan-in completion order does
// not affect the result. An empty side contributes nothing.
func MergeSeries(a, b TimeSeries) TimeSeries {
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	return TimeSeries{
		Production:      addBuckets(a.Production, b.Production),
		Consumption:     addBuckets(a.Consumption, b.Consumption),
		SelfConsumption: addBuckets(a.SelfConsumption, b.SelfConsumption),
		Surplus:         addBuckets(a.Surplus, b.Surplus),
	}
}

func addBuckets(a, b []float64) []float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := make([]float64, n)
	for i := 0; i < n; i++ {
		sum[i] = a[i] + b[i]
	}
	return sum
}
