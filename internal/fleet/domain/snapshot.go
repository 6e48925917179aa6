package fleet

import "time"

// Chart is the served time-series view. Every value array has exactly
// len(XAxis) entries; nil entries mean "no data yet", not zero production.
type Chart struct {
	XAxis           []string
	Production      []*float64
	Consumption     []*float64
	SelfConsumption []*float64
	Surplus         []*float64
}

// Snapshot is one coherent fleet-wide aggregation result, the unit of
// caching. Readers always receive an independent copy.
type Snapshot struct {
	ProductionKW  float64
	ConsumptionKW float64
	GridKW        float64
	TotalPlants   int
	Statuses      []PlantStatus
	AlertSummary  string
	Chart         Chart
	Alerts        []Alert
	GeneratedAt   time.Time
}

// ArchivedSnapshot is one archived snapshot summary row.
type ArchivedSnapshot struct {
	ProductionKW  float64
	ConsumptionKW float64
	GridKW        float64
	TotalPlants   int
	AlertCount    int
	GeneratedAt   time.Time
}

// ChartFromSeries projects a merged series onto the given axis, truncating
// longer arrays and null-padding shorter ones so the length invariant holds.
func ChartFromSeries(axis []string, ts TimeSeries) Chart {
	return Chart{
		XAxis:           axis,
		Production:      fitBuckets(ts.Production, len(axis)),
		Consumption:     fitBuckets(ts.Consumption, len(axis)),
		SelfConsumption: fitBuckets(ts.SelfConsumption, len(axis)),
		Surplus:         fitBuckets(ts.Surplus, len(axis)),
	}
}

func fitBuckets(values []float64, n int) []*float64 {
	fitted := make([]*float64, n)
	for i := 0; i < n && i < len(values); i++ {
		v := values[i]
		fitted[i] = &v
	}
	return fitted
}
