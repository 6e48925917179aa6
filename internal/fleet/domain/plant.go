package fleet

import "time"

// Connectivity values reported by the vendor station list. Anything else is
// treated as a communication error by the classifier.
const (
	ConnectivityConnected    = "connected"
	ConnectivityDisconnected = "disconnected"
)

// PlantRecord is one station as returned by the vendor station list. It is
// fetched fresh on every harvest and never cached independently.
type PlantRecord struct {
	Name                string
	DN                  string
	InstalledCapacityKW float64
	Connectivity        string
}

// RealtimeMetrics carries the latest sampled power values for a plant.
// Missing telemetry collapses to zero before summation.
type RealtimeMetrics struct {
	ProductionKW  float64
	ConsumptionKW float64
	GridKW        float64
	SampleTime    time.Time
}

// DeviceAlarm is the canonical alarm record extracted from vendor payloads.
// Unparsed marks payloads that matched none of the known shapes.
type DeviceAlarm struct {
	Device   string
	Name     string
	Severity Severity
	RaisedAt time.Time
	Unparsed bool
}

// PlantStatus is the classified per-plant view produced by a harvest.
// Immutable once produced.
type PlantStatus struct {
	Name                string
	InstalledCapacityKW float64
	ProductionKW        float64
	ConsumptionKW       float64
	GridKW              float64
	SurplusKW           float64
	State               PlantState
	Severity            Severity
	LastSample          time.Time
	Alarms              []DeviceAlarm
}
