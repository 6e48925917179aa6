package fleet

import "time"

// DefaultCriticalAfter is how long a plant may be disconnected before its
// classification escalates from minor to critical.
const DefaultCriticalAfter = 8 * time.Hour

// PlantState is the operational state of a plant derived from telemetry.
type PlantState int

const (
	StateOK PlantState = iota
	StateDisconnected
	StateNoConsumption
	StateNoProduction
	StateCommError
)

func (s PlantState) String() string {
	switch s {
	case StateOK:
		return "ok"
	case StateDisconnected:
		return "disconnected"
	case StateNoConsumption:
		return "no_consumption"
	case StateNoProduction:
		return "no_production"
	default:
		return "comm_error"
	}
}

// ClassifierInput is everything the classifier looks at. Classification is a
// pure function of this value.
type ClassifierInput struct {
	Connectivity  string
	ProductionKW  float64
	ConsumptionKW float64

	// LastSample is the timestamp of the last known telemetry sample; zero
	// when unknown. Now is the evaluation time.
	LastSample time.Time
	Now        time.Time

	UnderMaintenance bool
	CriticalAfter    time.Duration
}

// Classification pairs the derived state with its display severity.
type Classification struct {
	State    PlantState
	Severity Severity
}

// Classify maps plant telemetry to an operational state. Branches are
// evaluated in precedence order; the maintenance override downgrades the
// displayed severity but never outranks critical.
func Classify(in ClassifierInput) Classification {
	after := in.CriticalAfter
	if after <= 0 {
		after = DefaultCriticalAfter
	}

	var c Classification
	switch {
	case in.Connectivity == ConnectivityConnected && in.ProductionKW != 0 && in.ConsumptionKW != 0:
		c = Classification{State: StateOK, Severity: SeverityOK}
	case in.Connectivity == ConnectivityDisconnected:
		c = Classification{State: StateDisconnected, Severity: SeverityMinor}
		if !in.LastSample.IsZero() && in.Now.Sub(in.LastSample) >= after {
			c.Severity = SeverityCritical
		}
	case in.Connectivity == ConnectivityConnected && in.ProductionKW != 0 && in.ConsumptionKW == 0:
		c = Classification{State: StateNoConsumption, Severity: SeverityMinor}
	case in.Connectivity == ConnectivityConnected && in.ProductionKW == 0:
		c = Classification{State: StateNoProduction, Severity: SeverityMinor}
	default:
		c = Classification{State: StateCommError, Severity: SeverityMinor}
	}

	if in.UnderMaintenance && c.State != StateOK && c.Severity != SeverityCritical {
		c.Severity = SeverityMaintenance
	}
	return c
}
