package fleet

import "errors"

// Credential identifies one vendor account. Loaded once at startup and never
// mutated afterwards.
type Credential struct {
	Name      string
	Password  string
	Subdomain string
}

// Validate checks credential invariants.
func (c Credential) Validate() error {
	if c.Name == "" {
		return errors.New("fleet: empty account name")
	}
	if c.Password == "" {
		return errors.New("fleet: empty account password")
	}
	if c.Subdomain == "" {
		return errors.New("fleet: empty account subdomain")
	}
	return nil
}

// AccountResult is the outcome of harvesting a single account. Totals are
// non-negative sums over the account's plants; a failed account carries zero
// totals and the failure folded into Alerts.
type AccountResult struct {
	Account       string
	ProductionKW  float64
	ConsumptionKW float64
	GridKW        float64
	PlantCount    int
	Statuses      []PlantStatus
	Alerts        []Alert
	Series        TimeSeries
}
