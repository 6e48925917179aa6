package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	fleet "solarfleet/internal/fleet/domain"
	"solarfleet/internal/observability/metrics"
)

const defaultHarvestWorkers = 5

// Clock abstracts wall time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// AccountHarvester is the per-account collection step.
type AccountHarvester interface {
	Harvest(ctx context.Context, cred fleet.Credential) fleet.AccountResult
}

// Aggregator fans account harvests out over a bounded worker pool and
// merges the results into one fleet snapshot. Merging is commutative, so
// the snapshot does not depend on which account finishes first.
type Aggregator struct {
	harvester AccountHarvester
	accounts  []fleet.Credential
	workers   int
	logger    *log.Logger
	clock     Clock

	allNormalMessage string
}

// AggregatorOption adjusts aggregator behavior.
type AggregatorOption func(*Aggregator)

func WithWorkers(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

func WithClock(clock Clock) AggregatorOption {
	return func(a *Aggregator) {
		if clock != nil {
			a.clock = clock
		}
	}
}

func NewAggregator(harvester AccountHarvester, accounts []fleet.Credential, logger *log.Logger, opts ...AggregatorOption) (*Aggregator, error) {
	if harvester == nil {
		return nil, errors.New("aggregator: nil harvester")
	}
	a := &Aggregator{
		harvester:        harvester,
		accounts:         accounts,
		workers:          defaultHarvestWorkers,
		logger:           logger,
		clock:            SystemClock{},
		allNormalMessage: "All plants operating normally.",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Aggregate harvests every configured account concurrently and merges the
// results into one snapshot.
func (a *Aggregator) Aggregate(ctx context.Context) (fleet.Snapshot, error) {
	start := time.Now()
	if len(a.accounts) == 0 {
		metrics.ObserveAggregate(metrics.ResultError, time.Since(start))
		return fleet.Snapshot{}, errors.New("aggregator: no accounts configured")
	}

	jobs := make(chan fleet.Credential)
	results := make(chan fleet.AccountResult, len(a.accounts))

	workers := a.workers
	if workers > len(a.accounts) {
		workers = len(a.accounts)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cred := range jobs {
				results <- a.harvester.Harvest(ctx, cred)
			}
		}()
	}
	for _, cred := range a.accounts {
		jobs <- cred
	}
	close(jobs)
	wg.Wait()
	close(results)

	var snap fleet.Snapshot
	var series fleet.TimeSeries
	for result := range results {
		snap.ProductionKW += result.ProductionKW
		snap.ConsumptionKW += result.ConsumptionKW
		snap.GridKW += result.GridKW
		snap.TotalPlants += result.PlantCount
		snap.Statuses = append(snap.Statuses, result.Statuses...)
		snap.Alerts = append(snap.Alerts, result.Alerts...)
		series = fleet.MergeSeries(series, result.Series)
	}

	snap.ProductionKW = fleet.Round2(snap.ProductionKW)
	snap.ConsumptionKW = fleet.Round2(snap.ConsumptionKW)
	snap.GridKW = fleet.Round2(snap.GridKW)
	fleet.SortAlerts(snap.Alerts)
	snap.AlertSummary = a.summarize(snap.Alerts)

	now := a.clock.Now()
	snap.Chart = fleet.ChartFromSeries(fleet.AxisThrough(now), series)
	snap.GeneratedAt = now

	if a.logger != nil {
		a.logger.Printf("aggregator: %d plants across %d accounts, %d alerts", snap.TotalPlants, len(a.accounts), len(snap.Alerts))
	}
	metrics.ObserveAggregate(metrics.ResultSuccess, time.Since(start))
	return snap, nil
}

func (a *Aggregator) summarize(alerts []fleet.Alert) string {
	if len(alerts) == 0 {
		return a.allNormalMessage
	}
	var b strings.Builder
	b.WriteString("The following plants need attention:")
	for _, alert := range alerts {
		fmt.Fprintf(&b, "\n- %s", alert.Message)
	}
	return b.String()
}
