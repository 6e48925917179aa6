package application

import (
	"context"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	fleet "solarfleet/internal/fleet/domain"
	"solarfleet/internal/observability/metrics"
)

// SessionSource hands out live vendor sessions.
type SessionSource interface {
	Acquire(ctx context.Context, cred fleet.Credential) (fleet.VendorClient, error)
}

// Harvester collects one account's worth of plant data and folds failures
// into the result instead of propagating them. Only a failed login or
// station list aborts the account; per-plant failures degrade that plant
// and move on.
type Harvester struct {
	sessions SessionSource
	logger   *log.Logger

	criticalAfter time.Duration
	maintenance   map[string]bool
	messages      map[fleet.PlantState]string
	alarmCheck    bool

	now func() time.Time
}

// HarvesterOption adjusts harvester behavior.
type HarvesterOption func(*Harvester)

func WithCriticalAfter(d time.Duration) HarvesterOption {
	return func(h *Harvester) {
		if d > 0 {
			h.criticalAfter = d
		}
	}
}

func WithMaintenancePlants(set map[string]bool) HarvesterOption {
	return func(h *Harvester) { h.maintenance = set }
}

func WithStateMessages(msgs map[fleet.PlantState]string) HarvesterOption {
	return func(h *Harvester) {
		for state, text := range msgs {
			if text != "" {
				h.messages[state] = text
			}
		}
	}
}

func WithAlarmCheck(enabled bool) HarvesterOption {
	return func(h *Harvester) { h.alarmCheck = enabled }
}

func WithHarvesterClock(now func() time.Time) HarvesterOption {
	return func(h *Harvester) {
		if now != nil {
			h.now = now
		}
	}
}

func NewHarvester(sessions SessionSource, logger *log.Logger, opts ...HarvesterOption) (*Harvester, error) {
	if sessions == nil {
		return nil, fmt.Errorf("harvester: nil session source")
	}
	h := &Harvester{
		sessions:      sessions,
		logger:        logger,
		criticalAfter: fleet.DefaultCriticalAfter,
		messages: map[fleet.PlantState]string{
			fleet.StateDisconnected:  "Plant Disconnected",
			fleet.StateNoConsumption: "No Consumption",
			fleet.StateNoProduction:  "No Production",
			fleet.StateCommError:     "Communication Error",
		},
		alarmCheck: true,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Harvest produces the account's contribution to the fleet snapshot. It
// never returns an error: failures become alerts in the result so one bad
// account cannot poison the fleet aggregation.
func (h *Harvester) Harvest(ctx context.Context, cred fleet.Credential) fleet.AccountResult {
	start := time.Now()
	result := fleet.AccountResult{Account: cred.Name}

	client, err := h.sessions.Acquire(ctx, cred)
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("harvester: login failed for %s: %v", cred.Name, err)
		}
		result.Alerts = append(result.Alerts, fleet.Alert{
			Severity: fleet.SeverityCritical,
			Message:  fmt.Sprintf("Account %s: login failed: %s", cred.Name, truncateErr(err, 100)),
		})
		metrics.ObserveHarvest(metrics.ResultError, time.Since(start))
		return result
	}

	plants, err := client.StationList(ctx)
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("harvester: station list failed for %s: %v", cred.Name, err)
		}
		result.Alerts = append(result.Alerts, fleet.Alert{
			Severity: fleet.SeverityCritical,
			Message:  fmt.Sprintf("Account %s: plant list failed: %s", cred.Name, truncateErr(err, 100)),
		})
		metrics.ObserveHarvest(metrics.ResultError, time.Since(start))
		return result
	}
	if len(plants) == 0 {
		result.Alerts = append(result.Alerts, fleet.Alert{
			Severity: fleet.SeverityAdvisory,
			Message:  fmt.Sprintf("Account %s: no plants found", cred.Name),
		})
		metrics.ObserveHarvest(metrics.ResultSuccess, time.Since(start))
		return result
	}

	for _, plant := range plants {
		status, alerts := h.harvestPlant(ctx, client, cred.Name, plant, &result)
		result.Statuses = append(result.Statuses, status)
		result.Alerts = append(result.Alerts, alerts...)
	}

	metrics.ObserveHarvest(metrics.ResultSuccess, time.Since(start))
	return result
}

func (h *Harvester) harvestPlant(ctx context.Context, client fleet.VendorClient, account string, plant fleet.PlantRecord, result *fleet.AccountResult) (fleet.PlantStatus, []fleet.Alert) {
	realtime, rtErr := client.PlantRealtime(ctx, plant.DN)
	series, seriesErr := client.PlantDaySeries(ctx, plant.DN)
	if rtErr != nil {
		// The plant still appears in the fleet view, zeroed and red, so a
		// fetch failure is visible rather than silently shrinking the fleet.
		metrics.IncPlantFetchError(account)
		if h.logger != nil {
			h.logger.Printf("harvester: plant %s fetch failed: %v", plant.Name, rtErr)
		}
		status := fleet.PlantStatus{
			Name:                plant.Name,
			InstalledCapacityKW: plant.InstalledCapacityKW,
			State:               fleet.StateCommError,
			Severity:            fleet.SeverityCritical,
		}
		alert := fleet.Alert{
			Severity: fleet.SeverityCritical,
			Message:  fmt.Sprintf("%s: data fetch failed: %s", plant.Name, truncateErr(rtErr, 80)),
		}
		return status, []fleet.Alert{alert}
	}
	if seriesErr != nil {
		metrics.IncPlantFetchError(account)
		if h.logger != nil {
			h.logger.Printf("harvester: plant %s day series failed: %v", plant.Name, seriesErr)
		}
		series = fleet.TimeSeries{}
	}

	c := fleet.Classify(fleet.ClassifierInput{
		Connectivity:     plant.Connectivity,
		ProductionKW:     realtime.ProductionKW,
		ConsumptionKW:    realtime.ConsumptionKW,
		LastSample:       realtime.SampleTime,
		Now:              h.now(),
		UnderMaintenance: h.maintenance[plant.Name],
		CriticalAfter:    h.criticalAfter,
	})

	status := fleet.PlantStatus{
		Name:                plant.Name,
		InstalledCapacityKW: plant.InstalledCapacityKW,
		ProductionKW:        realtime.ProductionKW,
		ConsumptionKW:       realtime.ConsumptionKW,
		GridKW:              realtime.GridKW,
		SurplusKW:           surplus(realtime.ProductionKW, realtime.ConsumptionKW),
		State:               c.State,
		Severity:            c.Severity,
		LastSample:          realtime.SampleTime,
	}

	// Only plants whose data arrived count toward the fleet total; failed
	// plants stay visible in Statuses but are not "monitored plants".
	result.PlantCount++
	result.ProductionKW += realtime.ProductionKW
	result.ConsumptionKW += realtime.ConsumptionKW
	result.GridKW += realtime.GridKW
	if !series.Empty() {
		result.Series.AccumulatePlant(series.Production, series.Consumption, series.SelfConsumption)
	}

	var alerts []fleet.Alert
	if c.State != fleet.StateOK {
		msg := fmt.Sprintf("%s: %s", plant.Name, h.messages[c.State])
		if c.Severity == fleet.SeverityCritical && !realtime.SampleTime.IsZero() {
			msg += fmt.Sprintf(" (last communication: %s)", realtime.SampleTime.Format("02/01/2006 15:04"))
		}
		alerts = append(alerts, fleet.Alert{Severity: c.Severity, Message: msg})
	}

	if h.alarmCheck {
		alarmAlerts := h.sweepAlarms(ctx, client, plant, &status)
		alerts = append(alerts, alarmAlerts...)
	}
	return status, alerts
}

// sweepAlarms walks the plant's inverters and folds active device alarms
// into alerts. Sweep failures are logged and skipped; alarms are additive
// detail, not core telemetry.
func (h *Harvester) sweepAlarms(ctx context.Context, client fleet.VendorClient, plant fleet.PlantRecord, status *fleet.PlantStatus) []fleet.Alert {
	ids, err := client.InverterIDs(ctx, plant.DN)
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("harvester: inverter lookup failed for %s: %v", plant.Name, err)
		}
		return nil
	}
	var alerts []fleet.Alert
	for _, id := range ids {
		alarms, err := client.DeviceAlarms(ctx, id)
		if err != nil {
			if h.logger != nil {
				h.logger.Printf("harvester: alarm fetch failed for %s device %s: %v", plant.Name, id, err)
			}
			continue
		}
		for _, alarm := range alarms {
			status.Alarms = append(status.Alarms, alarm)
			msg := fmt.Sprintf("%s - %s (Inverter", plant.Name, alarm.Name)
			if !alarm.RaisedAt.IsZero() {
				msg += ", " + alarm.RaisedAt.Format("02/01/2006 15:04")
			}
			msg += ")"
			alerts = append(alerts, fleet.Alert{Severity: alarm.Severity, Message: msg})
		}
	}
	return alerts
}

func surplus(production, consumption float64) float64 {
	if s := production - consumption; s > 0 {
		return fleet.Round2(s)
	}
	return 0
}

// truncateErr shortens an error message to at most max bytes, cutting on a
// rune boundary so the alert text stays valid UTF-8.
func truncateErr(err error, max int) string {
	msg := err.Error()
	if len(msg) <= max {
		return msg
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
