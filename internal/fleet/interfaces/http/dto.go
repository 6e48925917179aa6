package fleethttp

import (
	"time"

	fleet "solarfleet/internal/fleet/domain"
)

// snapshotDTO is the dashboard wire shape for one fleet snapshot.
type snapshotDTO struct {
	Production  float64     `json:"production"`
	Consumption float64     `json:"consumption"`
	Grid        float64     `json:"grid"`
	TotalPlants int         `json:"total_plants"`
	Statuses    []statusDTO `json:"statuses"`
	Alert       string      `json:"alert"`
	Chart       chartDTO    `json:"chart"`
	Alerts      []string    `json:"alerts"`
	GeneratedAt string      `json:"generated_at"`
	LastUpdated string      `json:"last_updated"`
}

type statusDTO struct {
	Name              string   `json:"name"`
	InstalledCapacity float64  `json:"installed_capacity"`
	Production        float64  `json:"production"`
	Consumption       float64  `json:"consumption"`
	Grid              float64  `json:"grid"`
	Surplus           float64  `json:"surplus"`
	StatusIcon        string   `json:"status_icon"`
	State             string   `json:"state"`
	Severity          string   `json:"severity"`
	LastSampleTime    string   `json:"last_sample_time,omitempty"`
	Alarms            []string `json:"alarms,omitempty"`
	AlarmCount        int      `json:"alarm_count"`
}

type chartDTO struct {
	XAxis           []string   `json:"x_axis"`
	Production      []*float64 `json:"production"`
	Consumption     []*float64 `json:"consumption"`
	SelfConsumption []*float64 `json:"self_consumption"`
	Surplus         []*float64 `json:"surplus"`
}

// archivedSnapshotDTO is the wire shape for one archived summary row.
type archivedSnapshotDTO struct {
	Production  float64 `json:"production"`
	Consumption float64 `json:"consumption"`
	Grid        float64 `json:"grid"`
	TotalPlants int     `json:"total_plants"`
	AlertCount  int     `json:"alert_count"`
	GeneratedAt string  `json:"generated_at"`
}

func toArchivedDTO(row fleet.ArchivedSnapshot) archivedSnapshotDTO {
	return archivedSnapshotDTO{
		Production:  row.ProductionKW,
		Consumption: row.ConsumptionKW,
		Grid:        row.GridKW,
		TotalPlants: row.TotalPlants,
		AlertCount:  row.AlertCount,
		GeneratedAt: row.GeneratedAt.Format(time.RFC3339),
	}
}

// severityGlyphs maps severities to the dashboard's status icons. Glyphs
// exist only at this boundary; the domain knows severities by name.
var severityGlyphs = map[fleet.Severity]string{
	fleet.SeverityCritical:    "🔴",
	fleet.SeverityMajor:       "🟠",
	fleet.SeverityMaintenance: "⏳",
	fleet.SeverityMinor:       "🟡",
	fleet.SeverityWarning:     "⚪",
	fleet.SeverityAdvisory:    "⚠️",
	fleet.SeverityOK:          "🟢",
}

func glyph(s fleet.Severity) string {
	if g, ok := severityGlyphs[s]; ok {
		return g
	}
	return "⚪"
}

func toDTO(snap fleet.Snapshot) snapshotDTO {
	dto := snapshotDTO{
		Production:  snap.ProductionKW,
		Consumption: snap.ConsumptionKW,
		Grid:        snap.GridKW,
		TotalPlants: snap.TotalPlants,
		Alert:       snap.AlertSummary,
		Chart: chartDTO{
			XAxis:           snap.Chart.XAxis,
			Production:      snap.Chart.Production,
			Consumption:     snap.Chart.Consumption,
			SelfConsumption: snap.Chart.SelfConsumption,
			Surplus:         snap.Chart.Surplus,
		},
		GeneratedAt: snap.GeneratedAt.Format(time.RFC3339),
		LastUpdated: snap.GeneratedAt.Format("2006-01-02 15:04:05"),
	}
	for _, status := range snap.Statuses {
		dto.Statuses = append(dto.Statuses, toStatusDTO(status))
	}
	for _, alert := range snap.Alerts {
		dto.Alerts = append(dto.Alerts, glyph(alert.Severity)+" "+alert.Message)
	}
	return dto
}

func toStatusDTO(status fleet.PlantStatus) statusDTO {
	dto := statusDTO{
		Name:              status.Name,
		InstalledCapacity: status.InstalledCapacityKW,
		Production:        status.ProductionKW,
		Consumption:       status.ConsumptionKW,
		Grid:              status.GridKW,
		Surplus:           status.SurplusKW,
		StatusIcon:        glyph(status.Severity),
		State:             status.State.String(),
		Severity:          status.Severity.String(),
		AlarmCount:        len(status.Alarms),
	}
	if !status.LastSample.IsZero() {
		dto.LastSampleTime = status.LastSample.Format("2006-01-02 15:04")
	}
	for _, alarm := range status.Alarms {
		dto.Alarms = append(dto.Alarms, alarm.Name)
	}
	return dto
}
