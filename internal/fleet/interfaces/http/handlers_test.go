package fleethttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	fleet "solarfleet/internal/fleet/domain"
)

type stubSource struct {
	snap fleet.Snapshot
	err  error
}

func (s *stubSource) Get(ctx context.Context) (fleet.Snapshot, error) {
	return s.snap, s.err
}

func testSnapshot() fleet.Snapshot {
	generated := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	one := 1.5
	return fleet.Snapshot{
		ProductionKW:  10.5,
		ConsumptionKW: 4.25,
		GridKW:        6.25,
		TotalPlants:   2,
		Statuses: []fleet.PlantStatus{
			{
				Name:                "Plant A",
				InstalledCapacityKW: 12,
				ProductionKW:        10.5,
				ConsumptionKW:       4.25,
				SurplusKW:           6.25,
				State:               fleet.StateOK,
				Severity:            fleet.SeverityOK,
				LastSample:          generated.Add(-5 * time.Minute),
			},
			{
				Name:     "Plant B",
				State:    fleet.StateDisconnected,
				Severity: fleet.SeverityCritical,
				Alarms:   []fleet.DeviceAlarm{{Name: "Comm lost"}},
			},
		},
		AlertSummary: "The following plants need attention:\n- Plant B: Plant Disconnected",
		Chart: fleet.Chart{
			XAxis:           []string{"00:00", "00:05"},
			Production:      []*float64{&one, nil},
			Consumption:     []*float64{&one, nil},
			SelfConsumption: []*float64{&one, nil},
			Surplus:         []*float64{&one, nil},
		},
		Alerts:      []fleet.Alert{{Severity: fleet.SeverityCritical, Message: "Plant B: Plant Disconnected"}},
		GeneratedAt: generated,
	}
}

func TestLiveDataHandler_OK(t *testing.T) {
	handler := NewLiveDataHandler(&stubSource{snap: testSnapshot()})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/fleet/live", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["production"] != 10.5 || body["total_plants"] != float64(2) {
		t.Fatalf("unexpected totals: %v", body)
	}

	statuses := body["statuses"].([]any)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	first := statuses[0].(map[string]any)
	if first["status_icon"] != "🟢" || first["state"] != "ok" {
		t.Fatalf("unexpected first status: %v", first)
	}
	second := statuses[1].(map[string]any)
	if second["status_icon"] != "🔴" || second["alarm_count"] != float64(1) {
		t.Fatalf("unexpected second status: %v", second)
	}

	alerts := body["alerts"].([]any)
	if len(alerts) != 1 || !strings.HasPrefix(alerts[0].(string), "🔴 ") {
		t.Fatalf("alerts should be glyph-prefixed: %v", alerts)
	}

	chart := body["chart"].(map[string]any)
	production := chart["production"].([]any)
	if len(production) != 2 || production[1] != nil {
		t.Fatalf("nil buckets must serialize as null: %v", production)
	}
	if body["last_updated"] != "2026-06-15 12:00:00" {
		t.Fatalf("unexpected last_updated: %v", body["last_updated"])
	}
}

func TestLiveDataHandler_RefreshError(t *testing.T) {
	handler := NewLiveDataHandler(&stubSource{err: errors.New("aggregation failed")})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/fleet/live", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("expected error field in body")
	}
}

func TestLiveDataHandler_MethodNotAllowed(t *testing.T) {
	handler := NewLiveDataHandler(&stubSource{snap: testSnapshot()})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/fleet/live", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}

type stubHistory struct {
	rows []fleet.ArchivedSnapshot
	err  error
}

func (s *stubHistory) ListRecent(ctx context.Context, limit int) ([]fleet.ArchivedSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.rows) {
		return s.rows[:limit], nil
	}
	return s.rows, nil
}

func TestHistoryHandler_OK(t *testing.T) {
	generated := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	handler := NewHistoryHandler(&stubHistory{rows: []fleet.ArchivedSnapshot{
		{ProductionKW: 5, TotalPlants: 2, GeneratedAt: generated},
	}})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/fleet/history", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var rows []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(rows) != 1 || rows[0]["production"] != float64(5) {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if rows[0]["generated_at"] != "2026-06-15T12:00:00Z" {
		t.Fatalf("unexpected generated_at: %v", rows[0]["generated_at"])
	}
}

func TestHistoryHandler_EmptyIsJSONArray(t *testing.T) {
	handler := NewHistoryHandler(&stubHistory{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/fleet/history", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := strings.TrimSpace(resp.Body.String()); got != "[]" {
		t.Fatalf("expected empty array, got %q", got)
	}
}

func TestHistoryHandler_BadLimit(t *testing.T) {
	handler := NewHistoryHandler(&stubHistory{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/fleet/history?limit=0", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestExportHandler_XLSX(t *testing.T) {
	handler := NewExportHandler(&stubSource{snap: testSnapshot()}, "xlsx")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/fleet/export.xlsx", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Body.Len() == 0 {
		t.Fatalf("expected workbook bytes")
	}
	if got := resp.Header().Get("Content-Disposition"); !strings.Contains(got, "attachment") {
		t.Fatalf("expected attachment disposition, got %q", got)
	}
}

func TestExportHandler_PDF(t *testing.T) {
	handler := NewExportHandler(&stubSource{snap: testSnapshot()}, "pdf")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/fleet/export.pdf", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.HasPrefix(resp.Body.String(), "%PDF") {
		t.Fatalf("expected PDF payload")
	}
}
