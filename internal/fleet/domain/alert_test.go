package fleet

import "testing"

func TestSortAlerts_BySeverity(t *testing.T) {
	alerts := []Alert{
		{Severity: SeverityWarning, Message: "w"},
		{Severity: SeverityCritical, Message: "c"},
		{Severity: SeverityMaintenance, Message: "t"},
		{Severity: SeverityMinor, Message: "m"},
	}
	SortAlerts(alerts)
	want := []string{"c", "t", "m", "w"}
	for i, msg := range want {
		if alerts[i].Message != msg {
			t.Fatalf("position %d: expected %q, got %q", i, msg, alerts[i].Message)
		}
	}
}

func TestSortAlerts_StableWithinSeverity(t *testing.T) {
	alerts := []Alert{
		{Severity: SeverityCritical, Message: "first"},
		{Severity: SeverityMinor, Message: "m1"},
		{Severity: SeverityCritical, Message: "second"},
		{Severity: SeverityWarning, Message: "w1"},
	}
	SortAlerts(alerts)
	if alerts[0].Message != "first" || alerts[1].Message != "second" {
		t.Fatalf("critical alerts lost their input order: %v", alerts)
	}
	if alerts[2].Message != "m1" || alerts[3].Message != "w1" {
		t.Fatalf("unexpected tail order: %v", alerts)
	}
}

func TestSeverityRank_UnknownOutOfRange(t *testing.T) {
	if Severity(99).Rank() != SeverityUnknown.Rank() {
		t.Fatalf("out-of-range severities should rank as unknown")
	}
}
