package fleet

// Severity orders alerts and plant states for display. Lower values are more
// urgent; glyph rendering happens at the presentation boundary, never here.
type Severity int

const (
	SeverityCritical Severity = iota
	SeverityMajor
	SeverityMaintenance
	SeverityMinor
	SeverityWarning
	SeverityAdvisory
	SeverityUnknown
	SeverityOK
)

// Rank returns the sort rank of the severity. Lower sorts first.
func (s Severity) Rank() int {
	if s < SeverityCritical || s > SeverityOK {
		return int(SeverityUnknown)
	}
	return int(s)
}

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityMajor:
		return "major"
	case SeverityMaintenance:
		return "maintenance"
	case SeverityMinor:
		return "minor"
	case SeverityWarning:
		return "warning"
	case SeverityAdvisory:
		return "advisory"
	case SeverityOK:
		return "ok"
	default:
		return "unknown"
	}
}
