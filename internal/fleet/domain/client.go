package fleet

import "context"

// VendorClient is the capability set the core requires from an authenticated
// vendor session. The interface is owned here; implementations live in
// infrastructure and convert wire shapes to these records.
type VendorClient interface {
	// KeepAlive refreshes the session without a full re-authentication.
	KeepAlive(ctx context.Context) error
	// StationList returns every plant visible to the account.
	StationList(ctx context.Context) ([]PlantRecord, error)
	// PlantRealtime returns the latest sampled power values for a plant.
	PlantRealtime(ctx context.Context, dn string) (RealtimeMetrics, error)
	// PlantDaySeries returns the plant's five-minute buckets for the
	// current day. Surplus is left for the caller to derive.
	PlantDaySeries(ctx context.Context, dn string) (TimeSeries, error)
	// InverterIDs lists inverter device identifiers for a plant.
	InverterIDs(ctx context.Context, dn string) ([]string, error)
	// DeviceAlarms returns active alarms for one device.
	DeviceAlarms(ctx context.Context, deviceDN string) ([]DeviceAlarm, error)
}

// DialFunc authenticates a credential and returns a live session. This is
// the single most expensive remote operation; callers pool the result.
type DialFunc func(ctx context.Context, cred Credential) (VendorClient, error)
