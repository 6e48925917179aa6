package fusionsolar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	fleet "solarfleet/internal/fleet/domain"
	"solarfleet/internal/observability/metrics"
)

// alarmRecord covers the field aliases observed across vendor firmware
// revisions. Only the first non-empty alias per field is used.
type alarmRecord struct {
	AlarmName  string `json:"alarmName"`
	Name       string `json:"name"`
	AltName    string `json:"alarm_name"`
	AlarmLevel any    `json:"alarmLevel"`
	Level      any    `json:"level"`
	AltLevel   any    `json:"alarm_level"`
	AlarmTime  any    `json:"alarmTime"`
	Time       any    `json:"time"`
	AltTime    any    `json:"alarm_time"`
	OccurTime  any    `json:"occurTime"`
}

// DeviceAlarms fetches active alarms for one device. The response shape
// varies between deployments; every known shape is tried in order and a
// non-empty payload matching none of them yields a single unparsed marker
// alarm instead of an error.
func (c *Client) DeviceAlarms(ctx context.Context, deviceDN string) ([]fleet.DeviceAlarm, error) {
	if deviceDN == "" {
		return nil, errors.New("fusionsolar: empty device dn")
	}
	query := url.Values{"deviceDn": {deviceDN}}
	var raw json.RawMessage
	err := c.doJSON(ctx, http.MethodGet, "/rest/pvms/web/device/v1/query-device-alarm", query, nil, &raw)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return extractAlarms(deviceDN, raw), nil
}

func extractAlarms(deviceDN string, raw json.RawMessage) []fleet.DeviceAlarm {
	records, ok := alarmRecords(raw)
	if !ok {
		if emptyPayload(raw) {
			return nil
		}
		metrics.IncAlarmUnparsed()
		return []fleet.DeviceAlarm{{
			Device:   deviceDN,
			Name:     "unrecognized alarm payload",
			Severity: fleet.SeverityUnknown,
			Unparsed: true,
		}}
	}
	alarms := make([]fleet.DeviceAlarm, 0, len(records))
	for _, rec := range records {
		alarms = append(alarms, fleet.DeviceAlarm{
			Device:   deviceDN,
			Name:     firstString(rec.AlarmName, rec.Name, rec.AltName),
			Severity: severityFromLevel(firstValue(rec.AlarmLevel, rec.Level, rec.AltLevel)),
			RaisedAt: parseAlarmTime(firstValue(rec.AlarmTime, rec.Time, rec.AltTime, rec.OccurTime)),
		})
	}
	return alarms
}

// alarmRecords tries the known payload shapes, outermost first.
func alarmRecords(raw json.RawMessage) ([]alarmRecord, bool) {
	var enveloped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &enveloped); err == nil && len(enveloped.Data) > 0 {
		if records, ok := recordsFrom(enveloped.Data); ok {
			return records, true
		}
	}
	return recordsFrom(raw)
}

func recordsFrom(raw json.RawMessage) ([]alarmRecord, bool) {
	var direct []alarmRecord
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct, true
	}
	var keyed struct {
		List   []alarmRecord `json:"list"`
		Alarms []alarmRecord `json:"alarms"`
	}
	if err := json.Unmarshal(raw, &keyed); err == nil {
		if keyed.List != nil {
			return keyed.List, true
		}
		if keyed.Alarms != nil {
			return keyed.Alarms, true
		}
	}
	return nil, false
}

func emptyPayload(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	switch trimmed {
	case "", "null", "{}", "[]", `""`:
		return true
	}
	var enveloped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &enveloped); err == nil {
		inner := strings.TrimSpace(string(enveloped.Data))
		switch inner {
		case "", "null", "{}", "[]":
			// An envelope with nothing but status fields is an empty
			// alarm list, not an unknown shape.
			var rest map[string]json.RawMessage
			if json.Unmarshal(raw, &rest) == nil {
				delete(rest, "data")
				delete(rest, "success")
				delete(rest, "failCode")
				delete(rest, "message")
				if len(rest) == 0 {
					return true
				}
			}
		}
	}
	return false
}

func severityFromLevel(level string) fleet.Severity {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "1", "critical":
		return fleet.SeverityCritical
	case "2", "major":
		return fleet.SeverityMajor
	case "3", "minor":
		return fleet.SeverityMinor
	case "4", "warning":
		return fleet.SeverityWarning
	default:
		return fleet.SeverityAdvisory
	}
}

// parseAlarmTime accepts millisecond epochs, digit strings and the
// vendor's wall-clock format. Anything else yields a zero time.
func parseAlarmTime(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		if ms > 1e12 {
			return time.UnixMilli(ms)
		}
		return time.Unix(ms, 0)
	}
	if ts, err := time.ParseInLocation("2006-01-02 15:04:05", v, time.Local); err == nil {
		return ts
	}
	return time.Time{}
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstValue(values ...any) string {
	for _, v := range values {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			if t != "" {
				return t
			}
		case float64:
			if t == float64(int64(t)) {
				return strconv.FormatInt(int64(t), 10)
			}
			return strconv.FormatFloat(t, 'f', -1, 64)
		case json.Number:
			return t.String()
		}
	}
	return ""
}
