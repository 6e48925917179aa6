package fusionsolar

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// flexFloat absorbs the vendor's loose numerics: plain numbers, quoted
// numbers, the "--" placeholder and null all decode without error.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" || s == "--" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// kpiPoint is one realtime measurement. The vendor returns either a bare
// scalar or an object carrying the value and its sample time.
type kpiPoint struct {
	Value flexFloat
	Time  string
}

func (p *kpiPoint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Value flexFloat `json:"value"`
			Time  string    `json:"time"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		p.Value = obj.Value
		p.Time = obj.Time
		return nil
	}
	return p.Value.UnmarshalJSON(data)
}

// bucketed is one chart bucket value, delivered as a string or number.
type bucketed struct {
	Value flexFloat
}

func (b *bucketed) UnmarshalJSON(data []byte) error {
	return b.Value.UnmarshalJSON(data)
}

func bucketValues(buckets []bucketed) []float64 {
	if len(buckets) == 0 {
		return nil
	}
	values := make([]float64, len(buckets))
	for i, b := range buckets {
		values[i] = float64(b.Value)
	}
	return values
}
