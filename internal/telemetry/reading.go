// Package telemetry holds the device wire model and the in-memory chart
// buffer shared by the live and tester data paths.
package telemetry

import (
	"encoding/json"
	"fmt"
	"math"
)

// Reading is one decoded sensor sample. A field the device did not send, or
// sent with a physically impossible value, is NaN and classifies as
// unavailable downstream. AQI is derived from PM2.5 after decoding.
type Reading struct {
	Temperature float64 // °C
	Humidity    float64 // %RH
	Pressure    float64 // hPa
	PM1         float64 // µg/m³
	PM25        float64 // µg/m³
	PM10        float64 // µg/m³
	AQI         float64 // unitless, 0–500
}

// wireReading matches the firmware's JSON payload on <device>/data.
type wireReading struct {
	T    *float64 `json:"t"`
	H    *float64 `json:"h"`
	P    *float64 `json:"p"`
	PM1  *float64 `json:"pm1"`
	PM25 *float64 `json:"pm25"`
	PM10 *float64 `json:"pm10"`
}

// Decode parses a <device>/data payload. Missing fields become NaN rather
// than zero so a silent sensor cannot masquerade as a 0 °C reading. Values
// outside physical range are treated as sensor faults and also become NaN.
func Decode(payload []byte) (Reading, error) {
	var w wireReading
	if err := json.Unmarshal(payload, &w); err != nil {
		return Reading{}, fmt.Errorf("decode sensor payload: %w", err)
	}
	r := Reading{
		Temperature: deref(w.T),
		Humidity:    sanitizeRange(deref(w.H), 0, 100),
		Pressure:    sanitizePositive(deref(w.P)),
		PM1:         sanitizeMin(deref(w.PM1), 0),
		PM25:        sanitizeMin(deref(w.PM25), 0),
		PM10:        sanitizeMin(deref(w.PM10), 0),
		AQI:         math.NaN(),
	}
	return r, nil
}

func deref(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func sanitizeRange(v, lo, hi float64) float64 {
	if v < lo || v > hi {
		return math.NaN()
	}
	return v
}

func sanitizeMin(v, lo float64) float64 {
	if v < lo {
		return math.NaN()
	}
	return v
}

func sanitizePositive(v float64) float64 {
	if v <= 0 {
		return math.NaN()
	}
	return v
}
