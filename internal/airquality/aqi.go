// Package airquality derives an Air Quality Index from PM2.5 concentration
// using the EPA piecewise-linear breakpoint method.
// Source: https://www.airnow.gov/sites/default/files/2020-05/aqi-technical-assistance-document-sept2018.pdf
package airquality

import "math"

// MaxAQI is the upper cap of the index scale.
const MaxAQI = 500

// breakpoint maps a concentration interval onto an index interval. Each
// interval is inclusive on its upper bound.
type breakpoint struct {
	concLo, concHi float64
	aqiLo, aqiHi   float64
}

var pm25Breakpoints = []breakpoint{
	{0, 12, 0, 50},
	{12.1, 35.4, 51, 100},
	{35.5, 55.4, 101, 150},
	{55.5, 150.4, 151, 200},
	{150.5, 250.4, 201, 300},
}

// FromPM25 computes the AQI for a PM2.5 concentration in µg/m³.
// Negative and NaN input is clamped to zero; callers are expected to mark
// faulty sensor values unavailable before calling. The result is always a
// non-negative integer no greater than MaxAQI.
func FromPM25(pm float64) int {
	if math.IsNaN(pm) || pm < 0 {
		pm = 0
	}
	var bp breakpoint
	matched := false
	for _, b := range pm25Breakpoints {
		if pm <= b.concHi {
			bp = b
			matched = true
			break
		}
	}
	if !matched {
		// Beyond the table: extrapolate from the top segment and cap.
		bp = pm25Breakpoints[len(pm25Breakpoints)-1]
	}
	aqi := math.Round((pm-bp.concLo)*(bp.aqiHi-bp.aqiLo)/(bp.concHi-bp.concLo) + bp.aqiLo)
	if aqi < 0 {
		return 0
	}
	if aqi > MaxAQI {
		return MaxAQI
	}
	return int(aqi)
}
