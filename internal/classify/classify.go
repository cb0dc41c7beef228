// Package classify maps numeric sensor readings to qualitative status bands.
// All functions are pure and total: NaN always yields BandUnavailable and
// infinities fall through the same inequality chains as any other value.
package classify

import "math"

// Band is one of the five ordered quality bands, or "unavailable" for
// readings that cannot be classified.
type Band string

const (
	BandExcellent   Band = "excellent"
	BandGood        Band = "good"
	BandModerate    Band = "moderate"
	BandPoor        Band = "poor"
	BandHazardous   Band = "hazardous"
	BandUnavailable Band = "unavailable"
)

// rangeBand holds an inclusive [lo, hi] interval. Intervals are checked in
// order, narrowest first, so the first match wins.
type rangeBand struct {
	lo, hi float64
	band   Band
}

var temperatureBands = []rangeBand{
	{18, 24, BandExcellent},
	{16, 28, BandGood},
	{12, 32, BandModerate},
	{8, 36, BandPoor},
}

var humidityBands = []rangeBand{
	{40, 60, BandExcellent},
	{30, 70, BandGood},
	{25, 75, BandModerate},
	{20, 80, BandPoor},
}

// ceilingBand holds an inclusive upper bound; chains are checked lowest
// ceiling first.
type ceilingBand struct {
	max  float64
	band Band
}

var aqiBands = []ceilingBand{
	{50, BandExcellent},
	{100, BandGood},
	{150, BandModerate},
	{200, BandPoor},
}

var pmBands = []ceilingBand{
	{12, BandExcellent},
	{35, BandGood},
	{55, BandModerate},
	{150, BandPoor},
}

func classifyRanges(v float64, bands []rangeBand) Band {
	if math.IsNaN(v) {
		return BandUnavailable
	}
	for _, b := range bands {
		if v >= b.lo && v <= b.hi {
			return b.band
		}
	}
	return BandHazardous
}

func classifyCeilings(v float64, bands []ceilingBand) Band {
	if math.IsNaN(v) {
		return BandUnavailable
	}
	for _, b := range bands {
		if v <= b.max {
			return b.band
		}
	}
	return BandHazardous
}

// Temperature classifies an ambient temperature in degrees Celsius.
func Temperature(v float64) Band { return classifyRanges(v, temperatureBands) }

// Humidity classifies a relative humidity in percent.
func Humidity(v float64) Band { return classifyRanges(v, humidityBands) }

// AQI classifies a derived Air Quality Index value.
func AQI(v float64) Band { return classifyCeilings(v, aqiBands) }

// PM classifies a particulate-matter concentration in µg/m³. The same bands
// apply to PM1, PM2.5 and PM10.
func PM(v float64) Band { return classifyCeilings(v, pmBands) }

// Pressure classifies a barometric pressure in hPa. Higher pressure is
// better, so the chain runs from the highest floor down.
func Pressure(v float64) Band {
	if math.IsNaN(v) {
		return BandUnavailable
	}
	switch {
	case v >= 1022:
		return BandExcellent
	case v >= 1013:
		return BandGood
	case v >= 1000:
		return BandModerate
	case v >= 990:
		return BandPoor
	default:
		return BandHazardous
	}
}

// Outlook is the qualitative weather forecast derived from barometric
// pressure. Icon is a stable token for the dashboard, not display text.
type Outlook struct {
	Band  Band   `json:"band"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// Weather maps barometric pressure to a forecast label using the same
// breakpoints as Pressure, highest threshold first.
func Weather(v float64) Outlook {
	if math.IsNaN(v) {
		return Outlook{Band: BandUnavailable, Label: "Unavailable", Icon: "unknown"}
	}
	switch {
	case v >= 1022:
		return Outlook{Band: BandExcellent, Label: "High Pressure", Icon: "sun"}
	case v >= 1013:
		return Outlook{Band: BandGood, Label: "Fair Weather", Icon: "sun-cloud"}
	case v >= 1000:
		return Outlook{Band: BandModerate, Label: "Changing", Icon: "cloud"}
	case v >= 990:
		return Outlook{Band: BandPoor, Label: "Rain Likely", Icon: "rain"}
	default:
		return Outlook{Band: BandHazardous, Label: "Storm Risk", Icon: "storm"}
	}
}
