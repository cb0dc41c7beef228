package types

import (
	"math"
	"time"

	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/classify"
)

// SensorStatus pairs a reading with its classification band. Value is nil
// when the sensor is unavailable.
type SensorStatus struct {
	Value *float64      `json:"value,omitempty"`
	Band  classify.Band `json:"band"`
}

// Snapshot is the dashboard's current view: the latest reading classified
// per sensor, the derived weather outlook, the device connection state and
// the data-source mode.
type Snapshot struct {
	Mode        string           `json:"mode"`
	Connection  string           `json:"connection"`
	CapturedAt  *time.Time       `json:"capturedAt,omitempty"`
	Temperature SensorStatus     `json:"temperature"`
	Humidity    SensorStatus     `json:"humidity"`
	Pressure    SensorStatus     `json:"pressure"`
	PM1         SensorStatus     `json:"pm1"`
	PM25        SensorStatus     `json:"pm25"`
	PM10        SensorStatus     `json:"pm10"`
	AQI         SensorStatus     `json:"aqi"`
	Weather     classify.Outlook `json:"weather"`
}

// ChartPoint is one buffered sample serialized for the chart API.
type ChartPoint struct {
	Time        time.Time `json:"time"`
	Temperature *float64  `json:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
	Pressure    *float64  `json:"pressure,omitempty"`
	PM1         *float64  `json:"pm1,omitempty"`
	PM25        *float64  `json:"pm25,omitempty"`
	PM10        *float64  `json:"pm10,omitempty"`
	AQI         *float64  `json:"aqi,omitempty"`
}

// StoredReading is one persisted reading row.
type StoredReading struct {
	Time        time.Time `json:"time"`
	Source      string    `json:"source"`
	Temperature *float64  `json:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
	Pressure    *float64  `json:"pressure,omitempty"`
	PM1         *float64  `json:"pm1,omitempty"`
	PM25        *float64  `json:"pm25,omitempty"`
	PM10        *float64  `json:"pm10,omitempty"`
	AQI         *int      `json:"aqi,omitempty"`
}

// FloatPtr converts a possibly-NaN value to its JSON representation: nil for
// unavailable, a pointer otherwise.
func FloatPtr(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
