// Package readings is the dashboard's data feature: it consumes device
// telemetry and status from the broker, derives AQI and status bands, keeps
// the current snapshot and chart window, persists history, and drives the
// live/tester mode switch.
package readings

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/airquality"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/classify"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/modules/readings/repository"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/modules/readings/types"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/presence"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/telemetry"
)

// Mode selects the data source feeding the dashboard.
type Mode string

const (
	ModeLive   Mode = "live"
	ModeTester Mode = "tester"
)

// Interval command bounds in milliseconds, clamped before publishing.
const (
	MinIntervalMS = 500
	MaxIntervalMS = 600000
)

// Publisher is the outbound broker half the service needs.
type Publisher interface {
	Publish(topic string, payload []byte, retained bool) error
}

// PresenceControl is the slice of the presence manager the mode switch uses.
type PresenceControl interface {
	SetLive(live bool)
}

// TesterSource produces synthetic readings while tester mode is active.
type TesterSource interface {
	Start()
	Stop()
}

type Service struct {
	repo    repository.ReadingsRepository
	logger  *slog.Logger
	pub     Publisher
	pres    PresenceControl
	tracker *presence.Tracker
	chart   *telemetry.ChartBuffer

	timeTopic     string
	intervalTopic string

	mu         sync.Mutex
	mode       Mode
	current    telemetry.Reading
	capturedAt time.Time
	hasReading bool

	tester TesterSource

	// clockSynced guards the one-shot device clock sync; cleared only on a
	// full reconnection.
	clockSynced atomic.Bool

	now func() time.Time
}

func NewService(
	repo repository.ReadingsRepository,
	pub Publisher,
	pres PresenceControl,
	tracker *presence.Tracker,
	chart *telemetry.ChartBuffer,
	timeTopic string,
	intervalTopic string,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:          repo,
		pub:           pub,
		pres:          pres,
		tracker:       tracker,
		chart:         chart,
		timeTopic:     timeTopic,
		intervalTopic: intervalTopic,
		logger:        logger,
		mode:          ModeLive,
		now:           time.Now,
	}
}

// AttachTesterSource wires the synthetic generator. Must be called before
// the first mode switch.
func (s *Service) AttachTesterSource(src TesterSource) {
	s.tester = src
}

// HandleData consumes <device>/data payloads. Malformed payloads are logged
// and dropped; the last good reading stays in place. The first valid message
// after a connect also synchronizes the device clock, exactly once.
func (s *Service) HandleData(topic string, payload []byte) {
	if s.Mode() != ModeLive {
		s.logger.Debug("ignoring device data in tester mode", "topic", topic)
		return
	}

	r, err := telemetry.Decode(payload)
	if err != nil {
		s.logger.Warn("malformed sensor payload",
			"topic", topic,
			"error", err,
			"payload", string(payload),
		)
		return
	}

	s.ingest(r, ModeLive)
	s.syncDeviceClock()
}

// IngestTester feeds a synthetic reading through the same path as live data.
func (s *Service) IngestTester(r telemetry.Reading) {
	if s.Mode() != ModeTester {
		return
	}
	s.ingest(r, ModeTester)
}

func (s *Service) ingest(r telemetry.Reading, source Mode) {
	r.AQI = deriveAQI(r.PM25)
	ts := s.now()

	s.mu.Lock()
	s.current = r
	s.capturedAt = ts
	s.hasReading = true
	s.mu.Unlock()

	s.chart.Push(telemetry.Sample{Time: ts, Reading: r})

	if err := s.repo.InsertReading(ts, string(source), r); err != nil {
		s.logger.Error("store reading failed", "source", source, "error", err)
	}
}

// HandleStatus consumes <device>/status tokens driving the connection state.
func (s *Service) HandleStatus(topic string, payload []byte) {
	token := strings.TrimSpace(string(payload))
	switch token {
	case presence.TokenOnline:
		s.tracker.Online()
	case presence.TokenOffline:
		s.tracker.Offline()
	default:
		s.logger.Warn("unknown device status token", "topic", topic, "token", token)
	}
}

// HandleSessionConnect runs on every broker connect and reconnect: the chart
// restarts with the fresh subscription, the device state is unknown again,
// and the clock sync re-arms.
func (s *Service) HandleSessionConnect() {
	s.chart.Clear()
	s.tracker.Reset()
	s.clockSynced.Store(false)
}

func (s *Service) syncDeviceClock() {
	if !s.clockSynced.CompareAndSwap(false, true) {
		return
	}
	epoch := strconv.FormatInt(s.now().Unix(), 10)
	if err := s.pub.Publish(s.timeTopic, []byte(epoch), false); err != nil {
		// At-most-once: a failed attempt still consumes the shot.
		s.logger.Warn("device clock sync failed", "topic", s.timeTopic, "error", err)
		return
	}
	s.logger.Info("device clock synchronized", "topic", s.timeTopic, "epoch", epoch)
}

// Mode returns the active data-source mode.
func (s *Service) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches between live and tester data. The chart window is cleared
// and the device state falls back to connecting on every switch. Switching
// to the current mode is a no-op.
func (s *Service) SetMode(m Mode) error {
	switch m {
	case ModeLive, ModeTester:
	default:
		return &InvalidModeError{Mode: string(m)}
	}

	s.mu.Lock()
	if s.mode == m {
		s.mu.Unlock()
		return nil
	}
	s.mode = m
	s.hasReading = false
	s.mu.Unlock()

	s.chart.Clear()
	s.tracker.Reset()

	if m == ModeTester {
		s.pres.SetLive(false)
		if s.tester != nil {
			s.tester.Start()
		}
	} else {
		if s.tester != nil {
			s.tester.Stop()
		}
		s.pres.SetLive(true)
	}
	s.logger.Info("data source mode switched", "mode", m)
	return nil
}

// SwitchMode is SetMode for callers holding a mode name off the wire.
func (s *Service) SwitchMode(name string) error {
	return s.SetMode(Mode(name))
}

// InvalidModeError reports an unknown mode name.
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return "invalid mode " + strconv.Quote(e.Mode) + " (allowed: live, tester)"
}

// SetIntervalMS publishes the device sampling interval command, retained so
// the device picks it up after its next reconnect. The value is clamped to
// [MinIntervalMS, MaxIntervalMS]. The returned error is a user-facing
// notification only; there is no retry.
func (s *Service) SetIntervalMS(ms int) (int, error) {
	if ms < MinIntervalMS {
		ms = MinIntervalMS
	}
	if ms > MaxIntervalMS {
		ms = MaxIntervalMS
	}
	if err := s.pub.Publish(s.intervalTopic, []byte(strconv.Itoa(ms)), true); err != nil {
		return ms, err
	}
	s.logger.Info("device interval command published", "topic", s.intervalTopic, "ms", ms)
	return ms, nil
}

// Snapshot assembles the dashboard's current view.
func (s *Service) Snapshot() types.Snapshot {
	s.mu.Lock()
	r := s.current
	capturedAt := s.capturedAt
	hasReading := s.hasReading
	mode := s.mode
	s.mu.Unlock()

	snap := types.Snapshot{
		Mode:       string(mode),
		Connection: string(s.tracker.State()),
	}

	if !hasReading {
		nan := math.NaN()
		r = telemetry.Reading{
			Temperature: nan, Humidity: nan, Pressure: nan,
			PM1: nan, PM25: nan, PM10: nan, AQI: nan,
		}
	} else {
		snap.CapturedAt = &capturedAt
	}

	snap.Temperature = types.SensorStatus{Value: types.FloatPtr(r.Temperature), Band: classify.Temperature(r.Temperature)}
	snap.Humidity = types.SensorStatus{Value: types.FloatPtr(r.Humidity), Band: classify.Humidity(r.Humidity)}
	snap.Pressure = types.SensorStatus{Value: types.FloatPtr(r.Pressure), Band: classify.Pressure(r.Pressure)}
	snap.PM1 = types.SensorStatus{Value: types.FloatPtr(r.PM1), Band: classify.PM(r.PM1)}
	snap.PM25 = types.SensorStatus{Value: types.FloatPtr(r.PM25), Band: classify.PM(r.PM25)}
	snap.PM10 = types.SensorStatus{Value: types.FloatPtr(r.PM10), Band: classify.PM(r.PM10)}
	snap.AQI = types.SensorStatus{Value: types.FloatPtr(r.AQI), Band: classify.AQI(r.AQI)}
	snap.Weather = classify.Weather(r.Pressure)
	return snap
}

// Chart returns the buffered samples, oldest first.
func (s *Service) Chart() []types.ChartPoint {
	samples := s.chart.Snapshot()
	out := make([]types.ChartPoint, 0, len(samples))
	for _, sample := range samples {
		r := sample.Reading
		out = append(out, types.ChartPoint{
			Time:        sample.Time,
			Temperature: types.FloatPtr(r.Temperature),
			Humidity:    types.FloatPtr(r.Humidity),
			Pressure:    types.FloatPtr(r.Pressure),
			PM1:         types.FloatPtr(r.PM1),
			PM25:        types.FloatPtr(r.PM25),
			PM10:        types.FloatPtr(r.PM10),
			AQI:         types.FloatPtr(r.AQI),
		})
	}
	return out
}

// deriveAQI keeps sensor faults unavailable instead of feeding them to the
// index formula.
func deriveAQI(pm25 float64) float64 {
	if math.IsNaN(pm25) || pm25 < 0 {
		return math.NaN()
	}
	return float64(airquality.FromPM25(pm25))
}
