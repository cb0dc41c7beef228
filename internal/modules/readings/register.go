package readings

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/config"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/modules/readings/controller"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/modules/readings/repository"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/presence"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/synth"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/telemetry"
)

// RegisterFeature wires the readings feature: repository, service, synthetic
// tester source, MQTT handlers and HTTP routes. The returned service is
// handed to the app for mode bootstrap and shutdown.
func RegisterFeature(
	mux *http.ServeMux,
	db *sql.DB,
	broker MessageBroker,
	pub Publisher,
	pres *presence.Manager,
	cfg config.Config,
	logger *slog.Logger,
) *Service {
	repo := repository.NewRepository(db)
	tracker := presence.NewTracker(cfg.DemoteAfter)
	chart := telemetry.NewChartBuffer(telemetry.DefaultChartCapacity)

	svc := NewService(repo, pub, pres, tracker,
		chart, cfg.DeviceTimeTopic(), cfg.DeviceIntervalTopic(), logger)
	svc.AttachTesterSource(synth.New(cfg.TesterInterval, svc.IngestTester, logger))

	registerMQTTHandlers(broker, svc, cfg)

	ctrl := controller.NewController(svc, repo)
	ctrl.RegisterRoutes(mux)

	return svc
}

// Bootstrap applies the configured start mode. In live mode the presence
// manager goes live immediately; in tester mode the generator starts.
func (s *Service) Bootstrap(startMode string) {
	if startMode == string(ModeTester) {
		if err := s.SetMode(ModeTester); err != nil {
			s.logger.Error("bootstrap mode switch failed", "error", err)
		}
		return
	}
	s.pres.SetLive(true)
}

// Shutdown stops the tester source. The presence manager's own Stop handles
// the final offline publish.
func (s *Service) Shutdown() {
	if s.tester != nil {
		s.tester.Stop()
	}
	s.tracker.Stop()
}
