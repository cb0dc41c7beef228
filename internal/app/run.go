package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/config"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/db"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/httpapi"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/modules/readings"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/mqtt"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/presence"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"devicePrefix", cfg.DevicePrefix,
		"viewerPrefix", cfg.ViewerPrefix,
		"startMode", cfg.StartMode,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
	)

	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := db.Migrate(dbConn); err != nil {
		return err
	}

	var ok int
	err = dbConn.QueryRow(`SELECT 1`).Scan(&ok)
	if err != nil {
		return err
	}
	if ok != 1 {
		return errors.New("database connection failed")
	}
	slog.Info("database connection successful")

	// Handlers and hooks go in before Connect so the subscriptions are in
	// place before the broker flushes anything after CONNACK.
	session := mqtt.NewSession(cfg, slog.Default())
	pres := presence.NewManager(session, slog.Default(),
		cfg.ViewerStatusTopic(), cfg.ViewerPingTopic(), cfg.HeartbeatEvery)

	mux := httpapi.NewMux(dbConn)
	svc := readings.RegisterFeature(mux, dbConn, session, session, pres, cfg, slog.Default())
	session.OnConnect(pres.HandleConnect)

	// Short timeout for the initial connect so a down broker doesn't block
	// startup; the paho client keeps retrying in the background.
	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	err = session.Connect(connectCtx)
	connectCancel()
	if err != nil {
		slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
	}

	svc.Bootstrap(cfg.StartMode)

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Graceful order: retained offline first, then drop the session so the
	// last will never has to fire for a clean shutdown.
	slog.Info("publishing presence offline")
	pres.Stop()
	svc.Shutdown()

	slog.Info("mqtt disconnecting")
	session.Disconnect()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
