package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string

	// DevicePrefix is the topic namespace of the sensor device
	// (<device>/data, <device>/status, <device>/cmd/...).
	DevicePrefix string
	// ViewerPrefix is the topic namespace this dashboard publishes its own
	// presence under (<viewer>/web/status, <viewer>/web/ping).
	ViewerPrefix string

	HeartbeatEvery time.Duration
	DemoteAfter    time.Duration
	TesterInterval time.Duration
	StartMode      string

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	broker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	if broker == "" {
		broker = "localhost"
	}

	portStr := strings.TrimSpace(os.Getenv("MQTT_PORT"))
	if portStr == "" {
		portStr = "1883"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q", portStr)
	}

	clientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if clientID == "" {
		clientID = "forecaster-dash"
	}

	devicePrefix := strings.TrimSpace(os.Getenv("MQTT_DEVICE_PREFIX"))
	if devicePrefix == "" {
		devicePrefix = "pocket01"
	}
	if err := validateTopicPrefix("MQTT_DEVICE_PREFIX", devicePrefix); err != nil {
		return Config{}, err
	}

	viewerPrefix := strings.TrimSpace(os.Getenv("MQTT_VIEWER_PREFIX"))
	if viewerPrefix == "" {
		viewerPrefix = "dashboard"
	}
	if err := validateTopicPrefix("MQTT_VIEWER_PREFIX", viewerPrefix); err != nil {
		return Config{}, err
	}

	heartbeatEvery, err := durationEnv("HEARTBEAT_INTERVAL", 20*time.Second)
	if err != nil {
		return Config{}, err
	}

	demoteAfter, err := durationEnv("OFFLINE_DEMOTE_AFTER", 5*time.Second)
	if err != nil {
		return Config{}, err
	}

	testerInterval, err := durationEnv("TESTER_INTERVAL", 2*time.Second)
	if err != nil {
		return Config{}, err
	}

	startMode := strings.TrimSpace(os.Getenv("START_MODE"))
	if startMode == "" {
		startMode = "live"
	}
	switch startMode {
	case "live", "tester":
	default:
		return Config{}, fmt.Errorf("invalid START_MODE %q (allowed: live, tester)", startMode)
	}

	driver := strings.TrimSpace(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = "sqlite3"
	}
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	path := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if path == "" {
		path = "dev/sqlite/app.db"
	}

	maxOpenConnsStr := strings.TrimSpace(os.Getenv("DB_MAX_OPEN_CONNS"))
	if maxOpenConnsStr == "" {
		maxOpenConnsStr = "1"
	}
	maxOpenConns, err := strconv.Atoi(maxOpenConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_OPEN_CONNS %q: %w", maxOpenConnsStr, err)
	}

	maxIdleConnsStr := strings.TrimSpace(os.Getenv("DB_MAX_IDLE_CONNS"))
	if maxIdleConnsStr == "" {
		maxIdleConnsStr = "1"
	}
	maxIdleConns, err := strconv.Atoi(maxIdleConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_IDLE_CONNS %q: %w", maxIdleConnsStr, err)
	}

	connMaxLifetime, err := durationEnv("DB_CONN_MAX_LIFETIME", 0)
	if err != nil {
		return Config{}, err
	}

	return Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		HTTPAddr:              httpAddr,
		MQTTBroker:            broker,
		MQTTPort:              port,
		MQTTClientID:          clientID,
		DevicePrefix:          devicePrefix,
		ViewerPrefix:          viewerPrefix,
		HeartbeatEvery:        heartbeatEvery,
		DemoteAfter:           demoteAfter,
		TesterInterval:        testerInterval,
		StartMode:             startMode,
		SQLiteDriver:          driver,
		SQLiteDSN:             dsn,
		SQLitePath:            path,
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
	}, nil
}

// Topic accessors. The suffixes are the wire contract with the device
// firmware and backend; they must match byte-for-byte.

func (c Config) DeviceDataTopic() string     { return c.DevicePrefix + "/data" }
func (c Config) DeviceStatusTopic() string   { return c.DevicePrefix + "/status" }
func (c Config) DeviceTimeTopic() string     { return c.DevicePrefix + "/cmd/time" }
func (c Config) DeviceIntervalTopic() string { return c.DevicePrefix + "/cmd/interval" }
func (c Config) ViewerStatusTopic() string   { return c.ViewerPrefix + "/web/status" }
func (c Config) ViewerPingTopic() string     { return c.ViewerPrefix + "/web/ping" }

func validateTopicPrefix(name, prefix string) error {
	if strings.ContainsAny(prefix, "#+") {
		return fmt.Errorf("invalid %s %q: wildcards not allowed", name, prefix)
	}
	if strings.HasSuffix(prefix, "/") {
		return fmt.Errorf("invalid %s %q: trailing slash not allowed", name, prefix)
	}
	return nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(name))
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
