package config

import (
	"log/slog"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"APP_ENV", "LOG_LEVEL", "HTTP_ADDR",
		"MQTT_BROKER", "MQTT_PORT", "MQTT_CLIENT_ID",
		"MQTT_DEVICE_PREFIX", "MQTT_VIEWER_PREFIX",
		"HEARTBEAT_INTERVAL", "OFFLINE_DEMOTE_AFTER", "TESTER_INTERVAL", "START_MODE",
		"DB_DRIVER", "DB_DSN", "SQLITE_PATH",
		"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.AppEnv != "dev" {
		t.Errorf("AppEnv = %q; want dev", cfg.AppEnv)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v; want info", cfg.LogLevel)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q; want :8080", cfg.HTTPAddr)
	}
	if cfg.MQTTPort != 1883 {
		t.Errorf("MQTTPort = %d; want 1883", cfg.MQTTPort)
	}
	if cfg.HeartbeatEvery != 20*time.Second {
		t.Errorf("HeartbeatEvery = %v; want 20s", cfg.HeartbeatEvery)
	}
	if cfg.DemoteAfter != 5*time.Second {
		t.Errorf("DemoteAfter = %v; want 5s", cfg.DemoteAfter)
	}
	if cfg.StartMode != "live" {
		t.Errorf("StartMode = %q; want live", cfg.StartMode)
	}
}

func TestTopicAccessors(t *testing.T) {
	clearEnv(t)
	t.Setenv("MQTT_DEVICE_PREFIX", "pocket01")
	t.Setenv("MQTT_VIEWER_PREFIX", "dashboard")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	cases := []struct {
		got, want string
	}{
		{cfg.DeviceDataTopic(), "pocket01/data"},
		{cfg.DeviceStatusTopic(), "pocket01/status"},
		{cfg.DeviceTimeTopic(), "pocket01/cmd/time"},
		{cfg.DeviceIntervalTopic(), "pocket01/cmd/interval"},
		{cfg.ViewerStatusTopic(), "dashboard/web/status"},
		{cfg.ViewerPingTopic(), "dashboard/web/ping"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("topic = %q; want %q", tc.got, tc.want)
		}
	}
}

func TestLoadFromEnvRejectsInvalid(t *testing.T) {
	cases := []struct {
		name, key, value string
	}{
		{"bad app env", "APP_ENV", "staging"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad port", "MQTT_PORT", "not-a-port"},
		{"port out of range", "MQTT_PORT", "70000"},
		{"wildcard in device prefix", "MQTT_DEVICE_PREFIX", "pocket/#"},
		{"trailing slash in viewer prefix", "MQTT_VIEWER_PREFIX", "dash/"},
		{"bad start mode", "START_MODE", "replay"},
		{"bad heartbeat", "HEARTBEAT_INTERVAL", "twenty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := LoadFromEnv(); err == nil {
				t.Fatalf("LoadFromEnv accepted %s=%q", tc.key, tc.value)
			}
		})
	}
}
