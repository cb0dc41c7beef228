// healthwait polls the dashboard's /health endpoint until it reports ready.
// Operator scripts run it after starting the stack; a timeout is a warning,
// not a failure, so startup can proceed against a slow backend.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

func main() {
	url := flag.String("url", "http://localhost:8080/health", "health endpoint to poll")
	attempts := flag.Int("attempts", 15, "number of polls before giving up")
	interval := flag.Duration("interval", 2*time.Second, "delay between polls")
	flag.Parse()

	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	client := &http.Client{Timeout: 2 * time.Second}

	for i := 1; i <= *attempts; i++ {
		if healthy(client, *url) {
			slog.Info("backend healthy", "url", *url, "attempt", i)
			return
		}
		slog.Info("backend not ready", "url", *url, "attempt", fmt.Sprintf("%d/%d", i, *attempts))
		if i < *attempts {
			time.Sleep(*interval)
		}
	}

	// Soft dependency: log and let the caller continue anyway.
	slog.Warn("backend never became healthy; continuing", "url", *url, "attempts", *attempts)
}

func healthy(client *http.Client, url string) bool {
	resp, err := client.Get(url)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
