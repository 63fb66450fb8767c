// Package app assembles the dashboard service: logging router, metrics,
// stream client, sync engine, gateway client, and the view API server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"floorsight/dashboard/internal/config"
	"floorsight/dashboard/internal/engine"
	"floorsight/dashboard/internal/gateway"
	"floorsight/dashboard/internal/journal"
	"floorsight/dashboard/internal/stream"
	"floorsight/dashboard/internal/telemetry"
	"floorsight/dashboard/internal/view"
	"floorsight/dashboard/logging"
	loggingSinks "floorsight/dashboard/logging/sinks"
)

// Run wires the service together and blocks until the context is cancelled or
// the HTTP server fails.
func Run(ctx context.Context, cfg config.Config) error {
	fallbackLogger := log.Default()
	telemetryLogger := telemetry.WrapLogger(fallbackLogger)

	logConfig := logging.DefaultConfig()
	logConfig.EnabledSinks = cfg.Logging.Sinks
	logConfig.MinimumSeverity = logging.ParseSeverity(cfg.Logging.MinSeverity)

	sinks, closeFiles, err := buildSinks(cfg, logConfig)
	if err != nil {
		return err
	}
	defer closeFiles()

	router := logging.NewRouter(nil, logConfig, sinks)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	metrics := logging.NewMetrics()

	client := stream.NewClient(stream.Config{
		URL:            cfg.UpstreamURL,
		ReconnectDelay: cfg.ReconnectDelay,
		Dial:           stream.DialWebsocket,
		Logger:         telemetryLogger,
		Metrics:        telemetry.WrapMetrics(metrics),
	})
	defer client.Close()

	journalBox := journal.NewJournal(cfg.JournalCap)
	journalBox.AttachTelemetry(telemetry.WrapMetrics(metrics))
	dedup := journal.NewDedupCache(cfg.DedupWindow, 500, time.Now)
	dedup.AttachTelemetry(telemetry.WrapMetrics(metrics))

	eng := engine.New(engine.Config{
		Frames:    client.Frames(),
		Transport: client,
		Journal:   journalBox,
		Dedup:     dedup,
		Logger:    telemetryLogger,
		Metrics:   telemetry.WrapMetrics(metrics),
		Publisher: router,
	})

	gw := gateway.NewClient(cfg.GatewayURL, telemetryLogger)

	go eng.Run(ctx)
	client.Connect()

	handler := view.NewHTTPHandler(view.HTTPHandlerConfig{
		Engine:  eng,
		Stream:  client,
		Gateway: gw,
		Metrics: metrics,
		Router:  router,
		Logger:  fallbackLogger,
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: handler}
	telemetryLogger.Printf("dashboard listening on %s, upstream %s", cfg.ListenAddr, cfg.UpstreamURL)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	}
}

func buildSinks(cfg config.Config, logConfig logging.Config) ([]logging.NamedSink, func(), error) {
	var sinks []logging.NamedSink
	var files []*os.File

	if logConfig.HasSink("console") {
		sinks = append(sinks, logging.NamedSink{Name: "console", Sink: loggingSinks.NewConsole(os.Stdout)})
	}
	if logConfig.HasSink("json") {
		path := cfg.Logging.JSONPath
		if path == "" {
			path = "dashboard-events.ndjson"
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open json sink %s: %w", path, err)
		}
		files = append(files, file)
		sinks = append(sinks, logging.NamedSink{Name: "json", Sink: loggingSinks.NewJSON(file, logConfig.JSON.FlushInterval)})
	}
	if logConfig.HasSink("memory") {
		sinks = append(sinks, logging.NamedSink{Name: "memory", Sink: loggingSinks.NewMemory()})
	}

	closeFiles := func() {
		for _, file := range files {
			file.Close()
		}
	}
	return sinks, closeFiles, nil
}
