// Package view exposes the reconciled state over a read-only HTTP surface and
// proxies control commands to the simulation gateway. Handlers never mutate
// the snapshot; every GET serves whatever the engine last published.
package view

import (
	"encoding/json"
	"io"
	"log"
	nethttp "net/http"
	"strconv"
	"time"

	"floorsight/dashboard/internal/engine"
	"floorsight/dashboard/internal/gateway"
	"floorsight/dashboard/internal/proto"
	"floorsight/dashboard/internal/stream"
	"floorsight/dashboard/logging"
)

// HTTPHandlerConfig carries the collaborators the view API reads from.
type HTTPHandlerConfig struct {
	Engine  *engine.Engine
	Stream  *stream.Client
	Gateway *gateway.Client
	Metrics *logging.Metrics
	Router  *logging.Router
	Logger  *log.Logger
}

// NewHTTPHandler builds the dashboard mux.
func NewHTTPHandler(cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/healthz", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string `json:"status"`
			ServerTime int64  `json:"serverTime"`
			Stream     string `json:"stream"`
			Version    uint64 `json:"snapshotVersion"`
			Telemetry  any    `json:"telemetry"`
			Logging    any    `json:"logging,omitempty"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Stream:     cfg.Stream.Status().String(),
			Version:    cfg.Engine.Version(),
			Telemetry:  cfg.Metrics.Snapshot(),
		}
		if cfg.Router != nil {
			payload.Logging = cfg.Router.Stats()
		}
		writeJSON(w, payload, logger)
	})

	mux.HandleFunc("/api/snapshot", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		snap := cfg.Engine.Snapshot()
		payload := struct {
			Version  uint64 `json:"version"`
			Snapshot any    `json:"snapshot"`
		}{Version: cfg.Engine.Version(), Snapshot: snap}
		writeJSON(w, payload, logger)
	})

	mux.HandleFunc("/api/logs", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		logs := cfg.Engine.Snapshot().Logs
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 0 {
				httpError(w, "invalid limit", nethttp.StatusBadRequest)
				return
			}
			if limit < len(logs) {
				logs = logs[:limit]
			}
		}
		payload := struct {
			Logs any `json:"logs"`
		}{Logs: logs}
		if logs == nil {
			payload.Logs = []struct{}{}
		}
		writeJSON(w, payload, logger)
	})

	mux.HandleFunc("/api/status", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		payload := struct {
			Stream     string `json:"stream"`
			Version    uint64 `json:"snapshotVersion"`
			Simulation any    `json:"simulation,omitempty"`
		}{
			Stream:  cfg.Stream.Status().String(),
			Version: cfg.Engine.Version(),
		}
		if cfg.Gateway != nil {
			if status, err := cfg.Gateway.Status(r.Context()); err == nil {
				payload.Simulation = status
			} else {
				logger.Printf("gateway status poll failed: %v", err)
			}
		}
		writeJSON(w, payload, logger)
	})

	mux.HandleFunc("/api/layout", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		if cfg.Gateway == nil {
			httpError(w, "gateway unavailable", nethttp.StatusServiceUnavailable)
			return
		}
		layout, err := cfg.Gateway.Layout(r.Context())
		if err != nil {
			logger.Printf("layout fetch failed: %v", err)
			httpError(w, "gateway unavailable", nethttp.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(layout)
	})

	mux.HandleFunc("/api/simulation/start", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var cmd proto.StartCommand
		if !decodeCommand(w, r, &cmd) {
			return
		}
		proxyCommand(w, logger, "start", func() error {
			return cfg.Gateway.Start(r.Context(), cmd)
		})
	})

	mux.HandleFunc("/api/simulation/stop", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var cmd proto.StopCommand
		if !decodeCommand(w, r, &cmd) {
			return
		}
		proxyCommand(w, logger, "stop", func() error {
			return cfg.Gateway.Stop(r.Context(), cmd)
		})
	})

	mux.HandleFunc("/api/simulation/fault", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var cmd proto.FaultCommand
		if !decodeCommand(w, r, &cmd) {
			return
		}
		if cmd.MachineID == "" {
			httpError(w, "missing machine id", nethttp.StatusBadRequest)
			return
		}
		proxyCommand(w, logger, "fault", func() error {
			return cfg.Gateway.InjectFault(r.Context(), cmd)
		})
	})

	return mux
}

func decodeCommand(w nethttp.ResponseWriter, r *nethttp.Request, dst any) bool {
	if r.Method != nethttp.MethodPost {
		httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
		return false
	}
	if r.Body != nil {
		defer r.Body.Close()
		decoder := json.NewDecoder(r.Body)
		if err := decoder.Decode(dst); err != nil && err != io.EOF {
			httpError(w, "invalid payload", nethttp.StatusBadRequest)
			return false
		}
	}
	return true
}

func proxyCommand(w nethttp.ResponseWriter, logger *log.Logger, name string, send func() error) {
	if err := send(); err != nil {
		logger.Printf("%s command failed: %v", name, err)
		httpError(w, "gateway rejected command", nethttp.StatusBadGateway)
		return
	}
	writeJSON(w, struct {
		Status string `json:"status"`
	}{Status: "ok"}, logger)
}

func writeJSON(w nethttp.ResponseWriter, payload any, logger *log.Logger) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Printf("failed to encode response: %v", err)
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
