// Package gateway is the outbound half of the dashboard: a thin REST client
// for control commands and coarse status polls. It is a collaborator of the
// sync engine, not part of it.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"floorsight/dashboard/internal/proto"
	"floorsight/dashboard/internal/telemetry"
)

// Client issues start/stop/inject commands and polls status and layout.
type Client struct {
	baseURL string
	http    *http.Client
	logger  telemetry.Logger
}

// NewClient builds a gateway client against the given base URL.
func NewClient(baseURL string, logger telemetry.Logger) *Client {
	if logger == nil {
		logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// Status polls the coarse simulation status.
func (c *Client) Status(ctx context.Context) (proto.SimulationStatus, error) {
	var status proto.SimulationStatus
	if err := c.get(ctx, "/api/status", &status); err != nil {
		return proto.SimulationStatus{}, err
	}
	return status, nil
}

// Layout fetches the static floor layout. The engine never interprets it; it
// is passed through to renderers untouched.
func (c *Client) Layout(ctx context.Context) (json.RawMessage, error) {
	var layout json.RawMessage
	if err := c.get(ctx, "/api/layout", &layout); err != nil {
		return nil, err
	}
	return layout, nil
}

// Start begins a simulation run.
func (c *Client) Start(ctx context.Context, cmd proto.StartCommand) error {
	return c.post(ctx, "/api/simulation/start", cmd)
}

// Stop halts the current run.
func (c *Client) Stop(ctx context.Context, cmd proto.StopCommand) error {
	return c.post(ctx, "/api/simulation/stop", cmd)
}

// InjectFault injects a fault into a machine.
func (c *Client) InjectFault(ctx context.Context, cmd proto.FaultCommand) error {
	if cmd.MachineID == "" {
		return fmt.Errorf("gateway: fault command missing machine id")
	}
	return c.post(ctx, "/api/simulation/fault", cmd)
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("gateway: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway: %s: unexpected status %d", path, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gateway: %s: read body: %w", path, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("gateway: %s: decode body: %w", path, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("gateway: encode command: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: %s: %w", path, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("gateway: %s: unexpected status %d", path, resp.StatusCode)
	}
	return nil
}
