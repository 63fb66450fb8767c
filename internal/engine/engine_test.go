package engine

import (
	"testing"
	"time"

	"floorsight/dashboard/internal/journal"
)

type recordingTransport struct {
	sent      []any
	connected bool
	err       error
}

func (t *recordingTransport) Send(v any) error {
	if t.err != nil {
		return t.err
	}
	t.sent = append(t.sent, v)
	return nil
}

func (t *recordingTransport) Connected() bool {
	return t.connected
}

type mapMetrics struct {
	counts map[string]uint64
}

func newMapMetrics() *mapMetrics {
	return &mapMetrics{counts: make(map[string]uint64)}
}

func (m *mapMetrics) Add(key string, delta uint64)   { m.counts[key] += delta }
func (m *mapMetrics) Store(key string, value uint64) { m.counts[key] = value }

func newTestEngine(t *testing.T) (*Engine, *recordingTransport, *mapMetrics) {
	t.Helper()
	transport := &recordingTransport{connected: true}
	metrics := newMapMetrics()
	eng := New(Config{
		Transport: transport,
		Journal:   journal.NewJournal(10),
		Dedup:     journal.NewDedupCache(2*time.Second, 500, nil),
		Metrics:   metrics,
		Clock:     func() time.Time { return time.Unix(1_700_000_000, 0) },
	})
	return eng, transport, metrics
}

func TestDispatchAppliesEntityFrames(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	eng.Dispatch([]byte(`{"type":"machine_production_state","data":{"id":"m-1","state":"running","health":80,"output_rate":5}}`))
	snap := eng.Snapshot()
	m := snap.Machines["m-1"]
	if m == nil || m.State != "running" || m.Health != 80 {
		t.Fatalf("machine frame not applied: %+v", m)
	}
	if eng.Version() != 1 {
		t.Fatalf("expected version 1, got %d", eng.Version())
	}

	// An identical frame must not publish a new snapshot.
	eng.Dispatch([]byte(`{"type":"machine_production_state","data":{"id":"m-1","state":"running","health":80,"output_rate":5}}`))
	if eng.Version() != 1 {
		t.Fatalf("identical frame must not bump the version, got %d", eng.Version())
	}
	if eng.Snapshot() != snap {
		t.Fatalf("no-op frame must keep the published snapshot")
	}
}

func TestBatchIsTransparent(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	eng.Dispatch([]byte(`{"type":"batch_update","data":{"events":[` +
		`{"type":"financial_update","data":{"balance":100}},` +
		`{"type":"kpi_update","data":{"oee":0.9}}]}}`))

	snap := eng.Snapshot()
	if snap.Financials == nil || snap.Financials.Balance != 100 {
		t.Fatalf("batched financial update not applied: %+v", snap.Financials)
	}
	if snap.KPIs == nil || snap.KPIs.OEE != 0.9 {
		t.Fatalf("batched kpi update not applied: %+v", snap.KPIs)
	}
	if eng.Version() != 2 {
		t.Fatalf("each batched event commits on its own, expected version 2, got %d", eng.Version())
	}
}

func TestMalformedFrameIsDiscarded(t *testing.T) {
	eng, _, metrics := newTestEngine(t)

	eng.Dispatch([]byte(`{broken`))
	eng.Dispatch([]byte(`{"data":{"x":1}}`))
	if eng.Version() != 0 {
		t.Fatalf("malformed frames must not commit, got version %d", eng.Version())
	}
	if metrics.counts["engine_decode_failures"] != 2 {
		t.Fatalf("expected 2 decode failures, got %d", metrics.counts["engine_decode_failures"])
	}
}

func TestUnknownEventBecomesJournalEntry(t *testing.T) {
	eng, _, metrics := newTestEngine(t)

	eng.Dispatch([]byte(`{"type":"quantum_flux","data":{"description":"anomaly detected"}}`))

	logs := eng.Snapshot().Logs
	if len(logs) != 1 {
		t.Fatalf("expected 1 journal entry, got %d", len(logs))
	}
	if logs[0].Type != "quantum_flux" {
		t.Fatalf("catch-all entry must preserve the wire type, got %q", logs[0].Type)
	}
	if logs[0].Description != "anomaly detected" {
		t.Fatalf("unexpected description: %q", logs[0].Description)
	}
	if metrics.counts["engine_unknown_events"] != 1 {
		t.Fatalf("expected 1 unknown event, got %d", metrics.counts["engine_unknown_events"])
	}
}

func TestNoiseIsDroppedSilently(t *testing.T) {
	eng, _, metrics := newTestEngine(t)

	eng.Dispatch([]byte(`{"type":"simulation_tick","data":{"tick":42}}`))
	eng.Dispatch([]byte(`{"type":"machine_telemetry","data":{"id":"m-1","temp":71.2}}`))

	if eng.Version() != 0 {
		t.Fatalf("noise must not commit, got version %d", eng.Version())
	}
	if len(eng.Snapshot().Logs) != 0 {
		t.Fatalf("noise must never reach the journal")
	}
	if metrics.counts["engine_noise_dropped"] != 2 {
		t.Fatalf("expected 2 dropped, got %d", metrics.counts["engine_noise_dropped"])
	}
}

func TestReasoningEventsAreJournaledAndDeduplicated(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	frame := []byte(`{"type":"agent_thought","data":{"id":"th-1","source":"agent","description":"line 2 slowing"}}`)
	eng.Dispatch(frame)
	eng.Dispatch([]byte(`{"type":"agent_thought","data":{"id":"th-2","source":"agent","description":"line 2 slowing"}}`))

	logs := eng.Snapshot().Logs
	if len(logs) != 1 {
		t.Fatalf("duplicate reasoning text inside the window must be suppressed, got %d entries", len(logs))
	}
	if logs[0].ID != "th-1" || logs[0].Source != "agent" {
		t.Fatalf("unexpected entry: %+v", logs[0])
	}
}

func TestReasoningEntryDefaults(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	eng.Dispatch([]byte(`{"type":"hypothesis","data":{"content":"maybe the conveyor jammed"}}`))
	logs := eng.Snapshot().Logs
	if len(logs) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(logs))
	}
	entry := logs[0]
	if entry.ID == "" {
		t.Fatalf("entries without an id get a generated one")
	}
	if entry.Source != "agent" {
		t.Fatalf("missing source defaults to agent, got %q", entry.Source)
	}
	if entry.Description != "maybe the conveyor jammed" {
		t.Fatalf("content is the fallback text, got %q", entry.Description)
	}
	if entry.Timestamp == 0 {
		t.Fatalf("missing timestamp is filled from the clock")
	}
}

func TestLogHistoryMergesOnce(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	history := []byte(`{"type":"log_history","data":{"logs":[` +
		`{"id":"h-1","type":"agent_thought","description":"older"},` +
		`{"id":"h-2","type":"action","description":"newer"}]}}`)

	eng.Dispatch(history)
	if got := len(eng.Snapshot().Logs); got != 2 {
		t.Fatalf("expected 2 replayed entries, got %d", got)
	}
	version := eng.Version()

	eng.Dispatch(history)
	if eng.Version() != version {
		t.Fatalf("replaying the same history must not publish a new snapshot")
	}
}

func TestHeartbeatIsAnsweredNotJournaled(t *testing.T) {
	eng, transport, _ := newTestEngine(t)

	eng.Dispatch([]byte(`{"type":"heartbeat","data":{"server_time":1234}}`))

	if len(transport.sent) != 1 {
		t.Fatalf("expected 1 ack on the transport, got %d", len(transport.sent))
	}
	if len(eng.Snapshot().Logs) != 0 {
		t.Fatalf("heartbeats must never reach the journal")
	}
	if eng.Version() != 0 {
		t.Fatalf("heartbeats must not commit")
	}
}

func TestVisibilityFlowThroughDispatch(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	eng.Dispatch([]byte(`{"type":"operator_update","data":{"id":"op-1","x":10,"y":20}}`))
	eng.Dispatch([]byte(`{"type":"visibility_sync","data":{"visible":["op-1"],"operators":{"op-1":{"x":11,"y":21}}}}`))
	eng.Dispatch([]byte(`{"type":"visibility_sync","data":{"visible":[]}}`))

	op := eng.Snapshot().Operators["op-1"]
	if op == nil {
		t.Fatalf("operator missing")
	}
	if op.VisibleToCameras {
		t.Fatalf("operator must have dropped out of view")
	}
	if op.X != 11 || op.Y != 21 {
		t.Fatalf("position must freeze at last visible fix, got (%v,%v)", op.X, op.Y)
	}
}
