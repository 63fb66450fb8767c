// Package engine turns the unordered, bursty, possibly-duplicated upstream
// event stream into a coherent, boundedly-sized, queryable state snapshot.
//
// The engine is single-threaded by construction: Run drains frames in arrival
// order on one goroutine, every reducer runs to completion before the next
// frame is touched, and the snapshot is published through an atomic pointer
// so readers never observe a mid-mutation state. No ordering is guaranteed
// across a disconnect/reconnect boundary and no sequence numbers are
// exchanged; a frame lost during an outage is resolved by the next full-field
// update for the affected entity.
package engine

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"floorsight/dashboard/internal/journal"
	"floorsight/dashboard/internal/proto"
	"floorsight/dashboard/internal/state"
	"floorsight/dashboard/internal/stream"
	"floorsight/dashboard/internal/telemetry"
	"floorsight/dashboard/logging"
)

const (
	metricDecodeFailures = "engine_decode_failures"
	metricCommits        = "engine_commits"
	metricUnknownEvents  = "engine_unknown_events"
	metricNoiseDropped   = "engine_noise_dropped"
)

// Config wires the engine's collaborators.
type Config struct {
	Frames    <-chan []byte
	Transport stream.Transport
	Journal   *journal.Journal
	Dedup     *journal.DedupCache
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
	Clock     func() time.Time
}

// Engine owns the snapshot and applies every inbound envelope to it.
type Engine struct {
	frames    <-chan []byte
	transport stream.Transport
	journal   *journal.Journal
	dedup     *journal.DedupCache
	logger    telemetry.Logger
	metrics   telemetry.Metrics
	publisher logging.Publisher
	clock     func() time.Time

	snap    atomic.Pointer[state.Snapshot]
	version atomic.Uint64
}

// New constructs an engine over an empty snapshot.
func New(cfg Config) *Engine {
	if cfg.Journal == nil {
		cfg.Journal = journal.NewJournal(200)
	}
	if cfg.Dedup == nil {
		cfg.Dedup = journal.NewDedupCache(2*time.Second, 500, cfg.Clock)
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NopMetrics()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	e := &Engine{
		frames:    cfg.Frames,
		transport: cfg.Transport,
		journal:   cfg.Journal,
		dedup:     cfg.Dedup,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		publisher: cfg.Publisher,
		clock:     cfg.Clock,
	}
	e.snap.Store(state.NewSnapshot())
	return e
}

// Run processes frames until the context is cancelled. All reducers execute
// on this goroutine.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-e.frames:
			e.Dispatch(frame)
		}
	}
}

// Snapshot returns the current published snapshot. Callers must treat it as
// read-only.
func (e *Engine) Snapshot() *state.Snapshot {
	return e.snap.Load()
}

// Version counts committed snapshot changes; it only moves when something
// actually changed.
func (e *Engine) Version() uint64 {
	return e.version.Load()
}

// Dispatch decodes one raw frame and routes it. A malformed frame is logged
// and discarded; it never terminates processing.
func (e *Engine) Dispatch(frame []byte) {
	env, err := proto.Decode(frame)
	if err != nil {
		e.metrics.Add(metricDecodeFailures, 1)
		e.logger.Printf("discarding malformed frame: %v", err)
		return
	}
	e.route(env)
}

// route dispatches one envelope by kind. The switch is exhaustive over the
// closed enum; the default arm is the explicit catch-all that keeps
// unanticipated event types visible instead of silently vanishing.
func (e *Engine) route(env proto.Envelope) {
	switch kind := env.Kind(); kind {
	case proto.KindBatchUpdate:
		subs, err := proto.DecodeBatch(env)
		if err != nil {
			e.decodeFailure(env, err)
			return
		}
		for _, sub := range subs {
			e.route(sub)
		}

	case proto.KindLogHistory:
		var payload proto.LogHistoryPayload
		if err := proto.UnmarshalPayload(env, &payload); err != nil {
			e.decodeFailure(env, err)
			return
		}
		if added := e.journal.MergeHistory(payload.Logs); added > 0 {
			e.publishLogs()
		}

	case proto.KindOperatorDataUpdate:
		var deltas proto.OperatorDataUpdate
		if err := proto.UnmarshalPayload(env, &deltas); err != nil {
			e.decodeFailure(env, err)
			return
		}
		e.commit(func(s *state.Snapshot) (*state.Snapshot, bool) {
			return state.ApplyOperatorDeltas(s, deltas)
		})

	case proto.KindOperatorUpdate:
		var update proto.OperatorUpdate
		if err := proto.UnmarshalPayload(env, &update); err != nil {
			e.decodeFailure(env, err)
			return
		}
		e.commit(func(s *state.Snapshot) (*state.Snapshot, bool) {
			return state.ApplyOperatorUpdate(s, update)
		})

	case proto.KindOperatorFatigueUpdate:
		var update proto.OperatorFatigueUpdate
		if err := proto.UnmarshalPayload(env, &update); err != nil {
			e.decodeFailure(env, err)
			return
		}
		e.commit(func(s *state.Snapshot) (*state.Snapshot, bool) {
			return state.ApplyOperatorFatigue(s, update)
		})

	case proto.KindVisibilitySync:
		var sync proto.VisibilitySync
		if err := proto.UnmarshalPayload(env, &sync); err != nil {
			e.decodeFailure(env, err)
			return
		}
		e.commit(func(s *state.Snapshot) (*state.Snapshot, bool) {
			return state.ApplyVisibilitySync(s, sync)
		})

	case proto.KindSupervisorUpdate:
		var update proto.SupervisorUpdate
		if err := proto.UnmarshalPayload(env, &update); err != nil {
			e.decodeFailure(env, err)
			return
		}
		e.commit(func(s *state.Snapshot) (*state.Snapshot, bool) {
			return state.ApplySupervisor(s, update)
		})

	case proto.KindMaintenanceCrewUpdate:
		var update proto.MaintenanceCrewUpdate
		if err := proto.UnmarshalPayload(env, &update); err != nil {
			e.decodeFailure(env, err)
			return
		}
		e.commit(func(s *state.Snapshot) (*state.Snapshot, bool) {
			return state.ApplyMaintenanceCrew(s, update)
		})

	case proto.KindLineStatus:
		var update proto.LineStatus
		if err := proto.UnmarshalPayload(env, &update); err != nil {
			e.decodeFailure(env, err)
			return
		}
		e.commit(func(s *state.Snapshot) (*state.Snapshot, bool) {
			return state.ApplyLineStatus(s, update)
		})

	case proto.KindMachineProductionState:
		var update proto.MachineProductionState
		if err := proto.UnmarshalPayload(env, &update); err != nil {
			e.decodeFailure(env, err)
			return
		}
		e.commit(func(s *state.Snapshot) (*state.Snapshot, bool) {
			return state.ApplyMachineState(s, update)
		})

	case proto.KindInventoryUpdate:
		var counts proto.InventoryUpdate
		if err := proto.UnmarshalPayload(env, &counts); err != nil {
			e.decodeFailure(env, err)
			return
		}
		e.commit(func(s *state.Snapshot) (*state.Snapshot, bool) {
			return state.ApplyInventory(s, counts)
		})

	case proto.KindFinancialUpdate:
		var update proto.FinancialUpdate
		if err := proto.UnmarshalPayload(env, &update); err != nil {
			e.decodeFailure(env, err)
			return
		}
		e.commit(func(s *state.Snapshot) (*state.Snapshot, bool) {
			return state.ApplyFinancials(s, update)
		})

	case proto.KindKPIUpdate:
		var update proto.KPIUpdate
		if err := proto.UnmarshalPayload(env, &update); err != nil {
			e.decodeFailure(env, err)
			return
		}
		e.commit(func(s *state.Snapshot) (*state.Snapshot, bool) {
			return state.ApplyKPIs(s, update)
		})

	case proto.KindConveyorBoxUpdate:
		var update proto.ConveyorBoxUpdate
		if err := proto.UnmarshalPayload(env, &update); err != nil {
			e.decodeFailure(env, err)
			return
		}
		e.commit(func(s *state.Snapshot) (*state.Snapshot, bool) {
			return state.ApplyConveyorBox(s, update)
		})

	case proto.KindBoxArrivedWarehouse:
		var arrival proto.BoxArrivedWarehouse
		if err := proto.UnmarshalPayload(env, &arrival); err != nil {
			e.decodeFailure(env, err)
			return
		}
		e.commit(func(s *state.Snapshot) (*state.Snapshot, bool) {
			return state.ApplyBoxArrival(s, arrival)
		})

	case proto.KindCameraUpdate:
		var update proto.CameraUpdate
		if err := proto.UnmarshalPayload(env, &update); err != nil {
			e.decodeFailure(env, err)
			return
		}
		e.commit(func(s *state.Snapshot) (*state.Snapshot, bool) {
			return state.ApplyCamera(s, update)
		})

	case proto.KindAgentThought, proto.KindHypothesis, proto.KindEvidence, proto.KindBelief, proto.KindAction:
		e.journalReasoning(env)

	case proto.KindHeartbeat:
		e.answerHeartbeat(env)

	case proto.KindSimulationTick, proto.KindMachineTelemetry:
		// Denylisted high-frequency noise: dropped without side effects.
		e.metrics.Add(metricNoiseDropped, 1)

	case proto.KindUnknown:
		e.journalCatchAll(env)
	}
}

// commit applies a reducer against the current snapshot and publishes the
// result only when something changed. Reducers return the prior snapshot by
// reference on no-ops, so an unchanged commit costs nothing downstream.
func (e *Engine) commit(apply func(*state.Snapshot) (*state.Snapshot, bool)) {
	next, changed := apply(e.snap.Load())
	if !changed {
		return
	}
	e.snap.Store(next)
	e.version.Add(1)
	e.metrics.Add(metricCommits, 1)
}

// publishLogs refreshes the journal view carried on the snapshot.
func (e *Engine) publishLogs() {
	e.snap.Store(e.snap.Load().WithLogs(e.journal.Entries()))
	e.version.Add(1)
	e.metrics.Add(metricCommits, 1)
}

// journalReasoning journals a reasoning event unless the dedup cache has seen
// the same text inside the suppression window.
func (e *Engine) journalReasoning(env proto.Envelope) {
	entry := e.buildEntry(env)
	if !e.dedup.Observe(env.Type, entry.Description) {
		return
	}
	e.journal.Prepend(entry)
	e.publishLogs()
}

// journalCatchAll turns an unrecognised event into a generic log entry so it
// remains visible for debugging.
func (e *Engine) journalCatchAll(env proto.Envelope) {
	e.metrics.Add(metricUnknownEvents, 1)
	e.publisher.Publish(context.Background(), logging.Event{
		Type:     "unrecognized_event",
		Severity: logging.SeverityWarn,
		Category: logging.CategoryReconcile,
		Entity:   logging.EntityRef{Kind: logging.EntityKindSystem},
		Payload:  map[string]any{"event_type": env.Type},
	})
	e.journal.Prepend(e.buildEntry(env))
	e.publishLogs()
}

// buildEntry synthesises a journal entry from an envelope, tolerating the
// loose shapes the reasoning stream uses.
func (e *Engine) buildEntry(env proto.Envelope) journal.Entry {
	var payload proto.ReasoningPayload
	if len(env.Data) > 0 {
		// Best effort: free-form payloads that don't match simply journal raw.
		_ = json.Unmarshal(env.Data, &payload)
	}
	entry := journal.Entry{
		ID:          payload.ID,
		Type:        env.Type,
		Source:      payload.Source,
		Description: payload.Text(),
		Timestamp:   env.Timestamp,
		Data:        env.Data,
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Source == "" {
		entry.Source = "agent"
	}
	if entry.Description == "" && len(env.Data) > 0 {
		entry.Description = string(env.Data)
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = e.clock().UnixMilli()
	}
	return entry
}

// answerHeartbeat echoes the upstream liveness probe on the live transport.
// Heartbeats never reach the journal.
func (e *Engine) answerHeartbeat(env proto.Envelope) {
	if e.transport == nil {
		return
	}
	var hb proto.Heartbeat
	if len(env.Data) > 0 {
		_ = json.Unmarshal(env.Data, &hb)
	}
	if err := e.transport.Send(proto.NewHeartbeatAck(hb, e.clock().UnixMilli())); err != nil {
		e.logger.Printf("heartbeat ack failed: %v", err)
	}
}

func (e *Engine) decodeFailure(env proto.Envelope, err error) {
	e.metrics.Add(metricDecodeFailures, 1)
	e.logger.Printf("discarding %s envelope: %v", env.Type, err)
}
