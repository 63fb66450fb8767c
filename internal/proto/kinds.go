package proto

// EventKind is the closed set of upstream event types. The wire carries raw
// strings; decoding maps them onto this enum so that routing is an exhaustive
// switch and a new upstream type is a compile-visible addition instead of a
// silently ignored string.
type EventKind int

const (
	// KindUnknown covers any type string not in the registry. Unknown events
	// are not errors; the router turns them into generic log entries so they
	// stay visible for debugging.
	KindUnknown EventKind = iota

	// KindBatchUpdate wraps a list of sub-envelopes. It is transparent sugar:
	// each element is re-dispatched through the same decode-and-route path.
	KindBatchUpdate
	// KindLogHistory carries the journal replay sent once per reconnect.
	KindLogHistory

	KindOperatorDataUpdate
	KindOperatorUpdate
	KindOperatorFatigueUpdate
	KindVisibilitySync
	KindSupervisorUpdate
	KindMaintenanceCrewUpdate
	KindLineStatus
	KindMachineProductionState
	KindInventoryUpdate
	KindFinancialUpdate
	KindKPIUpdate
	KindConveyorBoxUpdate
	KindBoxArrivedWarehouse
	KindCameraUpdate

	// Reasoning kinds emitted by the upstream agent loop. They never touch
	// entity state; accepted ones become journal entries after deduplication.
	KindAgentThought
	KindHypothesis
	KindEvidence
	KindBelief
	KindAction

	// High-frequency kinds that are intentionally silent: they carry no state
	// the dashboard mirrors and would swamp the journal.
	KindHeartbeat
	KindSimulationTick
	KindMachineTelemetry
)

var kindNames = map[EventKind]string{
	KindUnknown:                "unknown",
	KindBatchUpdate:            "batch_update",
	KindLogHistory:             "log_history",
	KindOperatorDataUpdate:     "operator_data_update",
	KindOperatorUpdate:         "operator_update",
	KindOperatorFatigueUpdate:  "operator_fatigue_update",
	KindVisibilitySync:         "visibility_sync",
	KindSupervisorUpdate:       "supervisor_update",
	KindMaintenanceCrewUpdate:  "maintenance_crew_update",
	KindLineStatus:             "line_status",
	KindMachineProductionState: "machine_production_state",
	KindInventoryUpdate:        "inventory_update",
	KindFinancialUpdate:        "financial_update",
	KindKPIUpdate:              "kpi_update",
	KindConveyorBoxUpdate:      "conveyor_box_update",
	KindBoxArrivedWarehouse:    "box_arrived_warehouse",
	KindCameraUpdate:           "camera_update",
	KindAgentThought:           "agent_thought",
	KindHypothesis:             "hypothesis",
	KindEvidence:               "evidence",
	KindBelief:                 "belief",
	KindAction:                 "action",
	KindHeartbeat:              "heartbeat",
	KindSimulationTick:         "simulation_tick",
	KindMachineTelemetry:       "machine_telemetry",
}

var kindsByName = func() map[string]EventKind {
	byName := make(map[string]EventKind, len(kindNames))
	for kind, name := range kindNames {
		byName[name] = kind
	}
	return byName
}()

// KindFromType resolves a wire type string to an EventKind. Unregistered
// strings resolve to KindUnknown.
func KindFromType(eventType string) EventKind {
	if kind, ok := kindsByName[eventType]; ok {
		return kind
	}
	return KindUnknown
}

// String returns the wire name of the kind.
func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsReasoning reports whether the kind belongs to the free-form agent
// reasoning family that is journaled through the dedup cache.
func (k EventKind) IsReasoning() bool {
	switch k {
	case KindAgentThought, KindHypothesis, KindEvidence, KindBelief, KindAction:
		return true
	}
	return false
}

// IsNoise reports whether the kind is denylisted as known high-frequency
// noise that must be dropped (or, for heartbeats, answered) without producing
// a journal entry.
func (k EventKind) IsNoise() bool {
	switch k {
	case KindHeartbeat, KindSimulationTick, KindMachineTelemetry:
		return true
	}
	return false
}
