package proto

// OperatorDelta is a partial operator update. Pointer fields distinguish
// "absent from the payload" from a zero value; reducers merge only the fields
// that are present.
type OperatorDelta struct {
	Name         *string  `json:"name,omitempty"`
	AssignedLine *string  `json:"assigned_line,omitempty"`
	X            *float64 `json:"x,omitempty"`
	Y            *float64 `json:"y,omitempty"`
	Status       *string  `json:"status,omitempty"`
	Health       *float64 `json:"health,omitempty"`
	Fatigue      *float64 `json:"fatigue,omitempty"`
}

// OperatorUpdate addresses a single operator.
type OperatorUpdate struct {
	ID string `json:"id"`
	OperatorDelta
}

// OperatorDataUpdate is the bulk form: many operators in one frame. The whole
// mapping is reconciled as a single snapshot commit.
type OperatorDataUpdate map[string]OperatorDelta

// OperatorFatigueUpdate carries only a fatigue reading.
type OperatorFatigueUpdate struct {
	ID      string  `json:"id"`
	Fatigue float64 `json:"fatigue"`
}

// VisibilitySync is the fog-of-war refresh: the set of operator ids currently
// seen by cameras plus fresh position data for exactly those ids.
type VisibilitySync struct {
	Visible   []string                 `json:"visible"`
	Operators map[string]OperatorDelta `json:"operators,omitempty"`
}

// SupervisorUpdate replaces the supervisor record wholesale.
type SupervisorUpdate struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Status      string  `json:"status"`
	CurrentTask string  `json:"current_task,omitempty"`
}

// MaintenanceCrewUpdate replaces the maintenance crew record wholesale.
type MaintenanceCrewUpdate struct {
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Status        string  `json:"status"`
	Busy          bool    `json:"busy"`
	TargetMachine string  `json:"target_machine,omitempty"`
}

// LineStatus replaces a production line's live fields.
type LineStatus struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Rate   float64 `json:"rate"`
}

// MachineProductionState replaces a machine's live fields.
type MachineProductionState struct {
	ID         string  `json:"id"`
	Line       string  `json:"line,omitempty"`
	State      string  `json:"state"`
	Health     float64 `json:"health"`
	OutputRate float64 `json:"output_rate"`
}

// CameraUpdate replaces a camera's live fields.
type CameraUpdate struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Heading  float64 `json:"heading"`
	Coverage float64 `json:"coverage"`
}

// InventoryUpdate replaces the whole inventory mapping; the upstream always
// sends complete counts.
type InventoryUpdate map[string]int

// FinancialUpdate replaces the financial aggregates wholesale.
type FinancialUpdate struct {
	Balance  float64 `json:"balance"`
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
}

// KPIUpdate replaces the KPI aggregates wholesale.
type KPIUpdate struct {
	OEE         float64 `json:"oee"`
	SafetyScore float64 `json:"safety_score"`
	Throughput  float64 `json:"throughput"`
	Quality     float64 `json:"quality"`
}

// ConveyorBoxUpdate upserts one box on the conveyor.
type ConveyorBoxUpdate struct {
	ID       string  `json:"id"`
	ItemType string  `json:"item_type"`
	Lane     string  `json:"lane,omitempty"`
	Progress float64 `json:"progress"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// BoxArrivedWarehouse retires a box and carries the authoritative inventory
// total for its item type. Total is not a delta: the reducer stores it as-is
// so box removal and the new count land in the same commit.
type BoxArrivedWarehouse struct {
	BoxID    string `json:"box_id"`
	ItemType string `json:"item_type"`
	Total    int    `json:"total"`
}

// ReasoningPayload is the common shape of the free-form agent reasoning
// events. Fields are best-effort: the upstream varies them across kinds.
type ReasoningPayload struct {
	ID          string `json:"id,omitempty"`
	Source      string `json:"source,omitempty"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`
}

// Text returns the journaled text of a reasoning payload, preferring the
// explicit description over raw content.
func (p ReasoningPayload) Text() string {
	if p.Description != "" {
		return p.Description
	}
	return p.Content
}

// Heartbeat is the upstream liveness probe.
type Heartbeat struct {
	ServerTime int64 `json:"server_time"`
}

// HeartbeatAck is the client echo written back on the stream.
type HeartbeatAck struct {
	Type       string `json:"type"`
	ServerTime int64  `json:"server_time"`
	ClientTime int64  `json:"client_time"`
}

// NewHeartbeatAck builds the echo for a received heartbeat.
func NewHeartbeatAck(hb Heartbeat, clientTime int64) HeartbeatAck {
	return HeartbeatAck{Type: "heartbeat_ack", ServerTime: hb.ServerTime, ClientTime: clientTime}
}
