// Package state owns the in-memory mirror of remote simulation state. A
// Snapshot is immutable once published: reducers copy-on-write the maps they
// touch and hand back either a new snapshot or, when nothing changed, the
// prior snapshot by reference so downstream change detection never fires
// spuriously.
package state

import (
	"floorsight/dashboard/internal/journal"
)

// Operator is a factory-floor worker. Identity is the ID; descriptive fields
// change rarely, live fields change every few frames. Position fields are
// authoritative only while VisibleToCameras is true; afterwards they freeze
// at the last known value.
type Operator struct {
	ID               string  `json:"id"`
	Name             string  `json:"name,omitempty"`
	AssignedLine     string  `json:"assigned_line,omitempty"`
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
	Status           string  `json:"status,omitempty"`
	Health           float64 `json:"health"`
	Fatigue          float64 `json:"fatigue"`
	VisibleToCameras bool    `json:"visible_to_cameras"`
}

// Machine is one production machine; its record is replaced wholesale on
// every machine_production_state frame.
type Machine struct {
	ID         string  `json:"id"`
	Line       string  `json:"line,omitempty"`
	State      string  `json:"state"`
	Health     float64 `json:"health"`
	OutputRate float64 `json:"output_rate"`
}

// ProductionLine mirrors a line_status frame.
type ProductionLine struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Rate   float64 `json:"rate"`
}

// Camera mirrors a camera_update frame.
type Camera struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Heading  float64 `json:"heading"`
	Coverage float64 `json:"coverage"`
}

// ConveyorBox is a box in transit on the conveyor.
type ConveyorBox struct {
	ID       string  `json:"id"`
	ItemType string  `json:"item_type"`
	Lane     string  `json:"lane,omitempty"`
	Progress float64 `json:"progress"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Supervisor is the single supervisor record.
type Supervisor struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Status      string  `json:"status"`
	CurrentTask string  `json:"current_task,omitempty"`
}

// MaintenanceCrew is the single maintenance crew record.
type MaintenanceCrew struct {
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Status        string  `json:"status"`
	Busy          bool    `json:"busy"`
	TargetMachine string  `json:"target_machine,omitempty"`
}

// Financials are the wholesale-replaced financial aggregates.
type Financials struct {
	Balance  float64 `json:"balance"`
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
}

// KPIs are the wholesale-replaced performance aggregates.
type KPIs struct {
	OEE         float64 `json:"oee"`
	SafetyScore float64 `json:"safety_score"`
	Throughput  float64 `json:"throughput"`
	Quality     float64 `json:"quality"`
}

// Snapshot is the complete reconciled mirror at a point in time. Readers must
// treat it as read-only; entity pointers are shared across snapshots whenever
// the entity did not change.
type Snapshot struct {
	Operators   map[string]*Operator       `json:"operators"`
	Machines    map[string]*Machine        `json:"machines"`
	Lines       map[string]*ProductionLine `json:"lines"`
	Cameras     map[string]*Camera         `json:"cameras"`
	Boxes       map[string]*ConveyorBox    `json:"conveyor_boxes"`
	Supervisor  *Supervisor                `json:"supervisor,omitempty"`
	Maintenance *MaintenanceCrew           `json:"maintenance_crew,omitempty"`
	Financials  *Financials                `json:"financials,omitempty"`
	KPIs        *KPIs                      `json:"kpis,omitempty"`
	Inventory   map[string]int             `json:"inventory"`
	Logs        []journal.Entry            `json:"logs"`
}

// NewSnapshot returns an empty snapshot with allocated maps.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Operators: make(map[string]*Operator),
		Machines:  make(map[string]*Machine),
		Lines:     make(map[string]*ProductionLine),
		Cameras:   make(map[string]*Camera),
		Boxes:     make(map[string]*ConveyorBox),
		Inventory: make(map[string]int),
	}
}

// WithLogs returns a snapshot carrying the given journal view. The caller
// passes an already-copied slice; entity maps are shared unchanged.
func (s *Snapshot) WithLogs(entries []journal.Entry) *Snapshot {
	next := *s
	next.Logs = entries
	return &next
}

func (s *Snapshot) shallowClone() *Snapshot {
	next := *s
	return &next
}

func cloneOperators(src map[string]*Operator) map[string]*Operator {
	dst := make(map[string]*Operator, len(src)+1)
	for id, op := range src {
		dst[id] = op
	}
	return dst
}

func cloneMachines(src map[string]*Machine) map[string]*Machine {
	dst := make(map[string]*Machine, len(src)+1)
	for id, m := range src {
		dst[id] = m
	}
	return dst
}

func cloneLines(src map[string]*ProductionLine) map[string]*ProductionLine {
	dst := make(map[string]*ProductionLine, len(src)+1)
	for id, l := range src {
		dst[id] = l
	}
	return dst
}

func cloneCameras(src map[string]*Camera) map[string]*Camera {
	dst := make(map[string]*Camera, len(src)+1)
	for id, c := range src {
		dst[id] = c
	}
	return dst
}

func cloneBoxes(src map[string]*ConveyorBox) map[string]*ConveyorBox {
	dst := make(map[string]*ConveyorBox, len(src)+1)
	for id, b := range src {
		dst[id] = b
	}
	return dst
}

func cloneInventory(src map[string]int) map[string]int {
	dst := make(map[string]int, len(src)+1)
	for item, count := range src {
		dst[item] = count
	}
	return dst
}
