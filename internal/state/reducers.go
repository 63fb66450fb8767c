package state

import (
	"maps"

	"floorsight/dashboard/internal/proto"
)

// Reducers follow one contract: they take the current snapshot and a decoded
// payload and return the next snapshot plus whether anything changed. When
// nothing changed the prior snapshot comes back by reference — callers rely
// on pointer identity to skip downstream work.

// ApplyOperatorDeltas field-merges a mapping of operator deltas. Unknown ids
// are created lazily; known operators keep every field the payload omits. The
// whole mapping lands in a single snapshot commit regardless of its size.
func ApplyOperatorDeltas(s *Snapshot, deltas map[string]proto.OperatorDelta) (*Snapshot, bool) {
	var updated map[string]*Operator
	for id, delta := range deltas {
		if id == "" {
			continue
		}
		cur := s.Operators[id]
		merged, changed := mergeOperator(id, cur, delta)
		if !changed {
			continue
		}
		if updated == nil {
			updated = cloneOperators(s.Operators)
		}
		updated[id] = merged
	}
	if updated == nil {
		return s, false
	}
	next := s.shallowClone()
	next.Operators = updated
	return next, true
}

// ApplyOperatorUpdate field-merges a single-operator frame.
func ApplyOperatorUpdate(s *Snapshot, update proto.OperatorUpdate) (*Snapshot, bool) {
	if update.ID == "" {
		return s, false
	}
	return ApplyOperatorDeltas(s, map[string]proto.OperatorDelta{update.ID: update.OperatorDelta})
}

// ApplyOperatorFatigue merges a fatigue reading without touching any other
// field, position included.
func ApplyOperatorFatigue(s *Snapshot, update proto.OperatorFatigueUpdate) (*Snapshot, bool) {
	if update.ID == "" {
		return s, false
	}
	fatigue := update.Fatigue
	return ApplyOperatorDeltas(s, map[string]proto.OperatorDelta{update.ID: {Fatigue: &fatigue}})
}

// ApplySupervisor replaces the supervisor record wholesale.
func ApplySupervisor(s *Snapshot, p proto.SupervisorUpdate) (*Snapshot, bool) {
	record := Supervisor{X: p.X, Y: p.Y, Status: p.Status, CurrentTask: p.CurrentTask}
	if s.Supervisor != nil && *s.Supervisor == record {
		return s, false
	}
	next := s.shallowClone()
	next.Supervisor = &record
	return next, true
}

// ApplyMaintenanceCrew replaces the maintenance crew record wholesale.
func ApplyMaintenanceCrew(s *Snapshot, p proto.MaintenanceCrewUpdate) (*Snapshot, bool) {
	record := MaintenanceCrew{X: p.X, Y: p.Y, Status: p.Status, Busy: p.Busy, TargetMachine: p.TargetMachine}
	if s.Maintenance != nil && *s.Maintenance == record {
		return s, false
	}
	next := s.shallowClone()
	next.Maintenance = &record
	return next, true
}

// ApplyLineStatus replaces a production line record wholesale.
func ApplyLineStatus(s *Snapshot, p proto.LineStatus) (*Snapshot, bool) {
	if p.ID == "" {
		return s, false
	}
	record := ProductionLine{ID: p.ID, Status: p.Status, Rate: p.Rate}
	if cur := s.Lines[p.ID]; cur != nil && *cur == record {
		return s, false
	}
	next := s.shallowClone()
	next.Lines = cloneLines(s.Lines)
	next.Lines[p.ID] = &record
	return next, true
}

// ApplyMachineState replaces a machine record wholesale.
func ApplyMachineState(s *Snapshot, p proto.MachineProductionState) (*Snapshot, bool) {
	if p.ID == "" {
		return s, false
	}
	record := Machine{ID: p.ID, Line: p.Line, State: p.State, Health: p.Health, OutputRate: p.OutputRate}
	if cur := s.Machines[p.ID]; cur != nil && *cur == record {
		return s, false
	}
	next := s.shallowClone()
	next.Machines = cloneMachines(s.Machines)
	next.Machines[p.ID] = &record
	return next, true
}

// ApplyCamera replaces a camera record wholesale.
func ApplyCamera(s *Snapshot, p proto.CameraUpdate) (*Snapshot, bool) {
	if p.ID == "" {
		return s, false
	}
	record := Camera{ID: p.ID, X: p.X, Y: p.Y, Heading: p.Heading, Coverage: p.Coverage}
	if cur := s.Cameras[p.ID]; cur != nil && *cur == record {
		return s, false
	}
	next := s.shallowClone()
	next.Cameras = cloneCameras(s.Cameras)
	next.Cameras[p.ID] = &record
	return next, true
}

// ApplyInventory replaces the whole inventory mapping; the upstream always
// sends complete counts.
func ApplyInventory(s *Snapshot, counts map[string]int) (*Snapshot, bool) {
	if maps.Equal(s.Inventory, counts) {
		return s, false
	}
	next := s.shallowClone()
	next.Inventory = cloneInventory(counts)
	return next, true
}

// ApplyFinancials replaces the financial aggregates wholesale.
func ApplyFinancials(s *Snapshot, p proto.FinancialUpdate) (*Snapshot, bool) {
	record := Financials{Balance: p.Balance, Revenue: p.Revenue, Expenses: p.Expenses}
	if s.Financials != nil && *s.Financials == record {
		return s, false
	}
	next := s.shallowClone()
	next.Financials = &record
	return next, true
}

// ApplyKPIs replaces the KPI aggregates wholesale.
func ApplyKPIs(s *Snapshot, p proto.KPIUpdate) (*Snapshot, bool) {
	record := KPIs{OEE: p.OEE, SafetyScore: p.SafetyScore, Throughput: p.Throughput, Quality: p.Quality}
	if s.KPIs != nil && *s.KPIs == record {
		return s, false
	}
	next := s.shallowClone()
	next.KPIs = &record
	return next, true
}

// ApplyConveyorBox upserts a box keyed by its id.
func ApplyConveyorBox(s *Snapshot, p proto.ConveyorBoxUpdate) (*Snapshot, bool) {
	if p.ID == "" {
		return s, false
	}
	record := ConveyorBox{ID: p.ID, ItemType: p.ItemType, Lane: p.Lane, Progress: p.Progress, X: p.X, Y: p.Y}
	if cur := s.Boxes[p.ID]; cur != nil && *cur == record {
		return s, false
	}
	next := s.shallowClone()
	next.Boxes = cloneBoxes(s.Boxes)
	next.Boxes[p.ID] = &record
	return next, true
}

// ApplyBoxArrival removes the box from the conveyor and stores the
// authoritative inventory total in the same commit. The total is not a delta;
// a renderer must never observe the box gone with the old count, or the box
// present with the new one.
func ApplyBoxArrival(s *Snapshot, p proto.BoxArrivedWarehouse) (*Snapshot, bool) {
	if p.ItemType == "" {
		return s, false
	}
	_, hadBox := s.Boxes[p.BoxID]
	current, counted := s.Inventory[p.ItemType]
	if !hadBox && counted && current == p.Total {
		return s, false
	}
	next := s.shallowClone()
	if hadBox {
		boxes := cloneBoxes(s.Boxes)
		delete(boxes, p.BoxID)
		next.Boxes = boxes
	}
	inventory := cloneInventory(s.Inventory)
	inventory[p.ItemType] = p.Total
	next.Inventory = inventory
	return next, true
}

func mergeOperator(id string, cur *Operator, delta proto.OperatorDelta) (*Operator, bool) {
	if cur == nil {
		created := Operator{ID: id}
		applyOperatorDelta(&created, delta)
		return &created, true
	}
	next := *cur
	if !applyOperatorDelta(&next, delta) {
		return cur, false
	}
	return &next, true
}

func applyOperatorDelta(op *Operator, delta proto.OperatorDelta) bool {
	changed := false
	if delta.Name != nil && *delta.Name != op.Name {
		op.Name = *delta.Name
		changed = true
	}
	if delta.AssignedLine != nil && *delta.AssignedLine != op.AssignedLine {
		op.AssignedLine = *delta.AssignedLine
		changed = true
	}
	if delta.X != nil && *delta.X != op.X {
		op.X = *delta.X
		changed = true
	}
	if delta.Y != nil && *delta.Y != op.Y {
		op.Y = *delta.Y
		changed = true
	}
	if delta.Status != nil && *delta.Status != op.Status {
		op.Status = *delta.Status
		changed = true
	}
	if delta.Health != nil && *delta.Health != op.Health {
		op.Health = *delta.Health
		changed = true
	}
	if delta.Fatigue != nil && *delta.Fatigue != op.Fatigue {
		op.Fatigue = *delta.Fatigue
		changed = true
	}
	return changed
}
