package state

import (
	"testing"

	"floorsight/dashboard/internal/proto"
)

func TestVisibilitySyncFreezesPositionOutOfView(t *testing.T) {
	s := NewSnapshot()
	s.Operators["op-1"] = &Operator{ID: "op-1", X: 10, Y: 20, VisibleToCameras: true}

	next, changed := ApplyVisibilitySync(s, proto.VisibilitySync{Visible: []string{}})
	if !changed {
		t.Fatalf("losing visibility is a change")
	}
	op := next.Operators["op-1"]
	if op.VisibleToCameras {
		t.Fatalf("operator must lose the visible flag")
	}
	if op.X != 10 || op.Y != 20 {
		t.Fatalf("position must freeze at the last authoritative value, got (%v,%v)", op.X, op.Y)
	}
}

func TestVisibilitySyncAppliesFreshPositions(t *testing.T) {
	s := NewSnapshot()
	s.Operators["op-1"] = &Operator{ID: "op-1", X: 10, Y: 20}

	next, changed := ApplyVisibilitySync(s, proto.VisibilitySync{
		Visible:   []string{"op-1"},
		Operators: map[string]proto.OperatorDelta{"op-1": {X: f64Ptr(12), Y: f64Ptr(22)}},
	})
	if !changed {
		t.Fatalf("expected a change")
	}
	op := next.Operators["op-1"]
	if op.X != 12 || op.Y != 22 {
		t.Fatalf("fresh position not applied: (%v,%v)", op.X, op.Y)
	}
	if !op.VisibleToCameras {
		t.Fatalf("operator in the visible set must carry the flag")
	}
}

func TestVisibilitySyncNeverCreatesOperators(t *testing.T) {
	s := NewSnapshot()
	next, changed := ApplyVisibilitySync(s, proto.VisibilitySync{
		Visible:   []string{"ghost"},
		Operators: map[string]proto.OperatorDelta{"ghost": {X: f64Ptr(1)}},
	})
	if changed {
		t.Fatalf("unknown ids must not produce a change")
	}
	if next != s {
		t.Fatalf("no-op must return the prior snapshot by reference")
	}
	if len(next.Operators) != 0 {
		t.Fatalf("visibility sync must never create operators")
	}
}

func TestVisibilitySyncStableStateIsNoOp(t *testing.T) {
	s := NewSnapshot()
	s.Operators["op-1"] = &Operator{ID: "op-1", X: 5, VisibleToCameras: true}
	s.Operators["op-2"] = &Operator{ID: "op-2", X: 7}

	next, changed := ApplyVisibilitySync(s, proto.VisibilitySync{
		Visible:   []string{"op-1"},
		Operators: map[string]proto.OperatorDelta{"op-1": {X: f64Ptr(5)}},
	})
	if changed {
		t.Fatalf("stable visibility must not report a change")
	}
	if next != s {
		t.Fatalf("no-op must return the prior snapshot by reference")
	}
}
