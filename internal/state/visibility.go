package state

import "floorsight/dashboard/internal/proto"

// ApplyVisibilitySync reconciles the fog-of-war view of operators. Operators
// in the visible set take the fresh position data and gain the visible flag;
// operators that dropped out of the set lose the flag and nothing else, so
// their position freezes at the last authoritative value. This reducer never
// creates operators: visibility refines entities that already exist.
func ApplyVisibilitySync(s *Snapshot, sync proto.VisibilitySync) (*Snapshot, bool) {
	visible := make(map[string]struct{}, len(sync.Visible))
	for _, id := range sync.Visible {
		visible[id] = struct{}{}
	}

	var updated map[string]*Operator
	for id, cur := range s.Operators {
		next := *cur
		changed := false
		if _, inView := visible[id]; inView {
			if delta, ok := sync.Operators[id]; ok {
				changed = applyOperatorDelta(&next, delta)
			}
			if !next.VisibleToCameras {
				next.VisibleToCameras = true
				changed = true
			}
		} else if next.VisibleToCameras {
			next.VisibleToCameras = false
			changed = true
		}
		if !changed {
			continue
		}
		if updated == nil {
			updated = cloneOperators(s.Operators)
		}
		updated[id] = &next
	}
	if updated == nil {
		return s, false
	}
	out := s.shallowClone()
	out.Operators = updated
	return out, true
}
