package selection

import "slices"

// Move relocates the order-list element at From to index To.
type Move struct {
	From, To int
}

// selectedIndices returns the positions of ids in order, ascending.
func selectedIndices(order, ids []string) []int {
	var idx []int
	for i, id := range order {
		if slices.Contains(ids, id) {
			idx = append(idx, i)
		}
	}
	return idx
}

// PlanBringToFront computes, from one snapshot of the order list, the
// single-element moves that put the selected layers at the end as a
// contiguous block in their current relative order. Walking from the highest
// selected index down keeps every later index valid: a move only shifts
// elements above the one being moved. Moves that would not change anything
// are left out, so an already-front selection yields no moves.
func PlanBringToFront(order, ids []string) []Move {
	idx := selectedIndices(order, ids)
	var plan []Move
	for i := len(idx) - 1; i >= 0; i-- {
		to := len(order) - len(idx) + i
		if idx[i] != to {
			plan = append(plan, Move{From: idx[i], To: to})
		}
	}
	return plan
}

// PlanSendToBack is the mirror of PlanBringToFront: the block goes to the
// start of the list, lowest selected index first.
func PlanSendToBack(order, ids []string) []Move {
	idx := selectedIndices(order, ids)
	var plan []Move
	for i, from := range idx {
		if from != i {
			plan = append(plan, Move{From: from, To: i})
		}
	}
	return plan
}

// ApplyPlan runs a plan against a copy of order.
func ApplyPlan(order []string, plan []Move) []string {
	out := slices.Clone(order)
	for _, mv := range plan {
		v := out[mv.From]
		out = slices.Delete(out, mv.From, mv.From+1)
		out = slices.Insert(out, mv.To, v)
	}
	return out
}
