package app

import (
	"slices"
	"sort"

	"taskflow/internal/domain"
)

// laneKey builds the order-map key for one (project, status) lane.
func laneKey(projectID string, status domain.Status) string {
	return projectID + "|" + string(status)
}

// EnsureLane reconciles the remembered order for a lane with its actual
// membership: remembered ids keep their relative order, ids without a
// remembered position append at the end in their current order, and ids no
// longer in the lane drop out.
func (e *Envelope) EnsureLane(projectID string, status domain.Status, idsInLane []string) {
	key := laneKey(projectID, status)
	existing := e.OrderMap[key]

	order := make([]string, 0, len(idsInLane))
	for _, id := range existing {
		if slices.Contains(idsInLane, id) && !slices.Contains(order, id) {
			order = append(order, id)
		}
	}
	for _, id := range idsInLane {
		if !slices.Contains(order, id) {
			order = append(order, id)
		}
	}
	e.OrderMap[key] = order
}

// SortByOrder returns the tasks sorted by their remembered lane position.
// Ids without a position sort after all known ones, keeping their current
// relative order; tasks are never resorted by their own attributes.
func (e *Envelope) SortByOrder(projectID string, status domain.Status, tasks []domain.Task) []domain.Task {
	order := e.OrderMap[laneKey(projectID, status)]
	pos := make(map[string]int, len(order))
	for idx, id := range order {
		pos[id] = idx
	}
	out := slices.Clone(tasks)
	sort.SliceStable(out, func(i, j int) bool {
		return lanePosition(pos, out[i].ID) < lanePosition(pos, out[j].ID)
	})
	return out
}

// SetOrder replaces a lane's order wholesale, used once a drop gesture has
// resolved to a full sequence.
func (e *Envelope) SetOrder(projectID string, status domain.Status, orderedIDs []string) {
	e.OrderMap[laneKey(projectID, status)] = slices.Clone(orderedIDs)
}

// RemoveFromLane prunes a single id from a lane's order without disturbing
// the rest.
func (e *Envelope) RemoveFromLane(projectID string, status domain.Status, id string) {
	key := laneKey(projectID, status)
	existing, ok := e.OrderMap[key]
	if !ok {
		return
	}
	e.OrderMap[key] = slices.DeleteFunc(existing, func(other string) bool {
		return other == id
	})
}

// lanePosition returns a task's remembered index, pushing unknown ids past
// every known one.
func lanePosition(pos map[string]int, id string) int {
	if idx, ok := pos[id]; ok {
		return idx
	}
	return int(^uint(0) >> 1)
}
