package tui

import "taskflow/internal/domain"

// Lane pairs a board status with the title rendered above its column.
type Lane struct {
	Status domain.Status
	Title  string
}

// defaultLanes shows every status under its canonical label.
func defaultLanes() []Lane {
	lanes := make([]Lane, 0, len(domain.Statuses))
	for _, status := range domain.Statuses {
		lanes = append(lanes, Lane{Status: status, Title: status.Label()})
	}
	return lanes
}

// TaskFieldConfig controls which secondary task fields the board shows.
type TaskFieldConfig struct {
	ShowPriority  bool
	ShowDueDate   bool
	ShowTags      bool
	ShowAssignees bool
}

type Option func(*Model)

func DefaultTaskFieldConfig() TaskFieldConfig {
	return TaskFieldConfig{
		ShowPriority:  true,
		ShowDueDate:   true,
		ShowTags:      true,
		ShowAssignees: true,
	}
}

func WithTaskFieldConfig(cfg TaskFieldConfig) Option {
	return func(m *Model) {
		m.taskFields = cfg
	}
}

// WithLanes replaces the board's lane set. Lanes with an unknown status are
// skipped; a blank title falls back to the status label. An empty result
// keeps the default lanes.
func WithLanes(lanes []Lane) Option {
	return func(m *Model) {
		kept := make([]Lane, 0, len(lanes))
		for _, lane := range lanes {
			if !lane.Status.Valid() {
				continue
			}
			if lane.Title == "" {
				lane.Title = lane.Status.Label()
			}
			kept = append(kept, lane)
		}
		if len(kept) > 0 {
			m.lanes = kept
		}
	}
}

// WithClipboard overrides the clipboard writer, used by tests.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.writeClipboard = write
		}
	}
}
