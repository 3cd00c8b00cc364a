package domain

import (
	"slices"
	"strings"
	"unicode"
)

// Status identifies the board lane a task currently occupies.
type Status string

// Status values. A task is in exactly one lane at a time.
const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses lists all lanes in board order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether the status is one of the known lanes.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Label returns the human-readable lane name. Unknown statuses echo back
// unchanged so stale persisted values still render.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// Priority represents a task's urgency level.
type Priority string

// Priority values.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Valid reports whether the priority is a known level.
func (p Priority) Valid() bool {
	return slices.Contains(validPriorities, p)
}

// maxTagLen caps stored tag length in runes.
const maxTagLen = 24

// Task is the central tracked entity. All slice fields are non-nil after
// construction or migration; DueDate is an ISO date string, empty when unset.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	ProjectID   string    `json:"projectId"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	AssigneeIDs []string  `json:"assigneeIds"`
	DueDate     string    `json:"dueDate,omitempty"`
	Tags        []string  `json:"tags"`
	Description string    `json:"description"`
	Comments    []Comment `json:"comments"`
	Subtasks    []Subtask `json:"subtasks"`
	Activity    []string  `json:"activity"`
}

// TaskInput holds input values for task creation.
type TaskInput struct {
	ID          string
	Title       string
	ProjectID   string
	Status      Status
	Priority    Priority
	AssigneeIDs []string
	DueDate     string
	Tags        []string
	Description string
}

// NewTask constructs a validated task with explicit defaults for every
// optional field.
func NewTask(in TaskInput) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Title = strings.TrimSpace(in.Title)
	in.ProjectID = strings.TrimSpace(in.ProjectID)

	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.ProjectID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if !in.Status.Valid() {
		return Task{}, ErrInvalidStatus
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !in.Priority.Valid() {
		return Task{}, ErrInvalidPriority
	}

	return Task{
		ID:          in.ID,
		Title:       in.Title,
		ProjectID:   in.ProjectID,
		Status:      in.Status,
		Priority:    in.Priority,
		AssigneeIDs: dedupeIDs(in.AssigneeIDs),
		DueDate:     strings.TrimSpace(in.DueDate),
		Tags:        normalizeTags(in.Tags),
		Description: strings.TrimSpace(in.Description),
		Comments:    []Comment{},
		Subtasks:    []Subtask{},
		Activity:    []string{"Task created"},
	}, nil
}

// Log appends one human-readable entry to the task's append-only activity log.
func (t *Task) Log(entry string) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return
	}
	t.Activity = append(t.Activity, entry)
}

// HasTag reports whether the tag is already present.
func (t *Task) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// NormalizeTag collapses inner whitespace and caps the tag length. Returns
// an empty string when nothing useful remains.
func NormalizeTag(raw string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(raw), unicode.IsSpace)
	tag := strings.Join(fields, " ")
	runes := []rune(tag)
	if len(runes) > maxTagLen {
		tag = string(runes[:maxTagLen])
	}
	return tag
}

// normalizeTags trims, drops empties, and de-duplicates while preserving the
// caller's order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, raw := range tags {
		tag := NormalizeTag(raw)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// dedupeIDs drops empty and duplicate ids while preserving order.
func dedupeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := map[string]struct{}{}
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
