package app

import (
	"slices"

	"taskflow/internal/domain"
)

// Envelope is the single serializable unit holding all application state.
// It is created once at startup, mutated in place by the store's commands,
// and persisted whole after every mutation. OpenTaskID is UI selection and
// never survives a restart.
type Envelope struct {
	Identity          domain.User           `json:"user"`
	Users             []domain.User         `json:"users"`
	Projects          []domain.Project      `json:"projects"`
	Tasks             []domain.Task         `json:"tasks"`
	Notifications     []domain.Notification `json:"notifications"`
	OrderMap          map[string][]string   `json:"orderMap"`
	CurrentProjectID  string                `json:"currentProjectId"`
	CurrentView       string                `json:"currentView"`
	CurrentProjectTab string                `json:"currentProjectTab"`
	SearchTerm        string                `json:"searchTerm"`
	OpenTaskID        string                `json:"-"`
}

// DefaultIdentityID is the demo user that owns the built-in dataset and the
// assignee given to migrated tasks that carry none.
const DefaultIdentityID = "u1"

// DefaultEnvelope returns a deep copy of the built-in demo dataset. Callers
// can mutate the result freely without touching the canonical default.
func DefaultEnvelope() Envelope {
	return Envelope{
		Identity: domain.User{ID: "u1", Name: "John Doe", Role: domain.RoleUser},
		Users: []domain.User{
			{ID: "u1", Name: "John Doe"},
			{ID: "u2", Name: "Jane Smith"},
			{ID: "u3", Name: "Ali Khan"},
			{ID: "u4", Name: "Sara Lee"},
		},
		Projects: []domain.Project{
			{ID: "p1", Name: "Marketing Website Redesign", Description: "Refresh public website and landing pages", Owner: "u1", Members: []string{"u1", "u2"}},
			{ID: "p2", Name: "Mobile App Launch", Description: "Prepare for v1.0 launch", Owner: "u1", Members: []string{"u1", "u3", "u4"}},
			{ID: "p3", Name: "Internal Tools", Description: "Improve internal admin workflows", Owner: "u1", Members: []string{"u1"}},
		},
		Tasks: []domain.Task{
			{
				ID:          "t1",
				Title:       "Design new hero section",
				ProjectID:   "p1",
				Status:      domain.StatusInProgress,
				Priority:    domain.PriorityHigh,
				AssigneeIDs: []string{"u1", "u2"},
				DueDate:     "2026-02-01",
				Tags:        []string{"Design", "UI"},
				Description: "Create a new hero section with updated brand visuals and responsive layout.",
				Comments: []domain.Comment{
					{ID: "c1", Author: "Jane Smith", Text: "Include mobile breakpoint and contrast checks.", CreatedAt: "Just now"},
				},
				Subtasks: []domain.Subtask{
					{Title: "Design mockups", Completed: true},
					{Title: "Get client approval", Completed: false},
				},
				Activity: []string{"Task created", "Status set to In Progress"},
			},
			{
				ID:          "t2",
				Title:       "Copy for pricing page",
				ProjectID:   "p1",
				Status:      domain.StatusTodo,
				Priority:    domain.PriorityMedium,
				AssigneeIDs: []string{"u1"},
				DueDate:     "2026-02-05",
				Tags:        []string{"Content"},
				Description: "Write updated pricing copy for new plans and feature list.",
				Comments:    []domain.Comment{},
				Subtasks:    []domain.Subtask{},
				Activity:    []string{"Task created"},
			},
			{
				ID:          "t3",
				Title:       "QA test on Android",
				ProjectID:   "p2",
				Status:      domain.StatusTodo,
				Priority:    domain.PriorityUrgent,
				AssigneeIDs: []string{"u1", "u3"},
				DueDate:     "2026-01-25",
				Tags:        []string{"Testing"},
				Description: "Smoke testing on Android 13 and 14 devices.",
				Comments:    []domain.Comment{},
				Subtasks:    []domain.Subtask{},
				Activity:    []string{"Task created"},
			},
			{
				ID:          "t4",
				Title:       "Prepare release notes",
				ProjectID:   "p2",
				Status:      domain.StatusInProgress,
				Priority:    domain.PriorityMedium,
				AssigneeIDs: []string{"u4"},
				DueDate:     "2026-01-28",
				Tags:        []string{"Release"},
				Description: "Draft release notes for v1.0.",
				Comments:    []domain.Comment{},
				Subtasks:    []domain.Subtask{},
				Activity:    []string{"Task created"},
			},
			{
				ID:          "t5",
				Title:       "Review accessibility",
				ProjectID:   "p1",
				Status:      domain.StatusDone,
				Priority:    domain.PriorityLow,
				AssigneeIDs: []string{"u2"},
				DueDate:     "2026-01-15",
				Tags:        []string{"Accessibility"},
				Description: "Check basic WCAG 2.1 AA compliance.",
				Comments:    []domain.Comment{},
				Subtasks:    []domain.Subtask{},
				Activity:    []string{"Task created", "Marked as Done"},
			},
		},
		Notifications: []domain.Notification{
			{ID: "n1", Text: "You were assigned: QA test on Android", CreatedAt: "5 min ago"},
			{ID: "n2", Text: "Jane mentioned you in: Design new hero section", CreatedAt: "1 h ago"},
		},
		OrderMap:          map[string][]string{},
		CurrentProjectID:  "p1",
		CurrentView:       "dashboard",
		CurrentProjectTab: "board",
	}
}

// Task returns a pointer into the task collection, nil when absent.
func (e *Envelope) Task(id string) *domain.Task {
	for i := range e.Tasks {
		if e.Tasks[i].ID == id {
			return &e.Tasks[i]
		}
	}
	return nil
}

// Project returns a pointer into the project collection, nil when absent.
func (e *Envelope) Project(id string) *domain.Project {
	for i := range e.Projects {
		if e.Projects[i].ID == id {
			return &e.Projects[i]
		}
	}
	return nil
}

// User returns the user with the given id, false when unresolvable.
func (e *Envelope) User(id string) (domain.User, bool) {
	for _, u := range e.Users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.User{}, false
}

// AssigneeNames resolves assignee ids to display names. Unresolvable ids are
// dropped, never treated as corruption.
func (e *Envelope) AssigneeNames(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if u, ok := e.User(id); ok {
			out = append(out, u.Name)
		}
	}
	return out
}

// clone returns a deep copy of the envelope.
func (e Envelope) clone() Envelope {
	out := e
	out.Users = slices.Clone(e.Users)
	out.Projects = make([]domain.Project, len(e.Projects))
	for i, p := range e.Projects {
		p.Members = slices.Clone(p.Members)
		out.Projects[i] = p
	}
	out.Tasks = make([]domain.Task, len(e.Tasks))
	for i, t := range e.Tasks {
		t.AssigneeIDs = slices.Clone(t.AssigneeIDs)
		t.Tags = slices.Clone(t.Tags)
		t.Comments = slices.Clone(t.Comments)
		t.Subtasks = slices.Clone(t.Subtasks)
		t.Activity = slices.Clone(t.Activity)
		out.Tasks[i] = t
	}
	out.Notifications = slices.Clone(e.Notifications)
	out.OrderMap = make(map[string][]string, len(e.OrderMap))
	for key, ids := range e.OrderMap {
		out.OrderMap[key] = slices.Clone(ids)
	}
	return out
}
