package app

import (
	"encoding/json"
	"strings"

	"taskflow/internal/domain"
)

// Migrate upgrades a persisted snapshot of unknown or older shape into the
// current envelope. Absent or unparseable input yields the default dataset;
// parse failures are never surfaced. Running the result through Migrate
// again produces the same envelope.
func Migrate(raw []byte) Envelope {
	def := DefaultEnvelope()
	if len(raw) == 0 {
		return def
	}

	var parsed rawEnvelope
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return def
	}

	env := def
	if parsed.Identity != nil {
		env.Identity = *parsed.Identity
	}
	if parsed.Users != nil {
		env.Users = *parsed.Users
	}
	if parsed.Projects != nil {
		env.Projects = *parsed.Projects
	}
	if parsed.Tasks != nil {
		env.Tasks = normalizeTasks(*parsed.Tasks)
	} else {
		env.Tasks = normalizeRawTasks(env.Tasks)
	}
	if parsed.Notifications != nil {
		env.Notifications = *parsed.Notifications
	}
	if parsed.OrderMap != nil {
		env.OrderMap = parsed.OrderMap
	}
	if parsed.CurrentProjectID != nil {
		env.CurrentProjectID = *parsed.CurrentProjectID
	}
	if parsed.CurrentView != nil {
		env.CurrentView = *parsed.CurrentView
	}
	if parsed.CurrentProjectTab != nil {
		env.CurrentProjectTab = *parsed.CurrentProjectTab
	}
	if parsed.SearchTerm != nil {
		env.SearchTerm = *parsed.SearchTerm
	}
	if env.OrderMap == nil {
		env.OrderMap = map[string][]string{}
	}
	return env
}

// rawEnvelope mirrors Envelope with optional fields so a missing top-level
// field can be told apart from an explicitly empty one.
type rawEnvelope struct {
	Identity          *domain.User           `json:"user"`
	Users             *[]domain.User         `json:"users"`
	Projects          *[]domain.Project      `json:"projects"`
	Tasks             *[]rawTask             `json:"tasks"`
	Notifications     *[]domain.Notification `json:"notifications"`
	OrderMap          map[string][]string    `json:"orderMap"`
	CurrentProjectID  *string                `json:"currentProjectId"`
	CurrentView       *string                `json:"currentView"`
	CurrentProjectTab *string                `json:"currentProjectTab"`
	SearchTerm        *string                `json:"searchTerm"`
}

// rawTask accepts the loose persisted task shape, including the legacy
// scalar assigneeId field replaced by assigneeIds.
type rawTask struct {
	domain.Task
	AssigneeIDs    *[]looseID `json:"assigneeIds"`
	LegacyAssignee *looseID   `json:"assigneeId"`
}

// looseID tolerates ids persisted as JSON numbers by older snapshots.
type looseID string

func (id *looseID) UnmarshalJSON(data []byte) error {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 || string(data) == "null" {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = looseID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = looseID(n.String())
	return nil
}

// normalizeTasks applies the per-task compatibility rules: legacy assigneeId
// becomes a one-element assigneeIds, tasks with neither get the default
// assignee, and nil collections become empty ones.
func normalizeTasks(tasks []rawTask) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, rt := range tasks {
		task := rt.Task
		switch {
		case rt.AssigneeIDs != nil:
			task.AssigneeIDs = make([]string, 0, len(*rt.AssigneeIDs))
			for _, id := range *rt.AssigneeIDs {
				if id != "" {
					task.AssigneeIDs = append(task.AssigneeIDs, string(id))
				}
			}
		case rt.LegacyAssignee != nil && *rt.LegacyAssignee != "":
			task.AssigneeIDs = []string{string(*rt.LegacyAssignee)}
		default:
			task.AssigneeIDs = []string{DefaultIdentityID}
		}
		out = append(out, fillTaskDefaults(task))
	}
	return out
}

// normalizeRawTasks runs the same slice normalization over already-typed
// tasks, used for the default dataset path.
func normalizeRawTasks(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.AssigneeIDs == nil {
			task.AssigneeIDs = []string{DefaultIdentityID}
		}
		out = append(out, fillTaskDefaults(task))
	}
	return out
}

// fillTaskDefaults replaces nil collections with empty ones so downstream
// code never branches on absence.
func fillTaskDefaults(task domain.Task) domain.Task {
	if task.AssigneeIDs == nil {
		task.AssigneeIDs = []string{}
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}
	if task.Comments == nil {
		task.Comments = []domain.Comment{}
	}
	if task.Subtasks == nil {
		task.Subtasks = []domain.Subtask{}
	}
	if task.Activity == nil {
		task.Activity = []string{}
	}
	return task
}
