package app

import (
	"slices"
	"sort"
	"strings"

	"taskflow/internal/domain"
)

// TaskFilter narrows a project task listing. Zero values mean "any".
type TaskFilter struct {
	Status     domain.Status
	AssigneeID string
	Priority   domain.Priority
	Tag        string
}

func (f TaskFilter) matches(t domain.Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.AssigneeID != "" && !slices.Contains(t.AssigneeIDs, f.AssigneeID) {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Tag != "" && !t.HasTag(f.Tag) {
		return false
	}
	return true
}

// LaneTasks returns the tasks of one board lane in display order. Order
// reconciliation runs over the lane's full membership so filtering never
// erases remembered positions.
func (s *Store) LaneTasks(projectID string, status domain.Status, filter TaskFilter) []domain.Task {
	var lane []domain.Task
	for _, t := range s.env.Tasks {
		if t.ProjectID == projectID && t.Status == status {
			lane = append(lane, t)
		}
	}
	ids := make([]string, len(lane))
	for i, t := range lane {
		ids[i] = t.ID
	}
	s.env.EnsureLane(projectID, status, ids)

	var visible []domain.Task
	for _, t := range lane {
		if filter.matches(t) {
			visible = append(visible, t)
		}
	}
	return s.env.SortByOrder(projectID, status, visible)
}

// ProjectTasks lists a project's tasks, optionally filtered.
func (s *Store) ProjectTasks(projectID string, filter TaskFilter) []domain.Task {
	var out []domain.Task
	for _, t := range s.env.Tasks {
		if t.ProjectID == projectID && filter.matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// MyTasks lists every task assigned to the identity user across projects,
// narrowed by the stored search term when one is set.
func (s *Store) MyTasks() []domain.Task {
	term := strings.ToLower(strings.TrimSpace(s.env.SearchTerm))
	var out []domain.Task
	for _, t := range s.env.Tasks {
		if !slices.Contains(t.AssigneeIDs, s.env.Identity.ID) {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(t.Title), term) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// DashboardStats counts the identity user's tasks by status.
type DashboardStats struct {
	Total      int
	Todo       int
	InProgress int
	Done       int
}

// Stats summarizes the identity user's workload.
func (s *Store) Stats() DashboardStats {
	var stats DashboardStats
	for _, t := range s.env.Tasks {
		if !slices.Contains(t.AssigneeIDs, s.env.Identity.ID) {
			continue
		}
		stats.Total++
		switch t.Status {
		case domain.StatusTodo:
			stats.Todo++
		case domain.StatusInProgress:
			stats.InProgress++
		case domain.StatusDone:
			stats.Done++
		}
	}
	return stats
}

// UpcomingDeadlines returns the soonest-due unfinished dated tasks, at most
// six, across all projects.
func (s *Store) UpcomingDeadlines() []domain.Task {
	var dated []domain.Task
	for _, t := range s.env.Tasks {
		if t.DueDate != "" && t.Status != domain.StatusDone {
			dated = append(dated, t)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].DueDate < dated[j].DueDate })
	if len(dated) > 6 {
		dated = dated[:6]
	}
	return dated
}

// ActivityEntry is one feed line attributed to its task.
type ActivityEntry struct {
	TaskID    string
	TaskTitle string
	Entry     string
}

// RecentActivity builds the dashboard feed: the newest two entries of each
// task, capped at ten lines overall.
func (s *Store) RecentActivity() []ActivityEntry {
	var feed []ActivityEntry
	for _, t := range s.env.Tasks {
		entries := t.Activity
		if len(entries) > 2 {
			entries = entries[len(entries)-2:]
		}
		for i := len(entries) - 1; i >= 0; i-- {
			feed = append(feed, ActivityEntry{TaskID: t.ID, TaskTitle: t.Title, Entry: entries[i]})
		}
	}
	if len(feed) > 10 {
		feed = feed[:10]
	}
	return feed
}

// ReportCounts breaks a project's tasks down by status and priority.
type ReportCounts struct {
	ByStatus   map[domain.Status]int
	ByPriority map[domain.Priority]int
}

// Report tallies the given project.
func (s *Store) Report(projectID string) ReportCounts {
	counts := ReportCounts{
		ByStatus:   map[domain.Status]int{},
		ByPriority: map[domain.Priority]int{},
	}
	for _, t := range s.env.Tasks {
		if t.ProjectID != projectID {
			continue
		}
		counts.ByStatus[t.Status]++
		counts.ByPriority[t.Priority]++
	}
	return counts
}

// CalendarTasks lists a project's due-dated tasks in date order.
func (s *Store) CalendarTasks(projectID string) []domain.Task {
	var dated []domain.Task
	for _, t := range s.env.Tasks {
		if t.ProjectID == projectID && t.DueDate != "" {
			dated = append(dated, t)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].DueDate < dated[j].DueDate })
	return dated
}

// CurrentProject resolves the selected project, falling back to the first
// one when the selection is stale.
func (s *Store) CurrentProject() *domain.Project {
	if p := s.env.Project(s.env.CurrentProjectID); p != nil {
		return p
	}
	if len(s.env.Projects) > 0 {
		return &s.env.Projects[0]
	}
	return nil
}
