package app

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"taskflow/internal/domain"
)

// MoveTask moves a task into target at position index within laneIDs, the
// destination lane's current visible ordering. The move is applied as one
// unit: status, source-lane removal and destination ordering all change
// together, then persist. Unknown task ids are ignored.
func (s *Store) MoveTask(taskID string, target domain.Status, laneIDs []string, index int) error {
	task := s.env.Task(taskID)
	if task == nil {
		return nil
	}
	ids := slices.Clone(laneIDs)
	ids = slices.DeleteFunc(ids, func(id string) bool { return id == taskID })
	if index < 0 {
		index = 0
	}
	if index > len(ids) {
		index = len(ids)
	}
	ids = slices.Insert(ids, index, taskID)

	prev := task.Status
	if prev != target {
		task.Status = target
		task.Log(fmt.Sprintf("Status changed: %s → %s", prev.Label(), target.Label()))
		s.env.RemoveFromLane(task.ProjectID, prev, taskID)
	} else {
		task.Log(fmt.Sprintf("Task reordered in %s", target.Label()))
	}
	s.env.SetOrder(task.ProjectID, target, ids)
	return s.persist()
}

// CreateTask creates a task in the given project's to-do lane, prepended so
// it is immediately visible at the top. The identity user is assigned when
// no assignees are given.
func (s *Store) CreateTask(input domain.TaskInput) (*domain.Task, error) {
	if len(input.AssigneeIDs) == 0 {
		input.AssigneeIDs = []string{s.env.Identity.ID}
	}
	input.ID = s.idGen()
	task, err := domain.NewTask(input)
	if err != nil {
		return nil, err
	}
	s.env.Tasks = append(s.env.Tasks, task)
	s.prependToLane(task.ProjectID, task.Status, task.ID)
	if err := s.persist(); err != nil {
		return nil, err
	}
	s.log.Info("task created", "id", task.ID, "project", task.ProjectID)
	return s.env.Task(task.ID), nil
}

// TaskUpdate carries the editable detail fields of a task. Nil pointers
// leave the corresponding field untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *domain.Status
	Priority    *domain.Priority
	DueDate     *string
	AssigneeIDs *[]string
	Tags        *[]string
}

// UpdateTaskDetails applies a form-style edit. The whole update is validated
// before any field changes, so a rejected edit leaves the task untouched. A
// status change moves the task to the top of its new lane, mirroring a drag
// to the lane head.
func (s *Store) UpdateTaskDetails(taskID string, update TaskUpdate) error {
	task := s.env.Task(taskID)
	if task == nil {
		return nil
	}

	var title string
	if update.Title != nil {
		title = strings.TrimSpace(*update.Title)
		if title == "" {
			return domain.ErrInvalidTitle
		}
	}
	if update.Priority != nil && !update.Priority.Valid() {
		return domain.ErrInvalidPriority
	}
	if update.Status != nil && !update.Status.Valid() {
		return domain.ErrInvalidStatus
	}

	if update.Title != nil {
		task.Title = title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.Priority != nil {
		task.Priority = *update.Priority
	}
	if update.DueDate != nil {
		task.DueDate = *update.DueDate
	}
	if update.AssigneeIDs != nil {
		task.AssigneeIDs = slices.Clone(*update.AssigneeIDs)
	}
	if update.Tags != nil {
		tags := make([]string, 0, len(*update.Tags))
		for _, tag := range *update.Tags {
			if t := domain.NormalizeTag(tag); t != "" && !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
		task.Tags = tags
	}
	task.Log("Task updated")
	if update.Status != nil && *update.Status != task.Status {
		prev := task.Status
		task.Status = *update.Status
		task.Log(fmt.Sprintf("Status changed: %s → %s", prev.Label(), task.Status.Label()))
		s.env.RemoveFromLane(task.ProjectID, prev, taskID)
		s.prependToLane(task.ProjectID, task.Status, taskID)
	}
	return s.persist()
}

// RenameTask sets the task title, logging only when it actually changes.
func (s *Store) RenameTask(taskID, title string) error {
	task := s.env.Task(taskID)
	if task == nil {
		return nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.ErrInvalidTitle
	}
	if title == task.Title {
		return nil
	}
	task.Title = title
	task.Log("Title updated")
	return s.persist()
}

// SetAssignees replaces the task's assignee set.
func (s *Store) SetAssignees(taskID string, assigneeIDs []string) error {
	task := s.env.Task(taskID)
	if task == nil {
		return nil
	}
	task.AssigneeIDs = slices.Clone(assigneeIDs)
	if task.AssigneeIDs == nil {
		task.AssigneeIDs = []string{}
	}
	task.Log("Assignees updated")
	return s.persist()
}

// RemoveAssignee drops one assignee from the task, logging the removed
// user's display name.
func (s *Store) RemoveAssignee(taskID, userID string) error {
	task := s.env.Task(taskID)
	if task == nil {
		return nil
	}
	if !slices.Contains(task.AssigneeIDs, userID) {
		return nil
	}
	task.AssigneeIDs = slices.DeleteFunc(task.AssigneeIDs, func(id string) bool { return id == userID })
	name := userID
	if u, ok := s.env.User(userID); ok {
		name = u.Name
	}
	task.Log(fmt.Sprintf("Removed assignee: %s", name))
	return s.persist()
}

// AddTag appends a normalized tag to the task; duplicates are a no-op.
func (s *Store) AddTag(taskID, tag string) error {
	task := s.env.Task(taskID)
	if task == nil {
		return nil
	}
	tag = domain.NormalizeTag(tag)
	if tag == "" || task.HasTag(tag) {
		return nil
	}
	task.Tags = append(task.Tags, tag)
	task.Log(fmt.Sprintf("Added tag: %s", tag))
	return s.persist()
}

// RemoveTag drops a tag from the task.
func (s *Store) RemoveTag(taskID, tag string) error {
	task := s.env.Task(taskID)
	if task == nil {
		return nil
	}
	if !task.HasTag(tag) {
		return nil
	}
	task.Tags = slices.DeleteFunc(task.Tags, func(t string) bool { return t == tag })
	task.Log(fmt.Sprintf("Removed tag: %s", tag))
	return s.persist()
}

// AddComment appends a comment authored by the identity user.
func (s *Store) AddComment(taskID, text string) error {
	task := s.env.Task(taskID)
	if task == nil {
		return nil
	}
	comment, err := domain.NewComment(s.idGen(), s.env.Identity.Name, text, s.clock().Format(time.RFC3339))
	if err != nil {
		return err
	}
	task.Comments = append(task.Comments, comment)
	task.Log("Added a comment")
	return s.persist()
}

// AddSubtask appends a checklist item to the task.
func (s *Store) AddSubtask(taskID, title string) error {
	task := s.env.Task(taskID)
	if task == nil {
		return nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.ErrInvalidTitle
	}
	task.Subtasks = append(task.Subtasks, domain.Subtask{
		Title:     title,
		CreatedAt: s.clock().Format(time.RFC3339),
	})
	task.Log("Added a subtask")
	return s.persist()
}

// ToggleSubtask flips one checklist item's completion state.
func (s *Store) ToggleSubtask(taskID string, index int) error {
	task := s.env.Task(taskID)
	if task == nil || index < 0 || index >= len(task.Subtasks) {
		return nil
	}
	sub := &task.Subtasks[index]
	sub.Completed = !sub.Completed
	state := "completed"
	if !sub.Completed {
		state = "uncompleted"
	}
	task.Log(fmt.Sprintf("Subtask %q %s", sub.Title, state))
	return s.persist()
}

// DeleteTask removes the task and prunes it from its lane ordering.
func (s *Store) DeleteTask(taskID string) error {
	task := s.env.Task(taskID)
	if task == nil {
		return nil
	}
	s.env.RemoveFromLane(task.ProjectID, task.Status, taskID)
	s.env.Tasks = slices.DeleteFunc(s.env.Tasks, func(t domain.Task) bool { return t.ID == taskID })
	if s.env.OpenTaskID == taskID {
		s.env.OpenTaskID = ""
	}
	s.log.Info("task deleted", "id", taskID)
	return s.persist()
}

// AddProject creates a local project owned by the identity user and makes
// it current.
func (s *Store) AddProject(name, description string) (*domain.Project, error) {
	project, err := domain.NewProject(s.idGen(), name, description, s.env.Identity.ID)
	if err != nil {
		return nil, err
	}
	s.env.Projects = append(s.env.Projects, project)
	s.env.CurrentProjectID = project.ID
	if err := s.persist(); err != nil {
		return nil, err
	}
	return s.env.Project(project.ID), nil
}

// SelectProject makes the given project current.
func (s *Store) SelectProject(projectID string) error {
	if s.env.Project(projectID) == nil {
		return nil
	}
	s.env.CurrentProjectID = projectID
	return s.persist()
}

// OpenTask records which task detail view is showing; transient, never saved.
func (s *Store) OpenTask(taskID string) {
	s.env.OpenTaskID = taskID
	s.notify()
}

// CloseTask clears the open task selection.
func (s *Store) CloseTask() {
	s.env.OpenTaskID = ""
	s.notify()
}

// SetSearchTerm updates the my-tasks search filter.
func (s *Store) SetSearchTerm(term string) error {
	s.env.SearchTerm = term
	return s.persist()
}

// prependToLane puts the id at the head of the lane's remembered ordering.
func (s *Store) prependToLane(projectID string, status domain.Status, taskID string) {
	key := laneKey(projectID, status)
	ids := slices.Clone(s.env.OrderMap[key])
	ids = slices.DeleteFunc(ids, func(id string) bool { return id == taskID })
	s.env.OrderMap[key] = append([]string{taskID}, ids...)
}
