package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskflow/internal/domain"
)

// SessionState is the authentication lifecycle of the session.
type SessionState int

const (
	Unauthenticated SessionState = iota
	Authenticating
	Authenticated
)

// String returns the state name for logging.
func (s SessionState) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Session coordinates the local store with the remote service. In local mode
// every command resolves against the store alone; once authenticated,
// project and task reads come from the remote and are remapped into the
// local schema before they touch the envelope.
type Session struct {
	store  *Store
	remote Remote
	log    Logger
	state  SessionState
}

// NewSession wires a session over the store and remote client. A nil remote
// pins the session to local mode.
func NewSession(store *Store, remote Remote, log Logger) *Session {
	if log == nil {
		log = nopLogger{}
	}
	return &Session{store: store, remote: remote, log: log}
}

// State reports the current lifecycle state.
func (s *Session) State() SessionState { return s.state }

// Authenticated reports whether remote mode is active.
func (s *Session) Authenticated() bool { return s.state == Authenticated }

// Bootstrap resumes a previous session from the stored credential. All
// remote reads complete before any of them is applied, so a failure partway
// through leaves the local envelope exactly as loaded. Auth failures clear
// the credential and fall back to local mode without error.
func (s *Session) Bootstrap(ctx context.Context) error {
	token, err := s.store.Token()
	if err != nil {
		return err
	}
	if token == "" || s.remote == nil {
		s.state = Unauthenticated
		return nil
	}
	s.state = Authenticating
	s.remote.SetToken(token)

	me, err := s.remote.Me(ctx)
	if err != nil {
		return s.demote(err)
	}
	projects, err := s.remote.ListProjects(ctx)
	if err != nil {
		return s.demote(err)
	}
	currentID := s.store.Envelope().CurrentProjectID
	if !containsProject(projects, currentID) && len(projects) > 0 {
		currentID = projects[0].ID
	}
	var tasks []RemoteTask
	if currentID != "" {
		tasks, err = s.remote.ListTasks(ctx, currentID)
		if err != nil {
			return s.demote(err)
		}
	}

	s.apply(me, projects, currentID, tasks)
	s.state = Authenticated
	s.log.Info("session resumed", "user", me.Email, "projects", len(projects))
	return s.store.Save()
}

// Login authenticates with the remote and pulls the account's data.
// Validation failures are reported before any network call and mutate
// nothing.
func (s *Session) Login(ctx context.Context, email, password string) error {
	if s.remote == nil {
		return ErrNotAuthenticated
	}
	if strings.TrimSpace(email) == "" || password == "" {
		return ErrFieldsRequired
	}
	s.state = Authenticating
	res, err := s.remote.Login(ctx, email, password)
	if err != nil {
		s.state = Unauthenticated
		return err
	}
	return s.establish(ctx, res)
}

// Register creates an account and signs in with it.
func (s *Session) Register(ctx context.Context, in RegisterInput, confirm string) error {
	if s.remote == nil {
		return ErrNotAuthenticated
	}
	if strings.TrimSpace(in.First) == "" || strings.TrimSpace(in.Last) == "" ||
		strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return ErrFieldsRequired
	}
	if in.Password != confirm {
		return ErrPasswordMismatch
	}
	s.state = Authenticating
	res, err := s.remote.Register(ctx, in)
	if err != nil {
		s.state = Unauthenticated
		return err
	}
	return s.establish(ctx, res)
}

// Forgot requests a password reset email.
func (s *Session) Forgot(ctx context.Context, email string) error {
	if s.remote == nil {
		return ErrNotAuthenticated
	}
	if strings.TrimSpace(email) == "" {
		return ErrFieldsRequired
	}
	return s.remote.Forgot(ctx, email)
}

// ResetPassword completes a reset flow with the emailed code.
func (s *Session) ResetPassword(ctx context.Context, code, newPassword, confirm string) error {
	if s.remote == nil {
		return ErrNotAuthenticated
	}
	if strings.TrimSpace(code) == "" || newPassword == "" {
		return ErrFieldsRequired
	}
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	return s.remote.ResetPassword(ctx, code, newPassword)
}

// Logout tells the remote best-effort and always drops the credential.
func (s *Session) Logout(ctx context.Context) error {
	if s.remote != nil && s.state == Authenticated {
		if err := s.remote.Logout(ctx); err != nil {
			s.log.Warn("remote logout failed", "err", err)
		}
	}
	s.state = Unauthenticated
	s.remoteSetToken("")
	return s.store.ClearToken()
}

// SwitchProject changes the current project. Authenticated mode refetches
// the project's tasks; local mode is a pure selection change.
func (s *Session) SwitchProject(ctx context.Context, projectID string) error {
	if s.state != Authenticated {
		return s.store.SelectProject(projectID)
	}
	tasks, err := s.remote.ListTasks(ctx, projectID)
	if err != nil {
		return s.checkAuth(err)
	}
	env := s.store.Envelope()
	env.CurrentProjectID = projectID
	env.Tasks = remapTasks(projectID, tasks)
	return s.store.persist()
}

// CreateProject routes project creation to the active mode.
func (s *Session) CreateProject(ctx context.Context, name, description string) error {
	if s.state != Authenticated {
		_, err := s.store.AddProject(name, description)
		return err
	}
	if strings.TrimSpace(name) == "" {
		return ErrFieldsRequired
	}
	created, err := s.remote.CreateProject(ctx, name, description)
	if err != nil {
		return s.checkAuth(err)
	}
	env := s.store.Envelope()
	env.Projects = append(env.Projects, remapProject(created))
	env.CurrentProjectID = created.ID
	env.Tasks = nil
	return s.store.persist()
}

// CreateTask routes task creation to the active mode. In remote mode the
// task round-trips through the service so the local copy carries the
// server-assigned id.
func (s *Session) CreateTask(ctx context.Context, input domain.TaskInput) error {
	if s.state != Authenticated {
		_, err := s.store.CreateTask(input)
		return err
	}
	created, err := s.remote.CreateTask(ctx, input.ProjectID, RemoteTaskInput{
		Title:    input.Title,
		Status:   string(domain.StatusTodo),
		Priority: string(input.Priority),
		DueDate:  input.DueDate,
	})
	if err != nil {
		return s.checkAuth(err)
	}
	env := s.store.Envelope()
	env.Tasks = append(env.Tasks, remapTask(input.ProjectID, created))
	s.store.prependToLane(input.ProjectID, domain.StatusTodo, created.ID)
	return s.store.persist()
}

// ListUsers returns the account directory; admin only on the remote side.
func (s *Session) ListUsers(ctx context.Context) ([]RemoteUser, error) {
	if s.state != Authenticated {
		return nil, ErrNotAuthenticated
	}
	users, err := s.remote.ListUsers(ctx)
	if err != nil {
		return nil, s.checkAuth(err)
	}
	return users, nil
}

// SetUserRole promotes or demotes an account.
func (s *Session) SetUserRole(ctx context.Context, userID, role string) error {
	if s.state != Authenticated {
		return ErrNotAuthenticated
	}
	if err := s.remote.SetUserRole(ctx, userID, role); err != nil {
		return s.checkAuth(err)
	}
	return nil
}

// DeleteUser removes an account.
func (s *Session) DeleteUser(ctx context.Context, userID string) error {
	if s.state != Authenticated {
		return ErrNotAuthenticated
	}
	if err := s.remote.DeleteUser(ctx, userID); err != nil {
		return s.checkAuth(err)
	}
	return nil
}

// establish stores the credential from a fresh login or registration and
// runs the bootstrap fetch path.
func (s *Session) establish(ctx context.Context, res AuthResult) error {
	if err := s.store.SetToken(res.Token); err != nil {
		return err
	}
	return s.Bootstrap(ctx)
}

// apply installs a consistent remote read into the envelope in one step.
func (s *Session) apply(me RemoteUser, projects []RemoteProject, currentID string, tasks []RemoteTask) {
	env := s.store.Envelope()
	env.Identity = remapUser(me)
	env.Projects = make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		env.Projects = append(env.Projects, remapProject(p))
	}
	env.CurrentProjectID = currentID
	env.Tasks = remapTasks(currentID, tasks)
	s.store.notify()
}

// demote handles a bootstrap-path failure: the credential is stale or the
// service is unreachable, so drop it and continue locally.
func (s *Session) demote(cause error) error {
	s.log.Warn("falling back to local mode", "err", cause)
	s.state = Unauthenticated
	s.remoteSetToken("")
	if err := s.store.ClearToken(); err != nil {
		return fmt.Errorf("clear stale token: %w", err)
	}
	return nil
}

// checkAuth demotes the session when the remote rejects our credential and
// returns the original error either way.
func (s *Session) checkAuth(err error) error {
	if errors.Is(err, ErrUnauthorized) {
		s.log.Warn("credential rejected, signing out")
		s.state = Unauthenticated
		s.remoteSetToken("")
		if cerr := s.store.ClearToken(); cerr != nil {
			s.log.Error("clear token", "err", cerr)
		}
	}
	return err
}

func (s *Session) remoteSetToken(token string) {
	if s.remote != nil {
		s.remote.SetToken(token)
	}
}

func containsProject(projects []RemoteProject, id string) bool {
	for _, p := range projects {
		if p.ID == id {
			return true
		}
	}
	return false
}

func remapUser(u RemoteUser) domain.User {
	role := domain.RoleUser
	if u.Role == string(domain.RoleAdmin) {
		role = domain.RoleAdmin
	}
	return domain.User{ID: u.ID, Name: u.Name, Role: role}
}

func remapProject(p RemoteProject) domain.Project {
	members := p.Members
	if members == nil {
		members = []string{}
	}
	return domain.Project{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Owner:       p.Owner,
		Members:     members,
	}
}

func remapTasks(projectID string, tasks []RemoteTask) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, remapTask(projectID, t))
	}
	return out
}

// remapTask converts the remote shape into the local schema, defaulting any
// field the service omits so downstream code never sees nil slices.
func remapTask(projectID string, t RemoteTask) domain.Task {
	status := domain.Status(t.Status)
	if !status.Valid() {
		status = domain.StatusTodo
	}
	priority := domain.Priority(t.Priority)
	if !priority.Valid() {
		priority = domain.PriorityMedium
	}
	assignees := t.Assignees
	if assignees == nil {
		assignees = []string{}
	}
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	comments := make([]domain.Comment, 0, len(t.Comments))
	for _, c := range t.Comments {
		comments = append(comments, domain.Comment{
			ID:        c.ID,
			Author:    c.Author,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		})
	}
	subtasks := make([]domain.Subtask, 0, len(t.Subtasks))
	for _, st := range t.Subtasks {
		subtasks = append(subtasks, domain.Subtask{
			Title:     st.Title,
			Completed: st.Completed,
			CreatedAt: st.CreatedAt,
		})
	}
	activity := t.Activity
	if activity == nil {
		activity = []string{}
	}
	return domain.Task{
		ID:          t.ID,
		Title:       t.Title,
		ProjectID:   projectID,
		Status:      status,
		Priority:    priority,
		AssigneeIDs: assignees,
		DueDate:     t.DueDate,
		Tags:        tags,
		Description: t.Description,
		Comments:    comments,
		Subtasks:    subtasks,
		Activity:    activity,
	}
}
