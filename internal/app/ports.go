package app

import (
	"context"
	"time"
)

// KV is the persisted key-value backing store. The engine only ever writes
// whole values, never partial updates.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Logger receives runtime events; the zero value discards everything so app
// code never branches on logging being configured.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

// nopLogger drops all events.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Remote is the authoritative service consumed by the session. Implementations
// carry the bearer credential set via SetToken on every authenticated call.
type Remote interface {
	SetToken(token string)

	Register(ctx context.Context, in RegisterInput) (AuthResult, error)
	Login(ctx context.Context, email, password string) (AuthResult, error)
	Forgot(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	Me(ctx context.Context) (RemoteUser, error)
	Logout(ctx context.Context) error

	ListProjects(ctx context.Context) ([]RemoteProject, error)
	CreateProject(ctx context.Context, name, description string) (RemoteProject, error)
	ListTasks(ctx context.Context, projectID string) ([]RemoteTask, error)
	CreateTask(ctx context.Context, projectID string, in RemoteTaskInput) (RemoteTask, error)

	ListUsers(ctx context.Context) ([]RemoteUser, error)
	SetUserRole(ctx context.Context, userID, role string) error
	DeleteUser(ctx context.Context, userID string) error
}

// RegisterInput holds the fields of the registration form.
type RegisterInput struct {
	First    string
	Last     string
	Email    string
	Password string
}

// AuthResult is the remote response to a successful login or registration.
type AuthResult struct {
	Token string
	User  RemoteUser
}

// RemoteUser is the remote account shape.
type RemoteUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// RemoteProject is the remote project shape before remapping into the local
// schema. Remote ids are opaque and never interchanged with local ids.
type RemoteProject struct {
	ID          string
	Name        string
	Description string
	Owner       string
	Members     []string
}

// RemoteTask is the remote task shape before remapping.
type RemoteTask struct {
	ID          string
	Title       string
	Status      string
	Priority    string
	Assignees   []string
	DueDate     string
	Tags        []string
	Description string
	Comments    []RemoteComment
	Subtasks    []RemoteSubtask
	Activity    []string
}

// RemoteTaskInput is the payload for creating a task remotely.
type RemoteTaskInput struct {
	Title    string
	Status   string
	Priority string
	DueDate  string
}

// RemoteComment mirrors the remote comment shape.
type RemoteComment struct {
	ID        string
	Author    string
	Text      string
	CreatedAt string
}

// RemoteSubtask mirrors the remote subtask shape.
type RemoteSubtask struct {
	Title     string
	Completed bool
	CreatedAt string
}
