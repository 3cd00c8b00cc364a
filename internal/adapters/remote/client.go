// Package remote implements the HTTP client for the hosted task service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskflow/internal/app"
)

// Client talks JSON over HTTP to the task service. The zero value is not
// usable; construct with New.
type Client struct {
	base  string
	hc    *http.Client
	token string
}

// New builds a client for the given base URL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("remote base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base: baseURL,
		hc:   &http.Client{Timeout: timeout},
	}, nil
}

// SetToken sets the bearer credential sent with subsequent requests. An
// empty token clears it.
func (c *Client) SetToken(token string) {
	c.token = token
}

// wire shapes; the service uses Mongo-style "_id" keys.

type userPayload struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (u userPayload) toApp() app.RemoteUser {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	return app.RemoteUser{ID: u.ID, Name: name, Email: u.Email, Role: u.Role}
}

type authPayload struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

type projectPayload struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Owner       string   `json:"owner"`
	Members     []string `json:"members"`
}

func (p projectPayload) toApp() app.RemoteProject {
	return app.RemoteProject{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Owner:       p.Owner,
		Members:     p.Members,
	}
}

type commentPayload struct {
	ID        string `json:"_id"`
	User      string `json:"user"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

type subtaskPayload struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"createdAt"`
}

type taskPayload struct {
	ID          string           `json:"_id"`
	Title       string           `json:"title"`
	Status      string           `json:"status"`
	Priority    string           `json:"priority"`
	Assignees   []string         `json:"assignees"`
	DueDate     string           `json:"dueDate"`
	Tags        []string         `json:"tags"`
	Description string           `json:"description"`
	Comments    []commentPayload `json:"comments"`
	Subtasks    []subtaskPayload `json:"subtasks"`
	Activity    []string         `json:"activity"`
}

func (t taskPayload) toApp() app.RemoteTask {
	comments := make([]app.RemoteComment, 0, len(t.Comments))
	for _, c := range t.Comments {
		comments = append(comments, app.RemoteComment{
			ID:        c.ID,
			Author:    c.User,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		})
	}
	subtasks := make([]app.RemoteSubtask, 0, len(t.Subtasks))
	for _, s := range t.Subtasks {
		subtasks = append(subtasks, app.RemoteSubtask{
			Title:     s.Title,
			Completed: s.Completed,
			CreatedAt: s.CreatedAt,
		})
	}
	return app.RemoteTask{
		ID:          t.ID,
		Title:       t.Title,
		Status:      t.Status,
		Priority:    t.Priority,
		Assignees:   t.Assignees,
		DueDate:     t.DueDate,
		Tags:        t.Tags,
		Description: t.Description,
		Comments:    comments,
		Subtasks:    subtasks,
		Activity:    t.Activity,
	}
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, in app.RegisterInput) (app.AuthResult, error) {
	body := map[string]string{
		"firstName": in.First,
		"lastName":  in.Last,
		"email":     in.Email,
		"password":  in.Password,
	}
	var out authPayload
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &out); err != nil {
		return app.AuthResult{}, err
	}
	return app.AuthResult{Token: out.Token, User: out.User.toApp()}, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (app.AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out authPayload
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return app.AuthResult{}, err
	}
	return app.AuthResult{Token: out.Token, User: out.User.toApp()}, nil
}

// Forgot requests a password reset email.
func (c *Client) Forgot(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/forgot", map[string]string{"email": email}, nil)
}

// ResetPassword completes a reset with the emailed code.
func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	body := map[string]string{"token": resetToken, "password": newPassword}
	return c.do(ctx, http.MethodPost, "/auth/reset", body, nil)
}

// Me resolves the account behind the current token.
func (c *Client) Me(ctx context.Context) (app.RemoteUser, error) {
	var out userPayload
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return app.RemoteUser{}, err
	}
	return out.toApp(), nil
}

// Logout invalidates the current token server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// ListProjects lists the account's projects.
func (c *Client) ListProjects(ctx context.Context) ([]app.RemoteProject, error) {
	var out []projectPayload
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	projects := make([]app.RemoteProject, 0, len(out))
	for _, p := range out {
		projects = append(projects, p.toApp())
	}
	return projects, nil
}

// CreateProject creates a project owned by the account.
func (c *Client) CreateProject(ctx context.Context, name, description string) (app.RemoteProject, error) {
	body := map[string]string{"name": name, "description": description}
	var out projectPayload
	if err := c.do(ctx, http.MethodPost, "/projects", body, &out); err != nil {
		return app.RemoteProject{}, err
	}
	return out.toApp(), nil
}

// ListTasks lists one project's tasks.
func (c *Client) ListTasks(ctx context.Context, projectID string) ([]app.RemoteTask, error) {
	var out []taskPayload
	path := "/projects/" + url.PathEscape(projectID) + "/tasks"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	tasks := make([]app.RemoteTask, 0, len(out))
	for _, t := range out {
		tasks = append(tasks, t.toApp())
	}
	return tasks, nil
}

// CreateTask creates a task in the given project.
func (c *Client) CreateTask(ctx context.Context, projectID string, in app.RemoteTaskInput) (app.RemoteTask, error) {
	body := map[string]string{
		"title":    in.Title,
		"status":   in.Status,
		"priority": in.Priority,
		"dueDate":  in.DueDate,
	}
	var out taskPayload
	path := "/projects/" + url.PathEscape(projectID) + "/tasks"
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return app.RemoteTask{}, err
	}
	return out.toApp(), nil
}

// ListUsers lists every account; the service restricts this to admins.
func (c *Client) ListUsers(ctx context.Context) ([]app.RemoteUser, error) {
	var out []userPayload
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, &out); err != nil {
		return nil, err
	}
	users := make([]app.RemoteUser, 0, len(out))
	for _, u := range out {
		users = append(users, u.toApp())
	}
	return users, nil
}

// SetUserRole changes an account's role.
func (c *Client) SetUserRole(ctx context.Context, userID, role string) error {
	path := "/admin/users/" + url.PathEscape(userID) + "/role"
	return c.do(ctx, http.MethodPut, path, map[string]string{"role": role}, nil)
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	path := "/admin/users/" + url.PathEscape(userID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// errorPayload is the service's error envelope.
type errorPayload struct {
	Message string `json:"message"`
}

// do issues one JSON request. Error bodies report their "message" field when
// present; a 401 or 403 wraps the shared unauthorized sentinel so the
// session can react.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		message := strings.TrimSpace(string(payload))
		var errBody errorPayload
		if json.Unmarshal(payload, &errBody) == nil && errBody.Message != "" {
			message = errBody.Message
		}
		if message == "" {
			message = res.Status
		}
		if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%s %s: %s: %w", method, path, message, app.ErrUnauthorized)
		}
		return fmt.Errorf("%s %s: %s", method, path, message)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
