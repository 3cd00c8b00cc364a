package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskflow/internal/app"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestLoginDecodesAuthResult(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["email"] != "kim@example.com" {
			t.Fatalf("body = %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token": "tok", "user": {"_id": "u1", "name": "Kim Lee", "email": "kim@example.com", "role": "admin"}}`))
	}))

	res, err := client.Login(context.Background(), "kim@example.com", "pw")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if res.Token != "tok" || res.User.ID != "u1" || res.User.Role != "admin" {
		t.Fatalf("unexpected result %#v", res)
	}
}

func TestMeSendsBearerToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Fatalf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`{"_id": "u1", "firstName": "Kim", "lastName": "Lee", "email": "kim@example.com"}`))
	}))
	client.SetToken("tok")

	user, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if user.Name != "Kim Lee" {
		t.Fatalf("joined name = %q", user.Name)
	}
}

func TestUnauthorizedWrapsSentinel(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "token expired"}`))
	}))
	client.SetToken("stale")

	_, err := client.Me(context.Background())
	if !errors.Is(err, app.ErrUnauthorized) {
		t.Fatalf("error = %v, want wrapped ErrUnauthorized", err)
	}
}

func TestErrorMessageExtraction(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "name is required"}`))
	}))

	_, err := client.CreateProject(context.Background(), "", "")
	if err == nil || !strings.Contains(err.Error(), "name is required") {
		t.Fatalf("error = %v, want service message", err)
	}
}

func TestNonJSONErrorBodyStillReported(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream timeout"))
	}))

	_, err := client.ListProjects(context.Background())
	if err == nil || !strings.Contains(err.Error(), "upstream timeout") {
		t.Fatalf("error = %v", err)
	}
}

func TestListTasksRemapsWireShape(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects/p1/tasks" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{
			"_id": "t1", "title": "Ship", "status": "todo", "priority": "high",
			"assignees": ["u1"], "tags": ["launch"],
			"comments": [{"_id": "c1", "user": "Kim Lee", "text": "soon", "createdAt": "2026-02-21T12:00:00Z"}],
			"subtasks": [{"title": "draft", "completed": true}]
		}]`))
	}))

	tasks, err := client.ListTasks(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("tasks = %#v", tasks)
	}
	task := tasks[0]
	if task.ID != "t1" || task.Comments[0].Author != "Kim Lee" || !task.Subtasks[0].Completed {
		t.Fatalf("remap lost data: %#v", task)
	}
}

func TestCreateTaskPostsPayload(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/projects/p1/tasks" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["title"] != "Ship beta" || body["priority"] != "high" {
			t.Fatalf("body = %v", body)
		}
		_, _ = w.Write([]byte(`{"_id": "t-new", "title": "Ship beta", "status": "todo", "priority": "high"}`))
	}))

	task, err := client.CreateTask(context.Background(), "p1", app.RemoteTaskInput{
		Title: "Ship beta", Status: "todo", Priority: "high",
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if task.ID != "t-new" {
		t.Fatalf("task = %#v", task)
	}
}

