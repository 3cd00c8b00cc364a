package domain

import "strings"

// Comment is a note attached to a task. CreatedAt is stored as text; demo
// data carries relative phrases while new comments record RFC 3339 times.
type Comment struct {
	ID        string `json:"id"`
	Author    string `json:"user"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

// NewComment constructs a validated comment.
func NewComment(id, author, text, createdAt string) (Comment, error) {
	id = strings.TrimSpace(id)
	text = strings.TrimSpace(text)
	if id == "" {
		return Comment{}, ErrInvalidID
	}
	if text == "" {
		return Comment{}, ErrInvalidText
	}
	return Comment{
		ID:        id,
		Author:    strings.TrimSpace(author),
		Text:      text,
		CreatedAt: createdAt,
	}, nil
}

// Subtask is a checklist entry on a task, independent of the task's lane.
type Subtask struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Notification is a piece of inbox text shown to the current user.
type Notification struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}
