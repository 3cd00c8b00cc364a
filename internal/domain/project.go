package domain

import (
	"slices"
	"strings"
)

// Project groups tasks and members. Owner is referenced by user id and is
// implicitly a member for display purposes.
type Project struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Owner       string   `json:"owner,omitempty"`
	Members     []string `json:"members"`
}

// NewProject constructs a validated project owned by the given user.
func NewProject(id, name, description, owner string) (Project, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	owner = strings.TrimSpace(owner)
	if id == "" {
		return Project{}, ErrInvalidID
	}
	if name == "" {
		return Project{}, ErrInvalidName
	}

	members := []string{}
	if owner != "" {
		members = append(members, owner)
	}
	return Project{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(description),
		Owner:       owner,
		Members:     members,
	}, nil
}

// IsMember reports whether the user belongs to the project, counting the
// owner as an implicit member.
func (p Project) IsMember(userID string) bool {
	return userID == p.Owner || slices.Contains(p.Members, userID)
}
