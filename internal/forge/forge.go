// Package forge talks to the code hosting service: pull requests, ref
// resolution and report comments.
package forge

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRepository is returned for a repository slug that is not "owner/name".
var ErrInvalidRepository = errors.New("repository must be owner/name")

// Repository identifies a hosted repository.
type Repository struct {
	Owner string
	Name  string
}

// ParseRepository parses an "owner/name" slug.
func ParseRepository(slug string) (Repository, error) {
	owner, name, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repository{}, fmt.Errorf("%w: %q", ErrInvalidRepository, slug)
	}

	return Repository{Owner: owner, Name: name}, nil
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// Branch is one side of a pull request.
type Branch struct {
	Repository Repository
	Ref        string
}

// PullRequest is an open pull request.
type PullRequest struct {
	Number int
	Title  string
	Draft  bool
	Base   Branch
	Head   Branch
}

// Comment is an issue comment on a pull request.
type Comment struct {
	ID   int64
	Body string
}

// Forge is the subset of the hosting API the runner needs.
type Forge interface {
	// ListOpenPullRequests returns every open pull request of the repository.
	ListOpenPullRequests(ctx context.Context) ([]PullRequest, error)
	// ResolveRef returns the commit SHA at the tip of ref in repo.
	ResolveRef(ctx context.Context, repo Repository, ref string) (string, error)
	// FindComment returns the first comment on the pull request whose body starts with prefix.
	FindComment(ctx context.Context, number int, prefix string) (Comment, bool, error)
	CreateComment(ctx context.Context, number int, body string) error
	UpdateComment(ctx context.Context, id int64, body string) error
}

// Action is what UpsertComment did.
type Action string

// Upsert outcomes.
const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
)

// UpsertComment updates the first comment starting with prefix, or creates
// one. A comment that already has exactly body is left alone.
func UpsertComment(ctx context.Context, f Forge, number int, prefix, body string) (Action, error) {
	existing, found, err := f.FindComment(ctx, number, prefix)
	if err != nil {
		return "", fmt.Errorf("find comment on #%d: %w", number, err)
	}

	if !found {
		createErr := f.CreateComment(ctx, number, body)
		if createErr != nil {
			return "", fmt.Errorf("create comment on #%d: %w", number, createErr)
		}

		return ActionCreated, nil
	}

	if existing.Body == body {
		return ActionUnchanged, nil
	}

	updateErr := f.UpdateComment(ctx, existing.ID, body)
	if updateErr != nil {
		return "", fmt.Errorf("update comment %d on #%d: %w", existing.ID, number, updateErr)
	}

	return ActionUpdated, nil
}
