// Package gitrepo resolves commit SHAs from a local git checkout.
package gitrepo

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrNotRepository is returned when no git repository contains the directory.
var ErrNotRepository = errors.New("not a git repository")

// Repo is an opened local repository.
type Repo struct {
	repo *git.Repository
}

// Open opens the repository containing dir, searching parent directories.
func Open(dir string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, dir)
	}

	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", dir, err)
	}

	return &Repo{repo: repo}, nil
}

// Head returns the SHA HEAD points at.
func (r *Repo) Head() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}

	return ref.Hash().String(), nil
}

// Resolve turns a revision (branch, tag, short or full SHA, HEAD~1) into a full SHA.
func (r *Repo) Resolve(rev string) (string, error) {
	if rev == "" || rev == plumbing.HEAD.String() {
		return r.Head()
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rev, err)
	}

	return hash.String(), nil
}

// HeadSHA opens the repository containing dir and returns its HEAD SHA.
func HeadSHA(dir string) (string, error) {
	repo, err := Open(dir)
	if err != nil {
		return "", err
	}

	return repo.Head()
}
