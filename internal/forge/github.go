package forge

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v66/github"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com"

const pageSize = 100

// NewGitHubClient builds an authenticated REST client. A non-default apiURL
// targets a GitHub Enterprise Server instance.
func NewGitHubClient(token, apiURL string) (*github.Client, error) {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	if apiURL == "" || strings.TrimSuffix(apiURL, "/") == DefaultAPIURL {
		return client, nil
	}

	enterprise, err := client.WithEnterpriseURLs(apiURL, apiURL)
	if err != nil {
		return nil, fmt.Errorf("github api url: %w", err)
	}

	return enterprise, nil
}

// GitHub implements Forge on the GitHub REST API.
type GitHub struct {
	client *github.Client
	repo   Repository
}

// NewGitHub creates a Forge for repo.
func NewGitHub(client *github.Client, repo Repository) *GitHub {
	return &GitHub{client: client, repo: repo}
}

// Repository returns the repository the forge acts on.
func (g *GitHub) Repository() Repository {
	return g.repo
}

// ListOpenPullRequests implements Forge.
func (g *GitHub) ListOpenPullRequests(ctx context.Context) ([]PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	var out []PullRequest

	for {
		prs, resp, err := g.client.PullRequests.List(ctx, g.repo.Owner, g.repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("list pull requests: %w", err)
		}

		for _, pr := range prs {
			out = append(out, PullRequest{
				Number: pr.GetNumber(),
				Title:  pr.GetTitle(),
				Draft:  pr.GetDraft(),
				Base:   g.branch(pr.GetBase()),
				Head:   g.branch(pr.GetHead()),
			})
		}

		if resp.NextPage == 0 {
			return out, nil
		}

		opts.Page = resp.NextPage
	}
}

// branch converts a PR branch. A deleted fork falls back to the base repository.
func (g *GitHub) branch(b *github.PullRequestBranch) Branch {
	repo := g.repo
	if r := b.GetRepo(); r != nil && r.GetOwner().GetLogin() != "" {
		repo = Repository{Owner: r.GetOwner().GetLogin(), Name: r.GetName()}
	}

	return Branch{Repository: repo, Ref: b.GetRef()}
}

// ResolveRef implements Forge.
func (g *GitHub) ResolveRef(ctx context.Context, repo Repository, ref string) (string, error) {
	sha, _, err := g.client.Repositories.GetCommitSHA1(ctx, repo.Owner, repo.Name, ref, "")
	if err != nil {
		return "", fmt.Errorf("resolve %s@%s: %w", repo, ref, err)
	}

	return sha, nil
}

// FindComment implements Forge.
func (g *GitHub) FindComment(ctx context.Context, number int, prefix string) (Comment, bool, error) {
	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: pageSize}}

	for {
		comments, resp, err := g.client.Issues.ListComments(ctx, g.repo.Owner, g.repo.Name, number, opts)
		if err != nil {
			return Comment{}, false, fmt.Errorf("list comments: %w", err)
		}

		for _, c := range comments {
			if strings.HasPrefix(c.GetBody(), prefix) {
				return Comment{ID: c.GetID(), Body: c.GetBody()}, true, nil
			}
		}

		if resp.NextPage == 0 {
			return Comment{}, false, nil
		}

		opts.Page = resp.NextPage
	}
}

// CreateComment implements Forge.
func (g *GitHub) CreateComment(ctx context.Context, number int, body string) error {
	_, _, err := g.client.Issues.CreateComment(ctx, g.repo.Owner, g.repo.Name, number, &github.IssueComment{Body: github.String(body)})
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}

	return nil
}

// UpdateComment implements Forge.
func (g *GitHub) UpdateComment(ctx context.Context, id int64, body string) error {
	_, _, err := g.client.Issues.EditComment(ctx, g.repo.Owner, g.repo.Name, id, &github.IssueComment{Body: github.String(body)})
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}

	return nil
}
