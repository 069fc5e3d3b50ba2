package store

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/go-github/v66/github"
	"github.com/samber/lo"

	"github.com/Sumatoshi-tech/bundlesize/pkg/persist"
	"github.com/Sumatoshi-tech/bundlesize/pkg/snapshot"
)

// maxArchiveBytes bounds a downloaded artifact.
const maxArchiveBytes = 64 << 20

// artifactsPerPage is the listing page size, the API maximum.
const artifactsPerPage = 100

// artifactRedirects is the redirect budget for the artifact download URL lookup.
const artifactRedirects = 1

// ErrDownload is returned when an artifact archive cannot be fetched.
var ErrDownload = errors.New("artifact download failed")

// GitHubStore reads snapshots from GitHub Actions artifacts named after the
// commit SHA. Saves are written to a staging directory for a later upload
// step; Actions artifacts cannot be created through the REST API.
type GitHubStore struct {
	client  *github.Client
	http    *http.Client
	owner   string
	repo    string
	staging *FileStore
}

// NewGitHubStore creates a store for owner/repo, staging saves in stagingDir.
func NewGitHubStore(client *github.Client, owner, repo, stagingDir string) (*GitHubStore, error) {
	staging, err := NewFileStoreWithCodec(stagingDir, persist.NewJSONCodec())
	if err != nil {
		return nil, err
	}

	return &GitHubStore{
		client:  client,
		http:    http.DefaultClient,
		owner:   owner,
		repo:    repo,
		staging: staging,
	}, nil
}

// WithHTTPClient sets the client used to fetch archive bytes.
func (s *GitHubStore) WithHTTPClient(c *http.Client) *GitHubStore {
	s.http = c

	return s
}

// StagingPath returns where Save writes the archive for sha.
func (s *GitHubStore) StagingPath(sha string) string {
	return s.staging.Path(sha)
}

// Save implements Store by writing the staged archive.
func (s *GitHubStore) Save(ctx context.Context, sha string, snap snapshot.Snapshot) error {
	return s.staging.Save(ctx, sha, snap)
}

// Load implements Store. The newest non-expired artifact named Key(sha) is
// used; ErrExpired is returned when every match has expired.
func (s *GitHubStore) Load(ctx context.Context, sha string) (snapshot.Snapshot, error) {
	shaErr := checkSHA(sha)
	if shaErr != nil {
		return nil, shaErr
	}

	artifact, err := s.findArtifact(ctx, Key(sha))
	if err != nil {
		return nil, err
	}

	archive, err := s.download(ctx, artifact.GetID())
	if err != nil {
		return nil, err
	}

	return s.extract(archive, sha)
}

func (s *GitHubStore) findArtifact(ctx context.Context, name string) (*github.Artifact, error) {
	matches, err := s.listArtifacts(ctx, name)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	live := lo.Reject(matches, func(a *github.Artifact, _ int) bool { return a.GetExpired() })
	if len(live) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrExpired, name)
	}

	return lo.MaxBy(live, func(a, b *github.Artifact) bool {
		return a.GetCreatedAt().After(b.GetCreatedAt().Time)
	}), nil
}

// listArtifacts pages through the repository artifacts and keeps those named name.
func (s *GitHubStore) listArtifacts(ctx context.Context, name string) ([]*github.Artifact, error) {
	opts := &github.ListOptions{PerPage: artifactsPerPage}

	var matches []*github.Artifact

	for {
		list, resp, err := s.client.Actions.ListArtifacts(ctx, s.owner, s.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list artifacts %s: %w", name, err)
		}

		matches = append(matches, lo.Filter(list.Artifacts, func(a *github.Artifact, _ int) bool {
			return a.GetName() == name
		})...)

		if resp.NextPage == 0 {
			return matches, nil
		}

		opts.Page = resp.NextPage
	}
}

func (s *GitHubStore) download(ctx context.Context, id int64) ([]byte, error) {
	location, _, err := s.client.Actions.DownloadArtifact(ctx, s.owner, s.repo, id, artifactRedirects)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve artifact %d: %w", ErrDownload, id, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownload, err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: artifact %d: status %d", ErrDownload, id, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read artifact %d: %w", ErrDownload, id, err)
	}

	return data, nil
}

func (s *GitHubStore) extract(archive []byte, sha string) (snapshot.Snapshot, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	want := persist.FileName(Key(sha), s.staging.Codec())

	for _, entry := range zr.File {
		if entry.Name != want {
			continue
		}

		rc, openErr := entry.Open()
		if openErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, openErr)
		}

		raw, readErr := io.ReadAll(io.LimitReader(rc, maxArchiveBytes))
		rc.Close()

		if readErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, readErr)
		}

		return Parse(raw)
	}

	return nil, fmt.Errorf("%w: archive has no %s", ErrInvalid, want)
}
