package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bundlesize/internal/forge"
	"github.com/Sumatoshi-tech/bundlesize/pkg/report"
)

const (
	testBaseSHA = "1111111111111111111111111111111111111111"
	testHeadSHA = "2222222222222222222222222222222222222222"
)

// workspace is a build output directory with a config file pointing at it.
type workspace struct {
	root   string
	config string
}

func newWorkspace(t *testing.T, files string) workspace {
	t.Helper()

	for _, name := range []string{
		"GITHUB_SHA", "GITHUB_WORKSPACE", "GITHUB_TOKEN",
		"GITHUB_REPOSITORY", "GITHUB_API_URL", "GITHUB_SERVER_URL",
	} {
		t.Setenv(name, "")
	}

	dir := t.TempDir()
	root := filepath.Join(dir, "web")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dist"), 0o750))

	content := files + `key_pattern: '([^/]+)\.[0-9a-f]{6,}(\.js)$'
root: ` + root + `
store:
  backend: file
  directory: ` + filepath.Join(dir, "store") + `
github:
  repository: acme/web
logging:
  level: error
`

	cfgPath := filepath.Join(dir, ".bundlesize.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	return workspace{root: root, config: cfgPath}
}

func (w workspace) write(t *testing.T, name string, size int) {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(w.root, name), bytes.Repeat([]byte("a"), size), 0o600))
}

func (w workspace) remove(t *testing.T, name string) {
	t.Helper()

	require.NoError(t, os.Remove(filepath.Join(w.root, name)))
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

const distFiles = "files:\n  - dist/*.js\n  - dist/*.css\n"

func TestCollectThenDiff_JSON(t *testing.T) {
	w := newWorkspace(t, distFiles)
	global := &GlobalOptions{ConfigPath: w.config}

	w.write(t, "dist/app.abc123.js", 100)
	w.write(t, "dist/old.css", 50)

	out, err := execute(t, NewCollectCommand(global), "--sha", testBaseSHA)
	require.NoError(t, err)
	assert.Contains(t, out, "1111111: 2 files")

	w.remove(t, "dist/app.abc123.js")
	w.remove(t, "dist/old.css")
	w.write(t, "dist/app.def456.js", 120)

	_, err = execute(t, NewCollectCommand(global), "--sha", testHeadSHA)
	require.NoError(t, err)

	out, err = execute(t, NewDiffCommand(global), "--format", FormatJSON, testBaseSHA, testHeadSHA)
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	require.Len(t, doc.Rows, 3)
	assert.Equal(t, int64(-30), doc.Rows[0].Delta)
	assert.Equal(t, "dist/app.def456.js", doc.Rows[1].Label)
	assert.Equal(t, int64(20), doc.Rows[1].Delta)
	assert.Equal(t, "dist/old.css", doc.Rows[2].Label)
	assert.Equal(t, "https://github.com/acme/web/compare/"+testBaseSHA+"..."+testHeadSHA, doc.Compare)
}

func TestCollect_SecondSaveKeepsFirst(t *testing.T) {
	w := newWorkspace(t, distFiles)
	global := &GlobalOptions{ConfigPath: w.config}

	w.write(t, "dist/app.abc123.js", 100)

	_, err := execute(t, NewCollectCommand(global), "--sha", testBaseSHA)
	require.NoError(t, err)

	w.write(t, "dist/app.abc123.js", 500)

	_, err = execute(t, NewCollectCommand(global), "--sha", testBaseSHA)
	require.NoError(t, err)

	out, err := execute(t, NewDiffCommand(global), "--format", FormatMarkdown, testBaseSHA, testBaseSHA)
	require.NoError(t, err)
	assert.True(t, report.IsReport(out))
	assert.Contains(t, out, "100 B")
	assert.NotContains(t, out, "500 B")
}

func TestCollect_NoPatterns_DoesNothing(t *testing.T) {
	w := newWorkspace(t, "")

	out, err := execute(t, NewCollectCommand(&GlobalOptions{ConfigPath: w.config}), "--sha", testBaseSHA)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCollect_FilesFlagOverridesConfig(t *testing.T) {
	w := newWorkspace(t, "")
	w.write(t, "dist/only.css", 10)

	out, err := execute(t, NewCollectCommand(&GlobalOptions{ConfigPath: w.config}),
		"--sha", testBaseSHA, "--files", "dist/*.css")
	require.NoError(t, err)
	assert.Contains(t, out, "1 files")
}

func TestDiff_UnknownFormat(t *testing.T) {
	w := newWorkspace(t, distFiles)

	_, err := execute(t, NewDiffCommand(&GlobalOptions{ConfigPath: w.config}), "--format", "pdf", "a", "b")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDiff_MissingSnapshotsCompareEmpty(t *testing.T) {
	w := newWorkspace(t, distFiles)

	out, err := execute(t, NewDiffCommand(&GlobalOptions{ConfigPath: w.config}),
		"--format", FormatYAML, testBaseSHA, testHeadSHA)
	require.NoError(t, err)
	assert.Contains(t, out, "label: Total")
}

func TestDiff_HTMLToFile(t *testing.T) {
	w := newWorkspace(t, distFiles)
	target := filepath.Join(t.TempDir(), "report.html")

	out, err := execute(t, NewDiffCommand(&GlobalOptions{ConfigPath: w.config}),
		"--format", FormatHTML, "--output", target, testBaseSHA, testHeadSHA)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(string(data)), "<html")
}

func TestDiff_ArgsRequired(t *testing.T) {
	w := newWorkspace(t, distFiles)

	_, err := execute(t, NewDiffCommand(&GlobalOptions{ConfigPath: w.config}), testBaseSHA)
	require.Error(t, err)
}

// stubForge serves one pull request from main to feature.
type stubForge struct {
	tips     map[string]string
	comments map[int]string
}

func (s *stubForge) ListOpenPullRequests(context.Context) ([]forge.PullRequest, error) {
	repo := forge.Repository{Owner: "acme", Name: "web"}

	return []forge.PullRequest{{
		Number: 7,
		Base:   forge.Branch{Repository: repo, Ref: "main"},
		Head:   forge.Branch{Repository: repo, Ref: "feature"},
	}}, nil
}

func (s *stubForge) ResolveRef(_ context.Context, _ forge.Repository, ref string) (string, error) {
	return s.tips[ref], nil
}

func (s *stubForge) FindComment(_ context.Context, number int, prefix string) (forge.Comment, bool, error) {
	body, ok := s.comments[number]
	if !ok || !strings.HasPrefix(body, prefix) {
		return forge.Comment{}, false, nil
	}

	return forge.Comment{ID: int64(number), Body: body}, true, nil
}

func (s *stubForge) CreateComment(_ context.Context, number int, body string) error {
	s.comments[number] = body

	return nil
}

func (s *stubForge) UpdateComment(_ context.Context, id int64, body string) error {
	s.comments[int(id)] = body

	return nil
}

func TestRun_CommentsOnPullRequest(t *testing.T) {
	w := newWorkspace(t, distFiles)
	global := &GlobalOptions{ConfigPath: w.config}

	fake := &stubForge{
		tips:     map[string]string{"main": testBaseSHA, "feature": testHeadSHA},
		comments: map[int]string{},
	}

	newForge := func(*app) (forge.Forge, error) { return fake, nil }

	w.write(t, "dist/app.abc123.js", 100)

	out, err := execute(t, newRunCommandWithForge(global, newForge), "--sha", testBaseSHA)
	require.NoError(t, err)
	assert.Contains(t, out, "1 commented")

	w.remove(t, "dist/app.abc123.js")
	w.write(t, "dist/app.def456.js", 150)

	out, err = execute(t, newRunCommandWithForge(global, newForge), "--sha", testHeadSHA)
	require.NoError(t, err)
	assert.Contains(t, out, "1 commented")

	body := fake.comments[7]
	assert.True(t, report.IsReport(body))
	assert.Contains(t, body, "dist/app.def456.js")
	assert.Contains(t, body, "+50.00%")
}

func TestRun_WithoutGitHubConfig_Fails(t *testing.T) {
	w := newWorkspace(t, distFiles)
	w.write(t, "dist/app.abc123.js", 100)

	_, err := execute(t, NewRunCommand(&GlobalOptions{ConfigPath: w.config}), "--sha", testBaseSHA)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "github.token")
}

func TestLoadConfig_Invalid_FailsCommand(t *testing.T) {
	w := newWorkspace(t, distFiles)
	t.Setenv("BUNDLESIZE_STORE_BACKEND", "tape")

	_, err := execute(t, NewCollectCommand(&GlobalOptions{ConfigPath: w.config}), "--sha", testBaseSHA)
	require.Error(t, err)
}
