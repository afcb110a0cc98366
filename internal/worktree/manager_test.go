package worktree

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/patchdelta/internal/model"
)

// setupTestRepo creates a temporary directory with an initialized Git
// repository containing a single commit. Worktree provisioning requires at
// least one commit for HEAD to point at.
//
// The function uses t.TempDir() which automatically cleans up after the
// test. It also configures a local user.name and user.email so that
// `git commit` works in CI environments without global git config.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	runTestGit(t, dir, "init")
	runTestGit(t, dir, "config", "user.email", "test@example.com")
	runTestGit(t, dir, "config", "user.name", "Test User")

	err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Test Repo\n"), 0644)
	require.NoError(t, err, "failed to create initial file")

	runTestGit(t, dir, "add", ".")
	runTestGit(t, dir, "commit", "-m", "initial commit")

	return dir
}

// runTestGit runs a git command in the specified directory and fails the
// test immediately on a non-zero exit, keeping setup code concise.
func runTestGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
	return string(output)
}

// addFilePatch is a minimal unified diff creating new.txt with one line.
const addFilePatch = `diff --git a/new.txt b/new.txt
new file mode 100644
index 0000000..ce01362
--- /dev/null
+++ b/new.txt
@@ -0,0 +1 @@
+hello
`

// conflictingPatch edits README.md with context that does not exist, so
// `git apply` must refuse it.
const conflictingPatch = `diff --git a/README.md b/README.md
index 1111111..2222222 100644
--- a/README.md
+++ b/README.md
@@ -1 +1 @@
-this line does not exist
+replacement
`

func TestProvision(t *testing.T) {
	repo := setupTestRepo(t)
	m := NewManager(0)
	ctx := context.Background()

	wt := filepath.Join(t.TempDir(), "pre")
	require.NoError(t, m.Provision(ctx, repo, wt))

	// The checkout materialized with the committed content.
	_, err := os.Stat(filepath.Join(wt, "README.md"))
	assert.NoError(t, err, "worktree should contain the committed file")

	// Detached HEAD: rev-parse --abbrev-ref reports "HEAD", not a branch.
	head := strings.TrimSpace(runTestGit(t, wt, "rev-parse", "--abbrev-ref", "HEAD"))
	assert.Equal(t, "HEAD", head, "worktree should be detached")
}

func TestProvisionExistingTarget(t *testing.T) {
	repo := setupTestRepo(t)
	m := NewManager(0)

	wt := filepath.Join(t.TempDir(), "pre")
	require.NoError(t, os.Mkdir(wt, 0755))

	err := m.Provision(context.Background(), repo, wt)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitGitError, cliErr.Code)
}

func TestApplyPatch(t *testing.T) {
	repo := setupTestRepo(t)
	m := NewManager(0)
	ctx := context.Background()

	wt := filepath.Join(t.TempDir(), "pre")
	require.NoError(t, m.Provision(ctx, repo, wt))

	patch := filepath.Join(t.TempDir(), "pre_coder.patch")
	require.NoError(t, os.WriteFile(patch, []byte(addFilePatch), 0644))

	require.NoError(t, m.ApplyPatch(ctx, repo, wt, patch))

	content, err := os.ReadFile(filepath.Join(wt, "new.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(content))
}

// TestApplyPatchFailureRollsBack verifies the targeted cleanup: a failed
// apply deregisters and removes the worktree before the error propagates,
// and the error carries git's diagnostic text and the apply exit code.
func TestApplyPatchFailureRollsBack(t *testing.T) {
	repo := setupTestRepo(t)
	m := NewManager(0)
	ctx := context.Background()

	wt := filepath.Join(t.TempDir(), "post")
	require.NoError(t, m.Provision(ctx, repo, wt))

	patch := filepath.Join(t.TempDir(), "post_coder.patch")
	require.NoError(t, os.WriteFile(patch, []byte(conflictingPatch), 0644))

	err := m.ApplyPatch(ctx, repo, wt, patch)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitApplyError, cliErr.Code)
	assert.Contains(t, err.Error(), "apply", "error should identify the apply step")

	// The half-provisioned worktree must be gone.
	_, statErr := os.Stat(wt)
	assert.True(t, os.IsNotExist(statErr), "failed worktree should be removed")
}

func TestDeregister(t *testing.T) {
	repo := setupTestRepo(t)
	m := NewManager(0)
	ctx := context.Background()

	wt := filepath.Join(t.TempDir(), "pre")
	require.NoError(t, m.Provision(ctx, repo, wt))

	require.NoError(t, m.Deregister(ctx, repo, wt))
	_, err := os.Stat(wt)
	assert.True(t, os.IsNotExist(err))

	// Removing an already-absent worktree counts as success.
	assert.NoError(t, m.Deregister(ctx, repo, wt))
	assert.NoError(t, m.Deregister(ctx, repo, filepath.Join(t.TempDir(), "never-existed")))
}

func TestRepoRoot(t *testing.T) {
	repo := setupTestRepo(t)
	m := NewManager(0)

	root, err := m.RepoRoot(context.Background(), repo)
	require.NoError(t, err)

	// Resolve symlinks on both sides; macOS temp dirs live under /var → /private/var.
	wantResolved, _ := filepath.EvalSymlinks(repo)
	gotResolved, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, wantResolved, gotResolved)

	_, err = m.RepoRoot(context.Background(), t.TempDir())
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
}

// TestDiff covers the three query modes against plain directories and the
// "differences found" exit tolerance.
func TestDiff(t *testing.T) {
	scratch := t.TempDir()
	pre := filepath.Join(scratch, "pre")
	post := filepath.Join(scratch, "post")
	require.NoError(t, os.MkdirAll(filepath.Join(pre, "src"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(post, "src"), 0755))

	require.NoError(t, os.WriteFile(filepath.Join(pre, "src", "a.txt"), []byte("one\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(post, "src", "a.txt"), []byte("one\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(post, "src", "b.txt"), []byte("two\n"), 0644))

	m := NewManager(0)
	ctx := context.Background()

	names, err := m.Diff(ctx, scratch, DiffNames, "pre", "post")
	require.NoError(t, err, "exit status 1 must be tolerated as differences-found")
	assert.Contains(t, names, "src/b.txt")
	assert.NotContains(t, names, "a.txt", "unchanged file should not be listed")

	stat, err := m.Diff(ctx, scratch, DiffStat, "pre", "post")
	require.NoError(t, err)
	assert.Contains(t, stat, "src/b.txt")
	assert.Contains(t, stat, "|")

	patch, err := m.Diff(ctx, scratch, DiffPatch, "pre", "post")
	require.NoError(t, err)
	assert.Contains(t, patch, "diff --git")
	assert.Contains(t, patch, "+two")
}

// TestDiffIdentical verifies that identical trees produce empty output and
// a clean exit.
func TestDiffIdentical(t *testing.T) {
	scratch := t.TempDir()
	for _, d := range []string{"pre", "post"} {
		require.NoError(t, os.Mkdir(filepath.Join(scratch, d), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(scratch, d, "same.txt"), []byte("x\n"), 0644))
	}

	m := NewManager(0)
	out, err := m.Diff(context.Background(), scratch, DiffPatch, "pre", "post")
	require.NoError(t, err)
	assert.Empty(t, out)
}
