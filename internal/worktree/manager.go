// Package worktree wraps the git CLI for worktree provisioning, patch
// application, and tree-to-tree diffing.
package worktree

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mmr-tortoise/patchdelta/internal/model"
)

// DefaultTimeout bounds a single git invocation when the caller does not
// configure one.
const DefaultTimeout = 120 * time.Second

// Manager provides Git operations by invoking the git CLI.
//
// The only state is the per-invocation timeout — all methods receive the
// repository or directory paths as parameters, following the convention
// that the scratch layout is threaded explicitly rather than held in
// package state.
type Manager struct {
	// Timeout bounds every external git command. Zero means DefaultTimeout.
	Timeout time.Duration
}

// NewManager creates a worktree Manager with the given per-command
// timeout. A zero timeout selects DefaultTimeout.
func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{Timeout: timeout}
}

// Provision registers a new detached worktree at the repository's current
// HEAD, rooted at worktreeDir. It fails if the target already exists —
// a pre-existing directory means the scratch area was not prepared the way
// this run expects, and git would refuse or misbehave anyway.
func (m *Manager) Provision(ctx context.Context, repoRoot, worktreeDir string) error {
	if _, err := os.Stat(worktreeDir); err == nil {
		return model.NewCLIError(model.ExitGitError,
			fmt.Sprintf("worktree target %s already exists", worktreeDir))
	}

	_, err := m.runGit(ctx, repoRoot, "worktree", "add", "--detach", worktreeDir, "HEAD")
	if err != nil {
		return model.WrapCLIError(model.ExitGitError,
			fmt.Sprintf("failed to provision worktree at %s", worktreeDir), err)
	}
	return nil
}

// ApplyPatch applies the snapshot patch at patchPath into the worktree.
// Whitespace-only discrepancies are tolerated; the patch file itself is
// never modified.
//
// On failure the worktree is deregistered and removed before the apply
// error is returned, so a half-patched checkout never survives to the
// diff phase. The returned error includes git's diagnostic text.
func (m *Manager) ApplyPatch(ctx context.Context, repoRoot, worktreeDir, patchPath string) error {
	_, err := m.runGit(ctx, worktreeDir, "apply", "--whitespace=nowarn", patchPath)
	if err == nil {
		return nil
	}

	// Targeted rollback: the worktree is useless once the patch failed.
	// Deregistration errors here are secondary to the apply failure.
	_ = m.Deregister(ctx, repoRoot, worktreeDir)

	return model.WrapCLIError(model.ExitApplyError,
		fmt.Sprintf("failed to apply patch %s", patchPath), err)
}

// Deregister removes the worktree registration and its directory via
// `git worktree remove --force`. A worktree that is already absent counts
// as success; any other failure is returned for the caller's best-effort
// cleanup policy to swallow.
func (m *Manager) Deregister(ctx context.Context, repoRoot, worktreeDir string) error {
	_, err := m.runGit(ctx, repoRoot, "worktree", "remove", "--force", worktreeDir)
	if err == nil {
		return nil
	}

	// Already gone — either never registered or removed by a prior attempt.
	msg := err.Error()
	if strings.Contains(msg, "is not a working tree") || strings.Contains(msg, "No such file or directory") {
		return nil
	}
	return err
}

// RepoRoot returns the absolute path to the top-level directory of the
// Git repository containing the given path, via
// `git rev-parse --show-toplevel`.
func (m *Manager) RepoRoot(ctx context.Context, path string) (string, error) {
	out, err := m.runGit(ctx, path, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("not a git repository: %s", path), err)
	}
	return strings.TrimSpace(out), nil
}

// DiffMode selects one of the three diff query forms run between the two
// worktrees.
type DiffMode int

const (
	// DiffNames produces one changed path per line (--name-only).
	DiffNames DiffMode = iota

	// DiffStat produces the per-file change magnitude summary (--stat).
	DiffStat

	// DiffPatch produces the full unified patch.
	DiffPatch
)

// Diff runs a tree-to-tree comparison of the two worktree directories in
// the given mode, with workDir as the working directory so preDir and
// postDir may be relative. It uses `git diff --no-index`, which compares
// plain directories without consulting any repository.
//
// Exit status 1 means "differences found" and is a success outcome that
// carries output; any other non-zero status (including a timeout kill) is
// a command failure.
func (m *Manager) Diff(ctx context.Context, workDir string, mode DiffMode, preDir, postDir string) (string, error) {
	// --find-renames keeps rename detection on regardless of the host's
	// diff.renames configuration, so renames surface as rename from/to
	// pairs instead of delete/add pairs.
	args := []string{"diff", "--no-index", "--find-renames"}
	switch mode {
	case DiffNames:
		args = append(args, "--name-only")
	case DiffStat:
		args = append(args, "--stat")
	case DiffPatch:
		// Plain form, no extra flag.
	}
	args = append(args, preDir, postDir)

	out, err := m.runGitTolerant(ctx, workDir, args...)
	if err != nil {
		return "", model.WrapCLIError(model.ExitGitError, "diff query failed", err)
	}
	return out, nil
}

// DiffHead returns the raw uncommitted changes of the repository relative
// to HEAD (`git diff HEAD`). Used by snapshot capture, which writes the
// output verbatim — note that plain `git diff` exits 0 whether or not
// differences exist, so no exit tolerance is needed here.
func (m *Manager) DiffHead(ctx context.Context, repoRoot string) (string, error) {
	out, err := m.runGit(ctx, repoRoot, "diff", "HEAD")
	if err != nil {
		return "", model.WrapCLIError(model.ExitGitError, "failed to capture snapshot diff", err)
	}
	return out, nil
}

// runGit executes a git command in dir under the configured timeout.
// On success it returns stdout; on failure it returns an error carrying
// git's stderr output for diagnostics.
func (m *Manager) runGit(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := m.run(ctx, dir, args, nil)
	return out, err
}

// runGitTolerant is runGit with exit status 1 treated as success. Git's
// diff family uses status 1 to report "differences found", which is the
// expected outcome here, not an error.
func (m *Manager) runGitTolerant(ctx context.Context, dir string, args ...string) (string, error) {
	tolerate := func(code int) bool { return code == 1 }
	return m.run(ctx, dir, args, tolerate)
}

// run is the single choke point for git invocations. The dir parameter is
// passed via git's -C flag, which is handled by git itself and works
// correctly with all subcommands, so the process working directory never
// changes. The tolerated predicate, when non-nil, marks specific non-zero
// exit codes as success.
func (m *Manager) run(ctx context.Context, dir string, args []string, tolerated func(int) bool) (string, error) {
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fullArgs := append([]string{"-C", dir}, args...)

	// #nosec G204 — args are constructed internally, not from user input
	cmd := exec.CommandContext(ctx, "git", fullArgs...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if tolerated != nil && errors.As(err, &exitErr) && tolerated(exitErr.ExitCode()) {
			return stdout.String(), nil
		}

		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("git %s timed out after %s", strings.Join(args, " "), timeout)
		}

		stderrStr := strings.TrimSpace(stderr.String())
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		if stderrStr != "" {
			message = fmt.Sprintf("%s: %s", message, stderrStr)
		}
		return "", fmt.Errorf("%s: %w", message, err)
	}

	return stdout.String(), nil
}
