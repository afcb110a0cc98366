// Package worktree provides the Git operations backing the delta engine.
//
// This package wraps Git CLI commands (via os/exec) to provision detached
// worktrees at HEAD, apply snapshot patches into them, deregister them, and
// run the tree-to-tree diff queries between the two checkouts.
//
// Design decisions:
//   - We shell out to `git` rather than using a Go Git library (e.g., go-git)
//     because worktree operations, `git apply`, and `git diff --no-index`
//     require full Git CLI compatibility that no library reproduces.
//   - Every invocation is bounded by a single per-command timeout applied
//     through exec.CommandContext; a timed-out command is a failure for the
//     step it occurred in, never retried.
//   - All errors from Git commands are wrapped in model.CLIError with
//     ExitGitError (or ExitApplyError for patch application) to enable
//     proper CLI exit code handling.
package worktree
