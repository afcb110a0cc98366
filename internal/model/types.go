// Package model defines the domain types for the patchdelta CLI.
//
// All entities in this package represent the data flowing through a single
// delta run: which subagent's snapshots are being compared, where the
// repository and output directories live, and what the run produced.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Subagent identifies which snapshot pair a run operates on. Snapshot and
// output filenames are keyed by this identifier, so the set is closed —
// an arbitrary string would let a typo silently diff the wrong pair.
type Subagent string

const (
	// SubagentPlanner is the planning subagent.
	SubagentPlanner Subagent = "planner"

	// SubagentCoder is the implementation subagent.
	SubagentCoder Subagent = "coder"

	// SubagentReviewer is the review subagent.
	SubagentReviewer Subagent = "reviewer"

	// SubagentTester is the testing subagent.
	SubagentTester Subagent = "tester"
)

// String returns the string representation of the Subagent.
// This method satisfies the fmt.Stringer interface.
func (s Subagent) String() string {
	return string(s)
}

// IsValid checks whether the Subagent value is one of the predefined
// members of the closed set.
func (s Subagent) IsValid() bool {
	switch s {
	case SubagentPlanner, SubagentCoder, SubagentReviewer, SubagentTester:
		return true
	default:
		return false
	}
}

// ParseSubagent converts a string to a Subagent.
// Returns an error if the string does not name a known subagent.
func ParseSubagent(s string) (Subagent, error) {
	sub := Subagent(strings.ToLower(s))
	if !sub.IsValid() {
		return "", fmt.Errorf("invalid subagent %q (valid: planner, coder, reviewer, tester)", s)
	}
	return sub, nil
}

// Phase distinguishes the two snapshots of a run. The pre snapshot captures
// the tree before the subagent's work, the post snapshot after.
type Phase string

const (
	// PhasePre is the baseline snapshot.
	PhasePre Phase = "pre"

	// PhasePost is the result snapshot.
	PhasePost Phase = "post"
)

// String returns the string representation of the Phase.
func (p Phase) String() string {
	return string(p)
}

// IsValid checks whether the Phase value is "pre" or "post".
func (p Phase) IsValid() bool {
	return p == PhasePre || p == PhasePost
}

// ParsePhase converts a string to a Phase.
// Returns an error if the string is neither "pre" nor "post".
func ParsePhase(s string) (Phase, error) {
	phase := Phase(strings.ToLower(s))
	if !phase.IsValid() {
		return "", fmt.Errorf("invalid phase %q (valid: pre, post)", s)
	}
	return phase, nil
}

// SnapshotFile returns the conventional patch filename for a phase and
// subagent, e.g. "pre_coder.patch". Both the snapshot command (writer)
// and the delta engine (reader) go through this function so the naming
// contract lives in one place.
func SnapshotFile(phase Phase, sub Subagent) string {
	return fmt.Sprintf("%s_%s.patch", phase, sub)
}

// RunConfig holds the fully resolved configuration for one delta run.
// All paths are absolute by the time the engine sees them; resolution of
// defaults (auto-detected repo root, process-private scratch path) happens
// in the engine constructor, never inside the run itself.
type RunConfig struct {
	// Subagent selects which snapshot pair to compare.
	Subagent Subagent `json:"subagent"`

	// RepoRoot is the absolute path to the git repository whose HEAD the
	// two worktrees are checked out from.
	RepoRoot string `json:"repoRoot"`

	// OutputDir is the directory holding the input snapshots and receiving
	// the three delta artifacts.
	OutputDir string `json:"outputDir"`

	// PrePatch and PostPatch are the snapshot files to apply. When empty,
	// they default to OutputDir/pre_<subagent>.patch and
	// OutputDir/post_<subagent>.patch.
	PrePatch  string `json:"prePatch,omitempty"`
	PostPatch string `json:"postPatch,omitempty"`

	// ScratchDir is the directory that will own the two worktrees and the
	// provenance marker. When empty, a process-private path under the
	// system temp directory is derived from the repository name, the
	// subagent, and the process id.
	ScratchDir string `json:"scratchDir,omitempty"`

	// Keep disables the cleanup phase, leaving the scratch directory and
	// both worktrees on disk for inspection.
	Keep bool `json:"keep,omitempty"`

	// CommandTimeout bounds every external git invocation. Zero means the
	// engine default.
	CommandTimeout time.Duration `json:"-"`
}

// DeltaResult describes a successful run: where the three artifacts were
// written and how many files changed between the two snapshots.
type DeltaResult struct {
	// ChangedFiles is the number of paths in the normalized name list.
	ChangedFiles int `json:"changedFiles"`

	// PatchFile is the normalized full patch location.
	PatchFile string `json:"patchFile"`

	// StatFile is the normalized stat summary location.
	StatFile string `json:"statFile"`

	// FilesFile is the normalized name list location.
	FilesFile string `json:"filesFile"`
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and
// CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates invalid configuration: a missing repository
	// root, a missing snapshot file, or an unparseable defaults file.
	ExitConfigError ExitCode = 2

	// ExitUnsafePath indicates a scratch or worktree path failed the
	// safety checks gating destructive operations.
	ExitUnsafePath ExitCode = 3

	// ExitGitError indicates a git invocation failed or timed out.
	ExitGitError ExitCode = 4

	// ExitApplyError indicates a snapshot patch did not apply cleanly.
	ExitApplyError ExitCode = 5
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
