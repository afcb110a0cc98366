// Package delta orchestrates scratch preparation, worktree provisioning,
// diff generation, normalization, and cleanup for one run.
package delta

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmr-tortoise/patchdelta/internal/model"
	"github.com/mmr-tortoise/patchdelta/internal/normalize"
	"github.com/mmr-tortoise/patchdelta/internal/safety"
	"github.com/mmr-tortoise/patchdelta/internal/worktree"
)

// Worktree-internal directory names under the scratch dir. These are the
// relative paths handed to the diff queries, which keeps normalization on
// a minimal, consistent coordinate system.
const (
	preDirName  = "pre"
	postDirName = "post"
)

// Engine executes one delta run. Construct it with New, which resolves
// every path in the configuration; the zero value is not usable.
type Engine struct {
	cfg   model.RunConfig
	git   *worktree.Manager
	guard *safety.Guard

	// Logf receives cleanup diagnostics and progress notes. Defaults to a
	// no-op; the CLI wires it to its verbose logger.
	Logf func(format string, args ...any)
}

// New resolves the run configuration into a ready Engine:
//
//   - RepoRoot defaults to the repository containing the working directory
//   - snapshot paths default to <OutputDir>/<phase>_<subagent>.patch
//   - ScratchDir defaults to a process-private path under the system temp
//     directory, derived from the repository name, the subagent, and the
//     process id so concurrent runs do not collide
//
// Resolution failures are configuration errors; nothing is touched on disk.
func New(ctx context.Context, cfg model.RunConfig) (*Engine, error) {
	if !cfg.Subagent.IsValid() {
		return nil, model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("invalid subagent %q", cfg.Subagent))
	}

	git := worktree.NewManager(cfg.CommandTimeout)

	if cfg.RepoRoot == "" {
		root, err := git.RepoRoot(ctx, ".")
		if err != nil {
			return nil, err
		}
		cfg.RepoRoot = root
	} else {
		abs, err := filepath.Abs(cfg.RepoRoot)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError, "invalid repository root", err)
		}
		cfg.RepoRoot = abs
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	absOut, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid output directory", err)
	}
	cfg.OutputDir = absOut

	if cfg.PrePatch == "" {
		cfg.PrePatch = filepath.Join(cfg.OutputDir, model.SnapshotFile(model.PhasePre, cfg.Subagent))
	}
	if cfg.PostPatch == "" {
		cfg.PostPatch = filepath.Join(cfg.OutputDir, model.SnapshotFile(model.PhasePost, cfg.Subagent))
	}
	// git apply runs with the worktree as its working directory, so a
	// relative snapshot path would resolve against the wrong base.
	for _, p := range []*string{&cfg.PrePatch, &cfg.PostPatch} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError, "invalid snapshot path", err)
		}
		*p = abs
	}

	if cfg.ScratchDir == "" {
		cfg.ScratchDir = filepath.Join(os.TempDir(), fmt.Sprintf("%s%s-%s-%d",
			safety.DirPrefix, filepath.Base(cfg.RepoRoot), cfg.Subagent, os.Getpid()))
	} else {
		abs, err := filepath.Abs(cfg.ScratchDir)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError, "invalid scratch directory", err)
		}
		cfg.ScratchDir = abs
	}

	return &Engine{
		cfg:   cfg,
		git:   git,
		guard: safety.NewGuard(cfg.RepoRoot, filepath.Dir(cfg.ScratchDir)),
		Logf:  func(string, ...any) {},
	}, nil
}

// Config returns the fully resolved run configuration.
func (e *Engine) Config() model.RunConfig {
	return e.cfg
}

// Run executes the full workflow and returns the headline result. On any
// failure the best-effort cleanup phase still runs (unless retention was
// requested); cleanup outcomes never replace the primary error.
func (e *Engine) Run(ctx context.Context) (*model.DeltaResult, error) {
	for _, patch := range []string{e.cfg.PrePatch, e.cfg.PostPatch} {
		if _, err := os.Stat(patch); err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("snapshot patch not found: %s", patch), err)
		}
	}

	if err := e.prepareScratch(); err != nil {
		return nil, err
	}

	if !e.cfg.Keep {
		defer e.cleanup(ctx)
	}

	preDir := filepath.Join(e.cfg.ScratchDir, preDirName)
	postDir := filepath.Join(e.cfg.ScratchDir, postDirName)

	if err := e.materialize(ctx, model.PhasePre, preDir, e.cfg.PrePatch); err != nil {
		return nil, err
	}
	if err := e.materialize(ctx, model.PhasePost, postDir, e.cfg.PostPatch); err != nil {
		return nil, err
	}

	return e.generateOutputs(ctx)
}

// prepareScratch creates a fresh scratch directory with the provenance
// marker. A pre-existing directory at the scratch path is only destroyed
// when the safety guard approves; an unsafe target aborts the run rather
// than silently working around it.
func (e *Engine) prepareScratch() error {
	if _, err := os.Stat(e.cfg.ScratchDir); err == nil {
		if !e.guard.IsSafeScratchDir(e.cfg.ScratchDir) {
			return model.NewCLIError(model.ExitUnsafePath,
				fmt.Sprintf("refusing to reuse scratch directory %s: not created by this tool", e.cfg.ScratchDir))
		}
		e.Logf("removing stale scratch directory %s", e.cfg.ScratchDir)
		if err := os.RemoveAll(e.cfg.ScratchDir); err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to remove stale scratch directory", err)
		}
	}

	if err := os.MkdirAll(e.cfg.ScratchDir, 0755); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to create scratch directory", err)
	}

	marker := filepath.Join(e.cfg.ScratchDir, safety.MarkerName)
	if err := os.WriteFile(marker, []byte("patchdelta scratch directory\n"), 0644); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to write provenance marker", err)
	}
	return nil
}

// materialize provisions one worktree and applies its snapshot patch.
// The phase name is folded into any error so a failed run identifies
// whether pre or post broke; ApplyPatch already performs the targeted
// rollback of its own worktree.
func (e *Engine) materialize(ctx context.Context, phase model.Phase, dir, patch string) error {
	e.Logf("provisioning %s worktree at %s", phase, dir)
	if err := e.git.Provision(ctx, e.cfg.RepoRoot, dir); err != nil {
		return wrapPhase(phase, err)
	}

	e.Logf("applying %s to %s worktree", patch, phase)
	if err := e.git.ApplyPatch(ctx, e.cfg.RepoRoot, dir, patch); err != nil {
		return wrapPhase(phase, err)
	}
	return nil
}

// wrapPhase prefixes an error with the phase it occurred in, preserving
// the original exit code.
func wrapPhase(phase model.Phase, err error) error {
	code := model.ExitGeneralError
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		code = cliErr.Code
	}
	return model.WrapCLIError(code, fmt.Sprintf("%s phase", phase), err)
}

// generateOutputs runs the three diff queries, normalizes each result, and
// persists the artifacts. All three normalized strings are computed before
// any file is written, so a diff failure never leaves partial output.
func (e *Engine) generateOutputs(ctx context.Context) (*model.DeltaResult, error) {
	names, err := e.git.Diff(ctx, e.cfg.ScratchDir, worktree.DiffNames, preDirName, postDirName)
	if err != nil {
		return nil, err
	}
	stat, err := e.git.Diff(ctx, e.cfg.ScratchDir, worktree.DiffStat, preDirName, postDirName)
	if err != nil {
		return nil, err
	}
	patch, err := e.git.Diff(ctx, e.cfg.ScratchDir, worktree.DiffPatch, preDirName, postDirName)
	if err != nil {
		return nil, err
	}

	normNames := normalize.NormalizeNameOutput(names, preDirName, postDirName)
	normStat := normalize.NormalizeStatOutput(stat, preDirName, postDirName)
	normPatch := normalize.NormalizePatchOutput(patch, preDirName, postDirName)

	if err := os.MkdirAll(e.cfg.OutputDir, 0755); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to create output directory", err)
	}

	result := &model.DeltaResult{
		ChangedFiles: countLines(normNames),
		PatchFile:    filepath.Join(e.cfg.OutputDir, fmt.Sprintf("delta_%s.patch", e.cfg.Subagent)),
		StatFile:     filepath.Join(e.cfg.OutputDir, fmt.Sprintf("delta_stat_%s.txt", e.cfg.Subagent)),
		FilesFile:    filepath.Join(e.cfg.OutputDir, fmt.Sprintf("delta_files_%s.txt", e.cfg.Subagent)),
	}

	for _, artifact := range []struct {
		path    string
		content string
	}{
		{result.PatchFile, normPatch},
		{result.StatFile, normStat},
		{result.FilesFile, normNames},
	} {
		if err := writeArtifact(artifact.path, artifact.content); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// writeArtifact persists one normalized output, ensuring non-empty content
// ends with exactly one trailing newline. An empty delta writes an empty
// file.
func writeArtifact(path, content string) error {
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}

// countLines counts the entries in a normalized name list.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(s, "\n"), "\n") + 1
}

// cleanup is the dedicated best-effort teardown phase: deregister both
// worktrees, then remove the scratch directory, each step gated by the
// safety guard. Failures are logged and discarded — cleanup never masks
// or replaces the primary result.
func (e *Engine) cleanup(ctx context.Context) {
	for _, name := range []string{preDirName, postDirName} {
		dir := filepath.Join(e.cfg.ScratchDir, name)
		if !e.guard.IsSafeWorktreeDir(dir, e.cfg.ScratchDir) {
			e.Logf("skipping worktree cleanup for %s: safety check failed", dir)
			continue
		}
		if err := e.git.Deregister(ctx, e.cfg.RepoRoot, dir); err != nil {
			e.Logf("worktree cleanup for %s failed: %v", dir, err)
		}
	}

	if !e.guard.IsSafeScratchDir(e.cfg.ScratchDir) {
		e.Logf("skipping scratch cleanup for %s: safety check failed", e.cfg.ScratchDir)
		return
	}
	if err := os.RemoveAll(e.cfg.ScratchDir); err != nil {
		e.Logf("scratch cleanup for %s failed: %v", e.cfg.ScratchDir, err)
	}
}
