// Package snapshot writes raw patch snapshots for a subagent and phase.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmr-tortoise/patchdelta/internal/model"
	"github.com/mmr-tortoise/patchdelta/internal/worktree"
)

// Capture records the repository's current uncommitted changes as the
// snapshot for the given subagent and phase, returning the path written.
//
// The snapshot is the verbatim output of `git diff HEAD`; untracked files
// are not included (stage them first, e.g. with `git add -N`, if they
// should be part of the snapshot). A clean tree yields an empty file.
func Capture(ctx context.Context, git *worktree.Manager, repoRoot, outputDir string, sub model.Subagent, phase model.Phase) (string, error) {
	raw, err := git.DiffHead(ctx, repoRoot)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError, "failed to create output directory", err)
	}

	path := filepath.Join(outputDir, model.SnapshotFile(phase, sub))
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to write snapshot %s", path), err)
	}
	return path, nil
}
