// Package cli — snapshot.go implements the "patchdelta snapshot" command.
//
// Snapshot capture is deliberately trivial: it records the repository's
// current uncommitted changes verbatim as the pre or post patch for a
// subagent. The interesting work (isolation, normalization) happens later
// in the delta command.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/patchdelta/internal/config"
	"github.com/mmr-tortoise/patchdelta/internal/model"
	"github.com/mmr-tortoise/patchdelta/internal/snapshot"
	"github.com/mmr-tortoise/patchdelta/internal/worktree"
)

// snapshotFlags holds the flag values for the snapshot command.
type snapshotFlags struct {
	repo      string // --repo: repository root (default: auto-detect)
	outputDir string // --output-dir: snapshot directory
}

// NewSnapshotCommand creates the "snapshot" cobra command.
func NewSnapshotCommand() *cobra.Command {
	flags := &snapshotFlags{}

	cmd := &cobra.Command{
		Use:   "snapshot <subagent> <phase>",
		Short: "Capture the repository's uncommitted changes as a patch snapshot",
		Long: `Capture the repository's current uncommitted changes (git diff HEAD) as the
pre or post snapshot for a subagent. The raw diff is written verbatim to
<output-dir>/<phase>_<subagent>.patch.

Examples:
  patchdelta snapshot coder pre
  patchdelta snapshot coder post --output-dir artifacts`,

		Args: cobra.ExactArgs(2),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd.Context(), args[0], args[1], flags)
		},
	}

	cmd.Flags().StringVar(&flags.repo, "repo", "", "Repository root (default: auto-detect)")
	cmd.Flags().StringVarP(&flags.outputDir, "output-dir", "o", "", "Snapshot directory (default: current directory)")

	return cmd
}

// runSnapshot is the main logic function for the snapshot command.
func runSnapshot(ctx context.Context, subagentArg, phaseArg string, flags *snapshotFlags) error {
	sub, err := model.ParseSubagent(subagentArg)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid arguments", err)
	}
	phase, err := model.ParsePhase(phaseArg)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid arguments", err)
	}

	git := worktree.NewManager(0)

	repoRoot := flags.repo
	if repoRoot == "" {
		repoRoot, err = git.RepoRoot(ctx, ".")
		if err != nil {
			return err
		}
	}

	defaults, err := config.Load(repoRoot)
	if err != nil {
		return err
	}
	if defaults.TimeoutSeconds > 0 {
		git = worktree.NewManager(time.Duration(defaults.TimeoutSeconds) * time.Second)
	}

	outputDir := flags.outputDir
	if outputDir == "" && defaults.OutputDir != "" {
		outputDir = anchorPath(repoRoot, defaults.OutputDir)
	}
	if outputDir == "" {
		outputDir = "."
	}

	path, err := snapshot.Capture(ctx, git, repoRoot, outputDir, sub, phase)
	if err != nil {
		return err
	}

	VerboseLog("captured %s snapshot for %s", phase, sub)

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]string{"snapshot": path}, "", "  ")
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}
	fmt.Printf("Snapshot written: %s\n", path)
	return nil
}
