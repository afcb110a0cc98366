// Package cli — delta.go implements the "patchdelta delta" command.
//
// The delta command is the primary operation: it resolves configuration
// (flags over repository defaults file), constructs the engine, runs the
// full workflow, and reports the three artifact locations plus the
// changed-file count.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/patchdelta/internal/config"
	"github.com/mmr-tortoise/patchdelta/internal/delta"
	"github.com/mmr-tortoise/patchdelta/internal/model"
	"github.com/mmr-tortoise/patchdelta/internal/worktree"
)

// deltaFlags holds the flag values for the delta command.
type deltaFlags struct {
	repo      string // --repo: repository root (default: auto-detect)
	outputDir string // --output-dir: snapshot and artifact directory
	prePatch  string // --pre: explicit pre snapshot path
	postPatch string // --post: explicit post snapshot path
	scratch   string // --scratch: explicit scratch directory
	keep      bool   // --keep: retain scratch directory after the run
}

// NewDeltaCommand creates the "delta" cobra command.
func NewDeltaCommand() *cobra.Command {
	flags := &deltaFlags{}

	cmd := &cobra.Command{
		Use:   "delta <subagent>",
		Short: "Compute the normalized delta between a subagent's snapshots",
		Long: `Compute the normalized delta between a subagent's pre and post snapshots.

Both snapshots are applied to isolated worktrees checked out at HEAD; the two
checkouts are then diffed against each other. Three artifacts are written to
the output directory:

  delta_<subagent>.patch       normalized full patch
  delta_stat_<subagent>.txt    normalized stat summary
  delta_files_<subagent>.txt   changed paths, one per line

Examples:
  patchdelta delta coder
  patchdelta delta reviewer --output-dir artifacts
  patchdelta delta coder --keep --scratch /tmp/patchdelta-debug`,

		// Exactly one positional argument (the subagent) is required.
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelta(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.repo, "repo", "", "Repository root (default: auto-detect)")
	cmd.Flags().StringVarP(&flags.outputDir, "output-dir", "o", "", "Snapshot and artifact directory (default: current directory)")
	cmd.Flags().StringVar(&flags.prePatch, "pre", "", "Explicit pre snapshot path")
	cmd.Flags().StringVar(&flags.postPatch, "post", "", "Explicit post snapshot path")
	cmd.Flags().StringVar(&flags.scratch, "scratch", "", "Explicit scratch directory")
	cmd.Flags().BoolVar(&flags.keep, "keep", false, "Keep worktrees and scratch directory after the run")

	return cmd
}

// runDelta is the main logic function for the delta command.
func runDelta(ctx context.Context, subagentArg string, flags *deltaFlags) error {
	sub, err := model.ParseSubagent(subagentArg)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid arguments", err)
	}

	cfg, err := resolveConfig(ctx, sub, flags)
	if err != nil {
		return err
	}

	eng, err := delta.New(ctx, cfg)
	if err != nil {
		return err
	}
	eng.Logf = VerboseLog

	VerboseLog("repository root: %s", eng.Config().RepoRoot)
	VerboseLog("scratch directory: %s", eng.Config().ScratchDir)

	result, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	return printDeltaResult(result)
}

// resolveConfig merges flags with the repository defaults file. Flags win;
// the file only fills fields the user left unset.
func resolveConfig(ctx context.Context, sub model.Subagent, flags *deltaFlags) (model.RunConfig, error) {
	cfg := model.RunConfig{
		Subagent:   sub,
		RepoRoot:   flags.repo,
		OutputDir:  flags.outputDir,
		PrePatch:   flags.prePatch,
		PostPatch:  flags.postPatch,
		ScratchDir: flags.scratch,
		Keep:       flags.keep,
	}

	// The defaults file lives at the repository root, so the root must be
	// resolved first when it was not given explicitly.
	repoRoot := cfg.RepoRoot
	if repoRoot == "" {
		root, err := worktree.NewManager(0).RepoRoot(ctx, ".")
		if err != nil {
			return model.RunConfig{}, err
		}
		repoRoot = root
		cfg.RepoRoot = root
	}

	defaults, err := config.Load(repoRoot)
	if err != nil {
		return model.RunConfig{}, err
	}

	// Relative paths from the defaults file are anchored at the repository
	// root, not the process working directory.
	if cfg.OutputDir == "" && defaults.OutputDir != "" {
		cfg.OutputDir = anchorPath(repoRoot, defaults.OutputDir)
	}
	if cfg.ScratchDir == "" && defaults.ScratchDir != "" {
		cfg.ScratchDir = anchorPath(repoRoot, defaults.ScratchDir)
	}
	if !cfg.Keep {
		cfg.Keep = defaults.Keep
	}
	if defaults.TimeoutSeconds > 0 {
		cfg.CommandTimeout = time.Duration(defaults.TimeoutSeconds) * time.Second
	}

	return cfg, nil
}

// anchorPath resolves a possibly-relative defaults-file path against the
// repository root.
func anchorPath(repoRoot, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(repoRoot, path)
}

// printDeltaResult reports the run outcome in text or JSON form.
func printDeltaResult(result *model.DeltaResult) error {
	if IsJSONOutput() {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to encode result", err)
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}

	fmt.Printf("Changed files: %d\n", result.ChangedFiles)
	fmt.Printf("  patch: %s\n", result.PatchFile)
	fmt.Printf("  stat:  %s\n", result.StatFile)
	fmt.Printf("  files: %s\n", result.FilesFile)
	return nil
}
