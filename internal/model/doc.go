// Package model defines the domain types and value objects for the
// patchdelta CLI.
//
// This package contains pure data structures with no external dependencies.
// The entities here (Subagent, Phase, RunConfig, DeltaResult) are transient
// values threaded through a single engine run — there are no persistent
// state files.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
