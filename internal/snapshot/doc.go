// Package snapshot captures patch snapshots of the repository's current
// uncommitted state.
//
// This is deliberately thin I/O glue: it shells out to `git diff HEAD`
// and writes the raw output to the conventional snapshot location for a
// subagent and phase. No normalization and no isolation happen here —
// that is the delta engine's job when the two snapshots are compared.
package snapshot
