// Package delta implements the end-to-end delta engine.
//
// A run materializes the pre and post snapshot patches into two disposable
// worktrees under an exclusively-owned scratch directory, diffs the two
// checkouts against each other in three forms (name list, stat summary,
// full patch), pipes each result through the normalize package so no
// scratch-path artifact leaks, persists the three artifacts, and tears
// everything down.
//
// The run is strictly sequential. Cleanup is a dedicated best-effort phase:
// each step is gated by the safety package, and every cleanup failure is
// logged and discarded so it can never mask the primary result.
package delta
