// Package safety gates every destructive filesystem operation the delta
// engine performs.
//
// The scratch directory and its worktrees are deleted recursively at the
// end of a run, and the scratch path can come from user configuration — a
// typo must never be able to point the deletion at an unrelated directory.
// The predicates here therefore decide on provenance, not trust: a
// directory is only deletable if it sits strictly inside a declared
// boundary and carries the marker file this tool wrote when it created the
// directory (or, as a weaker legacy allowance, follows the tool's naming
// convention).
//
// Failure semantics: callers skip the destructive action when a predicate
// returns false. Cleanup degrades to a no-op for that target; it never
// aborts the run.
package safety
