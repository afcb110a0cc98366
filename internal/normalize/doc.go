// Package normalize rewrites path tokens in git diff output.
//
// The delta engine diffs two throwaway worktrees against each other, so the
// raw diff output is full of coordinate systems a reviewer must never see:
// scratch-directory prefixes, the internal pre/ and post/ worktree names,
// and the diff convention's own a/ and b/ prefixes. This package converts
// every path token to its canonical repository-relative form, drops entries
// that refer to version-control metadata, and leaves every other byte of
// the stream untouched.
//
// Key design decision: diff text is treated as a structured-but-opaque
// stream. We never parse hunks or interpret line-level changes — doing so
// (e.g. with a diff-parsing library) would require re-serializing the
// patch, and re-serialization cannot guarantee byte-level preservation of
// quoting, escapes, and extended headers. Only path tokens are rewritten.
package normalize
