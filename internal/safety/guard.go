// Package safety implements the containment and provenance predicates that
// gate recursive deletion and worktree deregistration.
package safety

import (
	"os"
	"path/filepath"
	"strings"
)

// MarkerName is the provenance marker file written into every scratch
// directory this tool creates. Its presence proves the directory is ours
// to delete.
const MarkerName = ".patchdelta-scratch"

// DirPrefix is the naming convention for auto-generated scratch
// directories. Matching it is a weaker, legacy allowance consulted only
// when the marker file is absent — it lets cleanup reclaim a scratch
// directory left behind by an interrupted run that died before writing
// the marker.
const DirPrefix = "patchdelta-"

// Guard holds the two declared boundaries destructive operations must stay
// inside: the repository root and the parent directory scratch areas are
// created under. Both are fixed at construction; the guard itself never
// mutates filesystem state.
type Guard struct {
	// RepoRoot is the repository the worktrees are checked out from.
	RepoRoot string

	// ScratchParent is the directory scratch areas live under, typically
	// the system temp directory.
	ScratchParent string
}

// NewGuard creates a Guard for the given boundaries.
func NewGuard(repoRoot, scratchParent string) *Guard {
	return &Guard{RepoRoot: repoRoot, ScratchParent: scratchParent}
}

// IsRelativeTo reports whether path sits at or under parent after both are
// made absolute and cleaned. Any resolution error means false — when in
// doubt, the answer that blocks deletion wins.
func IsRelativeTo(path, parent string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absParent, err := filepath.Abs(parent)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(absParent, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// IsTopLevelPath reports whether path is a filesystem root ("/" on Unix,
// a drive root on Windows). A root is an absolute refusal condition for
// every destructive operation, regardless of any other check.
func IsTopLevelPath(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return filepath.Dir(abs) == abs
}

// samePath reports whether two paths resolve to the same cleaned absolute
// path.
func samePath(a, b string) bool {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false
	}
	return absA == absB
}

// IsSafeScratchDir decides whether a scratch directory may be destroyed.
// All of the following must hold:
//
//   - the path exists and is a directory
//   - it is not a filesystem root
//   - it sits inside the repository root or the scratch parent
//   - it does not equal either boundary exactly
//   - it contains the provenance marker, or its base name carries the
//     scratch naming prefix
func (g *Guard) IsSafeScratchDir(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}

	if IsTopLevelPath(dir) {
		return false
	}

	inRepo := g.RepoRoot != "" && IsRelativeTo(dir, g.RepoRoot)
	inParent := g.ScratchParent != "" && IsRelativeTo(dir, g.ScratchParent)
	if !inRepo && !inParent {
		return false
	}
	if samePath(dir, g.RepoRoot) || samePath(dir, g.ScratchParent) {
		return false
	}

	if _, err := os.Stat(filepath.Join(dir, MarkerName)); err == nil {
		return true
	}
	return strings.HasPrefix(filepath.Base(dir), DirPrefix)
}

// IsSafeWorktreeDir decides whether a worktree directory may be
// deregistered and removed. The owning scratch directory must itself be a
// safe deletion target, and the worktree must be strictly inside it.
func (g *Guard) IsSafeWorktreeDir(worktreeDir, scratchDir string) bool {
	if !g.IsSafeScratchDir(scratchDir) {
		return false
	}
	if IsTopLevelPath(worktreeDir) {
		return false
	}
	if samePath(worktreeDir, scratchDir) {
		return false
	}
	return IsRelativeTo(worktreeDir, scratchDir)
}
