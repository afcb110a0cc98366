package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClassifyLine checks the closed set of line kinds.
func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want LineKind
	}{
		{"diff --git a/x b/x", LineHeader},
		{"--- a/x", LineOldFile},
		{"+++ b/x", LineNewFile},
		{"rename from x", LineRenameFrom},
		{"rename to y", LineRenameTo},
		{"index 1111111..2222222 100644", LinePlain},
		{"@@ -1,2 +1,2 @@", LinePlain},
		{"+added line", LinePlain},
		{"-removed line", LinePlain},
		{" context line", LinePlain},
		{"", LinePlain},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyLine(tt.line), "line %q", tt.line)
	}
}

// TestHandleDiffHeader covers normalization, exclusion, and the ambiguous
// pass-through case.
func TestHandleDiffHeader(t *testing.T) {
	t.Run("worktree prefixes removed", func(t *testing.T) {
		out, drop := HandleDiffHeader("diff --git a/pre/src/a.txt b/post/src/a.txt", "pre", "post")
		require.False(t, drop)
		assert.Equal(t, "diff --git a/src/a.txt b/src/a.txt", out)
	})

	t.Run("quoted paths stay one token", func(t *testing.T) {
		out, drop := HandleDiffHeader(`diff --git "a/pre/has space.txt" "b/post/has space.txt"`, "pre", "post")
		require.False(t, drop)
		assert.Equal(t, `diff --git "a/has space.txt" "b/has space.txt"`, out)
	})

	t.Run("metadata paths drop the block", func(t *testing.T) {
		_, drop := HandleDiffHeader("diff --git a/pre/.git/config b/post/.git/config", "pre", "post")
		assert.True(t, drop)
	})

	t.Run("already canonical header is a no-op", func(t *testing.T) {
		line := "diff --git a/src/a.txt b/src/a.txt"
		out, drop := HandleDiffHeader(line, "pre", "post")
		require.False(t, drop)
		assert.Equal(t, line, out)
	})

	t.Run("ambiguous header passes through unchanged", func(t *testing.T) {
		// An unquoted path with a space yields more than two tokens; the
		// line must not be rewritten on a guess.
		line := "diff --git a/pre/has space.txt b/post/has space.txt"
		out, drop := HandleDiffHeader(line, "pre", "post")
		require.False(t, drop)
		assert.Equal(t, line, out)
	})
}

// TestNormalizeMetadataLine covers file markers, rename lines, and the
// /dev/null sentinel.
func TestNormalizeMetadataLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		kind LineKind
		want string
	}{
		{
			name: "old file marker",
			line: "--- a/pre/src/a.txt",
			kind: LineOldFile,
			want: "--- a/src/a.txt",
		},
		{
			name: "new file marker",
			line: "+++ b/post/src/a.txt",
			kind: LineNewFile,
			want: "+++ b/src/a.txt",
		},
		{
			name: "dev null passes through",
			line: "--- /dev/null",
			kind: LineOldFile,
			want: "--- /dev/null",
		},
		{
			name: "rename source",
			line: "rename from pre/src/old.txt",
			kind: LineRenameFrom,
			want: "rename from src/old.txt",
		},
		{
			name: "rename destination",
			line: "rename to post/src/new.txt",
			kind: LineRenameTo,
			want: "rename to src/new.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeMetadataLine(tt.line, tt.kind, "pre", "post")
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestNormalizeNameOutput checks blank skipping, exclusion filtering, and
// prefix stripping across a multi-line name list.
func TestNormalizeNameOutput(t *testing.T) {
	raw := strings.Join([]string{
		"post/src/a.txt",
		"",
		"post/.git/config",
		"pre/docs/readme.md",
		"",
	}, "\n")

	got := NormalizeNameOutput(raw, "pre", "post")
	assert.Equal(t, "src/a.txt\ndocs/readme.md", got)
}

// TestNormalizeStatOutput checks per-file lines, exclusion filtering, and
// the dropped summary line. Directory diffs render pairs in the compacted
// rename form, so that is the shape the fixture uses.
func TestNormalizeStatOutput(t *testing.T) {
	raw := strings.Join([]string{
		" {pre => post}/src/a.txt | 2 +-",
		" {pre => post}/.git | 2 +-",
		" post/docs/readme.md | 10 +++++-----",
		" 3 files changed, 8 insertions(+), 8 deletions(-)",
	}, "\n")

	got := NormalizeStatOutput(raw, "pre", "post")
	want := strings.Join([]string{
		" src/a.txt | 2 +-",
		" docs/readme.md | 10 +++++-----",
	}, "\n")
	assert.Equal(t, want, got)
}

// TestNormalizeStatOutputRename verifies that a genuine rename keeps its
// old => new display once both sides are canonical.
func TestNormalizeStatOutputRename(t *testing.T) {
	raw := " pre/src/old.txt => post/src/new.txt | 0\n"
	got := NormalizeStatOutput(raw, "pre", "post")
	assert.Equal(t, " src/old.txt => src/new.txt | 0", got)
}

func TestSplitStatPath(t *testing.T) {
	tests := []struct {
		in      string
		wantOld string
		wantNew string
	}{
		{"src/a.txt", "src/a.txt", "src/a.txt"},
		{"{pre => post}/src/a.txt", "pre/src/a.txt", "post/src/a.txt"},
		{"pre/old.txt => post/new.txt", "pre/old.txt", "post/new.txt"},
		{"src/{old.txt => new.txt}", "src/old.txt", "src/new.txt"},
	}

	for _, tt := range tests {
		gotOld, gotNew := splitStatPath(tt.in)
		assert.Equal(t, tt.wantOld, gotOld, "old side of %q", tt.in)
		assert.Equal(t, tt.wantNew, gotNew, "new side of %q", tt.in)
	}
}

// TestNormalizeStatOutputOnlyExcluded verifies that a stat result touching
// nothing but metadata normalizes to empty output.
func TestNormalizeStatOutputOnlyExcluded(t *testing.T) {
	raw := strings.Join([]string{
		" post/.git | 2 +-",
		" 1 file changed, 1 insertion(+), 1 deletion(-)",
	}, "\n")
	assert.Equal(t, "", NormalizeStatOutput(raw, "pre", "post"))
}

// TestNormalizePatchOutput runs a representative full patch through the
// stream transform: an excluded block that must vanish entirely, a file
// creation with a /dev/null marker, and a rename pair.
func TestNormalizePatchOutput(t *testing.T) {
	raw := strings.Join([]string{
		"diff --git a/pre/.git/config b/post/.git/config",
		"index 1111111..2222222 100644",
		"--- a/pre/.git/config",
		"+++ b/post/.git/config",
		"@@ -1 +1 @@",
		"-old",
		"+new",
		"diff --git a/pre/src/a.txt b/post/src/a.txt",
		"new file mode 100644",
		"index 0000000..3333333",
		"--- /dev/null",
		"+++ b/post/src/a.txt",
		"@@ -0,0 +1 @@",
		"+hello",
		"diff --git a/pre/src/old.txt b/post/src/new.txt",
		"similarity index 100%",
		"rename from pre/src/old.txt",
		"rename to post/src/new.txt",
	}, "\n")

	got := NormalizePatchOutput(raw, "pre", "post")
	want := strings.Join([]string{
		"diff --git a/src/a.txt b/src/a.txt",
		"new file mode 100644",
		"index 0000000..3333333",
		"--- /dev/null",
		"+++ b/src/a.txt",
		"@@ -0,0 +1 @@",
		"+hello",
		"diff --git a/src/old.txt b/src/new.txt",
		"similarity index 100%",
		"rename from src/old.txt",
		"rename to src/new.txt",
	}, "\n")
	assert.Equal(t, want, got)
}

// TestNormalizePatchOutputPreservesContent verifies that hunk content is
// untouched even when it resembles diff metadata.
func TestNormalizePatchOutputPreservesContent(t *testing.T) {
	raw := strings.Join([]string{
		"diff --git a/pre/notes.txt b/post/notes.txt",
		"index 1111111..2222222 100644",
		"--- a/pre/notes.txt",
		"+++ b/post/notes.txt",
		"@@ -1,2 +1,2 @@",
		" unchanged pre/notes.txt mention",
		"-removed line",
		"+added line",
	}, "\n")

	got := NormalizePatchOutput(raw, "pre", "post")

	// Content lines keep their worktree-path mentions; only metadata lines
	// are rewritten.
	assert.Contains(t, got, " unchanged pre/notes.txt mention")
	assert.Contains(t, got, "--- a/notes.txt")
	assert.Contains(t, got, "+++ b/notes.txt")
}

// TestNormalizePatchOutputEmpty verifies the no-difference case.
func TestNormalizePatchOutputEmpty(t *testing.T) {
	assert.Equal(t, "", NormalizePatchOutput("", "pre", "post"))
	assert.Equal(t, "", NormalizeNameOutput("", "pre", "post"))
	assert.Equal(t, "", NormalizeStatOutput("", "pre", "post"))
}
