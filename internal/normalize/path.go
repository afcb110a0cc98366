// path.go implements token-level normalization: unquoting, exclusion
// testing, and the conversion of a single path value from any of the
// coordinate systems found in diff output to the canonical
// repository-relative form.
package normalize

import (
	"path/filepath"
	"strings"
)

// gitMetadataDir is the version-control metadata directory whose contents
// must never appear in a delta. Paths equal to it or nested under it are
// dropped rather than rewritten.
const gitMetadataDir = ".git"

// unquoteToken strips surrounding double quotes and backslash escaping from
// a diff path token, returning the bare value and whether the token was
// quoted. Git C-quotes paths containing special characters; a quoted token
// escapes embedded backslashes and double quotes.
//
// Tokens that merely start with a quote but do not end with one are left
// as-is — mangling a malformed token would be worse than passing it through.
func unquoteToken(tok string) (string, bool) {
	if len(tok) < 2 || !strings.HasPrefix(tok, `"`) || !strings.HasSuffix(tok, `"`) {
		return tok, false
	}

	inner := tok[1 : len(tok)-1]
	var b strings.Builder
	b.Grow(len(inner))

	escaped := false
	for _, r := range inner {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	// A trailing lone backslash is kept literally rather than dropped.
	if escaped {
		b.WriteByte('\\')
	}

	return b.String(), true
}

// quoteToken wraps a path in double quotes, escaping embedded backslashes
// and double quotes. This mirrors the quoting git itself applies, so a
// rewritten token remains a valid diff path token.
func quoteToken(path string) string {
	var b strings.Builder
	b.Grow(len(path) + 2)
	b.WriteByte('"')
	for _, r := range path {
		if r == '\\' || r == '"' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// containsWhitespace reports whether the path needs quoting to survive as
// a single token in a space-separated diff header.
func containsWhitespace(path string) bool {
	return strings.ContainsAny(path, " \t")
}

// stripRootPrefix removes a leading exact match of root (plus separator)
// from the slash-normalized path. The root is tried in its given form and
// with a leading "./" removed, so both absolute and relative invocations
// of the diff tool are covered.
func stripRootPrefix(path, root string) (string, bool) {
	if root == "" {
		return path, false
	}

	candidates := []string{
		strings.TrimSuffix(filepath.ToSlash(root), "/"),
	}
	if trimmed := strings.TrimPrefix(candidates[0], "./"); trimmed != candidates[0] {
		candidates = append(candidates, trimmed)
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		if path == c {
			return "", true
		}
		if strings.HasPrefix(path, c+"/") {
			return path[len(c)+1:], true
		}
	}
	return path, false
}

// NormalizePathValue converts a raw path value to canonical
// repository-relative form:
//
//  1. strip surrounding quotes and backslash escaping
//  2. convert backslashes to forward slashes
//  3. strip a leading exact match of preRoot or postRoot plus separator
//  4. strip a leading "pre/" or "post/" worktree segment if still present
//
// Paths already in canonical form pass through unchanged, so the function
// is idempotent over its own output.
func NormalizePathValue(path, preRoot, postRoot string) string {
	p, _ := unquoteToken(path)
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")

	if stripped, ok := stripRootPrefix(p, preRoot); ok {
		p = stripped
	} else if stripped, ok := stripRootPrefix(p, postRoot); ok {
		p = stripped
	}

	// The worktree-internal directory names may survive root stripping when
	// the diff was invoked with relative paths.
	if rest, ok := strings.CutPrefix(p, "pre/"); ok {
		p = rest
	} else if rest, ok := strings.CutPrefix(p, "post/"); ok {
		p = rest
	}

	return p
}

// IsExcludedPath reports whether a path should be dropped from delta
// output entirely. Empty paths and anything equal to or nested under the
// version-control metadata directory are excluded, regardless of leading
// "a/", "b/", or "./" prefixes.
func IsExcludedPath(path string) bool {
	p, _ := unquoteToken(path)
	p = strings.ReplaceAll(p, "\\", "/")

	for {
		if rest, ok := strings.CutPrefix(p, "a/"); ok {
			p = rest
			continue
		}
		if rest, ok := strings.CutPrefix(p, "b/"); ok {
			p = rest
			continue
		}
		if rest, ok := strings.CutPrefix(p, "./"); ok {
			p = rest
			continue
		}
		break
	}

	if p == "" {
		return true
	}
	return p == gitMetadataDir || strings.HasPrefix(p, gitMetadataDir+"/")
}

// ExtractNormalizedPath returns the bare canonical path for a diff token:
// quotes removed, any diff-convention "a/" or "b/" prefix stripped, and the
// remainder normalized. This is the form exclusion decisions are made on.
func ExtractNormalizedPath(tok, preRoot, postRoot string) string {
	p, _ := unquoteToken(tok)
	p = strings.ReplaceAll(p, "\\", "/")

	if rest, ok := strings.CutPrefix(p, "a/"); ok {
		p = rest
	} else if rest, ok := strings.CutPrefix(p, "b/"); ok {
		p = rest
	}

	return NormalizePathValue(p, preRoot, postRoot)
}

// devNull is the diff sentinel for file creation and deletion. It is not a
// real path and must never be rewritten.
const devNull = "/dev/null"

// NormalizeDiffToken rewrites a diff path token for output: the path part
// is normalized while the original diff-convention prefix ("a/" or "b/")
// is reattached, and the result is re-quoted if the original token was
// quoted or the content contains whitespace.
func NormalizeDiffToken(tok, preRoot, postRoot string) string {
	bare, wasQuoted := unquoteToken(tok)
	if bare == devNull {
		return tok
	}
	bare = strings.ReplaceAll(bare, "\\", "/")

	prefix := ""
	if rest, ok := strings.CutPrefix(bare, "a/"); ok {
		prefix, bare = "a/", rest
	} else if rest, ok := strings.CutPrefix(bare, "b/"); ok {
		prefix, bare = "b/", rest
	}

	out := prefix + NormalizePathValue(bare, preRoot, postRoot)
	if wasQuoted || containsWhitespace(out) {
		return quoteToken(out)
	}
	return out
}
