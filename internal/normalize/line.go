// line.go classifies diff output lines into a closed set of kinds and
// implements the per-kind rewrites. Classification happens exactly once per
// line; callers dispatch on the kind instead of re-testing prefixes.
package normalize

import "strings"

// LineKind identifies the role of a single line of diff output. Only the
// kinds listed here carry path tokens; everything else (index lines, hunk
// headers, content) is LinePlain and passes through untouched.
type LineKind int

const (
	// LinePlain is any line that carries no path token to rewrite.
	LinePlain LineKind = iota

	// LineHeader is a two-path file header ("diff --git a/x b/x").
	LineHeader

	// LineOldFile is an old-file marker ("--- a/x" or "--- /dev/null").
	LineOldFile

	// LineNewFile is a new-file marker ("+++ b/x" or "+++ /dev/null").
	LineNewFile

	// LineRenameFrom is a rename source line ("rename from x").
	LineRenameFrom

	// LineRenameTo is a rename destination line ("rename to x").
	LineRenameTo
)

// Line prefixes for classification. The header marker is the git two-path
// form; the file markers and rename lines are standard unified/extended
// diff metadata.
const (
	headerPrefix     = "diff --git "
	oldFilePrefix    = "--- "
	newFilePrefix    = "+++ "
	renameFromPrefix = "rename from "
	renameToPrefix   = "rename to "
)

// ClassifyLine assigns a LineKind to one line of diff output.
func ClassifyLine(line string) LineKind {
	switch {
	case strings.HasPrefix(line, headerPrefix):
		return LineHeader
	case strings.HasPrefix(line, oldFilePrefix):
		return LineOldFile
	case strings.HasPrefix(line, newFilePrefix):
		return LineNewFile
	case strings.HasPrefix(line, renameFromPrefix):
		return LineRenameFrom
	case strings.HasPrefix(line, renameToPrefix):
		return LineRenameTo
	default:
		return LinePlain
	}
}

// splitHeaderTokens tokenizes the two-path remainder of a diff header,
// respecting double-quote quoting so a quoted path containing spaces stays
// a single token. Backslash escapes inside quotes are honored when finding
// the closing quote; the token is returned with its quotes intact.
func splitHeaderTokens(s string) []string {
	var tokens []string
	i := 0
	n := len(s)

	for i < n {
		// Skip separating spaces.
		for i < n && s[i] == ' ' {
			i++
		}
		if i >= n {
			break
		}

		start := i
		if s[i] == '"' {
			// Quoted token: scan to the closing unescaped quote.
			i++
			for i < n {
				if s[i] == '\\' && i+1 < n {
					i += 2
					continue
				}
				if s[i] == '"' {
					i++
					break
				}
				i++
			}
		} else {
			for i < n && s[i] != ' ' {
				i++
			}
		}
		tokens = append(tokens, s[start:i])
	}

	return tokens
}

// HandleDiffHeader rewrites a file header line. It returns the normalized
// line, or drop=true when both sides resolve to excluded paths — in which
// case the caller must also drop every following line up to the next header,
// since they all belong to the excluded file.
//
// Headers that do not tokenize into exactly two paths are ambiguous (an
// unquoted path containing a space produces extra tokens) and pass through
// unchanged rather than being misparsed.
func HandleDiffHeader(line, preRoot, postRoot string) (out string, drop bool) {
	rest, ok := strings.CutPrefix(line, headerPrefix)
	if !ok {
		return line, false
	}

	tokens := splitHeaderTokens(rest)
	if len(tokens) != 2 {
		return line, false
	}

	oldPath := ExtractNormalizedPath(tokens[0], preRoot, postRoot)
	newPath := ExtractNormalizedPath(tokens[1], preRoot, postRoot)
	if IsExcludedPath(oldPath) || IsExcludedPath(newPath) {
		return "", true
	}

	return headerPrefix +
		NormalizeDiffToken(tokens[0], preRoot, postRoot) + " " +
		NormalizeDiffToken(tokens[1], preRoot, postRoot), false
}

// NormalizeMetadataLine rewrites the path portion of a file-marker or
// rename line. The /dev/null sentinel denotes file creation or deletion,
// not a real path, and passes through untouched.
func NormalizeMetadataLine(line string, kind LineKind, preRoot, postRoot string) string {
	var prefix string
	switch kind {
	case LineOldFile:
		prefix = oldFilePrefix
	case LineNewFile:
		prefix = newFilePrefix
	case LineRenameFrom:
		prefix = renameFromPrefix
	case LineRenameTo:
		prefix = renameToPrefix
	default:
		return line
	}

	tok := line[len(prefix):]
	if bare, _ := unquoteToken(tok); bare == devNull {
		return line
	}
	return prefix + NormalizeDiffToken(tok, preRoot, postRoot)
}
