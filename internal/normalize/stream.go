// stream.go drives the token- and line-level transforms across full
// multi-line diff results: the name list, the stat summary, and the
// complete patch.
package normalize

import "strings"

// splitLines breaks raw tool output into lines, dropping the single empty
// element a trailing newline produces. Interior blank lines are preserved.
func splitLines(raw string) []string {
	lines := strings.Split(raw, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// NormalizeNameOutput converts name-only diff output into the canonical
// name list: one repository-relative path per line, blank lines skipped,
// excluded paths dropped. Line order is preserved from the tool output.
func NormalizeNameOutput(raw, preRoot, postRoot string) string {
	var out []string
	for _, line := range splitLines(raw) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		path := ExtractNormalizedPath(strings.TrimSpace(line), preRoot, postRoot)
		if IsExcludedPath(path) {
			continue
		}
		out = append(out, path)
	}
	return strings.Join(out, "\n")
}

// NormalizeStatOutput converts stat diff output into the canonical stat
// summary: one " <path> | <magnitude>" line per changed file, with the
// path rewritten and the magnitude kept verbatim. Lines without a path —
// the trailing "N files changed" total — are dropped, since the total
// counts entries (like version-control metadata) that normalization
// removes and would contradict the name list.
//
// Diffing two directories makes git render every pair in its rename
// display form, compacting the differing roots into braces
// ("{pre => post}/src/a.txt"). Both sides are expanded and normalized;
// pairs that collapse to the same canonical path render as that single
// path, genuine renames keep the "old => new" form.
func NormalizeStatOutput(raw, preRoot, postRoot string) string {
	var out []string
	for _, line := range splitLines(raw) {
		if strings.TrimSpace(line) == "" {
			continue
		}

		idx := strings.LastIndex(line, "|")
		if idx < 0 {
			continue
		}

		oldRaw, newRaw := splitStatPath(strings.TrimSpace(line[:idx]))
		oldPath := NormalizePathValue(oldRaw, preRoot, postRoot)
		newPath := NormalizePathValue(newRaw, preRoot, postRoot)
		if IsExcludedPath(oldPath) || IsExcludedPath(newPath) {
			continue
		}

		display := newPath
		if oldPath != newPath {
			display = oldPath + " => " + newPath
		}
		out = append(out, " "+display+" | "+strings.TrimSpace(line[idx+1:]))
	}
	return strings.Join(out, "\n")
}

// splitStatPath expands a stat path into its old and new sides. Git
// renders differing pairs either fully ("old => new") or compacted with
// the changed portion in braces ("prefix{A => B}suffix"); an unchanged
// path is its own old and new side.
func splitStatPath(p string) (oldPath, newPath string) {
	if i := strings.Index(p, "{"); i >= 0 {
		if j := strings.Index(p[i:], "}"); j >= 0 {
			if a, b, ok := strings.Cut(p[i+1:i+j], " => "); ok {
				prefix, suffix := p[:i], p[i+j+1:]
				return joinStatParts(prefix, a, suffix), joinStatParts(prefix, b, suffix)
			}
		}
	}
	if a, b, ok := strings.Cut(p, " => "); ok {
		return a, b
	}
	return p, p
}

// joinStatParts reassembles one side of a compacted stat path. An empty
// changed portion ("{ => post}/x") leaves a doubled or leading separator
// behind, which is collapsed here.
func joinStatParts(prefix, mid, suffix string) string {
	s := prefix + mid + suffix
	s = strings.ReplaceAll(s, "//", "/")
	if prefix == "" && mid == "" {
		s = strings.TrimPrefix(s, "/")
	}
	return s
}

// NormalizePatchOutput converts a full patch. Each line is classified once;
// header lines decide whether the block they open survives (both sides
// excluded drops the header and every line up to the next header), marker
// and rename lines get their path portion rewritten, and all other lines —
// hunks, content, index lines — pass through byte-for-byte.
func NormalizePatchOutput(raw, preRoot, postRoot string) string {
	var out []string
	skipping := false

	for _, line := range splitLines(raw) {
		kind := ClassifyLine(line)

		if kind == LineHeader {
			rewritten, drop := HandleDiffHeader(line, preRoot, postRoot)
			skipping = drop
			if !drop {
				out = append(out, rewritten)
			}
			continue
		}

		if skipping {
			continue
		}

		switch kind {
		case LineOldFile, LineNewFile, LineRenameFrom, LineRenameTo:
			out = append(out, NormalizeMetadataLine(line, kind, preRoot, postRoot))
		default:
			out = append(out, line)
		}
	}

	return strings.Join(out, "\n")
}
