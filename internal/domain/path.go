package domain

import "strings"

// NormalizeDir converts a parent_dir value to forward-slash segments.
// Empty input, "." and "./" all map to RootDir.
func NormalizeDir(dir string) string {
	dir = strings.ReplaceAll(dir, `\`, "/")
	segs := SplitDir(dir)
	if len(segs) == 0 {
		return RootDir
	}
	return strings.Join(segs, "/")
}

// SplitDir returns the non-empty, non-"." segments of a slash separated path
func SplitDir(dir string) []string {
	raw := strings.Split(strings.ReplaceAll(dir, `\`, "/"), "/")
	segs := make([]string, 0, len(raw))
	for _, s := range raw {
		if s == "" || s == "." {
			continue
		}
		segs = append(segs, s)
	}
	return segs
}

// ParentOf returns the normalized parent of a normalized relative directory
func ParentOf(rel string) string {
	if rel == RootDir {
		return RootDir
	}
	i := strings.LastIndex(rel, "/")
	if i < 0 {
		return RootDir
	}
	return rel[:i]
}

// WithinDir reports whether the normalized directory rel is dir itself or lies below it.
// Matching is done on whole segments, so "foobar" is not within "foo".
func WithinDir(rel, dir string) bool {
	if dir == RootDir {
		return true
	}
	return rel == dir || strings.HasPrefix(rel, dir+"/")
}
