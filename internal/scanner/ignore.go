package scanner

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Rules decides which relative paths the scanner skips.
type Rules struct {
	static   map[string]bool
	patterns []string
}

// LoadRules reads glob patterns from the ignore file at path, one per line,
// skipping blanks and # comments. Defaults apply even when the file is
// missing.
func LoadRules(path string, defaults []string) *Rules {
	r := &Rules{static: make(map[string]bool)}

	for _, d := range defaults {
		r.add(d)
	}

	f, err := os.Open(path)
	if err != nil {
		return r
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r.add(line)
	}
	return r
}

func (r *Rules) add(pattern string) {
	pattern = filepath.ToSlash(filepath.Clean(pattern))
	if strings.ContainsAny(pattern, "*?[") {
		r.patterns = append(r.patterns, pattern)
		return
	}
	r.static[pattern] = true
}

// Ignored reports whether the slash-separated relative path matches any rule.
// A rule matching a path also matches everything below it.
func (r *Rules) Ignored(rel string) bool {
	if r == nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	if r.static[rel] {
		return true
	}
	for p := range r.static {
		if strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	for _, pat := range r.patterns {
		if Match(pat, rel) || matchBase(pat, rel) {
			return true
		}
	}
	return false
}

// matchBase applies a bare pattern (no slash) to the last path segment, so
// "*.tmp" ignores nested temp files the way git does.
func matchBase(pattern, rel string) bool {
	if strings.Contains(pattern, "/") {
		return false
	}
	ok, _ := filepath.Match(pattern, rel[strings.LastIndexByte(rel, '/')+1:])
	return ok
}

// Match matches a git-like glob against a slash-separated path. * and ? stay
// within one segment; ** spans segments.
func Match(pattern, path string) bool {
	pattern = filepath.ToSlash(pattern)
	path = filepath.ToSlash(path)
	return matchSegments(strings.Split(pattern, "/"), strings.Split(path, "/"))
}

func matchSegments(pats, parts []string) bool {
	for len(pats) > 0 {
		p := pats[0]
		pats = pats[1:]

		if p == "**" {
			if len(pats) == 0 {
				return true
			}
			for i := 0; i <= len(parts); i++ {
				if matchSegments(pats, parts[i:]) {
					return true
				}
			}
			return false
		}

		if len(parts) == 0 {
			return false
		}

		ok, _ := filepath.Match(p, parts[0])
		if !ok {
			return false
		}
		parts = parts[1:]
	}
	return len(parts) == 0
}
