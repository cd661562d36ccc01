// internal/storage/ignore.go
package storage

import (
	"strings"

	"github.com/gobwas/glob"

	"mvcs/internal/errors"
)

// ignoreSet holds compiled ignore globs. A pattern ending in "/**" also
// matches the directory itself so the walk can prune it.
type ignoreSet struct {
	matchers []glob.Glob
}

func compileIgnore(patterns []string) (*ignoreSet, error) {
	set := &ignoreSet{}
	for _, pattern := range patterns {
		matcher, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.IO(err, "compiling ignore pattern %q", pattern)
		}
		set.matchers = append(set.matchers, matcher)

		if base, ok := strings.CutSuffix(pattern, "/**"); ok {
			dirMatcher, err := glob.Compile(base, '/')
			if err != nil {
				return nil, errors.IO(err, "compiling ignore pattern %q", base)
			}
			set.matchers = append(set.matchers, dirMatcher)
		}
	}
	return set, nil
}

func (s *ignoreSet) match(rel string) bool {
	for _, m := range s.matchers {
		if m.Match(rel) {
			return true
		}
	}
	return false
}
