// internal/project/branch.go
package project

import (
	"strings"

	"mvcs/internal/errors"
)

// MinCommitPrefix is the shortest commit id prefix Checkout and friends
// resolve.
const MinCommitPrefix = 6

// MatchCommitID resolves a commit id prefix to the full id. Exactly one
// known commit must match.
func (p *Project) MatchCommitID(prefix string) (string, error) {
	if len(prefix) < MinCommitPrefix {
		return "", errors.TooShort("commit ID prefix %q is shorter than %d characters", prefix, MinCommitPrefix)
	}

	// An exact id always resolves to itself, even when it is also a
	// prefix of other ids.
	if _, ok := p.Commits[prefix]; ok {
		return prefix, nil
	}

	var candidates []string
	for id := range p.Commits {
		if strings.HasPrefix(id, prefix) {
			candidates = append(candidates, id)
		}
	}

	switch len(candidates) {
	case 0:
		return "", errors.NotFound("No ID candidate for %s found", prefix)
	case 1:
		return candidates[0], nil
	default:
		return "", errors.Ambiguous("Multiple ID candidates were found for %s", prefix)
	}
}

// CreateBranch points a new branch at the current commit.
func (p *Project) CreateBranch(name string) error {
	if len(p.Commits) == 0 {
		return errors.InvalidState("cannot create branch %q before the first commit", name)
	}
	if p.CurrentCommitID == "" {
		return errors.InvalidState("current commit is not set")
	}
	if _, ok := p.Branches[name]; ok {
		return errors.AlreadyExists("branch %q already exists", name)
	}

	p.Branches[name] = p.CurrentCommitID
	if p.DefaultBranch == "" {
		p.DefaultBranch = name
	}
	return nil
}

// DeleteBranch removes a branch. The last branch, the current branch
// and the default branch are protected.
func (p *Project) DeleteBranch(name string) error {
	if _, ok := p.Branches[name]; !ok {
		return errors.NotFound("branch %q does not exist", name)
	}
	if len(p.Branches) == 1 {
		return errors.InvalidState("cannot delete the only branch %q", name)
	}
	if name == p.CurrentBranch {
		return errors.InvalidState("cannot delete the current branch %q", name)
	}
	if name == p.DefaultBranch {
		return errors.InvalidState("cannot delete the default branch %q", name)
	}

	delete(p.Branches, name)
	return nil
}

// RenameBranch re-keys a branch, following the current and default
// pointers along.
func (p *Project) RenameBranch(oldName, newName string) error {
	tip, ok := p.Branches[oldName]
	if !ok {
		return errors.NotFound("branch %q does not exist", oldName)
	}
	if _, ok := p.Branches[newName]; ok {
		return errors.AlreadyExists("branch %q already exists", newName)
	}

	delete(p.Branches, oldName)
	p.Branches[newName] = tip

	if p.CurrentBranch == oldName {
		p.CurrentBranch = newName
	}
	if p.DefaultBranch == oldName {
		p.DefaultBranch = newName
	}
	return nil
}

// SetDefaultBranch marks an existing branch as the default.
func (p *Project) SetDefaultBranch(name string) error {
	if _, ok := p.Branches[name]; !ok {
		return errors.NotFound("branch %q does not exist", name)
	}
	p.DefaultBranch = name
	return nil
}

// CurrentCommit returns the commit the working tree is aligned with, or
// nil for a project without commits.
func (p *Project) CurrentCommit() (*Commit, error) {
	if p.CurrentCommitID == "" {
		if len(p.Commits) > 0 {
			return nil, errors.InvalidState("current commit is not set")
		}
		return nil, nil
	}
	return p.requireCommit(p.CurrentCommitID)
}
