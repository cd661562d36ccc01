// internal/project/commit.go
package project

import (
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"mvcs/internal/errors"
)

// Commit records the current status as a new commit on the current
// branch. With no files the whole tree is committed. The caller is
// responsible for calling Save afterwards.
func (p *Project) Commit(authorID, title, description string, files ...string) (*Commit, error) {
	// Committing is only legal at the branch tip; a checkout to an
	// older commit detaches the tree until a branch is checked out
	// again.
	if len(p.Commits) > 0 {
		tip, ok := "", false
		if p.CurrentBranch != "" {
			tip, ok = p.Branches[p.CurrentBranch]
		}
		if !ok || tip != p.CurrentCommitID {
			return nil, errors.InvalidState("Cannot commit when not at the branch")
		}
	}

	st, err := p.Status(files...)
	if err != nil {
		return nil, err
	}

	// Promote placeholder items: allocate (or deduplicate) their blobs
	// and enter them into the items table, in change order.
	for _, change := range st.Changes {
		if change.To == "" {
			continue
		}
		item := st.NewItems[change.To]
		if item.Content == DummyContent {
			blobID, err := p.pool.Add(filepath.Join(p.WorkingDir, item.Path), p.knownBlobs())
			if err != nil {
				return nil, err
			}
			item.Content = blobID
		}
		p.Items[item.ID] = item
	}

	changes := st.Changes
	if changes == nil {
		changes = []ItemChange{}
	}

	commit := &Commit{
		ID:          p.ids.NewID(),
		Parent:      p.CurrentCommitID,
		Children:    []string{},
		AuthorID:    authorID,
		Title:       title,
		Description: description,
		Date:        p.clock.Now(),
		Changes:     changes,
	}

	if len(p.Commits) == 0 {
		p.RootCommitID = commit.ID
		if p.CurrentBranch == "" {
			p.CurrentBranch = DefaultBranchName
		}
		if p.DefaultBranch == "" {
			p.DefaultBranch = p.CurrentBranch
		}
	}

	p.Commits[commit.ID] = commit
	if commit.Parent != "" {
		if parent, ok := p.Commits[commit.Parent]; ok {
			parent.Children = append(parent.Children, commit.ID)
		}
	}
	p.Branches[p.CurrentBranch] = commit.ID
	p.CurrentCommitID = commit.ID

	p.log.Info("commit recorded",
		zap.String("commit", commit.ID),
		zap.String("branch", p.CurrentBranch),
		zap.Int("changes", len(commit.Changes)))
	return commit, nil
}

// knownBlobs returns the distinct blob ids referenced by the items
// table, sorted so dedup scans are repeatable.
func (p *Project) knownBlobs() []string {
	seen := make(map[string]bool, len(p.Items))
	ids := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		if seen[item.Content] {
			continue
		}
		seen[item.Content] = true
		ids = append(ids, item.Content)
	}
	sort.Strings(ids)
	return ids
}
