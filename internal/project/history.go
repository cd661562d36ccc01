// internal/project/history.go
package project

import (
	"mvcs/internal/errors"
)

// Ancestry returns the chain from the given commit back to the root,
// target first. The walk is bounded by the commit count so a corrupt
// document with a parent cycle fails instead of looping.
func (p *Project) Ancestry(commitID string) ([]*Commit, error) {
	id, err := p.MatchCommitID(commitID)
	if err != nil {
		return nil, err
	}

	var chain []*Commit
	cur := id
	for hops := 0; ; hops++ {
		if hops >= len(p.Commits) {
			return nil, errors.Corrupt("ancestry of commit %s does not terminate", id)
		}
		c, ok := p.Commits[cur]
		if !ok {
			return nil, errors.Corrupt("commit %s references missing ancestor %s", id, cur)
		}
		chain = append(chain, c)
		if c.Parent == "" {
			break
		}
		cur = c.Parent
	}
	return chain, nil
}

// GetCommitItems folds ancestor changes, root first, into the item set
// visible at the given commit. The id may be a unique prefix.
func (p *Project) GetCommitItems(commitID string) (map[string]*Item, error) {
	chain, err := p.Ancestry(commitID)
	if err != nil {
		return nil, err
	}

	items := make(map[string]*Item)
	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		for _, change := range c.Changes {
			if change.From != "" && change.From == change.To {
				return nil, errors.Corrupt("commit %s carries a self-referencing change for item %s", c.ID, change.From)
			}
			if change.To != "" {
				item, ok := p.Items[change.To]
				if !ok {
					return nil, errors.Corrupt("commit %s references missing item %s", c.ID, change.To)
				}
				items[change.To] = item
			}
			if change.From != "" {
				delete(items, change.From)
			}
		}
	}
	return items, nil
}
