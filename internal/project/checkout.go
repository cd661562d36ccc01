// internal/project/checkout.go
package project

import (
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"mvcs/internal/errors"
)

// Checkout reconciles the working tree to the item set of the given
// commit (a unique id prefix is accepted): files not in the target are
// deleted first, then every target item whose bytes differ from the
// tree is copied out of the blob pool. The current branch is left
// untouched, which detaches the tree unless the commit is the branch
// tip.
func (p *Project) Checkout(commitID string) error {
	id, err := p.MatchCommitID(commitID)
	if err != nil {
		return err
	}

	target, err := p.GetCommitItems(id)
	if err != nil {
		return err
	}

	targetByPath := make(map[string]*Item, len(target))
	for _, item := range target {
		targetByPath[item.Path] = item
	}

	tree, err := p.sp.ReadDirDeep(p.WorkingDir, p.ignoreGlobs()...)
	if err != nil {
		return err
	}

	for _, rel := range tree {
		abs := filepath.Join(p.WorkingDir, rel)
		if !p.sp.IsFile(abs) {
			continue
		}
		if _, ok := targetByPath[rel]; ok {
			continue
		}
		if err := p.sp.DeleteFileOrDir(abs); err != nil {
			return err
		}
	}

	paths := make([]string, 0, len(targetByPath))
	for path := range targetByPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		item := targetByPath[path]
		abs := filepath.Join(p.WorkingDir, path)

		blobHash, err := p.pool.BlobHash(item.Content)
		if err != nil {
			return err
		}
		if p.sp.Exists(abs) {
			fileHash, err := p.pool.FileHash(abs)
			if err != nil {
				return err
			}
			if fileHash == blobHash {
				continue
			}
		}
		if err := p.sp.CopyFile(p.pool.BlobPath(item.Content), abs); err != nil {
			return err
		}
	}

	p.CurrentCommitID = id

	p.log.Info("checked out commit",
		zap.String("commit", id),
		zap.Int("items", len(target)))
	return nil
}

// CheckoutBranch checks out the branch tip and makes the branch
// current.
func (p *Project) CheckoutBranch(name string) error {
	tip, ok := p.Branches[name]
	if !ok {
		return errors.NotFound("branch %q does not exist", name)
	}
	if _, ok := p.Commits[tip]; !ok {
		return errors.Corrupt("branch %q points at missing commit %s", name, tip)
	}

	if err := p.Checkout(tip); err != nil {
		return err
	}
	p.CurrentBranch = name
	return nil
}
