// internal/project/status.go
package project

import (
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"mvcs/internal/errors"
)

// Status is the diff between the working tree and the current commit.
// LastItems is the baseline item set, NewItems the placeholder items
// allocated for this scan (keyed by id), Changes the resulting deltas
// in scan order.
type Status struct {
	LastItems map[string]*Item
	NewItems  map[string]*Item
	Changes   []ItemChange
}

// Status computes added/modified/removed files against the current
// commit. With no arguments the whole working tree is scanned; with
// arguments only the named paths are. New and modified files get
// placeholder items whose blob is allocated at commit time, except that
// a new file whose bytes match a baseline blob reuses that blob id.
func (p *Project) Status(files ...string) (*Status, error) {
	if !p.sp.IsDir(p.Dir()) {
		return nil, errors.NotFound("project directory %s is missing", p.Dir())
	}

	lastItems := make(map[string]*Item)
	if p.CurrentCommitID != "" {
		var err error
		lastItems, err = p.GetCommitItems(p.CurrentCommitID)
		if err != nil {
			return nil, err
		}
	}

	lastByPath := make(map[string]*Item, len(lastItems))
	for _, item := range lastItems {
		lastByPath[item.Path] = item
	}

	candidates, err := p.statusCandidates(files, lastByPath)
	if err != nil {
		return nil, err
	}

	st := &Status{
		LastItems: lastItems,
		NewItems:  make(map[string]*Item),
	}

	for _, rel := range candidates {
		abs := filepath.Join(p.WorkingDir, rel)
		if p.sp.IsDir(abs) {
			continue
		}

		last := lastByPath[rel]

		if !p.sp.Exists(abs) {
			if last != nil {
				st.Changes = append(st.Changes, ItemChange{From: last.ID})
			}
			continue
		}

		newHash, err := p.pool.FileHash(abs)
		if err != nil {
			return nil, err
		}

		if last != nil {
			lastHash, err := p.pool.BlobHash(last.Content)
			if err != nil {
				return nil, err
			}
			if lastHash == newHash {
				continue
			}

			item := &Item{ID: p.ids.NewID(), Content: DummyContent, Path: rel}
			st.NewItems[item.ID] = item
			st.Changes = append(st.Changes, ItemChange{From: last.ID, To: item.ID})
			continue
		}

		// No baseline item at this path: either a brand-new file or a
		// copy/move of content the baseline already knows.
		blobID, err := p.findKnownContent(newHash, lastItems)
		if err != nil {
			return nil, err
		}

		item := &Item{ID: p.ids.NewID(), Content: DummyContent, Path: rel}
		if blobID != "" {
			item.Content = blobID
		}
		st.NewItems[item.ID] = item
		st.Changes = append(st.Changes, ItemChange{To: item.ID})
	}

	p.log.Debug("status computed",
		zap.Int("candidates", len(candidates)),
		zap.Int("changes", len(st.Changes)))
	return st, nil
}

// statusCandidates builds the deduplicated candidate list: the caller's
// paths verbatim, or the working tree followed by baseline paths that
// no longer exist on disk.
func (p *Project) statusCandidates(files []string, lastByPath map[string]*Item) ([]string, error) {
	if len(files) > 0 {
		seen := make(map[string]bool, len(files))
		out := make([]string, 0, len(files))
		for _, f := range files {
			if seen[f] {
				continue
			}
			seen[f] = true
			out = append(out, f)
		}
		return out, nil
	}

	tree, err := p.sp.ReadDirDeep(p.WorkingDir, p.ignoreGlobs()...)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(tree))
	out := make([]string, 0, len(tree)+len(lastByPath))
	for _, rel := range tree {
		if seen[rel] {
			continue
		}
		seen[rel] = true
		out = append(out, rel)
	}

	// Baseline paths gone from the tree come last, sorted, so the
	// change list stays deterministic.
	var missing []string
	for path := range lastByPath {
		if !seen[path] {
			missing = append(missing, path)
		}
	}
	sort.Strings(missing)
	return append(out, missing...), nil
}

// findKnownContent looks for a baseline blob whose bytes match hash and
// returns its id, or "" when the content is genuinely new. Items are
// scanned in path order so repeated runs allocate identically.
func (p *Project) findKnownContent(hash string, lastItems map[string]*Item) (string, error) {
	items := make([]*Item, 0, len(lastItems))
	for _, item := range lastItems {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })

	for _, item := range items {
		blobHash, err := p.pool.BlobHash(item.Content)
		if err != nil {
			return "", err
		}
		if blobHash == hash {
			return item.Content, nil
		}
	}
	return "", nil
}
