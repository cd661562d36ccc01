// internal/project/dump.go
package project

import (
	"encoding/json"
	"path/filepath"

	"mvcs/internal/errors"
)

// projectDump is the wire shape of project.json. Loading copies only
// the recognized fields into the aggregate; anything else in the
// document is dropped silently.
type projectDump struct {
	ID              string             `json:"id"`
	AuthorID        string             `json:"authorId"`
	Title           string             `json:"title"`
	Description     string             `json:"description,omitempty"`
	Branches        map[string]string  `json:"branches"`
	DefaultBranch   string             `json:"defaultBranch,omitempty"`
	CurrentBranch   string             `json:"currentBranch,omitempty"`
	Commits         map[string]*Commit `json:"commits"`
	RootCommitID    string             `json:"rootCommitId,omitempty"`
	CurrentCommitID string             `json:"currentCommitId,omitempty"`
	Items           map[string]*Item   `json:"items"`
}

// marshalDump serializes the aggregate. Item paths are normalized to
// forward slashes so the document stays portable across hosts.
func marshalDump(p *Project) ([]byte, error) {
	d := &projectDump{
		ID:              p.ID,
		AuthorID:        p.AuthorID,
		Title:           p.Title,
		Description:     p.Description,
		Branches:        p.Branches,
		DefaultBranch:   p.DefaultBranch,
		CurrentBranch:   p.CurrentBranch,
		Commits:         p.Commits,
		RootCommitID:    p.RootCommitID,
		CurrentCommitID: p.CurrentCommitID,
		Items:           make(map[string]*Item, len(p.Items)),
	}
	if d.Branches == nil {
		d.Branches = map[string]string{}
	}
	if d.Commits == nil {
		d.Commits = map[string]*Commit{}
	}
	for id, item := range p.Items {
		d.Items[id] = &Item{
			ID:      item.ID,
			Content: item.Content,
			Path:    filepath.ToSlash(item.Path),
		}
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, errors.IO(err, "serializing project")
	}
	return data, nil
}

// applyDump parses data and copies every recognized field into p. Item
// paths come back in host separators.
func applyDump(data []byte, p *Project) error {
	var d projectDump
	if err := json.Unmarshal(data, &d); err != nil {
		return errors.Corrupt("parsing project file: %v", err)
	}

	p.ID = d.ID
	p.AuthorID = d.AuthorID
	p.Title = d.Title
	p.Description = d.Description
	p.DefaultBranch = d.DefaultBranch
	p.CurrentBranch = d.CurrentBranch
	p.RootCommitID = d.RootCommitID
	p.CurrentCommitID = d.CurrentCommitID

	if d.Branches != nil {
		p.Branches = d.Branches
	}
	if d.Commits != nil {
		p.Commits = d.Commits
		for _, c := range p.Commits {
			if c.Children == nil {
				c.Children = []string{}
			}
			if c.Changes == nil {
				c.Changes = []ItemChange{}
			}
		}
	}
	if d.Items != nil {
		p.Items = d.Items
		for _, item := range p.Items {
			item.Path = filepath.FromSlash(item.Path)
		}
	}
	return nil
}
