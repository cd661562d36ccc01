package project_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mvcs/internal/errors"
	"mvcs/internal/ident"
	"mvcs/internal/project"
	"mvcs/internal/storage"
)

const testStamp = "2025-01-01T00:00:00.000Z"

func newTestProject(t *testing.T) (*project.Project, *storage.Local, string) {
	t.Helper()

	dir := t.TempDir()
	sp := storage.NewLocal(zap.NewNop())

	p, err := project.Create(sp, dir, "JEST", "JEST_PROJECT", "", project.Options{
		IDs:   ident.NewSequence("uuid"),
		Clock: ident.FixedClock{Stamp: testStamp},
	})
	require.NoError(t, err)
	return p, sp, dir
}

func writeFile(t *testing.T, sp *storage.Local, dir, rel, content string) {
	t.Helper()
	require.NoError(t, sp.CreateFile(filepath.Join(dir, rel), []byte(content)))
}

func readFile(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, rel))
	require.NoError(t, err)
	return string(data)
}

func TestCreateWritesProjectFile(t *testing.T) {
	p, _, dir := newTestProject(t)

	assert.Equal(t, "uuid-0", p.ID)

	raw := readFile(t, dir, filepath.Join(project.DirName, project.ProjectFileName))
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, "uuid-0", doc["id"])
	assert.Equal(t, "JEST", doc["authorId"])
	assert.Equal(t, "JEST_PROJECT", doc["title"])
	assert.Equal(t, map[string]any{}, doc["branches"])
	assert.Equal(t, map[string]any{}, doc["commits"])
	assert.Equal(t, map[string]any{}, doc["items"])
	assert.NotContains(t, doc, "currentCommitId")
	assert.NotContains(t, doc, "description")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p, sp, dir := newTestProject(t)

	writeFile(t, sp, dir, "file1.txt", "First line ever")
	writeFile(t, sp, dir, filepath.Join("subdir1", "file2.txt"), "Second file")

	_, err := p.Commit("JEST", "Initial Commit", "two files")
	require.NoError(t, err)
	require.NoError(t, p.Save())

	loaded, err := project.Load(sp, dir, project.Options{})
	require.NoError(t, err)

	assert.Equal(t, p.ID, loaded.ID)
	assert.Equal(t, p.AuthorID, loaded.AuthorID)
	assert.Equal(t, p.Title, loaded.Title)
	assert.Equal(t, p.Branches, loaded.Branches)
	assert.Equal(t, p.DefaultBranch, loaded.DefaultBranch)
	assert.Equal(t, p.CurrentBranch, loaded.CurrentBranch)
	assert.Equal(t, p.Commits, loaded.Commits)
	assert.Equal(t, p.RootCommitID, loaded.RootCommitID)
	assert.Equal(t, p.CurrentCommitID, loaded.CurrentCommitID)
	assert.Equal(t, p.Items, loaded.Items)
	assert.Equal(t, dir, loaded.WorkingDir)
}

func TestLoadIgnoresUnknownFields(t *testing.T) {
	dir := t.TempDir()
	sp := storage.NewLocal(zap.NewNop())

	doc := `{
		"id": "uuid-0",
		"authorId": "JEST",
		"title": "JEST_PROJECT",
		"branches": {},
		"commits": {},
		"items": {},
		"futureField": {"nested": true},
		"anotherOne": 42
	}`
	require.NoError(t, sp.CreateFile(filepath.Join(dir, project.DirName, project.ProjectFileName), []byte(doc)))

	p, err := project.Load(sp, dir, project.Options{})
	require.NoError(t, err)
	assert.Equal(t, "uuid-0", p.ID)
	assert.Equal(t, "JEST", p.AuthorID)
	assert.Empty(t, p.Commits)
}

func TestLoadMalformedDocumentFails(t *testing.T) {
	dir := t.TempDir()
	sp := storage.NewLocal(zap.NewNop())

	require.NoError(t, sp.CreateFile(filepath.Join(dir, project.DirName, project.ProjectFileName), []byte("{not json")))

	_, err := project.Load(sp, dir, project.Options{})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindCorrupt))
}

func TestLoadMissingDocumentFails(t *testing.T) {
	dir := t.TempDir()
	sp := storage.NewLocal(zap.NewNop())

	_, err := project.Load(sp, dir, project.Options{})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindIO))
}

func TestSaveOverwritesAtomically(t *testing.T) {
	p, _, dir := newTestProject(t)

	p.Title = "RENAMED"
	require.NoError(t, p.Save())

	raw := readFile(t, dir, filepath.Join(project.DirName, project.ProjectFileName))
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "RENAMED", doc["title"])

	// No stray temp file is left behind.
	_, err := os.Stat(filepath.Join(dir, project.DirName, project.ProjectFileName+".tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestItemPathsPersistWithForwardSlashes(t *testing.T) {
	p, sp, dir := newTestProject(t)

	writeFile(t, sp, dir, filepath.Join("subdir1", "file2.txt"), "nested")
	_, err := p.Commit("JEST", "Nested file", "")
	require.NoError(t, err)
	require.NoError(t, p.Save())

	raw := readFile(t, dir, filepath.Join(project.DirName, project.ProjectFileName))
	assert.Contains(t, raw, "subdir1/file2.txt")
	assert.NotContains(t, raw, `subdir1\\file2.txt`)
}
