package project_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvcs/internal/errors"
	"mvcs/internal/project"
	"mvcs/internal/storage"
)

// workingFiles lists the files currently in the tree, project directory
// excluded.
func workingFiles(t *testing.T, sp *storage.Local, dir string) map[string]bool {
	t.Helper()

	entries, err := sp.ReadDirDeep(dir, project.DirName+"/**")
	require.NoError(t, err)

	files := make(map[string]bool)
	for _, rel := range entries {
		if sp.IsFile(filepath.Join(dir, rel)) {
			files[rel] = true
		}
	}
	return files
}

func TestCheckoutRoundTrip(t *testing.T) {
	p, sp, dir := newTestProject(t)

	writeFile(t, sp, dir, "file1.txt", "First line ever")
	c1, err := p.Commit("JEST", "Initial Commit", "")
	require.NoError(t, err)

	writeFile(t, sp, dir, "file1.txt", "First line ever\nSecond line")
	c2, err := p.Commit("JEST", "Second Commit", "")
	require.NoError(t, err)

	require.NoError(t, sp.MoveFile(
		filepath.Join(dir, "file1.txt"),
		filepath.Join(dir, "subdir1", "file1.txt")))
	c3, err := p.Commit("JEST", "Move", "")
	require.NoError(t, err)

	writeFile(t, sp, dir, "file2.txt", "Another file")
	c4, err := p.Commit("JEST", "Add second file", "")
	require.NoError(t, err)

	for _, c := range []*project.Commit{c1, c2, c3, c4, c1, c4} {
		require.NoError(t, p.Checkout(c.ID))

		assert.Equal(t, c.ID, p.CurrentCommitID)
		assert.Equal(t, project.DefaultBranchName, p.CurrentBranch)

		items, err := p.GetCommitItems(c.ID)
		require.NoError(t, err)

		expected := make(map[string]bool, len(items))
		for _, item := range items {
			expected[item.Path] = true

			blob := readFile(t, dir, filepath.Join(project.DirName, project.ContentsDirName, item.Content))
			assert.Equal(t, blob, readFile(t, dir, item.Path),
				"contents of %s at commit %s", item.Path, c.ID)
		}
		assert.Equal(t, expected, workingFiles(t, sp, dir), "file set at commit %s", c.ID)
	}
}

func TestCheckoutLeavesBranchDetached(t *testing.T) {
	p, sp, dir := newTestProject(t)

	writeFile(t, sp, dir, "file1.txt", "one")
	first, err := p.Commit("JEST", "First", "")
	require.NoError(t, err)

	writeFile(t, sp, dir, "file1.txt", "two")
	second, err := p.Commit("JEST", "Second", "")
	require.NoError(t, err)

	require.NoError(t, p.Checkout(first.ID))

	// The branch still points at its tip; only the current commit moved.
	assert.Equal(t, second.ID, p.Branches[p.CurrentBranch])
	assert.Equal(t, first.ID, p.CurrentCommitID)
	assert.Equal(t, "one", readFile(t, dir, "file1.txt"))
}

func TestCheckoutBranchRealignsTip(t *testing.T) {
	p, sp, dir := newTestProject(t)

	writeFile(t, sp, dir, "file1.txt", "one")
	first, err := p.Commit("JEST", "First", "")
	require.NoError(t, err)

	writeFile(t, sp, dir, "file1.txt", "two")
	second, err := p.Commit("JEST", "Second", "")
	require.NoError(t, err)

	require.NoError(t, p.Checkout(first.ID))
	require.NoError(t, p.CheckoutBranch(project.DefaultBranchName))

	assert.Equal(t, second.ID, p.CurrentCommitID)
	assert.Equal(t, project.DefaultBranchName, p.CurrentBranch)
	assert.Equal(t, "two", readFile(t, dir, "file1.txt"))
}

func TestCheckoutBranchUnknownFails(t *testing.T) {
	p, sp, dir := newTestProject(t)

	writeFile(t, sp, dir, "file1.txt", "one")
	_, err := p.Commit("JEST", "First", "")
	require.NoError(t, err)

	err = p.CheckoutBranch("nope")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}
