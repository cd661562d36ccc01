package project_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvcs/internal/errors"
	"mvcs/internal/project"
)

func TestMatchCommitID(t *testing.T) {
	p, sp, dir := newTestProject(t)

	writeFile(t, sp, dir, "file1.txt", "one")
	first, err := p.Commit("JEST", "First", "")
	require.NoError(t, err)

	t.Run("full id resolves to itself", func(t *testing.T) {
		id, err := p.MatchCommitID(first.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, id)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := p.MatchCommitID("uuid-")
		require.Error(t, err)
		assert.True(t, errors.IsKind(err, errors.KindTooShort))
	})

	t.Run("no candidate", func(t *testing.T) {
		_, err := p.MatchCommitID("zzzzzz")
		require.Error(t, err)
		assert.True(t, errors.IsKind(err, errors.KindNotFound))
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		p.Commits["deadbeef-1"] = &project.Commit{ID: "deadbeef-1"}
		p.Commits["deadbeef-2"] = &project.Commit{ID: "deadbeef-2"}
		defer delete(p.Commits, "deadbeef-1")
		defer delete(p.Commits, "deadbeef-2")

		_, err := p.MatchCommitID("deadbe")
		require.Error(t, err)
		assert.True(t, errors.IsKind(err, errors.KindAmbiguous))
	})

	t.Run("unique prefix", func(t *testing.T) {
		p.Commits["deadbeef-1"] = &project.Commit{ID: "deadbeef-1"}
		defer delete(p.Commits, "deadbeef-1")

		id, err := p.MatchCommitID("deadbe")
		require.NoError(t, err)
		assert.Equal(t, "deadbeef-1", id)
	})
}

func TestBranchLifecycle(t *testing.T) {
	p, sp, dir := newTestProject(t)

	writeFile(t, sp, dir, "file1.txt", "one")
	first, err := p.Commit("JEST", "First", "")
	require.NoError(t, err)

	// Re-creating the implicit main branch collides.
	err = p.CreateBranch(project.DefaultBranchName)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindAlreadyExists))

	require.NoError(t, p.CreateBranch("dev"))
	assert.Equal(t, first.ID, p.Branches["dev"])

	err = p.SetDefaultBranch("not-a-branch")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))

	require.NoError(t, p.SetDefaultBranch("dev"))
	assert.Equal(t, "dev", p.DefaultBranch)

	require.NoError(t, p.CheckoutBranch("dev"))
	assert.Equal(t, "dev", p.CurrentBranch)

	// Committing on dev advances only dev.
	writeFile(t, sp, dir, "file1.txt", "two")
	second, err := p.Commit("JEST", "On dev", "")
	require.NoError(t, err)
	assert.Equal(t, second.ID, p.Branches["dev"])
	assert.Equal(t, first.ID, p.Branches[project.DefaultBranchName])

	// dev is both current and default, so deletion is blocked twice
	// over.
	err = p.DeleteBranch("dev")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindInvalidState))

	require.NoError(t, p.CheckoutBranch(project.DefaultBranchName))
	require.NoError(t, p.SetDefaultBranch(project.DefaultBranchName))
	require.NoError(t, p.DeleteBranch("dev"))
	assert.NotContains(t, p.Branches, "dev")

	// The last branch cannot go.
	err = p.DeleteBranch(project.DefaultBranchName)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindInvalidState))
}

func TestDeleteUnknownBranchFails(t *testing.T) {
	p, sp, dir := newTestProject(t)

	writeFile(t, sp, dir, "file1.txt", "one")
	_, err := p.Commit("JEST", "First", "")
	require.NoError(t, err)

	err = p.DeleteBranch("ghost")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestRenameBranchFollowsPointers(t *testing.T) {
	p, sp, dir := newTestProject(t)

	writeFile(t, sp, dir, "file1.txt", "one")
	first, err := p.Commit("JEST", "First", "")
	require.NoError(t, err)

	require.NoError(t, p.RenameBranch(project.DefaultBranchName, "trunk"))
	assert.Equal(t, first.ID, p.Branches["trunk"])
	assert.NotContains(t, p.Branches, project.DefaultBranchName)
	assert.Equal(t, "trunk", p.CurrentBranch)
	assert.Equal(t, "trunk", p.DefaultBranch)

	err = p.RenameBranch("ghost", "whatever")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))

	require.NoError(t, p.CreateBranch("dev"))
	err = p.RenameBranch("dev", "trunk")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindAlreadyExists))
}

func TestCreateBranchBeforeFirstCommitFails(t *testing.T) {
	p, _, _ := newTestProject(t)

	err := p.CreateBranch("early")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindInvalidState))
}

func TestCurrentCommit(t *testing.T) {
	p, sp, dir := newTestProject(t)

	c, err := p.CurrentCommit()
	require.NoError(t, err)
	assert.Nil(t, c)

	writeFile(t, sp, dir, "file1.txt", "one")
	first, err := p.Commit("JEST", "First", "")
	require.NoError(t, err)

	c, err = p.CurrentCommit()
	require.NoError(t, err)
	assert.Equal(t, first, c)

	// A current pointer at a vanished commit is a corrupt aggregate.
	p.CurrentCommitID = "uuid-gone"
	_, err = p.CurrentCommit()
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindCorrupt))

	// Commits exist but no current commit is an inconsistent state.
	p.CurrentCommitID = ""
	_, err = p.CurrentCommit()
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindInvalidState))
}
