// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package rulings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtes-biased/rulings-website/internal/rulings"
)

/*
TestInsertReference tests reference insertion, including the automatic
same-day suffix assignment.
*/
func TestInsertReference(t *testing.T) {
	m := testManager(t)

	// 1. A fresh uid is stored as is, state NEW
	ref, err := m.InsertReference("ANK 20200101", "https://www.vekn.net/forum/rules-questions/500")
	require.NoError(t, err)
	assert.Equal(t, "ANK 20200101", ref.UID)
	assert.Equal(t, rulings.StateNew, ref.State)

	// 2. A taken uid gets the next numeric suffix
	ref, err = m.InsertReference(refLSJ, "https://www.vekn.net/forum/rules-questions/501")
	require.NoError(t, err)
	assert.Equal(t, "LSJ 20001225-2", ref.UID)
	ref, err = m.InsertReference(refLSJ, "https://www.vekn.net/forum/rules-questions/502")
	require.NoError(t, err)
	assert.Equal(t, "LSJ 20001225-3", ref.UID)

	// 3. Structural problems are format errors
	_, err = m.InsertReference("", "https://www.vekn.net/x")
	assert.True(t, rulings.IsFormatError(err))
	_, err = m.InsertReference("LSJ20001225", "https://www.vekn.net/x")
	assert.True(t, rulings.IsFormatError(err))

	// 4. The rulebook set is closed
	_, err = m.InsertReference("RBK Errata", "https://www.vekn.net/rulebook")
	assert.True(t, rulings.IsConsistencyError(err))

	// 5. A url cited by a live reference is rejected
	_, err = m.InsertReference("ANK 20200102", urlANK)
	assert.True(t, rulings.IsConsistencyError(err))

	// 6. A date outside the source tenure is rejected
	_, err = m.InsertReference("LSJ 20200101", "https://www.vekn.net/forum/rules-questions/503")
	assert.True(t, rulings.IsConsistencyError(err))
}

/*
TestDeleteReference tests outright removal vs tombstoning.
*/
func TestDeleteReference(t *testing.T) {
	m := testManager(t)

	// NEW references disappear without a trace
	_, err := m.InsertReference("ANK 20200101", "https://www.vekn.net/forum/rules-questions/500")
	require.NoError(t, err)
	require.NoError(t, m.DeleteReference("ANK 20200101"))
	assert.Empty(t, m.Proposal().References)

	// base references get a tombstone
	require.NoError(t, m.DeleteReference(refANK))
	tomb := m.Proposal().References[refANK]
	require.NotNil(t, tomb)
	assert.Equal(t, rulings.StateDeleted, tomb.State)

	// the rulebook is protected
	err = m.DeleteReference(refRBK)
	assert.True(t, rulings.IsConsistencyError(err))

	err = m.DeleteReference("ANK 20300101")
	assert.True(t, rulings.IsNotFound(err))
}

/*
TestInsertRuling tests ruling insertion and the unresolvable token scenario:
a citation of a missing reference fails naming the token, and succeeds once
the reference is added to the overlay.
*/
func TestInsertRuling(t *testing.T) {
	m := testManager(t)
	text := "Can be played on a vampire in torpor. [ANK 20210101]"

	// 1. The missing reference aborts the insertion, naming the token
	_, err := m.InsertRuling("100515", text)
	require.Error(t, err)
	assert.True(t, rulings.IsFormatError(err))
	assert.Contains(t, err.Error(), "[ANK 20210101]")
	assert.Empty(t, m.Proposal().Rulings)

	// 2. After inserting the reference, the same text goes through
	_, err = m.InsertReference("ANK 20210101", "https://www.vekn.net/forum/rules-questions/600")
	require.NoError(t, err)
	ruling, err := m.InsertRuling("100515", text)
	require.NoError(t, err)
	assert.Equal(t, rulings.StateNew, ruling.State)
	assert.Equal(t, rulings.StableHash(text), ruling.UID)
	require.Len(t, ruling.References, 1)
	assert.Equal(t, "ANK 20210101", ruling.References[0].UID)
	assert.Equal(t, "https://www.vekn.net/forum/rules-questions/600", ruling.References[0].URL)

	// 3. Identical text on the same target is rejected, in overlay or base
	_, err = m.InsertRuling("100515", text)
	assert.True(t, rulings.IsConsistencyError(err))
	_, err = m.InsertRuling("100038", "The ability can prevent damage from a [pot] strike. [LSJ 20001225]")
	assert.True(t, rulings.IsConsistencyError(err))

	// 4. Unknown targets report not found
	_, err = m.InsertRuling("999999", text)
	assert.True(t, rulings.IsNotFound(err))
}

/*
TestUpdateRuling tests the three content-addressed update cases.
*/
func TestUpdateRuling(t *testing.T) {
	baseText := "The ability can prevent damage from a [pot] strike. [LSJ 20001225]"
	baseUID := rulings.StableHash(baseText)

	t.Run("editing_a_draft_stays_new", func(t *testing.T) {
		m := testManager(t)
		draft, err := m.InsertRuling("100515", "First wording. [LSJ 20001225]")
		require.NoError(t, err)

		edited, err := m.UpdateRuling("100515", draft.UID, "Second wording. [LSJ 20001225]")
		require.NoError(t, err)
		assert.Equal(t, rulings.StateNew, edited.State)
		assert.NotEqual(t, draft.UID, edited.UID)
		// the draft is fully replaced, not superseded
		_, err = m.GetRuling("100515", draft.UID, true)
		assert.True(t, rulings.IsNotFound(err))
	})

	t.Run("reverting_to_base_drops_the_overlay_entry", func(t *testing.T) {
		m := testManager(t)
		_, err := m.UpdateRuling("100038", baseUID, "Another wording. [LSJ 20001225]")
		require.NoError(t, err)
		require.NotEmpty(t, m.Proposal().Rulings)

		restored, err := m.UpdateRuling("100038", baseUID, baseText)
		require.NoError(t, err)
		assert.Equal(t, rulings.StateOriginal, restored.State)
		assert.Empty(t, m.Proposal().Rulings)
	})

	t.Run("editing_a_base_ruling_is_modified_under_the_old_uid", func(t *testing.T) {
		m := testManager(t)
		edited, err := m.UpdateRuling("100038", baseUID, "Another wording. [LSJ 20001225]")
		require.NoError(t, err)
		assert.Equal(t, rulings.StateModified, edited.State)
		assert.Equal(t, baseUID, edited.UID)
		assert.Equal(t, "Another wording. [LSJ 20001225]", edited.Text)

		// the merged view serves the edit in place of the base text
		got, err := m.GetRuling("100038", baseUID, false)
		require.NoError(t, err)
		assert.Equal(t, edited.Text, got.Text)
	})

	t.Run("missing_uid_is_a_format_error", func(t *testing.T) {
		m := testManager(t)
		_, err := m.UpdateRuling("100038", "", "Whatever. [LSJ 20001225]")
		assert.True(t, rulings.IsFormatError(err))
	})
}

/*
TestDeleteRestoreRuling tests the deletion tombstone and its symmetric undo.
*/
func TestDeleteRestoreRuling(t *testing.T) {
	m := testManager(t)
	text := "The ability can prevent damage from a [pot] strike. [LSJ 20001225]"
	uid := rulings.StableHash(text)

	// 1. Deleting a NEW ruling leaves no trace at all
	draft, err := m.InsertRuling("100515", "Draft. [LSJ 20001225]")
	require.NoError(t, err)
	tomb, err := m.DeleteRuling("100515", draft.UID)
	require.NoError(t, err)
	assert.Nil(t, tomb)
	assert.Empty(t, m.Proposal().Rulings)

	// 2. Deleting a base ruling leaves a visible tombstone
	tomb, err = m.DeleteRuling("100038", uid)
	require.NoError(t, err)
	require.NotNil(t, tomb)
	assert.Equal(t, rulings.StateDeleted, tomb.State)
	assert.Equal(t, text, tomb.Text)

	// 3. Restore drops the tombstone and returns the base entry
	restored, err := m.RestoreRuling("100038", uid)
	require.NoError(t, err)
	assert.Equal(t, rulings.StateOriginal, restored.State)
	assert.Empty(t, m.Proposal().Rulings)

	// 4. Restoring an untouched ruling reports not found
	_, err = m.RestoreRuling("100038", uid)
	assert.True(t, rulings.IsNotFound(err))
}

/*
TestUpsertGroup tests creation, membership reclassification and the
revert-to-base behavior, driven by name and membership changes together.
*/
func TestUpsertGroup(t *testing.T) {
	t.Run("creation", func(t *testing.T) {
		m := testManager(t)
		group, err := m.UpsertGroup("", "Torpor Interactions", map[string]string{
			"100038": "",
			"100515": "[dom]",
		})
		require.NoError(t, err)
		assert.True(t, rulings.IsProvisionalGroupUID(group.UID))
		assert.Equal(t, rulings.StateNew, group.State)
		require.Len(t, group.Cards, 2)
		for _, card := range group.Cards {
			assert.Equal(t, rulings.StateNew, card.State)
		}

		_, err = m.UpsertGroup("", "", nil)
		assert.True(t, rulings.IsFormatError(err))
		_, err = m.UpsertGroup("", "Bounce Cards", nil)
		assert.True(t, rulings.IsConsistencyError(err))
	})

	t.Run("membership_reclassification", func(t *testing.T) {
		m := testManager(t)
		// drop Obedience, change Deflection's prefix, add Ablative Skin
		group, err := m.UpsertGroup("G00001", "", map[string]string{
			"100515": "[aus]",
			"100038": "",
		})
		require.NoError(t, err)
		assert.Equal(t, rulings.StateModified, group.State)

		states := map[string]rulings.State{}
		for _, card := range group.Cards {
			states[card.UID] = card.State
		}
		assert.Equal(t, rulings.StateDeleted, states["101321"])
		assert.Equal(t, rulings.StateModified, states["100515"])
		assert.Equal(t, rulings.StateNew, states["100038"])
	})

	t.Run("full_revert_returns_to_base", func(t *testing.T) {
		m := testManager(t)
		_, err := m.UpsertGroup("G00001", "", map[string]string{"100515": ""})
		require.NoError(t, err)
		require.NotEmpty(t, m.Proposal().Groups)

		group, err := m.UpsertGroup("G00001", "", map[string]string{
			"100515": "",
			"101321": "[dom]",
		})
		require.NoError(t, err)
		assert.Equal(t, rulings.StateOriginal, group.State)
		assert.Empty(t, m.Proposal().Groups)
	})

	t.Run("name_change_alone_is_modified", func(t *testing.T) {
		m := testManager(t)
		group, err := m.UpsertGroup("G00001", "Bounce and Redirect", map[string]string{
			"100515": "",
			"101321": "[dom]",
		})
		require.NoError(t, err)
		assert.Equal(t, rulings.StateModified, group.State)
		for _, card := range group.Cards {
			assert.Equal(t, rulings.StateOriginal, card.State)
		}
	})
}

/*
TestRestoreGroupCard tests single membership row restoration.
*/
func TestRestoreGroupCard(t *testing.T) {
	m := testManager(t)
	_, err := m.UpsertGroup("G00001", "", map[string]string{
		"100515": "[aus]",
		"100038": "",
	})
	require.NoError(t, err)

	// 1. A base row comes back in its original form
	group, err := m.RestoreGroupCard("G00001", "100515")
	require.NoError(t, err)
	for _, card := range group.Cards {
		if card.UID == "100515" {
			assert.Equal(t, rulings.StateOriginal, card.State)
			assert.Equal(t, "", card.Prefix)
		}
	}

	// 2. A row with no base counterpart is removed
	group, err = m.RestoreGroupCard("G00001", "100038")
	require.NoError(t, err)
	for _, card := range group.Cards {
		assert.NotEqual(t, "100038", card.UID)
	}

	// 3. An untouched group reports not found
	_, err = m.RestoreGroupCard("G00001", "100515")
	require.NoError(t, err)
	m2 := testManager(t)
	_, err = m2.RestoreGroupCard("G00001", "100515")
	assert.True(t, rulings.IsNotFound(err))
}

/*
TestDeleteRestoreGroup tests group deletion and restoration.
*/
func TestDeleteRestoreGroup(t *testing.T) {
	m := testManager(t)

	// 1. A NEW group disappears outright, with its overlay rulings
	group, err := m.UpsertGroup("", "Torpor Interactions", map[string]string{"100038": ""})
	require.NoError(t, err)
	_, err = m.InsertRuling(group.UID, "Some group ruling. [LSJ 20001225]")
	require.NoError(t, err)
	require.NoError(t, m.DeleteGroup(group.UID))
	assert.Empty(t, m.Proposal().Groups)
	assert.Empty(t, m.Proposal().Rulings)

	// 2. A base group gets a tombstone
	require.NoError(t, m.DeleteGroup("G00001"))
	tomb := m.Proposal().Groups["G00001"]
	require.NotNil(t, tomb)
	assert.Equal(t, rulings.StateDeleted, tomb.State)
	_, err = m.GetGroup("G00001", false)
	assert.True(t, rulings.IsNotFound(err))

	// 3. Restore drops the tombstone
	restored, err := m.RestoreGroup("G00001")
	require.NoError(t, err)
	assert.Equal(t, rulings.StateOriginal, restored.State)
	assert.Empty(t, m.Proposal().Groups)

	err = m.DeleteGroup("P0000000A")
	assert.True(t, rulings.IsNotFound(err))
}
