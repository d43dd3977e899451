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
TestManager_References tests reference resolution through the overlay.
*/
func TestManager_References(t *testing.T) {
	m := testManager(t)

	// 1. Base references resolve as is
	ref, err := m.GetReference(refLSJ, false)
	require.NoError(t, err)
	assert.Equal(t, urlLSJ, ref.URL)
	assert.Equal(t, rulings.StateOriginal, ref.State)

	byURL, err := m.GetReferenceByURL(urlLSJ, false)
	require.NoError(t, err)
	assert.Equal(t, refLSJ, byURL.UID)

	// 2. Unknown uids report not found
	_, err = m.GetReference("ANK 20300101", false)
	assert.True(t, rulings.IsNotFound(err))

	// 3. An overlay copy shadows the base entry
	updated, err := m.UpdateReference(refLSJ, "https://www.vekn.net/forum/rules-questions/123")
	require.NoError(t, err)
	assert.Equal(t, rulings.StateModified, updated.State)
	ref, err = m.GetReference(refLSJ, false)
	require.NoError(t, err)
	assert.Equal(t, "https://www.vekn.net/forum/rules-questions/123", ref.URL)

	// 4. The base entry's old url no longer resolves through the merged view
	_, err = m.GetReferenceByURL(urlLSJ, false)
	assert.True(t, rulings.IsNotFound(err))

	// 5. A tombstone hides the entry unless deleted entries are requested
	require.NoError(t, m.DeleteReference(refANK))
	_, err = m.GetReference(refANK, false)
	assert.True(t, rulings.IsNotFound(err))
	ref, err = m.GetReference(refANK, true)
	require.NoError(t, err)
	assert.Equal(t, rulings.StateDeleted, ref.State)

	// 6. AllReferences skips the tombstone but keeps the overlay copy
	uids := map[string]bool{}
	for _, ref := range m.AllReferences(false) {
		uids[ref.UID] = true
	}
	assert.True(t, uids[refLSJ])
	assert.True(t, uids[refRBK])
	assert.False(t, uids[refANK])
}

/*
TestManager_GetRulings tests the merged ruling view with group projection.
*/
func TestManager_GetRulings(t *testing.T) {
	m := testManager(t)

	// 1. Direct rulings on a card
	direct := m.GetRulings("100038", true, false)
	require.Len(t, direct, 2)
	for _, ruling := range direct {
		assert.Equal(t, "100038", ruling.Target.UID)
		assert.Equal(t, rulings.StateOriginal, ruling.State)
		assert.NotEmpty(t, ruling.References)
	}

	// 2. A group member with an empty prefix inherits the text unchanged
	inherited := m.GetRulings("100515", true, false)
	require.Len(t, inherited, 1)
	assert.Equal(t, "The action must still be directed at another Methuselah. [ANK 20170501]", inherited[0].Text)
	assert.Equal(t, "G00001", inherited[0].Target.UID)

	// 3. A member with a prefix gets it prepended, symbols appended
	prefixed := m.GetRulings("101321", true, false)
	require.Len(t, prefixed, 1)
	assert.Equal(t, "[dom] The action must still be directed at another Methuselah. [ANK 20170501]", prefixed[0].Text)
	require.Len(t, prefixed[0].Symbols, 1)
	assert.Equal(t, "[dom]", prefixed[0].Symbols[0].Text)

	// 4. Group projection can be turned off
	assert.Empty(t, m.GetRulings("100515", false, false))

	// 5. Group targets are never projected into
	group := m.GetRulings("G00001", true, false)
	require.Len(t, group, 1)
}

/*
TestManager_GetRuling tests single ruling retrieval and tombstone behavior.
*/
func TestManager_GetRuling(t *testing.T) {
	m := testManager(t)
	text := "The ability can prevent damage from a [pot] strike. [LSJ 20001225]"
	uid := rulings.StableHash(text)

	ruling, err := m.GetRuling("100038", uid, false)
	require.NoError(t, err)
	assert.Equal(t, text, ruling.Text)

	_, err = m.GetRuling("100038", "XXXXXXXX", false)
	assert.True(t, rulings.IsNotFound(err))

	// deletion hides the ruling, the deleted flag reveals the tombstone
	_, err = m.DeleteRuling("100038", uid)
	require.NoError(t, err)
	_, err = m.GetRuling("100038", uid, false)
	assert.True(t, rulings.IsNotFound(err))
	tombstone, err := m.GetRuling("100038", uid, true)
	require.NoError(t, err)
	assert.Equal(t, rulings.StateDeleted, tombstone.State)
}

/*
TestManager_GroupsOfCard tests the card-centric group views.
*/
func TestManager_GroupsOfCard(t *testing.T) {
	m := testManager(t)

	groups := m.GetGroupsOfCard("101321")
	require.Len(t, groups, 1)
	assert.Equal(t, "G00001", groups[0].UID)
	assert.Equal(t, "Bounce Cards", groups[0].Name)
	assert.Equal(t, "[dom]", groups[0].Prefix)

	assert.Empty(t, m.GetGroupsOfCard("100038"))

	// a deleted group no longer lists its members
	require.NoError(t, m.DeleteGroup("G00001"))
	assert.Empty(t, m.GetGroupsOfCard("101321"))
}

/*
TestManager_GetBackrefs tests back-reference resolution with group expansion.
*/
func TestManager_GetBackrefs(t *testing.T) {
	m := testManager(t)

	// 1. A card mentioned by a card ruling backrefs to that card
	backs, err := m.GetBackrefs("200076")
	require.NoError(t, err)
	require.Len(t, backs, 1)
	assert.Equal(t, "100038", backs[0].UID)

	// 2. A mention in a group ruling expands to every live group member
	_, err = m.InsertRuling("G00001", "Bounced actions still target {Anarch Convert} normally. [ANK 20170501]")
	require.NoError(t, err)
	backs, err = m.GetBackrefs("200076")
	require.NoError(t, err)
	uids := map[string]bool{}
	for _, card := range backs {
		uids[card.UID] = true
	}
	assert.True(t, uids["100038"])
	assert.True(t, uids["100515"])
	assert.True(t, uids["101321"])

	// 3. Deleting the mentioning ruling removes the backref
	text := "Does not interact with {Anarch Convert} in any way. [ANK 20170501]"
	_, err = m.DeleteRuling("100038", rulings.StableHash(text))
	require.NoError(t, err)
	backs, err = m.GetBackrefs("200076")
	require.NoError(t, err)
	for _, card := range backs {
		assert.NotEqual(t, "100038", card.UID)
	}
}

/*
TestManager_BuildNID tests bare uid resolution for cards and groups.
*/
func TestManager_BuildNID(t *testing.T) {
	m := testManager(t)

	nid, err := m.BuildNID("100038")
	require.NoError(t, err)
	assert.Equal(t, "Ablative Skin", nid.Name)

	nid, err = m.BuildNID("G00001")
	require.NoError(t, err)
	assert.Equal(t, "Bounce Cards", nid.Name)

	_, err = m.BuildNID("999999")
	assert.True(t, rulings.IsNotFound(err))
}
