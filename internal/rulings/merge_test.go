// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package rulings_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtes-biased/rulings-website/internal/rulings"
)

/*
TestMerge_EmptyProposal checks that merging an empty proposal reproduces the
base index.
*/
func TestMerge_EmptyProposal(t *testing.T) {
	catalog := testCatalog()
	base := testIndex(t, catalog)
	m := rulings.NewManager(catalog, base, nil)

	merged, err := m.Merge()
	require.NoError(t, err)
	require.NotSame(t, base, merged)

	assert.Equal(t, len(base.References), len(merged.References))
	assert.Equal(t, len(base.Groups), len(merged.Groups))
	assert.Equal(t, len(base.Rulings), len(merged.Rulings))
	for uid, ref := range merged.References {
		assert.Equal(t, base.References[uid].URL, ref.URL)
		assert.Equal(t, rulings.StateOriginal, ref.State)
	}
	for target, perTarget := range merged.Rulings {
		for uid, ruling := range perTarget {
			assert.Equal(t, base.Rulings[target][uid].Text, ruling.Text)
			assert.Equal(t, rulings.StateOriginal, ruling.State)
		}
	}
}

/*
TestMerge_AppliesOverlay checks tombstones, edits and empty-text drops.
*/
func TestMerge_AppliesOverlay(t *testing.T) {
	m := testManager(t)
	baseText := "The ability can prevent damage from a [pot] strike. [LSJ 20001225]"
	baseUID := rulings.StableHash(baseText)

	_, err := m.UpdateRuling("100038", baseUID, "Cannot prevent aggravated damage. [LSJ 20001225]")
	require.NoError(t, err)
	otherText := "Does not interact with {Anarch Convert} in any way. [ANK 20170501]"
	_, err = m.DeleteRuling("100038", rulings.StableHash(otherText))
	require.NoError(t, err)

	merged, err := m.Merge()
	require.NoError(t, err)

	// 1. The edit survives under the old uid, state reset to ORIGINAL
	ruling := merged.Rulings["100038"][baseUID]
	require.NotNil(t, ruling)
	assert.Equal(t, "Cannot prevent aggravated damage. [LSJ 20001225]", ruling.Text)
	assert.Equal(t, rulings.StateOriginal, ruling.State)

	// 2. The tombstoned ruling is gone
	_, ok := merged.Rulings["100038"][rulings.StableHash(otherText)]
	assert.False(t, ok)

	// 3. Backrefs are rebuilt: the deleted ruling's mention disappears
	assert.Empty(t, merged.Backrefs["200076"])
}

/*
TestMerge_AssignsPermanentGroupIDs checks that provisional ids never leak
into the merged index and that rulings are re-keyed accordingly.
*/
func TestMerge_AssignsPermanentGroupIDs(t *testing.T) {
	m := testManager(t)
	group, err := m.UpsertGroup("", "Torpor Interactions", map[string]string{
		"100038": "",
		"200076": "",
	})
	require.NoError(t, err)
	require.True(t, rulings.IsProvisionalGroupUID(group.UID))
	ruling, err := m.InsertRuling(group.UID, "Neither card works in torpor. [ANK 20170501]")
	require.NoError(t, err)

	merged, err := m.Merge()
	require.NoError(t, err)

	// 1. No provisional id anywhere
	for uid := range merged.Groups {
		assert.False(t, rulings.IsProvisionalGroupUID(uid))
	}
	for target := range merged.Rulings {
		assert.False(t, rulings.IsProvisionalGroupUID(target))
	}

	// 2. The next free permanent id after G00001 is assigned
	newGroup := merged.Groups["G00002"]
	require.NotNil(t, newGroup)
	assert.Equal(t, "Torpor Interactions", newGroup.Name)
	assert.Equal(t, rulings.StateOriginal, newGroup.State)

	// 3. The group ruling is re-keyed and re-targeted
	moved := merged.Rulings["G00002"][ruling.UID]
	require.NotNil(t, moved)
	assert.Equal(t, "G00002", moved.Target.UID)
	assert.Equal(t, "Torpor Interactions", moved.Target.Name)

	// 4. The derived card index covers the new group
	assert.True(t, merged.GroupsOfCard["200076"]["G00002"])
}

/*
TestMerge_DropsEmptyEntities checks group removal and target key cleanup.
*/
func TestMerge_DropsEmptyEntities(t *testing.T) {
	m := testManager(t)

	require.NoError(t, m.DeleteGroup("G00001"))
	groupText := "The action must still be directed at another Methuselah. [ANK 20170501]"
	_, err := m.DeleteRuling("G00001", rulings.StableHash(groupText))
	require.NoError(t, err)

	merged, err := m.Merge()
	require.NoError(t, err)

	// the tombstoned group is gone
	_, ok := merged.Groups["G00001"]
	assert.False(t, ok)
	// its ruling target, emptied by the deletion, disappears too
	_, ok = merged.Rulings["G00001"]
	assert.False(t, ok)
	// the derived card index no longer lists the group
	assert.Empty(t, merged.GroupsOfCard["101321"])
}

/*
TestMerge_RefusesInconsistentProposal checks the checker gate.
*/
func TestMerge_RefusesInconsistentProposal(t *testing.T) {
	m := testManager(t)
	_, err := m.UpsertGroup("", "Redirects", map[string]string{"100038": ""})
	require.NoError(t, err)

	_, err = m.Merge()
	require.Error(t, err)
	assert.True(t, rulings.IsConsistencyError(err))
	assert.True(t, strings.Contains(err.Error(), "consistency"))
}
