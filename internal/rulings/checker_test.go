// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package rulings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
TestCheckConsistency_CleanBase checks that freshly loaded canonical data is
self-consistent.
*/
func TestCheckConsistency_CleanBase(t *testing.T) {
	m := testManager(t)
	assert.Empty(t, m.CheckConsistency())
	assert.True(t, m.Proposal().Empty())
}

/*
TestCheckConsistency_Errors exercises each checker rule.
*/
func TestCheckConsistency_Errors(t *testing.T) {
	t.Run("ruling_without_reference", func(t *testing.T) {
		m := testManager(t)
		// deleting the reference leaves its citing ruling dangling
		require.NoError(t, m.DeleteReference(refLSJ))

		errs := m.CheckConsistency()
		require.Len(t, errs, 1)
		assert.Equal(t, "100038", errs[0].Target.UID)
		assert.NotEmpty(t, errs[0].RulingUID)
		assert.Contains(t, errs[0].Message, "reference")
	})

	t.Run("empty_group", func(t *testing.T) {
		m := testManager(t)
		_, err := m.UpsertGroup("G00001", "", map[string]string{})
		require.NoError(t, err)

		errs := m.CheckConsistency()
		messages := map[string]bool{}
		for _, e := range errs {
			assert.Equal(t, "G00001", e.Target.UID)
			messages[e.Message] = true
		}
		assert.True(t, messages["group is empty"])
	})

	t.Run("duplicate_group_name", func(t *testing.T) {
		m := testManager(t)
		group, err := m.UpsertGroup("", "Bounce Cards", nil)
		// creation refuses the duplicate outright, force it through a rename
		assert.Error(t, err)
		group, err = m.UpsertGroup("", "Redirects", map[string]string{"100038": ""})
		require.NoError(t, err)
		_, err = m.InsertRuling(group.UID, "Some ruling. [LSJ 20001225]")
		require.NoError(t, err)
		_, err = m.UpsertGroup(group.UID, "Bounce Cards", map[string]string{"100038": ""})
		require.NoError(t, err)

		errs := m.CheckConsistency()
		require.Len(t, errs, 1)
		assert.Equal(t, "group name is already taken", errs[0].Message)
	})

	t.Run("group_without_ruling", func(t *testing.T) {
		m := testManager(t)
		_, err := m.UpsertGroup("", "Redirects", map[string]string{"100038": ""})
		require.NoError(t, err)

		errs := m.CheckConsistency()
		require.Len(t, errs, 1)
		assert.Equal(t, "group has no ruling", errs[0].Message)
	})
}

/*
TestCheckConsistency_Pruning checks that uncited references are pruned on a
clean check only.
*/
func TestCheckConsistency_Pruning(t *testing.T) {
	m := testManager(t)
	_, err := m.InsertReference("ANK 20200101", "https://www.vekn.net/forum/rules-questions/700")
	require.NoError(t, err)

	// 1. A clean check prunes the uncited overlay reference
	assert.Empty(t, m.CheckConsistency())
	assert.Empty(t, m.Proposal().References)
	// the rulebook entry stays, uncited as it is
	_, err = m.GetReference(refRBK, false)
	assert.NoError(t, err)

	// 2. A dirty check never prunes
	m = testManager(t)
	_, err = m.InsertReference("ANK 20200101", "https://www.vekn.net/forum/rules-questions/700")
	require.NoError(t, err)
	_, err = m.UpsertGroup("", "Redirects", map[string]string{"100038": ""})
	require.NoError(t, err)
	assert.NotEmpty(t, m.CheckConsistency())
	_, err = m.GetReference("ANK 20200101", false)
	assert.NoError(t, err)
}
