// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package rulings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vtes-biased/rulings-website/internal/rulings"
)

/*
TestStableHash checks determinism and shape of content-derived ids.
*/
func TestStableHash(t *testing.T) {
	a := rulings.StableHash("The ability can prevent damage from a strike.")
	b := rulings.StableHash("The ability can prevent damage from a strike.")
	c := rulings.StableHash("A different wording.")

	// 1. Identical wording always yields the same id
	assert.Equal(t, a, b)
	// 2. Distinct wording yields a distinct id
	assert.NotEqual(t, a, c)
	// 3. 5 bytes of digest base32-encode to exactly 8 characters
	assert.Len(t, a, 8)
	assert.Len(t, c, 8)
}

/*
TestRandomUID checks shape and unicity of random ids.
*/
func TestRandomUID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		uid := rulings.RandomUID()
		assert.Len(t, uid, 8)
		assert.False(t, seen[uid])
		seen[uid] = true
	}
}

/*
TestGroupIDs checks the group id conventions.
*/
func TestGroupIDs(t *testing.T) {
	provisional := rulings.NewProvisionalGroupID()
	assert.Len(t, provisional, 9)
	assert.True(t, rulings.IsGroupUID(provisional))
	assert.True(t, rulings.IsProvisionalGroupUID(provisional))

	assert.Equal(t, "G00042", rulings.PermanentGroupID(42))
	assert.True(t, rulings.IsGroupUID("G00042"))
	assert.False(t, rulings.IsProvisionalGroupUID("G00042"))

	// catalog card ids are not group ids
	assert.False(t, rulings.IsGroupUID("100038"))
}
