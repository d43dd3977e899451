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
TestParseNID tests the "uid|name" label format.
*/
func TestParseNID(t *testing.T) {
	nid, err := rulings.ParseNID("100038|Ablative Skin")
	require.NoError(t, err)
	assert.Equal(t, "100038", nid.UID)
	assert.Equal(t, "Ablative Skin", nid.Name)
	assert.Equal(t, "100038|Ablative Skin", nid.String())

	_, err = rulings.ParseNID("no separator")
	assert.True(t, rulings.IsFormatError(err))
}

/*
TestParseSymbols tests symbol token extraction from rulings text.
*/
func TestParseSymbols(t *testing.T) {
	symbols := rulings.ParseSymbols("Prevent damage from a [pot] strike, even [POT] ones.")
	require.Len(t, symbols, 2)
	assert.Equal(t, "[pot]", symbols[0].Text)
	assert.Equal(t, "p", symbols[0].Symbol)
	assert.Equal(t, "[POT]", symbols[1].Text)
	assert.Equal(t, "P", symbols[1].Symbol)

	// multi-word card type tokens
	symbols = rulings.ParseSymbols("Played as an [ACTION MODIFIER].")
	require.Len(t, symbols, 1)
	assert.Equal(t, "1", symbols[0].Symbol)

	// an unknown bracketed token is not a symbol
	assert.Empty(t, rulings.ParseSymbols("No symbol in [brackets] here."))
}

/*
TestParseCards tests inline card mention extraction and resolution.
*/
func TestParseCards(t *testing.T) {
	catalog := testCatalog()

	cards, err := rulings.ParseCards(catalog, "Does not interact with {Anarch Convert}.")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "200076", cards[0].UID)
	assert.Equal(t, "{Anarch Convert}", cards[0].Text)

	_, err = rulings.ParseCards(catalog, "Mentions {No Such Card} inline.")
	require.Error(t, err)
	assert.True(t, rulings.IsFormatError(err))
	assert.Contains(t, err.Error(), "{No Such Card}")
}

/*
TestParseReferences tests citation token resolution, including the layered
overlay lookup behavior through a plain map.
*/
func TestParseReferences(t *testing.T) {
	ref, err := rulings.BuildReference(refLSJ, urlLSJ, rulings.StateOriginal)
	require.NoError(t, err)
	refs := rulings.ReferenceMap{refLSJ: ref}

	subs, err := rulings.ParseReferences(refs, "Some ruling. [LSJ 20001225]")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, refLSJ, subs[0].UID)
	assert.Equal(t, urlLSJ, subs[0].URL)
	assert.Equal(t, "[LSJ 20001225]", subs[0].Text)

	// the offending token is named in the error
	_, err = rulings.ParseReferences(refs, "Some ruling. [ANK 20210101]")
	require.Error(t, err)
	assert.True(t, rulings.IsFormatError(err))
	assert.Contains(t, err.Error(), "[ANK 20210101]")
}

/*
TestBuildRuling tests ruling construction with all three substitution lists.
*/
func TestBuildRuling(t *testing.T) {
	catalog := testCatalog()
	ref, err := rulings.BuildReference(refANK, urlANK, rulings.StateOriginal)
	require.NoError(t, err)
	refs := rulings.ReferenceMap{refANK: ref}
	target := rulings.NID{UID: "100038", Name: "Ablative Skin"}

	text := "Does not interact with {Anarch Convert} or [pot]. [ANK 20170501]"
	ruling, err := rulings.BuildRuling(catalog, refs, text, target, "", rulings.StateOriginal)
	require.NoError(t, err)

	// 1. The uid is the stable hash of the text
	assert.Equal(t, rulings.StableHash(text), ruling.UID)
	// 2. All three substitution lists are populated
	assert.Len(t, ruling.Symbols, 1)
	assert.Len(t, ruling.Cards, 1)
	assert.Len(t, ruling.References, 1)

	// 3. An empty text gets a transient random uid, never an empty one
	empty, err := rulings.BuildRuling(catalog, refs, "", target, "", rulings.StateNew)
	require.NoError(t, err)
	assert.Len(t, empty.UID, 8)
	assert.NotEqual(t, rulings.StableHash(""), empty.UID)
}
