// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package rulings_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vtes-biased/rulings-website/internal/rulings"
)

// fakeCatalog resolves cards from a fixed map, by id or by exact name.
type fakeCatalog struct {
	cards map[string]rulings.BaseCard
}

func (c *fakeCatalog) Resolve(idOrName string) (rulings.BaseCard, error) {
	if card, ok := c.cards[idOrName]; ok {
		return card, nil
	}
	for _, card := range c.cards {
		if card.Name == idOrName {
			return card, nil
		}
	}
	return rulings.BaseCard{}, &rulings.NotFoundError{Kind: "card", Key: idOrName}
}

func testCatalog() *fakeCatalog {
	cards := map[string]rulings.BaseCard{
		"100038": {
			NID:         rulings.NID{UID: "100038", Name: "Ablative Skin"},
			PrintedName: "Ablative Skin",
			Img:         "https://static.krcg.org/card/ablativeskin.jpg",
		},
		"100515": {
			NID:         rulings.NID{UID: "100515", Name: "Deflection"},
			PrintedName: "Deflection",
			Img:         "https://static.krcg.org/card/deflection.jpg",
		},
		"101321": {
			NID:         rulings.NID{UID: "101321", Name: "Obedience"},
			PrintedName: "Obedience",
			Img:         "https://static.krcg.org/card/obedience.jpg",
		},
		"200076": {
			NID:         rulings.NID{UID: "200076", Name: "Anarch Convert"},
			PrintedName: "Anarch Convert",
			Img:         "https://static.krcg.org/card/anarchconvert.jpg",
		},
	}
	return &fakeCatalog{cards: cards}
}

const (
	refLSJ = "LSJ 20001225"
	refANK = "ANK 20170501"
	refRBK = "RBK Promo"

	urlLSJ = "https://groups.google.com/g/rec.games.trading-cards.jyhad/c/AMGHxvRs3OI"
	urlANK = "https://www.vekn.net/forum/rules-questions/77131-ablative-skin"
	urlRBK = "https://www.vekn.net/rulebook"
)

// testIndex builds a small base index: two card rulings, one group with two
// members and its own ruling.
func testIndex(t *testing.T, catalog rulings.CardResolver) *rulings.Index {
	t.Helper()
	refs := map[string]string{
		refLSJ: urlLSJ,
		refANK: urlANK,
		refRBK: urlRBK,
	}
	groups := map[string]map[string]string{
		"G00001|Bounce Cards": {
			"100515|Deflection": "",
			"101321|Obedience":  "[dom]",
		},
	}
	texts := map[string][]string{
		"100038|Ablative Skin": {
			"The ability can prevent damage from a [pot] strike. [LSJ 20001225]",
			"Does not interact with {Anarch Convert} in any way. [ANK 20170501]",
		},
		"G00001|Bounce Cards": {
			"The action must still be directed at another Methuselah. [ANK 20170501]",
		},
	}
	idx, err := rulings.BuildIndex(catalog, refs, groups, texts)
	require.NoError(t, err)
	return idx
}

// testManager binds a fresh base index and an empty proposal.
func testManager(t *testing.T) *rulings.Manager {
	t.Helper()
	catalog := testCatalog()
	return rulings.NewManager(catalog, testIndex(t, catalog), rulings.NewProposal("alice", "test", ""))
}
