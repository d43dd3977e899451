// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

/*
Package catalog maintains the in-memory VTES card catalog.

It loads the canonical card database (the KRCG static JSON export of the VEKN
card list) and serves card lookups for the rest of the application. The
catalog is read-only after load: rulings, groups and backrefs live in the
rulings index, not here.

# Core Responsibility

  - Lookup: resolve a card by its VEKN ID or by (accent-folded) name.
  - Completion: rank card names matching a partial query.
  - Metadata: expose crypt and library card details for display.

The catalog implements [rulings.CardResolver], the contract the rulings
engine uses to hydrate card substitutions and group members.
*/
package catalog

import (
	"sort"
	"strings"

	"github.com/vtes-biased/rulings-website/internal/rulings"
)

// # Domain Entities

// Variant links a crypt card to its alternate versions (advanced, higher group).
type Variant struct {
	UID      string `json:"uid"`
	Group    int    `json:"group,omitempty"`
	Advanced bool   `json:"advanced"`
}

// Card is a single entry of the VTES card database.
//
// Crypt and library cards share the same shape: crypt-only fields (capacity,
// clan, group) are zero on library cards, cost fields are empty on crypt
// cards. Crypt() tells them apart.
type Card struct {
	rulings.BaseCard
	Aka         []string                     `json:"aka,omitempty"`
	Types       []string                     `json:"types"`
	Disciplines []string                     `json:"disciplines"`
	Text        string                       `json:"text"`
	Symbols     []rulings.SymbolSubstitution `json:"symbols"`
	TextSymbols []rulings.SymbolSubstitution `json:"text_symbols"`

	// Crypt only
	Capacity int       `json:"capacity,omitempty"`
	Group    string    `json:"group,omitempty"`
	Clan     string    `json:"clan,omitempty"`
	Advanced bool      `json:"advanced,omitempty"`
	Variants []Variant `json:"variants,omitempty"`

	// Library only
	PoolCost       string `json:"pool_cost,omitempty"`
	BloodCost      string `json:"blood_cost,omitempty"`
	ConvictionCost string `json:"conviction_cost,omitempty"`
}

// Crypt reports whether the card is a crypt card. VEKN IDs are partitioned:
// library cards are numbered from 100000, crypt cards from 200000.
func (card *Card) Crypt() bool {
	return strings.HasPrefix(card.UID, "2")
}

// # Card Map

// CardMap indexes the full card database by ID and folded name.
type CardMap struct {
	byID   map[string]*Card
	byName map[string]*Card
	cards  []*Card
}

// NewCardMap returns an empty [CardMap]. Use [CardMap.Load] or
// [CardMap.LoadFile] to populate it.
func NewCardMap() *CardMap {
	return &CardMap{
		byID:   map[string]*Card{},
		byName: map[string]*Card{},
	}
}

// Len returns the number of cards in the catalog.
func (cm *CardMap) Len() int {
	return len(cm.cards)
}

// add indexes a card under its ID, name, printed name and aliases.
// The primary name wins on alias collisions.
func (cm *CardMap) add(card *Card) {
	cm.byID[card.UID] = card
	cm.cards = append(cm.cards, card)
	cm.byName[FoldName(card.Name)] = card
	for _, name := range card.Aka {
		key := FoldName(name)
		if _, ok := cm.byName[key]; !ok {
			cm.byName[key] = card
		}
	}
	if card.PrintedName != "" {
		key := FoldName(card.PrintedName)
		if _, ok := cm.byName[key]; !ok {
			cm.byName[key] = card
		}
	}
}

/*
Get returns the card matching the given VEKN ID or name.

Description: IDs are matched verbatim, names are matched after accent
folding and case normalization, so "FAME" or "fame" both resolve.

Parameters:
  - idOrName: string (decimal VEKN ID, card name, alias or printed name)

Returns:
  - *Card: Full catalog entry
  - error: rulings.NotFoundError when no card matches
*/
func (cm *CardMap) Get(idOrName string) (*Card, error) {
	if card, ok := cm.byID[idOrName]; ok {
		return card, nil
	}
	if card, ok := cm.byName[FoldName(idOrName)]; ok {
		return card, nil
	}
	return nil, &rulings.NotFoundError{Kind: "card", Key: idOrName}
}

// Resolve implements [rulings.CardResolver].
func (cm *CardMap) Resolve(idOrName string) (rulings.BaseCard, error) {
	card, err := cm.Get(idOrName)
	if err != nil {
		return rulings.BaseCard{}, err
	}
	return card.BaseCard, nil
}

// All returns every card, sorted by ID.
func (cm *CardMap) All() []*Card {
	cards := make([]*Card, len(cm.cards))
	copy(cards, cm.cards)
	sort.Slice(cards, func(i, j int) bool { return cards[i].UID < cards[j].UID })
	return cards
}
