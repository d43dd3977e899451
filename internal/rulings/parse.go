// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package rulings

import "strings"

// ParseNID splits a canonical "uid|name" label.
func ParseNID(label string) (NID, error) {
	uid, name, found := strings.Cut(label, "|")
	if !found {
		return NID{}, formatErrorf("invalid identifier label %q", label)
	}
	return NID{UID: uid, Name: name}, nil
}

// ParseSymbols extracts every bracketed symbol token from a text.
// Unknown bracketed tokens are not symbols and are simply skipped.
func ParseSymbols(text string) []SymbolSubstitution {
	var symbols []SymbolSubstitution
	for _, token := range reSymbol.FindAllString(text, -1) {
		symbols = append(symbols, SymbolSubstitution{
			Text:   token,
			Symbol: AnkhaSymbols[token[1:len(token)-1]],
		})
	}
	return symbols
}

// ParseCards extracts every inline {Card Name} mention from a text,
// resolving each against the catalog. An unknown card name is a FormatError
// naming the offending token.
func ParseCards(cards CardResolver, text string) ([]CardSubstitution, error) {
	var subs []CardSubstitution
	for _, token := range reCard.FindAllString(text, -1) {
		card, err := cards.Resolve(token[1 : len(token)-1])
		if err != nil {
			return nil, formatErrorf("unknown card %s", token)
		}
		subs = append(subs, CardSubstitution{BaseCard: card, Text: token})
	}
	return subs, nil
}

// ReferenceLookup resolves a reference uid against whatever collection the
// caller layers: the raw base map at load time, or base plus overlay during
// edits.
type ReferenceLookup interface {
	Lookup(uid string) (*Reference, bool)
}

// ReferenceMap adapts a plain map to [ReferenceLookup].
type ReferenceMap map[string]*Reference

// Lookup implements [ReferenceLookup].
func (m ReferenceMap) Lookup(uid string) (*Reference, bool) {
	ref, ok := m[uid]
	return ref, ok
}

// layeredReferences is a cheap no-copy overlay of the proposal's references
// over the base collection, honoring tombstones.
type layeredReferences struct {
	base    map[string]*Reference
	overlay map[string]*Reference
}

func (l layeredReferences) Lookup(uid string) (*Reference, bool) {
	if ref, ok := l.overlay[uid]; ok {
		if ref.State == StateDeleted {
			return nil, false
		}
		return ref, true
	}
	ref, ok := l.base[uid]
	return ref, ok
}

// ParseReferences extracts every [SRC YYYYMMDD] citation token from a text.
// An unresolvable token is a FormatError naming the offending token.
func ParseReferences(refs ReferenceLookup, text string) ([]ReferenceSubstitution, error) {
	var subs []ReferenceSubstitution
	for _, token := range reRulingReference.FindAllString(text, -1) {
		ref, ok := refs.Lookup(token[1 : len(token)-1])
		if !ok {
			return nil, formatErrorf("unknown reference %s", token)
		}
		subs = append(subs, ReferenceSubstitution{Reference: *ref, Text: token})
	}
	return subs, nil
}

// BuildRuling builds a [Ruling] from text, deriving its three substitution
// lists. If uid is empty it is computed with [StableHash], or [RandomUID]
// when the text itself is empty (an empty id is never persisted).
func BuildRuling(cards CardResolver, refs ReferenceLookup, text string, target NID, uid string, state State) (*Ruling, error) {
	if uid == "" {
		if text == "" {
			uid = RandomUID()
		} else {
			uid = StableHash(text)
		}
	}
	ruling := &Ruling{UID: uid, Target: target, Text: text, State: state}
	ruling.Symbols = ParseSymbols(text)
	cardSubs, err := ParseCards(cards, text)
	if err != nil {
		return nil, err
	}
	ruling.Cards = cardSubs
	refSubs, err := ParseReferences(refs, text)
	if err != nil {
		return nil, err
	}
	ruling.References = refSubs
	return ruling, nil
}
