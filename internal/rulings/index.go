// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package rulings

import (
	"fmt"
	"sort"
)

// BuildIndex builds a base [Index] from the raw collections the repository
// loads off disk:
//
//   - refs: reference uid to url
//   - groups: group "uid|name" label to card "uid|name" label to prefix
//   - rulings: target "uid|name" label to ruling texts
//
// Any unresolvable token or malformed entry aborts the build: the canonical
// files are expected to be consistent, a load failure means the repository
// is corrupt and must not be served.
func BuildIndex(cards CardResolver, refs map[string]string, groups map[string]map[string]string, rulings map[string][]string) (*Index, error) {
	idx := NewIndex()

	for _, uid := range sortedKeys(refs) {
		ref, err := BuildReference(uid, refs[uid], StateOriginal)
		if err != nil {
			return nil, err
		}
		idx.References[uid] = ref
	}

	for _, label := range sortedKeys(groups) {
		nid, err := ParseNID(label)
		if err != nil {
			return nil, err
		}
		group := &Group{UID: nid.UID, Name: nid.Name, State: StateOriginal}
		for _, cardLabel := range sortedKeys(groups[label]) {
			cardNID, err := ParseNID(cardLabel)
			if err != nil {
				return nil, err
			}
			card, err := cards.Resolve(cardNID.UID)
			if err != nil {
				return nil, fmt.Errorf("group %s: %w", label, err)
			}
			prefix := groups[label][cardLabel]
			group.Cards = append(group.Cards, CardInGroup{
				BaseCard: card,
				State:    StateOriginal,
				Prefix:   prefix,
				Symbols:  ParseSymbols(prefix),
			})
		}
		idx.Groups[nid.UID] = group
	}

	baseRefs := ReferenceMap(idx.References)
	for _, label := range sortedKeys(rulings) {
		nid, err := ParseNID(label)
		if err != nil {
			return nil, err
		}
		target, err := buildTarget(cards, idx, nid.UID)
		if err != nil {
			return nil, err
		}
		for _, text := range rulings[label] {
			ruling, err := BuildRuling(cards, baseRefs, text, target, "", StateOriginal)
			if err != nil {
				return nil, fmt.Errorf("ruling on %s: %w", label, err)
			}
			if idx.Rulings[target.UID] == nil {
				idx.Rulings[target.UID] = map[string]*Ruling{}
			}
			idx.Rulings[target.UID][ruling.UID] = ruling
		}
	}

	idx.RebuildDerived()
	return idx, nil
}

// buildTarget resolves a ruling target uid to its canonical NID: the group's
// registered name for group uids, the catalog name for card uids.
func buildTarget(cards CardResolver, idx *Index, uid string) (NID, error) {
	if IsGroupUID(uid) {
		group, ok := idx.Groups[uid]
		if !ok {
			return NID{}, notFound("group", uid)
		}
		return NID{UID: group.UID, Name: group.Name}, nil
	}
	card, err := cards.Resolve(uid)
	if err != nil {
		return NID{}, err
	}
	return card.NID, nil
}

// RebuildDerived recomputes the two derived indexes (groups per card,
// ruling backrefs per card) from the canonical collections. Called after a
// fresh build and after every merge.
func (idx *Index) RebuildDerived() {
	idx.GroupsOfCard = map[string]map[string]bool{}
	for uid, group := range idx.Groups {
		for i := range group.Cards {
			card := &group.Cards[i]
			if idx.GroupsOfCard[card.UID] == nil {
				idx.GroupsOfCard[card.UID] = map[string]bool{}
			}
			idx.GroupsOfCard[card.UID][uid] = true
		}
	}

	idx.Backrefs = map[string][]Backref{}
	for target, perTarget := range idx.Rulings {
		for uid, ruling := range perTarget {
			for i := range ruling.Cards {
				cardUID := ruling.Cards[i].UID
				idx.Backrefs[cardUID] = append(idx.Backrefs[cardUID], Backref{
					TargetUID: target,
					RulingUID: uid,
				})
			}
		}
	}
	for cardUID := range idx.Backrefs {
		refs := idx.Backrefs[cardUID]
		sort.Slice(refs, func(i, j int) bool {
			if refs[i].TargetUID != refs[j].TargetUID {
				return refs[i].TargetUID < refs[j].TargetUID
			}
			return refs[i].RulingUID < refs[j].RulingUID
		})
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
