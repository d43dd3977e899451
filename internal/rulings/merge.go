// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package rulings

import (
	"sort"
	"strconv"
	"strings"
)

/*
Merge folds the proposal into a brand-new [Index].

The base index is never touched: the merge deep-copies it, applies the
overlay, then finalizes the copy. Tombstoned entries are dropped, groups
keep only their live member rows (a group left with zero rows is dropped
even without a tombstone), rulings with empty or whitespace-only text are
dropped, and a target left with zero rulings disappears. Every provisional
group id is then reassigned the next free permanent id, rewritten on the
group and on every ruling keyed to it, and every surviving entity's state
is reset to ORIGINAL.

Merge refuses to proceed when [Manager.CheckConsistency] reports errors.
Callers serialize merges globally: permanent id assignment scans the
current index for the highest id in use, two concurrent merges could
collide.
*/
func (m *Manager) Merge() (*Index, error) {
	if errs := m.CheckConsistency(); len(errs) > 0 {
		return nil, consistencyErrorf("proposal has %d consistency errors", len(errs))
	}
	merged := m.base.Clone()

	for _, uid := range sortedKeys(m.prop.References) {
		ref := m.prop.References[uid]
		if ref.State == StateDeleted {
			delete(merged.References, uid)
			continue
		}
		merged.References[uid] = ref.Clone()
	}

	for _, uid := range sortedKeys(m.prop.Groups) {
		group := m.prop.Groups[uid]
		if group.State == StateDeleted {
			delete(merged.Groups, uid)
			continue
		}
		rebuilt := &Group{UID: group.UID, Name: group.Name, State: group.State}
		for i := range group.Cards {
			if group.Cards[i].State == StateDeleted {
				continue
			}
			rebuilt.Cards = append(rebuilt.Cards, *group.Cards[i].Clone())
		}
		if len(rebuilt.Cards) == 0 {
			delete(merged.Groups, uid)
			continue
		}
		merged.Groups[uid] = rebuilt
	}

	for _, target := range sortedKeys(m.prop.Rulings) {
		if merged.Rulings[target] == nil {
			merged.Rulings[target] = map[string]*Ruling{}
		}
		for _, uid := range sortedKeys(m.prop.Rulings[target]) {
			ruling := m.prop.Rulings[target][uid]
			if ruling.State == StateDeleted || strings.TrimSpace(ruling.Text) == "" {
				delete(merged.Rulings[target], uid)
				continue
			}
			merged.Rulings[target][uid] = ruling.Clone()
		}
		if len(merged.Rulings[target]) == 0 {
			delete(merged.Rulings, target)
		}
	}

	assignPermanentIDs(merged)
	resetStates(merged)
	merged.RebuildDerived()
	return merged, nil
}

// assignPermanentIDs replaces every provisional group id with the next free
// permanent one, rewriting the group record and every ruling keyed to it.
// Ruling targets also pick up the group's current name, a pending rename
// leaves stale names on the rulings it did not rebuild.
func assignPermanentIDs(idx *Index) {
	next := 1
	var provisional []string
	for uid := range idx.Groups {
		if IsProvisionalGroupUID(uid) {
			provisional = append(provisional, uid)
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(uid, "G")); err == nil && n >= next {
			next = n + 1
		}
	}
	sort.Strings(provisional)
	renames := map[string]string{}
	for _, uid := range provisional {
		renames[uid] = PermanentGroupID(next)
		next++
	}
	for old, uid := range renames {
		group := idx.Groups[old]
		group.UID = uid
		idx.Groups[uid] = group
		delete(idx.Groups, old)
		if rulings, ok := idx.Rulings[old]; ok {
			idx.Rulings[uid] = rulings
			delete(idx.Rulings, old)
		}
	}
	for target, rulings := range idx.Rulings {
		group, ok := idx.Groups[target]
		if !ok {
			continue
		}
		for _, ruling := range rulings {
			ruling.Target = NID{UID: group.UID, Name: group.Name}
		}
	}
}

// resetStates clears the overlay bookkeeping off a freshly merged index.
func resetStates(idx *Index) {
	for _, ref := range idx.References {
		ref.State = StateOriginal
	}
	for _, group := range idx.Groups {
		group.State = StateOriginal
		for i := range group.Cards {
			group.Cards[i].State = StateOriginal
		}
	}
	for _, rulings := range idx.Rulings {
		for _, ruling := range rulings {
			ruling.State = StateOriginal
			for i := range ruling.References {
				ruling.References[i].State = StateOriginal
			}
		}
	}
}
