// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package rulings

import (
	"fmt"
	"strings"
)

// Mutators only ever write the overlay. Every mutator builds and validates
// on copies and commits on full success, so a failed call leaves the
// proposal untouched.

// # Reference mutators

/*
InsertReference adds a new reference to the overlay.

The uid must have a single space after the 3-character source code. If the
uid is already taken, in base or overlay in any state, a "-2" to "-99"
numeric suffix is appended until a free uid is found; tombstoned uids are
not reused. The url host and the embedded date are validated against the
source's tenure. New rulebook references are rejected, the rulebook set is
closed. A url already cited by a live reference is rejected.

Returns the new reference, stored with state NEW.
*/
func (m *Manager) InsertReference(uid, url string) (*Reference, error) {
	if uid == "" {
		return nil, formatErrorf("a reference id is required")
	}
	if len(uid) < 4 || uid[3] != ' ' {
		return nil, formatErrorf("reference must have a space after its source: %q", uid)
	}
	if m.referenceUIDTaken(uid) {
		free := ""
		for i := 2; i < 100; i++ {
			try := fmt.Sprintf("%s-%d", uid, i)
			if m.referenceUIDTaken(try) {
				continue
			}
			free = try
			break
		}
		if free == "" {
			return nil, consistencyErrorf("too many references on that day already")
		}
		uid = free
	}
	ref, err := BuildReference(uid, url, StateNew)
	if err != nil {
		return nil, err
	}
	if err := CheckReference(ref); err != nil {
		return nil, err
	}
	if ref.Source == RulebookSource {
		return nil, consistencyErrorf("new rulebook references cannot be added, they are all listed already")
	}
	if _, err := m.GetReferenceByURL(url, false); err == nil {
		return nil, consistencyErrorf("reference URL exists already")
	}
	m.prop.References[uid] = ref
	return ref, nil
}

func (m *Manager) referenceUIDTaken(uid string) bool {
	if _, ok := m.base.References[uid]; ok {
		return true
	}
	_, ok := m.prop.References[uid]
	return ok
}

// UpdateReference changes a reference's url. An overlay entry keeps its
// state, a base entry is copied into the overlay with state MODIFIED.
// Returns [NotFoundError] for unknown or tombstoned uids.
func (m *Manager) UpdateReference(uid, url string) (*Reference, error) {
	var updated *Reference
	if overlay, ok := m.prop.References[uid]; ok {
		if overlay.State == StateDeleted {
			return nil, notFound("reference", uid)
		}
		updated = overlay.Clone()
		updated.URL = url
	} else if base, ok := m.base.References[uid]; ok {
		updated = &Reference{
			UID:    base.UID,
			URL:    url,
			Source: base.Source,
			Date:   base.Date,
			State:  StateModified,
		}
	} else {
		return nil, notFound("reference", uid)
	}
	if err := CheckReference(updated); err != nil {
		return nil, err
	}
	m.prop.References[uid] = updated
	return updated, nil
}

// DeleteReference removes a reference. An overlay-only entry is removed
// outright, a base entry gets an overlay tombstone. Rulebook references
// cannot be deleted.
//
// The consistency checker lists the rulings still citing the reference,
// further edits may be needed before the proposal passes.
func (m *Manager) DeleteReference(uid string) error {
	if strings.HasPrefix(uid, RulebookSource) {
		return consistencyErrorf("rulebook references cannot be deleted")
	}
	_, inBase := m.base.References[uid]
	if _, ok := m.prop.References[uid]; ok && !inBase {
		delete(m.prop.References, uid)
		return nil
	}
	base, ok := m.base.References[uid]
	if !ok {
		return notFound("reference", uid)
	}
	tombstone := base.Clone()
	tombstone.State = StateDeleted
	m.prop.References[uid] = tombstone
	return nil
}

// # Ruling mutators

// InsertRuling attaches a new ruling to a card or group. The text may be
// empty, an empty draft gets a transient random uid. An identical-hash
// ruling already attached to the target is rejected.
func (m *Manager) InsertRuling(targetUID, text string) (*Ruling, error) {
	target, err := m.BuildNID(targetUID)
	if err != nil {
		return nil, err
	}
	ruling, err := m.buildRuling(text, target, "", StateNew)
	if err != nil {
		return nil, err
	}
	if _, ok := m.base.Rulings[targetUID][ruling.UID]; ok {
		return nil, consistencyErrorf("an identical ruling exists already")
	}
	if _, ok := m.prop.Rulings[targetUID][ruling.UID]; ok {
		return nil, consistencyErrorf("an identical ruling exists already")
	}
	if m.prop.Rulings[targetUID] == nil {
		m.prop.Rulings[targetUID] = map[string]*Ruling{}
	}
	m.prop.Rulings[targetUID][ruling.UID] = ruling
	return ruling, nil
}

/*
UpdateRuling replaces a ruling's text. Since rulings are content-addressed,
three cases apply in order:

  - the old entry was NEW: the rebuilt ruling replaces it under the new
    text's hash and stays NEW, editing a draft never yields MODIFIED
  - the new text hashes back to uid: the edit reproduces the base entry
    exactly, the overlay entry is dropped and the base entry returned
  - otherwise: the rebuilt ruling is stored under the old uid with state
    MODIFIED, keeping the link to the base entry it supersedes

An old entry found MODIFIED in the overlay but absent from base (its base
counterpart vanished under a concurrently merged proposal) is handled as
NEW, the first case.
*/
func (m *Manager) UpdateRuling(targetUID, uid, text string) (*Ruling, error) {
	if uid == "" {
		return nil, formatErrorf("cannot update a ruling without its uid")
	}
	target, err := m.BuildNID(targetUID)
	if err != nil {
		return nil, err
	}
	ruling, err := m.buildRuling(text, target, "", StateNew)
	if err != nil {
		return nil, err
	}
	old, err := m.GetRuling(targetUID, uid, false)
	if err != nil {
		return nil, err
	}
	if m.prop.Rulings[targetUID] == nil {
		m.prop.Rulings[targetUID] = map[string]*Ruling{}
	}
	if old.State == StateNew {
		delete(m.prop.Rulings[targetUID], uid)
		m.prop.Rulings[targetUID][ruling.UID] = ruling
		return ruling, nil
	}
	if ruling.UID == uid {
		delete(m.prop.Rulings[targetUID], uid)
		if len(m.prop.Rulings[targetUID]) == 0 {
			delete(m.prop.Rulings, targetUID)
		}
		return m.base.Rulings[targetUID][uid], nil
	}
	ruling.UID = uid
	ruling.State = StateModified
	m.prop.Rulings[targetUID][uid] = ruling
	return ruling, nil
}

// RestoreRuling drops the overlay entry for a ruling, undoing a pending
// edit or deletion. Returns the base entry, or nil if the entry existed
// only in the overlay.
func (m *Manager) RestoreRuling(targetUID, uid string) (*Ruling, error) {
	overlay, ok := m.prop.Rulings[targetUID]
	if !ok {
		return nil, notFound("ruling", targetUID+":"+uid)
	}
	if _, ok := overlay[uid]; !ok {
		return nil, notFound("ruling", targetUID+":"+uid)
	}
	delete(overlay, uid)
	if len(overlay) == 0 {
		delete(m.prop.Rulings, targetUID)
	}
	return m.base.Rulings[targetUID][uid], nil
}

// DeleteRuling removes a ruling. An overlay-only entry is removed outright
// and nil is returned, a base entry gets an overlay tombstone carrying the
// base content.
func (m *Manager) DeleteRuling(targetUID, uid string) (*Ruling, error) {
	_, inBase := m.base.Rulings[targetUID][uid]
	if _, ok := m.prop.Rulings[targetUID][uid]; ok && !inBase {
		delete(m.prop.Rulings[targetUID], uid)
		if len(m.prop.Rulings[targetUID]) == 0 {
			delete(m.prop.Rulings, targetUID)
		}
		return nil, nil
	}
	if !inBase {
		return nil, notFound("ruling", targetUID+":"+uid)
	}
	tombstone := m.base.Rulings[targetUID][uid].Clone()
	tombstone.State = StateDeleted
	if m.prop.Rulings[targetUID] == nil {
		m.prop.Rulings[targetUID] = map[string]*Ruling{}
	}
	m.prop.Rulings[targetUID][uid] = tombstone
	return tombstone, nil
}

// # Group mutators

/*
UpsertGroup creates or updates a group.

With an empty uid this is a creation: the name must be non-empty and not
already used by a live group, and a provisional id is minted for the new
group, replaced by a permanent one at merge time.

With a uid, the current group is copied and its membership recomputed from
scratch against the cards map (card uid to prefix):

  - a previous member absent from the map is kept as a DELETED row
  - a member whose prefix matches the base row stays ORIGINAL
  - a member whose prefix differs is MODIFIED
  - a card absent from the base group is NEW

The group's own state is MODIFIED when its name or any membership differs
from base, and ORIGINAL when everything reverts exactly to base, in which
case the overlay entry is dropped and the base group returned.
*/
func (m *Manager) UpsertGroup(uid, name string, cards map[string]string) (*Group, error) {
	var group *Group
	if uid == "" {
		if name == "" {
			return nil, formatErrorf("a group name is required")
		}
		for _, other := range m.AllGroups(false) {
			if other.Name == name {
				return nil, consistencyErrorf("group name %q is already taken", name)
			}
		}
		group = &Group{UID: m.newProvisionalGroupID(), Name: name, State: StateNew}
	} else {
		current, err := m.GetGroup(uid, false)
		if err != nil {
			return nil, err
		}
		group = &Group{UID: current.UID, Name: current.Name, State: current.State}
		if name != "" {
			group.Name = name
		}
	}

	baseCards := map[string]*CardInGroup{}
	base, inBase := m.base.Groups[group.UID]
	if inBase {
		for i := range base.Cards {
			baseCards[base.Cards[i].UID] = &base.Cards[i]
		}
		if group.Name == base.Name {
			group.State = StateOriginal
		} else {
			group.State = StateModified
		}
	}
	for _, cardUID := range sortedKeys(baseCards) {
		if _, kept := cards[cardUID]; kept {
			continue
		}
		row := baseCards[cardUID].Clone()
		row.State = StateDeleted
		group.Cards = append(group.Cards, *row)
		if group.State != StateNew {
			group.State = StateModified
		}
	}
	for _, cardUID := range sortedKeys(cards) {
		card, err := m.resolveCard(cardUID)
		if err != nil {
			return nil, err
		}
		prefix := cards[cardUID]
		state := StateNew
		if baseRow, ok := baseCards[cardUID]; ok {
			if prefix == baseRow.Prefix {
				state = StateOriginal
			} else {
				state = StateModified
				group.State = StateModified
			}
		} else if inBase {
			group.State = StateModified
		}
		group.Cards = append(group.Cards, CardInGroup{
			BaseCard: card,
			State:    state,
			Prefix:   prefix,
			Symbols:  ParseSymbols(prefix),
		})
	}

	if group.State == StateOriginal {
		delete(m.prop.Groups, group.UID)
		return m.base.Groups[group.UID], nil
	}
	m.prop.Groups[group.UID] = group
	return group, nil
}

func (m *Manager) newProvisionalGroupID() string {
	uid := NewProvisionalGroupID()
	for {
		if _, ok := m.prop.Groups[uid]; !ok {
			return uid
		}
		uid = NewProvisionalGroupID()
	}
}

// RestoreGroupCard reinstates the base version of one membership row,
// keeping the rest of the overlay group as is. A row absent from base is
// removed from the group.
func (m *Manager) RestoreGroupCard(uid, cardUID string) (*Group, error) {
	group, ok := m.prop.Groups[uid]
	if !ok {
		return nil, notFound("group", uid)
	}
	var baseRow *CardInGroup
	if base, ok := m.base.Groups[uid]; ok {
		for i := range base.Cards {
			if base.Cards[i].UID == cardUID {
				baseRow = base.Cards[i].Clone()
				break
			}
		}
	}
	cards := make([]CardInGroup, 0, len(group.Cards))
	replaced := false
	for i := range group.Cards {
		if group.Cards[i].UID != cardUID {
			cards = append(cards, group.Cards[i])
			continue
		}
		if baseRow != nil {
			cards = append(cards, *baseRow)
			replaced = true
		}
	}
	if baseRow != nil && !replaced {
		cards = append(cards, *baseRow)
	}
	group.Cards = cards
	return group, nil
}

// RestoreGroup drops the overlay entry for a group, returning to the base
// version. Returns nil for a group that existed only in the overlay.
func (m *Manager) RestoreGroup(uid string) (*Group, error) {
	if _, ok := m.prop.Groups[uid]; !ok {
		return nil, notFound("group", uid)
	}
	delete(m.prop.Groups, uid)
	return m.base.Groups[uid], nil
}

// DeleteGroup removes a group. An overlay-only group is removed outright
// together with any overlay rulings keyed to it, a base group gets an
// overlay tombstone.
func (m *Manager) DeleteGroup(uid string) error {
	_, inBase := m.base.Groups[uid]
	if _, ok := m.prop.Groups[uid]; ok && !inBase {
		delete(m.prop.Groups, uid)
		delete(m.prop.Rulings, uid)
		return nil
	}
	base, ok := m.base.Groups[uid]
	if !ok {
		return notFound("group", uid)
	}
	tombstone := base.Clone()
	tombstone.State = StateDeleted
	m.prop.Groups[uid] = tombstone
	return nil
}
