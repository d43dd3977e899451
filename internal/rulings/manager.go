// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package rulings

import "sort"

// Manager binds a base [Index] and a [Proposal] overlay behind a single
// read/write surface.
//
// Reads resolve through the overlay first: a tombstone hides the base entry,
// any other overlay entry shadows it. Mutations only ever touch the overlay,
// the base Index is never written. A Manager is cheap to build and is meant
// to live for a single request; card lookups are cached per instance.
type Manager struct {
	cards CardResolver
	base  *Index
	prop  *Proposal

	cardCache map[string]BaseCard
}

// NewManager binds an index and a proposal. A nil proposal yields a
// read-only view of the base index.
func NewManager(cards CardResolver, base *Index, prop *Proposal) *Manager {
	if prop == nil {
		prop = &Proposal{
			References: map[string]*Reference{},
			Groups:     map[string]*Group{},
			Rulings:    map[string]map[string]*Ruling{},
		}
	}
	return &Manager{
		cards:     cards,
		base:      base,
		prop:      prop,
		cardCache: map[string]BaseCard{},
	}
}

// Proposal exposes the bound overlay, for persistence after a mutation.
func (m *Manager) Proposal() *Proposal { return m.prop }

// resolveCard looks a card up in the catalog, caching hits. The cache lives
// as long as the Manager, which never outlives its base index.
func (m *Manager) resolveCard(idOrName string) (BaseCard, error) {
	if card, ok := m.cardCache[idOrName]; ok {
		return card, nil
	}
	card, err := m.cards.Resolve(idOrName)
	if err != nil {
		return BaseCard{}, err
	}
	m.cardCache[idOrName] = card
	return card, nil
}

// # References

/*
AllReferences lists every reference in the merged view, overlay entries
first. Tombstoned references are skipped unless deleted is true.
*/
func (m *Manager) AllReferences(deleted bool) []*Reference {
	var refs []*Reference
	for _, uid := range sortedKeys(m.prop.References) {
		ref := m.prop.References[uid]
		if deleted || ref.State != StateDeleted {
			refs = append(refs, ref)
		}
	}
	for _, uid := range sortedKeys(m.base.References) {
		if _, shadowed := m.prop.References[uid]; shadowed {
			continue
		}
		refs = append(refs, m.base.References[uid])
	}
	return refs
}

/*
GetReference returns the reference for a uid, overlay first.

Parameters:
  - uid: the reference uid, eg. "LSJ 20001225"
  - deleted: when true, a tombstoned reference is returned instead of
    reporting not found

Returns [NotFoundError] for unknown uids and, unless deleted is set, for
tombstoned ones.
*/
func (m *Manager) GetReference(uid string, deleted bool) (*Reference, error) {
	if ref, ok := m.prop.References[uid]; ok {
		if !deleted && ref.State == StateDeleted {
			return nil, notFound("reference", uid)
		}
		return ref, nil
	}
	if ref, ok := m.base.References[uid]; ok {
		return ref, nil
	}
	return nil, notFound("reference", uid)
}

// GetReferenceByURL returns the reference citing a url, overlay first.
// Returns [NotFoundError] when no live reference cites it. A base entry
// whose url was rewritten by its overlay copy no longer matches its old
// url, even when the overlay copy kept the same uid.
func (m *Manager) GetReferenceByURL(url string, deleted bool) (*Reference, error) {
	for _, ref := range m.prop.References {
		if ref.URL != url {
			continue
		}
		if deleted || ref.State != StateDeleted {
			return ref, nil
		}
	}
	for _, ref := range m.base.References {
		if ref.URL != url {
			continue
		}
		if overlay, ok := m.prop.References[ref.UID]; ok {
			if !deleted && overlay.State == StateDeleted {
				continue
			}
			// shadowed by an overlay copy with a different url
			if overlay.URL != url {
				continue
			}
		}
		return ref, nil
	}
	return nil, notFound("reference", url)
}

// # Groups

// AllGroups lists every group in the merged view sorted by name, overlay
// entries first. Tombstoned groups are skipped unless deleted is true.
func (m *Manager) AllGroups(deleted bool) []*Group {
	var groups []*Group
	for _, uid := range sortedKeys(m.prop.Groups) {
		group := m.prop.Groups[uid]
		if !deleted && group.State == StateDeleted {
			continue
		}
		groups = append(groups, group)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	var base []*Group
	for _, uid := range sortedKeys(m.base.Groups) {
		if _, shadowed := m.prop.Groups[uid]; shadowed {
			continue
		}
		base = append(base, m.base.Groups[uid])
	}
	sort.SliceStable(base, func(i, j int) bool { return base[i].Name < base[j].Name })
	return append(groups, base...)
}

// GetGroup returns the group for a uid, overlay first.
// Returns [NotFoundError] for unknown uids and, unless deleted is set,
// for tombstoned ones.
func (m *Manager) GetGroup(uid string, deleted bool) (*Group, error) {
	if group, ok := m.prop.Groups[uid]; ok {
		if !deleted && group.State == StateDeleted {
			return nil, notFound("group", uid)
		}
		return group, nil
	}
	if group, ok := m.base.Groups[uid]; ok {
		return group, nil
	}
	return nil, notFound("group", uid)
}

// GroupMembership pairs a group with one of its membership rows.
type GroupMembership struct {
	Group *Group
	Card  *CardInGroup
}

// GetGroupsOf yields the live groups a card is a member of, alongside the
// membership row holding the card's prefix in each.
func (m *Manager) GetGroupsOf(cardUID string) []GroupMembership {
	var memberships []GroupMembership
	baseGroups := m.base.GroupsOfCard[cardUID]
	for _, uid := range sortedKeys(baseGroups) {
		group, err := m.GetGroup(uid, false)
		if err != nil {
			// removed by the proposal
			continue
		}
		if card := memberRow(group, cardUID); card != nil {
			memberships = append(memberships, GroupMembership{Group: group, Card: card})
		}
	}
	for _, uid := range sortedKeys(m.prop.Groups) {
		if baseGroups[uid] {
			continue
		}
		group := m.prop.Groups[uid]
		if group.State == StateDeleted {
			continue
		}
		if card := memberRow(group, cardUID); card != nil {
			memberships = append(memberships, GroupMembership{Group: group, Card: card})
		}
	}
	return memberships
}

func memberRow(group *Group, cardUID string) *CardInGroup {
	for i := range group.Cards {
		if group.Cards[i].UID == cardUID && group.Cards[i].State != StateDeleted {
			return &group.Cards[i]
		}
	}
	return nil
}

// GetGroupsOfCard yields the groups a card is part of, as card-centric
// [GroupOfCard] records carrying the card's prefix in each group.
func (m *Manager) GetGroupsOfCard(cardUID string) []GroupOfCard {
	var groups []GroupOfCard
	for _, membership := range m.GetGroupsOf(cardUID) {
		groups = append(groups, GroupOfCard{
			NID:     NID{UID: membership.Group.UID, Name: membership.Group.Name},
			State:   membership.Group.State,
			Prefix:  membership.Card.Prefix,
			Symbols: membership.Card.Symbols,
		})
	}
	return groups
}

// # Rulings

// AllRulings lists every ruling in the merged view, without group
// projection. Tombstoned rulings are skipped unless deleted is true.
func (m *Manager) AllRulings(deleted bool) []*Ruling {
	var rulings []*Ruling
	for _, uid := range sortedKeys(m.base.Rulings) {
		rulings = append(rulings, m.GetRulings(uid, false, deleted)...)
	}
	for _, uid := range sortedKeys(m.prop.Rulings) {
		if _, ok := m.base.Rulings[uid]; ok {
			continue
		}
		rulings = append(rulings, m.GetRulings(uid, false, deleted)...)
	}
	return rulings
}

/*
GetRulings lists the rulings currently attached to a card or group.

For a card, when group is true, the rulings of every group the card belongs
to are projected in after the card's own: each projected ruling gets the
card's prefix in that group prepended to its text, with the prefix symbols
appended.

A MODIFIED overlay entry whose base counterpart has disappeared (edited away
by a concurrently merged proposal) degrades to NEW in place, so the edit is
kept rather than silently dropped. A tombstone whose base counterpart has
disappeared is simply skipped.
*/
func (m *Manager) GetRulings(uid string, group bool, deleted bool) []*Ruling {
	var rulings []*Ruling
	overlay := m.prop.Rulings[uid]
	for _, rulingUID := range sortedKeys(overlay) {
		ruling := overlay[rulingUID]
		_, inBase := m.base.Rulings[uid][rulingUID]
		if ruling.State == StateModified && !inBase {
			ruling.State = StateNew
		}
		if ruling.State == StateNew {
			inBase = true
		}
		if inBase && (deleted || ruling.State != StateDeleted) {
			rulings = append(rulings, ruling)
		}
	}
	for _, rulingUID := range sortedKeys(m.base.Rulings[uid]) {
		if _, shadowed := overlay[rulingUID]; shadowed {
			continue
		}
		rulings = append(rulings, m.base.Rulings[uid][rulingUID])
	}
	if IsGroupUID(uid) || !group {
		return rulings
	}
	for _, membership := range m.GetGroupsOf(uid) {
		for _, ruling := range m.GetRulings(membership.Group.UID, true, false) {
			text := ruling.Text
			if membership.Card.Prefix != "" {
				text = membership.Card.Prefix + " " + text
			}
			projected := ruling.Clone()
			projected.Text = text
			projected.Symbols = append(projected.Symbols, membership.Card.Symbols...)
			rulings = append(rulings, projected)
		}
	}
	return rulings
}

/*
GetRuling retrieves a ruling by target uid and ruling uid, overlay first.

Returns [NotFoundError] when the ruling does not exist, or has been deleted
by the proposal and deleted is false. Like [Manager.GetRulings] it degrades
an orphaned MODIFIED entry to NEW in place.
*/
func (m *Manager) GetRuling(targetUID, rulingUID string, deleted bool) (*Ruling, error) {
	if ruling, ok := m.prop.Rulings[targetUID][rulingUID]; ok {
		if !deleted && ruling.State == StateDeleted {
			return nil, notFound("ruling", targetUID+":"+rulingUID)
		}
		_, inBase := m.base.Rulings[targetUID][rulingUID]
		if ruling.State == StateModified && !inBase {
			ruling.State = StateNew
		}
		if ruling.State == StateDeleted && !inBase {
			return nil, notFound("ruling", targetUID+":"+rulingUID)
		}
		return ruling, nil
	}
	if ruling, ok := m.base.Rulings[targetUID][rulingUID]; ok {
		return ruling, nil
	}
	return nil, notFound("ruling", targetUID+":"+rulingUID)
}

// GetBackrefs yields the cards that have a ruling mentioning the given card,
// with group rulings expanded to the group's live members.
func (m *Manager) GetBackrefs(cardUID string) ([]BaseCard, error) {
	var backrefs []Backref
	for _, targetUID := range sortedKeys(m.prop.Rulings) {
		for _, rulingUID := range sortedKeys(m.prop.Rulings[targetUID]) {
			ruling := m.prop.Rulings[targetUID][rulingUID]
			if ruling.State == StateDeleted {
				continue
			}
			if !mentionsCard(ruling, cardUID) {
				continue
			}
			backrefs = append(backrefs, Backref{TargetUID: targetUID, RulingUID: rulingUID})
		}
	}
	for _, backref := range m.base.Backrefs[cardUID] {
		if _, shadowed := m.prop.Rulings[backref.TargetUID][backref.RulingUID]; shadowed {
			// ruling changed by the proposal, the overlay scan covered it
			continue
		}
		backrefs = append(backrefs, backref)
	}
	targets := map[string]bool{}
	for _, backref := range backrefs {
		targets[backref.TargetUID] = true
	}
	var cards []BaseCard
	for _, uid := range sortedKeys(targets) {
		if IsGroupUID(uid) {
			group, err := m.GetGroup(uid, false)
			if err != nil {
				// removed by the proposal
				continue
			}
			for i := range group.Cards {
				if group.Cards[i].State == StateDeleted {
					continue
				}
				cards = append(cards, group.Cards[i].BaseCard)
			}
			continue
		}
		card, err := m.resolveCard(uid)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func mentionsCard(ruling *Ruling, cardUID string) bool {
	for i := range ruling.Cards {
		if ruling.Cards[i].UID == cardUID {
			return true
		}
	}
	return false
}

// BuildNID resolves a bare uid to its NID, checking the group id convention
// first and falling back to the catalog.
func (m *Manager) BuildNID(uid string) (NID, error) {
	if IsGroupUID(uid) {
		group, err := m.GetGroup(uid, false)
		if err != nil {
			return NID{}, err
		}
		return NID{UID: group.UID, Name: group.Name}, nil
	}
	card, err := m.resolveCard(uid)
	if err != nil {
		return NID{}, err
	}
	return card.NID, nil
}

// buildRuling builds a ruling resolving references through the overlay.
func (m *Manager) buildRuling(text string, target NID, uid string, state State) (*Ruling, error) {
	refs := layeredReferences{base: m.base.References, overlay: m.prop.References}
	return BuildRuling(m.cards, refs, text, target, uid, state)
}
