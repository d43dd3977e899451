// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package rulings

import "strings"

/*
CheckConsistency verifies the merged view and returns every problem found:

  - every ruling must cite at least one reference still resolving in the
    merged reference collection
  - every group must have a non-empty name, unique across base and overlay
  - every group must have at least one live member card
  - every group must have at least one ruling attached directly

The report is a plain return value, an empty slice means the proposal can
be merged. On a clean check the uncited references are pruned from the
overlay as a side effect, rulebook references excluded; a proposal with
outstanding errors is never pruned.
*/
func (m *Manager) CheckConsistency() []CheckError {
	var errs []CheckError

	listed := map[string]bool{}
	for _, ref := range m.AllReferences(false) {
		listed[ref.UID] = true
	}
	used := map[string]bool{}
	for _, ruling := range m.AllRulings(false) {
		cited := false
		for i := range ruling.References {
			uid := ruling.References[i].UID
			if !listed[uid] {
				continue
			}
			cited = true
			used[uid] = true
		}
		if !cited {
			errs = append(errs, CheckError{
				Target:    ruling.Target,
				RulingUID: ruling.UID,
				Message:   "at least one reference is required",
			})
		}
	}

	names := map[string]bool{}
	for _, group := range m.AllGroups(false) {
		name := group.Name
		if name == "" {
			name = "<unnamed>"
			errs = append(errs, CheckError{
				Target:  NID{UID: group.UID, Name: name},
				Message: "group has no name",
			})
		} else if names[name] {
			errs = append(errs, CheckError{
				Target:  NID{UID: group.UID, Name: name},
				Message: "group name is already taken",
			})
		}
		names[group.Name] = true
		if group.LiveCards() == 0 {
			errs = append(errs, CheckError{
				Target:  NID{UID: group.UID, Name: name},
				Message: "group is empty",
			})
		}
		if len(m.GetRulings(group.UID, true, false)) == 0 {
			errs = append(errs, CheckError{
				Target:  NID{UID: group.UID, Name: name},
				Message: "group has no ruling",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	for uid := range listed {
		if used[uid] || strings.HasPrefix(uid, RulebookSource) {
			continue
		}
		// cannot fail: the uid comes from the merged view
		_ = m.DeleteReference(uid)
	}
	return nil
}
