// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package proposal

import (
	"context"
	"strings"

	"github.com/vtes-biased/rulings-website/internal/platform/apperr"
	"github.com/vtes-biased/rulings-website/internal/platform/sec"
	"github.com/vtes-biased/rulings-website/internal/rulings"
)

// # Draft Mutations

// Every mutation runs inside the draft store's row lock: the stored overlay
// is decoded, mutated through a [rulings.Manager] and written back in one
// transaction. A failed engine call rolls the row back untouched.

// edit is the shared wrapper: authorization, manager binding, error bridge.
func (service *Service) edit(ctx context.Context, claims *sec.AuthClaims, propUID string, mutate func(manager *rulings.Manager) error) error {
	return service.store.Update(ctx, propUID, func(prop *rulings.Proposal) error {
		if err := editable(claims, prop); err != nil {
			return err
		}
		manager := rulings.NewManager(service.cards, service.Index(), prop)
		if err := mutate(manager); err != nil {
			return bridge(err)
		}
		return nil
	})
}

// ## References

// InsertReference records a new dated reference in the draft.
func (service *Service) InsertReference(ctx context.Context, claims *sec.AuthClaims, propUID, uid, url string) (*rulings.Reference, error) {
	var ref *rulings.Reference
	err := service.edit(ctx, claims, propUID, func(manager *rulings.Manager) error {
		inserted, err := manager.InsertReference(uid, url)
		ref = inserted
		return err
	})
	if err != nil {
		return nil, err
	}
	return ref, nil
}

// UpdateReference changes the url of a reference in the draft.
func (service *Service) UpdateReference(ctx context.Context, claims *sec.AuthClaims, propUID, uid, url string) (*rulings.Reference, error) {
	var ref *rulings.Reference
	err := service.edit(ctx, claims, propUID, func(manager *rulings.Manager) error {
		updated, err := manager.UpdateReference(uid, url)
		ref = updated
		return err
	})
	if err != nil {
		return nil, err
	}
	return ref, nil
}

// DeleteReference tombstones a reference in the draft. Rulebook references
// are permanent and cannot be deleted.
func (service *Service) DeleteReference(ctx context.Context, claims *sec.AuthClaims, propUID, uid string) error {
	if strings.HasPrefix(uid, rulings.RulebookSource) {
		return apperr.Forbidden("Rulebook references cannot be deleted")
	}
	return service.edit(ctx, claims, propUID, func(manager *rulings.Manager) error {
		return manager.DeleteReference(uid)
	})
}

// ## Rulings

// InsertRuling adds a new ruling to a card or group in the draft.
func (service *Service) InsertRuling(ctx context.Context, claims *sec.AuthClaims, propUID, targetUID, text string) (*rulings.Ruling, error) {
	var ruling *rulings.Ruling
	err := service.edit(ctx, claims, propUID, func(manager *rulings.Manager) error {
		inserted, err := manager.InsertRuling(targetUID, text)
		ruling = inserted
		return err
	})
	if err != nil {
		return nil, err
	}
	return ruling, nil
}

// UpdateRuling rewrites a ruling's text in the draft.
func (service *Service) UpdateRuling(ctx context.Context, claims *sec.AuthClaims, propUID, targetUID, rulingUID, text string) (*rulings.Ruling, error) {
	var ruling *rulings.Ruling
	err := service.edit(ctx, claims, propUID, func(manager *rulings.Manager) error {
		updated, err := manager.UpdateRuling(targetUID, rulingUID, text)
		ruling = updated
		return err
	})
	if err != nil {
		return nil, err
	}
	return ruling, nil
}

// DeleteRuling tombstones a ruling in the draft.
func (service *Service) DeleteRuling(ctx context.Context, claims *sec.AuthClaims, propUID, targetUID, rulingUID string) error {
	return service.edit(ctx, claims, propUID, func(manager *rulings.Manager) error {
		_, err := manager.DeleteRuling(targetUID, rulingUID)
		return err
	})
}

// RestoreRuling drops the draft's changes to a ruling, reverting it to the
// base version.
func (service *Service) RestoreRuling(ctx context.Context, claims *sec.AuthClaims, propUID, targetUID, rulingUID string) (*rulings.Ruling, error) {
	var ruling *rulings.Ruling
	err := service.edit(ctx, claims, propUID, func(manager *rulings.Manager) error {
		restored, err := manager.RestoreRuling(targetUID, rulingUID)
		ruling = restored
		return err
	})
	if err != nil {
		return nil, err
	}
	return ruling, nil
}

// ## Groups

// UpsertGroup creates a group or rewrites its name and membership in the
// draft. An empty uid mints a provisional group id.
func (service *Service) UpsertGroup(ctx context.Context, claims *sec.AuthClaims, propUID, uid, name string, cards map[string]string) (*rulings.Group, error) {
	var group *rulings.Group
	err := service.edit(ctx, claims, propUID, func(manager *rulings.Manager) error {
		upserted, err := manager.UpsertGroup(uid, name, cards)
		group = upserted
		return err
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup tombstones a group in the draft.
func (service *Service) DeleteGroup(ctx context.Context, claims *sec.AuthClaims, propUID, uid string) error {
	return service.edit(ctx, claims, propUID, func(manager *rulings.Manager) error {
		return manager.DeleteGroup(uid)
	})
}

// RestoreGroup drops the draft's changes to a group, reverting it to the
// base version.
func (service *Service) RestoreGroup(ctx context.Context, claims *sec.AuthClaims, propUID, uid string) (*rulings.Group, error) {
	var group *rulings.Group
	err := service.edit(ctx, claims, propUID, func(manager *rulings.Manager) error {
		restored, err := manager.RestoreGroup(uid)
		group = restored
		return err
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// RestoreGroupCard reverts one membership row of a group to its base
// version, keeping the draft's other changes to the group.
func (service *Service) RestoreGroupCard(ctx context.Context, claims *sec.AuthClaims, propUID, uid, cardUID string) (*rulings.Group, error) {
	var group *rulings.Group
	err := service.edit(ctx, claims, propUID, func(manager *rulings.Manager) error {
		restored, err := manager.RestoreGroupCard(uid, cardUID)
		group = restored
		return err
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}
