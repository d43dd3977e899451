// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package proposal

import (
	"context"
	"strings"

	"github.com/vtes-biased/rulings-website/internal/catalog"
	"github.com/vtes-biased/rulings-website/internal/platform/apperr"
	"github.com/vtes-biased/rulings-website/internal/rulings"
	"github.com/vtes-biased/rulings-website/internal/scraper"
)

// # Read Views

// Every read resolves through a [rulings.Manager] over the current base
// index. A non-empty propUID overlays that proposal's draft changes, so
// contributors see their edits in place while everyone else sees the base.

// veknForumPrefix marks citation URLs the resolver can derive a uid from.
const veknForumPrefix = "https://www.vekn.net/forum/"

// CardView is a catalog card hydrated with its rulings context.
type CardView struct {
	*catalog.Card
	Rulings  []*rulings.Ruling     `json:"rulings"`
	Groups   []rulings.GroupOfCard `json:"groups"`
	Backrefs []rulings.BaseCard    `json:"backrefs"`
}

// GroupView is a group hydrated with its direct rulings.
type GroupView struct {
	*rulings.Group
	Rulings []*rulings.Ruling `json:"rulings"`
}

// ReferenceSearchResult is the outcome of a reference lookup: either an
// existing reference, or a computed uid for a citation not yet recorded.
type ReferenceSearchResult struct {
	Reference   *rulings.Reference `json:"reference,omitempty"`
	ComputedUID string             `json:"computed_uid,omitempty"`
}

// Complete returns card name completions for a query prefix.
func (service *Service) Complete(query string, limit int) []catalog.Completion {
	return service.cards.Search(query, limit)
}

/*
Card returns a card with its rulings, group memberships and backrefs.

Parameters:
  - ctx: context.Context
  - propUID: Proposal overlay, "" for the base view
  - idOrName: Card id or (folded) name

Returns:
  - *CardView: Hydrated card
  - error: apperr.NotFound for unknown cards or proposals
*/
func (service *Service) Card(ctx context.Context, propUID, idOrName string) (*CardView, error) {
	manager, err := service.view(ctx, propUID)
	if err != nil {
		return nil, err
	}
	card, err := service.cards.Get(idOrName)
	if err != nil {
		return nil, bridge(err)
	}
	backrefs, err := manager.GetBackrefs(card.UID)
	if err != nil {
		return nil, bridge(err)
	}
	return &CardView{
		Card:     card,
		Rulings:  manager.GetRulings(card.UID, true, false),
		Groups:   manager.GetGroupsOfCard(card.UID),
		Backrefs: backrefs,
	}, nil
}

// Groups lists every live group in the resolved view.
func (service *Service) Groups(ctx context.Context, propUID string) ([]*rulings.Group, error) {
	manager, err := service.view(ctx, propUID)
	if err != nil {
		return nil, err
	}
	return manager.AllGroups(false), nil
}

// Group returns a group with its direct rulings.
func (service *Service) Group(ctx context.Context, propUID, uid string) (*GroupView, error) {
	manager, err := service.view(ctx, propUID)
	if err != nil {
		return nil, err
	}
	group, err := manager.GetGroup(uid, false)
	if err != nil {
		return nil, bridge(err)
	}
	return &GroupView{
		Group:   group,
		Rulings: manager.GetRulings(group.UID, true, false),
	}, nil
}

// References lists every live reference in the resolved view.
func (service *Service) References(ctx context.Context, propUID string) ([]*rulings.Reference, error) {
	manager, err := service.view(ctx, propUID)
	if err != nil {
		return nil, err
	}
	return manager.AllReferences(false), nil
}

/*
SearchReference looks a reference up by uid or url.

Description: When neither matches an existing reference but the url points
into the VEKN forum, the forum post is scraped and the canonical uid it
would get is computed, so the client can offer to record the citation.

Parameters:
  - ctx: context.Context
  - propUID: Proposal overlay, "" for the base view
  - uid: Reference uid, may be empty
  - url: Citation url, may be empty

Returns:
  - *ReferenceSearchResult: Existing reference or computed uid
  - error: apperr.NotFound, or apperr.Unprocessable when the forum page
    does not contain a valid post
*/
func (service *Service) SearchReference(ctx context.Context, propUID, uid, url string) (*ReferenceSearchResult, error) {
	manager, err := service.view(ctx, propUID)
	if err != nil {
		return nil, err
	}
	if uid != "" {
		if ref, err := manager.GetReference(uid, false); err == nil {
			return &ReferenceSearchResult{Reference: ref}, nil
		}
	}
	if url != "" {
		if ref, err := manager.GetReferenceByURL(url, false); err == nil {
			return &ReferenceSearchResult{Reference: ref}, nil
		}
		if strings.HasPrefix(url, veknForumPrefix) && service.resolver != nil {
			computed, err := service.resolver.ReferenceUID(ctx, url)
			if err != nil {
				if scraper.IsParseError(err) {
					return nil, apperr.ValidationError(err.Error())
				}
				return nil, err
			}
			return &ReferenceSearchResult{ComputedUID: computed}, nil
		}
	}
	return nil, bridge(&rulings.NotFoundError{Kind: "reference", Key: coalesce(uid, url)})
}

/*
Check runs the consistency checker over the resolved view.

An empty report means the proposal can be approved. On a clean check the
checker prunes uncited references from the overlay, so the pruned draft is
persisted before reporting.
*/
func (service *Service) Check(ctx context.Context, propUID string) ([]rulings.CheckError, error) {
	if propUID == "" {
		manager := rulings.NewManager(service.cards, service.Index(), nil)
		return manager.CheckConsistency(), nil
	}
	var report []rulings.CheckError
	err := service.store.Update(ctx, propUID, func(prop *rulings.Proposal) error {
		manager := rulings.NewManager(service.cards, service.Index(), prop)
		report = manager.CheckConsistency()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func coalesce(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
