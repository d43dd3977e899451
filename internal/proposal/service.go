// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package proposal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vtes-biased/rulings-website/internal/catalog"
	"github.com/vtes-biased/rulings-website/internal/platform/apperr"
	"github.com/vtes-biased/rulings-website/internal/platform/sec"
	"github.com/vtes-biased/rulings-website/internal/rulings"
)

// # Collaborator Contracts

// Notifier announces proposal lifecycle events on an external channel.
type Notifier interface {

	// SubmitProposal announces a submission and returns the discussion
	// thread id, "" when notifications are disabled.
	SubmitProposal(ctx context.Context, prop *rulings.Proposal) (string, error)

	// ProposalApproved announces an approval in the proposal's thread.
	ProposalApproved(ctx context.Context, prop *rulings.Proposal) error
}

// SnapshotCommitter persists a merged index as the new base snapshot.
type SnapshotCommitter interface {
	CommitIndex(ctx context.Context, index *rulings.Index, message string) error
}

// ReferenceResolver derives a reference uid from a forum post URL.
type ReferenceResolver interface {
	ReferenceUID(ctx context.Context, postURL string) (string, error)
}

// # Service Layer

/*
Service owns the process-wide base [rulings.Index] and orchestrates the
proposal lifecycle around it.

Reads build a short-lived [rulings.Manager] over the current index, with an
optional proposal overlay. Edits run inside the draft store's row lock, so
two contributors editing the same proposal are serialized. Approval is
additionally serialized process-wide: merging swaps the index pointer every
open proposal resolves against, so only one merge runs at a time.
*/
type Service struct {
	cards    *catalog.CardMap
	store    Store
	repo     SnapshotCommitter
	notify   Notifier
	resolver ReferenceResolver
	logger   *slog.Logger

	indexMu sync.RWMutex
	index   *rulings.Index

	mergeMu sync.Mutex
}

// NewService constructs the proposal [Service] around an initial base index.
func NewService(
	cards *catalog.CardMap,
	base *rulings.Index,
	store Store,
	repo SnapshotCommitter,
	notify Notifier,
	resolver ReferenceResolver,
	logger *slog.Logger,
) *Service {
	return &Service{
		cards:    cards,
		store:    store,
		repo:     repo,
		notify:   notify,
		resolver: resolver,
		logger:   logger,
		index:    base,
	}
}

// Index returns the current base snapshot.
func (service *Service) Index() *rulings.Index {
	service.indexMu.RLock()
	defer service.indexMu.RUnlock()
	return service.index
}

// view builds a read manager over the current index, overlaying the given
// proposal when propUID is not empty.
func (service *Service) view(ctx context.Context, propUID string) (*rulings.Manager, error) {
	var prop *rulings.Proposal
	if propUID != "" {
		stored, err := service.store.Get(ctx, propUID)
		if err != nil {
			return nil, err
		}
		prop = stored
	}
	return rulings.NewManager(service.cards, service.Index(), prop), nil
}

// # Proposal Lifecycle

/*
Start opens a new draft proposal for a user.

Parameters:
  - ctx: context.Context
  - claims: Authenticated user
  - name, description: Initial draft metadata, may be empty

Returns:
  - *rulings.Proposal: The persisted draft with its fresh uid
  - error: Storage failures
*/
func (service *Service) Start(ctx context.Context, claims *sec.AuthClaims, name, description string) (*rulings.Proposal, error) {
	prop := rulings.NewProposal(claims.UserID, name, description)
	if err := service.store.Insert(ctx, prop); err != nil {
		return nil, err
	}
	service.logger.InfoContext(ctx, "proposal_started",
		slog.String("proposal", prop.UID),
		slog.String("user", claims.UserID),
	)
	return prop, nil
}

/*
Update amends a draft's name and description.

Parameters:
  - ctx: context.Context
  - claims: Authenticated user, must be the owner or a privileged role
  - propUID: string
  - name, description: New metadata

Returns:
  - *rulings.Proposal: The updated draft
  - error: apperr.NotFound or apperr.Forbidden
*/
func (service *Service) Update(ctx context.Context, claims *sec.AuthClaims, propUID, name, description string) (*rulings.Proposal, error) {
	var updated *rulings.Proposal
	err := service.store.Update(ctx, propUID, func(prop *rulings.Proposal) error {
		if err := editable(claims, prop); err != nil {
			return err
		}
		prop.Name = name
		prop.Description = description
		updated = prop
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// List returns every open proposal.
func (service *Service) List(ctx context.Context) ([]*rulings.Proposal, error) {
	return service.store.List(ctx)
}

// Get returns one proposal by uid.
func (service *Service) Get(ctx context.Context, propUID string) (*rulings.Proposal, error) {
	return service.store.Get(ctx, propUID)
}

/*
Submit marks a draft ready for review and announces it.

Description: The draft's metadata is amended first; submission requires a
name. The notifier opens a discussion thread, whose id is recorded on the
draft so the approval notice lands in the same thread.

Parameters:
  - ctx: context.Context
  - claims: Authenticated user, must be the owner or a privileged role
  - propUID: string
  - name, description: Final metadata

Returns:
  - *rulings.Proposal: The submitted draft
  - error: apperr.Unprocessable when unnamed, apperr.NotFound, apperr.Forbidden
*/
func (service *Service) Submit(ctx context.Context, claims *sec.AuthClaims, propUID, name, description string) (*rulings.Proposal, error) {
	var submitted *rulings.Proposal
	err := service.store.Update(ctx, propUID, func(prop *rulings.Proposal) error {
		if err := editable(claims, prop); err != nil {
			return err
		}
		prop.Name = name
		prop.Description = description
		if prop.Name == "" {
			return apperr.Unprocessable("Proposal needs a name for submission")
		}
		channelID, err := service.notify.SubmitProposal(ctx, prop)
		if err != nil {
			return fmt.Errorf("proposal_submit_notification_failed: %w", err)
		}
		prop.ChannelID = channelID
		submitted = prop
		return nil
	})
	if err != nil {
		return nil, err
	}
	return submitted, nil
}

/*
Approve merges a proposal into a new base snapshot.

Description: Runs under the process-wide merge lock. Only a submitted
draft (one with a recorded discussion thread) can be approved. The draft
is merged over the current index; on success the merged index is committed to the
snapshot repository, the in-memory index pointer is swapped and the draft
row deleted, atomically with respect to other edits of the same draft.
Every other open proposal resolves against the new base from then on.

Parameters:
  - ctx: context.Context
  - claims: Authenticated user, must be the owner or a privileged role
  - propUID: string

Returns:
  - error: apperr.Conflict when the proposal is unsubmitted or inconsistent, apperr.NotFound,
    apperr.Forbidden, or snapshot persistence failures
*/
func (service *Service) Approve(ctx context.Context, claims *sec.AuthClaims, propUID string) error {
	service.mergeMu.Lock()
	defer service.mergeMu.Unlock()

	var approved *rulings.Proposal
	var merged *rulings.Index
	err := service.store.Consume(ctx, propUID, func(prop *rulings.Proposal) error {
		if err := editable(claims, prop); err != nil {
			return err
		}
		if prop.ChannelID == "" {
			return apperr.Conflict("Proposal has not been submitted yet")
		}
		manager := rulings.NewManager(service.cards, service.Index(), prop)
		index, err := manager.Merge()
		if err != nil {
			return bridge(err)
		}
		message := prop.Name
		if prop.Description != "" {
			message += "\n\n" + prop.Description
		}
		if err := service.repo.CommitIndex(ctx, index, message); err != nil {
			return err
		}
		approved = prop
		merged = index
		return nil
	})
	if err != nil {
		return err
	}

	service.indexMu.Lock()
	service.index = merged
	service.indexMu.Unlock()

	service.logger.InfoContext(ctx, "proposal_approved",
		slog.String("proposal", approved.UID),
		slog.String("name", approved.Name),
		slog.String("user", claims.UserID),
	)
	if err := service.notify.ProposalApproved(ctx, approved); err != nil {
		// the merge is already committed, the notice is best effort
		service.logger.WarnContext(ctx, "proposal_approved_notification_failed",
			slog.String("proposal", approved.UID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// # Authorization & Error Bridging

// editable reports whether the user may edit a draft: its owner, or any
// user above the basic category.
func editable(claims *sec.AuthClaims, prop *rulings.Proposal) error {
	if claims.UserID == prop.Usr {
		return nil
	}
	if sec.UserRole(claims.Role).AtLeast(sec.RoleRulemonger) {
		return nil
	}
	return apperr.Forbidden("You cannot edit this proposal")
}

// bridge maps core engine errors to transport-level application errors.
func bridge(err error) error {
	var missing *rulings.NotFoundError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &missing):
		return apperr.NotFound(missing.Kind + " " + missing.Key)
	case rulings.IsFormatError(err):
		return apperr.Unprocessable(err.Error())
	case rulings.IsConsistencyError(err):
		return apperr.Conflict(err.Error())
	default:
		return err
	}
}
