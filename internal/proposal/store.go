// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package proposal

import (
	"context"

	"github.com/vtes-biased/rulings-website/internal/rulings"
)

// # Draft Persistence

// Store defines the persistence contract for proposal drafts.
//
// A draft is stored as one opaque JSON document per proposal. Edits go
// through [Store.Update] or [Store.Consume], which hold a row lock for the
// duration of the callback so concurrent edits of the same proposal are
// serialized instead of lost.
type Store interface {

	/*
		Insert persists a freshly started proposal.

		Parameters:
		  - ctx: context.Context
		  - prop: *rulings.Proposal

		Returns:
		  - error: Conflict on duplicate uid, or storage failures
	*/
	Insert(ctx context.Context, prop *rulings.Proposal) error

	/*
		Get retrieves one proposal by uid.

		Parameters:
		  - ctx: context.Context
		  - uid: string

		Returns:
		  - *rulings.Proposal: The stored draft
		  - error: apperr.NotFound if missing, or storage failures
	*/
	Get(ctx context.Context, uid string) (*rulings.Proposal, error)

	/*
		List retrieves every open proposal, ordered by uid.

		Parameters:
		  - ctx: context.Context

		Returns:
		  - []*rulings.Proposal: All stored drafts
		  - error: Storage failures
	*/
	List(ctx context.Context) ([]*rulings.Proposal, error)

	/*
		Update applies one edit to a proposal under its row lock.

		Description: The proposal row is locked, decoded and handed to apply;
		when apply succeeds the mutated document is written back and the lock
		released. When apply fails the transaction is rolled back and the
		stored draft is untouched.

		Parameters:
		  - ctx: context.Context
		  - uid: string
		  - apply: Edit callback, run while the row lock is held

		Returns:
		  - error: apperr.NotFound if missing, the apply error, or storage
		    failures
	*/
	Update(ctx context.Context, uid string, apply func(prop *rulings.Proposal) error) error

	/*
		Consume applies one final edit and deletes the proposal, atomically.

		Description: Same locking discipline as [Store.Update], but on success
		the row is deleted instead of written back. Used on approval, where
		the draft's changes move into the base snapshot.

		Parameters:
		  - ctx: context.Context
		  - uid: string
		  - apply: Final callback, run while the row lock is held

		Returns:
		  - error: apperr.NotFound if missing, the apply error, or storage
		    failures
	*/
	Consume(ctx context.Context, uid string, apply func(prop *rulings.Proposal) error) error
}
