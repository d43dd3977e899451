// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package proposal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vtes-biased/rulings-website/internal/platform/apperr"
	"github.com/vtes-biased/rulings-website/internal/platform/dberr"
	"github.com/vtes-biased/rulings-website/internal/rulings"
)

// # PostgreSQL Implementation

// PostgresStore implements [Store] on a PostgreSQL connection pool. Each
// proposal is one row in rulings.proposal holding the draft as a JSON
// document; SELECT ... FOR UPDATE serializes concurrent edits per draft.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a [PostgresStore] backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Insert persists a freshly started proposal.
func (store *PostgresStore) Insert(ctx context.Context, prop *rulings.Proposal) error {
	data, err := json.Marshal(prop)
	if err != nil {
		return fmt.Errorf("proposal_store_encode_failed: %w", err)
	}
	_, err = store.pool.Exec(ctx,
		`INSERT INTO rulings.proposal (uid, usr, data) VALUES ($1, $2, $3)`,
		prop.UID, prop.Usr, data,
	)
	if err != nil {
		return dberr.Wrap(err, "proposal_insert")
	}
	return nil
}

// Get retrieves one proposal by uid.
func (store *PostgresStore) Get(ctx context.Context, uid string) (*rulings.Proposal, error) {
	var data []byte
	err := store.pool.QueryRow(ctx,
		`SELECT data FROM rulings.proposal WHERE uid = $1`, uid,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Proposal")
	}
	if err != nil {
		return nil, dberr.Wrap(err, "proposal_get")
	}
	return decodeProposal(data)
}

// List retrieves every open proposal, ordered by uid.
func (store *PostgresStore) List(ctx context.Context) ([]*rulings.Proposal, error) {
	rows, err := store.pool.Query(ctx, `SELECT data FROM rulings.proposal ORDER BY uid`)
	if err != nil {
		return nil, dberr.Wrap(err, "proposal_list")
	}
	defer rows.Close()

	var proposals []*rulings.Proposal
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, dberr.Wrap(err, "proposal_list_scan")
		}
		prop, err := decodeProposal(data)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, prop)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "proposal_list_rows")
	}
	return proposals, nil
}

// Update applies one edit to a proposal under its row lock.
func (store *PostgresStore) Update(ctx context.Context, uid string, apply func(prop *rulings.Proposal) error) error {
	return store.withLockedRow(ctx, uid, apply, func(tx pgx.Tx, prop *rulings.Proposal) error {
		data, err := json.Marshal(prop)
		if err != nil {
			return fmt.Errorf("proposal_store_encode_failed: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE rulings.proposal SET data = $2 WHERE uid = $1`, uid, data,
		); err != nil {
			return dberr.Wrap(err, "proposal_update")
		}
		return nil
	})
}

// Consume applies one final edit and deletes the proposal, atomically.
func (store *PostgresStore) Consume(ctx context.Context, uid string, apply func(prop *rulings.Proposal) error) error {
	return store.withLockedRow(ctx, uid, apply, func(tx pgx.Tx, prop *rulings.Proposal) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM rulings.proposal WHERE uid = $1`, uid,
		); err != nil {
			return dberr.Wrap(err, "proposal_delete")
		}
		return nil
	})
}

// withLockedRow runs apply and then finish on one row-locked proposal.
func (store *PostgresStore) withLockedRow(
	ctx context.Context,
	uid string,
	apply func(prop *rulings.Proposal) error,
	finish func(tx pgx.Tx, prop *rulings.Proposal) error,
) error {
	tx, err := store.pool.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "proposal_tx_begin")
	}
	defer tx.Rollback(ctx)

	var data []byte
	err = tx.QueryRow(ctx,
		`SELECT data FROM rulings.proposal WHERE uid = $1 FOR UPDATE`, uid,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("Proposal")
	}
	if err != nil {
		return dberr.Wrap(err, "proposal_lock")
	}

	prop, err := decodeProposal(data)
	if err != nil {
		return err
	}
	if err := apply(prop); err != nil {
		return err
	}
	if err := finish(tx, prop); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return dberr.Wrap(err, "proposal_tx_commit")
	}
	return nil
}

// decodeProposal rebuilds a draft from its stored JSON document.
func decodeProposal(data []byte) (*rulings.Proposal, error) {
	prop := &rulings.Proposal{}
	if err := json.Unmarshal(data, prop); err != nil {
		return nil, fmt.Errorf("proposal_store_decode_failed: %w", err)
	}
	if prop.References == nil {
		prop.References = map[string]*rulings.Reference{}
	}
	if prop.Groups == nil {
		prop.Groups = map[string]*rulings.Group{}
	}
	if prop.Rulings == nil {
		prop.Rulings = map[string]map[string]*rulings.Ruling{}
	}
	return prop, nil
}
