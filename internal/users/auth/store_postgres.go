// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vtes-biased/rulings-website/internal/platform/apperr"
	"github.com/vtes-biased/rulings-website/internal/platform/dberr"
	"github.com/vtes-biased/rulings-website/internal/platform/sec"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

/*
GetOrCreate returns the account for the given VEKN id, creating it on first
login.

Description: The lookup runs FOR UPDATE inside a transaction so two
concurrent first logins of the same member cannot both insert; the loser of
the race blocks, then finds the created row.

Parameters:
  - context: context.Context
  - vekn: string

Returns:
  - *User: Hydrated account entity
  - error: Database failures
*/
func (repository *PostgresUserRepository) GetOrCreate(context context.Context, vekn string) (*User, error) {
	tx, err := repository.pool.Begin(context)
	if err != nil {
		return nil, fmt.Errorf("postgres_user_repo_begin_failed: %w", err)
	}
	defer tx.Rollback(context)

	const selectQuery = `
		SELECT uid, vekn, category
		FROM users.account
		WHERE vekn = $1
		FOR UPDATE`

	user := &User{}
	err = tx.QueryRow(context, selectQuery, vekn).Scan(&user.ID, &user.Vekn, &user.Category)
	if err == nil {
		return user, tx.Commit(context)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, dberr.Wrap(err, "find user")
	}

	const insertQuery = `
		INSERT INTO users.account (uid, vekn, category)
		VALUES (DEFAULT, $1, $2)
		RETURNING uid, vekn, category`

	err = tx.QueryRow(context, insertQuery, vekn, sec.RoleBasic).
		Scan(&user.ID, &user.Vekn, &user.Category)
	if err != nil {
		return nil, dberr.Wrap(err, "create user")
	}
	return user, tx.Commit(context)
}

/*
FindByID retrieves an account by its uuid.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database failures
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `
		SELECT uid, vekn, category
		FROM users.account
		WHERE uid = $1`

	user := &User{}
	err := repository.pool.QueryRow(context, query, id).Scan(&user.ID, &user.Vekn, &user.Category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, dberr.Wrap(err, "find user")
	}
	return user, nil
}

/*
SearchVekn returns accounts whose VEKN id starts with the given prefix.

Parameters:
  - context: context.Context
  - prefix: string
  - limit: int

Returns:
  - []*User: Matching accounts sorted by vekn
  - error: Database failures
*/
func (repository *PostgresUserRepository) SearchVekn(context context.Context, prefix string, limit int) ([]*User, error) {
	const query = `
		SELECT uid, vekn, category
		FROM users.account
		WHERE vekn LIKE $1 || '%'
		ORDER BY vekn
		LIMIT $2`

	rows, err := repository.pool.Query(context, query, prefix, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "search users")
	}
	defer rows.Close()
	return scanUsers(rows)
}

/*
List returns the first accounts sorted by vekn.

Parameters:
  - context: context.Context
  - limit: int

Returns:
  - []*User: Accounts
  - error: Database failures
*/
func (repository *PostgresUserRepository) List(context context.Context, limit int) ([]*User, error) {
	const query = `
		SELECT uid, vekn, category
		FROM users.account
		ORDER BY vekn
		LIMIT $1`

	rows, err := repository.pool.Query(context, query, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "list users")
	}
	defer rows.Close()
	return scanUsers(rows)
}

/*
SetCategory updates an account's category.

Parameters:
  - context: context.Context
  - id: string
  - category: sec.UserRole

Returns:
  - error: apperr.NotFound when the account does not exist
*/
func (repository *PostgresUserRepository) SetCategory(context context.Context, id string, category sec.UserRole) error {
	const query = `
		UPDATE users.account
		SET category = $2
		WHERE uid = $1`

	tag, err := repository.pool.Exec(context, query, id, category)
	if err != nil {
		return dberr.Wrap(err, "update user category")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// scanUsers collects user rows.
func scanUsers(rows pgx.Rows) ([]*User, error) {
	var users []*User
	for rows.Next() {
		user := &User{}
		if err := rows.Scan(&user.ID, &user.Vekn, &user.Category); err != nil {
			return nil, fmt.Errorf("postgres_user_repo_scan_failed: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "read users")
	}
	return users, nil
}
