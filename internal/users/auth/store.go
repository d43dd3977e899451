// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package auth

import (
	"context"
	"time"

	"github.com/vtes-biased/rulings-website/internal/platform/sec"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		GetOrCreate returns the account for the given VEKN id, creating it
		with the BASIC category when it does not exist yet.

		Parameters:
		  - context: context.Context
		  - vekn: string (VEKN forum login)

		Returns:
		  - *User: Hydrated entity
		  - error: Database failures
	*/
	GetOrCreate(context context.Context, vekn string) (*User, error)

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string (uuid)

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		SearchVekn returns accounts whose VEKN id starts with the given prefix.

		Parameters:
		  - context: context.Context
		  - prefix: string
		  - limit: int

		Returns:
		  - []*User: Matching accounts, sorted by vekn
		  - error: Database failures
	*/
	SearchVekn(context context.Context, prefix string, limit int) ([]*User, error)

	/*
		List returns the first accounts sorted by vekn, for the admin page.

		Parameters:
		  - context: context.Context
		  - limit: int

		Returns:
		  - []*User: Accounts
		  - error: Database failures
	*/
	List(context context.Context, limit int) ([]*User, error)

	/*
		SetCategory updates an account's category.

		Parameters:
		  - context: context.Context
		  - id: string (uuid)
		  - category: sec.UserRole

		Returns:
		  - error: apperr.NotFound or database failures
	*/
	SetCategory(context context.Context, id string, category sec.UserRole) error
}

// # Volatile Data Access

// DeniedTokenRepository defines the contract for the logout token denylist.
//
// A JWT cannot be revoked, so logout stores the token's hash until its
// natural expiry. Verification rejects any denied token.
type DeniedTokenRepository interface {

	/*
		Deny marks a token hash as revoked for the given duration.

		Parameters:
		  - context: context.Context
		  - tokenHash: string
		  - ttl: time.Duration (remaining token lifetime)

		Returns:
		  - error: Persistence failures
	*/
	Deny(context context.Context, tokenHash string, ttl time.Duration) error

	/*
		IsDenied reports whether a token hash has been revoked.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - bool: true when the token must be rejected
		  - error: Retrieval failures
	*/
	IsDenied(context context.Context, tokenHash string) (bool, error)
}
