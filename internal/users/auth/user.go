// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

/*
Package auth implements user identity and session management.

Accounts are thin: the VEKN forum is the source of truth for credentials, the
service never stores passwords. A successful VEKN login creates (or finds)
the local user row, which only carries the VEKN id and the user's category.

# Architecture

  - Service: Orchestrates VEKN delegation, user rows and JWT sessions.
  - Repository: Postgres for user rows, Redis for the logout denylist.
  - Security: RSA-signed JWTs, verified by the middleware on every request.
*/
package auth

import (
	"github.com/vtes-biased/rulings-website/internal/platform/sec"
)

// # Domain Entities

// User represents a registered VEKN member.
type User struct {
	ID       string       `json:"uid"`
	Vekn     string       `json:"vekn"`
	Category sec.UserRole `json:"category"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername    = "username"
	FieldPassword    = "password"
	FieldUID         = "uid"
	FieldQuery       = "query"
	FieldAccessToken = "access_token"
	FieldTokenType   = "token_type"
	FieldExpiresIn   = "expires_in"
	FieldUser        = "user"
	FieldMessage     = "message"
)
