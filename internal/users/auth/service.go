// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/vtes-biased/rulings-website/internal/platform/apperr"
	"github.com/vtes-biased/rulings-website/internal/platform/sec"
)

// # Contracts & Types

// TokenProvider defines the contract for generating and verifying security tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT string for the given user.
	GenerateAccessToken(userID, username, role string, timeToLive time.Duration) (string, error)

	// VerifyToken checks the signature and validity of a JWT string.
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// Service implements the authentication use cases.
//
// # Review Process
//
// This service is the security boundary. Any change to login delegation or
// token verification must be reviewed before merge.
type Service struct {
	userRepository UserRepository
	deniedTokens   DeniedTokenRepository
	credentials    CredentialChecker
	tokenProvider  TokenProvider
}

// NewService constructs a new auth [Service] with its dependencies.
func NewService(
	userRepo UserRepository,
	deniedRepo DeniedTokenRepository,
	credentials CredentialChecker,
	tokenProv TokenProvider,
) *Service {
	return &Service{
		userRepository: userRepo,
		deniedTokens:   deniedRepo,
		credentials:    credentials,
		tokenProvider:  tokenProv,
	}
}

// # Authentication Flow

// LoginSession represents a successfully established user session.
type LoginSession struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *User
}

/*
Login delegates credential verification to the VEKN API and issues a session.

Description: On a valid VEKN login the local account is fetched, created on
first login with the BASIC category. The session is a signed JWT carrying the
account id, vekn and category.

Parameters:
  - context: context.Context
  - username: string (VEKN forum login)
  - password: string

Returns:
  - *LoginSession: Transport-ready session
  - error: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, username, password string) (*LoginSession, error) {
	if err := service.credentials.Check(context, username, password); err != nil {
		return nil, err
	}

	user, err := service.userRepository.GetOrCreate(context, username)
	if err != nil {
		return nil, fmt.Errorf("auth_service_get_or_create_failed: %w", err)
	}

	accessToken, err := service.tokenProvider.GenerateAccessToken(
		user.ID, user.Vekn, string(user.Category), AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	return &LoginSession{
		AccessToken: accessToken,
		ExpiresAt:   time.Now().Add(AccessTokenTTL),
		User:        user,
	}, nil
}

/*
Logout revokes the presented access token.

Description: The token hash is stored in the denylist until the token's
natural expiry. Idempotent: revoking an unknown or expired token succeeds.

Parameters:
  - context: context.Context
  - token: string (raw JWT)

Returns:
  - error: Denylist persistence failures
*/
func (service *Service) Logout(context context.Context, token string) error {
	claims, err := service.tokenProvider.VerifyToken(token)
	if err != nil {
		// Already invalid: nothing to revoke.
		return nil
	}

	ttl := AccessTokenTTL
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}

	if err := service.deniedTokens.Deny(context, sec.HashToken(token), ttl); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

/*
VerifyToken validates a JWT and rejects revoked tokens.

Description: Signature and expiry first, then the denylist. Used by the
authentication middleware on every request carrying a bearer token.

Parameters:
  - context: context.Context
  - token: string (raw JWT)

Returns:
  - *sec.AuthClaims: Verified claims
  - error: Unauthorized on invalid, expired or revoked tokens
*/
func (service *Service) VerifyToken(context context.Context, token string) (*sec.AuthClaims, error) {
	claims, err := service.tokenProvider.VerifyToken(token)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	denied, err := service.deniedTokens.IsDenied(context, sec.HashToken(token))
	if err != nil {
		return nil, fmt.Errorf("auth_service_denylist_failed: %w", err)
	}
	if denied {
		return nil, apperr.Unauthorized("Token has been revoked")
	}
	return claims, nil
}

// # Account Management

/*
GetUser returns an account by id.

Parameters:
  - context: context.Context
  - id: string (uuid)

Returns:
  - *User: Hydrated entity
  - error: apperr.NotFound or database failures
*/
func (service *Service) GetUser(context context.Context, id string) (*User, error) {
	return service.userRepository.FindByID(context, id)
}

/*
ListUsers returns the first accounts for the admin page.

Parameters:
  - context: context.Context

Returns:
  - []*User: Accounts sorted by vekn
  - error: Database failures
*/
func (service *Service) ListUsers(context context.Context) ([]*User, error) {
	return service.userRepository.List(context, UserListLimit)
}

/*
SearchUsers completes a VEKN id prefix, for the admin user search.

Parameters:
  - context: context.Context
  - prefix: string

Returns:
  - []*User: Matching accounts
  - error: Database failures
*/
func (service *Service) SearchUsers(context context.Context, prefix string) ([]*User, error) {
	if prefix == "" {
		return nil, nil
	}
	return service.userRepository.SearchVekn(context, prefix, VeknSearchLimit)
}

/*
Promote grants an account the RULEMONGER category.

Parameters:
  - context: context.Context
  - id: string (uuid)

Returns:
  - error: apperr.NotFound or database failures
*/
func (service *Service) Promote(context context.Context, id string) error {
	return service.userRepository.SetCategory(context, id, sec.RoleRulemonger)
}

/*
Demote resets an account to the BASIC category.

Parameters:
  - context: context.Context
  - id: string (uuid)

Returns:
  - error: apperr.NotFound or database failures
*/
func (service *Service) Demote(context context.Context, id string) error {
	return service.userRepository.SetCategory(context, id, sec.RoleBasic)
}
