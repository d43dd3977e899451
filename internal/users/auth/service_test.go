// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package auth_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtes-biased/rulings-website/internal/platform/apperr"
	"github.com/vtes-biased/rulings-website/internal/platform/sec"
	"github.com/vtes-biased/rulings-website/internal/users/auth"
)

// # Fakes

type fakeUserRepo struct {
	users  map[string]*auth.User // by vekn
	nextID int
}

func (f *fakeUserRepo) GetOrCreate(_ context.Context, vekn string) (*auth.User, error) {
	if user, ok := f.users[vekn]; ok {
		return user, nil
	}
	f.nextID++
	user := &auth.User{ID: fmt.Sprintf("uuid-%d", f.nextID), Vekn: vekn, Category: sec.RoleBasic}
	f.users[vekn] = user
	return user, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*auth.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (f *fakeUserRepo) SearchVekn(_ context.Context, prefix string, limit int) ([]*auth.User, error) {
	var out []*auth.User
	for _, user := range f.users {
		if len(out) < limit && len(user.Vekn) >= len(prefix) && user.Vekn[:len(prefix)] == prefix {
			out = append(out, user)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) List(_ context.Context, limit int) ([]*auth.User, error) {
	var out []*auth.User
	for _, user := range f.users {
		if len(out) < limit {
			out = append(out, user)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) SetCategory(_ context.Context, id string, category sec.UserRole) error {
	for _, user := range f.users {
		if user.ID == id {
			user.Category = category
			return nil
		}
	}
	return apperr.NotFound("User")
}

type fakeDenied struct {
	denied map[string]bool
}

func (f *fakeDenied) Deny(_ context.Context, hash string, _ time.Duration) error {
	f.denied[hash] = true
	return nil
}

func (f *fakeDenied) IsDenied(_ context.Context, hash string) (bool, error) {
	return f.denied[hash], nil
}

type fakeVekn struct {
	valid map[string]string // username -> password
}

func (f *fakeVekn) Check(_ context.Context, username, password string) error {
	if f.valid[username] == password && password != "" {
		return nil
	}
	return apperr.Unauthorized("Invalid VEKN credentials")
}

// fakeTokens issues "token:<uid>:<role>" strings instead of real JWTs.
type fakeTokens struct{}

func (fakeTokens) GenerateAccessToken(userID, username, role string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("token:%s:%s", userID, role), nil
}

func (fakeTokens) VerifyToken(tokenStr string) (*sec.AuthClaims, error) {
	parts := strings.Split(tokenStr, ":")
	if len(parts) != 3 || parts[0] != "token" {
		return nil, fmt.Errorf("bad token")
	}
	return &sec.AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: parts[1],
		Role:   parts[2],
	}, nil
}

func newTestService() (*auth.Service, *fakeUserRepo, *fakeDenied) {
	users := &fakeUserRepo{users: map[string]*auth.User{}}
	denied := &fakeDenied{denied: map[string]bool{}}
	vekn := &fakeVekn{valid: map[string]string{"1000123": "hunter2"}}
	service := auth.NewService(users, denied, vekn, fakeTokens{})
	return service, users, denied
}

// # Tests

/*
TestService_Login checks VEKN delegation and first-login account creation.
*/
func TestService_Login(t *testing.T) {
	service, users, _ := newTestService()
	ctx := context.Background()

	// 1. Bad credentials are rejected before touching the user store
	_, err := service.Login(ctx, "1000123", "wrong")
	require.Error(t, err)
	assert.Empty(t, users.users)

	// 2. First login creates the BASIC account
	session, err := service.Login(ctx, "1000123", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.Equal(t, sec.RoleBasic, session.User.Category)

	// 3. Second login reuses the account
	again, err := service.Login(ctx, "1000123", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, again.User.ID)
	assert.Len(t, users.users, 1)
}

/*
TestService_LogoutAndVerify checks the denylist flow.
*/
func TestService_LogoutAndVerify(t *testing.T) {
	service, _, denied := newTestService()
	ctx := context.Background()

	session, err := service.Login(ctx, "1000123", "hunter2")
	require.NoError(t, err)

	// 1. A live token verifies
	claims, err := service.VerifyToken(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)

	// 2. Logout denies the token until expiry
	require.NoError(t, service.Logout(ctx, session.AccessToken))
	assert.Len(t, denied.denied, 1)

	// 3. The revoked token no longer verifies
	_, err = service.VerifyToken(ctx, session.AccessToken)
	require.Error(t, err)
	assert.Equal(t, "Token has been revoked", apperr.As(err).Message)

	// 4. Logout is idempotent, including for garbage tokens
	require.NoError(t, service.Logout(ctx, session.AccessToken))
	require.NoError(t, service.Logout(ctx, "not-a-token"))
}

/*
TestService_CategoryManagement checks promote and demote.
*/
func TestService_CategoryManagement(t *testing.T) {
	service, users, _ := newTestService()
	ctx := context.Background()

	session, err := service.Login(ctx, "1000123", "hunter2")
	require.NoError(t, err)
	uid := session.User.ID

	require.NoError(t, service.Promote(ctx, uid))
	assert.Equal(t, sec.RoleRulemonger, users.users["1000123"].Category)

	require.NoError(t, service.Demote(ctx, uid))
	assert.Equal(t, sec.RoleBasic, users.users["1000123"].Category)

	err = service.Promote(ctx, "missing")
	assert.NotNil(t, apperr.As(err))
}
