// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/vtes-biased/rulings-website/internal/platform/apperr"
)

// # VEKN Delegation

// CredentialChecker validates a member's credentials against an external
// authority. Satisfied by [VeknClient], faked in tests.
type CredentialChecker interface {
	// Check returns nil when the credentials are valid, apperr.Unauthorized
	// when they are not.
	Check(ctx context.Context, username, password string) error
}

// VeknClient checks credentials against the VEKN forum login API.
type VeknClient struct {
	baseURL string
	client  *http.Client
}

// NewVeknClient constructs a [VeknClient] for the given API base URL
// (https://www.vekn.net/api/vekn in production).
func NewVeknClient(baseURL string) *VeknClient {
	return &VeknClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: VeknLoginTimeout},
	}
}

// veknLoginResponse mirrors the VEKN API login payload. Only the auth token
// matters: its presence means the credentials are valid.
type veknLoginResponse struct {
	Data struct {
		Auth string `json:"auth"`
	} `json:"data"`
}

/*
Check posts the credentials to the VEKN login endpoint.

Description: The VEKN API returns an auth token on success. The token itself
is discarded: the service only needs to know the member is who they claim,
the session is then carried by our own JWT.

Parameters:
  - ctx: context.Context
  - username: string (VEKN forum login)
  - password: string

Returns:
  - error: apperr.Unauthorized on bad credentials, wrapped transport errors otherwise
*/
func (vekn *VeknClient) Check(ctx context.Context, username, password string) error {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	request, err := http.NewRequestWithContext(ctx, http.MethodPost,
		vekn.baseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("vekn_login_request_failed: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := vekn.client.Do(request)
	if err != nil {
		return fmt.Errorf("vekn_login_roundtrip_failed: %w", err)
	}
	defer response.Body.Close()

	var payload veknLoginResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return apperr.Unauthorized("VEKN login failed")
	}
	if payload.Data.Auth == "" {
		return apperr.Unauthorized("Invalid VEKN credentials")
	}
	return nil
}
