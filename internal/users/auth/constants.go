// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package auth

import "time"

// # Authentication Constraints

const (
	// AccessTokenTTL is the duration a JWT access token remains valid.
	// Curation sessions are long: a full day so contributors don't lose
	// their login mid-edit.
	AccessTokenTTL = 24 * time.Hour

	// VeknLoginTimeout bounds the login delegation roundtrip to the VEKN API.
	VeknLoginTimeout = 15 * time.Second

	// UserListLimit is the number of users shown on the admin page.
	UserListLimit = 50

	// VeknSearchLimit is the number of matches returned by the vekn completion.
	VeknSearchLimit = 10
)
