// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package sec

// # User Categories

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access, including user category management
	RoleAdmin UserRole = "ADMIN"

	// Trusted contributor, can edit and approve any proposal
	RoleRulemonger UserRole = "RULEMONGER"

	// Default category for VEKN members, can draft and submit their own proposals
	RoleBasic UserRole = "BASIC"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-30) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 30
	case RoleRulemonger:
		return 20
	case RoleBasic:
		return 10
	default:
		return 0
	}
}
