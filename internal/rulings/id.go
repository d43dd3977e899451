// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package rulings

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// StableHash derives a deterministic 8-character id from a text.
//
// A 5-byte SHAKE-128 digest base32-encodes to exactly 8 characters; the
// collision probability stays negligible below ~100k entries, which is well
// above the expected corpus size. Identical wording always yields the same id.
func StableHash(text string) string {
	digest := make([]byte, 5)
	sha3.ShakeSum128(digest, []byte(text))
	return base32.StdEncoding.EncodeToString(digest)
}

// RandomUID returns an 8-character base32 id from a secure random source.
//
// Used for proposal uids and for rulings built from empty text, which must
// never be persisted under an empty id.
func RandomUID() string {
	buf := make([]byte, 5)
	// crypto/rand.Read never fails on supported platforms.
	_, _ = rand.Read(buf)
	return base32.StdEncoding.EncodeToString(buf)
}

// NewProvisionalGroupID mints a provisional group uid for a proposal.
// Merge replaces it with the next free permanent "G" id.
func NewProvisionalGroupID() string {
	return "P" + RandomUID()
}

// PermanentGroupID formats the n-th permanent group uid.
func PermanentGroupID(n int) string {
	return fmt.Sprintf("G%05d", n)
}

// IsGroupUID reports whether uid follows the group id convention
// (permanent "G" prefix or provisional "P" prefix), as opposed to a
// catalog card id.
func IsGroupUID(uid string) bool {
	return strings.HasPrefix(uid, "G") || strings.HasPrefix(uid, "P")
}

// IsProvisionalGroupUID reports whether uid is a provisional group id.
func IsProvisionalGroupUID(uid string) bool {
	return strings.HasPrefix(uid, "P")
}
