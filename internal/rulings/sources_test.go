// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package rulings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtes-biased/rulings-website/internal/rulings"
)

/*
TestBuildReference tests uid parsing into source and date.
*/
func TestBuildReference(t *testing.T) {
	tests := []struct {
		name    string
		uid     string
		source  string
		date    string
		wantErr bool
	}{
		{"dated", "LSJ 20001225", "LSJ", "2000-12-25", false},
		{"dated_with_suffix", "LSJ 20001225-2", "LSJ", "2000-12-25", false},
		{"rulebook_no_date", "RBK Promo", "RBK", "", false},
		{"too_short", "LS", "", "", true},
		{"no_date", "LSJ", "", "", true},
		{"invalid_date", "LSJ 20001332", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := rulings.BuildReference(tt.uid, "https://www.vekn.net/x", rulings.StateOriginal)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, rulings.IsFormatError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.uid, ref.UID)
			assert.Equal(t, tt.source, ref.Source)
			assert.Equal(t, tt.date, ref.Date)
		})
	}
}

/*
TestCheckReference tests url domain and source tenure validation.
*/
func TestCheckReference(t *testing.T) {
	build := func(uid, url string) *rulings.Reference {
		ref, err := rulings.BuildReference(uid, url, rulings.StateNew)
		require.NoError(t, err)
		return ref
	}

	// 1. Valid host and date within tenure
	assert.NoError(t, rulings.CheckReference(build("LSJ 20001225", "https://groups.google.com/g/rgtcj/c/x")))
	// 2. Rulebook references carry no date and always pass the tenure check
	assert.NoError(t, rulings.CheckReference(build("RBK Promo", "https://www.vekn.net/rulebook")))
	// 3. Unlisted host
	err := rulings.CheckReference(build("LSJ 20001225", "https://example.com/x"))
	assert.True(t, rulings.IsFormatError(err))
	// 4. Missing url
	err = rulings.CheckReference(build("LSJ 20001225", ""))
	assert.True(t, rulings.IsFormatError(err))
	// 5. Date before the Rules Director's tenure
	err = rulings.CheckReference(build("ANK 20150101", "https://www.vekn.net/forum/x"))
	assert.True(t, rulings.IsConsistencyError(err))
	// 6. Date after the tenure ended
	err = rulings.CheckReference(build("LSJ 20120101", "https://www.vekn.net/forum/x"))
	assert.True(t, rulings.IsConsistencyError(err))
	// 7. Open-ended sources accept any date
	assert.NoError(t, rulings.CheckReference(build("RTR 20230101", "https://www.vekn.net/forum/x")))
}
