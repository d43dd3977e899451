// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package scraper_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtes-biased/rulings-website/internal/scraper"
)

// threadPage renders a minimal Kunena thread with two messages. The second
// message (anchor "89") carries the author slug and date under test.
func threadPage(authorSlug string) string {
	return fmt.Sprintf(`<html><body>
<div class="kmsg">
  <span class="kdate" title="12 Mar 2017">12 Mar 2017</span>
  <a id="88"></a>
  <a class="kwho" href="/forum/profile/42-somebody">somebody</a>
  <div class="kmsgtext">Is this a bleed?</div>
</div>
<div class="kmsg">
  <span class="kdate" title="1 May 2017">1 May 2017</span>
  <a id="89"></a>
  <a class="kwho" href="/forum/profile/%s">ankha</a>
  <div class="kmsgtext">Yes, the bleed can be bounced.</div>
</div>
</body></html>`, authorSlug)
}

/* Serves one fixed thread page. */
func newForumServer(t *testing.T, page string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		fmt.Fprint(writer, page)
	}))
	t.Cleanup(server.Close)
	return server
}

/* Verifies the anchored post yields author initials and date. */
func TestScraper_ReferenceUID(t *testing.T) {
	server := newForumServer(t, threadPage("213-ankha"))
	scr := scraper.NewScraper(nil)

	uid, err := scr.ReferenceUID(context.Background(), server.URL+"/forum/rules-questions/123-bounce#89")
	require.NoError(t, err)
	assert.Equal(t, "ANK 20170501", uid)
}

/* Verifies each failure mode reports a parse error, not a transport one. */
func TestScraper_ReferenceUID_Failures(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		fragment string
		message  string
	}{
		{
			name:     "unknown anchor",
			page:     threadPage("213-ankha"),
			fragment: "999",
			message:  "Message not found in VEKN forum",
		},
		{
			name:     "author is not a Rules Director",
			page:     threadPage("42-somebody"),
			fragment: "89",
			message:  "Author 42-somebody is no Rules Director",
		},
		{
			name:     "missing date",
			page:     `<html><body><a id="89"></a><a class="kwho" href="/profile/213-ankha">ankha</a></body></html>`,
			fragment: "89",
			message:  "Failed to find the message date",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := newForumServer(t, test.page)
			scr := scraper.NewScraper(nil)

			_, err := scr.ReferenceUID(context.Background(), server.URL+"/forum/thread#"+test.fragment)
			require.Error(t, err)
			assert.True(t, scraper.IsParseError(err))
			assert.Equal(t, test.message, err.Error())
		})
	}
}

/* Verifies the date of an earlier message is not attributed to a later one. */
func TestScraper_ReferenceUID_PicksNearestDate(t *testing.T) {
	page := `<html><body>
<div class="kmsg">
  <span class="kdate">12 Mar 2017</span>
  <a id="88"></a>
  <a class="kwho" href="/forum/profile/74-pascal-bertrand">pib</a>
</div>
<div class="kmsg">
  <span class="kdate">1 May 2017</span>
  <a id="89"></a>
  <a class="kwho" href="/forum/profile/213-ankha">ankha</a>
</div>
</body></html>`
	server := newForumServer(t, page)
	scr := scraper.NewScraper(nil)

	// Anchor "88" is the first message, dated 12 Mar 2017.
	uid, err := scr.ReferenceUID(context.Background(), server.URL+"/forum/thread#88")
	require.NoError(t, err)
	assert.Equal(t, "PIB 20170312", uid)
}
