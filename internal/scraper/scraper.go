// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

/*
Package scraper derives ruling reference identifiers from VEKN forum posts.

Rules Directors answer questions on the official forum; a ruling reference
points at one such post by URL. Given a post URL this package fetches the
thread page, locates the anchored message and computes the canonical
reference id from the author's initials and the post date, for example
"ANK 20170501".

Fetched pages are cached in Redis so repeated lookups during proposal
editing do not hammer the forum.
*/
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/net/html"

	"github.com/vtes-biased/rulings-website/internal/platform/constants"
)

// # Definitions & Constructors

const (
	fetchTimeout = 15 * time.Second
	pageCacheTTL = 1 * time.Hour

	// forumDateLayout matches the post header date, e.g. "1 May 2017".
	forumDateLayout = "2 Jan 2006"
)

// rulesDirectors maps forum profile slugs to Rules Director initials.
// Only posts by these authors are valid ruling references.
var rulesDirectors = map[string]string{
	"213-ankha":          "ANK",
	"74-pascal-bertrand": "PIB",
}

// Scraper fetches and parses VEKN forum pages.
type Scraper struct {
	client *http.Client
	cache  redis.Cmdable
}

// NewScraper constructs a [Scraper]. The cache may be nil, in which case
// every lookup fetches the page.
func NewScraper(cache redis.Cmdable) *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: fetchTimeout},
		cache:  cache,
	}
}

// # Reference Computation

/*
ReferenceUID computes the canonical reference id for a forum post URL.

Description: The URL fragment identifies the message anchor inside the
thread page. The post must be authored by a Rules Director; the id combines
the author's initials with the post date, e.g. "ANK 20170501".

Parameters:
  - ctx: context.Context
  - postURL: Full forum URL including the message fragment

Returns:
  - string: Canonical reference id
  - error: Fetch failures, or a [ParseError] when the page does not contain
    a valid Rules Director post under that anchor
*/
func (s *Scraper) ReferenceUID(ctx context.Context, postURL string) (string, error) {
	parsed, err := url.Parse(postURL)
	if err != nil {
		return "", fmt.Errorf("scraper_invalid_url: %w", err)
	}

	page, err := s.fetch(ctx, postURL)
	if err != nil {
		return "", err
	}

	post, err := findPost(page, parsed.Fragment)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s", post.author, post.date.Format("20060102")), nil
}

// fetch returns the page body, from cache when available.
func (s *Scraper) fetch(ctx context.Context, pageURL string) (string, error) {
	cacheKey := constants.RedisPrefixForumPage + pageURL
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			return cached, nil
		}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("scraper_request_failed: %w", err)
	}
	response, err := s.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("scraper_fetch_failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scraper_unexpected_status: %d", response.StatusCode)
	}
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("scraper_read_failed: %w", err)
	}

	page := string(body)
	if s.cache != nil {
		s.cache.Set(ctx, cacheKey, page, pageCacheTTL)
	}
	return page, nil
}

// # Page Parsing

// ParseError reports why a forum page did not yield a valid reference.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

// IsParseError reports whether err is a page parsing failure, as opposed
// to a transport failure.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

type forumPost struct {
	author string
	date   time.Time
}

/*
findPost scans the thread page for the anchored message.

The Kunena forum markup puts a "kdate" span in each message header and a
"kwho" profile link next to the author name. The date preceding the message
anchor belongs to the anchored message; the first profile link after the
anchor names its author.
*/
func findPost(page, anchor string) (*forumPost, error) {
	tokenizer := html.NewTokenizer(strings.NewReader(page))
	post := &forumPost{}
	inMessage := false
	inDate := false

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if post.author == "" {
				return nil, &ParseError{Message: "Message not found in VEKN forum"}
			}
			if initials, ok := directorInitials(post.author); ok {
				post.author = initials
			} else {
				return nil, &ParseError{
					Message: fmt.Sprintf("Author %s is no Rules Director", post.author),
				}
			}
			if post.date.IsZero() {
				return nil, &ParseError{Message: "Failed to find the message date"}
			}
			return post, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			inDate = false
			switch token.Data {
			case "span":
				if !inMessage && hasClass(token, "kdate") {
					inDate = true
				}
			case "a":
				if attr(token, "id") == anchor {
					inMessage = true
				}
				if inMessage && post.author == "" && hasClass(token, "kwho") {
					href := attr(token, "href")
					post.author = href[strings.LastIndex(href, "/")+1:]
				}
			}

		case html.TextToken:
			if !inDate {
				continue
			}
			text := strings.TrimSpace(string(tokenizer.Text()))
			if date, err := time.Parse(forumDateLayout, text); err == nil {
				post.date = date
			}

		case html.EndTagToken:
			inDate = false
		}
	}
}

// directorInitials resolves a profile slug or raw author name.
func directorInitials(author string) (string, bool) {
	if initials, ok := rulesDirectors[author]; ok {
		return initials, true
	}
	for _, initials := range rulesDirectors {
		if author == initials {
			return initials, true
		}
	}
	return "", false
}

// attr returns the value of the named attribute, or "".
func attr(token html.Token, name string) string {
	for _, attribute := range token.Attr {
		if attribute.Key == name {
			return attribute.Val
		}
	}
	return ""
}

// hasClass reports whether the token's class attribute contains name.
func hasClass(token html.Token, name string) bool {
	for _, class := range strings.Fields(attr(token, "class")) {
		if class == name {
			return true
		}
	}
	return false
}
