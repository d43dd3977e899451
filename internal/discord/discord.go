// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

/*
Package discord posts proposal lifecycle notifications to a Discord webhook.

A submitted proposal opens a forum thread for discussion; the thread id is
recorded on the proposal so the approval notice lands in the same thread.
When no webhook is configured the client is a no-op, notifications are a
side channel and never block the curation flow.
*/
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/vtes-biased/rulings-website/internal/rulings"
)

// # Definitions & Constructors

// requestTimeout bounds one webhook roundtrip.
const requestTimeout = 15 * time.Second

// Client posts proposal notifications to a Discord webhook.
type Client struct {
	webhookURL  string
	siteURLBase string
	client      *http.Client
	logger      *slog.Logger
}

// NewClient constructs a webhook [Client]. An empty webhookURL disables
// notifications.
func NewClient(webhookURL, siteURLBase string, logger *slog.Logger) *Client {
	return &Client{
		webhookURL:  webhookURL,
		siteURLBase: siteURLBase,
		client:      &http.Client{Timeout: requestTimeout},
		logger:      logger,
	}
}

// Enabled reports whether a webhook is configured.
func (c *Client) Enabled() bool {
	return c.webhookURL != ""
}

// # Webhook Payloads

type embedField struct {
	Name   string `json:"name"`
	Inline bool   `json:"inline"`
	Value  string `json:"value"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	URL         string       `json:"url,omitempty"`
	Fields      []embedField `json:"fields,omitempty"`
}

type webhookMessage struct {
	Embeds     []embed `json:"embeds"`
	ThreadName string  `json:"thread_name,omitempty"`
}

type webhookResponse struct {
	ChannelID string `json:"channel_id"`
}

/*
SubmitProposal announces a submitted proposal and opens its discussion thread.

Description: Posts an embed with the proposal name, description, a link to
the proposal view and its per-collection change counts. Discord replies with
the created thread's channel id, which the caller stores on the proposal.

Parameters:
  - ctx: context.Context
  - prop: *rulings.Proposal

Returns:
  - string: Discord channel (thread) id, "" when notifications are disabled
  - error: Webhook transport or status failures
*/
func (c *Client) SubmitProposal(ctx context.Context, prop *rulings.Proposal) (string, error) {
	if !c.Enabled() {
		return "", nil
	}

	references, groups, rulingCount := prop.ChangeCounts()
	message := webhookMessage{
		ThreadName: "Proposal: " + prop.Name,
		Embeds: []embed{{
			Title:       prop.Name,
			Description: prop.Description,
			URL:         c.proposalURL(prop),
			Fields: []embedField{
				{Name: "Groups", Inline: true, Value: changeLabel(groups)},
				{Name: "Rulings", Inline: true, Value: changeLabel(rulingCount)},
				{Name: "References", Inline: true, Value: changeLabel(references)},
			},
		}},
	}

	response, err := c.post(ctx, c.webhookURL+"?wait=true", message)
	if err != nil {
		return "", err
	}
	c.logger.InfoContext(ctx, "discord_thread_opened",
		slog.String("proposal", prop.UID),
		slog.String("channel_id", response.ChannelID),
	)
	return response.ChannelID, nil
}

/*
ProposalApproved announces an approved proposal in its discussion thread.

Parameters:
  - ctx: context.Context
  - prop: *rulings.Proposal (submitted, carries its thread id)

Returns:
  - error: Webhook transport or status failures
*/
func (c *Client) ProposalApproved(ctx context.Context, prop *rulings.Proposal) error {
	if !c.Enabled() {
		return nil
	}

	target := c.webhookURL + "?wait=true"
	if prop.ChannelID != "" {
		target += "&thread_id=" + url.QueryEscape(prop.ChannelID)
	}
	message := webhookMessage{
		Embeds: []embed{{
			Title:       prop.Name + " APPROVED ✅",
			Description: prop.Description,
		}},
	}
	_, err := c.post(ctx, target, message)
	return err
}

// post sends one webhook message and decodes Discord's reply.
func (c *Client) post(ctx context.Context, target string, message webhookMessage) (*webhookResponse, error) {
	body, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("discord_marshal_failed: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("discord_request_failed: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("discord_roundtrip_failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("discord_unexpected_status: %d", response.StatusCode)
	}

	decoded := &webhookResponse{}
	if err := json.NewDecoder(response.Body).Decode(decoded); err != nil {
		return nil, fmt.Errorf("discord_decode_failed: %w", err)
	}
	return decoded, nil
}

// changeLabel renders one change-count field value.
func changeLabel(count int) string {
	if count == 0 {
		return "No change"
	}
	return fmt.Sprintf("%d change(s)", count)
}

// proposalURL builds the public link to review a proposal.
func (c *Client) proposalURL(prop *rulings.Proposal) string {
	return fmt.Sprintf("%s/index.html?prop=%s", c.siteURLBase, url.QueryEscape(prop.UID))
}
