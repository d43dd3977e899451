// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package discord_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtes-biased/rulings-website/internal/discord"
	"github.com/vtes-biased/rulings-website/internal/rulings"
)

type recordedRequest struct {
	query string
	body  map[string]any
}

/* Runs a webhook endpoint capturing every message posted to it. */
func newWebhookServer(t *testing.T, channelID string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	recorded := &[]recordedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		raw, err := io.ReadAll(request.Body)
		require.NoError(t, err)
		body := map[string]any{}
		require.NoError(t, json.Unmarshal(raw, &body))
		*recorded = append(*recorded, recordedRequest{query: request.URL.RawQuery, body: body})
		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(map[string]string{"channel_id": channelID})
	}))
	t.Cleanup(server.Close)
	return server, recorded
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

/* Verifies a submission opens a thread and reports change counts. */
func TestClient_SubmitProposal(t *testing.T) {
	server, recorded := newWebhookServer(t, "555000111")
	client := discord.NewClient(server.URL, "https://rulings.vtes-biased.org", testLogger())

	prop := rulings.NewProposal("uuid-1", "Bounce cleanup", "Dedup bleed bounce rulings")
	prop.References["ANK 20170501"] = &rulings.Reference{
		UID: "ANK 20170501",
		URL: "https://www.vekn.net/forum/rules-questions/123-bounce#89",
	}

	// 1. Post the submission.
	channelID, err := client.SubmitProposal(context.Background(), prop)
	require.NoError(t, err)
	assert.Equal(t, "555000111", channelID)

	// 2. One webhook call, waiting for the thread to be created.
	require.Len(t, *recorded, 1)
	call := (*recorded)[0]
	assert.Equal(t, "wait=true", call.query)
	assert.Equal(t, "Proposal: Bounce cleanup", call.body["thread_name"])

	// 3. The embed links the proposal view and counts its changes.
	embeds, ok := call.body["embeds"].([]any)
	require.True(t, ok)
	require.Len(t, embeds, 1)
	first := embeds[0].(map[string]any)
	assert.Equal(t, "Bounce cleanup", first["title"])
	assert.Equal(t, "https://rulings.vtes-biased.org/index.html?prop="+prop.UID, first["url"])

	fields := first["fields"].([]any)
	require.Len(t, fields, 3)
	values := map[string]string{}
	for _, raw := range fields {
		field := raw.(map[string]any)
		values[field["name"].(string)] = field["value"].(string)
	}
	assert.Equal(t, "No change", values["Groups"])
	assert.Equal(t, "No change", values["Rulings"])
	assert.Equal(t, "1 change(s)", values["References"])
}

/* Verifies the approval notice lands in the submission thread. */
func TestClient_ProposalApproved(t *testing.T) {
	server, recorded := newWebhookServer(t, "555000111")
	client := discord.NewClient(server.URL, "https://rulings.vtes-biased.org", testLogger())

	prop := rulings.NewProposal("uuid-1", "Bounce cleanup", "Dedup bleed bounce rulings")
	prop.ChannelID = "555000111"

	require.NoError(t, client.ProposalApproved(context.Background(), prop))

	require.Len(t, *recorded, 1)
	call := (*recorded)[0]
	assert.Equal(t, "wait=true&thread_id=555000111", call.query)
	embeds := call.body["embeds"].([]any)
	require.Len(t, embeds, 1)
	assert.Equal(t, "Bounce cleanup APPROVED ✅", embeds[0].(map[string]any)["title"])
}

/* Verifies an unconfigured client is a silent no-op. */
func TestClient_Disabled(t *testing.T) {
	client := discord.NewClient("", "https://rulings.vtes-biased.org", testLogger())
	prop := rulings.NewProposal("uuid-1", "Anything", "")

	channelID, err := client.SubmitProposal(context.Background(), prop)
	require.NoError(t, err)
	assert.Empty(t, channelID)
	require.NoError(t, client.ProposalApproved(context.Background(), prop))
}
