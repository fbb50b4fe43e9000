package slack

import (
	"context"
	"net/url"
	"strconv"

	"loom/internal/models"
)

// HistoryParams bound one page of a channel history fetch.
type HistoryParams struct {
	Oldest    models.Timestamp
	Latest    models.Timestamp
	Cursor    string
	Limit     int
	Inclusive bool
}

// HistoryPage is one page of messages plus the cursor for the next.
type HistoryPage struct {
	Messages   []models.MessageRecord
	NextCursor string
}

type historyResponse struct {
	envelope
	Messages []models.MessageRecord `json:"messages"`
	HasMore  bool                   `json:"has_more"`
}

// FetchHistory returns one page of channel history. Pagination is the
// caller's loop: pages must be fetched sequentially because each cursor
// comes from the previous response.
func (c *Client) FetchHistory(ctx context.Context, channelID string, p HistoryParams) (*HistoryPage, error) {
	params := url.Values{}
	params.Set("channel", channelID)
	if !p.Oldest.IsZero() {
		params.Set("oldest", string(p.Oldest))
	}
	if !p.Latest.IsZero() {
		params.Set("latest", string(p.Latest))
	}
	if p.Cursor != "" {
		params.Set("cursor", p.Cursor)
	}
	if p.Limit > 0 {
		params.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Inclusive {
		params.Set("inclusive", "true")
	}

	var resp historyResponse
	if err := c.call(ctx, "conversations.history", params, &resp); err != nil {
		return nil, err
	}
	if err := checkEnvelope("conversations.history", resp.envelope); err != nil {
		return nil, err
	}
	return &HistoryPage{
		Messages:   resp.Messages,
		NextCursor: resp.Metadata.NextCursor,
	}, nil
}

// RepliesParams bound one page of a thread reply fetch.
type RepliesParams struct {
	Cursor    string
	Limit     int
	Inclusive bool
}

// FetchReplies returns one page of a thread's messages. With Inclusive set
// the parent message is echoed back as the first record of the first page.
func (c *Client) FetchReplies(ctx context.Context, channelID string, anchor models.Timestamp, p RepliesParams) (*HistoryPage, error) {
	params := url.Values{}
	params.Set("channel", channelID)
	params.Set("ts", string(anchor))
	if p.Cursor != "" {
		params.Set("cursor", p.Cursor)
	}
	if p.Limit > 0 {
		params.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Inclusive {
		params.Set("inclusive", "true")
	}

	var resp historyResponse
	if err := c.call(ctx, "conversations.replies", params, &resp); err != nil {
		return nil, err
	}
	if err := checkEnvelope("conversations.replies", resp.envelope); err != nil {
		return nil, err
	}
	return &HistoryPage{
		Messages:   resp.Messages,
		NextCursor: resp.Metadata.NextCursor,
	}, nil
}
