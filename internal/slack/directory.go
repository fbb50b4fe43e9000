package slack

import (
	"context"
	"net/url"
	"strconv"

	"loom/internal/models"
)

// enumeration page size; the service caps list endpoints well above this.
const listPageSize = 200

type wireChannel struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Topic struct {
		Value string `json:"value"`
	} `json:"topic"`
	Purpose struct {
		Value string `json:"value"`
	} `json:"purpose"`
	IsPrivate  bool `json:"is_private"`
	IsArchived bool `json:"is_archived"`
	NumMembers int  `json:"num_members"`
}

type wireUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RealName string `json:"real_name"`
	Profile  struct {
		RealName    string `json:"real_name"`
		DisplayName string `json:"display_name"`
	} `json:"profile"`
	IsBot   bool `json:"is_bot"`
	Deleted bool `json:"deleted"`
}

type channelsResponse struct {
	envelope
	Channels []wireChannel `json:"channels"`
}

type usersResponse struct {
	envelope
	Members []wireUser `json:"members"`
}

// ListChannels enumerates every channel, paginating until exhaustion. Used
// only by cache refresh.
func (c *Client) ListChannels(ctx context.Context) ([]models.Channel, error) {
	var out []models.Channel
	cursor := ""
	for {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(listPageSize))
		params.Set("types", "public_channel,private_channel")
		params.Set("exclude_archived", "false")
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var resp channelsResponse
		if err := c.call(ctx, "conversations.list", params, &resp); err != nil {
			return nil, err
		}
		if err := checkEnvelope("conversations.list", resp.envelope); err != nil {
			return nil, err
		}
		for _, ch := range resp.Channels {
			out = append(out, models.Channel{
				ID:         ch.ID,
				Name:       ch.Name,
				Topic:      ch.Topic.Value,
				Purpose:    ch.Purpose.Value,
				IsPrivate:  ch.IsPrivate,
				IsArchived: ch.IsArchived,
				NumMembers: ch.NumMembers,
			})
		}
		cursor = resp.Metadata.NextCursor
		if cursor == "" {
			return out, nil
		}
	}
}

// ListPrincipals enumerates every workspace member, paginating until
// exhaustion. Used only by cache refresh.
func (c *Client) ListPrincipals(ctx context.Context) ([]models.Principal, error) {
	var out []models.Principal
	cursor := ""
	for {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(listPageSize))
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var resp usersResponse
		if err := c.call(ctx, "users.list", params, &resp); err != nil {
			return nil, err
		}
		if err := checkEnvelope("users.list", resp.envelope); err != nil {
			return nil, err
		}
		for _, u := range resp.Members {
			realName := u.RealName
			if realName == "" {
				realName = u.Profile.RealName
			}
			out = append(out, models.Principal{
				ID:          u.ID,
				Name:        u.Name,
				RealName:    realName,
				DisplayName: u.Profile.DisplayName,
				IsBot:       u.IsBot,
				Deleted:     u.Deleted,
			})
		}
		cursor = resp.Metadata.NextCursor
		if cursor == "" {
			return out, nil
		}
	}
}
