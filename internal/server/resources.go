package server

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"loom/internal/engine"
	"loom/internal/faults"
	"loom/internal/locator"
	"loom/internal/models"
)

// Resource address templates. Registered once at startup.
const (
	addrChannels       = "slack://channels"
	addrUsers          = "slack://users"
	addrChannelThreads = "slack://channels/{channelId}/threads"
	addrThreadReplies  = "slack://threads/{threadAnchor}/replies"
)

// Advertised template forms, with the query parameters each generator
// understands spelled out for clients.
var advertisedQuery = map[string]string{
	addrChannelThreads: "{?min_replies,limit,oldest,sort_by,has_attachments}",
	addrThreadReplies:  "{?channel,limit}",
}

func (s *Server) registerResources() error {
	registrations := []struct {
		desc locator.Descriptor
		gen  locator.Generator
	}{
		{
			desc: locator.Descriptor{
				Template:    addrChannels,
				Name:        "channels",
				Description: "All workspace channels from the identifier cache",
				ContentType: "application/json",
			},
			gen: s.channelsResource,
		},
		{
			desc: locator.Descriptor{
				Template:    addrUsers,
				Name:        "users",
				Description: "All workspace members from the identifier cache",
				ContentType: "application/json",
			},
			gen: s.usersResource,
		},
		{
			desc: locator.Descriptor{
				Template:           addrChannelThreads,
				Name:               "channel-threads",
				Description:        "Threads with recent activity in one channel",
				ContentType:        "application/json",
				RequiresRemoteAuth: true,
			},
			gen: s.channelThreadsResource,
		},
		{
			desc: locator.Descriptor{
				Template:           addrThreadReplies,
				Name:               "thread-replies",
				Description:        "One complete thread: parent plus replies ascending",
				ContentType:        "application/json",
				RequiresRemoteAuth: true,
			},
			gen: s.threadRepliesResource,
		},
	}

	for _, r := range registrations {
		if err := s.locator.Register(r.desc, r.gen); err != nil {
			return err
		}
	}

	for _, d := range s.locator.Descriptors() {
		if d.IsTemplate() {
			s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
				URITemplate: d.Template + advertisedQuery[d.Template],
				Name:        d.Name,
				Description: d.Description,
				MIMEType:    d.ContentType,
			}, s.readResource)
			continue
		}
		s.mcp.AddResource(&mcp.Resource{
			URI:         d.Template,
			Name:        d.Name,
			Description: d.Description,
			MIMEType:    d.ContentType,
		}, s.readResource)
	}
	return nil
}

// readResource routes every resource read through the locator.
func (s *Server) readResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	address := req.Params.URI
	res, err := s.locator.Resolve(address)
	if err != nil {
		return nil, err
	}
	content, err := res.Generator(ctx, locator.Request{
		Address:    address,
		PathParams: res.PathParams,
		Query:      res.Query,
	})
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      address,
				MIMEType: content.ContentType,
				Text:     content.Text,
			},
		},
	}, nil
}

func jsonContent(address, contentType string, v any) (*locator.Content, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &locator.Content{URI: address, ContentType: contentType, Text: string(b)}, nil
}

func (s *Server) channelsResource(ctx context.Context, req locator.Request) (*locator.Content, error) {
	channels, err := s.cache.Channels(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContent(req.Address, "application/json", map[string]any{
		"channels": channels,
		"count":    len(channels),
	})
}

func (s *Server) usersResource(ctx context.Context, req locator.Request) (*locator.Content, error) {
	principals, err := s.cache.Principals(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContent(req.Address, "application/json", map[string]any{
		"users": principals,
		"count": len(principals),
	})
}

func (s *Server) channelThreadsResource(ctx context.Context, req locator.Request) (*locator.Content, error) {
	channelID := req.PathParams["channelId"]
	filters := engine.ListFilters{}
	if v := req.Query.Get("min_replies"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, faults.Fatal("invalid min_replies %q", v)
		}
		filters.MinReplies = n
	}
	if v := req.Query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, faults.Fatal("invalid limit %q", v)
		}
		filters.Limit = n
	}
	if v := req.Query.Get("oldest"); v != "" {
		filters.Oldest = models.Timestamp(v)
	}
	if v := req.Query.Get("sort_by"); v != "" {
		filters.SortBy = v
	}
	if v := req.Query.Get("has_attachments"); v != "" {
		filters.HasAttachments = v == "true" || v == "1"
	}

	summaries, err := s.engine.ListActiveThreads(ctx, channelID, filters)
	if err != nil {
		return nil, err
	}
	return jsonContent(req.Address, "application/json", map[string]any{
		"channel_id": channelID,
		"threads":    summaries,
		"count":      len(summaries),
	})
}

func (s *Server) threadRepliesResource(ctx context.Context, req locator.Request) (*locator.Content, error) {
	anchor := models.Timestamp(req.PathParams["threadAnchor"])
	if !anchor.Valid() {
		return nil, faults.Fatal("invalid thread anchor %q", req.PathParams["threadAnchor"])
	}
	// The channel query parameter is required here; that contract belongs to
	// this generator, not the locator.
	channel := strings.TrimSpace(req.Query.Get("channel"))
	if channel == "" {
		return nil, faults.Fatal("channel query parameter is required")
	}
	channelID, err := s.channelID(ctx, channel)
	if err != nil {
		return nil, err
	}

	thread, err := s.engine.CollectThread(ctx, channelID, anchor)
	if err != nil {
		return nil, err
	}
	if v := req.Query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, faults.Fatal("invalid limit %q", v)
		}
		if n >= 0 && n < len(thread.Replies) {
			thread.Replies = thread.Replies[:n]
		}
	}
	return jsonContent(req.Address, "application/json", thread)
}
