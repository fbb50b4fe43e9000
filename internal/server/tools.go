package server

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"loom/internal/cache"
	"loom/internal/engine"
	"loom/internal/faults"
	"loom/internal/models"
)

type listActiveThreadsArgs struct {
	Channel        string  `json:"channel"`
	MinReplies     *int    `json:"min_replies,omitempty"`
	Oldest         *string `json:"oldest,omitempty"`
	HasAttachments *bool   `json:"has_attachments,omitempty"`
	SortBy         *string `json:"sort_by,omitempty"`
	Limit          *int    `json:"limit,omitempty"`
}

type threadDetailsArgs struct {
	Channel      string `json:"channel"`
	ThreadAnchor string `json:"thread_anchor"`
}

type collectByTimerangeArgs struct {
	Channel   string `json:"channel"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Inclusive *bool  `json:"inclusive,omitempty"`
}

type resolveIdentifierArgs struct {
	Kind     string `json:"kind"`
	NameOrID string `json:"name_or_id"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_active_threads",
		Description: "List threads with recent activity in a channel, filtered and sorted",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args listActiveThreadsArgs) (*mcp.CallToolResult, any, error) {
		ctx, cancel := s.opContext(ctx)
		defer cancel()

		channelID, err := s.channelID(ctx, args.Channel)
		if err != nil {
			return failResult(err)
		}
		filters := engine.ListFilters{}
		if args.MinReplies != nil {
			filters.MinReplies = *args.MinReplies
		}
		if args.Oldest != nil {
			filters.Oldest = models.Timestamp(*args.Oldest)
		}
		if args.HasAttachments != nil {
			filters.HasAttachments = *args.HasAttachments
		}
		if args.SortBy != nil {
			filters.SortBy = *args.SortBy
		}
		if args.Limit != nil {
			filters.Limit = *args.Limit
		}

		summaries, err := s.engine.ListActiveThreads(ctx, channelID, filters)
		if err != nil {
			return failResult(err)
		}
		return okResult(map[string]any{
			"channel_id": channelID,
			"threads":    summaries,
			"count":      len(summaries),
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_thread_details",
		Description: "Get a thread's parent message, participants, and activity stats",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args threadDetailsArgs) (*mcp.CallToolResult, any, error) {
		ctx, cancel := s.opContext(ctx)
		defer cancel()

		anchor := models.Timestamp(strings.TrimSpace(args.ThreadAnchor))
		if !anchor.Valid() {
			return failResult(faults.Fatal("invalid thread_anchor %q", args.ThreadAnchor))
		}
		channelID, err := s.channelID(ctx, args.Channel)
		if err != nil {
			return failResult(err)
		}
		details, err := s.engine.GetThreadDetails(ctx, channelID, anchor)
		if err != nil {
			return failResult(err)
		}
		return okResult(details)
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "collect_threads_by_timerange",
		Description: "Collect complete thread conversations with activity inside a time range",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args collectByTimerangeArgs) (*mcp.CallToolResult, any, error) {
		ctx, cancel := s.opContext(ctx)
		defer cancel()

		channelID, err := s.channelID(ctx, args.Channel)
		if err != nil {
			return failResult(err)
		}
		r := models.TimeRange{
			Oldest:    models.Timestamp(strings.TrimSpace(args.Start)),
			Latest:    models.Timestamp(strings.TrimSpace(args.End)),
			Inclusive: args.Inclusive == nil || *args.Inclusive,
		}
		result, err := s.engine.CollectThreadsInRange(ctx, channelID, r)
		if err != nil {
			return failResult(err)
		}
		if result.Stats.Degraded {
			return degradedResult(result, result.Stats.AnchorsSkipped)
		}
		return okResult(result)
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "resolve_identifier",
		Description: "Resolve a channel or user by id or display name",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args resolveIdentifierArgs) (*mcp.CallToolResult, any, error) {
		ctx, cancel := s.opContext(ctx)
		defer cancel()

		query := strings.TrimSpace(args.NameOrID)
		if query == "" {
			return failResult(faults.Fatal("name_or_id is required"))
		}
		switch cache.Kind(strings.ToLower(args.Kind)) {
		case cache.KindChannel:
			ch, found, err := s.cache.ResolveChannel(ctx, query)
			if err != nil {
				return failResult(err)
			}
			return okResult(map[string]any{"found": found, "channel": nullable(ch, found)})
		case cache.KindPrincipal, "user":
			p, found, err := s.cache.ResolvePrincipal(ctx, query)
			if err != nil {
				return failResult(err)
			}
			return okResult(map[string]any{"found": found, "principal": nullable(p, found)})
		default:
			return failResult(faults.Fatal("unknown kind %q (want channel or user)", args.Kind))
		}
	})
}

// channelID accepts either a channel id or a display name. When the cache
// cannot serve and the argument already looks like an id, the raw id passes
// through: unresolved identifiers degrade, they do not fail the operation.
func (s *Server) channelID(ctx context.Context, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", faults.Fatal("channel is required")
	}
	ch, found, err := s.cache.ResolveChannel(ctx, arg)
	if err != nil {
		if faults.Is(err, faults.CodeUnavailable) && models.LooksLikeChannelID(arg) {
			return arg, nil
		}
		return "", err
	}
	if !found {
		if models.LooksLikeChannelID(arg) {
			return arg, nil
		}
		return "", faults.NotFound("no channel matches %q", arg)
	}
	return ch.ID, nil
}

func nullable[T any](v T, found bool) any {
	if !found {
		return nil
	}
	return v
}
