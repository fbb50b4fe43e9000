package engine

import (
	"context"
	"sort"
	"time"

	"loom/internal/faults"
	"loom/internal/models"
	"loom/internal/slack"
)

// Sort keys for ListActiveThreads.
const (
	SortByTimestamp = "timestamp"
	SortByReplies   = "replies"
	SortByActivity  = "activity"
)

// ListFilters narrows and orders the discovered threads.
type ListFilters struct {
	MinReplies     int
	Oldest         models.Timestamp
	HasAttachments bool
	SortBy         string
	Limit          int
}

func (f ListFilters) withDefaults() ListFilters {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.SortBy == "" {
		f.SortBy = SortByActivity
	}
	return f
}

// ListActiveThreads scans recent channel history and returns a summary for
// every thread parent that survives the filters, sorted descending by the
// requested key. Ties keep discovery order (ascending id).
func (e *Engine) ListActiveThreads(ctx context.Context, channelID string, filters ListFilters) ([]models.ThreadSummary, error) {
	filters = filters.withDefaults()
	switch filters.SortBy {
	case SortByTimestamp, SortByReplies, SortByActivity:
	default:
		return nil, faults.Fatal("unknown sort key %q", filters.SortBy)
	}

	parents, err := e.scanParents(ctx, channelID, filters.Oldest)
	if err != nil {
		return nil, err
	}

	filtered := parents[:0]
	for _, m := range parents {
		if m.ReplyCount < filters.MinReplies {
			continue
		}
		if filters.HasAttachments && !m.HasAttachments() {
			continue
		}
		filtered = append(filtered, m)
	}

	// Deterministic base order before the stable sort, so equal keys keep
	// ascending-id order regardless of page layout.
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].ID.Before(filtered[j].ID)
	})
	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		switch filters.SortBy {
		case SortByTimestamp:
			return a.ID.After(b.ID)
		case SortByReplies:
			return a.ReplyCount > b.ReplyCount
		default:
			return a.LastActivityAt().After(b.LastActivityAt())
		}
	})

	if len(filtered) > filters.Limit {
		filtered = filtered[:filters.Limit]
	}

	now := time.Now()
	summaries := make([]models.ThreadSummary, 0, len(filtered))
	for _, m := range filtered {
		summaries = append(summaries, e.summarize(channelID, m, now))
	}
	return summaries, nil
}

// scanParents pages through channel history sequentially and keeps only
// thread parents. Remote errors here abort the operation: without a base
// message set nothing else is derivable.
func (e *Engine) scanParents(ctx context.Context, channelID string, oldest models.Timestamp) ([]models.MessageRecord, error) {
	var parents []models.MessageRecord
	cursor := ""
	for page := 0; page < e.cfg.MaxPages; page++ {
		hp, err := e.conv.FetchHistory(ctx, channelID, slack.HistoryParams{
			Oldest: oldest,
			Cursor: cursor,
			Limit:  e.cfg.PageSize,
		})
		if err != nil {
			return nil, faults.Wrap(faults.CodeOf(err), err, "scan %s history", channelID)
		}
		for _, m := range hp.Messages {
			if m.IsThreadParent() {
				parents = append(parents, m)
			}
		}
		cursor = hp.NextCursor
		if cursor == "" {
			break
		}
	}
	return parents, nil
}

func (e *Engine) summarize(channelID string, m models.MessageRecord, now time.Time) models.ThreadSummary {
	lastActivity := m.LastActivityAt()
	participants := m.ReplyUsersCount
	if m.AuthorID != "" {
		participants++
	}
	return models.ThreadSummary{
		ThreadAnchor:     m.ID,
		ChannelID:        channelID,
		Title:            deriveTitle(m.Text),
		ReplyCount:       m.ReplyCount,
		LastActivityAt:   lastActivity,
		ParticipantCount: participants,
		PreviewText:      derivePreview(m.Text),
		Status:           models.ThreadStatusAt(lastActivity, now),
	}
}
