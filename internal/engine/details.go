package engine

import (
	"context"
	"sort"
	"time"

	"loom/internal/models"
)

// GetThreadDetails collects one thread and derives its participant roster:
// the parent author as creator plus every distinct reply author, with
// per-author message counts and first/last reply timestamps. Display names
// come from the identifier cache when it can serve them.
func (e *Engine) GetThreadDetails(ctx context.Context, channelID string, anchor models.Timestamp) (*models.ThreadDetails, error) {
	ct, err := e.CollectThread(ctx, channelID, anchor)
	if err != nil {
		return nil, err
	}

	byAuthor := map[string]*models.ThreadParticipant{}
	order := []string{}
	if ct.ParentMessage.AuthorID != "" {
		byAuthor[ct.ParentMessage.AuthorID] = &models.ThreadParticipant{
			PrincipalID:  ct.ParentMessage.AuthorID,
			MessageCount: 1,
			Role:         models.RoleCreator,
		}
		order = append(order, ct.ParentMessage.AuthorID)
	}
	for _, reply := range ct.Replies {
		if reply.AuthorID == "" {
			continue
		}
		p, ok := byAuthor[reply.AuthorID]
		if !ok {
			p = &models.ThreadParticipant{
				PrincipalID: reply.AuthorID,
				Role:        models.RoleParticipant,
			}
			byAuthor[reply.AuthorID] = p
			order = append(order, reply.AuthorID)
		}
		p.MessageCount++
		if p.FirstReplyAt.IsZero() {
			p.FirstReplyAt = reply.ID
		}
		p.LastReplyAt = reply.ID
	}

	participants := make([]models.ThreadParticipant, 0, len(order))
	for _, id := range order {
		p := *byAuthor[id]
		p.DisplayName = e.displayName(ctx, id)
		participants = append(participants, p)
	}
	// Creator first, then by first reply.
	sort.SliceStable(participants, func(i, j int) bool {
		if participants[i].Role != participants[j].Role {
			return participants[i].Role == models.RoleCreator
		}
		return participants[i].FirstReplyAt.Before(participants[j].FirstReplyAt)
	})

	now := time.Now()
	createdAt := anchor.Time()
	lastActivity := anchor
	if !ct.Stats.LastReplyAt.IsZero() {
		lastActivity = ct.Stats.LastReplyAt
	}

	return &models.ThreadDetails{
		ThreadAnchor:   anchor,
		ChannelID:      channelID,
		ParentMessage:  ct.ParentMessage,
		Participants:   participants,
		ReplyCount:     ct.Stats.ReplyCount,
		LastActivityAt: lastActivity,
		AgeHours:       now.Sub(createdAt).Hours(),
		Status:         models.ThreadStatusAt(lastActivity, now),
		CreatedAt:      createdAt,
	}, nil
}
