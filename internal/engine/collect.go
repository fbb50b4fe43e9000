package engine

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"loom/internal/faults"
	"loom/internal/models"
	"loom/internal/slack"
)

// CollectThreadsInRange reconstructs every thread with activity inside the
// range: it scans channel history sequentially, identifies the set of thread
// anchors touched in range, then collects each thread's complete reply list
// with a bounded worker pool. A thread whose parent predates the range is
// still included when one of its replies falls inside it.
func (e *Engine) CollectThreadsInRange(ctx context.Context, channelID string, r models.TimeRange) (*models.CollectionResult, error) {
	if err := r.Validate(); err != nil {
		return nil, faults.Wrap(faults.CodeFatal, err, "invalid time range")
	}

	opID := uuid.NewString()
	log := e.log.With().Str("op", opID).Str("channel", channelID).Logger()
	stats := models.CollectionStats{
		OperationID: opID,
		ChannelID:   channelID,
		Range:       r,
		State:       models.StateScanning,
	}

	scanned, scanPartial, err := e.scanRange(ctx, channelID, r, &stats)
	if err != nil {
		stats.State = models.StateFailed
		return nil, err
	}
	if scanPartial {
		log.Warn().Int("messages", stats.ScannedMessages).Msg("scan timed out, continuing with partial page set")
	}

	stats.State = models.StateIdentifying
	anchors := identifyAnchors(scanned)
	stats.AnchorsIdentified = len(anchors)
	log.Debug().Int("messages", stats.ScannedMessages).Int("anchors", len(anchors)).Msg("anchors identified")

	stats.State = models.StateCollecting
	threads, skipped := e.collectAnchors(ctx, channelID, anchors, log)
	stats.ThreadsCollected = len(threads)
	stats.AnchorsSkipped = skipped

	if len(anchors) > 0 && len(threads) == 0 {
		stats.State = models.StateFailed
		return nil, faults.Fatal("collection failed: all %d anchors unreachable", len(anchors))
	}

	stats.Degraded = skipped > 0 || scanPartial
	if stats.Degraded {
		stats.State = models.StatePartialFailure
	} else {
		stats.State = models.StateDone
	}

	log.Info().Int("threads", len(threads)).Int("skipped", skipped).
		Str("state", stats.State).Msg("collection finished")
	return &models.CollectionResult{Threads: threads, Stats: stats}, nil
}

// scanRange accumulates every message in range until pagination is exhausted
// or the safety cap is hit. Strictly sequential: each page's cursor depends
// on the previous response. A deadline mid-pagination degrades to a partial
// scan; any other remote error is fatal.
func (e *Engine) scanRange(ctx context.Context, channelID string, r models.TimeRange, stats *models.CollectionStats) ([]models.MessageRecord, bool, error) {
	var scanned []models.MessageRecord
	cursor := ""
	for page := 0; page < e.cfg.MaxPages; page++ {
		hp, err := e.conv.FetchHistory(ctx, channelID, slack.HistoryParams{
			Oldest:    r.Oldest,
			Latest:    r.Latest,
			Cursor:    cursor,
			Limit:     e.cfg.PageSize,
			Inclusive: r.Inclusive,
		})
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && len(scanned) > 0 {
				return scanned, true, nil
			}
			return nil, false, faults.Wrap(faults.CodeOf(err), err, "scan %s history", channelID)
		}
		scanned = append(scanned, hp.Messages...)
		stats.ScannedMessages = len(scanned)
		stats.ScannedPages = page + 1
		cursor = hp.NextCursor
		if cursor == "" {
			break
		}
	}
	return scanned, false, nil
}

// identifyAnchors builds the de-duplicated set of thread anchors with
// activity among the scanned messages: a parent contributes its own id, a
// reply contributes the anchor it references. The same thread can surface
// through both conditions in one scan; the set collapses it to one anchor.
func identifyAnchors(scanned []models.MessageRecord) []models.Timestamp {
	seen := map[models.Timestamp]struct{}{}
	for _, m := range scanned {
		switch {
		case m.IsThreadParent():
			seen[m.ID] = struct{}{}
		case m.IsThreadReply():
			seen[m.ThreadAnchor] = struct{}{}
		}
	}
	anchors := make([]models.Timestamp, 0, len(seen))
	for a := range seen {
		anchors = append(anchors, a)
	}
	// Deterministic dispatch and output order, independent of map iteration.
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].Before(anchors[j]) })
	return anchors
}

// collectAnchors fetches complete threads with bounded parallelism. A
// failing anchor (deleted thread, remote error) is recorded and skipped,
// never aborting the rest of the pool.
func (e *Engine) collectAnchors(ctx context.Context, channelID string, anchors []models.Timestamp, log zerolog.Logger) ([]models.CollectedThread, int) {
	results := make([]*models.CollectedThread, len(anchors))
	var mu sync.Mutex
	skipped := 0

	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Concurrency)
	for i, anchor := range anchors {
		g.Go(func() error {
			ct, err := e.CollectThread(ctx, channelID, anchor)
			if err != nil {
				log.Warn().Err(err).Str("anchor", string(anchor)).Msg("anchor skipped")
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}
			results[i] = ct
			return nil
		})
	}
	_ = g.Wait()

	threads := make([]models.CollectedThread, 0, len(anchors))
	for _, ct := range results {
		if ct != nil {
			threads = append(threads, *ct)
		}
	}
	return threads, skipped
}

// CollectThread fetches one complete thread: every reply page, inclusive of
// the parent, reconciled into a CollectedThread with replies ascending.
func (e *Engine) CollectThread(ctx context.Context, channelID string, anchor models.Timestamp) (*models.CollectedThread, error) {
	var all []models.MessageRecord
	cursor := ""
	for page := 0; page < e.cfg.MaxPages; page++ {
		hp, err := e.conv.FetchReplies(ctx, channelID, anchor, slack.RepliesParams{
			Cursor:    cursor,
			Limit:     e.cfg.PageSize,
			Inclusive: true,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, hp.Messages...)
		cursor = hp.NextCursor
		if cursor == "" {
			break
		}
	}

	var parent *models.MessageRecord
	replies := make([]models.MessageRecord, 0, len(all))
	for _, m := range all {
		if m.ID == anchor {
			m := m
			parent = &m
			continue
		}
		replies = append(replies, m)
	}
	if parent == nil {
		return nil, faults.NotFound("thread %s: parent missing from reply fetch", anchor)
	}

	sort.Slice(replies, func(i, j int) bool { return replies[i].ID.Before(replies[j].ID) })

	participants := map[string]struct{}{}
	if parent.AuthorID != "" {
		participants[parent.AuthorID] = struct{}{}
	}
	stats := models.ThreadStats{ReplyCount: len(replies)}
	for i, reply := range replies {
		if reply.AuthorID != "" {
			participants[reply.AuthorID] = struct{}{}
		}
		if i == 0 {
			stats.FirstReplyAt = reply.ID
		}
		stats.LastReplyAt = reply.ID
	}
	stats.ParticipantCount = len(participants)

	return &models.CollectedThread{
		ThreadAnchor:  anchor,
		ParentMessage: *parent,
		Replies:       replies,
		Stats:         stats,
	}, nil
}
