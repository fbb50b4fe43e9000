package engine

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"loom/internal/models"
	"loom/internal/slack"
)

// fakeConversations serves scripted pages. History pages are addressed by
// cursor position; replies are keyed by anchor.
type fakeConversations struct {
	mu sync.Mutex

	historyPages [][]models.MessageRecord
	historyErr   error
	// historyErrAfter delays historyErr until that many calls succeeded.
	historyErrAfter int
	historyCalls    int
	lastHistory     slack.HistoryParams

	replies    map[models.Timestamp][][]models.MessageRecord
	replyErrs  map[models.Timestamp]error
	replyCalls int
}

func (f *fakeConversations) FetchHistory(ctx context.Context, channelID string, p slack.HistoryParams) (*slack.HistoryPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	f.lastHistory = p
	if f.historyErr != nil && f.historyCalls > f.historyErrAfter {
		return nil, f.historyErr
	}

	idx := 0
	if p.Cursor != "" {
		idx, _ = strconv.Atoi(p.Cursor)
	}
	if idx >= len(f.historyPages) {
		return &slack.HistoryPage{}, nil
	}
	page := &slack.HistoryPage{Messages: f.historyPages[idx]}
	if idx+1 < len(f.historyPages) {
		page.NextCursor = strconv.Itoa(idx + 1)
	}
	return page, nil
}

func (f *fakeConversations) FetchReplies(ctx context.Context, channelID string, anchor models.Timestamp, p slack.RepliesParams) (*slack.HistoryPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replyCalls++
	if err := f.replyErrs[anchor]; err != nil {
		return nil, err
	}

	pages := f.replies[anchor]
	idx := 0
	if p.Cursor != "" {
		idx, _ = strconv.Atoi(p.Cursor)
	}
	if idx >= len(pages) {
		return &slack.HistoryPage{}, nil
	}
	page := &slack.HistoryPage{Messages: pages[idx]}
	if idx+1 < len(pages) {
		page.NextCursor = strconv.Itoa(idx + 1)
	}
	return page, nil
}

// fakeNames resolves a fixed id-to-name table.
type fakeNames struct {
	names map[string]string
}

func (f *fakeNames) Principal(ctx context.Context, id string) (models.Principal, bool, error) {
	name, ok := f.names[id]
	if !ok {
		return models.Principal{}, false, nil
	}
	return models.Principal{ID: id, DisplayName: name}, true, nil
}

func newTestEngine(conv Conversations, names NameResolver) *Engine {
	return New(conv, names, Config{}, zerolog.Nop())
}

// thread builds a scripted reply fetch: parent echoed first, then replies.
func thread(parent models.MessageRecord, replies ...models.MessageRecord) [][]models.MessageRecord {
	return [][]models.MessageRecord{append([]models.MessageRecord{parent}, replies...)}
}

func parentMsg(id models.Timestamp, author string, replyCount int) models.MessageRecord {
	return models.MessageRecord{
		ID:           id,
		AuthorID:     author,
		Text:         "parent " + string(id),
		ThreadAnchor: id,
		ReplyCount:   replyCount,
	}
}

func replyMsg(id, anchor models.Timestamp, author string) models.MessageRecord {
	return models.MessageRecord{
		ID:           id,
		AuthorID:     author,
		Text:         "reply " + string(id),
		ThreadAnchor: anchor,
	}
}

func plainMsg(id models.Timestamp, author string) models.MessageRecord {
	return models.MessageRecord{ID: id, AuthorID: author, Text: "msg " + string(id)}
}
