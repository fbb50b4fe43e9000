package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loom/internal/faults"
	"loom/internal/models"
)

func TestListActiveThreadsKeepsOnlyParents(t *testing.T) {
	conv := &fakeConversations{historyPages: [][]models.MessageRecord{{
		parentMsg("300.000000", "U1", 2),
		plainMsg("250.000000", "U2"),
		replyMsg("240.000000", "100.000000", "U3"),
		parentMsg("100.000000", "U2", 5),
	}}}
	e := newTestEngine(conv, nil)

	threads, err := e.ListActiveThreads(context.Background(), "C1", ListFilters{})
	require.NoError(t, err)
	require.Len(t, threads, 2)
	for _, th := range threads {
		assert.NotZero(t, th.ReplyCount, "plain messages and replies must not summarize")
	}
}

func TestListActiveThreadsFilters(t *testing.T) {
	withFiles := parentMsg("200.000000", "U1", 1)
	withFiles.Files = []models.File{{ID: "F1", Name: "report.pdf"}}
	conv := &fakeConversations{historyPages: [][]models.MessageRecord{{
		parentMsg("300.000000", "U1", 9),
		withFiles,
		parentMsg("100.000000", "U2", 2),
	}}}
	e := newTestEngine(conv, nil)

	threads, err := e.ListActiveThreads(context.Background(), "C1", ListFilters{MinReplies: 2})
	require.NoError(t, err)
	require.Len(t, threads, 2)

	threads, err = e.ListActiveThreads(context.Background(), "C1", ListFilters{HasAttachments: true})
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, models.Timestamp("200.000000"), threads[0].ThreadAnchor)
}

func TestListActiveThreadsSorting(t *testing.T) {
	a := parentMsg("100.000000", "U1", 5)
	a.LastReplyAt = "500.000000"
	b := parentMsg("200.000000", "U2", 9)
	b.LastReplyAt = "400.000000"
	c := parentMsg("300.000000", "U3", 1)
	c.LastReplyAt = "600.000000"
	conv := &fakeConversations{historyPages: [][]models.MessageRecord{{c, b, a}}}
	e := newTestEngine(conv, nil)

	anchors := func(threads []models.ThreadSummary) []models.Timestamp {
		out := make([]models.Timestamp, len(threads))
		for i, th := range threads {
			out[i] = th.ThreadAnchor
		}
		return out
	}

	byActivity, err := e.ListActiveThreads(context.Background(), "C1", ListFilters{SortBy: SortByActivity})
	require.NoError(t, err)
	assert.Equal(t, []models.Timestamp{"300.000000", "100.000000", "200.000000"}, anchors(byActivity))

	byReplies, err := e.ListActiveThreads(context.Background(), "C1", ListFilters{SortBy: SortByReplies})
	require.NoError(t, err)
	assert.Equal(t, []models.Timestamp{"200.000000", "100.000000", "300.000000"}, anchors(byReplies))

	byTimestamp, err := e.ListActiveThreads(context.Background(), "C1", ListFilters{SortBy: SortByTimestamp})
	require.NoError(t, err)
	assert.Equal(t, []models.Timestamp{"300.000000", "200.000000", "100.000000"}, anchors(byTimestamp))
}

func TestListActiveThreadsEqualKeysKeepAscendingOrder(t *testing.T) {
	// Same reply count on every parent; history arrives newest-first.
	conv := &fakeConversations{historyPages: [][]models.MessageRecord{{
		parentMsg("300.000000", "U1", 3),
		parentMsg("200.000000", "U2", 3),
		parentMsg("100.000000", "U3", 3),
	}}}
	e := newTestEngine(conv, nil)

	threads, err := e.ListActiveThreads(context.Background(), "C1", ListFilters{SortBy: SortByReplies})
	require.NoError(t, err)
	require.Len(t, threads, 3)
	assert.Equal(t, models.Timestamp("100.000000"), threads[0].ThreadAnchor)
	assert.Equal(t, models.Timestamp("200.000000"), threads[1].ThreadAnchor)
	assert.Equal(t, models.Timestamp("300.000000"), threads[2].ThreadAnchor)
}

func TestListActiveThreadsLimit(t *testing.T) {
	page := make([]models.MessageRecord, 0, 30)
	for i := 0; i < 30; i++ {
		id := models.Timestamp(fmt.Sprintf("1000.%06d", i))
		page = append(page, parentMsg(id, "U1", 1))
	}
	conv := &fakeConversations{historyPages: [][]models.MessageRecord{page}}
	e := newTestEngine(conv, nil)

	threads, err := e.ListActiveThreads(context.Background(), "C1", ListFilters{Limit: 5})
	require.NoError(t, err)
	assert.Len(t, threads, 5)

	threads, err = e.ListActiveThreads(context.Background(), "C1", ListFilters{})
	require.NoError(t, err)
	assert.Len(t, threads, 20, "default limit")
}

func TestListActiveThreadsUnknownSortKey(t *testing.T) {
	conv := &fakeConversations{}
	e := newTestEngine(conv, nil)

	_, err := e.ListActiveThreads(context.Background(), "C1", ListFilters{SortBy: "karma"})
	require.Error(t, err)
	assert.Equal(t, faults.CodeFatal, faults.CodeOf(err))
	assert.Zero(t, conv.historyCalls, "validation must reject before any remote call")
}

func TestListActiveThreadsScanErrorAborts(t *testing.T) {
	conv := &fakeConversations{historyErr: faults.RateLimited("slow down")}
	e := newTestEngine(conv, nil)

	_, err := e.ListActiveThreads(context.Background(), "C1", ListFilters{})
	require.Error(t, err)
	assert.Equal(t, faults.CodeRateLimited, faults.CodeOf(err))

	conv.historyErr = errors.New("boom")
	_, err = e.ListActiveThreads(context.Background(), "C1", ListFilters{})
	require.Error(t, err)
	assert.Equal(t, faults.CodeFatal, faults.CodeOf(err))
}

func TestListActiveThreadsPaginates(t *testing.T) {
	conv := &fakeConversations{historyPages: [][]models.MessageRecord{
		{parentMsg("300.000000", "U1", 1)},
		{parentMsg("200.000000", "U2", 1)},
		{parentMsg("100.000000", "U3", 1)},
	}}
	e := newTestEngine(conv, nil)

	threads, err := e.ListActiveThreads(context.Background(), "C1", ListFilters{})
	require.NoError(t, err)
	assert.Len(t, threads, 3)
	assert.Equal(t, 3, conv.historyCalls)
}

func TestSummarizeParticipantCount(t *testing.T) {
	e := newTestEngine(&fakeConversations{}, nil)

	m := parentMsg("100.000000", "U1", 4)
	m.ReplyUsersCount = 3
	s := e.summarize("C1", m, m.ID.Time())
	assert.Equal(t, 4, s.ParticipantCount, "reply authors plus the parent author")

	// Authorless parents (rare bot edge) count reply authors only.
	m.AuthorID = ""
	s = e.summarize("C1", m, m.ID.Time())
	assert.Equal(t, 3, s.ParticipantCount)
}
