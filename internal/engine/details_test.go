package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loom/internal/faults"
	"loom/internal/models"
)

func TestGetThreadDetailsRoster(t *testing.T) {
	parent := parentMsg("100.000000", "U1", 4)
	conv := &fakeConversations{
		replies: map[models.Timestamp][][]models.MessageRecord{
			"100.000000": thread(parent,
				replyMsg("110.000000", "100.000000", "U2"),
				replyMsg("120.000000", "100.000000", "U3"),
				replyMsg("130.000000", "100.000000", "U2"),
				replyMsg("140.000000", "100.000000", "U1"),
			),
		},
	}
	names := &fakeNames{names: map[string]string{"U1": "Dana", "U2": "Priya"}}
	e := newTestEngine(conv, names)

	d, err := e.GetThreadDetails(context.Background(), "C1", "100.000000")
	require.NoError(t, err)

	assert.Equal(t, 4, d.ReplyCount)
	assert.Equal(t, models.Timestamp("140.000000"), d.LastActivityAt)
	assert.Equal(t, models.Timestamp("100.000000").Time(), d.CreatedAt)

	require.Len(t, d.Participants, 3)
	creator := d.Participants[0]
	assert.Equal(t, "U1", creator.PrincipalID)
	assert.Equal(t, models.RoleCreator, creator.Role)
	assert.Equal(t, 2, creator.MessageCount, "parent plus one reply")
	assert.Equal(t, "Dana", creator.DisplayName)

	// Remaining participants ordered by first reply.
	assert.Equal(t, "U2", d.Participants[1].PrincipalID)
	assert.Equal(t, 2, d.Participants[1].MessageCount)
	assert.Equal(t, models.Timestamp("110.000000"), d.Participants[1].FirstReplyAt)
	assert.Equal(t, models.Timestamp("130.000000"), d.Participants[1].LastReplyAt)
	assert.Equal(t, "Priya", d.Participants[1].DisplayName)

	// Unresolvable ids degrade to an empty display name, never an error.
	assert.Equal(t, "U3", d.Participants[2].PrincipalID)
	assert.Empty(t, d.Participants[2].DisplayName)
}

func TestGetThreadDetailsNoReplies(t *testing.T) {
	parent := parentMsg("100.000000", "U1", 0)
	conv := &fakeConversations{
		replies: map[models.Timestamp][][]models.MessageRecord{
			"100.000000": thread(parent),
		},
	}
	e := newTestEngine(conv, nil)

	d, err := e.GetThreadDetails(context.Background(), "C1", "100.000000")
	require.NoError(t, err)
	assert.Zero(t, d.ReplyCount)
	assert.Equal(t, models.Timestamp("100.000000"), d.LastActivityAt)
	require.Len(t, d.Participants, 1)
	assert.Equal(t, models.RoleCreator, d.Participants[0].Role)
}

func TestGetThreadDetailsUnknownAnchor(t *testing.T) {
	conv := &fakeConversations{
		replyErrs: map[models.Timestamp]error{
			"999.000000": faults.NotFound("thread_not_found"),
		},
	}
	e := newTestEngine(conv, nil)

	_, err := e.GetThreadDetails(context.Background(), "C1", "999.000000")
	require.Error(t, err)
	assert.Equal(t, faults.CodeNotFound, faults.CodeOf(err))
}
