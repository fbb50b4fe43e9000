package models

import "time"

// Thread status values derived from last activity.
const (
	ThreadStatusActive = "active"
	ThreadStatusStale  = "stale"
)

// activeWindow is how recently a thread must have seen a reply to count as
// active.
const activeWindow = 24 * time.Hour

// ThreadStatusAt classifies a thread by its last activity relative to now.
func ThreadStatusAt(lastActivity Timestamp, now time.Time) string {
	if now.Sub(lastActivity.Time()) <= activeWindow {
		return ThreadStatusActive
	}
	return ThreadStatusStale
}

// ThreadSummary is the per-request projection of a thread parent returned by
// thread discovery. It is never persisted.
type ThreadSummary struct {
	ThreadAnchor     Timestamp `json:"thread_anchor"`
	ChannelID        string    `json:"channel_id"`
	Title            string    `json:"title"`
	ReplyCount       int       `json:"reply_count"`
	LastActivityAt   Timestamp `json:"last_activity_at"`
	ParticipantCount int       `json:"participant_count"`
	PreviewText      string    `json:"preview_text,omitempty"`
	Status           string    `json:"status"`
}

// ThreadParticipant describes one author's contribution to a thread.
type ThreadParticipant struct {
	PrincipalID  string    `json:"principal_id"`
	DisplayName  string    `json:"display_name,omitempty"`
	MessageCount int       `json:"message_count"`
	FirstReplyAt Timestamp `json:"first_reply_at,omitempty"`
	LastReplyAt  Timestamp `json:"last_reply_at,omitempty"`
	Role         string    `json:"role"`
}

// Participant roles.
const (
	RoleCreator     = "creator"
	RoleParticipant = "participant"
)

// ThreadDetails is the full view of a single thread.
type ThreadDetails struct {
	ThreadAnchor   Timestamp           `json:"thread_anchor"`
	ChannelID      string              `json:"channel_id"`
	ParentMessage  MessageRecord       `json:"parent_message"`
	Participants   []ThreadParticipant `json:"participants"`
	ReplyCount     int                 `json:"reply_count"`
	LastActivityAt Timestamp           `json:"last_activity_at"`
	AgeHours       float64             `json:"age_hours"`
	Status         string              `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
}

// ThreadStats summarizes one collected thread.
type ThreadStats struct {
	ReplyCount       int       `json:"reply_count"`
	ParticipantCount int       `json:"participant_count"`
	FirstReplyAt     Timestamp `json:"first_reply_at,omitempty"`
	LastReplyAt      Timestamp `json:"last_reply_at,omitempty"`
}

// CollectedThread is the unit returned by time-range collection: the parent
// plus every reply, sorted ascending by id.
type CollectedThread struct {
	ThreadAnchor  Timestamp     `json:"thread_anchor"`
	ParentMessage MessageRecord `json:"parent_message"`
	Replies       []MessageRecord `json:"replies"`
	Stats         ThreadStats   `json:"stats"`
}

// Collection request states. Scanning and Collecting may degrade to
// PartialFailure without aborting the request.
const (
	StateScanning       = "scanning"
	StateIdentifying    = "identifying"
	StateCollecting     = "collecting"
	StateDone           = "done"
	StatePartialFailure = "partial_failure"
	StateFailed         = "failed"
)

// CollectionStats records what a collection request did.
type CollectionStats struct {
	OperationID       string    `json:"operation_id"`
	ChannelID         string    `json:"channel_id"`
	Range             TimeRange `json:"range"`
	ScannedMessages   int       `json:"scanned_messages"`
	ScannedPages      int       `json:"scanned_pages"`
	AnchorsIdentified int       `json:"anchors_identified"`
	ThreadsCollected  int       `json:"threads_collected"`
	AnchorsSkipped    int       `json:"anchors_skipped"`
	Degraded          bool      `json:"degraded"`
	State             string    `json:"state"`
}

// CollectionResult is the output of a time-range collection.
type CollectionResult struct {
	Threads []CollectedThread `json:"threads"`
	Stats   CollectionStats   `json:"stats"`
}
