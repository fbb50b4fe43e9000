package models

// MessageRecord is a single message as returned by the remote conversation
// service. Records are read-only once fetched; the engine never mutates them.
type MessageRecord struct {
	ID           Timestamp `json:"ts"`
	AuthorID     string    `json:"user,omitempty"`
	Text         string    `json:"text"`
	ThreadAnchor Timestamp `json:"thread_ts,omitempty"`

	// Thread metadata, present only on parents.
	ReplyCount      int       `json:"reply_count,omitempty"`
	ReplyUsersCount int       `json:"reply_users_count,omitempty"`
	LastReplyAt     Timestamp `json:"latest_reply,omitempty"`

	Files       []File       `json:"files,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// File is a minimal projection of an uploaded file on a message.
type File struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Attachment is a minimal projection of a legacy rich attachment.
type Attachment struct {
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
}

// IsThreadParent reports whether the message started a thread.
func (m MessageRecord) IsThreadParent() bool {
	return m.ReplyCount > 0
}

// IsThreadReply reports whether the message is a reply inside a thread
// anchored on another message.
func (m MessageRecord) IsThreadReply() bool {
	return !m.ThreadAnchor.IsZero() && m.ThreadAnchor != m.ID
}

// HasAttachments reports whether the message carries files or attachments.
func (m MessageRecord) HasAttachments() bool {
	return len(m.Files) > 0 || len(m.Attachments) > 0
}

// LastActivityAt is the timestamp of the most recent activity the record
// knows about: the latest reply for parents, the message itself otherwise.
func (m MessageRecord) LastActivityAt() Timestamp {
	if !m.LastReplyAt.IsZero() {
		return m.LastReplyAt
	}
	return m.ID
}
