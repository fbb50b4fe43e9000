// Package engine reconstructs thread structure from the flat, paginated
// message stream the remote conversation service exposes. Thread membership
// is only implied by two loosely-linked fields (reply_count on parents,
// thread_ts on replies); the engine reconciles them into typed thread
// records with a bounded number of dependent remote calls.
package engine

import (
	"context"

	"github.com/rs/zerolog"

	"loom/internal/models"
	"loom/internal/slack"
)

// Conversations is the slice of the remote service the engine consumes.
type Conversations interface {
	FetchHistory(ctx context.Context, channelID string, p slack.HistoryParams) (*slack.HistoryPage, error)
	FetchReplies(ctx context.Context, channelID string, anchor models.Timestamp, p slack.RepliesParams) (*slack.HistoryPage, error)
}

// NameResolver enriches author ids with display names. Lookups that fail or
// miss degrade to the raw id; enrichment is never a hard error.
type NameResolver interface {
	Principal(ctx context.Context, id string) (models.Principal, bool, error)
}

// Config bounds the engine's remote usage.
type Config struct {
	// PageSize is the per-page limit passed to history and reply fetches.
	PageSize int
	// MaxPages caps sequential history pagination per scan.
	MaxPages int
	// Concurrency caps parallel reply fetches during collection.
	Concurrency int
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = 200
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 10
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
	return c
}

// Engine is the thread discovery and collection engine. Safe for concurrent
// use; each operation owns its own request-scoped state.
type Engine struct {
	conv  Conversations
	names NameResolver
	cfg   Config
	log   zerolog.Logger
}

// New builds an engine. names may be nil; thread records are then returned
// unembellished.
func New(conv Conversations, names NameResolver, cfg Config, log zerolog.Logger) *Engine {
	return &Engine{
		conv:  conv,
		names: names,
		cfg:   cfg.withDefaults(),
		log:   log.With().Str("component", "engine").Logger(),
	}
}

// displayName resolves an author id to a friendly name, falling back to the
// raw id.
func (e *Engine) displayName(ctx context.Context, id string) string {
	if e.names == nil || id == "" {
		return ""
	}
	p, ok, err := e.names.Principal(ctx, id)
	if err != nil || !ok {
		return ""
	}
	return p.Label()
}
