// Package cache resolves opaque workspace identifiers (channels, members) to
// display-friendly records without a remote round-trip per request. Each kind
// keeps an independent whole-snapshot table with its own TTL: lookups against
// an expired snapshot return the stale record immediately and kick off one
// background refresh, while a cold start blocks until the first fetch lands.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"loom/internal/faults"
	"loom/internal/models"
)

// Kind selects which snapshot a lookup goes against.
type Kind string

const (
	KindChannel   Kind = "channel"
	KindPrincipal Kind = "principal"
)

// Directory is the slice of the remote service the cache needs: full
// enumeration of each kind.
type Directory interface {
	ListChannels(ctx context.Context) ([]models.Channel, error)
	ListPrincipals(ctx context.Context) ([]models.Principal, error)
}

// Config carries the per-kind TTLs and the deadline for a refresh.
type Config struct {
	ChannelTTL     time.Duration
	PrincipalTTL   time.Duration
	RefreshTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.ChannelTTL <= 0 {
		c.ChannelTTL = 15 * time.Minute
	}
	if c.PrincipalTTL <= 0 {
		c.PrincipalTTL = time.Hour
	}
	if c.RefreshTimeout <= 0 {
		c.RefreshTimeout = 2 * time.Minute
	}
	return c
}

// Cache is the process-wide identifier cache. Snapshots are replaced
// atomically after a successful full fetch; readers never see a partially
// refreshed table.
type Cache struct {
	dir   Directory
	store *Store
	cfg   Config
	log   zerolog.Logger

	mu           sync.RWMutex
	channels     map[string]models.Channel
	channelsAt   time.Time
	principals   map[string]models.Principal
	principalsAt time.Time

	channelRefresh   sync.Mutex
	principalRefresh sync.Mutex
}

// New builds a cache and warms it from the on-disk store. A store read
// failure is fatal; empty snapshots are not.
func New(dir Directory, store *Store, cfg Config, log zerolog.Logger) (*Cache, error) {
	c := &Cache{
		dir:   dir,
		store: store,
		cfg:   cfg.withDefaults(),
		log:   log.With().Str("component", "cache").Logger(),
	}

	ctx := context.Background()
	chRecords, chAt, err := store.Load(ctx, KindChannel)
	if err != nil {
		return nil, fmt.Errorf("warm channel snapshot: %w", err)
	}
	if !chAt.IsZero() {
		channels := make(map[string]models.Channel, len(chRecords))
		for id, raw := range chRecords {
			var ch models.Channel
			if err := json.Unmarshal(raw, &ch); err != nil {
				return nil, fmt.Errorf("decode channel record %s: %w", id, err)
			}
			channels[id] = ch
		}
		c.channels = channels
		c.channelsAt = chAt
	}

	prRecords, prAt, err := store.Load(ctx, KindPrincipal)
	if err != nil {
		return nil, fmt.Errorf("warm principal snapshot: %w", err)
	}
	if !prAt.IsZero() {
		principals := make(map[string]models.Principal, len(prRecords))
		for id, raw := range prRecords {
			var p models.Principal
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("decode principal record %s: %w", id, err)
			}
			principals[id] = p
		}
		c.principals = principals
		c.principalsAt = prAt
	}

	return c, nil
}

func (c *Cache) refreshMu(kind Kind) *sync.Mutex {
	if kind == KindChannel {
		return &c.channelRefresh
	}
	return &c.principalRefresh
}

func (c *Cache) ttl(kind Kind) time.Duration {
	if kind == KindChannel {
		return c.cfg.ChannelTTL
	}
	return c.cfg.PrincipalTTL
}

// snapshotState reports (present, expired) for kind.
func (c *Cache) snapshotState(kind Kind) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var at time.Time
	switch kind {
	case KindChannel:
		if c.channels == nil {
			return false, false
		}
		at = c.channelsAt
	default:
		if c.principals == nil {
			return false, false
		}
		at = c.principalsAt
	}
	return true, time.Since(at) > c.ttl(kind)
}

// ensure makes kind servable: stale snapshots are served as-is with a
// background refresh scheduled; a missing snapshot blocks on the first fetch.
func (c *Cache) ensure(ctx context.Context, kind Kind) error {
	present, expired := c.snapshotState(kind)
	if present {
		if expired {
			c.scheduleRefresh(kind)
		}
		return nil
	}
	if err := c.Refresh(ctx, kind); err != nil {
		return faults.Wrap(faults.CodeUnavailable, err, "no %s snapshot and refresh failed", kind)
	}
	return nil
}

// Refresh fetches the full collection for kind, persists it, and swaps the
// in-memory snapshot. Concurrent refreshes of one kind are serialized; a
// waiter that finds a fresh snapshot on wake skips its own fetch.
func (c *Cache) Refresh(ctx context.Context, kind Kind) error {
	mu := c.refreshMu(kind)
	mu.Lock()
	defer mu.Unlock()
	if present, expired := c.snapshotState(kind); present && !expired {
		return nil
	}
	return c.refreshLocked(ctx, kind)
}

// ForceRefresh refetches kind regardless of snapshot age (explicit
// invalidation).
func (c *Cache) ForceRefresh(ctx context.Context, kind Kind) error {
	mu := c.refreshMu(kind)
	mu.Lock()
	defer mu.Unlock()
	return c.refreshLocked(ctx, kind)
}

// scheduleRefresh starts one background refresh for kind unless one is
// already running.
func (c *Cache) scheduleRefresh(kind Kind) {
	mu := c.refreshMu(kind)
	if !mu.TryLock() {
		return
	}
	go func() {
		defer mu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.RefreshTimeout)
		defer cancel()
		if present, expired := c.snapshotState(kind); present && !expired {
			return
		}
		if err := c.refreshLocked(ctx, kind); err != nil {
			c.log.Warn().Err(err).Str("kind", string(kind)).Msg("background refresh failed, serving stale snapshot")
		}
	}()
}

func (c *Cache) refreshLocked(ctx context.Context, kind Kind) error {
	start := time.Now()
	records := map[string]json.RawMessage{}

	switch kind {
	case KindChannel:
		channels, err := c.dir.ListChannels(ctx)
		if err != nil {
			return fmt.Errorf("list channels: %w", err)
		}
		byID := make(map[string]models.Channel, len(channels))
		for _, ch := range channels {
			byID[ch.ID] = ch
			raw, err := json.Marshal(ch)
			if err != nil {
				return fmt.Errorf("encode channel %s: %w", ch.ID, err)
			}
			records[ch.ID] = raw
		}
		if err := c.store.Replace(ctx, kind, records, start); err != nil {
			return fmt.Errorf("persist channel snapshot: %w", err)
		}
		c.mu.Lock()
		c.channels = byID
		c.channelsAt = start
		c.mu.Unlock()
	case KindPrincipal:
		principals, err := c.dir.ListPrincipals(ctx)
		if err != nil {
			return fmt.Errorf("list principals: %w", err)
		}
		byID := make(map[string]models.Principal, len(principals))
		for _, p := range principals {
			byID[p.ID] = p
			raw, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("encode principal %s: %w", p.ID, err)
			}
			records[p.ID] = raw
		}
		if err := c.store.Replace(ctx, kind, records, start); err != nil {
			return fmt.Errorf("persist principal snapshot: %w", err)
		}
		c.mu.Lock()
		c.principals = byID
		c.principalsAt = start
		c.mu.Unlock()
	default:
		return fmt.Errorf("unknown cache kind %q", kind)
	}

	c.log.Info().Str("kind", string(kind)).Int("records", len(records)).
		Dur("took", time.Since(start)).Msg("snapshot refreshed")
	return nil
}

// Channel looks a channel up by id. Never triggers a blocking remote call
// once a snapshot exists, even an expired one.
func (c *Cache) Channel(ctx context.Context, id string) (models.Channel, bool, error) {
	if err := c.ensure(ctx, KindChannel); err != nil {
		return models.Channel{}, false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.channels[id]
	return ch, ok, nil
}

// Principal looks a workspace member up by id.
func (c *Cache) Principal(ctx context.Context, id string) (models.Principal, bool, error) {
	if err := c.ensure(ctx, KindPrincipal); err != nil {
		return models.Principal{}, false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.principals[id]
	return p, ok, nil
}

// normalizeName folds a display name for matching: case-insensitive with
// channel/member sigils stripped.
func normalizeName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	name = strings.TrimPrefix(name, "#")
	name = strings.TrimPrefix(name, "@")
	return name
}

// FindChannelByName matches a channel by display name: exact normalized
// match wins over substring. The linear scan is fine at workspace
// cardinality.
func (c *Cache) FindChannelByName(ctx context.Context, name string) (models.Channel, bool, error) {
	if err := c.ensure(ctx, KindChannel); err != nil {
		return models.Channel{}, false, err
	}
	want := normalizeName(name)
	if want == "" {
		return models.Channel{}, false, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	var substring models.Channel
	var haveSub bool
	for _, ch := range c.channels {
		got := normalizeName(ch.Name)
		if got == want {
			return ch, true, nil
		}
		if !haveSub && strings.Contains(got, want) {
			substring = ch
			haveSub = true
		}
	}
	return substring, haveSub, nil
}

// FindPrincipalByName matches a member by handle, display name, or real
// name; exact normalized match preferred over substring.
func (c *Cache) FindPrincipalByName(ctx context.Context, name string) (models.Principal, bool, error) {
	if err := c.ensure(ctx, KindPrincipal); err != nil {
		return models.Principal{}, false, err
	}
	want := normalizeName(name)
	if want == "" {
		return models.Principal{}, false, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	var substring models.Principal
	var haveSub bool
	for _, p := range c.principals {
		for _, candidate := range []string{p.Name, p.DisplayName, p.RealName} {
			got := normalizeName(candidate)
			if got == "" {
				continue
			}
			if got == want {
				return p, true, nil
			}
			if !haveSub && strings.Contains(got, want) {
				substring = p
				haveSub = true
			}
		}
	}
	return substring, haveSub, nil
}

// ResolveChannel accepts either an id or a display name.
func (c *Cache) ResolveChannel(ctx context.Context, nameOrID string) (models.Channel, bool, error) {
	if models.LooksLikeChannelID(nameOrID) {
		ch, ok, err := c.Channel(ctx, nameOrID)
		if err != nil || ok {
			return ch, ok, err
		}
	}
	return c.FindChannelByName(ctx, nameOrID)
}

// ResolvePrincipal accepts either an id or a name.
func (c *Cache) ResolvePrincipal(ctx context.Context, nameOrID string) (models.Principal, bool, error) {
	if models.LooksLikePrincipalID(nameOrID) {
		p, ok, err := c.Principal(ctx, nameOrID)
		if err != nil || ok {
			return p, ok, err
		}
	}
	return c.FindPrincipalByName(ctx, nameOrID)
}

// Channels returns the current channel snapshot sorted by name.
func (c *Cache) Channels(ctx context.Context) ([]models.Channel, error) {
	if err := c.ensure(ctx, KindChannel); err != nil {
		return nil, err
	}
	c.mu.RLock()
	out := make([]models.Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		out = append(out, ch)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Principals returns the current member snapshot sorted by handle.
func (c *Cache) Principals(ctx context.Context) ([]models.Principal, error) {
	if err := c.ensure(ctx, KindPrincipal); err != nil {
		return nil, err
	}
	c.mu.RLock()
	out := make([]models.Principal, 0, len(c.principals))
	for _, p := range c.principals {
		out = append(out, p)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// KindStatus describes one snapshot for operators.
type KindStatus struct {
	Kind      Kind      `json:"kind"`
	Records   int       `json:"records"`
	FetchedAt time.Time `json:"fetched_at"`
	Expired   bool      `json:"expired"`
}

// Status reports both snapshots without touching the remote.
func (c *Cache) Status() []KindStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return []KindStatus{
		{
			Kind:      KindChannel,
			Records:   len(c.channels),
			FetchedAt: c.channelsAt,
			Expired:   c.channels != nil && time.Since(c.channelsAt) > c.ttl(KindChannel),
		},
		{
			Kind:      KindPrincipal,
			Records:   len(c.principals),
			FetchedAt: c.principalsAt,
			Expired:   c.principals != nil && time.Since(c.principalsAt) > c.ttl(KindPrincipal),
		},
	}
}
