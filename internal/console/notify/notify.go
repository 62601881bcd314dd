// Package notify is the console's transient message area. Notices are
// dismissible and disappear on their own after a TTL.
package notify

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aussiebroadwan/stockdesk/pkg/idx"
)

// DefaultTTL is how long a notice stays visible when not dismissed.
const DefaultTTL = 8 * time.Second

type Kind int

const (
	KindInfo Kind = iota
	KindWarning
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindInfo:
		return "info"
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

type Notice struct {
	ID        idx.ID
	Kind      Kind
	Text      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Center struct {
	TTL    time.Duration
	Logger *slog.Logger

	// Now overrides the clock in tests.
	Now func() time.Time

	mu      sync.Mutex
	notices map[idx.ID]Notice
}

func NewCenter(ttl time.Duration, logger *slog.Logger) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Center{TTL: ttl, Logger: logger}
}

func (c *Center) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Post adds a notice and returns it.
func (c *Center) Post(kind Kind, text string) Notice {
	now := c.now()
	ttl := c.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	n := Notice{
		ID:        idx.NewAt(now),
		Kind:      kind,
		Text:      text,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	c.mu.Lock()
	if c.notices == nil {
		c.notices = make(map[idx.ID]Notice)
	}
	c.notices[n.ID] = n
	c.mu.Unlock()

	if c.Logger != nil {
		c.Logger.Debug("notice posted", "id", n.ID, "kind", kind, "text", text)
	}
	return n
}

func (c *Center) Info(text string)  { c.Post(KindInfo, text) }
func (c *Center) Warn(text string)  { c.Post(KindWarning, text) }
func (c *Center) Error(text string) { c.Post(KindError, text) }

// Dismiss removes a notice. It reports whether the notice was still active.
func (c *Center) Dismiss(id idx.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.notices[id]
	if !ok {
		return false
	}
	delete(c.notices, id)
	return n.ExpiresAt.After(c.now())
}

// DismissAll removes every notice.
func (c *Center) DismissAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.notices)
}

// Active returns the notices that have not expired, oldest first. Expired
// notices are dropped.
func (c *Center) Active() []Notice {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notice, 0, len(c.notices))
	for id, n := range c.notices {
		if !n.ExpiresAt.After(now) {
			delete(c.notices, id)
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
