// Package notify rate-limits user-visible notices so bursts collapse into a
// single message.
package notify

import (
	"sync"
	"time"

	"voiceguard/internal/host"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const DefaultCooldown = 2500 * time.Millisecond

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Cooldown struct {
	mu         sync.Mutex
	sink       host.Notifier
	limiter    *rate.Limiter
	clock      Clock
	logger     *zap.Logger
	suppressed func()
}

// NewCooldown delivers at most one notice per cooldown to sink. A zero
// cooldown disables limiting.
func NewCooldown(sink host.Notifier, cooldown time.Duration, logger *zap.Logger) *Cooldown {
	limit := rate.Inf
	if cooldown > 0 {
		limit = rate.Every(cooldown)
	}
	return &Cooldown{
		sink:    sink,
		limiter: rate.NewLimiter(limit, 1),
		clock:   realClock{},
		logger:  logger,
	}
}

func (c *Cooldown) WithClock(clock Clock) {
	c.clock = clock
}

// OnSuppressed registers a hook called for every dropped notice.
func (c *Cooldown) OnSuppressed(fn func()) {
	c.suppressed = fn
}

func (c *Cooldown) Notify(text string) {
	c.mu.Lock()
	allowed := c.limiter.AllowN(c.clock.Now(), 1)
	c.mu.Unlock()

	if !allowed {
		c.logger.Debug("notice suppressed", zap.String("text", text))
		if c.suppressed != nil {
			c.suppressed()
		}
		return
	}
	c.sink.Notify(text)
}
