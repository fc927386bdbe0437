package notify

import (
	"testing"
	"time"

	"voiceguard/internal/host"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func TestCooldownSuppressesBursts(t *testing.T) {
	var got []string
	sink := host.NotifierFunc(func(text string) { got = append(got, text) })

	clock := &fakeClock{now: time.Unix(1000, 0)}
	notifier := NewCooldown(sink, DefaultCooldown, zap.NewNop())
	notifier.WithClock(clock)

	suppressed := 0
	notifier.OnSuppressed(func() { suppressed++ })

	notifier.Notify("first")
	clock.now = clock.now.Add(time.Second)
	notifier.Notify("second")
	clock.now = clock.now.Add(2 * time.Second)
	notifier.Notify("third")

	assert.Equal(t, []string{"first", "third"}, got)
	assert.Equal(t, 1, suppressed)
}

func TestZeroCooldownDeliversEverything(t *testing.T) {
	count := 0
	notifier := NewCooldown(host.NotifierFunc(func(string) { count++ }), 0, zap.NewNop())
	for i := 0; i < 5; i++ {
		notifier.Notify("x")
	}
	assert.Equal(t, 5, count)
}
