// Package voicelog records who joined and left which voice channel.
package voicelog

import (
	"sync"
	"time"

	"voiceguard/internal/host"
)

type Kind string

const (
	Join  Kind = "join"
	Leave Kind = "leave"
)

type Event struct {
	Kind   Kind
	UserID string
	At     time.Time
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Tracker keeps an append-only event log per channel and the last two
// channels seen for each user. Both live for the process lifetime.
type Tracker struct {
	mu      sync.RWMutex
	clock   Clock
	history map[string][]string
	logs    map[string][]Event
}

func NewTracker() *Tracker {
	return &Tracker{
		clock:   realClock{},
		history: make(map[string][]string),
		logs:    make(map[string][]Event),
	}
}

func (t *Tracker) WithClock(clock Clock) {
	t.clock = clock
}

// Observe records channelID ("" when the user left voice) for userID and
// returns the channel the user was in before. changed is false when the
// channel did not change, e.g. for a mute toggle.
func (t *Tracker) Observe(userID, channelID string) (previous string, changed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.observe(userID, channelID)
}

func (t *Tracker) observe(userID, channelID string) (string, bool) {
	hist := t.history[userID]
	if len(hist) > 0 && hist[len(hist)-1] == channelID {
		return "", false
	}
	hist = append(hist, channelID)
	if len(hist) > 2 {
		hist = hist[len(hist)-2:]
	}
	t.history[userID] = hist
	if len(hist) < 2 {
		return "", true
	}
	return hist[0], true
}

// OnTransition appends a leave to previous and a join to channelID. Empty ids
// are skipped.
func (t *Tracker) OnTransition(userID, channelID, previous string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transition(userID, channelID, previous)
}

func (t *Tracker) transition(userID, channelID, previous string) {
	now := t.clock.Now()
	if previous != "" {
		t.logs[previous] = append(t.logs[previous], Event{Kind: Leave, UserID: userID, At: now})
	}
	if channelID != "" {
		t.logs[channelID] = append(t.logs[channelID], Event{Kind: Join, UserID: userID, At: now})
	}
}

// Track is Observe followed by OnTransition with the derived previous
// channel. The host's own previous channel field is ignored.
func (t *Tracker) Track(change host.VoiceStateChange) (previous string, changed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	previous, changed = t.observe(change.UserID, change.ChannelID)
	if changed {
		t.transition(change.UserID, change.ChannelID, previous)
	}
	return previous, changed
}

func (t *Tracker) Events(channelID string) []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Event(nil), t.logs[channelID]...)
}

// Recent returns up to limit events, newest first. limit <= 0 returns all.
func (t *Tracker) Recent(channelID string, limit int) []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	events := t.logs[channelID]
	if limit <= 0 || limit > len(events) {
		limit = len(events)
	}
	out := make([]Event, 0, limit)
	for i := len(events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, events[i])
	}
	return out
}
