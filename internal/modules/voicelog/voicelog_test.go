package voicelog

import (
	"testing"
	"time"

	"voiceguard/internal/host"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func TestPreviousChannelComesFromHistory(t *testing.T) {
	tracker := NewTracker()

	var previous string
	for _, ch := range []string{"A", "B", "C"} {
		previous, _ = tracker.Track(host.VoiceStateChange{UserID: "u1", ChannelID: ch, ReportedPrevious: ch})
	}
	if previous != "B" {
		t.Fatalf("expected previous B, got %q", previous)
	}
}

func TestTransitionLogsLeaveAndJoin(t *testing.T) {
	tracker := NewTracker()
	clock := &fakeClock{now: time.Unix(100, 0)}
	tracker.WithClock(clock)

	tracker.Track(host.VoiceStateChange{UserID: "u1", ChannelID: "A"})
	clock.now = clock.now.Add(time.Minute)
	tracker.Track(host.VoiceStateChange{UserID: "u1", ChannelID: "B"})
	clock.now = clock.now.Add(time.Minute)
	tracker.Track(host.VoiceStateChange{UserID: "u1"})

	a := tracker.Events("A")
	if len(a) != 2 || a[0].Kind != Join || a[1].Kind != Leave {
		t.Fatalf("unexpected events for A: %+v", a)
	}
	if !a[1].At.Equal(time.Unix(160, 0)) {
		t.Fatalf("leave timestamp not taken from clock: %v", a[1].At)
	}
	b := tracker.Events("B")
	if len(b) != 2 || b[0].Kind != Join || b[1].Kind != Leave {
		t.Fatalf("unexpected events for B: %+v", b)
	}
}

func TestUnchangedChannelIsIgnored(t *testing.T) {
	tracker := NewTracker()
	tracker.Track(host.VoiceStateChange{UserID: "u1", ChannelID: "A"})

	if _, changed := tracker.Track(host.VoiceStateChange{UserID: "u1", ChannelID: "A"}); changed {
		t.Fatalf("expected mute toggle to be ignored")
	}
	if got := len(tracker.Events("A")); got != 1 {
		t.Fatalf("expected 1 event, got %d", got)
	}
}

func TestRecentIsNewestFirst(t *testing.T) {
	tracker := NewTracker()
	tracker.OnTransition("u1", "A", "")
	tracker.OnTransition("u2", "A", "")
	tracker.OnTransition("u3", "A", "")

	recent := tracker.Recent("A", 2)
	if len(recent) != 2 || recent[0].UserID != "u3" || recent[1].UserID != "u2" {
		t.Fatalf("unexpected recent events: %+v", recent)
	}
	if got := len(tracker.Recent("A", 0)); got != 3 {
		t.Fatalf("expected all events, got %d", got)
	}
	if got := len(tracker.Recent("missing", 5)); got != 0 {
		t.Fatalf("expected no events, got %d", got)
	}
}

func TestObserveKeepsTwoEntries(t *testing.T) {
	tracker := NewTracker()
	tracker.Observe("u1", "A")
	tracker.Observe("u1", "B")
	tracker.Observe("u1", "C")

	if got := tracker.history["u1"]; len(got) != 2 || got[0] != "B" || got[1] != "C" {
		t.Fatalf("unexpected history: %v", got)
	}
}
