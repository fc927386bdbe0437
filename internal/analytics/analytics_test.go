package analytics

import (
	"context"
	"testing"
	"time"

	"voiceguard/internal/storage"
)

func TestReportCountsEvents(t *testing.T) {
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	now := time.Now()
	entries := []storage.AuditLog{
		{GuildID: "g1", ChannelID: "v1", Level: "INFO", Event: "command_forwarded", CreatedAt: now},
		{GuildID: "g1", ChannelID: "v1", Level: "INFO", Event: "command_forwarded", CreatedAt: now},
		{GuildID: "g1", ChannelID: "v2", Level: "CRIT", Event: "auto_ban", CreatedAt: now},
		{GuildID: "g1", ChannelID: "v2", Level: "INFO", Event: "command_forwarded", CreatedAt: now.Add(-48 * time.Hour)},
		{GuildID: "g2", ChannelID: "v9", Level: "INFO", Event: "command_forwarded", CreatedAt: now},
	}
	for _, entry := range entries {
		if err := store.AddAuditLog(ctx, entry); err != nil {
			t.Fatalf("add audit log: %v", err)
		}
	}

	since, err := PeriodStart("day", now)
	if err != nil {
		t.Fatalf("period: %v", err)
	}
	report, err := New(store).Report(ctx, "g1", since)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Total != 3 {
		t.Fatalf("expected 3 entries, got %d", report.Total)
	}
	if report.ByEvent["command_forwarded"] != 2 || report.ByEvent["auto_ban"] != 1 {
		t.Fatalf("unexpected event counts: %v", report.ByEvent)
	}
	if report.ByLevel["CRIT"] != 1 || len(report.ByChannel) != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}

	want := "Decisions: 3\nauto_ban: 1\ncommand_forwarded: 2\nChannels: 2"
	if got := report.Summary(); got != want {
		t.Fatalf("unexpected summary:\n%s", got)
	}
}

func TestPeriodStart(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	week, err := PeriodStart("week", now)
	if err != nil || !week.Equal(now.Add(-7*24*time.Hour)) {
		t.Fatalf("unexpected week start %v err=%v", week, err)
	}
	if _, err := PeriodStart("year", now); err == nil {
		t.Fatalf("expected error for unknown period")
	}
}
