package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"voiceguard/internal/storage"
)

type Service struct {
	store *storage.Store
}

func New(store *storage.Store) *Service {
	return &Service{store: store}
}

type Report struct {
	Since     time.Time
	Total     int
	ByLevel   map[string]int
	ByEvent   map[string]int
	ByChannel map[string]int
}

// PeriodStart maps "day" or "week" to the start of that window before now.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	switch strings.ToLower(period) {
	case "", "day":
		return now.Add(-24 * time.Hour), nil
	case "week":
		return now.Add(-7 * 24 * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unknown period %q", period)
	}
}

func (s *Service) Report(ctx context.Context, guildID string, since time.Time) (Report, error) {
	logs, err := s.store.ListAuditLogs(ctx, guildID, since)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Since:     since,
		ByLevel:   make(map[string]int),
		ByEvent:   make(map[string]int),
		ByChannel: make(map[string]int),
	}
	for _, log := range logs {
		report.Total++
		report.ByLevel[log.Level]++
		report.ByEvent[log.Event]++
		if log.ChannelID != "" {
			report.ByChannel[log.ChannelID]++
		}
	}
	return report, nil
}

// Summary renders the report as short lines for an embed.
func (r Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Decisions: %d\n", r.Total)
	for _, key := range sortedKeys(r.ByEvent) {
		fmt.Fprintf(&b, "%s: %d\n", key, r.ByEvent[key])
	}
	if len(r.ByChannel) > 0 {
		fmt.Fprintf(&b, "Channels: %d", len(r.ByChannel))
	}
	return strings.TrimRight(b.String(), "\n")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
