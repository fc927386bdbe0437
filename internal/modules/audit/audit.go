package audit

import (
	"context"
	"time"

	"voiceguard/internal/storage"

	"go.uber.org/zap"
)

const (
	LevelInfo = "INFO"
	LevelWarn = "WARN"
	LevelCrit = "CRIT"
)

const (
	EventForwarded = "command_forwarded"
	EventRejected  = "command_rejected"
	EventReplied   = "command_replied"
	EventAutoBan   = "auto_ban"
	EventOwnership = "ownership_override"
)

type Logger struct {
	store  *storage.Store
	logger *zap.Logger
}

// NewLogger writes entries to zap and, when store is non-nil, to the audit
// table.
func NewLogger(store *storage.Store, logger *zap.Logger) *Logger {
	return &Logger{store: store, logger: logger}
}

func (l *Logger) Log(ctx context.Context, level, guildID, channelID, userID, event, details string) {
	entry := storage.AuditLog{
		GuildID:   guildID,
		ChannelID: channelID,
		UserID:    userID,
		Level:     level,
		Event:     event,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if l.store != nil {
		if err := l.store.AddAuditLog(ctx, entry); err != nil {
			l.logger.Warn("audit write failed", zap.Error(err))
		}
	}
	l.logger.Info("audit",
		zap.String("level", level),
		zap.String("guild_id", guildID),
		zap.String("channel_id", channelID),
		zap.String("user_id", userID),
		zap.String("event", event),
		zap.String("details", details),
	)
}
