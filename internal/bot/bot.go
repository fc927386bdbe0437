package bot

import (
	"context"
	"time"

	"voiceguard/internal/analytics"
	"voiceguard/internal/config"
	"voiceguard/internal/engine"
	"voiceguard/internal/host"
	"voiceguard/internal/metrics"
	"voiceguard/internal/modules/audit"
	"voiceguard/internal/modules/commands"
	"voiceguard/internal/modules/ownership"
	"voiceguard/internal/modules/permissions"
	"voiceguard/internal/modules/voicelog"
	"voiceguard/internal/notify"
	"voiceguard/internal/settings"
	"voiceguard/internal/storage"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const messageCacheSize = 100

type Bot struct {
	cfg       config.Config
	logger    *zap.Logger
	store     *storage.Store
	audit     *audit.Logger
	analytics *analytics.Service
	metrics   *metrics.Metrics
	session   *discordgo.Session
	host      *sessionHost
	notices   *notify.Cooldown
	perms     *permissions.Store
	blocks    *permissions.BlockList
	engine    *engine.Engine
	presets   []string
	cron      *cron.Cron
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store, kv settings.Store, auditLogger *audit.Logger, analyticsService *analytics.Service, m *metrics.Metrics) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildVoiceStates
	session.State.MaxMessageCount = messageCacheSize

	sh, err := newSessionHost(session, cfg.NameCacheSize, logger)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		audit:     auditLogger,
		analytics: analyticsService,
		metrics:   m,
		session:   session,
		host:      sh,
		presets:   commands.ParseRenamePresets(cfg.RenamePresets),
		cron:      cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}

	b.notices = notify.NewCooldown(host.NotifierFunc(b.postNotice), time.Duration(cfg.Notifications.CooldownMS)*time.Millisecond, logger)
	if m != nil {
		b.notices.OnSuppressed(m.NoticeSuppressed.Inc)
	}

	b.perms = permissions.NewStore(kv, b.notices, logger)
	b.blocks = permissions.NewBlockList(kv)
	owners := ownership.NewResolver(ownership.Config{
		AutomationBotID:    cfg.Ownership.AutomationBotID,
		LobbyMarkers:       cfg.Ownership.LobbyMarkers,
		OwnedNameTemplates: cfg.Ownership.OwnedNameTemplates,
	}, sh)
	parser := commands.NewParser(commands.Options{
		Prefixes:          cfg.Commands.Prefixes,
		Aliases:           cfg.Commands.Aliases,
		ModeratorImmunity: cfg.Commands.ModeratorImmunity,
		MaxNameLength:     cfg.Commands.MaxNameLength,
	}, b.perms, owners, sh, sh)

	b.engine = engine.New(sh, b.blocks, owners, parser, voicelog.NewTracker(), auditLogger, logger, engine.Options{
		BlockEnabled: cfg.Voice.BlockEnabled,
	})
	if m != nil {
		b.engine.WithMetrics(m)
	}

	return b, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onVoiceStateUpdate)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}

	if err := b.registerCommands(); err != nil {
		return err
	}

	if err := b.startRetention(); err != nil {
		return err
	}

	return nil
}

func (b *Bot) Close(ctx context.Context) {
	select {
	case <-b.cron.Stop().Done():
	case <-ctx.Done():
	}
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username))

	if b.cfg.Voice.GuildID == "" || b.cfg.Voice.JoinChannelID == "" {
		return
	}
	if err := session.ChannelVoiceJoinManual(b.cfg.Voice.GuildID, b.cfg.Voice.JoinChannelID, true, true); err != nil {
		b.logger.Warn("voice join failed", zap.String("channel_id", b.cfg.Voice.JoinChannelID), zap.Error(err))
	}
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Message == nil || msg.Author == nil || msg.GuildID == "" {
		return
	}
	b.deliver(b.engine.OnMessage(context.Background(), convertMessage(msg.Message)))
}

func (b *Bot) onVoiceStateUpdate(_ *discordgo.Session, event *discordgo.VoiceStateUpdate) {
	if event.VoiceState == nil {
		return
	}
	change := host.VoiceStateChange{UserID: event.UserID, ChannelID: event.ChannelID}
	if event.BeforeUpdate != nil {
		change.ReportedPrevious = event.BeforeUpdate.ChannelID
	}
	b.deliver(b.engine.OnVoiceStateUpdates(context.Background(), []host.VoiceStateChange{change}))
}

func (b *Bot) deliver(out []engine.Outbound) {
	for _, item := range out {
		b.host.Send(item.ChannelID, item.Text, item.ReplyTo)
	}
}

// postNotice is the sink behind the notice cooldown.
func (b *Bot) postNotice(text string) {
	b.logger.Info("notice", zap.String("text", text))
	if b.cfg.Notifications.ChannelID == "" {
		return
	}
	if _, err := b.session.ChannelMessageSend(b.cfg.Notifications.ChannelID, text); err != nil {
		b.logger.Warn("notice send failed", zap.Error(err))
	}
}

// startRetention prunes the audit log once at startup and then on the
// configured schedule.
func (b *Bot) startRetention() error {
	if b.store == nil || b.cfg.RetentionDays <= 0 {
		return nil
	}
	if _, err := b.cron.AddFunc(b.cfg.RetentionSchedule, b.cleanupAuditLogs); err != nil {
		return err
	}
	go b.cleanupAuditLogs()
	b.cron.Start()
	return nil
}

func (b *Bot) cleanupAuditLogs() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := b.store.CleanupAuditLogs(ctx, b.cfg.RetentionDays); err != nil {
		b.logger.Warn("audit cleanup failed", zap.Error(err))
	}
}
