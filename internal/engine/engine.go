// Package engine reacts to chat and voice events in the voice channel the
// current user owns and decides which command lines to send back.
package engine

import (
	"context"
	"errors"

	"voiceguard/internal/host"
	"voiceguard/internal/metrics"
	"voiceguard/internal/modules/audit"
	"voiceguard/internal/modules/commands"
	"voiceguard/internal/modules/ownership"
	"voiceguard/internal/modules/permissions"
	"voiceguard/internal/modules/voicelog"

	"go.uber.org/zap"
)

// Outbound is a chat line to deliver. ReplyTo is empty for unprompted lines.
type Outbound struct {
	ChannelID string
	Text      string
	ReplyTo   string
}

type Host interface {
	host.Identity
	host.VoiceStates
	host.Channels
}

type Options struct {
	BlockEnabled bool
}

type Engine struct {
	host    Host
	blocks  *permissions.BlockList
	owners  *ownership.Resolver
	parser  *commands.Parser
	tracker *voicelog.Tracker
	audit   *audit.Logger
	metrics *metrics.Metrics
	logger  *zap.Logger
	opts    Options
}

func New(h Host, blocks *permissions.BlockList, owners *ownership.Resolver, parser *commands.Parser, tracker *voicelog.Tracker, auditLogger *audit.Logger, logger *zap.Logger, opts Options) *Engine {
	return &Engine{
		host:    h,
		blocks:  blocks,
		owners:  owners,
		parser:  parser,
		tracker: tracker,
		audit:   auditLogger,
		logger:  logger,
		opts:    opts,
	}
}

func (e *Engine) WithMetrics(m *metrics.Metrics) {
	e.metrics = m
}

// OnMessage handles a chat message. Only messages in the current user's
// voice channel are considered, and only while the current user owns it.
func (e *Engine) OnMessage(ctx context.Context, msg host.Message) []Outbound {
	me := e.host.CurrentUser()
	if msg.AuthorID == me.ID {
		return nil
	}
	ch, ok := e.ownVoiceChannel(me.ID)
	if !ok || ch.ID != msg.ChannelID {
		return nil
	}
	if owner, ok := e.resolveOwner(ch); !ok || owner != me.ID {
		return nil
	}

	cmd, err := e.parser.Parse(msg.Content, msg.AuthorID, ch)
	if err != nil {
		return e.rejected(ctx, msg, ch, err)
	}

	if !cmd.Forward() {
		e.countCommand(cmd.Verb, "replied")
		e.audit.Log(ctx, audit.LevelInfo, ch.GuildID, ch.ID, msg.AuthorID, audit.EventReplied, cmd.Verb+" "+cmd.Argument)
		return []Outbound{{ChannelID: ch.ID, Text: cmd.Reply, ReplyTo: msg.ID}}
	}

	e.countCommand(cmd.Verb, "forwarded")
	e.audit.Log(ctx, audit.LevelInfo, ch.GuildID, ch.ID, msg.AuthorID, audit.EventForwarded, cmd.Text)
	return []Outbound{{ChannelID: ch.ID, Text: cmd.Text, ReplyTo: msg.ID}}
}

func (e *Engine) rejected(ctx context.Context, msg host.Message, ch host.Channel, err error) []Outbound {
	var rej *commands.Rejection
	if !errors.As(err, &rej) {
		e.logger.Warn("command parse failed", zap.String("channel_id", ch.ID), zap.Error(err))
		return nil
	}
	if rej.Reason == commands.ReasonNotCommand {
		return nil
	}

	e.logger.Debug("command dropped",
		zap.String("channel_id", ch.ID),
		zap.String("user_id", msg.AuthorID),
		zap.String("reason", rej.Reason),
	)
	if rej.Silent() {
		verb := rej.Verb
		if rej.Reason == commands.ReasonUnknownVerb {
			verb = "unknown"
		}
		e.countCommand(verb, "dropped")
		return nil
	}
	e.countCommand(rej.Verb, "rejected")
	e.audit.Log(ctx, audit.LevelWarn, ch.GuildID, ch.ID, msg.AuthorID, audit.EventRejected, rej.Reason)
	return []Outbound{{ChannelID: ch.ID, Text: rej.Reply, ReplyTo: msg.ID}}
}

// OnVoiceStateUpdates logs every transition in the batch, records a manual
// owner when the current user arrives in a channel created for them, and bans
// blocked users who join the owned channel.
func (e *Engine) OnVoiceStateUpdates(ctx context.Context, changes []host.VoiceStateChange) []Outbound {
	type transition struct {
		change   host.VoiceStateChange
		previous string
	}
	moved := make([]transition, 0, len(changes))
	for _, change := range changes {
		previous, changed := e.tracker.Track(change)
		if !changed {
			continue
		}
		e.countVoice(change.ChannelID, previous)
		moved = append(moved, transition{change: change, previous: previous})
	}

	me := e.host.CurrentUser()
	ch, ok := e.ownVoiceChannel(me.ID)
	if !ok {
		return nil
	}

	for _, t := range moved {
		if t.change.UserID != me.ID || t.change.ChannelID != ch.ID || t.previous == "" {
			continue
		}
		previous, ok := e.host.Channel(t.previous)
		if ok && e.owners.ObserveCreation(me, ch, previous) {
			e.audit.Log(ctx, audit.LevelInfo, ch.GuildID, ch.ID, me.ID, audit.EventOwnership, "created from "+previous.Name)
		}
	}

	if !e.opts.BlockEnabled {
		return nil
	}
	if owner, ok := e.resolveOwner(ch); !ok || owner != me.ID {
		return nil
	}

	var out []Outbound
	for _, t := range moved {
		userID := t.change.UserID
		if userID == me.ID || t.change.ChannelID != ch.ID || !e.blocks.Contains(userID) {
			continue
		}
		text := commands.Format("ban", commands.Mention(userID))
		out = append(out, Outbound{ChannelID: ch.ID, Text: text})
		if e.metrics != nil {
			e.metrics.AutoBans.Inc()
		}
		e.audit.Log(ctx, audit.LevelCrit, ch.GuildID, ch.ID, userID, audit.EventAutoBan, text)
	}
	return out
}

// Owner resolves the owner of channelID.
func (e *Engine) Owner(channelID string) (string, bool) {
	ch, ok := e.host.Channel(channelID)
	if !ok {
		return "", false
	}
	return e.resolveOwner(ch)
}

// Events returns the newest voice events of channelID.
func (e *Engine) Events(channelID string, limit int) []voicelog.Event {
	return e.tracker.Recent(channelID, limit)
}

// CurrentChannel is the voice channel the current user is in, if any.
func (e *Engine) CurrentChannel() (host.Channel, bool) {
	return e.ownVoiceChannel(e.host.CurrentUser().ID)
}

func (e *Engine) ownVoiceChannel(userID string) (host.Channel, bool) {
	state, ok := e.host.VoiceStateForUser(userID)
	if !ok || state.ChannelID == "" {
		return host.Channel{}, false
	}
	ch, ok := e.host.Channel(state.ChannelID)
	if !ok || ch.Kind != host.ChannelVoice {
		return host.Channel{}, false
	}
	return ch, true
}

func (e *Engine) resolveOwner(ch host.Channel) (string, bool) {
	owner, source := e.owners.Resolve(ch)
	if e.metrics != nil {
		e.metrics.OwnerResolutions.WithLabelValues(string(source)).Inc()
	}
	return owner, source != ownership.SourceNone
}

func (e *Engine) countCommand(verb, outcome string) {
	if e.metrics != nil {
		e.metrics.Commands.WithLabelValues(verb, outcome).Inc()
	}
}

func (e *Engine) countVoice(channelID, previous string) {
	if e.metrics == nil {
		return
	}
	if previous != "" {
		e.metrics.VoiceEvents.WithLabelValues(string(voicelog.Leave)).Inc()
	}
	if channelID != "" {
		e.metrics.VoiceEvents.WithLabelValues(string(voicelog.Join)).Inc()
	}
}
