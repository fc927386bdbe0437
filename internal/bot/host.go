package bot

import (
	"voiceguard/internal/host"

	"github.com/bwmarrin/discordgo"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// sessionHost reads the discordgo state cache and sends through the REST
// client.
type sessionHost struct {
	session *discordgo.Session
	names   *lru.Cache
	logger  *zap.Logger
}

func newSessionHost(session *discordgo.Session, cacheSize int, logger *zap.Logger) (*sessionHost, error) {
	if cacheSize <= 0 {
		cacheSize = 512
	}
	names, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &sessionHost{session: session, names: names, logger: logger}, nil
}

func (h *sessionHost) CurrentUser() host.User {
	state := h.session.State
	if state == nil || state.User == nil {
		return host.User{}
	}
	me := host.User{ID: state.User.ID, Username: state.User.Username}
	if vs, ok := h.voiceState(me.ID); ok {
		if member, err := state.Member(vs.GuildID, me.ID); err == nil && member.Nick != "" {
			me.DisplayName = member.Nick
		}
	}
	return me
}

func (h *sessionHost) VoiceStateForUser(userID string) (host.VoiceState, bool) {
	vs, ok := h.voiceState(userID)
	if !ok {
		return host.VoiceState{}, false
	}
	return host.VoiceState{UserID: vs.UserID, ChannelID: vs.ChannelID}, true
}

func (h *sessionHost) voiceState(userID string) (*discordgo.VoiceState, bool) {
	state := h.session.State
	if state == nil {
		return nil, false
	}
	state.RLock()
	guildIDs := make([]string, 0, len(state.Guilds))
	for _, guild := range state.Guilds {
		if guild != nil {
			guildIDs = append(guildIDs, guild.ID)
		}
	}
	state.RUnlock()

	for _, guildID := range guildIDs {
		vs, err := state.VoiceState(guildID, userID)
		if err == nil && vs.ChannelID != "" {
			return vs, true
		}
	}
	return nil, false
}

func (h *sessionHost) Channel(channelID string) (host.Channel, bool) {
	ch, err := h.session.State.Channel(channelID)
	if err != nil {
		return host.Channel{}, false
	}
	h.session.State.RLock()
	defer h.session.State.RUnlock()
	return convertChannel(ch), true
}

// RecentMessages returns the cached messages of channelID, newest first.
func (h *sessionHost) RecentMessages(channelID string) []host.Message {
	ch, err := h.session.State.Channel(channelID)
	if err != nil {
		return nil
	}
	h.session.State.RLock()
	defer h.session.State.RUnlock()
	out := make([]host.Message, 0, len(ch.Messages))
	for i := len(ch.Messages) - 1; i >= 0; i-- {
		if ch.Messages[i] != nil {
			out = append(out, convertMessage(ch.Messages[i]))
		}
	}
	return out
}

func (h *sessionHost) Send(channelID, text, replyTo string) {
	data := &discordgo.MessageSend{
		Content:         text,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	if replyTo != "" {
		data.Reference = &discordgo.MessageReference{MessageID: replyTo, ChannelID: channelID}
	}
	if _, err := h.session.ChannelMessageSendComplex(channelID, data); err != nil {
		h.logger.Warn("send failed", zap.String("channel_id", channelID), zap.Error(err))
	}
}

func (h *sessionHost) DisplayName(guildID, userID string) string {
	key := guildID + ":" + userID
	if cached, ok := h.names.Get(key); ok {
		return cached.(string)
	}

	member, err := h.session.State.Member(guildID, userID)
	if err != nil && guildID != "" {
		member, err = h.session.GuildMember(guildID, userID)
	}
	if err != nil || member == nil {
		return ""
	}
	name := memberName(member)
	if name != "" {
		h.names.Add(key, name)
	}
	return name
}

func memberName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User != nil {
		return member.User.Username
	}
	return ""
}

func convertChannel(ch *discordgo.Channel) host.Channel {
	out := host.Channel{
		ID:        ch.ID,
		GuildID:   ch.GuildID,
		Name:      ch.Name,
		Kind:      channelKind(ch.Type),
		UserLimit: ch.UserLimit,
	}
	for _, ow := range ch.PermissionOverwrites {
		if ow == nil {
			continue
		}
		kind := host.OverwriteRole
		if ow.Type == discordgo.PermissionOverwriteTypeMember {
			kind = host.OverwriteMember
		}
		out.Overwrites = append(out.Overwrites, host.Overwrite{ID: ow.ID, Kind: kind, Allow: ow.Allow, Deny: ow.Deny})
	}
	return out
}

func channelKind(t discordgo.ChannelType) host.ChannelKind {
	switch t {
	case discordgo.ChannelTypeGuildVoice:
		return host.ChannelVoice
	case discordgo.ChannelTypeGuildStageVoice:
		return host.ChannelStage
	case discordgo.ChannelTypeGuildText:
		return host.ChannelText
	default:
		return host.ChannelOther
	}
}

func convertMessage(msg *discordgo.Message) host.Message {
	out := host.Message{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		GuildID:   msg.GuildID,
		Content:   msg.Content,
	}
	if msg.Author != nil {
		out.AuthorID = msg.Author.ID
	}
	if len(msg.Embeds) > 0 && msg.Embeds[0] != nil {
		out.EmbedDescription = msg.Embeds[0].Description
	}
	return out
}
