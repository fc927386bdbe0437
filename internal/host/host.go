// Package host defines the narrow view of the chat client that the voice
// moderation engine reads from and writes to.
package host

import "github.com/bwmarrin/discordgo"

const (
	PermissionViewChannel = int64(discordgo.PermissionViewChannel)
	PermissionConnect     = int64(discordgo.PermissionVoiceConnect)
)

type OverwriteKind int

const (
	OverwriteRole OverwriteKind = iota
	OverwriteMember
)

type ChannelKind int

const (
	ChannelOther ChannelKind = iota
	ChannelText
	ChannelVoice
	ChannelStage
)

type User struct {
	ID          string
	Username    string
	DisplayName string
}

type VoiceState struct {
	UserID    string
	ChannelID string
}

// VoiceStateChange is one entry of a voice state update batch. ChannelID is
// empty when the user left voice. ReportedPrevious is the host's own previous
// channel field, which is not reliable across direct moves.
type VoiceStateChange struct {
	UserID           string
	ChannelID        string
	ReportedPrevious string
}

type Overwrite struct {
	ID    string
	Kind  OverwriteKind
	Allow int64
	Deny  int64
}

type Channel struct {
	ID         string
	GuildID    string
	Name       string
	Kind       ChannelKind
	UserLimit  int
	Overwrites []Overwrite
}

type Message struct {
	ID               string
	ChannelID        string
	GuildID          string
	AuthorID         string
	Content          string
	EmbedDescription string
}

type Identity interface {
	CurrentUser() User
}

type VoiceStates interface {
	VoiceStateForUser(userID string) (VoiceState, bool)
}

type Channels interface {
	Channel(channelID string) (Channel, bool)
}

type History interface {
	RecentMessages(channelID string) []Message
}

// Sender delivers a chat line. Delivery is fire-and-forget.
type Sender interface {
	Send(channelID, text, replyTo string)
}

type Notifier interface {
	Notify(text string)
}

type Names interface {
	DisplayName(guildID, userID string) string
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(text string)

func (f NotifierFunc) Notify(text string) { f(text) }
