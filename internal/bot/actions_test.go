package bot

import (
	"strings"
	"testing"

	"voiceguard/internal/host"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoiceAction(t *testing.T) {
	ch := host.Channel{ID: "v1", UserLimit: 4}
	presets := []string{"Chill", "Gaming, Music"}

	tests := []struct {
		name   string
		action string
		target string
		value  string
		preset int
		want   string
	}{
		{name: "kick", action: "kick", target: "12", want: "!voice-kick <@12>"},
		{name: "transfer", action: "transfer", target: "12", want: "!voice-transfer <@12>"},
		{name: "claim", action: "claim", want: "!voice-claim"},
		{name: "hide", action: "hide", want: "!voice-hide"},
		{name: "limit plus one", action: "limit", value: "+1", want: "!voice-limit 5"},
		{name: "limit preset", action: "limit", value: "25", want: "!voice-limit 25"},
		{name: "rename", action: "rename", value: "Study Hall", want: "!voice-rename Study Hall"},
		{name: "rename preset", action: "rename", preset: 2, want: "!voice-rename Gaming, Music"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := voiceAction(tt.action, tt.target, tt.value, tt.preset, ch, true, presets, 99)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVoiceActionErrors(t *testing.T) {
	ch := host.Channel{ID: "v1"}

	_, err := voiceAction("ban", "", "", 0, ch, true, nil, 99)
	assert.ErrorIs(t, err, errTargetRequired)

	_, err = voiceAction("limit", "", "", 0, ch, true, nil, 99)
	assert.ErrorIs(t, err, errValueRequired)

	_, err = voiceAction("rename", "", "", 3, ch, true, []string{"a"}, 99)
	assert.ErrorIs(t, err, errUnknownPreset)

	_, err = voiceAction("rename", "", strings.Repeat("x", 100), 0, ch, true, nil, 99)
	assert.Error(t, err)

	_, err = voiceAction("explode", "", "", 0, ch, true, nil, 99)
	assert.ErrorIs(t, err, errUnknownAction)
}

func TestVoiceActionWithoutOwner(t *testing.T) {
	ch := host.Channel{ID: "v1", UserLimit: 4}

	for _, action := range []string{"claim", "lock", "unlock", "hide", "reveal"} {
		_, err := voiceAction(action, "", "", 0, ch, false, nil, 99)
		assert.ErrorIs(t, err, errNoOwner, action)
	}
	_, err := voiceAction("limit", "", "+1", 0, ch, false, nil, 99)
	assert.ErrorIs(t, err, errNoOwner)
	_, err = voiceAction("rename", "", "Study", 0, ch, false, nil, 99)
	assert.ErrorIs(t, err, errNoOwner)

	got, err := voiceAction("kick", "12", "", 0, ch, false, nil, 99)
	require.NoError(t, err)
	assert.Equal(t, "!voice-kick <@12>", got)
}

func TestOptionMapReadsByType(t *testing.T) {
	options := newOptionMap([]*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "action", Type: discordgo.ApplicationCommandOptionString, Value: " kick "},
		{Name: "user", Type: discordgo.ApplicationCommandOptionUser, Value: "123"},
		{Name: "preset", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(2)},
	})

	assert.Equal(t, "kick", options.str("action"))
	assert.Equal(t, "123", options.user("user"))
	assert.Equal(t, 2, options.integer("preset"))

	assert.NotPanics(t, func() {
		assert.Empty(t, options.str("user"))
		assert.Empty(t, options.user("action"))
		assert.Zero(t, options.integer("user"))
	})
	assert.Empty(t, options.user("missing"))
}

func TestConvertChannel(t *testing.T) {
	ch := convertChannel(&discordgo.Channel{
		ID:        "v1",
		GuildID:   "g1",
		Name:      "Annas Kanal",
		Type:      discordgo.ChannelTypeGuildVoice,
		UserLimit: 3,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{ID: "g1", Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionVoiceConnect},
			{ID: "42", Type: discordgo.PermissionOverwriteTypeMember, Allow: discordgo.PermissionViewChannel | discordgo.PermissionVoiceConnect},
			nil,
		},
	})

	assert.Equal(t, host.ChannelVoice, ch.Kind)
	assert.Equal(t, 3, ch.UserLimit)
	require.Len(t, ch.Overwrites, 2)
	assert.Equal(t, host.OverwriteRole, ch.Overwrites[0].Kind)
	assert.Equal(t, host.OverwriteMember, ch.Overwrites[1].Kind)
	assert.Equal(t, host.PermissionViewChannel|host.PermissionConnect, ch.Overwrites[1].Allow)

	assert.Equal(t, host.ChannelStage, channelKind(discordgo.ChannelTypeGuildStageVoice))
	assert.Equal(t, host.ChannelOther, channelKind(discordgo.ChannelTypeGuildCategory))
}

func TestConvertMessage(t *testing.T) {
	msg := convertMessage(&discordgo.Message{
		ID:        "m1",
		ChannelID: "v1",
		Content:   "hi",
		Author:    &discordgo.User{ID: "7"},
		Embeds:    []*discordgo.MessageEmbed{{Description: "<@1>, du hast ..."}},
	})
	assert.Equal(t, "7", msg.AuthorID)
	assert.Equal(t, "<@1>, du hast ...", msg.EmbedDescription)

	bare := convertMessage(&discordgo.Message{ID: "m2"})
	assert.Empty(t, bare.AuthorID)
	assert.Empty(t, bare.EmbedDescription)
}

func TestMemberName(t *testing.T) {
	assert.Equal(t, "Nick", memberName(&discordgo.Member{Nick: "Nick", User: &discordgo.User{Username: "user"}}))
	assert.Equal(t, "user", memberName(&discordgo.Member{User: &discordgo.User{Username: "user"}}))
	assert.Empty(t, memberName(&discordgo.Member{}))
}
