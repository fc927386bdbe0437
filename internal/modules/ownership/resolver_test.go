package ownership

import (
	"testing"

	"voiceguard/internal/host"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const botID = "1110336525176164452"

type fakeHistory map[string][]host.Message

func (f fakeHistory) RecentMessages(channelID string) []host.Message { return f[channelID] }

func ownerAllow() int64 { return host.PermissionViewChannel | host.PermissionConnect }

func newResolver(history host.History) *Resolver {
	return NewResolver(Config{
		AutomationBotID:    botID,
		LobbyMarkers:       []string{"Voice erstellen", "Kanal erstellen"},
		OwnedNameTemplates: []string{"%s's Channel", "%ss Kanal"},
	}, history)
}

func TestOverwriteBeatsOverride(t *testing.T) {
	ch := host.Channel{ID: "c1", GuildID: "g1", Overwrites: []host.Overwrite{
		{ID: "g1", Kind: host.OverwriteRole, Allow: ownerAllow()},
		{ID: "100", Kind: host.OverwriteMember, Allow: ownerAllow()},
	}}
	resolver := newResolver(nil)
	resolver.SetOverride("c1", "200")

	owner, source := resolver.Resolve(ch)
	assert.Equal(t, "100", owner)
	assert.Equal(t, SourceOverwrite, source)
}

func TestOverwriteNeedsViewAndConnect(t *testing.T) {
	ch := host.Channel{ID: "c1", Overwrites: []host.Overwrite{
		{ID: "100", Kind: host.OverwriteMember, Allow: host.PermissionViewChannel},
		{ID: "300", Kind: host.OverwriteRole, Allow: ownerAllow()},
	}}
	_, ok := OverwriteOwner(ch)
	assert.False(t, ok)

	resolver := newResolver(nil)
	assert.False(t, resolver.IsOwner(ch, "100"))
	assert.False(t, resolver.IsOwner(ch, "300"))
}

func TestOverwriteTieBreakLowestSnowflake(t *testing.T) {
	ch := host.Channel{ID: "c1", Overwrites: []host.Overwrite{
		{ID: "90000", Kind: host.OverwriteMember, Allow: ownerAllow()},
		{ID: "100000", Kind: host.OverwriteMember, Allow: ownerAllow()},
		{ID: "80000", Kind: host.OverwriteMember, Allow: ownerAllow()},
	}}
	owner, ok := OverwriteOwner(ch)
	require.True(t, ok)
	assert.Equal(t, "80000", owner)
}

func TestOverrideUsedWithoutOverwrite(t *testing.T) {
	resolver := newResolver(fakeHistory{})
	resolver.SetOverride("c1", "200")

	owner, source := resolver.Resolve(host.Channel{ID: "c1"})
	assert.Equal(t, "200", owner)
	assert.Equal(t, SourceOverride, source)

	resolver.ClearOverride("c1")
	_, ok := resolver.ResolveOwner(host.Channel{ID: "c1"})
	assert.False(t, ok)
}

func TestHistoryScan(t *testing.T) {
	history := fakeHistory{"c1": {
		{AuthorID: "555", EmbedDescription: "<@1>, du hast <@2> aus dem temporären Sprachkanal gekickt"},
		{AuthorID: botID},
		{AuthorID: botID, EmbedDescription: "something else entirely"},
		{AuthorID: botID, EmbedDescription: "<@!42>, du hast <@7> aus diesem temporären Sprachkanal gebannt."},
	}}
	resolver := newResolver(history)

	owner, source := resolver.Resolve(host.Channel{ID: "c1"})
	assert.Equal(t, "42", owner)
	assert.Equal(t, SourceHistory, source)
}

func TestTransferNoticeNamesNewOwner(t *testing.T) {
	history := fakeHistory{"c1": {
		{AuthorID: botID, EmbedDescription: "<@1>, du hast die Eigentumsrechte des temporären Sprachkanals auf <@2> übertragen."},
	}}
	owner, ok := newResolver(history).ResolveOwner(host.Channel{ID: "c1"})
	require.True(t, ok)
	assert.Equal(t, "2", owner)
}

func TestPatternRequiresExpectedMentionCount(t *testing.T) {
	pattern := Pattern{
		Name:       "optional",
		Expr:       DefaultPatterns[0].Expr,
		Mentions:   3,
		OwnerGroup: 0,
	}
	_, ok := pattern.Match("<@1>, du hast <@2> aus dem temporären Sprachkanal gekickt")
	assert.False(t, ok)

	owner, ok := DefaultPatterns[3].Match("<@9>, du hast das Nutzerlimit dieses temporären Sprachkanals zu 4 geändert")
	assert.True(t, ok)
	assert.Equal(t, "9", owner)
}

func TestInvalidatingNoticeClearsOverride(t *testing.T) {
	history := fakeHistory{}
	resolver := newResolver(history)
	resolver.SetOverride("c1", "99")

	history["c1"] = []host.Message{
		{AuthorID: botID, EmbedDescription: "<@5>, du hast diesen temporären Sprachkanal zu \"Chill\" umbenannt"},
	}
	owner, source := resolver.Resolve(host.Channel{ID: "c1"})
	assert.Equal(t, "5", owner)
	assert.Equal(t, SourceHistory, source)

	_, ok := resolver.Override("c1")
	assert.False(t, ok)
}

func TestOverrideOutranksOtherNotices(t *testing.T) {
	history := fakeHistory{"c1": {
		{AuthorID: botID, EmbedDescription: "<@9>, du hast das Nutzerlimit dieses temporären Sprachkanals zu 4 geändert"},
	}}
	resolver := newResolver(history)
	resolver.SetOverride("c1", "99")

	owner, source := resolver.Resolve(host.Channel{ID: "c1"})
	assert.Equal(t, "99", owner)
	assert.Equal(t, SourceOverride, source)

	_, ok := resolver.Override("c1")
	assert.True(t, ok)
}

func TestIsChannelLocked(t *testing.T) {
	locked := host.Channel{ID: "c1", GuildID: "g1", Overwrites: []host.Overwrite{
		{ID: "g1", Kind: host.OverwriteRole, Deny: host.PermissionConnect},
	}}
	assert.True(t, IsChannelLocked(locked))

	open := host.Channel{ID: "c1", GuildID: "g1", Overwrites: []host.Overwrite{
		{ID: "g1", Kind: host.OverwriteRole, Deny: host.PermissionViewChannel},
		{ID: "5", Kind: host.OverwriteMember, Deny: host.PermissionConnect},
	}}
	assert.False(t, IsChannelLocked(open))
}

func TestObserveCreationFromLobby(t *testing.T) {
	resolver := newResolver(nil)
	me := host.User{ID: "1", Username: "anna", DisplayName: "Anna"}
	lobby := host.Channel{ID: "lobby", Name: "➕ Kanal erstellen"}

	assert.True(t, resolver.ObserveCreation(me, host.Channel{ID: "c1", Name: "Annas Kanal"}, lobby))
	owner, ok := resolver.Override("c1")
	assert.True(t, ok)
	assert.Equal(t, "1", owner)

	assert.True(t, resolver.ObserveCreation(me, host.Channel{ID: "c2", Name: "anna's Channel"}, lobby))
	assert.False(t, resolver.ObserveCreation(me, host.Channel{ID: "c3", Name: "Bobs Kanal"}, lobby))
	assert.False(t, resolver.ObserveCreation(me, host.Channel{ID: "c4", Name: "Annas Kanal"}, host.Channel{Name: "General"}))
}
