package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"voiceguard/internal/analytics"
	"voiceguard/internal/modules/commands"
	"voiceguard/internal/modules/ownership"
	"voiceguard/internal/modules/permissions"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	colorAction  = 0x5865F2
	colorWarning = 0xFEE75C
	colorError   = 0xED4245
)

type optionMap map[string]*discordgo.ApplicationCommandInteractionDataOption

func newOptionMap(options []*discordgo.ApplicationCommandInteractionDataOption) optionMap {
	out := make(optionMap, len(options))
	for _, opt := range options {
		out[opt.Name] = opt
	}
	return out
}

// The typed accessors panic on a type mismatch, so every getter checks the
// option type first.

func (o optionMap) str(name string) string {
	if opt, ok := o[name]; ok && opt.Type == discordgo.ApplicationCommandOptionString {
		return strings.TrimSpace(opt.StringValue())
	}
	return ""
}

func (o optionMap) integer(name string) int {
	if opt, ok := o[name]; ok && opt.Type == discordgo.ApplicationCommandOptionInteger {
		return int(opt.IntValue())
	}
	return 0
}

// user returns the id of a user option. A nil session skips the REST lookup
// of the full user, which only the id is needed from.
func (o optionMap) user(name string) string {
	opt, ok := o[name]
	if !ok {
		return ""
	}
	switch opt.Type {
	case discordgo.ApplicationCommandOptionUser, discordgo.ApplicationCommandOptionMentionable:
		return opt.UserValue(nil).ID
	}
	return ""
}

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := interaction.ApplicationCommandData()
	if !b.isOperator(interactionUserID(interaction)) {
		b.respondEmbed(session, interaction, b.commandEmbed("Voice", "You are not allowed to use this command.", colorError, nil), true)
		return
	}

	ctx := context.Background()
	options := newOptionMap(data.Options)
	switch data.Name {
	case "voice":
		b.handleVoiceCommand(session, interaction, options)
	case "perms":
		b.handlePermsCommand(session, interaction, options)
	case "block":
		b.handleBlockCommand(session, interaction, options)
	case "events":
		b.handleEventsCommand(session, interaction)
	case "owner":
		b.handleOwnerCommand(session, interaction)
	case "report":
		b.handleReportCommand(ctx, session, interaction, options)
	}
}

func (b *Bot) handleVoiceCommand(session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	ch, ok := b.engine.CurrentChannel()
	if !ok {
		b.respondEmbed(session, interaction, b.commandEmbed("Voice", "I am not in a voice channel.", colorWarning, nil), true)
		return
	}

	action := options.str("action")
	_, owned := b.engine.Owner(ch.ID)
	text, err := voiceAction(action, options.user("user"), options.str("value"), options.integer("preset"), ch, owned, b.presets, b.cfg.Commands.MaxNameLength)
	if errors.Is(err, errNoOwner) {
		b.respondEmbed(session, interaction, b.commandEmbed("Voice", "No owner found.", colorWarning, nil), true)
		return
	}
	if err != nil {
		b.respondEmbed(session, interaction, b.commandEmbed("Voice", err.Error(), colorError, nil), true)
		return
	}

	b.host.Send(ch.ID, text, "")
	fields := []*discordgo.MessageEmbedField{
		{Name: "Channel", Value: "<#" + ch.ID + ">", Inline: true},
		{Name: "Command", Value: "`" + text + "`", Inline: true},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Voice", "Command sent.", colorAction, fields), true)
}

func (b *Bot) handlePermsCommand(session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	action := options.str("action")
	userID := options.user("user")

	if action == "list" {
		b.respondEmbed(session, interaction, b.commandEmbed("Permissions", describeAssignment(b.perms.Assignments()), colorAction, nil), true)
		return
	}
	if userID == "" {
		b.respondEmbed(session, interaction, b.commandEmbed("Permissions", "A user is required.", colorError, nil), true)
		return
	}

	var err error
	switch action {
	case "toggle-all":
		err = b.perms.ToggleAll(userID)
	case "grant", "revoke", "toggle":
		perm, ok := permissions.Parse(options.str("permission"))
		if !ok {
			b.respondEmbed(session, interaction, b.commandEmbed("Permissions", "A permission is required.", colorError, nil), true)
			return
		}
		switch action {
		case "grant":
			err = b.perms.Grant(userID, perm)
		case "revoke":
			err = b.perms.Revoke(userID, perm)
		default:
			err = b.perms.Toggle(userID, perm)
		}
	default:
		b.respondEmbed(session, interaction, b.commandEmbed("Permissions", "Unknown action.", colorError, nil), true)
		return
	}
	if err != nil {
		b.logger.Warn("permission update failed", zap.String("user_id", userID), zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Permissions", "Could not save permissions.", colorError, nil), true)
		return
	}

	perms, _ := b.perms.Permissions(userID)
	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: commands.Mention(userID), Inline: true},
		{Name: "Permissions", Value: describePermissions(perms), Inline: true},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Permissions", "Permissions updated.", colorAction, fields), true)
}

func (b *Bot) handleBlockCommand(session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	action := options.str("action")
	userID := options.user("user")

	if action == "list" {
		blocked := b.blocks.List()
		if len(blocked) == 0 {
			b.respondEmbed(session, interaction, b.commandEmbed("Block list", "Nobody is blocked.", colorWarning, nil), true)
			return
		}
		mentions := make([]string, 0, len(blocked))
		for _, id := range blocked {
			mentions = append(mentions, commands.Mention(id))
		}
		b.respondEmbed(session, interaction, b.commandEmbed("Block list", strings.Join(mentions, "\n"), colorAction, nil), true)
		return
	}
	if userID == "" {
		b.respondEmbed(session, interaction, b.commandEmbed("Block list", "A user is required.", colorError, nil), true)
		return
	}

	var err error
	switch action {
	case "add":
		err = b.blocks.Block(userID)
	case "remove":
		err = b.blocks.Unblock(userID)
	default:
		b.respondEmbed(session, interaction, b.commandEmbed("Block list", "Unknown action.", colorError, nil), true)
		return
	}
	if err != nil {
		b.logger.Warn("block list update failed", zap.String("user_id", userID), zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Block list", "Could not save the block list.", colorError, nil), true)
		return
	}
	fields := []*discordgo.MessageEmbedField{{Name: "User", Value: commands.Mention(userID), Inline: true}}
	b.respondEmbed(session, interaction, b.commandEmbed("Block list", "Block list updated.", colorAction, fields), true)
}

func (b *Bot) handleEventsCommand(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	ch, ok := b.engine.CurrentChannel()
	if !ok {
		b.respondEmbed(session, interaction, b.commandEmbed("Voice events", "I am not in a voice channel.", colorWarning, nil), true)
		return
	}
	events := b.engine.Events(ch.ID, b.cfg.Voice.EventLogLimit)
	if len(events) == 0 {
		b.respondEmbed(session, interaction, b.commandEmbed("Voice events", "No events recorded.", colorWarning, nil), true)
		return
	}
	lines := make([]string, 0, len(events))
	for _, event := range events {
		lines = append(lines, fmt.Sprintf("<t:%d:T> %s %s", event.At.Unix(), event.Kind, commands.Mention(event.UserID)))
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Voice events", strings.Join(lines, "\n"), colorAction, nil), true)
}

func (b *Bot) handleOwnerCommand(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	ch, ok := b.engine.CurrentChannel()
	if !ok {
		b.respondEmbed(session, interaction, b.commandEmbed("Owner", "I am not in a voice channel.", colorWarning, nil), true)
		return
	}
	description := "No owner found."
	if owner, ok := b.engine.Owner(ch.ID); ok {
		description = fmt.Sprintf("%s is owned by %s", ch.Name, commands.Mention(owner))
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "Locked", Value: fmt.Sprintf("%t", ownership.IsChannelLocked(ch)), Inline: true},
		{Name: "Limit", Value: fmt.Sprintf("%d", ch.UserLimit), Inline: true},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Owner", description, colorAction, fields), true)
}

func (b *Bot) handleReportCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	if interaction.GuildID == "" || b.analytics == nil {
		b.respondEmbed(session, interaction, b.commandEmbed("Report", "Reports are only available in a server.", colorError, nil), true)
		return
	}
	since, err := analytics.PeriodStart(options.str("period"), time.Now())
	if err != nil {
		b.respondEmbed(session, interaction, b.commandEmbed("Report", err.Error(), colorError, nil), true)
		return
	}
	report, err := b.analytics.Report(ctx, interaction.GuildID, since)
	if err != nil {
		b.logger.Warn("report failed", zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Report", "Could not build the report.", colorError, nil), true)
		return
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Report", report.Summary(), colorAction, nil), true)
}

func (b *Bot) isOperator(userID string) bool {
	if userID == "" {
		return false
	}
	if b.session.State != nil && b.session.State.User != nil && b.session.State.User.ID == userID {
		return true
	}
	for _, id := range b.cfg.Operators {
		if id == userID {
			return true
		}
	}
	return false
}

func interactionUserID(interaction *discordgo.InteractionCreate) string {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User.ID
	}
	if interaction.User != nil {
		return interaction.User.ID
	}
	return ""
}

func describePermissions(perms []permissions.Permission) string {
	if len(perms) == 0 {
		return "none"
	}
	return permissions.Join(perms)
}

func describeAssignment(assignment permissions.Assignment) string {
	if len(assignment) == 0 {
		return "No moderators configured."
	}
	lines := make([]string, 0, len(assignment))
	for id, perms := range assignment {
		lines = append(lines, commands.Mention(id)+": "+describePermissions(perms))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func (b *Bot) commandEmbed(title, description string, color int, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields:      fields,
	}
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	if embed == nil {
		b.respond(session, interaction, "No response available.", ephemeral)
		return
	}
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}
