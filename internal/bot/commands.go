package bot

import (
	"voiceguard/internal/modules/permissions"

	"github.com/bwmarrin/discordgo"
)

func choices(values ...string) []*discordgo.ApplicationCommandOptionChoice {
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(values))
	for _, value := range values {
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: value, Value: value})
	}
	return out
}

func permissionChoices() []*discordgo.ApplicationCommandOptionChoice {
	values := make([]string, 0, len(permissions.All))
	for _, perm := range permissions.All {
		values = append(values, string(perm))
	}
	return choices(values...)
}

func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "voice",
			Description: "Run a voice channel action in your current channel",
			DescriptionLocalizations: &map[discordgo.Locale]string{
				discordgo.German:    "Aktion im aktuellen Sprachkanal ausfuehren",
				discordgo.EnglishUS: "Run a voice channel action in your current channel",
			},
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "action",
					Description: "Action to run",
					Required:    true,
					Choices:     choices("kick", "ban", "unban", "transfer", "claim", "lock", "unlock", "hide", "reveal", "limit", "rename"),
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Target user for kick, ban, unban, transfer",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "value",
					Description: "Limit (12, +1, -1) or new channel name",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "preset",
					Description: "Rename preset number",
					Required:    false,
				},
			},
		},
		{
			Name:        "perms",
			Description: "Manage moderator permissions",
			DescriptionLocalizations: &map[discordgo.Locale]string{
				discordgo.German:    "Moderatorrechte verwalten",
				discordgo.EnglishUS: "Manage moderator permissions",
			},
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "action",
					Description: "grant, revoke, toggle, toggle-all or list",
					Required:    true,
					Choices:     choices("grant", "revoke", "toggle", "toggle-all", "list"),
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Moderator",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "permission",
					Description: "Permission",
					Required:    false,
					Choices:     permissionChoices(),
				},
			},
		},
		{
			Name:        "block",
			Description: "Manage the voice block list",
			DescriptionLocalizations: &map[discordgo.Locale]string{
				discordgo.German:    "Sperrliste verwalten",
				discordgo.EnglishUS: "Manage the voice block list",
			},
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "action",
					Description: "add, remove or list",
					Required:    true,
					Choices:     choices("add", "remove", "list"),
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User",
					Required:    false,
				},
			},
		},
		{
			Name:        "events",
			Description: "Show recent joins and leaves of your voice channel",
			DescriptionLocalizations: &map[discordgo.Locale]string{
				discordgo.German:    "Letzte Beitritte und Austritte anzeigen",
				discordgo.EnglishUS: "Show recent joins and leaves of your voice channel",
			},
		},
		{
			Name:        "owner",
			Description: "Show who owns your voice channel",
			DescriptionLocalizations: &map[discordgo.Locale]string{
				discordgo.German:    "Besitzer des Sprachkanals anzeigen",
				discordgo.EnglishUS: "Show who owns your voice channel",
			},
		},
		{
			Name:        "report",
			Description: "Summarise moderation decisions",
			DescriptionLocalizations: &map[discordgo.Locale]string{
				discordgo.German:    "Moderationsentscheidungen zusammenfassen",
				discordgo.EnglishUS: "Summarise moderation decisions",
			},
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "period",
					Description: "day or week",
					Required:    false,
					Choices:     choices("day", "week"),
				},
			},
		},
	}

	appID := b.session.State.User.ID
	existing, err := b.session.ApplicationCommands(appID, "")
	if err != nil {
		for _, cmd := range commands {
			if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
				return err
			}
		}
		return nil
	}

	existingByName := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{})
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := b.session.ApplicationCommandEdit(appID, "", current.ID, cmd); err != nil {
				return err
			}
			continue
		}
		if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			return err
		}
	}

	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		_ = b.session.ApplicationCommandDelete(appID, "", cmd.ID)
	}
	return nil
}
