package bot

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"voiceguard/internal/host"
	"voiceguard/internal/modules/commands"
)

var (
	errTargetRequired = errors.New("this action needs a user")
	errValueRequired  = errors.New("this action needs a value")
	errUnknownAction  = errors.New("unknown action")
	errUnknownPreset  = errors.New("no rename preset with that number")
	errNoOwner        = errors.New("no owner found")
)

// ownerGated reports whether action only makes sense while ch has an owner.
func ownerGated(action string) bool {
	switch action {
	case "claim", "lock", "unlock", "hide", "reveal", "limit", "rename":
		return true
	}
	return false
}

// voiceAction builds the chat line for a /voice action in ch. preset is the
// 1-based index into presets, 0 when unused. owned tells whether an owner
// of ch could be resolved.
func voiceAction(action, targetID, value string, preset int, ch host.Channel, owned bool, presets []string, maxName int) (string, error) {
	if ownerGated(action) && !owned {
		return "", errNoOwner
	}
	switch action {
	case "kick", "ban", "unban", "transfer":
		if targetID == "" {
			return "", errTargetRequired
		}
		return commands.Format(action, commands.Mention(targetID)), nil
	case "claim", "lock", "unlock", "hide", "reveal":
		return commands.Format(action, ""), nil
	case "limit":
		if value == "" {
			return "", errValueRequired
		}
		limit, err := commands.ResolveLimit(value, ch.UserLimit)
		if err != nil {
			return "", err
		}
		return commands.Format(action, strconv.Itoa(limit)), nil
	case "rename":
		name := value
		if preset > 0 {
			if preset > len(presets) {
				return "", errUnknownPreset
			}
			name = presets[preset-1]
		}
		if name == "" {
			return "", errValueRequired
		}
		if n := utf8.RuneCountInString(name); n > maxName {
			return "", fmt.Errorf("channel names must be between 1 and %d characters long", maxName)
		}
		return commands.Format(action, name), nil
	default:
		return "", errUnknownAction
	}
}
