package commands

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// MaxUserLimit is the largest user limit a voice channel accepts.
const MaxUserLimit = 99

var (
	mentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`)
	snowflake      = regexp.MustCompile(`^\d+$`)
)

var ErrInvalidLimit = errors.New("invalid user limit")

// Format renders the outbound chat line understood by the automation bot.
func Format(verb, argument string) string {
	if argument == "" {
		return "!voice-" + verb
	}
	return "!voice-" + verb + " " + argument
}

func Mention(userID string) string {
	return "<@" + userID + ">"
}

// ParseMention accepts <@id>, <@!id> or a bare id.
func ParseMention(value string) (string, bool) {
	if m := mentionPattern.FindStringSubmatch(value); m != nil {
		return m[1], true
	}
	if snowflake.MatchString(value) {
		return value, true
	}
	return "", false
}

// ResolveLimit turns an absolute limit or a +N/-N adjustment of current into
// a limit within [0, MaxUserLimit].
func ResolveLimit(argument string, current int) (int, error) {
	relative := 0
	switch {
	case strings.HasPrefix(argument, "+"):
		relative = 1
	case strings.HasPrefix(argument, "-"):
		relative = -1
	}
	digits := argument
	if relative != 0 {
		digits = argument[1:]
	}
	if digits == "" || !snowflake.MatchString(digits) {
		return 0, ErrInvalidLimit
	}
	// digits only fail to parse when out of range; any step past the cap
	// is the cap.
	n, err := strconv.Atoi(digits)
	if err != nil || n > MaxUserLimit {
		n = MaxUserLimit
	}
	if relative != 0 {
		n = current + relative*n
	}
	if n < 0 {
		n = 0
	}
	if n > MaxUserLimit {
		n = MaxUserLimit
	}
	return n, nil
}

// ParseRenamePresets splits a comma separated preset list. "\," keeps a
// literal comma inside a preset.
func ParseRenamePresets(value string) []string {
	const escape = "\x00"
	value = strings.ReplaceAll(value, `\,`, escape)
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(strings.ReplaceAll(part, escape, ","))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
