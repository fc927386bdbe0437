package commands

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"voiceguard/internal/host"
	"voiceguard/internal/modules/permissions"
)

const verbPermissions = "permissions"

type Options struct {
	Prefixes          string
	Aliases           map[string]string
	ModeratorImmunity bool
	MaxNameLength     int
}

type PermissionSource interface {
	Assignments() permissions.Assignment
}

type OwnerResolver interface {
	ResolveOwner(ch host.Channel) (string, bool)
}

// Command is a validated message. Text is forwarded to the channel; Reply,
// when set instead, answers the sender and nothing is forwarded.
type Command struct {
	Verb     string
	Argument string
	Text     string
	Reply    string
}

func (c Command) Forward() bool { return c.Text != "" }

type Parser struct {
	opts     Options
	aliases  []string
	perms    PermissionSource
	owners   OwnerResolver
	identity host.Identity
	names    host.Names
}

func NewParser(opts Options, perms PermissionSource, owners OwnerResolver, identity host.Identity, names host.Names) *Parser {
	if opts.Prefixes == "" {
		opts.Prefixes = "!."
	}
	if opts.MaxNameLength <= 0 {
		opts.MaxNameLength = 99
	}
	aliases := make([]string, 0, len(opts.Aliases))
	for alias := range opts.Aliases {
		aliases = append(aliases, alias)
	}
	// longest alias first so ".lmt " is not shadowed by a shorter key
	sort.Slice(aliases, func(i, j int) bool {
		if len(aliases[i]) != len(aliases[j]) {
			return len(aliases[i]) > len(aliases[j])
		}
		return aliases[i] < aliases[j]
	})
	return &Parser{
		opts:     opts,
		aliases:  aliases,
		perms:    perms,
		owners:   owners,
		identity: identity,
		names:    names,
	}
}

// Expand applies the first matching shorthand alias.
func (p *Parser) Expand(raw string) string {
	for _, alias := range p.aliases {
		if strings.HasPrefix(raw, alias) {
			return p.opts.Aliases[alias] + raw[len(alias):]
		}
	}
	return raw
}

// Parse validates raw, sent by senderID in ch. Every failure is a *Rejection.
func (p *Parser) Parse(raw, senderID string, ch host.Channel) (Command, error) {
	content := p.Expand(raw)
	if content == "" || !strings.ContainsRune(p.opts.Prefixes, rune(content[0])) {
		return Command{}, &Rejection{Reason: ReasonNotCommand, Err: ErrNotCommand}
	}

	body := strings.TrimPrefix(content[1:], "voice-")
	parts := strings.Split(body, " ")
	verb := parts[0]
	if verb == "" {
		return Command{}, drop(ReasonEmptyVerb)
	}

	cmd, err := p.validate(verb, parts, senderID, ch)
	var rej *Rejection
	if errors.As(err, &rej) {
		rej.Verb = verb
	}
	return cmd, err
}

func (p *Parser) validate(verb string, parts []string, senderID string, ch host.Channel) (Command, error) {
	assignment := p.perms.Assignments()
	senderPerms, isModerator := assignment[senderID]

	if verb == verbPermissions {
		return p.permissionsReply(parts, isModerator, senderPerms, assignment, ch)
	}

	required, ok := requiredPermission(verb)
	if !ok {
		return Command{}, drop(ReasonUnknownVerb)
	}
	if !isModerator {
		return Command{}, drop(ReasonNotModerator)
	}
	if !hasPermission(senderPerms, required) {
		return Command{}, reject(ReasonMissingPermission, fmt.Sprintf("You do not have the %s permission", required))
	}

	argument := ""
	if len(parts) > 1 {
		argument = parts[1]
		if verb == "rename" {
			argument = strings.Join(parts[1:], " ")
		}
	}
	if needsArgument(verb) && argument == "" {
		return Command{}, drop(ReasonMissingArgument)
	}

	switch verb {
	case "ban", "unban", "kick":
		target, ok := ParseMention(argument)
		if !ok {
			return Command{}, drop(ReasonInvalidTarget)
		}
		if verb != "unban" {
			if owner, ok := p.owners.ResolveOwner(ch); ok && owner == target {
				return Command{}, reject(ReasonTargetOwner, "Cannot kick or ban the channel owner")
			}
			targetPerms, targetIsModerator := assignment[target]
			if hasPermission(targetPerms, permissions.Immunity) || (p.opts.ModeratorImmunity && targetIsModerator) {
				return Command{}, reject(ReasonTargetModerator, "Cannot kick or ban other moderators")
			}
		}
		return forward(verb, Mention(target)), nil
	case "limit":
		limit, err := ResolveLimit(argument, ch.UserLimit)
		if err != nil {
			return Command{}, &Rejection{Reason: ReasonInvalidLimit, Err: err}
		}
		return forward(verb, strconv.Itoa(limit)), nil
	case "rename":
		if utf8.RuneCountInString(argument) > p.opts.MaxNameLength {
			return Command{}, reject(ReasonNameLength, fmt.Sprintf("Channel names must be between 1 and %d characters long", p.opts.MaxNameLength))
		}
		return forward(verb, argument), nil
	default:
		return forward(verb, ""), nil
	}
}

func (p *Parser) permissionsReply(parts []string, isModerator bool, own []permissions.Permission, assignment permissions.Assignment, ch host.Channel) (Command, error) {
	if !isModerator {
		return Command{Verb: verbPermissions, Reply: "You are not a moderator"}, nil
	}
	if len(parts) < 2 || parts[1] == "" {
		return Command{Verb: verbPermissions, Reply: "Your permissions: " + describe(own)}, nil
	}

	target, ok := ParseMention(parts[1])
	if !ok {
		return Command{}, drop(ReasonInvalidTarget)
	}
	reply := Command{Verb: verbPermissions, Argument: Mention(target)}
	if p.identity != nil && p.identity.CurrentUser().ID == target {
		reply.Reply = "I own the channel"
		return reply, nil
	}
	perms, ok := assignment[target]
	if !ok {
		reply.Reply = p.displayName(ch.GuildID, target) + " is not a moderator"
		return reply, nil
	}
	reply.Reply = "Permissions: " + describe(perms)
	return reply, nil
}

func (p *Parser) displayName(guildID, userID string) string {
	if p.names != nil {
		if name := p.names.DisplayName(guildID, userID); name != "" {
			return name
		}
	}
	return Mention(userID)
}

func forward(verb, argument string) Command {
	return Command{Verb: verb, Argument: argument, Text: Format(verb, argument)}
}

func describe(perms []permissions.Permission) string {
	if len(perms) == 0 {
		return "none"
	}
	return permissions.Join(perms)
}

// requiredPermission maps a chat verb onto the permission guarding it.
func requiredPermission(verb string) (permissions.Permission, bool) {
	switch verb {
	case "unban":
		return permissions.Ban, true
	case "unlock":
		return permissions.Lock, true
	}
	perm := permissions.Permission(verb)
	if perm == permissions.Immunity || !hasPermission(permissions.All, perm) {
		return "", false
	}
	return perm, true
}

func needsArgument(verb string) bool {
	switch verb {
	case "ban", "unban", "kick", "limit", "rename":
		return true
	}
	return false
}

func hasPermission(perms []permissions.Permission, perm permissions.Permission) bool {
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}
