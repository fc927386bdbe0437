package ownership

import (
	"fmt"
	"strings"
	"sync"

	"voiceguard/internal/host"
)

type Source string

const (
	SourceNone      Source = "none"
	SourceOverwrite Source = "overwrite"
	SourceOverride  Source = "override"
	SourceHistory   Source = "history"
)

type Config struct {
	AutomationBotID    string
	LobbyMarkers       []string
	OwnedNameTemplates []string
	Patterns           []Pattern
}

// Resolver infers who owns a temporary voice channel. Only the manual
// override map is kept between calls; everything else is recomputed.
type Resolver struct {
	mu        sync.Mutex
	cfg       Config
	history   host.History
	overrides map[string]string
}

func NewResolver(cfg Config, history host.History) *Resolver {
	if cfg.Patterns == nil {
		cfg.Patterns = DefaultPatterns
	}
	return &Resolver{
		cfg:       cfg,
		history:   history,
		overrides: make(map[string]string),
	}
}

func (r *Resolver) ResolveOwner(ch host.Channel) (string, bool) {
	owner, source := r.Resolve(ch)
	return owner, source != SourceNone
}

// Resolve is ResolveOwner that also reports which evidence answered. An
// override stands until the newest matching bot notice is a rename or
// transfer, which clears it and answers instead.
func (r *Resolver) Resolve(ch host.Channel) (string, Source) {
	if owner, ok := OverwriteOwner(ch); ok {
		return owner, SourceOverwrite
	}
	notice, pattern, found := r.scanHistory(ch.ID)
	if owner, ok := r.Override(ch.ID); ok {
		if !found || !pattern.InvalidatesOverride {
			return owner, SourceOverride
		}
		r.ClearOverride(ch.ID)
	}
	if found {
		return notice, SourceHistory
	}
	return "", SourceNone
}

// OverwriteOwner finds a member overwrite allowing both view and connect.
// Several candidates resolve to the lowest snowflake.
func OverwriteOwner(ch host.Channel) (string, bool) {
	owner := ""
	for _, ow := range ch.Overwrites {
		if !ownerOverwrite(ow) {
			continue
		}
		if owner == "" || snowflakeLess(ow.ID, owner) {
			owner = ow.ID
		}
	}
	return owner, owner != ""
}

func (r *Resolver) IsOwner(ch host.Channel, userID string) bool {
	for _, ow := range ch.Overwrites {
		if ow.ID == userID && ownerOverwrite(ow) {
			return true
		}
	}
	return false
}

// IsChannelLocked checks the @everyone overwrite, whose id equals the guild id.
func IsChannelLocked(ch host.Channel) bool {
	for _, ow := range ch.Overwrites {
		if ow.Kind == host.OverwriteRole && ow.ID == ch.GuildID {
			return ow.Deny&host.PermissionConnect != 0
		}
	}
	return false
}

func (r *Resolver) SetOverride(channelID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[channelID] = userID
}

func (r *Resolver) Override(channelID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.overrides[channelID]
	return owner, ok
}

func (r *Resolver) ClearOverride(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overrides, channelID)
}

// ObserveCreation records me as the owner of ch when me just moved there from
// a lobby channel and ch carries one of me's default channel names.
func (r *Resolver) ObserveCreation(me host.User, ch host.Channel, previous host.Channel) bool {
	if !r.isLobby(previous.Name) {
		return false
	}
	for _, name := range []string{me.DisplayName, me.Username} {
		if name == "" {
			continue
		}
		for _, tmpl := range r.cfg.OwnedNameTemplates {
			if ch.Name == fmt.Sprintf(tmpl, name) {
				r.SetOverride(ch.ID, me.ID)
				return true
			}
		}
	}
	return false
}

func (r *Resolver) isLobby(name string) bool {
	for _, marker := range r.cfg.LobbyMarkers {
		if marker != "" && strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// scanHistory returns the owner named by the newest matching bot notice and
// the pattern that matched it.
func (r *Resolver) scanHistory(channelID string) (string, Pattern, bool) {
	if r.history == nil || r.cfg.AutomationBotID == "" {
		return "", Pattern{}, false
	}
	for _, msg := range r.history.RecentMessages(channelID) {
		if msg.AuthorID != r.cfg.AutomationBotID || msg.EmbedDescription == "" {
			continue
		}
		for _, pattern := range r.cfg.Patterns {
			if owner, ok := pattern.Match(msg.EmbedDescription); ok {
				return owner, pattern, true
			}
		}
	}
	return "", Pattern{}, false
}

func ownerOverwrite(ow host.Overwrite) bool {
	const want = host.PermissionViewChannel | host.PermissionConnect
	return ow.Kind == host.OverwriteMember && ow.Allow&want == want
}

func snowflakeLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
