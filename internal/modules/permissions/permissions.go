package permissions

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"voiceguard/internal/host"
	"voiceguard/internal/settings"

	"go.uber.org/zap"
)

type Permission string

const (
	Kick     Permission = "kick"
	Ban      Permission = "ban"
	Limit    Permission = "limit"
	Lock     Permission = "lock"
	Rename   Permission = "rename"
	Immunity Permission = "immunity"
)

// All is the full capability set in display order.
var All = []Permission{Kick, Ban, Limit, Lock, Rename, Immunity}

func Parse(value string) (Permission, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, perm := range All {
		if string(perm) == value {
			return perm, true
		}
	}
	return "", false
}

// Assignment maps a user id to its granted permissions.
type Assignment map[string][]Permission

// Store keeps the assignment in a single settings blob. Nothing is cached:
// every call re-reads and re-parses the blob. Mutations hold mu across the
// read-modify-write.
type Store struct {
	mu     sync.Mutex
	kv     settings.Store
	notify host.Notifier
	logger *zap.Logger
}

func NewStore(kv settings.Store, notifier host.Notifier, logger *zap.Logger) *Store {
	return &Store{kv: kv, notify: notifier, logger: logger}
}

// Assignments never fails. An empty blob is reset to "{}", malformed JSON
// yields an empty assignment; both cases notify the user. A failed read
// yields an empty assignment and leaves the stored blob alone.
func (s *Store) Assignments() Assignment {
	assignment, err := s.load()
	if err != nil {
		s.logger.Warn("moderator config read failed", zap.Error(err))
		return Assignment{}
	}
	return assignment
}

func (s *Store) load() (Assignment, error) {
	raw, _, err := s.kv.GetString(settings.KeyModerators)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		if err := s.kv.SetString(settings.KeyModerators, "{}"); err != nil {
			s.logger.Warn("moderator config reset failed", zap.Error(err))
		}
		s.notify.Notify("The moderator permission configuration has been reset.")
		return Assignment{}, nil
	}

	var assignment Assignment
	if err := json.Unmarshal([]byte(raw), &assignment); err != nil {
		s.logger.Warn("moderator config unreadable", zap.Error(err))
		s.notify.Notify("Failed to parse moderator permissions: " + err.Error())
		return Assignment{}, nil
	}
	if assignment == nil {
		assignment = Assignment{}
	}
	return assignment, nil
}

// Permissions returns the user's permissions and whether the user has an
// entry at all.
func (s *Store) Permissions(userID string) ([]Permission, bool) {
	perms, ok := s.Assignments()[userID]
	return perms, ok
}

func (s *Store) Has(userID string, perm Permission) bool {
	perms, _ := s.Permissions(userID)
	return contains(perms, perm)
}

func (s *Store) HasAll(userID string) bool {
	perms, _ := s.Permissions(userID)
	return hasAll(perms)
}

// IsModerator reports whether the user has an entry, even an empty one.
func (s *Store) IsModerator(userID string) bool {
	_, ok := s.Permissions(userID)
	return ok
}

func (s *Store) Grant(userID string, perm Permission) error {
	return s.update(func(assignment Assignment) bool {
		return grant(assignment, userID, perm)
	})
}

// Revoke removes perm and drops the user's entry once it is empty.
func (s *Store) Revoke(userID string, perm Permission) error {
	return s.update(func(assignment Assignment) bool {
		return revoke(assignment, userID, perm)
	})
}

func (s *Store) Toggle(userID string, perm Permission) error {
	return s.update(func(assignment Assignment) bool {
		if contains(assignment[userID], perm) {
			return revoke(assignment, userID, perm)
		}
		return grant(assignment, userID, perm)
	})
}

// ToggleAll clears a full set, otherwise replaces whatever the user holds
// with the full set.
func (s *Store) ToggleAll(userID string) error {
	return s.update(func(assignment Assignment) bool {
		if hasAll(assignment[userID]) {
			delete(assignment, userID)
		} else {
			assignment[userID] = append([]Permission(nil), All...)
		}
		return true
	})
}

// update applies fn to a fresh copy of the blob and saves it when fn reports
// a change. A failed read aborts without writing.
func (s *Store) update(fn func(Assignment) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	assignment, err := s.load()
	if err != nil {
		return fmt.Errorf("read moderator config: %w", err)
	}
	if !fn(assignment) {
		return nil
	}
	return s.save(assignment)
}

func grant(assignment Assignment, userID string, perm Permission) bool {
	if contains(assignment[userID], perm) {
		return false
	}
	assignment[userID] = append(assignment[userID], perm)
	return true
}

func revoke(assignment Assignment, userID string, perm Permission) bool {
	current, ok := assignment[userID]
	if !ok {
		return false
	}
	kept := make([]Permission, 0, len(current))
	for _, p := range current {
		if p != perm {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		delete(assignment, userID)
	} else {
		assignment[userID] = kept
	}
	return true
}

func (s *Store) save(assignment Assignment) error {
	data, err := json.Marshal(assignment)
	if err != nil {
		return err
	}
	return s.kv.SetString(settings.KeyModerators, string(data))
}

func hasAll(perms []Permission) bool {
	for _, perm := range All {
		if !contains(perms, perm) {
			return false
		}
	}
	return true
}

func contains(perms []Permission, perm Permission) bool {
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}

// Join renders permissions as a comma separated list.
func Join(perms []Permission) string {
	parts := make([]string, 0, len(perms))
	for _, perm := range perms {
		parts = append(parts, string(perm))
	}
	return strings.Join(parts, ", ")
}
