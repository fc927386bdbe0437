package permissions

import (
	"fmt"
	"strings"
	"sync"

	"voiceguard/internal/settings"
)

// BlockList is a comma separated set of user ids kept in one settings blob.
type BlockList struct {
	mu sync.Mutex
	kv settings.Store
}

func NewBlockList(kv settings.Store) *BlockList {
	return &BlockList{kv: kv}
}

// List is empty when the blob is missing or cannot be read.
func (b *BlockList) List() []string {
	users, _ := b.load()
	return users
}

func (b *BlockList) Contains(userID string) bool {
	return indexOf(b.List(), userID) >= 0
}

func (b *BlockList) Block(userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	users, err := b.load()
	if err != nil {
		return err
	}
	if indexOf(users, userID) >= 0 {
		return nil
	}
	return b.save(append(users, userID))
}

func (b *BlockList) Unblock(userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	users, err := b.load()
	if err != nil {
		return err
	}
	idx := indexOf(users, userID)
	if idx < 0 {
		return nil
	}
	return b.save(append(users[:idx], users[idx+1:]...))
}

func (b *BlockList) load() ([]string, error) {
	raw, _, err := b.kv.GetString(settings.KeyBlocked)
	if err != nil {
		return nil, fmt.Errorf("read block list: %w", err)
	}
	var users []string
	for _, part := range strings.Split(strings.TrimSpace(raw), ",") {
		if part = strings.TrimSpace(part); part != "" {
			users = append(users, part)
		}
	}
	return users, nil
}

func (b *BlockList) save(users []string) error {
	return b.kv.SetString(settings.KeyBlocked, strings.Join(users, ","))
}

func indexOf(users []string, userID string) int {
	for i, id := range users {
		if id == userID {
			return i
		}
	}
	return -1
}
