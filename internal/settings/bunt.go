package settings

import (
	"errors"

	"github.com/tidwall/buntdb"
)

const buntPrefix = "setting:"

type Bunt struct {
	db *buntdb.DB
}

// OpenBunt opens a BuntDB file; ":memory:" keeps everything in RAM.
func OpenBunt(path string) (*Bunt, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &Bunt{db: db}, nil
}

func (b *Bunt) GetString(key string) (string, bool, error) {
	var value string
	err := b.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(buntPrefix + key)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (b *Bunt) SetString(key, value string) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(buntPrefix+key, value, nil)
		return err
	})
}

func (b *Bunt) Close() error {
	return b.db.Close()
}
