package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"lexdraft/internal/profile/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
)

var badgerPrefix = []byte("profile/")

// BadgerStore keeps profiles in an embedded Badger database for offline use.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a Badger database at path. An empty path
// opens an in-memory database.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return db, nil
}

func NewBadger(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func badgerKey(profileID id.ProfileID) []byte {
	return append(append([]byte(nil), badgerPrefix...), profileID.String()...)
}

func (s *BadgerStore) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	out := forCreate(ctx, p)
	doc, err := encode(out)
	if err != nil {
		return nil, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		key := badgerKey(out.ID)
		if _, err := txn.Get(key); err == nil {
			return sentinel.ErrConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, doc)
	})
	if err != nil {
		return nil, wrapBadger("create profile", err)
	}
	return out, nil
}

func (s *BadgerStore) Get(_ context.Context, profileID id.ProfileID) (*models.Profile, error) {
	var out *models.Profile
	err := s.db.View(func(txn *badger.Txn) error {
		p, err := badgerRead(txn, profileID)
		out = p
		return err
	})
	if err != nil {
		return nil, wrapBadger("load profile", err)
	}
	return out, nil
}

func (s *BadgerStore) Update(ctx context.Context, profileID id.ProfileID, p *models.Profile) (*models.Profile, error) {
	var out *models.Profile
	err := s.db.Update(func(txn *badger.Txn) error {
		existing, err := badgerRead(txn, profileID)
		if err != nil {
			return err
		}
		out = forUpdate(ctx, profileID, p, existing.CreatedAt)
		doc, err := encode(out)
		if err != nil {
			return err
		}
		return txn.Set(badgerKey(profileID), doc)
	})
	if err != nil {
		return nil, wrapBadger("update profile", err)
	}
	return out, nil
}

func (s *BadgerStore) Delete(_ context.Context, profileID id.ProfileID) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		key := badgerKey(profileID)
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	return wrapBadger("delete profile", err)
}

func (s *BadgerStore) List(_ context.Context) ([]models.ProfileSummary, error) {
	out := []models.ProfileSummary{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(badgerPrefix); it.ValidForPrefix(badgerPrefix); it.Next() {
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			p, err := decode(raw)
			if err != nil {
				return err
			}
			out = append(out, p.Summary())
		}
		return nil
	})
	if err != nil {
		return nil, wrapBadger("list profiles", err)
	}
	sortSummaries(out)
	return out, nil
}

func badgerRead(txn *badger.Txn, profileID id.ProfileID) (*models.Profile, error) {
	item, err := txn.Get(badgerKey(profileID))
	if err != nil {
		return nil, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

// wrapBadger maps badger misses onto sentinel.ErrNotFound and keeps sentinel
// errors raised inside transactions unwrapped.
func wrapBadger(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return sentinel.ErrNotFound
	case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrInvalidState):
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
