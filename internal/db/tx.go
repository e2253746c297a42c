package db

import (
	"context"
	"fmt"

	"parlor/internal/store"
)

// Store is the sqlite-backed store.TxManager.
type Store struct {
	db *DB
}

func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Run executes fn inside a single transaction: commit on nil, rollback
// on error or panic.
func (s *Store) Run(ctx context.Context, fn func(tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer sqlTx.Rollback()

	t := &txHandle{
		users:    NewUserRepository(sqlTx),
		channels: NewChannelRepository(sqlTx),
	}
	if err := fn(t); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

type txHandle struct {
	users    *UserRepository
	channels *ChannelRepository
}

func (t *txHandle) Users() store.UsersRepository       { return t.users }
func (t *txHandle) Channels() store.ChannelsRepository { return t.channels }
