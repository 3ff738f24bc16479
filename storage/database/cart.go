package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/atlantis/core/cart"
)

// CartStorage keeps cart payloads in the carts table.
type CartStorage struct {
	db *sqlx.DB
}

var _ cart.Storage = (*CartStorage)(nil)

func NewCartStorage(db *sqlx.DB) *CartStorage {
	return &CartStorage{db: db}
}

func (s *CartStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var payload string
	q := s.db.Rebind(`SELECT payload FROM carts WHERE cart_key = ?`)
	if err := s.db.GetContext(ctx, &payload, q, key); err != nil {
		if err == sql.ErrNoRows {
			return nil, cart.ErrNoCart
		}
		return nil, errors.Wrapf(err, "reading %s", key)
	}
	return []byte(payload), nil
}

// Set replaces the row of key. Delete then insert keeps the statement portable across engines.
func (s *CartStorage) Set(ctx context.Context, key string, data []byte) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM carts WHERE cart_key = ?`), key); err != nil {
		return errors.Wrapf(err, "writing %s", key)
	}
	q := tx.Rebind(`INSERT INTO carts (cart_key, payload, updated_at) VALUES (?, ?, ?)`)
	if _, err = tx.ExecContext(ctx, q, key, string(data), time.Now().UTC()); err != nil {
		return errors.Wrapf(err, "writing %s", key)
	}
	return errors.Wrapf(tx.Commit(), "writing %s", key)
}

func (s *CartStorage) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM carts WHERE cart_key = ?`), key)
	return errors.Wrapf(err, "deleting %s", key)
}
