// Package sqlite is a single-file orders.Store for local runs and demos.
// The database is opened with one connection, so every transaction is
// serialized.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-seller-assistant/internal/orders"
)

type Store struct {
	db *sql.DB
}

var (
	_ orders.Store            = (*Store)(nil)
	_ orders.PaymentLinkIndex = (*Store)(nil)
)

func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if path != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Seller(ctx context.Context, sellerID string) (*orders.Seller, error) {
	doc, err := readDoc(ctx, s.db, `SELECT doc FROM sellers WHERE id = ?`, sellerID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, orders.StorageError("load seller", err)
	}
	sel, err := orders.DecodeSeller(sellerID, doc)
	if err != nil {
		return nil, orders.StorageError("decode seller", err)
	}
	return sel, nil
}

func (s *Store) SellerIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sellers ORDER BY id`)
	if err != nil {
		return nil, orders.StorageError("list sellers", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, orders.StorageError("list sellers", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, orders.StorageError("list sellers", err)
	}
	return out, nil
}

func (s *Store) UpdateSeller(ctx context.Context, sellerID string, fn func(*orders.Seller) error) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		sel, err := loadSeller(ctx, tx, sellerID)
		if err != nil {
			return err
		}
		if err := fn(sel); err != nil {
			return err
		}
		return saveSeller(ctx, tx, sel)
	})
}

func (s *Store) Buyer(ctx context.Context, phone string) (*orders.Buyer, error) {
	return loadBuyer(ctx, s.db, phone)
}

func (s *Store) CreateBuyer(ctx context.Context, b *orders.Buyer) error {
	doc, err := orders.EncodeBuyer(b)
	if err != nil {
		return orders.StorageError("encode buyer", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO buyers (phone, doc) VALUES (?, ?) ON CONFLICT (phone) DO NOTHING`,
		b.PhoneNumber, string(doc))
	if err != nil {
		return orders.StorageError("create buyer", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return orders.StorageError("create buyer", err)
	}
	if n == 0 {
		return orders.ErrProfileExists
	}
	return nil
}

func (s *Store) UpdateBuyer(ctx context.Context, phone string, fn func(*orders.Buyer) error) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		b, err := loadBuyer(ctx, tx, phone)
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
		return saveBuyer(ctx, tx, phone, b)
	})
}

func (s *Store) UpdateSellerAndBuyer(ctx context.Context, sellerID, phone string, fn func(*orders.Seller, *orders.Buyer) error) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		sel, err := loadSeller(ctx, tx, sellerID)
		if err != nil {
			return err
		}
		b, err := loadBuyer(ctx, tx, phone)
		if err != nil {
			return err
		}
		if err := fn(sel, b); err != nil {
			return err
		}
		if err := saveSeller(ctx, tx, sel); err != nil {
			return err
		}
		return saveBuyer(ctx, tx, phone, b)
	})
}

func (s *Store) SellerByPaymentLink(ctx context.Context, paymentLinkID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT s.id FROM sellers s, json_each(s.doc, '$.orders') o
		WHERE json_extract(o.value, '$.payment_link_id') = ?
		ORDER BY s.id LIMIT 1`, paymentLinkID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", orders.ErrOrderNotFound
	}
	if err != nil {
		return "", orders.StorageError("find payment link", err)
	}
	return id, nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return orders.StorageError("begin", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return orders.StorageError("commit", err)
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readDoc(ctx context.Context, q querier, query, key string) ([]byte, error) {
	var doc string
	if err := q.QueryRowContext(ctx, query, key).Scan(&doc); err != nil {
		return nil, err
	}
	return []byte(doc), nil
}

func loadSeller(ctx context.Context, q querier, sellerID string) (*orders.Seller, error) {
	doc, err := readDoc(ctx, q, `SELECT doc FROM sellers WHERE id = ?`, sellerID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, orders.StorageError("load seller", err)
	}
	sel, err := orders.DecodeSeller(sellerID, doc)
	if err != nil {
		return nil, orders.StorageError("decode seller", err)
	}
	return sel, nil
}

func saveSeller(ctx context.Context, tx *sql.Tx, sel *orders.Seller) error {
	doc, err := orders.EncodeSeller(sel)
	if err != nil {
		return orders.StorageError("encode seller", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sellers (id, doc) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET doc = excluded.doc, updated_at = CURRENT_TIMESTAMP`,
		sel.ID, string(doc)); err != nil {
		return orders.StorageError("save seller", err)
	}
	return nil
}

func loadBuyer(ctx context.Context, q querier, phone string) (*orders.Buyer, error) {
	doc, err := readDoc(ctx, q, `SELECT doc FROM buyers WHERE phone = ?`, phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, orders.ErrProfileNotFound
	}
	if err != nil {
		return nil, orders.StorageError("load buyer", err)
	}
	b, err := orders.DecodeBuyer(phone, doc)
	if err != nil && !errors.Is(err, orders.ErrProfileNotFound) {
		return nil, orders.StorageError("decode buyer", err)
	}
	return b, err
}

func saveBuyer(ctx context.Context, tx *sql.Tx, phone string, b *orders.Buyer) error {
	doc, err := orders.EncodeBuyer(b)
	if err != nil {
		return orders.StorageError("encode buyer", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE buyers SET doc = ?, updated_at = CURRENT_TIMESTAMP WHERE phone = ?`,
		string(doc), phone); err != nil {
		return orders.StorageError("save buyer", err)
	}
	return nil
}
