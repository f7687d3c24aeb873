package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the Postgres Store. Seller and buyer documents live in JSONB
// columns; read-modify-write runs under SELECT ... FOR UPDATE.
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

func (r *Repo) Seller(ctx context.Context, sellerID string) (*Seller, error) {
	var doc []byte
	err := r.DB.QueryRow(ctx, `SELECT doc FROM sellers WHERE id=$1`, sellerID).Scan(&doc)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, StorageError("load seller", err)
	}
	s, err := DecodeSeller(sellerID, doc)
	if err != nil {
		return nil, StorageError("decode seller", err)
	}
	return s, nil
}

func (r *Repo) SellerIDs(ctx context.Context) ([]string, error) {
	rows, err := r.DB.Query(ctx, `SELECT id FROM sellers ORDER BY id`)
	if err != nil {
		return nil, StorageError("list sellers", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, StorageError("list sellers", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, StorageError("list sellers", err)
	}
	return out, nil
}

func (r *Repo) UpdateSeller(ctx context.Context, sellerID string, fn func(*Seller) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return StorageError("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	s, err := lockSeller(ctx, tx, sellerID)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	if err := saveSeller(ctx, tx, s); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return StorageError("commit", err)
	}
	return nil
}

func (r *Repo) Buyer(ctx context.Context, phone string) (*Buyer, error) {
	var doc []byte
	err := r.DB.QueryRow(ctx, `SELECT doc FROM buyers WHERE phone=$1`, phone).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, StorageError("load buyer", err)
	}
	return decodeBuyerDoc(phone, doc)
}

func (r *Repo) CreateBuyer(ctx context.Context, b *Buyer) error {
	doc, err := EncodeBuyer(b)
	if err != nil {
		return StorageError("encode buyer", err)
	}
	tag, err := r.DB.Exec(ctx, `
		INSERT INTO buyers(phone, doc) VALUES ($1, $2::jsonb)
		ON CONFLICT (phone) DO NOTHING`, b.PhoneNumber, string(doc))
	if err != nil {
		return StorageError("create buyer", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileExists
	}
	return nil
}

func (r *Repo) UpdateBuyer(ctx context.Context, phone string, fn func(*Buyer) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return StorageError("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	b, err := lockBuyer(ctx, tx, phone)
	if err != nil {
		return err
	}
	if err := fn(b); err != nil {
		return err
	}
	if err := saveBuyer(ctx, tx, phone, b); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return StorageError("commit", err)
	}
	return nil
}

func (r *Repo) UpdateSellerAndBuyer(ctx context.Context, sellerID, phone string, fn func(*Seller, *Buyer) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return StorageError("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// urutan lock: seller dulu, baru buyer
	s, err := lockSeller(ctx, tx, sellerID)
	if err != nil {
		return err
	}
	b, err := lockBuyer(ctx, tx, phone)
	if err != nil {
		return err
	}
	if err := fn(s, b); err != nil {
		return err
	}
	if err := saveSeller(ctx, tx, s); err != nil {
		return err
	}
	if err := saveBuyer(ctx, tx, phone, b); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return StorageError("commit", err)
	}
	return nil
}

// lockSeller creates the row on first touch so there is always something
// to lock. A rolled back transaction removes it again.
func lockSeller(ctx context.Context, tx pgx.Tx, sellerID string) (*Seller, error) {
	if _, err := tx.Exec(ctx, `
		INSERT INTO sellers(id, doc) VALUES ($1, '{}'::jsonb)
		ON CONFLICT (id) DO NOTHING`, sellerID); err != nil {
		return nil, StorageError("ensure seller", err)
	}
	var doc []byte
	if err := tx.QueryRow(ctx, `SELECT doc FROM sellers WHERE id=$1 FOR UPDATE`, sellerID).Scan(&doc); err != nil {
		return nil, StorageError("lock seller", err)
	}
	s, err := DecodeSeller(sellerID, doc)
	if err != nil {
		return nil, StorageError("decode seller", err)
	}
	return s, nil
}

func saveSeller(ctx context.Context, tx pgx.Tx, s *Seller) error {
	doc, err := EncodeSeller(s)
	if err != nil {
		return StorageError("encode seller", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE sellers SET doc=$2::jsonb, updated_at=now() WHERE id=$1`, s.ID, string(doc)); err != nil {
		return StorageError("save seller", err)
	}
	return nil
}

func lockBuyer(ctx context.Context, tx pgx.Tx, phone string) (*Buyer, error) {
	var doc []byte
	err := tx.QueryRow(ctx, `SELECT doc FROM buyers WHERE phone=$1 FOR UPDATE`, phone).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, StorageError("lock buyer", err)
	}
	return decodeBuyerDoc(phone, doc)
}

func saveBuyer(ctx context.Context, tx pgx.Tx, phone string, b *Buyer) error {
	doc, err := EncodeBuyer(b)
	if err != nil {
		return StorageError("encode buyer", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE buyers SET doc=$2::jsonb, updated_at=now() WHERE phone=$1`, phone, string(doc)); err != nil {
		return StorageError("save buyer", err)
	}
	return nil
}

func decodeBuyerDoc(phone string, doc []byte) (*Buyer, error) {
	b, err := DecodeBuyer(phone, doc)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return nil, StorageError("decode buyer", err)
	}
	return b, err
}

var _ PaymentLinkIndex = (*Repo)(nil)

// SellerByPaymentLink uses the GIN index on doc->'orders'.
func (r *Repo) SellerByPaymentLink(ctx context.Context, paymentLinkID string) (string, error) {
	var id string
	err := r.DB.QueryRow(ctx, `
		SELECT id FROM sellers
		WHERE doc -> 'orders' @> jsonb_build_array(jsonb_build_object('payment_link_id', $1::text))
		ORDER BY id LIMIT 1`, paymentLinkID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", StorageError("find payment link", err)
	}
	return id, nil
}
