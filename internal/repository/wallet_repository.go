package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cinebook/movie-ticket-booking/internal/model"
	"github.com/cinebook/movie-ticket-booking/internal/service"
)

// WalletRepo provides data access for wallets and their append-only
// transaction ledger.  Balance updates and ledger inserts always happen
// inside the same transaction so the balance never diverges from the
// ledger.
type WalletRepo struct {
	db *sql.DB
}

// NewWalletRepo returns a new WalletRepo bound to the provided database.
func NewWalletRepo(db *sql.DB) *WalletRepo { return &WalletRepo{db: db} }

// GetByUserTx loads a user's wallet inside the provided transaction,
// locking the row so concurrent debits serialise.  Returns
// service.ErrWalletNotFound when the user has no wallet yet.
func (r *WalletRepo) GetByUserTx(ctx context.Context, tx *sql.Tx, userID uint64) (*model.Wallet, error) {
	const q = `SELECT id, user_id, balance_cents FROM wallets WHERE user_id = ? FOR UPDATE`
	var w model.Wallet
	err := tx.QueryRowContext(ctx, q, userID).Scan(&w.ID, &w.UserID, &w.BalanceCents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, service.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// EnsureTx loads a user's wallet, creating an empty one when none
// exists.  The created or loaded row is locked for the transaction.
func (r *WalletRepo) EnsureTx(ctx context.Context, tx *sql.Tx, userID uint64) (*model.Wallet, error) {
	w, err := r.GetByUserTx(ctx, tx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, service.ErrWalletNotFound) {
		return nil, err
	}
	const ins = `INSERT INTO wallets (user_id, balance_cents) VALUES (?, 0)`
	res, err := tx.ExecContext(ctx, ins, userID)
	if err != nil {
		// A concurrent transaction may have created the wallet between
		// the select and the insert; fall back to reading it.
		return r.GetByUserTx(ctx, tx, userID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.Wallet{ID: uint64(id), UserID: userID, BalanceCents: 0}, nil
}

// UpdateBalanceTx writes a wallet's new balance.
func (r *WalletRepo) UpdateBalanceTx(ctx context.Context, tx *sql.Tx, walletID uint64, balanceCents int64) error {
	const q = `UPDATE wallets SET balance_cents = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, balanceCents, walletID)
	return err
}

// AppendTransactionTx appends one ledger entry.  When the entry has no
// ID yet a fresh uuid is assigned and written back to the record.
func (r *WalletRepo) AppendTransactionTx(ctx context.Context, tx *sql.Tx, t *model.WalletTransaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	const q = `INSERT INTO wallet_transactions (id, wallet_id, booking_id, amount_cents, type, status, description)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, t.ID, t.WalletID, t.BookingID, t.AmountCents, t.Type, t.Status, t.Description)
	return err
}

// Statement returns a user's wallet together with its ledger, newest
// entries first.  Returns service.ErrWalletNotFound when the user has no wallet.
func (r *WalletRepo) Statement(ctx context.Context, userID uint64) (*model.Wallet, []model.WalletTransaction, error) {
	const wq = `SELECT id, user_id, balance_cents FROM wallets WHERE user_id = ?`
	var w model.Wallet
	err := r.db.QueryRowContext(ctx, wq, userID).Scan(&w.ID, &w.UserID, &w.BalanceCents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, service.ErrWalletNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	const tq = `SELECT id, wallet_id, booking_id, amount_cents, type, status, description, created_at
	            FROM wallet_transactions WHERE wallet_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, tq, w.ID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	txns := []model.WalletTransaction{}
	for rows.Next() {
		var t model.WalletTransaction
		var bookingID sql.NullInt64
		var createdAt time.Time
		if err := rows.Scan(&t.ID, &t.WalletID, &bookingID, &t.AmountCents, &t.Type, &t.Status, &t.Description, &createdAt); err != nil {
			return nil, nil, err
		}
		if bookingID.Valid {
			b := uint64(bookingID.Int64)
			t.BookingID = &b
		}
		t.CreatedAt = createdAt.UTC()
		txns = append(txns, t)
	}
	return &w, txns, rows.Err()
}
