package model

import "time"

// Wallet transaction types and statuses for the append-only ledger.
const (
	TxnCredit = "credit"
	TxnDebit  = "debit"

	TxnCompleted = "completed"
)

// Wallet backs a user's stored balance.  The balance is always equal to
// the sum of completed credits minus completed debits in the ledger;
// both are updated inside the same transaction.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – owning user, one wallet per user.
//  BalanceCents – current balance in cents.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Wallet struct {
	ID           uint64    // wallets.id
	UserID       uint64    // wallets.user_id
	BalanceCents int64     // wallets.balance_cents
	CreatedAt    time.Time // wallets.created_at
	UpdatedAt    time.Time // wallets.updated_at
}

// WalletTransaction is one entry of the wallet ledger.  Entries are
// never updated or deleted.  BookingID links purchase debits, cashback
// and refund credits back to the booking that caused them.
//
// Fields:
//  ID          – uuid assigned at insert time.
//  WalletID    – wallet the entry belongs to.
//  BookingID   – booking that caused the entry, when applicable.
//  AmountCents – absolute amount moved, in cents.
//  Type        – credit or debit.
//  Status      – settlement status; always completed for wallet-internal moves.
//  Description – human-readable reason for the entry.
//  CreatedAt   – when the entry was appended.
type WalletTransaction struct {
	ID          string    // wallet_transactions.id (uuid)
	WalletID    uint64    // wallet_transactions.wallet_id
	BookingID   *uint64   // wallet_transactions.booking_id (nullable)
	AmountCents int64     // wallet_transactions.amount_cents
	Type        string    // wallet_transactions.type
	Status      string    // wallet_transactions.status
	Description string    // wallet_transactions.description
	CreatedAt   time.Time // wallet_transactions.created_at
}
