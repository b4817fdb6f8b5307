package domain

import (
	"database/sql"
	"errors"
	"time"
)

var (
	// ErrInvalidAmount indicates an amount that is not a positive decimal.
	ErrInvalidAmount = errors.New("amount must be a positive number")
	// ErrDepositBelowMinimum indicates a deposit below the minimum threshold.
	ErrDepositBelowMinimum = errors.New("minimum deposit amount is 1")
	// ErrInvalidDepositMethod indicates an unrecognized deposit method.
	ErrInvalidDepositMethod = errors.New("deposit method must be bank or crypto")
	// ErrTransactionNotFound indicates that the transaction does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrAlreadyProcessed indicates that the transaction is no longer pending.
	ErrAlreadyProcessed = errors.New("transaction is already processed")
	// ErrInvalidDecision indicates a resolution other than completed or rejected.
	ErrInvalidDecision = errors.New("decision must be completed or rejected")
	// ErrDuplicateReference indicates that the external reference was already credited.
	// Callers treat it as a soft failure and return the prior result.
	ErrDuplicateReference = errors.New("external reference already credited")
	// ErrAmountMismatch indicates that a repeated external reference carries
	// a different amount than the one originally credited.
	ErrAmountMismatch = errors.New("amount conflicts with previously credited reference")
)

// TransactionType classifies a ledger event.
type TransactionType string

// Supported transaction types. Withdraw is reserved for a future withdrawal flow.
const (
	TransactionDeposit  TransactionType = "deposit"
	TransactionTransfer TransactionType = "transfer"
	TransactionWithdraw TransactionType = "withdraw"
)

// TransactionStatus tracks a transaction through its lifecycle.
// A status only ever changes from Pending to exactly one terminal state.
type TransactionStatus string

// Transaction statuses.
const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusRejected  TransactionStatus = "rejected"
)

// IsTerminal reports whether the status can no longer change.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// Transaction is one append-only ledger record. Amount, accounts and type are
// immutable after creation; only the status field may transition.
type Transaction struct {
	ID                int64             `json:"id"`
	UserID            int64             `json:"user_id"`
	Type              TransactionType   `json:"type"`
	Amount            string            `json:"amount"` // positive decimal
	FromAccount       Account           `json:"from_account"`
	ToAccount         Account           `json:"to_account"`
	Status            TransactionStatus `json:"status"`
	ExternalReference sql.NullString    `json:"external_reference,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// TransferParams is the input data for the balance transfer transaction.
type TransferParams struct {
	UserID int64   `json:"user_id"`
	Amount string  `json:"amount"`
	From   Account `json:"from"`
	To     Account `json:"to"`
}

// TransferTxResult is the result of the balance transfer transaction.
type TransferTxResult struct {
	Transaction Transaction `json:"transaction"`
	Balances    Balances    `json:"balances"`
}

// DepositRequestParams is the input data for a manual deposit request.
type DepositRequestParams struct {
	UserID int64   `json:"user_id"`
	Amount string  `json:"amount"`
	Method Account `json:"method"`
}

// ExternalDepositParams is the input data for crediting a confirmed
// external payment into the funding balance.
type ExternalDepositParams struct {
	UserID            int64  `json:"user_id"`
	Amount            string `json:"amount"`
	ExternalReference string `json:"external_reference"`
}

// ExternalDepositTxResult is the result of an external deposit credit.
type ExternalDepositTxResult struct {
	Transaction Transaction `json:"transaction"`
	Balances    Balances    `json:"balances"`
}

// ResolveTxResult is the result of resolving a pending deposit.
// Balances reflects the credited funding balance only when the
// decision was completed.
type ResolveTxResult struct {
	Transaction Transaction `json:"transaction"`
	Balances    Balances    `json:"balances"`
}
