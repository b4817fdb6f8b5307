// Package ledgerrepo manages repository layer of the balance ledger.
//
// Every operation that mutates a balance runs inside a single database
// transaction together with its transaction-log insert, and the balance
// mutation itself is one in-place UPDATE guarded by non-negative CHECK
// constraints. Concurrent operations on the same user therefore serialize
// on the row write and can never observe partial effects or lose updates.
package ledgerrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/buckholding/brokerage-api/internal/domain"
	"github.com/buckholding/brokerage-api/pkg/dbpkg"
	"github.com/buckholding/brokerage-api/pkg/errorspkg"
)

// RepoPGS facilitates ledger repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewRepoPGS returns ledger RepoPGS with a connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

// balanceColumns maps recognized internal accounts to their column names.
// Client input never reaches the query text except through this lookup.
var balanceColumns = map[domain.Account]string{
	domain.AccountFunding: "funding_balance",
	domain.AccountHolding: "holding_balance",
}

const balanceCheckConstraintFunding = "users_funding_balance_check"
const balanceCheckConstraintHolding = "users_holding_balance_check"
const externalReferenceConstraint = "transactions_external_reference_key"

const createTransactionQuery = `
INSERT INTO
    transactions (user_id, type, amount, from_account, to_account, status, external_reference)
VALUES
    ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, user_id, type, amount, from_account, to_account, status, external_reference, created_at
`

const transferBalancesQuery = `
UPDATE users
SET %[1]s = %[1]s - $1, %[2]s = %[2]s + $1
WHERE id = $2
RETURNING funding_balance, holding_balance
`

const creditFundingQuery = `
UPDATE users
SET funding_balance = funding_balance + $1
WHERE id = $2
RETURNING funding_balance, holding_balance
`

const getBalancesQuery = `
SELECT funding_balance, holding_balance FROM users
WHERE id = $1
`

const getTransactionQuery = `
SELECT id, user_id, type, amount, from_account, to_account, status, external_reference, created_at
FROM transactions
WHERE id = $1
`

const getTransactionForUpdateQuery = getTransactionQuery + `
FOR UPDATE
`

const getTransactionByReferenceQuery = `
SELECT id, user_id, type, amount, from_account, to_account, status, external_reference, created_at
FROM transactions
WHERE external_reference = $1
`

const setTransactionStatusQuery = `
UPDATE transactions
SET status = $1
WHERE id = $2
`

const listByUserQuery = `
SELECT id, user_id, type, amount, from_account, to_account, status, external_reference, created_at
FROM transactions
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

const listAllQuery = `
SELECT id, user_id, type, amount, from_account, to_account, status, external_reference, created_at
FROM transactions
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner, t *domain.Transaction) error {
	return row.Scan(
		&t.ID,
		&t.UserID,
		&t.Type,
		&t.Amount,
		&t.FromAccount,
		&t.ToAccount,
		&t.Status,
		&t.ExternalReference,
		&t.CreatedAt,
	)
}

func createTransaction(ctx context.Context, db dbpkg.SQLInterface, userID int64,
	txType domain.TransactionType, amount string, from, to domain.Account,
	status domain.TransactionStatus, reference sql.NullString) (domain.Transaction, error) {
	row := db.QueryRowContext(ctx, createTransactionQuery,
		userID, txType, amount, from, to, status, reference)

	var t domain.Transaction
	err := scanTransaction(row, &t)

	return t, err
}

func rollback(ctx context.Context, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		zerolog.Ctx(ctx).Error().Err(err).Send()
	}
}

// Transfer atomically moves amount between the user's two balances and
// appends the completed transaction record. Either both balance columns
// change and the record exists, or nothing does.
func (r *RepoPGS) Transfer(ctx context.Context, arg domain.TransferParams) (domain.TransferTxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.TransferTxResult

	fromColumn, fromOK := balanceColumns[arg.From]
	toColumn, toOK := balanceColumns[arg.To]

	if !fromOK || !toOK || fromColumn == toColumn {
		return result, domain.ErrInvalidAccountPair
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	defer rollback(ctx, tx)

	query := fmt.Sprintf(transferBalancesQuery, fromColumn, toColumn)

	row := tx.QueryRowContext(ctx, query, arg.Amount, arg.UserID)

	err = row.Scan(&result.Balances.Funding, &result.Balances.Holding)
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return domain.TransferTxResult{}, domain.ErrUserNotFound
		}

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case balanceCheckConstraintFunding, balanceCheckConstraintHolding:
				return domain.TransferTxResult{}, domain.ErrInsufficientFunds
			}
		}

		return domain.TransferTxResult{}, errorspkg.ErrInternal
	}

	result.Transaction, err = createTransaction(ctx, tx, arg.UserID,
		domain.TransactionTransfer, arg.Amount, arg.From, arg.To,
		domain.StatusCompleted, sql.NullString{})
	if err != nil {
		l.Error().Err(err).Send()
		return domain.TransferTxResult{}, errorspkg.ErrInternal
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.TransferTxResult{}, errorspkg.ErrInternal
	}

	return result, nil
}

// CreateDepositRequest appends a pending deposit transaction. Balances are
// untouched until the request is resolved.
func (r *RepoPGS) CreateDepositRequest(ctx context.Context, arg domain.DepositRequestParams) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	t, err := createTransaction(ctx, r.db, arg.UserID,
		domain.TransactionDeposit, arg.Amount, arg.Method, domain.AccountFunding,
		domain.StatusPending, sql.NullString{})
	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "transactions_user_id_fkey":
				return t, domain.ErrUserNotFound
			case "transactions_amount_check":
				return t, domain.ErrInvalidAmount
			}
		}

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

// ResolveDeposit transitions a pending transaction to the given terminal
// decision. When the decision is completed the funding balance is credited in
// the same transaction that flips the status, so a deposit can never be
// credited twice even under concurrent resolution: the row is locked first
// and a non-pending status fails with ErrAlreadyProcessed.
func (r *RepoPGS) ResolveDeposit(ctx context.Context, id int64, decision domain.TransactionStatus) (domain.ResolveTxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.ResolveTxResult

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	defer rollback(ctx, tx)

	row := tx.QueryRowContext(ctx, getTransactionForUpdateQuery, id)

	if err := scanTransaction(row, &result.Transaction); err != nil {
		if err == sql.ErrNoRows {
			return domain.ResolveTxResult{}, domain.ErrTransactionNotFound
		}

		l.Error().Err(err).Send()

		return domain.ResolveTxResult{}, errorspkg.ErrInternal
	}

	if result.Transaction.Status != domain.StatusPending {
		return domain.ResolveTxResult{}, domain.ErrAlreadyProcessed
	}

	if _, err := tx.ExecContext(ctx, setTransactionStatusQuery, decision, id); err != nil {
		l.Error().Err(err).Send()
		return domain.ResolveTxResult{}, errorspkg.ErrInternal
	}

	var balancesRow *sql.Row
	if decision == domain.StatusCompleted {
		balancesRow = tx.QueryRowContext(ctx, creditFundingQuery,
			result.Transaction.Amount, result.Transaction.UserID)
	} else {
		balancesRow = tx.QueryRowContext(ctx, getBalancesQuery, result.Transaction.UserID)
	}

	if err := balancesRow.Scan(&result.Balances.Funding, &result.Balances.Holding); err != nil {
		l.Error().Err(err).Send()
		return domain.ResolveTxResult{}, errorspkg.ErrInternal
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.ResolveTxResult{}, errorspkg.ErrInternal
	}

	result.Transaction.Status = decision

	return result, nil
}

// CreditExternalDeposit credits the funding balance from a confirmed external
// payment, keyed by the processor's reference. The unique index on the
// reference makes the operation idempotent: a repeated reference returns the
// previously recorded transaction with ErrDuplicateReference and no balance
// effect.
func (r *RepoPGS) CreditExternalDeposit(ctx context.Context, arg domain.ExternalDepositParams) (domain.ExternalDepositTxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.ExternalDepositTxResult

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	defer rollback(ctx, tx)

	reference := sql.NullString{String: arg.ExternalReference, Valid: true}

	result.Transaction, err = createTransaction(ctx, tx, arg.UserID,
		domain.TransactionDeposit, arg.Amount, domain.AccountExternal, domain.AccountFunding,
		domain.StatusCompleted, reference)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == externalReferenceConstraint {
			rollback(ctx, tx)

			prior, getErr := r.getByReference(ctx, arg.ExternalReference)
			if getErr != nil {
				l.Error().Err(getErr).Send()
				return domain.ExternalDepositTxResult{}, errorspkg.ErrInternal
			}

			return domain.ExternalDepositTxResult{Transaction: prior}, domain.ErrDuplicateReference
		}

		l.Error().Err(err).Send()

		return domain.ExternalDepositTxResult{}, errorspkg.ErrInternal
	}

	row := tx.QueryRowContext(ctx, creditFundingQuery, arg.Amount, arg.UserID)

	if err := row.Scan(&result.Balances.Funding, &result.Balances.Holding); err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return domain.ExternalDepositTxResult{}, domain.ErrUserNotFound
		}

		return domain.ExternalDepositTxResult{}, errorspkg.ErrInternal
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.ExternalDepositTxResult{}, errorspkg.ErrInternal
	}

	return result, nil
}

func (r *RepoPGS) getByReference(ctx context.Context, reference string) (domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, getTransactionByReferenceQuery, reference)

	var t domain.Transaction
	err := scanTransaction(row, &t)

	return t, err
}

// GetBalances returns the user's current balance pair.
func (r *RepoPGS) GetBalances(ctx context.Context, userID int64) (domain.Balances, error) {
	l := zerolog.Ctx(ctx)

	var b domain.Balances

	row := r.db.QueryRowContext(ctx, getBalancesQuery, userID)

	if err := row.Scan(&b.Funding, &b.Holding); err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return b, domain.ErrUserNotFound
		}

		return b, errorspkg.ErrInternal
	}

	return b, nil
}

// Get returns the transaction with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	var t domain.Transaction

	row := r.db.QueryRowContext(ctx, getTransactionQuery, id)

	if err := scanTransaction(row, &t); err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return t, domain.ErrTransactionNotFound
		}

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

// ListByUser returns the user's transactions, newest first.
func (r *RepoPGS) ListByUser(ctx context.Context, userID int64, limit, offset int32) ([]domain.Transaction, error) {
	return r.list(ctx, listByUserQuery, userID, limit, offset)
}

// List returns all transactions, newest first.
func (r *RepoPGS) List(ctx context.Context, limit, offset int32) ([]domain.Transaction, error) {
	return r.list(ctx, listAllQuery, limit, offset)
}

func (r *RepoPGS) list(ctx context.Context, query string, args ...interface{}) ([]domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Transaction{}

	for rows.Next() {
		var t domain.Transaction
		if err := scanTransaction(rows, &t); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, t)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}
