// Package ledgerservice manages business logic layer of the balance ledger.
package ledgerservice

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/buckholding/brokerage-api/internal/domain"
)

// minDepositAmount is the smallest manual deposit accepted.
var minDepositAmount = decimal.NewFromInt(1)

// Repo provides data access layer interface needed by ledger service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type Repo interface {
	Transfer(ctx context.Context, arg domain.TransferParams) (domain.TransferTxResult, error)
	CreateDepositRequest(ctx context.Context, arg domain.DepositRequestParams) (domain.Transaction, error)
	ResolveDeposit(ctx context.Context, id int64, decision domain.TransactionStatus) (domain.ResolveTxResult, error)
	CreditExternalDeposit(ctx context.Context, arg domain.ExternalDepositParams) (domain.ExternalDepositTxResult, error)
	GetBalances(ctx context.Context, userID int64) (domain.Balances, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int32) ([]domain.Transaction, error)
	List(ctx context.Context, limit, offset int32) ([]domain.Transaction, error)
}

// Users provides the user lookup interface needed by ledger service layer.
type Users interface {
	Get(ctx context.Context, username string) (domain.UserWithoutPassword, error)
}

// Service facilitates ledger service layer logic.
type Service struct {
	repo  Repo
	users Users
}

// New returns ledger service struct to manage ledger business logic.
func New(lr Repo, us Users) *Service {
	return &Service{
		repo:  lr,
		users: us,
	}
}

func parseAmount(amount string) (decimal.Decimal, error) {
	amountDecimal, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Decimal{}, domain.ErrInvalidAmount
	}

	if amountDecimal.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, domain.ErrInvalidAmount
	}

	return amountDecimal, nil
}

// Transfer validates and executes a balance transfer for the given user.
// The precondition check here gives a specific error before any mutation;
// the repository's constraints enforce the same invariant under concurrency.
func (s *Service) Transfer(ctx context.Context, username, amount string, from, to domain.Account) (domain.TransferTxResult, error) {
	l := zerolog.Ctx(ctx)

	amountDecimal, err := parseAmount(amount)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.TransferTxResult{}, err
	}

	if !from.IsInternal() || !to.IsInternal() || from == to {
		return domain.TransferTxResult{}, domain.ErrInvalidAccountPair
	}

	user, err := s.users.Get(ctx, username)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.TransferTxResult{}, err
	}

	sourceBalance := user.FundingBalance
	if from == domain.AccountHolding {
		sourceBalance = user.HoldingBalance
	}

	currentBalance, err := decimal.NewFromString(sourceBalance)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.TransferTxResult{}, err
	}

	if currentBalance.LessThan(amountDecimal) {
		return domain.TransferTxResult{}, domain.ErrInsufficientFunds
	}

	arg := domain.TransferParams{
		UserID: user.ID,
		Amount: amountDecimal.String(),
		From:   from,
		To:     to,
	}

	return s.repo.Transfer(ctx, arg)
}

// RequestDeposit records a pending manual deposit. No balance changes until
// a reviewer resolves the request.
func (s *Service) RequestDeposit(ctx context.Context, username, amount string, method domain.Account) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	amountDecimal, err := parseAmount(amount)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.Transaction{}, err
	}

	if amountDecimal.LessThan(minDepositAmount) {
		return domain.Transaction{}, domain.ErrDepositBelowMinimum
	}

	if !method.IsDepositMethod() {
		return domain.Transaction{}, domain.ErrInvalidDepositMethod
	}

	user, err := s.users.Get(ctx, username)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Transaction{}, err
	}

	arg := domain.DepositRequestParams{
		UserID: user.ID,
		Amount: amountDecimal.String(),
		Method: method,
	}

	return s.repo.CreateDepositRequest(ctx, arg)
}

// ResolveDeposit applies a reviewer decision to a pending deposit.
func (s *Service) ResolveDeposit(ctx context.Context, id int64, decision domain.TransactionStatus) (domain.ResolveTxResult, error) {
	if !decision.IsTerminal() {
		return domain.ResolveTxResult{}, domain.ErrInvalidDecision
	}

	return s.repo.ResolveDeposit(ctx, id, decision)
}

// CreditExternalDeposit credits a verified external payment into the user's
// funding balance. Repeating a reference is success-shaped: the previously
// recorded transaction and the current balances are returned, with no second
// credit. A repeated reference with a different amount fails hard.
func (s *Service) CreditExternalDeposit(ctx context.Context, userID int64, amount, reference string) (domain.ExternalDepositTxResult, error) {
	l := zerolog.Ctx(ctx)

	amountDecimal, err := parseAmount(amount)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.ExternalDepositTxResult{}, err
	}

	arg := domain.ExternalDepositParams{
		UserID:            userID,
		Amount:            amountDecimal.String(),
		ExternalReference: reference,
	}

	result, err := s.repo.CreditExternalDeposit(ctx, arg)
	if err == domain.ErrDuplicateReference {
		if result.Transaction.UserID != userID {
			l.Warn().
				Str("reference", reference).
				Int64("credited_user_id", result.Transaction.UserID).
				Int64("caller_user_id", userID).
				Msg("repeated external reference owned by another user")

			return domain.ExternalDepositTxResult{}, domain.ErrOwnerMismatch
		}

		priorAmount, parseErr := decimal.NewFromString(result.Transaction.Amount)
		if parseErr != nil {
			l.Error().Err(parseErr).Send()
			return domain.ExternalDepositTxResult{}, parseErr
		}

		if !priorAmount.Equal(amountDecimal) {
			l.Warn().
				Str("reference", reference).
				Str("credited_amount", result.Transaction.Amount).
				Str("reported_amount", amountDecimal.String()).
				Msg("repeated external reference with conflicting amount")

			return domain.ExternalDepositTxResult{}, domain.ErrAmountMismatch
		}

		balances, balErr := s.repo.GetBalances(ctx, userID)
		if balErr != nil {
			return domain.ExternalDepositTxResult{}, balErr
		}

		result.Balances = balances

		return result, nil
	}

	return result, err
}

// ListTransactions returns the user's transactions, newest first.
func (s *Service) ListTransactions(ctx context.Context, username string, pageSize, pageID int32) ([]domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	user, err := s.users.Get(ctx, username)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, err
	}

	return s.repo.ListByUser(ctx, user.ID, pageSize, (pageID-1)*pageSize)
}

// ListAllTransactions returns every user's transactions, newest first.
func (s *Service) ListAllTransactions(ctx context.Context, pageSize, pageID int32) ([]domain.Transaction, error) {
	return s.repo.List(ctx, pageSize, (pageID-1)*pageSize)
}
