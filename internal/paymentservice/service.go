// Package paymentservice manages business logic layer of card payments.
//
// It is the trust boundary between the client and the ledger: amounts and
// ownership are always re-derived from the processor's record, never from
// values the client echoes back.
package paymentservice

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/buckholding/brokerage-api/internal/domain"
	"github.com/buckholding/brokerage-api/internal/paymentgateway"
)

// Ledger provides the ledger operations needed by the payment service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package paymentservice
type Ledger interface {
	CreditExternalDeposit(ctx context.Context, userID int64, amount, reference string) (domain.ExternalDepositTxResult, error)
}

// Users provides the user lookup interface needed by the payment service layer.
type Users interface {
	Get(ctx context.Context, username string) (domain.UserWithoutPassword, error)
}

// minPaymentAmount is the smallest amount accepted for a payment intent.
var minPaymentAmount = decimal.NewFromInt(1)

// Service facilitates payment service layer logic.
type Service struct {
	gateway paymentgateway.Gateway
	ledger  Ledger
	users   Users
}

// New returns payment service struct to manage payment business logic.
func New(g paymentgateway.Gateway, lg Ledger, us Users) *Service {
	return &Service{
		gateway: g,
		ledger:  lg,
		users:   us,
	}
}

// CreateIntent registers a payment with the processor on behalf of the user
// and returns the client secret used to complete the payment client side.
func (s *Service) CreateIntent(ctx context.Context, username, amount, currency string) (string, error) {
	l := zerolog.Ctx(ctx)

	amountDecimal, err := decimal.NewFromString(amount)
	if err != nil || amountDecimal.LessThanOrEqual(decimal.Zero) {
		return "", domain.ErrInvalidAmount
	}

	if amountDecimal.LessThan(minPaymentAmount) {
		return "", domain.ErrDepositBelowMinimum
	}

	user, err := s.users.Get(ctx, username)
	if err != nil {
		l.Error().Err(err).Send()
		return "", err
	}

	// Minor units keep the processor call free of binary float rounding.
	amountMinor := amountDecimal.Shift(2).Round(0).IntPart()

	intent, err := s.gateway.CreateIntent(ctx, amountMinor, currency, user.ID)
	if err != nil {
		l.Error().Err(err).Send()
		return "", domain.ErrConfirmationFailed
	}

	return intent.ClientSecret, nil
}

// Confirm verifies a payment intent against the processor's record and
// credits the settled amount into the caller's funding balance. The credit is
// keyed by the intent id, so retried confirmations of the same payment credit
// exactly once.
func (s *Service) Confirm(ctx context.Context, username, intentID string) (domain.ExternalDepositTxResult, error) {
	l := zerolog.Ctx(ctx)

	user, err := s.users.Get(ctx, username)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.ExternalDepositTxResult{}, err
	}

	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		l.Error().Err(err).Str("payment_intent_id", intentID).Msg("intent retrieval failed")
		return domain.ExternalDepositTxResult{}, domain.ErrConfirmationFailed
	}

	if intent.Status != paymentgateway.StatusSucceeded {
		return domain.ExternalDepositTxResult{}, domain.ErrPaymentNotSucceeded
	}

	intentUserID := intent.Metadata[paymentgateway.MetadataUserIDKey]
	if intentUserID == "" || intentUserID != strconv.FormatInt(user.ID, 10) {
		l.Warn().
			Str("payment_intent_id", intent.ID).
			Str("intent_user_id", intentUserID).
			Int64("auth_user_id", user.ID).
			Msg("payment confirmation user mismatch")

		return domain.ExternalDepositTxResult{}, domain.ErrOwnerMismatch
	}

	// The settled amount comes from the verified intent, in minor units.
	amount := decimal.New(intent.Amount, -2).String()

	return s.ledger.CreditExternalDeposit(ctx, user.ID, amount, intent.ID)
}
