// Package paymentdelivery manages delivery layer of card payments.
package paymentdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/buckholding/brokerage-api/internal/domain"
	"github.com/buckholding/brokerage-api/internal/middleware"
	"github.com/buckholding/brokerage-api/pkg/errorspkg"
	"github.com/buckholding/brokerage-api/pkg/tokenpkg"
	"github.com/buckholding/brokerage-api/pkg/web"
)

// Service provides service layer interface needed by payment delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package paymentdelivery
type Service interface {
	CreateIntent(ctx context.Context, username, amount, currency string) (string, error)
	Confirm(ctx context.Context, username, intentID string) (domain.ExternalDepositTxResult, error)
}

// Settings provides the payment settings lookup needed by payment delivery layer.
type Settings interface {
	List(ctx context.Context) ([]domain.PaymentSetting, error)
}

// Handler facilitates payment delivery layer logic.
type Handler struct {
	service  Service
	settings Settings
}

// NewHandler returns payment handler.
func NewHandler(ps Service, st Settings) *Handler {
	return &Handler{
		service:  ps,
		settings: st,
	}
}

func bindingError(gctx *gin.Context, err error) {
	l := zerolog.Ctx(gctx.Request.Context())
	l.Info().Err(err).Send()

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		gctx.JSON(http.StatusBadRequest, web.JSONError{Error: web.GetErrorMsg(ve)})

		return
	}

	gctx.JSON(http.StatusBadRequest, web.Error(err))
}

func authUsername(gctx *gin.Context) string {
	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)
	return authPayload.Username
}

type createIntentRequest struct {
	Amount   string `json:"amount" binding:"required"`
	Currency string `json:"currency" binding:"required,len=3"`
}

type createIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// CreateIntent handles http request to register a card payment with the processor.
func (h *Handler) CreateIntent(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req createIntentRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		bindingError(gctx, err)

		return
	}

	clientSecret, err := h.service.CreateIntent(ctx, authUsername(gctx), req.Amount, req.Currency)
	if err != nil {
		l.Info().Err(err).Send()

		switch err {
		case
			domain.ErrInvalidAmount,
			domain.ErrDepositBelowMinimum:
			gctx.JSON(http.StatusUnprocessableEntity, web.Error(err))

			return
		case domain.ErrConfirmationFailed:
			gctx.JSON(http.StatusInternalServerError, web.Error(err))

			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, createIntentResponse{ClientSecret: clientSecret})
}

type confirmRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

type confirmData struct {
	Transaction domain.Transaction `json:"transaction"`
	Balances    domain.Balances    `json:"balances"`
}

type confirmResponse struct {
	Message string      `json:"message"`
	Data    confirmData `json:"data,omitempty"`
}

// Confirm handles http request to verify a card payment and credit the
// funding balance. Repeated confirmations of the same payment return the
// original result.
func (h *Handler) Confirm(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req confirmRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		bindingError(gctx, err)

		return
	}

	result, err := h.service.Confirm(ctx, authUsername(gctx), req.PaymentIntentID)
	if err != nil {
		l.Info().Err(err).Send()

		switch err {
		case domain.ErrPaymentNotSucceeded:
			gctx.JSON(http.StatusBadRequest, web.Error(err))

			return
		case domain.ErrOwnerMismatch:
			gctx.JSON(http.StatusForbidden, web.Error(err))

			return
		case domain.ErrAmountMismatch:
			gctx.JSON(http.StatusConflict, web.Error(err))

			return
		case domain.ErrConfirmationFailed:
			gctx.JSON(http.StatusInternalServerError, web.Error(err))

			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	res := confirmResponse{
		Message: "Payment confirmed and balance updated",
		Data: confirmData{
			Transaction: result.Transaction,
			Balances:    result.Balances,
		},
	}

	gctx.JSON(http.StatusOK, res)
}

type settingsResponse struct {
	Data map[domain.Account][]domain.PaymentSetting `json:"data"`
}

// ListSettings handles http request for deposit instructions grouped by method.
func (h *Handler) ListSettings(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	settings, err := h.settings.List(ctx)
	if err != nil {
		l.Error().Err(err).Send()
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	grouped := make(map[domain.Account][]domain.PaymentSetting)
	for _, s := range settings {
		grouped[s.Method] = append(grouped[s.Method], s)
	}

	gctx.JSON(http.StatusOK, settingsResponse{Data: grouped})
}
