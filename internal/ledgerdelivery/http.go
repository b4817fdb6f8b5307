// Package ledgerdelivery manages delivery layer of the balance ledger.
package ledgerdelivery

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

// Service provides service layer interface needed by ledger delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package ledgerdelivery
type Service interface {
	Transfer(ctx context.Context, username, amount string, from, to domain.Account) (domain.TransferTxResult, error)
	RequestDeposit(ctx context.Context, username, amount string, method domain.Account) (domain.Transaction, error)
	ResolveDeposit(ctx context.Context, id int64, decision domain.TransactionStatus) (domain.ResolveTxResult, error)
	ListTransactions(ctx context.Context, username string, pageSize, pageID int32) ([]domain.Transaction, error)
	ListAllTransactions(ctx context.Context, pageSize, pageID int32) ([]domain.Transaction, error)
}

// Handler facilitates ledger delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns ledger handler.
func NewHandler(ls Service) *Handler {
	return &Handler{
		service: ls,
	}
}

// ValidBalance validates that a field names one of the user's own balances.
var ValidBalance validator.Func = func(fl validator.FieldLevel) bool {
	if name, ok := fl.Field().Interface().(string); ok {
		return domain.Account(name).IsInternal()
	}

	return false
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

type transferRequest struct {
	Amount string `json:"amount" binding:"required"`
	From   string `json:"from" binding:"required,balance"`
	To     string `json:"to" binding:"required,balance,nefield=From"`
}

type transferData struct {
	Transaction domain.Transaction `json:"transaction"`
	Balances    domain.Balances    `json:"balances"`
}

type transferResponse struct {
	Data transferData `json:"data,omitempty"`
}

// Transfer handles http request to move money between the caller's balances.
func (h *Handler) Transfer(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req transferRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		bindingError(gctx, err)

		return
	}

	result, err := h.service.Transfer(ctx, authUsername(gctx), req.Amount,
		domain.Account(req.From), domain.Account(req.To))
	if err != nil {
		l.Info().Err(err).Send()

		switch err {
		case
			domain.ErrInvalidAmount,
			domain.ErrInvalidAccountPair,
			domain.ErrInsufficientFunds:
			gctx.JSON(http.StatusUnprocessableEntity, web.Error(err))

			return
		case domain.ErrUserNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))

			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	res := transferResponse{
		Data: transferData{
			Transaction: result.Transaction,
			Balances:    result.Balances,
		},
	}

	gctx.JSON(http.StatusOK, res)
}

type depositRequest struct {
	Amount string `json:"amount" binding:"required"`
	Method string `json:"method" binding:"required,oneof=bank crypto"`
}

type transactionData struct {
	Transaction domain.Transaction `json:"transaction"`
}

type transactionResponse struct {
	Data transactionData `json:"data,omitempty"`
}

// RequestDeposit handles http request to record a pending manual deposit.
func (h *Handler) RequestDeposit(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req depositRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		bindingError(gctx, err)

		return
	}

	transaction, err := h.service.RequestDeposit(ctx, authUsername(gctx), req.Amount, domain.Account(req.Method))
	if err != nil {
		l.Info().Err(err).Send()

		switch err {
		case
			domain.ErrInvalidAmount,
			domain.ErrDepositBelowMinimum,
			domain.ErrInvalidDepositMethod:
			gctx.JSON(http.StatusUnprocessableEntity, web.Error(err))

			return
		case domain.ErrUserNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))

			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	res := transactionResponse{
		Data: transactionData{Transaction: transaction},
	}

	gctx.JSON(http.StatusOK, res)
}

type resolveURI struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

type resolveRequest struct {
	Status string `json:"status" binding:"required,oneof=completed rejected"`
}

type resolveData struct {
	Transaction domain.Transaction `json:"transaction"`
	Balances    domain.Balances    `json:"balances"`
}

type resolveResponse struct {
	Data resolveData `json:"data,omitempty"`
}

// ResolveDeposit handles http request to apply a reviewer decision to a
// pending deposit. Routed behind the admin middleware.
func (h *Handler) ResolveDeposit(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var uri resolveURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		bindingError(gctx, err)

		return
	}

	var req resolveRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		bindingError(gctx, err)

		return
	}

	result, err := h.service.ResolveDeposit(ctx, uri.ID, domain.TransactionStatus(req.Status))
	if err != nil {
		l.Info().Err(err).Send()

		switch err {
		case domain.ErrTransactionNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))

			return
		case
			domain.ErrAlreadyProcessed,
			domain.ErrInvalidDecision:
			gctx.JSON(http.StatusUnprocessableEntity, web.Error(err))

			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	res := resolveResponse{
		Data: resolveData{
			Transaction: result.Transaction,
			Balances:    result.Balances,
		},
	}

	gctx.JSON(http.StatusOK, res)
}

type listRequest struct {
	PageID   int32 `form:"page_id,default=1" binding:"min=1"`
	PageSize int32 `form:"page_size,default=50" binding:"min=1,max=100"`
}

type listData struct {
	Transactions []domain.Transaction `json:"transactions"`
}

type listResponse struct {
	Data listData `json:"data,omitempty"`
}

// ListTransactions handles http request to list the caller's transactions,
// newest first.
func (h *Handler) ListTransactions(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		bindingError(gctx, err)

		return
	}

	transactions, err := h.service.ListTransactions(ctx, authUsername(gctx), req.PageSize, req.PageID)
	if err != nil {
		l.Info().Err(err).Send()

		if err == domain.ErrUserNotFound {
			gctx.JSON(http.StatusNotFound, web.Error(err))

			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, listResponse{Data: listData{Transactions: transactions}})
}

// ListAllTransactions handles http request to list every user's transactions.
// Routed behind the admin middleware.
func (h *Handler) ListAllTransactions(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		bindingError(gctx, err)

		return
	}

	transactions, err := h.service.ListAllTransactions(ctx, req.PageSize, req.PageID)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, listResponse{Data: listData{Transactions: transactions}})
}
