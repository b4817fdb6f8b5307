package paymentdelivery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/buckholding/brokerage-api/internal/domain"
	"github.com/buckholding/brokerage-api/internal/middleware"
	"github.com/buckholding/brokerage-api/pkg/errorspkg"
	"github.com/buckholding/brokerage-api/pkg/randompkg"
	"github.com/buckholding/brokerage-api/pkg/tokenpkg"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T, handler *Handler, tokenMaker tokenpkg.Maker) *gin.Engine {
	t.Helper()

	server := gin.New()

	authRoutes := server.Group("/").Use(middleware.AuthMiddleware(tokenMaker))
	authRoutes.POST("/payment/create-intent", handler.CreateIntent)
	authRoutes.POST("/payment/confirm", handler.Confirm)
	authRoutes.GET("/payment-settings", handler.ListSettings)

	return server
}

type errorResponse struct {
	Error string `json:"error"`
}

func TestCreateIntentHandler(t *testing.T) {
	username := randompkg.Owner()
	tokenSymmetricKey := randompkg.String(32)

	tokenMaker, err := tokenpkg.NewPasetoMaker(tokenSymmetricKey)
	require.NoError(t, err)

	authType := middleware.AuthTypeBearer
	duration := time.Minute

	clientSecret := "pi_secret_" + randompkg.String(24)

	testCases := []struct {
		name           string
		requestBody    gin.H
		buildStubs     func(service *MockService)
		wantStatusCode int
		wantError      string
	}{
		{
			name:        "OK",
			requestBody: gin.H{"amount": "25.50", "currency": "usd"},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					CreateIntent(gomock.Any(), gomock.Eq(username), gomock.Eq("25.50"), gomock.Eq("usd")).
					Times(1).
					Return(clientSecret, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:        "InvalidCurrency",
			requestBody: gin.H{"amount": "25.50", "currency": "dollars"},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					CreateIntent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Currency is invalid",
		},
		{
			name:        "InvalidAmount",
			requestBody: gin.H{"amount": "-5", "currency": "usd"},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					CreateIntent(gomock.Any(), gomock.Eq(username), gomock.Eq("-5"), gomock.Eq("usd")).
					Times(1).
					Return("", domain.ErrInvalidAmount)
			},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      domain.ErrInvalidAmount.Error(),
		},
		{
			name:        "BelowMinimum",
			requestBody: gin.H{"amount": "0.50", "currency": "usd"},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					CreateIntent(gomock.Any(), gomock.Eq(username), gomock.Eq("0.50"), gomock.Eq("usd")).
					Times(1).
					Return("", domain.ErrDepositBelowMinimum)
			},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      domain.ErrDepositBelowMinimum.Error(),
		},
		{
			name:        "GatewayFailure",
			requestBody: gin.H{"amount": "25.50", "currency": "usd"},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					CreateIntent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return("", domain.ErrConfirmationFailed)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      domain.ErrConfirmationFailed.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockService(ctrl)
			settings := NewMockSettings(ctrl)
			handler := NewHandler(service, settings)
			server := newTestServer(t, handler, tokenMaker)

			tc.buildStubs(service)

			body, err := json.Marshal(tc.requestBody)
			require.NoError(t, err)

			req, err := http.NewRequest(http.MethodPost, "/payment/create-intent", bytes.NewReader(body))
			require.NoError(t, err)
			require.NoError(t, middleware.AddAuthorization(req, tokenMaker, authType, username, duration))

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			require.Equal(t, tc.wantStatusCode, recorder.Code)

			if tc.wantStatusCode != http.StatusOK {
				var res errorResponse
				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&res))
				require.Equal(t, tc.wantError, res.Error)

				return
			}

			var res createIntentResponse
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&res))
			require.Equal(t, clientSecret, res.ClientSecret)
		})
	}
}

func TestConfirmHandler(t *testing.T) {
	username := randompkg.Owner()
	tokenSymmetricKey := randompkg.String(32)

	tokenMaker, err := tokenpkg.NewPasetoMaker(tokenSymmetricKey)
	require.NoError(t, err)

	authType := middleware.AuthTypeBearer
	duration := time.Minute

	intentID := "pi_" + randompkg.String(24)

	testTxResult := domain.ExternalDepositTxResult{
		Transaction: domain.Transaction{
			ID:          1,
			UserID:      1,
			Type:        domain.TransactionDeposit,
			Amount:      "25.5",
			FromAccount: domain.AccountExternal,
			ToAccount:   domain.AccountFunding,
			Status:      domain.StatusCompleted,
		},
		Balances: domain.Balances{Funding: "25.5", Holding: "0"},
	}

	testCases := []struct {
		name           string
		requestBody    gin.H
		buildStubs     func(service *MockService)
		wantStatusCode int
		wantError      string
	}{
		{
			name:        "OK",
			requestBody: gin.H{"payment_intent_id": intentID},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Confirm(gomock.Any(), gomock.Eq(username), gomock.Eq(intentID)).
					Times(1).
					Return(testTxResult, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:        "MissingIntentID",
			requestBody: gin.H{},
			buildStubs: func(service *MockService) {
				service.EXPECT().Confirm(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "PaymentIntentID is required",
		},
		{
			name:        "NotSucceeded",
			requestBody: gin.H{"payment_intent_id": intentID},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Confirm(gomock.Any(), gomock.Eq(username), gomock.Eq(intentID)).
					Times(1).
					Return(domain.ExternalDepositTxResult{}, domain.ErrPaymentNotSucceeded)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      domain.ErrPaymentNotSucceeded.Error(),
		},
		{
			name:        "OwnerMismatch",
			requestBody: gin.H{"payment_intent_id": intentID},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Confirm(gomock.Any(), gomock.Eq(username), gomock.Eq(intentID)).
					Times(1).
					Return(domain.ExternalDepositTxResult{}, domain.ErrOwnerMismatch)
			},
			wantStatusCode: http.StatusForbidden,
			wantError:      domain.ErrOwnerMismatch.Error(),
		},
		{
			name:        "AmountMismatch",
			requestBody: gin.H{"payment_intent_id": intentID},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Confirm(gomock.Any(), gomock.Eq(username), gomock.Eq(intentID)).
					Times(1).
					Return(domain.ExternalDepositTxResult{}, domain.ErrAmountMismatch)
			},
			wantStatusCode: http.StatusConflict,
			wantError:      domain.ErrAmountMismatch.Error(),
		},
		{
			name:        "ConfirmationFailure",
			requestBody: gin.H{"payment_intent_id": intentID},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Confirm(gomock.Any(), gomock.Eq(username), gomock.Eq(intentID)).
					Times(1).
					Return(domain.ExternalDepositTxResult{}, domain.ErrConfirmationFailed)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      domain.ErrConfirmationFailed.Error(),
		},
		{
			name:        "InternalError",
			requestBody: gin.H{"payment_intent_id": intentID},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Confirm(gomock.Any(), gomock.Eq(username), gomock.Eq(intentID)).
					Times(1).
					Return(domain.ExternalDepositTxResult{}, errorspkg.ErrInternal)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockService(ctrl)
			settings := NewMockSettings(ctrl)
			handler := NewHandler(service, settings)
			server := newTestServer(t, handler, tokenMaker)

			tc.buildStubs(service)

			body, err := json.Marshal(tc.requestBody)
			require.NoError(t, err)

			req, err := http.NewRequest(http.MethodPost, "/payment/confirm", bytes.NewReader(body))
			require.NoError(t, err)
			require.NoError(t, middleware.AddAuthorization(req, tokenMaker, authType, username, duration))

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			require.Equal(t, tc.wantStatusCode, recorder.Code)

			if tc.wantStatusCode != http.StatusOK {
				var res errorResponse
				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&res))
				require.Equal(t, tc.wantError, res.Error)

				return
			}

			var res confirmResponse
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&res))
			require.Equal(t, "Payment confirmed and balance updated", res.Message)
			require.Equal(t, testTxResult.Transaction, res.Data.Transaction)
			require.Equal(t, testTxResult.Balances, res.Data.Balances)
		})
	}
}

func TestListSettingsHandler(t *testing.T) {
	username := randompkg.Owner()
	tokenSymmetricKey := randompkg.String(32)

	tokenMaker, err := tokenpkg.NewPasetoMaker(tokenSymmetricKey)
	require.NoError(t, err)

	settings := []domain.PaymentSetting{
		{ID: 1, Method: domain.AccountBank, Key: "Account Number", Value: "0123456789"},
		{ID: 2, Method: domain.AccountBank, Key: "Bank Name", Value: "Chase Bank"},
		{ID: 3, Method: domain.AccountCrypto, Key: "BTC Address", Value: "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh"},
	}

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := NewMockService(ctrl)
	settingsMock := NewMockSettings(ctrl)
	handler := NewHandler(service, settingsMock)
	server := newTestServer(t, handler, tokenMaker)

	settingsMock.EXPECT().List(gomock.Any()).Times(1).Return(settings, nil)

	req, err := http.NewRequest(http.MethodGet, "/payment-settings", nil)
	require.NoError(t, err)
	require.NoError(t, middleware.AddAuthorization(req, tokenMaker, middleware.AuthTypeBearer, username, time.Minute))

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var res settingsResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&res))
	require.Len(t, res.Data[domain.AccountBank], 2)
	require.Len(t, res.Data[domain.AccountCrypto], 1)
}
