// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/buckholding/brokerage-api/internal/ledgerdelivery"
	"github.com/buckholding/brokerage-api/internal/ledgerrepo"
	"github.com/buckholding/brokerage-api/internal/ledgerservice"
	"github.com/buckholding/brokerage-api/internal/middleware"
	"github.com/buckholding/brokerage-api/internal/paymentdelivery"
	"github.com/buckholding/brokerage-api/internal/paymentgateway"
	"github.com/buckholding/brokerage-api/internal/paymentservice"
	"github.com/buckholding/brokerage-api/internal/sessiondelivery"
	"github.com/buckholding/brokerage-api/internal/sessionrepo"
	"github.com/buckholding/brokerage-api/internal/sessionservice"
	"github.com/buckholding/brokerage-api/internal/settingrepo"
	"github.com/buckholding/brokerage-api/internal/userdelivery"
	"github.com/buckholding/brokerage-api/internal/userrepo"
	"github.com/buckholding/brokerage-api/internal/userservice"
	"github.com/buckholding/brokerage-api/pkg/configpkg"
	"github.com/buckholding/brokerage-api/pkg/tokenpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	userRepo := userrepo.NewRepoPGS(conn)
	ledgerRepo := ledgerrepo.NewRepoPGS(conn)
	sessionRepo := sessionrepo.NewRepoPGS(conn)
	settingRepo := settingrepo.NewRepoPGS(conn)

	tokenMaker, err := tokenpkg.NewPasetoMaker(config.TokenSymmetricKey)
	if err != nil {
		return nil, errors.New("cannot create token maker")
	}

	userService := userservice.New(userRepo)
	ledgerService := ledgerservice.New(ledgerRepo, userService)
	paymentService := paymentservice.New(paymentgateway.NewStripeGateway(config), ledgerService, userService)
	sessionService, err := sessionservice.New(sessionRepo, config, tokenMaker)

	if err != nil {
		return nil, errors.New("cannot initialize session service")
	}

	userHandler := userdelivery.NewHandler(userService, sessionService)
	ledgerHandler := ledgerdelivery.NewHandler(ledgerService)
	paymentHandler := paymentdelivery.NewHandler(paymentService, settingRepo)
	sessionHandler := sessiondelivery.NewHandler(sessionService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/users", userHandler.Create)
	engine.POST("/users/login", userHandler.Login)
	engine.POST("/sessions", sessionHandler.RenewAccessToken)

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(sessionService.TokenMaker))

	authRoutes.POST("/transfer", ledgerHandler.Transfer)
	authRoutes.POST("/deposit-request", ledgerHandler.RequestDeposit)
	authRoutes.GET("/transactions", ledgerHandler.ListTransactions)

	authRoutes.GET("/payment-settings", paymentHandler.ListSettings)
	authRoutes.POST("/payment/create-intent", paymentHandler.CreateIntent)
	authRoutes.POST("/payment/confirm", paymentHandler.Confirm)

	adminRoutes := engine.Group("/admin").Use(
		middleware.AuthMiddleware(sessionService.TokenMaker),
		middleware.AdminMiddleware(userService),
	)

	adminRoutes.POST("/transaction-update/:id", ledgerHandler.ResolveDeposit)
	adminRoutes.GET("/transactions", ledgerHandler.ListAllTransactions)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("balance", ledgerdelivery.ValidBalance)
		if err != nil {
			return nil, errors.New("cannot register balance validator")
		}
	}

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
