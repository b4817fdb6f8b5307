package main

import (
	"net/http"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/buckholding/brokerage-api/cmd/httpserver"
	"github.com/buckholding/brokerage-api/internal/middleware"
	"github.com/buckholding/brokerage-api/pkg/configpkg"
	"github.com/buckholding/brokerage-api/pkg/dbpkg"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.GetLogger(config)

	conn, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to db")
	}

	server, err := httpserver.New(conn, logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	err = http.ListenAndServe(config.ServerAddress, server)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot start server")
	}
}
