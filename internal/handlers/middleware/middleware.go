package middleware

import (
	"sparklean/config"
	"sparklean/internal/database"
	"sparklean/internal/logger"
	"sparklean/internal/services"
)

type Middleware struct {
	DB             database.DB
	Config         config.Config
	sessionService *services.SessionService
	log            logger.Logger
}

func New(
	db database.DB,
	config config.Config,
	sessionService *services.SessionService,
) Middleware {
	return Middleware{
		DB:             db,
		Config:         config,
		sessionService: sessionService,
		log:            logger.New("middleware"),
	}
}
