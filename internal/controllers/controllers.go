package controllers

import (
	"sparklean/config"
	"sparklean/internal/database"
	"sparklean/internal/repositories"
	"sparklean/internal/services"

	authController "sparklean/internal/controllers/auth"
	clientController "sparklean/internal/controllers/clients"
	orderController "sparklean/internal/controllers/orders"
	reportController "sparklean/internal/controllers/reports"
	requestController "sparklean/internal/controllers/requests"
)

type Controllers struct {
	Auth    authController.AuthControllerInterface
	Client  clientController.ClientControllerInterface
	Request requestController.RequestControllerInterface
	Order   orderController.OrderControllerInterface
	Report  reportController.ReportControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		Auth:    authController.New(repos, services, db),
		Client:  clientController.New(repos, db),
		Request: requestController.New(repos, services, db),
		Order:   orderController.New(repos, services, db),
		Report:  reportController.New(repos, db),
	}
}
