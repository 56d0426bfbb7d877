package app

import (
	"context"

	"sparklean/config"
	"sparklean/internal/controllers"
	"sparklean/internal/database"
	"sparklean/internal/handlers/middleware"
	"sparklean/internal/jobs"
	"sparklean/internal/logger"
	"sparklean/internal/repositories"
	"sparklean/internal/services"
)

type App struct {
	Database     database.DB
	Middleware   middleware.Middleware
	Config       config.Config
	Services     services.Service
	Repositories repositories.Repository
	Controllers  controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	repos := repositories.New(db)

	svcs, err := services.New(db, config)
	if err != nil {
		return &App{}, log.Err("failed to initialize services", err)
	}

	ctrls := controllers.New(svcs, repos, config, db)
	mw := middleware.New(db, config, svcs.Session)

	if err := jobs.RegisterAllJobs(svcs.Scheduler, config, repos); err != nil {
		return &App{}, log.Err("failed to register scheduled jobs", err)
	}
	if err := svcs.Scheduler.Start(context.Background()); err != nil {
		return &App{}, log.Err("failed to start scheduler", err)
	}

	return &App{
		Database:     db,
		Middleware:   mw,
		Config:       config,
		Services:     svcs,
		Repositories: repos,
		Controllers:  ctrls,
	}, nil
}

func (app *App) Close(ctx context.Context) error {
	log := logger.New("app").Function("Close")

	if err := app.Services.Scheduler.Stop(ctx); err != nil {
		log.Warn("failed to stop scheduler", "error", err)
	}

	if err := app.Database.Close(); err != nil {
		return log.Err("failed to close database", err)
	}

	return nil
}
