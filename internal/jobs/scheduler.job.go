package jobs

import (
	"sparklean/config"
	"sparklean/internal/logger"
	"sparklean/internal/repositories"
	"sparklean/internal/services"
)

const (
	Daily  = services.Daily
	Hourly = services.Hourly
)

func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	repos repositories.Repository,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")

	if !config.SchedulerEnabled {
		log.Info("Scheduler disabled by configuration, skipping job registration")
		return nil
	}

	overdueBillsJob := NewOverdueBillsJob(repos.Order, Daily)
	if err := schedulerService.AddJob(overdueBillsJob); err != nil {
		return log.Err("failed to register overdue bills job", err)
	}
	log.Info("Registered overdue bills job", "schedule", "daily")

	return nil
}
