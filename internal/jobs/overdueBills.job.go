package jobs

import (
	"context"
	"time"

	"sparklean/internal/logger"
	"sparklean/internal/repositories"
	"sparklean/internal/services"
)

// OverdueBillsJob sweeps billed orders whose payment due date has passed
// and flips them from due to overdue.
type OverdueBillsJob struct {
	orderRepo repositories.OrderRepository
	log       logger.Logger
	schedule  services.Schedule
}

func NewOverdueBillsJob(
	orderRepo repositories.OrderRepository,
	schedule services.Schedule,
) *OverdueBillsJob {
	return &OverdueBillsJob{
		orderRepo: orderRepo,
		log:       logger.New("overdueBillsJob"),
		schedule:  schedule,
	}
}

func (j *OverdueBillsJob) Name() string {
	return "OverdueBillsSweep"
}

func (j *OverdueBillsJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	flipped, err := j.orderRepo.MarkOverdue(ctx, time.Now().UTC())
	if err != nil {
		return log.Err("overdue bills sweep failed", err)
	}

	if flipped > 0 {
		log.Info("Marked orders overdue", "count", flipped)
	}
	return nil
}

func (j *OverdueBillsJob) Schedule() services.Schedule {
	return j.schedule
}
