package reportController

import (
	"context"
	"errors"
	"regexp"

	"sparklean/internal/database"
	"sparklean/internal/logger"
	"sparklean/internal/repositories"
)

var ErrValidation = errors.New("validation error")

// monthPattern is the strict YYYY-MM filter format. Anything else is
// treated as absent, which means all time.
var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ReportController fronts the fixed set of business reports
type ReportController struct {
	reportRepo repositories.ReportRepository
	db         database.DB
	log        logger.Logger
}

type ReportControllerInterface interface {
	Run(ctx context.Context, reportType, month string) (*ReportResponse, error)
}

type ReportResponse struct {
	Type  string  `json:"type"`
	Month *string `json:"month,omitempty"`
	Rows  any     `json:"rows"`
}

func New(repos repositories.Repository, db database.DB) ReportControllerInterface {
	return &ReportController{
		reportRepo: repos.Report,
		db:         db,
		log:        logger.New("reportController"),
	}
}

func (c *ReportController) Run(
	ctx context.Context,
	reportType, month string,
) (*ReportResponse, error) {
	log := c.log.Function("Run")

	if !c.reportRepo.KnownType(reportType) {
		return nil, log.ErrorWithType(ErrValidation, "unknown report type", "type", reportType)
	}

	var monthFilter *string
	if monthPattern.MatchString(month) {
		monthFilter = &month
	}

	// Accepted quotes is the one report that cannot run over all time
	if reportType == repositories.ReportAcceptedQuotes && monthFilter == nil {
		return nil, log.ErrorWithType(ErrValidation, "month (YYYY-MM) is required", "type", reportType)
	}

	rows, err := c.reportRepo.Run(ctx, reportType, monthFilter)
	if err != nil {
		return nil, log.Err("failed to run report", err, "type", reportType)
	}

	return &ReportResponse{
		Type:  reportType,
		Month: monthFilter,
		Rows:  rows,
	}, nil
}
