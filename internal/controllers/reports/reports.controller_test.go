package reportController

import (
	"context"
	"testing"

	"sparklean/internal/database"
	"sparklean/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReportRepo struct {
	lastType  string
	lastMonth *string
	rows      any
	err       error
}

func (f *fakeReportRepo) Run(_ context.Context, reportType string, month *string) (any, error) {
	f.lastType = reportType
	f.lastMonth = month
	return f.rows, f.err
}

func (f *fakeReportRepo) KnownType(reportType string) bool {
	switch reportType {
	case repositories.ReportFrequentClients,
		repositories.ReportUncommittedClients,
		repositories.ReportAcceptedQuotes,
		repositories.ReportProspectiveClients,
		repositories.ReportLargestJob,
		repositories.ReportOverdueBills,
		repositories.ReportBadClients,
		repositories.ReportGoodClients:
		return true
	}
	return false
}

func newTestController(repo *fakeReportRepo) ReportControllerInterface {
	return New(repositories.Repository{Report: repo}, database.DB{})
}

func TestRun_UnknownType(t *testing.T) {
	controller := newTestController(&fakeReportRepo{})

	_, err := controller.Run(context.Background(), "nonsense", "")

	assert.ErrorIs(t, err, ErrValidation)
}

func TestRun_ValidMonthIsForwarded(t *testing.T) {
	repo := &fakeReportRepo{rows: []repositories.FrequentClientRow{}}
	controller := newTestController(repo)

	result, err := controller.Run(context.Background(), repositories.ReportFrequentClients, "2026-03")

	require.NoError(t, err)
	require.NotNil(t, repo.lastMonth)
	assert.Equal(t, "2026-03", *repo.lastMonth)
	require.NotNil(t, result.Month)
	assert.Equal(t, "2026-03", *result.Month)
}

func TestRun_MalformedMonthMeansAllTime(t *testing.T) {
	tests := []struct {
		name  string
		month string
	}{
		{"empty", ""},
		{"month out of range", "2026-13"},
		{"missing zero pad", "2026-3"},
		{"full date", "2026-03-01"},
		{"garbage", "march"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeReportRepo{}
			controller := newTestController(repo)

			result, err := controller.Run(context.Background(), repositories.ReportOverdueBills, tt.month)

			require.NoError(t, err)
			assert.Nil(t, repo.lastMonth)
			assert.Nil(t, result.Month)
		})
	}
}

func TestRun_AcceptedQuotesRequiresMonth(t *testing.T) {
	controller := newTestController(&fakeReportRepo{})

	_, err := controller.Run(context.Background(), repositories.ReportAcceptedQuotes, "")

	assert.ErrorIs(t, err, ErrValidation)
}

func TestRun_AcceptedQuotesWithMonth(t *testing.T) {
	repo := &fakeReportRepo{rows: []repositories.AcceptedQuoteRow{{ClientID: 3}}}
	controller := newTestController(repo)

	result, err := controller.Run(context.Background(), repositories.ReportAcceptedQuotes, "2026-07")

	require.NoError(t, err)
	assert.Equal(t, repositories.ReportAcceptedQuotes, repo.lastType)
	rows, ok := result.Rows.([]repositories.AcceptedQuoteRow)
	require.True(t, ok)
	assert.Len(t, rows, 1)
}
