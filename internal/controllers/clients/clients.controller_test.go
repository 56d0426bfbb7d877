package clientController

import (
	"context"
	"testing"

	"sparklean/internal/database"
	"sparklean/internal/models"
	"sparklean/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeClientRepo struct {
	repositories.ClientRepository

	cards       map[int]string
	brands      map[int]*string
	statsSearch string
	stats       []models.ClientStats
	statsErr    error
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{
		cards:  map[int]string{},
		brands: map[int]*string{},
	}
}

func (f *fakeClientRepo) SetCard(_ context.Context, id int, brand *string, last4 string) error {
	if _, ok := f.cards[id]; !ok && id != 1 {
		return gorm.ErrRecordNotFound
	}
	f.cards[id] = last4
	f.brands[id] = brand
	return nil
}

func (f *fakeClientRepo) ListStats(_ context.Context, search string) ([]models.ClientStats, error) {
	f.statsSearch = search
	return f.stats, f.statsErr
}

func newTestController(repo *fakeClientRepo) ClientControllerInterface {
	return New(repositories.Repository{Client: repo}, database.DB{})
}

func TestSaveCard_StripsFormattingAndKeepsLastFour(t *testing.T) {
	repo := newFakeClientRepo()
	controller := newTestController(repo)

	brand := "visa"
	result, err := controller.SaveCard(context.Background(), 1, SaveCardRequest{
		CardNumber: "4242-4242 4242 4242",
		Brand:      &brand,
	})

	require.NoError(t, err)
	assert.Equal(t, "4242", repo.cards[1], "storage keeps the last four digits")
	assert.Equal(t, "242", result.CardLast3, "response exposes only three digits")
	require.NotNil(t, result.Brand)
	assert.Equal(t, "visa", *result.Brand)
}

func TestSaveCard_RejectsTooFewDigits(t *testing.T) {
	controller := newTestController(newFakeClientRepo())

	tests := []struct {
		name   string
		number string
	}{
		{"letters only", "abcdef"},
		{"three digits", "1-2-3"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := controller.SaveCard(context.Background(), 1, SaveCardRequest{
				CardNumber: tt.number,
			})
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSaveCard_UnknownClient(t *testing.T) {
	controller := newTestController(newFakeClientRepo())

	_, err := controller.SaveCard(context.Background(), 99, SaveCardRequest{
		CardNumber: "4242424242424242",
	})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListStats_TrimsSearchTerm(t *testing.T) {
	repo := newFakeClientRepo()
	repo.stats = []models.ClientStats{{ClientID: 1, Username: "jd_brightfox1"}}
	controller := newTestController(repo)

	stats, err := controller.ListStats(context.Background(), "  jane  ")

	require.NoError(t, err)
	assert.Equal(t, "jane", repo.statsSearch)
	assert.Len(t, stats, 1)
}
