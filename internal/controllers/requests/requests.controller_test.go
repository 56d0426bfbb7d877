package requestController

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"sparklean/config"
	"sparklean/internal/database"
	"sparklean/internal/models"
	"sparklean/internal/repositories"
	"sparklean/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type fakeRequestRepo struct {
	requests map[int]*models.ServiceRequest
	nextID   int
	photos   []models.RequestPhoto
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[int]*models.ServiceRequest{}, nextID: 1}
}

func (f *fakeRequestRepo) Create(_ context.Context, request *models.ServiceRequest) error {
	request.ID = f.nextID
	f.nextID++
	copied := *request
	f.requests[request.ID] = &copied
	return nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, id int) (*models.ServiceRequest, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *request
	return &copied, nil
}

func (f *fakeRequestRepo) GetForClient(ctx context.Context, id, clientID int) (*models.ServiceRequest, error) {
	request, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.ClientID != clientID {
		return nil, gorm.ErrRecordNotFound
	}
	return request, nil
}

func (f *fakeRequestRepo) ListOpen(_ context.Context, clientID *int) ([]models.ServiceRequest, error) {
	result := []models.ServiceRequest{}
	for _, request := range f.requests {
		if clientID == nil || request.ClientID == *clientID {
			result = append(result, *request)
		}
	}
	return result, nil
}

func (f *fakeRequestRepo) UpdateFields(_ context.Context, id int, updates map[string]any) error {
	request, ok := f.requests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"].(models.RequestStatus); ok {
		request.Status = status
	}
	if price, ok := updates["quote_price"].(*decimal.Decimal); ok {
		request.QuotePrice = price
	}
	return nil
}

func (f *fakeRequestRepo) SetStatus(ctx context.Context, id int, status models.RequestStatus) error {
	return f.UpdateFields(ctx, id, map[string]any{"status": status})
}

func (f *fakeRequestRepo) AddPhoto(_ context.Context, photo *models.RequestPhoto) error {
	f.photos = append(f.photos, *photo)
	return nil
}

func (f *fakeRequestRepo) CountPhotos(_ context.Context, requestID int) (int64, error) {
	var count int64
	for _, photo := range f.photos {
		if photo.RequestID == requestID {
			count++
		}
	}
	return count, nil
}

type fakeMessageRepo struct {
	messages []models.RequestMessage
}

func (f *fakeMessageRepo) Append(_ context.Context, message *models.RequestMessage) error {
	message.ID = len(f.messages) + 1
	f.messages = append(f.messages, *message)
	return nil
}

func (f *fakeMessageRepo) ListByRequest(_ context.Context, requestID int) ([]models.RequestMessage, error) {
	result := []models.RequestMessage{}
	for _, message := range f.messages {
		if message.RequestID == requestID {
			result = append(result, message)
		}
	}
	return result, nil
}

type fakeOrderRepo struct {
	repositories.OrderRepository

	orders    map[int]*models.Order
	ensureErr error
	nextID    int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[int]*models.Order{}, nextID: 1}
}

func (f *fakeOrderRepo) EnsureForRequest(
	_ context.Context,
	requestID, clientID int,
	scheduledAt *time.Time,
) (*models.Order, bool, error) {
	if f.ensureErr != nil {
		return nil, false, f.ensureErr
	}
	for _, order := range f.orders {
		if order.RequestID == requestID {
			copied := *order
			return &copied, false, nil
		}
	}
	order := &models.Order{
		RequestID:     requestID,
		ClientID:      clientID,
		ScheduledAt:   scheduledAt,
		Status:        models.OrderScheduled,
		PaymentStatus: models.PaymentNotDue,
	}
	order.ID = f.nextID
	f.nextID++
	f.orders[order.ID] = order
	copied := *order
	return &copied, true, nil
}

func newTestController(
	t *testing.T,
	requestRepo *fakeRequestRepo,
	messageRepo *fakeMessageRepo,
	orderRepo *fakeOrderRepo,
) (RequestControllerInterface, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	db := database.DB{SQL: gormDB}

	storage, err := services.NewStorageService(config.Config{UploadDir: t.TempDir()})
	require.NoError(t, err)

	repos := repositories.Repository{
		Request:        requestRepo,
		RequestMessage: messageRepo,
		Order:          orderRepo,
	}
	svcs := services.Service{
		Transaction: services.NewTransactionService(db),
		Storage:     storage,
	}

	return New(repos, svcs, db), mock
}

func seedRequest(repo *fakeRequestRepo, status models.RequestStatus) *models.ServiceRequest {
	request := &models.ServiceRequest{
		ClientID:       7,
		ServiceAddress: "12 Main St",
		CleaningType:   "deep",
		Rooms:          3,
		Status:         status,
	}
	_ = repo.Create(context.Background(), request)
	repo.requests[request.ID].Status = status
	return request
}

func TestAdminAction_UnknownAction(t *testing.T) {
	requestRepo := newFakeRequestRepo()
	controller, _ := newTestController(t, requestRepo, &fakeMessageRepo{}, newFakeOrderRepo())
	seedRequest(requestRepo, models.RequestPending)

	_, err := controller.AdminAction(context.Background(), 1, AdminActionRequest{Action: "escalate"})

	assert.ErrorIs(t, err, ErrValidation)
}

func TestAdminAction_QuoteRequiresPrice(t *testing.T) {
	requestRepo := newFakeRequestRepo()
	controller, _ := newTestController(t, requestRepo, &fakeMessageRepo{}, newFakeOrderRepo())
	seedRequest(requestRepo, models.RequestPending)

	_, err := controller.AdminAction(context.Background(), 1, AdminActionRequest{Action: "quote"})

	assert.ErrorIs(t, err, ErrValidation)
}

func TestAdminAction_NotPermittedInStatus(t *testing.T) {
	requestRepo := newFakeRequestRepo()
	controller, _ := newTestController(t, requestRepo, &fakeMessageRepo{}, newFakeOrderRepo())
	seedRequest(requestRepo, models.RequestDeclined)

	price := decimal.NewFromInt(120)
	_, err := controller.AdminAction(context.Background(), 1, AdminActionRequest{
		Action:     "quote",
		QuotePrice: &price,
	})

	assert.ErrorIs(t, err, ErrState)
}

func TestAdminAction_RequestNotFound(t *testing.T) {
	controller, _ := newTestController(t, newFakeRequestRepo(), &fakeMessageRepo{}, newFakeOrderRepo())

	price := decimal.NewFromInt(120)
	_, err := controller.AdminAction(context.Background(), 99, AdminActionRequest{
		Action:     "quote",
		QuotePrice: &price,
	})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminAction_QuoteTransition(t *testing.T) {
	requestRepo := newFakeRequestRepo()
	messageRepo := &fakeMessageRepo{}
	controller, mock := newTestController(t, requestRepo, messageRepo, newFakeOrderRepo())
	seedRequest(requestRepo, models.RequestPending)

	mock.ExpectBegin()
	mock.ExpectCommit()

	price := decimal.NewFromInt(150)
	note := "includes windows"
	result, err := controller.AdminAction(context.Background(), 1, AdminActionRequest{
		Action:     "quote",
		QuotePrice: &price,
		Note:       &note,
	})

	require.NoError(t, err)
	assert.Equal(t, models.RequestQuoted, result.Request.Status)
	require.Len(t, messageRepo.messages, 1)
	assert.Equal(t, models.ActorAdmin, messageRepo.messages[0].Sender)
	assert.Equal(t, models.ActionQuote, messageRepo.messages[0].MessageType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminAction_AcceptCreatesOrder(t *testing.T) {
	requestRepo := newFakeRequestRepo()
	orderRepo := newFakeOrderRepo()
	controller, mock := newTestController(t, requestRepo, &fakeMessageRepo{}, orderRepo)
	seedRequest(requestRepo, models.RequestQuoted)

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := controller.AdminAction(context.Background(), 1, AdminActionRequest{Action: "accept"})

	require.NoError(t, err)
	assert.Equal(t, models.RequestAccepted, result.Request.Status)
	require.NotNil(t, result.Order)
	assert.True(t, result.OrderCreated)
	assert.Empty(t, result.OrderError)
}

func TestAdminAction_AcceptSurvivesOrderFailure(t *testing.T) {
	requestRepo := newFakeRequestRepo()
	orderRepo := newFakeOrderRepo()
	orderRepo.ensureErr = gorm.ErrInvalidDB
	controller, mock := newTestController(t, requestRepo, &fakeMessageRepo{}, orderRepo)
	seedRequest(requestRepo, models.RequestQuoted)

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := controller.AdminAction(context.Background(), 1, AdminActionRequest{Action: "accept"})

	require.NoError(t, err, "order failure must not fail the accept")
	assert.Equal(t, models.RequestAccepted, result.Request.Status)
	assert.Nil(t, result.Order)
	assert.NotEmpty(t, result.OrderError)
}

func TestClientAction_DeclineFromQuoted(t *testing.T) {
	requestRepo := newFakeRequestRepo()
	messageRepo := &fakeMessageRepo{}
	controller, mock := newTestController(t, requestRepo, messageRepo, newFakeOrderRepo())
	seedRequest(requestRepo, models.RequestQuoted)

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := controller.ClientAction(context.Background(), 1, ClientActionRequest{
		ClientID: 7,
		Action:   "decline",
	})

	require.NoError(t, err)
	assert.Equal(t, models.RequestDeclined, result.Request.Status)
	require.Len(t, messageRepo.messages, 1)
	assert.Equal(t, models.ActorClient, messageRepo.messages[0].Sender)
}

func TestClientAction_WrongClientIsNotFound(t *testing.T) {
	requestRepo := newFakeRequestRepo()
	controller, _ := newTestController(t, requestRepo, &fakeMessageRepo{}, newFakeOrderRepo())
	seedRequest(requestRepo, models.RequestQuoted)

	_, err := controller.ClientAction(context.Background(), 1, ClientActionRequest{
		ClientID: 999,
		Action:   "decline",
	})

	assert.ErrorIs(t, err, ErrNotFound)
}

// makeFileHeaders builds real multipart file headers by round-tripping a
// form through the stdlib parser
func makeFileHeaders(t *testing.T, count int) []*multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for i := 0; i < count; i++ {
		part, err := writer.CreateFormFile("photos", fmt.Sprintf("photo%d.jpg", i))
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	return req.MultipartForm.File["photos"]
}

func TestCreate_TooManyPhotos(t *testing.T) {
	controller, _ := newTestController(t, newFakeRequestRepo(), &fakeMessageRepo{}, newFakeOrderRepo())

	req := CreateRequestRequest{
		ClientID:       7,
		ServiceAddress: "12 Main St",
	}

	_, err := controller.Create(context.Background(), req, makeFileHeaders(t, models.MaxRequestPhotos+1))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreate_SavesPhotos(t *testing.T) {
	requestRepo := newFakeRequestRepo()
	controller, _ := newTestController(t, requestRepo, &fakeMessageRepo{}, newFakeOrderRepo())

	result, err := controller.Create(context.Background(), CreateRequestRequest{
		ClientID:       7,
		ServiceAddress: "12 Main St",
	}, makeFileHeaders(t, 2))

	require.NoError(t, err)
	assert.Len(t, result.SavedPhotos, 2)
	assert.Empty(t, result.FailedPhotos)
	assert.Len(t, requestRepo.photos, 2)
}

func TestCreate_DefaultsApplied(t *testing.T) {
	requestRepo := newFakeRequestRepo()
	controller, _ := newTestController(t, requestRepo, &fakeMessageRepo{}, newFakeOrderRepo())

	result, err := controller.Create(context.Background(), CreateRequestRequest{
		ClientID:       7,
		ServiceAddress: "12 Main St",
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "basic", result.Request.CleaningType)
	assert.Equal(t, 1, result.Request.Rooms)
	assert.Equal(t, models.RequestPending, result.Request.Status)
	assert.Empty(t, result.FailedPhotos)
}
