package authController

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"sparklean/config"
	"sparklean/internal/database"
	"sparklean/internal/models"
	"sparklean/internal/repositories"
	"sparklean/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type fakeClientRepo struct {
	clients           map[int]*models.Client
	nextID            int
	takenUsernames    map[string]bool
	allUsernamesTaken bool
	usernameChecks    int
	signInErr         error
	signIns           []int
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{
		clients:        map[int]*models.Client{},
		nextID:         1,
		takenUsernames: map[string]bool{},
	}
}

func (f *fakeClientRepo) Create(_ context.Context, client *models.Client) error {
	for _, existing := range f.clients {
		if existing.Email == client.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	client.ID = f.nextID
	f.nextID++
	copied := *client
	f.clients[client.ID] = &copied
	return nil
}

func (f *fakeClientRepo) GetByID(_ context.Context, id int) (*models.Client, error) {
	client, ok := f.clients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *client
	return &copied, nil
}

func (f *fakeClientRepo) GetByLogin(_ context.Context, login string) (*models.Client, error) {
	for _, client := range f.clients {
		if client.Username == login || client.Email == login {
			copied := *client
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeClientRepo) RecordSignIn(_ context.Context, id int) error {
	if f.signInErr != nil {
		return f.signInErr
	}
	f.signIns = append(f.signIns, id)
	return nil
}

func (f *fakeClientRepo) SetCard(_ context.Context, id int, brand *string, last4 string) error {
	client, ok := f.clients[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	client.CardBrand = brand
	client.CardLast4 = &last4
	return nil
}

func (f *fakeClientRepo) SetPaymentProfile(
	_ context.Context,
	id int,
	customerID string,
	brand *string,
	last4 string,
) error {
	client, ok := f.clients[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	client.StripeCustomerID = &customerID
	client.CardBrand = brand
	client.CardLast4 = &last4
	return nil
}

func (f *fakeClientRepo) UsernameExists(_ context.Context, username string) (bool, error) {
	f.usernameChecks++
	if f.allUsernamesTaken {
		return true, nil
	}
	return f.takenUsernames[username], nil
}

func (f *fakeClientRepo) ListStats(_ context.Context, _ string) ([]models.ClientStats, error) {
	return nil, nil
}

type fakePaymentService struct {
	enabled     bool
	customerErr error
	attachErr   error
	customers   []string
}

func (f *fakePaymentService) Enabled() bool { return f.enabled }

func (f *fakePaymentService) CreateCustomer(_ context.Context, name, _ string) (string, error) {
	if f.customerErr != nil {
		return "", f.customerErr
	}
	id := "cus_test_" + name
	f.customers = append(f.customers, id)
	return id, nil
}

func (f *fakePaymentService) AttachPaymentMethod(_ context.Context, _, _ string) error {
	return f.attachErr
}

func newTestController(
	t *testing.T,
	clientRepo *fakeClientRepo,
	payment *fakePaymentService,
) (AuthControllerInterface, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	db := database.DB{SQL: gormDB}

	repos := repositories.Repository{Client: clientRepo}
	svcs := services.Service{
		Transaction: services.NewTransactionService(db),
		Payment:     payment,
		Session: services.NewSessionService(db, config.Config{
			AdminUsername:      "boss",
			AdminPassword:      "hunter22hunter22",
			AdminDisplayName:   "The Boss",
			AdminSessionSecret: "secret",
		}),
	}

	return New(repos, svcs, db), mock
}

func validRegistration() RegisterRequest {
	return RegisterRequest{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Password: "correct-horse-battery",
	}
}

func TestRegisterBasic_InvalidPayload(t *testing.T) {
	controller, _ := newTestController(t, newFakeClientRepo(), &fakePaymentService{})

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing email", RegisterRequest{Name: "Jane", Password: "longenoughpw"}},
		{"bad email", RegisterRequest{Name: "Jane", Email: "nope", Password: "longenoughpw"}},
		{"missing password", RegisterRequest{Name: "Jane", Email: "jane@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := controller.RegisterBasic(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegisterBasic_GeneratesUsernameFromInitials(t *testing.T) {
	clientRepo := newFakeClientRepo()
	controller, _ := newTestController(t, clientRepo, &fakePaymentService{})

	result, err := controller.RegisterBasic(context.Background(), validRegistration())

	require.NoError(t, err)
	assert.Positive(t, result.ID)
	assert.Regexp(t, regexp.MustCompile(`^jd_`), result.Username)

	stored := clientRepo.clients[result.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "correct-horse-battery", stored.PasswordHash, "password must be hashed")
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(stored.PasswordHash),
		[]byte("correct-horse-battery"),
	))
}

func TestRegisterBasic_NameIsOptional(t *testing.T) {
	clientRepo := newFakeClientRepo()
	controller, _ := newTestController(t, clientRepo, &fakePaymentService{})

	result, err := controller.RegisterBasic(context.Background(), RegisterRequest{
		Email:    "anon@example.com",
		Password: "correct-horse-battery",
	})

	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[a-z]+\d+$`), result.Username,
		"no initials prefix without a name")
}

func TestRegisterBasic_AcceptsShortPassword(t *testing.T) {
	clientRepo := newFakeClientRepo()
	controller, _ := newTestController(t, clientRepo, &fakePaymentService{})

	result, err := controller.RegisterBasic(context.Background(), RegisterRequest{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Password: "pw123",
	})

	require.NoError(t, err)
	stored := clientRepo.clients[result.ID]
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(stored.PasswordHash),
		[]byte("pw123"),
	))
}

func TestRegisterBasic_DuplicateEmail(t *testing.T) {
	clientRepo := newFakeClientRepo()
	controller, _ := newTestController(t, clientRepo, &fakePaymentService{})

	_, err := controller.RegisterBasic(context.Background(), validRegistration())
	require.NoError(t, err)

	_, err = controller.RegisterBasic(context.Background(), validRegistration())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegisterBasic_FallbackUsernameAfterCollisions(t *testing.T) {
	clientRepo := newFakeClientRepo()
	clientRepo.allUsernamesTaken = true
	controller, _ := newTestController(t, clientRepo, &fakePaymentService{})

	result, err := controller.RegisterBasic(context.Background(), validRegistration())

	require.NoError(t, err)
	assert.Equal(t, 6, clientRepo.usernameChecks, "retry budget should be spent before falling back")
	assert.Regexp(t, regexp.MustCompile(`^jd_[a-z]+\d+$`), result.Username)
}

func TestLogin_AccountNotFound(t *testing.T) {
	controller, _ := newTestController(t, newFakeClientRepo(), &fakePaymentService{})

	_, err := controller.Login(context.Background(), LoginRequest{
		Login:    "ghost",
		Password: "whatever",
	})

	assert.ErrorIs(t, err, ErrAuth)
	assert.Contains(t, err.Error(), "account not found")
}

func TestLogin_WrongPassword(t *testing.T) {
	clientRepo := newFakeClientRepo()
	controller, _ := newTestController(t, clientRepo, &fakePaymentService{})

	_, err := controller.RegisterBasic(context.Background(), validRegistration())
	require.NoError(t, err)

	_, err = controller.Login(context.Background(), LoginRequest{
		Login:    "jane@example.com",
		Password: "wrong-password",
	})

	assert.ErrorIs(t, err, ErrAuth)
	assert.Contains(t, err.Error(), "incorrect password")
}

func TestLogin_Success(t *testing.T) {
	clientRepo := newFakeClientRepo()
	controller, _ := newTestController(t, clientRepo, &fakePaymentService{})

	registered, err := controller.RegisterBasic(context.Background(), validRegistration())
	require.NoError(t, err)

	result, err := controller.Login(context.Background(), LoginRequest{
		Login:    registered.Username,
		Password: "correct-horse-battery",
	})

	require.NoError(t, err)
	assert.Equal(t, registered.ID, result.Client.ID)
	assert.Contains(t, clientRepo.signIns, registered.ID)
}

func TestLogin_SignInTimestampFailureDoesNotBlock(t *testing.T) {
	clientRepo := newFakeClientRepo()
	clientRepo.signInErr = errors.New("update failed")
	controller, _ := newTestController(t, clientRepo, &fakePaymentService{})

	registered, err := controller.RegisterBasic(context.Background(), validRegistration())
	require.NoError(t, err)

	result, err := controller.Login(context.Background(), LoginRequest{
		Login:    registered.Username,
		Password: "correct-horse-battery",
	})

	require.NoError(t, err, "sign in timestamp failure must not fail the login")
	assert.Equal(t, registered.ID, result.Client.ID)
}

func TestRegisterWithPayment_ProcessorFailureRollsBack(t *testing.T) {
	clientRepo := newFakeClientRepo()
	payment := &fakePaymentService{enabled: true, customerErr: errors.New("stripe down")}
	controller, mock := newTestController(t, clientRepo, payment)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := controller.RegisterWithPayment(context.Background(), RegisterWithPaymentRequest{
		RegisterRequest: validRegistration(),
		PaymentMethodID: "pm_123",
		CardBrand:       "visa",
		CardLast4:       "4242",
	})

	assert.ErrorIs(t, err, ErrExternal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterWithPayment_DisabledProcessor(t *testing.T) {
	controller, _ := newTestController(t, newFakeClientRepo(), &fakePaymentService{enabled: false})

	_, err := controller.RegisterWithPayment(context.Background(), RegisterWithPaymentRequest{
		RegisterRequest: validRegistration(),
		PaymentMethodID: "pm_123",
		CardBrand:       "visa",
		CardLast4:       "4242",
	})

	assert.ErrorIs(t, err, ErrExternal)
}

func TestRegisterWithPayment_Success(t *testing.T) {
	clientRepo := newFakeClientRepo()
	payment := &fakePaymentService{enabled: true}
	controller, mock := newTestController(t, clientRepo, payment)

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := controller.RegisterWithPayment(context.Background(), RegisterWithPaymentRequest{
		RegisterRequest: validRegistration(),
		PaymentMethodID: "pm_123",
		CardBrand:       "visa",
		CardLast4:       "4242",
	})

	require.NoError(t, err)
	assert.Len(t, payment.customers, 1)

	stored := clientRepo.clients[result.ID]
	require.NotNil(t, stored)
	require.NotNil(t, stored.CardLast4)
	assert.Equal(t, "4242", *stored.CardLast4)
}
