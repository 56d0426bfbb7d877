package authController

import (
	"context"
	"errors"
	"strings"

	"sparklean/internal/database"
	"sparklean/internal/logger"
	"sparklean/internal/models"
	"sparklean/internal/repositories"
	"sparklean/internal/services"
	"sparklean/internal/utils"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrAuth       = errors.New("authentication error")
	ErrExternal   = errors.New("external service error")
)

const (
	bcryptCost         = 10
	usernameMaxRetries = 6
)

// AuthController handles client registration and sign in plus the admin
// session lifecycle
type AuthController struct {
	clientRepo         repositories.ClientRepository
	transactionService *services.TransactionService
	paymentService     services.PaymentService
	sessionService     *services.SessionService
	db                 database.DB
	validate           *validator.Validate
	log                logger.Logger
}

type AuthControllerInterface interface {
	RegisterBasic(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	RegisterWithPayment(ctx context.Context, req RegisterWithPaymentRequest) (*RegisterResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	AdminLogin(ctx context.Context, req AdminLoginRequest) (*AdminLoginResponse, error)
	AdminLogout(ctx context.Context, token string) error
}

// Name is optional: the username generator falls back to a bare
// adjective+animal handle when no initials are available.
type RegisterRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"    validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Phone    *string `json:"phone,omitempty"`
	Address  *string `json:"address,omitempty"`
}

type RegisterWithPaymentRequest struct {
	RegisterRequest
	PaymentMethodID string `json:"paymentMethodId" validate:"required"`
	CardBrand       string `json:"cardBrand"       validate:"required"`
	CardLast4       string `json:"cardLast4"       validate:"required,len=4,numeric"`
}

type RegisterResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

type LoginRequest struct {
	Login    string `json:"login"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Client models.ClientProfile `json:"client"`
}

type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AdminLoginResponse struct {
	Token       string `json:"token"`
	DisplayName string `json:"displayName"`
}

func New(
	repos repositories.Repository,
	services services.Service,
	db database.DB,
) AuthControllerInterface {
	return &AuthController{
		clientRepo:         repos.Client,
		transactionService: services.Transaction,
		paymentService:     services.Payment,
		sessionService:     services.Session,
		db:                 db,
		validate:           validator.New(),
		log:                logger.New("authController"),
	}
}

// pickUsername generates a username from the client's name, retrying on
// collision before falling back to a timestamp suffix
func (c *AuthController) pickUsername(ctx context.Context, name string) (string, error) {
	for i := 0; i < usernameMaxRetries; i++ {
		candidate := utils.GenerateUsername(name)
		exists, err := c.clientRepo.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return utils.FallbackUsername(name), nil
}

func (c *AuthController) buildClient(
	ctx context.Context,
	req RegisterRequest,
) (*models.Client, error) {
	log := c.log.Function("buildClient")

	username, err := c.pickUsername(ctx, req.Name)
	if err != nil {
		return nil, log.Err("failed to generate username", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, log.Err("failed to hash password", err)
	}

	return &models.Client{
		Username:     username,
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        req.Phone,
		Address:      req.Address,
		PasswordHash: string(hash),
	}, nil
}

func (c *AuthController) RegisterBasic(
	ctx context.Context,
	req RegisterRequest,
) (*RegisterResponse, error) {
	log := c.log.Function("RegisterBasic")

	if err := c.validate.Struct(req); err != nil {
		return nil, log.ErrorWithType(ErrValidation, "invalid registration payload", "error", err)
	}

	client, err := c.buildClient(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.clientRepo.Create(ctx, client); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, log.ErrorWithType(ErrValidation, "email is already registered")
		}
		return nil, log.Err("failed to create client", err)
	}

	log.Info("client registered", "clientID", client.ID, "username", client.Username)
	return &RegisterResponse{ID: client.ID, Username: client.Username}, nil
}

// RegisterWithPayment creates the client and its payment processor
// customer in one transaction. A processor failure rolls back the local
// insert; the processor side is not compensated.
func (c *AuthController) RegisterWithPayment(
	ctx context.Context,
	req RegisterWithPaymentRequest,
) (*RegisterResponse, error) {
	log := c.log.Function("RegisterWithPayment")

	if err := c.validate.Struct(req); err != nil {
		return nil, log.ErrorWithType(ErrValidation, "invalid registration payload", "error", err)
	}
	if !c.paymentService.Enabled() {
		return nil, log.ErrorWithType(ErrExternal, "payment processing is not configured")
	}

	client, err := c.buildClient(ctx, req.RegisterRequest)
	if err != nil {
		return nil, err
	}

	err = c.transactionService.Execute(ctx, func(txCtx context.Context, _ *gorm.DB) error {
		if err := c.clientRepo.Create(txCtx, client); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return log.ErrorWithType(ErrValidation, "email is already registered")
			}
			return log.Err("failed to create client", err)
		}

		customerID, err := c.paymentService.CreateCustomer(txCtx, client.Name, client.Email)
		if err != nil {
			return log.ErrorWithType(ErrExternal, "failed to create payment customer", "error", err)
		}

		if err := c.paymentService.AttachPaymentMethod(txCtx, customerID, req.PaymentMethodID); err != nil {
			return log.ErrorWithType(ErrExternal, "failed to attach payment method", "error", err)
		}

		client.StripeCustomerID = &customerID
		brand := req.CardBrand
		if err := c.clientRepo.SetPaymentProfile(txCtx, client.ID, customerID, &brand, req.CardLast4); err != nil {
			return log.Err("failed to store payment profile", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("client registered with payment", "clientID", client.ID, "username", client.Username)
	return &RegisterResponse{ID: client.ID, Username: client.Username}, nil
}

func (c *AuthController) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	log := c.log.Function("Login")

	if err := c.validate.Struct(req); err != nil {
		return nil, log.ErrorWithType(ErrValidation, "login and password are required")
	}

	client, err := c.clientRepo.GetByLogin(ctx, strings.TrimSpace(req.Login))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, log.ErrorWithType(ErrAuth, "account not found")
		}
		return nil, log.Err("failed to look up account", err)
	}

	if err := bcrypt.CompareHashAndPassword(
		[]byte(client.PasswordHash),
		[]byte(req.Password),
	); err != nil {
		return nil, log.ErrorWithType(ErrAuth, "incorrect password")
	}

	// A failed timestamp update must not block the sign in
	if err := c.clientRepo.RecordSignIn(ctx, client.ID); err != nil {
		log.Warn("failed to record sign in time", "clientID", client.ID, "error", err)
	}

	return &LoginResponse{Client: client.ToProfile()}, nil
}

func (c *AuthController) AdminLogin(
	ctx context.Context,
	req AdminLoginRequest,
) (*AdminLoginResponse, error) {
	log := c.log.Function("AdminLogin")

	if err := c.validate.Struct(req); err != nil {
		return nil, log.ErrorWithType(ErrValidation, "username and password are required")
	}

	displayName, ok := c.sessionService.CheckCredentials(req.Username, req.Password)
	if !ok {
		return nil, log.ErrorWithType(ErrAuth, "invalid admin credentials")
	}

	token, err := c.sessionService.Issue(ctx, req.Username)
	if err != nil {
		return nil, log.Err("failed to issue admin session", err)
	}

	log.Info("admin signed in", "username", req.Username)
	return &AdminLoginResponse{Token: token, DisplayName: displayName}, nil
}

func (c *AuthController) AdminLogout(ctx context.Context, token string) error {
	return c.sessionService.Revoke(ctx, token)
}
