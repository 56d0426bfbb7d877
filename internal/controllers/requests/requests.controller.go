package requestController

import (
	"context"
	"errors"
	"mime/multipart"
	"time"

	"sparklean/internal/database"
	"sparklean/internal/logger"
	"sparklean/internal/models"
	"sparklean/internal/repositories"
	"sparklean/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrState      = errors.New("state error")
	ErrNotFound   = errors.New("not found")
)

// RequestController handles the service request lifecycle: creation with
// photos, the quote negotiation state machine, and the message trail.
type RequestController struct {
	requestRepo        repositories.RequestRepository
	messageRepo        repositories.RequestMessageRepository
	orderRepo          repositories.OrderRepository
	transactionService *services.TransactionService
	storageService     *services.StorageService
	db                 database.DB
	validate           *validator.Validate
	log                logger.Logger
}

type RequestControllerInterface interface {
	Create(ctx context.Context, req CreateRequestRequest, photos []*multipart.FileHeader) (*CreateRequestResponse, error)
	List(ctx context.Context, clientID *int) ([]models.ServiceRequest, error)
	AdminAction(ctx context.Context, requestID int, req AdminActionRequest) (*ActionResponse, error)
	ClientAction(ctx context.Context, requestID int, req ClientActionRequest) (*ActionResponse, error)
	Messages(ctx context.Context, requestID int) ([]models.RequestMessage, error)
}

type CreateRequestRequest struct {
	ClientID       int              `json:"clientId"       validate:"required,gt=0"`
	ServiceAddress string           `json:"serviceAddress" validate:"required"`
	CleaningType   string           `json:"cleaningType"`
	Rooms          int              `json:"rooms"          validate:"omitempty,gt=0"`
	PreferredAt    *time.Time       `json:"preferredAt,omitempty"`
	Budget         *decimal.Decimal `json:"budget,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
}

// CreateRequestResponse reports per-photo outcomes: a failed photo never
// fails the request itself.
type CreateRequestResponse struct {
	Request      *models.ServiceRequest `json:"request"`
	SavedPhotos  []string               `json:"savedPhotos"`
	FailedPhotos []string               `json:"failedPhotos"`
}

type AdminActionRequest struct {
	Action          string           `json:"action" validate:"required"`
	Note            *string          `json:"note,omitempty"`
	QuotePrice      *decimal.Decimal `json:"quotePrice,omitempty"`
	QuoteTimeWindow *string          `json:"quoteTimeWindow,omitempty"`
}

type ClientActionRequest struct {
	ClientID      int              `json:"clientId" validate:"required,gt=0"`
	Action        string           `json:"action"   validate:"required"`
	Note          *string          `json:"note,omitempty"`
	CounterBudget *decimal.Decimal `json:"counterBudget,omitempty"`
}

// ActionResponse carries the transition result. OrderError is set when an
// admin accept landed but the follow-on order creation failed.
type ActionResponse struct {
	Request      *models.ServiceRequest `json:"request"`
	Order        *models.Order          `json:"order,omitempty"`
	OrderCreated bool                   `json:"orderCreated,omitempty"`
	OrderError   string                 `json:"orderError,omitempty"`
}

func New(
	repos repositories.Repository,
	services services.Service,
	db database.DB,
) RequestControllerInterface {
	return &RequestController{
		requestRepo:        repos.Request,
		messageRepo:        repos.RequestMessage,
		orderRepo:          repos.Order,
		transactionService: services.Transaction,
		storageService:     services.Storage,
		db:                 db,
		validate:           validator.New(),
		log:                logger.New("requestController"),
	}
}

func (c *RequestController) Create(
	ctx context.Context,
	req CreateRequestRequest,
	photos []*multipart.FileHeader,
) (*CreateRequestResponse, error) {
	log := c.log.Function("Create")

	if err := c.validate.Struct(req); err != nil {
		return nil, log.ErrorWithType(ErrValidation, "invalid request payload", "error", err)
	}
	if len(photos) > models.MaxRequestPhotos {
		return nil, log.ErrorWithType(
			ErrValidation,
			"too many photos",
			"count", len(photos),
			"max", models.MaxRequestPhotos,
		)
	}

	cleaningType := req.CleaningType
	if cleaningType == "" {
		cleaningType = "basic"
	}
	rooms := req.Rooms
	if rooms <= 0 {
		rooms = 1
	}

	request := &models.ServiceRequest{
		ClientID:       req.ClientID,
		ServiceAddress: req.ServiceAddress,
		CleaningType:   cleaningType,
		Rooms:          rooms,
		PreferredAt:    req.PreferredAt,
		Budget:         req.Budget,
		Notes:          req.Notes,
		Status:         models.RequestPending,
	}

	if err := c.requestRepo.Create(ctx, request); err != nil {
		return nil, log.Err("failed to create service request", err)
	}

	saved := []string{}
	failed := []string{}
	for i, photo := range photos {
		storedName, err := c.storageService.SavePhoto(photo)
		if err != nil {
			log.Warn("photo save failed", "requestID", request.ID, "filename", photo.Filename)
			failed = append(failed, photo.Filename)
			continue
		}

		record := &models.RequestPhoto{
			RequestID: request.ID,
			Position:  i,
			FilePath:  storedName,
		}
		if err := c.requestRepo.AddPhoto(ctx, record); err != nil {
			log.Warn("photo record failed", "requestID", request.ID, "filename", photo.Filename)
			c.storageService.Remove(storedName)
			failed = append(failed, photo.Filename)
			continue
		}

		request.Photos = append(request.Photos, *record)
		saved = append(saved, storedName)
	}

	log.Info("service request created",
		"requestID", request.ID,
		"clientID", request.ClientID,
		"photosSaved", len(saved),
		"photosFailed", len(failed),
	)

	return &CreateRequestResponse{
		Request:      request,
		SavedPhotos:  saved,
		FailedPhotos: failed,
	}, nil
}

// List returns open requests, scoped to one client when clientID is set.
// Requests that already produced an order are excluded.
func (c *RequestController) List(
	ctx context.Context,
	clientID *int,
) ([]models.ServiceRequest, error) {
	log := c.log.Function("List")

	requests, err := c.requestRepo.ListOpen(ctx, clientID)
	if err != nil {
		return nil, log.Err("failed to list service requests", err)
	}
	return requests, nil
}

func (c *RequestController) AdminAction(
	ctx context.Context,
	requestID int,
	req AdminActionRequest,
) (*ActionResponse, error) {
	log := c.log.Function("AdminAction")

	if err := c.validate.Struct(req); err != nil {
		return nil, log.ErrorWithType(ErrValidation, "invalid action payload", "error", err)
	}

	action := models.RequestAction(req.Action)
	if !models.KnownAction(models.ActorAdmin, action) {
		return nil, log.ErrorWithType(ErrValidation, "unknown admin action", "action", req.Action)
	}
	if action == models.ActionQuote && req.QuotePrice == nil {
		return nil, log.ErrorWithType(ErrValidation, "quote requires a quotePrice")
	}

	request, err := c.loadRequest(ctx, requestID, nil)
	if err != nil {
		return nil, err
	}

	next, ok := models.NextStatus(request.Status, models.ActorAdmin, action)
	if !ok {
		return nil, log.ErrorWithType(
			ErrState,
			"action not permitted in current status",
			"status", request.Status,
			"action", action,
		)
	}

	updates := map[string]any{"status": next}
	if action == models.ActionQuote {
		updates["quote_price"] = req.QuotePrice
		updates["quote_time_window"] = req.QuoteTimeWindow
	}
	if req.Note != nil {
		updates["admin_note"] = req.Note
	}

	if err := c.applyTransition(ctx, request, models.ActorAdmin, action, next, updates, req.Note); err != nil {
		return nil, err
	}

	response := &ActionResponse{Request: request}

	// An accepted request becomes an order. A failure here is surfaced
	// in the response but the accept itself stands.
	if next == models.RequestAccepted {
		order, created, err := c.orderRepo.EnsureForRequest(
			ctx,
			request.ID,
			request.ClientID,
			request.PreferredAt,
		)
		if err != nil {
			log.Er("order creation after accept failed", err, "requestID", request.ID)
			response.OrderError = "order could not be created, retry with create-order"
		} else {
			response.Order = order
			response.OrderCreated = created
		}
	}

	return response, nil
}

func (c *RequestController) ClientAction(
	ctx context.Context,
	requestID int,
	req ClientActionRequest,
) (*ActionResponse, error) {
	log := c.log.Function("ClientAction")

	if err := c.validate.Struct(req); err != nil {
		return nil, log.ErrorWithType(ErrValidation, "invalid action payload", "error", err)
	}

	action := models.RequestAction(req.Action)
	if !models.KnownAction(models.ActorClient, action) {
		return nil, log.ErrorWithType(ErrValidation, "unknown client action", "action", req.Action)
	}

	request, err := c.loadRequest(ctx, requestID, &req.ClientID)
	if err != nil {
		return nil, err
	}

	next, ok := models.NextStatus(request.Status, models.ActorClient, action)
	if !ok {
		return nil, log.ErrorWithType(
			ErrState,
			"action not permitted in current status",
			"status", request.Status,
			"action", action,
		)
	}

	updates := map[string]any{"status": next}
	if action == models.ActionCounter && req.CounterBudget != nil {
		updates["budget"] = req.CounterBudget
	}
	if req.Note != nil {
		updates["client_note"] = req.Note
	}

	if err := c.applyTransition(ctx, request, models.ActorClient, action, next, updates, req.Note); err != nil {
		return nil, err
	}

	return &ActionResponse{Request: request}, nil
}

func (c *RequestController) Messages(
	ctx context.Context,
	requestID int,
) ([]models.RequestMessage, error) {
	log := c.log.Function("Messages")

	if _, err := c.loadRequest(ctx, requestID, nil); err != nil {
		return nil, err
	}

	messages, err := c.messageRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, log.Err("failed to list request messages", err)
	}
	return messages, nil
}

func (c *RequestController) loadRequest(
	ctx context.Context,
	requestID int,
	clientID *int,
) (*models.ServiceRequest, error) {
	log := c.log.Function("loadRequest")

	var request *models.ServiceRequest
	var err error
	if clientID != nil {
		request, err = c.requestRepo.GetForClient(ctx, requestID, *clientID)
	} else {
		request, err = c.requestRepo.GetByID(ctx, requestID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, log.ErrorWithType(ErrNotFound, "service request not found", "requestID", requestID)
		}
		return nil, log.Err("failed to load service request", err)
	}
	return request, nil
}

// applyTransition updates the request and appends the conversation entry
// in one transaction, then refreshes the in-memory copy.
func (c *RequestController) applyTransition(
	ctx context.Context,
	request *models.ServiceRequest,
	actor models.Actor,
	action models.RequestAction,
	next models.RequestStatus,
	updates map[string]any,
	note *string,
) error {
	log := c.log.Function("applyTransition")

	err := c.transactionService.Execute(ctx, func(txCtx context.Context, _ *gorm.DB) error {
		if err := c.requestRepo.UpdateFields(txCtx, request.ID, updates); err != nil {
			return log.Err("failed to update service request", err, "requestID", request.ID)
		}

		message := &models.RequestMessage{
			RequestID:   request.ID,
			Sender:      actor,
			MessageType: action,
			Body:        note,
		}
		if err := c.messageRepo.Append(txCtx, message); err != nil {
			return log.Err("failed to append request message", err, "requestID", request.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	refreshed, err := c.requestRepo.GetByID(ctx, request.ID)
	if err != nil {
		log.Warn("failed to reload request after transition", "requestID", request.ID, "error", err)
		request.Status = next
		return nil
	}
	*request = *refreshed

	log.Info("request transition applied",
		"requestID", request.ID,
		"actor", actor,
		"action", action,
		"status", next,
	)
	return nil
}
