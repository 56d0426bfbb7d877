package orderController

import (
	"context"
	"errors"
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

// OrderController handles scheduled work and its billing lifecycle. An
// order's conversation rides on its originating service request.
type OrderController struct {
	orderRepo          repositories.OrderRepository
	requestRepo        repositories.RequestRepository
	messageRepo        repositories.RequestMessageRepository
	clientRepo         repositories.ClientRepository
	transactionService *services.TransactionService
	db                 database.DB
	validate           *validator.Validate
	log                logger.Logger
}

type OrderControllerInterface interface {
	CreateFromRequest(ctx context.Context, clientID, requestID int) (*CreateOrderResponse, error)
	List(ctx context.Context, clientID *int) ([]repositories.OrderSummary, error)
	Complete(ctx context.Context, orderID int, req CompleteOrderRequest) (*models.Order, error)
	Revise(ctx context.Context, orderID int, req ReviseOrderRequest) (*models.Order, error)
	ClientAction(ctx context.Context, orderID int, req OrderClientActionRequest) (*models.Order, error)
	Messages(ctx context.Context, orderID int) ([]models.RequestMessage, error)
	AddMessage(ctx context.Context, orderID int, req AddOrderMessageRequest) (*models.RequestMessage, error)
}

type CreateOrderResponse struct {
	Order   *models.Order `json:"order"`
	Created bool          `json:"created"`
}

type CompleteOrderRequest struct {
	FinalAmount decimal.Decimal `json:"finalAmount" validate:"required"`
	Note        *string         `json:"note,omitempty"`
}

type ReviseOrderRequest struct {
	NewAmount decimal.Decimal `json:"newAmount" validate:"required"`
	Note      *string         `json:"note,omitempty"`
}

type OrderClientActionRequest struct {
	ClientID int     `json:"clientId" validate:"required,gt=0"`
	Action   string  `json:"action"   validate:"required"`
	Note     *string `json:"note,omitempty"`
}

type AddOrderMessageRequest struct {
	Sender      string  `json:"sender"`
	MessageType string  `json:"messageType"`
	Body        *string `json:"body,omitempty"`
}

func New(
	repos repositories.Repository,
	services services.Service,
	db database.DB,
) OrderControllerInterface {
	return &OrderController{
		orderRepo:          repos.Order,
		requestRepo:        repos.Request,
		messageRepo:        repos.RequestMessage,
		clientRepo:         repos.Client,
		transactionService: services.Transaction,
		db:                 db,
		validate:           validator.New(),
		log:                logger.New("orderController"),
	}
}

// CreateFromRequest turns an accepted request into an order. The unique
// index on the request keeps this idempotent under concurrent calls.
func (c *OrderController) CreateFromRequest(
	ctx context.Context,
	clientID, requestID int,
) (*CreateOrderResponse, error) {
	log := c.log.Function("CreateFromRequest")

	request, err := c.requestRepo.GetForClient(ctx, requestID, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, log.ErrorWithType(ErrNotFound, "service request not found", "requestID", requestID)
		}
		return nil, log.Err("failed to load service request", err)
	}

	if request.Status != models.RequestAccepted {
		return nil, log.ErrorWithType(
			ErrState,
			"request must be accepted before creating an order",
			"status", request.Status,
		)
	}

	order, created, err := c.orderRepo.EnsureForRequest(ctx, request.ID, request.ClientID, request.PreferredAt)
	if err != nil {
		return nil, log.Err("failed to create order", err, "requestID", request.ID)
	}

	if created {
		log.Info("order created", "orderID", order.ID, "requestID", request.ID)
	}
	return &CreateOrderResponse{Order: order, Created: created}, nil
}

func (c *OrderController) List(
	ctx context.Context,
	clientID *int,
) ([]repositories.OrderSummary, error) {
	log := c.log.Function("List")

	orders, err := c.orderRepo.List(ctx, clientID)
	if err != nil {
		return nil, log.Err("failed to list orders", err)
	}
	return orders, nil
}

// Complete closes out the work and generates the bill: final amount,
// payment due in seven days, and the originating request marked
// completed. Admin only, enforced at the route.
func (c *OrderController) Complete(
	ctx context.Context,
	orderID int,
	req CompleteOrderRequest,
) (*models.Order, error) {
	log := c.log.Function("Complete")

	if err := c.validate.Struct(req); err != nil {
		return nil, log.ErrorWithType(ErrValidation, "invalid completion payload", "error", err)
	}
	if req.FinalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, log.ErrorWithType(ErrValidation, "finalAmount must be positive")
	}

	order, err := c.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	dueDate := time.Now().UTC().AddDate(0, 0, models.PaymentTermDays)

	err = c.transactionService.Execute(ctx, func(txCtx context.Context, _ *gorm.DB) error {
		if err := c.orderRepo.Complete(txCtx, order.ID, req.FinalAmount, req.Note, dueDate); err != nil {
			return log.Err("failed to complete order", err, "orderID", order.ID)
		}
		if err := c.requestRepo.SetStatus(txCtx, order.RequestID, models.RequestCompleted); err != nil {
			return log.Err("failed to mark request completed", err, "requestID", order.RequestID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("order completed", "orderID", order.ID, "amount", req.FinalAmount)
	return c.orderRepo.GetByID(ctx, order.ID)
}

// Revise replaces the billed amount and reopens the bill as due
func (c *OrderController) Revise(
	ctx context.Context,
	orderID int,
	req ReviseOrderRequest,
) (*models.Order, error) {
	log := c.log.Function("Revise")

	if err := c.validate.Struct(req); err != nil {
		return nil, log.ErrorWithType(ErrValidation, "invalid revision payload", "error", err)
	}
	if req.NewAmount.LessThanOrEqual(decimal.Zero) {
		return nil, log.ErrorWithType(ErrValidation, "newAmount must be positive")
	}

	order, err := c.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsBilled() {
		return nil, log.ErrorWithType(ErrState, "order has not been billed yet", "orderID", order.ID)
	}

	if err := c.orderRepo.Revise(ctx, order.ID, req.NewAmount, req.Note); err != nil {
		return nil, log.Err("failed to revise order", err, "orderID", order.ID)
	}

	log.Info("order revised", "orderID", order.ID, "amount", req.NewAmount)
	return c.orderRepo.GetByID(ctx, order.ID)
}

func (c *OrderController) ClientAction(
	ctx context.Context,
	orderID int,
	req OrderClientActionRequest,
) (*models.Order, error) {
	log := c.log.Function("ClientAction")

	if err := c.validate.Struct(req); err != nil {
		return nil, log.ErrorWithType(ErrValidation, "invalid action payload", "error", err)
	}

	order, err := c.orderRepo.GetWithClient(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, log.ErrorWithType(ErrNotFound, "order not found", "orderID", orderID)
		}
		return nil, log.Err("failed to load order", err)
	}
	if order.ClientID != req.ClientID {
		return nil, log.ErrorWithType(ErrNotFound, "order not found", "orderID", orderID)
	}
	if !order.IsBilled() {
		return nil, log.ErrorWithType(ErrState, "order has no outstanding bill", "orderID", order.ID)
	}

	var target models.PaymentStatus
	switch req.Action {
	case "pay":
		if order.Client == nil || !order.Client.HasCardOnFile() {
			return nil, log.ErrorWithType(ErrValidation, "no card on file", "clientID", req.ClientID)
		}
		target = models.PaymentPaid
	case "dispute":
		target = models.PaymentDisputed
	default:
		return nil, log.ErrorWithType(ErrValidation, "unknown order action", "action", req.Action)
	}

	if err := c.orderRepo.SetPaymentStatus(ctx, order.ID, target, req.Note); err != nil {
		return nil, log.Err("failed to update payment status", err, "orderID", order.ID)
	}

	log.Info("order payment status changed", "orderID", order.ID, "paymentStatus", target)
	return c.orderRepo.GetByID(ctx, order.ID)
}

// Messages returns the conversation of the order's linked request
func (c *OrderController) Messages(
	ctx context.Context,
	orderID int,
) ([]models.RequestMessage, error) {
	log := c.log.Function("Messages")

	order, err := c.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	messages, err := c.messageRepo.ListByRequest(ctx, order.RequestID)
	if err != nil {
		return nil, log.Err("failed to list order messages", err)
	}
	return messages, nil
}

// AddMessage appends a note to the order's linked request conversation.
// Unknown senders and types are normalized rather than rejected.
func (c *OrderController) AddMessage(
	ctx context.Context,
	orderID int,
	req AddOrderMessageRequest,
) (*models.RequestMessage, error) {
	log := c.log.Function("AddMessage")

	order, err := c.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	message := &models.RequestMessage{
		RequestID:   order.RequestID,
		Sender:      models.NormalizeSender(req.Sender),
		MessageType: models.NormalizeMessageType(req.MessageType),
		Body:        req.Body,
	}
	if err := c.messageRepo.Append(ctx, message); err != nil {
		return nil, log.Err("failed to append order message", err, "orderID", order.ID)
	}

	return message, nil
}

func (c *OrderController) loadOrder(ctx context.Context, orderID int) (*models.Order, error) {
	log := c.log.Function("loadOrder")

	order, err := c.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, log.ErrorWithType(ErrNotFound, "order not found", "orderID", orderID)
		}
		return nil, log.Err("failed to load order", err)
	}
	return order, nil
}
