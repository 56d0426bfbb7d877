package repositories

import (
	"context"
	"time"

	contextutil "sparklean/internal/context"
	"sparklean/internal/database"
	"sparklean/internal/logger"
	. "sparklean/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderSummary is an order row joined with its request and client context,
// the shape both billing list views render
type OrderSummary struct {
	OrderID        int              `json:"orderId"`
	RequestID      int              `json:"requestId"`
	ClientID       int              `json:"clientId"`
	Status         OrderStatus      `json:"status"`
	PaymentStatus  PaymentStatus    `json:"paymentStatus"`
	TotalAmount    *decimal.Decimal `json:"totalAmount,omitempty"`
	PaymentDueDate *datatypes.Date  `json:"paymentDueDate,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	ServiceAddress *string          `json:"serviceAddress,omitempty"`
	CleaningType   *string          `json:"cleaningType,omitempty"`
	AdminNote      *string          `json:"adminNote,omitempty"`
	ClientNote     *string          `json:"clientNote,omitempty"`
	ClientName     *string          `json:"clientName,omitempty"`
	ClientEmail    *string          `json:"clientEmail,omitempty"`
	CardBrand      *string          `json:"cardBrand,omitempty"`
	CardLast4      *string          `json:"cardLast4,omitempty"`
}

type OrderRepository interface {
	EnsureForRequest(ctx context.Context, requestID, clientID int, scheduledAt *time.Time) (*Order, bool, error)
	GetByID(ctx context.Context, id int) (*Order, error)
	GetWithClient(ctx context.Context, id int) (*Order, error)
	List(ctx context.Context, clientID *int) ([]OrderSummary, error)
	Complete(ctx context.Context, id int, amount decimal.Decimal, note *string, dueDate time.Time) error
	Revise(ctx context.Context, id int, amount decimal.Decimal, note *string) error
	SetPaymentStatus(ctx context.Context, id int, status PaymentStatus, clientNote *string) error
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type orderRepository struct {
	db  database.DB
	log logger.Logger
}

func NewOrderRepository(db database.DB) OrderRepository {
	return &orderRepository{
		db:  db,
		log: logger.New("orderRepository"),
	}
}

func (r *orderRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextutil.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

// EnsureForRequest creates the order derived from a request if none exists.
// The unique index on request_id makes this safe under concurrent accepts;
// the second return reports whether a new order was created.
func (r *orderRepository) EnsureForRequest(
	ctx context.Context,
	requestID, clientID int,
	scheduledAt *time.Time,
) (*Order, bool, error) {
	log := r.log.Function("EnsureForRequest")

	order := Order{
		RequestID:   requestID,
		ClientID:    clientID,
		ScheduledAt: scheduledAt,
		Status:      OrderScheduled,
	}

	result := r.getDB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "request_id"}},
			DoNothing: true,
		}).
		Create(&order)
	if result.Error != nil {
		return nil, false, log.Err("failed to create order", result.Error, "requestID", requestID)
	}

	created := result.RowsAffected > 0
	if !created {
		// lost the race or already existed, load the winner
		var existing Order
		if err := r.getDB(ctx).First(&existing, "request_id = ?", requestID).Error; err != nil {
			return nil, false, log.Err("failed to load existing order", err, "requestID", requestID)
		}
		return &existing, false, nil
	}

	return &order, true, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int) (*Order, error) {
	log := r.log.Function("GetByID")

	var order Order
	if err := r.getDB(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get order", err, "id", id)
	}

	return &order, nil
}

func (r *orderRepository) GetWithClient(ctx context.Context, id int) (*Order, error) {
	log := r.log.Function("GetWithClient")

	var order Order
	err := r.getDB(ctx).Preload("Client").First(&order, "id = ?", id).Error
	if err != nil {
		return nil, log.Err("failed to get order with client", err, "id", id)
	}

	return &order, nil
}

// List returns order summaries newest first. A nil clientID is the admin
// view, which additionally carries client name and email.
func (r *orderRepository) List(ctx context.Context, clientID *int) ([]OrderSummary, error) {
	log := r.log.Function("List")

	query := `
		SELECT
			o.id AS order_id,
			o.request_id,
			o.client_id,
			o.status,
			o.payment_status,
			o.total_amount,
			o.payment_due_date,
			o.created_at,
			r.service_address,
			r.cleaning_type,
			COALESCE(o.admin_note, r.admin_note) AS admin_note,
			COALESCE(o.client_note, r.client_note) AS client_note,
			c.name AS client_name,
			c.email AS client_email,
			c.card_brand,
			c.card_last4
		FROM orders o
		LEFT JOIN service_requests r ON r.id = o.request_id
		LEFT JOIN clients c ON c.id = o.client_id
		WHERE o.deleted_at IS NULL`

	args := []any{}
	if clientID != nil {
		query += `
		AND o.client_id = ?`
		args = append(args, *clientID)
	}

	query += `
		ORDER BY o.id DESC`

	var summaries []OrderSummary
	if err := r.getDB(ctx).Raw(query, args...).Scan(&summaries).Error; err != nil {
		return nil, log.Err("failed to list orders", err)
	}

	return summaries, nil
}

// Complete generates the bill: amount set, payment due, order completed
func (r *orderRepository) Complete(
	ctx context.Context,
	id int,
	amount decimal.Decimal,
	note *string,
	dueDate time.Time,
) error {
	log := r.log.Function("Complete")

	due := datatypes.Date(dueDate)
	result := r.getDB(ctx).Model(&Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_amount":     amount,
			"payment_status":   PaymentDue,
			"status":           OrderCompleted,
			"admin_note":       note,
			"payment_due_date": due,
		})
	if result.Error != nil {
		return log.Err("failed to complete order", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// Revise resets a disputed or stale bill to due with a new amount.
// A nil note clears any previous admin note; each revision carries the
// whole note.
func (r *orderRepository) Revise(ctx context.Context, id int, amount decimal.Decimal, note *string) error {
	log := r.log.Function("Revise")

	result := r.getDB(ctx).Model(&Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_amount":   amount,
			"payment_status": PaymentDue,
			"admin_note":     note,
		})
	if result.Error != nil {
		return log.Err("failed to revise order", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// SetPaymentStatus records a pay or dispute outcome. The client note is
// written as given, nil included, so the stored note always reflects the
// latest action.
func (r *orderRepository) SetPaymentStatus(
	ctx context.Context,
	id int,
	status PaymentStatus,
	clientNote *string,
) error {
	log := r.log.Function("SetPaymentStatus")

	result := r.getDB(ctx).Model(&Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"payment_status": status,
			"client_note":    clientNote,
		})
	if result.Error != nil {
		return log.Err("failed to set payment status", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// MarkOverdue flips due bills past their due date to overdue and returns
// how many rows changed
func (r *orderRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	log := r.log.Function("MarkOverdue")

	result := r.getDB(ctx).Model(&Order{}).
		Where("payment_status = ? AND payment_due_date IS NOT NULL AND payment_due_date < ?",
			PaymentDue, datatypes.Date(asOf)).
		Update("payment_status", PaymentOverdue)
	if result.Error != nil {
		return 0, log.Err("failed to mark overdue orders", result.Error)
	}

	return result.RowsAffected, nil
}
