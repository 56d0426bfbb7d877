package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderScheduled OrderStatus = "scheduled"
	OrderCompleted OrderStatus = "completed"
)

type PaymentStatus string

const (
	// PaymentNotDue is the pre-billing default: the order exists but no
	// bill has been generated yet
	PaymentNotDue   PaymentStatus = "not_due"
	PaymentDue      PaymentStatus = "due"
	PaymentPaid     PaymentStatus = "paid"
	PaymentOverdue  PaymentStatus = "overdue"
	PaymentDisputed PaymentStatus = "disputed"
)

// PaymentTermDays is how long a client has to pay a generated bill
const PaymentTermDays = 7

// Order is derived 1:1 from an accepted service request. The unique index on
// RequestID is what makes concurrent accepts safe.
type Order struct {
	BaseModel
	RequestID int             `gorm:"uniqueIndex;not null" json:"requestId"`
	Request   *ServiceRequest `gorm:"foreignKey:RequestID" json:"request,omitempty"`
	ClientID  int             `gorm:"index;not null"       json:"clientId"`
	Client    *Client         `gorm:"foreignKey:ClientID"  json:"client,omitempty"`

	ScheduledAt    *time.Time       `gorm:"type:timestamp"                     json:"scheduledAt,omitempty"`
	Status         OrderStatus      `gorm:"type:text;not null;default:scheduled" json:"status"`
	PaymentStatus  PaymentStatus    `gorm:"type:text;not null;default:not_due" json:"paymentStatus"`
	TotalAmount    *decimal.Decimal `gorm:"type:numeric(10,2)"                 json:"totalAmount,omitempty"`
	PaymentDueDate *datatypes.Date  `gorm:"type:date"                          json:"paymentDueDate,omitempty"`
	AdminNote      *string          `gorm:"type:text"                          json:"adminNote,omitempty"`
	ClientNote     *string          `gorm:"type:text"                          json:"clientNote,omitempty"`
}

// IsBilled reports whether a bill has been generated for this order
func (o *Order) IsBilled() bool {
	return o.PaymentStatus != PaymentNotDue
}
