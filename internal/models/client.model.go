package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Client struct {
	BaseModel
	Username     string  `gorm:"type:text;uniqueIndex;not null" json:"username"`
	Name         string  `gorm:"type:text"                      json:"name"`
	Email        string  `gorm:"type:text;uniqueIndex;not null" json:"email"`
	Phone        *string `gorm:"type:text"                      json:"phone,omitempty"`
	Address      *string `gorm:"type:text"                      json:"address,omitempty"`
	PasswordHash string  `gorm:"type:text;not null"             json:"-"`

	// Payment processor linkage and the simulated card on file (brand +
	// last 4 only, never a full number)
	StripeCustomerID *string `gorm:"type:text" json:"-"`
	CardBrand        *string `gorm:"type:text" json:"cardBrand,omitempty"`
	CardLast4        *string `gorm:"type:text" json:"cardLast4,omitempty"`

	SignInAt *time.Time `gorm:"type:timestamp" json:"signInAt,omitempty"`

	Requests []ServiceRequest `gorm:"foreignKey:ClientID" json:"requests,omitempty"`
	Orders   []Order          `gorm:"foreignKey:ClientID" json:"orders,omitempty"`
}

// HasCardOnFile reports whether the client can pay a bill
func (c *Client) HasCardOnFile() bool {
	return c.CardLast4 != nil && strings.TrimSpace(*c.CardLast4) != ""
}

// ClientProfile is the public view of a client returned by auth endpoints
type ClientProfile struct {
	ID       int        `json:"id"`
	Username string     `json:"username"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	SignInAt *time.Time `json:"signInAt,omitempty"`
}

func (c *Client) ToProfile() ClientProfile {
	return ClientProfile{
		ID:       c.ID,
		Username: c.Username,
		Name:     c.Name,
		Email:    c.Email,
		SignInAt: c.SignInAt,
	}
}

// ClientStats is a per-client aggregate row for the admin dashboard
type ClientStats struct {
	ClientID      int             `json:"clientId"`
	Username      string          `json:"username"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Address       *string         `json:"address,omitempty"`
	CardBrand     *string         `json:"cardBrand,omitempty"`
	CardLast4     *string         `json:"cardLast4,omitempty"`
	TotalJobs     int             `json:"totalJobs"`
	CompletedJobs int             `json:"completedJobs"`
	PaidOrders    int             `json:"paidOrders"`
	LatePayments  int             `json:"latePayments"`
	OpenOrders    int             `json:"openOrders"`
	OpenAmountDue decimal.Decimal `json:"openAmountDue"`
}
