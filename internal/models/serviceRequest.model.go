package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestQuoted    RequestStatus = "quoted"
	RequestAccepted  RequestStatus = "accepted"
	RequestCounter   RequestStatus = "counter"
	RequestDeclined  RequestStatus = "declined"
	RequestRejected  RequestStatus = "rejected"
	RequestCompleted RequestStatus = "completed"
)

type Actor string

const (
	ActorAdmin  Actor = "admin"
	ActorClient Actor = "client"
)

type RequestAction string

const (
	ActionQuote   RequestAction = "quote"
	ActionAccept  RequestAction = "accept"
	ActionReject  RequestAction = "reject"
	ActionCounter RequestAction = "counter"
	ActionDecline RequestAction = "decline"
	ActionNote    RequestAction = "note"
)

type ServiceRequest struct {
	BaseModel
	ClientID int     `gorm:"index;not null" json:"clientId"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	ServiceAddress string           `gorm:"type:text;not null"            json:"serviceAddress"`
	CleaningType   string           `gorm:"type:text;default:basic"       json:"cleaningType"`
	Rooms          int              `gorm:"default:1"                     json:"rooms"`
	PreferredAt    *time.Time       `gorm:"type:timestamp"                json:"preferredAt,omitempty"`
	Budget         *decimal.Decimal `gorm:"type:numeric(10,2)"            json:"budget,omitempty"`
	Notes          *string          `gorm:"type:text"                     json:"notes,omitempty"`
	Status         RequestStatus    `gorm:"type:text;not null;default:pending;index" json:"status"`

	QuotePrice      *decimal.Decimal `gorm:"type:numeric(10,2)" json:"quotePrice,omitempty"`
	QuoteTimeWindow *string          `gorm:"type:text"          json:"quoteTimeWindow,omitempty"`
	AdminNote       *string          `gorm:"type:text"          json:"adminNote,omitempty"`
	ClientNote      *string          `gorm:"type:text"          json:"clientNote,omitempty"`

	Photos   []RequestPhoto   `gorm:"foreignKey:RequestID" json:"photos,omitempty"`
	Messages []RequestMessage `gorm:"foreignKey:RequestID" json:"messages,omitempty"`
}

type transition struct {
	Status RequestStatus
	Actor  Actor
	Action RequestAction
}

// transitions enumerates every permitted (status, actor, action) combination.
// Anything not listed is rejected, which replaces the scattered status
// conditionals this lifecycle used to be expressed with.
var transitions = map[transition]RequestStatus{
	{RequestPending, ActorAdmin, ActionQuote}:  RequestQuoted,
	{RequestCounter, ActorAdmin, ActionQuote}:  RequestQuoted,
	{RequestPending, ActorAdmin, ActionReject}: RequestRejected,
	{RequestQuoted, ActorAdmin, ActionReject}:  RequestRejected,
	{RequestCounter, ActorAdmin, ActionReject}: RequestRejected,

	{RequestPending, ActorAdmin, ActionAccept}:  RequestAccepted,
	{RequestQuoted, ActorAdmin, ActionAccept}:   RequestAccepted,
	{RequestCounter, ActorAdmin, ActionAccept}:  RequestAccepted,
	{RequestAccepted, ActorAdmin, ActionAccept}: RequestAccepted, // idempotent re-accept

	{RequestQuoted, ActorClient, ActionAccept}:  RequestAccepted,
	{RequestQuoted, ActorClient, ActionCounter}: RequestCounter,
	{RequestQuoted, ActorClient, ActionDecline}: RequestDeclined,
	// A client can still walk away while waiting on the counter-offer
	{RequestCounter, ActorClient, ActionDecline}: RequestDeclined,
}

// NextStatus resolves a lifecycle action against the transition table.
// The second return is false when the combination is not permitted.
func NextStatus(status RequestStatus, actor Actor, action RequestAction) (RequestStatus, bool) {
	next, ok := transitions[transition{status, actor, action}]
	return next, ok
}

// ActionsFor returns the set of actions an actor may ever perform, used to
// distinguish unknown actions (validation) from disallowed ones (state).
func ActionsFor(actor Actor) []RequestAction {
	switch actor {
	case ActorAdmin:
		return []RequestAction{ActionQuote, ActionAccept, ActionReject}
	case ActorClient:
		return []RequestAction{ActionAccept, ActionCounter, ActionDecline}
	}
	return nil
}

// KnownAction reports whether action is one the actor can ever perform
func KnownAction(actor Actor, action RequestAction) bool {
	for _, a := range ActionsFor(actor) {
		if a == action {
			return true
		}
	}
	return false
}
