package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  RequestStatus
		actor   Actor
		action  RequestAction
		want    RequestStatus
		allowed bool
	}{
		{
			name:    "admin quotes a pending request",
			status:  RequestPending,
			actor:   ActorAdmin,
			action:  ActionQuote,
			want:    RequestQuoted,
			allowed: true,
		},
		{
			name:    "admin re-quotes after counter",
			status:  RequestCounter,
			actor:   ActorAdmin,
			action:  ActionQuote,
			want:    RequestQuoted,
			allowed: true,
		},
		{
			name:    "admin rejects a quoted request",
			status:  RequestQuoted,
			actor:   ActorAdmin,
			action:  ActionReject,
			want:    RequestRejected,
			allowed: true,
		},
		{
			name:    "admin accept is idempotent on accepted",
			status:  RequestAccepted,
			actor:   ActorAdmin,
			action:  ActionAccept,
			want:    RequestAccepted,
			allowed: true,
		},
		{
			name:    "client accepts a quote",
			status:  RequestQuoted,
			actor:   ActorClient,
			action:  ActionAccept,
			want:    RequestAccepted,
			allowed: true,
		},
		{
			name:    "client counters a quote",
			status:  RequestQuoted,
			actor:   ActorClient,
			action:  ActionCounter,
			want:    RequestCounter,
			allowed: true,
		},
		{
			name:    "client declines a quote",
			status:  RequestQuoted,
			actor:   ActorClient,
			action:  ActionDecline,
			want:    RequestDeclined,
			allowed: true,
		},
		{
			name:    "client declines while awaiting a counter response",
			status:  RequestCounter,
			actor:   ActorClient,
			action:  ActionDecline,
			want:    RequestDeclined,
			allowed: true,
		},
		{
			name:    "client cannot accept a pending request",
			status:  RequestPending,
			actor:   ActorClient,
			action:  ActionAccept,
			allowed: false,
		},
		{
			name:    "client cannot counter twice",
			status:  RequestCounter,
			actor:   ActorClient,
			action:  ActionCounter,
			allowed: false,
		},
		{
			name:    "admin cannot quote a rejected request",
			status:  RequestRejected,
			actor:   ActorAdmin,
			action:  ActionQuote,
			allowed: false,
		},
		{
			name:    "completed requests are terminal",
			status:  RequestCompleted,
			actor:   ActorAdmin,
			action:  ActionAccept,
			allowed: false,
		},
		{
			name:    "actors cannot use each other's actions",
			status:  RequestPending,
			actor:   ActorClient,
			action:  ActionReject,
			allowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := NextStatus(tt.status, tt.actor, tt.action)
			assert.Equal(t, tt.allowed, ok)
			if tt.allowed {
				assert.Equal(t, tt.want, next)
			}
		})
	}
}

func TestEveryTransitionLandsOnSingleStatus(t *testing.T) {
	// one valid action always yields exactly one status out of the
	// negotiation set
	valid := map[RequestStatus]bool{
		RequestQuoted:   true,
		RequestAccepted: true,
		RequestCounter:  true,
		RequestDeclined: true,
		RequestRejected: true,
	}

	for key, next := range transitions {
		assert.True(t, valid[next], "transition %+v lands on %q", key, next)
	}
}

func TestKnownAction(t *testing.T) {
	assert.True(t, KnownAction(ActorAdmin, ActionQuote))
	assert.True(t, KnownAction(ActorClient, ActionDecline))
	assert.False(t, KnownAction(ActorClient, ActionQuote))
	assert.False(t, KnownAction(ActorAdmin, ActionCounter))
	assert.False(t, KnownAction(ActorAdmin, RequestAction("bogus")))
}

func TestNormalizeMessageType(t *testing.T) {
	assert.Equal(t, ActionQuote, NormalizeMessageType("quote"))
	assert.Equal(t, ActionNote, NormalizeMessageType("note"))
	assert.Equal(t, ActionNote, NormalizeMessageType("whatever"))
	assert.Equal(t, ActionNote, NormalizeMessageType(""))
}

func TestNormalizeSender(t *testing.T) {
	assert.Equal(t, ActorAdmin, NormalizeSender("admin"))
	assert.Equal(t, ActorClient, NormalizeSender("client"))
	assert.Equal(t, ActorClient, NormalizeSender("anything-else"))
}

func TestHasCardOnFile(t *testing.T) {
	client := &Client{}
	assert.False(t, client.HasCardOnFile())

	empty := "   "
	client.CardLast4 = &empty
	assert.False(t, client.HasCardOnFile())

	last4 := "4242"
	client.CardLast4 = &last4
	assert.True(t, client.HasCardOnFile())
}
