package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{OrderPending, OrderPaid, true},
		{OrderPending, OrderCancelled, true},
		{OrderPaid, OrderShipped, true},
		{OrderPaid, OrderCancelled, true},
		{OrderShipped, OrderDelivered, true},
		{OrderShipped, OrderCancelled, false},
		{OrderDelivered, OrderPending, false},
		{OrderCancelled, OrderPaid, false},
		{OrderPending, OrderDelivered, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestPageMeta(t *testing.T) {
	meta := NewPageMeta(Page{Page: 2, Limit: 10}, 25)
	assert.Equal(t, int64(3), meta.TotalPages)
	assert.True(t, meta.HasMore)

	meta = NewPageMeta(Page{Page: 3, Limit: 10}, 25)
	assert.False(t, meta.HasMore)

	p := Page{Page: 0, Limit: 1000}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageSize, p.Limit)
	assert.Equal(t, 20, Page{Page: 2}.Offset())
}

func TestNewCart_Totals(t *testing.T) {
	ruby := &Gemstone{ID: uuid.New(), PriceCents: 125000}
	pearl := &Gemstone{ID: uuid.New(), PriceCents: 4500}

	cart := NewCart([]CartItem{
		{GemstoneID: ruby.ID, Quantity: 2, Gemstone: ruby},
		{GemstoneID: pearl.ID, Quantity: 3, Gemstone: pearl},
	})

	assert.Equal(t, int64(250000+13500), cart.TotalCents)
	assert.Equal(t, 5, cart.ItemCount)
	assert.Equal(t, int64(250000), cart.Items[0].LineTotalCents)

	assert.NotNil(t, NewCart(nil).Items)
}

func TestConnectionRelation(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	c := &Connection{RequesterID: a, AddresseeID: b, Status: ConnectionPending}

	assert.Equal(t, RelationPendingSent, c.RelationFor(a))
	assert.Equal(t, RelationPendingReceived, c.RelationFor(b))
	assert.Equal(t, b, c.Other(a))

	c.Status = ConnectionAccepted
	assert.Equal(t, RelationConnected, c.RelationFor(b))

	c.Status = ConnectionRejected
	assert.Equal(t, RelationNone, c.RelationFor(a))
}

func TestGroupPurchaseClosing(t *testing.T) {
	now := time.Now()
	g := &GroupPurchase{Status: GroupOpen, TargetQuantity: 10, CommittedQuantity: 10, Deadline: now.Add(time.Hour)}

	assert.True(t, g.IsJoinable(now))
	assert.False(t, g.IsJoinable(now.Add(2*time.Hour)))
	assert.Equal(t, GroupFunded, g.ClosingStatus())

	g.CommittedQuantity = 9
	assert.Equal(t, GroupExpired, g.ClosingStatus())
}

func TestAPIKeyUsable(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	k := &APIKey{}
	assert.True(t, k.IsUsable(now))

	k.ExpiresAt = &past
	assert.False(t, k.IsUsable(now))

	k.ExpiresAt = nil
	k.Revoked = true
	assert.False(t, k.IsUsable(now))
}
