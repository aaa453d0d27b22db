package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry records one admin mutation.
type AuditEntry struct {
	ID         uuid.UUID      `json:"id"`
	ActorID    uuid.UUID      `json:"actor_id"`
	Action     string         `json:"action"`
	TargetType string         `json:"target_type"`
	TargetID   *uuid.UUID     `json:"target_id,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (a *AuditEntry) Prepare() {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
}

type AdminStats struct {
	TotalUsers         int64            `json:"total_users"`
	UsersByRole        map[string]int64 `json:"users_by_role"`
	ActiveListings     int64            `json:"active_listings"`
	ActiveGemstones    int64            `json:"active_gemstones"`
	OrdersByStatus     map[string]int64 `json:"orders_by_status"`
	RevenueCents       int64            `json:"revenue_cents"`
	UpcomingEvents     int64            `json:"upcoming_events"`
	OpenGroupPurchases int64            `json:"open_group_purchases"`
}
