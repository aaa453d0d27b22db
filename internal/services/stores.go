package services

import (
	"context"
	"time"

	"jewelconnect/internal/models"

	"github.com/google/uuid"
)

// Lookups return (nil, nil) when the row does not exist. Create methods
// return repositories.ErrDuplicate on unique violations.

type Transactor interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// LockByID takes a row lock for the rest of the surrounding transaction.
	LockByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Summaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.UserSummary, error)
	Search(ctx context.Context, filter models.DirectoryFilter) ([]models.User, int64, error)
	// UpdateProfile writes the self-editable fields only.
	UpdateProfile(ctx context.Context, user *models.User) error
	// UpdateAccess writes role and status only.
	UpdateAccess(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	Count(ctx context.Context) (int64, error)
	// LockRoles serialises decisions based on the admin count until the
	// surrounding transaction ends.
	LockRoles(ctx context.Context) error
	// CountAdmins counts admins that are active and not deleted.
	CountAdmins(ctx context.Context) (int64, error)
}

type ConnectionStore interface {
	Create(ctx context.Context, conn *models.Connection) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Connection, error)
	// FindBetween ignores direction.
	FindBetween(ctx context.Context, a, b uuid.UUID) (*models.Connection, error)
	Update(ctx context.Context, conn *models.Connection) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListAccepted(ctx context.Context, userID uuid.UUID) ([]models.Connection, error)
	ListPending(ctx context.Context, userID uuid.UUID, outgoing bool) ([]models.Connection, error)
}

type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	// Thread returns up to limit messages older than before, oldest first.
	Thread(ctx context.Context, a, b uuid.UUID, before *time.Time, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, recipientID, senderID uuid.UUID, at time.Time) (int64, error)
	// Conversations fills Partner.ID only.
	Conversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	// LockByID takes a row lock for the rest of the surrounding transaction.
	LockByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int64, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindRSVP(ctx context.Context, eventID, userID uuid.UUID) (*models.RSVP, error)
	UserRSVPs(ctx context.Context, userID uuid.UUID, eventIDs []uuid.UUID) (map[uuid.UUID]string, error)
	UpsertRSVP(ctx context.Context, rsvp *models.RSVP) error
	DeleteRSVP(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	CountRSVPs(ctx context.Context, eventID uuid.UUID, status string) (int, error)
	// Attendees lists going and interested RSVPs.
	Attendees(ctx context.Context, eventID uuid.UUID) ([]models.RSVP, error)
	// UpcomingForUser lists events the user responded to that end after from.
	UpcomingForUser(ctx context.Context, userID uuid.UUID, from time.Time) ([]models.Event, error)
}

type InventoryStore interface {
	Create(ctx context.Context, item *models.InventoryItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, publicOnly bool) ([]models.InventoryItem, error)
	Update(ctx context.Context, item *models.InventoryItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GemstoneStore interface {
	Create(ctx context.Context, gem *models.Gemstone) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Gemstone, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Gemstone, error)
	List(ctx context.Context, filter models.GemstoneFilter) ([]models.Gemstone, int64, error)
	// Update writes everything but stock and refreshes gem.Stock.
	Update(ctx context.Context, gem *models.Gemstone) error
	SetStock(ctx context.Context, id uuid.UUID, stock int) error
	// LockForUpdate locks the rows in id order.
	LockForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Gemstone, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}

type CartStore interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CartItem, error)
	FindItem(ctx context.Context, userID, gemstoneID uuid.UUID) (*models.CartItem, error)
	// Save inserts the line or replaces the quantity of the existing one.
	Save(ctx context.Context, item *models.CartItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page models.Page) ([]models.Order, int64, error)
	List(ctx context.Context, status string, page models.Page) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) error
}

type ListingStore interface {
	Create(ctx context.Context, listing *models.Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, int64, error)
	// Update and SetStatus return repositories.ErrStale when the row is no
	// longer in an editable state.
	Update(ctx context.Context, listing *models.Listing) error
	SetStatus(ctx context.Context, id uuid.UUID, from []string, to string) error
}

type GroupPurchaseStore interface {
	Create(ctx context.Context, gp *models.GroupPurchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.GroupPurchase, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.GroupPurchase, error)
	List(ctx context.Context, status string, page models.Page) ([]models.GroupPurchase, int64, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	Participants(ctx context.Context, id uuid.UUID) ([]models.Participant, error)
	UpsertParticipant(ctx context.Context, id uuid.UUID, p models.Participant) error
	DeleteParticipant(ctx context.Context, id, userID uuid.UUID) (bool, error)
	// ListDue returns open purchases whose deadline is not after now.
	ListDue(ctx context.Context, now time.Time) ([]models.GroupPurchase, error)
}

type APIKeyStore interface {
	Create(ctx context.Context, key *models.APIKey) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error)
	FindByHash(ctx context.Context, hash string) (*models.APIKey, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error)
	ListAll(ctx context.Context) ([]models.APIKey, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
	Recent(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

type StatsStore interface {
	Stats(ctx context.Context, now time.Time) (*models.AdminStats, error)
}

type TokenBlacklist interface {
	Blacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// IdempotencyStore remembers which order a checkout key produced.
type IdempotencyStore interface {
	// Claim reserves key. When the key is already taken it returns the stored
	// value ("" while the first request is still running) and false.
	Claim(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Complete(ctx context.Context, key, value string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// Notifier pushes refresh hints to a user's live sockets.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind string, payload any) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, uuid.UUID, string, any) error { return nil }
