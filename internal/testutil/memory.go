// Package testutil holds in-memory stores that mirror the Postgres and Redis
// repositories closely enough to drive the services in unit tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"jewelconnect/internal/models"
	"jewelconnect/internal/repositories"

	"github.com/google/uuid"
)

// Memory bundles one instance of every store. Writes made inside RunAtomic
// are not rolled back on error.
type Memory struct {
	Tx             *Tx
	Users          *Users
	Connections    *Connections
	Messages       *Messages
	Events         *Events
	Inventory      *Inventory
	Gemstones      *Gemstones
	Cart           *Cart
	Orders         *Orders
	Listings       *Listings
	GroupPurchases *GroupPurchases
	APIKeys        *APIKeys
	Audit          *Audit
	Stats          *Stats
	Blacklist      *Blacklist
	Idempotency    *Idempotency
}

type db struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*models.User
	connections  map[uuid.UUID]*models.Connection
	messages     []*models.Message
	events       map[uuid.UUID]*models.Event
	rsvps        map[[2]uuid.UUID]*models.RSVP
	inventory    map[uuid.UUID]*models.InventoryItem
	gemstones    map[uuid.UUID]*models.Gemstone
	cart         map[uuid.UUID]*models.CartItem
	orders       map[uuid.UUID]*models.Order
	listings     map[uuid.UUID]*models.Listing
	groups       map[uuid.UUID]*models.GroupPurchase
	participants map[uuid.UUID][]models.Participant
	apiKeys      map[uuid.UUID]*models.APIKey
	audit        []models.AuditEntry
}

func NewMemory() *Memory {
	d := &db{
		users:        map[uuid.UUID]*models.User{},
		connections:  map[uuid.UUID]*models.Connection{},
		events:       map[uuid.UUID]*models.Event{},
		rsvps:        map[[2]uuid.UUID]*models.RSVP{},
		inventory:    map[uuid.UUID]*models.InventoryItem{},
		gemstones:    map[uuid.UUID]*models.Gemstone{},
		cart:         map[uuid.UUID]*models.CartItem{},
		orders:       map[uuid.UUID]*models.Order{},
		listings:     map[uuid.UUID]*models.Listing{},
		groups:       map[uuid.UUID]*models.GroupPurchase{},
		participants: map[uuid.UUID][]models.Participant{},
		apiKeys:      map[uuid.UUID]*models.APIKey{},
	}
	return &Memory{
		Tx:             &Tx{},
		Users:          &Users{d},
		Connections:    &Connections{d},
		Messages:       &Messages{d},
		Events:         &Events{d},
		Inventory:      &Inventory{d},
		Gemstones:      &Gemstones{d},
		Cart:           &Cart{d},
		Orders:         &Orders{d},
		Listings:       &Listings{d},
		GroupPurchases: &GroupPurchases{d},
		APIKeys:        &APIKeys{d},
		Audit:          &Audit{d},
		Stats:          &Stats{d},
		Blacklist:      &Blacklist{entries: map[string]time.Time{}},
		Idempotency:    &Idempotency{entries: map[string]string{}},
	}
}

func duplicate(constraint string) error {
	return fmt.Errorf("%w: %s", repositories.ErrDuplicate, constraint)
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func paginate[T any](items []T, page models.Page) []T {
	page = page.Normalize()
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type txKey struct{}

// Tx serialises atomic blocks. Nested calls join the outer block.
type Tx struct {
	mu sync.Mutex
}

func (t *Tx) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

type Users struct{ *db }

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Specialties = append([]string{}, u.Specialties...)
	return &c
}

func (s *Users) Create(_ context.Context, u *models.User) error {
	u.Prepare()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return duplicate("users_email_key")
		}
		if existing.Username == u.Username {
			return duplicate("users_username_key")
		}
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *Users) find(match func(*models.User) bool) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return cloneUser(u)
		}
	}
	return nil
}

func (s *Users) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.ID == id }), nil
}

func (s *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.find(func(u *models.User) bool { return u.Email == email }), nil
}

func (s *Users) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Username == username }), nil
}

func (s *Users) Summaries(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[uuid.UUID]models.UserSummary{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u.Summary()
		}
	}
	return out, nil
}

func (s *Users) Search(_ context.Context, f models.DirectoryFilter) ([]models.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if u.DeletedAt != nil && !f.IncludeDeleted {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Query != "" && !(contains(u.FullName, f.Query) || contains(u.Username, f.Query) ||
			contains(u.BusinessName, f.Query) || contains(u.Bio, f.Query)) {
			continue
		}
		if f.UserType != "" && u.UserType != f.UserType {
			continue
		}
		if f.Location != "" && !contains(u.Location, f.Location) {
			continue
		}
		if f.Specialty != "" && !hasString(u.Specialties, f.Specialty) {
			continue
		}
		out = append(out, *cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].FullName), strings.ToLower(out[j].FullName)
		if a != b {
			return a < b
		}
		return out[i].Username < out[j].Username
	})
	return paginate(out, f.Page), int64(len(out)), nil
}

func hasString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (s *Users) LockByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.FindByID(ctx, id)
}

// UpdateProfile copies the self-editable fields only.
func (s *Users) UpdateProfile(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok {
		return nil
	}
	existing.FullName = u.FullName
	existing.BusinessName = u.BusinessName
	existing.UserType = u.UserType
	existing.Bio = u.Bio
	existing.Location = u.Location
	existing.Specialties = append([]string{}, u.Specialties...)
	existing.Website = u.Website
	existing.Phone = u.Phone
	existing.AvatarURL = u.AvatarURL
	existing.UpdatedAt = time.Now()
	u.UpdatedAt = existing.UpdatedAt
	return nil
}

func (s *Users) UpdateAccess(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok {
		return nil
	}
	existing.Role = u.Role
	existing.Status = u.Status
	existing.UpdatedAt = time.Now()
	u.UpdatedAt = existing.UpdatedAt
	return nil
}

func (s *Users) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (s *Users) SoftDelete(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok && u.DeletedAt == nil {
		u.DeletedAt = &at
		u.UpdatedAt = at
	}
	return nil
}

func (s *Users) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

// LockRoles is a no-op: Tx already serialises atomic blocks.
func (s *Users) LockRoles(context.Context) error { return nil }

func (s *Users) CountAdmins(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		if u.Role == models.RoleAdmin && u.Status == models.StatusActive && u.DeletedAt == nil {
			n++
		}
	}
	return n, nil
}

type Connections struct{ *db }

func (s *Connections) Create(_ context.Context, c *models.Connection) error {
	c.Prepare()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.connections {
		if existing.Involves(c.RequesterID) && existing.Involves(c.AddresseeID) {
			return duplicate("idx_connections_pair")
		}
	}
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	s.connections[c.ID] = &cp
	return nil
}

func (s *Connections) FindByID(_ context.Context, id uuid.UUID) (*models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.connections[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (s *Connections) FindBetween(_ context.Context, a, b uuid.UUID) (*models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.connections {
		if c.Involves(a) && c.Involves(b) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Connections) Update(_ context.Context, c *models.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.connections[c.ID]; !ok {
		return nil
	}
	c.UpdatedAt = time.Now()
	cp := *c
	cp.User = nil
	s.connections[c.ID] = &cp
	return nil
}

func (s *Connections) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.connections, id)
	return nil
}

func (s *Connections) collect(match func(*models.Connection) bool, less func(a, b *models.Connection) bool) []models.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found []*models.Connection
	for _, c := range s.connections {
		if match(c) {
			found = append(found, c)
		}
	}
	sort.Slice(found, func(i, j int) bool { return less(found[i], found[j]) })
	out := make([]models.Connection, 0, len(found))
	for _, c := range found {
		out = append(out, *c)
	}
	return out
}

func (s *Connections) ListAccepted(_ context.Context, userID uuid.UUID) ([]models.Connection, error) {
	return s.collect(
		func(c *models.Connection) bool { return c.Status == models.ConnectionAccepted && c.Involves(userID) },
		func(a, b *models.Connection) bool { return a.UpdatedAt.After(b.UpdatedAt) },
	), nil
}

func (s *Connections) ListPending(_ context.Context, userID uuid.UUID, outgoing bool) ([]models.Connection, error) {
	return s.collect(
		func(c *models.Connection) bool {
			if c.Status != models.ConnectionPending {
				return false
			}
			if outgoing {
				return c.RequesterID == userID
			}
			return c.AddresseeID == userID
		},
		func(a, b *models.Connection) bool { return a.CreatedAt.After(b.CreatedAt) },
	), nil
}

type Messages struct{ *db }

func (s *Messages) Create(_ context.Context, m *models.Message) error {
	m.Prepare()
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.messages = append(s.messages, &cp)
	return nil
}

func between(m *models.Message, a, b uuid.UUID) bool {
	return (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a)
}

func (s *Messages) Thread(_ context.Context, a, b uuid.UUID, before *time.Time, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found []models.Message
	for _, m := range s.messages {
		if !between(m, a, b) {
			continue
		}
		if before != nil && !m.CreatedAt.Before(*before) {
			continue
		}
		found = append(found, *m)
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].CreatedAt.Before(found[j].CreatedAt) })
	if limit > 0 && len(found) > limit {
		found = found[len(found)-limit:]
	}
	if found == nil {
		found = []models.Message{}
	}
	return found, nil
}

func (s *Messages) MarkRead(_ context.Context, recipientID, senderID uuid.UUID, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.RecipientID == recipientID && m.SenderID == senderID && m.ReadAt == nil {
			read := at
			m.ReadAt = &read
			n++
		}
	}
	return n, nil
}

func (s *Messages) Conversations(_ context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byPartner := map[uuid.UUID]*models.Conversation{}
	for _, m := range s.messages {
		var partner uuid.UUID
		switch userID {
		case m.SenderID:
			partner = m.RecipientID
		case m.RecipientID:
			partner = m.SenderID
		default:
			continue
		}
		conv, ok := byPartner[partner]
		if !ok {
			conv = &models.Conversation{Partner: models.UserSummary{ID: partner}}
			byPartner[partner] = conv
		}
		if !ok || !m.CreatedAt.Before(conv.LastMessage.CreatedAt) {
			conv.LastMessage = *m
		}
		if m.RecipientID == userID && m.ReadAt == nil {
			conv.UnreadCount++
		}
	}
	out := make([]models.Conversation, 0, len(byPartner))
	for _, conv := range byPartner {
		out = append(out, *conv)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessage.CreatedAt.After(out[j].LastMessage.CreatedAt)
	})
	return out, nil
}

func (s *Messages) UnreadCount(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.RecipientID == userID && m.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

type Events struct{ *db }

// withCounts copies e and fills the RSVP tallies. Callers hold mu.
func (s *Events) withCounts(e *models.Event) models.Event {
	cp := *e
	cp.GoingCount, cp.InterestedCount, cp.MyRSVP = 0, 0, nil
	for key, r := range s.rsvps {
		if key[0] != e.ID {
			continue
		}
		switch r.Status {
		case models.RSVPGoing:
			cp.GoingCount++
		case models.RSVPInterested:
			cp.InterestedCount++
		}
	}
	return cp
}

func (s *Events) Create(_ context.Context, e *models.Event) error {
	e.Prepare()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	e.CreatedAt, e.UpdatedAt = now, now
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *Events) FindByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, nil
	}
	cp := s.withCounts(e)
	return &cp, nil
}

func (s *Events) LockByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return s.FindByID(ctx, id)
}

func (s *Events) List(_ context.Context, f models.EventFilter) ([]models.Event, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Event
	for _, e := range s.events {
		if f.Past == !e.EndsAt.Before(f.From) {
			continue
		}
		if f.EventType != "" && e.EventType != f.EventType {
			continue
		}
		if f.Query != "" && !(contains(e.Title, f.Query) || contains(e.Description, f.Query) || contains(e.Location, f.Query)) {
			continue
		}
		out = append(out, s.withCounts(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if f.Past {
			return out[i].StartsAt.After(out[j].StartsAt)
		}
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return paginate(out, f.Page), int64(len(out)), nil
}

func (s *Events) Update(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.events[e.ID]
	if !ok {
		return nil
	}
	e.UpdatedAt = time.Now()
	cp := *e
	cp.CreatedAt = existing.CreatedAt
	s.events[e.ID] = &cp
	return nil
}

func (s *Events) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, id)
	for key := range s.rsvps {
		if key[0] == id {
			delete(s.rsvps, key)
		}
	}
	return nil
}

func (s *Events) FindRSVP(_ context.Context, eventID, userID uuid.UUID) (*models.RSVP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rsvps[[2]uuid.UUID{eventID, userID}]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (s *Events) UserRSVPs(_ context.Context, userID uuid.UUID, eventIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[uuid.UUID]string{}
	for _, id := range eventIDs {
		if r, ok := s.rsvps[[2]uuid.UUID{id, userID}]; ok {
			out[id] = r.Status
		}
	}
	return out, nil
}

func (s *Events) UpsertRSVP(_ context.Context, rsvp *models.RSVP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]uuid.UUID{rsvp.EventID, rsvp.UserID}
	now := time.Now()
	if existing, ok := s.rsvps[key]; ok {
		existing.Status = rsvp.Status
		existing.UpdatedAt = now
		*rsvp = *existing
		return nil
	}
	rsvp.CreatedAt, rsvp.UpdatedAt = now, now
	cp := *rsvp
	s.rsvps[key] = &cp
	return nil
}

func (s *Events) DeleteRSVP(_ context.Context, eventID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]uuid.UUID{eventID, userID}
	_, ok := s.rsvps[key]
	delete(s.rsvps, key)
	return ok, nil
}

func (s *Events) CountRSVPs(_ context.Context, eventID uuid.UUID, status string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, r := range s.rsvps {
		if key[0] == eventID && r.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *Events) Attendees(_ context.Context, eventID uuid.UUID) ([]models.RSVP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.RSVP{}
	for key, r := range s.rsvps {
		if key[0] == eventID && (r.Status == models.RSVPGoing || r.Status == models.RSVPInterested) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status < out[j].Status
		}
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *Events) UpcomingForUser(_ context.Context, userID uuid.UUID, from time.Time) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Event{}
	for key, r := range s.rsvps {
		e, ok := s.events[key[0]]
		if key[1] != userID || !ok || e.EndsAt.Before(from) {
			continue
		}
		cp := s.withCounts(e)
		status := r.Status
		cp.MyRSVP = &status
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

type Inventory struct{ *db }

func (s *Inventory) Create(_ context.Context, item *models.InventoryItem) error {
	item.Prepare()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	item.CreatedAt, item.UpdatedAt = now, now
	cp := *item
	s.inventory[item.ID] = &cp
	return nil
}

func (s *Inventory) FindByID(_ context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.inventory[id]; ok {
		cp := *item
		return &cp, nil
	}
	return nil, nil
}

func (s *Inventory) ListByOwner(_ context.Context, ownerID uuid.UUID, publicOnly bool) ([]models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.InventoryItem{}
	for _, item := range s.inventory {
		if item.OwnerID == ownerID && (!publicOnly || item.IsPublic) {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Inventory) Update(_ context.Context, item *models.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inventory[item.ID]; !ok {
		return nil
	}
	item.UpdatedAt = time.Now()
	cp := *item
	s.inventory[item.ID] = &cp
	return nil
}

func (s *Inventory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inventory, id)
	return nil
}

type Gemstones struct{ *db }

func (s *Gemstones) Create(_ context.Context, g *models.Gemstone) error {
	g.Prepare()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	g.CreatedAt, g.UpdatedAt = now, now
	cp := *g
	s.gemstones[g.ID] = &cp
	return nil
}

func (s *Gemstones) FindByID(_ context.Context, id uuid.UUID) (*models.Gemstone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.gemstones[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, nil
}

func (s *Gemstones) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Gemstone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[uuid.UUID]*models.Gemstone{}
	for _, id := range ids {
		if g, ok := s.gemstones[id]; ok {
			cp := *g
			out[id] = &cp
		}
	}
	return out, nil
}

func (s *Gemstones) List(_ context.Context, f models.GemstoneFilter) ([]models.Gemstone, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	eq := func(want, got string) bool { return want == "" || strings.EqualFold(want, got) }
	var out []models.Gemstone
	for _, g := range s.gemstones {
		if !g.IsActive {
			continue
		}
		if f.Query != "" && !(contains(g.Name, f.Query) || contains(g.GemType, f.Query) ||
			contains(g.Description, f.Query) || contains(g.Origin, f.Query)) {
			continue
		}
		if !eq(f.GemType, g.GemType) || !eq(f.Shape, g.Shape) || !eq(f.Color, g.Color) ||
			!eq(f.Clarity, g.Clarity) || !eq(f.Certification, g.Certification) {
			continue
		}
		if (f.MinCarat != nil && g.Carat < *f.MinCarat) || (f.MaxCarat != nil && g.Carat > *f.MaxCarat) {
			continue
		}
		if (f.MinPrice != nil && g.PriceCents < *f.MinPrice) || (f.MaxPrice != nil && g.PriceCents > *f.MaxPrice) {
			continue
		}
		if f.InStock && g.Stock <= 0 {
			continue
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch f.Sort {
		case models.SortPriceAsc:
			if a.PriceCents != b.PriceCents {
				return a.PriceCents < b.PriceCents
			}
		case models.SortPriceDesc:
			if a.PriceCents != b.PriceCents {
				return a.PriceCents > b.PriceCents
			}
		case models.SortCaratDesc:
			if a.Carat != b.Carat {
				return a.Carat > b.Carat
			}
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return paginate(out, f.Page), int64(len(out)), nil
}

// Update leaves stock alone and reports the stored value back.
func (s *Gemstones) Update(_ context.Context, g *models.Gemstone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.gemstones[g.ID]
	if !ok {
		return nil
	}
	g.UpdatedAt = time.Now()
	g.Stock = existing.Stock
	cp := *g
	cp.CreatedAt = existing.CreatedAt
	s.gemstones[g.ID] = &cp
	return nil
}

func (s *Gemstones) LockForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Gemstone, error) {
	return s.FindByIDs(ctx, ids)
}

func (s *Gemstones) AdjustStock(_ context.Context, id uuid.UUID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gemstones[id]
	if !ok || g.Stock+delta < 0 {
		return fmt.Errorf("stock adjustment of %d rejected for gemstone %s", delta, id)
	}
	g.Stock += delta
	g.UpdatedAt = time.Now()
	return nil
}

func (s *Gemstones) SetStock(_ context.Context, id uuid.UUID, stock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.gemstones[id]; ok {
		g.Stock = stock
		g.UpdatedAt = time.Now()
	}
	return nil
}

type Cart struct{ *db }

func (s *Cart) List(_ context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.CartItem{}
	for _, item := range s.cart {
		if item.UserID == userID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.Before(out[j].AddedAt) })
	return out, nil
}

func (s *Cart) FindByID(_ context.Context, id uuid.UUID) (*models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.cart[id]; ok {
		cp := *item
		return &cp, nil
	}
	return nil, nil
}

func (s *Cart) FindItem(_ context.Context, userID, gemstoneID uuid.UUID) (*models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.cart {
		if item.UserID == userID && item.GemstoneID == gemstoneID {
			cp := *item
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Cart) Save(_ context.Context, item *models.CartItem) error {
	item.Prepare()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.cart {
		if existing.UserID == item.UserID && existing.GemstoneID == item.GemstoneID {
			existing.Quantity = item.Quantity
			item.ID, item.AddedAt = existing.ID, existing.AddedAt
			return nil
		}
	}
	cp := *item
	cp.Gemstone = nil
	s.cart[item.ID] = &cp
	return nil
}

func (s *Cart) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cart, id)
	return nil
}

func (s *Cart) Clear(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, item := range s.cart {
		if item.UserID == userID {
			delete(s.cart, id)
		}
	}
	return nil
}

type Orders struct{ *db }

func cloneOrder(o *models.Order) models.Order {
	cp := *o
	cp.Items = append([]models.OrderItem{}, o.Items...)
	sort.Slice(cp.Items, func(i, j int) bool { return cp.Items[i].Name < cp.Items[j].Name })
	return cp
}

func (s *Orders) Create(_ context.Context, o *models.Order) error {
	o.Prepare()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.orders {
		if existing.OrderNumber == o.OrderNumber {
			return duplicate("orders_order_number_key")
		}
	}
	now := time.Now()
	o.CreatedAt, o.UpdatedAt = now, now
	cp := cloneOrder(o)
	s.orders[o.ID] = &cp
	return nil
}

func (s *Orders) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		cp := cloneOrder(o)
		return &cp, nil
	}
	return nil, nil
}

func (s *Orders) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.FindByID(ctx, id)
}

func (s *Orders) list(match func(*models.Order) bool, page models.Page) ([]models.Order, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if match(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page), int64(len(out))
}

func (s *Orders) ListByUser(_ context.Context, userID uuid.UUID, page models.Page) ([]models.Order, int64, error) {
	out, total := s.list(func(o *models.Order) bool { return o.UserID == userID }, page)
	return out, total, nil
}

func (s *Orders) List(_ context.Context, status string, page models.Page) ([]models.Order, int64, error) {
	out, total := s.list(func(o *models.Order) bool { return status == "" || o.Status == status }, page)
	return out, total, nil
}

func (s *Orders) UpdateStatus(_ context.Context, id uuid.UUID, status string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		o.Status = status
		o.UpdatedAt = at
	}
	return nil
}

type Listings struct{ *db }

// withSeller copies l and joins the seller card. Callers hold mu.
func (s *Listings) withSeller(l *models.Listing) models.Listing {
	cp := *l
	if u, ok := s.users[l.SellerID]; ok {
		summary := u.Summary()
		cp.Seller = &summary
	}
	return cp
}

func (s *Listings) Create(_ context.Context, l *models.Listing) error {
	l.Prepare()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	l.CreatedAt, l.UpdatedAt = now, now
	cp := *l
	cp.Seller = nil
	s.listings[l.ID] = &cp
	return nil
}

func (s *Listings) FindByID(_ context.Context, id uuid.UUID) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.listings[id]; ok {
		cp := s.withSeller(l)
		return &cp, nil
	}
	return nil, nil
}

func (s *Listings) List(_ context.Context, f models.ListingFilter) ([]models.Listing, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Listing
	for _, l := range s.listings {
		if f.AllStatuses {
			if l.Status == models.ListingRemoved {
				continue
			}
		} else if l.Status != models.ListingActive {
			continue
		}
		if f.SellerID != nil && l.SellerID != *f.SellerID {
			continue
		}
		if f.Query != "" && !(contains(l.Title, f.Query) || contains(l.Description, f.Query)) {
			continue
		}
		if (f.Category != "" && l.Category != f.Category) || (f.Condition != "" && l.Condition != f.Condition) {
			continue
		}
		if (f.MinPrice != nil && l.PriceCents < *f.MinPrice) || (f.MaxPrice != nil && l.PriceCents > *f.MaxPrice) {
			continue
		}
		out = append(out, s.withSeller(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, f.Page), int64(len(out)), nil
}

func (s *Listings) LockByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return s.FindByID(ctx, id)
}

func (s *Listings) Update(_ context.Context, l *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.listings[l.ID]
	if !ok || existing.Status != models.ListingActive {
		return repositories.ErrStale
	}
	l.UpdatedAt = time.Now()
	cp := *l
	cp.Status = existing.Status
	cp.CreatedAt = existing.CreatedAt
	cp.Seller = nil
	s.listings[l.ID] = &cp
	return nil
}

func (s *Listings) SetStatus(_ context.Context, id uuid.UUID, from []string, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.listings[id]
	if !ok || !hasString(from, existing.Status) {
		return repositories.ErrStale
	}
	existing.Status = to
	existing.UpdatedAt = time.Now()
	return nil
}

type GroupPurchases struct{ *db }

// withTotals copies g and fills the participant aggregates. Callers hold mu.
func (s *GroupPurchases) withTotals(g *models.GroupPurchase) models.GroupPurchase {
	cp := *g
	cp.Participants = nil
	cp.CommittedQuantity, cp.ParticipantCount = 0, 0
	for _, p := range s.participants[g.ID] {
		cp.CommittedQuantity += p.Quantity
		cp.ParticipantCount++
	}
	return cp
}

func (s *GroupPurchases) Create(_ context.Context, g *models.GroupPurchase) error {
	g.Prepare()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	g.CreatedAt, g.UpdatedAt = now, now
	cp := *g
	cp.Participants = nil
	s.groups[g.ID] = &cp
	return nil
}

func (s *GroupPurchases) FindByID(_ context.Context, id uuid.UUID) (*models.GroupPurchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.groups[id]; ok {
		cp := s.withTotals(g)
		return &cp, nil
	}
	return nil, nil
}

func (s *GroupPurchases) LockByID(ctx context.Context, id uuid.UUID) (*models.GroupPurchase, error) {
	return s.FindByID(ctx, id)
}

func (s *GroupPurchases) collect(match func(*models.GroupPurchase) bool) []models.GroupPurchase {
	var out []models.GroupPurchase
	for _, g := range s.groups {
		if match(g) {
			out = append(out, s.withTotals(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out
}

func (s *GroupPurchases) List(_ context.Context, status string, page models.Page) ([]models.GroupPurchase, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.collect(func(g *models.GroupPurchase) bool { return status == "" || g.Status == status })
	return paginate(out, page), int64(len(out)), nil
}

func (s *GroupPurchases) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.groups[id]; ok {
		g.Status = status
		g.UpdatedAt = time.Now()
	}
	return nil
}

func (s *GroupPurchases) Participants(_ context.Context, id uuid.UUID) ([]models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Participant{}, s.participants[id]...), nil
}

func (s *GroupPurchases) UpsertParticipant(_ context.Context, id uuid.UUID, p models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.participants[id]
	for i := range list {
		if list[i].UserID == p.UserID {
			list[i].Quantity = p.Quantity
			return nil
		}
	}
	p.JoinedAt = time.Now()
	p.User = nil
	s.participants[id] = append(list, p)
	return nil
}

func (s *GroupPurchases) DeleteParticipant(_ context.Context, id, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.participants[id]
	for i := range list {
		if list[i].UserID == userID {
			s.participants[id] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *GroupPurchases) ListDue(_ context.Context, now time.Time) ([]models.GroupPurchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.collect(func(g *models.GroupPurchase) bool {
		return g.Status == models.GroupOpen && !g.Deadline.After(now)
	})
	if out == nil {
		out = []models.GroupPurchase{}
	}
	return out, nil
}

// Backdate moves a purchase deadline, for arranging expiry fixtures.
func (s *GroupPurchases) Backdate(id uuid.UUID, deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.groups[id]; ok {
		g.Deadline = deadline
	}
}

type APIKeys struct{ *db }

func (s *APIKeys) Create(_ context.Context, k *models.APIKey) error {
	k.Prepare()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.apiKeys {
		if existing.KeyHash == k.KeyHash {
			return duplicate("api_keys_key_hash_key")
		}
	}
	cp := *k
	s.apiKeys[k.ID] = &cp
	return nil
}

func (s *APIKeys) FindByID(_ context.Context, id uuid.UUID) (*models.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if k, ok := s.apiKeys[id]; ok {
		cp := *k
		return &cp, nil
	}
	return nil, nil
}

func (s *APIKeys) FindByHash(_ context.Context, hash string) (*models.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.apiKeys {
		if k.KeyHash == hash {
			cp := *k
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *APIKeys) collect(match func(*models.APIKey) bool) []models.APIKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.APIKey{}
	for _, k := range s.apiKeys {
		if match(k) {
			out = append(out, *k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *APIKeys) ListByUser(_ context.Context, userID uuid.UUID) ([]models.APIKey, error) {
	return s.collect(func(k *models.APIKey) bool { return k.UserID == userID }), nil
}

func (s *APIKeys) ListAll(context.Context) ([]models.APIKey, error) {
	return s.collect(func(*models.APIKey) bool { return true }), nil
}

func (s *APIKeys) Revoke(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if k, ok := s.apiKeys[id]; ok {
		k.Revoked = true
	}
	return nil
}

func (s *APIKeys) RevokeAllForUser(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, k := range s.apiKeys {
		if k.UserID == userID && !k.Revoked {
			k.Revoked = true
			n++
		}
	}
	return n, nil
}

func (s *APIKeys) TouchLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if k, ok := s.apiKeys[id]; ok {
		k.LastUsedAt = &at
	}
	return nil
}

type Audit struct{ *db }

func (s *Audit) Append(_ context.Context, entry *models.AuditEntry) error {
	entry.Prepare()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, *entry)
	return nil
}

func (s *Audit) Recent(_ context.Context, limit int) ([]models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AuditEntry, 0, len(s.audit))
	for i := len(s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.audit[i])
	}
	return out, nil
}

type Stats struct{ *db }

func (s *Stats) Stats(_ context.Context, now time.Time) (*models.AdminStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &models.AdminStats{UsersByRole: map[string]int64{}, OrdersByStatus: map[string]int64{}}
	for _, u := range s.users {
		if u.DeletedAt == nil {
			stats.UsersByRole[u.Role]++
			stats.TotalUsers++
		}
	}
	for _, o := range s.orders {
		stats.OrdersByStatus[o.Status]++
		if o.Status != models.OrderCancelled {
			stats.RevenueCents += o.TotalCents
		}
	}
	for _, l := range s.listings {
		if l.Status == models.ListingActive {
			stats.ActiveListings++
		}
	}
	for _, g := range s.gemstones {
		if g.IsActive {
			stats.ActiveGemstones++
		}
	}
	for _, e := range s.events {
		if !e.EndsAt.Before(now) {
			stats.UpcomingEvents++
		}
	}
	for _, g := range s.groups {
		if g.Status == models.GroupOpen {
			stats.OpenGroupPurchases++
		}
	}
	return stats, nil
}

// Blacklist ignores TTLs; entries live for the whole test.
type Blacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func (b *Blacklist) Blacklist(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[jti] = time.Now().Add(ttl)
	return nil
}

func (b *Blacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[jti]
	return ok, nil
}

const pendingMarker = "pending"

type Idempotency struct {
	mu      sync.Mutex
	entries map[string]string
}

func (i *Idempotency) Claim(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	val, ok := i.entries[key]
	if !ok {
		i.entries[key] = pendingMarker
		return "", true, nil
	}
	if val == pendingMarker {
		val = ""
	}
	return val, false, nil
}

func (i *Idempotency) Complete(_ context.Context, key, value string, _ time.Duration) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries[key] = value
	return nil
}

func (i *Idempotency) Release(_ context.Context, key string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.entries, key)
	return nil
}
