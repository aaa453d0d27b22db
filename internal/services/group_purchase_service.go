package services

import (
	"context"
	"fmt"
	"time"

	"jewelconnect/internal/metrics"
	"jewelconnect/internal/models"
	"jewelconnect/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MinGroupTarget = 2

type GroupPurchaseInput struct {
	GemstoneID     uuid.UUID
	Title          string
	Description    string
	TargetQuantity int
	UnitPriceCents int64
	Deadline       time.Time
}

type GroupPurchaseService struct {
	tx     Transactor
	groups GroupPurchaseStore
	gems   GemstoneStore
	users  UserStore
	log    *zap.Logger
	now    func() time.Time
}

func NewGroupPurchaseService(tx Transactor, groups GroupPurchaseStore, gems GemstoneStore, users UserStore, log *zap.Logger) *GroupPurchaseService {
	return &GroupPurchaseService{tx: tx, groups: groups, gems: gems, users: users, log: log, now: time.Now}
}

func (s *GroupPurchaseService) List(ctx context.Context, status string, page models.Page) ([]models.GroupPurchase, models.PageMeta, error) {
	if status == "" {
		status = models.GroupOpen
	}
	if status != "all" && !utils.Contains(models.GroupStatuses, status) {
		return nil, models.PageMeta{}, invalid("unknown status")
	}
	if status == "all" {
		status = ""
	}
	groups, total, err := s.groups.List(ctx, status, page)
	if err != nil {
		return nil, models.PageMeta{}, fmt.Errorf("list group purchases: %w", err)
	}
	return groups, models.NewPageMeta(page, total), nil
}

func (s *GroupPurchaseService) Get(ctx context.Context, id uuid.UUID) (*models.GroupPurchase, error) {
	g, err := s.groups.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}

	participants, err := s.groups.Participants(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(participants))
	for i := range participants {
		ids[i] = participants[i].UserID
	}
	cards, err := summaries(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}
	for i := range participants {
		card := cards[participants[i].UserID]
		participants[i].User = &card
	}
	g.Participants = participants
	return g, nil
}

func (s *GroupPurchaseService) Create(ctx context.Context, organizerID uuid.UUID, in GroupPurchaseInput) (*models.GroupPurchase, error) {
	title := utils.CleanText(in.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	if in.TargetQuantity < MinGroupTarget {
		return nil, invalid(fmt.Sprintf("target_quantity must be at least %d", MinGroupTarget))
	}
	if !in.Deadline.After(s.now()) {
		return nil, invalid("deadline must be in the future")
	}

	gem, err := s.gems.FindByID(ctx, in.GemstoneID)
	if err != nil {
		return nil, err
	}
	if gem == nil || !gem.IsActive {
		return nil, ErrGemstoneNotFound
	}
	if in.UnitPriceCents <= 0 || in.UnitPriceCents >= gem.PriceCents {
		return nil, invalid("unit_price_cents must be positive and below the gemstone price")
	}

	g := &models.GroupPurchase{
		OrganizerID:    organizerID,
		GemstoneID:     gem.ID,
		Title:          title,
		Description:    utils.CleanText(in.Description),
		TargetQuantity: in.TargetQuantity,
		UnitPriceCents: in.UnitPriceCents,
		Deadline:       in.Deadline,
		Status:         models.GroupOpen,
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create group purchase: %w", err)
	}
	return g, nil
}

// Join commits quantity units, replacing any earlier commitment. Reaching the
// target funds the purchase immediately.
func (s *GroupPurchaseService) Join(ctx context.Context, userID, id uuid.UUID, quantity int) (*models.GroupPurchase, error) {
	if quantity < 1 {
		return nil, invalid("quantity must be at least 1")
	}

	var g *models.GroupPurchase
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		var err error
		g, err = s.groups.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if g == nil {
			return ErrGroupNotFound
		}
		if !g.IsJoinable(s.now()) {
			return ErrGroupClosed
		}

		if err := s.groups.UpsertParticipant(ctx, id, models.Participant{UserID: userID, Quantity: quantity}); err != nil {
			return err
		}
		g, err = s.groups.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if g.CommittedQuantity >= g.TargetQuantity {
			g.Status = models.GroupFunded
			return s.groups.SetStatus(ctx, id, models.GroupFunded)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if g.Status == models.GroupFunded {
		s.log.Info("group purchase funded", zap.String("group_purchase_id", id.String()), zap.Int("committed", g.CommittedQuantity))
	}
	return g, nil
}

func (s *GroupPurchaseService) Leave(ctx context.Context, userID, id uuid.UUID) error {
	return s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		g, err := s.groups.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if g == nil {
			return ErrGroupNotFound
		}
		if g.Status != models.GroupOpen {
			return ErrGroupClosed
		}
		removed, err := s.groups.DeleteParticipant(ctx, id, userID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrNotParticipant
		}
		return nil
	})
}

func (s *GroupPurchaseService) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*models.GroupPurchase, error) {
	var g *models.GroupPurchase
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		var err error
		g, err = s.groups.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if g == nil {
			return ErrGroupNotFound
		}
		if !actor.CanManage(g.OrganizerID) {
			return ErrNotOwner
		}
		if g.Status != models.GroupOpen {
			return ErrGroupClosed
		}
		g.Status = models.GroupCancelled
		return s.groups.SetStatus(ctx, id, models.GroupCancelled)
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// CloseExpired settles every open purchase whose deadline has passed.
func (s *GroupPurchaseService) CloseExpired(ctx context.Context, now time.Time) (int, error) {
	due, err := s.groups.ListDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list due group purchases: %w", err)
	}

	closed := 0
	for _, candidate := range due {
		err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
			g, err := s.groups.LockByID(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if g == nil || g.Status != models.GroupOpen {
				return nil
			}
			status := g.ClosingStatus()
			if err := s.groups.SetStatus(ctx, g.ID, status); err != nil {
				return err
			}
			closed++
			metrics.RecordGroupPurchaseClosed(status)
			s.log.Info("group purchase closed",
				zap.String("group_purchase_id", g.ID.String()),
				zap.String("status", status),
				zap.Int("committed", g.CommittedQuantity),
				zap.Int("target", g.TargetQuantity),
			)
			return nil
		})
		if err != nil {
			return closed, fmt.Errorf("close group purchase %s: %w", candidate.ID, err)
		}
	}
	return closed, nil
}
