package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/repository/ports"
)

var (
	ErrPlanValidation       = errors.New("membership plan validation failed")
	ErrPlanNotFound         = errors.New("membership plan not found")
	ErrMembershipNotFound   = errors.New("membership not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrWebhookSignature     = errors.New("webhook signature verification failed")
	ErrWebhookPayload       = errors.New("webhook payload is malformed")
	ErrPaymentAlreadyDone   = errors.New("payment already settled")
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
)

// PaymentGateway abstracts the checkout vendor. Initiate creates a hosted
// checkout and returns the vendor's transaction reference plus the URL the
// client is redirected to; VerifySignature authenticates webhook payloads.
type PaymentGateway interface {
	Initiate(ctx context.Context, req GatewayCharge) (*GatewayCheckout, error)
	VerifySignature(payload []byte, signature string) bool
}

type GatewayCharge struct {
	ReferenceID   string
	AmountCents   int64
	Currency      string
	CustomerEmail string
}

type GatewayCheckout struct {
	GatewayRef  string
	RedirectURL string
}

type PurchaseResult struct {
	Payment     *domain.Payment    `json:"payment"`
	Membership  *domain.Membership `json:"membership"`
	RedirectURL string             `json:"redirect_url"`
}

type webhookEvent struct {
	GatewayRef string `json:"transaction_ref"`
	Status     string `json:"status"`
}

type MembershipService struct {
	plans       ports.MembershipPlanRepository
	memberships ports.MembershipRepository
	payments    ports.PaymentRepository
	users       ports.UserRepository
	gateway     PaymentGateway

	currency string
	now      func() time.Time
}

func NewMembershipService(
	plans ports.MembershipPlanRepository,
	memberships ports.MembershipRepository,
	payments ports.PaymentRepository,
	users ports.UserRepository,
	gw PaymentGateway,
	currency string,
) *MembershipService {
	if currency == "" {
		currency = "USD"
	}
	return &MembershipService{
		plans:       plans,
		memberships: memberships,
		payments:    payments,
		users:       users,
		gateway:     gw,
		currency:    currency,
		now:         time.Now,
	}
}

func (s *MembershipService) CreatePlan(ctx context.Context, plan *domain.MembershipPlan) (*domain.MembershipPlan, error) {
	if plan.Name == "" || plan.PriceCents < 0 || plan.DurationDays <= 0 {
		return nil, fmt.Errorf("%w: name, non-negative price and positive duration required", ErrPlanValidation)
	}
	return s.plans.Create(ctx, plan)
}

func (s *MembershipService) UpdatePlan(ctx context.Context, plan *domain.MembershipPlan) (*domain.MembershipPlan, error) {
	if plan.Name == "" || plan.PriceCents < 0 || plan.DurationDays <= 0 {
		return nil, fmt.Errorf("%w: name, non-negative price and positive duration required", ErrPlanValidation)
	}
	updated, err := s.plans.Update(ctx, plan)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (s *MembershipService) ListPlans(ctx context.Context) ([]domain.MembershipPlan, error) {
	return s.plans.List(ctx)
}

func (s *MembershipService) DeletePlan(ctx context.Context, id uuid.UUID) error {
	return s.plans.Delete(ctx, id)
}

// Purchase opens a pending membership and a pending payment, then hands off
// to the gateway. The membership only activates when the completed webhook
// arrives.
func (s *MembershipService) Purchase(ctx context.Context, userID, planID uuid.UUID) (*PurchaseResult, error) {
	if s.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}

	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	membership, err := s.memberships.Create(ctx, userID, planID, domain.MembershipPending)
	if err != nil {
		return nil, err
	}

	payment, err := s.payments.Create(ctx, &domain.Payment{
		UserID:       userID,
		MembershipID: membership.ID,
		AmountCents:  plan.PriceCents,
		Currency:     s.currency,
	})
	if err != nil {
		return nil, err
	}

	checkout, err := s.gateway.Initiate(ctx, GatewayCharge{
		ReferenceID:   payment.ID.String(),
		AmountCents:   plan.PriceCents,
		Currency:      s.currency,
		CustomerEmail: user.Email,
	})
	if err != nil {
		return nil, err
	}
	if err := s.payments.SetGatewayRef(ctx, payment.ID, checkout.GatewayRef); err != nil {
		return nil, err
	}
	ref := checkout.GatewayRef
	payment.GatewayRef = &ref

	return &PurchaseResult{
		Payment:     payment,
		Membership:  membership,
		RedirectURL: checkout.RedirectURL,
	}, nil
}

// HandleWebhook processes a gateway callback. Signature first, then a
// status-guarded settle so duplicate deliveries cannot re-activate anything.
func (s *MembershipService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*domain.Payment, error) {
	if s.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}
	if !s.gateway.VerifySignature(payload, signature) {
		return nil, ErrWebhookSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil || event.GatewayRef == "" {
		return nil, ErrWebhookPayload
	}

	switch event.Status {
	case "completed":
		payment, err := s.payments.MarkCompleted(ctx, event.GatewayRef)
		if err != nil {
			if errors.Is(err, ports.ErrPaymentSettled) {
				return nil, ErrPaymentAlreadyDone
			}
			if isNotFound(err) {
				return nil, ErrPaymentNotFound
			}
			return nil, err
		}
		if err := s.activateFor(ctx, payment); err != nil {
			return nil, err
		}
		return payment, nil
	case "failed", "cancelled":
		payment, err := s.payments.MarkFailed(ctx, event.GatewayRef)
		if err != nil {
			if errors.Is(err, ports.ErrPaymentSettled) {
				return nil, ErrPaymentAlreadyDone
			}
			if isNotFound(err) {
				return nil, ErrPaymentNotFound
			}
			return nil, err
		}
		return payment, nil
	default:
		return nil, ErrWebhookPayload
	}
}

func (s *MembershipService) activateFor(ctx context.Context, payment *domain.Payment) error {
	membership, err := s.memberships.FindByID(ctx, payment.MembershipID)
	if err != nil {
		if isNotFound(err) {
			return ErrMembershipNotFound
		}
		return err
	}
	plan, err := s.plans.FindByID(ctx, membership.PlanID)
	if err != nil {
		if isNotFound(err) {
			return ErrPlanNotFound
		}
		return err
	}

	startsAt := s.now()
	// Stacked purchases extend the current membership instead of running in
	// parallel.
	if current, err := s.memberships.FindActiveByUser(ctx, membership.UserID, startsAt); err == nil && current.EndsAt != nil {
		startsAt = *current.EndsAt
	} else if err != nil && !isNotFound(err) {
		return err
	}
	endsAt := startsAt.AddDate(0, 0, plan.DurationDays)

	_, err = s.memberships.Activate(ctx, membership.ID, startsAt, endsAt)
	return err
}

func (s *MembershipService) ActiveMembership(ctx context.Context, userID uuid.UUID) (*domain.Membership, error) {
	membership, err := s.memberships.FindActiveByUser(ctx, userID, s.now())
	if err != nil {
		if isNotFound(err) {
			return nil, ErrMembershipNotFound
		}
		return nil, err
	}
	return membership, nil
}

func (s *MembershipService) MyMemberships(ctx context.Context, userID uuid.UUID) ([]domain.Membership, error) {
	return s.memberships.ListByUser(ctx, userID)
}

func (s *MembershipService) MyPayments(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.payments.ListByUser(ctx, userID, limit, offset)
}
