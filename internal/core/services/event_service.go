package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgertycoon/ledger_tycoon/internal/apperrors"
	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
	portsrepo "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/repositories"
	portssvc "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/services"
	"github.com/ledgertycoon/ledger_tycoon/internal/dto"
	"github.com/ledgertycoon/ledger_tycoon/internal/middleware"
)

// eventService owns decision events: definition-time validation, explicit
// resolution and deadline-based default resolution. Resolution applies a
// choice's typed effects and is atomic: either the event flips to resolved
// with all effects applied, or nothing changes.
type eventService struct {
	eventRepo   portsrepo.EventRepository
	companyRepo portsrepo.CompanyRepository
	ledgerSvc   portssvc.LedgerSvcFacade
	uow         portsrepo.UnitOfWork
	guard       *TurnGuard
}

// NewEventService creates a new EventService.
func NewEventService(
	eventRepo portsrepo.EventRepository,
	companyRepo portsrepo.CompanyRepository,
	ledgerSvc portssvc.LedgerSvcFacade,
	uow portsrepo.UnitOfWork,
	guard *TurnGuard,
) portssvc.EventSvcFacade {
	return &eventService{
		eventRepo:   eventRepo,
		companyRepo: companyRepo,
		ledgerSvc:   ledgerSvc,
		uow:         uow,
		guard:       guard,
	}
}

var _ portssvc.EventSvcFacade = (*eventService)(nil)

// CreateEvent validates and stores a new pending event. Malformed effects are
// rejected here, at definition time, never at application time.
func (s *eventService) CreateEvent(ctx context.Context, ev domain.DecisionEvent) (*domain.DecisionEvent, error) {
	defer s.guard.Acquire(ctx)()

	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	ev.Status = domain.EventPending
	ev.ResolvedChoiceID = ""
	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if _, err := s.companyRepo.FindCompanyByID(ctx, ev.CompanyID); err != nil {
		return nil, fmt.Errorf("failed to find event company: %w", err)
	}
	if err := s.eventRepo.SaveEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("failed to save event: %w", err)
	}
	return &ev, nil
}

// ResolveEvent applies the chosen option to a pending event.
func (s *eventService) ResolveEvent(ctx context.Context, eventID, choiceID string) (*domain.DecisionEvent, error) {
	defer s.guard.Acquire(ctx)()

	var resolved *domain.DecisionEvent
	err := s.runAtomic(ctx, func(ctx context.Context) error {
		var err error
		resolved, err = s.resolve(ctx, eventID, choiceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// ResolveExpired applies the default choice of every pending event whose
// deadline has passed. Each event resolves exactly once: resolution flips its
// status, so a second pass never sees it pending again.
func (s *eventService) ResolveExpired(ctx context.Context, month, year int) ([]string, error) {
	defer s.guard.Acquire(ctx)()
	logger := middleware.GetLoggerFromCtx(ctx)

	pending, err := s.eventRepo.ListPendingEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending events: %w", err)
	}
	var log []string
	for _, ev := range pending {
		if !ev.Expired(month, year) {
			continue
		}
		err := s.runAtomic(ctx, func(ctx context.Context) error {
			_, err := s.resolve(ctx, ev.EventID, ev.DefaultChoiceID)
			return err
		})
		if err != nil {
			return nil, err
		}
		logger.Info("event default-resolved",
			slog.String("event_id", ev.EventID),
			slog.String("choice_id", ev.DefaultChoiceID),
		)
		log = append(log, fmt.Sprintf("Event %q expired, default choice %q applied", ev.Title, ev.DefaultChoiceID))
	}
	return log, nil
}

// ListPending lists events still awaiting a decision.
func (s *eventService) ListPending(ctx context.Context) ([]domain.DecisionEvent, error) {
	return s.eventRepo.ListPendingEvents(ctx)
}

// runAtomic wraps fn in a unit of work, unless the turn scheduler already
// opened one for the whole turn.
func (s *eventService) runAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTurn(ctx) {
		return fn(ctx)
	}
	return s.uow.RunAtomic(ctx, fn)
}

func (s *eventService) resolve(ctx context.Context, eventID, choiceID string) (*domain.DecisionEvent, error) {
	ev, err := s.eventRepo.FindEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrEventNotFoundOrExpired, eventID)
	}
	if ev.Status != domain.EventPending {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrEventNotFoundOrExpired, eventID)
	}
	choice, ok := ev.Choice(choiceID)
	if !ok {
		return nil, fmt.Errorf("%w: choice %q not defined on event %s", apperrors.ErrValidation, choiceID, eventID)
	}

	if err := s.applyEffects(ctx, ev.CompanyID, ev.Title, choice.Effects); err != nil {
		return nil, err
	}

	ev.Status = domain.EventResolved
	ev.ResolvedChoiceID = choiceID
	if err := s.eventRepo.SaveEvent(ctx, *ev); err != nil {
		return nil, fmt.Errorf("failed to save resolved event: %w", err)
	}
	return ev, nil
}

// applyEffects applies a choice's typed effects. Cash deltas post through the
// ledger so the books stay balanced: a gain is Other Income, a loss is Event
// Expense.
func (s *eventService) applyEffects(ctx context.Context, companyID, title string, effects []domain.Effect) error {
	company, err := s.companyRepo.FindCompanyByID(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to find company: %w", err)
	}
	companyDirty := false

	for _, eff := range effects {
		switch eff.Kind {
		case domain.EffectCashDelta:
			var entries []dto.TransactionEntryRequest
			if eff.CashDelta.IsPositive() {
				entries = []dto.TransactionEntryRequest{
					{AccountCode: domain.CodeCash, Debit: eff.CashDelta},
					{AccountCode: domain.CodeOtherIncome, Credit: eff.CashDelta},
				}
			} else {
				amount := eff.CashDelta.Neg()
				entries = []dto.TransactionEntryRequest{
					{AccountCode: domain.CodeEventExpense, Debit: amount},
					{AccountCode: domain.CodeCash, Credit: amount},
				}
			}
			if _, err := s.ledgerSvc.PostTransaction(ctx, companyID, time.Time{}, fmt.Sprintf("Event: %s", title), entries); err != nil {
				return fmt.Errorf("failed to post event cash effect: %w", err)
			}
		case domain.EffectRiskModifierDelta:
			company.RiskModifiers[eff.Modifier] += eff.ModifierDelta
			companyDirty = true
		case domain.EffectFlagSet:
			company.Flags[eff.Flag] = eff.FlagValue
			companyDirty = true
		}
	}

	if companyDirty {
		if err := s.companyRepo.SaveCompany(ctx, *company); err != nil {
			return fmt.Errorf("failed to save company: %w", err)
		}
	}
	return nil
}
