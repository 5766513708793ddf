package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/ledgertycoon/ledger_tycoon/internal/adapters/state/memory"
	"github.com/ledgertycoon/ledger_tycoon/internal/apperrors"
	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
	portssvc "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/services"
)

type EventServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	svc       *portssvc.ServiceContainer
	store     *memory.Store
	companyID string
}

func (s *EventServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	container, store := newTestContainer()
	s.svc = container
	s.store = store

	s.companyID = uuid.NewString()
	err := store.SaveCompany(s.ctx, domain.Company{
		CompanyID:     s.companyID,
		Name:          "Event Co",
		Memory:        domain.NewStrategyMemory(),
		RiskModifiers: map[string]float64{},
		Flags:         map[string]bool{},
	})
	s.Require().NoError(err)
	_, err = s.svc.Ledger.InitializeChartOfAccounts(s.ctx, s.companyID)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Ledger.RecordCapitalInvestment(s.ctx, s.companyID, decimal.NewFromInt(10000)))
}

func (s *EventServiceTestSuite) supplierEvent() domain.DecisionEvent {
	return domain.DecisionEvent{
		CompanyID:   s.companyID,
		Title:       "Supplier contract renewal",
		Description: "Lock in a discount now or pay the spot price later.",
		Choices: []domain.EventChoice{
			{
				ChoiceID: "prepay",
				Label:    "Prepay for a discount",
				Effects: []domain.Effect{
					{Kind: domain.EffectCashDelta, CashDelta: decimal.NewFromInt(-2000)},
					{Kind: domain.EffectFlagSet, Flag: "supplier_discount", FlagValue: true},
				},
			},
			{
				ChoiceID: "decline",
				Label:    "Decline",
				Effects: []domain.Effect{
					{Kind: domain.EffectRiskModifierDelta, Modifier: "supply_risk", ModifierDelta: 0.10},
				},
			},
		},
		DefaultChoiceID: "decline",
		DeadlineMonth:   2,
		DeadlineYear:    1,
	}
}

func (s *EventServiceTestSuite) TestCreateEvent() {
	ev, err := s.svc.Event.CreateEvent(s.ctx, s.supplierEvent())
	s.Require().NoError(err)
	s.NotEmpty(ev.EventID)
	s.Equal(domain.EventPending, ev.Status)

	pending, err := s.svc.Event.ListPending(s.ctx)
	s.Require().NoError(err)
	s.Len(pending, 1)
}

func (s *EventServiceTestSuite) TestCreateEvent_ValidationAtDefinitionTime() {
	ev := s.supplierEvent()
	ev.Choices[0].Effects[0].CashDelta = decimal.Zero
	_, err := s.svc.Event.CreateEvent(s.ctx, ev)
	s.ErrorIs(err, apperrors.ErrValidation)

	ev = s.supplierEvent()
	ev.DefaultChoiceID = "missing"
	_, err = s.svc.Event.CreateEvent(s.ctx, ev)
	s.ErrorIs(err, apperrors.ErrValidation)

	ev = s.supplierEvent()
	ev.CompanyID = uuid.NewString()
	_, err = s.svc.Event.CreateEvent(s.ctx, ev)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *EventServiceTestSuite) TestResolveEvent_AppliesEffects() {
	ev, err := s.svc.Event.CreateEvent(s.ctx, s.supplierEvent())
	s.Require().NoError(err)

	resolved, err := s.svc.Event.ResolveEvent(s.ctx, ev.EventID, "prepay")
	s.Require().NoError(err)
	s.Equal(domain.EventResolved, resolved.Status)
	s.Equal("prepay", resolved.ResolvedChoiceID)

	cash, err := s.svc.Ledger.CashBalance(s.ctx, s.companyID)
	s.Require().NoError(err)
	s.True(cash.Equal(decimal.NewFromInt(8000)), "cash after -2000 event, got %s", cash)

	company, err := s.store.FindCompanyByID(s.ctx, s.companyID)
	s.Require().NoError(err)
	s.True(company.Flags["supplier_discount"])
}

func (s *EventServiceTestSuite) TestResolveEvent_OnlyOnce() {
	ev, err := s.svc.Event.CreateEvent(s.ctx, s.supplierEvent())
	s.Require().NoError(err)

	_, err = s.svc.Event.ResolveEvent(s.ctx, ev.EventID, "prepay")
	s.Require().NoError(err)

	_, err = s.svc.Event.ResolveEvent(s.ctx, ev.EventID, "prepay")
	s.ErrorIs(err, apperrors.ErrEventNotFoundOrExpired)

	cash, err := s.svc.Ledger.CashBalance(s.ctx, s.companyID)
	s.Require().NoError(err)
	s.True(cash.Equal(decimal.NewFromInt(8000)), "effects apply exactly once")
}

func (s *EventServiceTestSuite) TestResolveEvent_UnknownEventOrChoice() {
	_, err := s.svc.Event.ResolveEvent(s.ctx, uuid.NewString(), "prepay")
	s.ErrorIs(err, apperrors.ErrEventNotFoundOrExpired)

	ev, err := s.svc.Event.CreateEvent(s.ctx, s.supplierEvent())
	s.Require().NoError(err)

	_, err = s.svc.Event.ResolveEvent(s.ctx, ev.EventID, "nonexistent")
	s.ErrorIs(err, apperrors.ErrValidation)

	pending, err := s.svc.Event.ListPending(s.ctx)
	s.Require().NoError(err)
	s.Len(pending, 1, "a failed resolution leaves the event pending")
}

func (s *EventServiceTestSuite) TestResolveExpired_DefaultAppliedExactlyOnce() {
	ev, err := s.svc.Event.CreateEvent(s.ctx, s.supplierEvent())
	s.Require().NoError(err)

	// Deadline month 2 year 1: not expired during month 2.
	log, err := s.svc.Event.ResolveExpired(s.ctx, 2, 1)
	s.Require().NoError(err)
	s.Empty(log)

	log, err = s.svc.Event.ResolveExpired(s.ctx, 3, 1)
	s.Require().NoError(err)
	s.Len(log, 1)

	found, err := s.store.FindEventByID(s.ctx, ev.EventID)
	s.Require().NoError(err)
	s.Equal(domain.EventResolved, found.Status)
	s.Equal("decline", found.ResolvedChoiceID)

	company, err := s.store.FindCompanyByID(s.ctx, s.companyID)
	s.Require().NoError(err)
	s.InDelta(0.10, company.RiskModifiers["supply_risk"], 1e-9)

	// A second pass finds nothing pending and applies nothing.
	log, err = s.svc.Event.ResolveExpired(s.ctx, 4, 1)
	s.Require().NoError(err)
	s.Empty(log)

	company, err = s.store.FindCompanyByID(s.ctx, s.companyID)
	s.Require().NoError(err)
	s.InDelta(0.10, company.RiskModifiers["supply_risk"], 1e-9)
}

func (s *EventServiceTestSuite) TestResolveExpired_YearBoundary() {
	ev := s.supplierEvent()
	ev.DeadlineMonth = 12
	ev.DeadlineYear = 1
	created, err := s.svc.Event.CreateEvent(s.ctx, ev)
	s.Require().NoError(err)

	log, err := s.svc.Event.ResolveExpired(s.ctx, 12, 1)
	s.Require().NoError(err)
	s.Empty(log)

	log, err = s.svc.Event.ResolveExpired(s.ctx, 1, 2)
	s.Require().NoError(err)
	s.Len(log, 1)

	found, err := s.store.FindEventByID(s.ctx, created.EventID)
	s.Require().NoError(err)
	s.Equal(domain.EventResolved, found.Status)
}

func TestEventServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EventServiceTestSuite))
}
