package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgertycoon/ledger_tycoon/internal/apperrors"
	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
	portsrepo "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/repositories"
	portssvc "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/services"
	"github.com/ledgertycoon/ledger_tycoon/internal/dto"
	"github.com/ledgertycoon/ledger_tycoon/internal/middleware"
	"github.com/ledgertycoon/ledger_tycoon/internal/platform/config"
)

// turnService runs the fixed monthly sequence. The whole turn executes under
// the exclusive side of the turn guard and inside a single unit of work, so a
// concurrent AdvanceTurn fails fast and a mid-turn failure leaves no partial
// state behind.
type turnService struct {
	companyRepo portsrepo.CompanyRepository
	productRepo portsrepo.ProductRepository
	priceRepo   portsrepo.PriceRepository
	historyRepo portsrepo.MarketHistoryRepository
	stateRepo   portsrepo.GameStateRepository
	ledgerSvc   portssvc.LedgerSvcFacade
	invSvc      portssvc.InventorySvcFacade
	marketSvc   portssvc.MarketSvcFacade
	botSvc      portssvc.BotSvcFacade
	eventSvc    portssvc.EventSvcFacade
	reportSvc   portssvc.ReportingSvcFacade
	uow         portsrepo.UnitOfWork
	guard       *TurnGuard
	cfg         config.SimulationConfig
}

// NewTurnService creates a new TurnService.
func NewTurnService(
	companyRepo portsrepo.CompanyRepository,
	productRepo portsrepo.ProductRepository,
	priceRepo portsrepo.PriceRepository,
	historyRepo portsrepo.MarketHistoryRepository,
	stateRepo portsrepo.GameStateRepository,
	ledgerSvc portssvc.LedgerSvcFacade,
	invSvc portssvc.InventorySvcFacade,
	marketSvc portssvc.MarketSvcFacade,
	botSvc portssvc.BotSvcFacade,
	eventSvc portssvc.EventSvcFacade,
	reportSvc portssvc.ReportingSvcFacade,
	uow portsrepo.UnitOfWork,
	guard *TurnGuard,
	cfg config.SimulationConfig,
) portssvc.TurnSvcFacade {
	return &turnService{
		companyRepo: companyRepo,
		productRepo: productRepo,
		priceRepo:   priceRepo,
		historyRepo: historyRepo,
		stateRepo:   stateRepo,
		ledgerSvc:   ledgerSvc,
		invSvc:      invSvc,
		marketSvc:   marketSvc,
		botSvc:      botSvc,
		eventSvc:    eventSvc,
		reportSvc:   reportSvc,
		uow:         uow,
		guard:       guard,
		cfg:         cfg,
	}
}

var _ portssvc.TurnSvcFacade = (*turnService)(nil)

// CurrentState returns the simulated calendar.
func (s *turnService) CurrentState(ctx context.Context) (*domain.GameState, error) {
	return s.stateRepo.GetState(ctx)
}

// AdvanceTurn processes one month: market conditions, rent, demand and sales,
// bot decisions, expired events, snapshots, then the calendar advance and
// bankruptcy check.
func (s *turnService) AdvanceTurn(ctx context.Context) (*domain.TurnSummary, error) {
	release, err := s.guard.BeginTurn()
	if err != nil {
		return nil, err
	}
	defer release()
	logger := middleware.GetLoggerFromCtx(ctx)

	state, err := s.stateRepo.GetState(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: game not initialized", apperrors.ErrValidation)
	}
	if state.Over {
		return nil, fmt.Errorf("%w: game is over", apperrors.ErrValidation)
	}

	ctx = WithTurn(ctx)
	summary := &domain.TurnSummary{Month: state.Month, Year: state.Year}

	err = s.uow.RunAtomic(ctx, func(ctx context.Context) error {
		return s.runTurn(ctx, state, summary)
	})
	if err != nil {
		logger.Error("turn rolled back",
			slog.Int("month", summary.Month),
			slog.Int("year", summary.Year),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrGameLogic, err)
	}

	logger.Info("turn completed",
		slog.Int("month", summary.Month),
		slog.Int("year", summary.Year),
		slog.Bool("game_over", summary.GameOver),
	)
	return summary, nil
}

func (s *turnService) runTurn(ctx context.Context, state *domain.GameState, summary *domain.TurnSummary) error {
	month, year := state.Month, state.Year

	// Step 0: market conditions.
	triggered, err := s.marketSvc.RefreshConditions(ctx, month, year)
	if err != nil {
		return err
	}
	for _, cond := range triggered {
		summary.Log = append(summary.Log, cond.Description)
	}

	companies, err := s.companyRepo.ListCompanies(ctx)
	if err != nil {
		return err
	}

	// Step 1: rent.
	for _, company := range companies {
		if company.Bankrupt {
			continue
		}
		_, err := s.ledgerSvc.PostTransaction(ctx, company.CompanyID, time.Time{}, "Monthly warehouse rent",
			[]dto.TransactionEntryRequest{
				{AccountCode: domain.CodeRentExpense, Debit: s.cfg.MonthlyRent},
				{AccountCode: domain.CodeCash, Credit: s.cfg.MonthlyRent},
			})
		if err != nil {
			return err
		}
		summary.Log = append(summary.Log, fmt.Sprintf("%s paid rent of %s", company.Name, s.cfg.MonthlyRent))
	}

	// Steps 2 and 3: demand and sales.
	if err := s.runMarket(ctx, companies, month, year, summary); err != nil {
		return err
	}

	// Step 4: bot decisions, ascending company ID.
	for _, company := range companies {
		lines, err := s.botSvc.DecideTurn(ctx, company.CompanyID, month, year)
		if err != nil {
			return err
		}
		summary.Log = append(summary.Log, lines...)
	}

	// Step 5: expired events.
	lines, err := s.eventSvc.ResolveExpired(ctx, month, year)
	if err != nil {
		return err
	}
	summary.Log = append(summary.Log, lines...)

	// End-of-month snapshots carry the month just played.
	if _, err := s.reportSvc.RecordSnapshots(ctx, month, year); err != nil {
		return err
	}

	// Step 6: calendar advance and bankruptcy check.
	state.AdvanceMonth()
	if err := s.checkBankruptcies(ctx, state, summary); err != nil {
		return err
	}
	if err := s.marketSvc.DecayConditions(ctx); err != nil {
		return err
	}
	if err := s.stateRepo.SaveState(ctx, *state); err != nil {
		return err
	}

	pendingEvents, err := s.eventSvc.ListPending(ctx)
	if err != nil {
		return err
	}
	summary.NewEvents = pendingEvents
	return nil
}

// runMarket computes demand per product, allocates it across standing offers
// and posts the resulting sales: revenue through the ledger, fulfillment and
// COGS through the inventory service, plus the market history row and the
// bots' stockout memory.
func (s *turnService) runMarket(ctx context.Context, companies []domain.Company, month, year int, summary *domain.TurnSummary) error {
	byID := make(map[string]*domain.Company, len(companies))
	dirty := make(map[string]bool)
	for i := range companies {
		byID[companies[i].CompanyID] = &companies[i]
	}

	products, err := s.productRepo.ListProducts(ctx)
	if err != nil {
		return err
	}

	for _, product := range products {
		totalDemand, notes, err := s.marketSvc.TotalDemand(ctx, product.ProductID, month)
		if err != nil {
			return err
		}
		if len(notes) > 0 {
			summary.Log = append(summary.Log, fmt.Sprintf("%s demand %d (%s)", product.SKU, totalDemand, joinNotes(notes)))
		}

		prices, err := s.priceRepo.ListPricesByProduct(ctx, product.ProductID)
		if err != nil {
			return err
		}
		var offers []domain.Offer
		for _, ps := range prices {
			company, ok := byID[ps.CompanyID]
			if !ok || company.Bankrupt {
				continue
			}
			offers = append(offers, domain.Offer{
				CompanyID:   ps.CompanyID,
				Price:       ps.Price,
				BrandEquity: company.BrandEquity,
			})
		}
		alloc := s.marketSvc.AllocateDemand(totalDemand, offers)

		for _, ps := range prices {
			company, ok := byID[ps.CompanyID]
			if !ok || company.Bankrupt {
				continue
			}
			requested := alloc[ps.CompanyID]

			result, err := s.invSvc.RecordSale(ctx, ps.CompanyID, product.ProductID, requested)
			if err != nil {
				return err
			}

			revenue := decimal.Zero
			if result.Fulfilled > 0 {
				revenue = ps.Price.Mul(decimal.NewFromInt(result.Fulfilled))
				_, err := s.ledgerSvc.PostTransaction(ctx, ps.CompanyID, time.Time{},
					fmt.Sprintf("Sale of %d x %s", result.Fulfilled, product.SKU),
					[]dto.TransactionEntryRequest{
						{AccountCode: domain.CodeCash, Debit: revenue},
						{AccountCode: domain.CodeSalesRevenue, Credit: revenue},
					})
				if err != nil {
					return err
				}
				summary.Log = append(summary.Log, fmt.Sprintf("%s sold %d x %s for %s", company.Name, result.Fulfilled, product.SKU, revenue))
			}

			ps.UnitsSold = result.Fulfilled
			ps.Revenue = revenue
			if err := s.priceRepo.SavePriceState(ctx, ps); err != nil {
				return err
			}

			rec := domain.MarketRecord{
				CompanyID:       ps.CompanyID,
				ProductID:       product.ProductID,
				Month:           month,
				Year:            year,
				Price:           ps.Price,
				UnitsSold:       result.Fulfilled,
				Revenue:         revenue,
				DemandAllocated: requested,
			}
			if err := s.historyRepo.SaveMarketRecord(ctx, rec); err != nil {
				return err
			}

			if result.Stockout() {
				summary.Log = append(summary.Log, fmt.Sprintf("%s stocked out of %s (missed %d units)", company.Name, product.SKU, result.Shortfall))
				if !company.IsPlayer {
					company.Memory.Stockouts[product.ProductID]++
					dirty[company.CompanyID] = true
				}
			}
		}
	}

	for id := range dirty {
		if err := s.companyRepo.SaveCompany(ctx, *byID[id]); err != nil {
			return err
		}
	}
	return nil
}

// checkBankruptcies flags every company whose net worth fell below the
// threshold; any bankruptcy turns the game over.
func (s *turnService) checkBankruptcies(ctx context.Context, state *domain.GameState, summary *domain.TurnSummary) error {
	companies, err := s.companyRepo.ListCompanies(ctx)
	if err != nil {
		return err
	}
	for _, company := range companies {
		if company.Bankrupt {
			continue
		}
		netWorth, err := s.ledgerSvc.NetWorth(ctx, company.CompanyID)
		if err != nil {
			return err
		}
		if netWorth.GreaterThanOrEqual(s.cfg.BankruptcyThreshold) {
			continue
		}
		company.Bankrupt = true
		if err := s.companyRepo.SaveCompany(ctx, company); err != nil {
			return err
		}
		summary.Log = append(summary.Log, fmt.Sprintf("%s is bankrupt (net worth %s)", company.Name, netWorth))
		summary.GameOver = true
		state.Over = true
	}
	return nil
}

func joinNotes(notes []string) string {
	out := notes[0]
	for _, n := range notes[1:] {
		out += ", " + n
	}
	return out
}
