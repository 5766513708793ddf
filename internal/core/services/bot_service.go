package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ledgertycoon/ledger_tycoon/internal/apperrors"
	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
	portsrepo "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/repositories"
	portssvc "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/services"
	"github.com/ledgertycoon/ledger_tycoon/internal/middleware"
)

// botService runs one bot company's turn: it updates the strategy memory from
// last turn's outcomes, then lets the personality strategy set prices and
// place purchase orders. All of it is deterministic; the only randomness in
// the simulation lives in the demand curve.
type botService struct {
	companyRepo   portsrepo.CompanyRepository
	productRepo   portsrepo.ProductRepository
	inventoryRepo portsrepo.InventoryRepository
	priceRepo     portsrepo.PriceRepository
	historyRepo   portsrepo.MarketHistoryRepository
	ledgerSvc     portssvc.LedgerSvcFacade
	inventorySvc  portssvc.InventorySvcFacade
	marketSvc     portssvc.MarketSvcFacade
}

// NewBotService creates a new BotService.
func NewBotService(
	companyRepo portsrepo.CompanyRepository,
	productRepo portsrepo.ProductRepository,
	inventoryRepo portsrepo.InventoryRepository,
	priceRepo portsrepo.PriceRepository,
	historyRepo portsrepo.MarketHistoryRepository,
	ledgerSvc portssvc.LedgerSvcFacade,
	inventorySvc portssvc.InventorySvcFacade,
	marketSvc portssvc.MarketSvcFacade,
) portssvc.BotSvcFacade {
	return &botService{
		companyRepo:   companyRepo,
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		priceRepo:     priceRepo,
		historyRepo:   historyRepo,
		ledgerSvc:     ledgerSvc,
		inventorySvc:  inventorySvc,
		marketSvc:     marketSvc,
	}
}

var _ portssvc.BotSvcFacade = (*botService)(nil)

// DecideTurn runs the bot's decisions for the month and returns log lines
// describing them. Player and bankrupt companies are skipped.
func (s *botService) DecideTurn(ctx context.Context, companyID string, month, year int) ([]string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	company, err := s.companyRepo.FindCompanyByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to find company: %w", err)
	}
	if company.IsPlayer || company.Bankrupt {
		return nil, nil
	}

	strategy := StrategyFor(company.Personality)
	products, err := s.productRepo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	var log []string
	for _, product := range products {
		s.learnFromLastTurn(ctx, company, product, month, year)

		view, err := s.productView(ctx, companyID, product)
		if err != nil {
			return nil, err
		}
		cash, err := s.ledgerSvc.CashBalance(ctx, companyID)
		if err != nil {
			return nil, fmt.Errorf("failed to read cash balance: %w", err)
		}

		decision := strategy.DecideNextTurn(CompanyView{Company: *company, Cash: cash}, view)

		if decision.Price.IsPositive() && !decision.Price.Equal(view.CurrentPrice) {
			if _, err := s.marketSvc.SetPrice(ctx, companyID, product.ProductID, decision.Price); err != nil {
				if errors.Is(err, apperrors.ErrInvalidPrice) {
					logger.Warn("bot price rejected",
						slog.String("company_id", companyID),
						slog.String("sku", product.SKU),
						slog.String("price", decision.Price.String()),
					)
				} else {
					return nil, err
				}
			} else {
				log = append(log, fmt.Sprintf("%s priced %s at %s", company.Name, product.SKU, decision.Price))
			}
		}

		if decision.PurchaseQty > 0 {
			modifier, err := s.marketSvc.CostModifier(ctx, product.ProductID)
			if err != nil {
				return nil, err
			}
			cost := product.BaseCost.Mul(decimal.NewFromFloat(modifier)).Round(2)
			if _, err := s.inventorySvc.PurchaseInventory(ctx, companyID, product.ProductID, decision.PurchaseQty, cost); err != nil {
				if errors.Is(err, apperrors.ErrInvalidQuantity) || errors.Is(err, apperrors.ErrValidation) {
					continue
				}
				return nil, err
			}
			log = append(log, fmt.Sprintf("%s purchased %d x %s @ %s", company.Name, decision.PurchaseQty, product.SKU, cost))
		}
	}

	if err := s.companyRepo.SaveCompany(ctx, *company); err != nil {
		return nil, fmt.Errorf("failed to save company: %w", err)
	}
	return log, nil
}

// learnFromLastTurn updates the structured strategy memory from last turn's
// outcome for one product: accumulated pricing regret when the bot sold out
// below the market average price, and inventory waste when stock piles up
// well past the forecast.
func (s *botService) learnFromLastTurn(ctx context.Context, company *domain.Company, product domain.Product, month, year int) {
	records, err := s.historyRepo.ListRecentRecords(ctx, company.CompanyID, product.ProductID, 1)
	if err == nil && len(records) == 1 {
		last := records[0]
		if last.DemandAllocated > 0 && last.UnitsSold == last.DemandAllocated {
			if avg, ok := s.marketAveragePrice(ctx, product.ProductID); ok && last.Price.LessThan(avg) {
				regret := avg.Sub(last.Price).Mul(decimal.NewFromInt(last.UnitsSold))
				before := company.Memory.PricingRegret[product.ProductID]
				after := before.Add(regret)
				company.Memory.PricingRegret[product.ProductID] = after
				if before.LessThanOrEqual(regretTrigger) && after.GreaterThan(regretTrigger) {
					company.Memory.RecordAdaptation(domain.Adaptation{
						Month:  month,
						Year:   year,
						Reason: "pricing regret",
						Detail: fmt.Sprintf("%s sold out below market average, raising price", product.SKU),
					})
				}
			}
		}
	}

	pos, err := s.inventoryRepo.FindPosition(ctx, company.CompanyID, product.ProductID)
	if err != nil {
		return
	}
	forecast, err := s.inventorySvc.ForecastDemand(ctx, company.CompanyID, product.ProductID)
	if err != nil || forecast <= 0 {
		return
	}
	if float64(pos.Quantity) > wasteStockRatio*forecast {
		company.Memory.InventoryWaste[product.ProductID]++
		company.Memory.RecordAdaptation(domain.Adaptation{
			Month:  month,
			Year:   year,
			Reason: "inventory waste",
			Detail: fmt.Sprintf("%s stock at %d against forecast %.0f, ordering less", product.SKU, pos.Quantity, forecast),
		})
	}
}

// marketAveragePrice is the mean standing offer price for a product across
// all companies.
func (s *botService) marketAveragePrice(ctx context.Context, productID string) (decimal.Decimal, bool) {
	prices, err := s.priceRepo.ListPricesByProduct(ctx, productID)
	if err != nil || len(prices) == 0 {
		return decimal.Zero, false
	}
	sum := decimal.Zero
	for _, ps := range prices {
		sum = sum.Add(ps.Price)
	}
	return sum.DivRound(decimal.NewFromInt(int64(len(prices))), 4), true
}

func (s *botService) productView(ctx context.Context, companyID string, product domain.Product) (ProductView, error) {
	view := ProductView{Product: product, WAC: decimal.Zero, CurrentPrice: decimal.Zero, CostModifier: 1.0}

	pos, err := s.inventoryRepo.FindPosition(ctx, companyID, product.ProductID)
	switch {
	case err == nil:
		view.OnHand = pos.Quantity
		view.WAC = pos.WAC
	case !errors.Is(err, apperrors.ErrNotFound):
		return view, fmt.Errorf("failed to find inventory position: %w", err)
	}

	ps, err := s.priceRepo.FindPriceState(ctx, companyID, product.ProductID)
	switch {
	case err == nil:
		view.CurrentPrice = ps.Price
	case !errors.Is(err, apperrors.ErrNotFound):
		return view, fmt.Errorf("failed to find price state: %w", err)
	}

	forecast, err := s.inventorySvc.ForecastDemand(ctx, companyID, product.ProductID)
	if err != nil {
		return view, err
	}
	view.Forecast = forecast

	reorder, err := s.inventorySvc.ReorderQuantity(ctx, companyID, product.ProductID)
	if err != nil {
		return view, err
	}
	view.ReorderQty = reorder

	modifier, err := s.marketSvc.CostModifier(ctx, product.ProductID)
	if err != nil {
		return view, err
	}
	view.CostModifier = modifier

	view.ShareTrend = s.shareTrend(ctx, companyID, product.ProductID)
	view.CompetitorAvgPrice = s.competitorAveragePrice(ctx, companyID, product.ProductID)
	return view, nil
}

// shareTrend is the relative change in units sold between the last two
// recorded turns, the strategy's proxy for its market-share direction. Zero
// until two turns of history exist.
func (s *botService) shareTrend(ctx context.Context, companyID, productID string) float64 {
	records, err := s.historyRepo.ListRecentRecords(ctx, companyID, productID, 2)
	if err != nil || len(records) < 2 || records[1].UnitsSold == 0 {
		return 0
	}
	prev := float64(records[1].UnitsSold)
	return (float64(records[0].UnitsSold) - prev) / prev
}

// competitorAveragePrice is the mean standing offer price of the other
// companies for a product; zero when the company is alone in the market.
func (s *botService) competitorAveragePrice(ctx context.Context, companyID, productID string) decimal.Decimal {
	prices, err := s.priceRepo.ListPricesByProduct(ctx, productID)
	if err != nil {
		return decimal.Zero
	}
	sum, n := decimal.Zero, int64(0)
	for _, ps := range prices {
		if ps.CompanyID == companyID {
			continue
		}
		sum = sum.Add(ps.Price)
		n++
	}
	if n == 0 {
		return decimal.Zero
	}
	return sum.DivRound(decimal.NewFromInt(n), 4)
}
