package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
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

const (
	// forecastWindow is how many recent turns feed the weighted moving
	// average (weights 3/2/1, newest first).
	forecastWindow = 3
	// safetyWindow is how many recent turns feed the demand stdev.
	safetyWindow = 6
	// safetyZ is the service-level factor for safety stock (~95% service).
	safetyZ = 1.65
	// safetyFallbackRatio sizes safety stock when history is too short for a
	// meaningful stdev.
	safetyFallbackRatio = 0.20
)

// forecastWeights apply newest first.
var forecastWeights = []float64{3, 2, 1}

// inventoryService owns on-hand quantities and weighted-average costing, and
// posts the matching ledger entries for purchases and cost of goods sold.
type inventoryService struct {
	inventoryRepo portsrepo.InventoryRepository
	productRepo   portsrepo.ProductRepository
	historyRepo   portsrepo.MarketHistoryRepository
	ledgerSvc     portssvc.LedgerSvcFacade
	cfg           config.SimulationConfig
	guard         *TurnGuard
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(
	inventoryRepo portsrepo.InventoryRepository,
	productRepo portsrepo.ProductRepository,
	historyRepo portsrepo.MarketHistoryRepository,
	ledgerSvc portssvc.LedgerSvcFacade,
	cfg config.SimulationConfig,
	guard *TurnGuard,
) portssvc.InventorySvcFacade {
	return &inventoryService{
		inventoryRepo: inventoryRepo,
		productRepo:   productRepo,
		historyRepo:   historyRepo,
		ledgerSvc:     ledgerSvc,
		cfg:           cfg,
		guard:         guard,
	}
}

var _ portssvc.InventorySvcFacade = (*inventoryService)(nil)

// PurchaseInventory buys quantity units at unitCost, recomputes the weighted
// average cost and posts Inventory against Cash. A zero-cost lot moves no
// money; it only dilutes the average.
func (s *inventoryService) PurchaseInventory(ctx context.Context, companyID, productID string, quantity int64, unitCost decimal.Decimal) (*domain.InventoryPosition, error) {
	defer s.guard.Acquire(ctx)()
	logger := middleware.GetLoggerFromCtx(ctx)

	if quantity <= 0 {
		return nil, fmt.Errorf("%w: purchase quantity must be positive, got %d", apperrors.ErrInvalidQuantity, quantity)
	}
	if unitCost.IsNegative() {
		return nil, fmt.Errorf("%w: unit cost cannot be negative", apperrors.ErrValidation)
	}

	product, err := s.productRepo.FindProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	pos, err := s.inventoryRepo.FindPosition(ctx, companyID, productID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to find inventory position: %w", err)
		}
		pos = &domain.InventoryPosition{CompanyID: companyID, ProductID: productID, WAC: decimal.Zero}
	}

	qty := decimal.NewFromInt(quantity)
	totalCost := unitCost.Mul(qty)

	// newWAC = (oldQty*oldWAC + qty*unitCost) / (oldQty + qty)
	oldQty := decimal.NewFromInt(pos.Quantity)
	newQty := oldQty.Add(qty)
	newWAC := pos.WAC.Mul(oldQty).Add(totalCost).DivRound(newQty, 4)

	if totalCost.IsPositive() {
		_, err = s.ledgerSvc.PostTransaction(ctx, companyID, time.Time{},
			fmt.Sprintf("Purchase %d x %s @ %s", quantity, product.SKU, unitCost),
			[]dto.TransactionEntryRequest{
				{AccountCode: domain.CodeInventory, Debit: totalCost},
				{AccountCode: domain.CodeCash, Credit: totalCost},
			})
		if err != nil {
			return nil, fmt.Errorf("failed to post purchase transaction: %w", err)
		}
	}

	pos.Quantity += quantity
	pos.WAC = newWAC
	if err := s.inventoryRepo.SavePosition(ctx, *pos); err != nil {
		return nil, fmt.Errorf("failed to save inventory position: %w", err)
	}

	logger.Info("inventory purchased",
		slog.String("company_id", companyID),
		slog.String("sku", product.SKU),
		slog.Int64("quantity", quantity),
		slog.String("wac", pos.WAC.String()),
	)
	return pos, nil
}

// RecordSale fulfills up to the quantity on hand, posts cost of goods sold
// for the fulfilled units and reports any shortfall as a stockout in the
// result. The weighted average cost never changes on a sale.
func (s *inventoryService) RecordSale(ctx context.Context, companyID, productID string, requested int64) (*domain.SaleResult, error) {
	defer s.guard.Acquire(ctx)()

	if requested < 0 {
		return nil, fmt.Errorf("%w: requested quantity cannot be negative", apperrors.ErrValidation)
	}

	pos, err := s.inventoryRepo.FindPosition(ctx, companyID, productID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to find inventory position: %w", err)
		}
		// Nothing on hand: the whole request is a stockout, not an error.
		return &domain.SaleResult{Requested: requested, Shortfall: requested, COGS: decimal.Zero, WAC: decimal.Zero}, nil
	}

	fulfilled := requested
	if fulfilled > pos.Quantity {
		fulfilled = pos.Quantity
	}
	result := &domain.SaleResult{
		Requested: requested,
		Fulfilled: fulfilled,
		Shortfall: requested - fulfilled,
		COGS:      pos.WAC.Mul(decimal.NewFromInt(fulfilled)),
		WAC:       pos.WAC,
	}
	if fulfilled == 0 {
		return result, nil
	}

	_, err = s.ledgerSvc.PostTransaction(ctx, companyID, time.Time{},
		fmt.Sprintf("COGS for %d units of %s", fulfilled, productID),
		[]dto.TransactionEntryRequest{
			{AccountCode: domain.CodeCOGS, Debit: result.COGS},
			{AccountCode: domain.CodeInventory, Credit: result.COGS},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to post COGS transaction: %w", err)
	}

	pos.Quantity -= fulfilled
	if err := s.inventoryRepo.SavePosition(ctx, *pos); err != nil {
		return nil, fmt.Errorf("failed to save inventory position: %w", err)
	}
	return result, nil
}

// GetInventory lists a company's positions.
func (s *inventoryService) GetInventory(ctx context.Context, companyID string) ([]domain.InventoryPosition, error) {
	return s.inventoryRepo.ListPositionsByCompany(ctx, companyID)
}

// ForecastDemand is a weighted moving average of the company's recent
// allocated demand for the product (weights 3/2/1, newest first). Without any
// own history it falls back to the market-wide average, then to the
// configured base demand.
func (s *inventoryService) ForecastDemand(ctx context.Context, companyID, productID string) (float64, error) {
	records, err := s.historyRepo.ListRecentRecords(ctx, companyID, productID, forecastWindow)
	if err != nil {
		return 0, fmt.Errorf("failed to list market history: %w", err)
	}
	if len(records) == 0 {
		avg, ok, err := s.historyRepo.AverageAllocated(ctx, productID)
		if err != nil {
			return 0, fmt.Errorf("failed to average market history: %w", err)
		}
		if ok {
			return avg, nil
		}
		return float64(s.cfg.BaseDemand), nil
	}
	var weighted, weightSum float64
	for i, rec := range records {
		w := forecastWeights[i]
		weighted += float64(rec.DemandAllocated) * w
		weightSum += w
	}
	return weighted / weightSum, nil
}

// SafetyStock is z times the stdev of recent allocated demand. With fewer
// than two observations there is no stdev, so it falls back to a fixed share
// of the forecast.
func (s *inventoryService) SafetyStock(ctx context.Context, companyID, productID string) (float64, error) {
	records, err := s.historyRepo.ListRecentRecords(ctx, companyID, productID, safetyWindow)
	if err != nil {
		return 0, fmt.Errorf("failed to list market history: %w", err)
	}
	if len(records) < 2 {
		forecast, err := s.ForecastDemand(ctx, companyID, productID)
		if err != nil {
			return 0, err
		}
		return safetyFallbackRatio * forecast, nil
	}
	var sum float64
	for _, rec := range records {
		sum += float64(rec.DemandAllocated)
	}
	mean := sum / float64(len(records))
	var variance float64
	for _, rec := range records {
		d := float64(rec.DemandAllocated) - mean
		variance += d * d
	}
	variance /= float64(len(records) - 1)
	return safetyZ * math.Sqrt(variance), nil
}

// ReorderQuantity recommends forecast plus safety stock minus on hand,
// rounded up and floored at zero.
func (s *inventoryService) ReorderQuantity(ctx context.Context, companyID, productID string) (int64, error) {
	forecast, err := s.ForecastDemand(ctx, companyID, productID)
	if err != nil {
		return 0, err
	}
	safety, err := s.SafetyStock(ctx, companyID, productID)
	if err != nil {
		return 0, err
	}
	var onHand int64
	pos, err := s.inventoryRepo.FindPosition(ctx, companyID, productID)
	switch {
	case err == nil:
		onHand = pos.Quantity
	case !errors.Is(err, apperrors.ErrNotFound):
		return 0, fmt.Errorf("failed to find inventory position: %w", err)
	}

	target := int64(math.Ceil(forecast + safety))
	if target <= onHand {
		return 0, nil
	}
	return target - onHand, nil
}
