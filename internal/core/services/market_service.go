package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgertycoon/ledger_tycoon/internal/apperrors"
	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
	portsrepo "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/repositories"
	portssvc "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/services"
	"github.com/ledgertycoon/ledger_tycoon/internal/middleware"
	"github.com/ledgertycoon/ledger_tycoon/internal/platform/config"
)

// marketService computes demand, owns pricing state and runs the market
// condition lifecycle. Its seeded RNG is the only source of randomness in the
// whole simulation.
type marketService struct {
	priceRepo     portsrepo.PriceRepository
	productRepo   portsrepo.ProductRepository
	conditionRepo portsrepo.ConditionRepository
	cfg           config.SimulationConfig
	guard         *TurnGuard

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewMarketService creates a new MarketService with its own seeded RNG.
func NewMarketService(
	priceRepo portsrepo.PriceRepository,
	productRepo portsrepo.ProductRepository,
	conditionRepo portsrepo.ConditionRepository,
	cfg config.SimulationConfig,
	guard *TurnGuard,
) portssvc.MarketSvcFacade {
	return &marketService{
		priceRepo:     priceRepo,
		productRepo:   productRepo,
		conditionRepo: conditionRepo,
		cfg:           cfg,
		guard:         guard,
		rng:           rand.New(rand.NewSource(cfg.Seed)),
	}
}

var _ portssvc.MarketSvcFacade = (*marketService)(nil)

// SetPrice validates and stores a company's offer price for a product.
func (s *marketService) SetPrice(ctx context.Context, companyID, productID string, price decimal.Decimal) (*domain.PriceState, error) {
	defer s.guard.Acquire(ctx)()
	logger := middleware.GetLoggerFromCtx(ctx)

	product, err := s.productRepo.FindProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", apperrors.ErrInvalidPrice)
	}
	if price.LessThan(product.BaseCost) {
		return nil, fmt.Errorf("%w: price %s below base cost %s for %s", apperrors.ErrInvalidPrice, price, product.BaseCost, product.SKU)
	}

	ps, err := s.priceRepo.FindPriceState(ctx, companyID, productID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to find price state: %w", err)
		}
		ps = &domain.PriceState{CompanyID: companyID, ProductID: productID, Revenue: decimal.Zero}
	}
	ps.Price = price
	if err := s.priceRepo.SavePriceState(ctx, *ps); err != nil {
		return nil, fmt.Errorf("failed to save price state: %w", err)
	}

	logger.Info("price set",
		slog.String("company_id", companyID),
		slog.String("sku", product.SKU),
		slog.String("price", price.String()),
	)
	return ps, nil
}

// ListPrices returns a company's standing offers in product order.
func (s *marketService) ListPrices(ctx context.Context, companyID string) ([]domain.PriceState, error) {
	return s.priceRepo.ListPricesByCompany(ctx, companyID)
}

// TotalDemand computes one product's market demand for a month: configured
// base demand, seasonal multiplier, active economic conditions, and a bounded
// random variation from the seeded RNG. The returned notes describe every
// multiplier applied.
func (s *marketService) TotalDemand(ctx context.Context, productID string, month int) (int64, []string, error) {
	product, err := s.productRepo.FindProductByID(ctx, productID)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to find product: %w", err)
	}

	demand := float64(s.cfg.BaseDemand)
	var notes []string

	if bySKU, ok := s.cfg.Seasonality[month]; ok {
		if factor, ok := bySKU[product.SKU]; ok {
			demand *= factor
			notes = append(notes, fmt.Sprintf("seasonal x%.2f", factor))
		}
	}

	conditions, err := s.conditionRepo.ListActiveConditions(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to list market conditions: %w", err)
	}
	for _, cond := range conditions {
		if cond.Kind != domain.EconomicBoom && cond.Kind != domain.Recession {
			continue
		}
		demand *= cond.Intensity
		notes = append(notes, fmt.Sprintf("%s x%.2f", cond.Kind, cond.Intensity))
	}

	if s.cfg.DemandVariation > 0 {
		s.rngMu.Lock()
		jitter := 1 + (s.rng.Float64()*2-1)*s.cfg.DemandVariation
		s.rngMu.Unlock()
		demand *= jitter
		notes = append(notes, fmt.Sprintf("variation x%.3f", jitter))
	}

	total := int64(math.Round(demand))
	if total < 0 {
		total = 0
	}
	return total, notes, nil
}

// AllocateDemand splits totalDemand across offers proportionally to
// brandEquity x price^(-elasticity). Integer units are assigned by largest
// fractional remainder, ties going to the lowest company ID, so the
// allocations always sum to totalDemand exactly.
func (s *marketService) AllocateDemand(totalDemand int64, offers []domain.Offer) domain.DemandAllocation {
	alloc := make(domain.DemandAllocation, len(offers))
	for _, o := range offers {
		alloc[o.CompanyID] = 0
	}
	if totalDemand <= 0 || len(offers) == 0 {
		return alloc
	}

	sorted := make([]domain.Offer, len(offers))
	copy(sorted, offers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CompanyID < sorted[j].CompanyID })

	scores := make([]float64, len(sorted))
	var scoreSum float64
	for i, o := range sorted {
		price, _ := o.Price.Float64()
		if price <= 0 || o.BrandEquity <= 0 {
			continue
		}
		scores[i] = o.BrandEquity * math.Pow(price, -s.cfg.PriceElasticity)
		scoreSum += scores[i]
	}
	if scoreSum == 0 {
		return alloc
	}

	type share struct {
		idx       int
		remainder float64
	}
	shares := make([]share, len(sorted))
	var assigned int64
	for i, o := range sorted {
		exact := float64(totalDemand) * scores[i] / scoreSum
		floor := int64(math.Floor(exact))
		alloc[o.CompanyID] = floor
		assigned += floor
		shares[i] = share{idx: i, remainder: exact - float64(floor)}
	}

	// Hand the leftover units out by largest fractional remainder. The
	// pre-sort by company ID makes the stable sort break ties to the lowest
	// ID.
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].remainder > shares[j].remainder })
	for leftover := totalDemand - assigned; leftover > 0; leftover-- {
		sh := shares[0]
		shares = shares[1:]
		alloc[sorted[sh.idx].CompanyID]++
	}
	return alloc
}

// CostModifier returns the combined supply-disruption multiplier currently
// applying to a product's purchase cost (1.0 when none is active).
func (s *marketService) CostModifier(ctx context.Context, productID string) (float64, error) {
	conditions, err := s.conditionRepo.ListActiveConditions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list market conditions: %w", err)
	}
	modifier := 1.0
	for _, cond := range conditions {
		if cond.Kind != domain.SupplyDisruption {
			continue
		}
		if cond.ProductID != "" && cond.ProductID != productID {
			continue
		}
		modifier *= cond.Intensity
	}
	return modifier, nil
}

// RefreshConditions rolls for new market conditions at the start of a turn.
// At most one economy-wide condition runs at a time; a supply disruption only
// hits a product that is not already disrupted.
func (s *marketService) RefreshConditions(ctx context.Context, month, year int) ([]domain.MarketCondition, error) {
	active, err := s.conditionRepo.ListActiveConditions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list market conditions: %w", err)
	}
	economyActive := false
	disrupted := make(map[string]bool)
	for _, cond := range active {
		switch cond.Kind {
		case domain.EconomicBoom, domain.Recession:
			economyActive = true
		case domain.SupplyDisruption:
			disrupted[cond.ProductID] = true
		}
	}

	var triggered []domain.MarketCondition

	s.rngMu.Lock()
	economyRoll := s.rng.Float64()
	boomRoll := s.rng.Float64()
	disruptionRoll := s.rng.Float64()
	intensityRoll := s.rng.Float64()
	productRoll := s.rng.Float64()
	s.rngMu.Unlock()

	if !economyActive && economyRoll < s.cfg.EconomicEventProbability {
		cond := domain.MarketCondition{
			ConditionID: uuid.NewString(),
			Kind:        domain.EconomicBoom,
			Intensity:   s.cfg.BoomIntensity,
			MonthsLeft:  s.cfg.ConditionDuration,
			Description: fmt.Sprintf("Economic boom starting %d/%d", month, year),
		}
		if boomRoll < 0.5 {
			cond.Kind = domain.Recession
			cond.Intensity = s.cfg.RecessionIntensity
			cond.Description = fmt.Sprintf("Recession starting %d/%d", month, year)
		}
		triggered = append(triggered, cond)
	}

	if disruptionRoll < s.cfg.DisruptionProbability {
		products, err := s.productRepo.ListProducts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list products: %w", err)
		}
		candidates := products[:0:0]
		for _, p := range products {
			if !disrupted[p.ProductID] {
				candidates = append(candidates, p)
			}
		}
		if len(candidates) > 0 {
			product := candidates[int(productRoll*float64(len(candidates)))%len(candidates)]
			intensity := s.cfg.DisruptionIntensityMin + intensityRoll*(s.cfg.DisruptionIntensityMax-s.cfg.DisruptionIntensityMin)
			triggered = append(triggered, domain.MarketCondition{
				ConditionID: uuid.NewString(),
				Kind:        domain.SupplyDisruption,
				Intensity:   intensity,
				ProductID:   product.ProductID,
				MonthsLeft:  s.cfg.ConditionDuration,
				Description: fmt.Sprintf("Supply disruption on %s starting %d/%d", product.SKU, month, year),
			})
		}
	}

	for _, cond := range triggered {
		if err := s.conditionRepo.SaveCondition(ctx, cond); err != nil {
			return nil, fmt.Errorf("failed to save market condition: %w", err)
		}
	}
	return triggered, nil
}

// DecayConditions ticks every active condition down one month.
func (s *marketService) DecayConditions(ctx context.Context) error {
	return s.conditionRepo.DecayConditions(ctx)
}

// ActiveConditions lists the conditions currently in effect.
func (s *marketService) ActiveConditions(ctx context.Context) ([]domain.MarketCondition, error) {
	return s.conditionRepo.ListActiveConditions(ctx)
}
