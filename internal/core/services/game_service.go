package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgertycoon/ledger_tycoon/internal/apperrors"
	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
	portsrepo "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/repositories"
	portssvc "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/services"
	"github.com/ledgertycoon/ledger_tycoon/internal/middleware"
	"github.com/ledgertycoon/ledger_tycoon/internal/platform/config"
)

// catalogTemplate is the fixed product catalog every game starts with.
var catalogTemplate = []struct {
	SKU       string
	Name      string
	BaseCost  int64
	BasePrice int64
}{
	{"WIDGET-001", "Widget", 10, 20},
	{"GADGET-002", "Gadget", 50, 100},
	{"TOOL-003", "Tool", 30, 60},
}

// botTemplate defines the three computer competitors.
var botTemplate = []struct {
	Name        string
	Personality domain.Personality
	BrandEquity float64
}{
	{"Volume Dynamics", domain.Aggressive, 0.90},
	{"Steady Supply Co", domain.Balanced, 1.00},
	{"Prestige Goods", domain.Premium, 1.20},
}

// gameService bootstraps a fresh game: companies with funded books, the
// product catalog, opening price states and starter inventory for the bots.
type gameService struct {
	companyRepo portsrepo.CompanyRepository
	productRepo portsrepo.ProductRepository
	priceRepo   portsrepo.PriceRepository
	stateRepo   portsrepo.GameStateRepository
	ledgerSvc   portssvc.LedgerSvcFacade
	invSvc      portssvc.InventorySvcFacade
	cfg         config.SimulationConfig
}

// NewGameService creates a new GameService.
func NewGameService(
	companyRepo portsrepo.CompanyRepository,
	productRepo portsrepo.ProductRepository,
	priceRepo portsrepo.PriceRepository,
	stateRepo portsrepo.GameStateRepository,
	ledgerSvc portssvc.LedgerSvcFacade,
	invSvc portssvc.InventorySvcFacade,
	cfg config.SimulationConfig,
) portssvc.GameSvcFacade {
	return &gameService{
		companyRepo: companyRepo,
		productRepo: productRepo,
		priceRepo:   priceRepo,
		stateRepo:   stateRepo,
		ledgerSvc:   ledgerSvc,
		invSvc:      invSvc,
		cfg:         cfg,
	}
}

var _ portssvc.GameSvcFacade = (*gameService)(nil)

// InitializeGame sets up the player, three bot competitors, the catalog and
// all opening state, and returns the player company. It refuses to run twice
// on the same store.
func (s *gameService) InitializeGame(ctx context.Context) (*domain.Company, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.stateRepo.GetState(ctx); err == nil {
		return nil, fmt.Errorf("%w: game already initialized", apperrors.ErrDuplicate)
	}

	products := make([]domain.Product, len(catalogTemplate))
	for i, tpl := range catalogTemplate {
		products[i] = domain.Product{
			ProductID: uuid.NewString(),
			SKU:       tpl.SKU,
			Name:      tpl.Name,
			BaseCost:  decimal.NewFromInt(tpl.BaseCost),
			BasePrice: decimal.NewFromInt(tpl.BasePrice),
		}
		if err := s.productRepo.SaveProduct(ctx, products[i]); err != nil {
			return nil, fmt.Errorf("failed to save product: %w", err)
		}
	}

	player := domain.Company{
		CompanyID:     uuid.NewString(),
		Name:          "Player Inc",
		IsPlayer:      true,
		BrandEquity:   1.0,
		Memory:        domain.NewStrategyMemory(),
		RiskModifiers: make(map[string]float64),
		Flags:         make(map[string]bool),
	}
	companies := []domain.Company{player}
	for _, tpl := range botTemplate {
		companies = append(companies, domain.Company{
			CompanyID:     uuid.NewString(),
			Name:          tpl.Name,
			BrandEquity:   tpl.BrandEquity,
			Personality:   tpl.Personality,
			Memory:        domain.NewStrategyMemory(),
			RiskModifiers: make(map[string]float64),
			Flags:         make(map[string]bool),
		})
	}

	for _, company := range companies {
		if err := s.companyRepo.SaveCompany(ctx, company); err != nil {
			return nil, fmt.Errorf("failed to save company: %w", err)
		}
		if _, err := s.ledgerSvc.InitializeChartOfAccounts(ctx, company.CompanyID); err != nil {
			return nil, err
		}
		if err := s.ledgerSvc.RecordCapitalInvestment(ctx, company.CompanyID, s.cfg.StartingCapital); err != nil {
			return nil, err
		}
		for _, product := range products {
			ps := domain.PriceState{
				CompanyID: company.CompanyID,
				ProductID: product.ProductID,
				Price:     product.BasePrice,
				Revenue:   decimal.Zero,
			}
			if err := s.priceRepo.SavePriceState(ctx, ps); err != nil {
				return nil, fmt.Errorf("failed to save price state: %w", err)
			}
		}
	}

	// Bots start stocked for roughly their expected demand share; the player
	// makes their own first order.
	starterQty := s.cfg.BaseDemand / int64(len(companies))
	for _, company := range companies {
		if company.IsPlayer || starterQty <= 0 {
			continue
		}
		for _, product := range products {
			if _, err := s.invSvc.PurchaseInventory(ctx, company.CompanyID, product.ProductID, starterQty, product.BaseCost); err != nil {
				return nil, err
			}
		}
	}

	if err := s.stateRepo.SaveState(ctx, domain.GameState{Month: 1, Year: 1}); err != nil {
		return nil, fmt.Errorf("failed to save game state: %w", err)
	}

	logger.Info("game initialized",
		slog.String("player_id", player.CompanyID),
		slog.Int("companies", len(companies)),
		slog.Int("products", len(products)),
	)
	return &player, nil
}

// ListCompanies lists all companies in ascending ID order.
func (s *gameService) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	return s.companyRepo.ListCompanies(ctx)
}

// ListProducts lists the catalog in SKU order.
func (s *gameService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.productRepo.ListProducts(ctx)
}
