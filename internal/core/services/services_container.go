package services

import (
	portsrepo "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/repositories"
	portssvc "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/services"
	"github.com/ledgertycoon/ledger_tycoon/internal/platform/config"
)

// NewServiceContainer wires the services of one game session over one game
// store. All services share a single turn guard so mutations and turn
// processing serialize correctly.
func NewServiceContainer(cfg config.SimulationConfig, store portsrepo.GameStore) *portssvc.ServiceContainer {
	guard := &TurnGuard{}
	container := &portssvc.ServiceContainer{}

	container.Ledger = NewLedgerService(store, store, guard)
	container.Inventory = NewInventoryService(store, store, store, container.Ledger, cfg, guard)
	container.Market = NewMarketService(store, store, store, cfg, guard)
	container.Bot = NewBotService(store, store, store, store, store, container.Ledger, container.Inventory, container.Market)
	container.Event = NewEventService(store, store, container.Ledger, store, guard)
	container.Reporting = NewReportingService(store, store, store, store, container.Ledger)
	container.Game = NewGameService(store, store, store, store, container.Ledger, container.Inventory, cfg)
	container.Turn = NewTurnService(
		store, store, store, store, store,
		container.Ledger,
		container.Inventory,
		container.Market,
		container.Bot,
		container.Event,
		container.Reporting,
		store,
		guard,
		cfg,
	)
	return container
}
