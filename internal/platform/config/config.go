// Package config loads application configuration from environment variables
// and an optional .env file. Simulation constants live here, not in code, so
// a deployment can tune the economy without rebuilding.
package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	// RateLimit is a ulule/limiter formatted rate, e.g. "100-M".
	RateLimit string

	Simulation SimulationConfig
}

// SimulationConfig holds the tunable economy constants.
type SimulationConfig struct {
	StartingCapital     decimal.Decimal
	MonthlyRent         decimal.Decimal
	BankruptcyThreshold decimal.Decimal

	BaseDemand      int64
	PriceElasticity float64
	// DemandVariation is the bounded random demand jitter as a fraction,
	// e.g. 0.10 for +-10%. Zero disables the jitter entirely, which makes
	// the whole simulation deterministic.
	DemandVariation float64
	Seed            int64

	EconomicEventProbability float64 // boom or recession, at most one active
	BoomIntensity            float64
	RecessionIntensity       float64
	DisruptionProbability    float64
	DisruptionIntensityMin   float64
	DisruptionIntensityMax   float64
	ConditionDuration        int // months

	// Seasonality maps month (1-12) to SKU to a demand multiplier. SKUs
	// absent for a month default to 1.0.
	Seasonality map[int]map[string]float64
}

// defaultSeasonality mirrors the retail calendar the simulation models:
// widgets peak over the summer, gadgets over the holidays, tools in spring.
func defaultSeasonality() map[int]map[string]float64 {
	return map[int]map[string]float64{
		3:  {"TOOL-003": 1.20},
		4:  {"TOOL-003": 1.30},
		5:  {"TOOL-003": 1.15},
		6:  {"WIDGET-001": 1.20},
		7:  {"WIDGET-001": 1.25},
		8:  {"WIDGET-001": 1.15},
		11: {"GADGET-002": 1.30},
		12: {"GADGET-002": 1.50, "WIDGET-001": 1.10, "TOOL-003": 1.10},
		1:  {"GADGET-002": 0.80, "WIDGET-001": 0.90},
	}
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("RATE_LIMIT", "300-M")

	viper.SetDefault("STARTING_CAPITAL", "100000")
	viper.SetDefault("MONTHLY_RENT", "5000")
	viper.SetDefault("BANKRUPTCY_THRESHOLD", "0")
	viper.SetDefault("BASE_DEMAND", 1000)
	viper.SetDefault("PRICE_ELASTICITY", 1.5)
	viper.SetDefault("DEMAND_VARIATION", 0.10)
	viper.SetDefault("SIMULATION_SEED", 42)
	viper.SetDefault("ECONOMIC_EVENT_PROBABILITY", 0.25)
	viper.SetDefault("BOOM_INTENSITY", 1.25)
	viper.SetDefault("RECESSION_INTENSITY", 0.80)
	viper.SetDefault("DISRUPTION_PROBABILITY", 0.15)
	viper.SetDefault("DISRUPTION_INTENSITY_MIN", 1.20)
	viper.SetDefault("DISRUPTION_INTENSITY_MAX", 1.30)
	viper.SetDefault("CONDITION_DURATION_MONTHS", 3)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL not set, running on the in-memory store only.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	sim := SimulationConfig{}

	startingCapital, err := decimal.NewFromString(viper.GetString("STARTING_CAPITAL"))
	if err != nil {
		log.Printf("Warning: invalid STARTING_CAPITAL (%q), defaulting to 100000.\n", viper.GetString("STARTING_CAPITAL"))
		startingCapital = decimal.NewFromInt(100000)
	}
	sim.StartingCapital = startingCapital

	monthlyRent, err := decimal.NewFromString(viper.GetString("MONTHLY_RENT"))
	if err != nil {
		log.Printf("Warning: invalid MONTHLY_RENT (%q), defaulting to 5000.\n", viper.GetString("MONTHLY_RENT"))
		monthlyRent = decimal.NewFromInt(5000)
	}
	sim.MonthlyRent = monthlyRent

	bankruptcyThreshold, err := decimal.NewFromString(viper.GetString("BANKRUPTCY_THRESHOLD"))
	if err != nil {
		log.Printf("Warning: invalid BANKRUPTCY_THRESHOLD (%q), defaulting to 0.\n", viper.GetString("BANKRUPTCY_THRESHOLD"))
		bankruptcyThreshold = decimal.Zero
	}
	sim.BankruptcyThreshold = bankruptcyThreshold

	sim.BaseDemand = viper.GetInt64("BASE_DEMAND")
	if sim.BaseDemand <= 0 {
		log.Printf("Warning: BASE_DEMAND %d not positive, defaulting to 1000.\n", sim.BaseDemand)
		sim.BaseDemand = 1000
	}
	sim.PriceElasticity = viper.GetFloat64("PRICE_ELASTICITY")
	sim.DemandVariation = viper.GetFloat64("DEMAND_VARIATION")
	sim.Seed = viper.GetInt64("SIMULATION_SEED")
	sim.EconomicEventProbability = viper.GetFloat64("ECONOMIC_EVENT_PROBABILITY")
	sim.BoomIntensity = viper.GetFloat64("BOOM_INTENSITY")
	sim.RecessionIntensity = viper.GetFloat64("RECESSION_INTENSITY")
	sim.DisruptionProbability = viper.GetFloat64("DISRUPTION_PROBABILITY")
	sim.DisruptionIntensityMin = viper.GetFloat64("DISRUPTION_INTENSITY_MIN")
	sim.DisruptionIntensityMax = viper.GetFloat64("DISRUPTION_INTENSITY_MAX")
	sim.ConditionDuration = viper.GetInt("CONDITION_DURATION_MONTHS")
	if sim.ConditionDuration <= 0 {
		sim.ConditionDuration = 3
	}
	sim.Seasonality = defaultSeasonality()

	cfg.Simulation = sim
	return cfg, nil
}

// DefaultSimulation returns the built-in simulation constants without reading
// the environment. Tests and the session manager use it.
func DefaultSimulation() SimulationConfig {
	return SimulationConfig{
		StartingCapital:          decimal.NewFromInt(100000),
		MonthlyRent:              decimal.NewFromInt(5000),
		BankruptcyThreshold:      decimal.Zero,
		BaseDemand:               1000,
		PriceElasticity:          1.5,
		DemandVariation:          0.10,
		Seed:                     42,
		EconomicEventProbability: 0.25,
		BoomIntensity:            1.25,
		RecessionIntensity:       0.80,
		DisruptionProbability:    0.15,
		DisruptionIntensityMin:   1.20,
		DisruptionIntensityMax:   1.30,
		ConditionDuration:        3,
		Seasonality:              defaultSeasonality(),
	}
}
