// Package config loads the simulation configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the simulation.
type Config struct {
	// Server
	ListenAddr string `yaml:"listen_addr"`
	DBPath     string `yaml:"db_path"`
	// PostgresDSN enables the external event archive when non-empty.
	PostgresDSN string `yaml:"postgres_dsn"`

	// Simulation clock
	TickSeconds   int   `yaml:"tick_seconds"`
	TicksPerHour  int   `yaml:"ticks_per_hour"`
	NightBeginsAt int   `yaml:"night_begins_at"`
	NightEndsAt   int   `yaml:"night_ends_at"`
	Seed          int64 `yaml:"seed"`

	// Schedule quotas, in percent.
	OpenCommercialAtNightQuota    uint32 `yaml:"open_commercial_at_night_quota"`
	OpenCommercialAtWeekendsQuota uint32 `yaml:"open_commercial_at_weekends_quota"`

	// Movement
	TravelTicks int `yaml:"travel_ticks"`

	// Health
	SicknessChancePercent uint32 `yaml:"sickness_chance_percent"`
	RecoveryChancePercent uint32 `yaml:"recovery_chance_percent"`
	UntreatedDeathPercent uint32 `yaml:"untreated_death_percent"`
	CollapseChancePercent uint32 `yaml:"collapse_chance_percent"`

	// Goods
	GoodsPerPurchase int    `yaml:"goods_per_purchase"`
	RestockAmount    int    `yaml:"restock_amount"`
	NeedGoodsPercent uint32 `yaml:"need_goods_percent"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ListenAddr:    ":8080",
		DBPath:        "ciudadviva.db",
		TickSeconds:   1,
		TicksPerHour:  4,
		NightBeginsAt: 22,
		NightEndsAt:   6,
		Seed:          0,

		OpenCommercialAtNightQuota:    50,
		OpenCommercialAtWeekendsQuota: 50,

		TravelTicks: 3,

		SicknessChancePercent: 2,
		RecoveryChancePercent: 25,
		UntreatedDeathPercent: 5,
		CollapseChancePercent: 1,

		GoodsPerPurchase: 100,
		RestockAmount:    400,
		NeedGoodsPercent: 10,
	}
}

// Load reads a YAML config file, layering it over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.TickSeconds <= 0 {
		return fmt.Errorf("tick_seconds must be positive, got %d", c.TickSeconds)
	}
	if c.TicksPerHour <= 0 {
		return fmt.Errorf("ticks_per_hour must be positive, got %d", c.TicksPerHour)
	}
	if c.NightBeginsAt < 0 || c.NightBeginsAt > 23 || c.NightEndsAt < 0 || c.NightEndsAt > 23 {
		return fmt.Errorf("night hours must be in [0,23]")
	}
	for name, q := range map[string]uint32{
		"open_commercial_at_night_quota":    c.OpenCommercialAtNightQuota,
		"open_commercial_at_weekends_quota": c.OpenCommercialAtWeekendsQuota,
	} {
		if q > 100 {
			return fmt.Errorf("%s must be in [0,100], got %d", name, q)
		}
	}
	if c.TravelTicks < 1 {
		return fmt.Errorf("travel_ticks must be at least 1, got %d", c.TravelTicks)
	}
	return nil
}
