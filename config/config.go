package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// SlotWindow is one named drawing window inside a region's daily schedule.
// Open and Close are wall-clock times in the schedule timezone, "15:04".
type SlotWindow struct {
	Slot  string `json:"slot"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Config holds all application configuration
type Config struct {
	// Telegram configuration
	BotToken    string
	AdminID     int64
	AdminChatID int64

	// Database configuration
	DatabaseURL string

	// Optional Redis cache for the exchange-rate table
	RedisURL string

	// Currency configuration
	BaseCurrency string // bonus balance and thresholds are denominated here
	BonusCUP     int64  // deposit bonus, CUP minor units, converted to base at grant time

	// Drawing schedule: region -> ordered slot windows, all in Timezone.
	// Regions and slots are data, not code; override with BOLITA_SCHEDULE.
	Schedule map[string][]SlotWindow
	Timezone *time.Location

	// Scheduler configuration
	TickInterval    time.Duration
	OpenGracePeriod time.Duration // how far past a slot's open time auto-open still fires

	// Withdrawal window, "15:04" wall-clock in Timezone
	WithdrawOpen  string
	WithdrawClose string
	// Minimum withdrawal in base-currency minor units
	WithdrawMinimum int64

	// Referral commission in basis points of the base-currency wager cost
	ReferralCommissionBps int64

	// Metrics listen address, empty disables the endpoint
	MetricsAddr string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// defaultSchedule mirrors the three lotteries the operator runs. Times are
// local to the configured timezone.
func defaultSchedule() map[string][]SlotWindow {
	windows := []SlotWindow{
		{Slot: "manana", Open: "09:00", Close: "12:00"},
		{Slot: "tarde", Open: "14:00", Close: "18:30"},
		{Slot: "noche", Open: "20:00", Close: "23:00"},
	}
	return map[string][]SlotWindow{
		"florida":  windows,
		"georgia":  windows,
		"new_york": windows,
	}
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		BotToken:    os.Getenv("BOT_TOKEN"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		BaseCurrency: "USD",
		BonusCUP:     7000, // 70.00 CUP

		Schedule: defaultSchedule(),

		TickInterval:    time.Minute,
		OpenGracePeriod: 5 * time.Minute,

		WithdrawOpen:    "09:00",
		WithdrawClose:   "21:00",
		WithdrawMinimum: 100, // 1.00 USD

		ReferralCommissionBps: 500, // 5%

		MetricsAddr: os.Getenv("METRICS_ADDR"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if id := os.Getenv("ADMIN_ID"); id != "" {
		if parsed, err := strconv.ParseInt(id, 10, 64); err == nil {
			config.AdminID = parsed
		}
	}
	if id := os.Getenv("ADMIN_CHAT_ID"); id != "" {
		if parsed, err := strconv.ParseInt(id, 10, 64); err == nil {
			config.AdminChatID = parsed
		}
	}
	if cur := os.Getenv("BASE_CURRENCY"); cur != "" {
		config.BaseCurrency = strings.ToUpper(cur)
	}
	if bonus := os.Getenv("BONUS_CUP"); bonus != "" {
		if parsed, err := strconv.ParseInt(bonus, 10, 64); err == nil {
			config.BonusCUP = parsed
		}
	}
	if min := os.Getenv("WITHDRAW_MINIMUM"); min != "" {
		if parsed, err := strconv.ParseInt(min, 10, 64); err == nil {
			config.WithdrawMinimum = parsed
		}
	}
	if open := os.Getenv("WITHDRAW_OPEN"); open != "" {
		config.WithdrawOpen = open
	}
	if closeAt := os.Getenv("WITHDRAW_CLOSE"); closeAt != "" {
		config.WithdrawClose = closeAt
	}

	tzName := os.Getenv("TIMEZONE")
	if tzName == "" {
		tzName = "America/Havana"
	}
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}
	config.Timezone = tz

	// Schedule override: {"florida":[{"slot":"noche","open":"20:00","close":"23:00"}], ...}
	if raw := os.Getenv("BOLITA_SCHEDULE"); raw != "" {
		schedule := make(map[string][]SlotWindow)
		if err := json.Unmarshal([]byte(raw), &schedule); err != nil {
			return nil, fmt.Errorf("invalid BOLITA_SCHEDULE: %w", err)
		}
		config.Schedule = schedule
	}
	for region, windows := range config.Schedule {
		for _, w := range windows {
			for _, clock := range []string{w.Open, w.Close} {
				if _, err := time.Parse("15:04", clock); err != nil {
					return nil, fmt.Errorf("invalid schedule time %q for region %s slot %s", clock, region, w.Slot)
				}
			}
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.BotToken == "" {
			return nil, fmt.Errorf("BOT_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

// Window returns the schedule window for a region and slot.
func (c *Config) Window(region, slot string) (SlotWindow, bool) {
	for _, w := range c.Schedule[region] {
		if w.Slot == slot {
			return w, true
		}
	}
	return SlotWindow{}, false
}
