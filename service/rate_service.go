package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"bolita/models"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const rateCacheTTL = time.Minute

type rateService struct {
	uowFactory   UnitOfWorkFactory
	cache        *redis.Client // nil disables caching
	baseCurrency string
}

// NewRateService creates a new rate service. A nil redis client disables the
// cache and every read goes to storage.
func NewRateService(uowFactory UnitOfWorkFactory, cache *redis.Client, baseCurrency string) RateService {
	return &rateService{
		uowFactory:   uowFactory,
		cache:        cache,
		baseCurrency: baseCurrency,
	}
}

func rateCacheKey(currency string) string {
	return "rate:" + currency
}

// GetRate returns the units of currency one base unit buys. The base
// currency itself is always 1.
func (s *rateService) GetRate(ctx context.Context, currency string) (float64, error) {
	if currency == s.baseCurrency {
		return 1, nil
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, rateCacheKey(currency)).Result()
		if err == nil {
			if rate, perr := strconv.ParseFloat(cached, 64); perr == nil {
				return rate, nil
			}
		} else if err != redis.Nil {
			log.WithError(err).Warn("Rate cache read failed, falling back to storage")
		}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rate, err := uow.ExchangeRateRepository().Get(ctx, currency)
	if err != nil {
		return 0, err
	}
	if rate == nil {
		return 0, fmt.Errorf("%w: no exchange rate for %s", models.ErrNotFound, currency)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, rateCacheKey(currency), strconv.FormatFloat(rate.Rate, 'f', -1, 64), rateCacheTTL).Err(); err != nil {
			log.WithError(err).Warn("Rate cache write failed")
		}
	}

	return rate.Rate, nil
}

// SetRate updates a rate and invalidates its cache entry
func (s *rateService) SetRate(ctx context.Context, currency string, rate float64) error {
	if currency == s.baseCurrency {
		return fmt.Errorf("%w: cannot set a rate for the base currency", models.ErrValidation)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.ExchangeRateRepository().Set(ctx, currency, rate); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, rateCacheKey(currency)).Err(); err != nil {
			log.WithError(err).Warn("Rate cache invalidation failed")
		}
	}

	log.WithFields(log.Fields{
		"currency": currency,
		"rate":     rate,
	}).Info("Exchange rate updated")

	return nil
}

// ToBase converts minor units of a currency to base-currency minor units
func (s *rateService) ToBase(ctx context.Context, currency string, amount int64) (int64, error) {
	rate, err := s.GetRate(ctx, currency)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(float64(amount) / rate)), nil
}

// FromBase converts base-currency minor units into minor units of a currency
func (s *rateService) FromBase(ctx context.Context, currency string, amount int64) (int64, error) {
	rate, err := s.GetRate(ctx, currency)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(float64(amount) * rate)), nil
}
