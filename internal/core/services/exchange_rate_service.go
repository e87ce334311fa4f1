package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	"github.com/SscSPs/personal_ledger_app/internal/core/ports/providers"
	portsrepo "github.com/SscSPs/personal_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/personal_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/personal_ledger_app/internal/dto"
	"github.com/SscSPs/personal_ledger_app/internal/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// DefaultRateFreshness is how long a cached rate is considered current.
const DefaultRateFreshness = 24 * time.Hour

type cachedRate struct {
	rate      decimal.Decimal
	fetchedAt time.Time
}

// exchangeRateService resolves conversion rates with three tiers: an
// in-memory cache, the persistent rate cache, and the external provider.
// Provider fetches for the same base currency are collapsed into a single
// in-flight call; on fetch failure a stale persisted rate is preferred over
// failing the caller.
type exchangeRateService struct {
	rateRepo  portsrepo.ExchangeRateRepositoryFacade
	provider  providers.RateProvider
	freshness time.Duration

	flight singleflight.Group

	mu     sync.RWMutex
	memory map[string]cachedRate
}

// NewExchangeRateService creates a rate resolver. A non-positive freshness
// falls back to DefaultRateFreshness.
func NewExchangeRateService(rateRepo portsrepo.ExchangeRateRepositoryFacade, provider providers.RateProvider, freshness time.Duration) portssvc.RateSvcFacade {
	if freshness <= 0 {
		freshness = DefaultRateFreshness
	}
	return &exchangeRateService{
		rateRepo:  rateRepo,
		provider:  provider,
		freshness: freshness,
		memory:    make(map[string]cachedRate),
	}
}

var _ portssvc.RateSvcFacade = (*exchangeRateService)(nil)

func pairKey(from, to string) string {
	return from + ":" + to
}

// GetRate resolves the conversion rate from one currency to another.
func (s *exchangeRateService) GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	now := time.Now()

	s.mu.RLock()
	cached, ok := s.memory[pairKey(from, to)]
	s.mu.RUnlock()
	if ok && now.Sub(cached.fetchedAt) < s.freshness {
		return cached.rate, nil
	}

	persisted, err := s.rateRepo.FindLatestRate(ctx, from, to)
	if err == nil && persisted != nil && persisted.IsFreshAt(now, s.freshness) {
		s.remember(from, to, persisted.Rate, persisted.DateEffective)
		return persisted.Rate, nil
	}

	table, fetchErr := s.fetchRatesForBase(ctx, from)
	if fetchErr == nil {
		if rate, ok := table[to]; ok {
			return rate, nil
		}
		// A successful fetch that lacks the requested pair is as useless to
		// this caller as a failed one; fall through to the stale fallback.
		fetchErr = fmt.Errorf("rate provider has no %s rate for base %s", to, from)
	}

	// Stale data beats blocking a financial entry.
	logger := middleware.GetLoggerFromCtx(ctx)
	if persisted != nil {
		logger.Warn("Rate fetch did not yield a usable rate, falling back to stale cached rate",
			slog.String("from", from),
			slog.String("to", to),
			slog.Time("date_effective", persisted.DateEffective),
			slog.String("error", fetchErr.Error()))
		return persisted.Rate, nil
	}

	return decimal.Zero, fmt.Errorf("no exchange rate available for %s->%s: %w", from, to, fetchErr)
}

// Convert resolves the rate and applies it. The converted amount is not
// rounded here; target precision is currency and context dependent.
func (s *exchangeRateService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (dto.Conversion, error) {
	rate, err := s.GetRate(ctx, from, to)
	if err != nil {
		return dto.Conversion{}, err
	}
	return dto.Conversion{Rate: rate, ConvertedAmount: amount.Mul(rate)}, nil
}

// fetchRatesForBase fetches the provider's full table for a base currency,
// persisting every returned pair. Concurrent calls for the same base share
// one provider request; the flight marker clears when the shared call
// completes, so a later call triggers a fresh fetch.
func (s *exchangeRateService) fetchRatesForBase(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	result, err, _ := s.flight.Do(base, func() (interface{}, error) {
		table, err := s.provider.FetchRates(ctx, base)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		rows := make([]domain.ExchangeRate, 0, len(table))
		for to, rate := range table {
			s.remember(base, to, rate, now)
			rows = append(rows, domain.ExchangeRate{
				ExchangeRateID:   uuid.NewString(),
				FromCurrencyCode: base,
				ToCurrencyCode:   to,
				Rate:             rate,
				DateEffective:    now,
				AuditFields: domain.AuditFields{
					CreatedAt:     now,
					LastUpdatedAt: now,
				},
			})
		}

		if saveErr := s.rateRepo.SaveExchangeRates(ctx, rows); saveErr != nil {
			// The fetched table is still good for this caller.
			middleware.GetLoggerFromCtx(ctx).Warn("Failed to persist fetched exchange rates",
				slog.String("base", base),
				slog.String("error", saveErr.Error()))
		}
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]decimal.Decimal), nil
}

func (s *exchangeRateService) remember(from, to string, rate decimal.Decimal, fetchedAt time.Time) {
	s.mu.Lock()
	s.memory[pairKey(from, to)] = cachedRate{rate: rate, fetchedAt: fetchedAt}
	s.mu.Unlock()
}
