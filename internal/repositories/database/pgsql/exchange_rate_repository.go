package pgsql

import (
	"context"
	"errors"

	"github.com/SscSPs/personal_ledger_app/internal/apperrors"
	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/personal_ledger_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxExchangeRateRepository struct {
	BaseRepository
}

// newPgxExchangeRateRepository creates a new repository for the persistent
// exchange-rate cache.
func newPgxExchangeRateRepository(pool *pgxpool.Pool) portsrepo.ExchangeRateRepositoryFacade {
	return &PgxExchangeRateRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ExchangeRateRepositoryFacade = (*PgxExchangeRateRepository)(nil)

func (r *PgxExchangeRateRepository) FindLatestRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string) (*domain.ExchangeRate, error) {
	query := `
		SELECT exchange_rate_id, from_currency_code, to_currency_code, rate, date_effective, created_at, last_updated_at
		FROM exchange_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2
		ORDER BY date_effective DESC
		LIMIT 1;
	`

	var rate domain.ExchangeRate
	err := r.Pool.QueryRow(ctx, query, fromCurrencyCode, toCurrencyCode).Scan(
		&rate.ExchangeRateID,
		&rate.FromCurrencyCode,
		&rate.ToCurrencyCode,
		&rate.Rate,
		&rate.DateEffective,
		&rate.CreatedAt,
		&rate.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no rate for " + fromCurrencyCode + "->" + toCurrencyCode)
		}
		return nil, apperrors.NewAppError(500, "failed to query exchange rate", err)
	}
	return &rate, nil
}

// SaveExchangeRates inserts a batch of freshly fetched rates. Each fetch
// appends new rows; FindLatestRate picks the newest, so old rows serve as
// the stale-fallback history.
func (r *PgxExchangeRateRepository) SaveExchangeRates(ctx context.Context, rates []domain.ExchangeRate) error {
	if len(rates) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO exchange_rates (exchange_rate_id, from_currency_code, to_currency_code, rate, date_effective, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	for _, rate := range rates {
		batch.Queue(query,
			rate.ExchangeRateID,
			rate.FromCurrencyCode,
			rate.ToCurrencyCode,
			rate.Rate,
			rate.DateEffective,
			rate.CreatedAt,
			rate.LastUpdatedAt,
		)
	}

	results := r.Pool.SendBatch(ctx, batch)
	defer results.Close()
	for range rates {
		if _, err := results.Exec(); err != nil {
			return apperrors.NewAppError(500, "failed to insert exchange rate batch", err)
		}
	}
	return nil
}
