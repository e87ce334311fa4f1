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

type PgxCurrencyRepository struct {
	pool *pgxpool.Pool
}

// newPgxCurrencyRepository creates a new repository for currency data.
func newPgxCurrencyRepository(pool *pgxpool.Pool) portsrepo.CurrencyRepositoryFacade {
	return &PgxCurrencyRepository{pool: pool}
}

var _ portsrepo.CurrencyRepositoryFacade = (*PgxCurrencyRepository)(nil)

func (r *PgxCurrencyRepository) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	query := `
		INSERT INTO currencies (currency_code, symbol, name, precision, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (currency_code) DO NOTHING;
	`
	_, err := r.pool.Exec(ctx, query,
		currency.CurrencyCode,
		currency.Symbol,
		currency.Name,
		currency.Precision,
		currency.CreatedAt,
		currency.LastUpdatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert currency "+currency.CurrencyCode, err)
	}
	return nil
}

func (r *PgxCurrencyRepository) FindCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error) {
	query := `SELECT currency_code, symbol, name, precision, created_at, last_updated_at FROM currencies WHERE currency_code = $1;`

	var c domain.Currency
	err := r.pool.QueryRow(ctx, query, currencyCode).Scan(
		&c.CurrencyCode,
		&c.Symbol,
		&c.Name,
		&c.Precision,
		&c.CreatedAt,
		&c.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("currency " + currencyCode + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to query currency "+currencyCode, err)
	}
	return &c, nil
}

func (r *PgxCurrencyRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	query := `SELECT currency_code, symbol, name, precision, created_at, last_updated_at FROM currencies ORDER BY currency_code;`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list currencies", err)
	}
	defer rows.Close()

	var currencies []domain.Currency
	for rows.Next() {
		var c domain.Currency
		if err := rows.Scan(&c.CurrencyCode, &c.Symbol, &c.Name, &c.Precision, &c.CreatedAt, &c.LastUpdatedAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan currency row", err)
		}
		currencies = append(currencies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading currency rows", err)
	}
	return currencies, nil
}
