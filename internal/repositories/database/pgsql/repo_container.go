package pgsql

import (
	portsrepo "github.com/SscSPs/personal_ledger_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider builds the full set of pgsql-backed repositories over
// a shared connection pool.
func NewRepositoryProvider(pool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:      newPgxAccountRepository(pool),
		CurrencyRepo:     newPgxCurrencyRepository(pool),
		ExchangeRateRepo: newPgxExchangeRateRepository(pool),
		JournalRepo:      newPgxJournalRepository(pool),
		AuditRepo:        newPgxAuditRepository(pool),
	}
}
