package repositories

// RepositoryProvider bundles all repository facades for service wiring.
type RepositoryProvider struct {
	AccountRepo      AccountRepositoryFacade
	CurrencyRepo     CurrencyRepositoryFacade
	ExchangeRateRepo ExchangeRateRepositoryFacade
	JournalRepo      JournalRepositoryFacade
	AuditRepo        AuditRepository
}
