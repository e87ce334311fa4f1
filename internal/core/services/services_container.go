package services

import (
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/core/ports/providers"
	portsrepo "github.com/SscSPs/personal_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/personal_ledger_app/internal/core/ports/services"
)

// ContainerConfig carries the tunables the service layer needs from the
// platform configuration.
type ContainerConfig struct {
	DefaultCurrency string
	RateFreshness   time.Duration
}

// NewServiceContainer wires every service with its dependencies and returns
// the bundle handlers consume.
func NewServiceContainer(repos portsrepo.RepositoryProvider, rateProvider providers.RateProvider, cfg ContainerConfig) portssvc.ServiceContainer {
	currencySvc := NewCurrencyService(repos.CurrencyRepo)
	rateSvc := NewExchangeRateService(repos.ExchangeRateRepo, rateProvider, cfg.RateFreshness)
	auditSvc := NewAuditService(repos.AuditRepo)
	accountSvc := NewAccountService(repos.AccountRepo, currencySvc, auditSvc)
	rebuildSvc := NewRebuildQueue(repos.JournalRepo, repos.AccountRepo, currencySvc)
	journalSvc := NewJournalService(repos.JournalRepo, repos.AccountRepo, currencySvc, auditSvc, rebuildSvc)
	entrySvc := NewEntryService(repos.AccountRepo, currencySvc, rateSvc, journalSvc)
	balanceSvc := NewBalanceService(repos.AccountRepo, repos.JournalRepo, currencySvc, rateSvc, cfg.DefaultCurrency)

	return portssvc.ServiceContainer{
		Account:      accountSvc,
		Currency:     currencySvc,
		ExchangeRate: rateSvc,
		Balance:      balanceSvc,
		Journal:      journalSvc,
		Entry:        entrySvc,
		Audit:        auditSvc,
		Rebuild:      rebuildSvc,
	}
}
