package services

import (
	"context"
	"fmt"

	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/personal_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/personal_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/personal_ledger_app/internal/dto"
	"github.com/SscSPs/personal_ledger_app/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// entryService hosts the two guided entry builders. Both funnel through the
// journal orchestration service; the builders only shape and pre-validate
// input, they never persist anything themselves. Results come back as
// structured form feedback rather than errors.
type entryService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	currencySvc portssvc.CurrencySvcFacade
	rateSvc     portssvc.RateSvcFacade
	journalSvc  portssvc.JournalSvcFacade
}

// NewEntryService creates the entry builder service.
func NewEntryService(accountRepo portsrepo.AccountRepositoryFacade, currencySvc portssvc.CurrencySvcFacade, rateSvc portssvc.RateSvcFacade, journalSvc portssvc.JournalSvcFacade) portssvc.EntrySvcFacade {
	return &entryService{
		accountRepo: accountRepo,
		currencySvc: currencySvc,
		rateSvc:     rateSvc,
		journalSvc:  journalSvc,
	}
}

var _ portssvc.EntrySvcFacade = (*entryService)(nil)

// CreateSimpleEntry builds a two-line journal from the guided form: money
// moves from the source account to the destination account, so the
// destination is debited and the source credited regardless of kind. When
// the accounts use different currencies the destination amount is rounded
// first and the stored exchange rate is recomputed from the rounded amounts,
// guaranteeing the persisted journal balances at stored precision.
func (s *entryService) CreateSimpleEntry(ctx context.Context, req dto.SimpleEntryRequest, prefs dto.EntryPreferences) dto.EntryResult {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return dto.FailureResult("amount must be positive")
	}
	if req.SourceAccountID == req.DestinationAccountID {
		return dto.FailureResult("source and destination accounts must differ")
	}

	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, []string{req.SourceAccountID, req.DestinationAccountID})
	if err != nil {
		return dto.FailureResult(fmt.Sprintf("failed to load accounts: %v", err))
	}
	source, ok := accounts[req.SourceAccountID]
	if !ok {
		return dto.FailureResult(fmt.Sprintf("source account %s not found", req.SourceAccountID))
	}
	destination, ok := accounts[req.DestinationAccountID]
	if !ok {
		return dto.FailureResult(fmt.Sprintf("destination account %s not found", req.DestinationAccountID))
	}

	if reason := validateSimpleKind(req.Kind, source, destination); reason != "" {
		return dto.FailureResult(reason)
	}

	// The journal is denominated in the source account's currency; the
	// requested amount is in source-currency units. An account without a
	// currency falls back to the configured default.
	journalCurrency := source.CurrencyCode
	if journalCurrency == "" {
		journalCurrency = prefs.DefaultCurrencyCode
	}
	sourcePrecision := s.currencySvc.PrecisionFor(ctx, journalCurrency)
	sourceAmount := accounting.Round(req.Amount, sourcePrecision)

	destinationAmount := sourceAmount
	var destinationRate *decimal.Decimal
	if destination.CurrencyCode != journalCurrency {
		conv, err := s.rateSvc.Convert(ctx, sourceAmount, journalCurrency, destination.CurrencyCode)
		if err != nil {
			return dto.FailureResult(fmt.Sprintf("failed to resolve exchange rate %s->%s: %v", journalCurrency, destination.CurrencyCode, err))
		}
		destinationPrecision := s.currencySvc.PrecisionFor(ctx, destination.CurrencyCode)
		destinationAmount = accounting.Round(conv.ConvertedAmount, destinationPrecision)
		if destinationAmount.LessThanOrEqual(decimal.Zero) {
			return dto.FailureResult("amount too small to represent in destination currency")
		}
		// The stored rate is derived from the rounded amounts, not the other
		// way around: destinationAmount x rate must reproduce sourceAmount
		// exactly at journal precision.
		rate := sourceAmount.Div(destinationAmount)
		destinationRate = &rate
	}

	description := req.Description
	if description == "" {
		description = defaultDescription(req.Kind, source.Name, destination.Name)
	}

	journal, err := s.journalSvc.CreateJournal(ctx, dto.CreateJournalRequest{
		Date:         req.Date,
		Description:  description,
		CurrencyCode: journalCurrency,
		Transactions: []dto.CreateTransactionRequest{
			{
				AccountID:       req.DestinationAccountID,
				Amount:          destinationAmount,
				TransactionType: domain.Debit,
				Notes:           req.Notes,
				ExchangeRate:    destinationRate,
			},
			{
				AccountID:       req.SourceAccountID,
				Amount:          sourceAmount,
				TransactionType: domain.Credit,
				Notes:           req.Notes,
			},
		},
	})
	if err != nil {
		return dto.FailureResult(err.Error())
	}
	return dto.SuccessResult(journal.JournalID)
}

// validateSimpleKind checks that the chosen entry kind matches the account
// shapes the form implies. An empty return means valid.
func validateSimpleKind(kind dto.EntryKind, source, destination domain.Account) string {
	switch kind {
	case dto.EntryExpense:
		if destination.AccountType != domain.Expense {
			return fmt.Sprintf("expense entries must target an expense account, got %s", destination.AccountType)
		}
	case dto.EntryIncome:
		if source.AccountType != domain.Income {
			return fmt.Sprintf("income entries must draw from an income account, got %s", source.AccountType)
		}
	case dto.EntryTransfer:
		if !isTransferable(source.AccountType) || !isTransferable(destination.AccountType) {
			return "transfers must move between asset or liability accounts"
		}
	default:
		return fmt.Sprintf("unknown entry kind %q", kind)
	}
	return ""
}

func isTransferable(t domain.AccountType) bool {
	return t == domain.Asset || t == domain.Liability
}

func defaultDescription(kind dto.EntryKind, sourceName, destinationName string) string {
	switch kind {
	case dto.EntryTransfer:
		return fmt.Sprintf("Transfer: %s to %s", sourceName, destinationName)
	case dto.EntryIncome:
		return fmt.Sprintf("Income: %s", sourceName)
	default:
		return fmt.Sprintf("Expense: %s", destinationName)
	}
}

// CreateMultiLineEntry pre-validates an N-line entry and delegates to the
// journal pipeline.
func (s *entryService) CreateMultiLineEntry(ctx context.Context, req dto.MultiLineEntryRequest) dto.EntryResult {
	if reason := s.validateMultiLine(ctx, req); reason != "" {
		return dto.FailureResult(reason)
	}

	journal, err := s.journalSvc.CreateJournal(ctx, dto.CreateJournalRequest{
		Date:         req.Date,
		Description:  req.Description,
		CurrencyCode: req.CurrencyCode,
		Transactions: toTransactionRequests(req.Lines),
	})
	if err != nil {
		return dto.FailureResult(err.Error())
	}
	return dto.SuccessResult(journal.JournalID)
}

// UpdateMultiLineEntry pre-validates a replacement line set and delegates to
// the journal update pipeline.
func (s *entryService) UpdateMultiLineEntry(ctx context.Context, journalID string, req dto.MultiLineEntryRequest) dto.EntryResult {
	if reason := s.validateMultiLine(ctx, req); reason != "" {
		return dto.FailureResult(reason)
	}

	journal, err := s.journalSvc.UpdateJournal(ctx, journalID, dto.UpdateJournalRequest{
		Date:         req.Date,
		Description:  req.Description,
		CurrencyCode: req.CurrencyCode,
		Transactions: toTransactionRequests(req.Lines),
	})
	if err != nil {
		return dto.FailureResult(err.Error())
	}
	return dto.SuccessResult(journal.JournalID)
}

// validateMultiLine runs the form-level checks so the user gets a direct
// reason instead of a pipeline error. An empty return means valid.
func (s *entryService) validateMultiLine(ctx context.Context, req dto.MultiLineEntryRequest) string {
	if req.Description == "" {
		return "description is required"
	}
	if len(req.Lines) < 2 {
		return "at least two lines are required"
	}

	accountIDs := make([]string, 0, len(req.Lines))
	for _, line := range req.Lines {
		if line.Amount.LessThanOrEqual(decimal.Zero) {
			return fmt.Sprintf("amount must be positive on account %s", line.AccountID)
		}
		accountIDs = append(accountIDs, line.AccountID)
	}
	if !accounting.ValidateDistinctAccounts(accountIDs) {
		return "at least two different accounts are required"
	}

	precision := s.currencySvc.PrecisionFor(ctx, req.CurrencyCode)
	shadow := make([]domain.Transaction, len(req.Lines))
	for i, line := range req.Lines {
		rate := decimal.Decimal{}
		if line.ExchangeRate != nil {
			rate = *line.ExchangeRate
		}
		shadow[i] = domain.Transaction{
			Amount:          line.Amount,
			TransactionType: line.TransactionType,
			ExchangeRate:    rate,
		}
	}
	if check := accounting.ValidateJournal(shadow, precision); !check.IsValid {
		return fmt.Sprintf("lines do not balance: imbalance of %s %s", check.Imbalance.String(), req.CurrencyCode)
	}
	return ""
}

func toTransactionRequests(lines []dto.EntryLine) []dto.CreateTransactionRequest {
	requests := make([]dto.CreateTransactionRequest, len(lines))
	for i, line := range lines {
		requests[i] = dto.CreateTransactionRequest{
			AccountID:       line.AccountID,
			Amount:          line.Amount,
			TransactionType: line.TransactionType,
			Notes:           line.Notes,
			ExchangeRate:    line.ExchangeRate,
		}
	}
	return requests
}
