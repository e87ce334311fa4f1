package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/apperrors"
	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/personal_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/personal_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/personal_ledger_app/internal/dto"
	"github.com/SscSPs/personal_ledger_app/internal/middleware"
	"github.com/SscSPs/personal_ledger_app/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrJournalUnbalanced  = errors.New("journal entries do not balance")
	ErrJournalMinEntries  = errors.New("journal must have at least two transaction entries")
	ErrJournalMinAccounts = errors.New("journal must affect at least two different accounts")
	ErrAccountNotFound    = errors.New("account not found")
	ErrRateRequired       = errors.New("exchange rate required when account currency differs from journal currency")
	ErrAlreadyReversed    = errors.New("journal has already been reversed")
	ErrReversalOfReversal = errors.New("a reversal journal cannot itself be reversed")
)

const (
	defaultJournalPageSize = 20
	maxJournalPageSize     = 100
)

type journalService struct {
	journalRepo portsrepo.JournalRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	currencySvc portssvc.CurrencySvcFacade
	auditSvc    portssvc.AuditSvcFacade
	rebuildSvc  portssvc.RebuildSvcFacade
}

// NewJournalService creates the journal orchestration service.
func NewJournalService(journalRepo portsrepo.JournalRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade, currencySvc portssvc.CurrencySvcFacade, auditSvc portssvc.AuditSvcFacade, rebuildSvc portssvc.RebuildSvcFacade) portssvc.JournalSvcFacade {
	return &journalService{
		journalRepo: journalRepo,
		accountRepo: accountRepo,
		currencySvc: currencySvc,
		auditSvc:    auditSvc,
		rebuildSvc:  rebuildSvc,
	}
}

var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// journalDraft is the validated output of the shared create/update pipeline:
// a journal header, its rounded and balanced transaction set, and the
// accounts whose running balances must be rebuilt rather than computed
// inline.
type journalDraft struct {
	journal           domain.Journal
	transactions      []domain.Transaction
	backdatedAccounts []string
}

// buildJournal runs the write pipeline shared by create, update, duplicate
// and reverse: resolve accounts, round line amounts at account precision,
// check the balancing invariant at journal precision, then either compute
// running balances inline or mark the account for deferred rebuild.
func (s *journalService) buildJournal(ctx context.Context, journalID string, date time.Time, description, currencyCode string, lines []dto.CreateTransactionRequest, reversalOf *string) (*journalDraft, error) {
	if len(lines) < 2 {
		return nil, ErrJournalMinEntries
	}

	accountIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		accountIDs = append(accountIDs, line.AccountID)
	}
	if !accounting.ValidateDistinctAccounts(accountIDs) {
		return nil, ErrJournalMinAccounts
	}

	currencyCode = strings.ToUpper(currencyCode)
	if _, err := s.currencySvc.GetCurrencyByCode(ctx, currencyCode); err != nil {
		return nil, fmt.Errorf("%w: unknown journal currency %s", apperrors.ErrValidation, currencyCode)
	}
	journalPrecision := s.currencySvc.PrecisionFor(ctx, currencyCode)

	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, uniqueStrings(accountIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	now := time.Now()
	accountTypes := make(map[string]domain.AccountType, len(accounts))
	transactions := make([]domain.Transaction, len(lines))
	for i, line := range lines {
		account, found := accounts[line.AccountID]
		if !found {
			return nil, fmt.Errorf("%w: ID %s", ErrAccountNotFound, line.AccountID)
		}
		if account.IsDeleted() {
			return nil, fmt.Errorf("%w: account %s is deleted", apperrors.ErrValidation, line.AccountID)
		}
		accountTypes[account.AccountID] = account.AccountType

		if line.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: transaction amount must be positive for account %s", apperrors.ErrValidation, line.AccountID)
		}

		// Line amounts are rounded at account precision up front; all later
		// balance math assumes already-rounded inputs.
		accountPrecision := s.currencySvc.PrecisionFor(ctx, account.CurrencyCode)
		amount := accounting.Round(line.Amount, accountPrecision)

		rate := decimal.NewFromInt(1)
		if line.ExchangeRate != nil {
			if line.ExchangeRate.LessThanOrEqual(decimal.Zero) {
				return nil, fmt.Errorf("%w: exchange rate must be positive for account %s", apperrors.ErrValidation, line.AccountID)
			}
			rate = *line.ExchangeRate
		} else if account.CurrencyCode != currencyCode {
			return nil, fmt.Errorf("%w: account %s is in %s", ErrRateRequired, line.AccountID, account.CurrencyCode)
		}

		transactions[i] = domain.Transaction{
			TransactionID:   uuid.NewString(),
			JournalID:       journalID,
			AccountID:       line.AccountID,
			Amount:          amount,
			TransactionType: line.TransactionType,
			CurrencyCode:    account.CurrencyCode,
			ExchangeRate:    rate,
			Notes:           line.Notes,
			TransactionDate: date,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				LastUpdatedAt: now,
			},
		}
	}

	check := accounting.ValidateJournal(transactions, journalPrecision)
	if !check.IsValid {
		return nil, fmt.Errorf("%w: imbalance of %s %s", ErrJournalUnbalanced, check.Imbalance.String(), currencyCode)
	}

	backdated, err := s.computeRunningBalances(ctx, transactions, accounts, date)
	if err != nil {
		return nil, err
	}

	totalAmount := accounting.Round(decimal.Max(check.TotalDebits.Abs(), check.TotalCredits.Abs()), journalPrecision)

	journal := domain.Journal{
		JournalID:           journalID,
		JournalDate:         date,
		Description:         description,
		CurrencyCode:        currencyCode,
		Status:              domain.Active,
		TotalAmount:         totalAmount,
		TransactionCount:    len(transactions),
		DisplayType:         accounting.ClassifyJournal(transactions, accountTypes),
		ReversalOfJournalID: reversalOf,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}

	return &journalDraft{
		journal:           journal,
		transactions:      transactions,
		backdatedAccounts: backdated,
	}, nil
}

// computeRunningBalances fills in cached running balances for in-order
// appends and returns the accounts that need a deferred rebuild instead. A
// backdated line invalidates every later cached balance on its account, so
// computing one inline would be wasted work.
func (s *journalService) computeRunningBalances(ctx context.Context, transactions []domain.Transaction, accounts map[string]domain.Account, date time.Time) ([]string, error) {
	running := make(map[string]decimal.Decimal)
	backdated := make(map[string]bool)

	for i := range transactions {
		accountID := transactions[i].AccountID
		if backdated[accountID] {
			continue
		}

		prev, seeded := running[accountID]
		if !seeded {
			latest, err := s.journalRepo.FindLatestTransactionForAccount(ctx, accountID)
			if err != nil {
				return nil, fmt.Errorf("finding latest transaction for account %s: %w", accountID, err)
			}
			var latestDate *time.Time
			if latest != nil {
				latestDate = &latest.TransactionDate
			}
			if accounting.IsBackdated(date, latestDate) {
				backdated[accountID] = true
				continue
			}
			prev = decimal.Zero
			if latest != nil {
				prev = latest.RunningBalance
			}
		}

		account := accounts[accountID]
		precision := s.currencySvc.PrecisionFor(ctx, account.CurrencyCode)
		next, err := accounting.CalculateNewBalance(prev, transactions[i].Amount, account.AccountType, transactions[i].TransactionType, precision)
		if err != nil {
			return nil, err
		}
		transactions[i].RunningBalance = next
		running[accountID] = next
	}

	ids := make([]string, 0, len(backdated))
	for accountID := range backdated {
		ids = append(ids, accountID)
	}
	return ids, nil
}

func (s *journalService) CreateJournal(ctx context.Context, req dto.CreateJournalRequest) (*domain.Journal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	draft, err := s.buildJournal(ctx, uuid.NewString(), req.Date, req.Description, req.CurrencyCode, req.Transactions, nil)
	if err != nil {
		return nil, err
	}

	if err := s.journalRepo.SaveJournal(ctx, draft.journal, draft.transactions); err != nil {
		logger.Error("Failed to save journal", slog.String("error", err.Error()), slog.String("journal_id", draft.journal.JournalID))
		return nil, fmt.Errorf("failed to save journal: %w", err)
	}

	s.auditSvc.Log(ctx, "journal", draft.journal.JournalID, domain.AuditCreate, draft.journal)
	if len(draft.backdatedAccounts) > 0 {
		s.rebuildSvc.EnqueueMany(draft.backdatedAccounts, draft.journal.JournalDate)
	}

	logger.Info("Journal created",
		slog.String("journal_id", draft.journal.JournalID),
		slog.String("display_type", string(draft.journal.DisplayType)),
		slog.Int("backdated_accounts", len(draft.backdatedAccounts)))

	result := draft.journal
	result.Transactions = draft.transactions
	return &result, nil
}

func (s *journalService) GetJournalByID(ctx context.Context, journalID string) (*domain.Journal, error) {
	journal, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		return nil, err
	}

	transactions, err := s.journalRepo.FindTransactionsByJournalID(ctx, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions for journal %s: %w", journalID, err)
	}
	journal.Transactions = transactions
	return journal, nil
}

func (s *journalService) ListJournals(ctx context.Context, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultJournalPageSize
	}
	if limit > maxJournalPageSize {
		limit = maxJournalPageSize
	}

	journals, nextToken, err := s.journalRepo.ListJournals(ctx, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list journals: %w", err)
	}

	responses := make([]dto.JournalResponse, len(journals))
	for i := range journals {
		responses[i] = dto.ToJournalResponse(&journals[i])
	}
	return &dto.ListJournalsResponse{Journals: responses, NextToken: nextToken}, nil
}

func (s *journalService) UpdateJournal(ctx context.Context, journalID string, req dto.UpdateJournalRequest) (*domain.Journal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		return nil, err
	}
	oldTransactions, err := s.journalRepo.FindTransactionsByJournalID(ctx, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions for journal %s: %w", journalID, err)
	}

	draft, err := s.buildJournal(ctx, journalID, req.Date, req.Description, req.CurrencyCode, req.Transactions, original.ReversalOfJournalID)
	if err != nil {
		return nil, err
	}

	// An update rewrites history, so the original's shape carries over where
	// the pipeline would reset it.
	draft.journal.Status = original.Status
	draft.journal.ReversedByJournalID = original.ReversedByJournalID
	draft.journal.CreatedAt = original.CreatedAt

	if err := s.journalRepo.ReplaceJournalTransactions(ctx, draft.journal, draft.transactions); err != nil {
		logger.Error("Failed to update journal", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		return nil, fmt.Errorf("failed to update journal: %w", err)
	}

	// The rebuild set is the union of accounts touched before and after the
	// edit, anchored at the earlier date: an account dropped by the edit
	// still has stale balances after the removal point.
	rebuildSet := make(map[string]bool)
	for _, txn := range oldTransactions {
		rebuildSet[txn.AccountID] = true
	}
	for _, txn := range draft.transactions {
		rebuildSet[txn.AccountID] = true
	}
	rebuildFrom := original.JournalDate
	if req.Date.Before(rebuildFrom) {
		rebuildFrom = req.Date
	}
	rebuildIDs := make([]string, 0, len(rebuildSet))
	for accountID := range rebuildSet {
		rebuildIDs = append(rebuildIDs, accountID)
	}
	s.rebuildSvc.EnqueueMany(rebuildIDs, rebuildFrom)

	s.auditSvc.Log(ctx, "journal", journalID, domain.AuditUpdate, req)
	logger.Info("Journal updated", slog.String("journal_id", journalID), slog.Int("rebuild_accounts", len(rebuildIDs)))

	result := draft.journal
	result.Transactions = draft.transactions
	return &result, nil
}

func (s *journalService) DeleteJournal(ctx context.Context, journalID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	journal, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Deleting a missing or already-deleted journal is a no-op.
			logger.Debug("Delete of missing journal ignored", slog.String("journal_id", journalID))
			return nil
		}
		return err
	}

	transactions, err := s.journalRepo.FindTransactionsByJournalID(ctx, journalID)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions for journal %s: %w", journalID, err)
	}

	if err := s.journalRepo.SoftDeleteJournal(ctx, journalID, time.Now()); err != nil {
		logger.Error("Failed to delete journal", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		return fmt.Errorf("failed to delete journal: %w", err)
	}

	accountSet := make(map[string]bool)
	for _, txn := range transactions {
		accountSet[txn.AccountID] = true
	}
	accountIDs := make([]string, 0, len(accountSet))
	for accountID := range accountSet {
		accountIDs = append(accountIDs, accountID)
	}
	s.rebuildSvc.EnqueueMany(accountIDs, journal.JournalDate)

	s.auditSvc.Log(ctx, "journal", journalID, domain.AuditDelete, journal)
	logger.Info("Journal deleted", slog.String("journal_id", journalID))
	return nil
}

// DuplicateJournal re-creates a copy of a journal dated now. The copy runs
// the complete validation pipeline; it is not a raw row copy.
func (s *journalService) DuplicateJournal(ctx context.Context, journalID string) (*domain.Journal, error) {
	source, err := s.GetJournalByID(ctx, journalID)
	if err != nil {
		return nil, err
	}

	lines := make([]dto.CreateTransactionRequest, len(source.Transactions))
	for i, txn := range source.Transactions {
		rate := txn.ExchangeRate
		lines[i] = dto.CreateTransactionRequest{
			AccountID:       txn.AccountID,
			Amount:          txn.Amount,
			TransactionType: txn.TransactionType,
			Notes:           txn.Notes,
			ExchangeRate:    &rate,
		}
	}

	return s.CreateJournal(ctx, dto.CreateJournalRequest{
		Date:         time.Now(),
		Description:  source.Description,
		CurrencyCode: source.CurrencyCode,
		Transactions: lines,
	})
}

// ReverseJournal creates the mirror-image journal of an active journal and
// links the two. The original's amounts are never mutated; reversal is the
// only correction mechanism besides update and delete.
func (s *journalService) ReverseJournal(ctx context.Context, journalID string, reason string) (*domain.Journal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.GetJournalByID(ctx, journalID)
	if err != nil {
		return nil, err
	}
	if original.Status == domain.Reversed || original.ReversedByJournalID != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyReversed, journalID)
	}
	if original.IsReversal() {
		return nil, fmt.Errorf("%w: %s", ErrReversalOfReversal, journalID)
	}

	now := time.Now()
	lines := make([]dto.CreateTransactionRequest, len(original.Transactions))
	for i, txn := range original.Transactions {
		rate := txn.ExchangeRate
		lines[i] = dto.CreateTransactionRequest{
			AccountID:       txn.AccountID,
			Amount:          txn.Amount,
			TransactionType: oppositeType(txn.TransactionType),
			Notes:           annotateReversal(txn.Notes, reason),
			ExchangeRate:    &rate,
		}
	}

	draft, err := s.buildJournal(ctx, uuid.NewString(), now, reversalDescription(original.Description), original.CurrencyCode, lines, &original.JournalID)
	if err != nil {
		return nil, err
	}

	if err := s.journalRepo.SaveJournal(ctx, draft.journal, draft.transactions); err != nil {
		logger.Error("Failed to save reversal journal", slog.String("error", err.Error()), slog.String("original_journal_id", journalID))
		return nil, fmt.Errorf("failed to save reversal journal: %w", err)
	}
	if err := s.journalRepo.MarkReversed(ctx, journalID, draft.journal.JournalID, now); err != nil {
		logger.Error("Failed to link reversal journal", slog.String("error", err.Error()), slog.String("original_journal_id", journalID), slog.String("reversal_journal_id", draft.journal.JournalID))
		return nil, fmt.Errorf("failed to link reversal journal: %w", err)
	}

	s.auditSvc.Log(ctx, "journal", draft.journal.JournalID, domain.AuditCreate, draft.journal)
	s.auditSvc.Log(ctx, "journal", journalID, domain.AuditUpdate, map[string]string{"status": string(domain.Reversed), "reversedByJournalID": draft.journal.JournalID})
	if len(draft.backdatedAccounts) > 0 {
		s.rebuildSvc.EnqueueMany(draft.backdatedAccounts, draft.journal.JournalDate)
	}

	logger.Info("Journal reversed",
		slog.String("original_journal_id", journalID),
		slog.String("reversal_journal_id", draft.journal.JournalID))

	result := draft.journal
	result.Transactions = draft.transactions
	return &result, nil
}

func oppositeType(t domain.TransactionType) domain.TransactionType {
	if t == domain.Debit {
		return domain.Credit
	}
	return domain.Debit
}

func annotateReversal(notes, reason string) string {
	if reason == "" {
		return notes
	}
	if notes == "" {
		return "Reversal: " + reason
	}
	return notes + " (Reversal: " + reason + ")"
}

func reversalDescription(original string) string {
	if original == "" {
		return "Reversal"
	}
	return "Reversal of: " + original
}

func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, s := range input {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		result = append(result, s)
	}
	return result
}
