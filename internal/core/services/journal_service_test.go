package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/apperrors"
	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/personal_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/personal_ledger_app/internal/core/services"
	"github.com/SscSPs/personal_ledger_app/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// fakeRebuildQueue records enqueues, coalescing to the earliest date like the
// real queue.
type fakeRebuildQueue struct {
	mu       sync.Mutex
	enqueued map[string]time.Time
}

func newFakeRebuildQueue() *fakeRebuildQueue {
	return &fakeRebuildQueue{enqueued: make(map[string]time.Time)}
}

func (f *fakeRebuildQueue) EnqueueMany(accountIDs []string, from time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range accountIDs {
		existing, ok := f.enqueued[id]
		if !ok || from.Before(existing) {
			f.enqueued[id] = from
		}
	}
}

func (f *fakeRebuildQueue) Flush(ctx context.Context) error { return nil }

func (f *fakeRebuildQueue) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.enqueued)
}

func (f *fakeRebuildQueue) Signal() <-chan struct{} { return nil }

// stubAuditService records the entity/action pairs it was asked to log.
type stubAuditService struct {
	mu      sync.Mutex
	entries []string
}

func (s *stubAuditService) Log(ctx context.Context, entityType, entityID string, action domain.AuditAction, changes any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entityType+":"+string(action))
}

func (s *stubAuditService) Find(ctx context.Context, entityType, entityID string) ([]domain.AuditEntry, error) {
	return nil, nil
}

// --- Test Suite ---
type JournalServiceTestSuite struct {
	suite.Suite
	mockJournalRepo *MockJournalRepository
	mockAccountRepo *MockAccountRepository
	mockCurrencySvc *MockCurrencyService
	auditStub       *stubAuditService
	rebuildFake     *fakeRebuildQueue
	service         portssvc.JournalSvcFacade
}

func (suite *JournalServiceTestSuite) SetupTest() {
	suite.mockJournalRepo = new(MockJournalRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockCurrencySvc = new(MockCurrencyService)
	suite.auditStub = new(stubAuditService)
	suite.rebuildFake = newFakeRebuildQueue()
	suite.service = services.NewJournalService(suite.mockJournalRepo, suite.mockAccountRepo, suite.mockCurrencySvc, suite.auditStub, suite.rebuildFake)
}

func (suite *JournalServiceTestSuite) stubUSD() {
	suite.mockCurrencySvc.On("GetCurrencyByCode", mock.Anything, "USD").Return(&domain.Currency{CurrencyCode: "USD", Precision: 2}, nil)
	suite.mockCurrencySvc.On("PrecisionFor", mock.Anything, "USD").Return(2)
}

func (suite *JournalServiceTestSuite) stubAccounts(accounts ...domain.Account) {
	byID := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.AccountID] = a
	}
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, mock.AnythingOfType("[]string")).Return(byID, nil)
}

func expenseRequest(date time.Time, amount string) dto.CreateJournalRequest {
	return dto.CreateJournalRequest{
		Date:         date,
		Description:  "Groceries",
		CurrencyCode: "USD",
		Transactions: []dto.CreateTransactionRequest{
			{AccountID: "groceries", Amount: decimal.RequireFromString(amount), TransactionType: domain.Debit},
			{AccountID: "checking", Amount: decimal.RequireFromString(amount), TransactionType: domain.Credit},
		},
	}
}

func (suite *JournalServiceTestSuite) TestCreateJournal_Success() {
	ctx := context.Background()
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	suite.stubUSD()
	suite.stubAccounts(
		domain.Account{AccountID: "groceries", AccountType: domain.Expense, CurrencyCode: "USD"},
		domain.Account{AccountID: "checking", AccountType: domain.Asset, CurrencyCode: "USD"},
	)
	suite.mockJournalRepo.On("FindLatestTransactionForAccount", ctx, "groceries").Return(nil, nil).Once()
	suite.mockJournalRepo.On("FindLatestTransactionForAccount", ctx, "checking").Return(nil, nil).Once()
	suite.mockJournalRepo.On("SaveJournal", ctx, mock.AnythingOfType("domain.Journal"), mock.AnythingOfType("[]domain.Transaction")).Return(nil).Once()

	journal, err := suite.service.CreateJournal(ctx, expenseRequest(date, "42.50"))

	suite.Require().NoError(err)
	suite.Equal(domain.Active, journal.Status)
	suite.Equal(domain.DisplayExpense, journal.DisplayType)
	suite.Equal("42.5", journal.TotalAmount.String())
	suite.Equal(2, journal.TransactionCount)
	suite.Require().Len(journal.Transactions, 2)

	// Fresh accounts, in-order append: running balances computed inline.
	suite.Equal("42.5", journal.Transactions[0].RunningBalance.String())
	suite.Equal("-42.5", journal.Transactions[1].RunningBalance.String())
	suite.Equal(0, suite.rebuildFake.Len())
	suite.Contains(suite.auditStub.entries, "journal:CREATE")
}

func (suite *JournalServiceTestSuite) TestCreateJournal_Unbalanced() {
	ctx := context.Background()
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	suite.stubUSD()
	suite.stubAccounts(
		domain.Account{AccountID: "groceries", AccountType: domain.Expense, CurrencyCode: "USD"},
		domain.Account{AccountID: "checking", AccountType: domain.Asset, CurrencyCode: "USD"},
	)

	req := dto.CreateJournalRequest{
		Date:         date,
		CurrencyCode: "USD",
		Transactions: []dto.CreateTransactionRequest{
			{AccountID: "groceries", Amount: decimal.NewFromInt(50), TransactionType: domain.Debit},
			{AccountID: "checking", Amount: decimal.NewFromInt(40), TransactionType: domain.Credit},
		},
	}

	_, err := suite.service.CreateJournal(ctx, req)

	suite.Require().ErrorIs(err, services.ErrJournalUnbalanced)
	suite.ErrorContains(err, "10")
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveJournal")
}

func (suite *JournalServiceTestSuite) TestCreateJournal_SingleAccountRejected() {
	ctx := context.Background()

	req := dto.CreateJournalRequest{
		Date:         time.Now(),
		CurrencyCode: "USD",
		Transactions: []dto.CreateTransactionRequest{
			{AccountID: "checking", Amount: decimal.NewFromInt(10), TransactionType: domain.Debit},
			{AccountID: "checking", Amount: decimal.NewFromInt(10), TransactionType: domain.Credit},
		},
	}

	_, err := suite.service.CreateJournal(ctx, req)
	suite.Require().ErrorIs(err, services.ErrJournalMinAccounts)
}

func (suite *JournalServiceTestSuite) TestCreateJournal_BackdatedMarksRebuild() {
	ctx := context.Background()
	journalDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	laterDate := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	suite.stubUSD()
	suite.stubAccounts(
		domain.Account{AccountID: "groceries", AccountType: domain.Expense, CurrencyCode: "USD"},
		domain.Account{AccountID: "checking", AccountType: domain.Asset, CurrencyCode: "USD"},
	)

	// checking already has a later transaction; groceries does not.
	latest := &domain.Transaction{TransactionID: "txn-later", TransactionDate: laterDate, RunningBalance: decimal.NewFromInt(500)}
	suite.mockJournalRepo.On("FindLatestTransactionForAccount", ctx, "checking").Return(latest, nil).Once()
	suite.mockJournalRepo.On("FindLatestTransactionForAccount", ctx, "groceries").Return(nil, nil).Once()
	suite.mockJournalRepo.On("SaveJournal", ctx, mock.AnythingOfType("domain.Journal"), mock.AnythingOfType("[]domain.Transaction")).Return(nil).Once()

	journal, err := suite.service.CreateJournal(ctx, expenseRequest(journalDate, "42.50"))

	suite.Require().NoError(err)
	// The backdated account's line carries no inline balance; the rebuild
	// queue owns it now, anchored at the journal date.
	suite.True(journal.Transactions[1].RunningBalance.IsZero())
	suite.Equal(1, suite.rebuildFake.Len())
	suite.Equal(journalDate, suite.rebuildFake.enqueued["checking"])
}

func (suite *JournalServiceTestSuite) TestCreateJournal_SameDateIsNotBackdated() {
	ctx := context.Background()
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	suite.stubUSD()
	suite.stubAccounts(
		domain.Account{AccountID: "groceries", AccountType: domain.Expense, CurrencyCode: "USD"},
		domain.Account{AccountID: "checking", AccountType: domain.Asset, CurrencyCode: "USD"},
	)

	latest := &domain.Transaction{TransactionID: "txn-same-day", TransactionDate: date, RunningBalance: decimal.NewFromInt(100)}
	suite.mockJournalRepo.On("FindLatestTransactionForAccount", ctx, "checking").Return(latest, nil).Once()
	suite.mockJournalRepo.On("FindLatestTransactionForAccount", ctx, "groceries").Return(nil, nil).Once()
	suite.mockJournalRepo.On("SaveJournal", ctx, mock.AnythingOfType("domain.Journal"), mock.AnythingOfType("[]domain.Transaction")).Return(nil).Once()

	journal, err := suite.service.CreateJournal(ctx, expenseRequest(date, "25.00"))

	suite.Require().NoError(err)
	// Same-date entries append in insertion order: 100 - 25 = 75.
	suite.Equal("75", journal.Transactions[1].RunningBalance.String())
	suite.Equal(0, suite.rebuildFake.Len())
}

func (suite *JournalServiceTestSuite) TestUpdateJournal_RebuildsUnionOfAccounts() {
	ctx := context.Background()
	originalDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	newDate := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	original := &domain.Journal{
		JournalID:    "jrn-1",
		JournalDate:  originalDate,
		CurrencyCode: "USD",
		Status:       domain.Active,
	}
	oldTxns := []domain.Transaction{
		{TransactionID: "old-1", AccountID: "groceries", Amount: decimal.NewFromInt(30), TransactionType: domain.Debit},
		{TransactionID: "old-2", AccountID: "checking", Amount: decimal.NewFromInt(30), TransactionType: domain.Credit},
	}
	suite.mockJournalRepo.On("FindJournalByID", ctx, "jrn-1").Return(original, nil).Once()
	suite.mockJournalRepo.On("FindTransactionsByJournalID", ctx, "jrn-1").Return(oldTxns, nil).Once()

	suite.stubUSD()
	suite.stubAccounts(
		domain.Account{AccountID: "dining", AccountType: domain.Expense, CurrencyCode: "USD"},
		domain.Account{AccountID: "checking", AccountType: domain.Asset, CurrencyCode: "USD"},
	)
	suite.mockJournalRepo.On("FindLatestTransactionForAccount", ctx, mock.AnythingOfType("string")).Return(nil, nil)
	suite.mockJournalRepo.On("ReplaceJournalTransactions", ctx, mock.AnythingOfType("domain.Journal"), mock.AnythingOfType("[]domain.Transaction")).Return(nil).Once()

	req := dto.UpdateJournalRequest{
		Date:         newDate,
		Description:  "Dinner out",
		CurrencyCode: "USD",
		Transactions: []dto.CreateTransactionRequest{
			{AccountID: "dining", Amount: decimal.NewFromInt(55), TransactionType: domain.Debit},
			{AccountID: "checking", Amount: decimal.NewFromInt(55), TransactionType: domain.Credit},
		},
	}

	journal, err := suite.service.UpdateJournal(ctx, "jrn-1", req)

	suite.Require().NoError(err)
	suite.Equal("jrn-1", journal.JournalID)
	suite.Equal(domain.Active, journal.Status)

	// groceries was dropped by the edit but still needs its balances fixed;
	// everything is anchored at the earlier of the two dates.
	suite.Equal(3, suite.rebuildFake.Len())
	suite.Equal(newDate, suite.rebuildFake.enqueued["groceries"])
	suite.Equal(newDate, suite.rebuildFake.enqueued["dining"])
	suite.Equal(newDate, suite.rebuildFake.enqueued["checking"])
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestDeleteJournal_Missing_IsNoOp() {
	ctx := context.Background()
	suite.mockJournalRepo.On("FindJournalByID", ctx, "jrn-missing").Return(nil, apperrors.ErrNotFound).Once()

	err := suite.service.DeleteJournal(ctx, "jrn-missing")

	suite.Require().NoError(err)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SoftDeleteJournal")
}

func (suite *JournalServiceTestSuite) TestDeleteJournal_EnqueuesInvolvedAccounts() {
	ctx := context.Background()
	date := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)

	journal := &domain.Journal{JournalID: "jrn-1", JournalDate: date, Status: domain.Active}
	txns := []domain.Transaction{
		{TransactionID: "t1", AccountID: "groceries"},
		{TransactionID: "t2", AccountID: "checking"},
	}
	suite.mockJournalRepo.On("FindJournalByID", ctx, "jrn-1").Return(journal, nil).Once()
	suite.mockJournalRepo.On("FindTransactionsByJournalID", ctx, "jrn-1").Return(txns, nil).Once()
	suite.mockJournalRepo.On("SoftDeleteJournal", ctx, "jrn-1", mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.DeleteJournal(ctx, "jrn-1")

	suite.Require().NoError(err)
	suite.Equal(2, suite.rebuildFake.Len())
	suite.Equal(date, suite.rebuildFake.enqueued["groceries"])
	suite.Contains(suite.auditStub.entries, "journal:DELETE")
}

func (suite *JournalServiceTestSuite) TestReverseJournal_SwapsTypesAndLinks() {
	ctx := context.Background()
	originalDate := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	original := &domain.Journal{
		JournalID:    "jrn-1",
		JournalDate:  originalDate,
		Description:  "Rent",
		CurrencyCode: "USD",
		Status:       domain.Active,
	}
	txns := []domain.Transaction{
		{TransactionID: "t1", AccountID: "rent", Amount: decimal.NewFromInt(900), TransactionType: domain.Debit, ExchangeRate: decimal.NewFromInt(1), TransactionDate: originalDate},
		{TransactionID: "t2", AccountID: "checking", Amount: decimal.NewFromInt(900), TransactionType: domain.Credit, ExchangeRate: decimal.NewFromInt(1), TransactionDate: originalDate},
	}
	suite.mockJournalRepo.On("FindJournalByID", ctx, "jrn-1").Return(original, nil).Once()
	suite.mockJournalRepo.On("FindTransactionsByJournalID", ctx, "jrn-1").Return(txns, nil).Once()

	suite.stubUSD()
	suite.stubAccounts(
		domain.Account{AccountID: "rent", AccountType: domain.Expense, CurrencyCode: "USD"},
		domain.Account{AccountID: "checking", AccountType: domain.Asset, CurrencyCode: "USD"},
	)
	suite.mockJournalRepo.On("FindLatestTransactionForAccount", ctx, mock.AnythingOfType("string")).Return(nil, nil)

	var savedTxns []domain.Transaction
	suite.mockJournalRepo.On("SaveJournal", ctx, mock.AnythingOfType("domain.Journal"), mock.AnythingOfType("[]domain.Transaction")).
		Run(func(args mock.Arguments) {
			savedTxns = args.Get(2).([]domain.Transaction)
		}).Return(nil).Once()
	suite.mockJournalRepo.On("MarkReversed", ctx, "jrn-1", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil).Once()

	reversal, err := suite.service.ReverseJournal(ctx, "jrn-1", "duplicate entry")

	suite.Require().NoError(err)
	suite.Require().NotNil(reversal.ReversalOfJournalID)
	suite.Equal("jrn-1", *reversal.ReversalOfJournalID)
	suite.Equal(domain.Active, reversal.Status)

	suite.Require().Len(savedTxns, 2)
	suite.Equal(domain.Credit, savedTxns[0].TransactionType)
	suite.Equal(domain.Debit, savedTxns[1].TransactionType)
	suite.True(savedTxns[0].Amount.Equal(decimal.NewFromInt(900)))
	suite.Contains(savedTxns[0].Notes, "duplicate entry")
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestReverseJournal_AlreadyReversed() {
	ctx := context.Background()
	reversedBy := "jrn-2"
	original := &domain.Journal{JournalID: "jrn-1", Status: domain.Reversed, ReversedByJournalID: &reversedBy}
	suite.mockJournalRepo.On("FindJournalByID", ctx, "jrn-1").Return(original, nil).Once()
	suite.mockJournalRepo.On("FindTransactionsByJournalID", ctx, "jrn-1").Return([]domain.Transaction{}, nil).Once()

	_, err := suite.service.ReverseJournal(ctx, "jrn-1", "again")
	suite.Require().ErrorIs(err, services.ErrAlreadyReversed)
}

func (suite *JournalServiceTestSuite) TestReverseJournal_ReversalRejected() {
	ctx := context.Background()
	of := "jrn-0"
	reversal := &domain.Journal{JournalID: "jrn-1", Status: domain.Active, ReversalOfJournalID: &of}
	suite.mockJournalRepo.On("FindJournalByID", ctx, "jrn-1").Return(reversal, nil).Once()
	suite.mockJournalRepo.On("FindTransactionsByJournalID", ctx, "jrn-1").Return([]domain.Transaction{}, nil).Once()

	_, err := suite.service.ReverseJournal(ctx, "jrn-1", "undo the undo")
	suite.Require().ErrorIs(err, services.ErrReversalOfReversal)
}

func (suite *JournalServiceTestSuite) TestDuplicateJournal_RedatesToNow() {
	ctx := context.Background()
	sourceDate := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	source := &domain.Journal{
		JournalID:    "jrn-1",
		JournalDate:  sourceDate,
		Description:  "Rent",
		CurrencyCode: "USD",
		Status:       domain.Active,
	}
	txns := []domain.Transaction{
		{TransactionID: "t1", AccountID: "rent", Amount: decimal.NewFromInt(900), TransactionType: domain.Debit, ExchangeRate: decimal.NewFromInt(1)},
		{TransactionID: "t2", AccountID: "checking", Amount: decimal.NewFromInt(900), TransactionType: domain.Credit, ExchangeRate: decimal.NewFromInt(1)},
	}
	suite.mockJournalRepo.On("FindJournalByID", ctx, "jrn-1").Return(source, nil).Once()
	suite.mockJournalRepo.On("FindTransactionsByJournalID", ctx, "jrn-1").Return(txns, nil).Once()

	suite.stubUSD()
	suite.stubAccounts(
		domain.Account{AccountID: "rent", AccountType: domain.Expense, CurrencyCode: "USD"},
		domain.Account{AccountID: "checking", AccountType: domain.Asset, CurrencyCode: "USD"},
	)
	suite.mockJournalRepo.On("FindLatestTransactionForAccount", ctx, mock.AnythingOfType("string")).Return(nil, nil)

	var savedJournal domain.Journal
	suite.mockJournalRepo.On("SaveJournal", ctx, mock.AnythingOfType("domain.Journal"), mock.AnythingOfType("[]domain.Transaction")).
		Run(func(args mock.Arguments) {
			savedJournal = args.Get(1).(domain.Journal)
		}).Return(nil).Once()

	duplicated, err := suite.service.DuplicateJournal(ctx, "jrn-1")

	suite.Require().NoError(err)
	suite.NotEqual("jrn-1", duplicated.JournalID)
	suite.True(savedJournal.JournalDate.After(sourceDate))
	suite.Equal("Rent", savedJournal.Description)
	suite.Equal(domain.DisplayExpense, savedJournal.DisplayType)
}

func TestJournalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}
