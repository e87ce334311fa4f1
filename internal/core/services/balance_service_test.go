package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/personal_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/personal_ledger_app/internal/core/services"
	"github.com/SscSPs/personal_ledger_app/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock RateService ---
type MockRateService struct {
	mock.Mock
}

func (m *MockRateService) GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockRateService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (dto.Conversion, error) {
	args := m.Called(ctx, amount, from, to)
	return args.Get(0).(dto.Conversion), args.Error(1)
}

// --- Test Suite ---
type BalanceServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	mockJournalRepo *MockJournalRepository
	mockCurrencySvc *MockCurrencyService
	mockRateSvc     *MockRateService
	service         portssvc.BalanceSvcFacade
}

func (suite *BalanceServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockJournalRepo = new(MockJournalRepository)
	suite.mockCurrencySvc = new(MockCurrencyService)
	suite.mockRateSvc = new(MockRateService)
	suite.service = services.NewBalanceService(suite.mockAccountRepo, suite.mockJournalRepo, suite.mockCurrencySvc, suite.mockRateSvc, "USD")
}

func (suite *BalanceServiceTestSuite) TestGetAccountBalance_ReplaysHistory() {
	ctx := context.Background()
	asOf := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)

	account := &domain.Account{AccountID: "checking", AccountType: domain.Asset, CurrencyCode: "USD"}
	suite.mockAccountRepo.On("FindAccountByID", ctx, "checking").Return(account, nil).Once()
	suite.mockCurrencySvc.On("PrecisionFor", ctx, "USD").Return(2)

	txns := []domain.Transaction{
		{
			TransactionID:   "txn-1",
			Amount:          decimal.NewFromInt(1000),
			TransactionType: domain.Debit,
			TransactionDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			TransactionID:   "txn-2",
			Amount:          decimal.RequireFromString("42.50"),
			TransactionType: domain.Credit,
			TransactionDate: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		},
	}
	suite.mockJournalRepo.On("ListTransactionsByAccountThrough", ctx, "checking", asOf).Return(txns, nil).Once()

	balance, err := suite.service.GetAccountBalance(ctx, "checking", asOf)

	suite.Require().NoError(err)
	suite.Equal("957.5", balance.Balance.String())
	suite.Equal("USD", balance.CurrencyCode)
	suite.Equal(2, balance.TransactionCount)
	// January's deposit is outside the asOf month.
	suite.True(balance.MonthlyIncome.IsZero())
	suite.Equal("42.5", balance.MonthlyExpenses.String())
}

func (suite *BalanceServiceTestSuite) TestGetAccountBalance_NoTransactions() {
	ctx := context.Background()
	asOf := time.Now()

	account := &domain.Account{AccountID: "empty", AccountType: domain.Asset, CurrencyCode: "USD"}
	suite.mockAccountRepo.On("FindAccountByID", ctx, "empty").Return(account, nil).Once()
	suite.mockCurrencySvc.On("PrecisionFor", ctx, "USD").Return(2)
	suite.mockJournalRepo.On("ListTransactionsByAccountThrough", ctx, "empty", asOf).Return([]domain.Transaction{}, nil).Once()

	balance, err := suite.service.GetAccountBalance(ctx, "empty", asOf)

	suite.Require().NoError(err)
	suite.True(balance.Balance.IsZero())
	suite.Equal(0, balance.TransactionCount)
}

func (suite *BalanceServiceTestSuite) TestGetBalanceTree_MixedCurrencyRollup() {
	ctx := context.Background()
	asOf := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	accounts := []domain.Account{
		{AccountID: "parent", AccountType: domain.Asset, CurrencyCode: "USD"},
		{AccountID: "child-usd", AccountType: domain.Asset, CurrencyCode: "USD", ParentAccountID: "parent"},
		{AccountID: "child-eur", AccountType: domain.Asset, CurrencyCode: "EUR", ParentAccountID: "parent"},
	}
	suite.mockAccountRepo.On("ListAccounts", ctx).Return(accounts, nil).Once()
	suite.mockCurrencySvc.On("PrecisionFor", mock.Anything, "USD").Return(2)
	suite.mockCurrencySvc.On("PrecisionFor", mock.Anything, "EUR").Return(2)

	suite.mockJournalRepo.On("ListTransactionsByAccountThrough", ctx, "parent", asOf).Return([]domain.Transaction{}, nil).Once()
	suite.mockJournalRepo.On("ListTransactionsByAccountThrough", ctx, "child-usd", asOf).Return([]domain.Transaction{
		{TransactionID: "txn-1", Amount: decimal.NewFromInt(100), TransactionType: domain.Debit, TransactionDate: asOf},
	}, nil).Once()
	suite.mockJournalRepo.On("ListTransactionsByAccountThrough", ctx, "child-eur", asOf).Return([]domain.Transaction{
		{TransactionID: "txn-2", Amount: decimal.NewFromInt(50), TransactionType: domain.Debit, TransactionDate: asOf},
	}, nil).Once()

	suite.mockRateSvc.On("Convert", mock.Anything, decimal.New(5000, -2), "EUR", "USD").
		Return(dto.Conversion{Rate: decimal.RequireFromString("1.1"), ConvertedAmount: decimal.NewFromInt(55)}, nil).Once()

	tree, err := suite.service.GetBalanceTree(ctx, asOf)

	suite.Require().NoError(err)
	suite.Require().Len(tree, 3)

	parent := tree["parent"]
	suite.Equal("155", parent.Balance.String())
	suite.Equal("USD", parent.CurrencyCode)
	suite.Equal(2, parent.TransactionCount)
	suite.Require().Len(parent.ChildBalances, 2)
	suite.Equal("EUR", parent.ChildBalances[0].CurrencyCode)
	suite.Equal("50", parent.ChildBalances[0].Balance.String())
	suite.Equal("USD", parent.ChildBalances[1].CurrencyCode)
	suite.Equal("100", parent.ChildBalances[1].Balance.String())

	childUSD := tree["child-usd"]
	suite.Equal("100", childUSD.Balance.String())
	suite.Empty(childUSD.ChildBalances)

	childEUR := tree["child-eur"]
	suite.Equal("50", childEUR.Balance.String())
	suite.Equal("EUR", childEUR.CurrencyCode)
}

func (suite *BalanceServiceTestSuite) TestGetBalanceTree_GroupingParentAdoptsChildCurrency() {
	ctx := context.Background()
	asOf := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	// The parent is USD-typed but has no activity; its only child holds EUR.
	accounts := []domain.Account{
		{AccountID: "parent", AccountType: domain.Asset, CurrencyCode: "USD"},
		{AccountID: "child-eur", AccountType: domain.Asset, CurrencyCode: "EUR", ParentAccountID: "parent"},
	}
	suite.mockAccountRepo.On("ListAccounts", ctx).Return(accounts, nil).Once()
	suite.mockCurrencySvc.On("PrecisionFor", mock.Anything, "USD").Return(2)
	suite.mockCurrencySvc.On("PrecisionFor", mock.Anything, "EUR").Return(2)

	suite.mockJournalRepo.On("ListTransactionsByAccountThrough", ctx, "parent", asOf).Return([]domain.Transaction{}, nil).Once()
	suite.mockJournalRepo.On("ListTransactionsByAccountThrough", ctx, "child-eur", asOf).Return([]domain.Transaction{
		{TransactionID: "txn-1", Amount: decimal.NewFromInt(50), TransactionType: domain.Debit, TransactionDate: asOf},
	}, nil).Once()

	tree, err := suite.service.GetBalanceTree(ctx, asOf)

	suite.Require().NoError(err)
	parent := tree["parent"]
	suite.Equal("EUR", parent.CurrencyCode)
	suite.Equal("50", parent.Balance.String())
	suite.Equal(1, parent.TransactionCount)
	suite.Empty(parent.ChildBalances)
	suite.mockRateSvc.AssertNotCalled(suite.T(), "Convert")
}

func (suite *BalanceServiceTestSuite) TestGetBalanceTree_SingleCurrencySkipsConversion() {
	ctx := context.Background()
	asOf := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	accounts := []domain.Account{
		{AccountID: "parent", AccountType: domain.Asset, CurrencyCode: "USD"},
		{AccountID: "child", AccountType: domain.Asset, CurrencyCode: "USD", ParentAccountID: "parent"},
	}
	suite.mockAccountRepo.On("ListAccounts", ctx).Return(accounts, nil).Once()
	suite.mockCurrencySvc.On("PrecisionFor", mock.Anything, "USD").Return(2)

	suite.mockJournalRepo.On("ListTransactionsByAccountThrough", ctx, "parent", asOf).Return([]domain.Transaction{
		{TransactionID: "txn-1", Amount: decimal.NewFromInt(10), TransactionType: domain.Debit, TransactionDate: asOf},
	}, nil).Once()
	suite.mockJournalRepo.On("ListTransactionsByAccountThrough", ctx, "child", asOf).Return([]domain.Transaction{
		{TransactionID: "txn-2", Amount: decimal.NewFromInt(25), TransactionType: domain.Debit, TransactionDate: asOf},
	}, nil).Once()

	tree, err := suite.service.GetBalanceTree(ctx, asOf)

	suite.Require().NoError(err)
	parent := tree["parent"]
	suite.Equal("35", parent.Balance.String())
	suite.Equal("USD", parent.CurrencyCode)
	suite.Equal(2, parent.TransactionCount)
	suite.Empty(parent.ChildBalances)
	suite.mockRateSvc.AssertNotCalled(suite.T(), "Convert")
}

func TestBalanceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BalanceServiceTestSuite))
}
