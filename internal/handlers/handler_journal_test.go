package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/apperrors"
	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/personal_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/personal_ledger_app/internal/core/services"
	"github.com/SscSPs/personal_ledger_app/internal/dto"
	"github.com/SscSPs/personal_ledger_app/internal/handlers"
	"github.com/SscSPs/personal_ledger_app/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock JournalService ---
type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) CreateJournal(ctx context.Context, req dto.CreateJournalRequest) (*domain.Journal, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockJournalService) GetJournalByID(ctx context.Context, journalID string) (*domain.Journal, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockJournalService) ListJournals(ctx context.Context, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListJournalsResponse), args.Error(1)
}

func (m *MockJournalService) UpdateJournal(ctx context.Context, journalID string, req dto.UpdateJournalRequest) (*domain.Journal, error) {
	args := m.Called(ctx, journalID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockJournalService) DeleteJournal(ctx context.Context, journalID string) error {
	args := m.Called(ctx, journalID)
	return args.Error(0)
}

func (m *MockJournalService) DuplicateJournal(ctx context.Context, journalID string) (*domain.Journal, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockJournalService) ReverseJournal(ctx context.Context, journalID string, reason string) (*domain.Journal, error) {
	args := m.Called(ctx, journalID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

var _ portssvc.JournalSvcFacade = (*MockJournalService)(nil)

// --- Test Suite ---
type JournalHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockJournalService *MockJournalService
}

func (suite *JournalHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	dto.RegisterValidations()
	suite.router = gin.New()
	suite.mockJournalService = new(MockJournalService)

	cfg := &config.Config{DefaultCurrency: "USD"}
	container := &portssvc.ServiceContainer{Journal: suite.mockJournalService}
	handlers.RegisterRoutes(suite.router, cfg, container)
}

func (suite *JournalHandlerTestSuite) performJSON(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func sampleCreateRequest() dto.CreateJournalRequest {
	rate := decimal.NewFromInt(1)
	return dto.CreateJournalRequest{
		Date:         time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Description:  "Groceries",
		CurrencyCode: "USD",
		Transactions: []dto.CreateTransactionRequest{
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(40), TransactionType: domain.Debit, ExchangeRate: &rate},
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(40), TransactionType: domain.Credit, ExchangeRate: &rate},
		},
	}
}

func (suite *JournalHandlerTestSuite) TestCreateJournal_Success() {
	req := sampleCreateRequest()
	journal := &domain.Journal{
		JournalID:    uuid.NewString(),
		JournalDate:  req.Date,
		Description:  req.Description,
		CurrencyCode: "USD",
		Status:       domain.Active,
		DisplayType:  domain.DisplayExpense,
	}
	suite.mockJournalService.On("CreateJournal", mock.Anything, mock.AnythingOfType("dto.CreateJournalRequest")).Return(journal, nil).Once()

	w := suite.performJSON(http.MethodPost, "/api/v1/journals", req)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.JournalResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(journal.JournalID, resp.JournalID)
	suite.Equal("EXPENSE", resp.DisplayType)
	suite.mockJournalService.AssertExpectations(suite.T())
}

func (suite *JournalHandlerTestSuite) TestCreateJournal_Unbalanced_ReturnsBadRequest() {
	req := sampleCreateRequest()
	req.Transactions[1].Amount = decimal.NewFromInt(30)
	suite.mockJournalService.On("CreateJournal", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: imbalance of 10 USD", services.ErrJournalUnbalanced)).Once()

	w := suite.performJSON(http.MethodPost, "/api/v1/journals", req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "imbalance")
}

func (suite *JournalHandlerTestSuite) TestCreateJournal_NegativeAmount_FailsBinding() {
	req := sampleCreateRequest()
	req.Transactions[0].Amount = decimal.NewFromInt(-40)

	w := suite.performJSON(http.MethodPost, "/api/v1/journals", req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockJournalService.AssertNotCalled(suite.T(), "CreateJournal")
}

func (suite *JournalHandlerTestSuite) TestGetJournal_NotFound() {
	journalID := uuid.NewString()
	suite.mockJournalService.On("GetJournalByID", mock.Anything, journalID).
		Return(nil, apperrors.NewNotFoundError("journal not found")).Once()

	w := suite.performJSON(http.MethodGet, "/api/v1/journals/"+journalID, nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *JournalHandlerTestSuite) TestDeleteJournal_ReturnsNoContent() {
	journalID := uuid.NewString()
	suite.mockJournalService.On("DeleteJournal", mock.Anything, journalID).Return(nil).Once()

	w := suite.performJSON(http.MethodDelete, "/api/v1/journals/"+journalID, nil)

	suite.Equal(http.StatusNoContent, w.Code)
}

func (suite *JournalHandlerTestSuite) TestReverseJournal_AlreadyReversed_ReturnsConflict() {
	journalID := uuid.NewString()
	suite.mockJournalService.On("ReverseJournal", mock.Anything, journalID, "duplicate").
		Return(nil, services.ErrAlreadyReversed).Once()

	w := suite.performJSON(http.MethodPost, "/api/v1/journals/"+journalID+"/reverse", dto.ReverseJournalRequest{Reason: "duplicate"})

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *JournalHandlerTestSuite) TestListJournals_PassesPaginationParams() {
	token := "opaque-token"
	page := &dto.ListJournalsResponse{Journals: []dto.JournalResponse{}, NextToken: nil}
	suite.mockJournalService.On("ListJournals", mock.Anything, dto.ListJournalsParams{Limit: 5, NextToken: &token}).
		Return(page, nil).Once()

	w := suite.performJSON(http.MethodGet, "/api/v1/journals?limit=5&nextToken="+token, nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockJournalService.AssertExpectations(suite.T())
}

func TestJournalHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(JournalHandlerTestSuite))
}
