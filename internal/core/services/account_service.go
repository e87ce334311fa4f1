package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/apperrors"
	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/personal_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/personal_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/personal_ledger_app/internal/dto"
	"github.com/SscSPs/personal_ledger_app/internal/middleware"
	"github.com/google/uuid"
)

// ErrAccountTypeMismatch is returned when a child account's type differs from
// its parent's.
var ErrAccountTypeMismatch = errors.New("child account type must match parent account type")

// ErrAccountCycle is returned when a parent change would make an account its
// own ancestor.
var ErrAccountCycle = errors.New("account hierarchy must stay acyclic")

// ErrAccountInUse is returned when deleting an account that still has
// transactions recorded against it.
var ErrAccountInUse = errors.New("account has recorded transactions")

type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	currencySvc portssvc.CurrencySvcFacade
	auditSvc    portssvc.AuditSvcFacade
}

// NewAccountService creates a new account service.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, currencySvc portssvc.CurrencySvcFacade, auditSvc portssvc.AuditSvcFacade) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo: accountRepo,
		currencySvc: currencySvc,
		auditSvc:    auditSvc,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.currencySvc.GetCurrencyByCode(ctx, req.CurrencyCode); err != nil {
		return nil, fmt.Errorf("%w: unknown currency %s", apperrors.ErrValidation, req.CurrencyCode)
	}

	parentID := ""
	if req.ParentAccountID != nil && *req.ParentAccountID != "" {
		parent, err := s.accountRepo.FindAccountByID(ctx, *req.ParentAccountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: parent account %s not found", apperrors.ErrValidation, *req.ParentAccountID)
			}
			return nil, err
		}
		if string(parent.AccountType) != req.AccountType {
			return nil, ErrAccountTypeMismatch
		}
		parentID = parent.AccountID
	}

	now := time.Now()
	account := domain.Account{
		AccountID:       uuid.NewString(),
		Name:            req.Name,
		AccountType:     domain.AccountType(req.AccountType),
		CurrencyCode:    req.CurrencyCode,
		ParentAccountID: parentID,
		OrderNum:        req.OrderNum,
		Icon:            req.Icon,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		return nil, err
	}

	s.auditSvc.Log(ctx, "account", account.AccountID, domain.AuditCreate, account)
	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("account_type", string(account.AccountType)))
	return &account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to find account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	return accounts, nil
}

func (s *accountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}

func (s *accountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.OrderNum != nil {
		account.OrderNum = *req.OrderNum
	}
	if req.Icon != nil {
		account.Icon = *req.Icon
	}
	if req.ParentAccountID != nil {
		if err := s.validateReparent(ctx, account, *req.ParentAccountID); err != nil {
			return nil, err
		}
		account.ParentAccountID = *req.ParentAccountID
	}

	account.LastUpdatedAt = time.Now()
	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		logger.Error("Failed to update account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, err
	}

	s.auditSvc.Log(ctx, "account", accountID, domain.AuditUpdate, req)
	logger.Info("Account updated", slog.String("account_id", accountID))
	return account, nil
}

// validateReparent checks a parent change: the new parent must exist, share
// the account's type, and not sit inside the account's own subtree.
func (s *accountService) validateReparent(ctx context.Context, account *domain.Account, newParentID string) error {
	if newParentID == "" {
		return nil
	}
	if newParentID == account.AccountID {
		return ErrAccountCycle
	}

	parent, err := s.accountRepo.FindAccountByID(ctx, newParentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: parent account %s not found", apperrors.ErrValidation, newParentID)
		}
		return err
	}
	if parent.AccountType != account.AccountType {
		return ErrAccountTypeMismatch
	}

	// Walk up from the proposed parent; hitting the account means the new
	// parent lives inside the account's subtree.
	accounts, err := s.accountRepo.ListAccounts(ctx)
	if err != nil {
		return err
	}
	parentOf := make(map[string]string, len(accounts))
	for _, a := range accounts {
		parentOf[a.AccountID] = a.ParentAccountID
	}
	seen := make(map[string]bool)
	for cursor := newParentID; cursor != ""; cursor = parentOf[cursor] {
		if cursor == account.AccountID {
			return ErrAccountCycle
		}
		// A revisited ancestor means the stored hierarchy is already
		// cyclic; refuse the reparent rather than walking forever.
		if seen[cursor] {
			return fmt.Errorf("%w: existing cycle at account %s", ErrAccountCycle, cursor)
		}
		seen[cursor] = true
	}
	return nil
}

func (s *accountService) DeleteAccount(ctx context.Context, accountID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return err
	}

	// Children would be orphaned by deleting an inner node.
	accounts, err := s.accountRepo.ListAccounts(ctx)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if a.ParentAccountID == accountID {
			return fmt.Errorf("%w: account %s still has child accounts", apperrors.ErrConflict, accountID)
		}
	}

	inUse, err := s.accountRepo.HasTransactions(ctx, accountID)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: %s", ErrAccountInUse, accountID)
	}

	if err := s.accountRepo.SoftDeleteAccount(ctx, accountID, time.Now()); err != nil {
		logger.Error("Failed to delete account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return err
	}

	s.auditSvc.Log(ctx, "account", accountID, domain.AuditDelete, account)
	logger.Info("Account deleted", slog.String("account_id", accountID))
	return nil
}
