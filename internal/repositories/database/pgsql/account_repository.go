package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/apperrors"
	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/personal_ledger_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAccountRepository struct {
	pool *pgxpool.Pool
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{pool: pool}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

const accountColumns = `account_id, name, account_type, currency_code, parent_account_id, order_num, icon, deleted_at, created_at, last_updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var parentID sql.NullString
	var icon sql.NullString
	err := row.Scan(
		&a.AccountID,
		&a.Name,
		&a.AccountType,
		&a.CurrencyCode,
		&parentID,
		&a.OrderNum,
		&icon,
		&a.DeletedAt,
		&a.CreatedAt,
		&a.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.ParentAccountID = parentID.String
	a.Icon = icon.String
	return &a, nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	query := `
		INSERT INTO accounts (account_id, name, account_type, currency_code, parent_account_id, order_num, icon, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.pool.Exec(ctx, query,
		account.AccountID,
		account.Name,
		account.AccountType,
		account.CurrencyCode,
		nullable(account.ParentAccountID),
		account.OrderNum,
		nullable(account.Icon),
		account.CreatedAt,
		account.LastUpdatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert account "+account.AccountID, err)
	}
	return nil
}

func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1 AND deleted_at IS NULL;`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("account " + accountID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to query account "+accountID, err)
	}
	return account, nil
}

func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ANY($1) AND deleted_at IS NULL;`
	rows, err := r.pool.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounts", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(accountIDs))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", err)
		}
		accounts[account.AccountID] = *account
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading account rows", err)
	}
	return accounts, nil
}

func (r *PgxAccountRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE deleted_at IS NULL ORDER BY parent_account_id NULLS FIRST, order_num, name;`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list accounts", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading account rows", err)
	}
	return accounts, nil
}

func (r *PgxAccountRepository) HasTransactions(ctx context.Context, accountID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM transactions WHERE account_id = $1 AND deleted_at IS NULL);`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, accountID).Scan(&exists); err != nil {
		return false, apperrors.NewAppError(500, "failed to check transactions for account "+accountID, err)
	}
	return exists, nil
}

func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, parent_account_id = $3, order_num = $4, icon = $5, last_updated_at = $6
		WHERE account_id = $1 AND deleted_at IS NULL;
	`
	tag, err := r.pool.Exec(ctx, query,
		account.AccountID,
		account.Name,
		nullable(account.ParentAccountID),
		account.OrderNum,
		nullable(account.Icon),
		account.LastUpdatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update account "+account.AccountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("account " + account.AccountID + " not found")
	}
	return nil
}

func (r *PgxAccountRepository) SoftDeleteAccount(ctx context.Context, accountID string, now time.Time) error {
	query := `UPDATE accounts SET deleted_at = $2, last_updated_at = $2 WHERE account_id = $1 AND deleted_at IS NULL;`

	tag, err := r.pool.Exec(ctx, query, accountID, now)
	if err != nil {
		return apperrors.NewAppError(500, fmt.Sprintf("failed to delete account %s", accountID), err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("account " + accountID + " not found")
	}
	return nil
}
