package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/apperrors"
	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/personal_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/personal_ledger_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal and
// transaction data.
func newPgxJournalRepository(pool *pgxpool.Pool) portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

const journalColumns = `journal_id, journal_date, description, currency_code, status, total_amount, transaction_count, display_type, reversal_of_journal_id, reversed_by_journal_id, deleted_at, created_at, last_updated_at`

const transactionColumns = `transaction_id, journal_id, account_id, amount, transaction_type, currency_code, exchange_rate, running_balance, notes, transaction_date, deleted_at, created_at, last_updated_at`

func scanJournal(row pgx.Row) (*domain.Journal, error) {
	var j domain.Journal
	var description sql.NullString
	err := row.Scan(
		&j.JournalID,
		&j.JournalDate,
		&description,
		&j.CurrencyCode,
		&j.Status,
		&j.TotalAmount,
		&j.TransactionCount,
		&j.DisplayType,
		&j.ReversalOfJournalID,
		&j.ReversedByJournalID,
		&j.DeletedAt,
		&j.CreatedAt,
		&j.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.Description = description.String
	return &j, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var notes sql.NullString
	err := row.Scan(
		&t.TransactionID,
		&t.JournalID,
		&t.AccountID,
		&t.Amount,
		&t.TransactionType,
		&t.CurrencyCode,
		&t.ExchangeRate,
		&t.RunningBalance,
		&notes,
		&t.TransactionDate,
		&t.DeletedAt,
		&t.CreatedAt,
		&t.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Notes = notes.String
	return &t, nil
}

func queueTransactionInserts(batch *pgx.Batch, transactions []domain.Transaction) {
	query := `
		INSERT INTO transactions (transaction_id, journal_id, account_id, amount, transaction_type, currency_code, exchange_rate, running_balance, notes, transaction_date, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	for _, txn := range transactions {
		batch.Queue(query,
			txn.TransactionID,
			txn.JournalID,
			txn.AccountID,
			txn.Amount,
			txn.TransactionType,
			txn.CurrencyCode,
			txn.ExchangeRate,
			txn.RunningBalance,
			nullable(txn.Notes),
			txn.TransactionDate,
			txn.CreatedAt,
			txn.LastUpdatedAt,
		)
	}
}

// SaveJournal persists a journal and its transactions within a single DB
// transaction.
func (r *PgxJournalRepository) SaveJournal(ctx context.Context, journal domain.Journal, transactions []domain.Transaction) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	journalQuery := `
		INSERT INTO journals (journal_id, journal_date, description, currency_code, status, total_amount, transaction_count, display_type, reversal_of_journal_id, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err = tx.Exec(ctx, journalQuery,
		journal.JournalID,
		journal.JournalDate,
		nullable(journal.Description),
		journal.CurrencyCode,
		journal.Status,
		journal.TotalAmount,
		journal.TransactionCount,
		journal.DisplayType,
		journal.ReversalOfJournalID,
		journal.CreatedAt,
		journal.LastUpdatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert journal "+journal.JournalID, err)
	}

	batch := &pgx.Batch{}
	queueTransactionInserts(batch, transactions)
	results := tx.SendBatch(ctx, batch)
	for range transactions {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return apperrors.NewAppError(500, "failed to insert transactions for journal "+journal.JournalID, err)
		}
	}
	if err := results.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to close transaction batch for journal "+journal.JournalID, err)
	}

	return r.Commit(ctx, tx)
}

// ReplaceJournalTransactions updates a journal's header and swaps its entire
// transaction set atomically.
func (r *PgxJournalRepository) ReplaceJournalTransactions(ctx context.Context, journal domain.Journal, transactions []domain.Transaction) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	journalQuery := `
		UPDATE journals
		SET journal_date = $2, description = $3, currency_code = $4, total_amount = $5, transaction_count = $6, display_type = $7, last_updated_at = $8
		WHERE journal_id = $1 AND deleted_at IS NULL;
	`
	tag, err := tx.Exec(ctx, journalQuery,
		journal.JournalID,
		journal.JournalDate,
		nullable(journal.Description),
		journal.CurrencyCode,
		journal.TotalAmount,
		journal.TransactionCount,
		journal.DisplayType,
		journal.LastUpdatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update journal "+journal.JournalID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("journal " + journal.JournalID + " not found")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE journal_id = $1;`, journal.JournalID); err != nil {
		return apperrors.NewAppError(500, "failed to clear transactions for journal "+journal.JournalID, err)
	}

	batch := &pgx.Batch{}
	queueTransactionInserts(batch, transactions)
	results := tx.SendBatch(ctx, batch)
	for range transactions {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return apperrors.NewAppError(500, "failed to insert replacement transactions for journal "+journal.JournalID, err)
		}
	}
	if err := results.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to close transaction batch for journal "+journal.JournalID, err)
	}

	return r.Commit(ctx, tx)
}

func (r *PgxJournalRepository) FindJournalByID(ctx context.Context, journalID string) (*domain.Journal, error) {
	query := `SELECT ` + journalColumns + ` FROM journals WHERE journal_id = $1 AND deleted_at IS NULL;`

	journal, err := scanJournal(r.Pool.QueryRow(ctx, query, journalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("journal " + journalID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to query journal "+journalID, err)
	}
	return journal, nil
}

func (r *PgxJournalRepository) ListJournals(ctx context.Context, limit int, nextToken *string) ([]domain.Journal, *string, error) {
	query := `SELECT ` + journalColumns + ` FROM journals WHERE deleted_at IS NULL`
	args := []any{}

	if nextToken != nil && *nextToken != "" {
		journalDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid pagination token", err)
		}
		query += ` AND (journal_date, created_at) < ($1, $2)`
		args = append(args, journalDate, createdAt)
	}

	// Fetch one extra row to know whether another page exists.
	query += ` ORDER BY journal_date DESC, created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) + `;`
	args = append(args, limit+1)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list journals", err)
	}
	defer rows.Close()

	var journals []domain.Journal
	for rows.Next() {
		journal, err := scanJournal(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan journal row", err)
		}
		journals = append(journals, *journal)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed reading journal rows", err)
	}

	var token *string
	if len(journals) > limit {
		journals = journals[:limit]
		last := journals[len(journals)-1]
		t := pagination.EncodeToken(last.JournalDate, last.CreatedAt)
		token = &t
	}
	return journals, token, nil
}

// SoftDeleteJournal marks a journal and all of its transactions deleted.
func (r *PgxJournalRepository) SoftDeleteJournal(ctx context.Context, journalID string, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	tag, err := tx.Exec(ctx, `UPDATE journals SET deleted_at = $2, last_updated_at = $2 WHERE journal_id = $1 AND deleted_at IS NULL;`, journalID, now)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete journal "+journalID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("journal " + journalID + " not found")
	}

	if _, err := tx.Exec(ctx, `UPDATE transactions SET deleted_at = $2, last_updated_at = $2 WHERE journal_id = $1 AND deleted_at IS NULL;`, journalID, now); err != nil {
		return apperrors.NewAppError(500, "failed to delete transactions for journal "+journalID, err)
	}

	return r.Commit(ctx, tx)
}

// MarkReversed links an original journal to its reversal and flips the
// original's status.
func (r *PgxJournalRepository) MarkReversed(ctx context.Context, originalJournalID, reversalJournalID string, now time.Time) error {
	query := `
		UPDATE journals
		SET status = $3, reversed_by_journal_id = $2, last_updated_at = $4
		WHERE journal_id = $1 AND deleted_at IS NULL;
	`
	tag, err := r.Pool.Exec(ctx, query, originalJournalID, reversalJournalID, domain.Reversed, now)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark journal "+originalJournalID+" reversed", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("journal " + originalJournalID + " not found")
	}
	return nil
}

func (r *PgxJournalRepository) FindTransactionsByJournalID(ctx context.Context, journalID string) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE journal_id = $1 AND deleted_at IS NULL ORDER BY created_at, transaction_id;`
	return r.queryTransactions(ctx, query, journalID)
}

func (r *PgxJournalRepository) FindLatestTransactionForAccount(ctx context.Context, accountID string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1 AND deleted_at IS NULL
		ORDER BY transaction_date DESC, created_at DESC
		LIMIT 1;
	`
	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewAppError(500, "failed to query latest transaction for account "+accountID, err)
	}
	return txn, nil
}

func (r *PgxJournalRepository) FindLatestTransactionForAccountBefore(ctx context.Context, accountID string, before time.Time) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1 AND transaction_date < $2 AND deleted_at IS NULL
		ORDER BY transaction_date DESC, created_at DESC
		LIMIT 1;
	`
	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, accountID, before))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewAppError(500, "failed to query prior transaction for account "+accountID, err)
	}
	return txn, nil
}

func (r *PgxJournalRepository) ListTransactionsByAccountSince(ctx context.Context, accountID string, since time.Time) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1 AND transaction_date >= $2 AND deleted_at IS NULL
		ORDER BY transaction_date, created_at;
	`
	return r.queryTransactions(ctx, query, accountID, since)
}

func (r *PgxJournalRepository) ListTransactionsByAccountThrough(ctx context.Context, accountID string, through time.Time) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1 AND transaction_date <= $2 AND deleted_at IS NULL
		ORDER BY transaction_date, created_at;
	`
	return r.queryTransactions(ctx, query, accountID, through)
}

func (r *PgxJournalRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query transactions", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan transaction row", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading transaction rows", err)
	}
	return transactions, nil
}

// UpdateRunningBalances writes corrected cached balances in one batch.
func (r *PgxJournalRepository) UpdateRunningBalances(ctx context.Context, updates []portsrepo.RunningBalanceUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	now := time.Now()
	batch := &pgx.Batch{}
	query := `UPDATE transactions SET running_balance = $2, last_updated_at = $3 WHERE transaction_id = $1;`
	for _, update := range updates {
		batch.Queue(query, update.TransactionID, update.RunningBalance, now)
	}

	results := r.Pool.SendBatch(ctx, batch)
	defer results.Close()
	for range updates {
		if _, err := results.Exec(); err != nil {
			return apperrors.NewAppError(500, "failed to update running balances", err)
		}
	}
	return nil
}
