package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	portsrepo "github.com/SscSPs/personal_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/personal_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/personal_ledger_app/internal/middleware"
	"github.com/SscSPs/personal_ledger_app/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// rebuildQueue is the deferred running-balance rebuild worklist. Backdated
// writes invalidate the cached running balances of every later transaction on
// the touched accounts; instead of recomputing synchronously, the write path
// enqueues the account here and a background worker flushes the queue.
//
// The queue coalesces: enqueueing an account that is already pending keeps
// the earlier of the two dates, so one rebuild pass covers both edits.
type rebuildQueue struct {
	journalRepo portsrepo.JournalRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	currencySvc portssvc.CurrencySvcFacade

	mu      sync.Mutex
	pending map[string]time.Time
	signal  chan struct{}
}

// NewRebuildQueue creates an empty rebuild worklist.
func NewRebuildQueue(journalRepo portsrepo.JournalRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade, currencySvc portssvc.CurrencySvcFacade) portssvc.RebuildSvcFacade {
	return &rebuildQueue{
		journalRepo: journalRepo,
		accountRepo: accountRepo,
		currencySvc: currencySvc,
		pending:     make(map[string]time.Time),
		signal:      make(chan struct{}, 1),
	}
}

var _ portssvc.RebuildSvcFacade = (*rebuildQueue)(nil)

// EnqueueMany registers accounts whose running balances need recomputing from
// the given date.
func (q *rebuildQueue) EnqueueMany(accountIDs []string, from time.Time) {
	if len(accountIDs) == 0 {
		return
	}

	q.mu.Lock()
	for _, accountID := range accountIDs {
		existing, ok := q.pending[accountID]
		if !ok || from.Before(existing) {
			q.pending[accountID] = from
		}
	}
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Len reports the number of accounts currently pending.
func (q *rebuildQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Signal returns the enqueue notification channel.
func (q *rebuildQueue) Signal() <-chan struct{} {
	return q.signal
}

// Flush drains the queue and rebuilds each drained account. Accounts enqueued
// during the flush land in the next batch. A failed account is re-enqueued so
// its stale balances are retried rather than silently kept.
func (q *rebuildQueue) Flush(ctx context.Context) error {
	q.mu.Lock()
	batch := q.pending
	q.pending = make(map[string]time.Time)
	q.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	logger := middleware.GetLoggerFromCtx(ctx)
	var firstErr error
	for accountID, from := range batch {
		if err := ctx.Err(); err != nil {
			q.requeue(accountID, from)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := q.rebuildAccount(ctx, accountID, from); err != nil {
			logger.Error("Running balance rebuild failed",
				slog.String("account_id", accountID),
				slog.Time("from", from),
				slog.String("error", err.Error()))
			q.requeue(accountID, from)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		logger.Info("Running balances rebuilt",
			slog.String("account_id", accountID),
			slog.Time("from", from))
	}
	return firstErr
}

func (q *rebuildQueue) requeue(accountID string, from time.Time) {
	q.mu.Lock()
	existing, ok := q.pending[accountID]
	if !ok || from.Before(existing) {
		q.pending[accountID] = from
	}
	q.mu.Unlock()
}

// rebuildAccount recomputes running balances for one account from a date
// forward. The starting point is the cached balance of the last transaction
// strictly before the date, or zero for a rebuild from the beginning.
func (q *rebuildQueue) rebuildAccount(ctx context.Context, accountID string, from time.Time) error {
	account, err := q.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("loading account %s: %w", accountID, err)
	}

	precision := q.currencySvc.PrecisionFor(ctx, account.CurrencyCode)

	running, err := q.startingBalance(ctx, accountID, from)
	if err != nil {
		return err
	}

	txns, err := q.journalRepo.ListTransactionsByAccountSince(ctx, accountID, from)
	if err != nil {
		return fmt.Errorf("listing transactions for account %s: %w", accountID, err)
	}
	if len(txns) == 0 {
		return nil
	}

	updates := make([]portsrepo.RunningBalanceUpdate, 0, len(txns))
	for _, txn := range txns {
		running, err = accounting.CalculateNewBalance(running, txn.Amount, account.AccountType, txn.TransactionType, precision)
		if err != nil {
			return fmt.Errorf("recomputing balance at transaction %s: %w", txn.TransactionID, err)
		}
		if !running.Equal(txn.RunningBalance) {
			updates = append(updates, portsrepo.RunningBalanceUpdate{
				TransactionID:  txn.TransactionID,
				RunningBalance: running,
			})
		}
	}

	if len(updates) == 0 {
		return nil
	}
	if err := q.journalRepo.UpdateRunningBalances(ctx, updates); err != nil {
		return fmt.Errorf("persisting rebuilt balances for account %s: %w", accountID, err)
	}
	return nil
}

func (q *rebuildQueue) startingBalance(ctx context.Context, accountID string, from time.Time) (decimal.Decimal, error) {
	prev, err := q.journalRepo.FindLatestTransactionForAccountBefore(ctx, accountID, from)
	if err != nil {
		return decimal.Zero, fmt.Errorf("finding prior transaction for account %s: %w", accountID, err)
	}
	if prev == nil {
		return decimal.Zero, nil
	}
	return prev.RunningBalance, nil
}
