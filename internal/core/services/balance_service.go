package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/personal_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/personal_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/personal_ledger_app/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// balanceService derives account balances from transaction history. Balances
// are always recomputed from the chronological transaction list rather than
// read from the cached running balances, so a pending rebuild never skews a
// report.
type balanceService struct {
	accountRepo     portsrepo.AccountRepositoryFacade
	journalRepo     portsrepo.JournalRepositoryFacade
	currencySvc     portssvc.CurrencySvcFacade
	rateSvc         portssvc.RateSvcFacade
	defaultCurrency string
}

// NewBalanceService creates a balance aggregation service. defaultCurrency is
// the rollup target when a subtree mixes currencies.
func NewBalanceService(accountRepo portsrepo.AccountRepositoryFacade, journalRepo portsrepo.JournalRepositoryFacade, currencySvc portssvc.CurrencySvcFacade, rateSvc portssvc.RateSvcFacade, defaultCurrency string) portssvc.BalanceSvcFacade {
	return &balanceService{
		accountRepo:     accountRepo,
		journalRepo:     journalRepo,
		currencySvc:     currencySvc,
		rateSvc:         rateSvc,
		defaultCurrency: defaultCurrency,
	}
}

var _ portssvc.BalanceSvcFacade = (*balanceService)(nil)

// GetAccountBalance computes a single account's balance as of a date, without
// hierarchy rollup.
func (s *balanceService) GetAccountBalance(ctx context.Context, accountID string, asOf time.Time) (*domain.AccountBalance, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.nativeBalance(ctx, *account, asOf)
}

// nativeBalance replays the account's transactions through asOf with a
// running total, accumulating the asOf month's inflows and outflows along
// the way.
func (s *balanceService) nativeBalance(ctx context.Context, account domain.Account, asOf time.Time) (*domain.AccountBalance, error) {
	precision := s.currencySvc.PrecisionFor(ctx, account.CurrencyCode)

	txns, err := s.journalRepo.ListTransactionsByAccountThrough(ctx, account.AccountID, asOf)
	if err != nil {
		return nil, fmt.Errorf("listing transactions for account %s: %w", account.AccountID, err)
	}

	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())

	balance := decimal.Zero
	monthlyIncome := decimal.Zero
	monthlyExpenses := decimal.Zero
	for _, txn := range txns {
		balance, err = accounting.CalculateNewBalance(balance, txn.Amount, account.AccountType, txn.TransactionType, precision)
		if err != nil {
			return nil, err
		}

		if txn.TransactionDate.Before(monthStart) {
			continue
		}
		multiplier, err := accounting.ImpactMultiplier(account.AccountType, txn.TransactionType)
		if err != nil {
			return nil, err
		}
		if multiplier.IsPositive() {
			monthlyIncome = monthlyIncome.Add(txn.Amount)
		} else {
			monthlyExpenses = monthlyExpenses.Add(txn.Amount)
		}
	}

	return &domain.AccountBalance{
		AccountID:        account.AccountID,
		Balance:          balance,
		CurrencyCode:     account.CurrencyCode,
		TransactionCount: len(txns),
		MonthlyIncome:    monthlyIncome,
		MonthlyExpenses:  monthlyExpenses,
		AsOfDate:         asOf,
	}, nil
}

// currencyBucket is a per-currency subtree subtotal before conversion.
type currencyBucket struct {
	balance decimal.Decimal
	count   int
}

// GetBalanceTree computes balances for every account and rolls child
// balances up the account forest. A subtree holding a single currency rolls
// up natively; a mixed subtree is converted to the default currency with the
// pre-conversion subtotals preserved in ChildBalances.
func (s *balanceService) GetBalanceTree(ctx context.Context, asOf time.Time) (map[string]domain.AccountBalance, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return map[string]domain.AccountBalance{}, nil
	}

	byID := make(map[string]domain.Account, len(accounts))
	for _, account := range accounts {
		byID[account.AccountID] = account
	}

	depths := accountDepths(byID)
	maxDepth := 0
	levels := make(map[int][]string)
	for accountID, depth := range depths {
		levels[depth] = append(levels[depth], accountID)
		if depth > maxDepth {
			maxDepth = depth
		}
	}

	// Own balances first. Each account's bucket map starts with its native
	// balance keyed by its own currency.
	natives := make(map[string]*domain.AccountBalance, len(accounts))
	buckets := make(map[string]map[string]currencyBucket, len(accounts))
	for _, account := range accounts {
		native, err := s.nativeBalance(ctx, account, asOf)
		if err != nil {
			return nil, err
		}
		natives[account.AccountID] = native
		buckets[account.AccountID] = map[string]currencyBucket{
			account.CurrencyCode: {balance: native.Balance, count: native.TransactionCount},
		}
	}

	// Merge deepest-first so every account's buckets are complete before
	// they feed its parent.
	for depth := maxDepth; depth > 0; depth-- {
		for _, accountID := range levels[depth] {
			parentID := byID[accountID].ParentAccountID
			if parentID == "" {
				continue
			}
			parentBuckets, ok := buckets[parentID]
			if !ok {
				continue
			}
			for code, bucket := range buckets[accountID] {
				merged := parentBuckets[code]
				merged.balance = merged.balance.Add(bucket.balance)
				merged.count += bucket.count
				parentBuckets[code] = merged
			}
		}
	}

	// Resolve each level's accounts concurrently; conversions dominate the
	// cost and siblings are independent.
	results := make(map[string]domain.AccountBalance, len(accounts))
	var mu sync.Mutex
	for depth := 0; depth <= maxDepth; depth++ {
		g, gctx := errgroup.WithContext(ctx)
		for _, accountID := range levels[depth] {
			accountID := accountID
			g.Go(func() error {
				resolved, err := s.resolveBuckets(gctx, byID[accountID], *natives[accountID], buckets[accountID])
				if err != nil {
					return err
				}
				mu.Lock()
				results[accountID] = *resolved
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// resolveBuckets turns a subtree's per-currency buckets into one
// AccountBalance, converting to the default currency when currencies mix.
func (s *balanceService) resolveBuckets(ctx context.Context, account domain.Account, native domain.AccountBalance, accountBuckets map[string]currencyBucket) (*domain.AccountBalance, error) {
	result := native

	// Only currencies with activity vote on the subtree currency. A grouping
	// account with no transactions of its own must not drag its configured
	// currency into the decision, or a single-currency subtree would look
	// mixed.
	codes := make([]string, 0, len(accountBuckets))
	totalCount := 0
	for code, bucket := range accountBuckets {
		totalCount += bucket.count
		if bucket.balance.IsZero() && bucket.count == 0 {
			continue
		}
		codes = append(codes, code)
	}
	sort.Strings(codes)
	result.TransactionCount = totalCount

	if len(codes) == 0 {
		result.Balance = decimal.Zero
		return &result, nil
	}
	if len(codes) == 1 {
		result.Balance = accountBuckets[codes[0]].balance
		result.CurrencyCode = codes[0]
		return &result, nil
	}

	targetPrecision := s.currencySvc.PrecisionFor(ctx, s.defaultCurrency)
	total := decimal.Zero
	children := make([]domain.ChildBalance, 0, len(codes))
	for _, code := range codes {
		bucket := accountBuckets[code]
		children = append(children, domain.ChildBalance{
			CurrencyCode:     code,
			Balance:          bucket.balance,
			TransactionCount: bucket.count,
		})

		if code == s.defaultCurrency {
			total = total.Add(bucket.balance)
			continue
		}
		conv, err := s.rateSvc.Convert(ctx, bucket.balance, code, s.defaultCurrency)
		if err != nil {
			return nil, fmt.Errorf("converting %s subtotal of account %s: %w", code, account.AccountID, err)
		}
		total = total.Add(conv.ConvertedAmount)
	}

	result.Balance = accounting.Round(total, targetPrecision)
	result.CurrencyCode = s.defaultCurrency
	result.ChildBalances = children
	return &result, nil
}

// accountDepths computes each account's depth in the forest with memoized
// recursion. A missing or self-referential parent is treated as a root to
// keep the walk total.
func accountDepths(byID map[string]domain.Account) map[string]int {
	depths := make(map[string]int, len(byID))

	var depthOf func(accountID string, seen map[string]bool) int
	depthOf = func(accountID string, seen map[string]bool) int {
		if d, ok := depths[accountID]; ok {
			return d
		}
		account, ok := byID[accountID]
		if !ok || account.ParentAccountID == "" || seen[accountID] {
			depths[accountID] = 0
			return 0
		}
		seen[accountID] = true
		d := depthOf(account.ParentAccountID, seen) + 1
		depths[accountID] = d
		return d
	}

	for accountID := range byID {
		depthOf(accountID, map[string]bool{})
	}
	return depths
}
