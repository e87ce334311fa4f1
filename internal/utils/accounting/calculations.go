package accounting

import (
	"fmt"
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

var (
	one    = decimal.NewFromInt(1)
	negOne = decimal.NewFromInt(-1)
)

// ImpactMultiplier returns the sign a transaction applies to an account's
// balance. The convention never varies:
//
//	DEBIT to ASSET/EXPENSE -> +1
//	CREDIT to ASSET/EXPENSE -> -1
//	DEBIT to LIABILITY/EQUITY/INCOME -> -1
//	CREDIT to LIABILITY/EQUITY/INCOME -> +1
func ImpactMultiplier(accountType domain.AccountType, txnType domain.TransactionType) (decimal.Decimal, error) {
	isDebit := txnType == domain.Debit
	switch accountType {
	case domain.Asset, domain.Expense:
		if isDebit {
			return one, nil
		}
		return negOne, nil
	case domain.Liability, domain.Equity, domain.Income:
		if isDebit {
			return negOne, nil
		}
		return one, nil
	default:
		return decimal.Zero, fmt.Errorf("unknown account type '%s'", accountType)
	}
}

// Round rounds a monetary amount to the given number of decimal places using
// half-up rounding.
func Round(amount decimal.Decimal, precision int) decimal.Decimal {
	return amount.Round(int32(precision))
}

// CalculateNewBalance applies a transaction to a previous balance and rounds
// the result to the currency precision.
func CalculateNewBalance(previous, amount decimal.Decimal, accountType domain.AccountType, txnType domain.TransactionType, precision int) (decimal.Decimal, error) {
	multiplier, err := ImpactMultiplier(accountType, txnType)
	if err != nil {
		return decimal.Zero, err
	}
	return Round(previous.Add(amount.Mul(multiplier)), precision), nil
}

// BalanceCheck is the result of validating a journal's transaction set.
// Totals are expressed in journal-currency units.
type BalanceCheck struct {
	IsValid      bool
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
	Imbalance    decimal.Decimal // TotalDebits - TotalCredits, signed, for diagnostics
}

// ValidateJournal checks the double-entry balancing invariant: each line's
// amount is converted into journal currency via its exchange rate (1 when
// unset), and the debit and credit totals must agree within the journal
// currency's precision. No unbalanced journal is ever persisted.
func ValidateJournal(lines []domain.Transaction, journalPrecision int) BalanceCheck {
	debits := decimal.Zero
	credits := decimal.Zero
	for i := range lines {
		converted := lines[i].AmountInJournalCurrency()
		if lines[i].TransactionType == domain.Debit {
			debits = debits.Add(converted)
		} else {
			credits = credits.Add(converted)
		}
	}
	return BalanceCheck{
		IsValid:      Round(debits, journalPrecision).Equal(Round(credits, journalPrecision)),
		TotalDebits:  debits,
		TotalCredits: credits,
		Imbalance:    debits.Sub(credits),
	}
}

// ValidateDistinctAccounts reports whether a transaction set touches at
// least two different accounts. A journal against a single account is
// rejected.
func ValidateDistinctAccounts(accountIDs []string) bool {
	seen := make(map[string]struct{}, len(accountIDs))
	for _, id := range accountIDs {
		seen[id] = struct{}{}
	}
	return len(seen) >= 2
}

// IsBackdated reports whether a new entry lands strictly before the latest
// transaction already recorded for an account. Backdated entries invalidate
// cached running balances after the insertion point and take the deferred
// rebuild path; in-order appends (including same-date entries) take the fast
// path with an immediately computed balance.
func IsBackdated(newEntryDate time.Time, latestExisting *time.Time) bool {
	if latestExisting == nil {
		return false
	}
	return newEntryDate.Before(*latestExisting)
}

// ClassifyJournal derives the stored display type of a journal from its
// transaction shape. Classification is account-type driven, never
// description driven; anything ambiguous falls to the generic JOURNAL type.
func ClassifyJournal(lines []domain.Transaction, accountTypes map[string]domain.AccountType) domain.JournalDisplayType {
	if len(lines) != 2 {
		return domain.DisplayJournal
	}

	var debit, credit *domain.Transaction
	for i := range lines {
		switch lines[i].TransactionType {
		case domain.Debit:
			debit = &lines[i]
		case domain.Credit:
			credit = &lines[i]
		}
	}
	if debit == nil || credit == nil {
		return domain.DisplayJournal
	}

	debitType, ok := accountTypes[debit.AccountID]
	if !ok {
		return domain.DisplayJournal
	}
	creditType, ok := accountTypes[credit.AccountID]
	if !ok {
		return domain.DisplayJournal
	}

	switch {
	case isBalanceSheet(debitType) && isBalanceSheet(creditType):
		return domain.DisplayTransfer
	case debitType == domain.Expense && isBalanceSheet(creditType):
		return domain.DisplayExpense
	case creditType == domain.Income && isBalanceSheet(debitType):
		return domain.DisplayIncome
	default:
		return domain.DisplayJournal
	}
}

func isBalanceSheet(t domain.AccountType) bool {
	return t == domain.Asset || t == domain.Liability
}
