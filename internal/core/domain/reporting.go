package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TrialBalanceRow represents a single row in a trial balance report
type TrialBalanceRow struct {
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	IsActive    bool            `json:"isActive"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalance lists every account with a non-zero balance split into debit/credit columns.
type TrialBalance struct {
	AsOf        time.Time         `json:"asOf"`
	Currency    string            `json:"currency"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"totalDebit"`
	TotalCredit decimal.Decimal   `json:"totalCredit"`
}

// AccountAmount represents an account with its net amount for financial reports
type AccountAmount struct {
	AccountCode string          `json:"accountCode"`
	Name        string          `json:"name"`
	NetAmount   decimal.Decimal `json:"netAmount"`
}

// RangeKind selects how a reporting range is derived.
type RangeKind string

const (
	RangeMonth   RangeKind = "month"
	RangeQuarter RangeKind = "quarter"
	RangeYTD     RangeKind = "ytd"
	RangeCustom  RangeKind = "custom"
)

// IncomeStatement sums Revenue and Expense movements over a range.
type IncomeStatement struct {
	Range         DateRange       `json:"range"`
	Currency      string          `json:"currency"`
	Revenue       []AccountAmount `json:"revenue"`
	Expenses      []AccountAmount `json:"expenses"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetIncome     decimal.Decimal `json:"netIncome"`
}

// BalanceSheet is an as-of snapshot of the real accounts.
type BalanceSheet struct {
	AsOf             time.Time       `json:"asOf"`
	Currency         string          `json:"currency"`
	Assets           []AccountAmount `json:"assets"`
	Liabilities      []AccountAmount `json:"liabilities"`
	Equity           []AccountAmount `json:"equity"`
	CurrentEarnings  decimal.Decimal `json:"currentEarnings"` // Revenue - Expense not yet closed
	TotalAssets      decimal.Decimal `json:"totalAssets"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal `json:"totalEquity"` // Includes CurrentEarnings
}

// CashFlowBucket classifies cash movements.
type CashFlowBucket string

const (
	BucketOperating    CashFlowBucket = "operating"
	BucketInvesting    CashFlowBucket = "investing"
	BucketFinancing    CashFlowBucket = "financing"
	BucketUnclassified CashFlowBucket = "unclassified"
)

// CashFlowBuckets lists buckets in report order.
var CashFlowBuckets = []CashFlowBucket{BucketOperating, BucketInvesting, BucketFinancing, BucketUnclassified}

// CashFlowMapping maps source types to buckets. Unmapped source types are unclassified.
type CashFlowMapping map[SourceType]CashFlowBucket

// Bucket returns the bucket for a source type.
func (m CashFlowMapping) Bucket(st SourceType) CashFlowBucket {
	if b, ok := m[st]; ok {
		return b
	}
	return BucketUnclassified
}

// DefaultCashFlowMapping is used when no mapping is configured.
func DefaultCashFlowMapping() CashFlowMapping {
	return CashFlowMapping{
		SourceFeePayment:    BucketOperating,
		SourceExpense:       BucketOperating,
		SourcePayroll:       BucketOperating,
		SourceAssetPurchase: BucketInvesting,
	}
}

// CashFlowSection is the movement of cash attributed to one bucket.
type CashFlowSection struct {
	Bucket  CashFlowBucket  `json:"bucket"`
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
	Net     decimal.Decimal `json:"net"`
}

// CashFlowStatement reports movements on the cash accounts over a range.
type CashFlowStatement struct {
	Range        DateRange         `json:"range"`
	Currency     string            `json:"currency"`
	CashAccounts []string          `json:"cashAccounts"`
	OpeningCash  decimal.Decimal   `json:"openingCash"`
	Sections     []CashFlowSection `json:"sections"`
	NetChange    decimal.Decimal   `json:"netChange"`
	ClosingCash  decimal.Decimal   `json:"closingCash"`
}

// ResolveRange derives a reporting range from kind. ref anchors month, quarter and
// ytd ranges; from and to are only read for custom ranges.
func ResolveRange(kind RangeKind, ref time.Time, from, to *time.Time) (DateRange, error) {
	ref = DateOnly(ref)
	y, m, _ := ref.Date()
	switch kind {
	case RangeMonth:
		start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		return DateRange{From: start, To: start.AddDate(0, 1, -1)}, nil
	case RangeQuarter:
		qm := time.Month((int(m)-1)/3*3 + 1)
		start := time.Date(y, qm, 1, 0, 0, 0, 0, time.UTC)
		return DateRange{From: start, To: start.AddDate(0, 3, -1)}, nil
	case RangeYTD:
		return DateRange{From: time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), To: ref}, nil
	case RangeCustom, "":
		if from == nil || to == nil {
			return DateRange{}, fmt.Errorf("custom range requires from and to")
		}
		if from.After(*to) {
			return DateRange{}, fmt.Errorf("from must not be after to")
		}
		return DateRange{From: DateOnly(*from), To: DateOnly(*to)}, nil
	default:
		return DateRange{}, fmt.Errorf("unknown range %q", kind)
	}
}
