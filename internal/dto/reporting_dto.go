package dto

import (
	"github.com/SscSPs/school_ledger/internal/core/domain"
)

// TrialBalanceRowResponse represents a row in the trial balance report response
type TrialBalanceRowResponse struct {
	AccountCode string `json:"accountCode"`
	AccountName string `json:"accountName"`
	AccountType string `json:"accountType"`
	IsActive    bool   `json:"isActive"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
}

// TrialBalanceResponse represents the trial balance report response
type TrialBalanceResponse struct {
	AsOf     Date                      `json:"asOf"`
	Currency string                    `json:"currency"`
	Rows     []TrialBalanceRowResponse `json:"rows"`
	Totals   struct {
		Debit  string `json:"debit"`
		Credit string `json:"credit"`
	} `json:"totals"`
}

// AccountAmountResponse represents an account with its amount in a financial report
type AccountAmountResponse struct {
	AccountCode string `json:"accountCode"`
	Name        string `json:"name"`
	Amount      string `json:"amount"`
}

// IncomeStatementResponse represents the income statement response
type IncomeStatementResponse struct {
	FromDate Date                    `json:"fromDate"`
	ToDate   Date                    `json:"toDate"`
	Currency string                  `json:"currency"`
	Revenue  []AccountAmountResponse `json:"revenue"`
	Expenses []AccountAmountResponse `json:"expenses"`
	Summary  struct {
		TotalRevenue  string `json:"totalRevenue"`
		TotalExpenses string `json:"totalExpenses"`
		NetIncome     string `json:"netIncome"`
	} `json:"summary"`
}

// BalanceSheetResponse represents the balance sheet report response
type BalanceSheetResponse struct {
	AsOf        Date                    `json:"asOf"`
	Currency    string                  `json:"currency"`
	Assets      []AccountAmountResponse `json:"assets"`
	Liabilities []AccountAmountResponse `json:"liabilities"`
	Equity      []AccountAmountResponse `json:"equity"`
	Summary     struct {
		TotalAssets      string `json:"totalAssets"`
		TotalLiabilities string `json:"totalLiabilities"`
		CurrentEarnings  string `json:"currentEarnings"`
		TotalEquity      string `json:"totalEquity"`
	} `json:"summary"`
}

// CashFlowSectionResponse is one bucket of the cash flow statement.
type CashFlowSectionResponse struct {
	Bucket  string `json:"bucket"`
	Inflow  string `json:"inflow"`
	Outflow string `json:"outflow"`
	Net     string `json:"net"`
}

// CashFlowResponse represents the cash flow statement response
type CashFlowResponse struct {
	FromDate     Date                      `json:"fromDate"`
	ToDate       Date                      `json:"toDate"`
	Currency     string                    `json:"currency"`
	CashAccounts []string                  `json:"cashAccounts"`
	OpeningCash  string                    `json:"openingCash"`
	Sections     []CashFlowSectionResponse `json:"sections"`
	NetChange    string                    `json:"netChange"`
	ClosingCash  string                    `json:"closingCash"`
}

func toAccountAmountResponses(in []domain.AccountAmount) []AccountAmountResponse {
	out := make([]AccountAmountResponse, len(in))
	for i, a := range in {
		out[i] = AccountAmountResponse{AccountCode: a.AccountCode, Name: a.Name, Amount: Amount(a.NetAmount)}
	}
	return out
}

// ToTrialBalanceResponse converts a domain trial balance to a DTO response
func ToTrialBalanceResponse(tb *domain.TrialBalance) TrialBalanceResponse {
	response := TrialBalanceResponse{
		AsOf:     NewDate(tb.AsOf),
		Currency: tb.Currency,
		Rows:     make([]TrialBalanceRowResponse, len(tb.Rows)),
	}
	for i, row := range tb.Rows {
		response.Rows[i] = TrialBalanceRowResponse{
			AccountCode: row.AccountCode,
			AccountName: row.AccountName,
			AccountType: string(row.AccountType),
			IsActive:    row.IsActive,
			Debit:       Amount(row.Debit),
			Credit:      Amount(row.Credit),
		}
	}
	response.Totals.Debit = Amount(tb.TotalDebit)
	response.Totals.Credit = Amount(tb.TotalCredit)
	return response
}

// ToIncomeStatementResponse converts a domain income statement to a DTO response
func ToIncomeStatementResponse(report *domain.IncomeStatement) IncomeStatementResponse {
	response := IncomeStatementResponse{
		FromDate: NewDate(report.Range.From),
		ToDate:   NewDate(report.Range.To),
		Currency: report.Currency,
		Revenue:  toAccountAmountResponses(report.Revenue),
		Expenses: toAccountAmountResponses(report.Expenses),
	}
	response.Summary.TotalRevenue = Amount(report.TotalRevenue)
	response.Summary.TotalExpenses = Amount(report.TotalExpenses)
	response.Summary.NetIncome = Amount(report.NetIncome)
	return response
}

// ToBalanceSheetResponse converts a domain balance sheet report to a DTO response
func ToBalanceSheetResponse(report *domain.BalanceSheet) BalanceSheetResponse {
	response := BalanceSheetResponse{
		AsOf:        NewDate(report.AsOf),
		Currency:    report.Currency,
		Assets:      toAccountAmountResponses(report.Assets),
		Liabilities: toAccountAmountResponses(report.Liabilities),
		Equity:      toAccountAmountResponses(report.Equity),
	}
	response.Summary.TotalAssets = Amount(report.TotalAssets)
	response.Summary.TotalLiabilities = Amount(report.TotalLiabilities)
	response.Summary.CurrentEarnings = Amount(report.CurrentEarnings)
	response.Summary.TotalEquity = Amount(report.TotalEquity)
	return response
}

// ToCashFlowResponse converts a domain cash flow statement to a DTO response
func ToCashFlowResponse(report *domain.CashFlowStatement) CashFlowResponse {
	sections := make([]CashFlowSectionResponse, len(report.Sections))
	for i, s := range report.Sections {
		sections[i] = CashFlowSectionResponse{
			Bucket:  string(s.Bucket),
			Inflow:  Amount(s.Inflow),
			Outflow: Amount(s.Outflow),
			Net:     Amount(s.Net),
		}
	}
	return CashFlowResponse{
		FromDate:     NewDate(report.Range.From),
		ToDate:       NewDate(report.Range.To),
		Currency:     report.Currency,
		CashAccounts: report.CashAccounts,
		OpeningCash:  Amount(report.OpeningCash),
		Sections:     sections,
		NetChange:    Amount(report.NetChange),
		ClosingCash:  Amount(report.ClosingCash),
	}
}
