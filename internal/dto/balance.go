package dto

import (
	"github.com/SscSPs/school_ledger/internal/core/domain"
)

// AccountBalanceResponse defines the data returned for one balance.
type AccountBalanceResponse struct {
	AccountCode string `json:"accountCode"`
	AccountType string `json:"accountType"`
	AsOf        Date   `json:"asOf"`
	Currency    string `json:"currency"`
	DebitTotal  string `json:"debitTotal"`
	CreditTotal string `json:"creditTotal"`
	NetBalance  string `json:"netBalance"`
	// DisplayNet is NetBalance rounded to the currency's display precision. Display only.
	DisplayNet string `json:"displayNet,omitempty"`
}

// ConvertedBalanceResponse is a balance translated into a reporting currency.
type ConvertedBalanceResponse struct {
	AccountBalanceResponse
	OriginalCurrency string `json:"originalCurrency"`
	OriginalNet      string `json:"originalNet"`
	Rate             string `json:"rate"`
	Converted        bool   `json:"converted"`
}

// AccountBalancesResponse lists an account's balances.
type AccountBalancesResponse struct {
	Account  AccountResponse            `json:"account"`
	Balances []ConvertedBalanceResponse `json:"balances"`
}

// MovementResponse is one posted line of an account movement listing.
type MovementResponse struct {
	EntryID         string `json:"entryID"`
	TransactionDate Date   `json:"transactionDate"`
	Description     string `json:"description"`
	SourceType      string `json:"sourceType"`
	Side            string `json:"side"`
	Amount          string `json:"amount"`
	CurrencyCode    string `json:"currencyCode"`
	Memo            string `json:"memo,omitempty"`
}

// ToAccountBalanceResponse converts a domain.AccountBalance.
func ToAccountBalanceResponse(b domain.AccountBalance) AccountBalanceResponse {
	return AccountBalanceResponse{
		AccountCode: b.AccountCode,
		AccountType: string(b.AccountType),
		AsOf:        NewDate(b.AsOf),
		Currency:    b.Currency,
		DebitTotal:  Amount(b.DebitTotal),
		CreditTotal: Amount(b.CreditTotal),
		NetBalance:  Amount(b.NetBalance),
	}
}

// ToAccountBalancesResponse converts the multi-account balance listing.
func ToAccountBalancesResponse(in []domain.AccountBalances) []AccountBalancesResponse {
	out := make([]AccountBalancesResponse, len(in))
	for i := range in {
		balances := make([]ConvertedBalanceResponse, len(in[i].Balances))
		for j, b := range in[i].Balances {
			balances[j] = ConvertedBalanceResponse{
				AccountBalanceResponse: ToAccountBalanceResponse(b.AccountBalance),
				OriginalCurrency:       b.OriginalCurrency,
				OriginalNet:            Amount(b.OriginalNet),
				Rate:                   b.Rate.String(),
				Converted:              b.Converted,
			}
		}
		out[i] = AccountBalancesResponse{Account: ToAccountResponse(&in[i].Account), Balances: balances}
	}
	return out
}

// ToMovementResponses converts posted lines.
func ToMovementResponses(lines []domain.PostedLine) []MovementResponse {
	out := make([]MovementResponse, len(lines))
	for i, l := range lines {
		out[i] = MovementResponse{
			EntryID:         l.EntryID,
			TransactionDate: NewDate(l.TransactionDate),
			Description:     l.Description,
			SourceType:      string(l.SourceType),
			Side:            string(l.Side),
			Amount:          Amount(l.Amount),
			CurrencyCode:    l.CurrencyCode,
			Memo:            l.Memo,
		}
	}
	return out
}
