package dto

import (
	"time"

	"github.com/SscSPs/school_ledger/internal/core/domain"
)

// CreateAccountRequest defines the data needed to create a new account.
// AccountType may be omitted for child accounts, which inherit the root type.
type CreateAccountRequest struct {
	Code         string `json:"code" binding:"required,max=32"`
	Name         string `json:"name" binding:"required,max=255"`
	AccountType  string `json:"accountType" binding:"omitempty,oneof=ASSET LIABILITY EQUITY REVENUE INCOME EXPENSE"`
	ParentCode   string `json:"parentCode" binding:"omitempty,max=32"`
	CurrencyCode string `json:"currencyCode" binding:"omitempty,len=3,uppercase"` // Empty: multi-currency
	Description  string `json:"description"`
}

// ListAccountsParams are the query parameters of the account listing.
type ListAccountsParams struct {
	AccountType     string `form:"type" binding:"omitempty,oneof=ASSET LIABILITY EQUITY REVENUE INCOME EXPENSE"`
	ParentCode      string `form:"parentCode"`
	IncludeInactive bool   `form:"includeInactive"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	Code          string             `json:"code"`
	Name          string             `json:"name"`
	AccountType   domain.AccountType `json:"accountType"`
	ParentCode    string             `json:"parentCode,omitempty"`
	CurrencyCode  string             `json:"currencyCode,omitempty"`
	Description   string             `json:"description"`
	IsActive      bool               `json:"isActive"`
	CreatedAt     time.Time          `json:"createdAt"`
	CreatedBy     string             `json:"createdBy"`
	LastUpdatedAt time.Time          `json:"lastUpdatedAt"`
	LastUpdatedBy string             `json:"lastUpdatedBy"`
}

// ListAccountsResponse wraps the account listing.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		Code:          acc.Code,
		Name:          acc.Name,
		AccountType:   acc.Type,
		ParentCode:    acc.ParentCode,
		CurrencyCode:  acc.CurrencyCode,
		Description:   acc.Description,
		IsActive:      acc.IsActive,
		CreatedAt:     acc.CreatedAt,
		CreatedBy:     acc.CreatedBy,
		LastUpdatedAt: acc.LastUpdatedAt,
		LastUpdatedBy: acc.LastUpdatedBy,
	}
}

// ToListAccountsResponse converts a slice of accounts.
func ToListAccountsResponse(accounts []domain.Account) ListAccountsResponse {
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToAccountResponse(&accounts[i])
	}
	return ListAccountsResponse{Accounts: out}
}
