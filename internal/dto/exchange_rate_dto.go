package dto

import (
	"time"

	"github.com/SscSPs/school_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateExchangeRateRequest defines the structure for creating a new exchange rate.
// The effective date must not precede the latest rate already recorded for the pair.
type CreateExchangeRateRequest struct {
	FromCurrencyCode string          `json:"fromCurrencyCode" binding:"required,len=3,uppercase"`
	ToCurrencyCode   string          `json:"toCurrencyCode" binding:"required,len=3,uppercase,nefield=FromCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	EffectiveDate    Date            `json:"effectiveDate"`
}

// ExchangeRateResponse defines the structure for API responses containing exchange rate details.
type ExchangeRateResponse struct {
	ExchangeRateID   string    `json:"exchangeRateID"`
	FromCurrencyCode string    `json:"fromCurrencyCode"`
	ToCurrencyCode   string    `json:"toCurrencyCode"`
	Rate             string    `json:"rate"`
	EffectiveDate    Date      `json:"effectiveDate"`
	CreatedAt        time.Time `json:"createdAt"`
	CreatedBy        string    `json:"createdBy"`
}

// ConvertResponse is the result of converting an amount between currencies.
type ConvertResponse struct {
	FromCurrencyCode string `json:"fromCurrencyCode"`
	ToCurrencyCode   string `json:"toCurrencyCode"`
	Amount           string `json:"amount"`
	Converted        string `json:"converted"`
	Rate             string `json:"rate"`
	EffectiveDate    Date   `json:"effectiveDate"`
}

// ToExchangeRateResponse converts a domain.ExchangeRate to ExchangeRateResponse DTO
func ToExchangeRateResponse(rate *domain.ExchangeRate) ExchangeRateResponse {
	return ExchangeRateResponse{
		ExchangeRateID:   rate.ID,
		FromCurrencyCode: rate.FromCurrency,
		ToCurrencyCode:   rate.ToCurrency,
		Rate:             rate.Rate.String(),
		EffectiveDate:    NewDate(rate.EffectiveDate),
		CreatedAt:        rate.CreatedAt,
		CreatedBy:        rate.CreatedBy,
	}
}

// ToListExchangeRateResponse converts a slice of rates to a slice of ExchangeRateResponse DTOs.
func ToListExchangeRateResponse(rates []domain.ExchangeRate) []ExchangeRateResponse {
	responses := make([]ExchangeRateResponse, len(rates))
	for i := range rates {
		responses[i] = ToExchangeRateResponse(&rates[i])
	}
	return responses
}
