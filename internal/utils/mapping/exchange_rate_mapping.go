package mapping

import (
	"github.com/SscSPs/school_ledger/internal/core/domain"
	"github.com/SscSPs/school_ledger/internal/models"
)

// ToModelExchangeRate converts a domain ExchangeRate to a model ExchangeRate
func ToModelExchangeRate(d domain.ExchangeRate) models.ExchangeRate {
	return models.ExchangeRate{
		ExchangeRateID:   d.ID,
		FromCurrencyCode: d.FromCurrency,
		ToCurrencyCode:   d.ToCurrency,
		Rate:             d.Rate,
		DateEffective:    domain.DateOnly(d.EffectiveDate),
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainExchangeRate converts a model ExchangeRate to a domain ExchangeRate
func ToDomainExchangeRate(m models.ExchangeRate) domain.ExchangeRate {
	return domain.ExchangeRate{
		ID:            m.ExchangeRateID,
		FromCurrency:  m.FromCurrencyCode,
		ToCurrency:    m.ToCurrencyCode,
		Rate:          m.Rate,
		EffectiveDate: domain.DateOnly(m.DateEffective),
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}
