package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/school_ledger/internal/models"
	"github.com/SscSPs/school_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

const exchangeRateColumns = `id, from_currency, to_currency, rate, effective_date, created_at, created_by, last_updated_at, last_updated_by`

type PgxExchangeRateRepository struct {
	BaseRepository
}

func newPgxExchangeRateRepository(pool PgxPool) *PgxExchangeRateRepository {
	return &PgxExchangeRateRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.ExchangeRateRepositoryFacade = (*PgxExchangeRateRepository)(nil)

func scanExchangeRate(row rowScanner) (models.ExchangeRate, error) {
	var m models.ExchangeRate
	err := row.Scan(
		&m.ExchangeRateID,
		&m.FromCurrencyCode,
		&m.ToCurrencyCode,
		&m.Rate,
		&m.DateEffective,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveExchangeRate appends a rate to its pair's series. The pair is serialised with a
// transaction-scoped advisory lock so the monotonic date check and the insert are atomic.
func (r *PgxExchangeRateRepository) SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	m := mapping.ToModelExchangeRate(rate)
	return r.withTx(ctx, func(tx pgx.Tx) error {
		pair := m.FromCurrencyCode + "/" + m.ToCurrencyCode
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1));`, pair); err != nil {
			return fmt.Errorf("failed to lock rate series %s: %w", pair, err)
		}

		var latest *time.Time
		err := tx.QueryRow(ctx,
			`SELECT MAX(effective_date) FROM exchange_rates WHERE from_currency = $1 AND to_currency = $2;`,
			m.FromCurrencyCode, m.ToCurrencyCode,
		).Scan(&latest)
		if err != nil {
			return fmt.Errorf("failed to read latest %s rate: %w", pair, err)
		}
		if latest != nil {
			last := domain.DateOnly(*latest)
			switch {
			case m.DateEffective.Equal(last):
				return fmt.Errorf("%w: %s rate effective %s already recorded", apperrors.ErrDuplicate, pair, last.Format(domain.DateLayout))
			case m.DateEffective.Before(last):
				return fmt.Errorf("%w: %s effective date must not be before %s", apperrors.ErrValidation, pair, last.Format(domain.DateLayout))
			}
		}

		query := `INSERT INTO exchange_rates (` + exchangeRateColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`
		_, err = tx.Exec(ctx, query,
			m.ExchangeRateID, m.FromCurrencyCode, m.ToCurrencyCode, m.Rate, m.DateEffective,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
		if err != nil {
			switch code, _ := pgErrorCode(err); code {
			case pgUniqueViolation:
				return fmt.Errorf("%w: %s rate effective %s already recorded", apperrors.ErrDuplicate, pair, m.DateEffective.Format(domain.DateLayout))
			case pgForeignKeyViolation:
				return fmt.Errorf("%w: %s references an unknown currency", apperrors.ErrValidation, pair)
			}
			return fmt.Errorf("failed to save exchange rate %s: %w", pair, err)
		}
		return nil
	})
}

// FindRateAsOf returns the latest rate for the pair effective on or before asOf.
func (r *PgxExchangeRateRepository) FindRateAsOf(ctx context.Context, from, to string, asOf time.Time) (*domain.ExchangeRate, error) {
	query := `SELECT ` + exchangeRateColumns + ` FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2 AND effective_date <= $3
		ORDER BY effective_date DESC
		LIMIT 1;`
	m, err := scanExchangeRate(r.Pool.QueryRow(ctx, query, from, to, domain.DateOnly(asOf)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no %s/%s rate effective on %s", apperrors.ErrNotFound, from, to, asOf.Format(domain.DateLayout))
		}
		return nil, fmt.Errorf("failed to find %s/%s rate: %w", from, to, err)
	}
	rate := mapping.ToDomainExchangeRate(m)
	return &rate, nil
}

// ListExchangeRates returns rates ordered by pair then effective date.
func (r *PgxExchangeRateRepository) ListExchangeRates(ctx context.Context, from, to string) ([]domain.ExchangeRate, error) {
	var w whereBuilder
	if from != "" {
		w.add("from_currency = ?", from)
	}
	if to != "" {
		w.add("to_currency = ?", to)
	}
	query := `SELECT ` + exchangeRateColumns + ` FROM exchange_rates` + w.clause() +
		` ORDER BY from_currency, to_currency, effective_date;`

	rows, err := r.Pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchange rates: %w", err)
	}
	defer rows.Close()

	rates := make([]domain.ExchangeRate, 0)
	for rows.Next() {
		m, err := scanExchangeRate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exchange rate row: %w", err)
		}
		rates = append(rates, mapping.ToDomainExchangeRate(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exchange rate rows: %w", err)
	}
	return rates, nil
}
