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

const periodColumns = `id, name, start_date, end_date, status, closed_at, closed_by, closing_entry_id,
	created_at, created_by, last_updated_at, last_updated_by`

// PgxPeriodRepository stores accounting periods. Status changes take the period row
// FOR UPDATE; postings take it FOR SHARE, so a close and a post never interleave.
type PgxPeriodRepository struct {
	BaseRepository
}

func newPgxPeriodRepository(pool PgxPool) *PgxPeriodRepository {
	return &PgxPeriodRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.PeriodRepositoryFacade = (*PgxPeriodRepository)(nil)

func scanPeriod(row rowScanner) (domain.AccountingPeriod, error) {
	var m models.AccountingPeriod
	err := row.Scan(
		&m.PeriodID,
		&m.Name,
		&m.StartDate,
		&m.EndDate,
		&m.Status,
		&m.ClosedAt,
		&m.ClosedBy,
		&m.ClosingEntryID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return domain.AccountingPeriod{}, err
	}
	return mapping.ToDomainPeriod(m), nil
}

func queryPeriods(ctx context.Context, q querier, query string, args ...any) ([]domain.AccountingPeriod, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	periods := make([]domain.AccountingPeriod, 0)
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan period row: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating period rows: %w", err)
	}
	return periods, nil
}

// findPeriodCovering returns the period covering date, or nil when none does.
// lock is appended to the query ("FOR SHARE", "FOR UPDATE" or empty).
func findPeriodCovering(ctx context.Context, q querier, date time.Time, lock string) (*domain.AccountingPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods
		WHERE start_date <= $1 AND end_date >= $1 ` + lock + `;`
	p, err := scanPeriod(q.QueryRow(ctx, query, domain.DateOnly(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find period for %s: %w", date.Format(domain.DateLayout), err)
	}
	return &p, nil
}

func lockPeriod(ctx context.Context, tx pgx.Tx, periodID string) (*domain.AccountingPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods WHERE id = $1 FOR UPDATE;`
	p, err := scanPeriod(tx.QueryRow(ctx, query, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: period %s", apperrors.ErrNotFound, periodID)
		}
		return nil, fmt.Errorf("failed to lock period %s: %w", periodID, err)
	}
	return &p, nil
}

// SavePeriod inserts a period. The table lock makes the overlap check and the insert atomic.
func (r *PgxPeriodRepository) SavePeriod(ctx context.Context, period domain.AccountingPeriod) error {
	m := mapping.ToModelPeriod(period)
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE accounting_periods IN SHARE ROW EXCLUSIVE MODE;`); err != nil {
			return fmt.Errorf("failed to lock accounting periods: %w", err)
		}

		var existingID string
		err := tx.QueryRow(ctx,
			`SELECT id FROM accounting_periods WHERE start_date <= $2 AND end_date >= $1 ORDER BY start_date LIMIT 1;`,
			m.StartDate, m.EndDate,
		).Scan(&existingID)
		switch {
		case err == nil:
			return &apperrors.PeriodOverlapError{ExistingPeriodID: existingID, Start: period.StartDate, End: period.EndDate}
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("failed to check period overlap: %w", err)
		}

		query := `INSERT INTO accounting_periods (` + periodColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`
		_, err = tx.Exec(ctx, query,
			m.PeriodID, m.Name, m.StartDate, m.EndDate, m.Status,
			m.ClosedAt, m.ClosedBy, m.ClosingEntryID,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
		if err != nil {
			if code, _ := pgErrorCode(err); code == pgUniqueViolation {
				return fmt.Errorf("%w: period %s", apperrors.ErrDuplicate, m.PeriodID)
			}
			return fmt.Errorf("failed to save period %s: %w", m.PeriodID, err)
		}
		return nil
	})
}

func (r *PgxPeriodRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods WHERE id = $1;`
	p, err := scanPeriod(r.Pool.QueryRow(ctx, query, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: period %s", apperrors.ErrNotFound, periodID)
		}
		return nil, fmt.Errorf("failed to find period %s: %w", periodID, err)
	}
	return &p, nil
}

func (r *PgxPeriodRepository) FindPeriodByDate(ctx context.Context, date time.Time) (*domain.AccountingPeriod, error) {
	p, err := findPeriodCovering(ctx, r.Pool, date, "")
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: no period covers %s", apperrors.ErrNotFound, date.Format(domain.DateLayout))
	}
	return p, nil
}

func (r *PgxPeriodRepository) ListPeriods(ctx context.Context) ([]domain.AccountingPeriod, error) {
	return queryPeriods(ctx, r.Pool, `SELECT `+periodColumns+` FROM accounting_periods ORDER BY start_date;`)
}

func (r *PgxPeriodRepository) TransitionPeriod(ctx context.Context, periodID string, userID string, now time.Time, fn portsrepo.PeriodTransition) (*domain.AccountingPeriod, error) {
	var out *domain.AccountingPeriod
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		p, err := lockPeriod(ctx, tx, periodID)
		if err != nil {
			return err
		}
		earlier, err := queryPeriods(ctx, tx,
			`SELECT `+periodColumns+` FROM accounting_periods WHERE start_date < $1 ORDER BY start_date;`,
			p.StartDate,
		)
		if err != nil {
			return err
		}
		next, err := fn(*p, earlier)
		if err != nil {
			return err
		}
		if !domain.CanTransition(p.Status, next) {
			return fmt.Errorf("%w: period %s cannot move from %s to %s", apperrors.ErrConflict, p.ID, p.Status, next)
		}
		_, err = tx.Exec(ctx,
			`UPDATE accounting_periods SET status = $1, last_updated_at = $2, last_updated_by = $3 WHERE id = $4;`,
			string(next), now, userID, p.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update period %s: %w", p.ID, err)
		}
		p.Status = next
		p.LastUpdatedAt = now
		p.LastUpdatedBy = userID
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ClosePeriod runs build, posts the closing entry and marks the period CLOSED in
// one transaction that holds the period row lock throughout.
func (r *PgxPeriodRepository) ClosePeriod(ctx context.Context, periodID string, userID string, now time.Time, build portsrepo.ClosingBuilder) (*domain.AccountingPeriod, *domain.JournalEntry, error) {
	var (
		closed *domain.AccountingPeriod
		posted *domain.JournalEntry
	)
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		p, err := lockPeriod(ctx, tx, periodID)
		if err != nil {
			return err
		}
		entry, err := build(ctx, *p, txLines{tx: tx})
		if err != nil {
			return err
		}
		if !domain.CanTransition(p.Status, domain.PeriodClosed) {
			return &apperrors.PeriodNotClosingError{PeriodID: p.ID, Status: string(p.Status)}
		}

		if entry != nil {
			if !p.Covers(entry.TransactionDate) {
				return fmt.Errorf("%w: closing entry dated %s is outside period %s", apperrors.ErrValidation, entry.TransactionDate.Format(domain.DateLayout), p.ID)
			}
			entry.PeriodID = p.ID
			if err := insertEntry(ctx, tx, *entry); err != nil {
				return err
			}
			p.ClosingEntryID = entry.ID
			posted = entry
		}

		closedAt := now
		_, err = tx.Exec(ctx,
			`UPDATE accounting_periods
			SET status = $1, closed_at = $2, closed_by = $3, closing_entry_id = $4, last_updated_at = $5, last_updated_by = $6
			WHERE id = $7;`,
			string(domain.PeriodClosed), closedAt, userID, mapping.NullString(p.ClosingEntryID), now, userID, p.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to close period %s: %w", p.ID, err)
		}
		p.Status = domain.PeriodClosed
		p.ClosedAt = &closedAt
		p.ClosedBy = userID
		p.LastUpdatedAt = now
		p.LastUpdatedBy = userID
		closed = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return closed, posted, nil
}
