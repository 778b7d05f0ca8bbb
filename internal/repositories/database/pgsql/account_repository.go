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

const accountColumns = `code, name, account_type, parent_code, currency_code, description, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

// PgxAccountRepository stores the chart of accounts.
type PgxAccountRepository struct {
	BaseRepository
}

func newPgxAccountRepository(pool PgxPool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row rowScanner) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.Code,
		&m.Name,
		&m.AccountType,
		&m.ParentCode,
		&m.CurrencyCode,
		&m.Description,
		&m.IsActive,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	query := `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`

	_, err := r.Pool.Exec(ctx, query,
		m.Code,
		m.Name,
		m.AccountType,
		m.ParentCode,
		m.CurrencyCode,
		m.Description,
		m.IsActive,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		switch code, constraint := pgErrorCode(err); {
		case code == pgUniqueViolation:
			return &apperrors.DuplicateAccountError{Code: m.Code}
		case code == pgForeignKeyViolation && constraint == "fk_accounts_parent":
			return &apperrors.InvalidParentError{Code: m.Code, ParentCode: m.ParentCode.String, Reason: "parent account not found"}
		case code == pgForeignKeyViolation:
			return fmt.Errorf("%w: account %s references unknown currency %s", apperrors.ErrValidation, m.Code, m.CurrencyCode.String)
		}
		return fmt.Errorf("failed to save account %s: %w", m.Code, err)
	}
	return nil
}

// FindAccountByCode retrieves an account by its code.
func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE code = $1;`
	m, err := scanAccount(r.Pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, code)
		}
		return nil, fmt.Errorf("failed to find account %s: %w", code, err)
	}
	account := mapping.ToDomainAccount(m)
	return &account, nil
}

// FindAccountsByCodes retrieves the accounts that exist among codes.
func (r *PgxAccountRepository) FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(codes))
	if len(codes) == 0 {
		return out, nil
	}
	var w whereBuilder
	w.in("code", codes, false)
	query := `SELECT ` + accountColumns + ` FROM accounts` + w.clause() + `;`

	rows, err := r.Pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by codes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		out[m.Code] = mapping.ToDomainAccount(m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return out, nil
}

// ListAccounts retrieves accounts matching filter ordered by code.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	var w whereBuilder
	if !filter.IncludeInactive {
		w.add("is_active = TRUE")
	}
	if filter.Type != "" {
		w.add("account_type = ?", string(filter.Type))
	}
	if filter.ParentCode != "" {
		w.add("parent_code = ?", filter.ParentCode)
	}
	query := `SELECT ` + accountColumns + ` FROM accounts` + w.clause() + ` ORDER BY code;`

	rows, err := r.Pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]models.Account, 0)
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return mapping.ToDomainAccountSlice(accounts), nil
}

// SetAccountActive toggles the active flag of an account.
func (r *PgxAccountRepository) SetAccountActive(ctx context.Context, code string, active bool, userID string, now time.Time) error {
	query := `UPDATE accounts SET is_active = $1, last_updated_at = $2, last_updated_by = $3 WHERE code = $4;`
	tag, err := r.Pool.Exec(ctx, query, active, now, userID, code)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, code)
	}
	return nil
}
