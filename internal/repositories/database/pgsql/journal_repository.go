package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/school_ledger/internal/models"
	"github.com/SscSPs/school_ledger/internal/utils/mapping"
	"github.com/SscSPs/school_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const entryColumns = `id, transaction_date, description, source_type, source_id, period_id, reversal_of, reversed_by,
	created_at, created_by, last_updated_at, last_updated_by`

const lineColumns = `id, entry_id, line_no, account_code, side, amount, currency_code, memo`

// PgxJournalRepository stores journal entries and their lines. Entries are insert-only;
// the only update is the guarded reversed_by link.
type PgxJournalRepository struct {
	BaseRepository
}

func newPgxJournalRepository(pool PgxPool) *PgxJournalRepository {
	return &PgxJournalRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

func scanEntry(row rowScanner) (models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.TransactionDate,
		&m.Description,
		&m.SourceType,
		&m.SourceID,
		&m.PeriodID,
		&m.ReversalOf,
		&m.ReversedBy,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func scanLine(row rowScanner) (models.JournalLine, error) {
	var m models.JournalLine
	err := row.Scan(&m.LineID, &m.EntryID, &m.LineNo, &m.AccountCode, &m.Side, &m.Amount, &m.CurrencyCode, &m.Memo)
	return m, err
}

// SaveEntry writes entry and its lines after admit accepts the share-locked period.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry, admit portsrepo.PeriodAdmission) (*domain.JournalEntry, error) {
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		if err := admitEntry(ctx, tx, &entry, admit); err != nil {
			return err
		}
		return insertEntry(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SaveReversal writes reversal and links originalID to it. The link update only
// succeeds while reversed_by is still NULL.
func (r *PgxJournalRepository) SaveReversal(ctx context.Context, originalID string, reversal domain.JournalEntry, admit portsrepo.PeriodAdmission) (*domain.JournalEntry, error) {
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		var reversedBy *string
		err := tx.QueryRow(ctx, `SELECT reversed_by FROM journal_entries WHERE id = $1 FOR UPDATE;`, originalID).Scan(&reversedBy)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: journal entry %s", apperrors.ErrNotFound, originalID)
			}
			return fmt.Errorf("failed to lock journal entry %s: %w", originalID, err)
		}
		if reversedBy != nil {
			return &apperrors.AlreadyReversedError{EntryID: originalID, ReversedBy: *reversedBy}
		}

		if err := admitEntry(ctx, tx, &reversal, admit); err != nil {
			return err
		}
		reversal.ReversalOf = originalID
		if err := insertEntry(ctx, tx, reversal); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx,
			`UPDATE journal_entries SET reversed_by = $1, last_updated_at = $2, last_updated_by = $3
			WHERE id = $4 AND reversed_by IS NULL;`,
			reversal.ID, reversal.CreatedAt, reversal.CreatedBy, originalID,
		)
		if err != nil {
			return fmt.Errorf("failed to link reversal of %s: %w", originalID, err)
		}
		if tag.RowsAffected() == 0 {
			return &apperrors.AlreadyReversedError{EntryID: originalID}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reversal, nil
}

// admitEntry share-locks the period covering the entry date and lets admit decide.
func admitEntry(ctx context.Context, tx pgx.Tx, entry *domain.JournalEntry, admit portsrepo.PeriodAdmission) error {
	period, err := findPeriodCovering(ctx, tx, entry.TransactionDate, "FOR SHARE")
	if err != nil {
		return err
	}
	if err := admit(period, entry.TransactionDate); err != nil {
		return err
	}
	if period != nil {
		entry.PeriodID = period.ID
	}
	return nil
}

// insertEntry writes the header and all lines. Lines are queued on one batch.
func insertEntry(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error {
	m := mapping.ToModelJournalEntry(entry)
	query := `INSERT INTO journal_entries (` + entryColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`
	_, err := tx.Exec(ctx, query,
		m.EntryID, m.TransactionDate, m.Description, m.SourceType, m.SourceID,
		m.PeriodID, m.ReversalOf, m.ReversedBy,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgUniqueViolation {
			return fmt.Errorf("%w: journal entry %s", apperrors.ErrDuplicate, m.EntryID)
		}
		return fmt.Errorf("failed to insert journal entry %s: %w", m.EntryID, err)
	}
	if len(entry.Lines) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	lineQuery := `INSERT INTO journal_lines (` + lineColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	for _, l := range entry.Lines {
		ml := mapping.ToModelJournalLine(l)
		batch.Queue(lineQuery, ml.LineID, m.EntryID, ml.LineNo, ml.AccountCode, string(ml.Side), ml.Amount, ml.CurrencyCode, ml.Memo)
	}

	br := tx.SendBatch(ctx, batch)
	for range entry.Lines {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
				return fmt.Errorf("%w: entry %s references an unknown account or currency", apperrors.ErrValidation, m.EntryID)
			}
			return fmt.Errorf("failed to insert lines for journal entry %s: %w", m.EntryID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close line batch for journal entry %s: %w", m.EntryID, err)
	}
	return nil
}

// FindEntryByID retrieves an entry with its lines.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE id = $1;`
	m, err := scanEntry(r.Pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: journal entry %s", apperrors.ErrNotFound, entryID)
		}
		return nil, fmt.Errorf("failed to find journal entry %s: %w", entryID, err)
	}
	lines, err := r.linesFor(ctx, []string{entryID})
	if err != nil {
		return nil, err
	}
	entry := mapping.ToDomainJournalEntry(m, lines[entryID])
	return &entry, nil
}

// ListEntries returns one page of entries, newest first, with their lines.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, filter domain.JournalFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	var w whereBuilder
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		w.add("(transaction_date, created_at, id) < (?, ?, ?)", c.TransactionDate, c.CreatedAt, c.EntryID)
	}
	if filter.From != nil {
		w.add("transaction_date >= ?", domain.DateOnly(*filter.From))
	}
	if filter.To != nil {
		w.add("transaction_date <= ?", domain.DateOnly(*filter.To))
	}
	if filter.SourceType != "" {
		w.add("source_type = ?", string(filter.SourceType))
	}
	if filter.SourceID != "" {
		w.add("source_id = ?", filter.SourceID)
	}
	if filter.PeriodID != "" {
		w.add("period_id = ?", filter.PeriodID)
	}
	if filter.AccountCode != "" {
		w.add("EXISTS (SELECT 1 FROM journal_lines l WHERE l.entry_id = journal_entries.id AND l.account_code = ?)", filter.AccountCode)
	}
	w.args = append(w.args, limit+1)
	query := `SELECT ` + entryColumns + ` FROM journal_entries` + w.clause() +
		fmt.Sprintf(` ORDER BY transaction_date DESC, created_at DESC, id DESC LIMIT $%d;`, len(w.args))

	rows, err := r.Pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	headers := make([]models.JournalEntry, 0, limit+1)
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("failed to scan journal entry row: %w", err)
		}
		headers = append(headers, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, nil, fmt.Errorf("error iterating journal entry rows: %w", err)
	}
	rows.Close()

	var token *string
	if len(headers) > limit {
		headers = headers[:limit]
		last := headers[len(headers)-1]
		t := pagination.EncodeToken(pagination.Cursor{
			TransactionDate: domain.DateOnly(last.TransactionDate),
			CreatedAt:       last.CreatedAt,
			EntryID:         last.EntryID,
		})
		token = &t
	}
	if len(headers) == 0 {
		return []domain.JournalEntry{}, nil, nil
	}

	ids := make([]string, len(headers))
	for i, h := range headers {
		ids[i] = h.EntryID
	}
	lines, err := r.linesFor(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	entries := make([]domain.JournalEntry, len(headers))
	for i, h := range headers {
		entries[i] = mapping.ToDomainJournalEntry(h, lines[h.EntryID])
	}
	return entries, token, nil
}

// linesFor loads the lines of the given entries keyed by entry id, in line order.
func (r *PgxJournalRepository) linesFor(ctx context.Context, entryIDs []string) (map[string][]models.JournalLine, error) {
	var w whereBuilder
	w.in("entry_id", entryIDs, false)
	query := `SELECT ` + lineColumns + ` FROM journal_lines` + w.clause() + ` ORDER BY entry_id, line_no;`

	rows, err := r.Pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal lines: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.JournalLine, len(entryIDs))
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal line row: %w", err)
		}
		out[l.EntryID] = append(out[l.EntryID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal line rows: %w", err)
	}
	return out, nil
}

func (r *PgxJournalRepository) StreamLines(ctx context.Context, filter domain.LineFilter, fn func(domain.PostedLine) error) error {
	return streamLines(ctx, r.Pool, filter, fn)
}

// SumLines folds matching lines in the database.
func (r *PgxJournalRepository) SumLines(ctx context.Context, filter domain.LineFilter) (domain.Positions, error) {
	where := lineWhere(filter)
	query := `SELECT l.account_code, l.currency_code, l.side, SUM(l.amount)
		FROM journal_lines l JOIN journal_entries e ON e.id = l.entry_id` + where.clause() + `
		GROUP BY l.account_code, l.currency_code, l.side;`

	rows, err := r.Pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to sum journal lines: %w", err)
	}
	defer rows.Close()

	positions := make(domain.Positions)
	for rows.Next() {
		var (
			code, currency string
			side           models.LineSide
			sum            decimal.Decimal
		)
		if err := rows.Scan(&code, &currency, &side, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan line total row: %w", err)
		}
		key := domain.Position{AccountCode: code, Currency: currency}
		t := positions[key]
		t.Add(domain.Side(side), sum)
		positions[key] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line total rows: %w", err)
	}
	return positions, nil
}

func lineWhere(filter domain.LineFilter) *whereBuilder {
	w := &whereBuilder{}
	w.add("e.transaction_date <= ?", domain.DateOnly(filter.To))
	if filter.From != nil {
		w.add("e.transaction_date >= ?", domain.DateOnly(*filter.From))
	}
	w.in("l.account_code", filter.AccountCodes, false)
	if filter.Currency != "" {
		w.add("l.currency_code = ?", filter.Currency)
	}
	excluded := make([]string, len(filter.ExcludeSourceTypes))
	for i, st := range filter.ExcludeSourceTypes {
		excluded[i] = string(st)
	}
	w.in("e.source_type", excluded, true)
	return w
}

// streamLines yields posted lines in (transaction_date, created_at, line_no) order.
func streamLines(ctx context.Context, q querier, filter domain.LineFilter, fn func(domain.PostedLine) error) error {
	where := lineWhere(filter)
	query := `SELECT l.id, l.entry_id, l.line_no, l.account_code, l.side, l.amount, l.currency_code, l.memo,
		e.transaction_date, e.source_type, e.source_id, e.description, e.created_at
		FROM journal_lines l JOIN journal_entries e ON e.id = l.entry_id` + where.clause() + `
		ORDER BY e.transaction_date, e.created_at, l.entry_id, l.line_no;`

	rows, err := q.Query(ctx, query, where.args...)
	if err != nil {
		return fmt.Errorf("failed to stream journal lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ml         models.JournalLine
			pl         domain.PostedLine
			sourceType string
		)
		if err := rows.Scan(
			&ml.LineID, &ml.EntryID, &ml.LineNo, &ml.AccountCode, &ml.Side, &ml.Amount, &ml.CurrencyCode, &ml.Memo,
			&pl.TransactionDate, &sourceType, &pl.SourceID, &pl.Description, &pl.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to scan posted line row: %w", err)
		}
		pl.JournalLine = mapping.ToDomainJournalLine(ml)
		pl.TransactionDate = domain.DateOnly(pl.TransactionDate)
		pl.SourceType = domain.SourceType(sourceType)
		if err := fn(pl); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating posted line rows: %w", err)
	}
	return nil
}

// txLines reads lines through an open transaction.
type txLines struct {
	tx pgx.Tx
}

func (t txLines) StreamLines(ctx context.Context, filter domain.LineFilter, fn func(domain.PostedLine) error) error {
	return streamLines(ctx, t.tx, filter, fn)
}
