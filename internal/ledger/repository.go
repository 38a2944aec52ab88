package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-erp/accounting/internal/platform/db"
)

// ListFilter narrows List results.
type ListFilter struct {
	CompanyID *uuid.UUID
	Status    *EntryStatus
	Limit     int
	Offset    int
}

// Repository encapsulates DB operations for journal entries.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetEntryWithLines(ctx context.Context, id uuid.UUID) (JournalEntry, error)
	List(ctx context.Context, filter ListFilter) ([]JournalEntry, int, error)
	GetLine(ctx context.Context, entryID, lineID uuid.UUID) (Line, error)
}

// TxRepository exposes the operations available within one transaction.
type TxRepository interface {
	GetPeriod(ctx context.Context, id uuid.UUID) (PostingPeriod, error)
	GetPostingAccounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]PostingAccount, error)
	LatestEntryNumber(ctx context.Context, companyID uuid.UUID, prefix string) (string, error)
	EntryNumberExists(ctx context.Context, companyID uuid.UUID, number string) (bool, error)
	InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error)
	InsertLines(ctx context.Context, lines []Line) ([]Line, error)
	GetEntryForUpdate(ctx context.Context, id uuid.UUID) (JournalEntry, error)
	GetLines(ctx context.Context, entryID uuid.UUID) ([]Line, error)
	UpdateEntry(ctx context.Context, entry JournalEntry) error
	DeleteLines(ctx context.Context, entryID uuid.UUID) error
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	InsertLine(ctx context.Context, line Line) (Line, error)
	UpdateLine(ctx context.Context, line Line) error
	DeleteLine(ctx context.Context, lineID uuid.UUID) error
	RenumberLines(ctx context.Context, entryID uuid.UUID) error
}

// uqCompanyNumber is the unique constraint enforcing per-company entry
// numbers; a violation on insert drives the allocation retry loop.
const uqCompanyNumber = "uq_journal_entries_company_number"

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const entryColumns = `id, company_id, entry_number, entry_date, fiscal_period_id, description, reference_number, source_document, total_debit, total_credit, status, posted_date, created_at, updated_at`

const lineColumns = `id, journal_entry_id, line_number, account_id, debit_amount, credit_amount, cost_center_id, profit_center_id, description, created_at, updated_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.CompanyID, &e.EntryNumber, &e.EntryDate, &e.FiscalPeriodID, &e.Description, &e.Reference, &e.SourceDocument, &e.TotalDebit, &e.TotalCredit, &e.Status, &e.PostedDate, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	return e, nil
}

func scanLines(rows pgx.Rows) ([]Line, error) {
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.JournalEntryID, &l.LineNumber, &l.AccountID, &l.DebitAmount, &l.CreditAmount, &l.CostCenterID, &l.ProfitCenterID, &l.Description, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) GetEntryWithLines(ctx context.Context, id uuid.UUID) (JournalEntry, error) {
	entry, err := scanEntry(r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id))
	if err != nil {
		return JournalEntry{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+lineColumns+` FROM journal_entry_lines WHERE journal_entry_id=$1 ORDER BY line_number ASC`, id)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines, err = scanLines(rows)
	return entry, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]JournalEntry, int, error) {
	where := ` WHERE ($1::uuid IS NULL OR company_id=$1) AND ($2::text IS NULL OR status=$2)`
	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries`+where, filter.CompanyID, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries`+where+` ORDER BY entry_number DESC LIMIT $3 OFFSET $4`, filter.CompanyID, status, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	return entries, total, rows.Err()
}

func (r *repository) GetLine(ctx context.Context, entryID, lineID uuid.UUID) (Line, error) {
	var l Line
	err := r.pool.QueryRow(ctx, `SELECT `+lineColumns+` FROM journal_entry_lines WHERE id=$1 AND journal_entry_id=$2`, lineID, entryID).
		Scan(&l.ID, &l.JournalEntryID, &l.LineNumber, &l.AccountID, &l.DebitAmount, &l.CreditAmount, &l.CostCenterID, &l.ProfitCenterID, &l.Description, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Line{}, ErrLineNotFound
		}
		return Line{}, err
	}
	return l, nil
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetPeriod(ctx context.Context, id uuid.UUID) (PostingPeriod, error) {
	var p PostingPeriod
	err := r.tx.QueryRow(ctx, `SELECT id, is_closed FROM fiscal_periods WHERE id=$1 FOR SHARE`, id).Scan(&p.ID, &p.IsClosed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PostingPeriod{}, ErrPeriodNotFound
		}
		return PostingPeriod{}, err
	}
	return p, nil
}

func (r *txRepository) GetPostingAccounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]PostingAccount, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, account_code, is_active, cost_center_required FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	accounts := make(map[uuid.UUID]PostingAccount, len(ids))
	for rows.Next() {
		var a PostingAccount
		if err := rows.Scan(&a.ID, &a.Code, &a.IsActive, &a.CostCenterRequired); err != nil {
			return nil, err
		}
		accounts[a.ID] = a
	}
	return accounts, rows.Err()
}

func (r *txRepository) LatestEntryNumber(ctx context.Context, companyID uuid.UUID, prefix string) (string, error) {
	var number string
	err := r.tx.QueryRow(ctx, `SELECT entry_number FROM journal_entries WHERE company_id=$1 AND entry_number LIKE $2 ORDER BY entry_number DESC LIMIT 1`, companyID, prefix+"%").Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return number, nil
}

func (r *txRepository) EntryNumberExists(ctx context.Context, companyID uuid.UUID, number string) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journal_entries WHERE company_id=$1 AND entry_number=$2)`, companyID, number).Scan(&exists)
	return exists, err
}

func (r *txRepository) InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (company_id, entry_number, entry_date, fiscal_period_id, description, reference_number, source_document, total_debit, total_credit, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING id, created_at, updated_at`,
		entry.CompanyID, entry.EntryNumber, entry.EntryDate, entry.FiscalPeriodID, entry.Description, entry.Reference, entry.SourceDocument, entry.TotalDebit, entry.TotalCredit, entry.Status)
	if err := row.Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err, uqCompanyNumber) {
			return JournalEntry{}, ErrNumberTaken
		}
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertLines(ctx context.Context, lines []Line) ([]Line, error) {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		row := r.tx.QueryRow(ctx, `INSERT INTO journal_entry_lines (journal_entry_id, line_number, account_id, debit_amount, credit_amount, cost_center_id, profit_center_id, description)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id, created_at, updated_at`,
			line.JournalEntryID, line.LineNumber, line.AccountID, line.DebitAmount, line.CreditAmount, line.CostCenterID, line.ProfitCenterID, line.Description)
		if err := row.Scan(&line.ID, &line.CreatedAt, &line.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, id uuid.UUID) (JournalEntry, error) {
	return scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) GetLines(ctx context.Context, entryID uuid.UUID) ([]Line, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+lineColumns+` FROM journal_entry_lines WHERE journal_entry_id=$1 ORDER BY line_number ASC`, entryID)
	if err != nil {
		return nil, err
	}
	return scanLines(rows)
}

func (r *txRepository) UpdateEntry(ctx context.Context, entry JournalEntry) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET entry_date=$2, description=$3, reference_number=$4, source_document=$5, total_debit=$6, total_credit=$7, status=$8, posted_date=$9, updated_at=NOW() WHERE id=$1`,
		entry.ID, entry.EntryDate, entry.Description, entry.Reference, entry.SourceDocument, entry.TotalDebit, entry.TotalCredit, entry.Status, entry.PostedDate)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) DeleteLines(ctx context.Context, entryID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM journal_entry_lines WHERE journal_entry_id=$1`, entryID)
	return err
}

func (r *txRepository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) InsertLine(ctx context.Context, line Line) (Line, error) {
	lines, err := r.InsertLines(ctx, []Line{line})
	if err != nil {
		return Line{}, err
	}
	return lines[0], nil
}

func (r *txRepository) UpdateLine(ctx context.Context, line Line) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entry_lines SET account_id=$2, debit_amount=$3, credit_amount=$4, cost_center_id=$5, profit_center_id=$6, description=$7, updated_at=NOW() WHERE id=$1`,
		line.ID, line.AccountID, line.DebitAmount, line.CreditAmount, line.CostCenterID, line.ProfitCenterID, line.Description)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *txRepository) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_entry_lines WHERE id=$1`, lineID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *txRepository) RenumberLines(ctx context.Context, entryID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `WITH ordered AS (
	SELECT id, ROW_NUMBER() OVER (ORDER BY line_number ASC) AS rn
	FROM journal_entry_lines WHERE journal_entry_id=$1
)
UPDATE journal_entry_lines l SET line_number = o.rn FROM ordered o WHERE l.id = o.id`, entryID)
	return err
}
