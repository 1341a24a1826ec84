package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/simonvc/bistroledger/internal/ledger"
)

const entryColumns = `id, entry_date, piece_number, description, source, reference_type, reference_id,
	is_system_generated, is_validated, validated_by, validated_at, created_by, created_at`

// InsertEntry writes the entry unvalidated, then its lines, then flips the
// validated flag for system entries so the balance trigger checks them.
func (s *Store) InsertEntry(ctx context.Context, e *ledger.JournalEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.q(`INSERT INTO journal_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, '', NULL, ?, ?) ON CONFLICT DO NOTHING`),
		e.ID, formatTime(e.Date), e.PieceNumber, e.Description, string(e.Source), string(e.ReferenceType), e.ReferenceID,
		boolToInt(e.IsSystemGenerated), e.CreatedBy, formatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ledger.ErrDuplicateEntry, e.ID)
	}

	for i, l := range e.Lines {
		cents, err := ledger.ToCents(l.Amount)
		if err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		_, err = tx.ExecContext(ctx, s.q(`INSERT INTO journal_lines (entry_id, position, account_id, side, amount_cents, description)
			VALUES (?, ?, ?, ?, ?, ?)`),
			e.ID, i, l.AccountID, string(l.Side), cents, l.Description,
		)
		if err != nil {
			return fmt.Errorf("insert line %d: %w", i+1, err)
		}
	}

	if e.IsValidated {
		at := e.CreatedAt
		if e.ValidatedAt != nil {
			at = *e.ValidatedAt
		}
		_, err = tx.ExecContext(ctx, s.q(`UPDATE journal_entries SET is_validated = 1, validated_by = ?, validated_at = ? WHERE id = ?`),
			e.ValidatedBy, formatTime(at), e.ID)
		if err != nil {
			return fmt.Errorf("validate entry: %w", err)
		}
	}

	if err := s.bumpRevision(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	row := s.reader.QueryRowContext(ctx, s.q(`SELECT `+entryColumns+` FROM journal_entries WHERE id = ?`), id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.EntryNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachLines(ctx, []*ledger.JournalEntry{e}); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) FindEntryByReference(ctx context.Context, ref ledger.ReferenceType, refID string) (*ledger.JournalEntry, error) {
	row := s.reader.QueryRowContext(ctx,
		s.q(`SELECT `+entryColumns+` FROM journal_entries WHERE reference_type = ? AND reference_id = ?`),
		string(ref), refID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Kind: string(ref), Key: refID}
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachLines(ctx, []*ledger.JournalEntry{e}); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) ListEntries(ctx context.Context, filter ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE 1=1`
	args := []any{}

	if !filter.From.IsZero() {
		query += ` AND entry_date >= ?`
		args = append(args, formatTime(filter.From))
	}
	if !filter.To.IsZero() {
		query += ` AND entry_date < ?`
		args = append(args, formatTime(filter.To))
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, string(filter.Source))
	}
	if filter.ReferenceType != "" {
		query += ` AND reference_type = ?`
		args = append(args, string(filter.ReferenceType))
	}
	if filter.Validated != nil {
		query += ` AND is_validated = ?`
		args = append(args, boolToInt(*filter.Validated))
	}
	if filter.AccountID != "" {
		query += ` AND id IN (SELECT entry_id FROM journal_lines WHERE account_id = ?)`
		args = append(args, filter.AccountID)
	}

	if filter.Ascending {
		query += ` ORDER BY entry_date, created_at, id`
	} else {
		query += ` ORDER BY entry_date DESC, created_at DESC, id DESC`
	}
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(` OFFSET %d`, filter.Offset)
		}
	}

	rows, err := s.reader.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var ptrs []*ledger.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		ptrs = append(ptrs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := s.attachLines(ctx, ptrs); err != nil {
		return nil, err
	}
	entries := make([]ledger.JournalEntry, len(ptrs))
	for i, e := range ptrs {
		entries[i] = *e
	}
	return entries, nil
}

func (s *Store) MarkValidated(ctx context.Context, id, by string, at time.Time) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		s.q(`UPDATE journal_entries SET is_validated = 1, validated_by = ?, validated_at = ? WHERE id = ? AND is_validated = 0`),
		by, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("validate entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		e, err := s.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		var when time.Time
		if e.ValidatedAt != nil {
			when = *e.ValidatedAt
		}
		return &ledger.AlreadyValidatedError{EntryID: id, ValidatedBy: e.ValidatedBy, ValidatedAt: when}
	}
	if err := s.bumpRevision(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

const lineBatch = 500

// attachLines loads the lines of the given entries in position order.
func (s *Store) attachLines(ctx context.Context, entries []*ledger.JournalEntry) error {
	byID := make(map[string]*ledger.JournalEntry, len(entries))
	ids := make([]any, 0, len(entries))
	for _, e := range entries {
		e.Lines = []ledger.JournalLine{}
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}

	for start := 0; start < len(ids); start += lineBatch {
		end := min(start+lineBatch, len(ids))
		batch := ids[start:end]
		rows, err := s.reader.QueryContext(ctx, s.q(`SELECT entry_id, account_id, side, amount_cents, description
			FROM journal_lines WHERE entry_id IN (`+placeholders(len(batch))+`) ORDER BY entry_id, position`), batch...)
		if err != nil {
			return fmt.Errorf("load lines: %w", err)
		}
		for rows.Next() {
			var entryID, side string
			var cents int64
			var l ledger.JournalLine
			if err := rows.Scan(&entryID, &l.AccountID, &side, &cents, &l.Description); err != nil {
				rows.Close()
				return fmt.Errorf("scan line: %w", err)
			}
			l.Side = ledger.Side(side)
			l.Amount = ledger.FromCents(cents)
			if e, ok := byID[entryID]; ok {
				e.Lines = append(e.Lines, l)
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func scanEntry(row scanner) (*ledger.JournalEntry, error) {
	var e ledger.JournalEntry
	var date, source, refType, createdAt string
	var validatedAt sql.NullString
	var system, validated int
	err := row.Scan(&e.ID, &date, &e.PieceNumber, &e.Description, &source, &refType, &e.ReferenceID,
		&system, &validated, &e.ValidatedBy, &validatedAt, &e.CreatedBy, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan journal entry: %w", err)
	}
	if e.Date, err = parseTime(date); err != nil {
		return nil, fmt.Errorf("journal entry %s date: %w", e.ID, err)
	}
	e.Source = ledger.Source(source)
	e.ReferenceType = ledger.ReferenceType(refType)
	e.IsSystemGenerated = system == 1
	e.IsValidated = validated == 1
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("journal entry %s created_at: %w", e.ID, err)
	}
	if validatedAt.Valid {
		t, err := parseTime(validatedAt.String)
		if err != nil {
			return nil, fmt.Errorf("journal entry %s validated_at: %w", e.ID, err)
		}
		e.ValidatedAt = &t
	}
	return &e, nil
}
