package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Fixed-width so that lexical order in SQLite matches chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// OpenSQLite opens the database at path and applies pending migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	// foreign_keys is per connection; the DSN flag applies it to every pooled one.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) CreateReminder(ctx context.Context, in Reminder) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO medicine_reminders (id, medicine_name, dosage, frequency, notes, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			in.ID, in.MedicineName, in.Dosage, in.Frequency, in.Notes, boolInt(in.Active),
			mustTime(in.CreatedAt), mustTime(updatedOrCreated(in)),
		); err != nil {
			return err
		}
		return insertTimes(ctx, tx, in.ID, in.TimesOfDay)
	})
}

func (r *SQLiteRepository) GetReminder(ctx context.Context, id string) (Reminder, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, medicine_name, dosage, frequency, notes, active, created_at, updated_at
		FROM medicine_reminders WHERE id = ?`, id)
	item, err := scanReminder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reminder{}, ErrNotFound
		}
		return Reminder{}, err
	}
	times, err := r.loadTimes(ctx, []string{item.ID})
	if err != nil {
		return Reminder{}, err
	}
	item.TimesOfDay = times[item.ID]
	return item, nil
}

func (r *SQLiteRepository) UpdateReminder(ctx context.Context, in Reminder) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE medicine_reminders
			SET medicine_name = ?, dosage = ?, frequency = ?, notes = ?, active = ?, updated_at = ?
			WHERE id = ?`,
			in.MedicineName, in.Dosage, in.Frequency, in.Notes, boolInt(in.Active), mustTime(updatedOrCreated(in)), in.ID,
		)
		if err != nil {
			return err
		}
		if err := checkRowsAffected(res); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM reminder_times WHERE reminder_id = ?`, in.ID); err != nil {
			return err
		}
		return insertTimes(ctx, tx, in.ID, in.TimesOfDay)
	})
}

func (r *SQLiteRepository) DeleteReminder(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medicine_reminders WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListReminders(ctx context.Context, filter ReminderListFilter) ([]Reminder, error) {
	query := `SELECT id, medicine_name, dosage, frequency, notes, active, created_at, updated_at FROM medicine_reminders`
	args := make([]any, 0, 3)
	if filter.Active != nil {
		query += ` WHERE active = ?`
		args = append(args, boolInt(*filter.Active))
	}
	query += ` ORDER BY created_at DESC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Reminder, 0)
	ids := make([]string, 0)
	for rows.Next() {
		item, scanErr := scanReminder(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
		ids = append(ids, item.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	times, err := r.loadTimes(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].TimesOfDay = times[out[i].ID]
	}
	return out, nil
}

func (r *SQLiteRepository) CreateIntake(ctx context.Context, in Intake) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medicine_intake_records (id, reminder_id, medicine_name, status, taken_at, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID, nullString(in.ReminderID), in.MedicineName, in.Status, mustTime(in.TakenAt), in.Notes,
	)
	return err
}

func (r *SQLiteRepository) ListIntakes(ctx context.Context, filter IntakeListFilter) ([]Intake, error) {
	query := `SELECT id, reminder_id, medicine_name, status, taken_at, notes FROM medicine_intake_records`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if filter.ReminderID != "" {
		clauses = append(clauses, "reminder_id = ?")
		args = append(args, filter.ReminderID)
	}
	if filter.Since != nil {
		clauses = append(clauses, "taken_at >= ?")
		args = append(args, mustTime(*filter.Since))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY taken_at DESC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Intake, 0)
	for rows.Next() {
		item, scanErr := scanIntake(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRepository) loadTimes(ctx context.Context, ids []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT reminder_id, time_of_day FROM reminder_times
		WHERE reminder_id IN (`+placeholders+`)
		ORDER BY reminder_id, position`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, tod string
		if err := rows.Scan(&id, &tod); err != nil {
			return nil, err
		}
		out[id] = append(out[id], tod)
	}
	return out, rows.Err()
}

func insertTimes(ctx context.Context, tx *sql.Tx, reminderID string, times []string) error {
	for i, tod := range times {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reminder_times (reminder_id, position, time_of_day) VALUES (?, ?, ?)`,
			reminderID, i, tod,
		); err != nil {
			return fmt.Errorf("insert time %q: %w", tod, err)
		}
	}
	return nil
}

func updatedOrCreated(in Reminder) time.Time {
	if in.UpdatedAt.IsZero() {
		return in.CreatedAt
	}
	return in.UpdatedAt
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	} else if offset > 0 {
		// sqlite only accepts OFFSET after a LIMIT clause
		sql += " LIMIT -1"
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReminder(s scanner) (Reminder, error) {
	var out Reminder
	var active int
	var created, updated string
	if err := s.Scan(&out.ID, &out.MedicineName, &out.Dosage, &out.Frequency, &out.Notes, &active, &created, &updated); err != nil {
		return Reminder{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return Reminder{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return Reminder{}, err
	}
	out.Active = active == 1
	out.CreatedAt = createdAt
	out.UpdatedAt = updatedAt
	return out, nil
}

func scanIntake(s scanner) (Intake, error) {
	var out Intake
	var reminderID sql.NullString
	var taken string
	if err := s.Scan(&out.ID, &reminderID, &out.MedicineName, &out.Status, &taken, &out.Notes); err != nil {
		return Intake{}, err
	}
	takenAt, err := parseRequiredTime(taken)
	if err != nil {
		return Intake{}, err
	}
	out.ReminderID = reminderID.String
	out.TakenAt = takenAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
