package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"gastos/internal/core"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveExpense inserts or replaces the expense with the same id.
func (r *SQLiteRepository) SaveExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, name, amount_cents, category, subcategory, date_iso, year, month, payment_method, recurring)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			amount_cents = excluded.amount_cents,
			category = excluded.category,
			subcategory = excluded.subcategory,
			date_iso = excluded.date_iso,
			year = excluded.year,
			month = excluded.month,
			payment_method = excluded.payment_method,
			recurring = excluded.recurring`,
		e.ID, e.Name, e.Amount.Cents, e.Category, e.Subcategory, e.Date.String(),
		e.Date.Year(), e.Date.Month(), string(e.PaymentMethod), boolToInt(e.Recurring))
	if err != nil {
		return fmt.Errorf("save expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)
	return nil
}

const expenseColumns = `id, name, amount_cents, category, subcategory, date_iso, payment_method, recurring`

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("expense %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, f Filter) ([]core.Expense, error) {
	var (
		where []string
		args  []any
	)
	if f.Year != 0 {
		where = append(where, "year = ?")
		args = append(args, f.Year)
	}
	if f.Month != 0 {
		where = append(where, "month = ?")
		args = append(args, f.Month)
	}
	if f.Category != "" {
		where = append(where, "category = ? COLLATE NOCASE")
		args = append(args, strings.TrimSpace(f.Category))
	}
	query := `SELECT ` + expenseColumns + ` FROM expenses`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date_iso, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e         core.Expense
		dateISO   string
		payment   string
		recurring int
	)
	if err := s.Scan(&e.ID, &e.Name, &e.Amount.Cents, &e.Category, &e.Subcategory, &dateISO, &payment, &recurring); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(dateISO)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %s: bad date %q: %w", e.ID, dateISO, err)
	}
	e.Date = d
	e.PaymentMethod = core.PaymentMethod(payment)
	e.Recurring = recurring == 1
	return e, nil
}

func (r *SQLiteRepository) SaveBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (category, limit_cents) VALUES (?, ?)
		ON CONFLICT(category) DO UPDATE SET limit_cents = excluded.limit_cents, updated_at = CURRENT_TIMESTAMP`,
		strings.TrimSpace(b.Category), b.MonthlyLimit.Cents)
	if err != nil {
		return fmt.Errorf("save budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, category string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE category = ?`, strings.TrimSpace(category))
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("budget %s: %w", category, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category, limit_cents FROM budgets ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.Category, &b.MonthlyLimit.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SaveTaxonomy replaces the stored category tree in one transaction.
func (r *SQLiteRepository) SaveTaxonomy(ctx context.Context, categories []core.Category) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin taxonomy tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM subcategories`); err != nil {
		return fmt.Errorf("clear subcategories: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}
	for i, c := range categories {
		if _, err := tx.ExecContext(ctx, `INSERT INTO categories (name, position) VALUES (?, ?)`, c.Name, i); err != nil {
			return fmt.Errorf("insert category %q: %w", c.Name, err)
		}
		for j, sub := range c.Subcategories {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO subcategories (category, name, position) VALUES (?, ?, ?)`, c.Name, sub, j); err != nil {
				return fmt.Errorf("insert subcategory %q/%q: %w", c.Name, sub, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit taxonomy: %w", err)
	}
	return nil
}

// LoadTaxonomy returns the stored tree; an empty slice means nothing was saved yet.
func (r *SQLiteRepository) LoadTaxonomy(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name, s.name
		FROM categories c
		LEFT JOIN subcategories s ON s.category = c.name
		ORDER BY c.position, s.position`)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			cat string
			sub sql.NullString
		)
		if err := rows.Scan(&cat, &sub); err != nil {
			return nil, fmt.Errorf("scan taxonomy: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].Name != cat {
			out = append(out, core.Category{Name: cat})
		}
		if sub.Valid {
			last := &out[len(out)-1]
			last.Subcategories = append(last.Subcategories, sub.String)
		}
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
