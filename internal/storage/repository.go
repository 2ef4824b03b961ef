package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finanzas/internal/core"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- Transactions ---

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, record core.Record) (core.Record, error) {
	if err := record.Validate(); err != nil {
		return core.Record{}, err
	}
	record.ID = uuid.NewString()

	var categoryID any
	if record.CategoryID != "" {
		categoryID = record.CategoryID
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, date, amount_cents, kind, category_id, description)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.Date.Format(dateLayout), record.Amount.Cents,
		string(record.Kind), categoryID, record.Description)
	if err != nil {
		return core.Record{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", record.ID,
		"kind", record.Kind,
		"amount_cents", record.Amount.Cents)

	return record, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT t.id, t.date, t.amount_cents, t.kind,
		        COALESCE(t.category_id, ''), COALESCE(c.name, ''), t.description
		 FROM transactions t
		 LEFT JOIN categories c ON c.id = t.category_id
		 WHERE t.id = ?`, id)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get transaction: %w", err)
	}
	return record, nil
}

// ListTransactions returns every transaction ordered by date ascending.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Record, error) {
	return r.queryTransactions(ctx,
		`SELECT t.id, t.date, t.amount_cents, t.kind,
		        COALESCE(t.category_id, ''), COALESCE(c.name, ''), t.description
		 FROM transactions t
		 LEFT JOIN categories c ON c.id = t.category_id
		 ORDER BY t.date ASC, t.created_at ASC`)
}

// ListTransactionsInRange returns transactions with date in [from, to], both inclusive.
func (r *SQLiteRepository) ListTransactionsInRange(ctx context.Context, from, to time.Time) ([]core.Record, error) {
	return r.queryTransactions(ctx,
		`SELECT t.id, t.date, t.amount_cents, t.kind,
		        COALESCE(t.category_id, ''), COALESCE(c.name, ''), t.description
		 FROM transactions t
		 LEFT JOIN categories c ON c.id = t.category_id
		 WHERE t.date >= ? AND t.date <= ?
		 ORDER BY t.date ASC, t.created_at ASC`,
		from.Format(dateLayout), to.Format(dateLayout))
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// LatestTransactionTime returns the creation time of the most recent
// transaction. The zero time with a nil error means the ledger is empty.
func (r *SQLiteRepository) LatestTransactionTime(ctx context.Context) (time.Time, error) {
	var created time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT created_at FROM transactions ORDER BY created_at DESC LIMIT 1`).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("latest transaction time: %w", err)
	}
	return created, nil
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (core.Record, error) {
	var (
		record  core.Record
		rawDate string
		kind    string
	)
	if err := row.Scan(&record.ID, &rawDate, &record.Amount.Cents, &kind,
		&record.CategoryID, &record.CategoryName, &record.Description); err != nil {
		return core.Record{}, err
	}
	record.Kind = core.Kind(kind)

	parsed, err := time.Parse(dateLayout, rawDate)
	if err != nil {
		return core.Record{}, fmt.Errorf("parse date %q: %w", rawDate, err)
	}
	record.Date = core.Date{Time: parsed}
	return record, nil
}

// --- Categories ---

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	c := core.Category{ID: uuid.NewString(), Name: name}
	_, err := r.db.ExecContext(ctx, `INSERT INTO categories (id, name) VALUES (?, ?)`, c.ID, c.Name)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Expense groups ---

func (r *SQLiteRepository) ListGroups(ctx context.Context) ([]core.ExpenseGroup, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM expense_groups ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []core.ExpenseGroup
	for rows.Next() {
		var g core.ExpenseGroup
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return groups, nil
}

func (r *SQLiteRepository) CreateGroup(ctx context.Context, name string) (core.ExpenseGroup, error) {
	g := core.ExpenseGroup{ID: uuid.NewString(), Name: name}
	_, err := r.db.ExecContext(ctx, `INSERT INTO expense_groups (id, name) VALUES (?, ?)`, g.ID, g.Name)
	if err != nil {
		return core.ExpenseGroup{}, fmt.Errorf("create group: %w", err)
	}
	return g, nil
}

// --- Fixed monthly expenses ---

func (r *SQLiteRepository) ListFixedExpenses(ctx context.Context, month core.Date) ([]core.FixedExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT f.id, f.month, COALESCE(f.group_id, ''), COALESCE(g.name, ''),
		        f.name, f.due_date, f.amount_cents, f.paid, f.payment_source, f.notes
		 FROM fixed_monthly_expenses f
		 LEFT JOIN expense_groups g ON g.id = f.group_id
		 WHERE f.month = ?
		 ORDER BY f.created_at ASC`,
		month.Format(monthLayout))
	if err != nil {
		return nil, fmt.Errorf("list fixed expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.FixedExpense
	for rows.Next() {
		var (
			e        core.FixedExpense
			rawMonth string
			paid     int
		)
		if err := rows.Scan(&e.ID, &rawMonth, &e.GroupID, &e.GroupName,
			&e.Name, &e.DueDate, &e.Amount.Cents, &paid, &e.PaymentSource, &e.Notes); err != nil {
			return nil, fmt.Errorf("scan fixed expense: %w", err)
		}
		parsed, err := time.Parse(monthLayout, rawMonth)
		if err != nil {
			return nil, fmt.Errorf("parse month %q: %w", rawMonth, err)
		}
		e.Month = core.Date{Time: parsed}
		e.Paid = paid != 0
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fixed expenses: %w", err)
	}
	return expenses, nil
}

func (r *SQLiteRepository) CreateFixedExpense(ctx context.Context, e core.FixedExpense) (core.FixedExpense, error) {
	if err := e.Validate(); err != nil {
		return core.FixedExpense{}, err
	}
	e.ID = uuid.NewString()

	var groupID any
	if e.GroupID != "" {
		groupID = e.GroupID
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fixed_monthly_expenses
		     (id, month, group_id, name, due_date, amount_cents, paid, payment_source, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Month.Format(monthLayout), groupID, e.Name, e.DueDate,
		e.Amount.Cents, boolToInt(e.Paid), e.PaymentSource, e.Notes)
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("create fixed expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) UpdateFixedExpense(ctx context.Context, e core.FixedExpense) error {
	if err := e.Validate(); err != nil {
		return err
	}

	var groupID any
	if e.GroupID != "" {
		groupID = e.GroupID
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE fixed_monthly_expenses
		 SET group_id = ?, name = ?, due_date = ?, amount_cents = ?,
		     paid = ?, payment_source = ?, notes = ?
		 WHERE id = ?`,
		groupID, e.Name, e.DueDate, e.Amount.Cents,
		boolToInt(e.Paid), e.PaymentSource, e.Notes, e.ID)
	if err != nil {
		return fmt.Errorf("update fixed expense: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) SetFixedExpensePaid(ctx context.Context, id string, paid bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE fixed_monthly_expenses SET paid = ? WHERE id = ?`, boolToInt(paid), id)
	if err != nil {
		return fmt.Errorf("set fixed expense paid: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteFixedExpense(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM fixed_monthly_expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete fixed expense: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) MonthHasFixedExpenses(ctx context.Context, month core.Date) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM fixed_monthly_expenses WHERE month = ?`,
		month.Format(monthLayout)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count fixed expenses: %w", err)
	}
	return count > 0, nil
}

// --- Budgets ---

func (r *SQLiteRepository) ListBudgets(ctx context.Context, activeOnly bool) ([]core.Budget, error) {
	query := `SELECT id, name, amount_cents, COALESCE(category_id, ''), period, start_date, end_date, active
	          FROM budgets`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var (
			b        core.Budget
			period   string
			rawStart string
			rawEnd   string
			active   int
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.Amount.Cents, &b.CategoryID,
			&period, &rawStart, &rawEnd, &active); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Period = core.PeriodKind(period)
		b.Active = active != 0

		start, err := time.Parse(dateLayout, rawStart)
		if err != nil {
			return nil, fmt.Errorf("parse start date %q: %w", rawStart, err)
		}
		b.StartDate = core.Date{Time: start}

		if rawEnd != "" {
			end, err := time.Parse(dateLayout, rawEnd)
			if err != nil {
				return nil, fmt.Errorf("parse end date %q: %w", rawEnd, err)
			}
			b.EndDate = core.Date{Time: end}
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	b.ID = uuid.NewString()

	var categoryID any
	if b.CategoryID != "" {
		categoryID = b.CategoryID
	}
	endDate := ""
	if !b.EndDate.IsEmpty() {
		endDate = b.EndDate.Format(dateLayout)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (id, name, amount_cents, category_id, period, start_date, end_date, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Amount.Cents, categoryID, string(b.Period),
		b.StartDate.Format(dateLayout), endDate, boolToInt(b.Active))
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) SetBudgetActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("set budget active: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Notifications outbox ---

type Notification struct {
	ID        string
	Kind      string
	Subject   string
	Body      string
	Status    string
	CreatedAt time.Time
}

func (r *SQLiteRepository) EnqueueNotification(ctx context.Context, kind, subject, body string) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, kind, subject, body) VALUES (?, ?, ?, ?)`,
		id, kind, subject, body)
	if err != nil {
		return "", fmt.Errorf("enqueue notification: %w", err)
	}

	slog.InfoContext(ctx, "Notification enqueued", "id", id, "kind", kind)
	return id, nil
}

func (r *SQLiteRepository) GetNotification(ctx context.Context, id string) (Notification, error) {
	var n Notification
	err := r.db.QueryRowContext(ctx,
		`SELECT id, kind, subject, body, status, created_at FROM notifications WHERE id = ?`, id).
		Scan(&n.ID, &n.Kind, &n.Subject, &n.Body, &n.Status, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Notification{}, ErrNotFound
	}
	if err != nil {
		return Notification{}, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) PendingNotifications(ctx context.Context, limit int) ([]Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, subject, body, status, created_at
		 FROM notifications
		 WHERE status = 'pending'
		 ORDER BY created_at ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending notifications: %w", err)
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Kind, &n.Subject, &n.Body, &n.Status, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return notifications, nil
}

func (r *SQLiteRepository) MarkNotificationSent(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET status = 'sent', sent_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) MarkNotificationError(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark notification error: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	slog.WarnContext(ctx, "Notification marked with error", "id", id)
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
