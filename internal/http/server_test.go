package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/services"
	"finanzas/internal/sheets/memory"
	"finanzas/internal/storage"
)

// fakeRepo backs the handlers and the services in-memory.
type fakeRepo struct {
	records    []core.Record
	categories []core.Category
	groups     []core.ExpenseGroup
	budgets    []core.Budget
	fixed      []core.FixedExpense

	listCalls int
	nextID    int
}

func (f *fakeRepo) id() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeRepo) CreateTransaction(ctx context.Context, r core.Record) (core.Record, error) {
	r.ID = f.id()
	f.records = append(f.records, r)
	return r, nil
}

func (f *fakeRepo) DeleteTransaction(ctx context.Context, id string) error {
	for i, r := range f.records {
		if r.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeRepo) ListTransactions(ctx context.Context) ([]core.Record, error) {
	f.listCalls++
	return f.records, nil
}

func (f *fakeRepo) ListTransactionsInRange(ctx context.Context, from, to time.Time) ([]core.Record, error) {
	var out []core.Record
	for _, r := range f.records {
		if !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListCategories(ctx context.Context) ([]core.Category, error) {
	return f.categories, nil
}

func (f *fakeRepo) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	c := core.Category{ID: f.id(), Name: name}
	f.categories = append(f.categories, c)
	return c, nil
}

func (f *fakeRepo) DeleteCategory(ctx context.Context, id string) error {
	for i, c := range f.categories {
		if c.ID == id {
			f.categories = append(f.categories[:i], f.categories[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeRepo) ListGroups(ctx context.Context) ([]core.ExpenseGroup, error) {
	return f.groups, nil
}

func (f *fakeRepo) CreateGroup(ctx context.Context, name string) (core.ExpenseGroup, error) {
	g := core.ExpenseGroup{ID: f.id(), Name: name}
	f.groups = append(f.groups, g)
	return g, nil
}

func (f *fakeRepo) ListBudgets(ctx context.Context, activeOnly bool) ([]core.Budget, error) {
	if !activeOnly {
		return f.budgets, nil
	}
	var out []core.Budget
	for _, b := range f.budgets {
		if b.Active {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.ID = f.id()
	f.budgets = append(f.budgets, b)
	return b, nil
}

func (f *fakeRepo) SetBudgetActive(ctx context.Context, id string, active bool) error {
	for i, b := range f.budgets {
		if b.ID == id {
			f.budgets[i].Active = active
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeRepo) DeleteBudget(ctx context.Context, id string) error {
	for i, b := range f.budgets {
		if b.ID == id {
			f.budgets = append(f.budgets[:i], f.budgets[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeRepo) ListFixedExpenses(ctx context.Context, month core.Date) ([]core.FixedExpense, error) {
	key := month.Format("2006-01")
	var out []core.FixedExpense
	for _, e := range f.fixed {
		if e.Month.Format("2006-01") == key {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateFixedExpense(ctx context.Context, e core.FixedExpense) (core.FixedExpense, error) {
	e.ID = f.id()
	f.fixed = append(f.fixed, e)
	return e, nil
}

func (f *fakeRepo) UpdateFixedExpense(ctx context.Context, e core.FixedExpense) error {
	for i, got := range f.fixed {
		if got.ID == e.ID {
			f.fixed[i] = e
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeRepo) SetFixedExpensePaid(ctx context.Context, id string, paid bool) error {
	for i, e := range f.fixed {
		if e.ID == id {
			f.fixed[i].Paid = paid
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeRepo) DeleteFixedExpense(ctx context.Context, id string) error {
	for i, e := range f.fixed {
		if e.ID == id {
			f.fixed = append(f.fixed[:i], f.fixed[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeRepo) MonthHasFixedExpenses(ctx context.Context, month core.Date) (bool, error) {
	expenses, _ := f.ListFixedExpenses(ctx, month)
	return len(expenses) > 0, nil
}

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, repo *fakeRepo, opts Options) *Server {
	t.Helper()
	reports := services.NewReportService(repo)
	budgets := services.NewBudgetService(repo, repo)
	fixed := services.NewFixedExpenseService(repo)
	srv := NewServer(":0", repo, reports, budgets, fixed, opts)
	srv.now = func() time.Time { return testNow }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func doJSON(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, &fakeRepo{}, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(srv, http.MethodGet, path, "")
		if rr.Code != 200 {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestMonthlyReportUsesCacheUntilWrite(t *testing.T) {
	repo := &fakeRepo{records: []core.Record{
		{ID: "t1", Date: core.NewDate(2024, 6, 3), Amount: core.Money{Cents: 5000}, Kind: core.Expense, CategoryName: "Comida"},
		{ID: "t2", Date: core.NewDate(2024, 6, 10), Amount: core.Money{Cents: 200000}, Kind: core.Income},
	}}
	srv := newTestServer(t, repo, Options{})

	rr := doJSON(srv, http.MethodGet, "/api/report", "")
	if rr.Code != 200 {
		t.Fatalf("report status=%d body=%s", rr.Code, rr.Body.String())
	}
	var report reportResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Month != "2024-06" {
		t.Fatalf("month=%q", report.Month)
	}
	if report.IncomeCents != 200000 || report.ExpenseCents != 5000 || report.BalanceCents != 195000 {
		t.Fatalf("summary=%+v", report)
	}

	calls := repo.listCalls
	doJSON(srv, http.MethodGet, "/api/report", "")
	if repo.listCalls != calls {
		t.Fatalf("second read hit the repo: %d -> %d", calls, repo.listCalls)
	}

	rr = doJSON(srv, http.MethodPost, "/api/transactions",
		`{"date":"2024-06-20","amount":"12.50","kind":"expense"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}

	doJSON(srv, http.MethodGet, "/api/report", "")
	if repo.listCalls == calls {
		t.Fatal("write did not invalidate the report cache")
	}
}

func TestMonthlyReportRejectsBadMonth(t *testing.T) {
	srv := newTestServer(t, &fakeRepo{}, Options{})
	rr := doJSON(srv, http.MethodGet, "/api/report?month=junio", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(t, &fakeRepo{}, Options{})

	cases := []struct {
		name string
		body string
	}{
		{"bad amount", `{"date":"2024-06-01","amount":"abc","kind":"expense"}`},
		{"bad date", `{"date":"01/06/2024","amount":"10","kind":"expense"}`},
		{"bad kind", `{"date":"2024-06-01","amount":"10","kind":"loan"}`},
		{"negative amount", `{"date":"2024-06-01","amount":"-5","kind":"expense"}`},
		{"not json", `date=2024-06-01`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(srv, http.MethodPost, "/api/transactions", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestDeleteTransaction(t *testing.T) {
	repo := &fakeRepo{records: []core.Record{
		{ID: "keep", Date: core.NewDate(2024, 6, 1), Amount: core.Money{Cents: 100}, Kind: core.Expense},
	}}
	srv := newTestServer(t, repo, Options{})

	rr := doJSON(srv, http.MethodDelete, "/api/transactions/missing", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing status=%d", rr.Code)
	}

	rr = doJSON(srv, http.MethodDelete, "/api/transactions/keep", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	if len(repo.records) != 0 {
		t.Fatalf("record not deleted: %+v", repo.records)
	}
}

func TestSearchEndpoint(t *testing.T) {
	repo := &fakeRepo{records: []core.Record{
		{ID: "t1", Date: core.NewDate(2024, 6, 3), Amount: core.Money{Cents: 1250}, Kind: core.Expense, Description: "Cena con amigos"},
		{ID: "t2", Date: core.NewDate(2024, 6, 4), Amount: core.Money{Cents: 9900}, Kind: core.Expense, Description: "Gasolina"},
	}}
	srv := newTestServer(t, repo, Options{})

	rr := doJSON(srv, http.MethodGet, "/api/search?q=cena", "")
	if rr.Code != 200 {
		t.Fatalf("status=%d", rr.Code)
	}
	var out []transactionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].ID != "t1" {
		t.Fatalf("results=%+v", out)
	}
}

func TestExportCSV(t *testing.T) {
	repo := &fakeRepo{records: []core.Record{
		{ID: "t1", Date: core.NewDate(2024, 6, 3), Amount: core.Money{Cents: 5000}, Kind: core.Expense},
	}}
	srv := newTestServer(t, repo, Options{})

	rr := doJSON(srv, http.MethodGet, "/api/report/export.csv?from=2024-06-01&to=2024-06-30", "")
	if rr.Code != 200 {
		t.Fatalf("status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type=%q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	if lines[0] != "fecha,tipo,categoria,descripcion,monto" {
		t.Fatalf("header=%q", lines[0])
	}
	if len(lines) != 2 || !strings.Contains(lines[1], "Sin Categoría") {
		t.Fatalf("rows=%v", lines)
	}

	rr = doJSON(srv, http.MethodGet, "/api/report/export.csv?from=2024-07-01&to=2024-06-01", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("inverted range status=%d", rr.Code)
	}
}

func TestExportSheets(t *testing.T) {
	repo := &fakeRepo{records: []core.Record{
		{ID: "t1", Date: core.NewDate(2024, 6, 3), Amount: core.Money{Cents: 5000}, Kind: core.Expense, CategoryName: "Casa"},
	}}

	srv := newTestServer(t, repo, Options{})
	rr := doJSON(srv, http.MethodPost, "/api/report/export/sheets", "")
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("unconfigured status=%d", rr.Code)
	}

	exporter := memory.New()
	srv = newTestServer(t, repo, Options{Exporter: exporter, SheetName: "Resumen"})
	rr = doJSON(srv, http.MethodPost, "/api/report/export/sheets", "")
	if rr.Code != 200 {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rows := exporter.Rows("Resumen"); len(rows) == 0 {
		t.Fatal("no rows exported")
	}
}

func TestBudgetEndpoints(t *testing.T) {
	repo := &fakeRepo{records: []core.Record{
		{ID: "t1", Date: core.NewDate(2024, 6, 10), Amount: core.Money{Cents: 30000}, Kind: core.Expense},
	}}
	srv := newTestServer(t, repo, Options{})

	rr := doJSON(srv, http.MethodPost, "/api/budgets",
		`{"name":"Mensual","amount":"500","period":"monthly"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	var created budgetResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.AmountCents != 50000 || !created.Active {
		t.Fatalf("created=%+v", created)
	}

	rr = doJSON(srv, http.MethodPost, "/api/budgets", `{"name":"Roto","amount":"10","period":"fortnightly"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad period status=%d", rr.Code)
	}

	rr = doJSON(srv, http.MethodGet, "/api/budgets/progress", "")
	if rr.Code != 200 {
		t.Fatalf("progress status=%d", rr.Code)
	}
	var progress []budgetProgressResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &progress); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(progress) != 1 || progress[0].SpentCents != 30000 || progress[0].Percentage != 60 {
		t.Fatalf("progress=%+v", progress)
	}

	rr = doJSON(srv, http.MethodPatch, "/api/budgets/"+created.ID+"/active", `{"active":false}`)
	if rr.Code != 200 {
		t.Fatalf("deactivate status=%d", rr.Code)
	}
	rr = doJSON(srv, http.MethodGet, "/api/budgets?active=true", "")
	var active []budgetResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &active); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("active=%+v", active)
	}

	rr = doJSON(srv, http.MethodDelete, "/api/budgets/"+created.ID, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = doJSON(srv, http.MethodDelete, "/api/budgets/"+created.ID, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("delete again status=%d", rr.Code)
	}
}

func TestFixedExpenseEndpoints(t *testing.T) {
	srv := newTestServer(t, &fakeRepo{}, Options{})

	rr := doJSON(srv, http.MethodPost, "/api/fixed-expenses",
		`{"month":"2024-06","name":"Alquiler","amount":"800","due_date":"05/06/2024"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	var rent fixedExpenseResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &rent); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rr = doJSON(srv, http.MethodPost, "/api/fixed-expenses",
		`{"month":"2024-06","name":"Luz","amount":"45.50"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(srv, http.MethodPost, "/api/fixed-expenses",
		`{"month":"2024-06","name":"Gas","amount":"30","due_date":"pronto"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad due date status=%d", rr.Code)
	}

	rr = doJSON(srv, http.MethodPost, "/api/fixed-expenses/"+rent.ID+"/paid", `{"paid":true}`)
	if rr.Code != 200 {
		t.Fatalf("set paid status=%d", rr.Code)
	}

	rr = doJSON(srv, http.MethodGet, "/api/fixed-expenses?month=2024-06&sort=amount&dir=desc", "")
	if rr.Code != 200 {
		t.Fatalf("list status=%d", rr.Code)
	}
	var view monthViewResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.TotalCount != 2 || view.TotalCents != 84550 || view.PaidCents != 80000 {
		t.Fatalf("view=%+v", view)
	}
	if view.Expenses[0].Name != "Alquiler" {
		t.Fatalf("sort order=%+v", view.Expenses)
	}

	rr = doJSON(srv, http.MethodGet, "/api/fixed-expenses?month=2024-06&paid=false", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.TotalCount != 1 || view.Expenses[0].Name != "Luz" {
		t.Fatalf("unpaid view=%+v", view)
	}

	rr = doJSON(srv, http.MethodDelete, "/api/fixed-expenses/"+rent.ID, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
}

func TestCategoriesAndGroups(t *testing.T) {
	srv := newTestServer(t, &fakeRepo{}, Options{})

	rr := doJSON(srv, http.MethodPost, "/api/categories", `{"name":"  Comida  "}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d", rr.Code)
	}
	var cat categoryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &cat); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cat.Name != "Comida" {
		t.Fatalf("name not trimmed: %q", cat.Name)
	}

	rr = doJSON(srv, http.MethodPost, "/api/categories", `{"name":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty name status=%d", rr.Code)
	}

	rr = doJSON(srv, http.MethodPost, "/api/groups", `{"name":"Servicios"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("group status=%d", rr.Code)
	}
	rr = doJSON(srv, http.MethodGet, "/api/groups", "")
	var groups []groupResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &groups); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(groups) != 1 || groups[0].Name != "Servicios" {
		t.Fatalf("groups=%+v", groups)
	}
}

func TestSuspiciousRequestRejected(t *testing.T) {
	srv := newTestServer(t, &fakeRepo{}, Options{})
	rr := doJSON(srv, http.MethodGet, "/api/search?q=../../etc/passwd", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestRateLimitOnWrites(t *testing.T) {
	srv := newTestServer(t, &fakeRepo{}, Options{})

	var limited bool
	for i := 0; i < 70; i++ {
		rr := doJSON(srv, http.MethodPost, "/api/categories", `{"name":"x"}`)
		if rr.Code == http.StatusTooManyRequests {
			if rr.Header().Get("Retry-After") == "" {
				t.Fatal("missing Retry-After header")
			}
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("rate limit never triggered")
	}

	// Reads stay unthrottled.
	rr := doJSON(srv, http.MethodGet, "/api/categories", "")
	if rr.Code != 200 {
		t.Fatalf("read status=%d", rr.Code)
	}
}
