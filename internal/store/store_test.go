// internal/store/store_test.go
//
// Executor tests using sqlmock: every statement that reaches the driver
// must already carry the ambient tenant, and guarded operations must never
// reach the driver at all.
//
// Run: go test ./internal/store -v

package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/worklane/worklane/internal/tenancy"
)

func newStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "sqlmock")), mock
}

type expenseRow struct {
	ID       uint64 `db:"id"`
	TenantID uint64 `db:"tenant_id"`
	Status   string `db:"status"`
}

func TestSelectInjectsTenantPredicate(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM expense WHERE status = ? AND tenant_id = ?`,
	)).
		WithArgs("pending", uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "status"}).
			AddRow(1, 42, "pending"))

	ctx := tenancy.With(context.Background(), tenancy.Context{TenantID: 42})
	var out []expenseRow
	if err := s.Select(ctx, EntityExpense, &out, Filter{"status": "pending"}, ""); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(out) != 1 || out[0].TenantID != 42 {
		t.Fatalf("unexpected rows: %#v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestIsolationBetweenTenants(t *testing.T) {
	// The same call under two different contexts must reach the driver
	// with two different tenant arguments; the caller has no say.
	s, mock := newStore(t)
	q := regexp.QuoteMeta(`SELECT COUNT(*) FROM timesheet WHERE tenant_id = ?`)

	mock.ExpectQuery(q).WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(q).WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	for _, tc := range []struct {
		tenant uint64
		want   int64
	}{{1, 3}, {2, 0}} {
		ctx := tenancy.With(context.Background(), tenancy.Context{TenantID: tc.tenant})
		n, err := s.Count(ctx, EntityTimesheet, nil)
		if err != nil {
			t.Fatalf("Count tenant %d: %v", tc.tenant, err)
		}
		if n != tc.want {
			t.Fatalf("tenant %d: got %d rows, want %d", tc.tenant, n, tc.want)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestInsertStampsTenant(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO task (tenant_id, title) VALUES (?, ?)`,
	)).
		WithArgs(uint64(7), "write tests").
		WillReturnResult(sqlmock.NewResult(11, 1))

	ctx := tenancy.With(context.Background(), tenancy.Context{TenantID: 7})
	id, err := s.Insert(ctx, EntityTask, Payload{"title": "write tests"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id != 11 {
		t.Fatalf("got id %d, want 11", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestInsertManyStampsEveryRow(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO notification (msg, tenant_id) VALUES (?, ?), (?, ?)`,
	)).
		WithArgs("a", uint64(5), "b", uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	ctx := tenancy.With(context.Background(), tenancy.Context{TenantID: 5})
	err := s.InsertMany(ctx, EntityNotification,
		[]Payload{{"msg": "a"}, {"msg": "b"}})
	if err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestBypassSkipsTenantPredicate(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM user_role WHERE user_id = ?`,
	)).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	ctx := tenancy.With(context.Background(), tenancy.Context{Bypass: true})
	if _, err := s.Count(ctx, EntityUserRole, Filter{"user_id": uint64(9)}); err != nil {
		t.Fatalf("Count: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestMissingContextPerformsNoStoreAccess(t *testing.T) {
	s, mock := newStore(t)
	// No expectations: any SQL reaching the driver fails the test.

	_, err := s.Delete(context.Background(), EntityDocument, Filter{"id": 1})
	if !errors.Is(err, ErrNoTenant) {
		t.Fatalf("want ErrNoTenant, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("driver was touched: %v", err)
	}
}

func TestAuditMutationsNeverReachDriver(t *testing.T) {
	s, mock := newStore(t)

	ctx := tenancy.With(context.Background(), tenancy.Context{TenantID: 1})
	if _, err := s.Update(ctx, EntityAuditLog,
		Filter{"id": 1}, Payload{"detail": "edited"}); !errors.Is(err, ErrAuditImmutable) {
		t.Fatalf("update: want ErrAuditImmutable, got %v", err)
	}
	if _, err := s.DeleteAll(ctx, EntityAuditLog, nil); !errors.Is(err, ErrAuditImmutable) {
		t.Fatalf("delete: want ErrAuditImmutable, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("driver was touched: %v", err)
	}
}

func TestUpdateScopesFilter(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE project SET state = ? WHERE id = ? AND tenant_id = ?`,
	)).
		WithArgs("active", uint64(4), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := tenancy.With(context.Background(), tenancy.Context{TenantID: 2})
	n, err := s.Update(ctx, EntityProject,
		Filter{"id": uint64(4)}, Payload{"state": "active"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if n != 1 {
		t.Fatalf("rows affected: got %d, want 1", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
