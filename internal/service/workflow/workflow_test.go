// internal/service/workflow/workflow_test.go
//
// Service tests using sqlmock.  Every statement the service issues is
// expected explicitly, so guard refusals double as proof that nothing
// reached the driver.
//
// Run: go test ./internal/service/workflow -v

package workflow

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/worklane/worklane/internal/audit"
	"github.com/worklane/worklane/internal/identity"
	"github.com/worklane/worklane/internal/lifecycle"
	"github.com/worklane/worklane/internal/store"
	"github.com/worklane/worklane/internal/tenancy"
)

var (
	owner    = identity.Actor{ID: 3, Roles: []string{identity.RoleMember}}
	approver = identity.Actor{ID: 2, Roles: []string{identity.RoleApprover}}
)

func newService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	st := store.New(sqlx.NewDb(db, "sqlmock"))
	return NewService(st, audit.New(st)), mock
}

func tenantCtx(id uint64) context.Context {
	return tenancy.With(context.Background(), tenancy.Context{TenantID: id})
}

func requestColumns() []string {
	return []string{"id", "tenant_id", "number", "title", "detail", "state",
		"created_by", "decided_by", "comment", "created_at", "updated_at"}
}

func expectByID(mock sqlmock.Sqlmock, id, tenant uint64, state lifecycle.WorkflowState, createdBy uint64) {
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM workflow WHERE id = ? AND tenant_id = ? LIMIT 1`,
	)).
		WithArgs(id, tenant).
		WillReturnRows(sqlmock.NewRows(requestColumns()).
			AddRow(id, tenant, "WF-000010", "laptop", "", string(state),
				createdBy, nil, "", now, now))
}

func TestApproveHappyPath(t *testing.T) {
	s, mock := newService(t)

	expectByID(mock, 10, 1, lifecycle.WorkflowSubmitted, owner.ID)
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE workflow SET comment = ?, decided_by = ?, state = ?, updated_at = ? WHERE id = ? AND tenant_id = ?`,
	)).
		WithArgs("ok", approver.ID, "approved", sqlmock.AnyArg(), uint64(10), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.Approve(tenantCtx(1), approver, 10, "ok"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestApproveOwnRequestRefused(t *testing.T) {
	s, mock := newService(t)

	// The creator also holds the approver role; the self-action guard
	// must still refuse, before any UPDATE.
	self := identity.Actor{ID: owner.ID, Roles: []string{identity.RoleApprover}}
	expectByID(mock, 10, 1, lifecycle.WorkflowSubmitted, owner.ID)

	if err := s.Approve(tenantCtx(1), self, 10, ""); !errors.Is(err, ErrSelfAction) {
		t.Fatalf("want ErrSelfAction, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("update reached the driver: %v", err)
	}
}

func TestApproveWithoutRoleRefused(t *testing.T) {
	s, mock := newService(t)

	expectByID(mock, 10, 1, lifecycle.WorkflowSubmitted, owner.ID)

	member := identity.Actor{ID: 5, Roles: []string{identity.RoleMember}}
	if err := s.Approve(tenantCtx(1), member, 10, ""); !errors.Is(err, ErrRole) {
		t.Fatalf("want ErrRole, got %v", err)
	}
}

func TestApproveDraftIsIllegalTransition(t *testing.T) {
	s, mock := newService(t)

	expectByID(mock, 10, 1, lifecycle.WorkflowDraft, owner.ID)

	err := s.Approve(tenantCtx(1), approver, 10, "")
	var te *lifecycle.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("want TransitionError, got %v", err)
	}
	if te.From != "draft" || te.To != "approved" {
		t.Fatalf("error must name both states: %+v", te)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("update reached the driver: %v", err)
	}
}

func TestSubmitByNonOwnerRefused(t *testing.T) {
	s, mock := newService(t)

	expectByID(mock, 10, 1, lifecycle.WorkflowDraft, owner.ID)

	if err := s.Submit(tenantCtx(1), approver, 10); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("want ErrNotOwner, got %v", err)
	}
}

func TestSubmitMovesDraft(t *testing.T) {
	s, mock := newService(t)

	expectByID(mock, 10, 1, lifecycle.WorkflowDraft, owner.ID)
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE workflow SET state = ?, updated_at = ? WHERE id = ? AND tenant_id = ?`,
	)).
		WithArgs("submitted", sqlmock.AnyArg(), uint64(10), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.Submit(tenantCtx(1), owner, 10); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestByIDNotFoundInOtherTenant(t *testing.T) {
	s, mock := newService(t)

	// The row exists under tenant 1; tenant 2's scope sees nothing.
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM workflow WHERE id = ? AND tenant_id = ? LIMIT 1`,
	)).
		WithArgs(uint64(10), uint64(2)).
		WillReturnRows(sqlmock.NewRows(requestColumns()))

	if _, err := s.ByID(tenantCtx(2), 10); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestActionsWithoutContextFail(t *testing.T) {
	s, mock := newService(t)

	if err := s.Submit(context.Background(), owner, 10); !errors.Is(err, store.ErrNoTenant) {
		t.Fatalf("want ErrNoTenant, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("driver was touched: %v", err)
	}
}
