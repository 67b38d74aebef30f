// internal/service/workflow/workflow.go
//
// Workflow request service (approval lifecycle).
//
// Context
// -------
// The service owns the guards that vary per entity — ownership, self-action
// prohibition, role checks — and applies them around the uniform table
// check in internal/lifecycle.  Data access goes through the scoped store,
// so every query here is already tenant-filtered; none of these methods
// mention tenant_id.
//
// Guard order on every status move: fetch row (tenant-scoped), domain
// guards, table check, update, audit.  The table check runs before the
// update, so an illegal move never reaches storage.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/worklane/worklane/internal/audit"
	"github.com/worklane/worklane/internal/identity"
	"github.com/worklane/worklane/internal/lifecycle"
	"github.com/worklane/worklane/internal/metrics"
	"github.com/worklane/worklane/internal/sequence"
	"github.com/worklane/worklane/internal/store"
)

// Guard failures.  All are expected, user-facing conditions.
var (
	ErrNotFound   = errors.New("workflow: request not found")
	ErrNotOwner   = errors.New("workflow: only the creator may do this")
	ErrSelfAction = errors.New("workflow: cannot decide your own request")
	ErrRole       = errors.New("workflow: approver or admin role required")
)

// Request mirrors one row in `workflow`.
type Request struct {
	ID        uint64                  `db:"id"`
	TenantID  uint64                  `db:"tenant_id"`
	Number    string                  `db:"number"`
	Title     string                  `db:"title"`
	Detail    string                  `db:"detail"`
	State     lifecycle.WorkflowState `db:"state"`
	CreatedBy uint64                  `db:"created_by"`
	DecidedBy *uint64                 `db:"decided_by"`
	Comment   string                  `db:"comment"`
	CreatedAt time.Time               `db:"created_at"`
	UpdatedAt time.Time               `db:"updated_at"`
}

// Service wires the scoped store, the sequence minter, and the audit
// recorder.
type Service struct {
	store *store.Store
	audit *audit.Recorder
}

func NewService(s *store.Store, a *audit.Recorder) *Service {
	return &Service{store: s, audit: a}
}

// Create mints a WF number and inserts a draft request owned by actor.
func (s *Service) Create(ctx context.Context, actor identity.Actor, title, detail string) (*Request, error) {
	n, err := sequence.Next(ctx, s.store.DB(), sequence.KindWorkflow)
	if err != nil {
		return nil, err
	}
	number := sequence.Format(sequence.KindWorkflow, n)

	now := time.Now().UTC()
	id, err := s.store.Insert(ctx, store.EntityWorkflow, store.Payload{
		"number":     number,
		"title":      title,
		"detail":     detail,
		"state":      string(lifecycle.WorkflowDraft),
		"created_by": actor.ID,
		"comment":    "",
		"created_at": now,
		"updated_at": now,
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor.ID, "workflow.create", store.EntityWorkflow, uint64(id), number)
	return s.ByID(ctx, uint64(id))
}

// ByID fetches one request under the ambient tenant.
func (s *Service) ByID(ctx context.Context, id uint64) (*Request, error) {
	var req Request
	err := s.store.Get(ctx, store.EntityWorkflow, &req, store.Filter{"id": id})
	if store.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Submit moves a draft to submitted.  Only the creator may submit.
func (s *Service) Submit(ctx context.Context, actor identity.Actor, id uint64) error {
	req, err := s.ByID(ctx, id)
	if err != nil {
		return err
	}
	if req.CreatedBy != actor.ID {
		return fmt.Errorf("submit %s: %w", req.Number, ErrNotOwner)
	}
	return s.move(ctx, actor, req, lifecycle.WorkflowSubmitted, "workflow.submit", store.Payload{})
}

// Withdraw lets the creator pull back a submitted request.
func (s *Service) Withdraw(ctx context.Context, actor identity.Actor, id uint64) error {
	req, err := s.ByID(ctx, id)
	if err != nil {
		return err
	}
	if req.CreatedBy != actor.ID {
		return fmt.Errorf("withdraw %s: %w", req.Number, ErrNotOwner)
	}
	return s.move(ctx, actor, req, lifecycle.WorkflowWithdrawn, "workflow.withdraw", store.Payload{})
}

// Approve marks a submitted request approved.  Requires the approver or
// admin role, and the decider must not be the creator.
func (s *Service) Approve(ctx context.Context, actor identity.Actor, id uint64, comment string) error {
	return s.decide(ctx, actor, id, lifecycle.WorkflowApproved, "workflow.approve", comment)
}

// Reject marks a submitted request rejected, same guards as Approve.
func (s *Service) Reject(ctx context.Context, actor identity.Actor, id uint64, comment string) error {
	return s.decide(ctx, actor, id, lifecycle.WorkflowRejected, "workflow.reject", comment)
}

func (s *Service) decide(ctx context.Context, actor identity.Actor, id uint64, to lifecycle.WorkflowState, action, comment string) error {
	req, err := s.ByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.HasRole(identity.RoleApprover, identity.RoleAdmin) {
		return fmt.Errorf("%s %s: %w", action, req.Number, ErrRole)
	}
	if req.CreatedBy == actor.ID {
		return fmt.Errorf("%s %s: %w", action, req.Number, ErrSelfAction)
	}
	return s.move(ctx, actor, req, to, action, store.Payload{
		"decided_by": actor.ID,
		"comment":    comment,
	})
}

// move validates the transition, updates the row, and records the audit
// entry.  extra carries decision columns on approve and reject.
func (s *Service) move(ctx context.Context, actor identity.Actor, req *Request, to lifecycle.WorkflowState, action string, extra store.Payload) error {
	if !lifecycle.Can(lifecycle.Workflow, req.State, to) {
		metrics.TransitionDenialsTotal.Inc()
		return lifecycle.Refuse("workflow", req.State, to)
	}

	extra["state"] = string(to)
	extra["updated_at"] = time.Now().UTC()
	if _, err := s.store.Update(ctx, store.EntityWorkflow,
		store.Filter{"id": req.ID}, extra); err != nil {
		return err
	}

	s.audit.Record(ctx, actor.ID, action, store.EntityWorkflow, req.ID,
		fmt.Sprintf("%s: %s to %s", req.Number, req.State, to))
	return nil
}
