// internal/service/project/project.go
//
// Project status service.  Completion and cancellation require the admin
// role; the table forbids reopening a completed project.
package project

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/worklane/worklane/internal/audit"
	"github.com/worklane/worklane/internal/identity"
	"github.com/worklane/worklane/internal/lifecycle"
	"github.com/worklane/worklane/internal/metrics"
	"github.com/worklane/worklane/internal/store"
)

var (
	ErrNotFound = errors.New("project: not found")
	ErrRole     = errors.New("project: admin role required")
)

// Project mirrors one row in `project`.
type Project struct {
	ID        uint64                 `db:"id"`
	TenantID  uint64                 `db:"tenant_id"`
	Name      string                 `db:"name"`
	State     lifecycle.ProjectState `db:"state"`
	OwnerID   uint64                 `db:"owner_id"`
	CreatedAt time.Time              `db:"created_at"`
	UpdatedAt time.Time              `db:"updated_at"`
}

type Service struct {
	store *store.Store
	audit *audit.Recorder
}

func NewService(s *store.Store, a *audit.Recorder) *Service {
	return &Service{store: s, audit: a}
}

// ByID fetches one project under the ambient tenant.
func (s *Service) ByID(ctx context.Context, id uint64) (*Project, error) {
	var p Project
	err := s.store.Get(ctx, store.EntityProject, &p, store.Filter{"id": id})
	if store.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Activate moves planning → active.
func (s *Service) Activate(ctx context.Context, actor identity.Actor, id uint64) error {
	return s.move(ctx, actor, id, lifecycle.ProjectActive, "project.activate")
}

// Complete moves active → completed.
func (s *Service) Complete(ctx context.Context, actor identity.Actor, id uint64) error {
	return s.move(ctx, actor, id, lifecycle.ProjectCompleted, "project.complete")
}

// Cancel moves active → cancelled.
func (s *Service) Cancel(ctx context.Context, actor identity.Actor, id uint64) error {
	return s.move(ctx, actor, id, lifecycle.ProjectCancelled, "project.cancel")
}

func (s *Service) move(ctx context.Context, actor identity.Actor, id uint64, to lifecycle.ProjectState, action string) error {
	p, err := s.ByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.HasRole(identity.RoleAdmin) {
		return fmt.Errorf("%s %q: %w", action, p.Name, ErrRole)
	}
	if !lifecycle.Can(lifecycle.Project, p.State, to) {
		metrics.TransitionDenialsTotal.Inc()
		return lifecycle.Refuse("project", p.State, to)
	}

	if _, err := s.store.Update(ctx, store.EntityProject,
		store.Filter{"id": id}, store.Payload{
			"state":      string(to),
			"updated_at": time.Now().UTC(),
		}); err != nil {
		return err
	}

	s.audit.Record(ctx, actor.ID, action, store.EntityProject, id,
		fmt.Sprintf("%s: %s to %s", p.Name, p.State, to))
	return nil
}
