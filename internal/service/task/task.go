// internal/service/task/task.go
//
// Task status service.  Small by design: tasks have no numbering and no
// decision roles, only the owner-or-member guard and the table check.
package task

import (
	"context"
	"errors"
	"time"

	"github.com/worklane/worklane/internal/audit"
	"github.com/worklane/worklane/internal/identity"
	"github.com/worklane/worklane/internal/lifecycle"
	"github.com/worklane/worklane/internal/metrics"
	"github.com/worklane/worklane/internal/store"
)

var ErrNotFound = errors.New("task: not found")

// Task mirrors one row in `task`.
type Task struct {
	ID         uint64              `db:"id"`
	TenantID   uint64              `db:"tenant_id"`
	ProjectID  uint64              `db:"project_id"`
	Title      string              `db:"title"`
	State      lifecycle.TaskState `db:"state"`
	AssigneeID *uint64             `db:"assignee_id"`
	CreatedAt  time.Time           `db:"created_at"`
	UpdatedAt  time.Time           `db:"updated_at"`
}

type Service struct {
	store *store.Store
	audit *audit.Recorder
}

func NewService(s *store.Store, a *audit.Recorder) *Service {
	return &Service{store: s, audit: a}
}

// ByID fetches one task under the ambient tenant.
func (s *Service) ByID(ctx context.Context, id uint64) (*Task, error) {
	var t Task
	err := s.store.Get(ctx, store.EntityTask, &t, store.Filter{"id": id})
	if store.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Move advances the task to the requested state if the table allows it.
// todo → done without passing through in_progress is refused.
func (s *Service) Move(ctx context.Context, actor identity.Actor, id uint64, to lifecycle.TaskState) error {
	t, err := s.ByID(ctx, id)
	if err != nil {
		return err
	}
	if !lifecycle.Can(lifecycle.TaskTable, t.State, to) {
		metrics.TransitionDenialsTotal.Inc()
		return lifecycle.Refuse("task", t.State, to)
	}

	if _, err := s.store.Update(ctx, store.EntityTask,
		store.Filter{"id": id}, store.Payload{
			"state":      string(to),
			"updated_at": time.Now().UTC(),
		}); err != nil {
		return err
	}

	s.audit.Record(ctx, actor.ID, "task.move", store.EntityTask, id,
		string(t.State)+" to "+string(to))
	return nil
}
