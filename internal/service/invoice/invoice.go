// internal/service/invoice/invoice.go
//
// Invoice service (billing lifecycle).
//
// Same shape as the workflow service: domain guards around the uniform
// table check, tenant scoping handled entirely by the store chokepoint.
// Line items ride under the same tenant scope as their invoice; the
// invoice total is an aggregate over them, never a stored duplicate.
package invoice

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

var (
	ErrNotFound = errors.New("invoice: not found")
	ErrRole     = errors.New("invoice: admin role required")
	ErrNotDraft = errors.New("invoice: line items can only change on a draft")
)

// Invoice mirrors one row in `invoice`.
type Invoice struct {
	ID        uint64                 `db:"id"`
	TenantID  uint64                 `db:"tenant_id"`
	Number    string                 `db:"number"`
	ProjectID uint64                 `db:"project_id"`
	State     lifecycle.InvoiceState `db:"state"`
	CreatedBy uint64                 `db:"created_by"`
	CreatedAt time.Time              `db:"created_at"`
	UpdatedAt time.Time              `db:"updated_at"`
}

// Line mirrors one row in `invoice_line_item`.
type Line struct {
	ID          uint64    `db:"id"`
	TenantID    uint64    `db:"tenant_id"`
	InvoiceID   uint64    `db:"invoice_id"`
	Description string    `db:"description"`
	Quantity    float64   `db:"quantity"`
	UnitPrice   float64   `db:"unit_price"`
	Amount      float64   `db:"amount"`
	CreatedAt   time.Time `db:"created_at"`
}

type Service struct {
	store *store.Store
	audit *audit.Recorder
}

func NewService(s *store.Store, a *audit.Recorder) *Service {
	return &Service{store: s, audit: a}
}

// Create mints an INV number and inserts a draft invoice.
func (s *Service) Create(ctx context.Context, actor identity.Actor, projectID uint64) (*Invoice, error) {
	n, err := sequence.Next(ctx, s.store.DB(), sequence.KindInvoice)
	if err != nil {
		return nil, err
	}
	number := sequence.Format(sequence.KindInvoice, n)

	now := time.Now().UTC()
	id, err := s.store.Insert(ctx, store.EntityInvoice, store.Payload{
		"number":     number,
		"project_id": projectID,
		"state":      string(lifecycle.InvoiceDraft),
		"created_by": actor.ID,
		"created_at": now,
		"updated_at": now,
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor.ID, "invoice.create", store.EntityInvoice, uint64(id), number)
	return s.ByID(ctx, uint64(id))
}

// ByID fetches one invoice under the ambient tenant.
func (s *Service) ByID(ctx context.Context, id uint64) (*Invoice, error) {
	var inv Invoice
	err := s.store.Get(ctx, store.EntityInvoice, &inv, store.Filter{"id": id})
	if store.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// AddLine appends a line item to a draft invoice.
func (s *Service) AddLine(ctx context.Context, actor identity.Actor, invoiceID uint64, description string, qty, unitPrice float64) error {
	inv, err := s.ByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if inv.State != lifecycle.InvoiceDraft {
		return fmt.Errorf("add line to %s: %w", inv.Number, ErrNotDraft)
	}

	_, err = s.store.Insert(ctx, store.EntityInvoiceLineItem, store.Payload{
		"invoice_id":  invoiceID,
		"description": description,
		"quantity":    qty,
		"unit_price":  unitPrice,
		"amount":      qty * unitPrice,
		"created_at":  time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, actor.ID, "invoice.add_line", store.EntityInvoice, invoiceID, description)
	return nil
}

// Total sums the invoice's line-item amounts under the ambient tenant.
func (s *Service) Total(ctx context.Context, invoiceID uint64) (float64, error) {
	return s.store.Sum(ctx, store.EntityInvoiceLineItem, "amount",
		store.Filter{"invoice_id": invoiceID})
}

// Send moves draft → sent.
func (s *Service) Send(ctx context.Context, actor identity.Actor, id uint64) error {
	return s.move(ctx, actor, id, lifecycle.InvoiceSent, "invoice.send")
}

// Pay moves sent → paid.  Paying a draft is refused by the table — payment
// requires the invoice to have been sent.
func (s *Service) Pay(ctx context.Context, actor identity.Actor, id uint64) error {
	return s.move(ctx, actor, id, lifecycle.InvoicePaid, "invoice.pay")
}

// Cancel is legal from draft and sent; paid invoices never move again.
func (s *Service) Cancel(ctx context.Context, actor identity.Actor, id uint64) error {
	return s.move(ctx, actor, id, lifecycle.InvoiceCancelled, "invoice.cancel")
}

func (s *Service) move(ctx context.Context, actor identity.Actor, id uint64, to lifecycle.InvoiceState, action string) error {
	inv, err := s.ByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.HasRole(identity.RoleAdmin) {
		return fmt.Errorf("%s %s: %w", action, inv.Number, ErrRole)
	}
	if !lifecycle.Can(lifecycle.Invoice, inv.State, to) {
		metrics.TransitionDenialsTotal.Inc()
		return lifecycle.Refuse("invoice", inv.State, to)
	}

	if _, err := s.store.Update(ctx, store.EntityInvoice,
		store.Filter{"id": id}, store.Payload{
			"state":      string(to),
			"updated_at": time.Now().UTC(),
		}); err != nil {
		return err
	}

	s.audit.Record(ctx, actor.ID, action, store.EntityInvoice, id,
		fmt.Sprintf("%s: %s to %s", inv.Number, inv.State, to))
	return nil
}
